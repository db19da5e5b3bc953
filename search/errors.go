package search

import "errors"

var (
	// ErrNilDocument is returned when a corpus passed to Build contains a nil document.
	ErrNilDocument = errors.New("corpus contains a nil document")
)
