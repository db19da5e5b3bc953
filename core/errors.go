package core

import "errors"

// Domain validation errors
var (
	// ErrInvalidDocument indicates a Document failed validation.
	ErrInvalidDocument = errors.New("invalid document")

	// ErrEmptyAuthor indicates the Author field is empty.
	ErrEmptyAuthor = errors.New("author cannot be empty")

	// ErrEmptySkillSignal indicates the SkillSignal (title) field is empty.
	ErrEmptySkillSignal = errors.New("skill signal cannot be empty")

	// ErrContextTooLong indicates the Context field exceeds the upstream truncation limit.
	ErrContextTooLong = errors.New("context exceeds maximum length")

	// ErrInvalidMergedAt indicates MergedAt is not an RFC 3339 timestamp.
	ErrInvalidMergedAt = errors.New("merged_at is not a valid timestamp")
)
