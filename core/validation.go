// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package core

import (
	"fmt"
	"time"
	"unicode/utf8"
)

const (
	// ContextLimit is the number of body characters kept before truncation.
	ContextLimit = 100

	// TruncationMarker is appended to bodies longer than ContextLimit.
	TruncationMarker = "..."

	// MaxContextLength is the longest Context a well-formed Document may carry.
	MaxContextLength = ContextLimit + len(TruncationMarker)
)

// TruncateContext shortens a pull request body to ContextLimit characters,
// appending TruncationMarker when anything was cut.
func TruncateContext(body string) string {
	if utf8.RuneCountInString(body) <= ContextLimit {
		return body
	}
	runes := []rune(body)
	return string(runes[:ContextLimit]) + TruncationMarker
}

// ValidateDocument validates a Document according to domain rules.
//
// Validation rules:
//   - Author must not be empty
//   - SkillSignal must not be empty
//   - Context must be at most MaxContextLength characters
//   - MergedAt, when present, must be an RFC 3339 timestamp
//
// NOT validated:
//   - ProofURL (opaque reference text)
//   - Id and Seq (assigned by storage)
func ValidateDocument(doc *Document) error {
	if doc == nil {
		return fmt.Errorf("%w: document is nil", ErrInvalidDocument)
	}

	if doc.Author == "" {
		return fmt.Errorf("%w: %w", ErrInvalidDocument, ErrEmptyAuthor)
	}

	if doc.SkillSignal == "" {
		return fmt.Errorf("%w: %w", ErrInvalidDocument, ErrEmptySkillSignal)
	}

	if n := utf8.RuneCountInString(doc.Context); n > MaxContextLength {
		return fmt.Errorf("%w: %w: %d characters", ErrInvalidDocument, ErrContextTooLong, n)
	}

	if doc.MergedAt != "" && !IsValidTimestamp(doc.MergedAt) {
		return fmt.Errorf("%w: %w: %q", ErrInvalidDocument, ErrInvalidMergedAt, doc.MergedAt)
	}

	return nil
}

// IsValidTimestamp checks if a timestamp string parses as RFC 3339.
func IsValidTimestamp(ts string) bool {
	_, err := time.Parse(time.RFC3339, ts)
	return err == nil
}
