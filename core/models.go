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

// Package core defines the pull request documents, search results and
// attributions shared by every other package.
package core

//go:generate go run ../cmd/musgen

import (
	"encoding/binary"

	"github.com/go-crypt/x/blake2b"
)

type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
// This ensures that identical content produces identical IDs.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// Document is a single merged pull request used as a proof-of-work signal.
// Documents are immutable once loaded into a corpus.
type Document struct {
	Id          ID     `json:"-"`
	Seq         uint64 `json:"-"` // Position in the document store (assigned on insert)
	Author      string `json:"author"`
	SkillSignal string `json:"skill_signal"` // Pull request title
	Context     string `json:"context"`      // Pull request body, truncated upstream
	MergedAt    string `json:"merged_at"`
	ProofURL    string `json:"proof_url"`
}

// DocumentID returns the content ID of a document.
// The proof URL identifies a pull request; documents without one fall back
// to the author and title.
func DocumentID(doc *Document) ID {
	if doc.ProofURL != "" {
		return IDFromContent(doc.ProofURL)
	}
	return IDFromContent(doc.Author + "\x00" + doc.SkillSignal)
}

// IndexText returns the text that is tokenized when the document is indexed:
// the title and the body separated by a single space.
func (d *Document) IndexText() string {
	return d.SkillSignal + " " + d.Context
}

// SearchResult represents a search result with the full document and relevance score.
type SearchResult struct {
	Document *Document
	Score    float64
}

// Verdict classifies an attribution score.
type Verdict int

const (
	// VerdictHighLogic marks work with a very low AI score.
	VerdictHighLogic Verdict = iota + 1
	// VerdictLikelyHuman marks work with an intermediate AI score.
	VerdictLikelyHuman
	// VerdictLikelyAI marks work with a high AI score.
	VerdictLikelyAI
)

func (v Verdict) String() string {
	switch v {
	case VerdictHighLogic:
		return "High Logic (Human)"
	case VerdictLikelyHuman:
		return "Likely Human"
	case VerdictLikelyAI:
		return "Likely AI"
	default:
		return "Unknown"
	}
}

// Attribution holds the heuristic signals computed for a document's text.
type Attribution struct {
	Document     *Document
	Score        float64 // Pseudo-probability of AI authorship in [0, 1]
	Entropy      float64 // Shannon entropy in bits per character
	CommentRatio float64 // Fraction of non-blank lines that look like comments
	LineStdDev   float64 // Standard deviation of non-blank line lengths
	Verdict      Verdict
}
