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

// Package attribution scores how likely a document's text was machine
// written, using character entropy and line structure.
//
// The score is a heuristic pseudo-probability, not a classifier output.
// Predictable text, heavy commenting and uniform line lengths push it up;
// high entropy and jagged lines push it down.
package attribution

import (
	"math"
	"strings"

	"github.com/poiesic/signalsearch/core"
)

// Scoring thresholds.
const (
	LowEntropy         = 4.2
	HighEntropy        = 4.8
	CommentRatioLimit  = 0.25
	UniformLineStdDev  = 10.0
	JaggedLineStdDev   = 30.0
	LikelyAIThreshold  = 0.6
	HighLogicThreshold = 0.3
	lowEntropyWeight   = 0.4
	highEntropyWeight  = -0.2
	commentWeight      = 0.3
	uniformLinesWeight = 0.2
	jaggedLinesWeight  = -0.2
)

var commentPrefixes = []string{"#", "//", "*", "/*"}

// Signals are the raw measurements behind a score.
type Signals struct {
	Entropy      float64
	CommentRatio float64
	LineStdDev   float64
}

// Entropy returns the Shannon entropy of text in bits per character,
// computed over the lowercased text. Empty text has zero entropy.
func Entropy(text string) float64 {
	if text == "" {
		return 0
	}

	// Terms are summed in first-occurrence order.
	counts := make(map[rune]int)
	var order []rune
	total := 0
	for _, r := range strings.ToLower(text) {
		if counts[r] == 0 {
			order = append(order, r)
		}
		counts[r]++
		total++
	}

	var entropy float64
	for _, r := range order {
		p := float64(counts[r]) / float64(total)
		entropy -= float64(p * math.Log2(p))
	}
	return entropy
}

// AnalyzeStructure returns the fraction of non-blank lines that start with a
// comment marker and the population standard deviation of non-blank line
// lengths. Both are zero when text has no non-blank lines.
func AnalyzeStructure(text string) (commentRatio, lineStdDev float64) {
	var lengths []float64
	comments := 0
	for _, line := range strings.Split(text, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if isComment(trimmed) {
			comments++
		}
		lengths = append(lengths, float64(len([]rune(line))))
	}
	if len(lengths) == 0 {
		return 0, 0
	}

	n := float64(len(lengths))
	var sum float64
	for _, l := range lengths {
		sum += l
	}
	mean := sum / n

	var variance float64
	for _, l := range lengths {
		variance += (l - mean) * (l - mean)
	}
	variance /= n

	return float64(comments) / n, math.Sqrt(variance)
}

func isComment(line string) bool {
	for _, prefix := range commentPrefixes {
		if strings.HasPrefix(line, prefix) {
			return true
		}
	}
	return false
}

// Measure computes the signals for text.
func Measure(text string) Signals {
	ratio, stdDev := AnalyzeStructure(text)
	return Signals{
		Entropy:      Entropy(text),
		CommentRatio: ratio,
		LineStdDev:   stdDev,
	}
}

// Score combines signals into a value clamped to [0, 1].
func Score(s Signals) float64 {
	score := 0.0

	switch {
	case s.Entropy < LowEntropy:
		score += lowEntropyWeight
	case s.Entropy > HighEntropy:
		score += highEntropyWeight
	}

	if s.CommentRatio > CommentRatioLimit {
		score += commentWeight
	}

	switch {
	case s.LineStdDev < UniformLineStdDev:
		score += uniformLinesWeight
	case s.LineStdDev > JaggedLineStdDev:
		score += jaggedLinesWeight
	}

	return max(0.0, min(1.0, score))
}

// Classify maps a score to a verdict.
func Classify(score float64) core.Verdict {
	switch {
	case score < HighLogicThreshold:
		return core.VerdictHighLogic
	case score > LikelyAIThreshold:
		return core.VerdictLikelyAI
	default:
		return core.VerdictLikelyHuman
	}
}

// Text returns the text analyzed for doc: its context followed by its title.
func Text(doc *core.Document) string {
	return doc.Context + "\n" + doc.SkillSignal
}

// Analyze scores a single document.
func Analyze(doc *core.Document) core.Attribution {
	signals := Measure(Text(doc))
	score := Score(signals)
	return core.Attribution{
		Document:     doc,
		Score:        score,
		Entropy:      signals.Entropy,
		CommentRatio: signals.CommentRatio,
		LineStdDev:   signals.LineStdDev,
		Verdict:      Classify(score),
	}
}

// AnalyzeAll scores every document, preserving order.
func AnalyzeAll(docs []*core.Document) []core.Attribution {
	results := make([]core.Attribution, len(docs))
	for i, doc := range docs {
		results[i] = Analyze(doc)
	}
	return results
}
