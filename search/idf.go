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

package search

import (
	"math"

	"github.com/poiesic/signalsearch/core"
)

// IDFIndex holds the inverse document frequency of every term in a corpus.
// It is read-only once built.
type IDFIndex struct {
	weights       map[string]float64
	documentCount int
}

// BuildIDF computes idf(term) = ln(N / (df(term) + 1)) for every distinct term
// of the corpus, where df counts the documents containing the term at least
// once. Terms present in (almost) every document get zero or negative weights;
// these are kept as computed.
func BuildIDF(corpus []*core.Document) *IDFIndex {
	df := make(map[string]int)
	for _, doc := range corpus {
		seen := make(map[string]struct{})
		for _, token := range Tokenize(doc.IndexText()) {
			if _, ok := seen[token]; ok {
				continue
			}
			seen[token] = struct{}{}
			df[token]++
		}
	}

	n := float64(len(corpus))
	weights := make(map[string]float64, len(df))
	for term, count := range df {
		weights[term] = math.Log(n / float64(count+1))
	}

	return &IDFIndex{
		weights:       weights,
		documentCount: len(corpus),
	}
}

// Weight returns the IDF weight of term, or 0 if the term never occurs in the corpus.
func (idx *IDFIndex) Weight(term string) float64 {
	return idx.weights[term]
}

// Contains reports whether term occurs in at least one document.
func (idx *IDFIndex) Contains(term string) bool {
	_, ok := idx.weights[term]
	return ok
}

// Len returns the number of distinct terms in the index.
func (idx *IDFIndex) Len() int {
	return len(idx.weights)
}

// DocumentCount returns the size of the corpus the index was built from.
func (idx *IDFIndex) DocumentCount() int {
	return idx.documentCount
}
