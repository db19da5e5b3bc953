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
	"maps"
	"math"
	"slices"
)

// Vector is a sparse TF-IDF vector mapping terms to weights.
type Vector map[string]float64

// Vectorize weights every term of tf by its IDF. Terms unknown to the index
// carry weight 0; they are kept since they change neither norms nor dot products.
func Vectorize(tf TermFrequencies, idf *IDFIndex) Vector {
	v := make(Vector, len(tf))
	for term, freq := range tf {
		v[term] = freq * idf.Weight(term)
	}
	return v
}

// Terms returns the terms of v in sorted order.
// Sums over a vector follow this order so equal vectors give bit-identical results.
func (v Vector) Terms() []string {
	return slices.Sorted(maps.Keys(v))
}

// Norm returns the Euclidean length of v.
func (v Vector) Norm() float64 {
	var sum float64
	for _, term := range v.Terms() {
		w := v[term]
		sum += w * w
	}
	return math.Sqrt(sum)
}

// Dot returns the dot product of v and other over their shared terms.
func (v Vector) Dot(other Vector) float64 {
	var sum float64
	for _, term := range v.Terms() {
		if ow, ok := other[term]; ok {
			sum += v[term] * ow
		}
	}
	return sum
}

// CosineSimilarity returns dot(a, b) / (|a| * |b|).
// Returns exactly 0 when either vector has zero length.
func CosineSimilarity(a, b Vector) float64 {
	denominator := a.Norm() * b.Norm()
	if denominator == 0 {
		return 0
	}
	return a.Dot(b) / denominator
}
