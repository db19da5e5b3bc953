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

package ingestion

import (
	"fmt"
	"io"
	"log/slog"
	"sync"

	"github.com/poiesic/signalsearch/core"
)

// ScoreTally counts attributions as the scoring workers finish them and
// redraws a one-line summary of the verdicts seen so far.
type ScoreTally struct {
	mu       sync.Mutex
	w        io.Writer
	total    int
	done     int
	verdicts [core.VerdictLikelyAI + 1]int
}

// NewScoreTally creates a tally for total documents. A nil writer keeps the
// counts without drawing anything.
func NewScoreTally(w io.Writer, total int) *ScoreTally {
	return &ScoreTally{w: w, total: total}
}

// Record counts one finished attribution.
func (t *ScoreTally) Record(a core.Attribution) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.done >= t.total {
		return
	}
	t.done++
	if a.Verdict >= core.VerdictHighLogic && a.Verdict <= core.VerdictLikelyAI {
		t.verdicts[a.Verdict]++
	}
	if t.w != nil {
		fmt.Fprintf(t.w, "\rScoring: %d/%d, %d likely AI", t.done, t.total, t.verdicts[core.VerdictLikelyAI])
	}
}

// Done returns the number of attributions recorded.
func (t *ScoreTally) Done() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.done
}

// Count returns how many recorded attributions carried verdict v.
func (t *ScoreTally) Count(v core.Verdict) int {
	t.mu.Lock()
	defer t.mu.Unlock()
	if v < core.VerdictHighLogic || v > core.VerdictLikelyAI {
		return 0
	}
	return t.verdicts[v]
}

// Finish ends the progress line and logs the verdict breakdown.
func (t *ScoreTally) Finish(logger *slog.Logger) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.w != nil && t.done > 0 {
		fmt.Fprintln(t.w)
	}
	logger.Debug("scored documents",
		"count", t.done,
		"high_logic", t.verdicts[core.VerdictHighLogic],
		"likely_human", t.verdicts[core.VerdictLikelyHuman],
		"likely_ai", t.verdicts[core.VerdictLikelyAI])
}
