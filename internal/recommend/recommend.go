// Package recommend proposes what a learner should study next.
package recommend

import (
	"github.com/p-n-ai/pai-finance/internal/content"
	"github.com/p-n-ai/pai-finance/internal/progress"
)

// DefaultMinResults is the number of suggestions below which the engine
// widens its search.
const DefaultMinResults = 3

// Engine ranks next concepts. It never randomises: ties keep content order.
type Engine struct {
	// MinResults triggers the next widening step while the result is shorter.
	MinResults int
	// Limit caps the result; zero means no cap.
	Limit int
}

// New returns an engine with the given thresholds. A non-positive
// minResults selects DefaultMinResults.
func New(minResults, limit int) *Engine {
	if minResults <= 0 {
		minResults = DefaultMinResults
	}
	if limit < 0 {
		limit = 0
	}
	return &Engine{MinResults: minResults, Limit: limit}
}

// Next proposes unlearned concepts, in priority order:
//
//  1. concepts related to the most recently learned concept;
//  2. while short of MinResults, other concepts in that concept's module;
//  3. while still short, the store's hand-ordered next-steps list.
//
// With nothing learned the next-steps list is returned as is.
func (e *Engine) Next(state *progress.LearnerState, store content.Store) []content.Concept {
	out := []content.Concept{}
	seen := make(map[string]bool)
	add := func(c content.Concept) {
		if seen[c.ID] || state.IsLearned(c.ID) {
			return
		}
		seen[c.ID] = true
		out = append(out, c)
	}

	if last, ok := state.LastLearned(); ok {
		for _, c := range store.Related(last) {
			add(c)
		}

		if len(out) < e.MinResults {
			if lc, ok := store.Concept(last); ok {
				for _, c := range store.Concepts(lc.Module) {
					add(c)
				}
			}
		}
	}

	if len(out) < e.MinResults {
		for _, id := range store.NextSteps() {
			if c, ok := store.Concept(id); ok {
				add(c)
			}
		}
	}

	if e.Limit > 0 && len(out) > e.Limit {
		out = out[:e.Limit]
	}
	return out
}
