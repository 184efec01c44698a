// Package progress tracks what a learner has studied within one session.
package progress

import (
	"slices"
	"time"
)

// Score is the outcome of one quiz submission.
type Score struct {
	Correct int `json:"correct"`
	Total   int `json:"total"`
}

// Ratio returns Correct/Total, or 0 when nothing was answered.
func (s Score) Ratio() float64 {
	if s.Total == 0 {
		return 0
	}
	return float64(s.Correct) / float64(s.Total)
}

// Attempt is one entry of the quiz attempt log.
type Attempt struct {
	ConceptID string    `json:"concept_id"`
	Correct   int       `json:"correct"`
	Total     int       `json:"total"`
	At        time.Time `json:"at"`
}

// LearnerState is the session-scoped record of a learner's progress. It only
// grows: nothing is ever unlearned or removed from the attempt log.
type LearnerState struct {
	ID          string          `json:"id"`
	Learned     []string        `json:"learned"`
	Attempts    []Attempt       `json:"attempts"`
	ItemResults map[string]bool `json:"item_results"`
	Visited     []string        `json:"visited"`
	StartedAt   time.Time       `json:"started_at"`
}

// NewLearnerState returns an empty state for session id.
func NewLearnerState(id string) *LearnerState {
	return &LearnerState{
		ID:          id,
		Learned:     []string{},
		Attempts:    []Attempt{},
		ItemResults: make(map[string]bool),
		Visited:     []string{},
		StartedAt:   time.Now(),
	}
}

// IsLearned reports whether conceptID was marked learned.
func (s *LearnerState) IsLearned(conceptID string) bool {
	return slices.Contains(s.Learned, conceptID)
}

// LastLearned returns the most recently learned concept.
func (s *LearnerState) LastLearned() (string, bool) {
	if len(s.Learned) == 0 {
		return "", false
	}
	return s.Learned[len(s.Learned)-1], true
}

// MarkLearned adds conceptID to the learned set. It reports whether the set
// changed; marking a concept twice is a no-op.
func (s *LearnerState) MarkLearned(conceptID string) bool {
	if conceptID == "" || s.IsLearned(conceptID) {
		return false
	}
	s.Learned = append(s.Learned, conceptID)
	return true
}

// MarkVisited records that the learner opened conceptID.
func (s *LearnerState) MarkVisited(conceptID string) {
	if conceptID == "" || slices.Contains(s.Visited, conceptID) {
		return
	}
	s.Visited = append(s.Visited, conceptID)
}

// HasVisited reports whether the learner opened conceptID.
func (s *LearnerState) HasVisited(conceptID string) bool {
	return slices.Contains(s.Visited, conceptID)
}

// RecordAttempt appends a quiz attempt to the log.
func (s *LearnerState) RecordAttempt(conceptID string, score Score, at time.Time) {
	if at.IsZero() {
		at = time.Now()
	}
	s.Attempts = append(s.Attempts, Attempt{
		ConceptID: conceptID,
		Correct:   score.Correct,
		Total:     score.Total,
		At:        at,
	})
}

// RecordItemResult stores the latest result for a single quiz item.
func (s *LearnerState) RecordItemResult(itemID string, correct bool) {
	if s.ItemResults == nil {
		s.ItemResults = make(map[string]bool)
	}
	s.ItemResults[itemID] = correct
}

// Summary is the aggregate view of a learner's progress.
type Summary struct {
	LearnedCount  int     `json:"learned_count"`
	TotalConcepts int     `json:"total_concepts"`
	AverageScore  float64 `json:"average_score"`
	Attempts      int     `json:"attempts"`
}

// Summary aggregates the state. AverageScore is the mean of the per-attempt
// ratios in [0, 1]; attempts with nothing answered are left out.
func (s *LearnerState) Summary(totalConcepts int) Summary {
	var sum float64
	var scored int
	for _, a := range s.Attempts {
		if a.Total == 0 {
			continue
		}
		sum += Score{Correct: a.Correct, Total: a.Total}.Ratio()
		scored++
	}

	out := Summary{
		LearnedCount:  len(s.Learned),
		TotalConcepts: totalConcepts,
		Attempts:      len(s.Attempts),
	}
	if scored > 0 {
		out.AverageScore = sum / float64(scored)
	}
	return out
}

// Clone returns a deep copy of the state.
func (s *LearnerState) Clone() *LearnerState {
	c := *s
	c.Learned = slices.Clone(s.Learned)
	c.Attempts = slices.Clone(s.Attempts)
	c.Visited = slices.Clone(s.Visited)
	c.ItemResults = make(map[string]bool, len(s.ItemResults))
	for k, v := range s.ItemResults {
		c.ItemResults[k] = v
	}
	if c.Learned == nil {
		c.Learned = []string{}
	}
	if c.Attempts == nil {
		c.Attempts = []Attempt{}
	}
	if c.Visited == nil {
		c.Visited = []string{}
	}
	return &c
}
