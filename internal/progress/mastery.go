package progress

import "github.com/p-n-ai/pai-finance/internal/content"

// Topic statuses shown on the progress overview.
const (
	StatusNotStarted = "Not started"
	StatusInProgress = "In progress"
	StatusMastered   = "Mastered"
)

// Mastered reports whether any quiz item linked to conceptID has been
// answered correctly. Concepts without quizzes are never mastered.
func Mastered(state *LearnerState, store content.Store, conceptID string) bool {
	for _, q := range store.Quizzes(conceptID) {
		if state.ItemResults[q.ID] {
			return true
		}
	}
	return false
}

// Completion returns the percentage of quiz-enabled concepts among concepts
// that are mastered. It is 0 when none of them has a quiz.
func Completion(state *LearnerState, store content.Store, concepts []content.Concept) float64 {
	var withQuiz, mastered int
	for _, c := range concepts {
		if len(store.Quizzes(c.ID)) == 0 {
			continue
		}
		withQuiz++
		if Mastered(state, store, c.ID) {
			mastered++
		}
	}
	if withQuiz == 0 {
		return 0
	}
	return 100 * float64(mastered) / float64(withQuiz)
}

// Status classifies a concept for the learner.
func Status(state *LearnerState, store content.Store, conceptID string) string {
	switch {
	case Mastered(state, store, conceptID):
		return StatusMastered
	case state.HasVisited(conceptID) || state.IsLearned(conceptID):
		return StatusInProgress
	default:
		return StatusNotStarted
	}
}

// TopicRow is one line of the per-topic status overview.
type TopicRow struct {
	Module    string        `json:"module"`
	ConceptID string        `json:"concept_id"`
	Topic     string        `json:"topic"`
	Level     content.Level `json:"level"`
	Status    string        `json:"status"`
}

// Topics lists every concept grouped by module in teaching order.
func Topics(state *LearnerState, store content.Store) []TopicRow {
	rows := []TopicRow{}
	for _, module := range store.Modules() {
		for _, c := range store.Concepts(module) {
			rows = append(rows, TopicRow{
				Module:    module,
				ConceptID: c.ID,
				Topic:     c.Name,
				Level:     c.Level,
				Status:    Status(state, store, c.ID),
			})
		}
	}
	return rows
}
