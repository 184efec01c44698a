// Package quiz selects quiz items for a concept and scores submissions by
// exact string comparison.
package quiz

import (
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/p-n-ai/pai-finance/internal/content"
	"github.com/p-n-ai/pai-finance/internal/progress"
)

// Answer is a learner's chosen option for one item.
type Answer struct {
	Item   content.QuizItem
	Choice string
}

// Feedback reports the outcome of a single answer.
type Feedback struct {
	ItemID        string `json:"item_id"`
	Choice        string `json:"choice"`
	Correct       bool   `json:"correct"`
	CorrectAnswer string `json:"correct_answer"`
}

// Result is the graded submission.
type Result struct {
	progress.Score
	Feedback []Feedback `json:"feedback"`
}

// Engine serves quizzes from a content store.
type Engine struct {
	store content.Store
	now   func() time.Time
}

// NewEngine creates a quiz engine over store.
func NewEngine(store content.Store) *Engine {
	return &Engine{store: store, now: time.Now}
}

// Start returns up to count items for conceptID in store order. A count of
// zero or less returns every item. An empty result means the concept has no
// quiz.
func (e *Engine) Start(conceptID string, count int) []content.QuizItem {
	items := e.store.Quizzes(conceptID)
	if count > 0 && len(items) > count {
		items = items[:count]
	}
	return items
}

// Resolve turns a map of item id to chosen option into answers for
// conceptID, in store order. Ids that are not quiz items of the concept are
// ignored.
func (e *Engine) Resolve(conceptID string, choices map[string]string) []Answer {
	answers := []Answer{}
	known := make(map[string]bool, len(choices))
	for _, item := range e.store.Quizzes(conceptID) {
		choice, ok := choices[item.ID]
		if !ok {
			continue
		}
		known[item.ID] = true
		answers = append(answers, Answer{Item: item, Choice: choice})
	}
	for id := range choices {
		if !known[id] {
			slog.Debug("ignoring answer for unknown quiz item", "concept", conceptID, "item", id)
		}
	}
	return answers
}

// Submit scores answers and records the attempt on state. A choice is
// correct only when it equals the item's correct answer exactly; a choice
// that is not among the options is simply incorrect.
func (e *Engine) Submit(state *progress.LearnerState, conceptID string, answers []Answer) Result {
	res := Result{Feedback: make([]Feedback, 0, len(answers))}
	for _, a := range answers {
		correct := a.Choice == a.Item.CorrectAnswer
		if correct {
			res.Correct++
		}
		res.Total++
		state.RecordItemResult(a.Item.ID, correct)
		res.Feedback = append(res.Feedback, Feedback{
			ItemID:        a.Item.ID,
			Choice:        a.Choice,
			Correct:       correct,
			CorrectAnswer: a.Item.CorrectAnswer,
		})
	}

	state.RecordAttempt(conceptID, res.Score, e.now())
	return res
}

// Draw picks a quiz item uniformly from every item of every concept. It
// reports false when no concept has a quiz.
func (e *Engine) Draw(rng *rand.Rand) (content.Concept, content.QuizItem, bool) {
	type pair struct {
		concept content.Concept
		item    content.QuizItem
	}

	var pool []pair
	for _, c := range e.store.Concepts("") {
		for _, item := range e.store.Quizzes(c.ID) {
			pool = append(pool, pair{concept: c, item: item})
		}
	}
	if len(pool) == 0 {
		return content.Concept{}, content.QuizItem{}, false
	}

	var n int
	if rng != nil {
		n = rng.IntN(len(pool))
	} else {
		n = rand.IntN(len(pool))
	}
	p := pool[n]
	return p.concept, p.item, true
}
