package content

import (
	"errors"
	"fmt"
	"slices"
	"strings"
	"unicode"
)

// Level is the difficulty of a concept.
type Level string

const (
	LevelBeginner     Level = "Beginner"
	LevelIntermediate Level = "Intermediate"
	LevelAdvanced     Level = "Advanced"
	LevelUnspecified  Level = "Unspecified"
)

// ParseLevel maps free text from the ontology onto a Level. Matching is by
// case-insensitive prefix so "beginner (foundation)" is still Beginner.
func ParseLevel(s string) Level {
	s = strings.ToLower(strings.TrimSpace(s))
	switch {
	case strings.HasPrefix(s, "beginner"):
		return LevelBeginner
	case strings.HasPrefix(s, "intermediate"):
		return LevelIntermediate
	case strings.HasPrefix(s, "advanced"):
		return LevelAdvanced
	default:
		return LevelUnspecified
	}
}

// Concept is a single learning topic.
type Concept struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	Definition   string   `json:"definition,omitempty"`
	Theory       string   `json:"theory,omitempty"`
	Example      string   `json:"example,omitempty"`
	Level        Level    `json:"level"`
	Module       string   `json:"module"`
	Related      []string `json:"related"`
	QuizIDs      []string `json:"quiz_ids"`
	PracticeIDs  []string `json:"practice_ids"`
	CaseStudyIDs []string `json:"case_study_ids"`
}

// clone returns c with its id lists copied.
func (c Concept) clone() Concept {
	c.Related = slices.Clone(c.Related)
	c.QuizIDs = slices.Clone(c.QuizIDs)
	c.PracticeIDs = slices.Clone(c.PracticeIDs)
	c.CaseStudyIDs = slices.Clone(c.CaseStudyIDs)
	return c
}

// QuizItem is a multiple-choice question owned by one concept.
type QuizItem struct {
	ID            string   `json:"id"`
	ConceptID     string   `json:"concept_id"`
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer string   `json:"-"`
	Difficulty    string   `json:"difficulty,omitempty"`
}

// HasOption reports whether choice is exactly one of the item's options.
func (q QuizItem) HasOption(choice string) bool {
	for _, o := range q.Options {
		if o == choice {
			return true
		}
	}
	return false
}

// PracticeItem is a free-text exercise linked to a concept.
type PracticeItem struct {
	ID          string `json:"id"`
	ConceptID   string `json:"concept_id"`
	Description string `json:"description"`
}

// CaseStudy is a titled scenario linked to a concept.
type CaseStudy struct {
	ID          string `json:"id"`
	ConceptID   string `json:"concept_id"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

var (
	// ErrIncompleteQuiz is returned when a question, its options or its
	// answer is missing.
	ErrIncompleteQuiz = errors.New("quiz item is not fully defined")
	// ErrAnswerNotInOptions is returned when the correct answer is not one
	// of the parsed options.
	ErrAnswerNotInOptions = errors.New("correct answer is not among the options")
)

// OptionDelimiter separates answer options in the raw options string.
const OptionDelimiter = "|"

// ParseOptions splits a delimiter-separated option string, trimming each
// option and dropping empty ones.
func ParseOptions(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, OptionDelimiter) {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// NewQuizItem builds a validated quiz item from raw ontology values.
func NewQuizItem(id, conceptID, question, rawOptions, correct, difficulty string) (QuizItem, error) {
	question = strings.TrimSpace(question)
	correct = strings.TrimSpace(correct)
	options := ParseOptions(rawOptions)

	if question == "" || len(options) == 0 || correct == "" {
		return QuizItem{}, fmt.Errorf("%s: %w", id, ErrIncompleteQuiz)
	}

	item := QuizItem{
		ID:            id,
		ConceptID:     conceptID,
		Question:      question,
		Options:       options,
		CorrectAnswer: correct,
		Difficulty:    strings.TrimSpace(difficulty),
	}
	if !item.HasOption(correct) {
		return QuizItem{}, fmt.Errorf("%s: %w", id, ErrAnswerNotInOptions)
	}
	return item, nil
}

// DisplayName turns a CamelCase identifier into spaced words:
// "ReturnOnEquity" becomes "Return On Equity". Runs of capitals stay
// together, so "DuPontROE" becomes "Du Pont ROE".
func DisplayName(id string) string {
	runes := []rune(id)
	var b strings.Builder
	for i, r := range runes {
		if i > 0 && unicode.IsUpper(r) && !unicode.IsUpper(runes[i-1]) && runes[i-1] != ' ' {
			b.WriteRune(' ')
		}
		b.WriteRune(r)
	}
	return b.String()
}
