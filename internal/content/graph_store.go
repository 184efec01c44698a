package content

import (
	"log/slog"

	"github.com/p-n-ai/pai-finance/internal/ontology"
)

// Ontology vocabulary.
const (
	classConcept    = "Concept"
	classPractice   = "PracticeExercise"
	classCaseStudy  = "CaseStudy"
	classQuiz       = "QuizQuestion"
	propPractice    = "hasPractice"
	propCaseStudy   = "hasCaseStudy"
	propQuiz        = "hasQuiz"
	propRelated     = "relatedTo"
	propDefinition  = "hasDefinition"
	propTheory      = "hasTheory"
	propExample     = "hasExample"
	propLevel       = "hasLevel"
	propDescription = "description"
	propTitle       = "title"
	propQuestion    = "questionText"
	propOptions     = "options"
	propCorrect     = "correctAnswer"
	propDifficulty  = "difficulty"
)

// GraphStore serves content read from the ontology. Lookups for concept ids
// the ontology does not know are answered from the fallback table.
type GraphStore struct {
	*table
	fallback *StaticStore
}

// NewGraphStore indexes the Concept individuals of g. fallback may be nil.
func NewGraphStore(g *ontology.Graph, fallback *StaticStore) *GraphStore {
	t := newTable()

	for _, id := range g.IndividualsOf(classConcept) {
		c := Concept{
			ID:           id,
			Name:         DisplayName(id),
			Definition:   literal(g, id, propDefinition),
			Theory:       literal(g, id, propTheory),
			Example:      literal(g, id, propExample),
			Level:        ParseLevel(literal(g, id, propLevel)),
			Module:       ModuleFor(id),
			Related:      append([]string{}, g.Objects(id, propRelated)...),
			QuizIDs:      []string{},
			PracticeIDs:  []string{},
			CaseStudyIDs: []string{},
		}

		for _, qid := range g.Objects(id, propQuiz) {
			if !g.IsA(qid, classQuiz) {
				continue
			}
			item, err := NewQuizItem(qid, id,
				literal(g, qid, propQuestion),
				literal(g, qid, propOptions),
				literal(g, qid, propCorrect),
				literal(g, qid, propDifficulty),
			)
			if err != nil {
				slog.Warn("skipping ontology quiz", "concept", id, "error", err)
				continue
			}
			c.QuizIDs = append(c.QuizIDs, qid)
			t.quizzes[id] = append(t.quizzes[id], item)
		}

		for _, pid := range g.Objects(id, propPractice) {
			if !g.IsA(pid, classPractice) {
				continue
			}
			c.PracticeIDs = append(c.PracticeIDs, pid)
			t.practices[id] = append(t.practices[id], PracticeItem{
				ID:          pid,
				ConceptID:   id,
				Description: literal(g, pid, propDescription),
			})
		}

		for _, cid := range g.Objects(id, propCaseStudy) {
			if !g.IsA(cid, classCaseStudy) {
				continue
			}
			title := literal(g, cid, propTitle)
			if title == "" {
				title = cid
			}
			c.CaseStudyIDs = append(c.CaseStudyIDs, cid)
			t.caseStudies[id] = append(t.caseStudies[id], CaseStudy{
				ID:          cid,
				ConceptID:   id,
				Title:       title,
				Description: literal(g, cid, propDescription),
			})
		}

		t.addConcept(c)
	}
	t.pruneRelated()

	if fallback != nil {
		t.nextSteps = fallback.NextSteps()
	}
	return &GraphStore{table: t, fallback: fallback}
}

func literal(g *ontology.Graph, subject, property string) string {
	v, _ := g.Literal(subject, property)
	return v
}

// Source reports SourceOntology.
func (s *GraphStore) Source() Source {
	return SourceOntology
}

// miss reports whether id should be answered by the fallback table.
func (s *GraphStore) miss(id string) bool {
	return s.fallback != nil && !s.table.has(id)
}

func (s *GraphStore) Concept(id string) (Concept, bool) {
	if s.miss(id) {
		return s.fallback.Concept(id)
	}
	return s.table.Concept(id)
}

func (s *GraphStore) Related(id string) []Concept {
	if s.miss(id) {
		return s.fallback.Related(id)
	}
	return s.table.Related(id)
}

func (s *GraphStore) Quizzes(id string) []QuizItem {
	if s.miss(id) {
		return s.fallback.Quizzes(id)
	}
	return s.table.Quizzes(id)
}

func (s *GraphStore) Practices(id string) []PracticeItem {
	if s.miss(id) {
		return s.fallback.Practices(id)
	}
	return s.table.Practices(id)
}

func (s *GraphStore) CaseStudies(id string) []CaseStudy {
	if s.miss(id) {
		return s.fallback.CaseStudies(id)
	}
	return s.table.CaseStudies(id)
}
