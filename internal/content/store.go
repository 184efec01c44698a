// Package content serves learning content from an OWL ontology or from a
// static fallback table behind a single Store interface.
package content

import (
	"errors"
	"fmt"
	"log/slog"
	"slices"

	"github.com/p-n-ai/pai-finance/internal/ontology"
)

// Source names the variant that serves content.
type Source string

const (
	SourceOntology Source = "ontology"
	SourceFallback Source = "fallback"
)

// ErrOntologyUnavailable wraps any failure to open or read the ontology.
var ErrOntologyUnavailable = errors.New("ontology unavailable")

// Store is the read-only content surface used by the rest of the system.
// Lookups that find nothing return an empty slice or false, never an error.
// Returned values are copies; changing them does not affect the store.
type Store interface {
	Concept(id string) (Concept, bool)
	// Concepts lists concepts in load order; a non-empty module filters.
	Concepts(module string) []Concept
	Related(id string) []Concept
	Quizzes(id string) []QuizItem
	Practices(id string) []PracticeItem
	CaseStudies(id string) []CaseStudy
	// Modules lists the modules that contain at least one concept.
	Modules() []string
	// NextSteps is the hand-ordered fallback list of concept ids.
	NextSteps() []string
	Source() Source
}

// Options selects where content comes from.
type Options struct {
	OntologyPath string
	FallbackPath string
	FallbackOnly bool
}

// Open loads the fallback table and, unless disabled, the ontology. When the
// ontology cannot be used the fallback store is returned and the failure is
// only logged. An error is returned only when the fallback table itself is
// broken.
func Open(opts Options) (Store, error) {
	fallback, err := LoadFallback(opts.FallbackPath)
	if err != nil {
		return nil, fmt.Errorf("loading fallback content: %w", err)
	}

	if opts.FallbackOnly {
		slog.Info("content source selected", "source", SourceFallback, "reason", "fallback only")
		return fallback, nil
	}

	graph, err := openGraph(opts.OntologyPath, fallback)
	if err != nil {
		slog.Warn("using fallback content", "error", err, "concepts", len(fallback.Concepts("")))
		return fallback, nil
	}

	slog.Info("content source selected", "source", SourceOntology, "concepts", len(graph.Concepts("")))
	return graph, nil
}

func openGraph(path string, fallback *StaticStore) (*GraphStore, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: no path configured", ErrOntologyUnavailable)
	}
	g, err := ontology.Load(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrOntologyUnavailable, err)
	}
	store := NewGraphStore(g, fallback)
	if len(store.Concepts("")) == 0 {
		return nil, fmt.Errorf("%w: no Concept individuals in %s", ErrOntologyUnavailable, path)
	}
	return store, nil
}

// table is the in-memory index shared by both store variants.
type table struct {
	concepts    []Concept
	byID        map[string]int
	quizzes     map[string][]QuizItem
	practices   map[string][]PracticeItem
	caseStudies map[string][]CaseStudy
	nextSteps   []string
}

func newTable() *table {
	return &table{
		byID:        make(map[string]int),
		quizzes:     make(map[string][]QuizItem),
		practices:   make(map[string][]PracticeItem),
		caseStudies: make(map[string][]CaseStudy),
	}
}

func (t *table) addConcept(c Concept) bool {
	if _, dup := t.byID[c.ID]; dup {
		return false
	}
	t.byID[c.ID] = len(t.concepts)
	t.concepts = append(t.concepts, c)
	return true
}

// pruneRelated drops related ids that do not name a loaded concept.
func (t *table) pruneRelated() {
	for i := range t.concepts {
		kept := []string{}
		for _, id := range t.concepts[i].Related {
			if _, ok := t.byID[id]; ok && id != t.concepts[i].ID {
				kept = append(kept, id)
				continue
			}
			slog.Debug("dropping dangling relation", "concept", t.concepts[i].ID, "related", id)
		}
		t.concepts[i].Related = kept
	}
}

func (t *table) has(id string) bool {
	_, ok := t.byID[id]
	return ok
}

func (t *table) Concept(id string) (Concept, bool) {
	i, ok := t.byID[id]
	if !ok {
		return Concept{}, false
	}
	return t.concepts[i].clone(), true
}

func (t *table) Concepts(module string) []Concept {
	out := make([]Concept, 0, len(t.concepts))
	for _, c := range t.concepts {
		if module == "" || c.Module == module {
			out = append(out, c.clone())
		}
	}
	return out
}

func (t *table) Related(id string) []Concept {
	c, ok := t.Concept(id)
	if !ok {
		return []Concept{}
	}
	out := make([]Concept, 0, len(c.Related))
	for _, rid := range c.Related {
		if r, ok := t.Concept(rid); ok {
			out = append(out, r)
		}
	}
	return out
}

func (t *table) Quizzes(id string) []QuizItem {
	out := make([]QuizItem, 0, len(t.quizzes[id]))
	for _, q := range t.quizzes[id] {
		q.Options = slices.Clone(q.Options)
		out = append(out, q)
	}
	return out
}

func (t *table) Practices(id string) []PracticeItem {
	return append([]PracticeItem{}, t.practices[id]...)
}

func (t *table) CaseStudies(id string) []CaseStudy {
	return append([]CaseStudy{}, t.caseStudies[id]...)
}

func (t *table) Modules() []string {
	present := make(map[string]bool)
	for _, c := range t.concepts {
		present[c.Module] = true
	}
	out := []string{}
	for _, m := range ModuleOrder() {
		if present[m] {
			out = append(out, m)
		}
	}
	return out
}

func (t *table) NextSteps() []string {
	return append([]string{}, t.nextSteps...)
}
