package web

import (
	"log/slog"
	"net/http"

	"github.com/p-n-ai/pai-finance/internal/activity"
	"github.com/p-n-ai/pai-finance/internal/calculator"
	"github.com/p-n-ai/pai-finance/internal/content"
	"github.com/p-n-ai/pai-finance/internal/progress"
)

// conceptSummary is a concept as listed, with the caller's status.
type conceptSummary struct {
	ID        string        `json:"id"`
	Name      string        `json:"name"`
	Module    string        `json:"module"`
	Level     content.Level `json:"level"`
	QuizCount int           `json:"quiz_count"`
	Status    string        `json:"status"`
	Learned   bool          `json:"learned"`
}

func (s *Server) summarize(state *progress.LearnerState, concepts []content.Concept) []conceptSummary {
	out := make([]conceptSummary, 0, len(concepts))
	for _, c := range concepts {
		out = append(out, conceptSummary{
			ID:        c.ID,
			Name:      c.Name,
			Module:    c.Module,
			Level:     c.Level,
			QuizCount: len(s.content.Quizzes(c.ID)),
			Status:    progress.Status(state, s.content, c.ID),
			Learned:   state.IsLearned(c.ID),
		})
	}
	return out
}

type statusResponse struct {
	Source       content.Source `json:"source"`
	FallbackMode bool           `json:"fallback_mode"`
	Concepts     int            `json:"concepts"`
	Modules      int            `json:"modules"`
	QuizConcepts int            `json:"quiz_concepts"`
	Completion   float64        `json:"completion"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	state, ok := s.loadState(w, r)
	if !ok {
		return
	}

	concepts := s.content.Concepts("")
	var withQuiz int
	for _, c := range concepts {
		if len(s.content.Quizzes(c.ID)) > 0 {
			withQuiz++
		}
	}

	writeJSON(w, http.StatusOK, statusResponse{
		Source:       s.content.Source(),
		FallbackMode: s.content.Source() == content.SourceFallback,
		Concepts:     len(concepts),
		Modules:      len(s.content.Modules()),
		QuizConcepts: withQuiz,
		Completion:   progress.Completion(state, s.content, concepts),
	})
}

type moduleResponse struct {
	Name       string  `json:"name"`
	Concepts   int     `json:"concepts"`
	Completion float64 `json:"completion"`
}

func (s *Server) handleModules(w http.ResponseWriter, r *http.Request) {
	state, ok := s.loadState(w, r)
	if !ok {
		return
	}

	out := []moduleResponse{}
	for _, m := range s.content.Modules() {
		concepts := s.content.Concepts(m)
		out = append(out, moduleResponse{
			Name:       m,
			Concepts:   len(concepts),
			Completion: progress.Completion(state, s.content, concepts),
		})
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleConcepts(w http.ResponseWriter, r *http.Request) {
	state, ok := s.loadState(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	concepts := content.Search(s.content.Concepts(q.Get("module")), q.Get("q"))
	writeJSON(w, http.StatusOK, s.summarize(state, concepts))
}

type conceptResponse struct {
	content.Concept
	Status      string                 `json:"status"`
	Learned     bool                   `json:"learned"`
	QuizCount   int                    `json:"quiz_count"`
	Practices   []content.PracticeItem `json:"practices"`
	CaseStudies []content.CaseStudy    `json:"case_studies"`
	Calculator  *calculator.Calculator `json:"calculator,omitempty"`
}

// handleConcept returns a concept with its linked items and records the
// visit.
func (s *Server) handleConcept(w http.ResponseWriter, r *http.Request) {
	c, ok := s.content.Concept(r.PathValue("id"))
	if !ok {
		writeError(w, r, http.StatusNotFound, "concept not found")
		return
	}
	unlock := s.lockSession(r)
	defer unlock()

	state, ok := s.loadState(w, r)
	if !ok {
		return
	}

	if !state.HasVisited(c.ID) {
		state.MarkVisited(c.ID)
		if !s.commit(w, r, state, activity.Event{ConceptID: c.ID, Type: activity.TypeConceptVisited}) {
			return
		}
	}

	resp := conceptResponse{
		Concept:     c,
		Status:      progress.Status(state, s.content, c.ID),
		Learned:     state.IsLearned(c.ID),
		QuizCount:   len(s.content.Quizzes(c.ID)),
		Practices:   s.content.Practices(c.ID),
		CaseStudies: s.content.CaseStudies(c.ID),
	}
	if calc, ok := calculator.ForConcept(c.ID); ok {
		resp.Calculator = calc
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleRelated(w http.ResponseWriter, r *http.Request) {
	c, ok := s.content.Concept(r.PathValue("id"))
	if !ok {
		writeError(w, r, http.StatusNotFound, "concept not found")
		return
	}
	state, ok := s.loadState(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, s.summarize(state, s.content.Related(c.ID)))
}

type learnedResponse struct {
	ConceptID string           `json:"concept_id"`
	Changed   bool             `json:"changed"`
	Summary   progress.Summary `json:"summary"`
}

func (s *Server) handleMarkLearned(w http.ResponseWriter, r *http.Request) {
	c, ok := s.content.Concept(r.PathValue("id"))
	if !ok {
		writeError(w, r, http.StatusNotFound, "concept not found")
		return
	}
	unlock := s.lockSession(r)
	defer unlock()

	state, ok := s.loadState(w, r)
	if !ok {
		return
	}

	changed := state.MarkLearned(c.ID)
	if changed {
		if !s.commit(w, r, state, activity.Event{ConceptID: c.ID, Type: activity.TypeConceptLearned}) {
			return
		}
	}

	writeJSON(w, http.StatusOK, learnedResponse{
		ConceptID: c.ID,
		Changed:   changed,
		Summary:   state.Summary(len(s.content.Concepts(""))),
	})
}

func (s *Server) handleRecommendations(w http.ResponseWriter, r *http.Request) {
	state, ok := s.loadState(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, s.summarize(state, s.recommender.Next(state, s.content)))
}

func (s *Server) handleCalculators(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, calculator.All())
}

type calculateRequest struct {
	Inputs map[string]float64 `json:"inputs" validate:"required,min=1"`
}

type calculateResponse struct {
	Calculator string `json:"calculator"`
	calculator.Result
}

// handleCalculate accepts a calculator id or a concept id.
func (s *Server) handleCalculate(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	calc, ok := calculator.ByID(id)
	if !ok {
		calc, ok = calculator.ForConcept(id)
	}
	if !ok {
		writeError(w, r, http.StatusNotFound, "no calculator for "+id)
		return
	}

	var req calculateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	res, err := calc.Compute(req.Inputs)
	if err != nil {
		writeError(w, r, http.StatusUnprocessableEntity, err.Error())
		return
	}

	if err := s.events.Log(r.Context(), activity.Event{
		SessionID: sessionID(r.Context()),
		ConceptID: id,
		Type:      activity.TypeCalculatorUsed,
		Data:      map[string]any{"calculator": calc.ID, "value": res.Value},
	}); err != nil {
		slog.Warn("logging learning event failed", "type", activity.TypeCalculatorUsed, "error", err)
	}

	writeJSON(w, http.StatusOK, calculateResponse{Calculator: calc.ID, Result: res})
}
