package web

import (
	"bytes"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/p-n-ai/pai-finance/internal/activity"
	"github.com/p-n-ai/pai-finance/internal/content"
	"github.com/p-n-ai/pai-finance/internal/progress"
	"github.com/p-n-ai/pai-finance/internal/quiz"
	"github.com/p-n-ai/pai-finance/internal/report"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type quizResponse struct {
	ConceptID string             `json:"concept_id"`
	Items     []content.QuizItem `json:"items"`
}

// handleStartQuiz returns up to ?count items. A concept without quiz items
// yields an empty list, not an error.
func (s *Server) handleStartQuiz(w http.ResponseWriter, r *http.Request) {
	c, ok := s.content.Concept(r.PathValue("id"))
	if !ok {
		writeError(w, r, http.StatusNotFound, "concept not found")
		return
	}

	count := s.quizSize
	if raw := r.URL.Query().Get("count"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeError(w, r, http.StatusBadRequest, "count must be a positive integer")
			return
		}
		count = n
	}

	writeJSON(w, http.StatusOK, quizResponse{ConceptID: c.ID, Items: s.quiz.Start(c.ID, count)})
}

type submitRequest struct {
	Answers map[string]string `json:"answers" validate:"required,min=1"`
}

type submitResponse struct {
	ConceptID string `json:"concept_id"`
	quiz.Result
	Mastered bool             `json:"mastered"`
	Summary  progress.Summary `json:"summary"`
}

func (s *Server) handleSubmitQuiz(w http.ResponseWriter, r *http.Request) {
	c, ok := s.content.Concept(r.PathValue("id"))
	if !ok {
		writeError(w, r, http.StatusNotFound, "concept not found")
		return
	}

	var req submitRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	answers := s.quiz.Resolve(c.ID, req.Answers)
	if len(answers) == 0 {
		writeError(w, r, http.StatusBadRequest, fmt.Sprintf("no answers for quiz items of %s", c.ID))
		return
	}

	unlock := s.lockSession(r)
	defer unlock()

	state, ok := s.loadState(w, r)
	if !ok {
		return
	}
	res := s.quiz.Submit(state, c.ID, answers)
	if !s.commit(w, r, state, activity.Event{
		ConceptID: c.ID,
		Type:      activity.TypeQuizSubmitted,
		Data:      map[string]any{"correct": res.Correct, "total": res.Total},
	}) {
		return
	}

	writeJSON(w, http.StatusOK, submitResponse{
		ConceptID: c.ID,
		Result:    res,
		Mastered:  progress.Mastered(state, s.content, c.ID),
		Summary:   state.Summary(len(s.content.Concepts(""))),
	})
}

type randomQuizResponse struct {
	Concept conceptSummary   `json:"concept"`
	Item    content.QuizItem `json:"item"`
}

func (s *Server) handleRandomQuiz(w http.ResponseWriter, r *http.Request) {
	c, item, ok := s.quiz.Draw(nil)
	if !ok {
		writeError(w, r, http.StatusNotFound, "no quiz questions found")
		return
	}
	state, ok := s.loadState(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, randomQuizResponse{
		Concept: s.summarize(state, []content.Concept{c})[0],
		Item:    item,
	})
}

type progressResponse struct {
	progress.Summary
	Completion   float64            `json:"completion"`
	QuizConcepts int                `json:"quiz_concepts"`
	Mastered     int                `json:"mastered"`
	Learned      []string           `json:"learned"`
	Visited      []string           `json:"visited"`
	AttemptLog   []progress.Attempt `json:"attempt_log"`
	FallbackMode bool               `json:"fallback_mode"`
}

func (s *Server) handleProgress(w http.ResponseWriter, r *http.Request) {
	state, ok := s.loadState(w, r)
	if !ok {
		return
	}

	concepts := s.content.Concepts("")
	resp := progressResponse{
		Summary:      state.Summary(len(concepts)),
		Completion:   progress.Completion(state, s.content, concepts),
		Learned:      state.Learned,
		Visited:      state.Visited,
		AttemptLog:   state.Attempts,
		FallbackMode: s.content.Source() == content.SourceFallback,
	}
	for _, c := range concepts {
		if len(s.content.Quizzes(c.ID)) == 0 {
			continue
		}
		resp.QuizConcepts++
		if progress.Mastered(state, s.content, c.ID) {
			resp.Mastered++
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleTopics(w http.ResponseWriter, r *http.Request) {
	state, ok := s.loadState(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, progress.Topics(state, s.content))
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	state, ok := s.loadState(w, r)
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := report.WriteProgress(&buf, state, s.content); err != nil {
		slog.Error("building progress export failed", "session_id", state.ID, "error", err)
		writeError(w, r, http.StatusInternalServerError, "export failed")
		return
	}

	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", `attachment; filename="progress.xlsx"`)
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}
