// Package web exposes the learning service as a JSON HTTP API with a
// websocket progress feed. Learner state is keyed by a session cookie.
package web

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/rs/cors"

	"github.com/p-n-ai/pai-finance/internal/activity"
	"github.com/p-n-ai/pai-finance/internal/content"
	"github.com/p-n-ai/pai-finance/internal/progress"
	"github.com/p-n-ai/pai-finance/internal/quiz"
	"github.com/p-n-ai/pai-finance/internal/recommend"
)

// Defaults applied by NewServer.
const (
	DefaultCookieName = "pai_session"
	DefaultQuizSize   = 5
	DefaultSessionTTL = 2 * time.Hour
)

// Check reports whether a dependency is ready to serve.
type Check func(ctx context.Context) error

// Options configures a Server. Only Content is required.
type Options struct {
	Content     content.Store
	Sessions    progress.SessionStore
	Events      activity.Logger
	Recommender *recommend.Engine
	Hub         *Hub
	QuizSize    int
	CookieName  string
	SessionTTL  time.Duration
	CORSOrigins []string
	Checks      map[string]Check
}

// Server holds the handlers' dependencies.
type Server struct {
	content        content.Store
	quiz           *quiz.Engine
	sessions       progress.SessionStore
	events         activity.Logger
	recommender    *recommend.Engine
	hub            *Hub
	quizSize       int
	cookieName     string
	sessionTTL     time.Duration
	corsOrigins    []string
	originPatterns []string
	checks         map[string]Check
	locks          *sessionLocks
}

// NewServer fills unset options with in-memory defaults.
func NewServer(opts Options) *Server {
	s := &Server{
		content:     opts.Content,
		quiz:        quiz.NewEngine(opts.Content),
		sessions:    opts.Sessions,
		events:      opts.Events,
		recommender: opts.Recommender,
		hub:         opts.Hub,
		quizSize:    opts.QuizSize,
		cookieName:  opts.CookieName,
		sessionTTL:  opts.SessionTTL,
		corsOrigins: opts.CORSOrigins,
		checks:      opts.Checks,
		locks:       newSessionLocks(),
	}
	if s.sessions == nil {
		s.sessions = progress.NewMemoryStore()
	}
	if s.events == nil {
		s.events = activity.Nop{}
	}
	if s.recommender == nil {
		s.recommender = recommend.New(recommend.DefaultMinResults, 0)
	}
	if s.hub == nil {
		s.hub = NewHub()
	}
	if s.quizSize <= 0 {
		s.quizSize = DefaultQuizSize
	}
	if s.cookieName == "" {
		s.cookieName = DefaultCookieName
	}
	if s.sessionTTL <= 0 {
		s.sessionTTL = DefaultSessionTTL
	}
	for _, o := range s.corsOrigins {
		if o != "*" {
			s.originPatterns = append(s.originPatterns, hostPattern(o))
		}
	}
	return s
}

// Handler returns the routed, CORS-wrapped HTTP handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", handleHealthz)
	mux.HandleFunc("GET /readyz", s.handleReadyz)

	api := func(pattern string, h http.HandlerFunc) {
		mux.Handle(pattern, s.withSession(h))
	}
	api("GET /api/status", s.handleStatus)
	api("GET /api/modules", s.handleModules)
	api("GET /api/concepts", s.handleConcepts)
	api("GET /api/concepts/{id}", s.handleConcept)
	api("GET /api/concepts/{id}/related", s.handleRelated)
	api("GET /api/concepts/{id}/quiz", s.handleStartQuiz)
	api("POST /api/concepts/{id}/quiz", s.handleSubmitQuiz)
	api("POST /api/concepts/{id}/learned", s.handleMarkLearned)
	api("GET /api/quiz/random", s.handleRandomQuiz)
	api("GET /api/progress", s.handleProgress)
	api("GET /api/progress/topics", s.handleTopics)
	api("GET /api/progress/export.xlsx", s.handleExport)
	api("GET /api/recommendations", s.handleRecommendations)
	api("GET /api/calculators", s.handleCalculators)
	api("POST /api/calculators/{id}", s.handleCalculate)
	api("GET /ws/progress", s.handleProgressSocket)

	if len(s.corsOrigins) == 0 {
		return mux
	}
	return cors.New(cors.Options{
		AllowedOrigins:   s.corsOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}).Handler(mux)
}

// hostPattern strips the scheme from an origin for websocket origin checks.
func hostPattern(origin string) string {
	origin = strings.TrimPrefix(origin, "https://")
	return strings.TrimPrefix(origin, "http://")
}

func handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}

func (s *Server) handleReadyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	failed := map[string]string{}
	for name, check := range s.checks {
		if err := check(ctx); err != nil {
			slog.Warn("readiness check failed", "check", name, "error", err)
			failed[name] = err.Error()
		}
	}
	if len(failed) > 0 {
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{"status": "unavailable", "failed": failed})
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ready"}`))
}

// loadState fetches the caller's learner state, writing a 500 on failure.
func (s *Server) loadState(w http.ResponseWriter, r *http.Request) (*progress.LearnerState, bool) {
	state, err := s.sessions.Load(r.Context(), sessionID(r.Context()))
	if err != nil {
		slog.Error("loading session failed", "error", err)
		writeError(w, r, http.StatusInternalServerError, "session unavailable")
		return nil, false
	}
	return state, true
}

// lockSession holds the caller's session until the returned func is called.
// Handlers that modify learner state take it before loadState.
func (s *Server) lockSession(r *http.Request) func() {
	return s.locks.lock(sessionID(r.Context()))
}

// commit saves state, logs the event and notifies websocket subscribers.
func (s *Server) commit(w http.ResponseWriter, r *http.Request, state *progress.LearnerState, event activity.Event) bool {
	if err := s.sessions.Save(r.Context(), state); err != nil {
		slog.Error("saving session failed", "session_id", state.ID, "error", err)
		writeError(w, r, http.StatusInternalServerError, "session unavailable")
		return false
	}

	event.SessionID = state.ID
	if err := s.events.Log(r.Context(), event); err != nil {
		slog.Warn("logging learning event failed", "type", event.Type, "error", err)
	}

	s.hub.Publish(state.ID, s.progressUpdate(event.Type, event.ConceptID, state))
	return true
}

func (s *Server) progressUpdate(event, conceptID string, state *progress.LearnerState) ProgressUpdate {
	concepts := s.content.Concepts("")
	return ProgressUpdate{
		Event:      event,
		ConceptID:  conceptID,
		Summary:    state.Summary(len(concepts)),
		Completion: progress.Completion(state, s.content, concepts),
	}
}
