package web_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/p-n-ai/pai-finance/internal/activity"
	"github.com/p-n-ai/pai-finance/internal/content"
	"github.com/p-n-ai/pai-finance/internal/progress"
	"github.com/p-n-ai/pai-finance/internal/web"
)

type harness struct {
	handler http.Handler
	events  *activity.Memory
	cookie  *http.Cookie
}

func newHarness(t *testing.T, opts web.Options) *harness {
	t.Helper()
	store, err := content.Open(content.Options{FallbackOnly: true})
	if err != nil {
		t.Fatalf("content.Open() error = %v", err)
	}
	events := activity.NewMemory()
	opts.Content = store
	opts.Events = events
	return &harness{handler: web.NewServer(opts).Handler(), events: events}
}

// do sends a request, carrying the session cookie from earlier responses.
func (h *harness) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if h.cookie != nil {
		req.AddCookie(h.cookie)
	}

	rec := httptest.NewRecorder()
	h.handler.ServeHTTP(rec, req)

	for _, c := range rec.Result().Cookies() {
		if c.Name == web.DefaultCookieName {
			h.cookie = c
		}
	}
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rec.Body.Bytes(), &v); err != nil {
		t.Fatalf("decoding %q: %v", rec.Body.String(), err)
	}
	return v
}

func TestHealthEndpoints(t *testing.T) {
	h := newHarness(t, web.Options{})

	tests := []struct {
		name       string
		path       string
		wantStatus int
		wantBody   string
	}{
		{
			name:       "healthz returns 200",
			path:       "/healthz",
			wantStatus: http.StatusOK,
			wantBody:   `{"status":"ok"}`,
		},
		{
			name:       "readyz returns 200",
			path:       "/readyz",
			wantStatus: http.StatusOK,
			wantBody:   `{"status":"ready"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := h.do(t, http.MethodGet, tt.path, "")

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if rec.Body.String() != tt.wantBody {
				t.Errorf("body = %q, want %q", rec.Body.String(), tt.wantBody)
			}
			if len(rec.Result().Cookies()) != 0 {
				t.Error("health endpoints should not set a session cookie")
			}
		})
	}
}

func TestReadyz_FailingCheck(t *testing.T) {
	h := newHarness(t, web.Options{
		Checks: map[string]web.Check{
			"cache": func(context.Context) error { return errors.New("connection refused") },
		},
	})

	rec := h.do(t, http.MethodGet, "/readyz", "")
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "cache") {
		t.Errorf("body = %s, want failed check named", rec.Body.String())
	}
}

func TestStatus_ReportsFallback(t *testing.T) {
	h := newHarness(t, web.Options{})

	rec := h.do(t, http.MethodGet, "/api/status", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	got := decode[map[string]any](t, rec)
	if got["source"] != "fallback" || got["fallback_mode"] != true {
		t.Errorf("status = %v, want fallback", got)
	}
	if got["concepts"] != float64(5) {
		t.Errorf("concepts = %v, want 5", got["concepts"])
	}
}

func TestConcepts_FilterAndSearch(t *testing.T) {
	h := newHarness(t, web.Options{})

	tests := []struct {
		name string
		path string
		want int
	}{
		{"all", "/api/concepts", 5},
		{"module", "/api/concepts?module=" + url.QueryEscape(content.ModuleLiquidity), 2},
		{"search", "/api/concepts?q=RATIO", 3},
		{"no-match", "/api/concepts?q=leverage", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := h.do(t, http.MethodGet, tt.path, "")
			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d", rec.Code)
			}
			if got := decode[[]map[string]any](t, rec); len(got) != tt.want {
				t.Errorf("len = %d, want %d", len(got), tt.want)
			}
		})
	}
}

func TestConcept_NotFound(t *testing.T) {
	h := newHarness(t, web.Options{})

	for _, path := range []string{
		"/api/concepts/Nope",
		"/api/concepts/Nope/related",
		"/api/concepts/Nope/quiz",
	} {
		if rec := h.do(t, http.MethodGet, path, ""); rec.Code != http.StatusNotFound {
			t.Errorf("GET %s status = %d, want 404", path, rec.Code)
		}
	}
	if rec := h.do(t, http.MethodPost, "/api/concepts/Nope/learned", ""); rec.Code != http.StatusNotFound {
		t.Errorf("POST learned status = %d, want 404", rec.Code)
	}
}

func TestConcept_DetailMarksVisitedOnce(t *testing.T) {
	h := newHarness(t, web.Options{})

	rec := h.do(t, http.MethodGet, "/api/concepts/CurrentRatio", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	got := decode[map[string]any](t, rec)
	if got["status"] != "In progress" {
		t.Errorf("status = %v, want In progress", got["status"])
	}
	if practices, _ := got["practices"].([]any); len(practices) != 1 {
		t.Errorf("practices = %v, want 1", got["practices"])
	}
	if got["calculator"] == nil {
		t.Error("CurrentRatio should expose a calculator")
	}

	h.do(t, http.MethodGet, "/api/concepts/CurrentRatio", "")
	if n := len(h.events.Events()); n != 1 {
		t.Errorf("events = %d, want 1 visit event", n)
	}
}

func TestQuizFlow_CurrentRatio(t *testing.T) {
	h := newHarness(t, web.Options{})

	rec := h.do(t, http.MethodGet, "/api/concepts/CurrentRatio/quiz", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("GET quiz status = %d", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "correct_answer") {
		t.Error("quiz items must not reveal the correct answer")
	}
	quiz := decode[struct {
		Items []content.QuizItem `json:"items"`
	}](t, rec)
	if len(quiz.Items) != 3 {
		t.Fatalf("items = %d, want 3", len(quiz.Items))
	}

	body := `{"answers":{"CR_Q1":"2.0x","CR_Q2":"Liquidity stress","CR_Q3":"Total equity"}}`
	rec = h.do(t, http.MethodPost, "/api/concepts/CurrentRatio/quiz", body)
	if rec.Code != http.StatusOK {
		t.Fatalf("POST quiz status = %d: %s", rec.Code, rec.Body.String())
	}
	res := decode[struct {
		Correct  int  `json:"correct"`
		Total    int  `json:"total"`
		Mastered bool `json:"mastered"`
		Summary  struct {
			AverageScore float64 `json:"average_score"`
			Attempts     int     `json:"attempts"`
		} `json:"summary"`
	}](t, rec)
	if res.Correct != 2 || res.Total != 3 {
		t.Errorf("score = (%d,%d), want (2,3)", res.Correct, res.Total)
	}
	if !res.Mastered || res.Summary.Attempts != 1 {
		t.Errorf("result = %+v", res)
	}
	if res.Summary.AverageScore < 0.66 || res.Summary.AverageScore > 0.67 {
		t.Errorf("average = %v, want 2/3", res.Summary.AverageScore)
	}

	rec = h.do(t, http.MethodGet, "/api/progress", "")
	prog := decode[map[string]any](t, rec)
	if prog["mastered"] != float64(1) || prog["completion"] != float64(20) {
		t.Errorf("progress = %v", prog)
	}
}

func TestStartQuiz_Count(t *testing.T) {
	h := newHarness(t, web.Options{QuizSize: 2})

	tests := []struct {
		path       string
		wantStatus int
		wantItems  int
	}{
		{"/api/concepts/CurrentRatio/quiz", http.StatusOK, 2},
		{"/api/concepts/CurrentRatio/quiz?count=1", http.StatusOK, 1},
		{"/api/concepts/CurrentRatio/quiz?count=9", http.StatusOK, 3},
		{"/api/concepts/CurrentRatio/quiz?count=0", http.StatusBadRequest, 0},
		{"/api/concepts/CurrentRatio/quiz?count=abc", http.StatusBadRequest, 0},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			rec := h.do(t, http.MethodGet, tt.path, "")
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if tt.wantStatus != http.StatusOK {
				return
			}
			got := decode[struct {
				Items []any `json:"items"`
			}](t, rec)
			if len(got.Items) != tt.wantItems {
				t.Errorf("items = %d, want %d", len(got.Items), tt.wantItems)
			}
		})
	}
}

func TestSubmitQuiz_BadRequests(t *testing.T) {
	h := newHarness(t, web.Options{})

	tests := []struct {
		name string
		body string
	}{
		{"empty-body", ""},
		{"malformed", `{"answers":`},
		{"no-answers", `{"answers":{}}`},
		{"unknown-field", `{"answers":{"CR_Q1":"2.0x"},"extra":1}`},
		{"foreign-items", `{"answers":{"QR_Q1":"Inventory"}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := h.do(t, http.MethodPost, "/api/concepts/CurrentRatio/quiz", tt.body)
			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400: %s", rec.Code, rec.Body.String())
			}
		})
	}
	if n := len(h.events.Events()); n != 0 {
		t.Errorf("events = %d, want none for rejected submissions", n)
	}
}

func TestSubmitQuiz_InvalidChoiceScoredIncorrect(t *testing.T) {
	h := newHarness(t, web.Options{})

	rec := h.do(t, http.MethodPost, "/api/concepts/QuickRatio/quiz", `{"answers":{"QR_Q1":"inventory"}}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	got := decode[map[string]any](t, rec)
	if got["correct"] != float64(0) || got["total"] != float64(1) {
		t.Errorf("score = %v/%v, want 0/1", got["correct"], got["total"])
	}
}

func TestMarkLearned_Idempotent(t *testing.T) {
	h := newHarness(t, web.Options{})

	for i, wantChanged := range []bool{true, false} {
		rec := h.do(t, http.MethodPost, "/api/concepts/CurrentRatio/learned", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("call %d status = %d", i, rec.Code)
		}
		got := decode[struct {
			Changed bool `json:"changed"`
			Summary struct {
				LearnedCount int `json:"learned_count"`
			} `json:"summary"`
		}](t, rec)
		if got.Changed != wantChanged || got.Summary.LearnedCount != 1 {
			t.Errorf("call %d = %+v, want changed=%v learned=1", i, got, wantChanged)
		}
	}
}

func TestRecommendations(t *testing.T) {
	h := newHarness(t, web.Options{})

	ids := func() []string {
		rec := h.do(t, http.MethodGet, "/api/recommendations", "")
		var out []string
		for _, c := range decode[[]struct {
			ID string `json:"id"`
		}](t, rec) {
			out = append(out, c.ID)
		}
		return out
	}

	if got := ids(); strings.Join(got, ",") != "FinancialStatements,RatioAnalysis,CurrentRatio,QuickRatio,ReturnOnEquity" {
		t.Errorf("fresh session = %v, want the full next-steps list", got)
	}

	h.do(t, http.MethodPost, "/api/concepts/CurrentRatio/learned", "")
	if got := ids(); strings.Join(got, ",") != "QuickRatio,FinancialStatements,RatioAnalysis,ReturnOnEquity" {
		t.Errorf("after CurrentRatio = %v", got)
	}
}

func TestRandomQuiz(t *testing.T) {
	h := newHarness(t, web.Options{})

	rec := h.do(t, http.MethodGet, "/api/quiz/random", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	got := decode[struct {
		Concept struct {
			ID string `json:"id"`
		} `json:"concept"`
		Item content.QuizItem `json:"item"`
	}](t, rec)
	if got.Item.ConceptID != got.Concept.ID || got.Item.ID == "" {
		t.Errorf("random quiz = %+v", got)
	}
}

func TestCalculate(t *testing.T) {
	h := newHarness(t, web.Options{})

	tests := []struct {
		name       string
		path       string
		body       string
		wantStatus int
	}{
		{"by-concept", "/api/calculators/CurrentRatio", `{"inputs":{"current_assets":300,"current_liabilities":150}}`, http.StatusOK},
		{"by-id", "/api/calculators/debt-to-equity", `{"inputs":{"total_debt":1,"total_equity":2}}`, http.StatusOK},
		{"zero-denominator", "/api/calculators/CurrentRatio", `{"inputs":{"current_assets":300,"current_liabilities":0}}`, http.StatusUnprocessableEntity},
		{"missing-input", "/api/calculators/CurrentRatio", `{"inputs":{"current_assets":300}}`, http.StatusUnprocessableEntity},
		{"no-inputs", "/api/calculators/CurrentRatio", `{"inputs":{}}`, http.StatusBadRequest},
		{"unknown", "/api/calculators/FinancialStatements", `{"inputs":{"x":1}}`, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := h.do(t, http.MethodPost, tt.path, tt.body)
			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d: %s", rec.Code, tt.wantStatus, rec.Body.String())
			}
		})
	}

	rec := h.do(t, http.MethodPost, "/api/calculators/CurrentRatio", `{"inputs":{"current_assets":300,"current_liabilities":150}}`)
	got := decode[map[string]any](t, rec)
	if got["display"] != "Current Ratio = 2.00x" || got["tone"] != "success" {
		t.Errorf("result = %v", got)
	}
}

func TestExport(t *testing.T) {
	h := newHarness(t, web.Options{})
	h.do(t, http.MethodPost, "/api/concepts/QuickRatio/quiz", `{"answers":{"QR_Q1":"Inventory"}}`)

	rec := h.do(t, http.MethodGet, "/api/progress/export.xlsx", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.Contains(ct, "spreadsheetml") {
		t.Errorf("Content-Type = %q", ct)
	}

	f, err := excelize.OpenReader(bytes.NewReader(rec.Body.Bytes()))
	if err != nil {
		t.Fatalf("OpenReader() error = %v", err)
	}
	defer f.Close()
	rows, err := f.GetRows("Attempts")
	if err != nil || len(rows) != 2 {
		t.Errorf("Attempts rows = %d, %v; want 2", len(rows), err)
	}
}

func TestSession_CookieLifecycle(t *testing.T) {
	h := newHarness(t, web.Options{})

	h.do(t, http.MethodGet, "/api/status", "")
	if h.cookie == nil || h.cookie.Value == "" {
		t.Fatal("first API request should set a session cookie")
	}
	if !h.cookie.HttpOnly {
		t.Error("session cookie should be HttpOnly")
	}
	first := h.cookie.Value

	h.do(t, http.MethodPost, "/api/concepts/CurrentRatio/learned", "")
	if h.cookie.Value != first {
		t.Error("valid cookie should be kept")
	}

	// A different session does not see the first one's progress.
	other := &harness{handler: h.handler}
	rec := other.do(t, http.MethodGet, "/api/progress", "")
	if got := decode[map[string]any](t, rec); got["learned_count"] != float64(0) {
		t.Errorf("new session learned_count = %v, want 0", got["learned_count"])
	}

	// A malformed cookie is replaced.
	bad := &harness{handler: h.handler, cookie: &http.Cookie{Name: web.DefaultCookieName, Value: "not-a-uuid"}}
	bad.do(t, http.MethodGet, "/api/status", "")
	if bad.cookie.Value == "not-a-uuid" {
		t.Error("malformed cookie should be replaced")
	}
}

func TestCORS_Preflight(t *testing.T) {
	h := newHarness(t, web.Options{CORSOrigins: []string{"http://localhost:3000"}})

	req := httptest.NewRequest(http.MethodOptions, "/api/progress", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	rec := httptest.NewRecorder()
	h.handler.ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:3000" {
		t.Errorf("Access-Control-Allow-Origin = %q", got)
	}

	req = httptest.NewRequest(http.MethodOptions, "/api/progress", nil)
	req.Header.Set("Origin", "http://evil.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodGet)
	rec = httptest.NewRecorder()
	h.handler.ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "" {
		t.Errorf("disallowed origin got Access-Control-Allow-Origin = %q", got)
	}
}

// slowStore adds latency between reading and returning a session, like a
// network round trip to Redis.
type slowStore struct {
	*progress.MemoryStore
	delay time.Duration
}

func (s slowStore) Load(ctx context.Context, id string) (*progress.LearnerState, error) {
	state, err := s.MemoryStore.Load(ctx, id)
	time.Sleep(s.delay)
	return state, err
}

func TestConcurrentUpdates_SameSessionKeepsEveryChange(t *testing.T) {
	sessions := slowStore{MemoryStore: progress.NewMemoryStore(), delay: 5 * time.Millisecond}
	h := newHarness(t, web.Options{Sessions: sessions})
	h.do(t, http.MethodGet, "/api/status", "")
	cookie := h.cookie

	send := func(method, path, body string) int {
		req := httptest.NewRequest(method, path, strings.NewReader(body))
		if body != "" {
			req.Header.Set("Content-Type", "application/json")
		}
		req.AddCookie(cookie)
		rec := httptest.NewRecorder()
		h.handler.ServeHTTP(rec, req)
		return rec.Code
	}

	concepts := []string{"FinancialStatements", "RatioAnalysis", "CurrentRatio", "QuickRatio", "ReturnOnEquity"}
	var wg sync.WaitGroup
	for _, id := range concepts {
		wg.Add(2)
		go func() {
			defer wg.Done()
			if code := send(http.MethodPost, "/api/concepts/"+id+"/learned", ""); code != http.StatusOK {
				t.Errorf("learned %s status = %d", id, code)
			}
		}()
		go func() {
			defer wg.Done()
			if code := send(http.MethodGet, "/api/concepts/"+id, ""); code != http.StatusOK {
				t.Errorf("visit %s status = %d", id, code)
			}
		}()
	}
	for range 3 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if code := send(http.MethodPost, "/api/concepts/QuickRatio/quiz", `{"answers":{"QR_Q1":"Inventory"}}`); code != http.StatusOK {
				t.Errorf("quiz status = %d", code)
			}
		}()
	}
	wg.Wait()

	state, err := sessions.MemoryStore.Load(context.Background(), cookie.Value)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(state.Learned) != len(concepts) {
		t.Errorf("learned = %v, want all %d concepts", state.Learned, len(concepts))
	}
	if len(state.Visited) != len(concepts) {
		t.Errorf("visited = %v, want all %d concepts", state.Visited, len(concepts))
	}
	if len(state.Attempts) != 3 {
		t.Errorf("attempts = %d, want 3", len(state.Attempts))
	}
}
