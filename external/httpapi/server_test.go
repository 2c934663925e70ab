package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	webhookimpl "github.com/foxseedlab/speakscore/external/webhook"
	workspaceimpl "github.com/foxseedlab/speakscore/external/workspace"
	"github.com/foxseedlab/speakscore/internal/observe"
	"github.com/foxseedlab/speakscore/internal/prompt"
	"github.com/foxseedlab/speakscore/internal/repository"
	"github.com/foxseedlab/speakscore/internal/scoring"
	"github.com/foxseedlab/speakscore/internal/session"
	"github.com/foxseedlab/speakscore/internal/transcriber"
	"github.com/foxseedlab/speakscore/internal/workspace"
	"go.opentelemetry.io/otel/metric/noop"
)

// fileTranscriber "hears" exactly the bytes that were uploaded.
type fileTranscriber struct{}

func (fileTranscriber) Transcribe(_ context.Context, a workspace.Artifact) (transcriber.Result, error) {
	b, err := os.ReadFile(a.Path)
	if err != nil {
		return transcriber.Result{}, err
	}
	return transcriber.Result{Text: string(b), Duration: 2 * time.Second}, nil
}

type mockRepository struct {
	mu    sync.Mutex
	saved []repository.SaveAssessmentInput
	byID  map[string]repository.Assessment
	err   error
}

func (m *mockRepository) SaveAssessment(_ context.Context, in repository.SaveAssessmentInput) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saved = append(m.saved, in)
	return nil
}

func (m *mockRepository) GetAssessment(_ context.Context, id string) (*repository.Assessment, error) {
	if m.err != nil {
		return nil, m.err
	}
	a, ok := m.byID[id]
	if !ok {
		return nil, nil
	}
	return &a, nil
}

func (m *mockRepository) ListRecentAssessments(_ context.Context, limit int) ([]repository.Assessment, error) {
	if m.err != nil {
		return nil, m.err
	}
	out := make([]repository.Assessment, 0, len(m.byID))
	for _, a := range m.byID {
		if len(out) == limit {
			break
		}
		out = append(out, a)
	}
	return out, nil
}

type testServer struct {
	*httptest.Server
	store *session.MemoryStore
	repo  *mockRepository
}

func newTestServer(t *testing.T, pool int, checkers ...Checker) *testServer {
	t.Helper()
	texts := make([]string, 0, pool)
	for i := range pool {
		texts = append(texts, fmt.Sprintf("sentence number %d is here", i))
	}
	source := prompt.StaticSource{prompt.ModeRead: texts, prompt.ModeListen: texts}

	provider, err := workspaceimpl.NewLocalDirProvider(t.TempDir())
	if err != nil {
		t.Fatalf("NewLocalDirProvider: %v", err)
	}
	scorer, err := scoring.NewScorer(scoring.DefaultWeights(), scoring.FluencyClamp)
	if err != nil {
		t.Fatalf("NewScorer: %v", err)
	}
	metrics, err := observe.NewMetrics(noop.NewMeterProvider())
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}
	repo := &mockRepository{byID: make(map[string]repository.Assessment)}
	engine := session.NewEngine(source, provider, fileTranscriber{}, scorer, repo, webhookimpl.NewHTTPSender(""), metrics,
		session.WithRand(rand.New(rand.NewSource(7))))
	store := session.NewMemoryStore(engine, time.Hour)

	scrape := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("# metrics\n"))
	})
	srv := NewServer(Config{DefaultQuestionCount: 3, MaxAudioBytes: 1024}, engine, store, repo, metrics, scrape, checkers...)
	ts := httptest.NewServer(srv.Routes())
	t.Cleanup(ts.Close)
	return &testServer{Server: ts, store: store, repo: repo}
}

func (ts *testServer) do(t *testing.T, method, path string, body []byte, contentType string) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequest(method, ts.URL+path, bytes.NewReader(body))
	if err != nil {
		t.Fatalf("NewRequest: %v", err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	resp, err := ts.Client().Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer resp.Body.Close()
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(resp.Body); err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp, buf.Bytes()
}

func (ts *testServer) create(t *testing.T, body string) sessionResponse {
	t.Helper()
	resp, b := ts.do(t, http.MethodPost, "/sessions", []byte(body), "application/json")
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create status = %d body=%s", resp.StatusCode, b)
	}
	var out sessionResponse
	if err := json.Unmarshal(b, &out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return out
}

func (ts *testServer) answer(t *testing.T, id string, audio []byte) (*http.Response, []byte) {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile(audioField, "answer.webm")
	if err != nil {
		t.Fatalf("CreateFormFile: %v", err)
	}
	if _, err := fw.Write(audio); err != nil {
		t.Fatalf("write: %v", err)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	return ts.do(t, http.MethodPost, "/sessions/"+id+"/answers", body.Bytes(), mw.FormDataContentType())
}

func TestCreateSession(t *testing.T) {
	ts := newTestServer(t, 25)

	got := ts.create(t, `{"mode":"read","question_count":50}`)
	if got.SessionID == "" || got.Mode != "read" || got.State != string(session.StateInProgress) {
		t.Fatalf("unexpected session: %+v", got)
	}
	if got.Total != session.MaxQuestions {
		t.Fatalf("total = %d", got.Total)
	}
	if got.Current != 1 || got.Prompt == "" {
		t.Fatalf("unexpected progress: %+v", got)
	}

	def := ts.create(t, `{"mode":"listen"}`)
	if def.Total != 3 {
		t.Fatalf("default question count = %d want 3", def.Total)
	}
}

func TestCreateSession_Errors(t *testing.T) {
	ts := newTestServer(t, 5)
	tests := []struct {
		name string
		body string
		want int
	}{
		{"malformed", `{`, http.StatusBadRequest},
		{"unknown mode", `{"mode":"sing"}`, http.StatusBadRequest},
		{"insufficient prompts", `{"mode":"read","question_count":10}`, http.StatusUnprocessableEntity},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, body := ts.do(t, http.MethodPost, "/sessions", []byte(tt.body), "application/json")
			if resp.StatusCode != tt.want {
				t.Fatalf("status = %d want %d body=%s", resp.StatusCode, tt.want, body)
			}
		})
	}
}

func TestFullSessionFlow(t *testing.T) {
	ts := newTestServer(t, 5)
	created := ts.create(t, `{"mode":"read","question_count":3}`)

	resp, _ := ts.do(t, http.MethodGet, "/sessions/"+created.SessionID+"/results", nil, "")
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("results before completion status = %d want 409", resp.StatusCode)
	}

	current := created.Prompt
	var last progressResponse
	for i := range 3 {
		resp, body := ts.answer(t, created.SessionID, []byte(current))
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("answer %d status = %d body=%s", i, resp.StatusCode, body)
		}
		last = progressResponse{}
		if err := json.Unmarshal(body, &last); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if last.Result.Prompt != current || last.Result.Scores.Accuracy != 100 {
			t.Fatalf("unexpected result: %+v", last.Result)
		}
		if last.Result.DurationSeconds != 2 {
			t.Fatalf("duration = %v want 2", last.Result.DurationSeconds)
		}
		current = last.NextPrompt
	}
	if !last.Done || last.Remaining != 0 || last.Overall == nil {
		t.Fatalf("expected completed progress, got %+v", last)
	}

	resp, body := ts.do(t, http.MethodGet, "/sessions/"+created.SessionID+"/prompt", nil, "")
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("prompt after completion status = %d want 409 body=%s", resp.StatusCode, body)
	}
	resp, _ = ts.answer(t, created.SessionID, []byte("extra"))
	if resp.StatusCode != http.StatusConflict {
		t.Fatalf("answer after completion status = %d want 409", resp.StatusCode)
	}

	resp, body = ts.do(t, http.MethodGet, "/sessions/"+created.SessionID+"/results", nil, "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("results status = %d", resp.StatusCode)
	}
	var results resultsResponse
	if err := json.Unmarshal(body, &results); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(results.Answers) != 3 || results.Overall != *last.Overall || results.Mode != "read" {
		t.Fatalf("unexpected results: %+v", results)
	}

	resp, body = ts.do(t, http.MethodGet, "/sessions/"+created.SessionID+"/results?format=text", nil, "")
	if !strings.HasPrefix(resp.Header.Get("Content-Type"), "text/plain") || !strings.Contains(string(body), "Overall:") {
		t.Fatalf("unexpected text results: %s", body)
	}

	if len(ts.repo.saved) != 1 || ts.repo.saved[0].SessionID != created.SessionID {
		t.Fatalf("expected one saved assessment, got %+v", ts.repo.saved)
	}
}

func TestSubmitAnswer_Validation(t *testing.T) {
	ts := newTestServer(t, 5)
	created := ts.create(t, `{"mode":"read"}`)

	resp, _ := ts.do(t, http.MethodPost, "/sessions/"+created.SessionID+"/answers", []byte("raw"), "application/octet-stream")
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("missing field status = %d want 400", resp.StatusCode)
	}

	resp, _ = ts.answer(t, created.SessionID, bytes.Repeat([]byte("a"), 2048))
	if resp.StatusCode != http.StatusRequestEntityTooLarge {
		t.Fatalf("oversized status = %d want 413", resp.StatusCode)
	}

	resp, _ = ts.answer(t, "missing", []byte("hi"))
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("unknown session status = %d want 404", resp.StatusCode)
	}

	s, err := ts.store.Get(created.SessionID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if s.Answered() != 0 {
		t.Fatalf("rejected uploads must not advance the session, answered=%d", s.Answered())
	}
}

func TestDeleteSession(t *testing.T) {
	ts := newTestServer(t, 5)
	created := ts.create(t, `{"mode":"read"}`)
	s, err := ts.store.Get(created.SessionID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}

	resp, _ := ts.do(t, http.MethodDelete, "/sessions/"+created.SessionID, nil, "")
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("delete status = %d want 204", resp.StatusCode)
	}
	if s.State() != session.StateAbandoned {
		t.Fatalf("state = %s want abandoned", s.State())
	}
	if _, err := ts.store.Get(created.SessionID); !errors.Is(err, session.ErrSessionNotFound) {
		t.Fatalf("expected session to be evicted, got %v", err)
	}

	resp, _ = ts.do(t, http.MethodDelete, "/sessions/"+created.SessionID, nil, "")
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("second delete status = %d want 404", resp.StatusCode)
	}
}

func TestAssessments(t *testing.T) {
	ts := newTestServer(t, 5)
	ts.repo.byID["a-1"] = repository.Assessment{
		ID:            "a-1",
		Mode:          "listen",
		QuestionCount: 1,
		OverallScore:  72.5,
		Answers: []repository.Answer{
			{QuestionIndex: 0, Prompt: "hello", Transcript: "hello", DurationSeconds: 1.5, FinalScore: 72.5},
		},
	}

	resp, body := ts.do(t, http.MethodGet, "/assessments/a-1", nil, "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var got assessmentResponse
	if err := json.Unmarshal(body, &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Band != session.BandGood || len(got.Answers) != 1 || got.Answers[0].Scores.Final != 72.5 {
		t.Fatalf("unexpected assessment: %+v", got)
	}

	resp, _ = ts.do(t, http.MethodGet, "/assessments/nope", nil, "")
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("missing assessment status = %d want 404", resp.StatusCode)
	}

	tests := []struct {
		query string
		want  int
	}{
		{"", http.StatusOK},
		{"?limit=5", http.StatusOK},
		{"?limit=0", http.StatusBadRequest},
		{"?limit=abc", http.StatusBadRequest},
	}
	for _, tt := range tests {
		resp, _ := ts.do(t, http.MethodGet, "/assessments"+tt.query, nil, "")
		if resp.StatusCode != tt.want {
			t.Fatalf("list%s status = %d want %d", tt.query, resp.StatusCode, tt.want)
		}
	}

	ts.repo.err = errors.New("db down")
	resp, _ = ts.do(t, http.MethodGet, "/assessments", nil, "")
	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("repository failure status = %d want 500", resp.StatusCode)
	}
}

func TestHealthAndMetrics(t *testing.T) {
	failing := Checker{Name: "database", Check: func(context.Context) error { return errors.New("unreachable") }}
	ts := newTestServer(t, 5, failing)

	resp, _ := ts.do(t, http.MethodGet, "/healthz", nil, "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("healthz status = %d", resp.StatusCode)
	}
	resp, body := ts.do(t, http.MethodGet, "/readyz", nil, "")
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("readyz status = %d want 503", resp.StatusCode)
	}
	var hr healthResponse
	if err := json.Unmarshal(body, &hr); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if hr.Status != "fail" || !strings.HasPrefix(hr.Checks["database"], "fail:") {
		t.Fatalf("unexpected readyz body: %+v", hr)
	}

	resp, body = ts.do(t, http.MethodGet, "/metrics", nil, "")
	if resp.StatusCode != http.StatusOK || !strings.Contains(string(body), "# metrics") {
		t.Fatalf("metrics status = %d body=%s", resp.StatusCode, body)
	}
}
