// Package httpapi serves the assessment engine as a JSON API.
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/foxseedlab/speakscore/internal/observe"
	"github.com/foxseedlab/speakscore/internal/prompt"
	"github.com/foxseedlab/speakscore/internal/repository"
	"github.com/foxseedlab/speakscore/internal/session"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

const (
	readHeaderTimeout = 10 * time.Second
	shutdownTimeout   = 15 * time.Second
)

type Engine interface {
	Create(ctx context.Context, mode prompt.Mode, requested int) (*session.Session, error)
	Submit(ctx context.Context, s *session.Session, audio []byte) (session.Progress, error)
	Abandon(ctx context.Context, s *session.Session) error
}

type SessionStore interface {
	Put(s *session.Session)
	Get(id string) (*session.Session, error)
	Delete(id string)
}

type Config struct {
	Addr                 string
	DefaultQuestionCount int
	MaxAudioBytes        int64
}

type Server struct {
	cfg      Config
	engine   Engine
	store    SessionStore
	repo     repository.AssessmentRepository
	metrics  *observe.Metrics
	scrape   http.Handler
	checkers []Checker
}

// NewServer builds the API. scrape serves /metrics and may be nil.
func NewServer(
	cfg Config,
	engine Engine,
	store SessionStore,
	repo repository.AssessmentRepository,
	metrics *observe.Metrics,
	scrape http.Handler,
	checkers ...Checker,
) *Server {
	return &Server{
		cfg:      cfg,
		engine:   engine,
		store:    store,
		repo:     repo,
		metrics:  metrics,
		scrape:   scrape,
		checkers: checkers,
	}
}

func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(requestMetrics(s.metrics))

	r.Get("/healthz", s.healthz)
	r.Get("/readyz", s.readyz)
	if s.scrape != nil {
		r.Method(http.MethodGet, "/metrics", s.scrape)
	}

	r.Route("/sessions", func(r chi.Router) {
		r.Post("/", s.createSession)
		r.Route("/{id}", func(r chi.Router) {
			r.Delete("/", s.deleteSession)
			r.Get("/prompt", s.getPrompt)
			r.Post("/answers", s.submitAnswer)
			r.Get("/results", s.getResults)
		})
	})
	r.Get("/assessments", s.listAssessments)
	r.Get("/assessments/{id}", s.getAssessment)
	return r
}

// Run serves until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Routes(),
		ReadHeaderTimeout: readHeaderTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("http server listening", "addr", s.cfg.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()
	slog.Info("http server shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func respondJSON(w http.ResponseWriter, data any, status int) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Warn("failed to encode response", "error", err)
	}
}

func respondError(w http.ResponseWriter, message string, status int) {
	respondJSON(w, map[string]string{"error": message}, status)
}

// respondEngineError maps domain errors onto HTTP statuses.
func respondEngineError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, session.ErrSessionNotFound):
		respondError(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, prompt.ErrUnknownMode):
		respondError(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, session.ErrInsufficientPrompts):
		respondError(w, err.Error(), http.StatusUnprocessableEntity)
	case errors.Is(err, session.ErrInvalidSessionState),
		errors.Is(err, session.ErrSessionComplete),
		errors.Is(err, session.ErrResultsNotReady):
		respondError(w, err.Error(), http.StatusConflict)
	case errors.Is(err, context.Canceled) && r.Context().Err() != nil:
		// Client went away; nobody reads the body.
		slog.Info("request cancelled", "path", r.URL.Path)
	default:
		slog.Error("request failed", "error", err, "path", r.URL.Path, "request_id", middleware.GetReqID(r.Context()))
		respondError(w, "internal error", http.StatusInternalServerError)
	}
}
