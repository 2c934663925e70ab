package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/foxseedlab/speakscore/internal/prompt"
	"github.com/foxseedlab/speakscore/internal/session"
	"github.com/go-chi/chi/v5"
)

const (
	audioField = "audio"
	// Headroom for multipart boundaries and headers on top of the audio cap.
	multipartOverhead = 64 << 10

	defaultListLimit = 20
	maxListLimit     = 100
)

func (s *Server) createSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	mode, err := prompt.ParseMode(req.Mode)
	if err != nil {
		respondError(w, err.Error(), http.StatusBadRequest)
		return
	}
	count := req.QuestionCount
	if count == 0 {
		count = s.cfg.DefaultQuestionCount
	}

	sess, err := s.engine.Create(r.Context(), mode, count)
	if err != nil {
		respondEngineError(w, r, err)
		return
	}
	s.store.Put(sess)
	respondJSON(w, describeSession(sess), http.StatusCreated)
}

func (s *Server) getPrompt(w http.ResponseWriter, r *http.Request) {
	sess, err := s.store.Get(chi.URLParam(r, "id"))
	if err != nil {
		respondEngineError(w, r, err)
		return
	}
	if _, err := sess.CurrentPrompt(); err != nil {
		respondEngineError(w, r, err)
		return
	}
	respondJSON(w, describeSession(sess), http.StatusOK)
}

func (s *Server) submitAnswer(w http.ResponseWriter, r *http.Request) {
	sess, err := s.store.Get(chi.URLParam(r, "id"))
	if err != nil {
		respondEngineError(w, r, err)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxAudioBytes+multipartOverhead)
	file, _, err := r.FormFile(audioField)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(w, "audio exceeds size limit", http.StatusRequestEntityTooLarge)
			return
		}
		respondError(w, "multipart field \"audio\" is required", http.StatusBadRequest)
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, s.cfg.MaxAudioBytes+1))
	if err != nil {
		respondError(w, "failed to read audio", http.StatusBadRequest)
		return
	}
	if int64(len(data)) > s.cfg.MaxAudioBytes {
		respondError(w, "audio exceeds size limit", http.StatusRequestEntityTooLarge)
		return
	}

	progress, err := s.engine.Submit(r.Context(), sess, data)
	if err != nil {
		respondEngineError(w, r, err)
		return
	}
	respondJSON(w, newProgressResponse(progress), http.StatusOK)
}

// deleteSession abandons an unfinished session and forgets it. Completed
// sessions are just forgotten.
func (s *Server) deleteSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	sess, err := s.store.Get(id)
	if err != nil {
		respondEngineError(w, r, err)
		return
	}
	if err := s.engine.Abandon(r.Context(), sess); err != nil && !errors.Is(err, session.ErrInvalidSessionState) {
		respondEngineError(w, r, err)
		return
	}
	s.store.Delete(id)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) getResults(w http.ResponseWriter, r *http.Request) {
	sess, err := s.store.Get(chi.URLParam(r, "id"))
	if err != nil {
		respondEngineError(w, r, err)
		return
	}
	results, err := sess.Results()
	if err != nil {
		respondEngineError(w, r, err)
		return
	}

	if r.URL.Query().Get("format") == "text" {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write(session.BuildResultText(results)); err != nil {
			slog.Warn("failed to write result text", "error", err, "session_id", sess.ID())
		}
		return
	}
	respondJSON(w, newResultsResponse(results), http.StatusOK)
}

func (s *Server) getAssessment(w http.ResponseWriter, r *http.Request) {
	a, err := s.repo.GetAssessment(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondEngineError(w, r, err)
		return
	}
	if a == nil {
		respondError(w, "assessment not found", http.StatusNotFound)
		return
	}
	respondJSON(w, newAssessmentResponse(*a), http.StatusOK)
}

func (s *Server) listAssessments(w http.ResponseWriter, r *http.Request) {
	limit := defaultListLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n <= 0 {
			respondError(w, "limit must be a positive integer", http.StatusBadRequest)
			return
		}
		limit = min(n, maxListLimit)
	}

	list, err := s.repo.ListRecentAssessments(r.Context(), limit)
	if err != nil {
		respondEngineError(w, r, err)
		return
	}
	out := make([]assessmentResponse, 0, len(list))
	for _, a := range list {
		out = append(out, newAssessmentResponse(a))
	}
	respondJSON(w, out, http.StatusOK)
}

func describeSession(sess *session.Session) sessionResponse {
	answered := sess.Answered()
	total := sess.Total()
	out := sessionResponse{
		SessionID: sess.ID(),
		Mode:      string(sess.Mode()),
		State:     string(sess.State()),
		Current:   min(answered+1, total),
		Total:     total,
		Remaining: total - answered,
	}
	if p, err := sess.CurrentPrompt(); err == nil {
		out.Prompt = p
	}
	return out
}
