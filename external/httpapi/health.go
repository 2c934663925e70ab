package httpapi

import (
	"context"
	"net/http"
	"time"
)

const checkTimeout = 5 * time.Second

// Checker is one named readiness probe.
type Checker struct {
	Name  string
	Check func(ctx context.Context) error
}

type healthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

func (s *Server) healthz(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, healthResponse{Status: "ok"}, http.StatusOK)
}

// readyz reports 503 unless every checker passes.
func (s *Server) readyz(w http.ResponseWriter, r *http.Request) {
	checks := make(map[string]string, len(s.checkers))
	ok := true
	for _, c := range s.checkers {
		ctx, cancel := context.WithTimeout(r.Context(), checkTimeout)
		err := c.Check(ctx)
		cancel()
		if err != nil {
			checks[c.Name] = "fail: " + err.Error()
			ok = false
			continue
		}
		checks[c.Name] = "ok"
	}

	if !ok {
		respondJSON(w, healthResponse{Status: "fail", Checks: checks}, http.StatusServiceUnavailable)
		return
	}
	respondJSON(w, healthResponse{Status: "ok", Checks: checks}, http.StatusOK)
}
