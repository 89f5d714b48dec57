// Package health provides liveness and readiness handlers for the dictation
// service.
//
//   - /healthz — liveness probe; returns 200 whenever the process serves HTTP,
//     and reports the current recognition state.
//   - /readyz  — readiness probe; returns 200 only when the recognition
//     session is healthy and all registered [Checker] functions pass.
//
// Responses are JSON objects with a top-level "status" field ("ok" or "fail"),
// the recognition "state", and a "checks" map with per-checker results.
package health

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/MrWong99/vocalith/pkg/types"
)

// checkTimeout bounds how long a single readiness check may take.
const checkTimeout = 5 * time.Second

// Checker is a named health check. Check returns nil when the dependency is
// healthy and an error describing the failure otherwise.
type Checker struct {
	// Name is a short label for this check (e.g. "audio", "engine"). It
	// appears as a key in the JSON response.
	Name string

	// Check probes the dependency. It must respect context cancellation.
	Check func(ctx context.Context) error
}

// result is the JSON response body for health endpoints.
type result struct {
	Status string            `json:"status"`
	State  string            `json:"state"`
	Checks map[string]string `json:"checks,omitempty"`
}

// Handler serves /healthz and /readyz for a running recognition session. It
// is safe for concurrent use; the checker list is fixed at construction time.
type Handler struct {
	state    func() types.RecognitionState
	checkers []Checker
}

// New creates a [Handler]. state reports the current recognition state and
// must be safe to call concurrently; the checkers are evaluated sequentially
// on each /readyz request.
func New(state func() types.RecognitionState, checkers ...Checker) *Handler {
	c := make([]Checker, len(checkers))
	copy(c, checkers)
	return &Handler{state: state, checkers: c}
}

// Healthz is a liveness probe. A process that can serve HTTP is alive, so it
// always returns 200, with the recognition state included for operators.
func (h *Handler) Healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, result{Status: "ok", State: h.state().String()})
}

// Readyz is a readiness probe. It fails when the recognition session is in
// the error state or when any registered [Checker] fails. Each checker gets
// a context with a [checkTimeout] deadline derived from the request context.
func (h *Handler) Readyz(w http.ResponseWriter, r *http.Request) {
	state := h.state()
	checks := make(map[string]string, len(h.checkers))
	allOK := state != types.StateError

	for _, c := range h.checkers {
		ctx, cancel := context.WithTimeout(r.Context(), checkTimeout)
		err := c.Check(ctx)
		cancel()

		if err != nil {
			checks[c.Name] = "fail: " + err.Error()
			allOK = false
		} else {
			checks[c.Name] = "ok"
		}
	}

	res := result{
		Status: "ok",
		State:  state.String(),
		Checks: checks,
	}
	status := http.StatusOK
	if !allOK {
		res.Status = "fail"
		status = http.StatusServiceUnavailable
	}

	writeJSON(w, status, res)
}

// Register adds the /healthz and /readyz routes to mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", h.Healthz)
	mux.HandleFunc("GET /readyz", h.Readyz)
}

// writeJSON encodes v as JSON and writes it with the given status code. On
// encoding failure it falls back to a plain-text 500 response.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"status":"error"}`, http.StatusInternalServerError)
	}
}
