package handler

import (
	"context"
	"net/http"
	"time"
)

// Pinger is any dependency the readiness probe should check.
type Pinger interface {
	Ping(ctx context.Context) error
}

type HealthHandler struct {
	checks map[string]Pinger
}

type HealthResponse struct {
	Status string           `json:"status"`
	Checks map[string]Check `json:"checks,omitempty"`
}

type Check struct {
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

// NewHealthHandler checks each named dependency on /readyz. Nil entries are skipped.
func NewHealthHandler(checks map[string]Pinger) *HealthHandler {
	active := make(map[string]Pinger, len(checks))
	for name, p := range checks {
		if p != nil {
			active[name] = p
		}
	}
	return &HealthHandler{checks: active}
}

func (h *HealthHandler) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{Status: "ok"})
}

func (h *HealthHandler) Readyz(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	response := HealthResponse{Status: "up", Checks: make(map[string]Check, len(h.checks))}
	for name, p := range h.checks {
		if err := p.Ping(ctx); err != nil {
			response.Checks[name] = Check{Status: "down", Message: err.Error()}
			response.Status = "down"
			continue
		}
		response.Checks[name] = Check{Status: "up", Message: "connected"}
	}

	status := http.StatusOK
	if response.Status != "up" {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, response)
}
