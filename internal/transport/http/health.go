package http

import (
	"encoding/json"
	"net/http"
)

// Pinger reports liveness of one sub-server.
type Pinger interface {
	Ping() bool
}

type HealthHandler struct {
	checks map[string]Pinger
}

func NewHealthHandler(checks map[string]Pinger) *HealthHandler {
	return &HealthHandler{checks: checks}
}

func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	status := http.StatusOK
	body := make(map[string]string, len(h.checks))
	for name, check := range h.checks {
		if check.Ping() {
			body[name] = "ok"
		} else {
			body[name] = "down"
			status = http.StatusServiceUnavailable
		}
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// NewMux wires the spectator and health handlers onto one mux.
func NewMux(spectator *SpectatorHandler, health *HealthHandler) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", spectator.ServeWS)
	mux.Handle("/healthz", health)
	return mux
}
