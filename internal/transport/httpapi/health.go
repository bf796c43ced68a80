package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/julienschmidt/httprouter"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

type PingFunc func(ctx context.Context) error

func (f PingFunc) Ping(ctx context.Context) error {
	return f(ctx)
}

type healthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database,omitempty"`
}

type HealthHandler struct {
	db  Pinger
	log *slog.Logger
}

func NewHealthHandler(db Pinger, log *slog.Logger) *HealthHandler {
	if log == nil {
		log = slog.Default()
	}
	return &HealthHandler{db: db, log: log.With(slog.String("component", "http.health"))}
}

func (h *HealthHandler) Health(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
	if err := writeJSON(w, http.StatusOK, healthResponse{Status: "ok"}); err != nil {
		h.log.Error("failed to write JSON response", slog.Any("err", err))
	}
}

func (h *HealthHandler) Ready(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	if err := h.db.Ping(ctx); err != nil {
		h.log.Error("database health check failed", slog.Any("err", err))
		if err := writeJSON(w, http.StatusServiceUnavailable, healthResponse{Status: "unavailable", Database: "error"}); err != nil {
			h.log.Error("failed to write JSON response", slog.Any("err", err))
		}
		return
	}

	if err := writeJSON(w, http.StatusOK, healthResponse{Status: "ready", Database: "ok"}); err != nil {
		h.log.Error("failed to write JSON response", slog.Any("err", err))
	}
}
