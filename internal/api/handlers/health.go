package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/dom/task-manager-api/internal/logging"
	"github.com/dom/task-manager-api/internal/repository"
)

const healthPingTimeout = 2 * time.Second

type HealthHandler struct {
	checker repository.HealthChecker
	log     *slog.Logger
}

func NewHealthHandler(checker repository.HealthChecker, log *slog.Logger) *HealthHandler {
	return &HealthHandler{checker: checker, log: log}
}

type HealthResponse struct {
	Status    string `json:"status"`
	Database  string `json:"database"`
	Timestamp string `json:"timestamp"`
}

// Check always answers 200; a failing store only changes the database field.
func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthPingTimeout)
	defer cancel()

	database := "healthy"
	if err := h.checker.Ping(ctx); err != nil {
		h.log.Warn("database health check failed", logging.Err(err))
		database = "unhealthy"
	}

	respondJSON(w, r, http.StatusOK, HealthResponse{
		Status:    "ok",
		Database:  database,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}
