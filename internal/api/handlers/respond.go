package handlers

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/dom/task-manager-api/internal/auth"
	"github.com/dom/task-manager-api/internal/domain"
	"github.com/dom/task-manager-api/internal/logging"
	"github.com/dom/task-manager-api/internal/service"
	"github.com/dom/task-manager-api/internal/validation"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

type ValidationErrorResponse struct {
	Errors map[string][]string `json:"errors"`
}

func respondJSON(w http.ResponseWriter, r *http.Request, status int, v interface{}) {
	render.Status(r, status)
	render.JSON(w, r, v)
}

func respondError(w http.ResponseWriter, r *http.Request, status int, message string) {
	respondJSON(w, r, status, ErrorResponse{Error: message})
}

// decodeAndValidate reads a JSON body into v and runs its validate tags. It
// writes the 400 itself and reports false when the request is unusable.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, log *slog.Logger, v interface{}) bool {
	if err := render.DecodeJSON(r.Body, v); err != nil {
		log.Debug("failed to decode request body",
			slog.String("request_id", chiMiddleware.GetReqID(r.Context())),
			logging.Err(err),
		)
		respondError(w, r, http.StatusBadRequest, "Invalid request body")
		return false
	}

	if err := validation.Struct(v); err != nil {
		writeError(w, r, log, err, "")
		return false
	}
	return true
}

// writeError maps the error taxonomy onto HTTP. notFound is the message used
// for domain.ErrNotFound.
func writeError(w http.ResponseWriter, r *http.Request, log *slog.Logger, err error, notFound string) {
	var verr *domain.ValidationError

	switch {
	case errors.As(err, &verr):
		respondJSON(w, r, http.StatusBadRequest, ValidationErrorResponse{Errors: verr.Fields})
	case errors.Is(err, domain.ErrUsernameExists):
		respondError(w, r, http.StatusBadRequest, "Username already exists")
	case errors.Is(err, domain.ErrEmailExists):
		respondError(w, r, http.StatusBadRequest, "Email already exists")
	case errors.Is(err, domain.ErrConflict):
		respondError(w, r, http.StatusBadRequest, "Resource already exists")
	case errors.Is(err, service.ErrInvalidCredentials):
		respondError(w, r, http.StatusUnauthorized, "Invalid username or password")
	case errors.Is(err, auth.ErrUnauthenticated):
		respondError(w, r, http.StatusUnauthorized, "Authentication required")
	case errors.Is(err, domain.ErrNotFound):
		if notFound == "" {
			notFound = "Resource not found"
		}
		respondError(w, r, http.StatusNotFound, notFound)
	default:
		log.Error("request failed",
			slog.String("request_id", chiMiddleware.GetReqID(r.Context())),
			slog.String("path", r.URL.Path),
			logging.Err(err),
		)
		respondError(w, r, http.StatusInternalServerError, "Internal server error")
	}
}

// NotFound answers unknown routes.
func NotFound(w http.ResponseWriter, r *http.Request) {
	respondError(w, r, http.StatusNotFound, "Resource not found")
}

func MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	respondError(w, r, http.StatusMethodNotAllowed, "Method not allowed")
}
