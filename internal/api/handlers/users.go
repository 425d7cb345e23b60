package handlers

import (
	"log/slog"
	"net/http"

	"github.com/dom/task-manager-api/internal/api/middleware"
	"github.com/dom/task-manager-api/internal/domain"
	"github.com/dom/task-manager-api/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

const userNotFound = "User not found"

type UserHandler struct {
	userService *service.UserService
	log         *slog.Logger
}

func NewUserHandler(userService *service.UserService, log *slog.Logger) *UserHandler {
	return &UserHandler{
		userService: userService,
		log:         log.With(slog.String("handler", "users")),
	}
}

type CreateUserRequest struct {
	Username string `json:"username" validate:"required,max=80"`
	Email    string `json:"email" validate:"required,email,max=120"`
	Password string `json:"password" validate:"required,min=6,maxbytes=72"`
}

type UpdateUserRequest struct {
	Username *string `json:"username" validate:"omitnil,min=1,max=80"`
	Email    *string `json:"email" validate:"omitnil,email,max=120"`
	Password *string `json:"password" validate:"omitnil,min=6,maxbytes=72"`
}

func userID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, r, http.StatusNotFound, userNotFound)
		return uuid.Nil, false
	}
	return id, true
}

func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.userService.List(r.Context())
	if err != nil {
		writeError(w, r, h.log, err, userNotFound)
		return
	}

	if users == nil {
		users = []*domain.User{}
	}
	respondJSON(w, r, http.StatusOK, users)
}

func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := userID(w, r)
	if !ok {
		return
	}

	user, err := h.userService.GetByID(r.Context(), id)
	if err != nil {
		writeError(w, r, h.log, err, userNotFound)
		return
	}

	respondJSON(w, r, http.StatusOK, user)
}

func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateUserRequest
	if !decodeAndValidate(w, r, h.log, &req) {
		return
	}

	user, err := h.userService.Create(r.Context(), service.CreateUserInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		writeError(w, r, h.log, err, userNotFound)
		return
	}

	respondJSON(w, r, http.StatusCreated, user)
}

// Update and Delete only ever act on the caller's own account.
func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	caller, ok := middleware.CurrentUser(r.Context())
	if !ok {
		respondError(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}
	id, ok := userID(w, r)
	if !ok {
		return
	}

	var req UpdateUserRequest
	if !decodeAndValidate(w, r, h.log, &req) {
		return
	}

	user, err := h.userService.Update(r.Context(), caller.ID, id, service.UpdateUserInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		writeError(w, r, h.log, err, userNotFound)
		return
	}

	respondJSON(w, r, http.StatusOK, user)
}

func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	caller, ok := middleware.CurrentUser(r.Context())
	if !ok {
		respondError(w, r, http.StatusUnauthorized, "Authentication required")
		return
	}
	id, ok := userID(w, r)
	if !ok {
		return
	}

	if err := h.userService.Delete(r.Context(), caller.ID, id); err != nil {
		writeError(w, r, h.log, err, userNotFound)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
