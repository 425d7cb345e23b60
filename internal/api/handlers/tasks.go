package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/dom/task-manager-api/internal/api/middleware"
	"github.com/dom/task-manager-api/internal/domain"
	"github.com/dom/task-manager-api/internal/service"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
	"github.com/google/uuid"
)

const taskNotFound = "Task not found"

type TaskHandler struct {
	taskService *service.TaskService
	log         *slog.Logger
}

func NewTaskHandler(taskService *service.TaskService, log *slog.Logger) *TaskHandler {
	return &TaskHandler{
		taskService: taskService,
		log:         log.With(slog.String("handler", "tasks")),
	}
}

// CreateTaskRequest has no owner field; the owner is always the caller.
type CreateTaskRequest struct {
	Title       string     `json:"title" validate:"required,max=200"`
	Description string     `json:"description"`
	Status      string     `json:"status" validate:"omitempty,oneof=pending in_progress completed"`
	Priority    string     `json:"priority" validate:"omitempty,oneof=low medium high"`
	DueDate     *time.Time `json:"due_date"`
	Tags        []string   `json:"tags" validate:"max=20,dive,max=32"`
}

type UpdateTaskRequest struct {
	Title       *string    `json:"title" validate:"omitnil,min=1,max=200"`
	Description *string    `json:"description"`
	Status      *string    `json:"status" validate:"omitnil,oneof=pending in_progress completed"`
	Priority    *string    `json:"priority" validate:"omitnil,oneof=low medium high"`
	DueDate     *time.Time `json:"due_date"`
	Tags        *[]string  `json:"tags" validate:"omitnil,max=20,dive,max=32"`

	// UserID is only decoded so that an attempt to reassign a task can be
	// reported.
	UserID json.RawMessage `json:"user_id" validate:"-"`
}

type UpdateStatusRequest struct {
	Status *string `json:"status"`
}

// taskOwner returns the caller, who is the owner of every task it can see.
func taskOwner(w http.ResponseWriter, r *http.Request) (*domain.User, bool) {
	user, ok := middleware.CurrentUser(r.Context())
	if !ok {
		respondError(w, r, http.StatusUnauthorized, "Authentication required")
	}
	return user, ok
}

// taskID parses the path id. A malformed id cannot name any task, so it is
// answered like a missing one.
func taskID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, r, http.StatusNotFound, taskNotFound)
		return uuid.Nil, false
	}
	return id, true
}

func (h *TaskHandler) List(w http.ResponseWriter, r *http.Request) {
	user, ok := taskOwner(w, r)
	if !ok {
		return
	}

	q := r.URL.Query()
	filter := domain.TaskFilter{
		Status:   domain.TaskStatus(q.Get("status")),
		Priority: domain.TaskPriority(q.Get("priority")),
		Tag:      q.Get("tag"),
	}

	tasks, err := h.taskService.List(r.Context(), user.ID, filter)
	if err != nil {
		writeError(w, r, h.log, err, taskNotFound)
		return
	}

	if tasks == nil {
		tasks = []*domain.Task{}
	}
	respondJSON(w, r, http.StatusOK, tasks)
}

func (h *TaskHandler) Get(w http.ResponseWriter, r *http.Request) {
	user, ok := taskOwner(w, r)
	if !ok {
		return
	}
	id, ok := taskID(w, r)
	if !ok {
		return
	}

	task, err := h.taskService.Get(r.Context(), user.ID, id)
	if err != nil {
		writeError(w, r, h.log, err, taskNotFound)
		return
	}

	respondJSON(w, r, http.StatusOK, task)
}

func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	user, ok := taskOwner(w, r)
	if !ok {
		return
	}

	var req CreateTaskRequest
	if !decodeAndValidate(w, r, h.log, &req) {
		return
	}

	task, err := h.taskService.Create(r.Context(), user.ID, service.CreateTaskInput{
		Title:       req.Title,
		Description: req.Description,
		Status:      domain.TaskStatus(req.Status),
		Priority:    domain.TaskPriority(req.Priority),
		DueDate:     req.DueDate,
		Tags:        req.Tags,
	})
	if err != nil {
		writeError(w, r, h.log, err, taskNotFound)
		return
	}

	respondJSON(w, r, http.StatusCreated, task)
}

func (h *TaskHandler) Update(w http.ResponseWriter, r *http.Request) {
	user, ok := taskOwner(w, r)
	if !ok {
		return
	}
	id, ok := taskID(w, r)
	if !ok {
		return
	}

	var req UpdateTaskRequest
	if !decodeAndValidate(w, r, h.log, &req) {
		return
	}
	if len(req.UserID) > 0 {
		verr := domain.NewValidationError()
		verr.Add("user_id", "Task owner cannot be changed.")
		writeError(w, r, h.log, verr, taskNotFound)
		return
	}

	input := service.UpdateTaskInput{
		Title:       req.Title,
		Description: req.Description,
		DueDate:     req.DueDate,
		Tags:        req.Tags,
	}
	if req.Status != nil {
		status := domain.TaskStatus(*req.Status)
		input.Status = &status
	}
	if req.Priority != nil {
		priority := domain.TaskPriority(*req.Priority)
		input.Priority = &priority
	}

	task, err := h.taskService.Update(r.Context(), user.ID, id, input)
	if err != nil {
		writeError(w, r, h.log, err, taskNotFound)
		return
	}

	respondJSON(w, r, http.StatusOK, task)
}

func (h *TaskHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	user, ok := taskOwner(w, r)
	if !ok {
		return
	}
	id, ok := taskID(w, r)
	if !ok {
		return
	}

	var req UpdateStatusRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		respondError(w, r, http.StatusBadRequest, "Invalid request body")
		return
	}
	if req.Status == nil {
		respondError(w, r, http.StatusBadRequest, "Status is required")
		return
	}
	status := domain.TaskStatus(*req.Status)
	if !status.IsValid() {
		respondError(w, r, http.StatusBadRequest, "Invalid status")
		return
	}

	task, err := h.taskService.UpdateStatus(r.Context(), user.ID, id, status)
	if err != nil {
		writeError(w, r, h.log, err, taskNotFound)
		return
	}

	respondJSON(w, r, http.StatusOK, task)
}

func (h *TaskHandler) Delete(w http.ResponseWriter, r *http.Request) {
	user, ok := taskOwner(w, r)
	if !ok {
		return
	}
	id, ok := taskID(w, r)
	if !ok {
		return
	}

	if err := h.taskService.Delete(r.Context(), user.ID, id); err != nil {
		writeError(w, r, h.log, err, taskNotFound)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
