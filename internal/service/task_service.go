package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/dom/task-manager-api/internal/domain"
	"github.com/dom/task-manager-api/internal/logging"
	"github.com/dom/task-manager-api/internal/repository"
	"github.com/google/uuid"
)

// TaskNotifier is told about every change to a user's tasks.
type TaskNotifier interface {
	NotifyTask(userID uuid.UUID, event domain.TaskEventType, task *domain.Task)
}

type noopNotifier struct{}

func (noopNotifier) NotifyTask(uuid.UUID, domain.TaskEventType, *domain.Task) {}

// TaskService only ever reads or writes tasks through the owner id of the
// authenticated caller.
type TaskService struct {
	taskRepo repository.TaskRepository
	notifier TaskNotifier
	log      *slog.Logger
}

func NewTaskService(taskRepo repository.TaskRepository, notifier TaskNotifier, log *slog.Logger) *TaskService {
	if notifier == nil {
		notifier = noopNotifier{}
	}
	return &TaskService{
		taskRepo: taskRepo,
		notifier: notifier,
		log:      log,
	}
}

type CreateTaskInput struct {
	Title       string
	Description string
	Status      domain.TaskStatus
	Priority    domain.TaskPriority
	DueDate     *time.Time
	Tags        []string
}

type UpdateTaskInput struct {
	Title       *string
	Description *string
	Status      *domain.TaskStatus
	Priority    *domain.TaskPriority
	DueDate     *time.Time
	Tags        *[]string
}

func normalizeTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]bool, len(tags))
	for _, tag := range tags {
		tag = strings.ToLower(strings.TrimSpace(tag))
		if tag == "" || seen[tag] {
			continue
		}
		seen[tag] = true
		out = append(out, tag)
	}
	return out
}

func (s *TaskService) Create(ctx context.Context, ownerID uuid.UUID, input CreateTaskInput) (*domain.Task, error) {
	const op = "service.TaskService.Create"

	status := input.Status
	if status == "" {
		status = domain.TaskStatusPending
	}
	priority := input.Priority
	if priority == "" {
		priority = domain.TaskPriorityMedium
	}
	title := strings.TrimSpace(input.Title)

	verr := domain.NewValidationError()
	if title == "" {
		verr.Add("title", "Title must not be empty")
	}
	if !status.IsValid() {
		verr.Add("status", "Invalid status")
	}
	if !priority.IsValid() {
		verr.Add("priority", "Invalid priority")
	}
	if verr.HasErrors() {
		return nil, verr
	}

	now := time.Now().UTC()
	task := &domain.Task{
		ID:          uuid.New(),
		Title:       title,
		Description: input.Description,
		Status:      status,
		Priority:    priority,
		DueDate:     input.DueDate,
		Tags:        normalizeTags(input.Tags),
		UserID:      ownerID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.taskRepo.Create(ctx, task); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.log.Debug("task created", slog.String("task_id", task.ID.String()), slog.String("user_id", ownerID.String()))
	s.notifier.NotifyTask(ownerID, domain.TaskEventCreated, task)
	return task, nil
}

func (s *TaskService) Get(ctx context.Context, ownerID, id uuid.UUID) (*domain.Task, error) {
	return s.taskRepo.GetByIDForUser(ctx, id, ownerID)
}

func (s *TaskService) List(ctx context.Context, ownerID uuid.UUID, filter domain.TaskFilter) ([]*domain.Task, error) {
	if filter.Tag != "" {
		filter.Tag = strings.ToLower(strings.TrimSpace(filter.Tag))
	}
	return s.taskRepo.ListByUser(ctx, ownerID, filter)
}

// Update applies the non-nil fields. The owner is taken from the caller and
// never from the input.
func (s *TaskService) Update(ctx context.Context, ownerID, id uuid.UUID, input UpdateTaskInput) (*domain.Task, error) {
	task, err := s.taskRepo.GetByIDForUser(ctx, id, ownerID)
	if err != nil {
		return nil, err
	}

	verr := domain.NewValidationError()
	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		if title == "" {
			verr.Add("title", "Title must not be empty")
		}
		task.Title = title
	}
	if input.Description != nil {
		task.Description = *input.Description
	}
	if input.Status != nil {
		if !input.Status.IsValid() {
			verr.Add("status", "Invalid status")
		}
		task.Status = *input.Status
	}
	if input.Priority != nil {
		if !input.Priority.IsValid() {
			verr.Add("priority", "Invalid priority")
		}
		task.Priority = *input.Priority
	}
	if input.DueDate != nil {
		task.DueDate = input.DueDate
	}
	if input.Tags != nil {
		task.Tags = normalizeTags(*input.Tags)
	}
	if verr.HasErrors() {
		return nil, verr
	}

	return s.save(ctx, ownerID, task)
}

func (s *TaskService) UpdateStatus(ctx context.Context, ownerID, id uuid.UUID, status domain.TaskStatus) (*domain.Task, error) {
	if !status.IsValid() {
		verr := domain.NewValidationError()
		verr.Add("status", "Invalid status")
		return nil, verr
	}

	task, err := s.taskRepo.GetByIDForUser(ctx, id, ownerID)
	if err != nil {
		return nil, err
	}

	task.Status = status
	return s.save(ctx, ownerID, task)
}

func (s *TaskService) save(ctx context.Context, ownerID uuid.UUID, task *domain.Task) (*domain.Task, error) {
	task.UserID = ownerID
	if err := s.taskRepo.Update(ctx, task); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("service.TaskService.Update: %w", err)
	}

	s.notifier.NotifyTask(ownerID, domain.TaskEventUpdated, task)
	return task, nil
}

func (s *TaskService) Delete(ctx context.Context, ownerID, id uuid.UUID) error {
	task, err := s.taskRepo.GetByIDForUser(ctx, id, ownerID)
	if err != nil {
		return err
	}

	if err := s.taskRepo.DeleteForUser(ctx, id, ownerID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return err
		}
		s.log.Error("failed to delete task", slog.String("task_id", id.String()), logging.Err(err))
		return fmt.Errorf("service.TaskService.Delete: %w", err)
	}

	s.notifier.NotifyTask(ownerID, domain.TaskEventDeleted, task)
	return nil
}
