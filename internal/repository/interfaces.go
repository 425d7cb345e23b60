package repository

import (
	"context"

	"github.com/dom/task-manager-api/internal/domain"
	"github.com/google/uuid"
)

// Implementations return domain.ErrNotFound for missing rows and
// domain.ErrUsernameExists / domain.ErrEmailExists on unique violations.

type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	List(ctx context.Context) ([]*domain.User, error)
	Update(ctx context.Context, user *domain.User) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// TaskRepository scopes every read and write to an owner.
type TaskRepository interface {
	Create(ctx context.Context, task *domain.Task) error
	GetByIDForUser(ctx context.Context, id, userID uuid.UUID) (*domain.Task, error)
	ListByUser(ctx context.Context, userID uuid.UUID, filter domain.TaskFilter) ([]*domain.Task, error)
	Update(ctx context.Context, task *domain.Task) error
	DeleteForUser(ctx context.Context, id, userID uuid.UUID) error
}

type HealthChecker interface {
	Ping(ctx context.Context) error
}

type Repositories struct {
	User   UserRepository
	Task   TaskRepository
	Health HealthChecker
}
