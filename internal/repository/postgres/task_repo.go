package postgres

import (
	"context"

	"github.com/dom/task-manager-api/internal/domain"
	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type taskRepository struct {
	db *gorm.DB
}

func NewTaskRepository(db *gorm.DB) *taskRepository {
	return &taskRepository{db: db}
}

func (r *taskRepository) Create(ctx context.Context, task *domain.Task) error {
	return translateError(r.db.WithContext(ctx).Create(task).Error)
}

func (r *taskRepository) GetByIDForUser(ctx context.Context, id, userID uuid.UUID) (*domain.Task, error) {
	var task domain.Task
	err := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&task).Error
	if err != nil {
		return nil, translateError(err)
	}
	return &task, nil
}

func (r *taskRepository) ListByUser(ctx context.Context, userID uuid.UUID, filter domain.TaskFilter) ([]*domain.Task, error) {
	query := r.db.WithContext(ctx).Where("user_id = ?", userID)

	if filter.Status != "" {
		query = query.Where("status = ?", filter.Status)
	}
	if filter.Priority != "" {
		query = query.Where("priority = ?", filter.Priority)
	}
	if filter.Tag != "" {
		query = query.Where(datatypes.JSONArrayQuery("tags").Contains(filter.Tag))
	}

	tasks := make([]*domain.Task, 0)
	if err := query.Order("created_at DESC").Find(&tasks).Error; err != nil {
		return nil, translateError(err)
	}
	return tasks, nil
}

// Update matches on both id and owner so a task can never change hands.
func (r *taskRepository) Update(ctx context.Context, task *domain.Task) error {
	result := r.db.WithContext(ctx).
		Model(task).
		Where("user_id = ?", task.UserID).
		Select("title", "description", "status", "priority", "due_date", "tags", "updated_at").
		Updates(task)
	if result.Error != nil {
		return translateError(result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *taskRepository) DeleteForUser(ctx context.Context, id, userID uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&domain.Task{}, "id = ? AND user_id = ?", id, userID)
	if result.Error != nil {
		return translateError(result.Error)
	}
	if result.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}
