package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type TaskStatus string

const (
	TaskStatusPending    TaskStatus = "pending"
	TaskStatusInProgress TaskStatus = "in_progress"
	TaskStatusCompleted  TaskStatus = "completed"
)

func (s TaskStatus) IsValid() bool {
	switch s {
	case TaskStatusPending, TaskStatusInProgress, TaskStatusCompleted:
		return true
	}
	return false
}

type TaskPriority string

const (
	TaskPriorityLow    TaskPriority = "low"
	TaskPriorityMedium TaskPriority = "medium"
	TaskPriorityHigh   TaskPriority = "high"
)

func (p TaskPriority) IsValid() bool {
	switch p {
	case TaskPriorityLow, TaskPriorityMedium, TaskPriorityHigh:
		return true
	}
	return false
}

type Task struct {
	ID          uuid.UUID                   `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	Title       string                      `json:"title" gorm:"size:200;not null"`
	Description string                      `json:"description"`
	Status      TaskStatus                  `json:"status" gorm:"type:varchar(20);not null;default:'pending';index"`
	Priority    TaskPriority                `json:"priority" gorm:"type:varchar(20);not null;default:'medium'"`
	DueDate     *time.Time                  `json:"due_date"`
	Tags        datatypes.JSONSlice[string] `json:"tags" gorm:"type:jsonb"`
	UserID      uuid.UUID                   `json:"user_id" gorm:"type:uuid;not null;index"`
	CreatedAt   time.Time                   `json:"created_at"`
	UpdatedAt   time.Time                   `json:"updated_at"`
}

// HasTag reports whether the task carries the given label.
func (t *Task) HasTag(tag string) bool {
	for _, existing := range t.Tags {
		if existing == tag {
			return true
		}
	}
	return false
}

// TaskFilter narrows a task listing. Zero values mean no filtering.
type TaskFilter struct {
	Status   TaskStatus
	Priority TaskPriority
	Tag      string
}

// Matches applies the filter to a single task.
func (f TaskFilter) Matches(t *Task) bool {
	if f.Status != "" && t.Status != f.Status {
		return false
	}
	if f.Priority != "" && t.Priority != f.Priority {
		return false
	}
	if f.Tag != "" && !t.HasTag(f.Tag) {
		return false
	}
	return true
}

type TaskEventType string

const (
	TaskEventCreated TaskEventType = "TASK_CREATED"
	TaskEventUpdated TaskEventType = "TASK_UPDATED"
	TaskEventDeleted TaskEventType = "TASK_DELETED"
)
