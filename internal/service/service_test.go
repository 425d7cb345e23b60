package service

import (
	"sync"
	"testing"
	"time"

	"github.com/dom/task-manager-api/internal/config"
	"github.com/dom/task-manager-api/internal/domain"
	"github.com/dom/task-manager-api/internal/logging"
	"github.com/dom/task-manager-api/internal/repository"
	"github.com/dom/task-manager-api/internal/repository/memory"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

type recordedEvent struct {
	userID uuid.UUID
	event  domain.TaskEventType
	taskID uuid.UUID
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (n *recordingNotifier) NotifyTask(userID uuid.UUID, event domain.TaskEventType, task *domain.Task) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, recordedEvent{userID: userID, event: event, taskID: task.ID})
}

func (n *recordingNotifier) Events() []recordedEvent {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]recordedEvent(nil), n.events...)
}

func testServices(t *testing.T) (*Services, *repository.Repositories, *recordingNotifier) {
	t.Helper()

	cfg := &config.Config{
		JWTSecret:       "service-test-secret",
		AccessTokenTTL:  time.Hour,
		RefreshTokenTTL: 24 * time.Hour,
		BcryptCost:      bcrypt.MinCost,
		Storage:         config.StorageMemory,
	}

	repos := memory.NewRepositories(memory.NewStore())
	notifier := &recordingNotifier{}
	return NewServices(repos, cfg, notifier, logging.Discard()), repos, notifier
}

func strPtr(s string) *string { return &s }
