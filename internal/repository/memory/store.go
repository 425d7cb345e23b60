// Package memory is an in-process implementation of the repository
// interfaces, used for STORAGE=memory and hermetic tests.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/dom/task-manager-api/internal/domain"
	"github.com/dom/task-manager-api/internal/repository"
	"github.com/google/uuid"
)

// Store holds users and tasks behind one lock so that deleting a user
// cascades to their tasks atomically. Reads hand out copies.
type Store struct {
	mu    sync.RWMutex
	users map[uuid.UUID]*domain.User
	tasks map[uuid.UUID]*domain.Task
	now   func() time.Time
}

func NewStore() *Store {
	return &Store{
		users: make(map[uuid.UUID]*domain.User),
		tasks: make(map[uuid.UUID]*domain.Task),
		now:   time.Now,
	}
}

func NewRepositories(store *Store) *repository.Repositories {
	return &repository.Repositories{
		User:   &userRepository{store: store},
		Task:   &taskRepository{store: store},
		Health: store,
	}
}

func (s *Store) Ping(ctx context.Context) error {
	return ctx.Err()
}

// Reset drops all data.
func (s *Store) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users = make(map[uuid.UUID]*domain.User)
	s.tasks = make(map[uuid.UUID]*domain.Task)
}

func copyUser(u *domain.User) *domain.User {
	c := *u
	c.Tasks = nil
	return &c
}

func copyTask(t *domain.Task) *domain.Task {
	c := *t
	if t.DueDate != nil {
		due := *t.DueDate
		c.DueDate = &due
	}
	if t.Tags != nil {
		c.Tags = append([]string(nil), t.Tags...)
	}
	return &c
}

type userRepository struct {
	store *Store
}

func (r *userRepository) Create(ctx context.Context, user *domain.User) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.checkUniqueLocked(user); err != nil {
		return err
	}

	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	now := s.now()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	if user.UpdatedAt.IsZero() {
		user.UpdatedAt = now
	}

	s.users[user.ID] = copyUser(user)
	return nil
}

func (s *Store) checkUniqueLocked(user *domain.User) error {
	for id, existing := range s.users {
		if id == user.ID {
			continue
		}
		if existing.Username == user.Username {
			return domain.ErrUsernameExists
		}
		if existing.Email == user.Email {
			return domain.ErrEmailExists
		}
	}
	return nil
}

func (r *userRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	user, ok := r.store.users[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return copyUser(user), nil
}

func (r *userRepository) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	for _, user := range r.store.users {
		if user.Username == username {
			return copyUser(user), nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	for _, user := range r.store.users {
		if user.Email == email {
			return copyUser(user), nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *userRepository) List(ctx context.Context) ([]*domain.User, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	users := make([]*domain.User, 0, len(r.store.users))
	for _, user := range r.store.users {
		users = append(users, copyUser(user))
	}
	sort.Slice(users, func(i, j int) bool {
		return users[i].CreatedAt.Before(users[j].CreatedAt)
	})
	return users, nil
}

func (r *userRepository) Update(ctx context.Context, user *domain.User) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[user.ID]; !ok {
		return domain.ErrNotFound
	}
	if err := s.checkUniqueLocked(user); err != nil {
		return err
	}

	user.UpdatedAt = s.now()
	s.users[user.ID] = copyUser(user)
	return nil
}

func (r *userRepository) Delete(ctx context.Context, id uuid.UUID) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[id]; !ok {
		return domain.ErrNotFound
	}
	delete(s.users, id)

	for taskID, task := range s.tasks {
		if task.UserID == id {
			delete(s.tasks, taskID)
		}
	}
	return nil
}

type taskRepository struct {
	store *Store
}

func (r *taskRepository) Create(ctx context.Context, task *domain.Task) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.users[task.UserID]; !ok {
		return domain.ErrNotFound
	}

	if task.ID == uuid.Nil {
		task.ID = uuid.New()
	}
	now := s.now()
	if task.CreatedAt.IsZero() {
		task.CreatedAt = now
	}
	task.UpdatedAt = now

	s.tasks[task.ID] = copyTask(task)
	return nil
}

func (r *taskRepository) GetByIDForUser(ctx context.Context, id, userID uuid.UUID) (*domain.Task, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	task, ok := r.store.tasks[id]
	if !ok || task.UserID != userID {
		return nil, domain.ErrNotFound
	}
	return copyTask(task), nil
}

func (r *taskRepository) ListByUser(ctx context.Context, userID uuid.UUID, filter domain.TaskFilter) ([]*domain.Task, error) {
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()

	tasks := make([]*domain.Task, 0)
	for _, task := range r.store.tasks {
		if task.UserID == userID && filter.Matches(task) {
			tasks = append(tasks, copyTask(task))
		}
	}
	sort.Slice(tasks, func(i, j int) bool {
		return tasks[i].CreatedAt.After(tasks[j].CreatedAt)
	})
	return tasks, nil
}

// Update refuses to move a task to another owner: the stored owner must
// match the one on the incoming task.
func (r *taskRepository) Update(ctx context.Context, task *domain.Task) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.tasks[task.ID]
	if !ok || existing.UserID != task.UserID {
		return domain.ErrNotFound
	}

	task.CreatedAt = existing.CreatedAt
	task.UpdatedAt = s.now()
	s.tasks[task.ID] = copyTask(task)
	return nil
}

func (r *taskRepository) DeleteForUser(ctx context.Context, id, userID uuid.UUID) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	task, ok := s.tasks[id]
	if !ok || task.UserID != userID {
		return domain.ErrNotFound
	}
	delete(s.tasks, id)
	return nil
}
