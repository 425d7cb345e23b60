package testutil

import (
	"context"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/dom/task-manager-api/internal/domain"
	"github.com/dom/task-manager-api/internal/repository"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// UserBuilder creates test users with a builder pattern
type UserBuilder struct {
	username string
	email    string
	password string
}

// NewUserBuilder creates a new UserBuilder with default values
func NewUserBuilder() *UserBuilder {
	suffix := uuid.New().String()[:8]
	return &UserBuilder{
		username: fmt.Sprintf("testuser_%s", suffix),
		email:    fmt.Sprintf("testuser_%s@example.com", suffix),
		password: "testpassword123",
	}
}

func (b *UserBuilder) WithUsername(username string) *UserBuilder {
	b.username = username
	return b
}

func (b *UserBuilder) WithEmail(email string) *UserBuilder {
	b.email = email
	return b
}

// WithPassword sets the password
func (b *UserBuilder) WithPassword(password string) *UserBuilder {
	b.password = password
	return b
}

// Build stores the user directly through the repository and returns it with
// the raw password.
func (b *UserBuilder) Build(t *testing.T, users repository.UserRepository) (*domain.User, string) {
	t.Helper()

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(b.password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	now := time.Now().UTC()
	user := &domain.User{
		ID:           uuid.New(),
		Username:     b.username,
		Email:        b.email,
		PasswordHash: string(hashedPassword),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := users.Create(context.Background(), user); err != nil {
		t.Fatalf("failed to create user: %v", err)
	}

	return user, b.password
}

// AuthResponse matches the API auth response
type AuthResponse struct {
	Message      string `json:"message"`
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	User         struct {
		ID       string `json:"id"`
		Username string `json:"username"`
		Email    string `json:"email"`
	} `json:"user"`
}

// BuildAndAuthenticate registers the user through the API and returns it
// with its access token.
func (b *UserBuilder) BuildAndAuthenticate(t *testing.T, ts *TestServer) (*domain.User, string) {
	t.Helper()

	resp := ts.Do(t, http.MethodPost, ts.APIURL("/auth/register"), "", map[string]string{
		"username": b.username,
		"email":    b.email,
		"password": b.password,
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("unexpected status code registering %s: %d", b.username, resp.StatusCode)
	}

	var authResp AuthResponse
	AssertJSONResponse(t, resp, &authResp)

	userID, err := uuid.Parse(authResp.User.ID)
	if err != nil {
		t.Fatalf("register returned a malformed user id %q", authResp.User.ID)
	}

	user := &domain.User{
		ID:       userID,
		Username: authResp.User.Username,
		Email:    authResp.User.Email,
	}

	return user, authResp.AccessToken
}

// TaskBuilder creates test tasks with a builder pattern
type TaskBuilder struct {
	owner    *domain.User
	title    string
	status   domain.TaskStatus
	priority domain.TaskPriority
	tags     []string
	dueDate  *time.Time
}

func NewTaskBuilder() *TaskBuilder {
	return &TaskBuilder{
		title:    fmt.Sprintf("task %s", uuid.New().String()[:8]),
		status:   domain.TaskStatusPending,
		priority: domain.TaskPriorityMedium,
	}
}

func (b *TaskBuilder) WithOwner(user *domain.User) *TaskBuilder {
	b.owner = user
	return b
}

func (b *TaskBuilder) WithTitle(title string) *TaskBuilder {
	b.title = title
	return b
}

func (b *TaskBuilder) WithStatus(status domain.TaskStatus) *TaskBuilder {
	b.status = status
	return b
}

func (b *TaskBuilder) WithPriority(priority domain.TaskPriority) *TaskBuilder {
	b.priority = priority
	return b
}

func (b *TaskBuilder) WithTags(tags ...string) *TaskBuilder {
	b.tags = tags
	return b
}

func (b *TaskBuilder) WithDueDate(due time.Time) *TaskBuilder {
	b.dueDate = &due
	return b
}

// Build stores the task through the repositories, creating an owner first
// when none was given.
func (b *TaskBuilder) Build(t *testing.T, repos *repository.Repositories) *domain.Task {
	t.Helper()

	if b.owner == nil {
		owner, _ := NewUserBuilder().Build(t, repos.User)
		b.owner = owner
	}

	now := time.Now().UTC()
	task := &domain.Task{
		ID:        uuid.New(),
		Title:     b.title,
		Status:    b.status,
		Priority:  b.priority,
		DueDate:   b.dueDate,
		Tags:      b.tags,
		UserID:    b.owner.ID,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := repos.Task.Create(context.Background(), task); err != nil {
		t.Fatalf("failed to create task: %v", err)
	}

	return task
}
