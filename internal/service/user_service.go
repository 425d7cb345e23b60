package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/dom/task-manager-api/internal/auth"
	"github.com/dom/task-manager-api/internal/domain"
	"github.com/dom/task-manager-api/internal/logging"
	"github.com/dom/task-manager-api/internal/repository"
	"github.com/google/uuid"
)

type UserService struct {
	userRepo repository.UserRepository
	hasher   *auth.Hasher
	log      *slog.Logger
}

func NewUserService(userRepo repository.UserRepository, hasher *auth.Hasher, log *slog.Logger) *UserService {
	return &UserService{
		userRepo: userRepo,
		hasher:   hasher,
		log:      log,
	}
}

type CreateUserInput struct {
	Username string
	Email    string
	Password string
}

type UpdateUserInput struct {
	Username *string
	Email    *string
	Password *string
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func blankUsername() error {
	verr := domain.NewValidationError()
	verr.Add("username", "Username must not be blank")
	return verr
}

// hashPassword reports an over-long password as a field error so callers
// that skipped request validation still get a 400.
func (s *UserService) hashPassword(op, password string) (string, error) {
	hash, err := s.hasher.Hash(password)
	if errors.Is(err, auth.ErrPasswordTooLong) {
		verr := domain.NewValidationError()
		verr.Add("password", fmt.Sprintf("Must be at most %d bytes long.", auth.MaxPasswordBytes))
		return "", verr
	}
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	return hash, nil
}

// Create checks uniqueness up front for a precise error; the store's unique
// indexes still catch concurrent registrations.
func (s *UserService) Create(ctx context.Context, input CreateUserInput) (*domain.User, error) {
	const op = "service.UserService.Create"

	username := strings.TrimSpace(input.Username)
	email := normalizeEmail(input.Email)
	if username == "" {
		return nil, blankUsername()
	}

	if err := s.ensureAvailable(ctx, uuid.Nil, username, email); err != nil {
		return nil, err
	}

	hash, err := s.hashPassword(op, input.Password)
	if err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	user := &domain.User{
		ID:           uuid.New(),
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, domain.ErrConflict) {
			return nil, err
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("user created", slog.Any("user", user))
	return user, nil
}

func (s *UserService) ensureAvailable(ctx context.Context, self uuid.UUID, username, email string) error {
	if username != "" {
		existing, err := s.userRepo.GetByUsername(ctx, username)
		switch {
		case err == nil && existing.ID != self:
			return domain.ErrUsernameExists
		case err != nil && !errors.Is(err, domain.ErrNotFound):
			return fmt.Errorf("lookup username: %w", err)
		}
	}

	if email != "" {
		existing, err := s.userRepo.GetByEmail(ctx, email)
		switch {
		case err == nil && existing.ID != self:
			return domain.ErrEmailExists
		case err != nil && !errors.Is(err, domain.ErrNotFound):
			return fmt.Errorf("lookup email: %w", err)
		}
	}

	return nil
}

func (s *UserService) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	return s.userRepo.GetByID(ctx, id)
}

func (s *UserService) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	return s.userRepo.GetByUsername(ctx, username)
}

func (s *UserService) List(ctx context.Context) ([]*domain.User, error) {
	return s.userRepo.List(ctx)
}

// Update changes the caller's own account. Any other target id reads as
// not found.
func (s *UserService) Update(ctx context.Context, callerID, id uuid.UUID, input UpdateUserInput) (*domain.User, error) {
	const op = "service.UserService.Update"

	if callerID != id {
		return nil, domain.ErrNotFound
	}

	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	var username, email string
	if input.Username != nil {
		username = strings.TrimSpace(*input.Username)
		if username == "" {
			return nil, blankUsername()
		}
	}
	if input.Email != nil {
		email = normalizeEmail(*input.Email)
	}
	if err := s.ensureAvailable(ctx, user.ID, username, email); err != nil {
		return nil, err
	}

	if username != "" {
		user.Username = username
	}
	if email != "" {
		user.Email = email
	}
	if input.Password != nil {
		hash, err := s.hashPassword(op, *input.Password)
		if err != nil {
			return nil, err
		}
		user.PasswordHash = hash
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		if errors.Is(err, domain.ErrConflict) || errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return user, nil
}

// Delete removes the caller's own account together with its tasks.
func (s *UserService) Delete(ctx context.Context, callerID, id uuid.UUID) error {
	if callerID != id {
		return domain.ErrNotFound
	}

	if err := s.userRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return err
		}
		s.log.Error("failed to delete user", slog.String("user_id", id.String()), logging.Err(err))
		return fmt.Errorf("service.UserService.Delete: %w", err)
	}

	s.log.Info("user deleted", slog.String("user_id", id.String()))
	return nil
}
