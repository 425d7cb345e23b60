package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/dom/task-manager-api/internal/auth"
	"github.com/dom/task-manager-api/internal/domain"
	"github.com/google/uuid"
)

var (
	ErrInvalidCredentials = errors.New("invalid credentials")
)

type AuthService struct {
	users  *UserService
	codec  *auth.TokenCodec
	hasher *auth.Hasher
	log    *slog.Logger
}

func NewAuthService(users *UserService, codec *auth.TokenCodec, hasher *auth.Hasher, log *slog.Logger) *AuthService {
	return &AuthService{
		users:  users,
		codec:  codec,
		hasher: hasher,
		log:    log,
	}
}

type RegisterInput struct {
	Username string
	Email    string
	Password string
}

type LoginInput struct {
	Username string
	Password string
}

type AuthResult struct {
	User         *domain.User
	AccessToken  string
	RefreshToken string
}

func (s *AuthService) Register(ctx context.Context, input RegisterInput) (*AuthResult, error) {
	user, err := s.users.Create(ctx, CreateUserInput{
		Username: input.Username,
		Email:    input.Email,
		Password: input.Password,
	})
	if err != nil {
		return nil, err
	}

	return s.generateTokens(user)
}

// Login answers ErrInvalidCredentials for both an unknown username and a
// wrong password, after the same amount of hashing work.
func (s *AuthService) Login(ctx context.Context, input LoginInput) (*AuthResult, error) {
	user, err := s.users.GetByUsername(ctx, strings.TrimSpace(input.Username))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			s.hasher.VerifyAgainstDummy(input.Password)
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("service.AuthService.Login: %w", err)
	}

	if !s.hasher.Verify(input.Password, user.PasswordHash) {
		s.log.Warn("login rejected", slog.String("user_id", user.ID.String()))
		return nil, ErrInvalidCredentials
	}

	return s.generateTokens(user)
}

func (s *AuthService) generateTokens(user *domain.User) (*AuthResult, error) {
	pair, err := s.codec.IssuePair(user.ID)
	if err != nil {
		return nil, fmt.Errorf("issue tokens: %w", err)
	}

	return &AuthResult{
		User:         user,
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	}, nil
}

func (s *AuthService) GetUserByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	return s.users.GetByID(ctx, id)
}
