package service

import (
	"log/slog"

	"github.com/dom/task-manager-api/internal/auth"
	"github.com/dom/task-manager-api/internal/config"
	"github.com/dom/task-manager-api/internal/repository"
)

type Services struct {
	Auth     *AuthService
	User     *UserService
	Task     *TaskService
	Resolver *auth.Resolver
}

func NewServices(repos *repository.Repositories, cfg *config.Config, notifier TaskNotifier, log *slog.Logger) *Services {
	codec := auth.NewTokenCodec(cfg.JWTSecret, cfg.AccessTokenTTL, cfg.RefreshTokenTTL)
	hasher := auth.NewHasher(cfg.BcryptCost)

	users := NewUserService(repos.User, hasher, log)

	return &Services{
		Auth:     NewAuthService(users, codec, hasher, log),
		User:     users,
		Task:     NewTaskService(repos.Task, notifier, log),
		Resolver: auth.NewResolver(codec, repos.User),
	}
}
