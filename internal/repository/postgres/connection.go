package postgres

import (
	"context"
	"errors"

	"github.com/dom/task-manager-api/internal/domain"
	"github.com/dom/task-manager-api/internal/repository"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const (
	uniqueViolation     = "23505"
	foreignKeyViolation = "23503"
)

func NewConnection(databaseURL string, logLevel logger.LogLevel) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(databaseURL), &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
	})
	if err != nil {
		return nil, err
	}

	if err := Migrate(db); err != nil {
		return nil, err
	}

	return db, nil
}

// Migrate creates or updates the tables.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&domain.User{},
		&domain.Task{},
	)
}

func NewRepositories(db *gorm.DB) *repository.Repositories {
	return &repository.Repositories{
		User:   NewUserRepository(db),
		Task:   NewTaskRepository(db),
		Health: &healthChecker{db: db},
	}
}

type healthChecker struct {
	db *gorm.DB
}

func (h *healthChecker) Ping(ctx context.Context) error {
	sqlDB, err := h.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

func translateError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.ErrNotFound
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case uniqueViolation:
			switch pgErr.ConstraintName {
			case "idx_users_username":
				return domain.ErrUsernameExists
			case "idx_users_email":
				return domain.ErrEmailExists
			}
			return domain.ErrConflict
		case foreignKeyViolation:
			// the owning user vanished between authentication and insert
			return domain.ErrNotFound
		}
	}

	return err
}
