package middleware

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/dom/task-manager-api/internal/auth"
	"github.com/dom/task-manager-api/internal/domain"
	"github.com/dom/task-manager-api/internal/logging"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/render"
)

type contextKey string

const (
	UserKey contextKey = "user"
)

// IdentityResolver turns an Authorization header into a user.
type IdentityResolver interface {
	Resolve(ctx context.Context, header string) (*domain.User, error)
}

type errorBody struct {
	Error string `json:"error"`
}

// Auth rejects requests without a valid access token using one uniform 401
// body. The precise reason only reaches the log.
func Auth(resolver IdentityResolver, log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, err := resolver.Resolve(r.Context(), r.Header.Get("Authorization"))
			if err != nil {
				if errors.Is(err, auth.ErrUnauthenticated) {
					log.Debug("request rejected",
						slog.String("request_id", chiMiddleware.GetReqID(r.Context())),
						slog.String("path", r.URL.Path),
						slog.String("reason", err.Error()),
					)
					render.Status(r, http.StatusUnauthorized)
					render.JSON(w, r, errorBody{Error: "Authentication required"})
					return
				}

				log.Error("identity lookup failed",
					slog.String("request_id", chiMiddleware.GetReqID(r.Context())),
					logging.Err(err),
				)
				render.Status(r, http.StatusInternalServerError)
				render.JSON(w, r, errorBody{Error: "Internal server error"})
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
		})
	}
}

func WithUser(ctx context.Context, user *domain.User) context.Context {
	return context.WithValue(ctx, UserKey, user)
}

// CurrentUser returns the identity stored by Auth.
func CurrentUser(ctx context.Context) (*domain.User, bool) {
	user, ok := ctx.Value(UserKey).(*domain.User)
	return user, ok && user != nil
}
