package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/dom/task-manager-api/internal/domain"
	"github.com/google/uuid"
)

const bearerScheme = "Bearer"

// UserLookup is the slice of the user store the resolver needs.
type UserLookup interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
}

// Resolver turns an Authorization header into a user.
type Resolver struct {
	codec *TokenCodec
	users UserLookup
}

func NewResolver(codec *TokenCodec, users UserLookup) *Resolver {
	return &Resolver{codec: codec, users: users}
}

// Resolve returns the user behind an access token. Every expected rejection
// wraps ErrUnauthenticated; any other error comes from the user store.
func (r *Resolver) Resolve(ctx context.Context, authHeader string) (*domain.User, error) {
	token, err := ExtractBearerToken(authHeader)
	if err != nil {
		return nil, err
	}

	claims, err := r.codec.Decode(token)
	if err != nil {
		return nil, err
	}

	if claims.Type != TokenTypeAccess {
		return nil, ErrWrongTokenType
	}

	userID, err := claims.UserID()
	if err != nil {
		return nil, ErrTokenMalformed
	}

	user, err := r.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, ErrUnknownSubject
		}
		return nil, fmt.Errorf("lookup user %s: %w", userID, err)
	}

	return user, nil
}

// ExtractBearerToken requires exactly "Bearer <token>".
func ExtractBearerToken(authHeader string) (string, error) {
	if authHeader == "" {
		return "", ErrMissingCredentials
	}

	scheme, token, ok := strings.Cut(authHeader, " ")
	if !ok || scheme != bearerScheme || token == "" || strings.ContainsAny(token, " \t") {
		return "", ErrMalformedHeader
	}

	return token, nil
}
