package auth

import (
	"errors"
	"fmt"
)

// ErrUnauthenticated is the single outcome callers act on. The wrapped
// reasons below exist for logging only.
var ErrUnauthenticated = errors.New("unauthenticated")

var (
	ErrMissingCredentials = fmt.Errorf("%w: missing authorization header", ErrUnauthenticated)
	ErrMalformedHeader    = fmt.Errorf("%w: malformed authorization header", ErrUnauthenticated)
	ErrTokenExpired       = fmt.Errorf("%w: token expired", ErrUnauthenticated)
	ErrTokenMalformed     = fmt.Errorf("%w: token malformed", ErrUnauthenticated)
	ErrSignatureInvalid   = fmt.Errorf("%w: token signature invalid", ErrUnauthenticated)
	ErrWrongTokenType     = fmt.Errorf("%w: wrong token type", ErrUnauthenticated)
	ErrUnknownSubject     = fmt.Errorf("%w: token subject does not exist", ErrUnauthenticated)
)
