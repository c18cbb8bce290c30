package auth

import (
	"context"
	"errors"
	"strings"

	"sneakerstore/internal/config"
	"sneakerstore/internal/domain"
)

type userLookup interface {
	GetByID(ctx context.Context, id string) (*domain.User, error)
}

// Authenticator resolves an Authorization header to a stored user.
type Authenticator struct {
	cfg   config.JWTConfig
	users userLookup
}

func NewAuthenticator(cfg config.JWTConfig, users userLookup) *Authenticator {
	return &Authenticator{cfg: cfg, users: users}
}

// Authenticate accepts "Bearer <token>". Every failure is CodeUnauthenticated
// except a failing user lookup, which is internal.
func (a *Authenticator) Authenticate(ctx context.Context, header string) (*domain.User, error) {
	header = strings.TrimSpace(header)
	if header == "" || !strings.HasPrefix(strings.ToLower(header), "bearer") {
		return nil, domain.NewError(domain.CodeUnauthenticated, "Unauthenticated, no token")
	}
	token := strings.TrimSpace(header[len("bearer"):])
	if token == "" {
		return nil, domain.NewError(domain.CodeUnauthenticated, "Unauthenticated, no token")
	}

	claims, err := Parse(a.cfg, token)
	if err != nil {
		return nil, domain.WrapError(domain.CodeUnauthenticated, err, "Invalid or expired token")
	}

	user, err := a.users.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.NewError(domain.CodeUnauthenticated, "User not found")
		}
		return nil, domain.WrapError(domain.CodeInternal, err, "load user")
	}
	return user, nil
}
