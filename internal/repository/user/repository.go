package user

import (
	"context"

	"sneakerstore/internal/domain"
)

type Repository interface {
	GetByID(ctx context.Context, id string) (*domain.User, error)
	// AppendTopPicks appends brands to the user's top picks as-is.
	AppendTopPicks(ctx context.Context, id string, brands []string) error
	// Upsert matches on email.
	Upsert(ctx context.Context, user domain.User) (*domain.User, error)
}
