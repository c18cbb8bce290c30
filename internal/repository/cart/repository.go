package cart

import (
	"context"

	"sneakerstore/internal/domain"
)

// Repository stores one cart document per user. Every method is a single
// statement so concurrent writers never overwrite each other's lines.
type Repository interface {
	GetByUser(ctx context.Context, userID string) (*domain.Cart, error)
	// AppendLineItem creates the cart on first use. An empty item ID is
	// replaced with a generated one.
	AppendLineItem(ctx context.Context, userID string, item domain.CartLineItem) (*domain.Cart, error)
	RemoveLineItem(ctx context.Context, userID, lineItemID string) (*domain.Cart, error)
	ClearLineItems(ctx context.Context, userID string) error
}
