package product

import (
	"context"

	"sneakerstore/internal/domain"
)

type Repository interface {
	List(ctx context.Context) ([]domain.Product, error)
	GetByID(ctx context.Context, id string) (*domain.Product, error)
	GetByIDs(ctx context.Context, ids []string) ([]domain.Product, error)
	// DecrementSizes removes every listed size from the product's available
	// sizes and returns the updated product. Sizes the product does not carry
	// are ignored.
	DecrementSizes(ctx context.Context, id string, sizes []float64) (*domain.Product, error)
	Upsert(ctx context.Context, product domain.Product) (*domain.Product, error)
}
