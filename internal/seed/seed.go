package seed

import (
	"context"
	"fmt"

	"github.com/shopspring/decimal"

	"sneakerstore/internal/domain"
)

type ProductWriter interface {
	Upsert(ctx context.Context, product domain.Product) (*domain.Product, error)
}

type UserWriter interface {
	Upsert(ctx context.Context, user domain.User) (*domain.User, error)
}

// Result lists the users Apply ensured exist.
type Result struct {
	Admin    domain.User
	Shopper  domain.User
	Products int
}

const (
	AdminEmail   = "admin@sneakerstore.local"
	ShopperEmail = "shopper@sneakerstore.local"
)

// Products use fixed ids so reseeding updates rather than duplicates.
var products = []domain.Product{
	{
		ID:     "6f1c2a4e-0b7d-4c1e-9a51-2f3d8e9b1a01",
		Name:   "Air Runner",
		Brand:  "Nike",
		Price:  decimal.RequireFromString("120.00"),
		Colors: []string{"black", "white"},
		Sizes:  []float64{7, 7.5, 8, 8.5, 9, 9.5, 10, 11},
	},
	{
		ID:     "6f1c2a4e-0b7d-4c1e-9a51-2f3d8e9b1a02",
		Name:   "Court Classic",
		Brand:  "Adidas",
		Price:  decimal.RequireFromString("95.50"),
		Colors: []string{"white", "green"},
		Sizes:  []float64{8, 9, 10},
	},
	{
		ID:     "6f1c2a4e-0b7d-4c1e-9a51-2f3d8e9b1a03",
		Name:   "Trail Pro",
		Brand:  "Salomon",
		Price:  decimal.RequireFromString("150.00"),
		Colors: []string{"red"},
		Sizes:  []float64{9, 10, 11, 12},
	},
}

// Apply inserts demo data for manual testing. It is idempotent.
func Apply(ctx context.Context, productRepo ProductWriter, userRepo UserWriter) (Result, error) {
	var res Result
	for _, p := range products {
		p.Colors = append([]string(nil), p.Colors...)
		p.Sizes = append([]float64(nil), p.Sizes...)
		if _, err := productRepo.Upsert(ctx, p); err != nil {
			return res, fmt.Errorf("upsert product %s: %w", p.Name, err)
		}
		res.Products++
	}

	admin, err := userRepo.Upsert(ctx, domain.User{Email: AdminEmail, IsAdmin: true})
	if err != nil {
		return res, fmt.Errorf("upsert admin: %w", err)
	}
	shopper, err := userRepo.Upsert(ctx, domain.User{Email: ShopperEmail})
	if err != nil {
		return res, fmt.Errorf("upsert shopper: %w", err)
	}
	res.Admin, res.Shopper = *admin, *shopper
	return res, nil
}
