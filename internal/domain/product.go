package domain

import (
	"slices"
	"time"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

type Product struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Brand     string          `json:"brand"`
	Price     decimal.Decimal `json:"price"`
	Colors    []string        `json:"color"`
	Sizes     []float64       `json:"size"`
	CreatedAt time.Time       `json:"createdAt"`
}

func (p Product) HasColor(color string) bool {
	return slices.Contains(p.Colors, color)
}

// MissingSizes returns the members of sizes that the product does not offer.
func (p Product) MissingSizes(sizes []float64) []float64 {
	return lo.Filter(sizes, func(s float64, _ int) bool {
		return !slices.Contains(p.Sizes, s)
	})
}

// WithoutSizes returns the product's sizes minus sold, preserving order.
// Sizes in sold that are not offered are ignored.
func (p Product) WithoutSizes(sold []float64) []float64 {
	return lo.Filter(p.Sizes, func(s float64, _ int) bool {
		return !slices.Contains(sold, s)
	})
}
