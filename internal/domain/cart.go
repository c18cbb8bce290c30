package domain

import (
	"encoding/json"
	"time"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

// CartLineItem is one entry of a user's cart. IsCustomSize is derived from
// Size so the two can never disagree.
type CartLineItem struct {
	ID           string
	ProductID    string
	Size         SizeSpec
	Color        string
	ProductPrice decimal.Decimal
}

func (i CartLineItem) IsCustomSize() bool {
	return i.Size.IsCustom()
}

// Snapshot copies the item into an order line that shares no memory with
// the cart.
func (i CartLineItem) Snapshot() OrderLineItem {
	return OrderLineItem{
		ProductID:    i.ProductID,
		Size:         i.Size.Clone(),
		Color:        i.Color,
		ProductPrice: i.ProductPrice,
	}
}

type lineItemJSON struct {
	ID           string          `json:"id,omitempty"`
	ProductID    string          `json:"productId"`
	Size         SizeSpec        `json:"size"`
	Color        string          `json:"color"`
	ProductPrice decimal.Decimal `json:"productPrice"`
	IsCustomSize bool            `json:"isCustomSize"`
}

func (i CartLineItem) MarshalJSON() ([]byte, error) {
	return json.Marshal(lineItemJSON{
		ID:           i.ID,
		ProductID:    i.ProductID,
		Size:         i.Size,
		Color:        i.Color,
		ProductPrice: i.ProductPrice,
		IsCustomSize: i.Size.IsCustom(),
	})
}

func (i *CartLineItem) UnmarshalJSON(data []byte) error {
	var raw lineItemJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*i = CartLineItem{
		ID:           raw.ID,
		ProductID:    raw.ProductID,
		Size:         raw.Size,
		Color:        raw.Color,
		ProductPrice: raw.ProductPrice,
	}
	return nil
}

// Cart is the single cart owned by a user.
type Cart struct {
	UserID    string         `json:"userId"`
	LineItems []CartLineItem `json:"cartProducts"`
	UpdatedAt time.Time      `json:"updatedAt"`
}

func (c Cart) IsEmpty() bool {
	return len(c.LineItems) == 0
}

// HasCustomSize reports whether a custom-size line already exists for the
// product in the given color.
func (c Cart) HasCustomSize(productID, color string) bool {
	return lo.SomeBy(c.LineItems, func(item CartLineItem) bool {
		return item.ProductID == productID && item.Color == color && item.IsCustomSize()
	})
}

// RegularSizesFor collects every regular size already in the cart for the
// product in the given color.
func (c Cart) RegularSizesFor(productID, color string) []float64 {
	var sizes []float64
	for _, item := range c.LineItems {
		if item.ProductID != productID || item.Color != color || item.IsCustomSize() {
			continue
		}
		sizes = append(sizes, item.Size.Regular()...)
	}
	return sizes
}

// Snapshot returns frozen copies of every line item.
func (c Cart) Snapshot() []OrderLineItem {
	return lo.Map(c.LineItems, func(item CartLineItem, _ int) OrderLineItem {
		return item.Snapshot()
	})
}

// ProductIDs lists each referenced product once, in first-seen order.
func (c Cart) ProductIDs() []string {
	return lo.Uniq(lo.Map(c.LineItems, func(item CartLineItem, _ int) string {
		return item.ProductID
	}))
}
