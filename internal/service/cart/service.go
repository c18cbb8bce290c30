package cart

import (
	"context"
	"errors"
	"slices"
	"strconv"
	"strings"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"sneakerstore/internal/domain"
	"sneakerstore/internal/metrics"
)

type Service struct {
	repo        cartRepo
	productRepo productRepo
	metrics     *metrics.Shop
}

type cartRepo interface {
	GetByUser(ctx context.Context, userID string) (*domain.Cart, error)
	AppendLineItem(ctx context.Context, userID string, item domain.CartLineItem) (*domain.Cart, error)
	RemoveLineItem(ctx context.Context, userID, lineItemID string) (*domain.Cart, error)
}

type productRepo interface {
	GetByID(ctx context.Context, id string) (*domain.Product, error)
}

func New(repo cartRepo, productRepo productRepo, m *metrics.Shop) *Service {
	return &Service{repo: repo, productRepo: productRepo, metrics: m}
}

// AddInput is an add-to-cart request. UserID is optional; when set it must
// name the caller.
type AddInput struct {
	UserID       string          `json:"userId"`
	ProductID    string          `json:"productId"`
	Size         domain.SizeSpec `json:"size"`
	Color        string          `json:"color"`
	ProductPrice decimal.Decimal `json:"productPrice"`
	IsCustomSize bool            `json:"isCustomSize"`
}

// GetUserCart returns the caller's cart.
func (s *Service) GetUserCart(ctx context.Context, userID string) (*domain.Cart, error) {
	cart, err := s.repo.GetByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.NewError(domain.CodeNotFound, "no user cart")
		}
		return nil, domain.WrapError(domain.CodeInternal, err, "load cart")
	}
	return cart, nil
}

// AddToCart validates the request against the product and the caller's
// current cart, then appends one line item.
func (s *Service) AddToCart(ctx context.Context, userID string, in AddInput) (_ *domain.Cart, err error) {
	defer func() { s.metrics.CartMutation("add", resultLabel(err)) }()

	if in.UserID != "" && in.UserID != userID {
		return nil, domain.NewError(domain.CodePermissionDenied, "Permission denied")
	}

	product, err := s.productRepo.GetByID(ctx, strings.TrimSpace(in.ProductID))
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.NewError(domain.CodeNotFound, "No product found")
		}
		return nil, domain.WrapError(domain.CodeInternal, err, "load product")
	}

	if in.Color == "" {
		return nil, domain.NewError(domain.CodeInvalidInput, "You must select a color")
	}
	if !product.HasColor(in.Color) {
		return nil, domain.NewError(domain.CodeInvalidInput, "Invalid color selection")
	}

	current, err := s.currentCart(ctx, userID)
	if err != nil {
		return nil, err
	}

	if in.IsCustomSize {
		if err := checkCustomSize(in.Size, current, product.ID, in.Color); err != nil {
			return nil, err
		}
	} else {
		if err := checkRegularSizes(in.Size, current, *product, in.Color); err != nil {
			return nil, err
		}
	}

	if !in.ProductPrice.Equal(product.Price) {
		return nil, domain.NewError(domain.CodeInvalidInput, "Price mismatch").
			WithDetails(map[string]any{"expected": product.Price, "received": in.ProductPrice})
	}

	cart, err := s.repo.AppendLineItem(ctx, userID, domain.CartLineItem{
		ProductID:    product.ID,
		Size:         in.Size.Clone(),
		Color:        in.Color,
		ProductPrice: product.Price,
	})
	if err != nil {
		return nil, domain.WrapError(domain.CodeInternal, err, "save cart")
	}
	return cart, nil
}

// DeleteFromCart removes a line item from the caller's cart. Removing an id
// that is not in the cart leaves it unchanged.
func (s *Service) DeleteFromCart(ctx context.Context, requesterID, lineItemID string) (_ *domain.Cart, err error) {
	defer func() { s.metrics.CartMutation("delete", resultLabel(err)) }()

	if strings.TrimSpace(lineItemID) == "" {
		return nil, domain.NewError(domain.CodeInvalidInput, "line item id required")
	}

	cart, err := s.repo.GetByUser(ctx, requesterID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.NewError(domain.CodeInvalidInput, "No cart found")
		}
		return nil, domain.WrapError(domain.CodeInternal, err, "load cart")
	}
	if cart.UserID != requesterID {
		return nil, domain.NewError(domain.CodePermissionDenied, "Permission denied")
	}

	updated, err := s.repo.RemoveLineItem(ctx, requesterID, lineItemID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return nil, domain.NewError(domain.CodeInvalidInput, "No cart found")
		}
		return nil, domain.WrapError(domain.CodeInternal, err, "save cart")
	}
	return updated, nil
}

func (s *Service) currentCart(ctx context.Context, userID string) (domain.Cart, error) {
	cart, err := s.repo.GetByUser(ctx, userID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return domain.Cart{UserID: userID}, nil
		}
		return domain.Cart{}, domain.WrapError(domain.CodeInternal, err, "load cart")
	}
	return *cart, nil
}

func checkCustomSize(size domain.SizeSpec, cart domain.Cart, productID, color string) error {
	custom, ok := size.Custom()
	if !ok || !custom.Valid() {
		return domain.NewError(domain.CodeInvalidInput, "Invalid custom size format")
	}
	if cart.HasCustomSize(productID, color) {
		return domain.NewError(domain.CodeConflict, "Custom size already added for this product with this color")
	}
	return nil
}

func checkRegularSizes(size domain.SizeSpec, cart domain.Cart, product domain.Product, color string) error {
	requested := size.Regular()
	if size.IsCustom() || len(requested) == 0 {
		return domain.NewError(domain.CodeInvalidInput, "You must select at least one size")
	}
	if dups := lo.FindDuplicates(requested); len(dups) > 0 {
		return domain.Errorf(domain.CodeInvalidInput, "Duplicate sizes: %s", formatSizes(dups)).
			WithDetails(map[string]any{"sizes": dups})
	}
	if missing := product.MissingSizes(requested); len(missing) > 0 {
		return domain.Errorf(domain.CodeInvalidInput, "Invalid sizes: %s", formatSizes(missing)).
			WithDetails(map[string]any{"sizes": missing})
	}
	inCart := cart.RegularSizesFor(product.ID, color)
	taken := lo.Filter(requested, func(s float64, _ int) bool {
		return slices.Contains(inCart, s)
	})
	if len(taken) > 0 {
		return domain.Errorf(domain.CodeConflict, "Size(s) already in cart for this color: %s", formatSizes(taken)).
			WithDetails(map[string]any{"sizes": taken})
	}
	return nil
}

func formatSizes(sizes []float64) string {
	return strings.Join(lo.Map(sizes, func(s float64, _ int) string {
		return strconv.FormatFloat(s, 'f', -1, 64)
	}), ", ")
}

func resultLabel(err error) string {
	if err == nil {
		return "ok"
	}
	return string(domain.CodeOf(err))
}
