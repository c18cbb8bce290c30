package checkout

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/samber/lo"
	"github.com/shopspring/decimal"

	"sneakerstore/internal/domain"
	"sneakerstore/internal/metrics"
)

type cartStore interface {
	GetByUser(ctx context.Context, userID string) (*domain.Cart, error)
	ClearLineItems(ctx context.Context, userID string) error
}

type productStore interface {
	GetByIDs(ctx context.Context, ids []string) ([]domain.Product, error)
	DecrementSizes(ctx context.Context, id string, sizes []float64) (*domain.Product, error)
}

type userStore interface {
	AppendTopPicks(ctx context.Context, id string, brands []string) error
}

type orderStore interface {
	Create(ctx context.Context, order domain.Order) (*domain.Order, error)
}

// Service turns a user's cart into an order. The stock, preference, order
// and cart writes are committed one by one; a failure part way through
// leaves the earlier writes in place.
type Service struct {
	carts    cartStore
	products productStore
	users    userStore
	orders   orderStore
	log      zerolog.Logger
	metrics  *metrics.Shop
}

func New(carts cartStore, products productStore, users userStore, orders orderStore, log zerolog.Logger, m *metrics.Shop) *Service {
	return &Service{
		carts:    carts,
		products: products,
		users:    users,
		orders:   orders,
		log:      log.With().Str("component", "checkout").Logger(),
		metrics:  m,
	}
}

// CreateOrderInput is the checkout request. TotalAmount is required and is
// recorded as sent, to the cent.
type CreateOrderInput struct {
	PaymentMethod string              `json:"paymentMethod"`
	PaymentID     string              `json:"paymentId"`
	TotalAmount   decimal.NullDecimal `json:"totalAmount"`
}

// amountScale is the number of decimal places an order total may carry.
const amountScale = 2

// attempt carries one checkout through its states.
type attempt struct {
	state     State
	committed bool
	log       zerolog.Logger
	metrics   *metrics.Shop
}

func (a *attempt) advance(to State) error {
	if !a.state.CanTransitionTo(to) {
		return &IllegalTransitionError{From: a.state, To: to}
	}
	a.log.Debug().Str("from", string(a.state)).Str("to", string(to)).Msg("checkout transition")
	a.state = to
	a.metrics.CheckoutTransition(string(to))
	return nil
}

// fail moves the attempt to Failed and returns err unchanged.
func (a *attempt) fail(err error) error {
	from := a.state
	if advErr := a.advance(StateFailed); advErr != nil {
		return errors.Join(err, advErr)
	}
	evt := a.log.Warn()
	if a.committed {
		evt = a.log.Error()
	}
	evt.Err(err).
		Str("from", string(from)).
		Str("to", string(StateFailed)).
		Bool("partial_writes", a.committed).
		Msg("checkout failed")
	return err
}

// CreateOrder checks out the user's cart.
func (s *Service) CreateOrder(ctx context.Context, userID string, in CreateOrderInput) (_ *domain.Order, err error) {
	started := time.Now()
	a := &attempt{
		state:   StateValidating,
		log:     s.log.With().Str("checkout_id", uuid.NewString()).Str("user_id", userID).Logger(),
		metrics: s.metrics,
	}
	defer func() {
		result := "ok"
		if err != nil {
			result = string(domain.CodeOf(err))
		}
		s.metrics.Checkout(result, time.Since(started))
	}()

	// Validating
	cart, err := s.carts.GetByUser(ctx, userID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, a.fail(domain.WrapError(domain.CodeInternal, err, "load cart"))
	}
	if cart == nil || cart.IsEmpty() {
		return nil, a.fail(domain.NewError(domain.CodeInvalidInput, "No available order"))
	}
	method, err := domain.ToPaymentMethod(in.PaymentMethod)
	if err != nil {
		return nil, a.fail(domain.WrapError(domain.CodeInvalidInput, err, "Invalid payment method"))
	}
	if !in.TotalAmount.Valid {
		return nil, a.fail(domain.NewError(domain.CodeInvalidInput, "totalAmount is required"))
	}
	total := in.TotalAmount.Decimal
	if total.IsNegative() || !total.Equal(total.Round(amountScale)) {
		return nil, a.fail(domain.NewError(domain.CodeInvalidInput, "Invalid total amount"))
	}
	snapshot := cart.Snapshot()
	productIDs := cart.ProductIDs()

	if err := a.advance(StateReservingStock); err != nil {
		return nil, a.fail(err)
	}
	products, err := s.products.GetByIDs(ctx, productIDs)
	if err != nil {
		return nil, a.fail(domain.WrapError(domain.CodeInternal, err, "load products"))
	}
	if err := s.reserveStock(ctx, a, snapshot, products); err != nil {
		return nil, a.fail(err)
	}

	if err := a.advance(StateRecordingPreferences); err != nil {
		return nil, a.fail(err)
	}
	brands := lo.Compact(lo.Map(products, func(p domain.Product, _ int) string { return p.Brand }))
	if err := s.users.AppendTopPicks(ctx, userID, brands); err != nil {
		return nil, a.fail(domain.WrapError(domain.CodeInternal, err, "record top picks"))
	}
	a.committed = true

	if err := a.advance(StateRecordingOrder); err != nil {
		return nil, a.fail(err)
	}
	paymentID := strings.TrimSpace(in.PaymentID)
	order := domain.Order{
		PurchasedBy:   userID,
		OrderProducts: snapshot,
		PaymentMethod: method,
		PaymentStatus: domain.PaymentStatusFor(method, paymentID),
		TotalAmount:   total,
	}
	if paymentID != "" {
		order.PaymentID = &paymentID
	}
	if subtotal := order.Subtotal(); total.LessThan(subtotal) {
		a.log.Warn().
			Str("total_amount", total.String()).
			Str("subtotal", subtotal.String()).
			Msg("total amount below line item subtotal")
	}
	created, err := s.orders.Create(ctx, order)
	if err != nil {
		return nil, a.fail(domain.WrapError(domain.CodeInternal, err, "record order"))
	}

	if err := a.advance(StateClearingCart); err != nil {
		return nil, a.fail(err)
	}
	if err := s.carts.ClearLineItems(ctx, userID); err != nil {
		return nil, a.fail(domain.WrapError(domain.CodeInternal, err, "clear cart"))
	}

	if err := a.advance(StateComplete); err != nil {
		return nil, a.fail(err)
	}
	a.log.Info().
		Str("order_id", created.ID).
		Str("payment_status", string(created.PaymentStatus)).
		Int("lines", len(created.OrderProducts)).
		Msg("checkout complete")
	return created, nil
}

// reserveStock removes every purchased regular size from its product.
// Custom-size lines and lines whose product no longer exists are skipped.
func (s *Service) reserveStock(ctx context.Context, a *attempt, snapshot []domain.OrderLineItem, products []domain.Product) error {
	byID := lo.KeyBy(products, func(p domain.Product) string { return p.ID })

	sold := map[string][]float64{}
	var order []string
	for _, item := range snapshot {
		if item.IsCustomSize() {
			continue
		}
		if _, ok := byID[item.ProductID]; !ok {
			a.log.Warn().Str("product_id", item.ProductID).Msg("purchased product no longer exists")
			continue
		}
		if _, seen := sold[item.ProductID]; !seen {
			order = append(order, item.ProductID)
		}
		sold[item.ProductID] = append(sold[item.ProductID], item.Size.Regular()...)
	}

	for _, id := range order {
		sizes := sold[id]
		if gone := byID[id].MissingSizes(sizes); len(gone) > 0 {
			a.log.Warn().Str("product_id", id).Floats64("sizes", gone).Msg("sizes already sold")
		}
		updated, err := s.products.DecrementSizes(ctx, id, sizes)
		if err != nil {
			return domain.WrapError(domain.CodeInternal, err, "reserve stock")
		}
		a.committed = true
		a.log.Debug().Str("product_id", id).Floats64("remaining", updated.Sizes).Msg("stock reserved")
	}
	return nil
}
