package httpserver

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sneakerstore/internal/domain"
	"sneakerstore/internal/idempotency"
	"sneakerstore/internal/metrics"
	cartsvc "sneakerstore/internal/service/cart"
	checkoutsvc "sneakerstore/internal/service/checkout"
)

type stubAuth struct{}

func (stubAuth) Authenticate(_ context.Context, header string) (*domain.User, error) {
	switch header {
	case "Bearer u1":
		return &domain.User{ID: "u1"}, nil
	case "Bearer admin":
		return &domain.User{ID: "admin", IsAdmin: true}, nil
	}
	return nil, domain.NewError(domain.CodeUnauthenticated, "Unauthenticated, no token")
}

type stubProducts struct{}

func (stubProducts) List(context.Context) ([]domain.Product, error) {
	return []domain.Product{{ID: "p1", Name: "Runner", Price: decimal.NewFromInt(100)}}, nil
}

func (stubProducts) Get(_ context.Context, id string) (*domain.Product, error) {
	if id != "p1" {
		return nil, domain.NewError(domain.CodeNotFound, "No product found")
	}
	return &domain.Product{ID: "p1"}, nil
}

type stubCarts struct {
	lastUser string
	lastAdd  cartsvc.AddInput
	addErr   error
}

func (s *stubCarts) GetUserCart(_ context.Context, userID string) (*domain.Cart, error) {
	s.lastUser = userID
	return &domain.Cart{UserID: userID, LineItems: []domain.CartLineItem{}}, nil
}

func (s *stubCarts) AddToCart(_ context.Context, userID string, in cartsvc.AddInput) (*domain.Cart, error) {
	s.lastUser = userID
	s.lastAdd = in
	if s.addErr != nil {
		return nil, s.addErr
	}
	return &domain.Cart{UserID: userID, LineItems: []domain.CartLineItem{{ID: "l1", ProductID: in.ProductID, Size: in.Size, Color: in.Color, ProductPrice: in.ProductPrice}}}, nil
}

func (s *stubCarts) DeleteFromCart(_ context.Context, requesterID, _ string) (*domain.Cart, error) {
	return &domain.Cart{UserID: requesterID, LineItems: []domain.CartLineItem{}}, nil
}

type stubCheckout struct {
	calls int
	err   error
}

func (s *stubCheckout) CreateOrder(_ context.Context, userID string, in checkoutsvc.CreateOrderInput) (*domain.Order, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return &domain.Order{
		ID:            "order-" + userID,
		PurchasedBy:   userID,
		OrderProducts: []domain.OrderLineItem{},
		PaymentMethod: domain.PaymentMethod(in.PaymentMethod),
		PaymentStatus: domain.PaymentStatusPending,
		TotalAmount:   in.TotalAmount.Decimal,
	}, nil
}

type stubOrders struct {
	lastStatus string
}

func (s *stubOrders) GetUserOrders(context.Context, domain.User) ([]domain.Order, error) {
	return []domain.Order{}, nil
}

func (s *stubOrders) GetOrder(_ context.Context, requester domain.User, orderID string) (*domain.Order, error) {
	if orderID != "o1" || (requester.ID != "u1" && !requester.IsAdmin) {
		return nil, domain.NewError(domain.CodeNotFound, "Order not found")
	}
	return &domain.Order{ID: orderID, PurchasedBy: "u1"}, nil
}

func (s *stubOrders) GetAllOrders(_ context.Context, requester domain.User) ([]domain.Order, error) {
	if !requester.IsAdmin {
		return nil, domain.NewError(domain.CodePermissionDenied, "Permission denied. Admin access required.")
	}
	return []domain.Order{{ID: "o1"}}, nil
}

func (s *stubOrders) UpdatePaymentStatus(_ context.Context, requester domain.User, orderID, status string) (*domain.Order, error) {
	if !requester.IsAdmin {
		return nil, domain.NewError(domain.CodePermissionDenied, "Permission denied. Admin access required.")
	}
	s.lastStatus = status
	return &domain.Order{ID: orderID, PaymentStatus: domain.PaymentStatus(status)}, nil
}

type stubPinger struct{ err error }

func (s stubPinger) Ping(context.Context) error { return s.err }

type harness struct {
	router   *gin.Engine
	carts    *stubCarts
	checkout *stubCheckout
	orders   *stubOrders
	registry *prometheus.Registry
}

func newHarness(t *testing.T, store idempotencyStore) *harness {
	t.Helper()
	gin.SetMode(gin.TestMode)
	h := &harness{
		carts:    &stubCarts{},
		checkout: &stubCheckout{},
		orders:   &stubOrders{},
		registry: prometheus.NewRegistry(),
	}
	deps := Deps{
		Auth:        stubAuth{},
		Products:    stubProducts{},
		Carts:       h.carts,
		Checkout:    h.checkout,
		Orders:      h.orders,
		Metrics:     metrics.New(h.registry),
		Gatherer:    h.registry,
		CORSOrigins: []string{"http://localhost:3000"},
	}
	if store != nil {
		deps.Idempotency = store
	}
	h.router = buildRouter(zerolog.Nop(), stubPinger{}, deps)
	return h
}

func (h *harness) do(method, path, token, body string, headers ...string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	h.router.ServeHTTP(rec, req)
	return rec
}

type errorEnvelope struct {
	Error struct {
		Code    string         `json:"code"`
		Message string         `json:"message"`
		Details map[string]any `json:"details"`
	} `json:"error"`
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorEnvelope {
	t.Helper()
	var env errorEnvelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return env
}

func TestAuthRequired(t *testing.T) {
	h := newHarness(t, nil)

	for _, route := range [][2]string{
		{http.MethodGet, "/me/cart"},
		{http.MethodPost, "/me/cart/items"},
		{http.MethodDelete, "/me/cart/items/l1"},
		{http.MethodPost, "/me/orders"},
		{http.MethodGet, "/me/orders"},
		{http.MethodGet, "/me/orders/o1"},
		{http.MethodGet, "/orders"},
		{http.MethodPatch, "/orders/o1/payment-status"},
	} {
		rec := h.do(route[0], route[1], "", "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code, route[1])
		assert.Equal(t, "UNAUTHENTICATED", decodeError(t, rec).Error.Code)
	}
	assert.Empty(t, h.carts.lastUser)
	assert.Zero(t, h.checkout.calls)
}

func TestAddToCart_DecodesBothSizeShapes(t *testing.T) {
	h := newHarness(t, nil)

	rec := h.do(http.MethodPost, "/me/cart/items", "u1", `{"productId":"p1","size":[8,9],"color":"black","productPrice":100}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "u1", h.carts.lastUser)
	assert.Equal(t, []float64{8, 9}, h.carts.lastAdd.Size.Regular())
	assert.True(t, h.carts.lastAdd.ProductPrice.Equal(decimal.NewFromInt(100)))

	var cart struct {
		UserID       string `json:"userId"`
		CartProducts []struct {
			ID           string `json:"id"`
			IsCustomSize bool   `json:"isCustomSize"`
		} `json:"cartProducts"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &cart))
	assert.Equal(t, "u1", cart.UserID)
	require.Len(t, cart.CartProducts, 1)
	assert.Equal(t, "l1", cart.CartProducts[0].ID)
	assert.False(t, cart.CartProducts[0].IsCustomSize)

	rec = h.do(http.MethodPost, "/me/cart/items", "u1", `{"productId":"p1","size":{"left":26,"right":26.5},"color":"black","productPrice":"100","isCustomSize":true}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	custom, ok := h.carts.lastAdd.Size.Custom()
	require.True(t, ok)
	assert.Equal(t, domain.CustomSize{Left: 26, Right: 26.5}, custom)
	assert.Contains(t, rec.Body.String(), `"isCustomSize":true`)
}

func TestAddToCart_BadBody(t *testing.T) {
	h := newHarness(t, nil)

	rec := h.do(http.MethodPost, "/me/cart/items", "u1", `{"productId":"p1","size":"eight"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "INVALID_INPUT", decodeError(t, rec).Error.Code)
}

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		err     error
		status  int
		message string
	}{
		{domain.NewError(domain.CodeConflict, "Size(s) already in cart for this color: 9").WithDetails(map[string]any{"sizes": []float64{9}}), http.StatusConflict, "Size(s) already in cart for this color: 9"},
		{domain.NewError(domain.CodeNotFound, "No product found"), http.StatusNotFound, "No product found"},
		{domain.NewError(domain.CodePermissionDenied, "Permission denied"), http.StatusForbidden, "Permission denied"},
		{domain.WrapError(domain.CodeInternal, errors.New("pool closed"), "save cart"), http.StatusInternalServerError, "internal server error"},
		{errors.New("raw"), http.StatusInternalServerError, "internal server error"},
	}
	for _, tt := range tests {
		h := newHarness(t, nil)
		h.carts.addErr = tt.err
		rec := h.do(http.MethodPost, "/me/cart/items", "u1", `{"productId":"p1","size":[9],"color":"black","productPrice":100}`)
		assert.Equal(t, tt.status, rec.Code)
		env := decodeError(t, rec)
		assert.Equal(t, tt.message, env.Error.Message)
		assert.NotContains(t, rec.Body.String(), "pool closed")
	}

	h := newHarness(t, nil)
	h.carts.addErr = tests[0].err
	rec := h.do(http.MethodPost, "/me/cart/items", "u1", `{"productId":"p1","size":[9],"color":"black","productPrice":100}`)
	assert.Equal(t, []any{9.0}, decodeError(t, rec).Error.Details["sizes"])
}

func TestCreateOrder(t *testing.T) {
	h := newHarness(t, nil)

	rec := h.do(http.MethodPost, "/me/orders", "u1", `{"paymentMethod":"COD","totalAmount":210}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var order map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &order))
	assert.Equal(t, "Pending", order["paymentStatus"])
	assert.Equal(t, "u1", order["purchasedBy"])
	assert.Equal(t, "210", order["totalAmount"])
}

func TestGetUserOrder(t *testing.T) {
	h := newHarness(t, nil)

	rec := h.do(http.MethodGet, "/me/orders/o1", "u1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"id":"o1"`)

	rec = h.do(http.MethodGet, "/me/orders/o9", "u1", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Order not found", decodeError(t, rec).Error.Message)
}

func TestAdminRoutes(t *testing.T) {
	h := newHarness(t, nil)

	rec := h.do(http.MethodGet, "/orders", "u1", "")
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = h.do(http.MethodGet, "/orders", "admin", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = h.do(http.MethodPatch, "/orders/o1/payment-status", "u1", `{"paymentStatus":"Paid"}`)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Empty(t, h.orders.lastStatus)

	rec = h.do(http.MethodPatch, "/orders/o1/payment-status", "admin", `{"paymentStatus":"Paid"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Paid", h.orders.lastStatus)
}

func TestIdempotentCheckoutReplay(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	h := newHarness(t, idempotency.NewStore(client, time.Hour, zerolog.Nop()))

	body := `{"paymentMethod":"COD","totalAmount":210}`
	first := h.do(http.MethodPost, "/me/orders", "u1", body, idempotencyHeader, "k1")
	require.Equal(t, http.StatusCreated, first.Code)

	second := h.do(http.MethodPost, "/me/orders", "u1", body, idempotencyHeader, "k1")
	require.Equal(t, http.StatusCreated, second.Code)
	assert.Equal(t, first.Body.String(), second.Body.String())
	assert.Equal(t, "true", second.Header().Get("Idempotent-Replayed"))
	assert.Equal(t, 1, h.checkout.calls)

	mismatch := h.do(http.MethodPost, "/me/orders", "u1", `{"paymentMethod":"PayPal","totalAmount":210}`, idempotencyHeader, "k1")
	assert.Equal(t, http.StatusConflict, mismatch.Code)

	// same key from another user is a different request
	other := h.do(http.MethodPost, "/me/orders", "admin", body, idempotencyHeader, "k1")
	assert.Equal(t, http.StatusCreated, other.Code)
	assert.Equal(t, 2, h.checkout.calls)

	// no key, no replay
	h.do(http.MethodPost, "/me/orders", "u1", body)
	assert.Equal(t, 3, h.checkout.calls)
}

func TestIdempotencyFailsOpen(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), MaxRetries: -1})
	t.Cleanup(func() { _ = client.Close() })
	h := newHarness(t, idempotency.NewStore(client, time.Hour, zerolog.Nop()))
	mr.Close()

	rec := h.do(http.MethodPost, "/me/orders", "u1", `{"paymentMethod":"COD","totalAmount":1}`, idempotencyHeader, "k1")
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, 1, h.checkout.calls)
}

func TestHealthAndMetrics(t *testing.T) {
	h := newHarness(t, nil)

	assert.Equal(t, http.StatusOK, h.do(http.MethodGet, "/healthz", "", "").Code)
	assert.Equal(t, http.StatusOK, h.do(http.MethodGet, "/readyz", "", "").Code)

	rec := h.do(http.MethodGet, "/products", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get(requestIDHeader))

	rec = h.do(http.MethodGet, "/metrics", "", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `http_requests_total{method="GET",route="/products",status="200"} 1`)
}

func TestReadyz_DBDown(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := buildRouter(zerolog.Nop(), stubPinger{err: errors.New("down")}, Deps{Auth: stubAuth{}})

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestGetProduct_NotFound(t *testing.T) {
	h := newHarness(t, nil)
	rec := h.do(http.MethodGet, "/products/zzz", "", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
