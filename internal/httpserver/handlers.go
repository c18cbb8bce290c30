package httpserver

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"sneakerstore/internal/domain"
	cartsvc "sneakerstore/internal/service/cart"
	checkoutsvc "sneakerstore/internal/service/checkout"
)

type productService interface {
	List(ctx context.Context) ([]domain.Product, error)
	Get(ctx context.Context, id string) (*domain.Product, error)
}

type cartService interface {
	GetUserCart(ctx context.Context, userID string) (*domain.Cart, error)
	AddToCart(ctx context.Context, userID string, in cartsvc.AddInput) (*domain.Cart, error)
	DeleteFromCart(ctx context.Context, requesterID, lineItemID string) (*domain.Cart, error)
}

type checkoutService interface {
	CreateOrder(ctx context.Context, userID string, in checkoutsvc.CreateOrderInput) (*domain.Order, error)
}

type orderService interface {
	GetUserOrders(ctx context.Context, requester domain.User) ([]domain.Order, error)
	GetOrder(ctx context.Context, requester domain.User, orderID string) (*domain.Order, error)
	GetAllOrders(ctx context.Context, requester domain.User) ([]domain.Order, error)
	UpdatePaymentStatus(ctx context.Context, requester domain.User, orderID, status string) (*domain.Order, error)
}

type handlers struct {
	deps Deps
}

type paymentStatusRequest struct {
	PaymentStatus string `json:"paymentStatus"`
}

func (h *handlers) listProducts(c *gin.Context) {
	products, err := h.deps.Products.List(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, products)
}

func (h *handlers) getProduct(c *gin.Context) {
	product, err := h.deps.Products.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, product)
}

func (h *handlers) getUserCart(c *gin.Context) {
	cart, err := h.deps.Carts.GetUserCart(c.Request.Context(), currentUser(c).ID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, cart)
}

func (h *handlers) addToCart(c *gin.Context) {
	var in cartsvc.AddInput
	if err := c.ShouldBindJSON(&in); err != nil {
		writeError(c, invalidBody(err))
		return
	}
	cart, err := h.deps.Carts.AddToCart(c.Request.Context(), currentUser(c).ID, in)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, cart)
}

func (h *handlers) deleteFromCart(c *gin.Context) {
	cart, err := h.deps.Carts.DeleteFromCart(c.Request.Context(), currentUser(c).ID, c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, cart)
}

func (h *handlers) createOrder(c *gin.Context) {
	var in checkoutsvc.CreateOrderInput
	if err := c.ShouldBindJSON(&in); err != nil {
		writeError(c, invalidBody(err))
		return
	}
	order, err := h.deps.Checkout.CreateOrder(c.Request.Context(), currentUser(c).ID, in)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, order)
}

func (h *handlers) getUserOrders(c *gin.Context) {
	orders, err := h.deps.Orders.GetUserOrders(c.Request.Context(), currentUser(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, orders)
}

func (h *handlers) getUserOrder(c *gin.Context) {
	order, err := h.deps.Orders.GetOrder(c.Request.Context(), currentUser(c), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}

func (h *handlers) getAllOrders(c *gin.Context) {
	orders, err := h.deps.Orders.GetAllOrders(c.Request.Context(), currentUser(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, orders)
}

func (h *handlers) updatePaymentStatus(c *gin.Context) {
	var req paymentStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, invalidBody(err))
		return
	}
	order, err := h.deps.Orders.UpdatePaymentStatus(c.Request.Context(), currentUser(c), c.Param("id"), req.PaymentStatus)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, order)
}
