package httpserver

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"sneakerstore/internal/metrics"
)

// Deps are the services behind the routes. Idempotency and Gatherer are
// optional.
type Deps struct {
	Auth        authenticator
	Products    productService
	Carts       cartService
	Checkout    checkoutService
	Orders      orderService
	Idempotency idempotencyStore
	Metrics     *metrics.Shop
	Gatherer    prometheus.Gatherer
	CORSOrigins []string
}

// buildRouter wires routes for the API.
func buildRouter(log zerolog.Logger, db pinger, deps Deps) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), requestID(), requestLogger(log, deps.Metrics))
	if len(deps.CORSOrigins) > 0 {
		router.Use(cors.New(cors.Config{
			AllowOrigins:  deps.CORSOrigins,
			AllowMethods:  []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
			AllowHeaders:  []string{"Origin", "Content-Type", "Authorization", idempotencyHeader, requestIDHeader},
			ExposeHeaders: []string{requestIDHeader},
			MaxAge:        12 * time.Hour,
		}))
	}

	router.GET("/healthz", healthHandler)
	router.GET("/readyz", readyHandler(db))
	if deps.Gatherer != nil {
		router.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{})))
	}

	h := &handlers{deps: deps}
	router.GET("/products", h.listProducts)
	router.GET("/products/:id", h.getProduct)

	authed := router.Group("/", authMiddleware(deps.Auth))
	authed.GET("/me/cart", h.getUserCart)
	authed.POST("/me/cart/items", h.addToCart)
	authed.DELETE("/me/cart/items/:id", h.deleteFromCart)
	authed.POST("/me/orders", idempotent(deps.Idempotency), h.createOrder)
	authed.GET("/me/orders", h.getUserOrders)
	authed.GET("/me/orders/:id", h.getUserOrder)
	authed.GET("/orders", h.getAllOrders)
	authed.PATCH("/orders/:id/payment-status", h.updatePaymentStatus)

	return router
}
