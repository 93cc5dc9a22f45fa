package api

import (
	"context"
	"database/sql"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/safar/storefront/internal/auth"
	"github.com/safar/storefront/internal/checkout"
)

type CheckoutService interface {
	Create(ctx context.Context, userID string) (*checkout.CreateResult, error)
	Verify(ctx context.Context, req checkout.VerifyRequest) (*checkout.VerifyResult, error)
}

type WebhookReconciler interface {
	Handle(ctx context.Context, rawBody []byte, signature, eventID string) (checkout.Outcome, error)
}

type Deps struct {
	DB            *sql.DB
	Checkout      CheckoutService
	Webhooks      WebhookReconciler
	Tokens        *auth.TokenIssuer
	Logger        *slog.Logger
	SecureCookies bool
}

// Server wires the HTTP routes to storage and checkout.
type Server struct {
	db            *sql.DB
	checkout      CheckoutService
	webhooks      WebhookReconciler
	tokens        *auth.TokenIssuer
	logger        *slog.Logger
	secureCookies bool
	now           func() time.Time
	router        *gin.Engine
}

func NewServer(d Deps) *Server {
	registerValidatorTagNames()

	router := gin.New()
	router.Use(requestLogger(d.Logger), gin.Recovery())

	s := &Server{
		db:            d.DB,
		checkout:      d.Checkout,
		webhooks:      d.Webhooks,
		tokens:        d.Tokens,
		logger:        d.Logger,
		secureCookies: d.SecureCookies,
		now:           time.Now,
		router:        router,
	}

	s.routes()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) routes() {
	requireAuth := auth.RequireAuth(s.tokens)

	s.router.GET("/healthz", s.handleHealth)

	api := s.router.Group("/api")
	{
		api.POST("/auth/signup", s.handleSignup)
		api.POST("/auth/login", s.handleLogin)
		api.POST("/auth/logout", s.handleLogout)
		api.GET("/auth/me", requireAuth, s.handleMe)

		api.GET("/products", s.handleListProducts)
		api.GET("/products/:id", s.handleGetProduct)
		api.GET("/categories", s.handleListCategories)
		api.GET("/deals", s.handleActiveDeals)
		api.GET("/testimonials", s.handleVisibleTestimonials)
		api.POST("/newsletter", s.handleSubscribe)
		api.POST("/product-requests", s.handleCreateProductRequest)

		api.POST("/webhooks/razorpay", s.handleRazorpayWebhook)
	}

	authed := api.Group("", requireAuth)
	{
		authed.GET("/cart", s.handleGetCart)
		authed.POST("/cart", s.handleAddToCart)
		authed.PATCH("/cart/:productId", s.handleUpdateCartItem)
		authed.DELETE("/cart/:productId", s.handleRemoveCartItem)

		authed.POST("/orders/create", s.handleCreateOrder)
		authed.GET("/orders", s.handleListOrders)
		authed.GET("/orders/:id", s.handleGetOrder)

		authed.POST("/payments/verify", s.handleVerifyPayment)
	}

	admin := api.Group("/admin", requireAuth, auth.RequireAdmin())
	{
		admin.GET("/users", s.handleAdminListUsers)

		admin.POST("/products", s.handleAdminCreateProduct)
		admin.PATCH("/products/:id", s.handleAdminUpdateProduct)
		admin.DELETE("/products/:id", s.handleAdminDeleteProduct)

		admin.GET("/deals", s.handleAdminListDeals)
		admin.POST("/deals", s.handleAdminCreateDeal)
		admin.PATCH("/deals/:id", s.handleAdminUpdateDeal)
		admin.DELETE("/deals/:id", s.handleAdminDeleteDeal)

		admin.GET("/testimonials", s.handleAdminListTestimonials)
		admin.POST("/testimonials", s.handleAdminCreateTestimonial)
		admin.PATCH("/testimonials/:id", s.handleAdminUpdateTestimonial)
		admin.DELETE("/testimonials/:id", s.handleAdminDeleteTestimonial)

		admin.GET("/analytics/logins", s.handleAdminLoginAnalytics)
		admin.GET("/newsletter-subscribers", s.handleAdminListSubscribers)
		admin.GET("/product-requests", s.handleAdminListProductRequests)
		admin.PATCH("/product-requests/:id", s.handleAdminUpdateProductRequest)
	}
}

func (s *Server) handleHealth(c *gin.Context) {
	if s.db != nil {
		if err := s.db.PingContext(c.Request.Context()); err != nil {
			respondError(c, http.StatusServiceUnavailable, "Database unavailable")
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		level := slog.LevelInfo
		if c.Writer.Status() >= http.StatusInternalServerError {
			level = slog.LevelError
		}

		logger.LogAttrs(c.Request.Context(), level, "request",
			slog.String("method", c.Request.Method),
			slog.String("path", c.FullPath()),
			slog.Int("status", c.Writer.Status()),
			slog.Duration("latency", time.Since(start)),
			slog.String("client_ip", c.ClientIP()),
		)
	}
}
