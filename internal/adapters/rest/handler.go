package rest

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ewilliams-labs/kisanmandi/backend/internal/core/ports"
	"github.com/ewilliams-labs/kisanmandi/backend/internal/core/services"
	"github.com/ewilliams-labs/kisanmandi/backend/internal/format"
)

// Handler manages the HTTP interface for our application.
type Handler struct {
	chat        *services.Chat
	catalog     *services.Catalog
	marketplace *services.Marketplace
	logger      *zap.Logger
	router      *gin.Engine

	currency       string
	allowedOrigins []string
	ready          func(ctx context.Context) error

	limiter    ports.RateLimiter
	rateLimit  int
	rateWindow time.Duration
}

// Option configures a Handler.
type Option func(*Handler)

// WithCurrencySymbol sets the symbol used for display prices.
func WithCurrencySymbol(symbol string) Option {
	return func(h *Handler) {
		if symbol != "" {
			h.currency = symbol
		}
	}
}

// WithAllowedOrigins sets the CORS origins. "*" allows any origin.
func WithAllowedOrigins(origins []string) Option {
	return func(h *Handler) { h.allowedOrigins = origins }
}

// WithReadiness sets the storage check behind GET /ready.
func WithReadiness(check func(ctx context.Context) error) Option {
	return func(h *Handler) { h.ready = check }
}

// WithMarketplace enables the read-only crop listing routes.
func WithMarketplace(m *services.Marketplace) Option {
	return func(h *Handler) { h.marketplace = m }
}

// WithRateLimiter limits POST /api/chat to limit requests per client IP per window.
func WithRateLimiter(limiter ports.RateLimiter, limit int, window time.Duration) Option {
	return func(h *Handler) {
		h.limiter = limiter
		h.rateLimit = limit
		h.rateWindow = window
	}
}

// NewHandler initializes the HTTP adapter and sets up routes.
func NewHandler(chat *services.Chat, catalog *services.Catalog, logger *zap.Logger, opts ...Option) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	h := &Handler{
		chat:           chat,
		catalog:        catalog,
		logger:         logger,
		router:         gin.New(),
		currency:       format.RupeeSymbol,
		allowedOrigins: []string{"*"},
	}
	for _, opt := range opts {
		opt(h)
	}

	h.routes()

	return h
}

// ServeHTTP satisfies the http.Handler interface.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.router.ServeHTTP(w, r)
}

func (h *Handler) routes() {
	h.router.Use(gin.Recovery())
	h.router.Use(requestID())
	h.router.Use(accessLog(h.logger))
	h.router.Use(cors(h.allowedOrigins))

	h.router.GET("/health", h.HealthCheck)
	h.router.GET("/ready", h.Ready)

	api := h.router.Group("/api")
	api.POST("/chat", h.rateLimitChat(), h.Chat)
	api.GET("/chat/stats", h.ChatStats)
	api.GET("/prices", h.ListPrices)
	api.POST("/validate", h.Validate)
	if h.marketplace != nil {
		api.GET("/crops", h.ListCrops)
		api.GET("/crops/:id", h.GetCrop)
	}
}

// HealthCheck is a simple endpoint to verify the API is running.
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Ready reports whether storage is reachable.
func (h *Handler) Ready(c *gin.Context) {
	if h.ready != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := h.ready(ctx); err != nil {
			h.logger.Warn("readiness check failed", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ready"})
}
