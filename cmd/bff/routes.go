package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ewilliams-labs/kisanmandi/backend/internal/client"
	"github.com/ewilliams-labs/kisanmandi/backend/internal/core/domain"
)

// backend is the part of the API client the BFF uses.
type backend interface {
	Health(ctx context.Context) error
	Chat(ctx context.Context, req client.ChatRequest) (domain.ChatExchange, error)
	Prices(ctx context.Context) ([]client.Price, error)
}

func newRouter(api backend, staticDir string, log *zap.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "healthy", "service": "bff"})
	})
	r.GET("/ready", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()
		if err := api.Health(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not_ready", "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready", "backend": "connected"})
	})

	r.POST("/chat", func(c *gin.Context) {
		var req client.ChatRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body", "code": "INVALID_REQUEST"})
			return
		}
		exchange, err := api.Chat(c.Request.Context(), req)
		if err != nil {
			writeBackendError(c, log, err)
			return
		}
		c.JSON(http.StatusOK, exchange)
	})

	r.GET("/prices", func(c *gin.Context) {
		prices, err := api.Prices(c.Request.Context())
		if err != nil {
			writeBackendError(c, log, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"prices": prices})
	})

	if staticDir != "" {
		r.NoRoute(gin.WrapH(http.FileServer(http.Dir(staticDir))))
	}

	return r
}

// writeBackendError passes API errors through and maps transport failures to 502.
func writeBackendError(c *gin.Context, log *zap.Logger, err error) {
	var apiErr *client.APIError
	if errors.As(err, &apiErr) {
		if client.IsCode(err, "ADVISOR_UNAUTHORIZED") {
			log.Error("backend advisor rejected its API key", zap.String("path", c.Request.URL.Path))
		}
		c.JSON(apiErr.Status, gin.H{"error": apiErr.Message, "code": apiErr.Code})
		return
	}
	log.Warn("backend call failed", zap.String("path", c.Request.URL.Path), zap.Error(err))
	c.JSON(http.StatusBadGateway, gin.H{"error": "backend unavailable", "code": "BACKEND_UNAVAILABLE"})
}
