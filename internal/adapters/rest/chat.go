package rest

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/ewilliams-labs/kisanmandi/backend/internal/core/domain"
	"github.com/ewilliams-labs/kisanmandi/backend/internal/core/ports"
)

type chatRequest struct {
	Message string `json:"message"`
	Type    string `json:"type"`
}

// Chat handles POST /api/chat
func (h *Handler) Chat(c *gin.Context) {
	if !isJSONContentType(c.Request) {
		writeError(c, http.StatusUnsupportedMediaType, codeUnsupportedMedia, "Content-Type must be application/json")
		return
	}

	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, codeInvalidRequest, "Invalid request body")
		return
	}

	exchange, err := h.chat.Reply(c.Request.Context(), domain.ParseTopic(req.Type), req.Message)
	if err != nil {
		if errors.Is(err, ports.ErrAdvisorUnauthorized) {
			writeError(c, http.StatusBadGateway, codeAdvisorUnauthorized, "advisor rejected the configured API key")
			return
		}
		h.logger.Error("chat reply failed", zap.Error(err))
		writeError(c, http.StatusInternalServerError, codeInternal, "failed to answer message")
		return
	}

	c.JSON(http.StatusOK, exchange)
}

// ChatStats handles GET /api/chat/stats
func (h *Handler) ChatStats(c *gin.Context) {
	stats, err := h.catalog.IntentStats(c.Request.Context())
	if err != nil {
		h.logger.Error("intent stats failed", zap.Error(err))
		writeError(c, http.StatusInternalServerError, codeInternal, "failed to load stats")
		return
	}

	var total int64
	for _, s := range stats {
		total += s.Count
	}
	c.JSON(http.StatusOK, gin.H{"total": total, "intents": stats})
}
