package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/ewilliams-labs/kisanmandi/backend/internal/core/chatbot"
	"github.com/ewilliams-labs/kisanmandi/backend/internal/core/domain"
	"github.com/ewilliams-labs/kisanmandi/backend/internal/core/ports"
)

// Chat answers farmer messages: the advisor first when one is configured,
// otherwise (or when it is unavailable) the keyword responder.
type Chat struct {
	responder *chatbot.Responder
	advisor   ports.Advisor
	recorder  ports.IntentRecorder
	logger    *zap.Logger
	now       func() time.Time
}

// NewChat constructs a Chat service. advisor and recorder may be nil.
func NewChat(responder *chatbot.Responder, advisor ports.Advisor, recorder ports.IntentRecorder, logger *zap.Logger) *Chat {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Chat{
		responder: responder,
		advisor:   advisor,
		recorder:  recorder,
		logger:    logger,
		now:       time.Now,
	}
}

// Reply produces the bot response for one message. The only error it returns
// wraps ports.ErrAdvisorUnauthorized; every other advisor failure falls back to the rules.
func (c *Chat) Reply(ctx context.Context, topic domain.Topic, message string) (domain.ChatExchange, error) {
	exchange := domain.ChatExchange{
		ID:          uuid.NewString(),
		UserMessage: message,
		CreatedAt:   c.now().UTC(),
	}

	if c.advisor != nil {
		answer, err := c.advisor.Advise(ctx, topic, message)
		switch {
		case err == nil && strings.TrimSpace(answer) != "":
			exchange.BotResponse = strings.TrimSpace(answer)
			exchange.Intent = domain.IntentAdvisor
			exchange.Source = domain.SourceAdvisor
			c.record(exchange)
			return exchange, nil
		case errors.Is(err, ports.ErrAdvisorUnauthorized):
			c.logger.Error("advisor rejected api key", zap.Error(err))
			return domain.ChatExchange{}, fmt.Errorf("service: advisor: %w", err)
		case err != nil:
			c.logger.Warn("advisor failed, using rules", zap.String("topic", string(topic)), zap.Error(err))
		default:
			c.logger.Warn("advisor returned empty answer, using rules", zap.String("topic", string(topic)))
		}
	}

	result := c.responder.Classify(message)
	exchange.BotResponse = result.Text
	exchange.Intent = result.Intent
	exchange.Source = domain.SourceRules
	c.record(exchange)
	return exchange, nil
}

func (c *Chat) record(exchange domain.ChatExchange) {
	if c.recorder == nil {
		return
	}
	c.recorder.Record(exchange.Intent, exchange.CreatedAt)
}
