package ports

import (
	"context"
	"errors"

	"github.com/ewilliams-labs/kisanmandi/backend/internal/core/domain"
)

var (
	// ErrAdvisorUnavailable covers quota, rate-limit, transport and empty-answer failures.
	// Callers fall back to the rule responder.
	ErrAdvisorUnavailable = errors.New("advisor unavailable")
	// ErrAdvisorUnauthorized means the configured API key was rejected.
	ErrAdvisorUnauthorized = errors.New("advisor unauthorized")
)

// Advisor answers a farmer's message with a free-form reply from a language model.
type Advisor interface {
	Advise(ctx context.Context, topic domain.Topic, message string) (string, error)
}
