package services

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ewilliams-labs/kisanmandi/backend/internal/core/chatbot"
	"github.com/ewilliams-labs/kisanmandi/backend/internal/core/domain"
	"github.com/ewilliams-labs/kisanmandi/backend/internal/core/ports"
)

type mockAdvisor struct {
	answer    string
	err       error
	called    bool
	gotTopic  domain.Topic
	gotPrompt string
}

func (m *mockAdvisor) Advise(ctx context.Context, topic domain.Topic, message string) (string, error) {
	m.called = true
	m.gotTopic = topic
	m.gotPrompt = message
	return m.answer, m.err
}

type mockRecorder struct {
	hits []domain.Intent
}

func (m *mockRecorder) Record(intent domain.Intent, at time.Time) {
	m.hits = append(m.hits, intent)
}

func newResponder(t *testing.T) *chatbot.Responder {
	t.Helper()
	table, err := domain.NewPriceTable(domain.DefaultPriceRows())
	require.NoError(t, err)
	return chatbot.NewResponder(table)
}

func TestChat_Reply(t *testing.T) {
	tests := []struct {
		name       string
		advisor    *mockAdvisor
		message    string
		wantErr    error
		wantSource domain.ReplySource
		wantIntent domain.Intent
		wantText   string
	}{
		{
			name:       "no advisor uses rules",
			advisor:    nil,
			message:    "how do I sell my crop",
			wantSource: domain.SourceRules,
			wantIntent: domain.IntentSelling,
			wantText:   "Connect buyers",
		},
		{
			name:       "advisor answer is used",
			advisor:    &mockAdvisor{answer: "  Sow wheat in November.  "},
			message:    "when to sow wheat",
			wantSource: domain.SourceAdvisor,
			wantIntent: domain.IntentAdvisor,
			wantText:   "Sow wheat in November.",
		},
		{
			name:       "quota error falls back to rules",
			advisor:    &mockAdvisor{err: fmt.Errorf("llm: %w: status 429", ports.ErrAdvisorUnavailable)},
			message:    "wheat price",
			wantSource: domain.SourceRules,
			wantIntent: domain.IntentPrice,
			wantText:   "Punjab",
		},
		{
			name:       "empty answer falls back to rules",
			advisor:    &mockAdvisor{answer: "   "},
			message:    "hello",
			wantSource: domain.SourceRules,
			wantIntent: domain.IntentGreeting,
		},
		{
			name:    "unauthorized advisor surfaces error",
			advisor: &mockAdvisor{err: fmt.Errorf("llm: %w", ports.ErrAdvisorUnauthorized)},
			message: "hello",
			wantErr: ports.ErrAdvisorUnauthorized,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := &mockRecorder{}
			var advisor ports.Advisor
			if tc.advisor != nil {
				advisor = tc.advisor
			}
			svc := NewChat(newResponder(t), advisor, rec, nil)

			got, err := svc.Reply(context.Background(), domain.TopicAgronomy, tc.message)
			if tc.wantErr != nil {
				require.True(t, errors.Is(err, tc.wantErr), "expected %v, got %v", tc.wantErr, err)
				assert.Empty(t, rec.hits)
				return
			}
			require.NoError(t, err)

			assert.NotEmpty(t, got.ID)
			assert.Equal(t, tc.message, got.UserMessage)
			assert.Equal(t, tc.wantSource, got.Source)
			assert.Equal(t, tc.wantIntent, got.Intent)
			assert.Contains(t, got.BotResponse, tc.wantText)
			assert.False(t, got.CreatedAt.IsZero())
			assert.Equal(t, []domain.Intent{tc.wantIntent}, rec.hits)
			if tc.advisor != nil {
				assert.True(t, tc.advisor.called)
				assert.Equal(t, domain.TopicAgronomy, tc.advisor.gotTopic)
				assert.Equal(t, tc.message, tc.advisor.gotPrompt)
			}
		})
	}
}

func TestChat_NilRecorder(t *testing.T) {
	svc := NewChat(newResponder(t), nil, nil, nil)
	got, err := svc.Reply(context.Background(), domain.TopicGeneral, "")
	require.NoError(t, err)
	assert.Equal(t, domain.IntentFallback, got.Intent)
}
