package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ewilliams-labs/kisanmandi/backend/internal/adapters/sqlite"
	"github.com/ewilliams-labs/kisanmandi/backend/internal/core/chatbot"
	"github.com/ewilliams-labs/kisanmandi/backend/internal/core/domain"
	"github.com/ewilliams-labs/kisanmandi/backend/internal/core/ports"
	"github.com/ewilliams-labs/kisanmandi/backend/internal/core/services"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// --- Mocks ---

type mockAdvisor struct {
	answer string
	err    error
}

func (m *mockAdvisor) Advise(ctx context.Context, topic domain.Topic, message string) (string, error) {
	return m.answer, m.err
}

type mockLimiter struct {
	allowed bool
	err     error
	keys    []string
}

func (m *mockLimiter) Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	m.keys = append(m.keys, key)
	return m.allowed, m.err
}

type testEnv struct {
	handler *Handler
	store   *sqlite.Adapter
}

func newTestEnv(t *testing.T, advisor ports.Advisor, opts ...Option) testEnv {
	t.Helper()

	store, err := sqlite.NewAdapter(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	catalog, err := services.LoadCatalog(context.Background(), store, store, domain.DefaultPriceRows())
	require.NoError(t, err)

	fixed := time.Date(2026, time.October, 16, 9, 30, 0, 0, time.UTC)
	responder := chatbot.NewResponder(catalog.Table(), chatbot.WithClock(func() time.Time { return fixed }))
	chat := services.NewChat(responder, advisor, nil, nil)

	return testEnv{handler: NewHandler(chat, catalog, nil, opts...), store: store}
}

func doJSON(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != "" {
		reader = bytes.NewReader([]byte(body))
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func decode(t *testing.T, rr *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out), rr.Body.String())
	return out
}

// --- Tests ---

func TestHealthCheck(t *testing.T) {
	env := newTestEnv(t, nil)
	rr := doJSON(t, env.handler, http.MethodGet, "/health", "")

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "ok", decode(t, rr)["status"])
	assert.NotEmpty(t, rr.Header().Get(requestIDHeader))
}

func TestReady(t *testing.T) {
	tests := []struct {
		name       string
		check      func(ctx context.Context) error
		wantStatus int
	}{
		{name: "No check", wantStatus: http.StatusOK},
		{name: "Check ok", check: func(ctx context.Context) error { return nil }, wantStatus: http.StatusOK},
		{name: "Check fails", check: func(ctx context.Context) error { return errors.New("db gone") }, wantStatus: http.StatusServiceUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var opts []Option
			if tt.check != nil {
				opts = append(opts, WithReadiness(tt.check))
			}
			env := newTestEnv(t, nil, opts...)
			rr := doJSON(t, env.handler, http.MethodGet, "/ready", "")
			assert.Equal(t, tt.wantStatus, rr.Code)
		})
	}
}

func TestChat(t *testing.T) {
	tests := []struct {
		name         string
		advisor      ports.Advisor
		body         string
		contentType  string
		wantStatus   int
		wantIntent   string
		wantSource   string
		wantContains string
		wantCode     string
	}{
		{
			name:         "Price question answered by rules",
			body:         `{"message":"What is the current WHEAT price?"}`,
			wantStatus:   http.StatusOK,
			wantIntent:   "price",
			wantSource:   "rules",
			wantContains: "**Wheat Price**",
		},
		{
			name:         "Missing message falls back",
			body:         `{}`,
			wantStatus:   http.StatusOK,
			wantIntent:   "fallback",
			wantSource:   "rules",
			wantContains: "I didn't understand that.",
		},
		{
			name:         "Advisor answer wins",
			advisor:      &mockAdvisor{answer: "Irrigate every ten days."},
			body:         `{"message":"how often to water wheat","type":"agronomy"}`,
			wantStatus:   http.StatusOK,
			wantIntent:   "advisor",
			wantSource:   "advisor",
			wantContains: "Irrigate every ten days.",
		},
		{
			name:         "Advisor unavailable falls back to rules",
			advisor:      &mockAdvisor{err: fmt.Errorf("llm: %w", ports.ErrAdvisorUnavailable)},
			body:         `{"message":"hello"}`,
			wantStatus:   http.StatusOK,
			wantIntent:   "greeting",
			wantSource:   "rules",
			wantContains: "Hello!",
		},
		{
			name:       "Advisor unauthorized",
			advisor:    &mockAdvisor{err: fmt.Errorf("llm: %w", ports.ErrAdvisorUnauthorized)},
			body:       `{"message":"hello"}`,
			wantStatus: http.StatusBadGateway,
			wantCode:   codeAdvisorUnauthorized,
		},
		{
			name:       "Invalid JSON",
			body:       `{"message":`,
			wantStatus: http.StatusBadRequest,
			wantCode:   codeInvalidRequest,
		},
		{
			name:        "Wrong content type",
			body:        `{"message":"hello"}`,
			contentType: "text/plain",
			wantStatus:  http.StatusUnsupportedMediaType,
			wantCode:    codeUnsupportedMedia,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, tt.advisor)

			req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(tt.body))
			ct := tt.contentType
			if ct == "" {
				ct = "application/json; charset=utf-8"
			}
			req.Header.Set("Content-Type", ct)
			rr := httptest.NewRecorder()
			env.handler.ServeHTTP(rr, req)

			require.Equal(t, tt.wantStatus, rr.Code, rr.Body.String())
			out := decode(t, rr)
			if tt.wantCode != "" {
				assert.Equal(t, tt.wantCode, out["code"])
				return
			}
			assert.Equal(t, tt.wantIntent, out["intent"])
			assert.Equal(t, tt.wantSource, out["source"])
			assert.Contains(t, out["bot_response"], tt.wantContains)
			assert.NotEmpty(t, out["id"])
		})
	}
}

func TestChat_RateLimit(t *testing.T) {
	tests := []struct {
		name       string
		limiter    *mockLimiter
		wantStatus int
	}{
		{name: "Allowed", limiter: &mockLimiter{allowed: true}, wantStatus: http.StatusOK},
		{name: "Denied", limiter: &mockLimiter{allowed: false}, wantStatus: http.StatusTooManyRequests},
		{name: "Limiter error fails open", limiter: &mockLimiter{err: errors.New("redis down")}, wantStatus: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, nil, WithRateLimiter(tt.limiter, 5, time.Minute))
			rr := doJSON(t, env.handler, http.MethodPost, "/api/chat", `{"message":"hi"}`)

			assert.Equal(t, tt.wantStatus, rr.Code)
			require.Len(t, tt.limiter.keys, 1)
			assert.True(t, strings.HasPrefix(tt.limiter.keys[0], "chat:"))
			if tt.wantStatus == http.StatusTooManyRequests {
				assert.Equal(t, "60", rr.Header().Get("Retry-After"))
				assert.Equal(t, codeRateLimited, decode(t, rr)["code"])
			}
		})
	}
}

func TestListPrices(t *testing.T) {
	env := newTestEnv(t, nil)
	rr := doJSON(t, env.handler, http.MethodGet, "/api/prices", "")
	require.Equal(t, http.StatusOK, rr.Code)

	var out struct {
		Prices []struct {
			Commodity    string `json:"commodity"`
			Price        string `json:"price"`
			DisplayPrice string `json:"display_price"`
			Unit         string `json:"unit"`
			Market       string `json:"market"`
		} `json:"prices"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out))
	require.Len(t, out.Prices, 4)
	assert.Equal(t, "wheat", out.Prices[0].Commodity)
	assert.Equal(t, "2350", out.Prices[0].Price)
	assert.Equal(t, "₹2350.00", out.Prices[0].DisplayPrice)
	assert.Equal(t, "quintal", out.Prices[0].Unit)
	assert.Equal(t, "Punjab", out.Prices[0].Market)
	assert.Equal(t, "potato", out.Prices[3].Commodity)
}

func TestChatStats(t *testing.T) {
	env := newTestEnv(t, nil)
	ctx := context.Background()
	now := time.Now()
	require.NoError(t, env.store.RecordIntentHit(ctx, domain.IntentPrice, now))
	require.NoError(t, env.store.RecordIntentHit(ctx, domain.IntentPrice, now))
	require.NoError(t, env.store.RecordIntentHit(ctx, domain.IntentFallback, now))

	rr := doJSON(t, env.handler, http.MethodGet, "/api/chat/stats", "")
	require.Equal(t, http.StatusOK, rr.Code)

	var out struct {
		Total   int64               `json:"total"`
		Intents []domain.IntentStat `json:"intents"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &out))
	assert.Equal(t, int64(3), out.Total)
	require.Len(t, out.Intents, 2)
	assert.Equal(t, domain.IntentPrice, out.Intents[0].Intent)
	assert.Equal(t, int64(2), out.Intents[0].Count)
}

func TestValidate(t *testing.T) {
	env := newTestEnv(t, nil)
	rr := doJSON(t, env.handler, http.MethodPost, "/api/validate",
		`{"email":"farmer@kisan.in","password":"weakpass","phone":"98765-43210"}`)
	require.Equal(t, http.StatusOK, rr.Code)

	out := decode(t, rr)
	assert.Equal(t, true, out["email"])
	assert.Equal(t, true, out["phone"])
	pw, ok := out["password"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, false, pw["is_valid"])
	assert.Equal(t, float64(2), pw["strength"])

	rr = doJSON(t, env.handler, http.MethodPost, "/api/validate", `{"email":"nope"}`)
	require.Equal(t, http.StatusOK, rr.Code)
	out = decode(t, rr)
	assert.Equal(t, false, out["email"])
	assert.NotContains(t, out, "phone")
	assert.NotContains(t, out, "password")
}

func TestCORS(t *testing.T) {
	tests := []struct {
		name       string
		origins    []string
		origin     string
		wantHeader string
	}{
		{name: "Any origin", origins: []string{"*"}, origin: "http://farm.example", wantHeader: "*"},
		{name: "Listed origin", origins: []string{"http://farm.example"}, origin: "http://farm.example", wantHeader: "http://farm.example"},
		{name: "Unlisted origin", origins: []string{"http://farm.example"}, origin: "http://evil.example", wantHeader: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t, nil, WithAllowedOrigins(tt.origins))
			req := httptest.NewRequest(http.MethodOptions, "/api/chat", nil)
			req.Header.Set("Origin", tt.origin)
			rr := httptest.NewRecorder()
			env.handler.ServeHTTP(rr, req)

			assert.Equal(t, http.StatusNoContent, rr.Code)
			assert.Equal(t, tt.wantHeader, rr.Header().Get("Access-Control-Allow-Origin"))
		})
	}
}
