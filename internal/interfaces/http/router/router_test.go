package router

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appconv "github.com/storefront/backend/internal/application/conversation"
	"github.com/storefront/backend/internal/interfaces/http/handler"
)

type echoDialog struct{}

func (echoDialog) Handle(_ context.Context, msg appconv.IncomingMessage) (*appconv.Reply, error) {
	return &appconv.Reply{
		CustomerID: uuid.New(),
		Text:       "echo: " + msg.Text,
		Language:   appconv.LanguageEnglish,
	}, nil
}

func newTestEngine() http.Handler {
	webhook := handler.NewWebhookHandler(echoDialog{}, nil)
	admin := handler.NewAdminHandler(nil, nil, nil, nil)
	return New(Config{}, webhook, admin)
}

func TestRouter_Health(t *testing.T) {
	engine := newTestEngine()

	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "ok")
}

func TestRouter_RequestIDHeader(t *testing.T) {
	engine := newTestEngine()

	t.Run("generates an id when absent", func(t *testing.T) {
		rec := httptest.NewRecorder()
		engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

		assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
	})

	t.Run("echoes a supplied id", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		req.Header.Set("X-Request-ID", "req-42")
		rec := httptest.NewRecorder()
		engine.ServeHTTP(rec, req)

		assert.Equal(t, "req-42", rec.Header().Get("X-Request-ID"))
	})
}

func TestRouter_WebhookRoute(t *testing.T) {
	engine := newTestEngine()

	req := httptest.NewRequest(http.MethodPost, "/webhook/whatsapp",
		strings.NewReader(`{"from":"+9613080203","text":"hello"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "echo: hello")
}

func TestRouter_BodyLimit(t *testing.T) {
	webhook := handler.NewWebhookHandler(echoDialog{}, nil)
	admin := handler.NewAdminHandler(nil, nil, nil, nil)
	engine := New(Config{MaxBodySize: 64}, webhook, admin)

	big := `{"from":"+9613080203","text":"` + strings.Repeat("a", 200) + `"}`
	req := httptest.NewRequest(http.MethodPost, "/webhook/whatsapp", strings.NewReader(big))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}
