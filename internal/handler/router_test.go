package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantquest/chatbot/internal/model/topic"
	"github.com/quantquest/chatbot/internal/service/ai"
	chatService "github.com/quantquest/chatbot/internal/service/chat"
)

func newTestRouter() http.Handler {
	topics := topic.NewMemoryStore(topic.Seed())
	chatSvc := chatService.NewService(ai.NewDemoResponder(topics), chatService.Config{})
	return NewRouter(topics, chatSvc, []string{"https://quantquest.example"})
}

func TestHealthz(t *testing.T) {
	r := newTestRouter()

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	require.Equal(t, http.StatusOK, resp.Code)
	assert.JSONEq(t, `{"status":"ok","responder":"demo"}`, resp.Body.String())
}

func TestAPIRoutesMounted(t *testing.T) {
	r := newTestRouter()

	for _, path := range []string{"/api/topics", "/api/chat/messages", "/api/chat/session"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		resp := httptest.NewRecorder()
		r.ServeHTTP(resp, req)
		assert.Equal(t, http.StatusOK, resp.Code, path)
	}
}

func TestCORSAllowsConfiguredOrigin(t *testing.T) {
	r := newTestRouter()

	req := httptest.NewRequest(http.MethodGet, "/api/topics", nil)
	req.Header.Set("Origin", "https://quantquest.example")
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	assert.Equal(t, "https://quantquest.example", resp.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/api/topics", nil)
	req.Header.Set("Origin", "https://elsewhere.example")
	resp = httptest.NewRecorder()
	r.ServeHTTP(resp, req)

	assert.Empty(t, resp.Header().Get("Access-Control-Allow-Origin"))
}
