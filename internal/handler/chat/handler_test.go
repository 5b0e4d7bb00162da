package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantquest/chatbot/internal/model/chat"
	"github.com/quantquest/chatbot/internal/model/topic"
	"github.com/quantquest/chatbot/internal/service/ai"
	chatservice "github.com/quantquest/chatbot/internal/service/chat"
)

func setupRouter(cfg chatservice.Config) (*chi.Mux, *chatservice.Service) {
	chatSvc := chatservice.NewService(ai.NewDemoResponder(nil), cfg)
	handler := New(chatSvc)

	r := chi.NewRouter()
	handler.RegisterRoutes(r)
	return r, chatSvc
}

func postMessage(r http.Handler, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/chat/messages", bytes.NewReader([]byte(body)))
	req.Header.Set("Content-Type", "application/json")
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	return resp
}

func TestSendMessageReturnsAssistantReply(t *testing.T) {
	r, chatSvc := setupRouter(chatservice.Config{})

	resp := postMessage(r, `{"content":"What's VaR?"}`)
	require.Equal(t, http.StatusOK, resp.Code)

	var got chat.Message
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &got))
	assert.Equal(t, chat.RoleAssistant, got.Role)
	assert.Equal(t, ai.FallbackReply("var"), got.Content)
	assert.Len(t, chatSvc.GetMessageHistory(), 2)
}

func TestSendMessageRejectsBlankContent(t *testing.T) {
	r, chatSvc := setupRouter(chatservice.Config{})

	resp := postMessage(r, `{"content":"   "}`)
	assert.Equal(t, http.StatusBadRequest, resp.Code)
	assert.Empty(t, chatSvc.GetMessageHistory())
}

func TestSendMessageRejectsInvalidBody(t *testing.T) {
	r, _ := setupRouter(chatservice.Config{})

	resp := postMessage(r, `not json`)
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestSendMessageRateLimited(t *testing.T) {
	now := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	r, chatSvc := setupRouter(chatservice.Config{Now: func() time.Time { return now }})

	require.Equal(t, http.StatusOK, postMessage(r, `{"content":"beta"}`).Code)

	resp := postMessage(r, `{"content":"alpha"}`)
	require.Equal(t, http.StatusTooManyRequests, resp.Code)
	assert.Equal(t, "1", resp.Header().Get("Retry-After"))
	assert.Contains(t, resp.Body.String(), chatservice.RateLimitedMessage)
	assert.Len(t, chatSvc.GetMessageHistory(), 2)
}

func TestSendMessageRetryAfterRoundsUp(t *testing.T) {
	now := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	r, _ := setupRouter(chatservice.Config{
		RateLimit: 2 * time.Second,
		Now:       func() time.Time { return now },
	})

	require.Equal(t, http.StatusOK, postMessage(r, `{"content":"beta"}`).Code)

	now = now.Add(500 * time.Millisecond)
	resp := postMessage(r, `{"content":"alpha"}`)
	require.Equal(t, http.StatusTooManyRequests, resp.Code)
	assert.Equal(t, "2", resp.Header().Get("Retry-After"))
}

func TestClearSessionEmptiesHistory(t *testing.T) {
	r, chatSvc := setupRouter(chatservice.Config{})
	require.Equal(t, http.StatusOK, postMessage(r, `{"content":"python"}`).Code)
	before, _ := chatSvc.GetCurrentSession()

	req := httptest.NewRequest(http.MethodDelete, "/chat/session", nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	require.Equal(t, http.StatusOK, resp.Code)

	var session chat.Session
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &session))
	assert.NotEqual(t, before.ID, session.ID)

	req = httptest.NewRequest(http.MethodGet, "/chat/messages", nil)
	resp = httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	require.Equal(t, http.StatusOK, resp.Code)
	assert.JSONEq(t, `[]`, resp.Body.String())
}

func TestGetSession(t *testing.T) {
	r, chatSvc := setupRouter(chatservice.Config{})
	current, ok := chatSvc.GetCurrentSession()
	require.True(t, ok)

	req := httptest.NewRequest(http.MethodGet, "/chat/session", nil)
	resp := httptest.NewRecorder()
	r.ServeHTTP(resp, req)
	require.Equal(t, http.StatusOK, resp.Code)

	var got chat.Session
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &got))
	assert.Equal(t, current.ID, got.ID)
}

func readFrame(t *testing.T, conn *websocket.Conn) map[string]json.RawMessage {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	var frame map[string]json.RawMessage
	require.NoError(t, conn.ReadJSON(&frame))
	return frame
}

func frameType(t *testing.T, frame map[string]json.RawMessage) string {
	t.Helper()
	var kind string
	require.NoError(t, json.Unmarshal(frame["type"], &kind))
	return kind
}

func TestWebSocketConversation(t *testing.T) {
	now := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	r, chatSvc := setupRouter(chatservice.Config{Now: func() time.Time { return now }})
	srv := httptest.NewServer(r)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/chat/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	assert.Equal(t, "history", frameType(t, readFrame(t, conn)))

	require.NoError(t, conn.WriteJSON(map[string]any{"type": "text", "data": map[string]string{"text": "Black-Scholes?"}}))
	frame := readFrame(t, conn)
	require.Equal(t, "message", frameType(t, frame))
	var reply chat.Message
	require.NoError(t, json.Unmarshal(frame["data"], &reply))
	bs, _ := topic.NewMemoryStore(topic.Seed()).FindByID("black-scholes")
	assert.Equal(t, bs.Reply, reply.Content)

	require.NoError(t, conn.WriteJSON(map[string]any{"type": "text", "data": map[string]string{"text": "again"}}))
	assert.Equal(t, "warning", frameType(t, readFrame(t, conn)))
	assert.Len(t, chatSvc.GetMessageHistory(), 2)

	require.NoError(t, conn.WriteJSON(map[string]any{"type": "clear"}))
	assert.Equal(t, "cleared", frameType(t, readFrame(t, conn)))
	assert.Empty(t, chatSvc.GetMessageHistory())

	require.NoError(t, conn.WriteJSON(map[string]any{"type": "dance"}))
	assert.Equal(t, "error", frameType(t, readFrame(t, conn)))
}

type slowResponder struct {
	delay time.Duration
}

func (s slowResponder) Respond(ctx context.Context, _ []chat.Message) (string, error) {
	select {
	case <-time.After(s.delay):
		return "worth the wait", nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func (s slowResponder) Name() string { return "slow" }

func (s slowResponder) Remote() bool { return true }

func TestWebSocketSurvivesReplySlowerThanPongWait(t *testing.T) {
	chatSvc := chatservice.NewService(slowResponder{delay: 500 * time.Millisecond}, chatservice.Config{Timeout: 2 * time.Second})
	handler := New(chatSvc)
	handler.ws.pongWait = 300 * time.Millisecond

	r := chi.NewRouter()
	handler.RegisterRoutes(r)
	srv := httptest.NewServer(r)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/chat/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	assert.Equal(t, "history", frameType(t, readFrame(t, conn)))

	require.NoError(t, conn.WriteJSON(map[string]any{"type": "text", "data": map[string]string{"text": "slow question"}}))
	frame := readFrame(t, conn)
	require.Equal(t, "message", frameType(t, frame))
	var reply chat.Message
	require.NoError(t, json.Unmarshal(frame["data"], &reply))
	assert.Equal(t, "worth the wait", reply.Content)

	require.NoError(t, conn.WriteJSON(map[string]any{"type": "history"}))
	assert.Equal(t, "history", frameType(t, readFrame(t, conn)))
}
