package chat

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/quantquest/chatbot/internal/logger"
	chatService "github.com/quantquest/chatbot/internal/service/chat"
)

const (
	defaultPongWait = 60 * time.Second
	pingPeriod      = 30 * time.Second
	writeWait  = 10 * time.Second
)

// WebSocketHandler lets the widget keep one socket open for the whole
// conversation.
type WebSocketHandler struct {
	chatSvc  *chatService.Service
	upgrader websocket.Upgrader
	pongWait time.Duration
}

// NewWebSocketHandler creates a WebSocket handler.
func NewWebSocketHandler(chatSvc *chatService.Service) *WebSocketHandler {
	return &WebSocketHandler{
		chatSvc: chatSvc,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		pongWait: defaultPongWait,
	}
}

type inboundMessage struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// TextMessage is the payload of a "text" frame.
type TextMessage struct {
	Text string `json:"text"`
}

type outgoingMessage struct {
	Type      string      `json:"type"`
	Data      interface{} `json:"data,omitempty"`
	Timestamp int64       `json:"timestamp"`
}

func (h *WebSocketHandler) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Log.Warnf("[websocket] upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	conn.SetReadDeadline(time.Now().Add(h.pongWait))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(h.pongWait))
		return nil
	})

	writes := make(chan outgoingMessage, 8)
	go h.writeLoop(ctx, cancel, conn, writes)

	h.send(ctx, writes, "history", h.chatSvc.GetMessageHistory())

	for {
		var msg inboundMessage
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				logger.Log.Warnf("[websocket] read error: %v", err)
			}
			return
		}
		// Pongs are not read while a reply is pending, so leave room for
		// the slowest dispatch.
		conn.SetReadDeadline(time.Now().Add(h.pongWait + h.chatSvc.Timeout()))

		h.handleMessage(ctx, writes, &msg)
	}
}

func (h *WebSocketHandler) handleMessage(ctx context.Context, writes chan<- outgoingMessage, msg *inboundMessage) {
	switch msg.Type {
	case "text":
		var text TextMessage
		if err := json.Unmarshal(msg.Data, &text); err != nil {
			h.send(ctx, writes, "error", "invalid text payload")
			return
		}
		if err := validateContent(text.Text); err != nil {
			h.send(ctx, writes, "error", err.Error())
			return
		}

		reply, err := h.chatSvc.DispatchWithRateLimit(ctx, text.Text)
		if err != nil {
			if errors.Is(err, chatService.ErrRateLimited) {
				h.send(ctx, writes, "warning", err.Error())
				return
			}
			h.send(ctx, writes, "error", err.Error())
			return
		}
		h.send(ctx, writes, "message", reply)
	case "history":
		h.send(ctx, writes, "history", h.chatSvc.GetMessageHistory())
	case "clear":
		h.send(ctx, writes, "cleared", h.chatSvc.ClearSession())
	default:
		h.send(ctx, writes, "error", "unsupported message type: "+msg.Type)
	}
}

func (h *WebSocketHandler) send(ctx context.Context, writes chan<- outgoingMessage, kind string, data interface{}) {
	msg := outgoingMessage{Type: kind, Data: data, Timestamp: time.Now().UnixMilli()}
	select {
	case writes <- msg:
	case <-ctx.Done():
	}
}

// writeLoop is the only goroutine writing to conn. When it stops it cancels
// ctx and closes conn so the read loop unblocks too.
func (h *WebSocketHandler) writeLoop(ctx context.Context, cancel context.CancelFunc, conn *websocket.Conn, writes <-chan outgoingMessage) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		cancel()
		conn.Close()
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case msg := <-writes:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(msg); err != nil {
				logger.Log.Warnf("[websocket] write failed: %v", err)
				return
			}
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				logger.Log.Warnf("[websocket] ping failed: %v", err)
				return
			}
		}
	}
}
