package chat

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/quantquest/chatbot/internal/logger"
	"github.com/quantquest/chatbot/internal/model/chat"
	"github.com/quantquest/chatbot/internal/service/ai"
)

// ErrorReply is stored as the assistant turn when the remote call fails.
const ErrorReply = "I'm sorry, I'm having technical difficulties right now. Please try again in a moment."

const (
	defaultRateLimit = time.Second
	defaultTimeout   = 30 * time.Second
)

// Config tunes the dispatcher.
type Config struct {
	// RateLimit is the minimum gap between accepted DispatchWithRateLimit
	// calls. Zero means one second; negative disables limiting.
	RateLimit time.Duration
	Timeout   time.Duration
	// Now overrides the clock; nil uses time.Now.
	Now func() time.Time
}

// Service owns the current chat session and turns user text into replies.
type Service struct {
	store     *store
	limiter   *RateLimiter
	responder ai.Responder
	remote    bool
	timeout   time.Duration
	now       func() time.Time
}

// NewService builds a Service and opens its first session.
func NewService(responder ai.Responder, cfg Config) *Service {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	if responder == nil {
		responder = ai.NewDemoResponder(nil)
	}

	rateLimit := cfg.RateLimit
	if rateLimit == 0 {
		rateLimit = defaultRateLimit
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	svc := &Service{
		store:     newStore(now),
		limiter:   NewRateLimiter(rateLimit, now),
		responder: responder,
		remote:    responder.Remote(),
		timeout:   timeout,
		now:       now,
	}
	svc.store.Rotate()
	return svc
}

// ResponderName reports which responder answers dispatches.
func (s *Service) ResponderName() string {
	return s.responder.Name()
}

// Timeout is the longest a remote reply may take.
func (s *Service) Timeout() time.Duration {
	return s.timeout
}

// GetCurrentSession returns a snapshot of the current session.
func (s *Service) GetCurrentSession() (chat.Session, bool) {
	return s.store.Current()
}

// GetMessageHistory returns the current session's messages in order, or an
// empty slice when there is no session.
func (s *Service) GetMessageHistory() []chat.Message {
	return s.store.History()
}

// ClearSession replaces the current session with a fresh empty one.
func (s *Service) ClearSession() chat.Session {
	session := s.store.Rotate()
	logger.InfoWithFields("chat session cleared", logger.Fields{"session_id": session.ID})
	return session
}

// Dispatch records content as a user message, obtains a reply and records it
// as the assistant message, which is returned. Responder failures are logged
// and answered with ErrorReply; Dispatch itself never fails.
func (s *Service) Dispatch(ctx context.Context, content string) chat.Message {
	session := s.store.AppendToCurrent(s.newMessage(chat.RoleUser, content))
	history := s.store.Snapshot(session)

	reply, err := s.respond(ctx, history)
	if err != nil {
		logger.ErrorWithFields("chat responder failed", logger.Fields{
			"session_id": session.ID,
			"responder":  s.responder.Name(),
			"error":      err.Error(),
		})
		reply = ErrorReply
	}

	message := s.newMessage(chat.RoleAssistant, reply)
	s.store.Append(session, message)

	logger.Log.Debugf("dispatch completed session=%s responder=%s length=%d", session.ID, s.responder.Name(), len(reply))
	return message
}

// DispatchWithRateLimit is Dispatch behind the rate limiter. A rejected call
// returns a *RateLimitedError and records nothing.
func (s *Service) DispatchWithRateLimit(ctx context.Context, content string) (chat.Message, error) {
	if retryAfter, ok := s.limiter.reserve(); !ok {
		return chat.Message{}, &RateLimitedError{RetryAfter: retryAfter}
	}
	return s.Dispatch(ctx, content), nil
}

// respond asks the responder for a reply. Local responders answer inline and
// are not subject to the caller's cancellation; remote ones are bounded by
// the timeout.
func (s *Service) respond(ctx context.Context, history []chat.Message) (string, error) {
	if !s.remote {
		return s.responder.Respond(context.WithoutCancel(ctx), history)
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	type result struct {
		reply string
		err   error
	}
	done := make(chan result, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				done <- result{err: fmt.Errorf("responder panic: %v", r)}
			}
		}()
		reply, err := s.responder.Respond(ctx, history)
		done <- result{reply: reply, err: err}
	}()

	select {
	case res := <-done:
		return res.reply, res.err
	case <-ctx.Done():
		return "", fmt.Errorf("responder did not answer: %w", ctx.Err())
	}
}

func (s *Service) newMessage(role chat.Role, content string) chat.Message {
	return chat.Message{
		ID:        uuid.NewString(),
		Role:      role,
		Content:   content,
		Timestamp: s.now().UTC(),
	}
}
