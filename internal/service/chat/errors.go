package chat

import (
	"errors"
	"time"
)

var (
	ErrRateLimited     = errors.New("rate limited")
	ErrSessionNotFound = errors.New("session not found")
)

// RateLimitedMessage is shown to the user when a dispatch is rejected.
const RateLimitedMessage = "Please wait a moment before sending another message."

// RateLimitedError is returned by DispatchWithRateLimit when the call arrives
// sooner than the configured interval after the previous accepted one.
type RateLimitedError struct {
	RetryAfter time.Duration
}

func (e *RateLimitedError) Error() string {
	return RateLimitedMessage
}

// Is matches ErrRateLimited.
func (e *RateLimitedError) Is(target error) bool {
	return target == ErrRateLimited
}
