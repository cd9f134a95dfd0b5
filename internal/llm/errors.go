package llm

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
)

// ErrNotConfigured indicates no usable credential was found when the
// provider was constructed. It is fatal at startup.
var ErrNotConfigured = errors.New("llm provider not configured")

// ErrEmptyConversation is returned when Generate is called with no messages.
var ErrEmptyConversation = errors.New("conversation has no messages")

// ErrCallFailed indicates the outbound request to the vendor failed
// (network, authentication, quota, server error). It is never retried.
type ErrCallFailed struct {
	Provider   string
	StatusCode int // 0 when the failure happened before a response
	Err        error
}

func (e *ErrCallFailed) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s call failed (status %d): %v", e.Provider, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s call failed: %v", e.Provider, e.Err)
}

func (e *ErrCallFailed) Unwrap() error { return e.Err }

// ErrRateLimit indicates the provider returned a rate limit error (429).
// It is a refinement of ErrCallFailed; errors.As matches both.
type ErrRateLimit struct {
	// RetryAfter is the vendor's Retry-After hint, zero when none was sent
	// or the SDK does not expose response headers.
	RetryAfter time.Duration
	Err        *ErrCallFailed
}

func (e *ErrRateLimit) Error() string {
	if e.RetryAfter > 0 {
		return fmt.Sprintf("rate limited (retry after %s): %v", e.RetryAfter, e.Err)
	}
	return fmt.Sprintf("rate limited: %v", e.Err)
}

func (e *ErrRateLimit) Unwrap() error { return e.Err }

// callFailed builds the error an adapter returns for a failed call.
func callFailed(provider string, status int, err error) error {
	cf := &ErrCallFailed{Provider: provider, StatusCode: status, Err: err}
	if status == 429 {
		return &ErrRateLimit{Err: cf}
	}
	return cf
}

// withRetryAfter copies the Retry-After hint from h onto a rate limit error.
func withRetryAfter(err error, h http.Header) error {
	var rl *ErrRateLimit
	if h == nil || !errors.As(err, &rl) {
		return err
	}
	rl.RetryAfter = parseRetryAfter(h.Get("Retry-After"), time.Now())
	return err
}

// parseRetryAfter accepts delay-seconds or an HTTP date.
func parseRetryAfter(v string, now time.Time) time.Duration {
	v = strings.TrimSpace(v)
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil {
		if secs < 0 {
			return 0
		}
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(v); err == nil && t.After(now) {
		return t.Sub(now)
	}
	return 0
}
