package llm

import (
	"context"
	"strings"
	"time"
)

// RetryConfig bounds the retry-with-backoff behavior for rate-limited calls.
type RetryConfig struct {
	// MaxAttempts is the total number of attempts, including the first.
	MaxAttempts int
	// Backoff is the base wait; attempt n waits n*Backoff before retrying.
	Backoff time.Duration
}

// Retrying wraps a Caller with bounded retry for rate-limit-class failures.
// Any other failure is returned immediately.
type Retrying struct {
	inner Caller
	cfg   RetryConfig

	// sleep is replaceable in tests.
	sleep func(time.Duration)
}

// WithRetry wraps caller so rate-limit errors are retried with linearly
// increasing backoff.
func WithRetry(caller Caller, cfg RetryConfig) *Retrying {
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	return &Retrying{inner: caller, cfg: cfg, sleep: time.Sleep}
}

func (r *Retrying) Name() string { return r.inner.Name() }

func (r *Retrying) Call(ctx context.Context, req Request) (string, error) {
	var lastErr error
	for attempt := 1; attempt <= r.cfg.MaxAttempts; attempt++ {
		content, err := r.inner.Call(ctx, req)
		if err == nil {
			return content, nil
		}
		lastErr = err
		if !isRateLimited(err) || attempt == r.cfg.MaxAttempts {
			return "", err
		}
		r.sleep(time.Duration(attempt) * r.cfg.Backoff)
	}
	return "", lastErr
}

// isRateLimited reports whether the error looks like a provider rate limit.
func isRateLimited(err error) bool {
	s := strings.ToLower(err.Error())
	return strings.Contains(s, "429") ||
		strings.Contains(s, "rate limit") ||
		strings.Contains(s, "rate_limit")
}
