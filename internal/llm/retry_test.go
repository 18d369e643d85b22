package llm

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubCaller struct {
	errs  []error
	calls int
}

func (s *stubCaller) Name() string { return "stub" }

func (s *stubCaller) Call(context.Context, Request) (string, error) {
	i := s.calls
	s.calls++
	if i < len(s.errs) && s.errs[i] != nil {
		return "", s.errs[i]
	}
	return "ok", nil
}

func TestWithRetry_RateLimitRetriedWithLinearBackoff(t *testing.T) {
	inner := &stubCaller{errs: []error{
		errors.New("429 Too Many Requests"),
		errors.New("rate limit exceeded"),
	}}
	var slept []time.Duration
	r := WithRetry(inner, RetryConfig{MaxAttempts: 4, Backoff: time.Second})
	r.sleep = func(d time.Duration) { slept = append(slept, d) }

	content, err := r.Call(context.Background(), Request{Prompt: "p"})
	require.NoError(t, err)
	assert.Equal(t, "ok", content)
	assert.Equal(t, 3, inner.calls)
	assert.Equal(t, []time.Duration{1 * time.Second, 2 * time.Second}, slept)
}

func TestWithRetry_NonRateLimitFailsImmediately(t *testing.T) {
	inner := &stubCaller{errs: []error{errors.New("invalid api key")}}
	r := WithRetry(inner, RetryConfig{MaxAttempts: 4, Backoff: time.Second})
	r.sleep = func(time.Duration) { t.Fatal("must not sleep on a non-retryable error") }

	_, err := r.Call(context.Background(), Request{})
	assert.Error(t, err)
	assert.Equal(t, 1, inner.calls)
}

func TestWithRetry_GivesUpAfterMaxAttempts(t *testing.T) {
	inner := &stubCaller{errs: []error{
		errors.New("429"), errors.New("429"), errors.New("429"),
	}}
	r := WithRetry(inner, RetryConfig{MaxAttempts: 3, Backoff: time.Millisecond})
	r.sleep = func(time.Duration) {}

	_, err := r.Call(context.Background(), Request{})
	require.Error(t, err)
	assert.Equal(t, 3, inner.calls)
}

func TestIsRateLimited(t *testing.T) {
	assert.True(t, isRateLimited(errors.New("HTTP 429")))
	assert.True(t, isRateLimited(errors.New("Rate Limit hit")))
	assert.True(t, isRateLimited(errors.New("error code rate_limit_exceeded")))
	assert.False(t, isRateLimited(errors.New("connection refused")))
}

func TestTranscript_LogsRequestsAndResponses(t *testing.T) {
	dir := t.TempDir()
	tr, err := NewTranscript(dir)
	require.NoError(t, err)
	require.Len(t, tr.RunID(), 26, "run ID is a ULID")

	tr.Request("kimi", "what is the answer")
	tr.Response("kimi", "ANSWER: B")
	tr.CallError("gemini", errors.New("timeout"))
	require.NoError(t, tr.Close())

	data, err := os.ReadFile(filepath.Join(dir, "run_"+tr.RunID()+".log"))
	require.NoError(t, err)
	log := string(data)
	assert.Contains(t, log, "what is the answer")
	assert.Contains(t, log, "ANSWER: B")
	assert.Contains(t, log, "timeout")
}

func TestWithTranscript_PassesThrough(t *testing.T) {
	tr, err := NewTranscript(t.TempDir())
	require.NoError(t, err)
	defer tr.Close()

	inner := &stubCaller{}
	wrapped := WithTranscript(inner, tr)

	content, err := wrapped.Call(context.Background(), Request{Prompt: "p"})
	require.NoError(t, err)
	assert.Equal(t, "ok", content)
	assert.Equal(t, "stub", wrapped.Name())
}
