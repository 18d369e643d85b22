package llm

import (
	"context"
	"fmt"
	"math/rand"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// Transcript logs every model request and response for one run to a flat
// file, so screening decisions can be audited after the fact.
type Transcript struct {
	file  *os.File
	mu    sync.Mutex
	runID string
}

// NewTranscript creates a transcript log under dir, named by a fresh run ID.
func NewTranscript(dir string) (*Transcript, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create log directory: %w", err)
	}

	entropy := rand.New(rand.NewSource(time.Now().UnixNano()))
	runID := ulid.MustNew(ulid.Timestamp(time.Now()), entropy).String()

	file, err := os.Create(filepath.Join(dir, fmt.Sprintf("run_%s.log", runID)))
	if err != nil {
		return nil, fmt.Errorf("create transcript file: %w", err)
	}

	t := &Transcript{file: file, runID: runID}
	t.logf("=== Run %s started %s ===\n\n", runID, time.Now().Format(time.RFC3339))
	return t, nil
}

// RunID returns the ULID identifying this run.
func (t *Transcript) RunID() string { return t.runID }

func (t *Transcript) logf(format string, args ...any) {
	t.mu.Lock()
	defer t.mu.Unlock()
	timestamp := time.Now().Format("15:04:05.000")
	fmt.Fprintf(t.file, "[%s] %s", timestamp, fmt.Sprintf(format, args...))
	t.file.Sync()
}

// Request logs an outgoing prompt.
func (t *Transcript) Request(caller, prompt string) {
	t.logf("=== REQUEST (%s) ===\n%s\n\n", caller, prompt)
}

// Response logs a model's reply.
func (t *Transcript) Response(caller, content string) {
	t.logf("=== RESPONSE (%s) ===\n%s\n\n", caller, content)
}

// CallError logs a failed call.
func (t *Transcript) CallError(caller string, err error) {
	t.logf("=== ERROR (%s) ===\n%v\n\n", caller, err)
}

// Close ends the transcript.
func (t *Transcript) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.file == nil {
		return nil
	}
	fmt.Fprintf(t.file, "=== Run complete %s ===\n", time.Now().Format(time.RFC3339))
	err := t.file.Close()
	t.file = nil
	return err
}

// Logged wraps a Caller so every request, response, and error is appended to
// the transcript. A nil transcript passes calls through untouched.
type Logged struct {
	inner Caller
	tr    *Transcript
}

// WithTranscript wraps caller with transcript logging.
func WithTranscript(caller Caller, tr *Transcript) Caller {
	if tr == nil {
		return caller
	}
	return &Logged{inner: caller, tr: tr}
}

func (l *Logged) Name() string { return l.inner.Name() }

func (l *Logged) Call(ctx context.Context, req Request) (string, error) {
	l.tr.Request(l.inner.Name(), req.Prompt)
	content, err := l.inner.Call(ctx, req)
	if err != nil {
		l.tr.CallError(l.inner.Name(), err)
		return "", err
	}
	l.tr.Response(l.inner.Name(), content)
	return content, nil
}
