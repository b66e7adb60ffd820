package rest

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/flowrev/internal/logging"
)

// recordingLogger keeps the messages and key-value args of every call.
type recordingLogger struct {
	mu      sync.Mutex
	entries []recorded
}

type recorded struct {
	level string
	msg   string
	args  []any
}

func (r *recordingLogger) add(level, msg string, args []any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = append(r.entries, recorded{level: level, msg: msg, args: args})
}

func (r *recordingLogger) Debug(_ context.Context, msg string, args ...any) {
	r.add("debug", msg, args)
}
func (r *recordingLogger) Info(_ context.Context, msg string, args ...any) { r.add("info", msg, args) }
func (r *recordingLogger) Warn(_ context.Context, msg string, args ...any) { r.add("warn", msg, args) }
func (r *recordingLogger) Error(_ context.Context, msg string, args ...any) {
	r.add("error", msg, args)
}
func (r *recordingLogger) With(...any) logging.Logger { return r }

func (r *recordingLogger) find(msg string) []recorded {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []recorded
	for _, e := range r.entries {
		if e.msg == msg {
			out = append(out, e)
		}
	}
	return out
}

func TestRun_StopsOnContextCancel(t *testing.T) {
	t.Parallel()

	srv := NewServer(Options{Address: "127.0.0.1:0", ShutdownTimeout: time.Second}, logging.Nop(), nil, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan error, 1)
	go func() {
		done <- srv.Run(ctx)
	}()

	select {
	case err := <-done:
		t.Fatalf("server exited too early: %v", err)
	case <-time.After(150 * time.Millisecond):
	}

	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run returned error on graceful stop: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("server did not stop within timeout after context cancel")
	}
}

func TestRun_ReturnsErrorOnBadAddress(t *testing.T) {
	t.Parallel()

	srv := NewServer(Options{Address: "127.0.0.1:99999"}, logging.Nop(), nil, nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := srv.Run(ctx); err == nil {
		t.Fatal("expected error from Run on bad address, got nil")
	}
}

func TestRequestLogger(t *testing.T) {
	rl := &recordingLogger{}
	srv := NewServer(Options{}, rl, nil, nil, nil)

	req := httptest.NewRequest(http.MethodGet, "/ping?x=1", nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	lines := rl.find("request")
	require.Len(t, lines, 1)
	assert.Equal(t, "info", lines[0].level)
	assert.Equal(t, []any{"method", "GET", "uri", "/ping?x=1", "status", 200}, lines[0].args[:6])
}

func TestHandleError_LogsServerErrorsOnly(t *testing.T) {
	rl := &recordingLogger{}
	srv := NewServer(Options{}, rl, nil, nil, nil)
	srv.echo.GET("/boom", func(c echo.Context) error { panic("kaboom") })

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/boom", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Empty(t, rec.Body.String())
	assert.Len(t, rl.find("request failed"), 1)

	rec = httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/cartoes/x", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Len(t, rl.find("request failed"), 1)
	assert.Len(t, rl.find("request rejected"), 1)
}

func TestBodyLimit(t *testing.T) {
	srv := NewServer(Options{MaxUploadSize: 16}, logging.Nop(), nil, nil, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/cartoes", strings.NewReader(`{"titulo":"this body is longer than sixteen bytes"}`))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
}
