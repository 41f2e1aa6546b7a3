package httpserver_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/membership/pkg/httpserver"
)

func TestServer_ServeAndShutdown(t *testing.T) {
	t.Parallel()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	srv := httpserver.New(httpserver.Config{ShutdownTimeout: time.Second},
		http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			_, _ = w.Write([]byte("pong"))
		}), nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx, ln) }()

	resp, err := http.Get("http://" + ln.Addr().String())
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, resp.Body.Close())
	require.NoError(t, err)
	assert.Equal(t, "pong", string(body))

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		require.Fail(t, "server did not stop")
	}
}

func TestServer_RunFailsOnBusyAddress(t *testing.T) {
	t.Parallel()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer ln.Close()

	srv := httpserver.New(httpserver.Config{Addr: ln.Addr().String(), ShutdownTimeout: time.Second}, http.NotFoundHandler(), nil)
	err = srv.Run(context.Background())
	assert.ErrorIs(t, err, httpserver.ErrStart)
}

func TestNew_PanicsWithoutHandler(t *testing.T) {
	t.Parallel()
	assert.Panics(t, func() { httpserver.New(httpserver.Config{}, nil, nil) })
}

func TestConfig_Validate(t *testing.T) {
	t.Parallel()

	assert.NoError(t, httpserver.Config{Addr: ":8080", ShutdownTimeout: time.Second}.Validate())
	assert.ErrorIs(t, httpserver.Config{ShutdownTimeout: time.Second}.Validate(), httpserver.ErrInvalidConfig)
	assert.ErrorIs(t, httpserver.Config{Addr: ":8080"}.Validate(), httpserver.ErrInvalidConfig)
}

func TestLiveness(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	httpserver.Liveness()(rec, httptest.NewRequest(http.MethodGet, "/health/live", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ALIVE", rec.Body.String())
}

func TestReadiness(t *testing.T) {
	t.Parallel()

	ok := func(context.Context) error { return nil }
	fail := func(context.Context) error { return errors.New("dial tcp: refused") }

	t.Run("all checks pass", func(t *testing.T) {
		t.Parallel()
		rec := httptest.NewRecorder()
		httpserver.Readiness(time.Second, nil, map[string]httpserver.Check{"postgres": ok, "redis": ok})(
			rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		var report map[string]string
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
		assert.Equal(t, map[string]string{"postgres": "ok", "redis": "ok"}, report)
	})

	t.Run("a failing check yields 503 without leaking the error", func(t *testing.T) {
		t.Parallel()
		rec := httptest.NewRecorder()
		httpserver.Readiness(time.Second, nil, map[string]httpserver.Check{"postgres": ok, "redis": fail})(
			rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))

		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
		assert.NotContains(t, rec.Body.String(), "refused")
		assert.Contains(t, rec.Body.String(), `"redis":"fail"`)
	})

	t.Run("checks see the deadline", func(t *testing.T) {
		t.Parallel()
		slow := func(ctx context.Context) error {
			<-ctx.Done()
			return ctx.Err()
		}
		rec := httptest.NewRecorder()
		httpserver.Readiness(10*time.Millisecond, nil, map[string]httpserver.Check{"mongo": slow})(
			rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})
}
