package logger_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/membership/pkg/logger"
)

type ctxKey struct{}

func TestNew_JSONWithContextValue(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := logger.New(
		logger.WithOutput(&buf),
		logger.WithContextValue("request_id", ctxKey{}),
		logger.WithAttr(slog.String("service", "membershipd")),
	)

	ctx := context.WithValue(context.Background(), ctxKey{}, "req-1")
	log.InfoContext(ctx, "payment applied", logger.SessionID("sess-1"), logger.Tier("gold"), logger.Error(errors.New("boom")))

	var rec map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &rec))
	assert.Equal(t, "payment applied", rec["msg"])
	assert.Equal(t, "req-1", rec["request_id"])
	assert.Equal(t, "sess-1", rec["session_id"])
	assert.Equal(t, "gold", rec["tier"])
	assert.Equal(t, "boom", rec["error"])
	assert.Equal(t, "membershipd", rec["service"])
}

func TestNew_LevelFiltering(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := logger.New(logger.WithOutput(&buf), logger.WithLevelName("warn"))
	log.Info("hidden")
	assert.Empty(t, buf.String())

	log.Warn("shown")
	assert.Contains(t, buf.String(), "shown")
}

func TestWithEnvironment(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	log := logger.New(logger.WithOutput(&buf), logger.WithEnvironment("development", "svc"))
	log.Debug("dev line")
	assert.Contains(t, buf.String(), "msg=\"dev line\"")
	assert.Contains(t, buf.String(), "env=development")
}

func TestAttrHelpers_EmptyValues(t *testing.T) {
	t.Parallel()

	assert.True(t, logger.Error(nil).Equal(slog.Attr{}))
	assert.True(t, logger.UserID("").Equal(slog.Attr{}))
	assert.True(t, logger.SessionID("").Equal(slog.Attr{}))
}

func TestParseLevel(t *testing.T) {
	t.Parallel()

	lvl, err := logger.ParseLevel("error")
	require.NoError(t, err)
	assert.Equal(t, slog.LevelError, lvl)

	_, err = logger.ParseLevel("loud")
	assert.Error(t, err)
}

func TestWithFormat_InvalidPanics(t *testing.T) {
	t.Parallel()
	assert.Panics(t, func() { logger.New(logger.WithFormat("xml")) })
}
