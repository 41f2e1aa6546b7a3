package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/membership/pkg/config"
	"github.com/dmitrymomot/membership/pkg/logger"
	"github.com/dmitrymomot/membership/pkg/ratelimiter"
)

var testSecret = strings.Repeat("s", 32)

func setMemoryEnv(t *testing.T) {
	t.Helper()
	t.Setenv("APP_SECRET", testSecret)
	t.Setenv("STORAGE_DRIVER", "memory")
	t.Setenv("CACHE_DRIVER", "memory")
	t.Setenv("GATEWAY_DRIVER", "disabled")
	t.Setenv("EMAIL_DEV_DIR", t.TempDir())
}

func TestAppConfig_Validate(t *testing.T) {
	t.Parallel()

	valid := AppConfig{
		AppSecret:     testSecret,
		StorageDriver: driverPostgres,
		CacheDriver:   driverRedis,
		CacheCapacity: 10,
		GatewayDriver: gatewayArifPay,
		CheckoutRate:  ratelimiter.Config{Capacity: 5, RefillRate: 1, RefillInterval: time.Minute},
	}
	require.NoError(t, valid.Validate())

	cases := map[string]func(*AppConfig){
		"short secret":    func(c *AppConfig) { c.AppSecret = "short" },
		"unknown storage": func(c *AppConfig) { c.StorageDriver = "sqlite" },
		"unknown cache":   func(c *AppConfig) { c.CacheDriver = "memcached" },
		"unknown gateway": func(c *AppConfig) { c.GatewayDriver = "stripe" },
		"zero capacity":   func(c *AppConfig) { c.CacheCapacity = 0 },
		"bad log level":   func(c *AppConfig) { c.LogLevel = "loud" },
		"no checkout cap": func(c *AppConfig) { c.CheckoutRate.Capacity = 0 },
		"short admin key": func(c *AppConfig) { c.AdminToken = "admin" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			cfg := valid
			mutate(&cfg)
			assert.ErrorIs(t, cfg.Validate(), errInvalidConfig)
		})
	}
}

func TestAppConfig_WebhookKey(t *testing.T) {
	t.Parallel()

	cfg := AppConfig{AppSecret: testSecret}
	key, err := cfg.webhookKey()
	require.NoError(t, err)
	assert.Nil(t, key, "signatures are off by default")

	cfg.WebhookSigned = true
	key, err = cfg.webhookKey()
	require.NoError(t, err)
	derived, err := derivedWebhookSecret(testSecret)
	require.NoError(t, err)
	assert.Equal(t, []byte(derived), key)

	cfg.WebhookSecret = "explicit"
	key, err = cfg.webhookKey()
	require.NoError(t, err)
	assert.Equal(t, []byte("explicit"), key)
}

func TestRouter_MemoryDrivers(t *testing.T) {
	setMemoryEnv(t)
	adminToken := strings.Repeat("a", 32)
	t.Setenv("ADMIN_TOKEN", adminToken)

	var cfg AppConfig
	require.NoError(t, config.Load(&cfg))

	ctx := context.Background()
	d := newDependencies(cfg, logger.Nop())
	t.Cleanup(func() { d.close(ctx) })
	require.NoError(t, d.initStorage(ctx))
	require.NoError(t, d.initCache(ctx))
	require.NoError(t, d.initMemberships(ctx))
	require.NoError(t, d.initPayments(ctx))

	h, err := d.router(time.Second)
	require.NoError(t, err)

	do := func(method, path, user, body string) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, path, strings.NewReader(body))
		if body != "" {
			req.Header.Set("Content-Type", "application/json")
		}
		if user != "" {
			req.Header.Set("X-User-ID", user)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		return rec
	}

	t.Run("health", func(t *testing.T) {
		assert.Equal(t, http.StatusOK, do(http.MethodGet, "/health/live", "", "").Code)
		assert.Equal(t, http.StatusOK, do(http.MethodGet, "/health/ready", "", "").Code)
	})

	t.Run("request id is echoed", func(t *testing.T) {
		rec := do(http.MethodGet, "/v1/tiers", "", "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
	})

	t.Run("entitlements", func(t *testing.T) {
		rec := do(http.MethodPost, "/v1/membership/daily/messages/use", "u1", "")
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var body struct {
			Allowed bool `json:"allowed"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.True(t, body.Allowed)
	})

	t.Run("grants need the admin token", func(t *testing.T) {
		rec := do(http.MethodPost, "/internal/v1/membership/upgrade", "u2", `{"tier":"gold"}`)
		assert.Equal(t, http.StatusForbidden, rec.Code, rec.Body.String())

		req := httptest.NewRequest(http.MethodPost, "/internal/v1/membership/upgrade", strings.NewReader(`{"tier":"gold"}`))
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("X-User-ID", "u2")
		req.Header.Set("X-Admin-Token", adminToken)
		rec = httptest.NewRecorder()
		h.ServeHTTP(rec, req)
		assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	})

	t.Run("checkout without a gateway is unavailable", func(t *testing.T) {
		rec := do(http.MethodPost, "/v1/payments/checkout", "u1", `{"tier":"gold","phone":"0911223344"}`)
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code, rec.Body.String())
	})

	t.Run("webhook without a gateway is unavailable", func(t *testing.T) {
		rec := do(http.MethodPost, "/webhooks/payments", "", `{"sessionId":"x","status":"SUCCESS"}`)
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})

	t.Run("metrics", func(t *testing.T) {
		rec := do(http.MethodGet, "/metrics", "", "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), "membership_entitlements_checks_total")
		assert.Contains(t, rec.Body.String(), "membership_http_requests_total")
	})
}

func TestKeygen(t *testing.T) {
	t.Setenv("APP_SECRET", testSecret)

	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"keygen"})
	require.NoError(t, cmd.Execute())
	assert.Len(t, strings.TrimSpace(out.String()), 64)

	out.Reset()
	cmd = newRootCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"keygen", "--webhook"})
	require.NoError(t, cmd.Execute())

	derived, err := derivedWebhookSecret(testSecret)
	require.NoError(t, err)
	assert.Equal(t, derived, strings.TrimSpace(out.String()))
}
