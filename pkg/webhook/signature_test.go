package webhook_test

import (
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/membership/pkg/webhook"
)

var secret = []byte("webhook-secret")

func TestVerifier_RoundTrip(t *testing.T) {
	t.Parallel()

	now := time.Unix(1_700_000_000, 0)
	payload := []byte(`{"sessionId":"s-1","status":"SUCCESS"}`)

	headers, err := webhook.Sign(secret, payload, now)
	require.NoError(t, err)
	assert.NotEmpty(t, headers.ID)

	req := httptest.NewRequest("POST", "/webhooks/payments", strings.NewReader(string(payload)))
	headers.Apply(req.Header)

	v := webhook.NewVerifier(secret, webhook.WithClock(func() time.Time { return now.Add(time.Minute) }))
	got, err := v.VerifyRequest(req, payload)
	require.NoError(t, err)
	assert.Equal(t, headers.ID, got.ID)
}

func TestVerifier_Rejects(t *testing.T) {
	t.Parallel()

	now := time.Unix(1_700_000_000, 0)
	payload := []byte(`{"status":"SUCCESS"}`)
	headers, err := webhook.Sign(secret, payload, now)
	require.NoError(t, err)

	clock := func(d time.Duration) webhook.VerifierOption {
		return webhook.WithClock(func() time.Time { return now.Add(d) })
	}

	t.Run("tampered body", func(t *testing.T) {
		t.Parallel()
		v := webhook.NewVerifier(secret, clock(0))
		assert.ErrorIs(t, v.Verify([]byte(`{"status":"FAILED"}`), headers), webhook.ErrSignatureMismatch)
	})

	t.Run("wrong secret", func(t *testing.T) {
		t.Parallel()
		v := webhook.NewVerifier([]byte("other"), clock(0))
		assert.ErrorIs(t, v.Verify(payload, headers), webhook.ErrSignatureMismatch)
	})

	t.Run("too old", func(t *testing.T) {
		t.Parallel()
		v := webhook.NewVerifier(secret, clock(10*time.Minute))
		assert.ErrorIs(t, v.Verify(payload, headers), webhook.ErrStaleTimestamp)
	})

	t.Run("from the future", func(t *testing.T) {
		t.Parallel()
		v := webhook.NewVerifier(secret, clock(-5*time.Minute))
		assert.ErrorIs(t, v.Verify(payload, headers), webhook.ErrStaleTimestamp)
	})

	t.Run("missing headers", func(t *testing.T) {
		t.Parallel()
		v := webhook.NewVerifier(secret)
		req := httptest.NewRequest("POST", "/", nil)
		_, err := v.VerifyRequest(req, payload)
		assert.ErrorIs(t, err, webhook.ErrMissingSignature)
	})
}

func TestSign_Validation(t *testing.T) {
	t.Parallel()

	_, err := webhook.Sign(nil, []byte("x"), time.Now())
	assert.ErrorIs(t, err, webhook.ErrInvalidConfiguration)

	_, err = webhook.Sign(secret, nil, time.Now())
	assert.ErrorIs(t, err, webhook.ErrInvalidPayload)

	assert.Panics(t, func() { webhook.NewVerifier(nil) })
}
