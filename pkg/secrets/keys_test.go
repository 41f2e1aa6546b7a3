package secrets_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/membership/pkg/secrets"
)

func TestDeriveKey(t *testing.T) {
	t.Parallel()

	app := bytes.Repeat([]byte("k"), secrets.KeySize)

	nonce1, err := secrets.DeriveKey(app, secrets.PurposePaymentNonce)
	require.NoError(t, err)
	nonce2, err := secrets.DeriveKey(app, secrets.PurposePaymentNonce)
	require.NoError(t, err)
	webhook, err := secrets.DeriveKey(app, secrets.PurposeWebhook)
	require.NoError(t, err)

	assert.Len(t, nonce1, secrets.KeySize)
	assert.Equal(t, nonce1, nonce2, "derivation is deterministic")
	assert.NotEqual(t, nonce1, webhook, "purposes are separated")
}

func TestDeriveKey_Errors(t *testing.T) {
	t.Parallel()

	_, err := secrets.DeriveKey([]byte("short"), secrets.PurposeWebhook)
	assert.ErrorIs(t, err, secrets.ErrInvalidAppKey)

	_, err = secrets.DeriveKey(bytes.Repeat([]byte("k"), secrets.KeySize), "")
	assert.ErrorIs(t, err, secrets.ErrEmptyPurpose)

	assert.Panics(t, func() { secrets.MustDeriveKey(nil, secrets.PurposeWebhook) })
}

func TestGenerateKey(t *testing.T) {
	t.Parallel()

	a, err := secrets.GenerateKey()
	require.NoError(t, err)
	b, err := secrets.GenerateKey()
	require.NoError(t, err)

	assert.Len(t, a, secrets.KeySize*2)
	assert.NotEqual(t, a, b)
}
