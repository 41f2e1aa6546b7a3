package token_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/membership/pkg/token"
)

type claims struct {
	UserID string `json:"uid"`
	Exp    int64  `json:"exp"`
}

func (c claims) Expired() bool {
	return c.Exp != 0 && time.Now().Unix() > c.Exp
}

var key = []byte("0123456789abcdef0123456789abcdef")

func TestGenerateAndParse(t *testing.T) {
	t.Parallel()

	tok, err := token.Generate(claims{UserID: "u-1", Exp: time.Now().Add(time.Hour).Unix()}, key)
	require.NoError(t, err)
	assert.True(t, token.LooksLikeToken(tok))

	got, err := token.Parse[claims](tok, key)
	require.NoError(t, err)
	assert.Equal(t, "u-1", got.UserID)
}

func TestParse_Failures(t *testing.T) {
	t.Parallel()

	tok, err := token.Generate(claims{UserID: "u-1"}, key)
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
		key   []byte
		want  error
	}{
		{name: "wrong key", token: tok, key: []byte("another-key"), want: token.ErrSignatureInvalid},
		{name: "no separator", token: "abc", key: key, want: token.ErrInvalidToken},
		{name: "bad base64", token: "!!!.???", key: key, want: token.ErrInvalidToken},
		{name: "tampered payload", token: "eyJ1aWQiOiJ1LTIifQ." + tok[len(tok)-22:], key: key, want: token.ErrSignatureInvalid},
		{name: "empty key", token: tok, key: nil, want: token.ErrEmptyKey},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := token.Parse[claims](tt.token, tt.key)
			assert.ErrorIs(t, err, tt.want)
		})
	}
}

func TestParse_Expired(t *testing.T) {
	t.Parallel()

	tok, err := token.Generate(claims{UserID: "u-1", Exp: time.Now().Add(-time.Minute).Unix()}, key)
	require.NoError(t, err)

	got, err := token.Parse[claims](tok, key)
	assert.ErrorIs(t, err, token.ErrExpired)
	assert.Equal(t, "u-1", got.UserID)
}

func TestLooksLikeToken(t *testing.T) {
	t.Parallel()

	assert.False(t, token.LooksLikeToken("sess_12345"))
	assert.False(t, token.LooksLikeToken("a.b.c"))
	assert.True(t, token.LooksLikeToken("abc.def"))
}
