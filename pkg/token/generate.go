package token

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
)

// sigSize is the number of signature bytes kept in a token.
const sigSize = 16

// Expirer is implemented by payloads that carry their own expiry.
type Expirer interface {
	Expired() bool
}

// Generate encodes payload and signs it with key.
func Generate[T any](payload T, key []byte) (string, error) {
	if len(key) == 0 {
		return "", ErrEmptyKey
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return "", errors.Join(ErrInvalidToken, err)
	}

	return base64.RawURLEncoding.EncodeToString(data) + "." + base64.RawURLEncoding.EncodeToString(sign(data, key)), nil
}

func sign(data, key []byte) []byte {
	h := hmac.New(sha256.New, key)
	h.Write(data)
	return h.Sum(nil)[:sigSize]
}
