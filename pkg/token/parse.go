package token

import (
	"crypto/hmac"
	"encoding/base64"
	"encoding/json"
	"errors"
	"strings"
)

// Parse verifies the token's signature and decodes the payload.
func Parse[T any](token string, key []byte) (T, error) {
	var payload T
	if len(key) == 0 {
		return payload, ErrEmptyKey
	}

	encPayload, encSig, ok := strings.Cut(token, ".")
	if !ok || encPayload == "" || encSig == "" || strings.Contains(encSig, ".") {
		return payload, ErrInvalidToken
	}

	data, err := base64.RawURLEncoding.DecodeString(encPayload)
	if err != nil {
		return payload, errors.Join(ErrInvalidToken, err)
	}
	sig, err := base64.RawURLEncoding.DecodeString(encSig)
	if err != nil {
		return payload, errors.Join(ErrInvalidToken, err)
	}

	if !hmac.Equal(sig, sign(data, key)) {
		return payload, ErrSignatureInvalid
	}

	if err := json.Unmarshal(data, &payload); err != nil {
		return payload, errors.Join(ErrInvalidToken, err)
	}

	if exp, ok := any(payload).(Expirer); ok && exp.Expired() {
		return payload, ErrExpired
	}

	return payload, nil
}

// LooksLikeToken reports whether s has the shape of a token without verifying it.
func LooksLikeToken(s string) bool {
	p, sig, ok := strings.Cut(s, ".")
	return ok && p != "" && sig != "" && !strings.ContainsAny(sig, ".:/ ")
}
