package token

import "errors"

var (
	ErrInvalidToken     = errors.New("invalid token format")
	ErrSignatureInvalid = errors.New("signature mismatch")
	ErrExpired          = errors.New("token expired")
	ErrEmptyKey         = errors.New("signing key is empty")
)
