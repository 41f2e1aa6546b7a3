package secrets

import "errors"

var (
	ErrInvalidAppKey       = errors.New("invalid app key: must be at least 32 bytes")
	ErrEmptyPurpose        = errors.New("key purpose is required")
	ErrKeyDerivationFailed = errors.New("key derivation failed")
)
