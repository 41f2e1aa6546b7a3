package secrets

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"

	"golang.org/x/crypto/hkdf"
)

const (
	// KeySize is the minimum app key size and the size of every derived key.
	KeySize = 32

	salt = "membership-secrets-v1"
)

// Well-known purposes.
const (
	PurposePaymentNonce = "payment-nonce"
	PurposeWebhook      = "webhook-signature"
)

// ValidateKey checks that the app key is long enough.
func ValidateKey(appKey []byte) error {
	if len(appKey) < KeySize {
		return ErrInvalidAppKey
	}
	return nil
}

// DeriveKey returns a KeySize-byte subkey of appKey bound to purpose.
func DeriveKey(appKey []byte, purpose string) ([]byte, error) {
	if err := ValidateKey(appKey); err != nil {
		return nil, err
	}
	if purpose == "" {
		return nil, ErrEmptyPurpose
	}

	r := hkdf.New(sha256.New, appKey, []byte(salt), []byte(purpose))
	key := make([]byte, KeySize)
	if _, err := io.ReadFull(r, key); err != nil {
		return nil, errors.Join(ErrKeyDerivationFailed, err)
	}
	return key, nil
}

// MustDeriveKey is DeriveKey that panics on error. For start-up wiring only.
func MustDeriveKey(appKey []byte, purpose string) []byte {
	key, err := DeriveKey(appKey, purpose)
	if err != nil {
		panic(err)
	}
	return key
}

// GenerateKey returns a random hex-encoded key suitable for APP_SECRET.
func GenerateKey() (string, error) {
	key := make([]byte, KeySize)
	if _, err := rand.Read(key); err != nil {
		return "", err
	}
	return hex.EncodeToString(key), nil
}
