// Package secrets derives purpose-bound subkeys from a single application secret.
//
// Each purpose ("payment-nonce", "webhook-signature", ...) gets its own
// HKDF-SHA256 subkey, so leaking or rotating one does not expose the others.
package secrets
