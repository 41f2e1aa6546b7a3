// Package token issues and verifies compact signed tokens.
//
// A token is base64url(JSON payload) + "." + base64url(HMAC-SHA256 signature).
// The payload is readable by anyone holding the token, so it must not carry
// secrets; the signature only proves it was issued by a holder of the key.
//
// Payloads implementing Expirer are rejected with ErrExpired once their
// expiry has passed.
package token
