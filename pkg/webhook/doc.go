// Package webhook authenticates inbound webhook requests.
//
// A sender signs HMAC-SHA256(secret, "<unix timestamp>.<raw body>") and sends
// the hex digest in X-Webhook-Signature together with X-Webhook-Timestamp and
// an X-Webhook-ID delivery identifier. Verifier checks the digest in constant
// time and rejects timestamps outside the allowed window.
package webhook
