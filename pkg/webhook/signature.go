package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
)

const (
	HeaderSignature = "X-Webhook-Signature"
	HeaderTimestamp = "X-Webhook-Timestamp"
	HeaderID        = "X-Webhook-ID"

	// DefaultMaxAge is the replay window used when none is configured.
	DefaultMaxAge = 5 * time.Minute

	// allowed clock skew for timestamps in the future
	maxSkew = time.Minute
)

// SignatureHeaders carries the values of the signature headers.
type SignatureHeaders struct {
	Signature string
	Timestamp int64
	ID        string
}

// Apply sets the signature headers on h.
func (s SignatureHeaders) Apply(h http.Header) {
	h.Set(HeaderSignature, s.Signature)
	h.Set(HeaderTimestamp, strconv.FormatInt(s.Timestamp, 10))
	h.Set(HeaderID, s.ID)
}

// Sign produces signature headers for payload at the given time.
func Sign(secret []byte, payload []byte, at time.Time) (SignatureHeaders, error) {
	if len(secret) == 0 {
		return SignatureHeaders{}, fmt.Errorf("%w: secret is required", ErrInvalidConfiguration)
	}
	if len(payload) == 0 {
		return SignatureHeaders{}, fmt.Errorf("%w: payload cannot be empty", ErrInvalidPayload)
	}
	ts := at.Unix()
	return SignatureHeaders{
		Signature: digest(secret, ts, payload),
		Timestamp: ts,
		ID:        uuid.NewString(),
	}, nil
}

// HeadersFromRequest reads the signature headers from r.
func HeadersFromRequest(r *http.Request) (SignatureHeaders, error) {
	sig := SignatureHeaders{
		Signature: r.Header.Get(HeaderSignature),
		ID:        r.Header.Get(HeaderID),
	}
	rawTS := r.Header.Get(HeaderTimestamp)
	if sig.Signature == "" || rawTS == "" {
		return SignatureHeaders{}, ErrMissingSignature
	}
	ts, err := strconv.ParseInt(rawTS, 10, 64)
	if err != nil {
		return SignatureHeaders{}, fmt.Errorf("%w: invalid timestamp format", ErrMissingSignature)
	}
	sig.Timestamp = ts
	return sig, nil
}

// Verifier validates signed webhook payloads.
type Verifier struct {
	secret []byte
	maxAge time.Duration
	now    func() time.Time
}

// VerifierOption configures a Verifier.
type VerifierOption func(*Verifier)

func WithMaxAge(d time.Duration) VerifierOption {
	return func(v *Verifier) {
		if d > 0 {
			v.maxAge = d
		}
	}
}

func WithClock(now func() time.Time) VerifierOption {
	return func(v *Verifier) {
		if now != nil {
			v.now = now
		}
	}
}

// NewVerifier panics on an empty secret.
func NewVerifier(secret []byte, opts ...VerifierOption) *Verifier {
	if len(secret) == 0 {
		panic("webhook: verifier secret is required")
	}
	v := &Verifier{secret: secret, maxAge: DefaultMaxAge, now: time.Now}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Verify checks payload against headers.
func (v *Verifier) Verify(payload []byte, headers SignatureHeaders) error {
	if len(payload) == 0 {
		return fmt.Errorf("%w: payload cannot be empty", ErrInvalidPayload)
	}

	age := v.now().Sub(time.Unix(headers.Timestamp, 0))
	if age > v.maxAge || age < -maxSkew {
		return ErrStaleTimestamp
	}

	expected := digest(v.secret, headers.Timestamp, payload)
	if !hmac.Equal([]byte(expected), []byte(headers.Signature)) {
		return ErrSignatureMismatch
	}
	return nil
}

// VerifyRequest reads the headers from r and verifies body, which the caller has already read.
func (v *Verifier) VerifyRequest(r *http.Request, body []byte) (SignatureHeaders, error) {
	headers, err := HeadersFromRequest(r)
	if err != nil {
		return SignatureHeaders{}, err
	}
	return headers, v.Verify(body, headers)
}

func digest(secret []byte, ts int64, payload []byte) string {
	h := hmac.New(sha256.New, secret)
	h.Write([]byte(strconv.FormatInt(ts, 10)))
	h.Write([]byte("."))
	h.Write(payload)
	return hex.EncodeToString(h.Sum(nil))
}
