package webhook

import "errors"

var (
	ErrInvalidConfiguration = errors.New("invalid webhook configuration")
	ErrInvalidPayload       = errors.New("invalid webhook payload")
	ErrMissingSignature     = errors.New("missing webhook signature headers")
	ErrSignatureMismatch    = errors.New("webhook signature mismatch")
	ErrStaleTimestamp       = errors.New("webhook timestamp outside allowed window")
)
