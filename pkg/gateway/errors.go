package gateway

import (
	"errors"
	"fmt"
)

var (
	ErrNotConfigured  = errors.New("payment gateway is not configured")
	ErrProtocol       = errors.New("payment gateway returned an unexpected response")
	ErrRejected       = errors.New("payment gateway rejected the request")
	ErrNetwork        = errors.New("payment gateway is unreachable")
	ErrNoPaymentURL   = errors.New("payment gateway returned no payment URL")
	ErrInvalidRequest = errors.New("invalid payment gateway request")
)

// RejectionError carries the gateway's own explanation of a rejected request.
type RejectionError struct {
	StatusCode int
	Message    string
}

func (e *RejectionError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("%s (status %d)", ErrRejected, e.StatusCode)
	}
	return fmt.Sprintf("%s: %s", ErrRejected, e.Message)
}

func (e *RejectionError) Unwrap() error { return ErrRejected }

// UserMessage returns the text safe to show to the payer.
func UserMessage(err error) string {
	var rej *RejectionError
	if errors.As(err, &rej) && rej.Message != "" {
		return rej.Message
	}
	switch {
	case errors.Is(err, ErrNotConfigured):
		return "Payments are temporarily unavailable."
	case errors.Is(err, ErrNetwork), errors.Is(err, ErrProtocol):
		return "The payment provider did not respond correctly. Please try again."
	}
	return "The payment could not be started. Please try again."
}
