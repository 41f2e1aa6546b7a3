package gateway

import (
	"context"
	"strings"
	"time"
)

// Status is the normalized state of a checkout session.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusSuccess   Status = "SUCCESS"
	StatusFailed    Status = "FAILED"
	StatusCancelled Status = "CANCELLED"
)

// NormalizeStatus maps gateway-specific spellings to a Status.
// "SUCCESS", "PAID", "success" and "completed" all mean success.
func NormalizeStatus(raw string) Status {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case "SUCCESS", "PAID", "COMPLETED", "COMPLETE":
		return StatusSuccess
	case "FAILED", "FAILURE", "ERROR", "DECLINED":
		return StatusFailed
	case "CANCELLED", "CANCELED", "EXPIRED":
		return StatusCancelled
	default:
		return StatusPending
	}
}

// Item is one checkout line.
type Item struct {
	Name        string
	Description string
	Quantity    int
	UnitPrice   int64
	// Ref is the gateway-side catalog reference, e.g. a Paddle price ID.
	Ref string
}

// Beneficiary receives the payout of a session.
type Beneficiary struct {
	AccountNumber string
	Bank          string
	Amount        int64
}

// SessionRequest describes a checkout to open.
type SessionRequest struct {
	Amount        int64
	Currency      string
	Phone         string
	Email         string
	Nonce         string
	SuccessURL    string
	CancelURL     string
	ErrorURL      string
	NotifyURL     string
	ExpiresAt     time.Time
	Language      string
	Items         []Item
	Beneficiaries []Beneficiary
	Metadata      map[string]string
}

// Session is an opened checkout.
type Session struct {
	SessionID  string
	PaymentURL string
}

// StatusResult is the gateway view of a session.
type StatusResult struct {
	Status        Status
	Amount        int64
	TransactionID string
	PaidAt        *time.Time
}

// Gateway opens checkout sessions and reports their status.
type Gateway interface {
	CreateSession(ctx context.Context, req SessionRequest) (*Session, error)
	GetStatus(ctx context.Context, sessionID string) (*StatusResult, error)
}

// Observer receives the outcome and latency of every gateway call.
type Observer func(operation string, d time.Duration, err error)

func (o Observer) observe(operation string, started time.Time, err error) {
	if o != nil {
		o(operation, time.Since(started), err)
	}
}
