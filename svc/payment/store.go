package payment

import (
	"context"
	"time"
)

// TransactionStore persists transactions. Transition is the idempotency guard: it moves
// sessionID from one status to another only if the stored status still equals from, and
// reports whether this call performed the change.
type TransactionStore interface {
	Create(ctx context.Context, tx *Transaction) error
	Get(ctx context.Context, sessionID string) (*Transaction, error)
	Transition(ctx context.Context, sessionID string, from, to Status, gatewayTxID string, at time.Time) (bool, error)
}

// Receipt describes a completed payment for the user notification.
type Receipt struct {
	SessionID   string
	UserID      string
	Email       string
	Tier        string
	Amount      int64
	Currency    string
	Months      int
	ExpiresAt   time.Time
	CompletedAt time.Time
}

// Notifier is told about payments completed by this process.
type Notifier interface {
	PaymentCompleted(ctx context.Context, r Receipt) error
}

// Recorder receives payment events, typically for metrics.
type Recorder interface {
	CheckoutCreated(tier string)
	PaymentApplied(path, tier string)
	PaymentClosed(status string)
}

type nopNotifier struct{}

func (nopNotifier) PaymentCompleted(context.Context, Receipt) error { return nil }

type nopRecorder struct{}

func (nopRecorder) CheckoutCreated(string)        {}
func (nopRecorder) PaymentApplied(string, string) {}
func (nopRecorder) PaymentClosed(string)          {}
