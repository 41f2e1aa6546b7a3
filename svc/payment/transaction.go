package payment

import (
	"time"

	"github.com/dmitrymomot/membership/pkg/gateway"
	"github.com/dmitrymomot/membership/pkg/statemachine"
	"github.com/dmitrymomot/membership/svc/membership"
)

// Status is the lifecycle state of a Transaction.
type Status string

const (
	StatusPending   Status = "pending"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusCancelled Status = "cancelled"
)

// Event moves a transaction out of pending.
type Event string

const (
	EventSucceed Event = "succeed"
	EventFail    Event = "fail"
	EventCancel  Event = "cancel"
)

var transitions = statemachine.NewBuilder[Status, Event]().
	Permit(StatusPending, EventSucceed, StatusCompleted).
	Permit(StatusPending, EventFail, StatusFailed).
	Permit(StatusPending, EventCancel, StatusCancelled).
	MustBuild()

// Terminal reports whether no further transition is possible from s.
func (s Status) Terminal() bool {
	return transitions.IsTerminal(s)
}

// Next returns the state reached from s by e, or a statemachine error.
func (s Status) Next(e Event) (Status, error) {
	return transitions.Next(s, e)
}

// eventFor maps a normalized gateway status to a transaction event.
// Pending has no event.
func eventFor(s gateway.Status) (Event, bool) {
	switch s {
	case gateway.StatusSuccess:
		return EventSucceed, true
	case gateway.StatusFailed:
		return EventFail, true
	case gateway.StatusCancelled:
		return EventCancel, true
	default:
		return "", false
	}
}

// Transaction is one checkout session, keyed by the gateway session ID.
type Transaction struct {
	SessionID            string          `json:"session_id" bson:"_id"`
	UserID               string          `json:"user_id" bson:"user_id"`
	Tier                 membership.Tier `json:"tier,omitempty" bson:"tier,omitempty"`
	Amount               int64           `json:"amount" bson:"amount"`
	Currency             string          `json:"currency" bson:"currency"`
	BillingMonths        int             `json:"billing_months" bson:"billing_months"`
	Phone                string          `json:"phone,omitempty" bson:"phone,omitempty"`
	Email                string          `json:"email,omitempty" bson:"email,omitempty"`
	Nonce                string          `json:"-" bson:"nonce"`
	PaymentURL           string          `json:"payment_url,omitempty" bson:"payment_url,omitempty"`
	Status               Status          `json:"status" bson:"status"`
	GatewayTransactionID string          `json:"gateway_transaction_id,omitempty" bson:"gateway_transaction_id,omitempty"`
	CreatedAt            time.Time       `json:"created_at" bson:"created_at"`
	ExpiresAt            time.Time       `json:"expires_at" bson:"expires_at"`
	CompletedAt          *time.Time      `json:"completed_at,omitempty" bson:"completed_at,omitempty"`
	UpdatedAt            time.Time       `json:"updated_at" bson:"updated_at"`
}

// Months returns BillingMonths with the one-month floor applied.
func (t *Transaction) Months() int {
	return max(t.BillingMonths, 1)
}

// Clone returns a copy safe to hand to another goroutine.
func (t *Transaction) Clone() *Transaction {
	if t == nil {
		return nil
	}
	c := *t
	if t.CompletedAt != nil {
		at := *t.CompletedAt
		c.CompletedAt = &at
	}
	return &c
}

// Path names the trigger that observed a payment outcome.
type Path string

const (
	PathPoll    Path = "poll"
	PathWebhook Path = "webhook"
)

// Outcome is the result of a verification or notification.
type Outcome struct {
	SessionID string          `json:"session_id"`
	Status    Status          `json:"status"`
	Tier      membership.Tier `json:"tier,omitempty"`
	// Applied is true only for the call that moved the transaction to completed.
	Applied    bool               `json:"applied"`
	Membership *membership.Record `json:"membership,omitempty"`
}
