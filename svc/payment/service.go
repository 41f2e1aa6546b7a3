package payment

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/dmitrymomot/membership/pkg/gateway"
	"github.com/dmitrymomot/membership/pkg/logger"
	"github.com/dmitrymomot/membership/svc/membership"
)

// Service defines the payment operations.
type Service interface {
	// CreateCheckout opens a gateway session and records it as pending.
	CreateCheckout(ctx context.Context, req CheckoutRequest) (*Checkout, error)
	// Verify is the poll path. Gateway and apply errors are logged and reported as pending.
	Verify(ctx context.Context, sessionID string) (*Outcome, error)
	// HandleNotification is the push path. Errors are returned so the gateway redelivers.
	HandleNotification(ctx context.Context, n gateway.Notification) (*Outcome, error)
	// Transaction returns the stored transaction for sessionID.
	Transaction(ctx context.Context, sessionID string) (*Transaction, error)
}

type service struct {
	cfg      Config
	members  membership.Service
	gw       gateway.Gateway
	store    TransactionStore
	nonceKey []byte
	flight   singleflight.Group

	log      *slog.Logger
	notifier Notifier
	recorder Recorder
	now      func() time.Time
	newID    func() string
}

// NewService creates the payment service. nonceKey signs checkout nonces and should be
// derived with secrets.DeriveKey(appKey, secrets.PurposePaymentNonce).
// Panics if members, gw or store is nil.
func NewService(cfg Config, members membership.Service, gw gateway.Gateway, store TransactionStore, nonceKey []byte, opts ...ServiceOption) (Service, error) {
	if members == nil {
		panic("payment: membership.Service is required")
	}
	if gw == nil {
		panic("payment: gateway.Gateway is required")
	}
	if store == nil {
		panic("payment: TransactionStore is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if len(nonceKey) == 0 {
		return nil, errors.Join(ErrInvalidConfig, errors.New("nonce key is empty"))
	}

	s := &service{
		cfg:      cfg,
		members:  members,
		gw:       gw,
		store:    store,
		nonceKey: nonceKey,
		log:      slog.Default(),
		notifier: nopNotifier{},
		recorder: nopRecorder{},
		now:      time.Now,
		newID:    uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.With(logger.Component("payment"))
	return s, nil
}

func (s *service) Transaction(ctx context.Context, sessionID string) (*Transaction, error) {
	if sessionID == "" {
		return nil, ErrTransactionNotFound
	}
	return s.store.Get(ctx, sessionID)
}

func outcomeOf(tx *Transaction) *Outcome {
	return &Outcome{SessionID: tx.SessionID, Status: tx.Status, Tier: tx.Tier}
}
