package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"

	"github.com/dmitrymomot/membership/pkg/pg"
	"github.com/dmitrymomot/membership/svc/membership"
	"github.com/dmitrymomot/membership/svc/payment"
)

const transactionsTable = "payment_transactions"

var transactionColumns = []string{
	"session_id", "user_id", "tier", "amount", "currency", "billing_months", "phone", "email",
	"nonce", "payment_url", "status", "gateway_transaction_id", "created_at", "expires_at",
	"completed_at", "updated_at",
}

// TransactionStore implements payment.TransactionStore.
type TransactionStore struct {
	db pg.DB
}

func NewTransactionStore(db pg.DB) *TransactionStore {
	if db == nil {
		panic("postgres: DB is required")
	}
	return &TransactionStore{db: db}
}

func (s *TransactionStore) Create(ctx context.Context, tx *payment.Transaction) error {
	query, args, err := psql.Insert(transactionsTable).
		Columns(transactionColumns...).
		Values(
			tx.SessionID, tx.UserID, string(tx.Tier), tx.Amount, tx.Currency, tx.BillingMonths, tx.Phone, tx.Email,
			tx.Nonce, tx.PaymentURL, string(tx.Status), tx.GatewayTransactionID, tx.CreatedAt, tx.ExpiresAt,
			tx.CompletedAt, tx.UpdatedAt,
		).
		ToSql()
	if err != nil {
		return fmt.Errorf("build transaction insert: %w", err)
	}

	if _, err := s.db.Exec(ctx, query, args...); err != nil {
		if pg.IsDuplicateKeyError(err) {
			return payment.ErrDuplicateTransaction
		}
		return fmt.Errorf("create transaction: %w", err)
	}
	return nil
}

func (s *TransactionStore) Get(ctx context.Context, sessionID string) (*payment.Transaction, error) {
	query, args, err := psql.Select(transactionColumns...).
		From(transactionsTable).
		Where(squirrel.Eq{"session_id": sessionID}).
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build transaction query: %w", err)
	}

	var (
		tx           payment.Transaction
		tier, status string
	)
	err = s.db.QueryRow(ctx, query, args...).Scan(
		&tx.SessionID, &tx.UserID, &tier, &tx.Amount, &tx.Currency, &tx.BillingMonths, &tx.Phone, &tx.Email,
		&tx.Nonce, &tx.PaymentURL, &status, &tx.GatewayTransactionID, &tx.CreatedAt, &tx.ExpiresAt,
		&tx.CompletedAt, &tx.UpdatedAt,
	)
	if pg.IsNotFoundError(err) {
		return nil, payment.ErrTransactionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get transaction: %w", err)
	}
	tx.Tier = membership.Tier(tier)
	tx.Status = payment.Status(status)
	return &tx, nil
}

// Transition moves the transaction from one status to another in a single guarded UPDATE.
// It reports false when the row is missing or no longer in the expected status.
// An empty gatewayTxID keeps the stored one.
func (s *TransactionStore) Transition(ctx context.Context, sessionID string, from, to payment.Status, gatewayTxID string, at time.Time) (bool, error) {
	b := psql.Update(transactionsTable).
		Set("status", string(to)).
		Set("gateway_transaction_id", squirrel.Expr("COALESCE(NULLIF(?, ''), gateway_transaction_id)", gatewayTxID)).
		Set("updated_at", at)
	if to == payment.StatusCompleted {
		b = b.Set("completed_at", at)
	}

	query, args, err := b.Where(squirrel.Eq{"session_id": sessionID, "status": string(from)}).ToSql()
	if err != nil {
		return false, fmt.Errorf("build transaction transition: %w", err)
	}

	tag, err := s.db.Exec(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("transition transaction: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}
