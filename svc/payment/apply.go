package payment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dmitrymomot/membership/pkg/gateway"
	"github.com/dmitrymomot/membership/pkg/logger"
	"github.com/dmitrymomot/membership/svc/membership"
)

// settle applies a gateway status to a stored transaction. Calls for one session inside
// this process are collapsed, and collapsed callers share the outcome.
func (s *service) settle(ctx context.Context, path Path, sessionID string, status gateway.Status, gatewayTxID string) (*Outcome, error) {
	v, err, _ := s.flight.Do(sessionID, func() (any, error) {
		return s.settleOnce(ctx, path, sessionID, status, gatewayTxID)
	})
	if err != nil {
		return nil, err
	}
	return v.(*Outcome), nil
}

func (s *service) settleOnce(ctx context.Context, path Path, sessionID string, status gateway.Status, gatewayTxID string) (*Outcome, error) {
	tx, err := s.store.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	out := outcomeOf(tx)

	event, ok := eventFor(status)
	if !ok {
		return out, nil
	}

	if tx.Status.Terminal() {
		if event == EventSucceed && tx.Status != StatusCompleted {
			s.log.WarnContext(ctx, "success reported for a closed transaction, ignoring",
				logger.SessionID(sessionID), logger.UserID(tx.UserID), logger.Status(string(tx.Status)),
				slog.String("path", string(path)))
		}
		return out, nil
	}

	to, err := tx.Status.Next(event)
	if err != nil {
		return nil, err
	}
	now := s.now()

	if event != EventSucceed {
		won, err := s.store.Transition(ctx, sessionID, tx.Status, to, gatewayTxID, now)
		if err != nil {
			return nil, err
		}
		if !won {
			return s.reload(ctx, sessionID, out)
		}
		s.recorder.PaymentClosed(string(to))
		s.log.InfoContext(ctx, "payment closed",
			logger.SessionID(sessionID), logger.UserID(tx.UserID), logger.Status(string(to)))
		out.Status = to
		return out, nil
	}

	tier, err := s.targetTier(tx.Tier, tx.Amount, tx.Months())
	if err != nil {
		s.log.ErrorContext(ctx, "cannot determine paid tier",
			logger.SessionID(sessionID), logger.UserID(tx.UserID), slog.Int64("amount", tx.Amount))
		return nil, err
	}

	rec, err := s.members.ApplyPayment(ctx, tx.UserID, tier, tx.Months())
	if err != nil {
		return nil, err
	}

	won, err := s.store.Transition(ctx, sessionID, StatusPending, StatusCompleted, gatewayTxID, now)
	if err != nil {
		return nil, err
	}

	out.Tier = tier
	out.Membership = rec
	if !won {
		return s.reload(ctx, sessionID, out)
	}

	out.Status = StatusCompleted
	out.Applied = true
	tx.Tier = tier
	s.completed(ctx, path, tx, rec, now)
	return out, nil
}

// reload refreshes out.Status after losing a conditional transition.
func (s *service) reload(ctx context.Context, sessionID string, out *Outcome) (*Outcome, error) {
	cur, err := s.store.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	out.Status = cur.Status
	return out, nil
}

// targetTier returns the recorded tier, or the tier the amount pays for when none was recorded.
func (s *service) targetTier(recorded membership.Tier, amount int64, months int) (membership.Tier, error) {
	catalog := s.members.Catalog()
	if recorded != "" && catalog.IsPaid(recorded) {
		return recorded, nil
	}
	if tier, ok := catalog.TierForAmount(amount, months); ok {
		return tier, nil
	}
	return "", fmt.Errorf("%w: amount %d for %d month(s)", ErrTierUndetermined, amount, months)
}

// completed runs the side effects owned by the caller that won the transition.
func (s *service) completed(ctx context.Context, path Path, tx *Transaction, rec *membership.Record, at time.Time) {
	s.recorder.PaymentApplied(string(path), string(tx.Tier))
	s.log.InfoContext(ctx, "payment applied",
		logger.SessionID(tx.SessionID), logger.UserID(tx.UserID), logger.Tier(string(tx.Tier)),
		slog.String("path", string(path)))

	r := Receipt{
		SessionID:   tx.SessionID,
		UserID:      tx.UserID,
		Email:       tx.Email,
		Tier:        string(tx.Tier),
		Amount:      tx.Amount,
		Currency:    tx.Currency,
		Months:      tx.Months(),
		CompletedAt: at,
	}
	if rec != nil && rec.ExpiresAt != nil {
		r.ExpiresAt = *rec.ExpiresAt
	}
	if err := s.notifier.PaymentCompleted(context.WithoutCancel(ctx), r); err != nil {
		s.log.WarnContext(ctx, "payment receipt not sent",
			logger.SessionID(tx.SessionID), logger.UserID(tx.UserID), logger.Error(err))
	}
}

func isNotFound(err error) bool {
	return errors.Is(err, ErrTransactionNotFound)
}
