package payment

import (
	"cmp"
	"context"
	"errors"
	"log/slog"

	"github.com/dmitrymomot/membership/pkg/gateway"
	"github.com/dmitrymomot/membership/pkg/logger"
	"github.com/dmitrymomot/membership/pkg/token"
)

func (s *service) HandleNotification(ctx context.Context, n gateway.Notification) (*Outcome, error) {
	status := gateway.NormalizeStatus(n.Status)

	// Without the gateway session ID the payment can be neither confirmed nor matched to
	// its checkout record.
	if n.SessionID == "" {
		s.log.WarnContext(ctx, "notification without a session ID, ignoring", logger.Status(n.Status))
		return nil, ErrMissingSession
	}

	var tx *Transaction
	found, err := s.store.Get(ctx, n.SessionID)
	switch {
	case err == nil:
		tx = found
	case !isNotFound(err):
		return nil, err
	}

	if tx != nil && tx.Status.Terminal() {
		if status == gateway.StatusSuccess && tx.Status != StatusCompleted {
			s.log.WarnContext(ctx, "success pushed for a closed transaction, ignoring",
				logger.SessionID(tx.SessionID), logger.UserID(tx.UserID), logger.Status(string(tx.Status)))
		}
		return outcomeOf(tx), nil
	}

	if status == gateway.StatusSuccess && s.cfg.ConfirmNotifications {
		res, err := s.gw.GetStatus(ctx, n.SessionID)
		if err != nil {
			return nil, err
		}
		if res.Status != gateway.StatusSuccess {
			s.log.WarnContext(ctx, "pushed success not confirmed by gateway",
				logger.SessionID(n.SessionID), logger.Status(string(res.Status)))
		}
		status = res.Status
		n.TransactionID = cmp.Or(n.TransactionID, res.TransactionID)
		if n.Amount <= 0 {
			n.Amount = res.Amount
		}
	}

	if tx == nil {
		return s.fallback(ctx, n, status)
	}

	out, err := s.settle(ctx, PathWebhook, tx.SessionID, status, n.TransactionID)
	if isNotFound(err) {
		return s.fallback(ctx, n, status)
	}
	return out, err
}

// fallback handles a notification whose session was never recorded, e.g. when the
// checkout write was lost or the push beat it. The user comes from the signed nonce and
// the record is keyed by the gateway session ID, so a redelivery finds it.
func (s *service) fallback(ctx context.Context, n gateway.Notification, status gateway.Status) (*Outcome, error) {
	claims, ok := s.claimsOf(n)
	if !ok {
		s.log.WarnContext(ctx, "notification for unknown session without a usable nonce",
			logger.SessionID(n.SessionID), logger.Status(n.Status))
		return nil, ErrTransactionNotFound
	}

	sessionID := n.SessionID
	if status != gateway.StatusSuccess {
		s.log.InfoContext(ctx, "non-success notification for unknown session, nothing to apply",
			logger.SessionID(sessionID), logger.UserID(claims.UserID), logger.Status(string(status)))
		out := &Outcome{SessionID: sessionID, Status: StatusPending}
		if ev, ok := eventFor(status); ok {
			out.Status, _ = StatusPending.Next(ev)
		}
		return out, nil
	}

	v, err, _ := s.flight.Do(sessionID, func() (any, error) {
		return s.fallbackOnce(ctx, sessionID, n, claims)
	})
	if err != nil {
		return nil, err
	}
	return v.(*Outcome), nil
}

func (s *service) fallbackOnce(ctx context.Context, sessionID string, n gateway.Notification, claims nonce) (*Outcome, error) {
	amount := n.Amount
	if amount <= 0 {
		res, err := s.gw.GetStatus(ctx, sessionID)
		if err != nil {
			return nil, err
		}
		amount = res.Amount
	}

	months := max(claims.Months, 1)
	tier, err := s.targetTier(claims.Tier, amount, months)
	if err != nil {
		s.log.ErrorContext(ctx, "cannot determine paid tier for unknown session",
			logger.SessionID(sessionID), logger.UserID(claims.UserID), slog.Int64("amount", amount))
		return nil, err
	}

	// The pending row goes in first so that the conditional transition below stays the
	// only way a payment is applied, whichever path sees it.
	now := s.now()
	tx := &Transaction{
		SessionID:     sessionID,
		UserID:        claims.UserID,
		Tier:          tier,
		Amount:        amount,
		Currency:      s.cfg.Currency,
		BillingMonths: months,
		Nonce:         n.Nonce,
		Status:        StatusPending,
		CreatedAt:     now,
		ExpiresAt:     now.Add(s.cfg.SessionTTL),
		UpdatedAt:     now,
	}
	switch err := s.store.Create(ctx, tx); {
	case err == nil:
		s.log.WarnContext(ctx, "payment recorded from notification without a checkout record",
			logger.SessionID(sessionID), logger.UserID(claims.UserID), logger.Tier(string(tier)))
	case !errors.Is(err, ErrDuplicateTransaction):
		return nil, err
	}

	return s.settleOnce(ctx, PathWebhook, sessionID, gateway.StatusSuccess, n.TransactionID)
}

// claimsOf extracts the signed checkout claims from the nonce, or from the session ID
// when the gateway echoes the nonce there.
func (s *service) claimsOf(n gateway.Notification) (nonce, bool) {
	for _, raw := range []string{n.Nonce, n.SessionID} {
		if raw == "" || !token.LooksLikeToken(raw) {
			continue
		}
		if c, err := s.parseNonce(raw); err == nil {
			return c, true
		}
	}
	return nonce{}, false
}
