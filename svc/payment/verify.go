package payment

import (
	"context"

	"github.com/dmitrymomot/membership/pkg/logger"
)

func (s *service) Verify(ctx context.Context, sessionID string) (*Outcome, error) {
	tx, err := s.Transaction(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if tx.Status.Terminal() {
		return outcomeOf(tx), nil
	}

	res, err := s.gw.GetStatus(ctx, sessionID)
	if err != nil {
		s.log.WarnContext(ctx, "payment status unavailable, reporting pending",
			logger.SessionID(sessionID), logger.Error(err))
		return outcomeOf(tx), nil
	}

	out, err := s.settle(ctx, PathPoll, sessionID, res.Status, res.TransactionID)
	if err != nil {
		s.log.ErrorContext(ctx, "payment not applied on poll, reporting pending",
			logger.SessionID(sessionID), logger.UserID(tx.UserID), logger.Error(err))
		return outcomeOf(tx), nil
	}
	return out, nil
}
