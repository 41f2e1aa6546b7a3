package billing

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/dmitrymomot/membership/handler"
	"github.com/dmitrymomot/membership/pkg/logger"
	"github.com/dmitrymomot/membership/pkg/qrcode"
	"github.com/dmitrymomot/membership/svc/payment"
	"github.com/dmitrymomot/membership/views"
)

type sessionRequest struct {
	SessionID string `path:"sessionID"`
}

type returnRequest struct {
	SessionID string `query:"session"`
}

func (m *Module) checkout(ctx handler.Context, req payment.CheckoutRequest) handler.Response {
	if req.Tier == "" {
		return handler.JSONError(handler.ErrBadRequest.WithMessage(`body must include "tier"`))
	}
	req.UserID = ctx.UserID()

	if resp := m.throttle(ctx, req.UserID); resp != nil {
		return resp
	}

	co, err := m.svc.CreateCheckout(ctx, req)
	if err != nil {
		return handler.Fail(errorResponse(err))
	}
	return handler.JSON(co, handler.WithJSONStatus(http.StatusCreated))
}

func (m *Module) verify(ctx handler.Context, req sessionRequest) handler.Response {
	if _, err := m.owned(ctx, req.SessionID); err != nil {
		return handler.Fail(errorResponse(err))
	}
	out, err := m.svc.Verify(ctx, req.SessionID)
	if err != nil {
		return handler.Fail(errorResponse(err))
	}
	return handler.JSON(out)
}

func (m *Module) qr(ctx handler.Context, req sessionRequest) handler.Response {
	tx, err := m.owned(ctx, req.SessionID)
	if err != nil {
		return handler.Fail(errorResponse(err))
	}
	if tx.Status.Terminal() {
		return handler.JSONError(handler.ErrConflict.WithMessage(fmt.Sprintf("payment is already %s", tx.Status)))
	}
	if tx.PaymentURL == "" {
		return handler.JSONError(handler.ErrNotFound.WithMessage("payment session has no payment URL"))
	}

	png, err := qrcode.Generate(tx.PaymentURL, m.qrSize)
	if err != nil {
		return handler.Fail(err)
	}
	return handler.Blob("image/png", png)
}

// stream polls the gateway and patches the status card until the payment is terminal or
// the client goes away. A pending poll never writes.
func (m *Module) stream(ctx handler.Context, req sessionRequest) handler.Response {
	tx, err := m.visible(ctx, req.SessionID)
	if err != nil {
		return handler.Fail(errorResponse(err))
	}

	return handler.SSE(func(s handler.StreamContext) error {
		ticker := time.NewTicker(m.pollInterval)
		defer ticker.Stop()

		var last payment.Status
		for {
			out, err := m.svc.Verify(s, tx.SessionID)
			if err != nil {
				return err
			}
			if out.Status != last {
				data := views.StatusFromTransaction(tx, m.expiry(s, tx.UserID, out))
				data.Status = out.Status
				if err := s.PatchComponent(views.PaymentStatus(data)); err != nil {
					return err
				}
				last = out.Status
			}
			if out.Status.Terminal() {
				return nil
			}

			select {
			case <-s.Done():
				return nil
			case <-ticker.C:
			}
		}
	})
}

func (m *Module) returnPage(ctx handler.Context, req returnRequest) handler.Response {
	tx, err := m.visible(ctx, req.SessionID)
	if err != nil {
		if !errors.Is(err, payment.ErrTransactionNotFound) {
			m.log.WarnContext(ctx, "return page lookup failed", logger.SessionID(req.SessionID), logger.Error(err))
		}
		return handler.TemplStatus(http.StatusNotFound, views.NotFoundPage())
	}

	var out *payment.Outcome
	if tx.Status == payment.StatusCompleted {
		out = &payment.Outcome{SessionID: tx.SessionID, Status: tx.Status, Tier: tx.Tier}
	}
	return handler.Templ(views.ReturnPage(views.StatusFromTransaction(tx, m.expiry(ctx, tx.UserID, out))))
}

// owned loads the transaction and requires it to belong to the caller.
func (m *Module) owned(ctx handler.Context, sessionID string) (*payment.Transaction, error) {
	tx, err := m.svc.Transaction(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if tx.UserID != ctx.UserID() {
		return nil, payment.ErrForbidden
	}
	return tx, nil
}

// visible is owned for callers with an identity. Anonymous callers may see any session;
// session IDs are unguessable gateway references. A foreign session reads as missing.
func (m *Module) visible(ctx handler.Context, sessionID string) (*payment.Transaction, error) {
	tx, err := m.svc.Transaction(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if user := ctx.UserID(); user != "" && user != tx.UserID {
		return nil, payment.ErrTransactionNotFound
	}
	return tx, nil
}

// expiry returns the membership expiry to show for a completed payment.
func (m *Module) expiry(ctx context.Context, userID string, out *payment.Outcome) *time.Time {
	if out == nil || out.Status != payment.StatusCompleted {
		return nil
	}
	if out.Membership != nil {
		return out.Membership.ExpiresAt
	}
	if m.members == nil {
		return nil
	}
	res, err := m.members.Get(ctx, userID)
	if err != nil {
		m.log.WarnContext(ctx, "membership lookup for status page failed", logger.UserID(userID), logger.Error(err))
		return nil
	}
	return res.Membership.ExpiresAt
}

// throttle returns a 429 response once userID has used up its checkout attempts.
func (m *Module) throttle(ctx handler.Context, userID string) handler.Response {
	if m.limiter == nil {
		return nil
	}
	res, err := m.limiter.Allow(ctx, "checkout:"+userID)
	if err != nil {
		m.log.WarnContext(ctx, "checkout rate limit unavailable", logger.UserID(userID), logger.Error(err))
		return nil
	}

	h := ctx.ResponseWriter().Header()
	h.Set("X-RateLimit-Limit", strconv.Itoa(res.Limit))
	h.Set("X-RateLimit-Remaining", strconv.Itoa(max(res.Remaining, 0)))
	if res.Allowed() {
		return nil
	}
	h.Set("Retry-After", strconv.Itoa(int(res.RetryAfter().Seconds())))
	return handler.JSONError(handler.ErrTooManyRequests.WithMessage("too many checkout attempts, try again later"))
}
