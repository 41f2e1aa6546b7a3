package payment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/dmitrymomot/membership/pkg/gateway"
	"github.com/dmitrymomot/membership/pkg/logger"
	"github.com/dmitrymomot/membership/svc/membership"
)

// CheckoutRequest asks for a paid tier. Zero Amount means the catalog price for the
// billing period; zero BillingMonths means one month.
type CheckoutRequest struct {
	UserID        string          `json:"-"`
	Tier          membership.Tier `json:"tier"`
	Amount        int64           `json:"amount,omitempty"`
	BillingMonths int             `json:"billing_months,omitempty"`
	Phone         string          `json:"phone,omitempty"`
	Email         string          `json:"email,omitempty"`
}

// Checkout is an opened gateway session.
type Checkout struct {
	SessionID  string          `json:"session_id"`
	PaymentURL string          `json:"payment_url"`
	Tier       membership.Tier `json:"tier"`
	Amount     int64           `json:"amount"`
	Currency   string          `json:"currency"`
	ExpiresAt  time.Time       `json:"expires_at"`
}

func (s *service) CreateCheckout(ctx context.Context, req CheckoutRequest) (*Checkout, error) {
	if req.UserID == "" {
		return nil, membership.ErrMissingUserID
	}

	catalog := s.members.Catalog()
	if !catalog.IsPaid(req.Tier) {
		return nil, fmt.Errorf("%w: %q is not a paid tier", membership.ErrUnknownTier, req.Tier)
	}
	def, err := catalog.Definition(req.Tier)
	if err != nil {
		return nil, err
	}

	months := req.BillingMonths
	if months == 0 {
		months = 1
	}
	if months < 1 || months > s.cfg.MaxMonths {
		return nil, fmt.Errorf("%w: %d", ErrInvalidMonths, months)
	}

	due := def.Price * int64(months)
	amount := req.Amount
	if amount == 0 {
		amount = due
	}
	if amount < due {
		return nil, fmt.Errorf("%w: %d %s < %d %s", ErrInvalidAmount, amount, s.cfg.Currency, due, s.cfg.Currency)
	}

	phone := ""
	switch {
	case strings.TrimSpace(req.Phone) != "":
		if phone, err = NormalizePhone(req.Phone, s.cfg.CountryCode); err != nil {
			return nil, err
		}
	case s.cfg.RequirePhone:
		return nil, fmt.Errorf("%w: phone number is required", ErrInvalidPhone)
	}

	now := s.now()
	expiresAt := now.Add(s.cfg.SessionTTL)
	signed, err := s.issueNonce(nonce{
		UserID:  req.UserID,
		Tier:    req.Tier,
		Months:  months,
		Ref:     s.newID(),
		Expires: now.Add(s.cfg.NonceTTL).Unix(),
	})
	if err != nil {
		return nil, err
	}

	sessReq := gateway.SessionRequest{
		Amount:     amount,
		Currency:   s.cfg.Currency,
		Phone:      phone,
		Email:      req.Email,
		Nonce:      signed,
		SuccessURL: s.cfg.SuccessURL,
		CancelURL:  s.cfg.CancelURL,
		ErrorURL:   s.cfg.ErrorURL,
		NotifyURL:  s.cfg.NotifyURL,
		ExpiresAt:  expiresAt,
		Language:   s.cfg.Language,
		Items:      []gateway.Item{checkoutItem(req.Tier, def, months, amount, due)},
		Metadata:   map[string]string{"user_id": req.UserID, "tier": string(req.Tier)},
	}
	if s.cfg.BeneficiaryAccount != "" {
		sessReq.Beneficiaries = []gateway.Beneficiary{{
			AccountNumber: s.cfg.BeneficiaryAccount,
			Bank:          s.cfg.BeneficiaryBank,
			Amount:        amount,
		}}
	}

	sess, err := s.gw.CreateSession(ctx, sessReq)
	if err != nil {
		s.log.WarnContext(ctx, "checkout session rejected",
			logger.UserID(req.UserID), logger.Tier(string(req.Tier)), logger.Error(err))
		return nil, err
	}

	tx := &Transaction{
		SessionID:     sess.SessionID,
		UserID:        req.UserID,
		Tier:          req.Tier,
		Amount:        amount,
		Currency:      s.cfg.Currency,
		BillingMonths: months,
		Phone:         phone,
		Email:         req.Email,
		Nonce:         signed,
		PaymentURL:    sess.PaymentURL,
		Status:        StatusPending,
		CreatedAt:     now,
		ExpiresAt:     expiresAt,
		UpdatedAt:     now,
	}
	if err := s.store.Create(ctx, tx); err != nil {
		if !errors.Is(err, ErrDuplicateTransaction) {
			return nil, err
		}
		// A notification for this session arrived first and recorded it.
		existing, getErr := s.store.Get(ctx, sess.SessionID)
		if getErr != nil {
			return nil, errors.Join(err, getErr)
		}
		if existing.UserID != req.UserID {
			return nil, err
		}
		s.log.InfoContext(ctx, "checkout already recorded by notification",
			logger.UserID(req.UserID), logger.SessionID(sess.SessionID), logger.Status(string(existing.Status)))
		return &Checkout{
			SessionID:  sess.SessionID,
			PaymentURL: sess.PaymentURL,
			Tier:       existing.Tier,
			Amount:     existing.Amount,
			Currency:   existing.Currency,
			ExpiresAt:  existing.ExpiresAt,
		}, nil
	}

	s.recorder.CheckoutCreated(string(req.Tier))
	s.log.InfoContext(ctx, "checkout created",
		logger.UserID(req.UserID), logger.SessionID(sess.SessionID), logger.Tier(string(req.Tier)),
		slog.Int64("amount", amount))

	return &Checkout{
		SessionID:  sess.SessionID,
		PaymentURL: sess.PaymentURL,
		Tier:       req.Tier,
		Amount:     amount,
		Currency:   s.cfg.Currency,
		ExpiresAt:  expiresAt,
	}, nil
}

// checkoutItem bills the catalog price once per month. A payer-chosen amount above the
// catalog price has no catalog reference, so gateways that only sell catalog prices
// refuse it.
func checkoutItem(tier membership.Tier, def membership.TierDefinition, months int, amount, due int64) gateway.Item {
	item := gateway.Item{
		Name:        tierTitle(tier) + " membership",
		Description: fmt.Sprintf("%d month(s) of %s", months, tierTitle(tier)),
		Quantity:    months,
		UnitPrice:   def.Price,
		Ref:         def.PriceRef,
	}
	if amount != due {
		item.Quantity = 1
		item.UnitPrice = amount
		item.Ref = ""
	}
	return item
}

func tierTitle(t membership.Tier) string {
	if t == "" {
		return ""
	}
	return strings.ToUpper(string(t[:1])) + string(t[1:])
}
