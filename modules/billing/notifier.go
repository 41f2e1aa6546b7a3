package billing

import (
	"context"
	"log/slog"

	"github.com/dmitrymomot/membership/pkg/email"
	"github.com/dmitrymomot/membership/pkg/logger"
	"github.com/dmitrymomot/membership/svc/payment"
	"github.com/dmitrymomot/membership/views"
)

// ReceiptTag marks receipt messages in the mail provider.
const ReceiptTag = "payment-receipt"

// ReceiptMailer is a payment.Notifier that e-mails a receipt to payers who gave an address.
type ReceiptMailer struct {
	sender email.Sender
	log    *slog.Logger
}

var _ payment.Notifier = (*ReceiptMailer)(nil)

// NewReceiptMailer panics if sender is nil.
func NewReceiptMailer(sender email.Sender, log *slog.Logger) *ReceiptMailer {
	if sender == nil {
		panic("billing: email.Sender is required")
	}
	if log == nil {
		log = slog.Default()
	}
	return &ReceiptMailer{sender: sender, log: log.With(logger.Component("receipts"))}
}

func (m *ReceiptMailer) PaymentCompleted(ctx context.Context, r payment.Receipt) error {
	if r.Email == "" {
		m.log.DebugContext(ctx, "no e-mail on file, receipt skipped",
			logger.SessionID(r.SessionID), logger.UserID(r.UserID))
		return nil
	}

	body, err := email.Render(ctx, views.ReceiptEmail(r))
	if err != nil {
		return err
	}
	return m.sender.Send(ctx, email.Message{
		To:       r.Email,
		Subject:  views.ReceiptSubject(r),
		HTMLBody: body,
		Tag:      ReceiptTag,
	})
}
