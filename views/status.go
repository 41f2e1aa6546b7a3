package views

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"time"

	"github.com/a-h/templ"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/dmitrymomot/membership/svc/payment"
)

// StatusElementID is the element the status stream patches.
const StatusElementID = "payment-status"

// StatusData is what the status fragment shows about one checkout.
type StatusData struct {
	SessionID  string
	Status     payment.Status
	Tier       string
	Amount     int64
	Currency   string
	PaymentURL string
	ExpiresAt  *time.Time
}

// StatusFromTransaction builds StatusData; expiresAt is the membership expiry, if known.
func StatusFromTransaction(tx *payment.Transaction, expiresAt *time.Time) StatusData {
	return StatusData{
		SessionID:  tx.SessionID,
		Status:     tx.Status,
		Tier:       string(tx.Tier),
		Amount:     tx.Amount,
		Currency:   tx.Currency,
		PaymentURL: tx.PaymentURL,
		ExpiresAt:  expiresAt,
	}
}

// QRPath is the URL of the PNG QR code for a session.
func QRPath(sessionID string) string {
	return "/v1/payments/" + url.PathEscape(sessionID) + "/qr"
}

// StreamPath is the URL of the datastar status stream for a session.
func StreamPath(sessionID string) string {
	return "/v1/payments/" + url.PathEscape(sessionID) + "/stream"
}

// PaymentStatus renders the status card. Its root element id is StatusElementID so a
// datastar patch replaces it in place.
func PaymentStatus(d StatusData) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		h := &htmlWriter{w: w}
		h.raw(`<div id="` + StatusElementID + `" class="status status-`)
		h.text(string(d.Status))
		h.raw(`">`)

		switch d.Status {
		case payment.StatusCompleted:
			h.raw(`<h2>Payment received</h2><p>Your `)
			h.text(tierLabel(d.Tier))
			h.raw(` plan is active`)
			if d.ExpiresAt != nil {
				h.raw(` until `)
				h.text(d.ExpiresAt.Format("2 January 2006"))
			}
			h.raw(`.</p>`)
		case payment.StatusFailed, payment.StatusCancelled:
			h.raw(`<h2>Payment `)
			h.text(string(d.Status))
			h.raw(`</h2><p>No charge was applied to your membership. You can start a new checkout at any time.</p>`)
		default:
			h.raw(`<h2>Waiting for payment confirmation</h2><p>`)
			h.text(fmt.Sprintf("%d %s for %s", d.Amount, d.Currency, tierLabel(d.Tier)))
			h.raw(`</p>`)
			if d.PaymentURL != "" {
				h.raw(`<p><a class="button" href="`)
				h.text(string(templ.URL(d.PaymentURL)))
				h.raw(`">Open payment page</a></p>`)
			}
			h.raw(`<img class="qr" alt="Payment QR code" width="256" height="256" src="`)
			h.text(QRPath(d.SessionID))
			h.raw(`">`)
		}

		h.raw(`</div>`)
		return h.err
	})
}

func tierLabel(tier string) string {
	if tier == "" {
		return "membership"
	}
	return cases.Title(language.English).String(tier)
}
