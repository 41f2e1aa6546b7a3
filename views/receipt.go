package views

import (
	"context"
	"fmt"
	"io"

	"github.com/a-h/templ"

	"github.com/dmitrymomot/membership/svc/payment"
)

// ReceiptSubject is the subject line of the receipt e-mail.
func ReceiptSubject(r payment.Receipt) string {
	return fmt.Sprintf("Your %s membership is active", tierLabel(r.Tier))
}

// ReceiptEmail is the HTML body of the receipt sent after a completed payment.
func ReceiptEmail(r payment.Receipt) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		h := &htmlWriter{w: w}
		h.raw(`<!doctype html><html><body style="font-family:sans-serif">`)
		h.raw(`<h1>Thank you for your payment</h1><p>Your `)
		h.text(tierLabel(r.Tier))
		h.raw(` membership is now active`)
		if !r.ExpiresAt.IsZero() {
			h.raw(` until <strong>`)
			h.text(r.ExpiresAt.Format("2 January 2006"))
			h.raw(`</strong>`)
		}
		h.raw(`.</p><table cellpadding="4">`)
		row := func(label, value string) {
			h.raw(`<tr><td>`)
			h.text(label)
			h.raw(`</td><td>`)
			h.text(value)
			h.raw(`</td></tr>`)
		}
		row("Amount", fmt.Sprintf("%d %s", r.Amount, r.Currency))
		row("Period", fmt.Sprintf("%d month(s)", max(r.Months, 1)))
		row("Reference", r.SessionID)
		if !r.CompletedAt.IsZero() {
			row("Paid at", r.CompletedAt.UTC().Format("2006-01-02 15:04 MST"))
		}
		h.raw(`</table></body></html>`)
		return h.err
	})
}
