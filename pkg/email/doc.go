// Package email sends transactional messages such as payment receipts.
//
// Sender is the provider abstraction. Postmark delivers in production; DevSender writes
// each message to disk as an HTML file plus a JSON metadata file so receipts can be
// inspected locally without a provider account. NewSender picks one from Config.
//
// Bodies are templ components rendered with Render:
//
//	body, err := email.Render(ctx, views.ReceiptEmail(receipt))
//	if err != nil {
//	    return err
//	}
//	err = sender.Send(ctx, email.Message{
//	    To:       "user@example.com",
//	    Subject:  "Your Gold membership is active",
//	    HTMLBody: body,
//	    Tag:      "payment-receipt",
//	})
package email
