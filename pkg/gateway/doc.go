// Package gateway talks to external payment gateways.
//
// Gateway is the narrow contract the payment service needs: open a hosted
// checkout session and ask for its status. Three implementations are provided:
//
//   - ArifPay: JSON over HTTPS with an API key header, used for local
//     mobile-money and bank payments.
//   - Paddle: Paddle Billing transactions for card payments.
//   - Disabled: returned when credentials are missing so the service can
//     start and every payment call fails with ErrNotConfigured.
//
// Errors are classified with sentinels: ErrProtocol for bodies that are not
// the expected JSON (the raw body is never included), ErrRejected for
// explicit validation failures with a user-facing message, and ErrNetwork for
// transport failures that callers may retry.
package gateway
