// Package payment runs the lifecycle of a paid tier upgrade against an asynchronous
// payment gateway.
//
// CreateCheckout opens a gateway session and records a pending Transaction. Success is
// then observed by whichever path sees it first: the client polling Verify, or the
// gateway pushing a notification to HandleNotification. Both funnel into one apply step
// that grants the tier through membership.Service and moves the transaction from pending
// to completed with a conditional update, so the loser of the race performs no writes.
//
// Transaction states form a small table:
//
//	pending -> completed
//	pending -> failed
//	pending -> cancelled
//
// Every other transition is rejected.
package payment
