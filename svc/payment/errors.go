package payment

import "errors"

var (
	ErrTransactionNotFound  = errors.New("payment: transaction not found")
	ErrDuplicateTransaction = errors.New("payment: transaction already exists")
	ErrInvalidPhone         = errors.New("payment: invalid phone number")
	ErrInvalidAmount        = errors.New("payment: amount is below the tier price")
	ErrInvalidMonths        = errors.New("payment: billing months out of range")
	ErrTierUndetermined     = errors.New("payment: cannot determine the paid tier")
	ErrInvalidNonce         = errors.New("payment: invalid nonce")
	ErrMissingSession       = errors.New("payment: notification carries no session ID")
	ErrForbidden            = errors.New("payment: transaction belongs to another user")
	ErrInvalidConfig        = errors.New("payment: invalid config")
)
