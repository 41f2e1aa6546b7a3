package membership

import "errors"

var (
	ErrMissingUserID     = errors.New("membership: user ID is required")
	ErrUnknownTier       = errors.New("membership: unknown tier")
	ErrUnknownFeature    = errors.New("membership: unknown daily feature")
	ErrUnknownCreditKind = errors.New("membership: unknown credit kind")
	ErrInvalidAmount     = errors.New("membership: invalid credit amount")

	ErrRecordNotFound = errors.New("membership: record not found")

	ErrFailedToLoadCatalog = errors.New("membership: failed to load tier catalog")
	ErrInvalidCatalog      = errors.New("membership: invalid tier catalog")

	ErrRemoteWriteFailed = errors.New("membership: authoritative store write failed")
)
