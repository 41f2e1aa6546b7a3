package gateway

import (
	"context"
	"errors"
	"net/http"
)

type disabled struct {
	reason error
}

// DisabledGateway is both halves of a gateway integration, failing every call.
type DisabledGateway interface {
	Gateway
	NotificationParser
}

// Disabled returns a gateway whose every call fails with ErrNotConfigured joined with reason.
func Disabled(reason error) DisabledGateway {
	return &disabled{reason: reason}
}

func (d *disabled) CreateSession(context.Context, SessionRequest) (*Session, error) {
	return nil, errors.Join(ErrNotConfigured, d.reason)
}

func (d *disabled) GetStatus(context.Context, string) (*StatusResult, error) {
	return nil, errors.Join(ErrNotConfigured, d.reason)
}

func (d *disabled) ParseNotification(*http.Request, []byte) (*Notification, error) {
	return nil, errors.Join(ErrNotConfigured, d.reason)
}
