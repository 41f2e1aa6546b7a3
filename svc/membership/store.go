package membership

import (
	"context"
	"time"
)

// Store persists records keyed by user ID. Get returns ErrRecordNotFound for unknown users.
// Save is an upsert.
type Store interface {
	Get(ctx context.Context, userID string) (*Record, error)
	Save(ctx context.Context, rec *Record) error
}

// ExpiredLister is implemented by authoritative stores that can find paid records past their expiry.
type ExpiredLister interface {
	ListExpired(ctx context.Context, before time.Time, limit int) ([]string, error)
}

// Recorder receives entitlement and sync events, typically for metrics.
type Recorder interface {
	EntitlementChecked(operation, kind string, allowed bool)
	SyncWriteFailed(store string)
	RecordLoaded(source Source)
}

type nopRecorder struct{}

func (nopRecorder) EntitlementChecked(string, string, bool) {}
func (nopRecorder) SyncWriteFailed(string)                  {}
func (nopRecorder) RecordLoaded(Source)                     {}
