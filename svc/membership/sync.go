package membership

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/dmitrymomot/membership/pkg/async"
	"github.com/dmitrymomot/membership/pkg/logger"
)

const (
	storeRemote = "remote"
	storeLocal  = "local"
)

// Syncer reconciles the authoritative store with the local cache.
type Syncer struct {
	remote       Store
	local        Store
	log          *slog.Logger
	recorder     Recorder
	writeTimeout time.Duration
}

// SyncerOption configures a Syncer.
type SyncerOption func(*Syncer)

func WithSyncLogger(l *slog.Logger) SyncerOption {
	return func(s *Syncer) {
		if l != nil {
			s.log = l
		}
	}
}

func WithSyncRecorder(r Recorder) SyncerOption {
	return func(s *Syncer) {
		if r != nil {
			s.recorder = r
		}
	}
}

// WithWriteTimeout bounds how long a persist waits for both stores.
func WithWriteTimeout(d time.Duration) SyncerOption {
	return func(s *Syncer) {
		if d > 0 {
			s.writeTimeout = d
		}
	}
}

// NewSyncer panics if either store is nil.
func NewSyncer(remote, local Store, opts ...SyncerOption) *Syncer {
	if remote == nil {
		panic("membership: remote Store is required")
	}
	if local == nil {
		panic("membership: local Store is required")
	}
	s := &Syncer{
		remote:       remote,
		local:        local,
		log:          slog.Default(),
		recorder:     nopRecorder{},
		writeTimeout: 3 * time.Second,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.log = s.log.With(logger.Component("membership.sync"))
	return s
}

// Load resolves the record of userID. The authoritative store wins; when it fails or has
// no record the local cache is used, and when neither has one a default free record is
// returned. The Source is resolved once and never changes for the returned record.
// Callers push non-remote results upward with Persist.
func (s *Syncer) Load(ctx context.Context, userID string) (*Record, Source) {
	rec, err := s.remote.Get(ctx, userID)
	if err == nil && rec != nil {
		rec.normalize()
		s.recorder.RecordLoaded(SourceRemote)
		return rec, SourceRemote
	}
	if err != nil && !errors.Is(err, ErrRecordNotFound) {
		s.log.WarnContext(ctx, "authoritative store unavailable, falling back to local cache",
			logger.UserID(userID), logger.Error(err))
	}

	rec, err = s.local.Get(ctx, userID)
	if err == nil && rec != nil {
		rec.normalize()
		s.recorder.RecordLoaded(SourceLocal)
		return rec, SourceLocal
	}
	if err != nil && !errors.Is(err, ErrRecordNotFound) {
		s.log.WarnContext(ctx, "local cache unavailable", logger.UserID(userID), logger.Error(err))
	}

	s.recorder.RecordLoaded(SourceDefault)
	return NewRecord(userID), SourceDefault
}

// Persist writes rec to both stores concurrently. Failures are logged and never returned.
func (s *Syncer) Persist(ctx context.Context, rec *Record) {
	ctx, cancel := s.writeContext(ctx)
	defer cancel()

	remote := async.Run(ctx, rec.Clone(), s.remote.Save)
	local := async.Run(ctx, rec.Clone(), s.local.Save)

	errs := async.Settle(s.writeTimeout, remote, local)
	s.report(ctx, rec.UserID, storeRemote, errs[0])
	s.report(ctx, rec.UserID, storeLocal, errs[1])
}

// PersistStrict writes rec to the authoritative store and returns its error.
// The local write stays best-effort.
func (s *Syncer) PersistStrict(ctx context.Context, rec *Record) error {
	ctx, cancel := s.writeContext(ctx)
	defer cancel()

	local := async.Run(ctx, rec.Clone(), s.local.Save)
	remoteErr := s.remote.Save(ctx, rec.Clone())

	s.report(ctx, rec.UserID, storeLocal, async.Settle(s.writeTimeout, local)[0])
	if remoteErr != nil {
		s.recorder.SyncWriteFailed(storeRemote)
		return errors.Join(ErrRemoteWriteFailed, remoteErr)
	}
	return nil
}

// Cache refreshes only the local copy of rec.
func (s *Syncer) Cache(ctx context.Context, rec *Record) {
	ctx, cancel := s.writeContext(ctx)
	defer cancel()
	s.report(ctx, rec.UserID, storeLocal, s.local.Save(ctx, rec.Clone()))
}

// writeContext detaches writes from the caller so a dropped request does not abort them.
func (s *Syncer) writeContext(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.WithoutCancel(ctx), s.writeTimeout)
}

func (s *Syncer) report(ctx context.Context, userID, store string, err error) {
	if err == nil {
		return
	}
	s.recorder.SyncWriteFailed(store)
	s.log.ErrorContext(ctx, fmt.Sprintf("failed to write membership to %s store", store),
		logger.UserID(userID), logger.Error(err))
}
