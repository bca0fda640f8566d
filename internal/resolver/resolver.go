package resolver

import (
	"context"
	"log/slog"
	"time"

	"segue/internal/freshness"
	"segue/internal/identity"
	"segue/internal/logging"
	"segue/internal/ratings"
)

// RemoteCache is the remote tier consulted after a local miss. A nil
// implementation result means miss; errors are soft and logged.
type RemoteCache interface {
	Get(ctx context.Context, id identity.Identity) (*ratings.Record, error)
}

// LocalStore is the persistent tier. Satisfied by *ratings.Store.
type LocalStore interface {
	Get(ctx context.Context, id identity.Identity) (*ratings.Record, error)
	Upsert(ctx context.Context, record *ratings.Record) error
}

// Resolver resolves rating records through the tier hierarchy.
type Resolver struct {
	store  LocalStore
	remote RemoteCache
	logger *slog.Logger
	now    func() time.Time
}

// New constructs a resolver. remote may be nil for local-only operation.
func New(store LocalStore, remote RemoteCache, logger *slog.Logger) *Resolver {
	return &Resolver{
		store:  store,
		remote: remote,
		logger: logging.NewComponentLogger(logger, "resolver"),
		now:    time.Now,
	}
}

// WithClock overrides the resolver's clock. Test hook.
func (r *Resolver) WithClock(now func() time.Time) *Resolver {
	r.now = now
	return r
}

// Resolve classifies the best known record for the identity.
//
// A fresh and complete local record short-circuits without touching the
// remote tier. Otherwise the remote tier is consulted; a fresh and
// complete remote record is persisted locally and returned. Failing
// both, the newest stale candidate is returned tagged stale, and a true
// miss returns a placeholder tagged missing. force demands a re-scrape:
// it skips the freshness short-circuit and bypasses the remote tier
// entirely, returning whatever the local tier holds tagged stale.
func (r *Resolver) Resolve(ctx context.Context, id identity.Identity, force bool) (*ratings.Record, error) {
	now := r.now().UTC()

	local, err := r.store.Get(ctx, id)
	if err != nil {
		// Treated as a miss so a damaged local database degrades to
		// remote lookups instead of blocking resolution.
		r.logger.Warn("local cache read failed", logging.Error(err), logging.String("key", id.Key()))
		local = nil
	}

	if local != nil && !force && r.usable(local, now) {
		local.Status = ratings.StatusFresh
		return local, nil
	}

	candidate := local
	if r.remote != nil && !force {
		remoteRecord, err := r.remote.Get(ctx, id)
		if err != nil {
			r.logger.Warn("remote cache lookup failed", logging.Error(err), logging.String("key", id.Key()))
		} else if remoteRecord != nil {
			if r.usable(remoteRecord, now) {
				// A fresh remote hit is always written back, even when an
				// incomplete local row carries a newer fetched_at.
				if err := r.store.Upsert(ctx, remoteRecord); err != nil {
					r.logger.Warn("persist remote record failed", logging.Error(err), logging.String("key", id.Key()))
				}
				remoteRecord.Status = ratings.StatusFresh
				return remoteRecord, nil
			}
			if candidate == nil || remoteRecord.FetchedAt.After(candidate.FetchedAt) {
				if err := r.store.Upsert(ctx, remoteRecord); err != nil {
					r.logger.Warn("persist remote record failed", logging.Error(err), logging.String("key", id.Key()))
				}
				candidate = remoteRecord
			}
		}
	}

	if candidate != nil {
		candidate.Status = ratings.StatusStale
		return candidate, nil
	}
	return ratings.Missing(id, now), nil
}

func (r *Resolver) usable(record *ratings.Record, now time.Time) bool {
	if !record.Complete() {
		return false
	}
	ttl := freshness.TTLForReleaseDate(now, record.ReleaseDate)
	return freshness.IsFresh(record.FetchedAt, ttl, now)
}
