package syncer

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"segue/internal/config"
	"segue/internal/identity"
	"segue/internal/logging"
	"segue/internal/navigator"
	"segue/internal/notify"
	"segue/internal/ratings"
	"segue/internal/session"
)

// Resolver classifies the best known record for an identity.
type Resolver interface {
	Resolve(ctx context.Context, id identity.Identity, force bool) (*ratings.Record, error)
}

// Store is the local persistence surface the orchestrator writes scraped
// records to. Satisfied by *ratings.Store.
type Store interface {
	Upsert(ctx context.Context, record *ratings.Record) error
}

// RemoteSink receives best-effort writes to the shared cache. Satisfied
// by *remote.Client.
type RemoteSink interface {
	Upsert(ctx context.Context, record *ratings.Record) error
}

// Options bundles the orchestrator's collaborators.
type Options struct {
	Config      *config.Config
	Store       Store
	Resolver    Resolver
	Remote      RemoteSink // nil for local-only operation
	Navigator   navigator.Navigator
	Tracker     *session.Tracker
	Broadcaster Broadcaster
	Notifier    notify.Service
	Logger      *slog.Logger
}

// Syncer coordinates the two surfaces.
type Syncer struct {
	cfg         *config.Config
	store       Store
	resolver    Resolver
	remote      RemoteSink
	navigator   navigator.Navigator
	tracker     *session.Tracker
	broadcaster Broadcaster
	notifier    notify.Service
	logger      *slog.Logger
	now         func() time.Time

	mu           sync.Mutex
	lastFallback string // normalized key of the identity the search fallback already ran for

	mirrors sync.WaitGroup
}

// mirrorTimeout bounds each detached remote mirror write.
const mirrorTimeout = 30 * time.Second

// New constructs the orchestrator.
func New(opts Options) (*Syncer, error) {
	if opts.Store == nil {
		return nil, errors.New("syncer requires a store")
	}
	if opts.Resolver == nil {
		return nil, errors.New("syncer requires a resolver")
	}
	if opts.Navigator == nil {
		return nil, errors.New("syncer requires a navigator")
	}
	cfg := opts.Config
	if cfg == nil {
		defaults := config.Default()
		cfg = &defaults
	}
	tracker := opts.Tracker
	if tracker == nil {
		tracker = session.NewTracker()
	}
	notifier := opts.Notifier
	if notifier == nil {
		notifier = noopNotifier{}
	}
	return &Syncer{
		cfg:         cfg,
		store:       opts.Store,
		resolver:    opts.Resolver,
		remote:      opts.Remote,
		navigator:   opts.Navigator,
		tracker:     tracker,
		broadcaster: opts.Broadcaster,
		notifier:    notifier,
		logger:      logging.NewComponentLogger(opts.Logger, "syncer"),
		now:         time.Now,
	}, nil
}

// WithClock overrides the orchestrator's clock. Test hook.
func (s *Syncer) WithClock(now func() time.Time) *Syncer {
	s.now = now
	return s
}

// Tracker exposes the session tracker for status reporting.
func (s *Syncer) Tracker() *session.Tracker {
	return s.tracker
}

// PrimaryDisplayed handles the primary surface showing a release. The
// rating is always resolved and broadcast; a navigation is scheduled only
// when the record needs scraping and no suppression or policy rule
// applies.
//
// background marks events not caused by direct user interaction (track
// auto-advance). Those skip navigation while the secondary surface is
// unfocused and a stale candidate is already on hand, so an idle player
// does not drive the browser around for data it can serve anyway. force
// overrides every skip rule and demands a re-scrape.
func (s *Syncer) PrimaryDisplayed(ctx context.Context, artist, album, pageURL string, background, force bool) error {
	id := identity.New(artist, album)
	if id.Artist == "" && id.Album == "" {
		return nil
	}
	s.tracker.SetPrimary(id)
	if strings.TrimSpace(pageURL) != "" {
		s.tracker.SetPrimaryURL(pageURL)
	}

	record, err := s.resolver.Resolve(ctx, id, force)
	if err != nil {
		return err
	}
	s.publishRating(record)

	suppressed := s.tracker.ConsumePrimarySuppression()
	if suppressed && !force {
		s.logger.Debug("primary event suppressed", logging.String("key", id.Key()))
		return nil
	}

	secondary := s.tracker.Secondary()
	if background && !force && identity.LooselyEqual(secondary.Artist, id.Artist) && identity.LooselyEqual(secondary.Album, id.Album) {
		s.logger.Debug("surfaces already in sync", logging.String("key", id.Key()))
		return nil
	}

	if record.Status == ratings.StatusFresh && !force {
		return nil
	}

	// Usable stale data is not worth a navigation while nobody is looking
	// at the secondary surface. A true miss still gets its one background
	// fetch, otherwise the rating could never arrive.
	if background && !force && !s.tracker.SecondaryFocused() && record.Status == ratings.StatusStale {
		s.logger.Debug("stale candidate held, navigation skipped", logging.String("key", id.Key()))
		return nil
	}

	target := strings.TrimSpace(record.SourceURL)
	if target == "" {
		target = navigator.SearchURL(id)
	}
	return s.navigate(ctx, id, target)
}

// SecondaryDisplayed handles the secondary surface showing a release,
// either as the echo of our own navigation or because the user browsed
// there. Echoes are swallowed; genuine browsing syncs the primary surface
// via a broadcast command.
func (s *Syncer) SecondaryDisplayed(ctx context.Context, artist, album string) error {
	id := identity.New(artist, album)
	if id.Artist == "" && id.Album == "" {
		return nil
	}
	s.tracker.SetSecondary(id)

	if s.tracker.ConsumeSecondarySuppression() {
		s.logger.Debug("secondary event suppressed", logging.String("key", id.Key()))
		return nil
	}

	primary := s.tracker.Primary()
	if identity.LooselyEqual(primary.Artist, id.Artist) && identity.LooselyEqual(primary.Album, id.Album) {
		return nil
	}

	s.tracker.SuppressNextPrimary()
	s.publish(Event{
		Type:   EventPrimarySync,
		Key:    id.Key(),
		Artist: id.Artist,
		Album:  id.Album,
	})
	s.logger.Info("reverse sync requested", logging.String("key", id.Key()))
	return nil
}

// ScrapeCompleted ingests a scraped record: persist locally, mirror to
// the shared cache best-effort, and broadcast the fresh rating. The
// scrape's own display event never triggers another navigation because
// the tracked secondary identity now matches.
func (s *Syncer) ScrapeCompleted(ctx context.Context, record *ratings.Record) error {
	if record == nil {
		return errors.New("scrape record is nil")
	}
	id := record.Identity()
	if id.Artist == "" || id.Album == "" {
		return errors.New("scrape record requires artist and album")
	}

	record.FetchedAt = s.now().UTC()
	if err := s.store.Upsert(ctx, record); err != nil {
		return err
	}
	s.mirror(record)

	s.tracker.SetSecondary(id)
	s.clearFallback()

	record.Status = ratings.StatusFresh
	s.publishRating(record)
	s.logger.Info("scrape stored", logging.String("key", id.Key()), logging.Float64("rating", record.Rating))
	return nil
}

// ScrapeMissed handles the secondary surface finding no release for the
// identity. The first miss retries through the site-scoped web search
// when enabled; a repeat miss broadcasts a tagged missing record.
func (s *Syncer) ScrapeMissed(ctx context.Context, artist, album string) error {
	id := identity.New(artist, album)
	if id.Artist == "" && id.Album == "" {
		return nil
	}

	if s.cfg.Sync.SearchFallback && s.markFallback(id) {
		s.logger.Info("search missed, trying web fallback", logging.String("key", id.Key()))
		return s.navigate(ctx, id, navigator.FallbackSearchURL(id))
	}

	s.publishRating(ratings.Missing(id, s.now().UTC()))
	if err := s.notifier.NotifyRatingMissing(ctx, id.Key()); err != nil {
		s.logger.Warn("missing-rating notification failed", logging.Error(err))
	}
	s.logger.Info("no rating found", logging.String("key", id.Key()))
	return nil
}

// ManualLink stores the record under the target identity, overriding the
// automatic match. The payload keeps the scraped data; only the identity
// is rewritten, so repeating the link is idempotent.
func (s *Syncer) ManualLink(ctx context.Context, target identity.Identity, record *ratings.Record) error {
	if record == nil {
		return errors.New("manual link requires a record")
	}
	if target.Artist == "" || target.Album == "" {
		return errors.New("manual link requires a target identity")
	}

	fromKey := record.Identity().Key()
	record.ArtistName = target.Artist
	record.AlbumName = target.Album
	if record.FetchedAt.IsZero() {
		record.FetchedAt = s.now().UTC()
	}

	if err := s.store.Upsert(ctx, record); err != nil {
		return err
	}
	s.mirror(record)

	record.Status = ratings.StatusFresh
	s.publishRating(record)
	if err := s.notifier.NotifyManualMatch(ctx, fromKey, target.Key()); err != nil {
		s.logger.Warn("manual-match notification failed", logging.Error(err))
	}
	s.logger.Info("manual match stored", logging.String("from", fromKey), logging.String("to", target.Key()))
	return nil
}

// PrimaryFocusChanged records focus transitions of the primary surface.
func (s *Syncer) PrimaryFocusChanged(focused bool) {
	s.tracker.SetPrimaryFocused(focused)
}

// SecondaryFocusChanged records focus transitions of the secondary
// surface and drives it to the rating site homepage the first time it
// gains focus.
func (s *Syncer) SecondaryFocusChanged(ctx context.Context, focused bool) error {
	s.tracker.SetSecondaryFocused(focused)
	if !focused {
		return nil
	}
	if !s.tracker.MarkSecondaryInitialized() {
		return nil
	}
	s.logger.Info("initializing secondary surface")
	return s.navigator.Navigate(ctx, navigator.HomepageURL)
}

// Drain blocks until detached remote mirror writes have finished. Called
// on shutdown and by tests asserting on mirror effects.
func (s *Syncer) Drain() {
	s.mirrors.Wait()
}

func (s *Syncer) navigate(ctx context.Context, id identity.Identity, target string) error {
	// Pre-write the identity and arm the echo suppression before the
	// navigation so the resulting display event cannot race us.
	s.tracker.SetSecondary(id)
	s.tracker.SuppressNextSecondary()
	s.logger.Info("navigating secondary surface", logging.String("key", id.Key()), logging.String("target", target))
	if err := s.navigator.Navigate(ctx, target); err != nil {
		// No navigation happened, so there is no echo to swallow.
		s.tracker.ConsumeSecondarySuppression()
		s.logger.Warn("navigation failed", logging.Error(err), logging.String("target", target))
		return err
	}
	return nil
}

// mirror writes the record to the shared cache as a detached task with a
// logging-only error sink. The local store is the source of truth; no
// ordering is guaranteed relative to the caller.
func (s *Syncer) mirror(record *ratings.Record) {
	if s.remote == nil {
		return
	}
	snapshot := *record
	s.mirrors.Add(1)
	go func() {
		defer s.mirrors.Done()
		ctx, cancel := context.WithTimeout(context.Background(), mirrorTimeout)
		defer cancel()
		if err := s.remote.Upsert(ctx, &snapshot); err != nil {
			s.logger.Warn("remote mirror failed", logging.Error(err), logging.String("key", snapshot.Identity().Key()))
		}
	}()
}

func (s *Syncer) publishRating(record *ratings.Record) {
	if record == nil {
		return
	}
	id := record.Identity()
	s.publish(Event{
		Type:   EventRatingUpdate,
		Key:    id.Key(),
		Artist: id.Artist,
		Album:  id.Album,
		Record: record,
	})
}

func (s *Syncer) publish(event Event) {
	if s.broadcaster == nil {
		return
	}
	event.ID = uuid.NewString()
	event.Time = s.now().UTC()
	s.broadcaster.Publish(event)
}

func (s *Syncer) markFallback(id identity.Identity) bool {
	key := id.NormalizedKey()
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.lastFallback == key {
		return false
	}
	s.lastFallback = key
	return true
}

func (s *Syncer) clearFallback() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastFallback = ""
}

type noopNotifier struct{}

func (noopNotifier) NotifyManualMatch(context.Context, string, string) error { return nil }

func (noopNotifier) NotifyRatingMissing(context.Context, string) error { return nil }

func (noopNotifier) NotifyError(context.Context, error, string) error { return nil }

func (noopNotifier) TestNotification(context.Context) error { return nil }
