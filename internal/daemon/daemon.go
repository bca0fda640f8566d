package daemon

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"

	"segue/internal/config"
	"segue/internal/logging"
	"segue/internal/navigator"
	"segue/internal/notify"
	"segue/internal/ratings"
	"segue/internal/remote"
	"segue/internal/resolver"
	"segue/internal/syncer"
)

// Daemon wires the sync orchestrator to its transports and enforces
// single-instance execution.
type Daemon struct {
	cfg      *config.Config
	logger   *slog.Logger
	store    *ratings.Store
	resolver *resolver.Resolver
	syncer   *syncer.Syncer
	notifier notify.Service
	hub      *Hub
	api      *apiServer

	lockPath string
	lock     *flock.Flock

	running atomic.Bool
	cancel  context.CancelFunc
}

// Status represents daemon runtime information.
type Status struct {
	Running          bool           `json:"running"`
	PID              int            `json:"pid"`
	CacheDBPath      string         `json:"cache_db_path"`
	LockFilePath     string         `json:"lock_file_path"`
	RemoteEnabled    bool           `json:"remote_enabled"`
	Clients          int            `json:"clients"`
	Primary          string         `json:"primary,omitempty"`
	Secondary        string         `json:"secondary,omitempty"`
	PrimaryFocused   bool           `json:"primary_focused"`
	SecondaryFocused bool           `json:"secondary_focused"`
	Initialized      bool           `json:"initialized"`
	CacheHealth   ratings.Health `json:"cache_health"`
}

// New constructs a daemon with initialized dependencies.
func New(cfg *config.Config, store *ratings.Store, logger *slog.Logger) (*Daemon, error) {
	if cfg == nil || store == nil {
		return nil, errors.New("daemon requires config and store")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	hub := NewHub(logger)

	remoteClient := remote.NewFromConfig(cfg)
	var remoteTier resolver.RemoteCache
	var remoteSink syncer.RemoteSink
	if remoteClient != nil {
		remoteTier = remoteClient
		remoteSink = remoteClient
	}

	res := resolver.New(store, remoteTier, logger)

	// Navigation commands travel over the broadcast stream; the secondary
	// surface client performs the actual page load.
	nav := navigator.RateLimit(navigator.Func(func(_ context.Context, targetURL string) error {
		hub.Publish(syncer.Event{Type: syncer.EventSecondaryNavigate, Target: targetURL, Time: time.Now().UTC()})
		return nil
	}), time.Duration(cfg.Sync.NavigationMinIntervalMS)*time.Millisecond)

	notifier := notify.NewService(cfg)
	orchestrator, err := syncer.New(syncer.Options{
		Config:      cfg,
		Store:       store,
		Resolver:    res,
		Remote:      remoteSink,
		Navigator:   nav,
		Broadcaster: hub,
		Notifier:    notifier,
		Logger:      logger,
	})
	if err != nil {
		return nil, err
	}

	lockPath := filepath.Join(cfg.Paths.DataDir, "segued.lock")
	d := &Daemon{
		cfg:      cfg,
		logger:   logging.NewComponentLogger(logger, "daemon"),
		store:    store,
		resolver: res,
		syncer:   orchestrator,
		notifier: notifier,
		hub:      hub,
		lockPath: lockPath,
		lock:     flock.New(lockPath),
	}
	d.api = newAPIServer(cfg, d, logger)
	return d, nil
}

// Syncer exposes the orchestrator, mainly for tests.
func (d *Daemon) Syncer() *syncer.Syncer {
	return d.syncer
}

// Routes exposes the API handler for serving over an external listener,
// mainly in tests.
func (d *Daemon) Routes() http.Handler {
	if d.api == nil {
		return http.NotFoundHandler()
	}
	return d.api.routes()
}

// Start acquires the daemon lock and brings up the API server.
func (d *Daemon) Start(ctx context.Context) error {
	if d.running.Load() {
		return errors.New("daemon already running")
	}

	ok, err := d.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return errors.New("another segue daemon instance is already running")
	}

	runCtx, cancel := context.WithCancel(ctx)
	d.cancel = cancel
	if d.api != nil {
		if err := d.api.start(runCtx); err != nil {
			_ = d.lock.Unlock()
			cancel()
			d.cancel = nil
			return err
		}
	}

	d.running.Store(true)
	d.logger.Info("segue daemon started", logging.String("lock", d.lockPath))
	return nil
}

// Stop shuts down the API server and releases the daemon lock.
func (d *Daemon) Stop() {
	if !d.running.Load() {
		return
	}
	if d.api != nil {
		d.api.stop()
	}
	d.syncer.Drain()
	if d.cancel != nil {
		d.cancel()
		d.cancel = nil
	}
	if err := d.lock.Unlock(); err != nil {
		d.logger.Warn("release lock failed", logging.Error(err))
	}
	d.running.Store(false)
	d.logger.Info("segue daemon stopped")
}

// Status reports the daemon's runtime state.
func (d *Daemon) Status(ctx context.Context) Status {
	tracker := d.syncer.Tracker()
	health, err := d.store.CheckHealth(ctx)
	if err != nil {
		d.logger.Warn("cache health check failed", logging.Error(err))
	}

	status := Status{
		Running:          d.running.Load(),
		PID:              os.Getpid(),
		CacheDBPath:      d.store.Path(),
		LockFilePath:     d.lockPath,
		RemoteEnabled:    d.cfg.RemoteEnabled(),
		Clients:          d.hub.Count(),
		PrimaryFocused:   tracker.PrimaryFocused(),
		SecondaryFocused: tracker.SecondaryFocused(),
		Initialized:      tracker.SecondaryInitialized(),
		CacheHealth:      health,
	}
	if primary := tracker.Primary(); !primary.IsZero() {
		status.Primary = primary.Key()
	}
	if secondary := tracker.Secondary(); !secondary.IsZero() {
		status.Secondary = secondary.Key()
	}
	return status
}
