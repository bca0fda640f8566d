package navigator

import (
	"context"
	"net/url"
	"strings"
	"sync"
	"time"

	"segue/internal/identity"
)

// Navigator drives the secondary surface to a target URL.
type Navigator interface {
	Navigate(ctx context.Context, targetURL string) error
}

// Func adapts a function to the Navigator interface.
type Func func(ctx context.Context, targetURL string) error

func (f Func) Navigate(ctx context.Context, targetURL string) error {
	return f(ctx, targetURL)
}

// DefaultMinInterval is the default spacing between navigations.
const DefaultMinInterval = 2 * time.Second

// RateLimited wraps a Navigator with minimum spacing between calls.
type RateLimited struct {
	inner       Navigator
	minInterval time.Duration

	mu   sync.Mutex
	next time.Time

	now   func() time.Time
	sleep func(ctx context.Context, d time.Duration) error
}

// RateLimit wraps inner so consecutive navigations are at least
// minInterval apart. A non-positive interval uses the default.
func RateLimit(inner Navigator, minInterval time.Duration) *RateLimited {
	if minInterval <= 0 {
		minInterval = DefaultMinInterval
	}
	return &RateLimited{
		inner:       inner,
		minInterval: minInterval,
		now:         time.Now,
		sleep:       sleepWithContext,
	}
}

// WithClock overrides the limiter's clock and sleep function. Test hook.
func (r *RateLimited) WithClock(now func() time.Time, sleep func(ctx context.Context, d time.Duration) error) *RateLimited {
	r.now = now
	r.sleep = sleep
	return r
}

// Navigate waits out the remaining gap and forwards to the wrapped
// navigator. The slot is claimed before sleeping, so overlapping callers
// serialize onto consecutive slots. Cancellation during the wait releases
// nothing; the claimed slot stays spent.
func (r *RateLimited) Navigate(ctx context.Context, targetURL string) error {
	r.mu.Lock()
	now := r.now()
	var wait time.Duration
	if r.next.After(now) {
		wait = r.next.Sub(now)
	}
	r.next = now.Add(wait + r.minInterval)
	r.mu.Unlock()

	if wait > 0 {
		if err := r.sleep(ctx, wait); err != nil {
			return err
		}
	}
	return r.inner.Navigate(ctx, targetURL)
}

func sleepWithContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

const (
	ratingSiteBase = "https://rateyourmusic.com"
	// HomepageURL is where the secondary surface starts on first focus.
	HomepageURL = ratingSiteBase + "/"
)

// SearchURL builds the rating site's release search page for an identity.
func SearchURL(id identity.Identity) string {
	term := strings.TrimSpace(id.Artist + " " + id.Album)
	query := url.Values{}
	query.Set("searchterm", term)
	query.Set("searchtype", "l")
	return ratingSiteBase + "/search?" + query.Encode()
}

// FallbackSearchURL builds a site-scoped web search that redirects to the
// top result, used when the direct search page finds nothing. The leading
// backslash is the engine's go-to-first-result operator.
func FallbackSearchURL(id identity.Identity) string {
	term := strings.TrimSpace(id.Artist + " " + id.Album)
	query := url.Values{}
	query.Set("q", `\`+term+" site:rateyourmusic.com/release")
	return "https://duckduckgo.com/?" + query.Encode()
}
