package session

import (
	"net/url"
	"strings"
	"sync"

	"segue/internal/identity"
)

// Tracker holds per-surface display state. All methods are safe for
// concurrent use.
type Tracker struct {
	mu sync.Mutex

	primary   identity.Identity
	secondary identity.Identity

	// One-shot flags. Set before a programmatic navigation so the
	// resulting display event on the other surface is swallowed instead
	// of triggering a navigation back.
	suppressPrimary   bool
	suppressSecondary bool

	primaryURL       string
	primaryFocused   bool
	secondaryFocused bool

	secondaryInitialized bool
}

// NewTracker returns an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{}
}

// SetPrimary records the identity the primary surface is displaying.
func (t *Tracker) SetPrimary(id identity.Identity) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.primary = id
}

// Primary returns the identity last displayed on the primary surface.
func (t *Tracker) Primary() identity.Identity {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.primary
}

// SetSecondary records the identity the secondary surface is displaying.
// The orchestrator calls this before navigating, so a display event that
// merely confirms the navigation target is recognizable as an echo.
func (t *Tracker) SetSecondary(id identity.Identity) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.secondary = id
}

// Secondary returns the identity last recorded for the secondary surface.
func (t *Tracker) Secondary() identity.Identity {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.secondary
}

// SuppressNextPrimary arms the one-shot flag swallowing the next
// primary-originated sync.
func (t *Tracker) SuppressNextPrimary() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.suppressPrimary = true
}

// ConsumePrimarySuppression reports whether the flag was armed and clears
// it. Exactly one event is swallowed per arming.
func (t *Tracker) ConsumePrimarySuppression() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	armed := t.suppressPrimary
	t.suppressPrimary = false
	return armed
}

// SuppressNextSecondary arms the one-shot flag swallowing the next
// secondary-originated sync.
func (t *Tracker) SuppressNextSecondary() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.suppressSecondary = true
}

// ConsumeSecondarySuppression reports whether the flag was armed and
// clears it.
func (t *Tracker) ConsumeSecondarySuppression() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	armed := t.suppressSecondary
	t.suppressSecondary = false
	return armed
}

// SetPrimaryURL records the primary surface's current page URL after
// normalization.
func (t *Tracker) SetPrimaryURL(raw string) {
	normalized := NormalizeStoreURL(raw)
	t.mu.Lock()
	defer t.mu.Unlock()
	t.primaryURL = normalized
}

// PrimaryURL returns the normalized primary surface URL.
func (t *Tracker) PrimaryURL() string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.primaryURL
}

// SetPrimaryFocused records whether the primary surface has focus.
func (t *Tracker) SetPrimaryFocused(focused bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.primaryFocused = focused
}

// PrimaryFocused reports whether the primary surface has focus.
func (t *Tracker) PrimaryFocused() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.primaryFocused
}

// SetSecondaryFocused records whether the secondary surface has focus.
func (t *Tracker) SetSecondaryFocused(focused bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.secondaryFocused = focused
}

// SecondaryFocused reports whether the secondary surface has focus.
func (t *Tracker) SecondaryFocused() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.secondaryFocused
}

// MarkSecondaryInitialized flips the init flag and reports whether this
// call was the first. The first focus drives the secondary surface to its
// homepage exactly once.
func (t *Tracker) MarkSecondaryInitialized() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.secondaryInitialized {
		return false
	}
	t.secondaryInitialized = true
	return true
}

// SecondaryInitialized reports whether the secondary surface has been
// initialized.
func (t *Tracker) SecondaryInitialized() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.secondaryInitialized
}

// NormalizeStoreURL folds regional storefront hosts onto the canonical
// one so URL comparisons are stable across geo redirects.
func NormalizeStoreURL(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}
	parsed, err := url.Parse(trimmed)
	if err != nil || parsed.Host == "" {
		return trimmed
	}
	if strings.EqualFold(parsed.Host, "geo.music.apple.com") {
		parsed.Host = "music.apple.com"
		return parsed.String()
	}
	return trimmed
}
