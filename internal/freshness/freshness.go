package freshness

import (
	"strconv"
	"strings"
	"time"
)

const day = 24 * time.Hour

// DefaultTTL applies when the release date is unknown or the release is
// older than two years.
const DefaultTTL = 180 * day

// ParseReleaseDate parses the free-text release dates the cataloging site
// publishes. Accepted shapes: "2 January 2006", "2 Jan 2006",
// "January 2006", "Jan 2006" (day defaults to the 1st), and a bare year
// (day and month default to January 1st). The boolean is false when no
// shape matches; that is the defined "unknown age" input, not an error.
func ParseReleaseDate(value string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}

	layouts := []string{"2 January 2006", "2 Jan 2006", "January 2006", "Jan 2006"}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, value); err == nil {
			return t.UTC(), true
		}
	}

	if year, err := strconv.Atoi(value); err == nil && year > 1900 && year < 2100 {
		return time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC), true
	}

	return time.Time{}, false
}

// TTL returns the cache lifetime for a record given the release instant.
// known=false selects the default TTL.
func TTL(now time.Time, release time.Time, known bool) time.Duration {
	if !known {
		return DefaultTTL
	}
	age := now.Sub(release)
	switch {
	case age < 14*day:
		return 1 * day
	case age < 30*day:
		return 3 * day
	case age < 180*day:
		return 14 * day
	case age < 365*day:
		return 30 * day
	case age < 730*day:
		return 90 * day
	default:
		return DefaultTTL
	}
}

// TTLForReleaseDate parses the free-text release date and returns the TTL
// in one step.
func TTLForReleaseDate(now time.Time, releaseDate string) time.Duration {
	release, known := ParseReleaseDate(releaseDate)
	return TTL(now, release, known)
}

// IsFresh reports whether a record fetched at fetchedAt is still within
// its TTL. The boundary is exclusive: a record exactly ttl old is stale.
func IsFresh(fetchedAt time.Time, ttl time.Duration, now time.Time) bool {
	return now.Sub(fetchedAt) < ttl
}
