package freshness_test

import (
	"testing"
	"time"

	"segue/internal/freshness"
)

func TestParseReleaseDate(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  time.Time
		ok    bool
	}{
		{"full date", "24 December 2025", time.Date(2025, time.December, 24, 0, 0, 0, 0, time.UTC), true},
		{"abbreviated month", "24 Dec 2025", time.Date(2025, time.December, 24, 0, 0, 0, 0, time.UTC), true},
		{"month year", "December 2025", time.Date(2025, time.December, 1, 0, 0, 0, 0, time.UTC), true},
		{"abbreviated month year", "Dec 2025", time.Date(2025, time.December, 1, 0, 0, 0, 0, time.UTC), true},
		{"bare year", "1997", time.Date(1997, time.January, 1, 0, 0, 0, 0, time.UTC), true},
		{"year out of range", "1850", time.Time{}, false},
		{"garbage", "coming soon", time.Time{}, false},
		{"empty", "", time.Time{}, false},
		{"whitespace trimmed", "  3 March 2021  ", time.Date(2021, time.March, 3, 0, 0, 0, 0, time.UTC), true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, ok := freshness.ParseReleaseDate(tc.input)
			if ok != tc.ok {
				t.Fatalf("ParseReleaseDate(%q) ok = %v, want %v", tc.input, ok, tc.ok)
			}
			if ok && !got.Equal(tc.want) {
				t.Fatalf("ParseReleaseDate(%q) = %v, want %v", tc.input, got, tc.want)
			}
		})
	}
}

func TestTTLByReleaseAge(t *testing.T) {
	now := time.Date(2026, time.June, 1, 12, 0, 0, 0, time.UTC)
	day := 24 * time.Hour
	tests := []struct {
		name string
		age  time.Duration
		want time.Duration
	}{
		{"released yesterday", 1 * day, 1 * day},
		{"just under two weeks", 13 * day, 1 * day},
		{"two weeks", 14 * day, 3 * day},
		{"one month", 29 * day, 3 * day},
		{"one quarter", 100 * day, 14 * day},
		{"half year", 200 * day, 30 * day},
		{"eighteen months", 500 * day, 90 * day},
		{"two years", 730 * day, 180 * day},
		{"decades", 10000 * day, 180 * day},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := freshness.TTL(now, now.Add(-tc.age), true)
			if got != tc.want {
				t.Fatalf("TTL(age=%v) = %v, want %v", tc.age, got, tc.want)
			}
		})
	}

	if got := freshness.TTL(now, time.Time{}, false); got != freshness.DefaultTTL {
		t.Fatalf("unknown release TTL = %v, want %v", got, freshness.DefaultTTL)
	}
}

func TestTTLForOldYearOnlyRelease(t *testing.T) {
	// A bare "1997" parses as Jan 1 1997; against any present-day clock the
	// release is past the two-year band and keeps the default TTL, so a
	// record fetched ten days ago is still fresh.
	now := time.Date(2026, time.August, 23, 0, 0, 0, 0, time.UTC)
	ttl := freshness.TTLForReleaseDate(now, "1997")
	if ttl != freshness.DefaultTTL {
		t.Fatalf("TTL for 1997 release = %v, want %v", ttl, freshness.DefaultTTL)
	}
	fetchedAt := now.Add(-10 * 24 * time.Hour)
	if !freshness.IsFresh(fetchedAt, ttl, now) {
		t.Fatal("record fetched 10 days ago should be fresh under the 180 day TTL")
	}
}

func TestIsFreshBoundary(t *testing.T) {
	now := time.Date(2026, time.June, 1, 0, 0, 0, 0, time.UTC)
	day := 24 * time.Hour

	if freshness.IsFresh(now.Add(-day), day, now) {
		t.Fatal("record exactly one TTL old must be stale")
	}
	if !freshness.IsFresh(now.Add(-23*time.Hour), day, now) {
		t.Fatal("record 23h old under a 1 day TTL must be fresh")
	}
}
