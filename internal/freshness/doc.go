// Package freshness decides when a cached rating record is due for a
// re-scrape. The TTL scales with the age of the release: new albums
// accumulate ratings quickly and go stale within a day, while decades-old
// catalog entries barely move and keep a six-month TTL. An unparseable
// release date feeds the default TTL rather than an error.
package freshness
