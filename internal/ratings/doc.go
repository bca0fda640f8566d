// Package ratings persists scraped album rating records in SQLite and is
// the first tier of the rating-resolution hierarchy.
//
// Records are keyed on the raw (artist, album) pair with last-write-wins
// upserts; a second fuzzy lookup path matches on normalized identity so a
// query with different casing or punctuation still resolves. Records are
// never deleted: staleness is computed at read time by the freshness
// policy, not enforced by eviction.
//
// Schema changes must be additive-only (new optional columns defaulting
// empty) so older databases keep working after an upgrade.
package ratings
