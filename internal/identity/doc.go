// Package identity canonicalizes artist/album labels and defines the
// lookup key shared by the cache tiers and the sync orchestrator.
//
// Two labels name the same release iff their normalized forms are equal.
// Loose matching (LooselyEqual) is deliberately more permissive than
// normalized equality and is only used for "already displayed" checks,
// never for cache keys.
package identity
