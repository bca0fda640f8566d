// Package remote implements the shared rating cache client, the second
// tier of the rating-resolution hierarchy. It speaks a PostgREST-style
// REST API: exact-key reads on the raw (artist, album) pair and
// merge-duplicates upserts. Remote failures are soft; callers treat them
// as cache misses.
package remote
