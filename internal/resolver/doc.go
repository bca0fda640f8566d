// Package resolver answers "what do we know about this release" by
// walking the cache hierarchy: local store first, then the shared remote
// cache, then a tagged miss. Resolution never blocks on a scrape; it only
// classifies what is already cached so the sync orchestrator can decide
// whether a navigation is needed.
package resolver
