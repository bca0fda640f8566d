// Package notify delivers sync milestones via pluggable notifiers.
//
// The default implementation publishes to ntfy using the topic configured
// in config.toml and degrades to a no-op when no topic is set. Sync code
// depends only on the Service interface.
package notify
