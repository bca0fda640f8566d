// Package testsupport provides shared fixtures for package tests.
package testsupport

import (
	"path/filepath"
	"testing"

	"segue/internal/config"
	"segue/internal/ratings"
)

// NewConfig returns a validated config rooted in a per-test temp
// directory, bound to an ephemeral port and running local-only.
func NewConfig(tb testing.TB) *config.Config {
	tb.Helper()
	dir := tb.TempDir()
	cfg := config.Default()
	cfg.Paths.DataDir = filepath.Join(dir, "data")
	cfg.Paths.LogDir = filepath.Join(dir, "logs")
	cfg.Paths.APIBind = "127.0.0.1:0"
	if err := cfg.EnsureDirectories(); err != nil {
		tb.Fatalf("ensure directories: %v", err)
	}
	return &cfg
}

// MustOpenStore opens the ratings store for the config and closes it when
// the test finishes.
func MustOpenStore(tb testing.TB, cfg *config.Config) *ratings.Store {
	tb.Helper()
	store, err := ratings.Open(cfg)
	if err != nil {
		tb.Fatalf("open ratings store: %v", err)
	}
	tb.Cleanup(func() {
		if err := store.Close(); err != nil {
			tb.Errorf("close ratings store: %v", err)
		}
	})
	return store
}
