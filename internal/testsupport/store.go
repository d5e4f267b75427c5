package testsupport

import (
	"context"
	"testing"

	"kaldiark/internal/config"
	"kaldiark/internal/store"
)

// MustOpenStore opens a store.Store at the config's store path and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *store.Store {
	t.Helper()

	s, err := store.Open(context.Background(), cfg.Store.Path)
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() {
		_ = s.Close()
	})
	return s
}
