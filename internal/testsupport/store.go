package testsupport

import (
	"testing"

	"cadence/internal/catalog"
	"cadence/internal/config"
	"cadence/internal/downloads"
	"cadence/internal/review"
)

// MustOpenCatalog opens a catalog store under the config's log directory
// and registers cleanup with the test.
func MustOpenCatalog(t testing.TB, cfg *config.Config) *catalog.Store {
	t.Helper()
	store, err := catalog.Open(cfg)
	if err != nil {
		t.Fatalf("open catalog store: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Errorf("close catalog store: %v", err)
		}
	})
	return store
}

// MustOpenReviews opens a reviews store under the config's log directory
// and registers cleanup with the test.
func MustOpenReviews(t testing.TB, cfg *config.Config) *review.Store {
	t.Helper()
	store, err := review.Open(cfg)
	if err != nil {
		t.Fatalf("open reviews store: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Errorf("close reviews store: %v", err)
		}
	})
	return store
}

// MustOpenDownloads opens a downloads store under the config's log directory
// and registers cleanup with the test.
func MustOpenDownloads(t testing.TB, cfg *config.Config) *downloads.Store {
	t.Helper()
	store, err := downloads.Open(cfg)
	if err != nil {
		t.Fatalf("open downloads store: %v", err)
	}
	t.Cleanup(func() {
		if err := store.Close(); err != nil {
			t.Errorf("close downloads store: %v", err)
		}
	})
	return store
}
