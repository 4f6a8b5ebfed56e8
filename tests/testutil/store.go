package testutil

import (
	"context"
	"testing"

	"github.com/nhle/novatasks/internal/store"
	"github.com/nhle/novatasks/internal/tracker"
)

// NewTestStore returns an in-memory task store with every migration
// applied. The store is closed when the test ends.
func NewTestStore(t *testing.T) *store.SQLiteStore {
	t.Helper()

	s, err := store.NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("creating test store: %v", err)
	}
	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Errorf("closing test store: %v", err)
		}
	})
	return s
}

// NewTestTracker returns a tracker over a fresh in-memory store with its
// own bus. Packages below tracker cannot use it without an import cycle.
func NewTestTracker(t *testing.T, opts ...tracker.Option) *tracker.Tracker {
	t.Helper()

	tr, err := tracker.New(context.Background(), NewTestStore(t), nil, opts...)
	if err != nil {
		t.Fatalf("creating test tracker: %v", err)
	}
	return tr
}
