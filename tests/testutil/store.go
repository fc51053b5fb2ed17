package testutil

import (
	"context"
	"testing"

	"github.com/nhle/taskboard/internal/model"
	"github.com/nhle/taskboard/internal/store"
)

// NewTestStore creates an in-memory SQLStore with all migrations applied.
// It automatically closes the store when the test completes.
func NewTestStore(t *testing.T) *store.SQLStore {
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

// NewTestBoard creates a user with the default board on s and returns both.
func NewTestBoard(t *testing.T, s store.Store, username string) (model.User, model.Board) {
	t.Helper()

	ctx := context.Background()
	u, err := s.EnsureUser(ctx, username, username)
	if err != nil {
		t.Fatalf("creating user %s: %v", username, err)
	}
	b, err := s.EnsureBoard(ctx, u.ID, model.DefaultBoardTitle, model.DefaultColumns())
	if err != nil {
		t.Fatalf("creating board for %s: %v", username, err)
	}
	return u, b
}
