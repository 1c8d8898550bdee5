package buildlog

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "builds.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestAppendAndLast(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	_, err := store.Last(ctx)
	require.ErrorIs(t, err, ErrNotFound)

	rec := &Record{
		Signature:   "sig-1",
		ContentHash: "hash-1",
		Outcome:     "success",
		Pages:       12,
		Posts:       5,
		Assets:      3,
		Duration:    42 * time.Millisecond,
	}
	require.NoError(t, store.Append(ctx, rec))
	require.NotEmpty(t, rec.ID, "Append should assign an ID")

	last, err := store.Last(ctx)
	require.NoError(t, err)
	require.Equal(t, rec.ID, last.ID)
	require.Equal(t, "sig-1", last.Signature)
	require.Equal(t, 12, last.Pages)
	require.Equal(t, 42*time.Millisecond, last.Duration)
}

func TestHistory_NewestFirst(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	base := time.Now().Add(-time.Hour)
	for i := range 5 {
		require.NoError(t, store.Append(ctx, &Record{
			Signature: "sig",
			Outcome:   "success",
			StartedAt: base.Add(time.Duration(i) * time.Minute),
		}))
	}

	recs, err := store.History(ctx, 3)
	require.NoError(t, err)
	require.Len(t, recs, 3)
	require.True(t, recs[0].StartedAt.After(recs[1].StartedAt))
	require.True(t, recs[1].StartedAt.After(recs[2].StartedAt))
}

func TestShouldSkip(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	skip, err := ShouldSkip(ctx, store, "sig-a")
	require.NoError(t, err)
	require.False(t, skip, "empty history never skips")

	require.NoError(t, store.Append(ctx, &Record{Signature: "sig-a", Outcome: "success", StartedAt: time.Now().Add(-time.Minute)}))

	skip, err = ShouldSkip(ctx, store, "sig-a")
	require.NoError(t, err)
	require.True(t, skip, "matching successful build skips")

	skip, err = ShouldSkip(ctx, store, "sig-b")
	require.NoError(t, err)
	require.False(t, skip, "changed signature rebuilds")

	require.NoError(t, store.Append(ctx, &Record{Signature: "sig-a", Outcome: "failed", StartedAt: time.Now()}))
	skip, err = ShouldSkip(ctx, store, "sig-a")
	require.NoError(t, err)
	require.False(t, skip, "a failed last build always rebuilds")
}
