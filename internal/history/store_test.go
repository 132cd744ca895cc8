package history

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

var t0 = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func TestOpen_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")

	for i := 0; i < 3; i++ {
		s, err := Open(path)
		require.NoError(t, err, "open iteration %d", i)
		require.NoError(t, s.Close())
	}

	s, err := Open(path)
	require.NoError(t, err)
	defer s.Close()

	var version int
	require.NoError(t, s.db.QueryRow("PRAGMA user_version").Scan(&version))
	assert.Equal(t, currentSchemaVersion, version)

	var mode string
	require.NoError(t, s.db.QueryRow("PRAGMA journal_mode").Scan(&mode))
	assert.Equal(t, "wal", mode)

	var index string
	err = s.db.QueryRow(
		"SELECT name FROM sqlite_master WHERE type='index' AND name='idx_queries_started_at'",
	).Scan(&index)
	assert.NoError(t, err, "v2 index exists")
}

func TestOpen_BadPath(t *testing.T) {
	_, err := Open(filepath.Join(t.TempDir(), "missing", "dir", "history.db"))
	assert.Error(t, err)
}

func TestStore_DispatchThenOutcome(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.RecordDispatch(ctx, Entry{
		QueryID:   "qry-1",
		Verb:      "find",
		Statement: "find { Person }",
		StartedAt: t0,
		State:     "dispatching",
	}))

	running, err := s.Get(ctx, "qry-1")
	require.NoError(t, err)
	assert.Equal(t, "dispatching", running.State)
	assert.True(t, running.FinishedAt.IsZero(), "no finish time while running")
	assert.Equal(t, t0, running.StartedAt)

	require.NoError(t, s.RecordOutcome(ctx, "qry-1", "failed", 2, errors.New("boom"), t0.Add(time.Second)))

	done, err := s.Get(ctx, "qry-1")
	require.NoError(t, err)
	assert.Equal(t, Entry{
		QueryID:    "qry-1",
		Verb:       "find",
		Statement:  "find { Person }",
		StartedAt:  t0,
		FinishedAt: t0.Add(time.Second),
		State:      "failed",
		Payloads:   2,
		Error:      "boom",
	}, done)
}

func TestStore_DuplicateDispatchIgnored(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	first := Entry{QueryID: "qry-1", Verb: "find", Statement: "find { A }", StartedAt: t0, State: "dispatching"}
	second := first
	second.Statement = "find { B }"

	require.NoError(t, s.RecordDispatch(ctx, first))
	require.NoError(t, s.RecordDispatch(ctx, second))

	got, err := s.Get(ctx, "qry-1")
	require.NoError(t, err)
	assert.Equal(t, "find { A }", got.Statement)
}

func TestStore_NotFound(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	_, err := s.Get(ctx, "qry-missing")
	assert.ErrorIs(t, err, ErrNotFound)

	err = s.RecordOutcome(ctx, "qry-missing", "completed", 0, nil, t0)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStore_ListNewestFirst(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	for i, id := range []string{"qry-a", "qry-b", "qry-c"} {
		require.NoError(t, s.RecordDispatch(ctx, Entry{
			QueryID:   id,
			Verb:      "stream",
			Statement: "stream { Person }",
			StartedAt: t0.Add(time.Duration(i) * time.Minute),
			State:     "dispatching",
		}))
	}

	all, err := s.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{"qry-c", "qry-b", "qry-a"}, ids(all))

	limited, err := s.List(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"qry-c", "qry-b"}, ids(limited))
}

func TestStore_ListEmpty(t *testing.T) {
	entries, err := openTestStore(t).List(context.Background(), 10)
	require.NoError(t, err)
	assert.NotNil(t, entries)
	assert.Empty(t, entries)
}

func ids(entries []Entry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.QueryID
	}
	return out
}
