package manifest

import (
	"context"
	"path/filepath"
	"sort"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestStore_RecordAndSnapshot(t *testing.T) {
	ctx := context.Background()
	s, err := Open(":memory:")
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Record(ctx, "b1", []Entry{
		{Path: "index.html", Hash: "h1"},
		{Path: "posts/a/index.html", Hash: "h2"},
	}))
	require.NoError(t, s.Record(ctx, "b2", []Entry{{Path: "index.html", Hash: "h3"}}))

	snap, err := s.Snapshot(ctx)
	require.NoError(t, err)
	require.Equal(t, map[string]string{"index.html": "h3", "posts/a/index.html": "h2"}, snap)
}

func TestStore_Prune(t *testing.T) {
	ctx := context.Background()
	s, err := Open(":memory:")
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Record(ctx, "b1", []Entry{
		{Path: "a", Hash: "1"}, {Path: "b", Hash: "2"}, {Path: "c", Hash: "3"},
	}))

	removed, err := s.Prune(ctx, map[string]bool{"b": true})
	require.NoError(t, err)
	sort.Strings(removed)
	require.Equal(t, []string{"a", "c"}, removed)

	snap, err := s.Snapshot(ctx)
	require.NoError(t, err)
	require.Equal(t, map[string]string{"b": "2"}, snap)
}

func TestStore_ResetAndReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "cache", "manifest.db")

	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.Record(ctx, "b1", []Entry{{Path: "a", Hash: "1"}}))
	require.NoError(t, s.Close())

	s, err = Open(path)
	require.NoError(t, err)
	defer s.Close()
	snap, err := s.Snapshot(ctx)
	require.NoError(t, err)
	require.Len(t, snap, 1)

	require.NoError(t, s.Reset(ctx))
	snap, err = s.Snapshot(ctx)
	require.NoError(t, err)
	require.Empty(t, snap)
}
