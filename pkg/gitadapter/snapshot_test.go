package gitadapter_test

import (
	"context"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/treeverse/gitvfs/pkg/gitadapter"
)

func TestSnapshot_FetchContentMemoized(t *testing.T) {
	var calls atomic.Int32
	shas := map[string]string{"a.txt": "sha-a", "b.txt": "sha-b"}
	snap := gitadapter.NewSnapshot("head", shas, func(ctx context.Context, path, sha string) (string, error) {
		calls.Add(1)
		return "content of " + path + "@" + sha, nil
	}, 4)

	got, err := snap.FetchContent(context.Background(), []string{"a.txt", "b.txt", "a.txt"})
	require.NoError(t, err)
	require.Equal(t, map[string]string{"a.txt": "content of a.txt@sha-a", "b.txt": "content of b.txt@sha-b"}, got)
	require.EqualValues(t, 2, calls.Load())

	got, err = snap.FetchContent(context.Background(), []string{"b.txt"})
	require.NoError(t, err)
	require.Equal(t, "content of b.txt@sha-b", got["b.txt"])
	require.EqualValues(t, 2, calls.Load())
}

func TestSnapshot_FetchContentMissingPath(t *testing.T) {
	snap := gitadapter.NewSnapshot("head", map[string]string{}, func(ctx context.Context, path, sha string) (string, error) {
		t.Fatal("unexpected fetch")
		return "", nil
	}, 1)
	_, err := snap.FetchContent(context.Background(), []string{"missing"})
	require.ErrorIs(t, err, gitadapter.ErrNotFound)
}
