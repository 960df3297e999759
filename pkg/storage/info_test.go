package storage_test

import (
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/treeverse/gitvfs/pkg/storage"
)

func TestContentSha(t *testing.T) {
	hexRe := regexp.MustCompile(`^[0-9a-f]{40}$`)
	cases := map[string]string{
		"abc": "a9993e364706816aba3e25717850c26c9cd0d89d",
		"":    "da39a3ee5e6b4b0d3255bfef95601890afd80709",
	}
	for content, expected := range cases {
		sha := storage.ContentSha(content)
		require.Equal(t, expected, sha, "content %q", content)
		require.Regexp(t, hexRe, sha)
	}
	require.NotEqual(t, storage.ContentSha("abc"), storage.ContentSha("abd"))
}

func TestDeriveInfo(t *testing.T) {
	now := time.UnixMilli(1700000000000)

	info, seg, ok := storage.DeriveInfo("a.txt", "abc", storage.SegmentBase, nil, now)
	require.True(t, ok)
	require.Equal(t, storage.SegmentInfo, seg)
	require.Equal(t, storage.StateBase, info.State)
	require.Equal(t, storage.ContentSha("abc"), info.BaseSha)
	require.Equal(t, now.UnixMilli(), info.UpdatedAt)

	modified, seg, ok := storage.DeriveInfo("a.txt", "abcd", storage.SegmentWorkspace, info, now)
	require.True(t, ok)
	require.Equal(t, storage.SegmentWorkspaceInfo, seg)
	require.Equal(t, storage.StateModified, modified.State)
	require.Equal(t, info.BaseSha, modified.BaseSha)
	require.Equal(t, storage.ContentSha("abcd"), modified.WorkspaceSha)

	added, _, ok := storage.DeriveInfo("b.txt", "new", storage.SegmentWorkspace, nil, now)
	require.True(t, ok)
	require.Equal(t, storage.StateAdded, added.State)

	_, _, ok = storage.DeriveInfo("a.txt", "x", storage.SegmentConflictBlob, info, now)
	require.False(t, ok)
}
