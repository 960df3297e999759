// Package storagetest holds the behavior every storage.Backend implementation shares.
package storagetest

import (
	"context"
	"errors"
	"testing"

	"github.com/go-test/deep"
	"github.com/stretchr/testify/require"
	"github.com/treeverse/gitvfs/pkg/storage"
	"github.com/treeverse/gitvfs/pkg/testutil"
)

// MakeDriver returns a driver with no roots.
type MakeDriver func(t *testing.T, ctx context.Context) storage.Driver

func openRoot(t *testing.T, ctx context.Context, d storage.Driver) storage.Backend {
	t.Helper()
	b, err := d.Open(ctx, testutil.UniqueName())
	require.NoError(t, err)
	require.NoError(t, b.Init(ctx))
	t.Cleanup(func() { _ = b.Close() })
	return b
}

func listPaths(entries []storage.FileEntry) []string {
	paths := make([]string, 0, len(entries))
	for _, e := range entries {
		paths = append(paths, e.Path)
	}
	return paths
}

// TestDriver runs the shared backend and driver tests against the driver ms makes.
func TestDriver(t *testing.T, ms MakeDriver) {
	t.Run("WorkspaceWrite", func(t *testing.T) { testWorkspaceWrite(t, ms) })
	t.Run("BaseThenWorkspace", func(t *testing.T) { testBaseThenWorkspace(t, ms) })
	t.Run("BranchScoping", func(t *testing.T) { testBranchScoping(t, ms) })
	t.Run("Conflict", func(t *testing.T) { testConflict(t, ms) })
	t.Run("DeleteAny", func(t *testing.T) { testDeleteAny(t, ms) })
	t.Run("DeleteSegment", func(t *testing.T) { testDeleteSegment(t, ms) })
	t.Run("ListFiles", func(t *testing.T) { testListFiles(t, ms) })
	t.Run("ListFilesRaw", func(t *testing.T) { testListFilesRaw(t, ms) })
	t.Run("Index", func(t *testing.T) { testIndex(t, ms) })
	t.Run("InvalidSegment", func(t *testing.T) { testInvalidSegment(t, ms) })
	t.Run("Roots", func(t *testing.T) { testRoots(t, ms) })
}

func testWorkspaceWrite(t *testing.T, ms MakeDriver) {
	ctx := context.Background()
	b := openRoot(t, ctx, ms(t, ctx))

	_, ok := b.ReadBlob(ctx, "a.txt", storage.SegmentAny)
	require.False(t, ok, "read before write")

	require.NoError(t, b.WriteBlob(ctx, "a.txt", "hello", storage.SegmentWorkspace))
	content, ok := b.ReadBlob(ctx, "a.txt", storage.SegmentAny)
	require.True(t, ok)
	require.Equal(t, "hello", content)

	info := storage.ReadInfo(ctx, b, "a.txt")
	require.NotNil(t, info)
	require.Equal(t, storage.StateAdded, info.State)
	require.Equal(t, storage.ContentSha("hello"), info.WorkspaceSha)
	require.Empty(t, info.BaseSha)
	require.Nil(t, storage.ReadInfoIn(ctx, b, "a.txt", storage.SegmentInfo), "branch info")
}

func testBaseThenWorkspace(t *testing.T, ms MakeDriver) {
	ctx := context.Background()
	b := openRoot(t, ctx, ms(t, ctx))

	require.NoError(t, b.WriteBlob(ctx, "dir/b.txt", "v1", storage.SegmentBase))
	info := storage.ReadInfo(ctx, b, "dir/b.txt")
	require.NotNil(t, info)
	require.Equal(t, storage.StateBase, info.State)
	require.Equal(t, storage.ContentSha("v1"), info.BaseSha)

	require.NoError(t, b.WriteBlob(ctx, "dir/b.txt", "v2", storage.SegmentWorkspace))
	content, ok := b.ReadBlob(ctx, "dir/b.txt", storage.SegmentAny)
	require.True(t, ok)
	require.Equal(t, "v2", content)
	base, ok := b.ReadBlob(ctx, "dir/b.txt", storage.SegmentBase)
	require.True(t, ok)
	require.Equal(t, "v1", base)

	info = storage.ReadInfo(ctx, b, "dir/b.txt")
	require.NotNil(t, info)
	require.Equal(t, storage.StateModified, info.State)
	require.Equal(t, storage.ContentSha("v1"), info.BaseSha)
	require.Equal(t, storage.ContentSha("v2"), info.WorkspaceSha)

	// the branch record is untouched by the workspace write
	branchInfo := storage.ReadInfoIn(ctx, b, "dir/b.txt", storage.SegmentInfo)
	require.NotNil(t, branchInfo)
	require.Equal(t, storage.StateBase, branchInfo.State)
}

func testBranchScoping(t *testing.T, ms MakeDriver) {
	ctx := context.Background()
	b := openRoot(t, ctx, ms(t, ctx))

	b.SetBranch("main")
	require.NoError(t, b.WriteBlob(ctx, "f.txt", "main content", storage.SegmentBase))
	require.NoError(t, b.WriteBlob(ctx, "w.txt", "draft", storage.SegmentWorkspace))

	b.SetBranch("feature/x")
	require.Equal(t, "feature/x", b.Branch())
	_, ok := b.ReadBlob(ctx, "f.txt", storage.SegmentBase)
	require.False(t, ok, "base of another branch")
	require.Nil(t, storage.ReadInfo(ctx, b, "f.txt"))
	content, ok := b.ReadBlob(ctx, "w.txt", storage.SegmentAny)
	require.True(t, ok, "workspace is shared by branches")
	require.Equal(t, "draft", content)

	require.NoError(t, b.WriteBlob(ctx, "f.txt", "feature content", storage.SegmentBase))
	b.SetBranch("main")
	content, ok = b.ReadBlob(ctx, "f.txt", storage.SegmentBase)
	require.True(t, ok)
	require.Equal(t, "main content", content)
}

func testConflict(t *testing.T, ms MakeDriver) {
	ctx := context.Background()
	b := openRoot(t, ctx, ms(t, ctx))

	require.NoError(t, b.WriteBlob(ctx, "c.txt", "base", storage.SegmentBase))
	require.NoError(t, b.WriteBlob(ctx, "c.txt", "mine", storage.SegmentWorkspace))
	require.NoError(t, b.WriteBlob(ctx, "c.txt", "theirs", storage.SegmentConflictBlob))
	require.NoError(t, b.WriteBlob(ctx, "c.txt", "remote-sha", storage.SegmentConflict))

	info := storage.ReadInfo(ctx, b, "c.txt")
	require.NotNil(t, info)
	require.Equal(t, storage.StateConflict, info.State)
	require.Equal(t, storage.ContentSha("base"), info.BaseSha)

	blob, ok := b.ReadBlob(ctx, "c.txt", storage.SegmentConflictBlob)
	require.True(t, ok)
	require.Equal(t, "theirs", blob)
	marker, ok := b.ReadBlob(ctx, "c.txt", storage.SegmentConflict)
	require.True(t, ok)
	require.Equal(t, "remote-sha", marker)

	conflicts := b.ListFiles(ctx, "", storage.SegmentConflict, true)
	require.Equal(t, []string{"c.txt"}, listPaths(conflicts))
}

func testDeleteAny(t *testing.T, ms MakeDriver) {
	ctx := context.Background()
	b := openRoot(t, ctx, ms(t, ctx))

	require.NoError(t, b.WriteBlob(ctx, "d.txt", "base", storage.SegmentBase))
	require.NoError(t, b.WriteBlob(ctx, "d.txt", "ws", storage.SegmentWorkspace))
	require.NoError(t, b.WriteBlob(ctx, "d.txt", "theirs", storage.SegmentConflictBlob))
	require.NoError(t, b.WriteBlob(ctx, "d.txt", "sha", storage.SegmentConflict))
	require.NoError(t, b.WriteBlob(ctx, "keep.txt", "keep", storage.SegmentWorkspace))

	require.NoError(t, b.DeleteBlob(ctx, "d.txt", storage.SegmentAny))
	for _, seg := range []storage.Segment{
		storage.SegmentAny, storage.SegmentWorkspace, storage.SegmentBase, storage.SegmentInfo,
		storage.SegmentWorkspaceInfo, storage.SegmentConflict, storage.SegmentConflictBlob,
	} {
		_, ok := b.ReadBlob(ctx, "d.txt", seg)
		require.Falsef(t, ok, "segment %s after delete", seg)
	}
	_, ok := b.ReadBlob(ctx, "keep.txt", storage.SegmentAny)
	require.True(t, ok)

	// deleting a missing path is not an error
	require.NoError(t, b.DeleteBlob(ctx, "missing.txt", storage.SegmentAny))
}

func testDeleteSegment(t *testing.T, ms MakeDriver) {
	ctx := context.Background()
	b := openRoot(t, ctx, ms(t, ctx))

	require.NoError(t, b.WriteBlob(ctx, "e.txt", "base", storage.SegmentBase))
	require.NoError(t, b.WriteBlob(ctx, "e.txt", "ws", storage.SegmentWorkspace))
	require.NoError(t, b.DeleteBlob(ctx, "e.txt", storage.SegmentWorkspace))
	require.NoError(t, b.DeleteBlob(ctx, "e.txt", storage.SegmentWorkspaceInfo))

	content, ok := b.ReadBlob(ctx, "e.txt", storage.SegmentAny)
	require.True(t, ok)
	require.Equal(t, "base", content)
	info := storage.ReadInfo(ctx, b, "e.txt")
	require.NotNil(t, info)
	require.Equal(t, storage.StateBase, info.State)
}

func testListFiles(t *testing.T, ms MakeDriver) {
	ctx := context.Background()
	b := openRoot(t, ctx, ms(t, ctx))

	require.NoError(t, b.WriteBlob(ctx, "top.txt", "1", storage.SegmentBase))
	require.NoError(t, b.WriteBlob(ctx, "docs/a.md", "2", storage.SegmentBase))
	require.NoError(t, b.WriteBlob(ctx, "docs/guide/b.md", "3", storage.SegmentWorkspace))
	require.NoError(t, b.WriteBlob(ctx, "docsx/c.md", "4", storage.SegmentWorkspace))

	all := b.ListFiles(ctx, "", storage.SegmentAny, true)
	if diff := deep.Equal(listPaths(all), []string{"docs/a.md", "docs/guide/b.md", "docsx/c.md", "top.txt"}); diff != nil {
		t.Fatalf("recursive listing diff: %s", diff)
	}
	for _, e := range all {
		require.NotNilf(t, e.Info, "info of %s", e.Path)
	}

	require.Equal(t, []string{"top.txt"}, listPaths(b.ListFiles(ctx, "", storage.SegmentAny, false)))
	require.Equal(t, []string{"docs/a.md"}, listPaths(b.ListFiles(ctx, "docs", storage.SegmentAny, false)))
	require.Equal(t, []string{"docs/a.md", "docs/guide/b.md"}, listPaths(b.ListFiles(ctx, "docs/", storage.SegmentAny, true)))

	require.Equal(t, []string{"docs/a.md", "top.txt"}, listPaths(b.ListFiles(ctx, "", storage.SegmentBase, true)))
	require.Equal(t, []string{"docs/guide/b.md", "docsx/c.md"}, listPaths(b.ListFiles(ctx, "", storage.SegmentWorkspace, true)))

	b.SetBranch("other")
	require.Equal(t, []string{"docs/guide/b.md", "docsx/c.md"}, listPaths(b.ListFiles(ctx, "", storage.SegmentAny, true)))
}

func testListFilesRaw(t *testing.T, ms MakeDriver) {
	ctx := context.Background()
	b := openRoot(t, ctx, ms(t, ctx))

	require.NoError(t, b.WriteBlob(ctx, "r.txt", "base", storage.SegmentBase))
	require.NoError(t, b.WriteBlob(ctx, "r.txt", "ws", storage.SegmentWorkspace))

	raw := b.ListFilesRaw(ctx, "", true)
	segments := make(map[storage.Segment]storage.RawEntry)
	for _, e := range raw {
		require.Equal(t, "r.txt", e.Path)
		require.NotEmpty(t, e.URI)
		segments[e.Segment] = e
	}
	require.Contains(t, segments, storage.SegmentBase)
	require.Contains(t, segments, storage.SegmentWorkspace)
	require.Contains(t, segments, storage.SegmentInfo)
	require.Contains(t, segments, storage.SegmentWorkspaceInfo)
	require.Equal(t, b.Branch(), segments[storage.SegmentBase].Branch)
	require.Empty(t, segments[storage.SegmentWorkspace].Branch)
	require.NotNil(t, segments[storage.SegmentWorkspaceInfo].Info)
	require.Equal(t, storage.StateModified, segments[storage.SegmentWorkspaceInfo].Info.State)
}

func testIndex(t *testing.T, ms MakeDriver) {
	ctx := context.Background()
	b := openRoot(t, ctx, ms(t, ctx))

	require.Nil(t, b.ReadIndex(ctx))

	index := storage.NewIndex()
	index.Head = "abc123"
	index.Branch = "main"
	index.LastCommitKey = "key-1"
	index.Adapter = &storage.AdapterRecord{Type: "github", Opts: map[string]interface{}{"owner": "o", "repo": "r"}}
	index.Entries["a.txt"] = &storage.IndexEntry{Path: "a.txt", BaseSha: "s1", RemoteSha: "s1", State: storage.StateBase, UpdatedAt: 1000}
	require.NoError(t, b.WriteIndex(ctx, index))

	got := b.ReadIndex(ctx)
	require.NotNil(t, got)
	if diff := deep.Equal(got, index); diff != nil {
		t.Fatalf("index diff: %s", diff)
	}

	empty := storage.NewIndex()
	require.NoError(t, b.WriteIndex(ctx, empty))
	got = b.ReadIndex(ctx)
	require.NotNil(t, got)
	require.NotNil(t, got.Entries)
	require.Empty(t, got.Entries)
	require.Empty(t, got.Head)
}

func testInvalidSegment(t *testing.T, ms MakeDriver) {
	ctx := context.Background()
	b := openRoot(t, ctx, ms(t, ctx))

	err := b.WriteBlob(ctx, "x.txt", "x", storage.SegmentAny)
	if !errors.Is(err, storage.ErrInvalidSegment) {
		t.Fatalf("WriteBlob(any) err=%v, expected %s", err, storage.ErrInvalidSegment)
	}
}

func testRoots(t *testing.T, ms MakeDriver) {
	ctx := context.Background()
	d := ms(t, ctx)
	require.True(t, d.CanUse(ctx))

	namespace := "ns" + testutil.UniqueName()
	root := namespace + "-one"
	b, err := d.Open(ctx, root)
	require.NoError(t, err)
	require.NoError(t, b.Init(ctx))
	require.NoError(t, b.Init(ctx), "init twice")
	require.Equal(t, root, b.Root())
	require.NoError(t, b.WriteBlob(ctx, "a.txt", "a", storage.SegmentWorkspace))
	require.NoError(t, b.Close())

	roots, err := d.AvailableRoots(ctx, namespace)
	require.NoError(t, err)
	require.Equal(t, []string{root}, roots)

	require.NoError(t, d.DeleteRoot(ctx, root))
	roots, err = d.AvailableRoots(ctx, namespace)
	require.NoError(t, err)
	require.Empty(t, roots)

	b, err = d.Open(ctx, root)
	require.NoError(t, err)
	_, ok := b.ReadBlob(ctx, "a.txt", storage.SegmentAny)
	require.False(t, ok, "data of deleted root")
	require.NoError(t, b.Close())
}
