package vfs_test

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"syscall"
	"testing"

	"github.com/go-test/deep"
	"github.com/stretchr/testify/require"
	"github.com/treeverse/gitvfs/pkg/gitadapter"
	"github.com/treeverse/gitvfs/pkg/kv/mem"
	"github.com/treeverse/gitvfs/pkg/storage"
	"github.com/treeverse/gitvfs/pkg/storage/fsstore"
	"github.com/treeverse/gitvfs/pkg/storage/kvstore"
	"github.com/treeverse/gitvfs/pkg/testutil"
	"github.com/treeverse/gitvfs/pkg/vfs"
)

var backends = map[string]func() storage.Driver{
	"kv": func() storage.Driver { return kvstore.NewDriver(mem.New()) },
	"fs": func() storage.Driver { return fsstore.NewMemDriver() },
}

// forEachBackend runs fn against a fresh root of every storage driver.
func forEachBackend(t *testing.T, fn func(t *testing.T, ctx context.Context, b storage.Backend)) {
	t.Helper()
	for name, mk := range backends {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			b, err := mk().Open(ctx, testutil.UniqueName())
			require.NoError(t, err)
			t.Cleanup(func() { _ = b.Close() })
			fn(t, ctx, b)
		})
	}
}

func newVFS(t *testing.T, ctx context.Context, b storage.Backend, remote gitadapter.Adapter) *vfs.VFS {
	t.Helper()
	v, err := vfs.New(ctx, b, vfs.WithAdapter(remote), vfs.WithConcurrency(2))
	require.NoError(t, err)
	return v
}

func dirNames(t *testing.T, entries []fs.DirEntry) []string {
	t.Helper()
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func TestPullSevenFiles(t *testing.T) {
	forEachBackend(t, func(t *testing.T, ctx context.Context, b storage.Backend) {
		remote := newFakeRemote()
		files := make(map[string]*string)
		var names []string
		for i := 0; i < 7; i++ {
			name := fmt.Sprintf("file%d.txt", i)
			files[name] = str("content of " + name)
			names = append(names, name)
		}
		head := remote.commitFiles("main", files)
		v := newVFS(t, ctx, b, remote)

		res, err := v.Pull(ctx, "")
		require.NoError(t, err)
		require.Equal(t, head, res.Head)
		require.Equal(t, head, v.Head(ctx))
		require.Len(t, res.Updated, 7)

		entries, err := v.ReadDir(ctx, ".")
		require.NoError(t, err)
		if diff := deep.Equal(dirNames(t, entries), names); diff != nil {
			t.Fatal("readdir", diff)
		}

		raw := b.ListFilesRaw(ctx, "", true)
		require.Len(t, raw, 7)
		for _, e := range raw {
			require.Equal(t, storage.SegmentInfo, e.Segment, "path %s", e.Path)
		}
		require.Zero(t, remote.blobReads, "pull fetches no content")

		content, err := v.ReadFile(ctx, "file3.txt")
		require.NoError(t, err)
		require.Equal(t, "content of file3.txt", content)
		content, err = v.ReadFile(ctx, "file3.txt")
		require.NoError(t, err)
		require.Equal(t, "content of file3.txt", content)
		require.Equal(t, 1, remote.blobReads)

		base, ok := b.ReadBlob(ctx, "file3.txt", storage.SegmentBase)
		require.True(t, ok)
		require.Equal(t, "content of file3.txt", base)

		_, err = v.ReadFile(ctx, "missing.txt")
		require.ErrorIs(t, err, fs.ErrNotExist)
	})
}

func TestCreatePushClean(t *testing.T) {
	forEachBackend(t, func(t *testing.T, ctx context.Context, b storage.Backend) {
		remote := newFakeRemote()
		remote.commitFiles("main", map[string]*string{"README.md": str("# demo")})
		v := newVFS(t, ctx, b, remote)
		_, err := v.Pull(ctx, "main")
		require.NoError(t, err)

		require.NoError(t, v.WriteFile(ctx, "docs/new.md", "hello"))
		changes, err := v.GetChangeSet(ctx)
		require.NoError(t, err)
		if diff := deep.Equal(changes, []gitadapter.Change{{Type: gitadapter.ChangeCreate, Path: "docs/new.md", Content: "hello"}}); diff != nil {
			t.Fatal("change-set", diff)
		}

		res, err := v.Push(ctx, vfs.PushInput{Message: "add new"})
		require.NoError(t, err)
		require.Equal(t, res.CommitSha, v.Head(ctx))
		require.Equal(t, map[string]string{"README.md": "# demo", "docs/new.md": "hello"}, remote.files("main"))

		changes, err = v.GetChangeSet(ctx)
		require.NoError(t, err)
		require.Empty(t, changes)
		base, ok := b.ReadBlob(ctx, "docs/new.md", storage.SegmentBase)
		require.True(t, ok)
		require.Equal(t, "hello", base)
		_, ok = b.ReadBlob(ctx, "docs/new.md", storage.SegmentWorkspace)
		require.False(t, ok)
		info := storage.ReadInfo(ctx, b, "docs/new.md")
		require.NotNil(t, info)
		require.Equal(t, storage.StateBase, info.State)
		require.Equal(t, gitadapter.BlobSha("hello"), info.RemoteSha)

		_, err = v.Push(ctx, vfs.PushInput{})
		require.ErrorIs(t, err, vfs.ErrNoChanges)
	})
}

func TestUpdateChangeSet(t *testing.T) {
	forEachBackend(t, func(t *testing.T, ctx context.Context, b storage.Backend) {
		remote := newFakeRemote()
		remote.commitFiles("main", map[string]*string{"a.txt": str("one"), "b.txt": str("two")})
		v := newVFS(t, ctx, b, remote)
		_, err := v.Pull(ctx, "")
		require.NoError(t, err)

		require.NoError(t, v.WriteFile(ctx, "a.txt", "one"))
		require.NoError(t, v.WriteFile(ctx, "b.txt", "changed"))
		info := storage.ReadInfo(ctx, b, "b.txt")
		require.Equal(t, storage.StateModified, info.State)

		changes, err := v.GetChangeSet(ctx)
		require.NoError(t, err)
		expected := []gitadapter.Change{{Type: gitadapter.ChangeUpdate, Path: "b.txt", Content: "changed", BaseSha: gitadapter.BlobSha("two")}}
		if diff := deep.Equal(changes, expected); diff != nil {
			t.Fatal("identical content is no change", diff)
		}
		require.Zero(t, remote.blobReads)
	})
}

func TestDeleteAndRmdir(t *testing.T) {
	forEachBackend(t, func(t *testing.T, ctx context.Context, b storage.Backend) {
		remote := newFakeRemote()
		remote.commitFiles("main", map[string]*string{
			"dir/a.txt": str("a"),
			"dir/b.txt": str("b"),
			"top.txt":   str("top"),
		})
		v := newVFS(t, ctx, b, remote)
		_, err := v.Pull(ctx, "")
		require.NoError(t, err)

		require.NoError(t, v.DeleteFile(ctx, "top.txt"))
		changes, err := v.GetChangeSet(ctx)
		require.NoError(t, err)
		if diff := deep.Equal(changes, []gitadapter.Change{{Type: gitadapter.ChangeDelete, Path: "top.txt", BaseSha: gitadapter.BlobSha("top")}}); diff != nil {
			t.Fatal("change-set", diff)
		}
		require.ErrorIs(t, v.DeleteFile(ctx, "top.txt"), fs.ErrNotExist)

		err = v.Rmdir(ctx, "dir", false)
		require.ErrorIs(t, err, syscall.ENOTEMPTY)
		var pathErr *fs.PathError
		require.True(t, errors.As(err, &pathErr))
		require.Equal(t, "dir", pathErr.Path)

		require.NoError(t, v.Rmdir(ctx, "dir", true))
		entries, err := v.ReadDir(ctx, "")
		require.NoError(t, err)
		require.Empty(t, entries)
		_, err = v.ReadDir(ctx, "dir")
		require.ErrorIs(t, err, fs.ErrNotExist)

		changes, err = v.GetChangeSet(ctx)
		require.NoError(t, err)
		var paths []string
		for _, c := range changes {
			require.Equal(t, gitadapter.ChangeDelete, c.Type)
			paths = append(paths, c.Path)
		}
		require.Equal(t, []string{"dir/a.txt", "dir/b.txt", "top.txt"}, paths)

		_, err = v.Push(ctx, vfs.PushInput{Message: "clean up"})
		require.NoError(t, err)
		require.Empty(t, remote.files("main"))
		require.Empty(t, v.Backend().ListFilesRaw(ctx, "", true))
	})
}

func TestPullConflict(t *testing.T) {
	for _, resolution := range []vfs.Resolution{vfs.TakeRemote, vfs.KeepLocal} {
		t.Run(string(resolution), func(t *testing.T) {
			forEachBackend(t, func(t *testing.T, ctx context.Context, b storage.Backend) {
				remote := newFakeRemote()
				remote.commitFiles("main", map[string]*string{"a.txt": str("v1"), "b.txt": str("b")})
				v := newVFS(t, ctx, b, remote)
				_, err := v.Pull(ctx, "")
				require.NoError(t, err)

				require.NoError(t, v.WriteFile(ctx, "a.txt", "local"))
				head := remote.commitFiles("main", map[string]*string{"a.txt": str("remote")})

				res, err := v.Pull(ctx, "")
				require.ErrorIs(t, err, vfs.ErrConflict)
				var conflictErr *vfs.ConflictError
				require.True(t, errors.As(err, &conflictErr))
				require.Equal(t, []string{"a.txt"}, conflictErr.Paths)
				require.Equal(t, []string{"a.txt"}, res.Conflicts)
				require.Equal(t, head, v.Head(ctx))

				remoteContent, err := v.ReadConflict(ctx, "a.txt")
				require.NoError(t, err)
				require.Equal(t, "remote", remoteContent)
				local, err := v.ReadFile(ctx, "a.txt")
				require.NoError(t, err)
				require.Equal(t, "local", local)

				status, err := v.Status(ctx)
				require.NoError(t, err)
				require.Equal(t, []string{"a.txt"}, status.Conflicts)
				require.False(t, status.Clean())
				_, err = v.Push(ctx, vfs.PushInput{})
				require.ErrorIs(t, err, vfs.ErrUnresolvedConflicts)

				require.NoError(t, v.ResolveConflict(ctx, "a.txt", resolution))
				_, err = v.ReadConflict(ctx, "a.txt")
				require.ErrorIs(t, err, vfs.ErrNotConflicted)

				changes, err := v.GetChangeSet(ctx)
				require.NoError(t, err)
				switch resolution {
				case vfs.TakeRemote:
					require.Empty(t, changes)
					content, err := v.ReadFile(ctx, "a.txt")
					require.NoError(t, err)
					require.Equal(t, "remote", content)
				case vfs.KeepLocal:
					expected := []gitadapter.Change{{Type: gitadapter.ChangeUpdate, Path: "a.txt", Content: "local", BaseSha: gitadapter.BlobSha("remote")}}
					if diff := deep.Equal(changes, expected); diff != nil {
						t.Fatal("change-set", diff)
					}
					_, err = v.Push(ctx, vfs.PushInput{Message: "keep local"})
					require.NoError(t, err)
					require.Equal(t, "local", remote.files("main")["a.txt"])
				}
			})
		})
	}
}

func TestConflictStaysInBranch(t *testing.T) {
	forEachBackend(t, func(t *testing.T, ctx context.Context, b storage.Backend) {
		remote := newFakeRemote()
		remote.commitFiles("main", map[string]*string{"a.txt": str("v1")})
		remote.commitFiles("dev", map[string]*string{"other.txt": str("other")})
		v := newVFS(t, ctx, b, remote)
		_, err := v.Pull(ctx, "")
		require.NoError(t, err)

		require.NoError(t, v.WriteFile(ctx, "a.txt", "local"))
		remote.commitFiles("main", map[string]*string{"a.txt": str("remote")})
		_, err = v.Pull(ctx, "")
		require.ErrorIs(t, err, vfs.ErrConflict)

		require.NoError(t, v.SwitchBranch(ctx, "dev"))
		_, err = v.Pull(ctx, "")
		require.NoError(t, err)
		status, err := v.Status(ctx)
		require.NoError(t, err)
		require.Empty(t, status.Conflicts)
		if diff := deep.Equal(status.Changes, []gitadapter.Change{{Type: gitadapter.ChangeCreate, Path: "a.txt", Content: "local"}}); diff != nil {
			t.Fatal("change-set on dev", diff)
		}
		_, err = v.ReadConflict(ctx, "a.txt")
		require.ErrorIs(t, err, vfs.ErrNotConflicted)

		require.NoError(t, v.SwitchBranch(ctx, "main"))
		_, err = v.Pull(ctx, "")
		require.ErrorIs(t, err, vfs.ErrConflict)
		remoteContent, err := v.ReadConflict(ctx, "a.txt")
		require.NoError(t, err)
		require.Equal(t, "remote", remoteContent)
		require.NoError(t, v.ResolveConflict(ctx, "a.txt", vfs.TakeRemote))
		status, err = v.Status(ctx)
		require.NoError(t, err)
		require.True(t, status.Clean())
	})
}

// partialRemote lists trees without the hidden paths and flags the listing truncated.
type partialRemote struct {
	*fakeRemote
	hidden []string
}

func (p *partialRemote) FetchSnapshot(ctx context.Context, ref string, concurrency int) (*gitadapter.Snapshot, error) {
	snapshot, err := p.fakeRemote.FetchSnapshot(ctx, ref, concurrency)
	if err != nil || len(p.hidden) == 0 {
		return snapshot, err
	}
	for _, path := range p.hidden {
		delete(snapshot.Shas, path)
	}
	snapshot.Truncated = true
	return snapshot, nil
}

func TestPullTruncatedSnapshot(t *testing.T) {
	forEachBackend(t, func(t *testing.T, ctx context.Context, b storage.Backend) {
		remote := &partialRemote{fakeRemote: newFakeRemote()}
		remote.commitFiles("main", map[string]*string{"a.txt": str("a"), "b.txt": str("b")})
		v := newVFS(t, ctx, b, remote)
		_, err := v.Pull(ctx, "")
		require.NoError(t, err)
		_, err = v.ReadFile(ctx, "b.txt")
		require.NoError(t, err)

		remote.commitFiles("main", map[string]*string{"a.txt": str("a2")})
		remote.hidden = []string{"b.txt"}
		res, err := v.Pull(ctx, "")
		require.NoError(t, err)
		require.True(t, res.Truncated)
		require.Empty(t, res.Removed)
		require.Empty(t, res.Orphaned)
		require.Equal(t, []string{"a.txt"}, res.Updated)

		reads := remote.blobReads
		fi, err := v.Stat(ctx, "b.txt")
		require.NoError(t, err)
		require.Equal(t, gitadapter.BlobSha("b"), fi.GitBlobSha)
		content, err := v.ReadFile(ctx, "b.txt")
		require.NoError(t, err)
		require.Equal(t, "b", content)
		require.Equal(t, reads, remote.blobReads, "base kept")
		changes, err := v.GetChangeSet(ctx)
		require.NoError(t, err)
		require.Empty(t, changes)

		remote.hidden = nil
		res, err = v.Pull(ctx, "")
		require.NoError(t, err)
		require.False(t, res.Truncated)
		require.Empty(t, res.Removed)
		require.Equal(t, 2, res.Unchanged)
	})
}

func TestPullWithoutDivergence(t *testing.T) {
	forEachBackend(t, func(t *testing.T, ctx context.Context, b storage.Backend) {
		remote := newFakeRemote()
		remote.commitFiles("main", map[string]*string{"a.txt": str("1"), "same.txt": str("old")})
		v := newVFS(t, ctx, b, remote)
		_, err := v.Pull(ctx, "")
		require.NoError(t, err)
		_, err = v.ReadFile(ctx, "a.txt")
		require.NoError(t, err)
		// the same change made on both sides
		require.NoError(t, v.WriteFile(ctx, "same.txt", "new"))

		remote.commitFiles("main", map[string]*string{"a.txt": str("2"), "same.txt": str("new"), "b.txt": str("b")})
		reads := remote.blobReads
		res, err := v.Pull(ctx, "")
		require.NoError(t, err)
		require.Equal(t, []string{"a.txt", "b.txt", "same.txt"}, res.Updated)
		require.Equal(t, reads, remote.blobReads, "no content fetched")

		_, ok := b.ReadBlob(ctx, "a.txt", storage.SegmentBase)
		require.False(t, ok, "stale base dropped")
		_, ok = b.ReadBlob(ctx, "same.txt", storage.SegmentWorkspace)
		require.False(t, ok, "workspace copy equal to remote dropped")

		content, err := v.ReadFile(ctx, "a.txt")
		require.NoError(t, err)
		require.Equal(t, "2", content)
		changes, err := v.GetChangeSet(ctx)
		require.NoError(t, err)
		require.Empty(t, changes)
	})
}

func TestPullRemovedPaths(t *testing.T) {
	forEachBackend(t, func(t *testing.T, ctx context.Context, b storage.Backend) {
		remote := newFakeRemote()
		remote.commitFiles("main", map[string]*string{"a.txt": str("a"), "b.txt": str("b"), "c.txt": str("c")})
		v := newVFS(t, ctx, b, remote)
		_, err := v.Pull(ctx, "")
		require.NoError(t, err)
		require.NoError(t, v.WriteFile(ctx, "b.txt", "mine"))

		remote.commitFiles("main", map[string]*string{"a.txt": nil, "b.txt": nil})
		res, err := v.Pull(ctx, "")
		require.NoError(t, err)
		require.Equal(t, []string{"a.txt"}, res.Removed)
		require.Equal(t, []string{"b.txt"}, res.Orphaned)
		require.Equal(t, 1, res.Unchanged)

		_, err = v.Stat(ctx, "a.txt")
		require.ErrorIs(t, err, fs.ErrNotExist)
		info := storage.ReadInfo(ctx, b, "b.txt")
		require.Equal(t, storage.StateAdded, info.State)
		changes, err := v.GetChangeSet(ctx)
		require.NoError(t, err)
		if diff := deep.Equal(changes, []gitadapter.Change{{Type: gitadapter.ChangeCreate, Path: "b.txt", Content: "mine"}}); diff != nil {
			t.Fatal("change-set", diff)
		}
	})
}

func TestPushNonFastForward(t *testing.T) {
	forEachBackend(t, func(t *testing.T, ctx context.Context, b storage.Backend) {
		remote := newFakeRemote()
		remote.commitFiles("main", map[string]*string{"a.txt": str("a")})
		v := newVFS(t, ctx, b, remote)
		_, err := v.Pull(ctx, "")
		require.NoError(t, err)
		head := v.Head(ctx)

		remote.commitFiles("main", map[string]*string{"other.txt": str("other")})
		require.NoError(t, v.WriteFile(ctx, "a.txt", "mine"))
		_, err = v.Push(ctx, vfs.PushInput{Message: "late"})
		require.ErrorIs(t, err, gitadapter.ErrNonFastForward)
		require.Equal(t, head, v.Head(ctx))
		content, ok := b.ReadBlob(ctx, "a.txt", storage.SegmentWorkspace)
		require.True(t, ok)
		require.Equal(t, "mine", content)
	})
}

func TestStatAndMkdir(t *testing.T) {
	forEachBackend(t, func(t *testing.T, ctx context.Context, b storage.Backend) {
		remote := newFakeRemote()
		head := remote.commitFiles("main", map[string]*string{"src/main.go": str("package main")})
		v := newVFS(t, ctx, b, remote)
		_, err := v.Pull(ctx, "")
		require.NoError(t, err)

		fi, err := v.Stat(ctx, "src/main.go")
		require.NoError(t, err)
		require.False(t, fi.IsDir())
		require.False(t, fi.HasWorkspace)
		require.Equal(t, gitadapter.BlobSha("package main"), fi.GitBlobSha)
		require.Equal(t, head, fi.GitCommitSha)
		require.Equal(t, "main.go", fi.Name())

		require.NoError(t, v.WriteFile(ctx, "src/main.go", "package app"))
		fi, err = v.Stat(ctx, "src/main.go")
		require.NoError(t, err)
		require.True(t, fi.HasWorkspace)
		require.Equal(t, int64(len("package app")), fi.Size())
		require.Equal(t, gitadapter.BlobSha("package app"), fi.GitBlobSha)

		fi, err = v.Stat(ctx, "src")
		require.NoError(t, err)
		require.True(t, fi.IsDir())

		require.NoError(t, v.Mkdir(ctx, "empty"))
		require.NoError(t, v.Mkdir(ctx, "empty"))
		require.ErrorIs(t, v.Mkdir(ctx, "src/main.go"), fs.ErrExist)
		_, ok := b.ReadBlob(ctx, "empty", storage.SegmentWorkspace)
		require.False(t, ok, "directories have no content")
		entries, err := v.ReadDir(ctx, "")
		require.NoError(t, err)
		require.Equal(t, []string{"empty", "src"}, dirNames(t, entries))
		for _, e := range entries {
			require.True(t, e.IsDir())
		}
		require.ErrorIs(t, v.WriteFile(ctx, "empty", "x"), syscall.EISDIR)

		changes, err := v.GetChangeSet(ctx)
		require.NoError(t, err)
		require.Len(t, changes, 1, "directories are not pushed")

		require.NoError(t, v.Rmdir(ctx, "empty", false))
		_, err = v.Stat(ctx, "empty")
		require.ErrorIs(t, err, fs.ErrNotExist)
	})
}

func TestRename(t *testing.T) {
	forEachBackend(t, func(t *testing.T, ctx context.Context, b storage.Backend) {
		remote := newFakeRemote()
		remote.commitFiles("main", map[string]*string{"old.txt": str("content")})
		v := newVFS(t, ctx, b, remote)
		_, err := v.Pull(ctx, "")
		require.NoError(t, err)

		require.NoError(t, v.Rename(ctx, "old.txt", "new.txt"))
		changes, err := v.GetChangeSet(ctx)
		require.NoError(t, err)
		expected := []gitadapter.Change{
			{Type: gitadapter.ChangeDelete, Path: "old.txt", BaseSha: gitadapter.BlobSha("content")},
			{Type: gitadapter.ChangeCreate, Path: "new.txt", Content: "content"},
		}
		if diff := deep.Equal(changes, expected); diff != nil {
			t.Fatal("change-set", diff)
		}
	})
}

func TestBranches(t *testing.T) {
	forEachBackend(t, func(t *testing.T, ctx context.Context, b storage.Backend) {
		remote := newFakeRemote()
		mainHead := remote.commitFiles("main", map[string]*string{"a.txt": str("a")})
		v := newVFS(t, ctx, b, remote)
		_, err := v.Pull(ctx, "")
		require.NoError(t, err)

		branch, err := v.CreateBranch(ctx, "feature", "")
		require.NoError(t, err)
		require.Equal(t, mainHead, branch.Sha)
		_, err = v.CreateBranch(ctx, "feature", "main")
		require.ErrorIs(t, err, gitadapter.ErrAlreadyExists)
		require.Equal(t, "Reference already exists", err.Error())

		branches, err := v.ListBranches(ctx, gitadapter.BranchQuery{})
		require.NoError(t, err)
		require.Len(t, branches, 2)

		require.NoError(t, v.SwitchBranch(ctx, "feature"))
		require.Equal(t, "feature", v.Branch())
		require.Empty(t, v.Head(ctx))
		_, err = v.Pull(ctx, "")
		require.NoError(t, err)
		require.Equal(t, mainHead, v.Head(ctx))

		require.NoError(t, v.WriteFile(ctx, "b.txt", "b"))
		res, err := v.Push(ctx, vfs.PushInput{Message: "on feature"})
		require.NoError(t, err)
		require.Equal(t, mainHead, remote.branches["main"])
		require.Equal(t, res.CommitSha, remote.branches["feature"])

		page, err := v.ListCommits(ctx, gitadapter.CommitQuery{})
		require.NoError(t, err)
		require.Len(t, page.Items, 2)
		require.Equal(t, "on feature", page.Items[0].Message)

		require.NoError(t, v.SwitchBranch(ctx, "main"))
		_, err = v.Pull(ctx, "")
		require.NoError(t, err)
		_, err = v.Stat(ctx, "b.txt")
		require.ErrorIs(t, err, fs.ErrNotExist)
	})
}

// branchBoundRemote commits to the branch it was last set to.
type branchBoundRemote struct {
	*fakeRemote
	branch string
}

func (r *branchBoundRemote) SetBranch(name string) {
	r.branch = name
}

func TestSwitchBranchInjectedAdapter(t *testing.T) {
	forEachBackend(t, func(t *testing.T, ctx context.Context, b storage.Backend) {
		remote := &branchBoundRemote{fakeRemote: newFakeRemote(), branch: "main"}
		remote.commitFiles("main", map[string]*string{"a.txt": str("a")})
		v := newVFS(t, ctx, b, remote)

		require.NoError(t, v.SwitchBranch(ctx, "feature"))
		require.Equal(t, "feature", remote.branch)
		adapter, err := v.Adapter(ctx)
		require.NoError(t, err)
		require.Same(t, remote, adapter)
	})
}

func TestPullRef(t *testing.T) {
	forEachBackend(t, func(t *testing.T, ctx context.Context, b storage.Backend) {
		remote := newFakeRemote()
		first := remote.commitFiles("main", map[string]*string{"a.txt": str("a")})
		remote.commitFiles("main", map[string]*string{"b.txt": str("b")})
		v := newVFS(t, ctx, b, remote)

		res, err := v.Pull(ctx, first)
		require.NoError(t, err)
		require.Equal(t, first, res.Head)
		entries, err := v.ReadDir(ctx, "")
		require.NoError(t, err)
		require.Equal(t, []string{"a.txt"}, dirNames(t, entries))

		_, err = v.Pull(ctx, "no-such-ref")
		require.ErrorIs(t, err, gitadapter.ErrNotFound)
	})
}

func TestNoAdapter(t *testing.T) {
	forEachBackend(t, func(t *testing.T, ctx context.Context, b storage.Backend) {
		v, err := vfs.New(ctx, b)
		require.NoError(t, err)
		require.Equal(t, gitadapter.DefaultBranch, v.Branch())
		_, err = v.Pull(ctx, "")
		require.ErrorIs(t, err, vfs.ErrNoAdapter)

		require.NoError(t, v.WriteFile(ctx, "local.txt", "offline"))
		content, err := v.ReadFile(ctx, "local.txt")
		require.NoError(t, err)
		require.Equal(t, "offline", content)
	})
}

func TestAdapterFromConfig(t *testing.T) {
	typ := "fake-" + testutil.UniqueName()
	var configs []gitadapter.Config
	remote := newFakeRemote()
	remote.commitFiles("dev", map[string]*string{"a.txt": str("a")})
	gitadapter.Register(typ, func(_ context.Context, cfg gitadapter.Config, _ gitadapter.Params) (gitadapter.Adapter, error) {
		configs = append(configs, cfg)
		return remote, nil
	})

	ctx := context.Background()
	b, err := kvstore.NewDriver(mem.New()).Open(ctx, testutil.UniqueName())
	require.NoError(t, err)
	cfg := gitadapter.Config{Type: typ, Owner: "octo", Repo: "demo", Branch: "dev"}
	v, err := vfs.New(ctx, b, vfs.WithAdapterConfig(cfg), vfs.WithToken("secret"))
	require.NoError(t, err)
	require.Equal(t, "dev", v.Branch())
	_, err = v.Pull(ctx, "")
	require.NoError(t, err)

	index := b.ReadIndex(ctx)
	require.Equal(t, typ, index.Adapter.Type)
	require.Equal(t, map[string]interface{}{"owner": "octo", "repo": "demo", "branch": "dev"}, index.Adapter.Opts)

	// reopened from the persisted configuration
	v, err = vfs.New(ctx, b)
	require.NoError(t, err)
	require.Equal(t, "dev", v.Branch())
	_, err = v.ReadFile(ctx, "a.txt")
	require.NoError(t, err)

	require.Len(t, configs, 2)
	require.Equal(t, "secret", configs[0].Token)
	require.Empty(t, configs[1].Token)
	require.Equal(t, "demo", configs[1].Repo)
	require.Equal(t, "dev", configs[1].Branch)
}
