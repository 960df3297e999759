package vfs

import (
	"context"
	"sort"

	"github.com/treeverse/gitvfs/pkg/gitadapter"
	"github.com/treeverse/gitvfs/pkg/storage"
)

// trackedPaths returns every path known locally or to the index, sorted.
func (v *VFS) trackedPaths(ctx context.Context, index *storage.Index) []string {
	seen := make(map[string]struct{}, len(index.Entries))
	for p := range index.Entries {
		seen[p] = struct{}{}
	}
	for _, e := range v.backend.ListFiles(ctx, "", storage.SegmentAny, true) {
		seen[e.Path] = struct{}{}
	}
	for _, e := range v.backend.ListFiles(ctx, "", storage.SegmentWorkspace, true) {
		seen[e.Path] = struct{}{}
	}
	paths := make([]string, 0, len(seen))
	for p := range seen {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	return paths
}

// GetChangeSet compares the workspace with the remote view of the index.  Deletes come
// first, then creates and updates, each ordered by path.  Paths in conflict are left out.
func (v *VFS) GetChangeSet(ctx context.Context) ([]gitadapter.Change, error) {
	changes, _ := v.changeSet(ctx, v.readIndex(ctx))
	return changes, nil
}

// changeSet returns the change-set and the paths in conflict.
func (v *VFS) changeSet(ctx context.Context, index *storage.Index) (changes []gitadapter.Change, conflicts []string) {
	var deletes, writes []gitadapter.Change
	for _, p := range v.trackedPaths(ctx, index) {
		info := storage.ReadInfo(ctx, v.backend, p)
		if info != nil && info.State == storage.StateDir {
			continue
		}
		if v.conflicted(ctx, p) {
			conflicts = append(conflicts, p)
			continue
		}
		entry := index.Entries[p]
		workspace, ok := v.backend.ReadBlob(ctx, p, storage.SegmentWorkspace)
		switch {
		case ok && entry == nil:
			writes = append(writes, gitadapter.Change{Type: gitadapter.ChangeCreate, Path: p, Content: workspace})
		case ok && gitadapter.BlobSha(workspace) != entry.RemoteSha:
			writes = append(writes, gitadapter.Change{Type: gitadapter.ChangeUpdate, Path: p, Content: workspace, BaseSha: entry.RemoteSha})
		case !ok && entry != nil && info == nil:
			deletes = append(deletes, gitadapter.Change{Type: gitadapter.ChangeDelete, Path: p, BaseSha: entry.RemoteSha})
		}
	}
	return append(deletes, writes...), conflicts
}
