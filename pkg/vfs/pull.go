package vfs

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/hashicorp/go-multierror"
	"github.com/treeverse/gitvfs/pkg/gitadapter"
	"github.com/treeverse/gitvfs/pkg/logging"
	"github.com/treeverse/gitvfs/pkg/storage"
)

// PullResult describes what a pull changed.
type PullResult struct {
	Ref  string
	Head string
	// Updated paths got new remote pointers
	Updated []string
	// Conflicts are paths changed both locally and remotely
	Conflicts []string
	// Removed paths left the index
	Removed []string
	// Orphaned paths were removed remotely but kept as local additions
	Orphaned  []string
	Unchanged int
	Truncated bool
}

// resolveRef resolves ref to a commit sha: a branch head, then a tag or commit, else ref
// itself.
func resolveRef(ctx context.Context, adapter gitadapter.Adapter, ref string) (string, error) {
	if gitadapter.IsCommitSha(ref) {
		return ref, nil
	}
	sha, err := adapter.GetBranchHead(ctx, ref)
	if err == nil {
		return sha, nil
	}
	if !errors.Is(err, gitadapter.ErrNotFound) {
		return "", err
	}
	sha, err = adapter.ResolveCommit(ctx, ref)
	if err == nil {
		return sha, nil
	}
	if !errors.Is(err, gitadapter.ErrNotFound) {
		return "", err
	}
	logging.FromContext(ctx).WithField(logging.RefFieldKey, ref).Debug("ref not resolved, using it as is")
	return ref, nil
}

// Pull synchronizes the local view with ref, the active branch when empty.  Remote content
// is not fetched except for conflicting paths.  When conflicts were flagged the result is
// returned together with a ConflictError.
func (v *VFS) Pull(ctx context.Context, ref string) (*PullResult, error) {
	adapter, err := v.Adapter(ctx)
	if err != nil {
		return nil, err
	}
	if ref == "" {
		ref = v.Branch()
	}
	log := v.log(ctx).WithField(logging.RefFieldKey, ref)
	head, err := resolveRef(ctx, adapter, ref)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", ref, err)
	}
	snapshot, err := adapter.FetchSnapshot(ctx, head, v.concurrency)
	if err != nil {
		return nil, fmt.Errorf("fetch snapshot %s: %w", head, err)
	}

	index := v.readIndex(ctx)
	result := &PullResult{Ref: ref, Head: snapshot.HeadSha, Truncated: snapshot.Truncated}
	entries := make(map[string]*storage.IndexEntry, len(snapshot.Shas))
	now := v.now().UnixMilli()

	paths := make([]string, 0, len(snapshot.Shas))
	for p := range snapshot.Shas {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	var conflicts []string
	for _, p := range paths {
		remoteSha := snapshot.Shas[p]
		prev := index.Entries[p]
		entries[p] = &storage.IndexEntry{Path: p, BaseSha: remoteSha, RemoteSha: remoteSha, State: storage.StateBase, UpdatedAt: now}
		if prev != nil && prev.RemoteSha == remoteSha {
			entries[p] = prev
			result.Unchanged++
			continue
		}
		prevRemote := ""
		if prev != nil {
			prevRemote = prev.RemoteSha
		}
		workspace, hasWorkspace := v.backend.ReadBlob(ctx, p, storage.SegmentWorkspace)
		if hasWorkspace {
			localSha := gitadapter.BlobSha(workspace)
			if localSha != prevRemote && localSha != remoteSha {
				conflicts = append(conflicts, p)
				continue
			}
		}
		if err := v.advance(ctx, p, remoteSha, hasWorkspace, now); err != nil {
			return nil, err
		}
		result.Updated = append(result.Updated, p)
	}

	if len(conflicts) > 0 {
		contents, err := snapshot.FetchContent(ctx, conflicts)
		if err != nil {
			return nil, fmt.Errorf("fetch conflicting content: %w", err)
		}
		for _, p := range conflicts {
			if err := v.flagConflict(ctx, p, contents[p], snapshot.Shas[p]); err != nil {
				return nil, err
			}
		}
		result.Conflicts = conflicts
	}

	var removed []string
	for p, prev := range index.Entries {
		if _, ok := snapshot.Shas[p]; ok {
			continue
		}
		if snapshot.Truncated {
			// a partial listing says nothing about unlisted paths
			entries[p] = prev
			continue
		}
		removed = append(removed, p)
	}
	sort.Strings(removed)
	if snapshot.Truncated {
		log.WithField("listed", len(snapshot.Shas)).Warn("truncated snapshot, keeping unlisted paths")
	}
	for _, p := range removed {
		orphaned, err := v.dropRemote(ctx, p, now)
		if err != nil {
			return nil, err
		}
		if orphaned {
			result.Orphaned = append(result.Orphaned, p)
		} else {
			result.Removed = append(result.Removed, p)
		}
	}

	index.Head = snapshot.HeadSha
	index.Branch = v.Branch()
	index.Entries = entries
	if err := v.backend.WriteIndex(ctx, index); err != nil {
		return nil, fmt.Errorf("write index: %w", err)
	}
	log.WithFields(logging.Fields{
		logging.CommitFieldKey: snapshot.HeadSha,
		"updated":              len(result.Updated),
		"conflicts":            len(result.Conflicts),
		"removed":              len(result.Removed),
	}).Info("pulled")
	if len(conflicts) > 0 {
		return result, &ConflictError{Paths: conflicts}
	}
	return result, nil
}

// advance points the base of p at remoteSha, dropping stale local copies and any conflict
// left in the active branch.
func (v *VFS) advance(ctx context.Context, p, remoteSha string, hasWorkspace bool, now int64) error {
	var errs *multierror.Error
	for _, seg := range []storage.Segment{storage.SegmentBase, storage.SegmentConflict, storage.SegmentConflictBlob} {
		if err := v.backend.DeleteBlob(ctx, p, seg); err != nil {
			errs = multierror.Append(errs, err)
		}
	}
	if hasWorkspace {
		for _, seg := range []storage.Segment{storage.SegmentWorkspace, storage.SegmentWorkspaceInfo} {
			if err := v.backend.DeleteBlob(ctx, p, seg); err != nil {
				errs = multierror.Append(errs, err)
			}
		}
	}
	if err := errs.ErrorOrNil(); err != nil {
		return fmt.Errorf("drop stale %s: %w", p, err)
	}
	info := &storage.IndexEntry{Path: p, BaseSha: remoteSha, RemoteSha: remoteSha, State: storage.StateBase, UpdatedAt: now}
	return storage.WriteInfo(ctx, v.backend, p, info, storage.SegmentInfo)
}

// flagConflict stores the remote content of p next to its local changes.  The base is left
// alone.
func (v *VFS) flagConflict(ctx context.Context, p, content, remoteSha string) error {
	if err := v.backend.WriteBlob(ctx, p, content, storage.SegmentConflictBlob); err != nil {
		return fmt.Errorf("write conflict %s: %w", p, err)
	}
	if err := v.backend.WriteBlob(ctx, p, remoteSha, storage.SegmentConflict); err != nil {
		return fmt.Errorf("write conflict %s: %w", p, err)
	}
	v.log(ctx).WithField(logging.PathFieldKey, p).Warn("conflict")
	return nil
}

// dropRemote handles p removed remotely.  A workspace copy survives as an addition, reported
// by orphaned.
func (v *VFS) dropRemote(ctx context.Context, p string, now int64) (orphaned bool, err error) {
	workspace, ok := v.backend.ReadBlob(ctx, p, storage.SegmentWorkspace)
	if !ok {
		return false, v.backend.DeleteBlob(ctx, p, storage.SegmentAny)
	}
	var errs *multierror.Error
	for _, seg := range []storage.Segment{storage.SegmentBase, storage.SegmentInfo, storage.SegmentConflict, storage.SegmentConflictBlob} {
		if err := v.backend.DeleteBlob(ctx, p, seg); err != nil {
			errs = multierror.Append(errs, err)
		}
	}
	info := &storage.IndexEntry{Path: p, WorkspaceSha: storage.ContentSha(workspace), State: storage.StateAdded, UpdatedAt: now}
	if err := storage.WriteInfo(ctx, v.backend, p, info, storage.SegmentWorkspaceInfo); err != nil {
		errs = multierror.Append(errs, err)
	}
	return true, errs.ErrorOrNil()
}
