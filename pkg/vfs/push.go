package vfs

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/hashicorp/go-multierror"
	"github.com/treeverse/gitvfs/pkg/gitadapter"
	"github.com/treeverse/gitvfs/pkg/logging"
	"github.com/treeverse/gitvfs/pkg/storage"
)

type PushInput struct {
	// ParentSha is the expected remote head, the index head when empty
	ParentSha string
	Message   string
	// Changes to push, the current change-set when nil
	Changes []gitadapter.Change
}

type PushResult struct {
	CommitSha string
	TreeSha   string
	Changes   []gitadapter.Change
}

// commitKey identifies the content of a push: its parent, message and changes.
func commitKey(parent, message string, changes []gitadapter.Change) string {
	parts := make([]string, 0, len(changes))
	for _, c := range changes {
		parts = append(parts, string(c.Type)+" "+c.Path+" "+c.BlobSha)
	}
	sort.Strings(parts)
	return storage.ContentSha(parent + "\n" + message + "\n" + strings.Join(parts, "\n"))
}

// Push commits changes on top of the parent and moves the active branch to the new commit.
// A remote head that moved since the parent fails with gitadapter.NonFastForwardError.  On
// success the pushed paths become the new base and the workspace copies are cleared.
func (v *VFS) Push(ctx context.Context, input PushInput) (*PushResult, error) {
	index := v.readIndex(ctx)
	changes := input.Changes
	if changes == nil {
		var conflicts []string
		changes, conflicts = v.changeSet(ctx, index)
		if len(conflicts) > 0 {
			return nil, fmt.Errorf("%w: %s", ErrUnresolvedConflicts, strings.Join(conflicts, ", "))
		}
	} else {
		changes = append([]gitadapter.Change(nil), changes...)
	}
	if len(changes) == 0 {
		return nil, ErrNoChanges
	}
	parent := input.ParentSha
	if parent == "" {
		parent = index.Head
	}
	branch := v.Branch()
	log := v.log(ctx).WithField(logging.CommitFieldKey, parent)

	adapter, err := v.Adapter(ctx)
	if err != nil {
		return nil, err
	}
	blobShas, err := adapter.CreateBlobs(ctx, changes, v.concurrency)
	if err != nil {
		return nil, fmt.Errorf("create blobs: %w", err)
	}
	for i := range changes {
		if changes[i].Type != gitadapter.ChangeDelete {
			changes[i].BlobSha = blobShas[changes[i].Path]
		}
	}

	var baseTree string
	if gitadapter.IsCommitSha(parent) {
		commit, err := adapter.GetCommit(ctx, parent)
		if err != nil {
			return nil, fmt.Errorf("get parent %s: %w", parent, err)
		}
		baseTree = commit.TreeSha
	}
	tree, err := adapter.CreateTree(ctx, changes, baseTree)
	if err != nil {
		return nil, fmt.Errorf("create tree: %w", err)
	}
	message := input.Message
	if message == "" {
		message = defaultMessage(changes)
	}
	commit, err := adapter.CreateCommit(ctx, message, parent, tree)
	if err != nil {
		return nil, fmt.Errorf("create commit: %w", err)
	}
	if err := adapter.UpdateRef(ctx, branch, commit, false); err != nil {
		return nil, fmt.Errorf("update %s: %w", branch, err)
	}
	log.WithFields(logging.Fields{"new_commit": commit, "changes": len(changes)}).Info("pushed")

	if err := v.promote(ctx, index, changes); err != nil {
		return nil, fmt.Errorf("promote pushed changes: %w", err)
	}
	index.Head = commit
	index.Branch = branch
	index.LastCommitKey = commitKey(parent, message, changes)
	if err := v.backend.WriteIndex(ctx, index); err != nil {
		return nil, fmt.Errorf("write index: %w", err)
	}
	return &PushResult{CommitSha: commit, TreeSha: tree, Changes: changes}, nil
}

func defaultMessage(changes []gitadapter.Change) string {
	if len(changes) == 1 {
		return fmt.Sprintf("%s %s", changes[0].Type, changes[0].Path)
	}
	return fmt.Sprintf("Update %d files", len(changes))
}

// promote makes the pushed content the base of every changed path.
func (v *VFS) promote(ctx context.Context, index *storage.Index, changes []gitadapter.Change) error {
	var errs *multierror.Error
	now := v.now().UnixMilli()
	for _, c := range changes {
		if c.Type == gitadapter.ChangeDelete {
			if err := v.backend.DeleteBlob(ctx, c.Path, storage.SegmentAny); err != nil {
				errs = multierror.Append(errs, err)
			}
			delete(index.Entries, c.Path)
			continue
		}
		if err := v.backend.WriteBlob(ctx, c.Path, c.Content, storage.SegmentBase); err != nil {
			errs = multierror.Append(errs, err)
			continue
		}
		info := &storage.IndexEntry{
			Path:      c.Path,
			BaseSha:   storage.ContentSha(c.Content),
			RemoteSha: c.BlobSha,
			State:     storage.StateBase,
			UpdatedAt: now,
		}
		if err := storage.WriteInfo(ctx, v.backend, c.Path, info, storage.SegmentInfo); err != nil {
			errs = multierror.Append(errs, err)
		}
		for _, seg := range []storage.Segment{storage.SegmentWorkspace, storage.SegmentWorkspaceInfo} {
			if err := v.backend.DeleteBlob(ctx, c.Path, seg); err != nil {
				errs = multierror.Append(errs, err)
			}
		}
		index.Entries[c.Path] = &storage.IndexEntry{Path: c.Path, BaseSha: c.BlobSha, RemoteSha: c.BlobSha, State: storage.StateBase, UpdatedAt: now}
	}
	return errs.ErrorOrNil()
}
