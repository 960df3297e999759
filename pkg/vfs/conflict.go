package vfs

import (
	"context"
	"fmt"

	"github.com/hashicorp/go-multierror"
	"github.com/treeverse/gitvfs/pkg/logging"
	"github.com/treeverse/gitvfs/pkg/storage"
)

type Resolution string

const (
	// KeepLocal keeps the workspace copy, to be pushed over the remote content
	KeepLocal Resolution = "local"
	// TakeRemote drops local changes in favour of the remote content
	TakeRemote Resolution = "remote"
)

// conflicted reports whether p holds conflict data in the active branch.  The derived
// conflict info record is shared by all branches and is not consulted.
func (v *VFS) conflicted(ctx context.Context, p string) bool {
	_, ok := v.backend.ReadBlob(ctx, p, storage.SegmentConflict)
	return ok
}

func (v *VFS) conflictOf(ctx context.Context, p string) (string, error) {
	if !v.conflicted(ctx, p) {
		return "", pathError("resolve", p, ErrNotConflicted)
	}
	remote, ok := v.backend.ReadBlob(ctx, p, storage.SegmentConflictBlob)
	if !ok {
		return "", pathError("resolve", p, ErrNotConflicted)
	}
	return remote, nil
}

// ReadConflict returns the remote content of a path in conflict.
func (v *VFS) ReadConflict(ctx context.Context, p string) (string, error) {
	p, err := cleanPath(p)
	if err != nil {
		return "", pathError("resolve", p, err)
	}
	return v.conflictOf(ctx, p)
}

// ResolveConflict settles a path flagged by a pull.
func (v *VFS) ResolveConflict(ctx context.Context, p string, resolution Resolution) error {
	p, err := cleanPath(p)
	if err != nil {
		return pathError("resolve", p, err)
	}
	remote, err := v.conflictOf(ctx, p)
	if err != nil {
		return err
	}
	switch resolution {
	case KeepLocal:
		err = v.keepLocal(ctx, p)
	case TakeRemote:
		err = v.takeRemote(ctx, p, remote)
	default:
		return fmt.Errorf("%w: %s", ErrInvalidResolution, resolution)
	}
	if err != nil {
		return err
	}
	v.log(ctx).WithFields(logging.Fields{logging.PathFieldKey: p, "resolution": resolution}).Info("conflict resolved")
	return nil
}

func (v *VFS) dropConflict(ctx context.Context, p string, segments ...storage.Segment) error {
	var errs *multierror.Error
	for _, seg := range append([]storage.Segment{storage.SegmentConflict, storage.SegmentConflictBlob}, segments...) {
		if err := v.backend.DeleteBlob(ctx, p, seg); err != nil {
			errs = multierror.Append(errs, err)
		}
	}
	return errs.ErrorOrNil()
}

func (v *VFS) keepLocal(ctx context.Context, p string) error {
	workspace, ok := v.backend.ReadBlob(ctx, p, storage.SegmentWorkspace)
	if err := v.dropConflict(ctx, p, storage.SegmentWorkspaceInfo); err != nil {
		return err
	}
	if !ok {
		// deleted locally, the change-set reports the delete
		return v.backend.DeleteBlob(ctx, p, storage.SegmentInfo)
	}
	return v.backend.WriteBlob(ctx, p, workspace, storage.SegmentWorkspace)
}

func (v *VFS) takeRemote(ctx context.Context, p, remote string) error {
	sha := remoteSha(v.readIndex(ctx), nil, p)
	if err := v.backend.DeleteBlob(ctx, p, storage.SegmentAny); err != nil {
		return err
	}
	if err := v.backend.WriteBlob(ctx, p, remote, storage.SegmentBase); err != nil {
		return err
	}
	info := &storage.IndexEntry{
		Path:      p,
		BaseSha:   storage.ContentSha(remote),
		RemoteSha: sha,
		State:     storage.StateBase,
		UpdatedAt: v.now().UnixMilli(),
	}
	return storage.WriteInfo(ctx, v.backend, p, info, storage.SegmentInfo)
}
