package vfs

import (
	"context"
	"fmt"
	"io/fs"
	"syscall"

	"github.com/treeverse/gitvfs/pkg/logging"
	"github.com/treeverse/gitvfs/pkg/storage"
)

func pathError(op, p string, err error) error {
	return &fs.PathError{Op: op, Path: p, Err: err}
}

// remoteSha returns the remote blob id of p: the index entry, else the info record.
func remoteSha(index *storage.Index, info *storage.IndexEntry, p string) string {
	if e := index.Entries[p]; e != nil && e.RemoteSha != "" {
		return e.RemoteSha
	}
	if info == nil {
		return ""
	}
	if info.RemoteSha != "" {
		return info.RemoteSha
	}
	return info.BaseSha
}

// ReadFile returns the workspace copy of p, else its base.  A base that was never fetched is
// fetched from the remote and stored.
func (v *VFS) ReadFile(ctx context.Context, p string) (string, error) {
	p, err := cleanPath(p)
	if err != nil {
		return "", pathError("read", p, err)
	}
	if content, ok := v.backend.ReadBlob(ctx, p, storage.SegmentAny); ok {
		return content, nil
	}
	info := storage.ReadInfo(ctx, v.backend, p)
	if info == nil {
		return "", pathError("read", p, fs.ErrNotExist)
	}
	if info.State == storage.StateDir {
		return "", pathError("read", p, syscall.EISDIR)
	}
	sha := remoteSha(v.readIndex(ctx), info, p)
	if sha == "" {
		return "", pathError("read", p, fs.ErrNotExist)
	}
	// concurrent readers of one path share a single fetch
	res, err := v.fetches.Compute(p, func() (interface{}, error) {
		if content, ok := v.backend.ReadBlob(ctx, p, storage.SegmentBase); ok {
			return content, nil
		}
		return v.fetch(ctx, p, sha)
	})
	if err != nil {
		return "", err
	}
	return res.(string), nil
}

func (v *VFS) fetch(ctx context.Context, p, sha string) (string, error) {
	adapter, err := v.Adapter(ctx)
	if err != nil {
		return "", err
	}
	blob, err := adapter.GetBlob(ctx, sha)
	if err != nil {
		return "", fmt.Errorf("fetch %s: %w", p, err)
	}
	content, err := blob.Decoded()
	if err != nil {
		return "", err
	}
	if err := v.backend.WriteBlob(ctx, p, content, storage.SegmentBase); err != nil {
		return "", fmt.Errorf("store %s: %w", p, err)
	}
	v.log(ctx).WithFields(logging.Fields{logging.PathFieldKey: p, "sha": sha}).Debug("fetched on demand")
	return content, nil
}

// WriteFile stores content as the workspace copy of p.
func (v *VFS) WriteFile(ctx context.Context, p, content string) error {
	p, err := cleanPath(p)
	if err != nil {
		return pathError("write", p, err)
	}
	if p == "" {
		return pathError("write", p, syscall.EISDIR)
	}
	if info := storage.ReadInfo(ctx, v.backend, p); info != nil && info.State == storage.StateDir {
		return pathError("write", p, syscall.EISDIR)
	}
	return v.backend.WriteBlob(ctx, p, content, storage.SegmentWorkspace)
}

// DeleteFile removes p locally.  A path known remotely shows as a delete in the change-set.
func (v *VFS) DeleteFile(ctx context.Context, p string) error {
	p, err := cleanPath(p)
	if err != nil {
		return pathError("remove", p, err)
	}
	info := storage.ReadInfo(ctx, v.backend, p)
	_, hasWorkspace := v.backend.ReadBlob(ctx, p, storage.SegmentWorkspace)
	if info == nil && !hasWorkspace {
		return pathError("remove", p, fs.ErrNotExist)
	}
	if info != nil && info.State == storage.StateDir {
		return pathError("remove", p, syscall.EISDIR)
	}
	return v.backend.DeleteBlob(ctx, p, storage.SegmentAny)
}

// Rename moves the content of from to to.
func (v *VFS) Rename(ctx context.Context, from, to string) error {
	content, err := v.ReadFile(ctx, from)
	if err != nil {
		return err
	}
	if err := v.WriteFile(ctx, to, content); err != nil {
		return err
	}
	return v.DeleteFile(ctx, from)
}
