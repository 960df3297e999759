package vfs

import (
	"context"
	"fmt"

	"github.com/treeverse/gitvfs/pkg/gitadapter"
	"github.com/treeverse/gitvfs/pkg/logging"
)

// CreateBranch creates branch name remotely at fromRef, the current head when empty.  A
// branch that exists fails with gitadapter.ErrAlreadyExists carrying the provider message.
func (v *VFS) CreateBranch(ctx context.Context, name, fromRef string) (*gitadapter.BranchInfo, error) {
	adapter, err := v.Adapter(ctx)
	if err != nil {
		return nil, err
	}
	var sha string
	switch {
	case fromRef != "":
		sha, err = resolveRef(ctx, adapter, fromRef)
	case v.Head(ctx) != "":
		sha = v.Head(ctx)
	default:
		sha, err = adapter.GetBranchHead(ctx, v.Branch())
	}
	if err != nil {
		return nil, fmt.Errorf("resolve branch source: %w", err)
	}
	branch, err := adapter.CreateBranch(ctx, name, sha)
	if err != nil {
		return nil, err
	}
	v.log(ctx).WithFields(logging.Fields{"new_branch": name, logging.CommitFieldKey: sha}).Info("branch created")
	return branch, nil
}

// SwitchBranch scopes the filesystem to branch name.  The index is reset, so the next pull
// reads the new branch from scratch.  Data of the previous branch stays in its scope.
func (v *VFS) SwitchBranch(ctx context.Context, name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty branch", gitadapter.ErrInvalidConfig)
	}
	if name == v.Branch() {
		return nil
	}
	index := v.readIndex(ctx)
	resetIndex(index)
	index.Branch = name
	if index.Adapter != nil {
		opts := make(map[string]interface{}, len(index.Adapter.Opts)+1)
		for k, val := range index.Adapter.Opts {
			opts[k] = val
		}
		opts["branch"] = name
		index.Adapter.Opts = opts
	}
	v.backend.SetBranch(name)
	if err := v.backend.WriteIndex(ctx, index); err != nil {
		return fmt.Errorf("write index: %w", err)
	}

	v.mu.Lock()
	defer v.mu.Unlock()
	if v.adapterCfg != nil {
		v.adapterCfg.Branch = name
	}
	if !v.injected {
		v.adapter = nil
	} else if setter, ok := v.adapter.(gitadapter.BranchSetter); ok {
		setter.SetBranch(name)
	}
	return nil
}

// ListBranches lists remote branches, marking the repository default.
func (v *VFS) ListBranches(ctx context.Context, query gitadapter.BranchQuery) ([]gitadapter.BranchInfo, error) {
	adapter, err := v.Adapter(ctx)
	if err != nil {
		return nil, err
	}
	return adapter.ListBranches(ctx, query)
}

// ListCommits lists remote history, of the active branch when the query has no ref.
func (v *VFS) ListCommits(ctx context.Context, query gitadapter.CommitQuery) (*gitadapter.CommitHistoryPage, error) {
	adapter, err := v.Adapter(ctx)
	if err != nil {
		return nil, err
	}
	if query.Ref == "" {
		query.Ref = v.Branch()
	}
	if query.PerPage <= 0 {
		query.PerPage = gitadapter.DefaultCommitsLimit
	}
	return adapter.ListCommits(ctx, query)
}
