// Package vfs is a filesystem over a storage.Backend that synchronizes with a remote git
// repository through a gitadapter.Adapter.
//
// Files read lazily: a pull records remote blob ids only, and content is fetched the first
// time a file is read.  Local writes land in the workspace segment and are pushed as a single
// commit.
package vfs

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/treeverse/gitvfs/pkg/batch"
	"github.com/treeverse/gitvfs/pkg/cache"
	"github.com/treeverse/gitvfs/pkg/gitadapter"
	"github.com/treeverse/gitvfs/pkg/logging"
	"github.com/treeverse/gitvfs/pkg/storage"
)

type VFS struct {
	backend     storage.Backend
	adapterCfg  *gitadapter.Config
	token       string
	params      gitadapter.Params
	concurrency int
	now         func() time.Time

	fetches cache.OnlyOne

	mu       sync.Mutex
	adapter  gitadapter.Adapter
	injected bool
}

// New opens the filesystem of backend.  The root is initialized and its index created when
// missing.  An adapter configuration passed with WithAdapterConfig replaces the persisted one.
func New(ctx context.Context, backend storage.Backend, opts ...Option) (*VFS, error) {
	v := &VFS{
		backend:     backend,
		params:      gitadapter.DefaultParams(),
		concurrency: batch.DefaultConcurrency,
		now:         time.Now,
		fetches:     cache.NewChanOnlyOne(),
	}
	for _, opt := range opts {
		opt(v)
	}
	if v.concurrency <= 0 {
		v.concurrency = batch.DefaultConcurrency
	}
	if err := backend.Init(ctx); err != nil {
		return nil, fmt.Errorf("init root %s: %w", backend.Root(), err)
	}

	index := backend.ReadIndex(ctx)
	dirty := false
	if index == nil {
		index = storage.NewIndex()
		dirty = true
	}
	if v.adapterCfg != nil {
		index.Adapter = &storage.AdapterRecord{Type: v.adapterCfg.Type, Opts: v.adapterCfg.Opts()}
		if index.Branch == "" || (v.adapterCfg.Branch != "" && v.adapterCfg.Branch != index.Branch) {
			if index.Branch != "" {
				resetIndex(index)
			}
			index.Branch = v.adapterCfg.BranchOrDefault()
		}
		dirty = true
	}
	if index.Branch == "" {
		index.Branch = gitadapter.DefaultBranch
		dirty = true
	}
	backend.SetBranch(index.Branch)
	if dirty {
		if err := backend.WriteIndex(ctx, index); err != nil {
			return nil, fmt.Errorf("write index: %w", err)
		}
	}
	return v, nil
}

func resetIndex(index *storage.Index) {
	index.Head = ""
	index.LastCommitKey = ""
	index.Entries = make(map[string]*storage.IndexEntry)
}

func (v *VFS) Root() string {
	return v.backend.Root()
}

func (v *VFS) Branch() string {
	return v.backend.Branch()
}

// Head returns the last synchronized remote commit, empty before the first pull.
func (v *VFS) Head(ctx context.Context) string {
	return v.readIndex(ctx).Head
}

func (v *VFS) Backend() storage.Backend {
	return v.backend
}

func (v *VFS) Close() error {
	return v.backend.Close()
}

func (v *VFS) readIndex(ctx context.Context) *storage.Index {
	index := v.backend.ReadIndex(ctx)
	if index == nil {
		index = storage.NewIndex()
		index.Branch = v.backend.Branch()
	}
	if index.Entries == nil {
		index.Entries = make(map[string]*storage.IndexEntry)
	}
	return index
}

func (v *VFS) log(ctx context.Context) logging.Logger {
	return logging.FromContext(ctx).WithFields(logging.Fields{
		logging.RootFieldKey:   v.backend.Root(),
		logging.BranchFieldKey: v.backend.Branch(),
	})
}

// Adapter returns the adapter used for remote calls, building it from the persisted
// configuration on first use.
func (v *VFS) Adapter(ctx context.Context) (gitadapter.Adapter, error) {
	v.mu.Lock()
	defer v.mu.Unlock()
	if v.adapter != nil {
		return v.adapter, nil
	}
	cfg, err := v.config(ctx)
	if err != nil {
		return nil, err
	}
	adapter, err := gitadapter.New(ctx, cfg, v.params)
	if err != nil {
		return nil, err
	}
	v.adapter = adapter
	return adapter, nil
}

func (v *VFS) config(ctx context.Context) (gitadapter.Config, error) {
	var cfg gitadapter.Config
	switch {
	case v.adapterCfg != nil:
		cfg = *v.adapterCfg
	default:
		index := v.readIndex(ctx)
		if index.Adapter == nil || index.Adapter.Type == "" {
			return cfg, ErrNoAdapter
		}
		cfg = gitadapter.ConfigFromOpts(index.Adapter.Type, index.Adapter.Opts)
	}
	cfg.Branch = v.backend.Branch()
	if v.token != "" {
		cfg.Token = v.token
	}
	return cfg, nil
}

// cleanPath normalizes p, reading "." as the root.
func cleanPath(p string) (string, error) {
	if p == "." || p == "./" {
		return "", nil
	}
	return storage.NormalizePath(p)
}
