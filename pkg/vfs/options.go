package vfs

import (
	"time"

	"github.com/treeverse/gitvfs/pkg/gitadapter"
)

type Option func(v *VFS)

// WithAdapter uses adapter for every remote call.  The adapter configuration is not persisted.
func WithAdapter(adapter gitadapter.Adapter) Option {
	return func(v *VFS) {
		v.adapter = adapter
		v.injected = true
	}
}

// WithAdapterConfig sets and persists the adapter configuration, replacing the one stored in the
// root.
func WithAdapterConfig(cfg gitadapter.Config) Option {
	return func(v *VFS) {
		v.adapterCfg = &cfg
	}
}

// WithToken sets the credential of adapters built from configuration.  It is never persisted.
func WithToken(token string) Option {
	return func(v *VFS) {
		v.token = token
	}
}

// WithConcurrency bounds parallel remote calls of batch operations.
func WithConcurrency(n int) Option {
	return func(v *VFS) {
		v.concurrency = n
	}
}

// WithAdapterParams sets the runtime knobs of adapters built from configuration.
func WithAdapterParams(params gitadapter.Params) Option {
	return func(v *VFS) {
		v.params = params
	}
}

// WithClock sets the clock used to stamp records written by the filesystem itself.
func WithClock(now func() time.Time) Option {
	return func(v *VFS) {
		v.now = now
	}
}
