// Package setup builds storage drivers and filesystems from configuration.
package setup

import (
	"context"
	"fmt"

	"github.com/treeverse/gitvfs/pkg/config"
	"github.com/treeverse/gitvfs/pkg/gitadapter"
	_ "github.com/treeverse/gitvfs/pkg/gitadapter/github"
	_ "github.com/treeverse/gitvfs/pkg/gitadapter/gitlab"
	"github.com/treeverse/gitvfs/pkg/kv"
	_ "github.com/treeverse/gitvfs/pkg/kv/dynamodb"
	"github.com/treeverse/gitvfs/pkg/kv/kvparams"
	_ "github.com/treeverse/gitvfs/pkg/kv/local"
	_ "github.com/treeverse/gitvfs/pkg/kv/mem"
	_ "github.com/treeverse/gitvfs/pkg/kv/postgres"
	"github.com/treeverse/gitvfs/pkg/logging"
	"github.com/treeverse/gitvfs/pkg/storage"
	"github.com/treeverse/gitvfs/pkg/storage/fsstore"
	"github.com/treeverse/gitvfs/pkg/storage/kvstore"
	"github.com/treeverse/gitvfs/pkg/version"
	"github.com/treeverse/gitvfs/pkg/vfs"
)

// RegisterStorage registers the storage driver selected by cfg under its storage type.  The
// returned function releases the resources the driver holds.
func RegisterStorage(ctx context.Context, cfg *config.Config) (func(), error) {
	log := logging.FromContext(ctx).WithField("storage_type", cfg.Storage.Type)
	switch cfg.Storage.Type {
	case config.StorageTypeKV:
		params := kvparams.NewConfig(cfg)
		store, err := kv.Open(ctx, params)
		if err != nil {
			return nil, fmt.Errorf("open kv %s: %w", params.Type, err)
		}
		storage.Register(config.StorageTypeKV, kvstore.NewDriver(store))
		log.WithField("kv_type", params.Type).Debug("storage registered")
		return store.Close, nil
	case config.StorageTypeFS:
		var d *fsstore.Driver
		if cfg.Storage.FS.InMemory {
			d = fsstore.NewMemDriver()
		} else {
			d = fsstore.NewOSDriver(cfg.Storage.FS.Path)
		}
		storage.Register(config.StorageTypeFS, d)
		log.WithField("path", d.Filesystem().Root()).Debug("storage registered")
		return func() {}, nil
	default:
		return nil, fmt.Errorf("%w: %s", config.ErrUnknownStorageType, cfg.Storage.Type)
	}
}

// AdapterConfig returns the adapter section of cfg.  Type is empty when no adapter is
// configured.
func AdapterConfig(cfg *config.Config) gitadapter.Config {
	return gitadapter.Config{
		Type:      cfg.Adapter.Type,
		Owner:     cfg.Adapter.Owner,
		Repo:      cfg.Adapter.Repo,
		ProjectID: cfg.Adapter.ProjectID.String(),
		Token:     cfg.Adapter.Token.SecureValue(),
		Host:      cfg.Adapter.Host,
		Branch:    cfg.Adapter.Branch,
	}
}

func AdapterParams(cfg *config.Config) gitadapter.Params {
	params := gitadapter.DefaultParams()
	params.Retry.Attempts = cfg.Remote.Retry.Attempts
	params.Retry.BaseDelay = cfg.Remote.Retry.BaseDelay
	params.Retry.MaxDelay = cfg.Remote.Retry.MaxDelay
	params.Concurrency = cfg.Remote.Concurrency
	params.RateLimit = cfg.Remote.RateLimit
	params.Timeout = cfg.Remote.Timeout
	params.CacheSize = cfg.Remote.CacheSize
	params.UserAgent = version.UserAgent()
	return params.WithDefaults()
}

// OpenVFS opens the configured root.  The adapter configuration of cfg is only persisted when
// opts carry vfs.WithAdapterConfig, otherwise the one stored in the root is used with the
// configured token.
func OpenVFS(ctx context.Context, cfg *config.Config, opts ...vfs.Option) (*vfs.VFS, error) {
	b, err := storage.Open(ctx, cfg.Storage.Type, cfg.Storage.Root)
	if err != nil {
		return nil, fmt.Errorf("open root %s: %w", cfg.Storage.Root, err)
	}
	options := []vfs.Option{
		vfs.WithAdapterParams(AdapterParams(cfg)),
		vfs.WithConcurrency(cfg.Remote.Concurrency),
		vfs.WithToken(cfg.Adapter.Token.SecureValue()),
	}
	v, err := vfs.New(ctx, b, append(options, opts...)...)
	if err != nil {
		_ = b.Close()
		return nil, err
	}
	return v, nil
}
