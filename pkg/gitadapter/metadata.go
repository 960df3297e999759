package gitadapter

import (
	"context"

	"github.com/treeverse/gitvfs/pkg/cache"
	"github.com/treeverse/gitvfs/pkg/logging"
)

const metadataCacheKey = "metadata"

// MetadataCache holds repository metadata for the lifetime of an adapter.  Failures are not
// cached.
type MetadataCache struct {
	fetch func(ctx context.Context) (*RepositoryMetadata, error)
	cache *cache.GetSetCache
}

func NewMetadataCache(fetch func(ctx context.Context) (*RepositoryMetadata, error)) *MetadataCache {
	return &MetadataCache{
		fetch: fetch,
		cache: cache.NewCacheByParams(&cache.Params{Name: "repository-metadata", Size: 1}),
	}
}

func (m *MetadataCache) Get(ctx context.Context) (*RepositoryMetadata, error) {
	v, err := m.cache.GetOrSet(metadataCacheKey, func() (interface{}, error) {
		return m.fetch(ctx)
	})
	if err != nil {
		return nil, err
	}
	return v.(*RepositoryMetadata), nil
}

// DefaultBranch returns the repository default branch, DefaultBranch when metadata cannot be
// fetched.
func (m *MetadataCache) DefaultBranch(ctx context.Context) string {
	md, err := m.Get(ctx)
	if err != nil || md.DefaultBranch == "" {
		logging.FromContext(ctx).WithError(err).Debug("repository metadata unavailable, assuming default branch")
		return DefaultBranch
	}
	return md.DefaultBranch
}

// MarkDefault sets IsDefault of every branch named defaultBranch.
func MarkDefault(branches []BranchInfo, defaultBranch string) []BranchInfo {
	for i := range branches {
		branches[i].IsDefault = branches[i].Name == defaultBranch
	}
	return branches
}
