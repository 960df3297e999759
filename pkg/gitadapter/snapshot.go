package gitadapter

import (
	"context"
	"fmt"

	"github.com/treeverse/gitvfs/pkg/batch"
	"github.com/treeverse/gitvfs/pkg/cache"
)

// ContentFetcher returns the content of path, whose blob sha is sha.
type ContentFetcher func(ctx context.Context, path, sha string) (string, error)

// Snapshot is the tree listing of a remote commit.  Content is fetched on request and memoized,
// so every path costs at most one call.
type Snapshot struct {
	HeadSha string
	// Shas maps every file path to its blob sha
	Shas map[string]string
	// Truncated is set when the provider returned a partial listing
	Truncated bool

	fetch       ContentFetcher
	concurrency int
	contents    *cache.GetSetCache
}

func NewSnapshot(headSha string, shas map[string]string, fetch ContentFetcher, concurrency int) *Snapshot {
	size := len(shas)
	if size == 0 {
		size = 1
	}
	return &Snapshot{
		HeadSha:     headSha,
		Shas:        shas,
		fetch:       fetch,
		concurrency: concurrency,
		contents:    cache.NewCacheByParams(&cache.Params{Name: "snapshot-" + headSha, Size: size}),
	}
}

// FetchContent returns the content of every path.  Paths missing from the snapshot fail with
// NotFoundError.
func (s *Snapshot) FetchContent(ctx context.Context, paths []string) (map[string]string, error) {
	seen := make(map[string]struct{}, len(paths))
	unique := make([]string, 0, len(paths))
	for _, p := range paths {
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		unique = append(unique, p)
	}

	contents, err := batch.Map(ctx, unique, s.concurrency, func(ctx context.Context, p string) (string, error) {
		sha, ok := s.Shas[p]
		if !ok {
			return "", &NotFoundError{What: fmt.Sprintf("path %s in %s", p, s.HeadSha)}
		}
		v, err := s.contents.GetOrSet(p, func() (interface{}, error) {
			return s.fetch(ctx, p, sha)
		})
		if err != nil {
			return "", err
		}
		return v.(string), nil
	})
	if err != nil {
		return nil, err
	}

	result := make(map[string]string, len(unique))
	for i, p := range unique {
		result[p] = contents[i]
	}
	return result, nil
}
