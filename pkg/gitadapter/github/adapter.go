// Package github implements gitadapter.Adapter on the GitHub REST git database API.
package github

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/treeverse/gitvfs/pkg/cache"
	"github.com/treeverse/gitvfs/pkg/gitadapter"
	"github.com/treeverse/gitvfs/pkg/logging"
)

const (
	AdapterType    = "github"
	DefaultBaseURL = "https://api.github.com"
	mediaType      = "application/vnd.github+json"
)

func init() {
	gitadapter.Register(AdapterType, func(ctx context.Context, cfg gitadapter.Config, params gitadapter.Params) (gitadapter.Adapter, error) {
		return New(ctx, cfg, params)
	})
}

type Adapter struct {
	cfg         gitadapter.Config
	client      *gitadapter.Client
	repoPath    string
	concurrency int
	// blobs maps git blob ids of uploaded content to the remote sha
	blobs    *cache.GetSetCache
	metadata *gitadapter.MetadataCache
}

// BaseURL returns the API URL of host: api.github.com when empty, a GitHub Enterprise API
// path for a bare host name, host itself when it has a scheme.
func BaseURL(host string) string {
	switch {
	case host == "":
		return DefaultBaseURL
	case strings.Contains(host, "://"):
		return strings.TrimSuffix(host, "/")
	default:
		return "https://" + strings.TrimSuffix(host, "/") + "/api/v3"
	}
}

func New(_ context.Context, cfg gitadapter.Config, params gitadapter.Params) (*Adapter, error) {
	if cfg.Owner == "" || cfg.Repo == "" {
		return nil, fmt.Errorf("%w: github requires owner and repo", gitadapter.ErrInvalidConfig)
	}
	params = params.WithDefaults()
	header := http.Header{}
	header.Set("Accept", mediaType)
	if cfg.HasToken() {
		header.Set("Authorization", "token "+strings.TrimSpace(cfg.Token))
	}
	client, err := gitadapter.NewClient(gitadapter.ClientOptions{
		Provider: AdapterType,
		BaseURL:  BaseURL(cfg.Host),
		Header:   header,
		Params:   params,
	})
	if err != nil {
		return nil, err
	}
	a := &Adapter{
		cfg:         cfg,
		client:      client,
		repoPath:    "/repos/" + url.PathEscape(cfg.Owner) + "/" + url.PathEscape(cfg.Repo),
		concurrency: params.Concurrency,
		blobs:       cache.NewCacheByParams(&cache.Params{Name: "github-blobs", Size: params.CacheSize}),
	}
	a.metadata = gitadapter.NewMetadataCache(a.fetchRepositoryMetadata)
	return a, nil
}

func (a *Adapter) Type() string {
	return AdapterType
}

func (a *Adapter) log(ctx context.Context) logging.Logger {
	return logging.FromContext(ctx).WithFields(logging.Fields{
		logging.ProviderFieldKey: AdapterType,
		"repository":             a.cfg.Owner + "/" + a.cfg.Repo,
	})
}

func (a *Adapter) do(ctx context.Context, method, path string, query url.Values, body, out interface{}) (*gitadapter.Response, error) {
	return a.client.Do(ctx, gitadapter.Request{
		Method: method,
		Path:   a.repoPath + path,
		Query:  query,
		Body:   body,
	}, out)
}

// escapeRef escapes every component of a ref name, keeping its separators.
func escapeRef(ref string) string {
	parts := strings.Split(ref, "/")
	for i, p := range parts {
		parts[i] = url.PathEscape(p)
	}
	return strings.Join(parts, "/")
}

// headsRef returns ref relative to refs/, as the refs endpoints expect it.
func headsRef(ref string) string {
	ref = strings.TrimPrefix(ref, "refs/")
	if strings.HasPrefix(ref, "heads/") || strings.HasPrefix(ref, "tags/") {
		return ref
	}
	return "heads/" + ref
}
