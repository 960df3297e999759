// Package gitlab implements gitadapter.Adapter on the GitLab REST v4 API.  GitLab has no git
// database endpoints: blob ids are computed locally and a push is a single commit with
// actions.
package gitlab

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"

	nanoid "github.com/matoous/go-nanoid/v2"
	"github.com/puzpuzpuz/xsync"
	"github.com/treeverse/gitvfs/pkg/gitadapter"
	"github.com/treeverse/gitvfs/pkg/logging"
)

const (
	AdapterType    = "gitlab"
	DefaultBaseURL = "https://gitlab.com/api/v4"
	apiPath        = "/api/v4"
	treeMarker     = "pending-tree-"
)

func init() {
	gitadapter.Register(AdapterType, func(ctx context.Context, cfg gitadapter.Config, params gitadapter.Params) (gitadapter.Adapter, error) {
		return New(ctx, cfg, params)
	})
}

type Adapter struct {
	cfg         gitadapter.Config
	client      *gitadapter.Client
	projectPath string
	concurrency int
	metadata    *gitadapter.MetadataCache

	// branch overrides the configured branch once SetBranch is called
	branch atomic.Value

	// pending holds the actions of trees created and not yet committed, by tree marker
	pending *xsync.MapOf[string, []action]
}

// BaseURL returns the API URL of host: gitlab.com when empty, the v4 API path of host
// otherwise.
func BaseURL(host string) string {
	if host == "" {
		return DefaultBaseURL
	}
	host = strings.TrimSuffix(host, "/")
	if !strings.Contains(host, "://") {
		host = "https://" + host
	}
	if strings.HasSuffix(host, apiPath) {
		return host
	}
	return host + apiPath
}

// ProjectID returns the project id of cfg: the configured id, else owner/repo.
func ProjectID(cfg gitadapter.Config) string {
	if cfg.ProjectID != "" {
		return cfg.ProjectID
	}
	if cfg.Owner == "" || cfg.Repo == "" {
		return ""
	}
	return cfg.Owner + "/" + cfg.Repo
}

func New(_ context.Context, cfg gitadapter.Config, params gitadapter.Params) (*Adapter, error) {
	id := ProjectID(cfg)
	if id == "" {
		return nil, fmt.Errorf("%w: gitlab requires a project id or owner and repo", gitadapter.ErrInvalidConfig)
	}
	params = params.WithDefaults()
	header := http.Header{}
	header.Set("Accept", "application/json")
	if cfg.HasToken() {
		header.Set("PRIVATE-TOKEN", strings.TrimSpace(cfg.Token))
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
		projectPath: "/projects/" + url.PathEscape(id),
		concurrency: params.Concurrency,
		pending:     xsync.NewMapOf[[]action](),
	}
	a.metadata = gitadapter.NewMetadataCache(a.fetchRepositoryMetadata)
	return a, nil
}

func (a *Adapter) Type() string {
	return AdapterType
}

// SetBranch moves commits and default listings to branch name.
func (a *Adapter) SetBranch(name string) {
	a.branch.Store(name)
}

func (a *Adapter) activeBranch() string {
	if name, ok := a.branch.Load().(string); ok && name != "" {
		return name
	}
	return a.cfg.BranchOrDefault()
}

func (a *Adapter) log(ctx context.Context) logging.Logger {
	return logging.FromContext(ctx).WithFields(logging.Fields{
		logging.ProviderFieldKey: AdapterType,
		"project":                ProjectID(a.cfg),
	})
}

func (a *Adapter) do(ctx context.Context, method, path string, query url.Values, body, out interface{}) (*gitadapter.Response, error) {
	return a.client.Do(ctx, gitadapter.Request{
		Method: method,
		Path:   a.projectPath + path,
		Query:  query,
		Body:   body,
	}, out)
}

func newTreeMarker() string {
	return treeMarker + nanoid.Must()
}
