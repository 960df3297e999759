package gitadapter

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/treeverse/gitvfs/pkg/batch"
	"github.com/treeverse/gitvfs/pkg/cache"
)

const (
	DefaultBranch       = "main"
	DefaultAttempts     = 4
	DefaultBaseDelay    = 300 * time.Millisecond
	DefaultJitter       = 100 * time.Millisecond
	DefaultCacheSize    = 4096
	DefaultPerPage      = 100
	DefaultCommitsLimit = 30
)

// Config identifies the remote repository.  Token is a credential and is never persisted.
type Config struct {
	Type      string
	Owner     string
	Repo      string
	ProjectID string
	Token     string
	Host      string
	Branch    string
}

// Opts returns the persisted form of c, without the token.
func (c Config) Opts() map[string]interface{} {
	opts := make(map[string]interface{})
	for k, v := range map[string]string{
		"owner":     c.Owner,
		"repo":      c.Repo,
		"projectId": c.ProjectID,
		"host":      c.Host,
		"branch":    c.Branch,
	} {
		if v != "" {
			opts[k] = v
		}
	}
	return opts
}

// ConfigFromOpts is the inverse of Config.Opts.
func ConfigFromOpts(typ string, opts map[string]interface{}) Config {
	get := func(key string) string {
		v, _ := opts[key].(string)
		return v
	}
	return Config{
		Type:      typ,
		Owner:     get("owner"),
		Repo:      get("repo"),
		ProjectID: get("projectId"),
		Host:      get("host"),
		Branch:    get("branch"),
	}
}

// BranchOrDefault returns the configured branch, DefaultBranch when unset.
func (c Config) BranchOrDefault() string {
	if c.Branch == "" {
		return DefaultBranch
	}
	return c.Branch
}

// HasToken reports whether an auth header should be sent.
func (c Config) HasToken() bool {
	return strings.TrimSpace(c.Token) != ""
}

type RetryParams struct {
	// Attempts is the total number of tries of a request, at least 1.
	Attempts  int
	BaseDelay time.Duration
	// MaxDelay caps a single wait.  Zero does not cap.
	MaxDelay time.Duration
	// Jitter is added to every computed delay.  Retry-After delays get no jitter.
	Jitter cache.JitterFn
}

// Params are the runtime knobs of an adapter.
type Params struct {
	Retry       RetryParams
	Concurrency int
	// RateLimit is the maximal requests per second.  Zero does not limit.
	RateLimit int
	// Timeout bounds a single HTTP attempt.  Zero does not bound.
	Timeout   time.Duration
	CacheSize int
	// UserAgent is sent with every request when set.
	UserAgent string
	// Transport replaces the default HTTP transport, used for tests.
	Transport http.RoundTripper
}

func DefaultParams() Params {
	return Params{
		Retry: RetryParams{
			Attempts:  DefaultAttempts,
			BaseDelay: DefaultBaseDelay,
			Jitter:    cache.NewJitterFn(DefaultJitter),
		},
		Concurrency: batch.DefaultConcurrency,
		CacheSize:   DefaultCacheSize,
	}
}

// WithDefaults returns p with zero values filled from DefaultParams.
func (p Params) WithDefaults() Params {
	d := DefaultParams()
	if p.Retry.Attempts <= 0 {
		p.Retry.Attempts = d.Retry.Attempts
	}
	if p.Retry.Jitter == nil {
		p.Retry.Jitter = func() time.Duration { return 0 }
	}
	if p.Concurrency <= 0 {
		p.Concurrency = d.Concurrency
	}
	if p.CacheSize <= 0 {
		p.CacheSize = d.CacheSize
	}
	return p
}

// Factory builds an adapter of one provider type.
type Factory func(ctx context.Context, cfg Config, params Params) (Adapter, error)

var (
	factories   = make(map[string]Factory)
	factoriesMu sync.RWMutex
)

// Register makes factory available under typ.  Panic in case of empty name, nil factory or name
// already registered.
func Register(typ string, factory Factory) {
	if typ == "" {
		panic("gitadapter register type is missing")
	}
	if factory == nil {
		panic("gitadapter register factory is nil")
	}
	factoriesMu.Lock()
	defer factoriesMu.Unlock()
	if _, found := factories[typ]; found {
		panic("gitadapter register type already registered " + typ)
	}
	factories[typ] = factory
}

// Types returns the registered adapter types, sorted.
func Types() []string {
	factoriesMu.RLock()
	defer factoriesMu.RUnlock()
	types := make([]string, 0, len(factories))
	for typ := range factories {
		types = append(types, typ)
	}
	sort.Strings(types)
	return types
}

// New returns an adapter for cfg using the factory registered under cfg.Type.
func New(ctx context.Context, cfg Config, params Params) (Adapter, error) {
	factoriesMu.RLock()
	factory, ok := factories[cfg.Type]
	factoriesMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: '%s'", ErrUnknownType, cfg.Type)
	}
	return factory(ctx, cfg, params.WithDefaults())
}
