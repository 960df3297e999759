package config_test

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/treeverse/gitvfs/pkg/config"
)

func newConfigFromYAML(t *testing.T, yaml string) (*config.Config, error) {
	t.Helper()
	v := config.NewViper()
	v.SetConfigType("yaml")
	require.NoError(t, v.ReadConfig(strings.NewReader(yaml)))
	return config.Load(v)
}

func TestConfig_Defaults(t *testing.T) {
	c, err := newConfigFromYAML(t, "")
	require.NoError(t, err)
	require.Equal(t, config.StorageTypeFS, c.Storage.Type)
	require.Equal(t, config.DefaultStorageRoot, c.Storage.Root)
	require.Equal(t, config.DefaultRetryAttempts, c.Remote.Retry.Attempts)
	require.Equal(t, config.DefaultRetryBaseDelay, c.Remote.Retry.BaseDelay)
	require.Equal(t, config.DefaultAdapterBranch, c.Adapter.Branch)
	require.Equal(t, config.Strings{"="}, c.Logging.Output)
	require.NotContains(t, c.Storage.FS.Path, "~")
}

func TestConfig_GitHub(t *testing.T) {
	c, err := newConfigFromYAML(t, `
storage:
  type: kv
  root: docs
  kv:
    type: mem
adapter:
  type: github
  owner: octo
  repo: notes
  token: ghp_secret
remote:
  retry:
    attempts: 2
    base_delay: 10ms
  concurrency: 3
`)
	require.NoError(t, err)
	require.Equal(t, "kv", c.Storage.Type)
	require.Equal(t, "mem", c.Storage.KV.Type)
	require.Equal(t, "octo", c.Adapter.Owner)
	require.Equal(t, "ghp_secret", c.Adapter.Token.SecureValue())
	require.Equal(t, "[SECRET]", c.Adapter.Token.String())
	require.Equal(t, 2, c.Remote.Retry.Attempts)
	require.Equal(t, 10*time.Millisecond, c.Remote.Retry.BaseDelay)
	require.Equal(t, 3, c.Remote.Concurrency)
}

func TestConfig_Env(t *testing.T) {
	t.Setenv("GITVFS_ADAPTER_TYPE", "gitlab")
	t.Setenv("GITVFS_ADAPTER_PROJECT_ID", "0042")
	t.Setenv("GITVFS_LOGGING_OUTPUT", "=,-")
	c, err := newConfigFromYAML(t, "")
	require.NoError(t, err)
	require.Equal(t, config.AdapterTypeGitLab, c.Adapter.Type)
	require.Equal(t, config.OnlyString("0042"), c.Adapter.ProjectID)
	require.Equal(t, config.Strings{"=", "-"}, c.Logging.Output)
}

func TestConfig_Validate(t *testing.T) {
	cases := []struct {
		name        string
		yaml        string
		expectedErr error
	}{
		{
			name:        "unknown storage",
			yaml:        "storage: {type: s3}",
			expectedErr: config.ErrUnknownStorageType,
		},
		{
			name:        "unknown adapter",
			yaml:        "adapter: {type: bitbucket}",
			expectedErr: config.ErrUnknownAdapterType,
		},
		{
			name:        "github without repo",
			yaml:        "adapter: {type: github, owner: octo}",
			expectedErr: config.ErrMissingRequiredKeys,
		},
		{
			name:        "gitlab without project",
			yaml:        "adapter: {type: gitlab}",
			expectedErr: config.ErrMissingRequiredKeys,
		},
		{
			name:        "no retry attempts",
			yaml:        "remote: {retry: {attempts: 0}}",
			expectedErr: config.ErrInvalidRetry,
		},
	}
	for _, tt := range cases {
		t.Run(tt.name, func(t *testing.T) {
			_, err := newConfigFromYAML(t, tt.yaml)
			require.ErrorIs(t, err, tt.expectedErr)
			require.ErrorIs(t, err, config.ErrBadConfiguration)
		})
	}
}

func TestConfig_NumericProjectID(t *testing.T) {
	_, err := newConfigFromYAML(t, "adapter: {type: gitlab, project_id: 42}")
	require.Error(t, err)
	require.True(t, errors.Is(err, config.ErrMustBeString) || strings.Contains(err.Error(), config.ErrMustBeString.Error()))
}
