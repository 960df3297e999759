package config

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/mitchellh/go-homedir"
	"github.com/spf13/viper"
)

var (
	ErrBadConfiguration    = errors.New("bad configuration")
	ErrMissingRequiredKeys = fmt.Errorf("%w: missing required keys", ErrBadConfiguration)
	ErrUnknownStorageType  = fmt.Errorf("%w: unknown storage type", ErrBadConfiguration)
	ErrUnknownAdapterType  = fmt.Errorf("%w: unknown adapter type", ErrBadConfiguration)
	ErrInvalidRetry        = fmt.Errorf("%w: retry attempts must be positive", ErrBadConfiguration)
)

// EnvPrefix is the prefix of environment variables overriding configuration keys, ex:
// GITVFS_ADAPTER_TOKEN sets adapter.token.
const EnvPrefix = "GITVFS"

// Storage types
const (
	StorageTypeKV = "kv"
	StorageTypeFS = "fs"
)

// Adapter types
const (
	AdapterTypeGitHub = "github"
	AdapterTypeGitLab = "gitlab"
)

// Config is the full gitvfs configuration as read from file, environment and flags.
type Config struct {
	Logging struct {
		Format        string  `mapstructure:"format"`
		Level         string  `mapstructure:"level"`
		Output        Strings `mapstructure:"output"`
		FileMaxSizeMB int     `mapstructure:"file_max_size_mb"`
		FilesKeep     int     `mapstructure:"files_keep"`
	} `mapstructure:"logging"`

	Storage struct {
		Type string `mapstructure:"type"`
		// Root names the storage root holding the repository.  Several roots share the same
		// database or directory.
		Root string `mapstructure:"root"`
		KV   struct {
			Type  string `mapstructure:"type"`
			Local *struct {
				Path          string `mapstructure:"path"`
				SyncWrites    bool   `mapstructure:"sync_writes"`
				PrefetchSize  int    `mapstructure:"prefetch_size"`
				EnableLogging bool   `mapstructure:"enable_logging"`
			} `mapstructure:"local"`
			Postgres *struct {
				ConnectionString      SecureString  `mapstructure:"connection_string"`
				MaxOpenConnections    int32         `mapstructure:"max_open_connections"`
				MaxIdleConnections    int32         `mapstructure:"max_idle_connections"`
				ConnectionMaxLifetime time.Duration `mapstructure:"connection_max_lifetime"`
				ScanPageSize          int           `mapstructure:"scan_page_size"`
			} `mapstructure:"postgres"`
			DynamoDB *struct {
				TableName          string       `mapstructure:"table_name"`
				ScanLimit          int64        `mapstructure:"scan_limit"`
				Endpoint           string       `mapstructure:"endpoint"`
				AwsRegion          string       `mapstructure:"aws_region"`
				AwsProfile         string       `mapstructure:"aws_profile"`
				AwsAccessKeyID     SecureString `mapstructure:"aws_access_key_id"`
				AwsSecretAccessKey SecureString `mapstructure:"aws_secret_access_key"`
				MaxAttempts        int          `mapstructure:"max_attempts"`
			} `mapstructure:"dynamodb"`
			Metrics bool `mapstructure:"metrics"`
		} `mapstructure:"kv"`
		FS struct {
			Path     string `mapstructure:"path"`
			InMemory bool   `mapstructure:"in_memory"`
		} `mapstructure:"fs"`
	} `mapstructure:"storage"`

	Adapter struct {
		Type      string       `mapstructure:"type"`
		Owner     string       `mapstructure:"owner"`
		Repo      string       `mapstructure:"repo"`
		ProjectID OnlyString   `mapstructure:"project_id"`
		Token     SecureString `mapstructure:"token"`
		Host      string       `mapstructure:"host"`
		Branch    string       `mapstructure:"branch"`
	} `mapstructure:"adapter"`

	Remote struct {
		Retry struct {
			Attempts  int           `mapstructure:"attempts"`
			BaseDelay time.Duration `mapstructure:"base_delay"`
			MaxDelay  time.Duration `mapstructure:"max_delay"`
		} `mapstructure:"retry"`
		Concurrency int           `mapstructure:"concurrency"`
		RateLimit   int           `mapstructure:"rate_limit"`
		Timeout     time.Duration `mapstructure:"timeout"`
		CacheSize   int           `mapstructure:"cache_size"`
	} `mapstructure:"remote"`
}

// NewViper returns a viper instance with gitvfs defaults, reading overrides from the
// environment.  Callers add a config file or bind flags before calling Load.
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Inform viper of all expected fields.  Otherwise, it fails to deserialize from the
	// environment.
	for _, key := range GetStructKeys(reflect.TypeOf(Config{}), "mapstructure", "squash") {
		v.SetDefault(key, nil)
	}
	setDefaults(v)
	return v
}

// Load decodes and validates the configuration held by v, and sets up logging accordingly.
func Load(v *viper.Viper) (*Config, error) {
	c := &Config{}
	err := v.UnmarshalExact(c, viper.DecodeHook(
		mapstructure.ComposeDecodeHookFunc(
			DecodeStrings, DecodeOnlyString, mapstructure.StringToTimeDurationHookFunc())))
	if err != nil {
		return nil, err
	}
	if err := c.expandPaths(); err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	if err := c.setupLogger(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Config) expandPaths() error {
	var err error
	if c.Storage.FS.Path != "" {
		if c.Storage.FS.Path, err = homedir.Expand(c.Storage.FS.Path); err != nil {
			return fmt.Errorf("storage.fs.path '%s': %w", c.Storage.FS.Path, err)
		}
	}
	if c.Storage.KV.Local != nil && c.Storage.KV.Local.Path != "" {
		if c.Storage.KV.Local.Path, err = homedir.Expand(c.Storage.KV.Local.Path); err != nil {
			return fmt.Errorf("storage.kv.local.path '%s': %w", c.Storage.KV.Local.Path, err)
		}
	}
	return nil
}

// Validate checks values that cannot be defaulted.  Adapter settings are only checked when an
// adapter type is set: local only commands run without one.
func (c *Config) Validate() error {
	switch c.Storage.Type {
	case StorageTypeKV, StorageTypeFS:
	default:
		return fmt.Errorf("%w: %s", ErrUnknownStorageType, c.Storage.Type)
	}
	var missing []string
	if c.Storage.Root == "" {
		missing = append(missing, "storage.root")
	}
	switch c.Adapter.Type {
	case "":
	case AdapterTypeGitHub:
		if c.Adapter.Owner == "" {
			missing = append(missing, "adapter.owner")
		}
		if c.Adapter.Repo == "" {
			missing = append(missing, "adapter.repo")
		}
	case AdapterTypeGitLab:
		if c.Adapter.ProjectID == "" {
			missing = append(missing, "adapter.project_id")
		}
	default:
		return fmt.Errorf("%w: %s", ErrUnknownAdapterType, c.Adapter.Type)
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", ErrMissingRequiredKeys, strings.Join(missing, ", "))
	}
	if c.Remote.Retry.Attempts < 1 {
		return fmt.Errorf("%w: %d", ErrInvalidRetry, c.Remote.Retry.Attempts)
	}
	return nil
}
