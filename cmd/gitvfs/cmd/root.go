package cmd

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/mitchellh/go-homedir"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/treeverse/gitvfs/pkg/config"
	"github.com/treeverse/gitvfs/pkg/logging"
	"github.com/treeverse/gitvfs/pkg/setup"
	"github.com/treeverse/gitvfs/pkg/version"
	"github.com/treeverse/gitvfs/pkg/vfs"
)

const configFileName = ".gitvfs"

var (
	cfgFile string
	cfg     *config.Config
	v       = config.NewViper()

	storageCloser func()
)

// rootCmd represents the base command when called without any sub-commands
var rootCmd = &cobra.Command{
	Use:   "gitvfs",
	Short: "A virtual filesystem synchronized with a GitHub or GitLab repository",
	Long: `gitvfs keeps a local copy of a remote git repository branch in a storage root, reading
file content lazily and pushing local changes back as a single commit.`,
	Version:       version.Version,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		if noColorRequested {
			DisableColors()
		}
		if err := loadConfig(); err != nil {
			DieFmt("error reading configuration: %s", err)
		}
		closer, err := setup.RegisterStorage(cmd.Context(), cfg)
		if err != nil {
			DieErr(err)
		}
		storageCloser = closer
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if storageCloser != nil {
			storageCloser()
		}
		_ = logging.CloseWriters()
	},
}

func loadConfig() error {
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		home, err := homedir.Dir()
		if err != nil {
			return err
		}
		v.AddConfigPath(home)
		v.AddConfigPath(".")
		v.SetConfigType("yaml")
		v.SetConfigName(configFileName)
	}
	err := v.ReadInConfig()
	if errors.As(err, &viper.ConfigFileNotFoundError{}) {
		if cfgFile != "" {
			return err
		}
		// no configuration file, run on defaults and environment
	} else if err != nil {
		return err
	}

	cfg, err = config.Load(v)
	if err != nil {
		return err
	}
	logging.ContextUnavailable().
		WithField("file", v.ConfigFileUsed()).
		Debug("loaded configuration")
	return nil
}

// getVFS opens the configured root, dying on failure.
func getVFS(ctx context.Context, opts ...vfs.Option) *vfs.VFS {
	fsys, err := setup.OpenVFS(ctx, cfg, opts...)
	if err != nil {
		DieErr(err)
	}
	return fsys
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		DieErr(err)
	}
}

// GitExecute runs the command tree as a git sub-command named name.
func GitExecute(name string) {
	rootCmd.Use = "git " + name
	Execute()
}

//nolint:gochecknoinits
func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&cfgFile, "config", "c", "", "config file (default is $HOME/.gitvfs.yaml)")
	flags.BoolVar(&noColorRequested, "no-color", false, "don't use fancy output colors (default when not attached to an interactive terminal)")
	flags.StringP("root", "r", "", "storage root holding the repository")
	flags.String("storage-type", "", "storage type, kv or fs")
	flags.String("log-level", "", "set logging level")
	flags.String("log-format", "", "set logging output format")
	flags.StringSlice("log-output", nil, "set logging output(s)")

	for key, flag := range map[string]string{
		config.StorageRootKey:   "root",
		config.StorageTypeKey:   "storage-type",
		config.LoggingLevelKey:  "log-level",
		config.LoggingFormatKey: "log-format",
		config.LoggingOutputKey: "log-output",
	} {
		_ = v.BindPFlag(key, flags.Lookup(flag))
	}
}
