package cmd

import (
	"github.com/spf13/cobra"
	"github.com/treeverse/gitvfs/pkg/config"
	"github.com/treeverse/gitvfs/pkg/setup"
	"github.com/treeverse/gitvfs/pkg/vfs"
)

const initTemplate = `Root:        {{ .Root | bold }}
Repository:  {{ .Metadata.FullName | bold }}{{ if .Metadata.Private }} (private){{ end }}
Branch:      {{ .Branch | yellow }}{{ if .Metadata.WebURL }}
URL:         {{ .Metadata.WebURL }}{{ end }}
`

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Connect the storage root to a remote repository",
	Example: `gitvfs init --type github --owner octo --repo notes --branch main
gitvfs init --type gitlab --project-id group/notes --host gitlab.example.com`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		flags := cmd.Flags()
		for flag, target := range map[string]*string{
			"type":   &cfg.Adapter.Type,
			"owner":  &cfg.Adapter.Owner,
			"repo":   &cfg.Adapter.Repo,
			"host":   &cfg.Adapter.Host,
			"branch": &cfg.Adapter.Branch,
		} {
			if flags.Changed(flag) {
				*target = Must(flags.GetString(flag))
			}
		}
		if flags.Changed("project-id") {
			cfg.Adapter.ProjectID = config.OnlyString(Must(flags.GetString("project-id")))
		}
		if cfg.Adapter.Type == "" {
			Die("missing adapter type, set --type or adapter.type", 1)
		}
		if err := cfg.Validate(); err != nil {
			DieErr(err)
		}

		ctx := cmd.Context()
		fsys := getVFS(ctx, vfs.WithAdapterConfig(setup.AdapterConfig(cfg)))
		defer func() { _ = fsys.Close() }()
		adapter := Must(fsys.Adapter(ctx))
		metadata := Must(adapter.GetRepositoryMetadata(ctx))
		Write(initTemplate, struct {
			Root     string
			Branch   string
			Metadata interface{}
		}{Root: fsys.Root(), Branch: fsys.Branch(), Metadata: metadata})

		if Must(flags.GetBool("pull")) {
			pull(ctx, fsys, "")
		}
	},
}

//nolint:gochecknoinits
func init() {
	initCmd.Flags().String("type", "", "adapter type: github or gitlab")
	initCmd.Flags().String("owner", "", "repository owner (github)")
	initCmd.Flags().String("repo", "", "repository name (github)")
	initCmd.Flags().String("project-id", "", "project id or path (gitlab)")
	initCmd.Flags().String("host", "", "provider host, for self hosted installations")
	initCmd.Flags().String("branch", "", "branch to track")
	initCmd.Flags().Bool("pull", false, "pull the branch once connected")
	rootCmd.AddCommand(initCmd)
}
