package cmd

import (
	"github.com/spf13/cobra"
	"github.com/treeverse/gitvfs/pkg/osinfo"
	"github.com/treeverse/gitvfs/pkg/version"
)

const versionTemplate = `gitvfs version: {{ .Version | blue }}
OS: {{ .OS.OS }} {{ .OS.Version }} ({{ .OS.Platform }})
User-Agent: {{ .UserAgent }}
`

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the gitvfs version and host information",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		Write(versionTemplate, struct {
			Version   string
			OS        osinfo.OSInfo
			UserAgent string
		}{
			Version:   version.Version,
			OS:        osinfo.GetOSInfo(),
			UserAgent: version.UserAgent(),
		})
	},
}

//nolint:gochecknoinits
func init() {
	rootCmd.AddCommand(versionCmd)
}
