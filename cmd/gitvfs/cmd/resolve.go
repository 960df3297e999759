package cmd

import (
	"github.com/spf13/cobra"
	"github.com/treeverse/gitvfs/pkg/vfs"
)

var resolveCmd = &cobra.Command{
	Use:     "resolve <path>...",
	Short:   "Resolve pull conflicts by keeping the local or the remote content",
	Example: "gitvfs resolve docs/a.md --take remote",
	Args:    cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		resolution := vfs.Resolution(Must(cmd.Flags().GetString("take")))
		switch resolution {
		case vfs.KeepLocal, vfs.TakeRemote:
		default:
			DieFmt("--take must be %s or %s", vfs.KeepLocal, vfs.TakeRemote)
		}
		ctx := cmd.Context()
		fsys := getVFS(ctx)
		defer func() { _ = fsys.Close() }()
		for _, p := range args {
			if err := fsys.ResolveConflict(ctx, p, resolution); err != nil {
				DieErr(err)
			}
			Fmt("%s: kept %s content\n", p, resolution)
		}
	},
}

//nolint:gochecknoinits
func init() {
	resolveCmd.Flags().String("take", "", "local or remote")
	_ = resolveCmd.MarkFlagRequired("take")
	rootCmd.AddCommand(resolveCmd)
}
