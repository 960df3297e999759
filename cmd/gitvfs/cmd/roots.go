package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/treeverse/gitvfs/pkg/storage"
)

var rootsCmd = &cobra.Command{
	Use:   "roots",
	Short: "Manage the storage roots",
}

var rootsListCmd = &cobra.Command{
	Use:   "list [namespace]",
	Short: "List storage roots, optionally those starting with namespace",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		namespace := ""
		if len(args) > 0 {
			namespace = args[0]
		}
		ctx := cmd.Context()
		if !storage.CanUse(ctx, cfg.Storage.Type) {
			DieFmt("storage '%s' is not usable", cfg.Storage.Type)
		}
		roots := Must(storage.AvailableRoots(ctx, cfg.Storage.Type, namespace))
		rows := make([][]interface{}, 0, len(roots))
		for _, root := range roots {
			marker := ""
			if root == cfg.Storage.Root {
				marker = "*"
			}
			rows = append(rows, []interface{}{marker, root})
		}
		PrintTable(rows, []interface{}{"", "Root"})
	},
}

var rootsDeleteCmd = &cobra.Command{
	Use:   "delete <root>",
	Short: "Delete a storage root and all of its data",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		yes := Must(cmd.Flags().GetBool("yes"))
		mustConfirm(fmt.Sprintf("Delete root '%s' and all local changes in it", args[0]), yes)
		if err := storage.DeleteRoot(cmd.Context(), cfg.Storage.Type, args[0]); err != nil {
			DieErr(err)
		}
		Fmt("Root '%s' deleted\n", args[0])
	},
}

//nolint:gochecknoinits
func init() {
	rootsDeleteCmd.Flags().BoolP("yes", "y", false, "delete without confirmation")
	rootsCmd.AddCommand(rootsListCmd, rootsDeleteCmd)
	rootCmd.AddCommand(rootsCmd)
}
