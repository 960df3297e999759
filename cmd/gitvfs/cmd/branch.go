package cmd

import (
	"strings"

	"github.com/spf13/cobra"
	"github.com/treeverse/gitvfs/pkg/gitadapter"
)

var branchCmd = &cobra.Command{
	Use:   "branch",
	Short: "List, create and switch remote branches",
}

var branchListCmd = &cobra.Command{
	Use:   "list",
	Short: "List remote branches",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		amount := Must(cmd.Flags().GetInt("amount"))
		page := Must(cmd.Flags().GetInt("page"))
		ctx := cmd.Context()
		fsys := getVFS(ctx)
		defer func() { _ = fsys.Close() }()
		branches := Must(fsys.ListBranches(ctx, gitadapter.BranchQuery{Page: page, PerPage: amount}))
		current := fsys.Branch()
		rows := make([][]interface{}, 0, len(branches))
		for _, b := range branches {
			marker := ""
			if b.Name == current {
				marker = "*"
			}
			var flags []string
			if b.IsDefault {
				flags = append(flags, "default")
			}
			if b.Protected {
				flags = append(flags, "protected")
			}
			rows = append(rows, []interface{}{marker, b.Name, shortSha(b.Sha), strings.Join(flags, ", ")})
		}
		PrintTable(rows, []interface{}{"", "Branch", "Commit", ""})
	},
}

var branchCreateCmd = &cobra.Command{
	Use:     "create <branch>",
	Short:   "Create a remote branch",
	Example: "gitvfs branch create feature -s main",
	Args:    cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		source := Must(cmd.Flags().GetString("source"))
		ctx := cmd.Context()
		fsys := getVFS(ctx)
		defer func() { _ = fsys.Close() }()
		branch := Must(fsys.CreateBranch(ctx, args[0], source))
		Fmt("created branch '%s' at %s\n", branch.Name, shortSha(branch.Sha))
		if Must(cmd.Flags().GetBool("switch")) {
			if err := fsys.SwitchBranch(ctx, branch.Name); err != nil {
				DieErr(err)
			}
			Fmt("switched to '%s'\n", branch.Name)
		}
	},
}

var branchSwitchCmd = &cobra.Command{
	Use:   "switch <branch>",
	Short: "Track another branch.  Run pull afterwards to read it",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		fsys := getVFS(ctx)
		defer func() { _ = fsys.Close() }()
		status := Must(fsys.Status(ctx))
		if !status.Clean() && !Must(cmd.Flags().GetBool("force")) {
			DieFmt("there are %d uncommitted changes and %d conflicts on '%s'. Push them first or use --force",
				len(status.Changes), len(status.Conflicts), status.Branch)
		}
		if err := fsys.SwitchBranch(ctx, args[0]); err != nil {
			DieErr(err)
		}
		if Must(cmd.Flags().GetBool("pull")) {
			pull(ctx, fsys, "")
			return
		}
		Fmt("switched to '%s'\n", args[0])
	},
}

//nolint:gochecknoinits
func init() {
	branchListCmd.Flags().Int("amount", gitadapter.DefaultPerPage, "number of results per page")
	branchListCmd.Flags().Int("page", 1, "page to list")
	branchCreateCmd.Flags().StringP("source", "s", "", "source branch, tag or commit (default is the current head)")
	branchCreateCmd.Flags().Bool("switch", false, "switch to the new branch")
	branchSwitchCmd.Flags().Bool("force", false, "switch even when there are local changes")
	branchSwitchCmd.Flags().Bool("pull", true, "pull the branch after switching")

	branchCmd.AddCommand(branchListCmd, branchCreateCmd, branchSwitchCmd)
	rootCmd.AddCommand(branchCmd)
}
