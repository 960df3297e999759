package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/treeverse/gitvfs/pkg/gitadapter"
	"github.com/treeverse/gitvfs/pkg/vfs"
)

const pushTemplate = `Pushed {{ len .Changes }} changes
Commit:  {{ .CommitSha | yellow }}
`

var pushCmd = &cobra.Command{
	Use:   "push",
	Short: "Commit local changes to the remote branch",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		message := Must(cmd.Flags().GetString("message"))
		yes := Must(cmd.Flags().GetBool("yes"))
		ctx := cmd.Context()
		fsys := getVFS(ctx)
		defer func() { _ = fsys.Close() }()

		status := Must(fsys.Status(ctx))
		if len(status.Conflicts) > 0 {
			WriteTo(conflictsTemplate, status.Conflicts, cmdErr)
			Die("resolve conflicts before pushing", 1)
		}
		if len(status.Changes) == 0 {
			Fmt("No changes\n")
			return
		}
		PrintTable(changeRows(status.Changes), []interface{}{"Change", "Path", "Base"})
		mustConfirm(fmt.Sprintf("Push %d changes to %s", len(status.Changes), status.Branch), yes)

		res, err := fsys.Push(ctx, vfs.PushInput{ParentSha: status.Head, Message: message, Changes: status.Changes})
		switch {
		case errors.Is(err, gitadapter.ErrNonFastForward):
			DieFmt("%s\nthe remote branch moved, run 'gitvfs pull' and push again", err)
		case err != nil:
			DieErr(err)
		}
		Write(pushTemplate, res)
	},
}

//nolint:gochecknoinits
func init() {
	pushCmd.Flags().StringP("message", "m", "", "commit message")
	pushCmd.Flags().BoolP("yes", "y", false, "push without confirmation")
	rootCmd.AddCommand(pushCmd)
}
