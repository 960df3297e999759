package cmd

import (
	"fmt"

	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"
	"github.com/treeverse/gitvfs/pkg/gitadapter"
)

func changeLabel(t gitadapter.ChangeType) string {
	switch t {
	case gitadapter.ChangeCreate:
		return text.FgHiGreen.Sprint("added")
	case gitadapter.ChangeDelete:
		return text.FgHiRed.Sprint("removed")
	default:
		return text.FgHiYellow.Sprint("changed")
	}
}

func printChange(c gitadapter.Change, withContent bool) {
	switch c.Type {
	case gitadapter.ChangeCreate:
		fmt.Println(text.FgHiGreen.Sprintf("+ added %s", c.Path))
	case gitadapter.ChangeDelete:
		fmt.Println(text.FgHiRed.Sprintf("- removed %s", c.Path))
	default:
		fmt.Println(text.FgHiYellow.Sprintf("~ modified %s", c.Path))
	}
	if withContent && c.Type != gitadapter.ChangeDelete {
		fmt.Println(c.Content)
	}
}

var diffCmd = &cobra.Command{
	Use:   "diff",
	Short: "Show the changes a push would commit",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		match := matcher(cmd)
		withContent := Must(cmd.Flags().GetBool("content"))
		ctx := cmd.Context()
		fsys := getVFS(ctx)
		defer func() { _ = fsys.Close() }()
		changes := filterChanges(Must(fsys.GetChangeSet(ctx)), match)
		for _, c := range changes {
			printChange(c, withContent)
		}
	},
}

//nolint:gochecknoinits
func init() {
	diffCmd.Flags().String("match", "", "only show paths matching a glob pattern")
	diffCmd.Flags().Bool("content", false, "print the new content of added and modified files")
	rootCmd.AddCommand(diffCmd)
}
