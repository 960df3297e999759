package cmd

import (
	"github.com/gobwas/glob"
	"github.com/spf13/cobra"
	"github.com/treeverse/gitvfs/pkg/gitadapter"
)

const statusTemplate = `Root:    {{ .Root | bold }}
Branch:  {{ .Branch | yellow }}
Head:    {{ if .Head }}{{ .Head | short }}{{ else }}{{ "not pulled" | red }}{{ end }}
`

// matcher returns a path filter from the --match flag, matching everything when unset.
func matcher(cmd *cobra.Command) func(string) bool {
	pattern := Must(cmd.Flags().GetString("match"))
	if pattern == "" {
		return func(string) bool { return true }
	}
	g, err := glob.Compile(pattern, '/')
	if err != nil {
		DieFmt("invalid pattern '%s': %s", pattern, err)
	}
	return g.Match
}

func filterChanges(changes []gitadapter.Change, match func(string) bool) []gitadapter.Change {
	var out []gitadapter.Change
	for _, c := range changes {
		if match(c.Path) {
			out = append(out, c)
		}
	}
	return out
}

func changeRows(changes []gitadapter.Change) [][]interface{} {
	rows := make([][]interface{}, 0, len(changes))
	for _, c := range changes {
		rows = append(rows, []interface{}{changeLabel(c.Type), c.Path, shortSha(c.BaseSha)})
	}
	return rows
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show local changes and conflicts",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		match := matcher(cmd)
		ctx := cmd.Context()
		fsys := getVFS(ctx)
		defer func() { _ = fsys.Close() }()
		status := Must(fsys.Status(ctx))
		Write(statusTemplate, status)

		changes := filterChanges(status.Changes, match)
		if len(changes) == 0 && len(status.Conflicts) == 0 {
			Fmt("\nNo changes\n")
			return
		}
		if len(changes) > 0 {
			Fmt("\n")
			PrintTable(changeRows(changes), []interface{}{"Change", "Path", "Base"})
		}
		if len(status.Conflicts) > 0 {
			Fmt("\n")
			WriteTo(conflictsTemplate, status.Conflicts, cmdErr)
		}
	},
}

//nolint:gochecknoinits
func init() {
	statusCmd.Flags().String("match", "", "only show paths matching a glob pattern, ex: 'docs/**.md'")
	rootCmd.AddCommand(statusCmd)
}
