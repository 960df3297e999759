package cmd

import (
	"context"
	"errors"

	"github.com/spf13/cobra"
	"github.com/treeverse/gitvfs/pkg/vfs"
)

const pullTemplate = `Pulled {{ .Ref | bold }} at {{ .Head | short | yellow }}
Updated:    {{ len .Updated }}
Unchanged:  {{ .Unchanged }}
Removed:    {{ len .Removed }}{{ if .Orphaned }}
Kept as local additions:{{ range .Orphaned }}
    {{ . }}{{ end }}{{ end }}{{ if .Truncated }}
{{ "The remote listing was truncated, some files are missing" | yellow }}{{ end }}
`

const conflictsTemplate = `{{ "Conflicts" | red }} (resolve with 'gitvfs resolve <path> --take local|remote'):{{ range . }}
    {{ . | red }}{{ end }}
`

func pull(ctx context.Context, fsys *vfs.VFS, ref string) {
	res, err := fsys.Pull(ctx, ref)
	if res != nil {
		Write(pullTemplate, res)
	}
	var conflictErr *vfs.ConflictError
	if errors.As(err, &conflictErr) {
		WriteTo(conflictsTemplate, conflictErr.Paths, cmdErr)
		Die("pull completed with conflicts", 1)
	}
	if err != nil {
		DieErr(err)
	}
}

var pullCmd = &cobra.Command{
	Use:   "pull [ref]",
	Short: "Synchronize with the remote branch, or a tag or commit",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ref := ""
		if len(args) > 0 {
			ref = args[0]
		}
		ctx := cmd.Context()
		fsys := getVFS(ctx)
		defer func() { _ = fsys.Close() }()
		pull(ctx, fsys, ref)
	},
}

//nolint:gochecknoinits
func init() {
	rootCmd.AddCommand(pullCmd)
}
