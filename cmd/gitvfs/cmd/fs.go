package cmd

import (
	"errors"
	"io"
	"os"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/treeverse/gitvfs/pkg/vfs"
)

const statTemplate = `Path:         {{ .FullPath | yellow }}
Type:         {{ if .IsDir }}directory{{ else }}file{{ end }}{{ if .State }}
State:        {{ .State }}{{ end }}{{ if not .IsDir }}
Size:         {{ if lt .Bytes 0 }}not fetched{{ else }}{{ .Bytes | human_bytes }}{{ end }}
Local copy:   {{ .HasWorkspace }}
Blob:         {{ .GitBlobSha }}{{ end }}
Commit:       {{ .GitCommitSha }}
Modified:     {{ .Updated | date }}
`

var catCmd = &cobra.Command{
	Use:   "cat <path>",
	Short: "Print file content, fetching it from the remote when needed",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		fsys := getVFS(ctx)
		defer func() { _ = fsys.Close() }()
		var content string
		if Must(cmd.Flags().GetBool("conflict")) {
			content = Must(fsys.ReadConflict(ctx, args[0]))
		} else {
			content = Must(fsys.ReadFile(ctx, args[0]))
		}
		Fmt("%s", content)
	},
}

var writeCmd = &cobra.Command{
	Use:     "write <path> [source file]",
	Short:   "Write file content from a local file or stdin",
	Example: "echo hello | gitvfs write docs/hello.txt",
	Args:    cobra.RangeArgs(1, 2),
	Run: func(cmd *cobra.Command, args []string) {
		var (
			data []byte
			err  error
		)
		if len(args) > 1 && args[1] != "-" {
			data, err = os.ReadFile(args[1])
		} else {
			data, err = io.ReadAll(os.Stdin)
		}
		if err != nil {
			DieErr(err)
		}
		ctx := cmd.Context()
		fsys := getVFS(ctx)
		defer func() { _ = fsys.Close() }()
		if err := fsys.WriteFile(ctx, args[0], string(data)); err != nil {
			DieErr(err)
		}
	},
}

var rmCmd = &cobra.Command{
	Use:   "rm <path>...",
	Short: "Remove files, or directories with --recursive",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		recursive := Must(cmd.Flags().GetBool("recursive"))
		ctx := cmd.Context()
		fsys := getVFS(ctx)
		defer func() { _ = fsys.Close() }()
		for _, p := range args {
			fi, err := fsys.Stat(ctx, p)
			if err != nil {
				DieErr(err)
			}
			switch {
			case fi.IsDir() && !recursive:
				DieFmt("%s is a directory, use --recursive", p)
			case fi.IsDir():
				err = fsys.Rmdir(ctx, p, true)
			default:
				err = fsys.DeleteFile(ctx, p)
			}
			if err != nil {
				DieErr(err)
			}
		}
	},
}

var mvCmd = &cobra.Command{
	Use:   "mv <source> <destination>",
	Short: "Rename a file",
	Args:  cobra.ExactArgs(2),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		fsys := getVFS(ctx)
		defer func() { _ = fsys.Close() }()
		if err := fsys.Rename(ctx, args[0], args[1]); err != nil {
			DieErr(err)
		}
	},
}

var lsCmd = &cobra.Command{
	Use:   "ls [directory]",
	Short: "List a directory",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		dir := ""
		if len(args) > 0 {
			dir = args[0]
		}
		match := matcher(cmd)
		ctx := cmd.Context()
		fsys := getVFS(ctx)
		defer func() { _ = fsys.Close() }()
		entries := Must(fsys.ReadDir(ctx, dir))
		rows := make([][]interface{}, 0, len(entries))
		for _, e := range entries {
			if !match(e.Name()) {
				continue
			}
			fi := Must(e.Info())
			if e.IsDir() {
				rows = append(rows, []interface{}{"dir", e.Name() + "/", "", ""})
				continue
			}
			state, size := "", ""
			if info, ok := fi.(*vfs.FileInfo); ok {
				state = string(info.State)
				if info.Bytes >= 0 {
					size = strconv.FormatInt(info.Bytes, 10)
				}
			}
			rows = append(rows, []interface{}{"file", e.Name(), state, size})
		}
		PrintTable(rows, []interface{}{"Type", "Name", "State", "Size"})
	},
}

var statCmd = &cobra.Command{
	Use:   "stat <path>",
	Short: "Describe a file or directory",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		fsys := getVFS(ctx)
		defer func() { _ = fsys.Close() }()
		Write(statTemplate, Must(fsys.Stat(ctx, args[0])))
	},
}

var mkdirCmd = &cobra.Command{
	Use:   "mkdir <directory>",
	Short: "Create a directory",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		fsys := getVFS(ctx)
		defer func() { _ = fsys.Close() }()
		if err := fsys.Mkdir(ctx, args[0]); err != nil {
			DieErr(err)
		}
	},
}

var rmdirCmd = &cobra.Command{
	Use:   "rmdir <directory>",
	Short: "Remove a directory",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		recursive := Must(cmd.Flags().GetBool("recursive"))
		ctx := cmd.Context()
		fsys := getVFS(ctx)
		defer func() { _ = fsys.Close() }()
		err := fsys.Rmdir(ctx, args[0], recursive)
		if errors.Is(err, syscall.ENOTEMPTY) {
			DieFmt("%s: directory not empty, use --recursive", args[0])
		}
		if err != nil {
			DieErr(err)
		}
	},
}

//nolint:gochecknoinits
func init() {
	catCmd.Flags().Bool("conflict", false, "print the remote content of a path in conflict")
	rmCmd.Flags().BoolP("recursive", "r", false, "remove directories and their content")
	lsCmd.Flags().String("match", "", "only list names matching a glob pattern")
	rmdirCmd.Flags().BoolP("recursive", "r", false, "remove the directory content")

	rootCmd.AddCommand(catCmd, writeCmd, rmCmd, mvCmd, lsCmd, statCmd, mkdirCmd, rmdirCmd)
}
