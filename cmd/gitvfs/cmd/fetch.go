package cmd

import (
	"context"
	"os"
	"path"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"github.com/treeverse/gitvfs/pkg/batch"
	"github.com/treeverse/gitvfs/pkg/vfs"
)

// walkFiles returns every file path under dir.
func walkFiles(ctx context.Context, fsys *vfs.VFS, dir string) ([]string, error) {
	entries, err := fsys.ReadDir(ctx, dir)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, e := range entries {
		p := path.Join(dir, e.Name())
		if !e.IsDir() {
			files = append(files, p)
			continue
		}
		nested, err := walkFiles(ctx, fsys, p)
		if err != nil {
			return nil, err
		}
		files = append(files, nested...)
	}
	return files, nil
}

var fetchCmd = &cobra.Command{
	Use:   "fetch [directory]",
	Short: "Fetch the content of files that were not read yet, for offline use",
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

		var pending []string
		for _, p := range Must(walkFiles(ctx, fsys, dir)) {
			if !match(p) {
				continue
			}
			if fi, err := fsys.Stat(ctx, p); err == nil && !fi.IsDir() && fi.Bytes < 0 {
				pending = append(pending, p)
			}
		}
		if len(pending) == 0 {
			Fmt("Nothing to fetch\n")
			return
		}
		bar := progressbar.NewOptions(len(pending),
			progressbar.OptionSetDescription("fetching"),
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionShowCount(),
			progressbar.OptionClearOnFinish())
		err := batch.ForEach(ctx, pending, cfg.Remote.Concurrency, func(ctx context.Context, p string) error {
			_, err := fsys.ReadFile(ctx, p)
			_ = bar.Add(1)
			return err
		})
		_ = bar.Finish()
		if err != nil {
			DieErr(err)
		}
		Fmt("Fetched %d files\n", len(pending))
	},
}

//nolint:gochecknoinits
func init() {
	fetchCmd.Flags().String("match", "", "only fetch paths matching a glob pattern, ex: '**.md'")
	rootCmd.AddCommand(fetchCmd)
}
