package cmd

import (
	"github.com/go-openapi/swag"
	"github.com/spf13/cobra"
	"github.com/treeverse/gitvfs/pkg/gitadapter"
)

const commitsTemplate = `{{ range $val := .Items }}
ID:            {{ $val.Sha | yellow }}{{ if $val.Author }}
Author:        {{ $val.Author }}{{ end }}
Date:          {{ $val.Date | date }}
{{ if gt ($val.Parents | len) 1 -}}
Merge:         {{ $val.Parents | join ", " | bold }}
{{ end }}
	{{ $val.Message }}
{{ end }}{{ if .NextPage }}
for more results run with {{ printf "--page %d" .NextPage | yellow }}
{{ end }}`

var logCmd = &cobra.Command{
	Use:     "log",
	Short:   "Show remote commit history",
	Example: "gitvfs log --path docs/readme.md --amount 5",
	Args:    cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		query := gitadapter.CommitQuery{
			Ref:     Must(cmd.Flags().GetString("ref")),
			Path:    Must(cmd.Flags().GetString("path")),
			Page:    Must(cmd.Flags().GetInt("page")),
			PerPage: Must(cmd.Flags().GetInt("amount")),
		}
		ctx := cmd.Context()
		fsys := getVFS(ctx)
		defer func() { _ = fsys.Close() }()
		page := Must(fsys.ListCommits(ctx, query))
		Write(commitsTemplate, struct {
			Items    []gitadapter.CommitSummary
			NextPage int
		}{Items: page.Items, NextPage: swag.IntValue(page.NextPage)})
	},
}

//nolint:gochecknoinits
func init() {
	logCmd.Flags().String("ref", "", "branch, tag or commit (default is the current branch)")
	logCmd.Flags().String("path", "", "only commits changing this path")
	logCmd.Flags().Int("page", 1, "page to show")
	logCmd.Flags().Int("amount", gitadapter.DefaultCommitsLimit, "number of commits per page")
	rootCmd.AddCommand(logCmd)
}
