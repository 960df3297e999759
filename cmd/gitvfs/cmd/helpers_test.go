package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/gobwas/glob"
	"github.com/mitchellh/go-homedir"
	"github.com/stretchr/testify/require"
	"github.com/treeverse/gitvfs/pkg/config"
	"github.com/treeverse/gitvfs/pkg/gitadapter"
)

func TestShortSha(t *testing.T) {
	const sha = "0123456789abcdef0123456789abcdef01234567"
	require.Equal(t, "01234567", shortSha(sha))
	require.Equal(t, "main", shortSha("main"))
	require.Equal(t, "", shortSha(""))
}

func TestFilterChanges(t *testing.T) {
	changes := []gitadapter.Change{
		{Type: gitadapter.ChangeCreate, Path: "docs/a.md"},
		{Type: gitadapter.ChangeUpdate, Path: "docs/deep/b.md"},
		{Type: gitadapter.ChangeDelete, Path: "main.go"},
	}
	g := glob.MustCompile("docs/*.md", '/')
	filtered := filterChanges(changes, g.Match)
	require.Len(t, filtered, 1)
	require.Equal(t, "docs/a.md", filtered[0].Path)

	all := filterChanges(changes, func(string) bool { return true })
	require.Equal(t, changes, all)
	require.Len(t, changeRows(all), len(changes))
}

func TestWriteTo(t *testing.T) {
	DisableColors()
	var buf bytes.Buffer
	WriteTo(`{{ .Name | bold }} {{ .Size | human_bytes }} {{ .Sha | short }}{{ "\n" }}`, struct {
		Name string
		Size int64
		Sha  string
	}{Name: "a.md", Size: 2048, Sha: "0123456789abcdef0123456789abcdef01234567"}, &buf)
	require.Contains(t, buf.String(), "a.md")
	require.Contains(t, buf.String(), "01234567")
}

func TestLoadConfig(t *testing.T) {
	originalCfgFile, originalViper := cfgFile, v
	t.Cleanup(func() {
		cfgFile, v = originalCfgFile, originalViper
	})

	t.Run("flag", func(t *testing.T) {
		v = config.NewViper()
		cfgFile = filepath.Join(t.TempDir(), "config.yaml")
		const content = "storage:\n  type: fs\n  root: from-flag\n  fs:\n    in_memory: true\n"
		require.NoError(t, os.WriteFile(cfgFile, []byte(content), 0o644))
		require.NoError(t, loadConfig())
		require.Equal(t, "from-flag", cfg.Storage.Root)
		require.Equal(t, config.StorageTypeFS, cfg.Storage.Type)
	})

	t.Run("missing_flag_file", func(t *testing.T) {
		v = config.NewViper()
		cfgFile = filepath.Join(t.TempDir(), "missing.yaml")
		require.Error(t, loadConfig())
	})

	t.Run("home", func(t *testing.T) {
		v = config.NewViper()
		cfgFile = ""
		home := t.TempDir()
		const content = "storage:\n  root: from-home\n"
		require.NoError(t, os.WriteFile(filepath.Join(home, ".gitvfs.yaml"), []byte(content), 0o644))
		t.Setenv("HOME", home)
		homedir.DisableCache = true
		defer func() { homedir.DisableCache = false }()
		require.NoError(t, loadConfig())
		require.Equal(t, "from-home", cfg.Storage.Root)
	})
}
