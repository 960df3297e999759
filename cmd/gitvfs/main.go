package main

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/mitchellh/go-ps"
	"github.com/treeverse/gitvfs/cmd/gitvfs/cmd"
)

func isGitSubproc() bool {
	parentProc, err := ps.FindProcess(os.Getppid())
	if err == nil && parentProc != nil {
		parentName := parentProc.Executable()
		return parentName == "git" || strings.HasPrefix(parentName, "git.")
	}
	return false
}

func main() {
	if isGitSubproc() {
		// running as a git sub-command, ex: `git vfs status` runs our git-vfs binary
		baseName := filepath.Base(os.Args[0])
		baseName = strings.TrimPrefix(baseName, "git-")
		if lastDot := strings.LastIndex(baseName, "."); lastDot != -1 {
			baseName = baseName[:lastDot]
		}
		cmd.GitExecute(baseName)
		return
	}
	cmd.Execute()
}
