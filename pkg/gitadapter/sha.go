package gitadapter

import (
	"github.com/go-git/go-git/v5/plumbing"
)

// IsCommitSha reports whether s is a full 40 hex digit object id.
func IsCommitSha(s string) bool {
	return len(s) == 40 && plumbing.IsHash(s)
}

// BlobSha returns the git blob id of content, as the remote computes it.
func BlobSha(content string) string {
	return plumbing.ComputeHash(plumbing.BlobObject, []byte(content)).String()
}
