package storage

import (
	"fmt"
	"strings"
)

// BranchSeparator separates the branch from the path in branch scoped keys.  Paths may not
// contain it.
const BranchSeparator = "::"

// NormalizePath trims surrounding slashes and rejects paths that cannot be stored.
func NormalizePath(p string) (string, error) {
	p = strings.Trim(p, "/")
	if strings.Contains(p, BranchSeparator) {
		return "", fmt.Errorf("%w: %s contains %s", ErrInvalidPath, p, BranchSeparator)
	}
	for _, part := range strings.Split(p, "/") {
		if part == "." || part == ".." {
			return "", fmt.Errorf("%w: %s", ErrInvalidPath, p)
		}
	}
	return p, nil
}

// MatchPrefix reports whether p is listed under prefix.  A non recursive match requires p to
// be a direct child of prefix.
func MatchPrefix(p, prefix string, recursive bool) bool {
	prefix = strings.Trim(prefix, "/")
	var rest string
	switch {
	case prefix == "":
		rest = p
	case p == prefix:
		return true
	case strings.HasPrefix(p, prefix+"/"):
		rest = p[len(prefix)+1:]
	default:
		return false
	}
	return recursive || !strings.Contains(rest, "/")
}
