package kvstore

import (
	"strings"

	"github.com/treeverse/gitvfs/pkg/storage"
)

const (
	workspaceKeyPrefix = "workspace/"
	infoKeyPrefix      = "info/"
	baseKeyPrefix      = "base/"
	conflictKeyPrefix  = "conflict/"
	conflictBlobMarker = "conflictBlob" + storage.BranchSeparator
	indexKey           = "index"
)

// keyPrefix returns the key prefix of values of segment under branch.
func keyPrefix(segment storage.Segment, branch string) string {
	scoped := branch + storage.BranchSeparator
	switch segment {
	case storage.SegmentWorkspace:
		return workspaceKeyPrefix
	case storage.SegmentWorkspaceInfo:
		return infoKeyPrefix
	case storage.SegmentBase:
		return baseKeyPrefix + scoped
	case storage.SegmentInfo:
		return infoKeyPrefix + scoped
	case storage.SegmentConflict:
		return conflictKeyPrefix + scoped
	case storage.SegmentConflictBlob:
		return conflictKeyPrefix + scoped + conflictBlobMarker
	default:
		return ""
	}
}

func blobKey(segment storage.Segment, branch, path string) string {
	return keyPrefix(segment, branch) + path
}

// legacyKey returns the unscoped key older versions stored branch data under.  Only base and
// conflict values have one.
func legacyKey(segment storage.Segment, path string) (string, bool) {
	switch segment {
	case storage.SegmentBase:
		return baseKeyPrefix + path, true
	case storage.SegmentConflict:
		return conflictKeyPrefix + path, true
	default:
		return "", false
	}
}

type parsedKey struct {
	segment storage.Segment
	branch  string
	path    string
	legacy  bool
}

// parseKey splits a stored key into its segment, branch and path.
func parseKey(key string) (parsedKey, bool) {
	splitScoped := func(rest string) (string, string, bool) {
		idx := strings.Index(rest, storage.BranchSeparator)
		if idx < 0 {
			return "", rest, false
		}
		return rest[:idx], rest[idx+len(storage.BranchSeparator):], true
	}
	switch {
	case strings.HasPrefix(key, workspaceKeyPrefix):
		return parsedKey{segment: storage.SegmentWorkspace, path: key[len(workspaceKeyPrefix):]}, true
	case strings.HasPrefix(key, infoKeyPrefix):
		branch, path, scoped := splitScoped(key[len(infoKeyPrefix):])
		if !scoped {
			return parsedKey{segment: storage.SegmentWorkspaceInfo, path: path}, true
		}
		return parsedKey{segment: storage.SegmentInfo, branch: branch, path: path}, true
	case strings.HasPrefix(key, baseKeyPrefix):
		branch, path, scoped := splitScoped(key[len(baseKeyPrefix):])
		return parsedKey{segment: storage.SegmentBase, branch: branch, path: path, legacy: !scoped}, true
	case strings.HasPrefix(key, conflictKeyPrefix):
		branch, path, scoped := splitScoped(key[len(conflictKeyPrefix):])
		if !scoped {
			return parsedKey{segment: storage.SegmentConflict, path: path, legacy: true}, true
		}
		if strings.HasPrefix(path, conflictBlobMarker) {
			return parsedKey{segment: storage.SegmentConflictBlob, branch: branch, path: path[len(conflictBlobMarker):]}, true
		}
		return parsedKey{segment: storage.SegmentConflict, branch: branch, path: path}, true
	default:
		return parsedKey{}, false
	}
}
