package fsstore

import (
	"net/url"
	"path"
	"strings"

	"github.com/treeverse/gitvfs/pkg/storage"
)

const (
	indexFileName   = "index"
	entriesFileName = "entries"
	tmpDirName      = ".tmp"
	workspaceDir    = "workspace"
	branchesDir     = ".git"
	// infoSuffix names info record files, so a directory marker never shares a name with
	// the directory holding the records below it
	infoSuffix = ".json"
)

func isInfoSegment(segment storage.Segment) bool {
	return segment == storage.SegmentInfo || segment == storage.SegmentWorkspaceInfo
}

// segmentFile returns the file holding the value of p in segment, relative to the root.
func segmentFile(segment storage.Segment, branch, p string) string {
	if isInfoSegment(segment) {
		p += infoSuffix
	}
	return path.Join(segmentDir(segment, branch), p)
}

// segmentDir returns the directory holding values of segment, relative to the root.
func segmentDir(segment storage.Segment, branch string) string {
	switch segment {
	case storage.SegmentWorkspace:
		return path.Join(workspaceDir, "base")
	case storage.SegmentWorkspaceInfo:
		return path.Join(workspaceDir, "info")
	case storage.SegmentBase, storage.SegmentInfo, storage.SegmentConflict, storage.SegmentConflictBlob:
		return path.Join(branchesDir, url.PathEscape(branch), string(segment))
	default:
		return ""
	}
}

type location struct {
	segment storage.Segment
	branch  string
	path    string
}

// parseLocation maps a file path relative to the root back to its segment, branch and path.
func parseLocation(rel string) (location, bool) {
	loc, ok := parseSegmentFile(rel)
	if !ok || !isInfoSegment(loc.segment) {
		return loc, ok
	}
	if !strings.HasSuffix(loc.path, infoSuffix) {
		return location{}, false
	}
	loc.path = strings.TrimSuffix(loc.path, infoSuffix)
	return loc, true
}

func parseSegmentFile(rel string) (location, bool) {
	parts := strings.SplitN(rel, "/", 4)
	switch {
	case len(parts) >= 3 && parts[0] == workspaceDir:
		p := strings.Join(parts[2:], "/")
		switch parts[1] {
		case "base":
			return location{segment: storage.SegmentWorkspace, path: p}, true
		case "info":
			return location{segment: storage.SegmentWorkspaceInfo, path: p}, true
		}
	case len(parts) == 4 && parts[0] == branchesDir:
		branch, err := url.PathUnescape(parts[1])
		if err != nil {
			return location{}, false
		}
		seg := storage.Segment(parts[2])
		if !seg.IsBranchScoped() {
			return location{}, false
		}
		return location{segment: seg, branch: branch, path: parts[3]}, true
	}
	return location{}, false
}
