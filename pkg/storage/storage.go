package storage

import (
	"context"
	"errors"
)

// Segment names a namespace of stored values for a path.  The workspace segments are
// shared by all branches, the others are scoped by the active branch.
type Segment string

const (
	// SegmentAny resolves reads through the workspace and then the base copy.
	SegmentAny          Segment = ""
	SegmentWorkspace    Segment = "workspace"
	SegmentBase         Segment = "base"
	SegmentConflict     Segment = "conflict"
	SegmentConflictBlob Segment = "conflictBlob"
	// SegmentInfo holds info records of the active branch.  Reads resolve the workspace
	// info first.
	SegmentInfo Segment = "info"
	// SegmentWorkspaceInfo holds info records written by workspace and conflict writes, and
	// directory markers.
	SegmentWorkspaceInfo Segment = "workspaceInfo"
)

// IsBranchScoped reports whether values of s live under the active branch.
func (s Segment) IsBranchScoped() bool {
	switch s {
	case SegmentBase, SegmentConflict, SegmentConflictBlob, SegmentInfo:
		return true
	default:
		return false
	}
}

func (s Segment) String() string {
	if s == SegmentAny {
		return "any"
	}
	return string(s)
}

var (
	ErrInvalidSegment = errors.New("invalid segment")
	ErrInvalidPath    = errors.New("invalid path")
	ErrUnknownDriver  = errors.New("unknown storage driver")
	ErrRootNotFound   = errors.New("root not found")
	ErrUnavailable    = errors.New("storage unavailable")
)

// State of a tracked path.
type State string

const (
	StateBase     State = "base"
	StateAdded    State = "added"
	StateModified State = "modified"
	StateConflict State = "conflict"
	StateDir      State = "dir"
)

// IndexEntry is the info record kept for a path.  Shas are lowercase hex: content SHA-1 for
// workspaceSha, content SHA-1 or remote blob id for baseSha, remote blob id for remoteSha.
type IndexEntry struct {
	Path         string `json:"path" yaml:"path"`
	BaseSha      string `json:"baseSha,omitempty" yaml:"baseSha,omitempty"`
	WorkspaceSha string `json:"workspaceSha,omitempty" yaml:"workspaceSha,omitempty"`
	RemoteSha    string `json:"remoteSha,omitempty" yaml:"remoteSha,omitempty"`
	State        State  `json:"state" yaml:"state"`
	// UpdatedAt is unix milliseconds
	UpdatedAt int64 `json:"updatedAt" yaml:"updatedAt"`
}

// Clone returns a copy of e, nil for nil.
func (e *IndexEntry) Clone() *IndexEntry {
	if e == nil {
		return nil
	}
	c := *e
	return &c
}

// AdapterRecord is the persisted adapter configuration.  Credentials are never part of it.
type AdapterRecord struct {
	Type string                 `json:"type" yaml:"type"`
	Opts map[string]interface{} `json:"opts,omitempty" yaml:"opts,omitempty"`
}

// Index is the per-root synchronization state.  Entries hold the remote view of the branch
// as of the last pull or push.
type Index struct {
	Head          string                 `json:"head" yaml:"head"`
	Branch        string                 `json:"branch,omitempty" yaml:"branch,omitempty"`
	Entries       map[string]*IndexEntry `json:"entries" yaml:"-"`
	LastCommitKey string                 `json:"lastCommitKey,omitempty" yaml:"lastCommitKey,omitempty"`
	Adapter       *AdapterRecord         `json:"adapter,omitempty" yaml:"adapter,omitempty"`
}

func NewIndex() *Index {
	return &Index{Entries: make(map[string]*IndexEntry)}
}

// FileEntry is a listed path with its resolved info record, if any.
type FileEntry struct {
	Path string
	Info *IndexEntry
}

// RawEntry is a stored value as found in the backend, for diagnostics.
type RawEntry struct {
	URI     string
	Path    string
	Segment Segment
	// Branch is empty for workspace segments and for legacy unscoped values
	Branch string
	Info   *IndexEntry
}

// Backend is a branch scoped, segmented store of path contents and info records for a single
// repository root.
//
// Reads never fail: missing values and backend errors both read as absent.  Writes to the
// workspace, base and conflict segments also write the derived info record; writes to the
// info segments and conflictBlob store the value as given.
type Backend interface {
	// Init prepares the root for use.  It is idempotent.
	Init(ctx context.Context) error
	// Root returns the root name.
	Root() string
	// SetBranch sets the branch scoping subsequent calls.
	SetBranch(name string)
	Branch() string

	ReadIndex(ctx context.Context) *Index
	WriteIndex(ctx context.Context, index *Index) error

	ReadBlob(ctx context.Context, path string, segment Segment) (string, bool)
	WriteBlob(ctx context.Context, path, content string, segment Segment) error
	// DeleteBlob removes the value of path in segment.  SegmentAny removes path from every
	// segment of the active branch and from the workspace.
	DeleteBlob(ctx context.Context, path string, segment Segment) error

	// ListFiles lists paths under prefix stored in segment.  SegmentAny and SegmentInfo list
	// every path with an info record.  Non recursive listing returns direct children only.
	ListFiles(ctx context.Context, prefix string, segment Segment, recursive bool) []FileEntry
	ListFilesRaw(ctx context.Context, prefix string, recursive bool) []RawEntry

	Close() error
}
