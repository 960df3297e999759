package storage

import (
	"context"
	"crypto/sha1" //nolint:gosec
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/treeverse/gitvfs/pkg/logging"
)

// ContentSha returns the lowercase hex SHA-1 of content.
func ContentSha(content string) string {
	sum := sha1.Sum([]byte(content)) //nolint:gosec
	return hex.EncodeToString(sum[:])
}

// DeriveInfo returns the info record a write of content to segment produces, given the
// current resolved record prev, and the info segment it is stored in.  ok is false for
// segments whose writes derive no info.
func DeriveInfo(path, content string, segment Segment, prev *IndexEntry, now time.Time) (info *IndexEntry, infoSegment Segment, ok bool) {
	info = &IndexEntry{Path: path, UpdatedAt: now.UnixMilli()}
	if prev != nil {
		info.BaseSha = prev.BaseSha
		info.WorkspaceSha = prev.WorkspaceSha
		info.RemoteSha = prev.RemoteSha
	}
	switch segment {
	case SegmentWorkspace:
		info.WorkspaceSha = ContentSha(content)
		if info.BaseSha != "" {
			info.State = StateModified
		} else {
			info.State = StateAdded
		}
		return info, SegmentWorkspaceInfo, true
	case SegmentBase:
		info.BaseSha = ContentSha(content)
		info.State = StateBase
		return info, SegmentInfo, true
	case SegmentConflict:
		info.State = StateConflict
		return info, SegmentWorkspaceInfo, true
	default:
		return nil, "", false
	}
}

// EncodeInfo returns the stored form of an info record.
func EncodeInfo(info *IndexEntry) (string, error) {
	data, err := json.Marshal(info)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// DecodeInfo parses a stored info record, nil when value is not one.
func DecodeInfo(value string) *IndexEntry {
	var info IndexEntry
	if err := json.Unmarshal([]byte(value), &info); err != nil {
		return nil
	}
	return &info
}

// ReadInfo returns the resolved info record of path: the workspace record if present, else
// the record of the active branch.
func ReadInfo(ctx context.Context, b Backend, path string) *IndexEntry {
	return readInfo(ctx, b, path, SegmentInfo)
}

// ReadInfoIn returns the info record of path stored in the given info segment only.
func ReadInfoIn(ctx context.Context, b Backend, path string, segment Segment) *IndexEntry {
	return readInfo(ctx, b, path, segment)
}

func readInfo(ctx context.Context, b Backend, path string, segment Segment) *IndexEntry {
	value, ok := b.ReadBlob(ctx, path, segment)
	if !ok {
		return nil
	}
	info := DecodeInfo(value)
	if info == nil {
		logging.FromContext(ctx).
			WithFields(logging.Fields{logging.PathFieldKey: path, logging.SegmentFieldKey: segment.String()}).
			Debug("ignoring malformed info record")
	}
	return info
}

// WriteInfo stores info for path in segment, SegmentInfo or SegmentWorkspaceInfo.
func WriteInfo(ctx context.Context, b Backend, path string, info *IndexEntry, segment Segment) error {
	if segment != SegmentInfo && segment != SegmentWorkspaceInfo {
		return ErrInvalidSegment
	}
	value, err := EncodeInfo(info)
	if err != nil {
		return err
	}
	return b.WriteBlob(ctx, path, value, segment)
}
