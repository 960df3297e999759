package kvstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/treeverse/gitvfs/pkg/kv"
	"github.com/treeverse/gitvfs/pkg/logging"
	"github.com/treeverse/gitvfs/pkg/storage"
)

const DefaultBranch = "main"

// Store is a storage.Backend keeping a root in a single kv partition named after it.
type Store struct {
	kv        kv.Store
	root      string
	partition []byte
	now       func() time.Time

	mu     sync.RWMutex
	branch string
}

func (s *Store) Init(ctx context.Context) error {
	created := []byte(s.now().UTC().Format(time.RFC3339))
	err := s.kv.SetIf(ctx, []byte(rootsPartitionKey), []byte(s.root), created, nil)
	if err != nil && !errors.Is(err, kv.ErrPredicateFailed) {
		return fmt.Errorf("register root %s: %w", s.root, err)
	}
	return nil
}

func (s *Store) Root() string {
	return s.root
}

func (s *Store) SetBranch(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.branch = name
}

func (s *Store) Branch() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.branch
}

func (s *Store) log(ctx context.Context) logging.Logger {
	return logging.FromContext(ctx).WithFields(logging.Fields{
		logging.RootFieldKey:   s.root,
		logging.BranchFieldKey: s.Branch(),
	})
}

func (s *Store) get(ctx context.Context, key string) (string, bool) {
	res, err := s.kv.Get(ctx, s.partition, []byte(key))
	if err != nil {
		if !errors.Is(err, kv.ErrNotFound) {
			s.log(ctx).WithError(err).WithField("key", key).Debug("read failed")
		}
		return "", false
	}
	return string(res.Value), true
}

func (s *Store) ReadIndex(ctx context.Context) *storage.Index {
	value, ok := s.get(ctx, indexKey)
	if !ok {
		return nil
	}
	var index storage.Index
	if err := json.Unmarshal([]byte(value), &index); err != nil {
		s.log(ctx).WithError(err).Debug("malformed index")
		return nil
	}
	if index.Entries == nil {
		index.Entries = make(map[string]*storage.IndexEntry)
	}
	return &index
}

func (s *Store) WriteIndex(ctx context.Context, index *storage.Index) error {
	data, err := json.Marshal(index)
	if err != nil {
		return fmt.Errorf("encode index: %w", err)
	}
	return s.kv.Set(ctx, s.partition, []byte(indexKey), data)
}

func (s *Store) ReadBlob(ctx context.Context, path string, segment storage.Segment) (string, bool) {
	branch := s.Branch()
	switch segment {
	case storage.SegmentAny:
		if v, ok := s.get(ctx, blobKey(storage.SegmentWorkspace, branch, path)); ok {
			return v, true
		}
		return s.readScoped(ctx, storage.SegmentBase, branch, path)
	case storage.SegmentInfo:
		if v, ok := s.get(ctx, blobKey(storage.SegmentWorkspaceInfo, branch, path)); ok {
			return v, true
		}
		return s.get(ctx, blobKey(storage.SegmentInfo, branch, path))
	case storage.SegmentBase, storage.SegmentConflict:
		return s.readScoped(ctx, segment, branch, path)
	case storage.SegmentWorkspace, storage.SegmentWorkspaceInfo, storage.SegmentConflictBlob:
		return s.get(ctx, blobKey(segment, branch, path))
	default:
		return "", false
	}
}

// readScoped reads a branch scoped value, falling back to the legacy unscoped key.
func (s *Store) readScoped(ctx context.Context, segment storage.Segment, branch, path string) (string, bool) {
	if v, ok := s.get(ctx, blobKey(segment, branch, path)); ok {
		return v, true
	}
	if key, ok := legacyKey(segment, path); ok {
		return s.get(ctx, key)
	}
	return "", false
}

func (s *Store) WriteBlob(ctx context.Context, path, content string, segment storage.Segment) error {
	if segment == storage.SegmentAny {
		return fmt.Errorf("%w: write requires a segment", storage.ErrInvalidSegment)
	}
	branch := s.Branch()
	if err := s.kv.Set(ctx, s.partition, []byte(blobKey(segment, branch, path)), []byte(content)); err != nil {
		return fmt.Errorf("write %s %s: %w", segment, path, err)
	}
	prev := storage.ReadInfo(ctx, s, path)
	info, infoSegment, ok := storage.DeriveInfo(path, content, segment, prev, s.now())
	if !ok {
		return nil
	}
	return storage.WriteInfo(ctx, s, path, info, infoSegment)
}

func (s *Store) DeleteBlob(ctx context.Context, path string, segment storage.Segment) error {
	branch := s.Branch()
	segments := []storage.Segment{segment}
	if segment == storage.SegmentAny {
		segments = []storage.Segment{
			storage.SegmentWorkspace, storage.SegmentWorkspaceInfo,
			storage.SegmentBase, storage.SegmentInfo,
			storage.SegmentConflict, storage.SegmentConflictBlob,
		}
	}
	var errs *multierror.Error
	for _, seg := range segments {
		keys := []string{blobKey(seg, branch, path)}
		if legacy, ok := legacyKey(seg, path); ok {
			keys = append(keys, legacy)
		}
		for _, key := range keys {
			if err := s.kv.Delete(ctx, s.partition, []byte(key)); err != nil {
				errs = multierror.Append(errs, fmt.Errorf("delete %s %s: %w", seg, path, err))
			}
		}
	}
	return errs.ErrorOrNil()
}

// scan calls fn with every entry whose key starts with prefix.  Errors end the scan and are
// logged.
func (s *Store) scan(ctx context.Context, prefix string, fn func(key string, value []byte)) {
	it, err := kv.ScanPrefix(ctx, s.kv, s.partition, []byte(prefix), nil)
	if err != nil {
		s.log(ctx).WithError(err).WithField("prefix", prefix).Debug("scan failed")
		return
	}
	defer it.Close()
	for it.Next() {
		e := it.Entry()
		fn(string(e.Key), e.Value)
	}
	if err := it.Err(); err != nil {
		s.log(ctx).WithError(err).WithField("prefix", prefix).Debug("scan failed")
	}
}

// infos returns the workspace and active branch info records under prefix.
func (s *Store) infos(ctx context.Context, prefix string, recursive bool) (workspace, branch map[string]*storage.IndexEntry) {
	active := s.Branch()
	workspace = make(map[string]*storage.IndexEntry)
	branch = make(map[string]*storage.IndexEntry)
	s.scan(ctx, infoKeyPrefix, func(key string, value []byte) {
		pk, ok := parseKey(key)
		if !ok || !storage.MatchPrefix(pk.path, prefix, recursive) {
			return
		}
		info := storage.DecodeInfo(string(value))
		if info == nil {
			return
		}
		switch {
		case pk.segment == storage.SegmentWorkspaceInfo:
			workspace[pk.path] = info
		case pk.branch == active:
			branch[pk.path] = info
		}
	})
	return workspace, branch
}

func (s *Store) ListFiles(ctx context.Context, prefix string, segment storage.Segment, recursive bool) []storage.FileEntry {
	wsInfos, branchInfos := s.infos(ctx, prefix, recursive)
	resolve := func(p string) *storage.IndexEntry {
		if info, ok := wsInfos[p]; ok {
			return info
		}
		return branchInfos[p]
	}

	paths := make(map[string]struct{})
	switch segment {
	case storage.SegmentAny, storage.SegmentInfo:
		for p := range wsInfos {
			paths[p] = struct{}{}
		}
		for p := range branchInfos {
			paths[p] = struct{}{}
		}
	case storage.SegmentWorkspaceInfo:
		for p := range wsInfos {
			paths[p] = struct{}{}
		}
	default:
		active := s.Branch()
		s.scan(ctx, keyPrefix(segment, active), func(key string, _ []byte) {
			pk, ok := parseKey(key)
			if !ok || pk.segment != segment || pk.branch != branchOf(segment, active) {
				return
			}
			if storage.MatchPrefix(pk.path, prefix, recursive) {
				paths[pk.path] = struct{}{}
			}
		})
	}

	entries := make([]storage.FileEntry, 0, len(paths))
	for p := range paths {
		entries = append(entries, storage.FileEntry{Path: p, Info: resolve(p)})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Path < entries[j].Path })
	return entries
}

func branchOf(segment storage.Segment, active string) string {
	if segment.IsBranchScoped() {
		return active
	}
	return ""
}

func (s *Store) ListFilesRaw(ctx context.Context, prefix string, recursive bool) []storage.RawEntry {
	var entries []storage.RawEntry
	s.scan(ctx, "", func(key string, value []byte) {
		pk, ok := parseKey(key)
		if !ok || !storage.MatchPrefix(pk.path, prefix, recursive) {
			return
		}
		entry := storage.RawEntry{
			URI:     fmt.Sprintf("kv://%s/%s", s.root, key),
			Path:    pk.path,
			Segment: pk.segment,
			Branch:  pk.branch,
		}
		if pk.segment == storage.SegmentInfo || pk.segment == storage.SegmentWorkspaceInfo {
			entry.Info = storage.DecodeInfo(string(value))
		}
		entries = append(entries, entry)
	})
	return entries
}

// Close releases nothing: the kv store is owned by the driver.
func (s *Store) Close() error {
	return nil
}
