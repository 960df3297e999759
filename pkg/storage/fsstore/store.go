package fsstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
	"github.com/hashicorp/go-multierror"
	nanoid "github.com/matoous/go-nanoid/v2"
	"github.com/treeverse/gitvfs/pkg/logging"
	"github.com/treeverse/gitvfs/pkg/storage"
	"gopkg.in/yaml.v3"
)

const (
	dirPerm  = 0o755
	filePerm = 0o644
)

// Store is a storage.Backend keeping a root as a directory tree: workspace values under
// workspace/, branch values under .git/{branch}/, the index as YAML and the remote entries as
// JSON.
type Store struct {
	fs   billy.Filesystem
	root string
	now  func() time.Time

	mu     sync.RWMutex
	branch string
}

func (s *Store) Init(_ context.Context) error {
	for _, dir := range []string{tmpDirName, segmentDir(storage.SegmentWorkspace, ""), segmentDir(storage.SegmentWorkspaceInfo, "")} {
		if err := s.fs.MkdirAll(dir, dirPerm); err != nil {
			return fmt.Errorf("init root %s: %w", s.root, err)
		}
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

func (s *Store) readFile(ctx context.Context, name string) ([]byte, bool) {
	data, err := util.ReadFile(s.fs, name)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			s.log(ctx).WithError(err).WithField("file", name).Debug("read failed")
		}
		return nil, false
	}
	return data, true
}

// writeFile replaces name atomically by renaming a fully written temporary file over it.
func (s *Store) writeFile(name string, data []byte) error {
	if err := s.fs.MkdirAll(path.Dir(name), dirPerm); err != nil {
		return err
	}
	if err := s.fs.MkdirAll(tmpDirName, dirPerm); err != nil {
		return err
	}
	tmp := path.Join(tmpDirName, nanoid.Must())
	if err := util.WriteFile(s.fs, tmp, data, filePerm); err != nil {
		_ = s.fs.Remove(tmp)
		return err
	}
	if err := s.fs.Rename(tmp, name); err != nil {
		_ = s.fs.Remove(tmp)
		return err
	}
	return nil
}

func (s *Store) ReadIndex(ctx context.Context) *storage.Index {
	data, ok := s.readFile(ctx, indexFileName)
	if !ok {
		return nil
	}
	var index storage.Index
	if err := yaml.Unmarshal(data, &index); err != nil {
		s.log(ctx).WithError(err).Debug("malformed index")
		return nil
	}
	index.Entries = make(map[string]*storage.IndexEntry)
	if data, ok := s.readFile(ctx, entriesFileName); ok {
		if err := json.Unmarshal(data, &index.Entries); err != nil {
			s.log(ctx).WithError(err).Debug("malformed index entries")
			index.Entries = make(map[string]*storage.IndexEntry)
		}
	}
	if index.Entries == nil {
		index.Entries = make(map[string]*storage.IndexEntry)
	}
	return &index
}

func (s *Store) WriteIndex(_ context.Context, index *storage.Index) error {
	entries := index.Entries
	if entries == nil {
		entries = make(map[string]*storage.IndexEntry)
	}
	entriesData, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("encode index entries: %w", err)
	}
	indexData, err := yaml.Marshal(index)
	if err != nil {
		return fmt.Errorf("encode index: %w", err)
	}
	if err := s.writeFile(entriesFileName, entriesData); err != nil {
		return fmt.Errorf("write index entries: %w", err)
	}
	if err := s.writeFile(indexFileName, indexData); err != nil {
		return fmt.Errorf("write index: %w", err)
	}
	return nil
}

func (s *Store) blobFile(segment storage.Segment, branch, p string) string {
	return segmentFile(segment, branch, p)
}

func (s *Store) read(ctx context.Context, segment storage.Segment, branch, p string) (string, bool) {
	data, ok := s.readFile(ctx, s.blobFile(segment, branch, p))
	return string(data), ok
}

func (s *Store) ReadBlob(ctx context.Context, p string, segment storage.Segment) (string, bool) {
	branch := s.Branch()
	switch segment {
	case storage.SegmentAny:
		if v, ok := s.read(ctx, storage.SegmentWorkspace, branch, p); ok {
			return v, true
		}
		return s.read(ctx, storage.SegmentBase, branch, p)
	case storage.SegmentInfo:
		if v, ok := s.read(ctx, storage.SegmentWorkspaceInfo, branch, p); ok {
			return v, true
		}
		return s.read(ctx, storage.SegmentInfo, branch, p)
	case storage.SegmentWorkspace, storage.SegmentWorkspaceInfo, storage.SegmentBase,
		storage.SegmentConflict, storage.SegmentConflictBlob:
		return s.read(ctx, segment, branch, p)
	default:
		return "", false
	}
}

func (s *Store) WriteBlob(ctx context.Context, p, content string, segment storage.Segment) error {
	if segmentDir(segment, "") == "" {
		return fmt.Errorf("%w: write requires a segment", storage.ErrInvalidSegment)
	}
	if err := s.writeFile(s.blobFile(segment, s.Branch(), p), []byte(content)); err != nil {
		return fmt.Errorf("write %s %s: %w", segment, p, err)
	}
	prev := storage.ReadInfo(ctx, s, p)
	info, infoSegment, ok := storage.DeriveInfo(p, content, segment, prev, s.now())
	if !ok {
		return nil
	}
	return storage.WriteInfo(ctx, s, p, info, infoSegment)
}

func (s *Store) DeleteBlob(_ context.Context, p string, segment storage.Segment) error {
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
		if segmentDir(seg, branch) == "" {
			errs = multierror.Append(errs, fmt.Errorf("%w: %s", storage.ErrInvalidSegment, seg))
			continue
		}
		err := s.fs.Remove(s.blobFile(seg, branch, p))
		if err != nil && !errors.Is(err, os.ErrNotExist) {
			errs = multierror.Append(errs, fmt.Errorf("delete %s %s: %w", seg, p, err))
		}
	}
	return errs.ErrorOrNil()
}

// walk calls fn with the path of every file under the directory of segment.
func (s *Store) walk(ctx context.Context, dir string, fn func(rel string, data func() ([]byte, bool))) {
	if _, err := s.fs.Stat(dir); err != nil {
		return
	}
	err := util.Walk(s.fs, dir, func(name string, fi os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if fi.IsDir() {
			return nil
		}
		name = strings.TrimPrefix(path.Clean("/"+name), "/")
		fn(name, func() ([]byte, bool) { return s.readFile(ctx, name) })
		return nil
	})
	if err != nil {
		s.log(ctx).WithError(err).WithField("dir", dir).Debug("walk failed")
	}
}

// infos returns the workspace and active branch info records under prefix.
func (s *Store) infos(ctx context.Context, prefix string, recursive bool) (workspace, branch map[string]*storage.IndexEntry) {
	active := s.Branch()
	workspace = make(map[string]*storage.IndexEntry)
	branch = make(map[string]*storage.IndexEntry)
	for _, seg := range []storage.Segment{storage.SegmentWorkspaceInfo, storage.SegmentInfo} {
		target := workspace
		if seg == storage.SegmentInfo {
			target = branch
		}
		s.walk(ctx, segmentDir(seg, active), func(rel string, data func() ([]byte, bool)) {
			loc, ok := parseLocation(rel)
			if !ok || loc.segment != seg || !storage.MatchPrefix(loc.path, prefix, recursive) {
				return
			}
			value, ok := data()
			if !ok {
				return
			}
			if info := storage.DecodeInfo(string(value)); info != nil {
				target[loc.path] = info
			}
		})
	}
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
		s.walk(ctx, segmentDir(segment, s.Branch()), func(rel string, _ func() ([]byte, bool)) {
			loc, ok := parseLocation(rel)
			if ok && loc.segment == segment && storage.MatchPrefix(loc.path, prefix, recursive) {
				paths[loc.path] = struct{}{}
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

func (s *Store) ListFilesRaw(ctx context.Context, prefix string, recursive bool) []storage.RawEntry {
	var entries []storage.RawEntry
	for _, dir := range []string{workspaceDir, branchesDir} {
		s.walk(ctx, dir, func(rel string, data func() ([]byte, bool)) {
			loc, ok := parseLocation(rel)
			if !ok || !storage.MatchPrefix(loc.path, prefix, recursive) {
				return
			}
			entry := storage.RawEntry{
				URI:     "file://" + path.Join(s.fs.Root(), rel),
				Path:    loc.path,
				Segment: loc.segment,
				Branch:  loc.branch,
			}
			if loc.segment == storage.SegmentInfo || loc.segment == storage.SegmentWorkspaceInfo {
				if value, ok := data(); ok {
					entry.Info = storage.DecodeInfo(string(value))
				}
			}
			entries = append(entries, entry)
		})
	}
	return entries
}

func (s *Store) Close() error {
	return nil
}
