package vfs

import (
	"context"
	"io/fs"
	"path"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/treeverse/gitvfs/pkg/gitadapter"
	"github.com/treeverse/gitvfs/pkg/storage"
)

// FileInfo describes a file or directory.  It implements fs.FileInfo.
type FileInfo struct {
	FullPath string
	Dir      bool
	// Bytes is the content size, -1 while the content was never fetched
	Bytes   int64
	Updated time.Time
	State   storage.State
	// HasWorkspace is set when a local copy exists
	HasWorkspace bool
	GitBlobSha   string
	GitCommitSha string
}

func (fi *FileInfo) Name() string {
	if fi.FullPath == "" {
		return "."
	}
	return path.Base(fi.FullPath)
}

func (fi *FileInfo) Size() int64 {
	if fi.Bytes < 0 {
		return 0
	}
	return fi.Bytes
}

func (fi *FileInfo) Mode() fs.FileMode {
	if fi.Dir {
		return fs.ModeDir | 0o755
	}
	return 0o644
}

func (fi *FileInfo) ModTime() time.Time { return fi.Updated }
func (fi *FileInfo) IsDir() bool        { return fi.Dir }
func (fi *FileInfo) Sys() interface{}   { return nil }

// children returns the paths with an info record or a workspace copy strictly under dir.
func (v *VFS) children(ctx context.Context, dir string) []storage.FileEntry {
	seen := make(map[string]struct{})
	var out []storage.FileEntry
	add := func(entries []storage.FileEntry) {
		for _, e := range entries {
			if e.Path == dir {
				continue
			}
			if _, ok := seen[e.Path]; ok {
				continue
			}
			seen[e.Path] = struct{}{}
			out = append(out, e)
		}
	}
	add(v.backend.ListFiles(ctx, dir, storage.SegmentAny, true))
	add(v.backend.ListFiles(ctx, dir, storage.SegmentWorkspace, true))
	return out
}

// ReadDir lists the direct children of dir.  Directories are those marked by Mkdir and
// those implied by the paths below them.
func (v *VFS) ReadDir(ctx context.Context, dir string) ([]fs.DirEntry, error) {
	dir, err := cleanPath(dir)
	if err != nil {
		return nil, pathError("readdir", dir, err)
	}
	var marker *storage.IndexEntry
	if dir != "" {
		marker = storage.ReadInfo(ctx, v.backend, dir)
		if marker != nil && marker.State != storage.StateDir {
			return nil, pathError("readdir", dir, syscall.ENOTDIR)
		}
	}
	index := v.readIndex(ctx)
	infos := make(map[string]*FileInfo)
	for _, e := range v.children(ctx, dir) {
		rel := e.Path
		if dir != "" {
			rel = strings.TrimPrefix(e.Path, dir+"/")
		}
		name, _, nested := strings.Cut(rel, "/")
		full := path.Join(dir, name)
		if nested || (e.Info != nil && e.Info.State == storage.StateDir) {
			infos[name] = &FileInfo{FullPath: full, Dir: true}
			continue
		}
		if _, ok := infos[name]; ok {
			continue
		}
		infos[name] = v.fileInfo(ctx, index, full, e.Info)
	}
	if dir != "" && marker == nil && len(infos) == 0 {
		return nil, pathError("readdir", dir, fs.ErrNotExist)
	}
	names := make([]string, 0, len(infos))
	for name := range infos {
		names = append(names, name)
	}
	sort.Strings(names)
	entries := make([]fs.DirEntry, 0, len(names))
	for _, name := range names {
		entries = append(entries, fs.FileInfoToDirEntry(infos[name]))
	}
	return entries, nil
}

// fileInfo describes file p without fetching remote content.
func (v *VFS) fileInfo(ctx context.Context, index *storage.Index, p string, info *storage.IndexEntry) *FileInfo {
	fi := &FileInfo{FullPath: p, Bytes: -1, GitCommitSha: index.Head}
	if info != nil {
		fi.State = info.State
		fi.Updated = time.UnixMilli(info.UpdatedAt)
	}
	if content, ok := v.backend.ReadBlob(ctx, p, storage.SegmentWorkspace); ok {
		fi.Bytes = int64(len(content))
		fi.HasWorkspace = true
		fi.GitBlobSha = gitadapter.BlobSha(content)
		return fi
	}
	if content, ok := v.backend.ReadBlob(ctx, p, storage.SegmentBase); ok {
		fi.Bytes = int64(len(content))
	}
	fi.GitBlobSha = remoteSha(index, info, p)
	return fi
}

// Stat describes p.  Git identifiers are reported from the remote view when no local copy
// exists.
func (v *VFS) Stat(ctx context.Context, p string) (*FileInfo, error) {
	p, err := cleanPath(p)
	if err != nil {
		return nil, pathError("stat", p, err)
	}
	index := v.readIndex(ctx)
	if p == "" {
		return &FileInfo{Dir: true, GitCommitSha: index.Head}, nil
	}
	hasWorkspace := false
	for _, raw := range v.backend.ListFilesRaw(ctx, p, false) {
		if raw.Path == p && raw.Segment == storage.SegmentWorkspace {
			hasWorkspace = true
		}
	}
	info := storage.ReadInfo(ctx, v.backend, p)
	switch {
	case info != nil && info.State == storage.StateDir:
		return &FileInfo{FullPath: p, Dir: true, State: storage.StateDir, Updated: time.UnixMilli(info.UpdatedAt), GitCommitSha: index.Head}, nil
	case info == nil && !hasWorkspace:
		if len(v.children(ctx, p)) > 0 {
			return &FileInfo{FullPath: p, Dir: true, GitCommitSha: index.Head}, nil
		}
		return nil, pathError("stat", p, fs.ErrNotExist)
	}
	fi := v.fileInfo(ctx, index, p, info)
	fi.HasWorkspace = hasWorkspace
	return fi, nil
}

// Mkdir marks dir as a directory.  Parents are implied.
func (v *VFS) Mkdir(ctx context.Context, dir string) error {
	dir, err := cleanPath(dir)
	if err != nil {
		return pathError("mkdir", dir, err)
	}
	if dir == "" {
		return pathError("mkdir", dir, fs.ErrExist)
	}
	if info := storage.ReadInfo(ctx, v.backend, dir); info != nil {
		if info.State == storage.StateDir {
			return nil
		}
		return pathError("mkdir", dir, fs.ErrExist)
	}
	marker := &storage.IndexEntry{Path: dir, State: storage.StateDir, UpdatedAt: v.now().UnixMilli()}
	return storage.WriteInfo(ctx, v.backend, dir, marker, storage.SegmentWorkspaceInfo)
}

// Rmdir removes dir.  Without recursive, a directory with descendants fails with ENOTEMPTY;
// with it every descendant is removed from all segments.
func (v *VFS) Rmdir(ctx context.Context, dir string, recursive bool) error {
	dir, err := cleanPath(dir)
	if err != nil {
		return pathError("rmdir", dir, err)
	}
	if dir == "" {
		return pathError("rmdir", dir, syscall.EBUSY)
	}
	marker := storage.ReadInfo(ctx, v.backend, dir)
	if marker != nil && marker.State != storage.StateDir {
		return pathError("rmdir", dir, syscall.ENOTDIR)
	}
	descendants := v.children(ctx, dir)
	if marker == nil && len(descendants) == 0 {
		return pathError("rmdir", dir, fs.ErrNotExist)
	}
	if len(descendants) > 0 && !recursive {
		return pathError("rmdir", dir, syscall.ENOTEMPTY)
	}
	var errs *multierror.Error
	for _, e := range descendants {
		if err := v.backend.DeleteBlob(ctx, e.Path, storage.SegmentAny); err != nil {
			errs = multierror.Append(errs, err)
		}
	}
	if marker != nil {
		if err := v.backend.DeleteBlob(ctx, dir, storage.SegmentAny); err != nil {
			errs = multierror.Append(errs, err)
		}
	}
	return errs.ErrorOrNil()
}
