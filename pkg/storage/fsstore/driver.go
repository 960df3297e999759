package fsstore

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-billy/v5/util"
	nanoid "github.com/matoous/go-nanoid/v2"
	"github.com/treeverse/gitvfs/pkg/storage"
)

const (
	DriverName    = "fs"
	DefaultBranch = "main"
)

// Driver keeps each root in a directory of a billy filesystem.
type Driver struct {
	fs  billy.Filesystem
	now func() time.Time
}

type Option func(d *Driver)

// WithClock sets the clock used to stamp info records.
func WithClock(now func() time.Time) Option {
	return func(d *Driver) {
		d.now = now
	}
}

func NewDriver(fs billy.Filesystem, opts ...Option) *Driver {
	d := &Driver{fs: fs, now: time.Now}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// NewOSDriver keeps roots under dir on the local disk.
func NewOSDriver(dir string, opts ...Option) *Driver {
	return NewDriver(osfs.New(dir), opts...)
}

// NewMemDriver keeps roots in memory.
func NewMemDriver(opts ...Option) *Driver {
	return NewDriver(memfs.New(), opts...)
}

func (d *Driver) CanUse(_ context.Context) bool {
	probe := ".probe-" + nanoid.Must(8)
	if err := util.WriteFile(d.fs, probe, nil, 0o644); err != nil {
		return false
	}
	_ = d.fs.Remove(probe)
	return true
}

func (d *Driver) AvailableRoots(_ context.Context, namespace string) ([]string, error) {
	infos, err := d.fs.ReadDir("/")
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var roots []string
	for _, fi := range infos {
		name := fi.Name()
		if !fi.IsDir() || strings.HasPrefix(name, ".") || !strings.HasPrefix(name, namespace) {
			continue
		}
		roots = append(roots, name)
	}
	sort.Strings(roots)
	return roots, nil
}

func (d *Driver) DeleteRoot(_ context.Context, root string) error {
	if err := validRoot(root); err != nil {
		return err
	}
	if _, err := d.fs.Stat(root); errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%w: %s", storage.ErrRootNotFound, root)
	}
	return util.RemoveAll(d.fs, root)
}

func (d *Driver) Open(_ context.Context, root string) (storage.Backend, error) {
	if err := validRoot(root); err != nil {
		return nil, err
	}
	rootFS, err := d.fs.Chroot(root)
	if err != nil {
		return nil, fmt.Errorf("open root %s: %w", root, err)
	}
	return &Store{
		fs:     rootFS,
		root:   root,
		now:    d.now,
		branch: DefaultBranch,
	}, nil
}

func validRoot(root string) error {
	if root == "" || strings.HasPrefix(root, ".") || strings.ContainsAny(root, `/\`) {
		return fmt.Errorf("%w: invalid root name '%s'", storage.ErrInvalidPath, root)
	}
	return nil
}

// Filesystem returns the filesystem holding the roots.
func (d *Driver) Filesystem() billy.Filesystem {
	return d.fs
}
