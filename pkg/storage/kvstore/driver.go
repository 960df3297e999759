package kvstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/treeverse/gitvfs/pkg/kv"
	"github.com/treeverse/gitvfs/pkg/storage"
)

const (
	DriverName = "kv"

	// rootsPartitionKey holds a key per root opened on the kv store
	rootsPartitionKey = "gitvfs-roots"
	probeKey          = "probe"
)

// Driver opens storage roots on a kv store.
type Driver struct {
	store kv.Store
	now   func() time.Time
}

type Option func(d *Driver)

// WithClock sets the clock used to stamp info records.
func WithClock(now func() time.Time) Option {
	return func(d *Driver) {
		d.now = now
	}
}

func NewDriver(store kv.Store, opts ...Option) *Driver {
	d := &Driver{store: store, now: time.Now}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

func (d *Driver) CanUse(ctx context.Context) bool {
	_, err := d.store.Get(ctx, []byte(rootsPartitionKey), []byte(probeKey))
	return err == nil || errors.Is(err, kv.ErrNotFound)
}

func (d *Driver) AvailableRoots(ctx context.Context, namespace string) ([]string, error) {
	it, err := kv.ScanPrefix(ctx, d.store, []byte(rootsPartitionKey), []byte(namespace), nil)
	if err != nil {
		return nil, err
	}
	defer it.Close()
	var roots []string
	for it.Next() {
		roots = append(roots, string(it.Entry().Key))
	}
	return roots, it.Err()
}

func (d *Driver) DeleteRoot(ctx context.Context, root string) error {
	if root == "" {
		return fmt.Errorf("%w: empty root", storage.ErrRootNotFound)
	}
	if _, err := kv.DeletePrefix(ctx, d.store, []byte(root), []byte{}); err != nil {
		return fmt.Errorf("delete root %s: %w", root, err)
	}
	return d.store.Delete(ctx, []byte(rootsPartitionKey), []byte(root))
}

func (d *Driver) Open(_ context.Context, root string) (storage.Backend, error) {
	if root == "" || root == rootsPartitionKey || root == kv.MetadataPartitionKey {
		return nil, fmt.Errorf("%w: invalid root name '%s'", storage.ErrInvalidPath, root)
	}
	return &Store{
		kv:        d.store,
		root:      root,
		partition: []byte(root),
		now:       d.now,
		branch:    DefaultBranch,
	}, nil
}
