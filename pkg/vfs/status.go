package vfs

import (
	"context"

	"github.com/treeverse/gitvfs/pkg/gitadapter"
	"github.com/treeverse/gitvfs/pkg/storage"
)

type Status struct {
	Root          string
	Branch        string
	Head          string
	LastCommitKey string
	Adapter       *storage.AdapterRecord
	Changes       []gitadapter.Change
	Conflicts     []string
}

// Clean reports whether nothing awaits a push or a resolution.
func (s *Status) Clean() bool {
	return len(s.Changes) == 0 && len(s.Conflicts) == 0
}

func (v *VFS) Status(ctx context.Context) (*Status, error) {
	index := v.readIndex(ctx)
	changes, conflicts := v.changeSet(ctx, index)
	return &Status{
		Root:          v.Root(),
		Branch:        v.Branch(),
		Head:          index.Head,
		LastCommitKey: index.LastCommitKey,
		Adapter:       index.Adapter,
		Changes:       changes,
		Conflicts:     conflicts,
	}, nil
}
