package kvstore_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/treeverse/gitvfs/pkg/kv/mem"
	"github.com/treeverse/gitvfs/pkg/storage"
	"github.com/treeverse/gitvfs/pkg/storage/kvstore"
	"github.com/treeverse/gitvfs/pkg/storage/storagetest"
)

func TestKVStore(t *testing.T) {
	storagetest.TestDriver(t, func(t *testing.T, _ context.Context) storage.Driver {
		return kvstore.NewDriver(mem.New())
	})
}

func TestLegacyKeys(t *testing.T) {
	ctx := context.Background()
	kvStore := mem.New()
	d := kvstore.NewDriver(kvStore)
	b, err := d.Open(ctx, "legacy")
	require.NoError(t, err)
	require.NoError(t, b.Init(ctx))

	// values written before branch scoping
	require.NoError(t, kvStore.Set(ctx, []byte("legacy"), []byte("base/old.txt"), []byte("old base")))
	require.NoError(t, kvStore.Set(ctx, []byte("legacy"), []byte("conflict/old.txt"), []byte("sha")))

	content, ok := b.ReadBlob(ctx, "old.txt", storage.SegmentAny)
	require.True(t, ok)
	require.Equal(t, "old base", content)
	content, ok = b.ReadBlob(ctx, "old.txt", storage.SegmentConflict)
	require.True(t, ok)
	require.Equal(t, "sha", content)

	// scoped values win
	require.NoError(t, b.WriteBlob(ctx, "old.txt", "new base", storage.SegmentBase))
	content, ok = b.ReadBlob(ctx, "old.txt", storage.SegmentBase)
	require.True(t, ok)
	require.Equal(t, "new base", content)

	require.NoError(t, b.DeleteBlob(ctx, "old.txt", storage.SegmentAny))
	_, err = kvStore.Get(ctx, []byte("legacy"), []byte("base/old.txt"))
	require.Error(t, err, "legacy base removed")
	_, ok = b.ReadBlob(ctx, "old.txt", storage.SegmentConflict)
	require.False(t, ok)
}

func TestClock(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	d := kvstore.NewDriver(mem.New(), kvstore.WithClock(func() time.Time { return now }))
	b, err := d.Open(ctx, "clock")
	require.NoError(t, err)
	require.NoError(t, b.WriteBlob(ctx, "a.txt", "a", storage.SegmentWorkspace))
	info := storage.ReadInfo(ctx, b, "a.txt")
	require.NotNil(t, info)
	require.Equal(t, now.UnixMilli(), info.UpdatedAt)
}

func TestOpenInvalidRoot(t *testing.T) {
	d := kvstore.NewDriver(mem.New())
	for _, root := range []string{"", "gitvfs-roots"} {
		_, err := d.Open(context.Background(), root)
		require.ErrorIs(t, err, storage.ErrInvalidPath)
	}
}
