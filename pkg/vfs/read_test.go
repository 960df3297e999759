package vfs_test

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/treeverse/gitvfs/pkg/kv/mem"
	"github.com/treeverse/gitvfs/pkg/storage/kvstore"
	"github.com/treeverse/gitvfs/pkg/testutil"
)

func TestReadFileConcurrentFetchOnce(t *testing.T) {
	ctx := context.Background()
	b, err := kvstore.NewDriver(mem.New()).Open(ctx, testutil.UniqueName())
	require.NoError(t, err)
	defer func() { _ = b.Close() }()

	remote := newFakeRemote()
	remote.commitFiles("main", map[string]*string{"shared.txt": str("shared content")})
	v := newVFS(t, ctx, b, remote)
	_, err = v.Pull(ctx, "")
	require.NoError(t, err)

	const readers = 16
	var wg sync.WaitGroup
	contents := make([]string, readers)
	errs := make([]error, readers)
	for i := 0; i < readers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			contents[i], errs[i] = v.ReadFile(ctx, "shared.txt")
		}(i)
	}
	wg.Wait()
	for i := 0; i < readers; i++ {
		require.NoError(t, errs[i])
		require.Equal(t, "shared content", contents[i])
	}
	require.Equal(t, 1, remote.blobReads)
}
