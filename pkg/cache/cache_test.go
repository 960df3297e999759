package cache_test

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/treeverse/gitvfs/pkg/cache"
)

func TestCacheRace(t *testing.T) {
	const (
		parallelism = 25
		n           = 200
		worldSize   = 10
		cacheSize   = 7
	)

	c := cache.NewCache(cacheSize, time.Hour*12, cache.NewJitterFn(time.Millisecond))

	start := make(chan struct{})
	wg := sync.WaitGroup{}

	for i := 0; i < parallelism; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			for j := 0; j < n; j++ {
				k := j % worldSize
				kk, err := c.GetOrSet(k, func() (interface{}, error) {
					return k * k, nil
				})
				if errors.Is(err, cache.ErrCacheItemNotFound) {
					continue
				}
				if err != nil {
					t.Error(err)
					return
				}
				if kk.(int) != k*k {
					t.Errorf("[%d] got %d^2=%d, expected %d", i, k, kk, k*k)
				}
			}
		}(i)
	}
	close(start)
	wg.Wait()
}

func TestCache_GetOrSetCachesValue(t *testing.T) {
	c := cache.NewCacheByParams(&cache.Params{Name: "blobs", Size: 2})
	require.Equal(t, "blobs", c.Name())

	calls := 0
	set := func() (interface{}, error) {
		calls++
		return "sha", nil
	}
	for i := 0; i < 3; i++ {
		v, err := c.GetOrSet("content", set)
		require.NoError(t, err)
		require.Equal(t, "sha", v)
	}
	require.Equal(t, 1, calls)
}

func TestCache_GetOrSetError(t *testing.T) {
	c := cache.NewCache(2, 0, nil)
	errFailed := errors.New("failed")
	_, err := c.GetOrSet("k", func() (interface{}, error) { return nil, errFailed })
	require.ErrorIs(t, err, errFailed)
	require.Equal(t, 0, c.Len())

	v, err := c.GetOrSet("k", func() (interface{}, error) { return 1, nil })
	require.NoError(t, err)
	require.Equal(t, 1, v)
}

func TestCache_Evict(t *testing.T) {
	var evicted []interface{}
	c := cache.NewCacheByParams(&cache.Params{
		Size:    1,
		OnEvict: func(key interface{}, _ interface{}) { evicted = append(evicted, key) },
	})
	c.Add("a", 1)
	c.Add("b", 2)
	require.Equal(t, []interface{}{"a"}, evicted)
	require.Equal(t, 1, c.Len())
}
