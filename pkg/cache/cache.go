package cache

import (
	"errors"
	"math/rand"
	"time"

	lru "github.com/hnlq715/golang-lru"
)

type JitterFn func() time.Duration
type SetFn func() (v interface{}, err error)
type EvictionCallback func(key interface{}, value interface{})

// Params controls a Cache.
type Params struct {
	// Name is a user-visible name for this cache.
	Name string
	// Size is the maximal number of elements held.
	Size int
	// Expiry is the time to keep elements before eviction.  Zero keeps them until pushed out
	// by newer elements.
	Expiry time.Duration
	// JitterFn returns an interval added to expiry of each element.
	JitterFn JitterFn
	// OnEvict is called after an element has been evicted from the cache.
	OnEvict EvictionCallback
}

type Cache interface {
	Name() string
	GetOrSet(k interface{}, setFn SetFn) (v interface{}, err error)
}

type GetSetCache struct {
	p      *Params
	lru    *lru.Cache
	locker *ChanLocker
}

var ErrCacheItemNotFound = errors.New("cache item not found")

func NewCache(size int, expiry time.Duration, jitterFn JitterFn) *GetSetCache {
	return NewCacheByParams(&Params{Size: size, Expiry: expiry, JitterFn: jitterFn})
}

// NewCacheByParams returns a cache for p.  It panics if p.Size is not positive.
func NewCacheByParams(p *Params) *GetSetCache {
	var onEvict func(key interface{}, value interface{})
	if p.OnEvict != nil {
		onEvict = p.OnEvict
	}
	c, err := lru.NewWithEvict(p.Size, onEvict)
	if err != nil {
		panic(err)
	}
	if p.JitterFn == nil {
		p.JitterFn = func() time.Duration { return 0 }
	}
	return &GetSetCache{
		lru:    c,
		locker: NewChanLocker(),
		p:      p,
	}
}

// GetOrSet returns the cached value of k, calling setFn to compute it when missing.
// Concurrent callers for the same missing key wait for a single setFn call.
func (c *GetSetCache) GetOrSet(k interface{}, setFn SetFn) (v interface{}, err error) {
	if v, ok := c.lru.Get(k); ok {
		return v, nil
	}
	acquired := c.locker.Lock(k, func() {
		v, err = setFn()
		if err != nil {
			return
		}
		if c.p.Expiry > 0 {
			c.lru.AddEx(k, v, c.p.Expiry+c.p.JitterFn())
		} else {
			c.lru.Add(k, v)
		}
	})
	if acquired {
		return v, err
	}

	// someone else got the lock first and should have inserted something
	if v, ok := c.lru.Get(k); ok {
		return v, nil
	}

	// the other caller failed to compute a value
	return nil, ErrCacheItemNotFound
}

// Add stores v under k, replacing any current value.
func (c *GetSetCache) Add(k, v interface{}) {
	if c.p.Expiry > 0 {
		c.lru.AddEx(k, v, c.p.Expiry+c.p.JitterFn())
		return
	}
	c.lru.Add(k, v)
}

// Len returns the number of cached elements.
func (c *GetSetCache) Len() int {
	return c.lru.Len()
}

func (c *GetSetCache) Name() string { return c.p.Name }

func NewJitterFn(jitter time.Duration) JitterFn {
	return func() time.Duration {
		if jitter <= 0 {
			return 0
		}
		n := rand.Int63n(int64(jitter)) //nolint:gosec
		return time.Duration(n)
	}
}
