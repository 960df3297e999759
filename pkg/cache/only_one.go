package cache

import "sync"

// OnlyOne ensures a single concurrent computation per key.  Callers arriving while a
// computation runs share its result.
type OnlyOne interface {
	Compute(key interface{}, fn func() (interface{}, error)) (interface{}, error)
}

type call struct {
	done  chan struct{}
	value interface{}
	err   error
}

type ChanOnlyOne struct {
	mu    sync.Mutex
	calls map[interface{}]*call
}

func NewChanOnlyOne() *ChanOnlyOne {
	return &ChanOnlyOne{calls: make(map[interface{}]*call)}
}

func (c *ChanOnlyOne) Compute(key interface{}, fn func() (interface{}, error)) (interface{}, error) {
	c.mu.Lock()
	if cl, ok := c.calls[key]; ok {
		c.mu.Unlock()
		<-cl.done
		return cl.value, cl.err
	}
	cl := &call{done: make(chan struct{})}
	c.calls[key] = cl
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		delete(c.calls, key)
		c.mu.Unlock()
		close(cl.done)
	}()
	cl.value, cl.err = fn()
	return cl.value, cl.err
}
