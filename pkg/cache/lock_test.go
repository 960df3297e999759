package cache_test

import (
	"sync"
	"testing"
	"time"

	"github.com/treeverse/gitvfs/pkg/cache"
)

func TestChanLocker_LockAfterLock(t *testing.T) {
	c := cache.NewChanLocker()
	if !c.Lock("foo", func() {}) {
		t.Fatal("expected first lock to acquire")
	}
	if !c.Lock("foo", func() {}) {
		t.Fatal("expected second lock to acquire")
	}
}

func TestChanLocker_Lock(t *testing.T) {
	c := cache.NewChanLocker()

	var wg sync.WaitGroup
	wg.Add(3)
	started := make(chan struct{})

	go func() {
		defer wg.Done()
		acq := c.Lock("foo", func() {
			close(started)
			time.Sleep(50 * time.Millisecond)
		})
		if !acq {
			t.Error("expected to acquire foo lock")
		}
	}()

	<-started

	go func() {
		defer wg.Done()
		acq := c.Lock("foo", func() {
			t.Error("foo should not be called")
		})
		if acq {
			t.Error("expected foo lock to be held")
		}
	}()

	go func() {
		defer wg.Done()
		if !c.Lock("bar", func() {}) {
			t.Error("expected to acquire bar lock")
		}
	}()

	wg.Wait()
}
