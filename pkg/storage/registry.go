package storage

import (
	"context"
	"fmt"
	"sort"
	"sync"
)

// Driver opens backends of one storage type and manages its roots.
type Driver interface {
	// CanUse reports whether the storage is reachable in this environment.
	CanUse(ctx context.Context) bool
	// AvailableRoots lists the roots present in the storage, limited to those starting with
	// namespace when it is set.
	AvailableRoots(ctx context.Context, namespace string) ([]string, error)
	// DeleteRoot removes a root and all of its data.
	DeleteRoot(ctx context.Context, root string) error
	// Open returns a backend for root.
	Open(ctx context.Context, root string) (Backend, error)
}

var (
	drivers   = make(map[string]Driver)
	driversMu sync.RWMutex
)

// Register makes driver available under name, replacing any driver registered before.
// Drivers depend on configuration, so they are registered at startup rather than from init.
func Register(name string, driver Driver) {
	if name == "" {
		panic("storage register name is missing")
	}
	if driver == nil {
		panic("storage register driver is nil")
	}
	driversMu.Lock()
	defer driversMu.Unlock()
	drivers[name] = driver
}

// UnregisterAllDrivers removes all registered drivers, used for test code.
func UnregisterAllDrivers() {
	driversMu.Lock()
	defer driversMu.Unlock()
	for k := range drivers {
		delete(drivers, k)
	}
}

func lookup(name string) (Driver, error) {
	driversMu.RLock()
	defer driversMu.RUnlock()
	d, ok := drivers[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownDriver, name)
	}
	return d, nil
}

// Drivers returns the registered driver names, sorted.
func Drivers() []string {
	driversMu.RLock()
	defer driversMu.RUnlock()
	names := make([]string, 0, len(drivers))
	for name := range drivers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// CanUse reports whether the named driver is registered and usable.
func CanUse(ctx context.Context, name string) bool {
	d, err := lookup(name)
	if err != nil {
		return false
	}
	return d.CanUse(ctx)
}

func AvailableRoots(ctx context.Context, name, namespace string) ([]string, error) {
	d, err := lookup(name)
	if err != nil {
		return nil, err
	}
	return d.AvailableRoots(ctx, namespace)
}

func DeleteRoot(ctx context.Context, name, root string) error {
	d, err := lookup(name)
	if err != nil {
		return err
	}
	return d.DeleteRoot(ctx, root)
}

// Open returns an initialized backend for root using the named driver.
func Open(ctx context.Context, name, root string) (Backend, error) {
	d, err := lookup(name)
	if err != nil {
		return nil, err
	}
	b, err := d.Open(ctx, root)
	if err != nil {
		return nil, err
	}
	if err := b.Init(ctx); err != nil {
		_ = b.Close()
		return nil, err
	}
	return b, nil
}
