package kv

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/treeverse/gitvfs/pkg/kv/kvparams"
)

const (
	PathDelimiter        = "/"
	MetadataPartitionKey = "kv-internal-metadata"
)

var (
	ErrClosedEntries       = errors.New("closed entries")
	ErrConnectFailed       = errors.New("connect failed")
	ErrDriverConfiguration = errors.New("driver configuration")
	ErrMissingPartitionKey = errors.New("missing partition key")
	ErrMissingKey          = errors.New("missing key")
	ErrMissingValue        = errors.New("missing value")
	ErrNotFound            = errors.New("not found")
	ErrOperationFailed     = errors.New("operation failed")
	ErrPredicateFailed     = errors.New("predicate failed")
	ErrSetupFailed         = errors.New("setup failed")
	ErrUnknownDriver       = errors.New("unknown driver")
)

func FormatPath(p ...string) string {
	return strings.Join(p, PathDelimiter)
}

// Driver is the interface to access a kv database as a Store.
// Each kv provider implements a Driver.
type Driver interface {
	// Open opens access to the database store.  Implementations give access to the same
	// storage for the same parameters.
	Open(ctx context.Context, params kvparams.Config) (Store, error)
}

// Predicate value used to update a key base on a previous fetched value.
//
//	Store's Get used to pull the key's value with the associated predicate.
//	Store's SetIf used to set the key's value based on the predicate.
type Predicate interface{}

// ValueWithPredicate value with predicate - Value holds the data and Predicate a value used
// for conditional set.
type ValueWithPredicate struct {
	Value     []byte
	Predicate Predicate
}

// ScanOptions controls the start of a scan.  KeyStart is inclusive.
type ScanOptions struct {
	KeyStart  []byte
	BatchSize int
}

type Store interface {
	// Get returns a result containing the Value and Predicate for the given key, or
	// ErrNotFound if key doesn't exist.
	Get(ctx context.Context, partitionKey, key []byte) (*ValueWithPredicate, error)

	// Set stores the given value, overwriting an existing value if one exists
	Set(ctx context.Context, partitionKey, key, value []byte) error

	// SetIf returns an ErrPredicateFailed error if the key with valuePredicate passed
	// doesn't match the currently stored value.  valuePredicate is either a predicate
	// returned by Get, or nil for no previous key exists.
	SetIf(ctx context.Context, partitionKey, key, value []byte, valuePredicate Predicate) error

	// Delete will delete the key, no error in if key doesn't exist
	Delete(ctx context.Context, partitionKey, key []byte) error

	// Scan returns entries of partitionKey by key order, starting at or after
	// options.KeyStart.
	Scan(ctx context.Context, partitionKey []byte, options ScanOptions) (EntriesIterator, error)

	// Close access to the database store. After calling Close the instance is unusable.
	Close()
}

// EntriesIterator used to enumerate over Scan results
type EntriesIterator interface {
	// Next should be called first before access Entry.
	// it will process the next entry and return true if it was successful, and false when none or error.
	Next() bool

	// Entry current entry read after calling Next, set to nil in case of an error or no more entries.
	Entry() *Entry

	// Err set to last error by reading or parse the next entry.
	Err() error

	// Close should be called at the end of processing entries, required to release resources used to scan entries.
	Close()
}

// Entry holds a pair of key/value
type Entry struct {
	PartitionKey []byte
	Key          []byte
	Value        []byte
}

func (e *Entry) String() string {
	if e == nil {
		return "Entry{nil}"
	}
	return fmt.Sprintf("Entry{%s, %s, %d bytes}", e.PartitionKey, e.Key, len(e.Value))
}

// map drivers implementation
var (
	drivers   = make(map[string]Driver)
	driversMu sync.RWMutex
)

// Register 'driver' implementation under 'name'. Panic in case of empty name, nil driver or
// name already registered.
func Register(name string, driver Driver) {
	if name == "" {
		panic("kv store register name is missing")
	}
	if driver == nil {
		panic("kv store Register driver is nil")
	}
	driversMu.Lock()
	defer driversMu.Unlock()
	if _, found := drivers[name]; found {
		panic("kv store Register driver already registered " + name)
	}
	drivers[name] = driver
}

// UnregisterAllDrivers remove all loaded drivers, used for test code.
func UnregisterAllDrivers() {
	driversMu.Lock()
	defer driversMu.Unlock()
	for k := range drivers {
		delete(drivers, k)
	}
}

// Open lookup driver with params.Type and return a Store.  Failed with ErrUnknownDriver in
// case the type is not registered.  Stores are wrapped with request metrics when
// params.Metrics is set.
func Open(ctx context.Context, params kvparams.Config) (Store, error) {
	driversMu.RLock()
	d, ok := drivers[params.Type]
	driversMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownDriver, params.Type)
	}
	store, err := d.Open(ctx, params)
	if err != nil {
		return nil, err
	}
	if params.Metrics {
		return newStoreMetricsWrapper(store, params.Type), nil
	}
	return store, nil
}

// Drivers returns a sorted list of registered drive names
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
