package mem

import (
	"bytes"
	"context"
	"sort"
	"sync"

	"github.com/treeverse/gitvfs/pkg/kv"
	"github.com/treeverse/gitvfs/pkg/kv/kvparams"
)

const DriverName = "mem"

type Driver struct{}

// partition holds the keys of a single partition sorted for scans.
type partition struct {
	keys   []string
	values map[string][]byte
}

type Store struct {
	mu         sync.RWMutex
	partitions map[string]*partition
}

type EntriesIterator struct {
	entries []kv.Entry
	current int
	err     error
}

//nolint:gochecknoinits
func init() {
	kv.Register(DriverName, &Driver{})
}

// Open returns a new empty store.  Every call returns a separate store.
func (d *Driver) Open(_ context.Context, _ kvparams.Config) (kv.Store, error) {
	return New(), nil
}

func New() *Store {
	return &Store{partitions: make(map[string]*partition)}
}

func (s *Store) Get(_ context.Context, partitionKey, key []byte) (*kv.ValueWithPredicate, error) {
	if len(partitionKey) == 0 {
		return nil, kv.ErrMissingPartitionKey
	}
	if len(key) == 0 {
		return nil, kv.ErrMissingKey
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.partitions[string(partitionKey)]
	if !ok {
		return nil, kv.ErrNotFound
	}
	value, ok := p.values[string(key)]
	if !ok {
		return nil, kv.ErrNotFound
	}
	return &kv.ValueWithPredicate{
		Value:     bytes.Clone(value),
		Predicate: kv.Predicate(value),
	}, nil
}

func (s *Store) Set(_ context.Context, partitionKey, key, value []byte) error {
	if err := validateArgs(partitionKey, key, value); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.set(partitionKey, key, value)
	return nil
}

func (s *Store) set(partitionKey, key, value []byte) {
	p, ok := s.partitions[string(partitionKey)]
	if !ok {
		p = &partition{values: make(map[string][]byte)}
		s.partitions[string(partitionKey)] = p
	}
	k := string(key)
	if _, exists := p.values[k]; !exists {
		idx := sort.SearchStrings(p.keys, k)
		p.keys = append(p.keys, "")
		copy(p.keys[idx+1:], p.keys[idx:])
		p.keys[idx] = k
	}
	p.values[k] = bytes.Clone(value)
}

func (s *Store) SetIf(_ context.Context, partitionKey, key, value []byte, valuePredicate kv.Predicate) error {
	if err := validateArgs(partitionKey, key, value); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	var current []byte
	exists := false
	if p, ok := s.partitions[string(partitionKey)]; ok {
		current, exists = p.values[string(key)]
	}
	switch {
	case valuePredicate == nil && exists:
		return kv.ErrPredicateFailed
	case valuePredicate != nil && (!exists || !bytes.Equal(current, valuePredicate.([]byte))):
		return kv.ErrPredicateFailed
	}
	s.set(partitionKey, key, value)
	return nil
}

func (s *Store) Delete(_ context.Context, partitionKey, key []byte) error {
	if len(partitionKey) == 0 {
		return kv.ErrMissingPartitionKey
	}
	if len(key) == 0 {
		return kv.ErrMissingKey
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.partitions[string(partitionKey)]
	if !ok {
		return nil
	}
	k := string(key)
	if _, exists := p.values[k]; !exists {
		return nil
	}
	delete(p.values, k)
	idx := sort.SearchStrings(p.keys, k)
	p.keys = append(p.keys[:idx], p.keys[idx+1:]...)
	return nil
}

// Scan returns a snapshot of the partition entries at the time of the call.
func (s *Store) Scan(_ context.Context, partitionKey []byte, options kv.ScanOptions) (kv.EntriesIterator, error) {
	if len(partitionKey) == 0 {
		return nil, kv.ErrMissingPartitionKey
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.partitions[string(partitionKey)]
	if !ok {
		return &EntriesIterator{current: -1}, nil
	}
	start := sort.SearchStrings(p.keys, string(options.KeyStart))
	entries := make([]kv.Entry, 0, len(p.keys)-start)
	for _, k := range p.keys[start:] {
		entries = append(entries, kv.Entry{
			PartitionKey: partitionKey,
			Key:          []byte(k),
			Value:        p.values[k],
		})
	}
	return &EntriesIterator{entries: entries, current: -1}, nil
}

func (s *Store) Close() {}

func validateArgs(partitionKey, key, value []byte) error {
	if len(partitionKey) == 0 {
		return kv.ErrMissingPartitionKey
	}
	if len(key) == 0 {
		return kv.ErrMissingKey
	}
	if value == nil {
		return kv.ErrMissingValue
	}
	return nil
}

func (e *EntriesIterator) Next() bool {
	if e.err != nil || e.current >= len(e.entries) {
		return false
	}
	e.current++
	return e.current < len(e.entries)
}

func (e *EntriesIterator) Entry() *kv.Entry {
	if e.current < 0 || e.current >= len(e.entries) {
		return nil
	}
	return &e.entries[e.current]
}

func (e *EntriesIterator) Err() error {
	return e.err
}

func (e *EntriesIterator) Close() {
	e.err = kv.ErrClosedEntries
}
