package local

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
	"github.com/treeverse/gitvfs/pkg/kv"
	"github.com/treeverse/gitvfs/pkg/logging"
)

type Store struct {
	db           *badger.DB
	logger       logging.Logger
	prefetchSize int
	path         string
	refCount     int
}

type EntriesIterator struct {
	txn          *badger.Txn
	iter         *badger.Iterator
	partitionKey []byte
	prefix       []byte
	entry        *kv.Entry
	err          error
	started      bool
}

func composeKey(partitionKey, key []byte) []byte {
	return append(partitionPrefix(partitionKey), key...)
}

func partitionPrefix(partitionKey []byte) []byte {
	p := make([]byte, 0, len(partitionKey)+len(kv.PathDelimiter))
	p = append(p, partitionKey...)
	return append(p, kv.PathDelimiter...)
}

func (s *Store) Get(ctx context.Context, partitionKey, key []byte) (*kv.ValueWithPredicate, error) {
	if len(partitionKey) == 0 {
		return nil, kv.ErrMissingPartitionKey
	}
	if len(key) == 0 {
		return nil, kv.ErrMissingKey
	}
	k := composeKey(partitionKey, key)
	log := s.logger.WithContext(ctx).WithField("key", string(k))
	log.Trace("get key")
	var value []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(k)
		if err != nil {
			return err
		}
		value, err = item.ValueCopy(nil)
		return err
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return nil, kv.ErrNotFound
	}
	if err != nil {
		log.WithError(err).Error("failed to get key")
		return nil, fmt.Errorf("%w: %s", kv.ErrOperationFailed, err)
	}
	return &kv.ValueWithPredicate{
		Value:     value,
		Predicate: kv.Predicate(value),
	}, nil
}

func (s *Store) Set(ctx context.Context, partitionKey, key, value []byte) error {
	if err := validateArgs(partitionKey, key, value); err != nil {
		return err
	}
	k := composeKey(partitionKey, key)
	s.logger.WithContext(ctx).WithField("key", string(k)).Trace("set key")
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(k, value)
	})
	if err != nil {
		return fmt.Errorf("%w: %s", kv.ErrOperationFailed, err)
	}
	return nil
}

func (s *Store) SetIf(ctx context.Context, partitionKey, key, value []byte, valuePredicate kv.Predicate) error {
	if err := validateArgs(partitionKey, key, value); err != nil {
		return err
	}
	k := composeKey(partitionKey, key)
	s.logger.WithContext(ctx).WithField("key", string(k)).Trace("set if")
	err := s.db.Update(func(txn *badger.Txn) error {
		item, err := txn.Get(k)
		switch {
		case errors.Is(err, badger.ErrKeyNotFound):
			if valuePredicate != nil {
				return kv.ErrPredicateFailed
			}
		case err != nil:
			return err
		case valuePredicate == nil:
			return kv.ErrPredicateFailed
		default:
			current, err := item.ValueCopy(nil)
			if err != nil {
				return err
			}
			if !bytes.Equal(current, valuePredicate.([]byte)) {
				return kv.ErrPredicateFailed
			}
		}
		return txn.Set(k, value)
	})
	switch {
	case errors.Is(err, kv.ErrPredicateFailed), errors.Is(err, badger.ErrConflict):
		return kv.ErrPredicateFailed
	case err != nil:
		return fmt.Errorf("%w: %s", kv.ErrOperationFailed, err)
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, partitionKey, key []byte) error {
	if len(partitionKey) == 0 {
		return kv.ErrMissingPartitionKey
	}
	if len(key) == 0 {
		return kv.ErrMissingKey
	}
	k := composeKey(partitionKey, key)
	s.logger.WithContext(ctx).WithField("key", string(k)).Trace("delete key")
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(k)
	})
	if err != nil {
		return fmt.Errorf("%w: %s", kv.ErrOperationFailed, err)
	}
	return nil
}

func (s *Store) Scan(ctx context.Context, partitionKey []byte, options kv.ScanOptions) (kv.EntriesIterator, error) {
	if len(partitionKey) == 0 {
		return nil, kv.ErrMissingPartitionKey
	}
	prefix := partitionPrefix(partitionKey)
	s.logger.WithContext(ctx).WithField("partition_key", string(partitionKey)).Trace("scan")
	txn := s.db.NewTransaction(false)
	iter := txn.NewIterator(badger.IteratorOptions{
		PrefetchValues: true,
		PrefetchSize:   s.prefetchSize,
		Prefix:         prefix,
	})
	iter.Seek(append(prefix, options.KeyStart...))
	return &EntriesIterator{
		txn:          txn,
		iter:         iter,
		partitionKey: partitionKey,
		prefix:       prefix,
	}, nil
}

// Close releases the store.  The database closes with the last store opened on its path.
func (s *Store) Close() {
	driverLock.Lock()
	defer driverLock.Unlock()
	s.refCount--
	if s.refCount > 0 {
		return
	}
	if err := s.db.Close(); err != nil {
		s.logger.WithError(err).Error("failed to close badger database")
	}
	delete(connectionMap, s.path)
}

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
	if e.err != nil {
		return false
	}
	if e.started {
		e.iter.Next()
	}
	e.started = true
	e.entry = nil
	if !e.iter.Valid() {
		return false
	}
	item := e.iter.Item()
	value, err := item.ValueCopy(nil)
	if err != nil {
		e.err = fmt.Errorf("%w: %s", kv.ErrOperationFailed, err)
		return false
	}
	e.entry = &kv.Entry{
		PartitionKey: e.partitionKey,
		Key:          bytes.TrimPrefix(item.KeyCopy(nil), e.prefix),
		Value:        value,
	}
	return true
}

func (e *EntriesIterator) Entry() *kv.Entry {
	return e.entry
}

func (e *EntriesIterator) Err() error {
	return e.err
}

func (e *EntriesIterator) Close() {
	if e.iter == nil {
		return
	}
	e.iter.Close()
	e.txn.Discard()
	e.iter = nil
	e.entry = nil
	e.err = kv.ErrClosedEntries
}
