package kv

import (
	"bytes"
	"context"
)

// PrefixIterator iterates over entries of a partition that share a key prefix.
type PrefixIterator struct {
	Iterator  EntriesIterator
	Prefix    []byte
	completed bool
}

func (b *PrefixIterator) Next() bool {
	if b.completed {
		return false
	}
	if !b.Iterator.Next() {
		b.completed = true
		return false
	}
	entry := b.Iterator.Entry()
	if entry == nil || !bytes.HasPrefix(entry.Key, b.Prefix) {
		b.completed = true
		return false
	}
	return true
}

func (b *PrefixIterator) Entry() *Entry {
	if b.completed {
		return nil
	}
	return b.Iterator.Entry()
}

func (b *PrefixIterator) Err() error {
	return b.Iterator.Err()
}

func (b *PrefixIterator) Close() {
	b.Iterator.Close()
}

// ScanPrefix returns an iterator on store that scan the set of keys that start with prefix.
// after is optional, and when set the scan starts from the first key after it.
func ScanPrefix(ctx context.Context, store Store, partitionKey, prefix, after []byte) (EntriesIterator, error) {
	start := prefix
	if len(after) > 0 && bytes.Compare(after, prefix) > 0 {
		start = after
	}
	iter, err := store.Scan(ctx, partitionKey, ScanOptions{KeyStart: start})
	if err != nil {
		return nil, err
	}
	var it EntriesIterator = &PrefixIterator{Iterator: iter, Prefix: prefix}
	if len(after) > 0 {
		it = NewSkipIterator(it, after)
	}
	return it, nil
}

// SkipFirstIterator will keep the behaviour of the given EntriesIterator,
// except for skipping the first Entry if its Key is equal to 'after'.
type SkipFirstIterator struct {
	it         EntriesIterator
	after      []byte
	nextCalled bool
}

func NewSkipIterator(it EntriesIterator, after []byte) EntriesIterator {
	return &SkipFirstIterator{it: it, after: after}
}

func (si *SkipFirstIterator) Next() bool {
	if !si.nextCalled {
		si.nextCalled = true
		if !si.it.Next() {
			return false
		}
		if !bytes.Equal(si.it.Entry().Key, si.after) {
			return true
		}
	}
	return si.it.Next()
}

func (si *SkipFirstIterator) Entry() *Entry {
	return si.it.Entry()
}

func (si *SkipFirstIterator) Err() error {
	return si.it.Err()
}

func (si *SkipFirstIterator) Close() {
	si.it.Close()
}

// DeletePrefix removes all keys of partitionKey starting with prefix and returns how many
// were removed.
func DeletePrefix(ctx context.Context, store Store, partitionKey, prefix []byte) (int, error) {
	it, err := ScanPrefix(ctx, store, partitionKey, prefix, nil)
	if err != nil {
		return 0, err
	}
	var keys [][]byte
	for it.Next() {
		keys = append(keys, it.Entry().Key)
	}
	err = it.Err()
	it.Close()
	if err != nil {
		return 0, err
	}
	for _, key := range keys {
		if err := store.Delete(ctx, partitionKey, key); err != nil {
			return 0, err
		}
	}
	return len(keys), nil
}
