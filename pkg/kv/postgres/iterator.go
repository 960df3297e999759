package postgres

import (
	"context"
	"fmt"

	"github.com/treeverse/gitvfs/pkg/kv"
)

type EntriesIterator struct {
	ctx          context.Context
	store        *Store
	partitionKey []byte
	pageSize     int

	entries []kv.Entry
	current int
	more    bool
	entry   *kv.Entry
	err     error
}

func (e *EntriesIterator) loadPage(start []byte, inclusive bool) {
	op := ">"
	if inclusive {
		op = ">="
	}
	if start == nil {
		start = []byte{}
	}
	rows, err := e.store.Pool.Query(e.ctx, `SELECT key, value FROM `+e.store.Params.SanitizedTableName+`
		WHERE partition_key = $1 AND key `+op+` $2 ORDER BY key LIMIT $3`, e.partitionKey, start, e.pageSize)
	if err != nil {
		e.err = fmt.Errorf("%s: %w", err, kv.ErrOperationFailed)
		return
	}
	defer rows.Close()
	entries := make([]kv.Entry, 0, e.pageSize)
	for rows.Next() {
		ent := kv.Entry{PartitionKey: e.partitionKey}
		if err := rows.Scan(&ent.Key, &ent.Value); err != nil {
			e.err = fmt.Errorf("%s: %w", err, kv.ErrOperationFailed)
			return
		}
		entries = append(entries, ent)
	}
	if err := rows.Err(); err != nil {
		e.err = fmt.Errorf("%s: %w", err, kv.ErrOperationFailed)
		return
	}
	e.entries = entries
	e.current = 0
	e.more = len(entries) == e.pageSize
}

// Next reads the next key/value.
func (e *EntriesIterator) Next() bool {
	if e.err != nil {
		return false
	}
	e.entry = nil
	if e.current >= len(e.entries) {
		if !e.more || len(e.entries) == 0 {
			return false
		}
		e.loadPage(e.entries[len(e.entries)-1].Key, false)
		if e.err != nil || len(e.entries) == 0 {
			return false
		}
	}
	e.entry = &e.entries[e.current]
	e.current++
	return true
}

func (e *EntriesIterator) Entry() *kv.Entry {
	return e.entry
}

func (e *EntriesIterator) Err() error {
	return e.err
}

func (e *EntriesIterator) Close() {
	e.entries = nil
	e.entry = nil
	e.err = kv.ErrClosedEntries
}
