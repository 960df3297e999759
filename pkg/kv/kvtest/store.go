package kvtest

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/go-test/deep"
	nanoid "github.com/matoous/go-nanoid/v2"
	"github.com/treeverse/gitvfs/pkg/kv"
	"github.com/treeverse/gitvfs/pkg/kv/kvparams"
)

type MakeStore func(t *testing.T, ctx context.Context) kv.Store

const idAlphabet = "abcdef1234567890"

func uniquePartitionKey() []byte {
	return []byte("partition-" + nanoid.MustGenerate(idAlphabet, 8))
}

func setupSampleData(t *testing.T, ctx context.Context, store kv.Store, partitionKey []byte, prefix string, items int) []kv.Entry {
	t.Helper()
	entries := make([]kv.Entry, 0, items)
	for i := 0; i < items; i++ {
		entry := sampleEntry(partitionKey, prefix, i)
		err := store.Set(ctx, partitionKey, entry.Key, entry.Value)
		if err != nil {
			t.Fatalf("failed to setup data with '%s': %s", entry.String(), err)
		}
		entries = append(entries, entry)
	}
	return entries
}

func sampleEntry(partitionKey []byte, prefix string, n int) kv.Entry {
	k := fmt.Sprintf("%s-key-%04d", prefix, n)
	v := fmt.Sprintf("%s-value-%04d", prefix, n)
	return kv.Entry{PartitionKey: partitionKey, Key: []byte(k), Value: []byte(v)}
}

func readAll(t *testing.T, it kv.EntriesIterator) []kv.Entry {
	t.Helper()
	defer it.Close()
	var entries []kv.Entry
	for it.Next() {
		e := it.Entry()
		entries = append(entries, kv.Entry{PartitionKey: e.PartitionKey, Key: e.Key, Value: e.Value})
	}
	if err := it.Err(); err != nil {
		t.Fatalf("iteration failed: %s", err)
	}
	return entries
}

// MakeStoreByName returns a MakeStore that opens the named driver with params.
func MakeStoreByName(name string, params kvparams.Config) MakeStore {
	return func(t *testing.T, ctx context.Context) kv.Store {
		t.Helper()
		params.Type = name
		store, err := kv.Open(ctx, params)
		if err != nil {
			t.Fatalf("failed to open kv '%s' store: %s", name, err)
		}
		t.Cleanup(store.Close)
		return store
	}
}

// TestDriver runs the contract tests every kv driver must pass.
func TestDriver(t *testing.T, name string, params kvparams.Config) {
	ms := MakeStoreByName(name, params)
	t.Run("Driver_Open", func(t *testing.T) { testDriverOpen(t, ms) })
	t.Run("Store_SetGet", func(t *testing.T) { testStoreSetGet(t, ms) })
	t.Run("Store_SetIf", func(t *testing.T) { testStoreSetIf(t, ms) })
	t.Run("Store_Delete", func(t *testing.T) { testStoreDelete(t, ms) })
	t.Run("Store_Scan", func(t *testing.T) { testStoreScan(t, ms) })
	t.Run("Store_PartitionIsolation", func(t *testing.T) { testStorePartitionIsolation(t, ms) })
	t.Run("Store_MissingArgument", func(t *testing.T) { testStoreMissingArgument(t, ms) })
	t.Run("ScanPrefix", func(t *testing.T) { testScanPrefix(t, ms) })
	t.Run("DeletePrefix", func(t *testing.T) { testDeletePrefix(t, ms) })
}

func testDriverOpen(t *testing.T, ms MakeStore) {
	ctx := context.Background()
	store1 := ms(t, ctx)
	store2 := ms(t, ctx)
	if store1 == nil || store2 == nil {
		t.Fatal("expected stores to open")
	}
}

func testStoreSetGet(t *testing.T, ms MakeStore) {
	ctx := context.Background()
	store := ms(t, ctx)
	pk := uniquePartitionKey()

	testKey := []byte("key")
	testValue1 := []byte("value")
	testValue2 := []byte("a different kind of value")

	if err := store.Set(ctx, pk, testKey, testValue1); err != nil {
		t.Fatalf("failed to set key '%s', to value '%s': %s", testKey, testValue1, err)
	}
	val, err := store.Get(ctx, pk, testKey)
	switch {
	case err != nil:
		t.Fatalf("failed to get key '%s': %s", testKey, err)
	case val == nil:
		t.Fatal("got value with nil")
	case !bytes.Equal(testValue1, val.Value):
		t.Fatalf("key='%s' value='%s' doesn't match, expected='%s'", testKey, val.Value, testValue1)
	}

	if err := store.Set(ctx, pk, testKey, testValue2); err != nil {
		t.Fatalf("failed to set key '%s', to value '%s': %s", testKey, testValue2, err)
	}
	val2, err := store.Get(ctx, pk, testKey)
	if err != nil {
		t.Fatalf("failed to get key '%s': %s", testKey, err)
	}
	if !bytes.Equal(testValue2, val2.Value) {
		t.Fatalf("key='%s' value='%s' doesn't match, expected='%s'", testKey, val2.Value, testValue2)
	}

	val3, err := store.Get(ctx, pk, []byte("key-not-exists"))
	if !errors.Is(err, kv.ErrNotFound) {
		t.Fatalf("get missing key err=%v, expected not found", err)
	}
	if val3 != nil {
		t.Fatalf("get missing key value='%v', expected nil", val3)
	}
}

func testStoreSetIf(t *testing.T, ms MakeStore) {
	ctx := context.Background()
	store := ms(t, ctx)
	pk := uniquePartitionKey()
	key := []byte("set-if")

	t.Run("create_missing", func(t *testing.T) {
		if err := store.SetIf(ctx, pk, key, []byte("v1"), nil); err != nil {
			t.Fatalf("SetIf on missing key: %s", err)
		}
	})

	t.Run("create_existing", func(t *testing.T) {
		err := store.SetIf(ctx, pk, key, []byte("v2"), nil)
		if !errors.Is(err, kv.ErrPredicateFailed) {
			t.Fatalf("SetIf nil predicate on existing key err=%v, expected predicate failed", err)
		}
	})

	t.Run("matching_predicate", func(t *testing.T) {
		current, err := store.Get(ctx, pk, key)
		if err != nil {
			t.Fatalf("get: %s", err)
		}
		if err := store.SetIf(ctx, pk, key, []byte("v3"), current.Predicate); err != nil {
			t.Fatalf("SetIf with current predicate: %s", err)
		}
		got, err := store.Get(ctx, pk, key)
		if err != nil {
			t.Fatalf("get: %s", err)
		}
		if string(got.Value) != "v3" {
			t.Fatalf("value '%s', expected 'v3'", got.Value)
		}
	})

	t.Run("stale_predicate", func(t *testing.T) {
		err := store.SetIf(ctx, pk, key, []byte("v4"), kv.Predicate([]byte("v1")))
		if !errors.Is(err, kv.ErrPredicateFailed) {
			t.Fatalf("SetIf with stale predicate err=%v, expected predicate failed", err)
		}
	})

	t.Run("predicate_on_missing", func(t *testing.T) {
		err := store.SetIf(ctx, pk, []byte("missing"), []byte("v"), kv.Predicate([]byte("v")))
		if !errors.Is(err, kv.ErrPredicateFailed) {
			t.Fatalf("SetIf with predicate on missing key err=%v, expected predicate failed", err)
		}
	})
}

func testStoreDelete(t *testing.T, ms MakeStore) {
	ctx := context.Background()
	store := ms(t, ctx)
	pk := uniquePartitionKey()

	t.Run("exists", func(t *testing.T) {
		key := []byte("delete-exists")
		if err := store.Set(ctx, pk, key, []byte("value")); err != nil {
			t.Fatalf("set: %s", err)
		}
		if err := store.Delete(ctx, pk, key); err != nil {
			t.Fatalf("delete: %s", err)
		}
		if _, err := store.Get(ctx, pk, key); !errors.Is(err, kv.ErrNotFound) {
			t.Fatalf("get after delete err=%v, expected not found", err)
		}
	})

	t.Run("not_exists", func(t *testing.T) {
		if err := store.Delete(ctx, pk, []byte("delete-not-exists")); err != nil {
			t.Fatalf("delete missing key: %s", err)
		}
	})
}

func testStoreScan(t *testing.T, ms MakeStore) {
	ctx := context.Background()
	store := ms(t, ctx)
	pk := uniquePartitionKey()
	const sampleItems = 25
	sampleData := setupSampleData(t, ctx, store, pk, "scan", sampleItems)

	t.Run("all", func(t *testing.T) {
		it, err := store.Scan(ctx, pk, kv.ScanOptions{})
		if err != nil {
			t.Fatalf("scan: %s", err)
		}
		if diff := deep.Equal(readAll(t, it), sampleData); diff != nil {
			t.Fatalf("scan all: %s", diff)
		}
	})

	t.Run("from_middle", func(t *testing.T) {
		const from = 10
		it, err := store.Scan(ctx, pk, kv.ScanOptions{KeyStart: sampleData[from].Key})
		if err != nil {
			t.Fatalf("scan: %s", err)
		}
		if diff := deep.Equal(readAll(t, it), sampleData[from:]); diff != nil {
			t.Fatalf("scan from %d: %s", from, diff)
		}
	})

	t.Run("small_batch", func(t *testing.T) {
		it, err := store.Scan(ctx, pk, kv.ScanOptions{BatchSize: 3})
		if err != nil {
			t.Fatalf("scan: %s", err)
		}
		if diff := deep.Equal(readAll(t, it), sampleData); diff != nil {
			t.Fatalf("scan in batches: %s", diff)
		}
	})

	t.Run("after_last", func(t *testing.T) {
		it, err := store.Scan(ctx, pk, kv.ScanOptions{KeyStart: []byte("zzz")})
		if err != nil {
			t.Fatalf("scan: %s", err)
		}
		if entries := readAll(t, it); len(entries) != 0 {
			t.Fatalf("scan after last key got %d entries", len(entries))
		}
	})
}

func testStorePartitionIsolation(t *testing.T, ms MakeStore) {
	ctx := context.Background()
	store := ms(t, ctx)
	pk1 := uniquePartitionKey()
	pk2 := uniquePartitionKey()
	data1 := setupSampleData(t, ctx, store, pk1, "a", 3)
	_ = setupSampleData(t, ctx, store, pk2, "a", 5)

	it, err := store.Scan(ctx, pk1, kv.ScanOptions{})
	if err != nil {
		t.Fatalf("scan: %s", err)
	}
	if diff := deep.Equal(readAll(t, it), data1); diff != nil {
		t.Fatalf("scan partition: %s", diff)
	}
	if _, err := store.Get(ctx, uniquePartitionKey(), data1[0].Key); !errors.Is(err, kv.ErrNotFound) {
		t.Fatalf("get from other partition err=%v, expected not found", err)
	}
}

func testStoreMissingArgument(t *testing.T, ms MakeStore) {
	ctx := context.Background()
	store := ms(t, ctx)
	pk := uniquePartitionKey()

	if _, err := store.Get(ctx, pk, nil); !errors.Is(err, kv.ErrMissingKey) {
		t.Errorf("Get without key err=%v, expected %s", err, kv.ErrMissingKey)
	}
	if _, err := store.Get(ctx, nil, []byte("k")); !errors.Is(err, kv.ErrMissingPartitionKey) {
		t.Errorf("Get without partition err=%v, expected %s", err, kv.ErrMissingPartitionKey)
	}
	if err := store.Set(ctx, pk, nil, []byte("v")); !errors.Is(err, kv.ErrMissingKey) {
		t.Errorf("Set without key err=%v, expected %s", err, kv.ErrMissingKey)
	}
	if err := store.Set(ctx, pk, []byte("k"), nil); !errors.Is(err, kv.ErrMissingValue) {
		t.Errorf("Set without value err=%v, expected %s", err, kv.ErrMissingValue)
	}
	if err := store.SetIf(ctx, pk, nil, []byte("v"), nil); !errors.Is(err, kv.ErrMissingKey) {
		t.Errorf("SetIf without key err=%v, expected %s", err, kv.ErrMissingKey)
	}
	if err := store.Delete(ctx, pk, nil); !errors.Is(err, kv.ErrMissingKey) {
		t.Errorf("Delete without key err=%v, expected %s", err, kv.ErrMissingKey)
	}
	if _, err := store.Scan(ctx, nil, kv.ScanOptions{}); !errors.Is(err, kv.ErrMissingPartitionKey) {
		t.Errorf("Scan without partition err=%v, expected %s", err, kv.ErrMissingPartitionKey)
	}
}

func testScanPrefix(t *testing.T, ms MakeStore) {
	ctx := context.Background()
	store := ms(t, ctx)
	pk := uniquePartitionKey()
	_ = setupSampleData(t, ctx, store, pk, "prefix-a", 4)
	dataB := setupSampleData(t, ctx, store, pk, "prefix-b", 5)
	_ = setupSampleData(t, ctx, store, pk, "prefix-c", 3)

	t.Run("prefix", func(t *testing.T) {
		it, err := kv.ScanPrefix(ctx, store, pk, []byte("prefix-b"), nil)
		if err != nil {
			t.Fatalf("scan prefix: %s", err)
		}
		if diff := deep.Equal(readAll(t, it), dataB); diff != nil {
			t.Fatalf("scan prefix: %s", diff)
		}
	})

	t.Run("after", func(t *testing.T) {
		it, err := kv.ScanPrefix(ctx, store, pk, []byte("prefix-b"), dataB[1].Key)
		if err != nil {
			t.Fatalf("scan prefix: %s", err)
		}
		if diff := deep.Equal(readAll(t, it), dataB[2:]); diff != nil {
			t.Fatalf("scan prefix after: %s", diff)
		}
	})

	t.Run("no_match", func(t *testing.T) {
		it, err := kv.ScanPrefix(ctx, store, pk, []byte("prefix-z"), nil)
		if err != nil {
			t.Fatalf("scan prefix: %s", err)
		}
		if entries := readAll(t, it); len(entries) != 0 {
			t.Fatalf("scan unknown prefix got %d entries", len(entries))
		}
	})
}

func testDeletePrefix(t *testing.T, ms MakeStore) {
	ctx := context.Background()
	store := ms(t, ctx)
	pk := uniquePartitionKey()
	dataA := setupSampleData(t, ctx, store, pk, "del-a", 3)
	_ = setupSampleData(t, ctx, store, pk, "del-b", 4)

	n, err := kv.DeletePrefix(ctx, store, pk, []byte("del-b"))
	if err != nil {
		t.Fatalf("delete prefix: %s", err)
	}
	if n != 4 {
		t.Fatalf("deleted %d keys, expected 4", n)
	}
	it, err := store.Scan(ctx, pk, kv.ScanOptions{})
	if err != nil {
		t.Fatalf("scan: %s", err)
	}
	if diff := deep.Equal(readAll(t, it), dataA); diff != nil {
		t.Fatalf("after delete prefix: %s", diff)
	}
}
