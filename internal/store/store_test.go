// ABOUTME: Behavioral tests shared by every ItemStore backend
// ABOUTME: Covers overwrite semantics, delete-twice, and recency ordering of the index

package store

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var baseTime = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// stamp returns a timestamp offset seconds after baseTime.
func stamp(offset int) string {
	return FormatTimestamp(baseTime.Add(time.Duration(offset) * time.Second))
}

func newItem(id, title string, updatedOffset int) *Item {
	return &Item{
		ID:             id,
		Title:          title,
		CreatedAt:      stamp(0),
		UpdatedAt:      stamp(updatedOffset),
		IndexPartition: IndexPartition,
	}
}

func ids(items []*Item) []string {
	out := make([]string, len(items))
	for i, item := range items {
		out[i] = item.ID
	}
	return out
}

type storeFactory func(t *testing.T) ItemStore

func backends() map[string]storeFactory {
	return map[string]storeFactory{
		"memory": func(t *testing.T) ItemStore {
			return NewMemoryStore()
		},
		"sqlite": func(t *testing.T) ItemStore {
			return setupTestStore(t)
		},
		"dynamodb": func(t *testing.T) ItemStore {
			return NewDynamoStoreWithClient(newFakeDynamo(2), "todos")
		},
	}
}

func setupTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	s, err := NewSQLiteStore(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestItemStore_InsertAndGet(t *testing.T) {
	for name, factory := range backends() {
		t.Run(name, func(t *testing.T) {
			s := factory(t)
			ctx := context.Background()

			item := newItem("a", "Buy milk", 1)
			require.NoError(t, s.Insert(ctx, item))

			got, err := s.GetByID(ctx, "a")
			require.NoError(t, err)
			assert.Equal(t, item, got)
		})
	}
}

func TestItemStore_GetByID_NotFound(t *testing.T) {
	for name, factory := range backends() {
		t.Run(name, func(t *testing.T) {
			s := factory(t)

			_, err := s.GetByID(context.Background(), "missing")
			assert.ErrorIs(t, err, ErrNotFound)
		})
	}
}

func TestItemStore_InsertDuplicateOverwrites(t *testing.T) {
	for name, factory := range backends() {
		t.Run(name, func(t *testing.T) {
			s := factory(t)
			ctx := context.Background()

			require.NoError(t, s.Insert(ctx, newItem("a", "first", 1)))
			require.NoError(t, s.Insert(ctx, newItem("a", "second", 2)))

			got, err := s.GetByID(ctx, "a")
			require.NoError(t, err)
			assert.Equal(t, "second", got.Title)

			items, err := s.ListAllOrderedByRecency(ctx)
			require.NoError(t, err)
			assert.Len(t, items, 1)
		})
	}
}

func TestItemStore_UpdateOverwritesFullRecord(t *testing.T) {
	for name, factory := range backends() {
		t.Run(name, func(t *testing.T) {
			s := factory(t)
			ctx := context.Background()

			require.NoError(t, s.Insert(ctx, newItem("a", "Buy milk", 1)))

			updated := newItem("a", "Buy oat milk", 5)
			updated.Completed = true
			require.NoError(t, s.Update(ctx, updated))

			got, err := s.GetByID(ctx, "a")
			require.NoError(t, err)
			assert.Equal(t, "Buy oat milk", got.Title)
			assert.True(t, got.Completed)
			assert.Equal(t, stamp(5), got.UpdatedAt)
		})
	}
}

func TestItemStore_DeleteTwice(t *testing.T) {
	for name, factory := range backends() {
		t.Run(name, func(t *testing.T) {
			s := factory(t)
			ctx := context.Background()

			require.NoError(t, s.Insert(ctx, newItem("a", "Buy milk", 1)))
			require.NoError(t, s.Delete(ctx, "a"))

			err := s.Delete(ctx, "a")
			assert.ErrorIs(t, err, ErrNotFound)

			_, err = s.GetByID(ctx, "a")
			assert.ErrorIs(t, err, ErrNotFound)
		})
	}
}

func TestItemStore_ListEmpty(t *testing.T) {
	for name, factory := range backends() {
		t.Run(name, func(t *testing.T) {
			s := factory(t)

			items, err := s.ListAllOrderedByRecency(context.Background())
			require.NoError(t, err)
			assert.NotNil(t, items)
			assert.Empty(t, items)
		})
	}
}

func TestItemStore_ListOrderedByRecency(t *testing.T) {
	for name, factory := range backends() {
		t.Run(name, func(t *testing.T) {
			s := factory(t)
			ctx := context.Background()

			// Inserted out of order on purpose
			require.NoError(t, s.Insert(ctx, newItem("b", "second", 2)))
			require.NoError(t, s.Insert(ctx, newItem("c", "third", 3)))
			require.NoError(t, s.Insert(ctx, newItem("a", "first", 1)))

			items, err := s.ListAllOrderedByRecency(ctx)
			require.NoError(t, err)
			assert.Equal(t, []string{"c", "b", "a"}, ids(items))
		})
	}
}

func TestItemStore_UpdateMovesItemToFront(t *testing.T) {
	for name, factory := range backends() {
		t.Run(name, func(t *testing.T) {
			s := factory(t)
			ctx := context.Background()

			for i, id := range []string{"a", "b", "c"} {
				require.NoError(t, s.Insert(ctx, newItem(id, id, i+1)))
			}
			require.NoError(t, s.Update(ctx, newItem("a", "touched", 10)))

			items, err := s.ListAllOrderedByRecency(ctx)
			require.NoError(t, err)
			assert.Equal(t, []string{"a", "c", "b"}, ids(items))
		})
	}
}

func TestItemStore_ListBreaksTiesByIDDescending(t *testing.T) {
	for name, factory := range backends() {
		t.Run(name, func(t *testing.T) {
			s := factory(t)
			ctx := context.Background()

			for _, id := range []string{"m", "z", "a"} {
				require.NoError(t, s.Insert(ctx, newItem(id, id, 7)))
			}

			items, err := s.ListAllOrderedByRecency(ctx)
			require.NoError(t, err)
			assert.Equal(t, []string{"z", "m", "a"}, ids(items))
		})
	}
}

func TestItemStore_ListSkipsOtherPartitions(t *testing.T) {
	for name, factory := range backends() {
		t.Run(name, func(t *testing.T) {
			s := factory(t)
			ctx := context.Background()

			require.NoError(t, s.Insert(ctx, newItem("a", "indexed", 1)))
			stray := newItem("b", "stray", 2)
			stray.IndexPartition = "ARCHIVE"
			require.NoError(t, s.Insert(ctx, stray))

			items, err := s.ListAllOrderedByRecency(ctx)
			require.NoError(t, err)
			assert.Equal(t, []string{"a"}, ids(items))
		})
	}
}

func TestItemStore_ListManyItems(t *testing.T) {
	for name, factory := range backends() {
		t.Run(name, func(t *testing.T) {
			s := factory(t)
			ctx := context.Background()

			const n = 25
			for i := 0; i < n; i++ {
				require.NoError(t, s.Insert(ctx, newItem(fmt.Sprintf("item-%02d", i), "x", i)))
			}

			items, err := s.ListAllOrderedByRecency(ctx)
			require.NoError(t, err)
			require.Len(t, items, n)
			for i := 1; i < len(items); i++ {
				assert.GreaterOrEqual(t, items[i-1].UpdatedAt, items[i].UpdatedAt)
			}
			assert.Equal(t, "item-24", items[0].ID)
		})
	}
}

func TestItemStore_UpdateIfUnchanged(t *testing.T) {
	for name, factory := range backends() {
		t.Run(name, func(t *testing.T) {
			s := factory(t)
			cu, ok := s.(ConditionalUpdater)
			require.True(t, ok, "backend should support conditional updates")
			ctx := context.Background()

			require.NoError(t, s.Insert(ctx, newItem("a", "v1", 1)))

			// Matching stamp wins
			require.NoError(t, cu.UpdateIfUnchanged(ctx, newItem("a", "v2", 2), stamp(1)))

			// Stale stamp loses and leaves the record alone
			err := cu.UpdateIfUnchanged(ctx, newItem("a", "v3", 3), stamp(1))
			assert.ErrorIs(t, err, ErrConflict)

			got, err := s.GetByID(ctx, "a")
			require.NoError(t, err)
			assert.Equal(t, "v2", got.Title)

			err = cu.UpdateIfUnchanged(ctx, newItem("missing", "x", 4), stamp(1))
			assert.ErrorIs(t, err, ErrNotFound)
		})
	}
}

func TestItemStore_Ping(t *testing.T) {
	for name, factory := range backends() {
		t.Run(name, func(t *testing.T) {
			s := factory(t)
			p, ok := s.(Pinger)
			require.True(t, ok)
			assert.NoError(t, p.Ping(context.Background()))
		})
	}
}

func TestFormatTimestamp_FixedWidth(t *testing.T) {
	a := FormatTimestamp(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC))
	b := FormatTimestamp(time.Date(2024, 1, 1, 0, 0, 0, 500_000_000, time.UTC))
	c := FormatTimestamp(time.Date(2024, 1, 1, 0, 0, 0, 1, time.FixedZone("CET", 3600)))

	assert.Equal(t, "2024-01-01T00:00:00.000000000Z", a)
	assert.Equal(t, "2024-01-01T00:00:00.500000000Z", b)
	assert.Equal(t, "2023-12-31T23:00:00.000000001Z", c)
	assert.Len(t, b, len(a))
	assert.Less(t, a, b)

	parsed, err := ParseTimestamp(b)
	require.NoError(t, err)
	assert.Equal(t, 500_000_000, parsed.Nanosecond())
}
