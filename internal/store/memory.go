// ABOUTME: In-memory ItemStore backed by a map and a B-tree recency index
// ABOUTME: Used by tests and the "memory" backend; mirrors SQLiteStore semantics

package store

import (
	"context"
	"sync"

	"github.com/google/btree"
)

// indexEntry is one key of the secondary ordered path.
type indexEntry struct {
	partition string
	updatedAt string
	id        string
}

func lessIndexEntry(a, b indexEntry) bool {
	if a.partition != b.partition {
		return a.partition < b.partition
	}
	if a.updatedAt != b.updatedAt {
		return a.updatedAt < b.updatedAt
	}
	return a.id < b.id
}

// indexUpperBound sorts after every real entry in a partition. 0xff never
// appears in a valid UTF-8 timestamp.
func indexUpperBound(partition string) indexEntry {
	return indexEntry{partition: partition, updatedAt: "\xff"}
}

// MemoryStore is an in-memory ItemStore implementation.
type MemoryStore struct {
	mu    sync.RWMutex
	items map[string]*Item          // keyed by item ID
	index *btree.BTreeG[indexEntry] // (partition, updatedAt, id)
}

// NewMemoryStore creates a new MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		items: make(map[string]*Item),
		index: btree.NewG(16, lessIndexEntry),
	}
}

// put overwrites the item and keeps the index in step. Caller holds mu.
func (m *MemoryStore) put(item *Item) {
	if old, ok := m.items[item.ID]; ok {
		m.index.Delete(entryFor(old))
	}
	// Make a copy to avoid external modification
	c := item.Clone()
	m.items[c.ID] = c
	m.index.ReplaceOrInsert(entryFor(c))
}

func entryFor(item *Item) indexEntry {
	return indexEntry{partition: item.IndexPartition, updatedAt: item.UpdatedAt, id: item.ID}
}

// Insert stores an item, overwriting any item with the same ID.
func (m *MemoryStore) Insert(ctx context.Context, item *Item) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.put(item)
	return nil
}

// GetByID retrieves an item by ID.
func (m *MemoryStore) GetByID(ctx context.Context, id string) (*Item, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	item, ok := m.items[id]
	if !ok {
		return nil, ErrNotFound
	}

	// Return a copy
	return item.Clone(), nil
}

// Update overwrites the item keyed by item.ID.
func (m *MemoryStore) Update(ctx context.Context, item *Item) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.put(item)
	return nil
}

// UpdateIfUnchanged overwrites the item only if the stored UpdatedAt matches.
func (m *MemoryStore) UpdateIfUnchanged(ctx context.Context, item *Item, expectedUpdatedAt string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	current, ok := m.items[item.ID]
	if !ok {
		return ErrNotFound
	}
	if current.UpdatedAt != expectedUpdatedAt {
		return ErrConflict
	}

	m.put(item)
	return nil
}

// Delete removes an item by ID.
func (m *MemoryStore) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	item, ok := m.items[id]
	if !ok {
		return ErrNotFound
	}

	m.index.Delete(entryFor(item))
	delete(m.items, id)
	return nil
}

// ListAllOrderedByRecency walks the IndexPartition range of the B-tree from
// the newest stamp down.
func (m *MemoryStore) ListAllOrderedByRecency(ctx context.Context) ([]*Item, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	items := make([]*Item, 0, m.index.Len())
	m.index.DescendLessOrEqual(indexUpperBound(IndexPartition), func(e indexEntry) bool {
		if e.partition != IndexPartition {
			return false
		}
		items = append(items, m.items[e.id].Clone())
		return true
	})
	return items, nil
}

// Ping always succeeds.
func (m *MemoryStore) Ping(ctx context.Context) error {
	return nil
}

// Close is a no-op for the in-memory store.
func (m *MemoryStore) Close() error {
	return nil
}
