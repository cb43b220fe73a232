// ABOUTME: Service implements create, list, get, update and delete over an ItemStore
// ABOUTME: Assigns IDs and timestamps and keeps updatedAt non-decreasing per item

package todo

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/2389/todo-gateway/internal/store"
)

// Service runs the to-do operations against a single item collection.
type Service struct {
	store      store.ItemStore
	now        func() time.Time
	newID      func() string
	optimistic bool
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithIDGenerator overrides UUIDv4 generation.
func WithIDGenerator(newID func() string) Option {
	return func(s *Service) { s.newID = newID }
}

// WithOptimisticUpdates makes Update a conditional write keyed on the
// updatedAt stamp it read, when the store implements store.ConditionalUpdater.
func WithOptimisticUpdates(enabled bool) Option {
	return func(s *Service) { s.optimistic = enabled }
}

// New creates a Service over st.
func New(st store.ItemStore, opts ...Option) *Service {
	s := &Service{
		store: st,
		now:   time.Now,
		newID: func() string { return uuid.New().String() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// stamp returns the current time in store.TimestampLayout, never earlier
// than prev.
func (s *Service) stamp(prev string) string {
	now := store.FormatTimestamp(s.now())
	if now < prev {
		return prev
	}
	return now
}

// Create stores a new item with a fresh ID, completed=false and
// createdAt == updatedAt.
func (s *Service) Create(ctx context.Context, in CreateInput) (*store.Item, error) {
	now := s.stamp("")
	item := &store.Item{
		ID:             s.newID(),
		Title:          in.Title,
		Completed:      false,
		CreatedAt:      now,
		UpdatedAt:      now,
		IndexPartition: store.IndexPartition,
	}
	if err := s.store.Insert(ctx, item); err != nil {
		return nil, storeError("insert", err)
	}
	return item, nil
}

// List returns every item, most recently updated first. Never nil.
func (s *Service) List(ctx context.Context) ([]*store.Item, error) {
	items, err := s.store.ListAllOrderedByRecency(ctx)
	if err != nil {
		return nil, storeError("list", err)
	}
	if items == nil {
		items = []*store.Item{}
	}
	return items, nil
}

// Get returns a single item.
func (s *Service) Get(ctx context.Context, id string) (*store.Item, error) {
	item, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, storeError("get", err)
	}
	return item, nil
}

// Update applies the present fields of in to the item and refreshes
// updatedAt. A missing item yields ErrNotFound and nothing is written.
func (s *Service) Update(ctx context.Context, id string, in UpdateInput) (*store.Item, error) {
	current, err := s.store.GetByID(ctx, id)
	if err != nil {
		return nil, storeError("get", err)
	}

	next := current.Clone()
	if in.Title != nil {
		next.Title = *in.Title
	}
	if in.Completed != nil {
		next.Completed = *in.Completed
	}
	next.UpdatedAt = s.stamp(current.UpdatedAt)
	next.IndexPartition = store.IndexPartition

	if cu, ok := s.store.(store.ConditionalUpdater); ok && s.optimistic {
		err = cu.UpdateIfUnchanged(ctx, next, current.UpdatedAt)
	} else {
		err = s.store.Update(ctx, next)
	}
	if err != nil {
		return nil, storeError("update", err)
	}
	return next, nil
}

// Delete removes an item. Deleting a missing item yields ErrNotFound.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return storeError("delete", err)
	}
	return nil
}
