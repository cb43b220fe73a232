// ABOUTME: Item type and ItemStore interface for todo persistence
// ABOUTME: Defines the fixed-partition recency index contract shared by all backends

package store

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a requested item does not exist
var ErrNotFound = errors.New("not found")

// ErrConflict is returned by conditional writes when the stored item changed underneath the caller
var ErrConflict = errors.New("item modified concurrently")

// IndexPartition is the constant partition value every item carries.
// Funneling all items into one partition turns the (partition, updatedAt)
// secondary path into a single globally sorted range.
const IndexPartition = "TODO"

// IndexName is the name of the secondary ordered path.
const IndexName = "UpdatedAtIndex"

// TimestampLayout is a fixed-width ISO-8601 layout. Every stamp has the same
// length, so byte order equals chronological order.
const TimestampLayout = "2006-01-02T15:04:05.000000000Z"

// FormatTimestamp renders t in TimestampLayout (UTC).
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(TimestampLayout)
}

// ParseTimestamp parses an ISO-8601 timestamp produced by FormatTimestamp
// or any other RFC 3339 writer.
func ParseTimestamp(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}

// Item is a single to-do record
type Item struct {
	ID             string `json:"id" dynamodbav:"todoId"`
	Title          string `json:"title" dynamodbav:"title"`
	Completed      bool   `json:"completed" dynamodbav:"completed"`
	CreatedAt      string `json:"createdAt" dynamodbav:"createdAt"`
	UpdatedAt      string `json:"updatedAt" dynamodbav:"updatedAt"`
	IndexPartition string `json:"-" dynamodbav:"GSI_PK"`
}

// Clone returns a copy of the item.
func (i *Item) Clone() *Item {
	c := *i
	return &c
}

// ItemStore defines persistence for todo items.
//
// Insert and Update are both full overwrites keyed by ID; neither checks
// existence. Callers that need "must exist" semantics read first with GetByID.
type ItemStore interface {
	// Insert writes a new item unconditionally. A duplicate ID overwrites.
	Insert(ctx context.Context, item *Item) error

	// GetByID returns ErrNotFound if no item has the given ID.
	GetByID(ctx context.Context, id string) (*Item, error)

	// Update overwrites the full record keyed by item.ID.
	Update(ctx context.Context, item *Item) error

	// Delete removes the item, returning ErrNotFound if it does not exist.
	Delete(ctx context.Context, id string) error

	// ListAllOrderedByRecency returns every item in IndexPartition ordered by
	// UpdatedAt descending (ties broken by ID descending). Never nil.
	ListAllOrderedByRecency(ctx context.Context) ([]*Item, error)

	// Close releases any resources held by the store
	Close() error
}

// ConditionalUpdater is implemented by stores that can overwrite an item only
// if its stored UpdatedAt still equals expectedUpdatedAt.
// Returns ErrConflict on a stale stamp and ErrNotFound if the item is gone.
type ConditionalUpdater interface {
	UpdateIfUnchanged(ctx context.Context, item *Item, expectedUpdatedAt string) error
}

// Pinger is implemented by stores that can report backend reachability.
type Pinger interface {
	Ping(ctx context.Context) error
}
