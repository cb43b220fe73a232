// ABOUTME: Backend selection for ItemStore construction
// ABOUTME: Opens a memory, SQLite, or DynamoDB store from a single options struct

package store

import (
	"context"
	"fmt"
)

// Backend names accepted by Open.
const (
	BackendMemory   = "memory"
	BackendSQLite   = "sqlite"
	BackendDynamoDB = "dynamodb"
)

// OpenOptions selects and configures a backend.
type OpenOptions struct {
	Backend    string
	SQLitePath string
	Dynamo     DynamoOptions

	// CreateTable runs DynamoStore.EnsureTable after connecting.
	CreateTable bool
}

// Open constructs the ItemStore named by opts.Backend.
func Open(ctx context.Context, opts OpenOptions) (ItemStore, error) {
	switch opts.Backend {
	case BackendMemory:
		return NewMemoryStore(), nil
	case BackendSQLite, "":
		s, err := NewSQLiteStore(opts.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("opening sqlite store: %w", err)
		}
		return s, nil
	case BackendDynamoDB:
		s, err := NewDynamoStore(ctx, opts.Dynamo)
		if err != nil {
			return nil, fmt.Errorf("opening dynamodb store: %w", err)
		}
		if opts.CreateTable {
			if err := s.EnsureTable(ctx); err != nil {
				return nil, fmt.Errorf("ensuring dynamodb table: %w", err)
			}
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown store backend %q", opts.Backend)
	}
}
