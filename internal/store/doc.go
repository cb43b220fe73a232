// Package store provides persistent storage for todo items.
//
// # Architecture
//
// ItemStore is the single storage contract. Three backends implement it:
//
//   - MemoryStore: map keyed by ID plus a B-tree ordered index (github.com/google/btree)
//   - SQLiteStore: modernc.org/sqlite with a composite (gsi_pk, updated_at, id) index
//   - DynamoStore: Amazon DynamoDB with the UpdatedAtIndex global secondary index
//
// Optional capabilities are exposed as small interfaces and type-asserted by
// callers:
//
//   - ConditionalUpdater: version-stamp conditional writes keyed on updatedAt
//   - Pinger: backend reachability for readiness probes
//
// # Recency Index
//
// Every item carries IndexPartition ("TODO"). The secondary path is keyed by
// (IndexPartition, UpdatedAt), so listing is a single range query on one
// partition walked in descending order. All writes land in that one logical
// partition; this is the scaling ceiling of the design.
//
// Timestamps are fixed-width strings (TimestampLayout). Lexicographic order on
// them is chronological order, which is what every backend sorts by.
//
// # Error Handling
//
// Common errors:
//
//   - ErrNotFound: requested item does not exist (GetByID, Delete)
//   - ErrConflict: conditional write found a newer stamp (UpdateIfUnchanged)
//
// Backend failures are wrapped with the failing operation. Nothing is retried
// here; the SDK client and database/sql pool own retries and timeouts.
//
// # Testing
//
// Use NewMemoryStore() for unit tests and NewSQLiteStore(":memory:") for
// integration tests with real SQLite. DynamoStore accepts any DynamoAPI, so
// tests substitute an in-memory fake.
package store
