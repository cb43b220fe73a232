// Package todo implements the to-do operations over a store.ItemStore.
//
// # Operations
//
// Service exposes one method per request kind: Create, List, Get, Update and
// Delete. Each runs to completion against the store with no orchestration
// between them. The service assigns IDs (UUIDv4) and timestamps; clients can
// only set title and completed.
//
// Update is read-then-write. Without optimistic updates two concurrent
// updates to the same item can lose one of the writes. WithOptimisticUpdates
// turns the write into a conditional write keyed on the updatedAt stamp that
// was read, and a lost race surfaces as ErrConflict.
//
// # Errors
//
//   - ErrNotFound: the item does not exist
//   - ErrValidation: the request body is not an acceptable JSON object
//   - ErrConflict: an optimistic update lost a race
//   - *StoreError: any other backend failure, carrying the failing operation
//
// The service never logs. Transports decide what to log and how to map each
// error to a response.
package todo
