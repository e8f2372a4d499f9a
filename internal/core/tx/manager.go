// Package tx provides transaction management abstractions.
// The interfaces decouple domain engines from the storage implementation;
// the concrete manager lives in infrastructure/storage/postgres.
package tx

import (
	"context"
)

// Manager defines the contract for transaction management.
// Implementations handle BEGIN, COMMIT, ROLLBACK, and nested transaction
// reuse. Domain services depend on this interface, not on pgx.
type Manager interface {
	// RunInTransaction executes fn within a database transaction.
	// If fn returns an error, the transaction is rolled back.
	// If fn succeeds, the transaction is committed.
	//
	// Nested calls reuse the existing transaction from context.
	RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

// SerializableManager extends Manager for the settlement and procurement
// atomic units, which require serializable-or-better isolation: the stock
// check and stock decrement of one unit must not interleave with another
// unit's write to the same book, nor the balance check with another debit
// for the same customer.
type SerializableManager interface {
	Manager

	// RunSerializable executes fn in a serializable read-write transaction.
	RunSerializable(ctx context.Context, fn func(ctx context.Context) error) error
}

// ReadOnlyManager extends Manager with read-only transaction support.
// Use for queries that don't modify data.
type ReadOnlyManager interface {
	Manager

	// ReadOnly executes fn in a read-only transaction.
	ReadOnly(ctx context.Context, fn func(ctx context.Context) error) error
}
