package shared

import (
	"context"

	"github.com/google/uuid"
)

// CustomerLockManager serializes mutating operations against a single
// customer's credits and invoices. Acquire blocks until the lock is held or
// the context is done; the returned function releases the lock.
//
// Read-only paths do not take the lock and may observe state that changes
// immediately after the read.
type CustomerLockManager interface {
	// Acquire takes the mutual-exclusion scope for the given customer
	Acquire(ctx context.Context, customerID uuid.UUID) (release func(), err error)

	// Close releases any resources held by the manager
	Close() error
}
