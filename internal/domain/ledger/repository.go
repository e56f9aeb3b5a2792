package ledger

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CreditGrantFilter defines filtering options for grant queries
type CreditGrantFilter struct {
	CustomerID *uuid.UUID
	Status     *GrantStatus
	SourceType *GrantSourceType
	Category   *string
	EarnedFrom *time.Time
	EarnedTo   *time.Time
}

// CreditGrantRepository defines the interface for credit grant persistence
type CreditGrantRepository interface {
	// FindByID finds a credit grant by ID
	FindByID(ctx context.Context, id uuid.UUID) (*CreditGrant, error)

	// FindByCustomer finds all grants for a customer, oldest earned first
	FindByCustomer(ctx context.Context, customerID uuid.UUID) ([]CreditGrant, error)

	// FindAll finds grants matching the filter
	FindAll(ctx context.Context, filter CreditGrantFilter) ([]CreditGrant, error)

	// Save creates or updates a credit grant
	Save(ctx context.Context, grant *CreditGrant) error

	// SaveWithLock saves with optimistic locking (version check)
	SaveWithLock(ctx context.Context, grant *CreditGrant) error

	// SumActiveByCustomer sums remaining balances of grants that are
	// spendable at the given time (status + balance + expiry checks)
	SumActiveByCustomer(ctx context.Context, customerID uuid.UUID, at time.Time) (decimal.Decimal, error)
}
