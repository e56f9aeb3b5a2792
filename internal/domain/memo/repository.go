package memo

import (
	"context"

	"github.com/creditledger/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// CreditMemoFilter describes credit memo query criteria
type CreditMemoFilter struct {
	shared.Filter
	CustomerID *uuid.UUID
	Status     *MemoStatus
	Type       *MemoType
}

// CreditMemoRepository defines the interface for credit memo persistence
type CreditMemoRepository interface {
	// FindByID finds a credit memo by ID
	FindByID(ctx context.Context, id uuid.UUID) (*CreditMemo, error)

	// FindByMemoNumber finds a credit memo by its memo number
	FindByMemoNumber(ctx context.Context, memoNumber string) (*CreditMemo, error)

	// FindByCustomer finds all credit memos for a customer, newest first
	FindByCustomer(ctx context.Context, customerID uuid.UUID) ([]CreditMemo, error)

	// FindAll finds credit memos matching the filter
	FindAll(ctx context.Context, filter CreditMemoFilter) ([]CreditMemo, error)

	// NextMemoNumber allocates the next sequential memo number for the
	// given memo type, e.g. CM-Q-000124
	NextMemoNumber(ctx context.Context, memoType MemoType) (string, error)

	// Save persists a credit memo
	Save(ctx context.Context, memo *CreditMemo) error

	// SaveWithLock saves with optimistic locking (version check)
	SaveWithLock(ctx context.Context, memo *CreditMemo) error

	// Count counts credit memos matching the filter
	Count(ctx context.Context, filter CreditMemoFilter) (int64, error)
}

// DamageReportRepository defines the interface for damage report persistence
type DamageReportRepository interface {
	// FindByID finds a damage report by ID
	FindByID(ctx context.Context, id uuid.UUID) (*DamageReport, error)

	// FindByCustomer finds all damage reports for a customer
	FindByCustomer(ctx context.Context, customerID uuid.UUID) ([]DamageReport, error)

	// Save persists a damage report
	Save(ctx context.Context, report *DamageReport) error
}
