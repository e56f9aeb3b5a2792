package billing

import (
	"context"

	"github.com/creditledger/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// InvoiceFilter describes invoice query criteria
type InvoiceFilter struct {
	shared.Filter
	CustomerID *uuid.UUID
	Status     *InvoiceStatus
}

// InvoiceRepository defines the interface for invoice persistence
type InvoiceRepository interface {
	// FindByID finds an invoice by ID
	FindByID(ctx context.Context, id uuid.UUID) (*Invoice, error)

	// FindByNumber finds an invoice by its invoice number
	FindByNumber(ctx context.Context, number string) (*Invoice, error)

	// FindByCustomer finds all invoices for a customer, most recent first
	FindByCustomer(ctx context.Context, customerID uuid.UUID) ([]Invoice, error)

	// FindLatestPendingByCustomer returns the customer's most recent
	// pending invoice by invoice date, or shared.ErrNotFound when the
	// customer has no pending invoices
	FindLatestPendingByCustomer(ctx context.Context, customerID uuid.UUID) (*Invoice, error)

	// FindAll finds invoices matching the filter
	FindAll(ctx context.Context, filter InvoiceFilter) ([]Invoice, error)

	// Save persists an invoice
	Save(ctx context.Context, invoice *Invoice) error

	// SaveWithLock saves with optimistic locking (version check)
	SaveWithLock(ctx context.Context, invoice *Invoice) error

	// Count counts invoices matching the filter
	Count(ctx context.Context, filter InvoiceFilter) (int64, error)
}
