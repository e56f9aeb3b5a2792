package credit

import (
	"context"
	"errors"
	"fmt"

	"github.com/creditledger/backend/internal/domain/billing"
	"github.com/creditledger/backend/internal/domain/partner"
	"github.com/creditledger/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// resolverPageSize is the page size used when walking the customer list
// for a fuzzy name lookup.
const resolverPageSize = 1000

// RefResolver turns free-form customer and invoice references into
// aggregates. A customer reference may be a UUID, a customer code, or a
// free-text name matched with the fuzzy policy in the partner domain. An
// invoice reference may be a UUID or an invoice number; an empty invoice
// reference selects the customer's latest pending invoice.
type RefResolver struct {
	customerRepo partner.CustomerRepository
	invoiceRepo  billing.InvoiceRepository
}

// NewRefResolver creates a new RefResolver
func NewRefResolver(customerRepo partner.CustomerRepository, invoiceRepo billing.InvoiceRepository) *RefResolver {
	return &RefResolver{
		customerRepo: customerRepo,
		invoiceRepo:  invoiceRepo,
	}
}

// ResolveCustomer resolves a customer reference
func (r *RefResolver) ResolveCustomer(ctx context.Context, ref string) (*partner.Customer, error) {
	if ref == "" {
		return nil, shared.ErrCustomerNotFound
	}

	if id, err := uuid.Parse(ref); err == nil {
		customer, err := r.customerRepo.FindByID(ctx, id)
		if err != nil && !errors.Is(err, shared.ErrNotFound) {
			return nil, fmt.Errorf("failed to look up customer by id: %w", err)
		}
		if customer != nil {
			return customer, nil
		}
		return nil, shared.ErrCustomerNotFound
	}

	customer, err := r.customerRepo.FindByCode(ctx, ref)
	if err != nil && !errors.Is(err, shared.ErrNotFound) {
		return nil, fmt.Errorf("failed to look up customer by code: %w", err)
	}
	if customer != nil {
		return customer, nil
	}

	// Fuzzy name match over the full customer list, exact matches
	// preferred. Pages are walked to the end before matching so an exact
	// name on a later page beats a fuzzy hit on an earlier one.
	var customers []partner.Customer
	filter := shared.DefaultFilter()
	filter.PageSize = resolverPageSize
	for {
		page, err := r.customerRepo.FindAll(ctx, filter)
		if err != nil {
			return nil, fmt.Errorf("failed to list customers: %w", err)
		}
		customers = append(customers, page...)
		if len(page) < filter.PageSize {
			break
		}
		filter.Page++
	}
	if matched := partner.ResolveByName(customers, ref); matched != nil {
		return matched, nil
	}

	return nil, shared.NewDomainError(shared.CodeCustomerNotFound,
		fmt.Sprintf("Customer %q not found", ref))
}

// ResolveInvoice resolves an invoice reference for a customer. The invoice
// must belong to the given customer. An empty reference selects the
// customer's most recent pending invoice.
func (r *RefResolver) ResolveInvoice(ctx context.Context, customer *partner.Customer, ref string) (*billing.Invoice, error) {
	if ref == "" {
		invoice, err := r.invoiceRepo.FindLatestPendingByCustomer(ctx, customer.ID)
		if err != nil {
			if errors.Is(err, shared.ErrNotFound) {
				return nil, shared.NewDomainError(shared.CodeInvoiceNotFound,
					fmt.Sprintf("Customer %s has no pending invoices", customer.Name))
			}
			return nil, fmt.Errorf("failed to look up pending invoice: %w", err)
		}
		return invoice, nil
	}

	var invoice *billing.Invoice
	var err error
	if id, parseErr := uuid.Parse(ref); parseErr == nil {
		invoice, err = r.invoiceRepo.FindByID(ctx, id)
	} else {
		invoice, err = r.invoiceRepo.FindByNumber(ctx, ref)
	}
	if err != nil && !errors.Is(err, shared.ErrNotFound) {
		return nil, fmt.Errorf("failed to look up invoice: %w", err)
	}
	if invoice == nil {
		return nil, shared.NewDomainError(shared.CodeInvoiceNotFound,
			fmt.Sprintf("Invoice %q not found", ref))
	}

	if invoice.CustomerID != customer.ID {
		return nil, shared.NewDomainError(shared.CodeInvoiceOwnershipMismatch,
			fmt.Sprintf("Invoice %s does not belong to customer %s", invoice.Number, customer.Name))
	}

	return invoice, nil
}
