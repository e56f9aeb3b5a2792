package credit

import (
	"context"
	"fmt"
	"time"

	"github.com/creditledger/backend/internal/domain/billing"
	"github.com/creditledger/backend/internal/domain/ledger"
	"github.com/creditledger/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ReconciliationService previews how a partial payment gap could be closed
// with the customer's available credits. It never writes: an actual
// allocation must go through AllocationService, which re-validates under
// the customer lock instead of trusting a prior preview.
type ReconciliationService struct {
	grantRepo   ledger.CreditGrantRepository
	invoiceRepo billing.InvoiceRepository
	resolver    *RefResolver
	logger      *zap.Logger
	now         func() time.Time
}

// NewReconciliationService creates a new ReconciliationService
func NewReconciliationService(
	grantRepo ledger.CreditGrantRepository,
	invoiceRepo billing.InvoiceRepository,
	resolver *RefResolver,
	logger *zap.Logger,
) *ReconciliationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReconciliationService{
		grantRepo:   grantRepo,
		invoiceRepo: invoiceRepo,
		resolver:    resolver,
		logger:      logger,
		now:         time.Now,
	}
}

// ReconcileRequest is a request to preview a partial payment reconciliation.
// InvoiceAmount overrides the stored invoice balance when set; otherwise
// the invoice's current amount is used.
type ReconcileRequest struct {
	CustomerRef   string
	InvoiceRef    string
	PaidAmount    decimal.Decimal
	InvoiceAmount *decimal.Decimal
}

// ReconcilePartialPayment computes the gap left by a partial payment and
// simulates FIFO credit consumption against it
func (s *ReconciliationService) ReconcilePartialPayment(ctx context.Context, req ReconcileRequest) (*ReconciliationPreview, error) {
	if req.PaidAmount.IsNegative() {
		return nil, shared.NewDomainError(shared.CodeInvalidAmount, "Paid amount cannot be negative")
	}

	customer, err := s.resolver.ResolveCustomer(ctx, req.CustomerRef)
	if err != nil {
		return nil, err
	}

	invoice, err := s.resolver.ResolveInvoice(ctx, customer, req.InvoiceRef)
	if err != nil {
		return nil, err
	}

	invoiceAmount := invoice.CurrentAmount
	if req.InvoiceAmount != nil {
		invoiceAmount = *req.InvoiceAmount
	}

	remaining := invoiceAmount.Sub(req.PaidAmount)

	grants, err := s.grantRepo.FindByCustomer(ctx, customer.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load grants: %w", err)
	}
	classified := ledger.ClassifyGrants(grants, s.now())
	available := ledger.TotalBalance(classified.Active)

	preview := &ReconciliationPreview{
		CustomerID:       customer.ID,
		InvoiceID:        invoice.ID,
		AppliedCredits:   []AppliedCreditPreview{},
		RemainingCredits: round2(available),
	}

	if remaining.LessThanOrEqual(decimal.Zero) {
		preview.FullyPaid = true
		preview.RemainingBalance = decimal.Zero.Round(2)
		preview.CreditsApplied = decimal.Zero.Round(2)
		preview.UnmetBalance = decimal.Zero.Round(2)
		return preview, nil
	}

	preview.RemainingBalance = round2(remaining)

	if len(classified.Active) == 0 {
		return nil, shared.NewDomainError(shared.CodeInsufficientCredit,
			fmt.Sprintf("Customer %s has no active credits to cover the remaining %s",
				customer.Name, remaining.StringFixed(2)))
	}

	// Simulate FIFO consumption on local copies only
	outstanding := remaining
	covered := decimal.Zero
	for _, g := range classified.Active {
		if outstanding.LessThanOrEqual(decimal.Zero) {
			break
		}
		portion := decimal.Min(outstanding, g.Amount)
		preview.AppliedCredits = append(preview.AppliedCredits, AppliedCreditPreview{
			GrantID:  g.ID,
			Category: g.Category,
			Amount:   round2(portion),
		})
		covered = covered.Add(portion)
		outstanding = outstanding.Sub(portion)
	}

	preview.CreditsApplied = round2(covered)
	preview.UnmetBalance = round2(outstanding)
	preview.RemainingCredits = round2(available.Sub(covered))

	s.logger.Debug("Partial payment reconciliation previewed",
		zap.String("customer_id", customer.ID.String()),
		zap.String("invoice", invoice.Number),
		zap.String("gap", remaining.StringFixed(2)),
		zap.String("covered", covered.StringFixed(2)))

	return preview, nil
}
