package credit

import (
	"context"
	"fmt"
	"time"

	"github.com/creditledger/backend/internal/domain/billing"
	"github.com/creditledger/backend/internal/domain/ledger"
	"github.com/creditledger/backend/internal/domain/partner"
	"github.com/creditledger/backend/internal/domain/shared"
	"github.com/creditledger/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// AllocationService applies customer credits against invoices. Grants are
// consumed oldest earned date first, so the credits closest to expiry are
// spent before newer ones.
//
// Every request is validated fully before anything is mutated: a rejected
// allocation leaves every grant and the invoice untouched. Mutations for
// one customer run under that customer's lock plus optimistic version
// checks at write time.
type AllocationService struct {
	grantRepo   ledger.CreditGrantRepository
	invoiceRepo billing.InvoiceRepository
	resolver    *RefResolver
	locks       shared.CustomerLockManager
	idempotency shared.IdempotencyStore
	logger      *zap.Logger
	now         func() time.Time
}

// NewAllocationService creates a new AllocationService
func NewAllocationService(
	grantRepo ledger.CreditGrantRepository,
	invoiceRepo billing.InvoiceRepository,
	resolver *RefResolver,
	locks shared.CustomerLockManager,
	idempotency shared.IdempotencyStore,
	logger *zap.Logger,
) *AllocationService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AllocationService{
		grantRepo:   grantRepo,
		invoiceRepo: invoiceRepo,
		resolver:    resolver,
		locks:       locks,
		idempotency: idempotency,
		logger:      logger,
		now:         time.Now,
	}
}

// ApplyCreditRequest is a request to apply credit against an invoice.
// InvoiceRef may be empty, in which case the customer's latest pending
// invoice is used. IdempotencyKey is caller-assigned and optional.
type ApplyCreditRequest struct {
	CustomerRef    string
	InvoiceRef     string
	Amount         decimal.Decimal
	IdempotencyKey string
}

// ApplyCredit consumes the customer's active credits against an invoice
func (s *AllocationService) ApplyCredit(ctx context.Context, req ApplyCreditRequest) (*ApplyCreditResult, error) {
	if req.IdempotencyKey != "" && s.idempotency != nil {
		seen, err := s.idempotency.IsProcessed(ctx, "apply_credit:"+req.IdempotencyKey)
		if err != nil {
			return nil, fmt.Errorf("idempotency check failed: %w", err)
		}
		if seen {
			return nil, shared.NewDomainError(shared.CodeDuplicateRequest,
				fmt.Sprintf("Request %s was already processed", req.IdempotencyKey))
		}
	}

	customer, err := s.resolver.ResolveCustomer(ctx, req.CustomerRef)
	if err != nil {
		return nil, err
	}

	release, err := s.locks.Acquire(ctx, customer.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire customer lock: %w", err)
	}
	defer release()

	result, err := s.applyToCustomer(ctx, customer, req)
	if err != nil {
		return nil, err
	}

	// The key is only burned once the mutation is persisted, so a failed
	// or rejected attempt stays retryable with the same key
	if req.IdempotencyKey != "" && s.idempotency != nil {
		if _, err := s.idempotency.MarkProcessed(ctx, "apply_credit:"+req.IdempotencyKey, shared.DefaultIdempotencyConfig().TTL); err != nil {
			s.logger.Warn("Failed to record idempotency key",
				zap.String("key", req.IdempotencyKey),
				zap.Error(err))
		}
	}

	return result, nil
}

// applyToCustomer runs the staged validation and FIFO consumption for a
// resolved customer. The caller must already hold that customer's lock;
// everything here re-reads and re-validates under it, so a preview taken
// before the lock is not trusted.
func (s *AllocationService) applyToCustomer(ctx context.Context, customer *partner.Customer, req ApplyCreditRequest) (*ApplyCreditResult, error) {
	if req.Amount.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError(shared.CodeInvalidAmount, "Credit amount must be positive")
	}

	invoice, err := s.resolver.ResolveInvoice(ctx, customer, req.InvoiceRef)
	if err != nil {
		return nil, err
	}
	if invoice.Status != billing.InvoiceStatusPending {
		return nil, shared.NewDomainError(shared.CodeInvalidState,
			fmt.Sprintf("Invoice %s is not pending (status %s)", invoice.Number, invoice.Status))
	}

	grants, err := s.grantRepo.FindByCustomer(ctx, customer.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load grants: %w", err)
	}
	classified := ledger.ClassifyGrants(grants, s.now())

	available := ledger.TotalBalance(classified.Active)
	if available.LessThan(req.Amount) {
		return nil, shared.NewDomainError(shared.CodeInsufficientCredit,
			fmt.Sprintf("Requested %s but only %s in active credits is available",
				req.Amount.StringFixed(2), available.StringFixed(2)))
	}
	if req.Amount.GreaterThan(invoice.CurrentAmount) {
		return nil, shared.NewDomainError(shared.CodeAmountExceedsInvoiceBalance,
			fmt.Sprintf("Requested %s exceeds invoice balance %s",
				req.Amount.StringFixed(2), invoice.CurrentAmount.StringFixed(2)))
	}

	// Validation is complete; the consumption below cannot fail on amounts.
	consumed, touched := consumeFIFO(classified.Active, req.Amount, invoice, "credit allocation")

	requested := valueobject.NewMoneyUSD(req.Amount)
	if err := invoice.ApplyCredit(requested); err != nil {
		return nil, err
	}

	for _, grant := range touched {
		if err := s.grantRepo.SaveWithLock(ctx, grant); err != nil {
			return nil, fmt.Errorf("failed to save grant %s: %w", grant.ID, err)
		}
	}
	if err := s.invoiceRepo.SaveWithLock(ctx, invoice); err != nil {
		return nil, fmt.Errorf("failed to save invoice %s: %w", invoice.Number, err)
	}

	s.expireStaleGrants(ctx, classified.StaleExpired)

	s.logger.Info("Credit applied",
		zap.String("customer_id", customer.ID.String()),
		zap.String("invoice", invoice.Number),
		zap.String("amount", req.Amount.StringFixed(2)),
		zap.Int("grants_consumed", len(consumed)))

	return &ApplyCreditResult{
		Transaction: &TransactionRecord{
			CustomerID:       customer.ID,
			InvoiceID:        invoice.ID,
			InvoiceNumber:    invoice.Number,
			RequestedAmount:  round2(req.Amount),
			Consumed:         consumed,
			InvoiceBalance:   round2(invoice.CurrentAmount),
			RemainingCredits: round2(available.Sub(req.Amount)),
			AppliedAt:        s.now(),
		},
		Warnings: expiryWarnings(classified.Expired),
	}, nil
}

// consumeFIFO walks the active grants oldest first and consumes up to the
// requested amount. The caller has already checked that the grants cover
// the request. Returns the per-grant consumption records and the mutated
// grants to persist.
func consumeFIFO(active []ledger.CreditGrant, amount decimal.Decimal, invoice *billing.Invoice, remark string) ([]GrantConsumption, []*ledger.CreditGrant) {
	outstanding := amount
	var consumed []GrantConsumption
	var touched []*ledger.CreditGrant

	for i := range active {
		if outstanding.LessThanOrEqual(decimal.Zero) {
			break
		}
		grant := &active[i]
		portion := decimal.Min(outstanding, grant.Amount)

		if err := grant.Consume(valueobject.NewMoneyUSD(portion), invoice.ID, remark); err != nil {
			// Unreachable after full validation against active grants
			continue
		}

		consumed = append(consumed, GrantConsumption{
			GrantID:   grant.ID,
			Category:  grant.Category,
			Consumed:  round2(portion),
			Remaining: round2(grant.Amount),
		})
		touched = append(touched, grant)
		outstanding = outstanding.Sub(portion)
	}

	return consumed, touched
}

// expireStaleGrants persists expiry corrections noticed during the read.
// Runs under the customer lock; conflicts are logged and left for the next
// read to retry.
func (s *AllocationService) expireStaleGrants(ctx context.Context, stale []ledger.CreditGrant) {
	for i := range stale {
		grant := stale[i]
		if !grant.MarkExpired() {
			continue
		}
		if err := s.grantRepo.SaveWithLock(ctx, &grant); err != nil {
			s.logger.Warn("Failed to persist lazy expiry correction",
				zap.String("grant_id", grant.ID.String()),
				zap.Error(err))
		}
	}
}

// expiryWarnings builds caller-facing warnings for grants that still carry
// a balance but have passed their expiry date
func expiryWarnings(expired []ledger.CreditGrant) []string {
	var warnings []string
	for _, g := range expired {
		if g.Amount.GreaterThan(decimal.Zero) {
			warnings = append(warnings, fmt.Sprintf(
				"Credit of %s earned on %s expired on %s and was not used",
				g.Amount.StringFixed(2),
				g.EarnedDate.Format("2006-01-02"),
				g.ExpiryDate.Format("2006-01-02")))
		}
	}
	return warnings
}
