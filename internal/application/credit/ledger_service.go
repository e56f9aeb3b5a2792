package credit

import (
	"context"
	"fmt"
	"time"

	"github.com/creditledger/backend/internal/domain/billing"
	"github.com/creditledger/backend/internal/domain/ledger"
	"github.com/creditledger/backend/internal/domain/partner"
	"github.com/creditledger/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// LedgerService answers balance and history queries over a customer's
// credit grants. Expiry is evaluated lazily at read time: a grant whose
// expiry date has passed is reported expired no matter what status is
// stored, and the stored status is corrected opportunistically.
type LedgerService struct {
	grantRepo   ledger.CreditGrantRepository
	invoiceRepo billing.InvoiceRepository
	resolver    *RefResolver
	logger      *zap.Logger
	now         func() time.Time
}

// NewLedgerService creates a new LedgerService
func NewLedgerService(
	grantRepo ledger.CreditGrantRepository,
	invoiceRepo billing.InvoiceRepository,
	resolver *RefResolver,
	logger *zap.Logger,
) *LedgerService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LedgerService{
		grantRepo:   grantRepo,
		invoiceRepo: invoiceRepo,
		resolver:    resolver,
		logger:      logger,
		now:         time.Now,
	}
}

// ActiveCredits returns the customer's spendable credits in FIFO order and
// the total available balance. Grants found past their expiry date are
// reported as expired and their stored status is corrected in place.
func (s *LedgerService) ActiveCredits(ctx context.Context, customerRef string) (*BalanceResult, error) {
	customer, err := s.resolver.ResolveCustomer(ctx, customerRef)
	if err != nil {
		return nil, err
	}

	grants, err := s.grantRepo.FindByCustomer(ctx, customer.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load grants: %w", err)
	}

	classified := ledger.ClassifyGrants(grants, s.now())
	s.correctStaleExpiry(ctx, classified.StaleExpired)

	return s.buildBalanceResult(customer.ID, classified), nil
}

// SnapshotActiveCredits classifies the customer's grants without performing
// any correction writes. Used by read-only preview paths.
func (s *LedgerService) SnapshotActiveCredits(ctx context.Context, customer *partner.Customer) (ledger.Classification, error) {
	grants, err := s.grantRepo.FindByCustomer(ctx, customer.ID)
	if err != nil {
		return ledger.Classification{}, fmt.Errorf("failed to load grants: %w", err)
	}
	return ledger.ClassifyGrants(grants, s.now()), nil
}

// TotalActiveBalance returns the customer's spendable balance at full
// precision
func (s *LedgerService) TotalActiveBalance(ctx context.Context, customer *partner.Customer) (valueobject.Money, error) {
	classified, err := s.SnapshotActiveCredits(ctx, customer)
	if err != nil {
		return valueobject.ZeroUSD(), err
	}
	return valueobject.NewMoneyUSD(ledger.TotalBalance(classified.Active)), nil
}

// GetPurchaseHistory returns the customer's invoices, most recent first
func (s *LedgerService) GetPurchaseHistory(ctx context.Context, customerRef string) (*PurchaseHistoryResult, error) {
	customer, err := s.resolver.ResolveCustomer(ctx, customerRef)
	if err != nil {
		return nil, err
	}

	invoices, err := s.invoiceRepo.FindByCustomer(ctx, customer.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load invoices: %w", err)
	}

	views := make([]InvoiceView, 0, len(invoices))
	for _, inv := range invoices {
		views = append(views, InvoiceView{
			ID:             inv.ID,
			Number:         inv.Number,
			OriginalAmount: round2(inv.OriginalAmount),
			CurrentAmount:  round2(inv.CurrentAmount),
			CreditsApplied: round2(inv.CreditsApplied),
			Status:         inv.Status.String(),
			PaymentStatus:  string(inv.PaymentStatus),
			Date:           inv.Date,
			DueDate:        inv.DueDate,
		})
	}

	return &PurchaseHistoryResult{
		CustomerID: customer.ID,
		Invoices:   views,
	}, nil
}

// AccruePurchaseReward creates a purchase-reward grant for the customer
func (s *LedgerService) AccruePurchaseReward(ctx context.Context, customerRef string, amount valueobject.Money, description string) (*GrantView, error) {
	customer, err := s.resolver.ResolveCustomer(ctx, customerRef)
	if err != nil {
		return nil, err
	}

	grant, err := ledger.NewPurchaseRewardGrant(customer.ID, amount, s.now(), description)
	if err != nil {
		return nil, err
	}

	if err := s.grantRepo.Save(ctx, grant); err != nil {
		return nil, fmt.Errorf("failed to save grant: %w", err)
	}

	s.logger.Info("Purchase reward accrued",
		zap.String("customer_id", customer.ID.String()),
		zap.String("grant_id", grant.ID.String()),
		zap.String("amount", amount.String()))

	view := grantView(*grant)
	return &view, nil
}

// correctStaleExpiry writes back the expired status for grants whose stored
// status lagged their expiry date. Failures are logged and ignored; the
// next read will retry the same correction.
func (s *LedgerService) correctStaleExpiry(ctx context.Context, stale []ledger.CreditGrant) {
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

func (s *LedgerService) buildBalanceResult(customerID uuid.UUID, classified ledger.Classification) *BalanceResult {
	active := make([]GrantView, 0, len(classified.Active))
	for _, g := range classified.Active {
		active = append(active, grantView(g))
	}

	expired := make([]GrantView, 0, len(classified.Expired))
	for _, g := range classified.Expired {
		v := grantView(g)
		v.Status = ledger.GrantStatusExpired.String()
		expired = append(expired, v)
	}

	return &BalanceResult{
		CustomerID:     customerID,
		ActiveCredits:  active,
		ExpiredCredits: expired,
		TotalAvailable: round2(ledger.TotalBalance(classified.Active)),
	}
}

func grantView(g ledger.CreditGrant) GrantView {
	return GrantView{
		ID:             g.ID,
		Amount:         round2(g.Amount),
		OriginalAmount: round2(g.OriginalAmount),
		EarnedDate:     g.EarnedDate,
		ExpiryDate:     g.ExpiryDate,
		Status:         g.Status.String(),
		Category:       g.Category,
		Description:    g.Description,
	}
}
