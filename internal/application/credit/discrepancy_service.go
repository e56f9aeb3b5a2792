package credit

import (
	"context"
	"fmt"

	"github.com/creditledger/backend/internal/domain/billing"
	"github.com/creditledger/backend/internal/domain/memo"
	"github.com/creditledger/backend/internal/domain/shared"
	"github.com/creditledger/backend/internal/domain/shared/valueobject"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// DiscrepancyService converts delivery discrepancies into draft credit
// memos. A quantity shortage credits the missing units at the line's unit
// price; a damage claim credits the item's full listed price.
type DiscrepancyService struct {
	memoRepo    memo.CreditMemoRepository
	damageRepo  memo.DamageReportRepository
	invoiceRepo billing.InvoiceRepository
	resolver    *RefResolver
	logger      *zap.Logger
}

// NewDiscrepancyService creates a new DiscrepancyService
func NewDiscrepancyService(
	memoRepo memo.CreditMemoRepository,
	damageRepo memo.DamageReportRepository,
	invoiceRepo billing.InvoiceRepository,
	resolver *RefResolver,
	logger *zap.Logger,
) *DiscrepancyService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DiscrepancyService{
		memoRepo:    memoRepo,
		damageRepo:  damageRepo,
		invoiceRepo: invoiceRepo,
		resolver:    resolver,
		logger:      logger,
	}
}

// ReportQuantityShortage creates a draft credit memo for units that were
// billed but never delivered. ItemDescription may be empty when the invoice
// has a single line item.
func (s *DiscrepancyService) ReportQuantityShortage(
	ctx context.Context,
	customerRef, invoiceRef string,
	missingQuantity decimal.Decimal,
	itemDescription string,
) (*ShortageResult, error) {
	if missingQuantity.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError(shared.CodeInvalidAmount, "Missing quantity must be positive")
	}

	customer, err := s.resolver.ResolveCustomer(ctx, customerRef)
	if err != nil {
		return nil, err
	}
	invoice, err := s.resolver.ResolveInvoice(ctx, customer, invoiceRef)
	if err != nil {
		return nil, err
	}

	item, err := invoice.FindLineItem(itemDescription)
	if err != nil {
		return nil, err
	}
	if missingQuantity.GreaterThan(item.Quantity) {
		return nil, shared.NewDomainError(shared.CodeInvalidAmount,
			fmt.Sprintf("Missing quantity %s exceeds ordered quantity %s", missingQuantity, item.Quantity))
	}

	creditAmount := missingQuantity.Mul(item.UnitPrice)
	reason := fmt.Sprintf("Quantity shortage on invoice %s: %s of %s %q not delivered",
		invoice.Number, missingQuantity, item.Quantity, item.Description)

	memoNumber, err := s.memoRepo.NextMemoNumber(ctx, memo.MemoTypeQuantityShortage)
	if err != nil {
		return nil, fmt.Errorf("failed to allocate memo number: %w", err)
	}

	draft, err := memo.NewCreditMemo(
		memoNumber,
		memo.MemoTypeQuantityShortage,
		customer.ID,
		invoice.ID,
		valueobject.NewMoneyUSD(creditAmount),
		reason,
		[]memo.AffectedItem{{
			Description:     item.Description,
			OrderedQuantity: item.Quantity,
			MissingQuantity: missingQuantity,
			UnitPrice:       item.UnitPrice,
			CreditAmount:    creditAmount,
		}},
	)
	if err != nil {
		return nil, err
	}

	if err := s.memoRepo.Save(ctx, draft); err != nil {
		return nil, fmt.Errorf("failed to save credit memo: %w", err)
	}

	// Record the received quantity on the invoice line for later audits
	received := item.Quantity.Sub(missingQuantity)
	if err := invoice.MarkLineItemShortage(item.ID, received); err == nil {
		if err := s.invoiceRepo.SaveWithLock(ctx, invoice); err != nil {
			s.logger.Warn("Failed to record received quantity on invoice",
				zap.String("invoice", invoice.Number),
				zap.Error(err))
		}
	}

	s.logger.Info("Quantity shortage memo created",
		zap.String("memo_number", draft.MemoNumber),
		zap.String("customer_id", customer.ID.String()),
		zap.String("amount", creditAmount.StringFixed(2)))

	return &ShortageResult{
		CreditMemo: memoView(draft),
		Options:    dispositionOptions(invoice),
	}, nil
}

// ReportDamage creates a damage report and a draft credit memo for an item
// that arrived damaged
func (s *DiscrepancyService) ReportDamage(
	ctx context.Context,
	customerRef, invoiceRef, itemDescription, damageDescription string,
) (*DamageResult, error) {
	customer, err := s.resolver.ResolveCustomer(ctx, customerRef)
	if err != nil {
		return nil, err
	}
	invoice, err := s.resolver.ResolveInvoice(ctx, customer, invoiceRef)
	if err != nil {
		return nil, err
	}

	item, err := invoice.FindLineItem(itemDescription)
	if err != nil {
		return nil, err
	}

	creditAmount := item.LineTotal()
	credit := valueobject.NewMoneyUSD(creditAmount)

	report, err := memo.NewDamageReport(customer.ID, invoice.ID, item.Description, damageDescription, credit)
	if err != nil {
		return nil, err
	}

	reason := fmt.Sprintf("Damage claim on invoice %s: %q (%s)", invoice.Number, item.Description, damageDescription)

	memoNumber, err := s.memoRepo.NextMemoNumber(ctx, memo.MemoTypeDamageClaim)
	if err != nil {
		return nil, fmt.Errorf("failed to allocate memo number: %w", err)
	}

	draft, err := memo.NewCreditMemo(
		memoNumber,
		memo.MemoTypeDamageClaim,
		customer.ID,
		invoice.ID,
		credit,
		reason,
		[]memo.AffectedItem{{
			Description:     item.Description,
			OrderedQuantity: item.Quantity,
			MissingQuantity: decimal.Zero,
			UnitPrice:       item.UnitPrice,
			CreditAmount:    creditAmount,
		}},
	)
	if err != nil {
		return nil, err
	}

	if err := s.damageRepo.Save(ctx, report); err != nil {
		return nil, fmt.Errorf("failed to save damage report: %w", err)
	}
	if err := s.memoRepo.Save(ctx, draft); err != nil {
		return nil, fmt.Errorf("failed to save credit memo: %w", err)
	}

	s.logger.Info("Damage claim memo created",
		zap.String("memo_number", draft.MemoNumber),
		zap.String("customer_id", customer.ID.String()),
		zap.String("amount", creditAmount.StringFixed(2)))

	return &DamageResult{
		DamageReport: damageReportView(report),
		CreditMemo:   memoView(draft),
		Options:      dispositionOptions(invoice),
	}, nil
}

// dispositionOptions returns the memo dispositions available for the
// invoice's payment status. A settled invoice cannot absorb more credit,
// so the memo can only go to the account balance or a refund.
func dispositionOptions(invoice *billing.Invoice) []string {
	if invoice.IsPaid() {
		return []string{string(memo.ChoiceApplyToAccount), string(memo.ChoiceRefund)}
	}
	return []string{string(memo.ChoiceApplyToInvoice), string(memo.ChoiceApplyToAccount)}
}

func memoView(m *memo.CreditMemo) MemoView {
	items := make([]AffectedItemView, 0, len(m.AffectedItems))
	for _, it := range m.AffectedItems {
		items = append(items, AffectedItemView{
			Description:     it.Description,
			OrderedQuantity: it.OrderedQuantity,
			MissingQuantity: it.MissingQuantity,
			UnitPrice:       round2(it.UnitPrice),
			CreditAmount:    round2(it.CreditAmount),
		})
	}

	view := MemoView{
		ID:              m.ID,
		MemoNumber:      m.MemoNumber,
		Type:            string(m.Type),
		Status:          string(m.Status),
		CustomerID:      m.CustomerID,
		InvoiceID:       m.InvoiceID,
		Amount:          round2(m.Amount),
		Reason:          m.Reason,
		AffectedItems:   items,
		TargetInvoiceID: m.TargetInvoiceID,
		CreatedDate:     m.CreatedDate,
		ApprovedDate:    m.ApprovedDate,
		AppliedDate:     m.AppliedDate,
	}
	if m.CustomerChoice != nil {
		view.CustomerChoice = string(*m.CustomerChoice)
	}
	return view
}

func damageReportView(r *memo.DamageReport) DamageReportView {
	return DamageReportView{
		ID:                    r.ID,
		CustomerID:            r.CustomerID,
		InvoiceID:             r.InvoiceID,
		ItemDescription:       r.ItemDescription,
		Description:           r.Description,
		Status:                string(r.Status),
		EstimatedCreditAmount: round2(r.EstimatedCreditAmount),
		ReportedDate:          r.ReportedDate,
	}
}
