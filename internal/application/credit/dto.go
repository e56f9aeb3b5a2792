package credit

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// GrantView is the reporting shape of a credit grant. Amounts are rounded
// to two decimal places at this boundary; internal arithmetic keeps full
// precision.
type GrantView struct {
	ID             uuid.UUID       `json:"id"`
	Amount         decimal.Decimal `json:"amount"`
	OriginalAmount decimal.Decimal `json:"original_amount"`
	EarnedDate     time.Time       `json:"earned_date"`
	ExpiryDate     time.Time       `json:"expiry_date"`
	Status         string          `json:"status"`
	Category       string          `json:"category"`
	Description    string          `json:"description"`
}

// BalanceResult is the response of a balance query
type BalanceResult struct {
	CustomerID     uuid.UUID       `json:"customer_id"`
	ActiveCredits  []GrantView     `json:"active_credits"`
	ExpiredCredits []GrantView     `json:"expired_credits,omitempty"`
	TotalAvailable decimal.Decimal `json:"total_available"`
}

// GrantConsumption records how much was taken from one grant during an
// allocation
type GrantConsumption struct {
	GrantID   uuid.UUID       `json:"grant_id"`
	Category  string          `json:"category"`
	Consumed  decimal.Decimal `json:"consumed"`
	Remaining decimal.Decimal `json:"remaining"`
}

// TransactionRecord summarizes a completed credit allocation
type TransactionRecord struct {
	CustomerID       uuid.UUID          `json:"customer_id"`
	InvoiceID        uuid.UUID          `json:"invoice_id"`
	InvoiceNumber    string             `json:"invoice_number"`
	RequestedAmount  decimal.Decimal    `json:"requested_amount"`
	Consumed         []GrantConsumption `json:"consumed"`
	InvoiceBalance   decimal.Decimal    `json:"invoice_balance"`
	RemainingCredits decimal.Decimal    `json:"remaining_credits"`
	AppliedAt        time.Time          `json:"applied_at"`
}

// ApplyCreditResult is the outcome of an applyCredit operation
type ApplyCreditResult struct {
	Transaction *TransactionRecord `json:"transaction"`
	Warnings    []string           `json:"warnings,omitempty"`
}

// AppliedCreditPreview is one grant the reconciliation preview would draw on
type AppliedCreditPreview struct {
	GrantID  uuid.UUID       `json:"grant_id"`
	Category string          `json:"category"`
	Amount   decimal.Decimal `json:"amount"`
}

// ReconciliationPreview reports how a partial payment gap could be closed
// with available credits. Nothing is mutated when computing it.
type ReconciliationPreview struct {
	CustomerID       uuid.UUID              `json:"customer_id"`
	InvoiceID        uuid.UUID              `json:"invoice_id"`
	FullyPaid        bool                   `json:"fully_paid"`
	RemainingBalance decimal.Decimal        `json:"remaining_balance"`
	CreditsApplied   decimal.Decimal        `json:"credits_applied"`
	AppliedCredits   []AppliedCreditPreview `json:"applied_credits"`
	UnmetBalance     decimal.Decimal        `json:"unmet_balance"`
	RemainingCredits decimal.Decimal        `json:"remaining_credits"`
}

// InvoiceView is the reporting shape of an invoice for purchase history
type InvoiceView struct {
	ID             uuid.UUID       `json:"id"`
	Number         string          `json:"number"`
	OriginalAmount decimal.Decimal `json:"original_amount"`
	CurrentAmount  decimal.Decimal `json:"current_amount"`
	CreditsApplied decimal.Decimal `json:"credits_applied"`
	Status         string          `json:"status"`
	PaymentStatus  string          `json:"payment_status"`
	Date           time.Time       `json:"date"`
	DueDate        time.Time       `json:"due_date"`
}

// PurchaseHistoryResult is the response of a purchase history query
type PurchaseHistoryResult struct {
	CustomerID uuid.UUID     `json:"customer_id"`
	Invoices   []InvoiceView `json:"invoices"`
}

// AffectedItemView is the reporting shape of a memo's affected line item
type AffectedItemView struct {
	Description     string          `json:"description"`
	OrderedQuantity decimal.Decimal `json:"ordered_quantity"`
	MissingQuantity decimal.Decimal `json:"missing_quantity"`
	UnitPrice       decimal.Decimal `json:"unit_price"`
	CreditAmount    decimal.Decimal `json:"credit_amount"`
}

// MemoView is the reporting shape of a credit memo
type MemoView struct {
	ID              uuid.UUID          `json:"id"`
	MemoNumber      string             `json:"memo_number"`
	Type            string             `json:"type"`
	Status          string             `json:"status"`
	CustomerID      uuid.UUID          `json:"customer_id"`
	InvoiceID       uuid.UUID          `json:"invoice_id"`
	Amount          decimal.Decimal    `json:"amount"`
	Reason          string             `json:"reason"`
	AffectedItems   []AffectedItemView `json:"affected_items"`
	CustomerChoice  string             `json:"customer_choice,omitempty"`
	TargetInvoiceID *uuid.UUID         `json:"target_invoice_id,omitempty"`
	CreatedDate     time.Time          `json:"created_date"`
	ApprovedDate    *time.Time         `json:"approved_date,omitempty"`
	AppliedDate     *time.Time         `json:"applied_date,omitempty"`
}

// DamageReportView is the reporting shape of a damage report
type DamageReportView struct {
	ID                    uuid.UUID       `json:"id"`
	CustomerID            uuid.UUID       `json:"customer_id"`
	InvoiceID             uuid.UUID       `json:"invoice_id"`
	ItemDescription       string          `json:"item_description"`
	Description           string          `json:"description"`
	Status                string          `json:"status"`
	EstimatedCreditAmount decimal.Decimal `json:"estimated_credit_amount"`
	ReportedDate          time.Time       `json:"reported_date"`
}

// ShortageResult is the outcome of a quantity shortage report
type ShortageResult struct {
	CreditMemo MemoView `json:"credit_memo"`
	Options    []string `json:"options"`
}

// DamageResult is the outcome of a damage report
type DamageResult struct {
	DamageReport DamageReportView `json:"damage_report"`
	CreditMemo   MemoView         `json:"credit_memo"`
	Options      []string         `json:"options"`
}

// ApprovalResult is the outcome of a credit memo approval
type ApprovalResult struct {
	CreditMemo  MemoView           `json:"credit_memo"`
	Transaction *TransactionRecord `json:"transaction,omitempty"`
	GrantID     *uuid.UUID         `json:"grant_id,omitempty"`
}

func round2(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}
