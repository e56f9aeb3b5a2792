package memo

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/creditledger/backend/internal/domain/shared"
	"github.com/creditledger/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// MemoType classifies the discrepancy a credit memo compensates for
type MemoType string

const (
	MemoTypeQuantityShortage MemoType = "quantity_shortage"
	MemoTypeDamageClaim      MemoType = "damage_claim"
)

// IsValid checks if the memo type is valid
func (t MemoType) IsValid() bool {
	return t == MemoTypeQuantityShortage || t == MemoTypeDamageClaim
}

// NumberPrefix returns the memo-number prefix for this type
func (t MemoType) NumberPrefix() string {
	if t == MemoTypeDamageClaim {
		return "CM-D"
	}
	return "CM-Q"
}

// MemoStatus represents the credit memo lifecycle.
// Applied and refund statuses are terminal; a memo is never mutated after
// reaching one of them.
type MemoStatus string

const (
	MemoStatusDraft            MemoStatus = "draft"
	MemoStatusAppliedToInvoice MemoStatus = "applied_to_invoice"
	MemoStatusAppliedToAccount MemoStatus = "applied_to_account"
	MemoStatusRefundProcessed  MemoStatus = "refund_processed"
)

// IsTerminal reports whether the memo has reached a final disposition
func (s MemoStatus) IsTerminal() bool {
	switch s {
	case MemoStatusAppliedToInvoice, MemoStatusAppliedToAccount, MemoStatusRefundProcessed:
		return true
	}
	return false
}

// CustomerChoice is the disposition the customer selected for a memo
type CustomerChoice string

const (
	ChoiceApplyToInvoice CustomerChoice = "apply_to_invoice"
	ChoiceApplyToAccount CustomerChoice = "apply_to_account"
	ChoiceRefund         CustomerChoice = "refund"
)

// IsValid checks if the choice is a recognized disposition
func (c CustomerChoice) IsValid() bool {
	switch c {
	case ChoiceApplyToInvoice, ChoiceApplyToAccount, ChoiceRefund:
		return true
	}
	return false
}

// TerminalStatus returns the memo status the choice resolves to
func (c CustomerChoice) TerminalStatus() MemoStatus {
	switch c {
	case ChoiceApplyToInvoice:
		return MemoStatusAppliedToInvoice
	case ChoiceApplyToAccount:
		return MemoStatusAppliedToAccount
	default:
		return MemoStatusRefundProcessed
	}
}

// AffectedItem captures the invoice line the discrepancy was reported
// against, with the quantity and amount being credited
type AffectedItem struct {
	Description     string          `json:"description"`
	OrderedQuantity decimal.Decimal `json:"ordered_quantity"`
	MissingQuantity decimal.Decimal `json:"missing_quantity"`
	UnitPrice       decimal.Decimal `json:"unit_price"`
	CreditAmount    decimal.Decimal `json:"credit_amount"`
}

// AffectedItems is a slice of AffectedItem stored as JSONB
type AffectedItems []AffectedItem

// Value implements driver.Valuer interface for GORM to store as JSONB
func (a AffectedItems) Value() (driver.Value, error) {
	if a == nil {
		return "[]", nil
	}
	return json.Marshal(a)
}

// Scan implements sql.Scanner interface for GORM to read from JSONB
func (a *AffectedItems) Scan(value interface{}) error {
	if value == nil {
		*a = AffectedItems{}
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return errors.New("failed to scan AffectedItems: unsupported type")
	}

	if len(bytes) == 0 {
		*a = AffectedItems{}
		return nil
	}

	return json.Unmarshal(bytes, a)
}

// CreditMemo represents a credit memo aggregate root
type CreditMemo struct {
	shared.BaseAggregateRoot
	MemoNumber      string          `json:"memo_number"`
	Type            MemoType        `json:"type"`
	Status          MemoStatus      `json:"status"`
	CustomerID      uuid.UUID       `json:"customer_id"`
	InvoiceID       uuid.UUID       `json:"invoice_id"`
	Amount          decimal.Decimal `json:"amount"`
	Reason          string          `json:"reason"`
	AffectedItems   AffectedItems   `json:"affected_items"`
	CustomerChoice  *CustomerChoice `json:"customer_choice,omitempty"`
	TargetInvoiceID *uuid.UUID      `json:"target_invoice_id,omitempty"`
	CreatedDate     time.Time       `json:"created_date"`
	ApprovedDate    *time.Time      `json:"approved_date,omitempty"`
	AppliedDate     *time.Time      `json:"applied_date,omitempty"`
}

// NewCreditMemo creates a new draft credit memo
func NewCreditMemo(
	memoNumber string,
	memoType MemoType,
	customerID, invoiceID uuid.UUID,
	amount valueobject.Money,
	reason string,
	items []AffectedItem,
) (*CreditMemo, error) {
	if memoNumber == "" {
		return nil, shared.NewDomainError("INVALID_NUMBER", "Memo number cannot be empty")
	}
	if !memoType.IsValid() {
		return nil, shared.NewDomainError(shared.CodeInvalidState, fmt.Sprintf("Invalid memo type: %s", memoType))
	}
	if customerID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_CUSTOMER", "Customer ID cannot be empty")
	}
	if invoiceID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_INVOICE", "Invoice ID cannot be empty")
	}
	if amount.Amount().LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError(shared.CodeInvalidAmount, "Memo amount must be positive")
	}

	m := &CreditMemo{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		MemoNumber:        memoNumber,
		Type:              memoType,
		Status:            MemoStatusDraft,
		CustomerID:        customerID,
		InvoiceID:         invoiceID,
		Amount:            amount.Amount(),
		Reason:            reason,
		AffectedItems:     items,
		CreatedDate:       time.Now(),
	}

	m.AddDomainEvent(NewCreditMemoCreatedEvent(m))

	return m, nil
}

// Approve records the customer's disposition choice and settles the memo
// in the same unit of work: the draft moves directly to the terminal status
// the choice implies, with both the approval and application dates stamped.
// One version increment covers the whole transition, so a single optimistic
// save persists it. For apply_to_invoice the target invoice must be given.
func (m *CreditMemo) Approve(choice CustomerChoice, targetInvoiceID *uuid.UUID) error {
	if m.Status != MemoStatusDraft {
		return shared.NewDomainError(shared.CodeInvalidState, fmt.Sprintf("Cannot approve credit memo in %s status", m.Status))
	}
	if !choice.IsValid() {
		return shared.NewDomainError(shared.CodeUnknownAction, fmt.Sprintf("Unknown customer choice: %s", choice))
	}
	if choice == ChoiceApplyToInvoice && (targetInvoiceID == nil || *targetInvoiceID == uuid.Nil) {
		return shared.NewDomainError(shared.CodeInvalidState, "Target invoice is required to apply a credit memo to an invoice")
	}

	now := time.Now()
	m.Status = choice.TerminalStatus()
	m.CustomerChoice = &choice
	m.TargetInvoiceID = targetInvoiceID
	m.ApprovedDate = &now
	m.AppliedDate = &now

	m.Touch()
	m.IncrementVersion()

	m.AddDomainEvent(NewCreditMemoApprovedEvent(m))
	m.AddDomainEvent(NewCreditMemoAppliedEvent(m))

	return nil
}

// RevertToDraft undoes an approval whose disposition could not be carried
// out, e.g. when the allocation against the target invoice failed. The memo
// becomes approvable again with no recorded choice.
func (m *CreditMemo) RevertToDraft() error {
	if m.Status == MemoStatusDraft || m.CustomerChoice == nil {
		return shared.NewDomainError(shared.CodeInvalidState, fmt.Sprintf("Cannot revert credit memo in %s status", m.Status))
	}

	m.Status = MemoStatusDraft
	m.CustomerChoice = nil
	m.TargetInvoiceID = nil
	m.ApprovedDate = nil
	m.AppliedDate = nil

	m.Touch()
	m.IncrementVersion()

	return nil
}

// IsDraft returns true if the memo is still awaiting approval
func (m *CreditMemo) IsDraft() bool {
	return m.Status == MemoStatusDraft
}

// GetAmountMoney returns the memo amount as Money
func (m *CreditMemo) GetAmountMoney() valueobject.Money {
	return valueobject.NewMoneyUSD(m.Amount)
}
