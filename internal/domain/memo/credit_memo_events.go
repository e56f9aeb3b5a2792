package memo

import (
	"github.com/creditledger/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

const (
	EventTypeCreditMemoCreated  = "memo.credit_memo.created"
	EventTypeCreditMemoApproved = "memo.credit_memo.approved"
	EventTypeCreditMemoApplied  = "memo.credit_memo.applied"
)

// CreditMemoCreatedEvent is raised when a draft credit memo is generated
type CreditMemoCreatedEvent struct {
	shared.BaseDomainEvent
	MemoNumber string          `json:"memo_number"`
	MemoType   string          `json:"memo_type"`
	CustomerID string          `json:"customer_id"`
	InvoiceID  string          `json:"invoice_id"`
	Amount     decimal.Decimal `json:"amount"`
}

// NewCreditMemoCreatedEvent creates a new CreditMemoCreatedEvent
func NewCreditMemoCreatedEvent(m *CreditMemo) *CreditMemoCreatedEvent {
	return &CreditMemoCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeCreditMemoCreated, "CreditMemo", m.ID),
		MemoNumber:      m.MemoNumber,
		MemoType:        string(m.Type),
		CustomerID:      m.CustomerID.String(),
		InvoiceID:       m.InvoiceID.String(),
		Amount:          m.Amount,
	}
}

// CreditMemoApprovedEvent is raised when a memo is approved with a
// disposition choice
type CreditMemoApprovedEvent struct {
	shared.BaseDomainEvent
	MemoNumber string `json:"memo_number"`
	Choice     string `json:"choice"`
}

// NewCreditMemoApprovedEvent creates a new CreditMemoApprovedEvent
func NewCreditMemoApprovedEvent(m *CreditMemo) *CreditMemoApprovedEvent {
	choice := ""
	if m.CustomerChoice != nil {
		choice = string(*m.CustomerChoice)
	}
	return &CreditMemoApprovedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeCreditMemoApproved, "CreditMemo", m.ID),
		MemoNumber:      m.MemoNumber,
		Choice:          choice,
	}
}

// CreditMemoAppliedEvent is raised when a memo reaches a terminal disposition
type CreditMemoAppliedEvent struct {
	shared.BaseDomainEvent
	MemoNumber string `json:"memo_number"`
	Status     string `json:"status"`
}

// NewCreditMemoAppliedEvent creates a new CreditMemoAppliedEvent
func NewCreditMemoAppliedEvent(m *CreditMemo) *CreditMemoAppliedEvent {
	return &CreditMemoAppliedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeCreditMemoApplied, "CreditMemo", m.ID),
		MemoNumber:      m.MemoNumber,
		Status:          string(m.Status),
	}
}
