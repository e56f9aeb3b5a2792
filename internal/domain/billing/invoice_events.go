package billing

import (
	"github.com/creditledger/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

const (
	EventTypeInvoiceCreated         = "billing.invoice.created"
	EventTypeInvoiceCredited        = "billing.invoice.credited"
	EventTypeInvoicePaymentRecorded = "billing.invoice.payment_recorded"
)

// InvoiceCreatedEvent is raised when a new invoice is created
type InvoiceCreatedEvent struct {
	shared.BaseDomainEvent
	Number         string          `json:"number"`
	CustomerID     string          `json:"customer_id"`
	OriginalAmount decimal.Decimal `json:"original_amount"`
}

// NewInvoiceCreatedEvent creates a new InvoiceCreatedEvent
func NewInvoiceCreatedEvent(inv *Invoice) *InvoiceCreatedEvent {
	return &InvoiceCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeInvoiceCreated, "Invoice", inv.ID),
		Number:          inv.Number,
		CustomerID:      inv.CustomerID.String(),
		OriginalAmount:  inv.OriginalAmount,
	}
}

// InvoiceCreditedEvent is raised when credit is applied against an invoice
type InvoiceCreditedEvent struct {
	shared.BaseDomainEvent
	Number        string          `json:"number"`
	Amount        decimal.Decimal `json:"amount"`
	CurrentAmount decimal.Decimal `json:"current_amount"`
	Status        string          `json:"status"`
}

// NewInvoiceCreditedEvent creates a new InvoiceCreditedEvent
func NewInvoiceCreditedEvent(inv *Invoice, amount decimal.Decimal) *InvoiceCreditedEvent {
	return &InvoiceCreditedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeInvoiceCredited, "Invoice", inv.ID),
		Number:          inv.Number,
		Amount:          amount,
		CurrentAmount:   inv.CurrentAmount,
		Status:          inv.Status.String(),
	}
}

// InvoicePaymentRecordedEvent is raised when a payment is recorded
type InvoicePaymentRecordedEvent struct {
	shared.BaseDomainEvent
	Number        string          `json:"number"`
	Amount        decimal.Decimal `json:"amount"`
	CurrentAmount decimal.Decimal `json:"current_amount"`
}

// NewInvoicePaymentRecordedEvent creates a new InvoicePaymentRecordedEvent
func NewInvoicePaymentRecordedEvent(inv *Invoice, amount decimal.Decimal) *InvoicePaymentRecordedEvent {
	return &InvoicePaymentRecordedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeInvoicePaymentRecorded, "Invoice", inv.ID),
		Number:          inv.Number,
		Amount:          amount,
		CurrentAmount:   inv.CurrentAmount,
	}
}
