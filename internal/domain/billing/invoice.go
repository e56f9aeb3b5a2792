package billing

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

// InvoiceStatus represents the settlement status of an invoice
type InvoiceStatus string

const (
	InvoiceStatusPending InvoiceStatus = "pending" // Outstanding balance remains
	InvoiceStatusPaid    InvoiceStatus = "paid"    // Fully settled
)

// IsValid checks if the status is a valid InvoiceStatus
func (s InvoiceStatus) IsValid() bool {
	return s == InvoiceStatusPending || s == InvoiceStatusPaid
}

// String returns the string representation of InvoiceStatus
func (s InvoiceStatus) String() string {
	return string(s)
}

// PaymentStatus tracks how much of the invoice has been covered by payments
// or credits
type PaymentStatus string

const (
	PaymentStatusUnpaid  PaymentStatus = "unpaid"
	PaymentStatusPartial PaymentStatus = "partial"
	PaymentStatusPaid    PaymentStatus = "paid"
)

// LineItem is an ordered line on the invoice. ReceivedQuantity is recorded
// when a delivery discrepancy is reported against the line.
type LineItem struct {
	ID               uuid.UUID       `json:"id"`
	Description      string          `json:"description"`
	Quantity         decimal.Decimal `json:"quantity"`
	UnitPrice        decimal.Decimal `json:"unit_price"`
	ReceivedQuantity *decimal.Decimal `json:"received_quantity,omitempty"`
}

// LineTotal returns quantity times unit price
func (li *LineItem) LineTotal() decimal.Decimal {
	return li.Quantity.Mul(li.UnitPrice)
}

// LineItems is a slice of LineItem that implements GORM Scanner/Valuer for
// JSONB storage
type LineItems []LineItem

// Value implements driver.Valuer interface for GORM to store as JSONB
func (l LineItems) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	return json.Marshal(l)
}

// Scan implements sql.Scanner interface for GORM to read from JSONB
func (l *LineItems) Scan(value interface{}) error {
	if value == nil {
		*l = LineItems{}
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return errors.New("failed to scan LineItems: unsupported type")
	}

	if len(bytes) == 0 {
		*l = LineItems{}
		return nil
	}

	return json.Unmarshal(bytes, l)
}

// Invoice represents an invoice aggregate root.
// CurrentAmount only ever decreases (via credit application or payment) and
// CreditsApplied only ever increases; OriginalAmount is immutable.
type Invoice struct {
	shared.BaseAggregateRoot
	Number         string          `json:"number"`
	CustomerID     uuid.UUID       `json:"customer_id"`
	OriginalAmount decimal.Decimal `json:"original_amount"`
	CurrentAmount  decimal.Decimal `json:"current_amount"`
	CreditsApplied decimal.Decimal `json:"credits_applied"`
	Status         InvoiceStatus   `json:"status"`
	PaymentStatus  PaymentStatus   `json:"payment_status"`
	LineItems      LineItems       `json:"line_items"`
	Date           time.Time       `json:"date"`
	DueDate        time.Time       `json:"due_date"`
}

// NewInvoice creates a new invoice with its line items
func NewInvoice(
	number string,
	customerID uuid.UUID,
	totalAmount valueobject.Money,
	items []LineItem,
	date, dueDate time.Time,
) (*Invoice, error) {
	if number == "" {
		return nil, shared.NewDomainError("INVALID_NUMBER", "Invoice number cannot be empty")
	}
	if len(number) > 50 {
		return nil, shared.NewDomainError("INVALID_NUMBER", "Invoice number cannot exceed 50 characters")
	}
	if customerID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_CUSTOMER", "Customer ID cannot be empty")
	}
	if totalAmount.Amount().LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError(shared.CodeInvalidAmount, "Invoice amount must be positive")
	}

	lineItems := make(LineItems, 0, len(items))
	for _, item := range items {
		if item.ID == uuid.Nil {
			item.ID = uuid.New()
		}
		lineItems = append(lineItems, item)
	}

	inv := &Invoice{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Number:            number,
		CustomerID:        customerID,
		OriginalAmount:    totalAmount.Amount(),
		CurrentAmount:     totalAmount.Amount(),
		CreditsApplied:    decimal.Zero,
		Status:            InvoiceStatusPending,
		PaymentStatus:     PaymentStatusUnpaid,
		LineItems:         lineItems,
		Date:              date,
		DueDate:           dueDate,
	}

	inv.AddDomainEvent(NewInvoiceCreatedEvent(inv))

	return inv, nil
}

// ApplyCredit reduces the outstanding balance by the given credit amount.
// The amount must not exceed the current balance.
func (inv *Invoice) ApplyCredit(amount valueobject.Money) error {
	if inv.Status != InvoiceStatusPending {
		return shared.NewDomainError(shared.CodeInvalidState, fmt.Sprintf("Cannot apply credit to invoice in %s status", inv.Status))
	}
	if amount.Amount().LessThanOrEqual(decimal.Zero) {
		return shared.NewDomainError(shared.CodeInvalidAmount, "Credit amount must be positive")
	}
	if amount.Amount().GreaterThan(inv.CurrentAmount) {
		return shared.NewDomainError(shared.CodeAmountExceedsInvoiceBalance,
			fmt.Sprintf("Credit amount %s exceeds invoice balance %s", amount.StringFixed(2), inv.CurrentAmount.StringFixed(2)))
	}

	inv.CurrentAmount = inv.CurrentAmount.Sub(amount.Amount())
	inv.CreditsApplied = inv.CreditsApplied.Add(amount.Amount())
	inv.refreshSettlement()

	inv.Touch()
	inv.IncrementVersion()

	inv.AddDomainEvent(NewInvoiceCreditedEvent(inv, amount.Amount()))

	return nil
}

// RecordPayment reduces the outstanding balance by a non-credit payment
func (inv *Invoice) RecordPayment(amount valueobject.Money) error {
	if inv.Status != InvoiceStatusPending {
		return shared.NewDomainError(shared.CodeInvalidState, fmt.Sprintf("Cannot record payment on invoice in %s status", inv.Status))
	}
	if amount.Amount().LessThanOrEqual(decimal.Zero) {
		return shared.NewDomainError(shared.CodeInvalidAmount, "Payment amount must be positive")
	}
	if amount.Amount().GreaterThan(inv.CurrentAmount) {
		return shared.NewDomainError(shared.CodeAmountExceedsInvoiceBalance,
			fmt.Sprintf("Payment amount %s exceeds invoice balance %s", amount.StringFixed(2), inv.CurrentAmount.StringFixed(2)))
	}

	inv.CurrentAmount = inv.CurrentAmount.Sub(amount.Amount())
	inv.refreshSettlement()

	inv.Touch()
	inv.IncrementVersion()

	inv.AddDomainEvent(NewInvoicePaymentRecordedEvent(inv, amount.Amount()))

	return nil
}

// MarkLineItemShortage records the received quantity on a line item
func (inv *Invoice) MarkLineItemShortage(itemID uuid.UUID, receivedQuantity decimal.Decimal) error {
	for i := range inv.LineItems {
		if inv.LineItems[i].ID == itemID {
			if receivedQuantity.IsNegative() || receivedQuantity.GreaterThan(inv.LineItems[i].Quantity) {
				return shared.NewDomainError("INVALID_QUANTITY", "Received quantity must be between zero and the ordered quantity")
			}
			qty := receivedQuantity
			inv.LineItems[i].ReceivedQuantity = &qty
			inv.Touch()
			inv.IncrementVersion()
			return nil
		}
	}
	return shared.NewDomainError(shared.CodeItemNotFound, "Line item not found on invoice")
}

func (inv *Invoice) refreshSettlement() {
	switch {
	case inv.CurrentAmount.IsZero():
		inv.Status = InvoiceStatusPaid
		inv.PaymentStatus = PaymentStatusPaid
	case inv.CurrentAmount.LessThan(inv.OriginalAmount):
		inv.PaymentStatus = PaymentStatusPartial
	default:
		inv.PaymentStatus = PaymentStatusUnpaid
	}
}

// IsPending returns true if the invoice still has an outstanding balance
func (inv *Invoice) IsPending() bool {
	return inv.Status == InvoiceStatusPending
}

// IsPaid returns true if the invoice is fully settled
func (inv *Invoice) IsPaid() bool {
	return inv.Status == InvoiceStatusPaid
}

// GetCurrentAmountMoney returns the outstanding balance as Money
func (inv *Invoice) GetCurrentAmountMoney() valueobject.Money {
	return valueobject.NewMoneyUSD(inv.CurrentAmount)
}

// GetOriginalAmountMoney returns the original amount as Money
func (inv *Invoice) GetOriginalAmountMoney() valueobject.Money {
	return valueobject.NewMoneyUSD(inv.OriginalAmount)
}

// GetCreditsAppliedMoney returns the credited amount as Money
func (inv *Invoice) GetCreditsAppliedMoney() valueobject.Money {
	return valueobject.NewMoneyUSD(inv.CreditsApplied)
}

// ItemCount returns the number of line items
func (inv *Invoice) ItemCount() int {
	return len(inv.LineItems)
}

// ItemDescriptions returns the line item descriptions in order.
// Used for disambiguation messages when an item lookup fails.
func (inv *Invoice) ItemDescriptions() []string {
	out := make([]string, len(inv.LineItems))
	for i, item := range inv.LineItems {
		out[i] = item.Description
	}
	return out
}
