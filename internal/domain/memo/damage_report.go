package memo

import (
	"time"

	"github.com/creditledger/backend/internal/domain/shared"
	"github.com/creditledger/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DamageReportStatus is the lifecycle status of a damage report
type DamageReportStatus string

const (
	DamageReportStatusReported DamageReportStatus = "reported"
)

// DamageReport records a customer's claim that a delivered item arrived
// damaged. It is created alongside a damage-claim credit memo and is
// read-only afterward.
type DamageReport struct {
	shared.BaseEntity
	CustomerID            uuid.UUID          `json:"customer_id"`
	InvoiceID             uuid.UUID          `json:"invoice_id"`
	ItemDescription       string             `json:"item_description"`
	Description           string             `json:"description"`
	Status                DamageReportStatus `json:"status"`
	EstimatedCreditAmount decimal.Decimal    `json:"estimated_credit_amount"`
	ReportedDate          time.Time          `json:"reported_date"`
}

// NewDamageReport creates a new damage report
func NewDamageReport(
	customerID, invoiceID uuid.UUID,
	itemDescription, description string,
	estimatedCredit valueobject.Money,
) (*DamageReport, error) {
	if customerID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_CUSTOMER", "Customer ID cannot be empty")
	}
	if invoiceID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_INVOICE", "Invoice ID cannot be empty")
	}
	if itemDescription == "" {
		return nil, shared.NewDomainError(shared.CodeItemNotFound, "Item description cannot be empty")
	}

	return &DamageReport{
		BaseEntity:            shared.NewBaseEntity(),
		CustomerID:            customerID,
		InvoiceID:             invoiceID,
		ItemDescription:       itemDescription,
		Description:           description,
		Status:                DamageReportStatusReported,
		EstimatedCreditAmount: estimatedCredit.Amount(),
		ReportedDate:          time.Now(),
	}, nil
}
