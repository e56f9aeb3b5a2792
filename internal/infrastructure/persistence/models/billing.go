package models

import (
	"time"

	"github.com/creditledger/backend/internal/domain/billing"
	"github.com/creditledger/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// InvoiceModel is the persistence model for the Invoice aggregate.
type InvoiceModel struct {
	AggregateModel
	Number         string                `gorm:"type:varchar(50);not null;uniqueIndex"`
	CustomerID     uuid.UUID             `gorm:"type:uuid;not null;index:idx_invoice_customer_date,priority:1"`
	OriginalAmount decimal.Decimal       `gorm:"type:decimal(18,4);not null"`
	CurrentAmount  decimal.Decimal       `gorm:"type:decimal(18,4);not null"`
	CreditsApplied decimal.Decimal       `gorm:"type:decimal(18,4);not null;default:0"`
	Status         billing.InvoiceStatus `gorm:"type:varchar(20);not null;index"`
	PaymentStatus  billing.PaymentStatus `gorm:"type:varchar(20);not null"`
	LineItems      billing.LineItems     `gorm:"type:jsonb"`
	Date           time.Time             `gorm:"not null;index:idx_invoice_customer_date,priority:2"`
	DueDate        time.Time             `gorm:"not null"`
}

// TableName returns the table name for GORM
func (InvoiceModel) TableName() string {
	return "invoices"
}

// ToDomain converts the persistence model to a domain Invoice aggregate.
func (m *InvoiceModel) ToDomain() *billing.Invoice {
	return &billing.Invoice{
		BaseAggregateRoot: shared.BaseAggregateRoot{
			BaseEntity: shared.BaseEntity{
				ID:        m.ID,
				CreatedAt: m.CreatedAt,
				UpdatedAt: m.UpdatedAt,
			},
			Version: m.Version,
		},
		Number:         m.Number,
		CustomerID:     m.CustomerID,
		OriginalAmount: m.OriginalAmount,
		CurrentAmount:  m.CurrentAmount,
		CreditsApplied: m.CreditsApplied,
		Status:         m.Status,
		PaymentStatus:  m.PaymentStatus,
		LineItems:      m.LineItems,
		Date:           m.Date,
		DueDate:        m.DueDate,
	}
}

// FromDomain populates the persistence model from a domain Invoice aggregate.
func (m *InvoiceModel) FromDomain(inv *billing.Invoice) {
	m.FromDomainAggregateRoot(inv.BaseAggregateRoot)
	m.Number = inv.Number
	m.CustomerID = inv.CustomerID
	m.OriginalAmount = inv.OriginalAmount
	m.CurrentAmount = inv.CurrentAmount
	m.CreditsApplied = inv.CreditsApplied
	m.Status = inv.Status
	m.PaymentStatus = inv.PaymentStatus
	m.LineItems = inv.LineItems
	m.Date = inv.Date
	m.DueDate = inv.DueDate
}

// InvoiceModelFromDomain creates a new persistence model from a domain Invoice aggregate.
func InvoiceModelFromDomain(inv *billing.Invoice) *InvoiceModel {
	m := &InvoiceModel{}
	m.FromDomain(inv)
	return m
}
