package models

import (
	"time"

	"github.com/creditledger/backend/internal/domain/memo"
	"github.com/creditledger/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CreditMemoModel is the persistence model for the CreditMemo aggregate.
type CreditMemoModel struct {
	AggregateModel
	MemoNumber      string               `gorm:"type:varchar(50);not null;uniqueIndex"`
	Type            memo.MemoType        `gorm:"type:varchar(30);not null;index"`
	Status          memo.MemoStatus      `gorm:"type:varchar(30);not null;index"`
	CustomerID      uuid.UUID            `gorm:"type:uuid;not null;index"`
	InvoiceID       uuid.UUID            `gorm:"type:uuid;not null;index"`
	Amount          decimal.Decimal      `gorm:"type:decimal(18,4);not null"`
	Reason          string               `gorm:"type:varchar(500);not null"`
	AffectedItems   memo.AffectedItems   `gorm:"type:jsonb"`
	CustomerChoice  *memo.CustomerChoice `gorm:"type:varchar(30)"`
	TargetInvoiceID *uuid.UUID           `gorm:"type:uuid"`
	CreatedDate     time.Time            `gorm:"not null"`
	ApprovedDate    *time.Time
	AppliedDate     *time.Time
}

// TableName returns the table name for GORM
func (CreditMemoModel) TableName() string {
	return "credit_memos"
}

// ToDomain converts the persistence model to a domain CreditMemo aggregate.
func (m *CreditMemoModel) ToDomain() *memo.CreditMemo {
	return &memo.CreditMemo{
		BaseAggregateRoot: shared.BaseAggregateRoot{
			BaseEntity: shared.BaseEntity{
				ID:        m.ID,
				CreatedAt: m.CreatedAt,
				UpdatedAt: m.UpdatedAt,
			},
			Version: m.Version,
		},
		MemoNumber:      m.MemoNumber,
		Type:            m.Type,
		Status:          m.Status,
		CustomerID:      m.CustomerID,
		InvoiceID:       m.InvoiceID,
		Amount:          m.Amount,
		Reason:          m.Reason,
		AffectedItems:   m.AffectedItems,
		CustomerChoice:  m.CustomerChoice,
		TargetInvoiceID: m.TargetInvoiceID,
		CreatedDate:     m.CreatedDate,
		ApprovedDate:    m.ApprovedDate,
		AppliedDate:     m.AppliedDate,
	}
}

// FromDomain populates the persistence model from a domain CreditMemo aggregate.
func (m *CreditMemoModel) FromDomain(cm *memo.CreditMemo) {
	m.FromDomainAggregateRoot(cm.BaseAggregateRoot)
	m.MemoNumber = cm.MemoNumber
	m.Type = cm.Type
	m.Status = cm.Status
	m.CustomerID = cm.CustomerID
	m.InvoiceID = cm.InvoiceID
	m.Amount = cm.Amount
	m.Reason = cm.Reason
	m.AffectedItems = cm.AffectedItems
	m.CustomerChoice = cm.CustomerChoice
	m.TargetInvoiceID = cm.TargetInvoiceID
	m.CreatedDate = cm.CreatedDate
	m.ApprovedDate = cm.ApprovedDate
	m.AppliedDate = cm.AppliedDate
}

// CreditMemoModelFromDomain creates a new persistence model from a domain CreditMemo aggregate.
func CreditMemoModelFromDomain(cm *memo.CreditMemo) *CreditMemoModel {
	m := &CreditMemoModel{}
	m.FromDomain(cm)
	return m
}

// DamageReportModel is the persistence model for the DamageReport entity.
type DamageReportModel struct {
	BaseModel
	CustomerID            uuid.UUID               `gorm:"type:uuid;not null;index"`
	InvoiceID             uuid.UUID               `gorm:"type:uuid;not null;index"`
	ItemDescription       string                  `gorm:"type:varchar(200);not null"`
	Description           string                  `gorm:"type:varchar(1000);not null"`
	Status                memo.DamageReportStatus `gorm:"type:varchar(30);not null"`
	EstimatedCreditAmount decimal.Decimal         `gorm:"type:decimal(18,4);not null"`
	ReportedDate          time.Time               `gorm:"not null"`
}

// TableName returns the table name for GORM
func (DamageReportModel) TableName() string {
	return "damage_reports"
}

// ToDomain converts the persistence model to a domain DamageReport entity.
func (m *DamageReportModel) ToDomain() *memo.DamageReport {
	return &memo.DamageReport{
		BaseEntity: shared.BaseEntity{
			ID:        m.ID,
			CreatedAt: m.CreatedAt,
			UpdatedAt: m.UpdatedAt,
		},
		CustomerID:            m.CustomerID,
		InvoiceID:             m.InvoiceID,
		ItemDescription:       m.ItemDescription,
		Description:           m.Description,
		Status:                m.Status,
		EstimatedCreditAmount: m.EstimatedCreditAmount,
		ReportedDate:          m.ReportedDate,
	}
}

// FromDomain populates the persistence model from a domain DamageReport entity.
func (m *DamageReportModel) FromDomain(r *memo.DamageReport) {
	m.FromDomainBaseEntity(r.BaseEntity)
	m.CustomerID = r.CustomerID
	m.InvoiceID = r.InvoiceID
	m.ItemDescription = r.ItemDescription
	m.Description = r.Description
	m.Status = r.Status
	m.EstimatedCreditAmount = r.EstimatedCreditAmount
	m.ReportedDate = r.ReportedDate
}

// DamageReportModelFromDomain creates a new persistence model from a domain DamageReport entity.
func DamageReportModelFromDomain(r *memo.DamageReport) *DamageReportModel {
	m := &DamageReportModel{}
	m.FromDomain(r)
	return m
}
