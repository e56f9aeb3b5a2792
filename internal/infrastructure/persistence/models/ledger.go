package models

import (
	"time"

	"github.com/creditledger/backend/internal/domain/ledger"
	"github.com/creditledger/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CreditGrantModel is the persistence model for the CreditGrant aggregate.
type CreditGrantModel struct {
	AggregateModel
	CustomerID     uuid.UUID              `gorm:"type:uuid;not null;index:idx_grant_customer_earned,priority:1"`
	Amount         decimal.Decimal        `gorm:"type:decimal(18,4);not null"`
	OriginalAmount decimal.Decimal        `gorm:"type:decimal(18,4);not null"`
	EarnedDate     time.Time              `gorm:"not null;index:idx_grant_customer_earned,priority:2"`
	ExpiryDate     time.Time              `gorm:"not null;index"`
	Status         ledger.GrantStatus     `gorm:"type:varchar(20);not null;index"`
	SourceType     ledger.GrantSourceType `gorm:"type:varchar(30);not null"`
	Category       string                 `gorm:"type:varchar(50);not null"`
	Description    string                 `gorm:"type:varchar(500)"`
	UsageHistory   ledger.UsageHistory    `gorm:"type:jsonb"`
}

// TableName returns the table name for GORM
func (CreditGrantModel) TableName() string {
	return "credit_grants"
}

// ToDomain converts the persistence model to a domain CreditGrant aggregate.
func (m *CreditGrantModel) ToDomain() *ledger.CreditGrant {
	return &ledger.CreditGrant{
		BaseAggregateRoot: shared.BaseAggregateRoot{
			BaseEntity: shared.BaseEntity{
				ID:        m.ID,
				CreatedAt: m.CreatedAt,
				UpdatedAt: m.UpdatedAt,
			},
			Version: m.Version,
		},
		CustomerID:     m.CustomerID,
		Amount:         m.Amount,
		OriginalAmount: m.OriginalAmount,
		EarnedDate:     m.EarnedDate,
		ExpiryDate:     m.ExpiryDate,
		Status:         m.Status,
		SourceType:     m.SourceType,
		Category:       m.Category,
		Description:    m.Description,
		UsageHistory:   m.UsageHistory,
	}
}

// FromDomain populates the persistence model from a domain CreditGrant aggregate.
func (m *CreditGrantModel) FromDomain(g *ledger.CreditGrant) {
	m.FromDomainAggregateRoot(g.BaseAggregateRoot)
	m.CustomerID = g.CustomerID
	m.Amount = g.Amount
	m.OriginalAmount = g.OriginalAmount
	m.EarnedDate = g.EarnedDate
	m.ExpiryDate = g.ExpiryDate
	m.Status = g.Status
	m.SourceType = g.SourceType
	m.Category = g.Category
	m.Description = g.Description
	m.UsageHistory = g.UsageHistory
}

// CreditGrantModelFromDomain creates a new persistence model from a domain CreditGrant aggregate.
func CreditGrantModelFromDomain(g *ledger.CreditGrant) *CreditGrantModel {
	m := &CreditGrantModel{}
	m.FromDomain(g)
	return m
}
