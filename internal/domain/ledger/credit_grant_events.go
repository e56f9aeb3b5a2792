package ledger

import (
	"time"

	"github.com/creditledger/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Event types for the credit grant aggregate
const (
	EventTypeCreditGrantCreated  = "ledger.credit_grant.created"
	EventTypeCreditGrantConsumed = "ledger.credit_grant.consumed"
	EventTypeCreditGrantExpired  = "ledger.credit_grant.expired"
)

// CreditGrantCreatedEvent is raised when a grant is issued
type CreditGrantCreatedEvent struct {
	shared.BaseDomainEvent
	CustomerID uuid.UUID       `json:"customer_id"`
	Amount     decimal.Decimal `json:"amount"`
	SourceType GrantSourceType `json:"source_type"`
	Category   string          `json:"category"`
	ExpiryDate time.Time       `json:"expiry_date"`
}

// NewCreditGrantCreatedEvent creates a new CreditGrantCreatedEvent
func NewCreditGrantCreatedEvent(g *CreditGrant) *CreditGrantCreatedEvent {
	return &CreditGrantCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeCreditGrantCreated, "CreditGrant", g.ID),
		CustomerID:      g.CustomerID,
		Amount:          g.OriginalAmount,
		SourceType:      g.SourceType,
		Category:        g.Category,
		ExpiryDate:      g.ExpiryDate,
	}
}

// CreditGrantConsumedEvent is raised when part of a grant is spent
type CreditGrantConsumedEvent struct {
	shared.BaseDomainEvent
	CustomerID uuid.UUID       `json:"customer_id"`
	InvoiceID  uuid.UUID       `json:"invoice_id"`
	Consumed   decimal.Decimal `json:"consumed"`
	Remaining  decimal.Decimal `json:"remaining"`
	Status     GrantStatus     `json:"status"`
}

// NewCreditGrantConsumedEvent creates a new CreditGrantConsumedEvent
func NewCreditGrantConsumedEvent(g *CreditGrant, consumed decimal.Decimal, invoiceID uuid.UUID) *CreditGrantConsumedEvent {
	return &CreditGrantConsumedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeCreditGrantConsumed, "CreditGrant", g.ID),
		CustomerID:      g.CustomerID,
		InvoiceID:       invoiceID,
		Consumed:        consumed,
		Remaining:       g.Amount,
		Status:          g.Status,
	}
}

// CreditGrantExpiredEvent is raised when lazy expiry reclassifies a grant
type CreditGrantExpiredEvent struct {
	shared.BaseDomainEvent
	CustomerID uuid.UUID       `json:"customer_id"`
	Forfeited  decimal.Decimal `json:"forfeited"`
	ExpiryDate time.Time       `json:"expiry_date"`
}

// NewCreditGrantExpiredEvent creates a new CreditGrantExpiredEvent
func NewCreditGrantExpiredEvent(g *CreditGrant) *CreditGrantExpiredEvent {
	return &CreditGrantExpiredEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeCreditGrantExpired, "CreditGrant", g.ID),
		CustomerID:      g.CustomerID,
		Forfeited:       g.Amount,
		ExpiryDate:      g.ExpiryDate,
	}
}
