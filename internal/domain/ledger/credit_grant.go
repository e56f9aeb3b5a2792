package ledger

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

// GrantStatus represents the lifecycle status of a credit grant
type GrantStatus string

const (
	GrantStatusActive        GrantStatus = "active"         // Unused, spendable
	GrantStatusPartiallyUsed GrantStatus = "partially_used" // Some balance consumed
	GrantStatusUsed          GrantStatus = "used"           // Balance fully consumed
	GrantStatusExpired       GrantStatus = "expired"        // Expiry date passed with balance remaining
)

// IsValid checks if the status is a valid GrantStatus
func (s GrantStatus) IsValid() bool {
	switch s {
	case GrantStatusActive, GrantStatusPartiallyUsed, GrantStatusUsed, GrantStatusExpired:
		return true
	}
	return false
}

// String returns the string representation of GrantStatus
func (s GrantStatus) String() string {
	return string(s)
}

// IsSpendable returns true if a grant in this status can still be consumed
// (subject to the expiry-date check at evaluation time)
func (s GrantStatus) IsSpendable() bool {
	return s == GrantStatusActive || s == GrantStatusPartiallyUsed
}

// GrantSourceType describes how a grant came to exist
type GrantSourceType string

const (
	GrantSourcePurchaseReward GrantSourceType = "purchase_reward" // Accrued from purchases
	GrantSourceCreditMemo     GrantSourceType = "credit_memo"     // Credit memo applied to account
	GrantSourceManual         GrantSourceType = "manual"          // Manually issued
)

// IsValid checks if the source type is valid
func (s GrantSourceType) IsValid() bool {
	switch s {
	case GrantSourcePurchaseReward, GrantSourceCreditMemo, GrantSourceManual:
		return true
	}
	return false
}

// Grant categories
const (
	CategoryPurchaseReward    = "purchase_reward"
	CategoryDiscrepancyCredit = "discrepancy_credit"
	CategoryPromotional       = "promotional"
)

// UsageRecord is an append-only entry describing one consumption event.
// Records are never removed or edited once written.
type UsageRecord struct {
	ID        uuid.UUID       `json:"id"`
	InvoiceID uuid.UUID       `json:"invoice_id"`
	Amount    decimal.Decimal `json:"amount"`
	UsedAt    time.Time       `json:"used_at"`
	Remark    string          `json:"remark,omitempty"`
}

// UsageHistory is a slice of UsageRecord that implements GORM Scanner/Valuer
// for JSONB storage
type UsageHistory []UsageRecord

// Value implements driver.Valuer interface for GORM to store as JSONB
func (h UsageHistory) Value() (driver.Value, error) {
	if h == nil {
		return "[]", nil
	}
	return json.Marshal(h)
}

// Scan implements sql.Scanner interface for GORM to read from JSONB
func (h *UsageHistory) Scan(value interface{}) error {
	if value == nil {
		*h = UsageHistory{}
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return errors.New("failed to scan UsageHistory: unsupported type")
	}

	if len(bytes) == 0 {
		*h = UsageHistory{}
		return nil
	}

	return json.Unmarshal(bytes, h)
}

// CreditGrant represents a credit grant aggregate root.
// A grant tracks a remaining spendable balance that only ever decreases;
// the invariant 0 <= Amount <= OriginalAmount holds at all times, and
// status `used` coincides exactly with a zero remaining balance.
// Grants are never deleted.
type CreditGrant struct {
	shared.BaseAggregateRoot
	CustomerID     uuid.UUID       `json:"customer_id"`
	Amount         decimal.Decimal `json:"amount"`          // Current remaining balance
	OriginalAmount decimal.Decimal `json:"original_amount"` // Immutable issued amount
	EarnedDate     time.Time       `json:"earned_date"`
	ExpiryDate     time.Time       `json:"expiry_date"`
	Status         GrantStatus     `json:"status"`
	SourceType     GrantSourceType `json:"source_type"`
	Category       string          `json:"category"`
	Description    string          `json:"description"`
	UsageHistory   UsageHistory    `json:"usage_history"`
}

// DefaultGrantValidity is how long a newly issued grant stays spendable
const DefaultGrantValidity = 2 * 365 * 24 * time.Hour // 2 years

// NewCreditGrant creates a new credit grant
func NewCreditGrant(
	customerID uuid.UUID,
	amount valueobject.Money,
	earnedDate, expiryDate time.Time,
	sourceType GrantSourceType,
	category, description string,
) (*CreditGrant, error) {
	if customerID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_CUSTOMER", "Customer ID cannot be empty")
	}
	if amount.Amount().LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError(shared.CodeInvalidAmount, "Grant amount must be positive")
	}
	if !sourceType.IsValid() {
		return nil, shared.NewDomainError("INVALID_SOURCE_TYPE", "Grant source type is not valid")
	}
	if !expiryDate.After(earnedDate) {
		return nil, shared.NewDomainError("INVALID_EXPIRY", "Expiry date must be after earned date")
	}

	g := &CreditGrant{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		CustomerID:        customerID,
		Amount:            amount.Amount(),
		OriginalAmount:    amount.Amount(),
		EarnedDate:        earnedDate,
		ExpiryDate:        expiryDate,
		Status:            GrantStatusActive,
		SourceType:        sourceType,
		Category:          category,
		Description:       description,
		UsageHistory:      UsageHistory{},
	}

	g.AddDomainEvent(NewCreditGrantCreatedEvent(g))

	return g, nil
}

// NewPurchaseRewardGrant creates a grant accrued from purchase activity
func NewPurchaseRewardGrant(customerID uuid.UUID, amount valueobject.Money, earnedDate time.Time, description string) (*CreditGrant, error) {
	return NewCreditGrant(
		customerID,
		amount,
		earnedDate,
		earnedDate.Add(DefaultGrantValidity),
		GrantSourcePurchaseReward,
		CategoryPurchaseReward,
		description,
	)
}

// NewDiscrepancyCreditGrant creates a grant issued when an approved credit
// memo is applied to the customer's account
func NewDiscrepancyCreditGrant(customerID uuid.UUID, amount valueobject.Money, reason string) (*CreditGrant, error) {
	now := time.Now()
	return NewCreditGrant(
		customerID,
		amount,
		now,
		now.Add(DefaultGrantValidity),
		GrantSourceCreditMemo,
		CategoryDiscrepancyCredit,
		reason,
	)
}

// IsExpiredAt reports whether the grant's expiry date has passed at the
// given evaluation time, regardless of the stored status
func (g *CreditGrant) IsExpiredAt(at time.Time) bool {
	return !g.ExpiryDate.After(at)
}

// IsSpendableAt reports whether the grant can be consumed at the given time:
// a spendable status, a positive remaining balance, and an unexpired date
func (g *CreditGrant) IsSpendableAt(at time.Time) bool {
	return g.Status.IsSpendable() && g.Amount.GreaterThan(decimal.Zero) && !g.IsExpiredAt(at)
}

// Consume decrements the grant's remaining balance by the given amount and
// appends a usage record. The grant transitions to `used` when the balance
// reaches zero, otherwise `partially_used`.
func (g *CreditGrant) Consume(amount valueobject.Money, invoiceID uuid.UUID, remark string) error {
	if !g.Status.IsSpendable() {
		return shared.NewDomainError(shared.CodeInvalidState, fmt.Sprintf("Cannot consume grant in %s status", g.Status))
	}
	if amount.Amount().LessThanOrEqual(decimal.Zero) {
		return shared.NewDomainError(shared.CodeInvalidAmount, "Consumption amount must be positive")
	}
	if amount.Amount().GreaterThan(g.Amount) {
		return shared.NewDomainError(shared.CodeInsufficientCredit,
			fmt.Sprintf("Consumption amount %s exceeds remaining balance %s", amount.StringFixed(2), g.Amount.StringFixed(2)))
	}

	g.UsageHistory = append(g.UsageHistory, UsageRecord{
		ID:        uuid.New(),
		InvoiceID: invoiceID,
		Amount:    amount.Amount(),
		UsedAt:    time.Now(),
		Remark:    remark,
	})

	g.Amount = g.Amount.Sub(amount.Amount())
	if g.Amount.IsZero() {
		g.Status = GrantStatusUsed
	} else {
		g.Status = GrantStatusPartiallyUsed
	}

	g.Touch()
	g.IncrementVersion()

	g.AddDomainEvent(NewCreditGrantConsumedEvent(g, amount.Amount(), invoiceID))

	return nil
}

// MarkExpired reclassifies the grant to `expired`. The correction is
// idempotent: marking an already expired grant is a no-op.
func (g *CreditGrant) MarkExpired() bool {
	if g.Status == GrantStatusExpired || g.Status == GrantStatusUsed {
		return false
	}

	g.Status = GrantStatusExpired
	g.Touch()
	g.IncrementVersion()

	g.AddDomainEvent(NewCreditGrantExpiredEvent(g))

	return true
}

// GetAmountMoney returns the remaining balance as Money
func (g *CreditGrant) GetAmountMoney() valueobject.Money {
	return valueobject.NewMoneyUSD(g.Amount)
}

// GetOriginalAmountMoney returns the issued amount as Money
func (g *CreditGrant) GetOriginalAmountMoney() valueobject.Money {
	return valueobject.NewMoneyUSD(g.OriginalAmount)
}

// ConsumedAmount returns how much of the grant has been spent
func (g *CreditGrant) ConsumedAmount() decimal.Decimal {
	return g.OriginalAmount.Sub(g.Amount)
}

// UsageCount returns the number of consumption events
func (g *CreditGrant) UsageCount() int {
	return len(g.UsageHistory)
}
