package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/creditledger/backend/internal/domain/ledger"
	"github.com/creditledger/backend/internal/domain/shared"
	"github.com/creditledger/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// GormCreditGrantRepository implements CreditGrantRepository using GORM
type GormCreditGrantRepository struct {
	db *gorm.DB
}

// NewGormCreditGrantRepository creates a new GormCreditGrantRepository
func NewGormCreditGrantRepository(db *gorm.DB) *GormCreditGrantRepository {
	return &GormCreditGrantRepository{db: db}
}

// FindByID finds a credit grant by its ID
func (r *GormCreditGrantRepository) FindByID(ctx context.Context, id uuid.UUID) (*ledger.CreditGrant, error) {
	var model models.CreditGrantModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByCustomer finds all grants for a customer, oldest earned first.
// Earned-date ordering is what allocation consumes in, so it is fixed here
// rather than left to the caller.
func (r *GormCreditGrantRepository) FindByCustomer(ctx context.Context, customerID uuid.UUID) ([]ledger.CreditGrant, error) {
	var grantModels []models.CreditGrantModel
	if err := r.db.WithContext(ctx).
		Where("customer_id = ?", customerID).
		Order("earned_date ASC, created_at ASC").
		Find(&grantModels).Error; err != nil {
		return nil, err
	}

	grants := make([]ledger.CreditGrant, len(grantModels))
	for i, model := range grantModels {
		grants[i] = *model.ToDomain()
	}
	return grants, nil
}

// FindAll finds grants matching the filter
func (r *GormCreditGrantRepository) FindAll(ctx context.Context, filter ledger.CreditGrantFilter) ([]ledger.CreditGrant, error) {
	var grantModels []models.CreditGrantModel
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.CreditGrantModel{}), filter)

	if err := query.Order("earned_date ASC, created_at ASC").Find(&grantModels).Error; err != nil {
		return nil, err
	}

	grants := make([]ledger.CreditGrant, len(grantModels))
	for i, model := range grantModels {
		grants[i] = *model.ToDomain()
	}
	return grants, nil
}

// Save creates or updates a credit grant
func (r *GormCreditGrantRepository) Save(ctx context.Context, grant *ledger.CreditGrant) error {
	model := models.CreditGrantModelFromDomain(grant)
	return r.db.WithContext(ctx).Save(model).Error
}

// SaveWithLock saves a grant with optimistic locking (version check)
// Returns error if the version has changed (concurrent modification)
func (r *GormCreditGrantRepository) SaveWithLock(ctx context.Context, grant *ledger.CreditGrant) error {
	model := models.CreditGrantModelFromDomain(grant)
	result := r.db.WithContext(ctx).
		Model(model).
		Where("id = ? AND version = ?", grant.ID, grant.Version-1).
		Updates(model)

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.NewDomainError(shared.CodeConcurrencyConflict, "The credit grant has been modified by another transaction")
	}
	return nil
}

// SumActiveByCustomer sums remaining balances of spendable grants whose
// expiry is still in the future at the given instant
func (r *GormCreditGrantRepository) SumActiveByCustomer(ctx context.Context, customerID uuid.UUID, at time.Time) (decimal.Decimal, error) {
	var total decimal.NullDecimal
	err := r.db.WithContext(ctx).
		Model(&models.CreditGrantModel{}).
		Select("SUM(amount)").
		Where("customer_id = ? AND status IN ? AND expiry_date > ?",
			customerID,
			[]ledger.GrantStatus{ledger.GrantStatusActive, ledger.GrantStatusPartiallyUsed},
			at).
		Scan(&total).Error
	if err != nil {
		return decimal.Zero, err
	}
	if !total.Valid {
		return decimal.Zero, nil
	}
	return total.Decimal, nil
}

// applyFilter applies grant filter options to the query
func (r *GormCreditGrantRepository) applyFilter(query *gorm.DB, filter ledger.CreditGrantFilter) *gorm.DB {
	if filter.CustomerID != nil {
		query = query.Where("customer_id = ?", *filter.CustomerID)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.SourceType != nil {
		query = query.Where("source_type = ?", *filter.SourceType)
	}
	if filter.Category != nil {
		query = query.Where("category = ?", *filter.Category)
	}
	if filter.EarnedFrom != nil {
		query = query.Where("earned_date >= ?", *filter.EarnedFrom)
	}
	if filter.EarnedTo != nil {
		query = query.Where("earned_date <= ?", *filter.EarnedTo)
	}
	return query
}

// Ensure GormCreditGrantRepository implements CreditGrantRepository
var _ ledger.CreditGrantRepository = (*GormCreditGrantRepository)(nil)
