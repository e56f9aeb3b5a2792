package persistence

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/creditledger/backend/internal/domain/memo"
	"github.com/creditledger/backend/internal/domain/shared"
	"github.com/creditledger/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormCreditMemoRepository implements CreditMemoRepository using GORM
type GormCreditMemoRepository struct {
	db *gorm.DB
}

// NewGormCreditMemoRepository creates a new GormCreditMemoRepository
func NewGormCreditMemoRepository(db *gorm.DB) *GormCreditMemoRepository {
	return &GormCreditMemoRepository{db: db}
}

// FindByID finds a credit memo by its ID
func (r *GormCreditMemoRepository) FindByID(ctx context.Context, id uuid.UUID) (*memo.CreditMemo, error) {
	var model models.CreditMemoModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByMemoNumber finds a credit memo by its memo number
func (r *GormCreditMemoRepository) FindByMemoNumber(ctx context.Context, memoNumber string) (*memo.CreditMemo, error) {
	var model models.CreditMemoModel
	if err := r.db.WithContext(ctx).
		Where("UPPER(memo_number) = ?", strings.ToUpper(memoNumber)).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByCustomer finds all credit memos for a customer, newest first
func (r *GormCreditMemoRepository) FindByCustomer(ctx context.Context, customerID uuid.UUID) ([]memo.CreditMemo, error) {
	var memoModels []models.CreditMemoModel
	if err := r.db.WithContext(ctx).
		Where("customer_id = ?", customerID).
		Order("created_date DESC, created_at DESC").
		Find(&memoModels).Error; err != nil {
		return nil, err
	}

	memos := make([]memo.CreditMemo, len(memoModels))
	for i, model := range memoModels {
		memos[i] = *model.ToDomain()
	}
	return memos, nil
}

// FindAll finds credit memos matching the filter
func (r *GormCreditMemoRepository) FindAll(ctx context.Context, filter memo.CreditMemoFilter) ([]memo.CreditMemo, error) {
	var memoModels []models.CreditMemoModel
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.CreditMemoModel{}), filter)

	if err := query.Find(&memoModels).Error; err != nil {
		return nil, err
	}

	memos := make([]memo.CreditMemo, len(memoModels))
	for i, model := range memoModels {
		memos[i] = *model.ToDomain()
	}
	return memos, nil
}

// NextMemoNumber allocates the next sequential memo number for the given
// type. Allocation runs inside a transaction that locks existing rows of
// that type so two concurrent reports cannot share a number.
func (r *GormCreditMemoRepository) NextMemoNumber(ctx context.Context, memoType memo.MemoType) (string, error) {
	if !memoType.IsValid() {
		return "", shared.NewDomainError("INVALID_MEMO_TYPE", fmt.Sprintf("Unknown credit memo type: %s", memoType))
	}

	var number string
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&models.CreditMemoModel{}).
			Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("type = ?", memoType).
			Count(&count).Error; err != nil {
			return err
		}
		number = fmt.Sprintf("%s-%06d", memoType.NumberPrefix(), count+1)
		return nil
	})
	if err != nil {
		return "", err
	}
	return number, nil
}

// Save persists a credit memo
func (r *GormCreditMemoRepository) Save(ctx context.Context, m *memo.CreditMemo) error {
	model := models.CreditMemoModelFromDomain(m)
	return r.db.WithContext(ctx).Save(model).Error
}

// SaveWithLock saves a credit memo with optimistic locking (version check)
// Returns error if the version has changed (concurrent modification)
func (r *GormCreditMemoRepository) SaveWithLock(ctx context.Context, m *memo.CreditMemo) error {
	model := models.CreditMemoModelFromDomain(m)
	result := r.db.WithContext(ctx).
		Model(model).
		Where("id = ? AND version = ?", m.ID, m.Version-1).
		Updates(model)

	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.NewDomainError(shared.CodeConcurrencyConflict, "The credit memo has been modified by another transaction")
	}
	return nil
}

// Count counts credit memos matching the filter
func (r *GormCreditMemoRepository) Count(ctx context.Context, filter memo.CreditMemoFilter) (int64, error) {
	var count int64
	query := r.applyFilterWithoutPagination(r.db.WithContext(ctx).Model(&models.CreditMemoModel{}), filter)

	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// applyFilter applies filter options to the query
func (r *GormCreditMemoRepository) applyFilter(query *gorm.DB, filter memo.CreditMemoFilter) *gorm.DB {
	query = r.applyFilterWithoutPagination(query, filter)

	if filter.Page > 0 && filter.PageSize > 0 {
		query = query.Offset(filter.Offset()).Limit(filter.Limit())
	}

	if filter.OrderBy != "" {
		orderBy := ValidateSortField(filter.OrderBy, CreditMemoSortFields, "created_date")
		query = query.Order(orderBy + " " + ValidateSortOrder(filter.OrderDir))
	} else {
		query = query.Order("created_date DESC, created_at DESC")
	}

	return query
}

// applyFilterWithoutPagination applies filter options without pagination
func (r *GormCreditMemoRepository) applyFilterWithoutPagination(query *gorm.DB, filter memo.CreditMemoFilter) *gorm.DB {
	if filter.Search != "" {
		searchPattern := "%" + filter.Search + "%"
		query = query.Where("memo_number ILIKE ? OR reason ILIKE ?", searchPattern, searchPattern)
	}
	if filter.CustomerID != nil {
		query = query.Where("customer_id = ?", *filter.CustomerID)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.Type != nil {
		query = query.Where("type = ?", *filter.Type)
	}
	return query
}

// Ensure GormCreditMemoRepository implements CreditMemoRepository
var _ memo.CreditMemoRepository = (*GormCreditMemoRepository)(nil)

// GormDamageReportRepository implements DamageReportRepository using GORM
type GormDamageReportRepository struct {
	db *gorm.DB
}

// NewGormDamageReportRepository creates a new GormDamageReportRepository
func NewGormDamageReportRepository(db *gorm.DB) *GormDamageReportRepository {
	return &GormDamageReportRepository{db: db}
}

// FindByID finds a damage report by its ID
func (r *GormDamageReportRepository) FindByID(ctx context.Context, id uuid.UUID) (*memo.DamageReport, error) {
	var model models.DamageReportModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByCustomer finds all damage reports for a customer, newest first
func (r *GormDamageReportRepository) FindByCustomer(ctx context.Context, customerID uuid.UUID) ([]memo.DamageReport, error) {
	var reportModels []models.DamageReportModel
	if err := r.db.WithContext(ctx).
		Where("customer_id = ?", customerID).
		Order("reported_date DESC").
		Find(&reportModels).Error; err != nil {
		return nil, err
	}

	reports := make([]memo.DamageReport, len(reportModels))
	for i, model := range reportModels {
		reports[i] = *model.ToDomain()
	}
	return reports, nil
}

// Save persists a damage report
func (r *GormDamageReportRepository) Save(ctx context.Context, report *memo.DamageReport) error {
	model := models.DamageReportModelFromDomain(report)
	return r.db.WithContext(ctx).Save(model).Error
}

// Ensure GormDamageReportRepository implements DamageReportRepository
var _ memo.DamageReportRepository = (*GormDamageReportRepository)(nil)
