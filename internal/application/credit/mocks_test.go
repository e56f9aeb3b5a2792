package credit

import (
	"context"
	"sync"
	"time"

	"github.com/creditledger/backend/internal/domain/billing"
	"github.com/creditledger/backend/internal/domain/ledger"
	"github.com/creditledger/backend/internal/domain/memo"
	"github.com/creditledger/backend/internal/domain/partner"
	"github.com/creditledger/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

// =============================================================================
// Mock Repositories
// =============================================================================

type MockCustomerRepository struct {
	mock.Mock
}

func (m *MockCustomerRepository) FindByID(ctx context.Context, id uuid.UUID) (*partner.Customer, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*partner.Customer), args.Error(1)
}

func (m *MockCustomerRepository) FindByCode(ctx context.Context, code string) (*partner.Customer, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*partner.Customer), args.Error(1)
}

func (m *MockCustomerRepository) FindAll(ctx context.Context, filter shared.Filter) ([]partner.Customer, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]partner.Customer), args.Error(1)
}

func (m *MockCustomerRepository) Save(ctx context.Context, customer *partner.Customer) error {
	args := m.Called(ctx, customer)
	return args.Error(0)
}

func (m *MockCustomerRepository) SaveWithLock(ctx context.Context, customer *partner.Customer) error {
	args := m.Called(ctx, customer)
	return args.Error(0)
}

func (m *MockCustomerRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

type MockCreditGrantRepository struct {
	mock.Mock
}

func (m *MockCreditGrantRepository) FindByID(ctx context.Context, id uuid.UUID) (*ledger.CreditGrant, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*ledger.CreditGrant), args.Error(1)
}

func (m *MockCreditGrantRepository) FindByCustomer(ctx context.Context, customerID uuid.UUID) ([]ledger.CreditGrant, error) {
	args := m.Called(ctx, customerID)
	return args.Get(0).([]ledger.CreditGrant), args.Error(1)
}

func (m *MockCreditGrantRepository) FindAll(ctx context.Context, filter ledger.CreditGrantFilter) ([]ledger.CreditGrant, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]ledger.CreditGrant), args.Error(1)
}

func (m *MockCreditGrantRepository) Save(ctx context.Context, grant *ledger.CreditGrant) error {
	args := m.Called(ctx, grant)
	return args.Error(0)
}

func (m *MockCreditGrantRepository) SaveWithLock(ctx context.Context, grant *ledger.CreditGrant) error {
	args := m.Called(ctx, grant)
	return args.Error(0)
}

func (m *MockCreditGrantRepository) SumActiveByCustomer(ctx context.Context, customerID uuid.UUID, at time.Time) (decimal.Decimal, error) {
	args := m.Called(ctx, customerID, at)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

type MockInvoiceRepository struct {
	mock.Mock
}

func (m *MockInvoiceRepository) FindByID(ctx context.Context, id uuid.UUID) (*billing.Invoice, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) FindByNumber(ctx context.Context, number string) (*billing.Invoice, error) {
	args := m.Called(ctx, number)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) FindByCustomer(ctx context.Context, customerID uuid.UUID) ([]billing.Invoice, error) {
	args := m.Called(ctx, customerID)
	return args.Get(0).([]billing.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) FindLatestPendingByCustomer(ctx context.Context, customerID uuid.UUID) (*billing.Invoice, error) {
	args := m.Called(ctx, customerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) FindAll(ctx context.Context, filter billing.InvoiceFilter) ([]billing.Invoice, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]billing.Invoice), args.Error(1)
}

func (m *MockInvoiceRepository) Save(ctx context.Context, invoice *billing.Invoice) error {
	args := m.Called(ctx, invoice)
	return args.Error(0)
}

func (m *MockInvoiceRepository) SaveWithLock(ctx context.Context, invoice *billing.Invoice) error {
	args := m.Called(ctx, invoice)
	return args.Error(0)
}

func (m *MockInvoiceRepository) Count(ctx context.Context, filter billing.InvoiceFilter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

type MockCreditMemoRepository struct {
	mock.Mock
}

func (m *MockCreditMemoRepository) FindByID(ctx context.Context, id uuid.UUID) (*memo.CreditMemo, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*memo.CreditMemo), args.Error(1)
}

func (m *MockCreditMemoRepository) FindByMemoNumber(ctx context.Context, memoNumber string) (*memo.CreditMemo, error) {
	args := m.Called(ctx, memoNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*memo.CreditMemo), args.Error(1)
}

func (m *MockCreditMemoRepository) FindByCustomer(ctx context.Context, customerID uuid.UUID) ([]memo.CreditMemo, error) {
	args := m.Called(ctx, customerID)
	return args.Get(0).([]memo.CreditMemo), args.Error(1)
}

func (m *MockCreditMemoRepository) FindAll(ctx context.Context, filter memo.CreditMemoFilter) ([]memo.CreditMemo, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]memo.CreditMemo), args.Error(1)
}

func (m *MockCreditMemoRepository) NextMemoNumber(ctx context.Context, memoType memo.MemoType) (string, error) {
	args := m.Called(ctx, memoType)
	return args.String(0), args.Error(1)
}

func (m *MockCreditMemoRepository) Save(ctx context.Context, cm *memo.CreditMemo) error {
	args := m.Called(ctx, cm)
	return args.Error(0)
}

func (m *MockCreditMemoRepository) SaveWithLock(ctx context.Context, cm *memo.CreditMemo) error {
	args := m.Called(ctx, cm)
	return args.Error(0)
}

func (m *MockCreditMemoRepository) Count(ctx context.Context, filter memo.CreditMemoFilter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

type MockDamageReportRepository struct {
	mock.Mock
}

func (m *MockDamageReportRepository) FindByID(ctx context.Context, id uuid.UUID) (*memo.DamageReport, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*memo.DamageReport), args.Error(1)
}

func (m *MockDamageReportRepository) FindByCustomer(ctx context.Context, customerID uuid.UUID) ([]memo.DamageReport, error) {
	args := m.Called(ctx, customerID)
	return args.Get(0).([]memo.DamageReport), args.Error(1)
}

func (m *MockDamageReportRepository) Save(ctx context.Context, report *memo.DamageReport) error {
	args := m.Called(ctx, report)
	return args.Error(0)
}

// =============================================================================
// In-memory test doubles for lock and idempotency concerns
// =============================================================================

type fakeLockManager struct {
	mu       sync.Mutex
	acquired int
}

func (f *fakeLockManager) Acquire(ctx context.Context, customerID uuid.UUID) (func(), error) {
	f.mu.Lock()
	f.acquired++
	f.mu.Unlock()
	return func() {}, nil
}

func (f *fakeLockManager) Close() error { return nil }

type fakeIdempotencyStore struct {
	mu   sync.Mutex
	seen map[string]bool
}

func newFakeIdempotencyStore() *fakeIdempotencyStore {
	return &fakeIdempotencyStore{seen: make(map[string]bool)}
}

func (f *fakeIdempotencyStore) MarkProcessed(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.seen[key] {
		return false, nil
	}
	f.seen[key] = true
	return true, nil
}

func (f *fakeIdempotencyStore) IsProcessed(ctx context.Context, key string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.seen[key], nil
}

func (f *fakeIdempotencyStore) Close() error { return nil }
