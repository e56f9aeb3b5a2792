package credit

import (
	"context"
	"testing"
	"time"

	"github.com/creditledger/backend/internal/domain/billing"
	"github.com/creditledger/backend/internal/domain/memo"
	"github.com/creditledger/backend/internal/domain/shared"
	"github.com/creditledger/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type discrepancyFixture struct {
	service   *DiscrepancyService
	customers *MockCustomerRepository
	memos     *MockCreditMemoRepository
	damages   *MockDamageReportRepository
	invoices  *MockInvoiceRepository
}

func newDiscrepancyFixture() *discrepancyFixture {
	customers := new(MockCustomerRepository)
	memos := new(MockCreditMemoRepository)
	damages := new(MockDamageReportRepository)
	invoices := new(MockInvoiceRepository)
	resolver := NewRefResolver(customers, invoices)
	return &discrepancyFixture{
		service:   NewDiscrepancyService(memos, damages, invoices, resolver, nil),
		customers: customers,
		memos:     memos,
		damages:   damages,
		invoices:  invoices,
	}
}

func invoiceWithItems(t *testing.T, customerID uuid.UUID, total string, items ...billing.LineItem) *billing.Invoice {
	t.Helper()
	money, err := valueobject.NewMoneyUSDFromString(total)
	require.NoError(t, err)
	now := time.Now()
	inv, err := billing.NewInvoice("INV-3001", customerID, money, items, now, now.AddDate(0, 1, 0))
	require.NoError(t, err)
	return inv
}

func TestReportQuantityShortage(t *testing.T) {
	f := newDiscrepancyFixture()
	customer := testCustomer(t)
	invoice := invoiceWithItems(t, customer.ID, "1500.00", billing.LineItem{
		Description: "Transmission Unit",
		Quantity:    decimal.RequireFromString("10"),
		UnitPrice:   decimal.RequireFromString("150.00"),
	})

	f.customers.On("FindByID", mock.Anything, customer.ID).Return(customer, nil)
	f.invoices.On("FindByID", mock.Anything, invoice.ID).Return(invoice, nil)
	f.invoices.On("SaveWithLock", mock.Anything, invoice).Return(nil)
	f.memos.On("NextMemoNumber", mock.Anything, memo.MemoTypeQuantityShortage).Return("CM-Q-000042", nil)
	f.memos.On("Save", mock.Anything, mock.Anything).Return(nil)

	result, err := f.service.ReportQuantityShortage(context.Background(),
		customer.ID.String(), invoice.ID.String(), decimal.RequireFromString("2"), "transmission")
	require.NoError(t, err)

	cm := result.CreditMemo
	assert.Equal(t, "CM-Q-000042", cm.MemoNumber)
	assert.Equal(t, string(memo.MemoTypeQuantityShortage), cm.Type)
	assert.Equal(t, string(memo.MemoStatusDraft), cm.Status)
	assert.True(t, cm.Amount.Equal(decimal.RequireFromString("300.00")))
	assert.Empty(t, cm.CustomerChoice)
	require.Len(t, cm.AffectedItems, 1)
	assert.Equal(t, "Transmission Unit", cm.AffectedItems[0].Description)
	assert.True(t, cm.AffectedItems[0].MissingQuantity.Equal(decimal.RequireFromString("2")))

	// Pending invoice: apply to invoice or account, no refund option
	assert.Equal(t, []string{"apply_to_invoice", "apply_to_account"}, result.Options)

	// Received quantity recorded on the line
	require.NotNil(t, invoice.LineItems[0].ReceivedQuantity)
	assert.True(t, invoice.LineItems[0].ReceivedQuantity.Equal(decimal.RequireFromString("8")))
}

func TestReportQuantityShortageValidation(t *testing.T) {
	f := newDiscrepancyFixture()
	customer := testCustomer(t)
	invoice := invoiceWithItems(t, customer.ID, "1500.00", billing.LineItem{
		Description: "Transmission Unit",
		Quantity:    decimal.RequireFromString("10"),
		UnitPrice:   decimal.RequireFromString("150.00"),
	})

	f.customers.On("FindByID", mock.Anything, customer.ID).Return(customer, nil)
	f.invoices.On("FindByID", mock.Anything, invoice.ID).Return(invoice, nil)

	t.Run("zero quantity", func(t *testing.T) {
		_, err := f.service.ReportQuantityShortage(context.Background(),
			customer.ID.String(), invoice.ID.String(), decimal.Zero, "transmission")
		assert.Error(t, err)
	})

	t.Run("missing more than ordered", func(t *testing.T) {
		_, err := f.service.ReportQuantityShortage(context.Background(),
			customer.ID.String(), invoice.ID.String(), decimal.RequireFromString("11"), "transmission")
		assert.Error(t, err)
	})

	t.Run("unknown item reports candidates", func(t *testing.T) {
		_, err := f.service.ReportQuantityShortage(context.Background(),
			customer.ID.String(), invoice.ID.String(), decimal.RequireFromString("1"), "windshield")

		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, shared.CodeItemNotFound, domainErr.Code)
		assert.Contains(t, domainErr.Message, "Transmission Unit")
	})
}

func TestReportDamage(t *testing.T) {
	f := newDiscrepancyFixture()
	customer := testCustomer(t)
	invoice := invoiceWithItems(t, customer.ID, "2000.00",
		billing.LineItem{
			Description: "Transmission Unit",
			Quantity:    decimal.RequireFromString("10"),
			UnitPrice:   decimal.RequireFromString("150.00"),
		},
		billing.LineItem{
			Description: "Oil filter",
			Quantity:    decimal.RequireFromString("20"),
			UnitPrice:   decimal.RequireFromString("25.00"),
		},
	)

	f.customers.On("FindByID", mock.Anything, customer.ID).Return(customer, nil)
	f.invoices.On("FindByID", mock.Anything, invoice.ID).Return(invoice, nil)
	f.memos.On("NextMemoNumber", mock.Anything, memo.MemoTypeDamageClaim).Return("CM-D-000007", nil)
	f.memos.On("Save", mock.Anything, mock.Anything).Return(nil)
	f.damages.On("Save", mock.Anything, mock.Anything).Return(nil)

	result, err := f.service.ReportDamage(context.Background(),
		customer.ID.String(), invoice.ID.String(), "oil filter", "boxes arrived crushed")
	require.NoError(t, err)

	assert.Equal(t, "CM-D-000007", result.CreditMemo.MemoNumber)
	assert.Equal(t, string(memo.MemoTypeDamageClaim), result.CreditMemo.Type)
	assert.Equal(t, string(memo.MemoStatusDraft), result.CreditMemo.Status)
	// Full listed price of the damaged line
	assert.True(t, result.CreditMemo.Amount.Equal(decimal.RequireFromString("500.00")))

	assert.Equal(t, "Oil filter", result.DamageReport.ItemDescription)
	assert.Equal(t, "boxes arrived crushed", result.DamageReport.Description)
	assert.True(t, result.DamageReport.EstimatedCreditAmount.Equal(decimal.RequireFromString("500.00")))

	f.damages.AssertCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestDispositionOptionsForPaidInvoice(t *testing.T) {
	f := newDiscrepancyFixture()
	customer := testCustomer(t)
	invoice := invoiceWithItems(t, customer.ID, "100.00", billing.LineItem{
		Description: "Spark plugs",
		Quantity:    decimal.RequireFromString("4"),
		UnitPrice:   decimal.RequireFromString("25.00"),
	})
	amount, _ := valueobject.NewMoneyUSDFromString("100.00")
	require.NoError(t, invoice.RecordPayment(amount))

	f.customers.On("FindByID", mock.Anything, customer.ID).Return(customer, nil)
	f.invoices.On("FindByID", mock.Anything, invoice.ID).Return(invoice, nil)
	f.memos.On("NextMemoNumber", mock.Anything, memo.MemoTypeDamageClaim).Return("CM-D-000008", nil)
	f.memos.On("Save", mock.Anything, mock.Anything).Return(nil)
	f.damages.On("Save", mock.Anything, mock.Anything).Return(nil)

	result, err := f.service.ReportDamage(context.Background(),
		customer.ID.String(), invoice.ID.String(), "spark plugs", "cracked insulators")
	require.NoError(t, err)

	// Settled invoice cannot absorb more credit
	assert.Equal(t, []string{"apply_to_account", "refund"}, result.Options)
}
