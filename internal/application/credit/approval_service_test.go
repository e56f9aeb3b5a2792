package credit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/creditledger/backend/internal/domain/ledger"
	"github.com/creditledger/backend/internal/domain/memo"
	"github.com/creditledger/backend/internal/domain/shared"
	"github.com/creditledger/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type approvalFixture struct {
	service   *ApprovalService
	customers *MockCustomerRepository
	grants    *MockCreditGrantRepository
	invoices  *MockInvoiceRepository
	memos     *MockCreditMemoRepository
	locks     *fakeLockManager
}

func newApprovalFixture() *approvalFixture {
	customers := new(MockCustomerRepository)
	grants := new(MockCreditGrantRepository)
	invoices := new(MockInvoiceRepository)
	memos := new(MockCreditMemoRepository)
	locks := &fakeLockManager{}
	resolver := NewRefResolver(customers, invoices)
	allocation := NewAllocationService(grants, invoices, resolver, locks, nil, nil)
	allocation.now = func() time.Time { return testClock }
	return &approvalFixture{
		service:   NewApprovalService(memos, grants, allocation, locks, nil),
		customers: customers,
		grants:    grants,
		invoices:  invoices,
		memos:     memos,
		locks:     locks,
	}
}

func draftMemoFor(t *testing.T, customerID, invoiceID uuid.UUID, amount string) *memo.CreditMemo {
	t.Helper()
	money, err := valueobject.NewMoneyUSDFromString(amount)
	require.NoError(t, err)
	m, err := memo.NewCreditMemo("CM-Q-000010", memo.MemoTypeQuantityShortage, customerID, invoiceID, money, "shortage", nil)
	require.NoError(t, err)
	return m
}

func TestApproveRefund(t *testing.T) {
	f := newApprovalFixture()
	draft := draftMemoFor(t, uuid.New(), uuid.New(), "300.00")

	f.memos.On("FindByID", mock.Anything, draft.ID).Return(draft, nil)
	f.memos.On("SaveWithLock", mock.Anything, draft).Return(nil)

	result, err := f.service.Approve(context.Background(), ApproveRequest{
		MemoRef:        draft.ID.String(),
		CustomerChoice: "refund",
	})
	require.NoError(t, err)

	assert.Equal(t, string(memo.MemoStatusRefundProcessed), result.CreditMemo.Status)
	assert.Equal(t, "refund", result.CreditMemo.CustomerChoice)
	assert.NotNil(t, result.CreditMemo.ApprovedDate)
	assert.NotNil(t, result.CreditMemo.AppliedDate)
	// Refund execution is external: no grant or invoice mutation
	f.grants.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)

	// The draft went terminal in a single transition, so the version moved
	// exactly once before the optimistic save
	assert.Equal(t, 2, draft.GetVersion())
	assert.Equal(t, 1, f.locks.acquired)
}

func TestApproveApplyToAccount(t *testing.T) {
	f := newApprovalFixture()
	customerID := uuid.New()
	draft := draftMemoFor(t, customerID, uuid.New(), "300.00")

	f.memos.On("FindByID", mock.Anything, draft.ID).Return(draft, nil)
	f.memos.On("SaveWithLock", mock.Anything, draft).Return(nil)
	f.grants.On("Save", mock.Anything, mock.Anything).Return(nil)

	result, err := f.service.Approve(context.Background(), ApproveRequest{
		MemoRef:        draft.ID.String(),
		CustomerChoice: "apply_to_account",
	})
	require.NoError(t, err)

	assert.Equal(t, string(memo.MemoStatusAppliedToAccount), result.CreditMemo.Status)
	require.NotNil(t, result.GrantID)

	// The new grant mirrors the memo amount and carries the discrepancy category
	require.Len(t, f.grants.Calls, 1)
	grant := f.grants.Calls[0].Arguments.Get(1).(*ledger.CreditGrant)
	assert.Equal(t, customerID, grant.CustomerID)
	assert.True(t, grant.Amount.Equal(decimal.RequireFromString("300.00")))
	assert.True(t, grant.OriginalAmount.Equal(decimal.RequireFromString("300.00")))
	assert.Equal(t, ledger.GrantStatusActive, grant.Status)
	assert.Equal(t, ledger.CategoryDiscrepancyCredit, grant.Category)
	assert.Equal(t, "shortage", grant.Description)
	assert.Equal(t, grant.EarnedDate.Add(ledger.DefaultGrantValidity), grant.ExpiryDate)
}

func TestApproveApplyToAccountGrantFailureRevertsDraft(t *testing.T) {
	f := newApprovalFixture()
	draft := draftMemoFor(t, uuid.New(), uuid.New(), "300.00")

	f.memos.On("FindByID", mock.Anything, draft.ID).Return(draft, nil)
	f.memos.On("SaveWithLock", mock.Anything, draft).Return(nil)
	f.grants.On("Save", mock.Anything, mock.Anything).Return(errors.New("connection reset"))

	_, err := f.service.Approve(context.Background(), ApproveRequest{
		MemoRef:        draft.ID.String(),
		CustomerChoice: "apply_to_account",
	})
	require.Error(t, err)

	// The settled memo was rolled back so the approval can be retried
	// without minting a second grant
	assert.Equal(t, memo.MemoStatusDraft, draft.Status)
	assert.Nil(t, draft.CustomerChoice)
	assert.Nil(t, draft.AppliedDate)
	f.memos.AssertNumberOfCalls(t, "SaveWithLock", 2)

	// The retry succeeds once the grant store recovers
	f.grants.ExpectedCalls = nil
	f.grants.On("Save", mock.Anything, mock.Anything).Return(nil)

	result, err := f.service.Approve(context.Background(), ApproveRequest{
		MemoRef:        draft.ID.String(),
		CustomerChoice: "apply_to_account",
	})
	require.NoError(t, err)
	assert.Equal(t, string(memo.MemoStatusAppliedToAccount), result.CreditMemo.Status)
	require.NotNil(t, result.GrantID)
}

func TestApproveApplyToInvoice(t *testing.T) {
	f := newApprovalFixture()
	customer := testCustomer(t)
	invoice := testPendingInvoice(t, customer.ID, "1000.00")
	grant := testGrant(t, customer.ID, "500.00", "2024-01-01")
	draft := draftMemoFor(t, customer.ID, invoice.ID, "300.00")

	f.memos.On("FindByID", mock.Anything, draft.ID).Return(draft, nil)
	f.memos.On("SaveWithLock", mock.Anything, draft).Return(nil)
	f.customers.On("FindByID", mock.Anything, customer.ID).Return(customer, nil)
	f.invoices.On("FindByID", mock.Anything, invoice.ID).Return(invoice, nil)
	f.grants.On("FindByCustomer", mock.Anything, customer.ID).Return([]ledger.CreditGrant{grant}, nil)
	f.grants.On("SaveWithLock", mock.Anything, mock.Anything).Return(nil)
	f.invoices.On("SaveWithLock", mock.Anything, invoice).Return(nil)

	result, err := f.service.Approve(context.Background(), ApproveRequest{
		MemoRef:        draft.ID.String(),
		CustomerChoice: "apply_to_invoice",
	})
	require.NoError(t, err)

	assert.Equal(t, string(memo.MemoStatusAppliedToInvoice), result.CreditMemo.Status)
	require.NotNil(t, result.Transaction)
	assert.True(t, result.Transaction.RequestedAmount.Equal(decimal.RequireFromString("300.00")))
	assert.True(t, invoice.CurrentAmount.Equal(decimal.RequireFromString("700.00")))
	// The allocation ran under the lock already held by the approval
	assert.Equal(t, 1, f.locks.acquired)
}

func TestApproveApplyToInvoiceAllocationFailureLeavesDraft(t *testing.T) {
	f := newApprovalFixture()
	customer := testCustomer(t)
	invoice := testPendingInvoice(t, customer.ID, "1000.00")
	// Not enough credit to cover the memo
	grant := testGrant(t, customer.ID, "100.00", "2024-01-01")
	draft := draftMemoFor(t, customer.ID, invoice.ID, "300.00")

	f.memos.On("FindByID", mock.Anything, draft.ID).Return(draft, nil)
	f.customers.On("FindByID", mock.Anything, customer.ID).Return(customer, nil)
	f.invoices.On("FindByID", mock.Anything, invoice.ID).Return(invoice, nil)
	f.grants.On("FindByCustomer", mock.Anything, customer.ID).Return([]ledger.CreditGrant{grant}, nil)

	_, err := f.service.Approve(context.Background(), ApproveRequest{
		MemoRef:        draft.ID.String(),
		CustomerChoice: "apply_to_invoice",
	})

	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, shared.CodeInsufficientCredit, domainErr.Code)

	// The memo was never touched
	assert.Equal(t, memo.MemoStatusDraft, draft.Status)
	assert.Nil(t, draft.CustomerChoice)
	f.memos.AssertNotCalled(t, "SaveWithLock", mock.Anything, mock.Anything)
}

func TestApproveMemoNotFound(t *testing.T) {
	f := newApprovalFixture()
	f.memos.On("FindByMemoNumber", mock.Anything, "CM-Q-999999").Return(nil, nil)

	_, err := f.service.Approve(context.Background(), ApproveRequest{
		MemoRef:        "CM-Q-999999",
		CustomerChoice: "refund",
	})

	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, shared.CodeCreditMemoNotFound, domainErr.Code)
}

func TestApproveUnknownChoice(t *testing.T) {
	f := newApprovalFixture()
	draft := draftMemoFor(t, uuid.New(), uuid.New(), "300.00")
	f.memos.On("FindByID", mock.Anything, draft.ID).Return(draft, nil)

	_, err := f.service.Approve(context.Background(), ApproveRequest{
		MemoRef:        draft.ID.String(),
		CustomerChoice: "store_credit",
	})

	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, shared.CodeUnknownAction, domainErr.Code)
	assert.Equal(t, memo.MemoStatusDraft, draft.Status)
}

func TestApproveAlreadyApproved(t *testing.T) {
	f := newApprovalFixture()
	draft := draftMemoFor(t, uuid.New(), uuid.New(), "300.00")
	require.NoError(t, draft.Approve(memo.ChoiceRefund, nil))

	f.memos.On("FindByID", mock.Anything, draft.ID).Return(draft, nil)

	_, err := f.service.Approve(context.Background(), ApproveRequest{
		MemoRef:        draft.ID.String(),
		CustomerChoice: "refund",
	})

	var domainErr *shared.DomainError
	require.ErrorAs(t, err, &domainErr)
	assert.Equal(t, shared.CodeInvalidState, domainErr.Code)
}
