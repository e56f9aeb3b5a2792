package memo

import (
	"testing"

	"github.com/creditledger/backend/internal/domain/shared"
	"github.com/creditledger/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newDraftMemo(t *testing.T) *CreditMemo {
	t.Helper()
	amount, err := valueobject.NewMoneyUSDFromString("300.00")
	require.NoError(t, err)
	m, err := NewCreditMemo("CM-Q-000001", MemoTypeQuantityShortage, uuid.New(), uuid.New(), amount, "2 units short on delivery", []AffectedItem{
		{
			Description:     "Transmission Unit",
			OrderedQuantity: decimal.RequireFromString("10"),
			MissingQuantity: decimal.RequireFromString("2"),
			UnitPrice:       decimal.RequireFromString("150.00"),
			CreditAmount:    decimal.RequireFromString("300.00"),
		},
	})
	require.NoError(t, err)
	return m
}

func TestNewCreditMemo(t *testing.T) {
	t.Run("starts in draft with no choice", func(t *testing.T) {
		m := newDraftMemo(t)

		assert.Equal(t, MemoStatusDraft, m.Status)
		assert.Nil(t, m.CustomerChoice)
		assert.Nil(t, m.ApprovedDate)
		assert.Nil(t, m.AppliedDate)
		assert.True(t, m.Amount.Equal(decimal.RequireFromString("300.00")))
		assert.Len(t, m.GetDomainEvents(), 1)
	})

	t.Run("rejects invalid type", func(t *testing.T) {
		amount, _ := valueobject.NewMoneyUSDFromString("10.00")
		_, err := NewCreditMemo("CM-X-000001", MemoType("return"), uuid.New(), uuid.New(), amount, "", nil)
		assert.Error(t, err)
	})

	t.Run("rejects non-positive amount", func(t *testing.T) {
		_, err := NewCreditMemo("CM-Q-000002", MemoTypeQuantityShortage, uuid.New(), uuid.New(), valueobject.ZeroUSD(), "", nil)
		assert.Error(t, err)
	})
}

func TestCreditMemoApprove(t *testing.T) {
	t.Run("refund choice settles in one transition", func(t *testing.T) {
		m := newDraftMemo(t)

		err := m.Approve(ChoiceRefund, nil)
		require.NoError(t, err)

		assert.Equal(t, MemoStatusRefundProcessed, m.Status)
		require.NotNil(t, m.CustomerChoice)
		assert.Equal(t, ChoiceRefund, *m.CustomerChoice)
		assert.NotNil(t, m.ApprovedDate)
		assert.NotNil(t, m.AppliedDate)
		// One increment for the whole draft-to-terminal transition, so the
		// optimistic save predicate matches the stored version
		assert.Equal(t, 2, m.GetVersion())
	})

	t.Run("apply_to_invoice requires a target invoice", func(t *testing.T) {
		m := newDraftMemo(t)

		err := m.Approve(ChoiceApplyToInvoice, nil)
		assert.Error(t, err)
		assert.Equal(t, MemoStatusDraft, m.Status)
	})

	t.Run("unknown choice", func(t *testing.T) {
		m := newDraftMemo(t)

		err := m.Approve(CustomerChoice("store_credit"), nil)
		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, shared.CodeUnknownAction, domainErr.Code)
	})

	t.Run("cannot approve twice", func(t *testing.T) {
		m := newDraftMemo(t)
		require.NoError(t, m.Approve(ChoiceRefund, nil))

		err := m.Approve(ChoiceRefund, nil)
		assert.Error(t, err)
	})
}

func TestCreditMemoTerminalStatusByChoice(t *testing.T) {
	tests := []struct {
		name   string
		choice CustomerChoice
		want   MemoStatus
	}{
		{name: "apply to invoice", choice: ChoiceApplyToInvoice, want: MemoStatusAppliedToInvoice},
		{name: "apply to account", choice: ChoiceApplyToAccount, want: MemoStatusAppliedToAccount},
		{name: "refund", choice: ChoiceRefund, want: MemoStatusRefundProcessed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newDraftMemo(t)
			var target *uuid.UUID
			if tt.choice == ChoiceApplyToInvoice {
				id := m.InvoiceID
				target = &id
			}
			require.NoError(t, m.Approve(tt.choice, target))

			assert.Equal(t, tt.want, m.Status)
			assert.True(t, m.Status.IsTerminal())
			assert.NotNil(t, m.AppliedDate)
		})
	}
}

func TestCreditMemoRevertToDraft(t *testing.T) {
	m := newDraftMemo(t)
	target := m.InvoiceID
	require.NoError(t, m.Approve(ChoiceApplyToInvoice, &target))

	err := m.RevertToDraft()
	require.NoError(t, err)

	assert.Equal(t, MemoStatusDraft, m.Status)
	assert.Nil(t, m.CustomerChoice)
	assert.Nil(t, m.TargetInvoiceID)
	assert.Nil(t, m.ApprovedDate)
	assert.Nil(t, m.AppliedDate)

	t.Run("reverted memo is approvable again", func(t *testing.T) {
		require.NoError(t, m.Approve(ChoiceRefund, nil))
		assert.Equal(t, MemoStatusRefundProcessed, m.Status)
	})

	t.Run("draft cannot be reverted", func(t *testing.T) {
		fresh := newDraftMemo(t)
		assert.Error(t, fresh.RevertToDraft())
	})
}

func TestNewDamageReport(t *testing.T) {
	amount, _ := valueobject.NewMoneyUSDFromString("150.00")

	t.Run("valid report", func(t *testing.T) {
		r, err := NewDamageReport(uuid.New(), uuid.New(), "Transmission Unit", "cracked housing", amount)
		require.NoError(t, err)
		assert.Equal(t, DamageReportStatusReported, r.Status)
		assert.True(t, r.EstimatedCreditAmount.Equal(decimal.RequireFromString("150.00")))
	})

	t.Run("requires item description", func(t *testing.T) {
		_, err := NewDamageReport(uuid.New(), uuid.New(), "", "cracked housing", amount)
		assert.Error(t, err)
	})
}

func TestMemoNumberPrefix(t *testing.T) {
	assert.Equal(t, "CM-Q", MemoTypeQuantityShortage.NumberPrefix())
	assert.Equal(t, "CM-D", MemoTypeDamageClaim.NumberPrefix())
}
