package billing

import (
	"testing"
	"time"

	"github.com/creditledger/backend/internal/domain/shared"
	"github.com/creditledger/backend/internal/domain/shared/valueobject"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestInvoice(t *testing.T, total string, items ...LineItem) *Invoice {
	t.Helper()
	amount, err := valueobject.NewMoneyUSDFromString(total)
	require.NoError(t, err)
	now := time.Now()
	inv, err := NewInvoice("INV-1001", uuid.New(), amount, items, now, now.AddDate(0, 1, 0))
	require.NoError(t, err)
	return inv
}

func lineItem(desc string, qty, unitPrice string) LineItem {
	return LineItem{
		Description: desc,
		Quantity:    decimal.RequireFromString(qty),
		UnitPrice:   decimal.RequireFromString(unitPrice),
	}
}

func TestNewInvoice(t *testing.T) {
	t.Run("valid invoice", func(t *testing.T) {
		inv := newTestInvoice(t, "1500.00", lineItem("Brake pads", "10", "150.00"))

		assert.Equal(t, "INV-1001", inv.Number)
		assert.Equal(t, InvoiceStatusPending, inv.Status)
		assert.Equal(t, PaymentStatusUnpaid, inv.PaymentStatus)
		assert.True(t, inv.CurrentAmount.Equal(inv.OriginalAmount))
		assert.True(t, inv.CreditsApplied.IsZero())
		require.Len(t, inv.LineItems, 1)
		assert.NotEqual(t, uuid.Nil, inv.LineItems[0].ID)
		assert.Len(t, inv.GetDomainEvents(), 1)
	})

	t.Run("rejects empty number", func(t *testing.T) {
		amount, _ := valueobject.NewMoneyUSDFromString("100.00")
		_, err := NewInvoice("", uuid.New(), amount, nil, time.Now(), time.Now())
		assert.Error(t, err)
	})

	t.Run("rejects non-positive amount", func(t *testing.T) {
		amount := valueobject.ZeroUSD()
		_, err := NewInvoice("INV-1", uuid.New(), amount, nil, time.Now(), time.Now())
		assert.Error(t, err)
	})
}

func TestInvoiceApplyCredit(t *testing.T) {
	t.Run("partial credit keeps invoice pending", func(t *testing.T) {
		inv := newTestInvoice(t, "1000.00")
		amount, _ := valueobject.NewMoneyUSDFromString("400.00")

		err := inv.ApplyCredit(amount)
		require.NoError(t, err)

		assert.True(t, inv.CurrentAmount.Equal(decimal.RequireFromString("600.00")))
		assert.True(t, inv.CreditsApplied.Equal(decimal.RequireFromString("400.00")))
		assert.Equal(t, InvoiceStatusPending, inv.Status)
		assert.Equal(t, PaymentStatusPartial, inv.PaymentStatus)
		assert.Equal(t, 2, inv.GetVersion())
	})

	t.Run("full credit settles the invoice", func(t *testing.T) {
		inv := newTestInvoice(t, "250.00")
		amount, _ := valueobject.NewMoneyUSDFromString("250.00")

		err := inv.ApplyCredit(amount)
		require.NoError(t, err)

		assert.True(t, inv.CurrentAmount.IsZero())
		assert.Equal(t, InvoiceStatusPaid, inv.Status)
		assert.Equal(t, PaymentStatusPaid, inv.PaymentStatus)
	})

	t.Run("credit exceeding balance is rejected without mutation", func(t *testing.T) {
		inv := newTestInvoice(t, "100.00")
		amount, _ := valueobject.NewMoneyUSDFromString("100.01")

		err := inv.ApplyCredit(amount)
		require.Error(t, err)

		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, shared.CodeAmountExceedsInvoiceBalance, domainErr.Code)
		assert.True(t, inv.CurrentAmount.Equal(decimal.RequireFromString("100.00")))
		assert.True(t, inv.CreditsApplied.IsZero())
		assert.Equal(t, 1, inv.GetVersion())
	})

	t.Run("cannot credit a paid invoice", func(t *testing.T) {
		inv := newTestInvoice(t, "100.00")
		amount, _ := valueobject.NewMoneyUSDFromString("100.00")
		require.NoError(t, inv.ApplyCredit(amount))

		more, _ := valueobject.NewMoneyUSDFromString("1.00")
		err := inv.ApplyCredit(more)
		assert.Error(t, err)
	})

	t.Run("original amount never changes", func(t *testing.T) {
		inv := newTestInvoice(t, "1000.00")
		amount, _ := valueobject.NewMoneyUSDFromString("333.33")
		require.NoError(t, inv.ApplyCredit(amount))
		require.NoError(t, inv.ApplyCredit(amount))

		assert.True(t, inv.OriginalAmount.Equal(decimal.RequireFromString("1000.00")))
		assert.True(t, inv.CurrentAmount.Add(inv.CreditsApplied).Equal(inv.OriginalAmount))
	})
}

func TestInvoiceRecordPayment(t *testing.T) {
	inv := newTestInvoice(t, "500.00")
	amount, _ := valueobject.NewMoneyUSDFromString("200.00")

	require.NoError(t, inv.RecordPayment(amount))
	assert.True(t, inv.CurrentAmount.Equal(decimal.RequireFromString("300.00")))
	assert.True(t, inv.CreditsApplied.IsZero())
	assert.Equal(t, PaymentStatusPartial, inv.PaymentStatus)
}

func TestInvoiceMarkLineItemShortage(t *testing.T) {
	inv := newTestInvoice(t, "1500.00", lineItem("Brake pads", "10", "150.00"))
	itemID := inv.LineItems[0].ID

	t.Run("records received quantity", func(t *testing.T) {
		err := inv.MarkLineItemShortage(itemID, decimal.RequireFromString("8"))
		require.NoError(t, err)
		require.NotNil(t, inv.LineItems[0].ReceivedQuantity)
		assert.True(t, inv.LineItems[0].ReceivedQuantity.Equal(decimal.RequireFromString("8")))
	})

	t.Run("rejects quantity above ordered", func(t *testing.T) {
		err := inv.MarkLineItemShortage(itemID, decimal.RequireFromString("11"))
		assert.Error(t, err)
	})

	t.Run("unknown item", func(t *testing.T) {
		err := inv.MarkLineItemShortage(uuid.New(), decimal.RequireFromString("1"))
		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, shared.CodeItemNotFound, domainErr.Code)
	})
}

func TestInvoiceFindLineItem(t *testing.T) {
	inv := newTestInvoice(t, "2000.00",
		lineItem("Brake pads (front)", "10", "150.00"),
		lineItem("Oil filter", "20", "25.00"),
	)

	tests := []struct {
		name    string
		search  string
		want    string
		wantErr bool
	}{
		{name: "exact description", search: "Oil filter", want: "Oil filter"},
		{name: "search is substring of item", search: "brake pads", want: "Brake pads (front)"},
		{name: "item is substring of search", search: "oil filter premium grade", want: "Oil filter"},
		{name: "shared significant token", search: "ceramic pads", want: "Brake pads (front)"},
		{name: "short tokens do not match", search: "oil can", wantErr: true},
		{name: "no match", search: "windshield wipers", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			item, err := inv.FindLineItem(tt.search)
			if tt.wantErr {
				require.Error(t, err)
				var domainErr *shared.DomainError
				require.ErrorAs(t, err, &domainErr)
				assert.Equal(t, shared.CodeItemNotFound, domainErr.Code)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, item.Description)
		})
	}

	t.Run("single item invoice assumed when description empty", func(t *testing.T) {
		single := newTestInvoice(t, "100.00", lineItem("Spark plugs", "4", "25.00"))
		item, err := single.FindLineItem("")
		require.NoError(t, err)
		assert.Equal(t, "Spark plugs", item.Description)
	})

	t.Run("empty description ambiguous with multiple items", func(t *testing.T) {
		_, err := inv.FindLineItem("")
		assert.Error(t, err)
	})

	t.Run("non-matching description fails even on single item invoice", func(t *testing.T) {
		single := newTestInvoice(t, "100.00", lineItem("Transmission Unit", "1", "100.00"))
		_, err := single.FindLineItem("windshield")
		var domainErr *shared.DomainError
		require.ErrorAs(t, err, &domainErr)
		assert.Equal(t, shared.CodeItemNotFound, domainErr.Code)
		assert.Contains(t, domainErr.Message, "Transmission Unit")
	})
}
