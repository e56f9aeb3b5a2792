package credit

import (
	"context"
	"fmt"
	"testing"

	"github.com/creditledger/backend/internal/domain/partner"
	"github.com/creditledger/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestResolveCustomerFuzzyNamePagesThroughAllCustomers(t *testing.T) {
	customers := new(MockCustomerRepository)
	invoices := new(MockInvoiceRepository)
	r := NewRefResolver(customers, invoices)

	// A full first page without the target; the match sits on page two
	firstPage := make([]partner.Customer, resolverPageSize)
	for i := range firstPage {
		c, err := partner.NewCustomer(fmt.Sprintf("CUST%04d", i), fmt.Sprintf("Shop %d", i), "")
		require.NoError(t, err)
		firstPage[i] = *c
	}
	target, err := partner.NewCustomer("CUST9999", "Johnson Automotive", "")
	require.NoError(t, err)

	customers.On("FindByCode", mock.Anything, "johnson automotive").Return(nil, nil)
	customers.On("FindAll", mock.Anything, mock.MatchedBy(func(f shared.Filter) bool {
		return f.Page == 1
	})).Return(firstPage, nil)
	customers.On("FindAll", mock.Anything, mock.MatchedBy(func(f shared.Filter) bool {
		return f.Page == 2
	})).Return([]partner.Customer{*target}, nil)

	got, err := r.ResolveCustomer(context.Background(), "johnson automotive")
	require.NoError(t, err)
	assert.Equal(t, target.ID, got.ID)
	customers.AssertNumberOfCalls(t, "FindAll", 2)
}

func TestResolveCustomerFuzzyNameStopsOnShortPage(t *testing.T) {
	customers := new(MockCustomerRepository)
	invoices := new(MockInvoiceRepository)
	r := NewRefResolver(customers, invoices)

	match, err := partner.NewCustomer("CUST0001", "Johnson Automotive", "")
	require.NoError(t, err)

	customers.On("FindByCode", mock.Anything, "Johnson Automotive").Return(nil, nil)
	customers.On("FindAll", mock.Anything, mock.Anything).Return([]partner.Customer{*match}, nil)

	got, err := r.ResolveCustomer(context.Background(), "Johnson Automotive")
	require.NoError(t, err)
	assert.Equal(t, match.ID, got.ID)
	customers.AssertNumberOfCalls(t, "FindAll", 1)
}
