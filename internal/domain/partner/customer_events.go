package partner

import (
	"github.com/creditledger/backend/internal/domain/shared"
)

// Event types for customer aggregate
const (
	EventTypeCustomerCreated = "partner.customer.created"
)

// CustomerCreatedEvent is raised when a new customer is created
type CustomerCreatedEvent struct {
	shared.BaseDomainEvent
	Code  string `json:"code"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// NewCustomerCreatedEvent creates a new CustomerCreatedEvent
func NewCustomerCreatedEvent(c *Customer) *CustomerCreatedEvent {
	return &CustomerCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeCustomerCreated, "Customer", c.ID),
		Code:            c.Code,
		Name:            c.Name,
		Email:           c.Email,
	}
}
