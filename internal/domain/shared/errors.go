package shared

// DomainError represents an expected, reportable domain-level outcome.
// Callers branch on the success flag rather than treating these as faults.
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface
func (e *DomainError) Error() string {
	return e.Message
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Error codes for the credit engine taxonomy
const (
	CodeCustomerNotFound            = "CUSTOMER_NOT_FOUND"
	CodeInvoiceNotFound             = "INVOICE_NOT_FOUND"
	CodeInvoiceOwnershipMismatch    = "INVOICE_OWNERSHIP_MISMATCH"
	CodeInsufficientCredit          = "INSUFFICIENT_CREDIT"
	CodeAmountExceedsInvoiceBalance = "AMOUNT_EXCEEDS_INVOICE_BALANCE"
	CodeItemNotFound                = "ITEM_NOT_FOUND"
	CodeCreditMemoNotFound          = "CREDIT_MEMO_NOT_FOUND"
	CodeUnknownAction               = "UNKNOWN_ACTION"
	CodeConcurrencyConflict         = "CONCURRENCY_CONFLICT"
	CodeDuplicateRequest            = "DUPLICATE_REQUEST"
	CodeInvalidState                = "INVALID_STATE"
	CodeInvalidAmount               = "INVALID_AMOUNT"
	CodeInternal                    = "INTERNAL_ERROR"
)

// Common domain errors
var (
	ErrNotFound            = NewDomainError("NOT_FOUND", "Resource not found")
	ErrAlreadyExists       = NewDomainError("ALREADY_EXISTS", "Resource already exists")
	ErrInvalidInput        = NewDomainError("INVALID_INPUT", "Invalid input provided")
	ErrConcurrencyConflict = NewDomainError(CodeConcurrencyConflict, "Resource was modified by another process")
	ErrInvalidState        = NewDomainError(CodeInvalidState, "Operation not allowed in current state")
	ErrCustomerNotFound    = NewDomainError(CodeCustomerNotFound, "Customer not found")
	ErrInvoiceNotFound     = NewDomainError(CodeInvoiceNotFound, "Invoice not found")
	ErrCreditMemoNotFound  = NewDomainError(CodeCreditMemoNotFound, "Credit memo not found")
)

// IsDomainError reports whether err is a DomainError and returns it
func IsDomainError(err error) (*DomainError, bool) {
	de, ok := err.(*DomainError)
	return de, ok
}
