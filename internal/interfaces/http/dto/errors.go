package dto

import "net/http"

// Transport-level error codes. Domain-level codes come through unchanged
// from the application layer; these cover failures that never reach it.
const (
	// ErrCodeValidation is used when request binding or validation fails
	ErrCodeValidation = "VALIDATION_ERROR"
	// ErrCodeBadRequest is used for malformed requests
	ErrCodeBadRequest = "BAD_REQUEST"
	// ErrCodeInvalidJSON is used when JSON parsing fails
	ErrCodeInvalidJSON = "INVALID_JSON"
	// ErrCodeNotFound is used when a route or resource is not found
	ErrCodeNotFound = "NOT_FOUND"
	// ErrCodeRequestTooLarge is used when the request body exceeds the limit
	ErrCodeRequestTooLarge = "REQUEST_TOO_LARGE"
	// ErrCodeInternal is used for unexpected server errors
	ErrCodeInternal = "INTERNAL_ERROR"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes. Lookup failures
// and reference resolution failures map to 404, business rule rejections to
// 422, write conflicts to 409 and malformed input to 400.
var ErrorCodeHTTPStatus = map[string]int{
	// Transport errors
	ErrCodeValidation:      http.StatusBadRequest,
	ErrCodeBadRequest:      http.StatusBadRequest,
	ErrCodeInvalidJSON:     http.StatusBadRequest,
	ErrCodeNotFound:        http.StatusNotFound,
	ErrCodeRequestTooLarge: http.StatusRequestEntityTooLarge,
	ErrCodeInternal:        http.StatusInternalServerError,

	// Reference resolution failures -> 404 Not Found
	"CUSTOMER_NOT_FOUND":    http.StatusNotFound,
	"INVOICE_NOT_FOUND":     http.StatusNotFound,
	"CREDIT_MEMO_NOT_FOUND": http.StatusNotFound,
	"ITEM_NOT_FOUND":        http.StatusNotFound,

	// Business rule rejections -> 422 Unprocessable Entity
	"INVOICE_OWNERSHIP_MISMATCH":     http.StatusUnprocessableEntity,
	"INSUFFICIENT_CREDIT":            http.StatusUnprocessableEntity,
	"AMOUNT_EXCEEDS_INVOICE_BALANCE": http.StatusUnprocessableEntity,
	"INVALID_STATE":                  http.StatusUnprocessableEntity,

	// Input errors -> 400 Bad Request
	"UNKNOWN_ACTION": http.StatusBadRequest,
	"INVALID_AMOUNT": http.StatusBadRequest,
	"INVALID_INPUT":  http.StatusBadRequest,

	// Write conflicts -> 409 Conflict
	"CONCURRENCY_CONFLICT": http.StatusConflict,
	"DUPLICATE_REQUEST":    http.StatusConflict,
	"ALREADY_EXISTS":       http.StatusConflict,
}

// GetHTTPStatus returns the HTTP status code for an error code
// Returns 500 Internal Server Error if the error code is not found
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}
