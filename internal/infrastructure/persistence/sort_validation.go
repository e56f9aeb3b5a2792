package persistence

import (
	"strings"
)

// ValidateSortOrder validates and normalizes the sort order to ASC or DESC.
// Returns "DESC" as the default if the input is invalid or empty.
func ValidateSortOrder(orderDir string) string {
	normalized := strings.ToUpper(strings.TrimSpace(orderDir))
	if normalized == "ASC" {
		return "ASC"
	}
	return "DESC"
}

// ValidateSortField validates the sort field against a whitelist of allowed fields.
// Returns the defaultField if the input is invalid, empty, or not in the whitelist.
func ValidateSortField(sortField string, allowedFields map[string]bool, defaultField string) string {
	trimmed := strings.TrimSpace(sortField)
	if trimmed == "" {
		return defaultField
	}
	if allowedFields[trimmed] {
		return trimmed
	}
	return defaultField
}

// CommonSortFields contains fields common to most entities
var CommonSortFields = map[string]bool{
	"id":         true,
	"created_at": true,
	"updated_at": true,
}

// CustomerSortFields contains allowed sort fields for customers
var CustomerSortFields = map[string]bool{
	"id":         true,
	"created_at": true,
	"updated_at": true,
	"code":       true,
	"name":       true,
	"email":      true,
	"status":     true,
}

// CreditGrantSortFields contains allowed sort fields for credit grants
var CreditGrantSortFields = map[string]bool{
	"id":              true,
	"created_at":      true,
	"updated_at":      true,
	"customer_id":     true,
	"amount":          true,
	"original_amount": true,
	"earned_date":     true,
	"expiry_date":     true,
	"status":          true,
	"source_type":     true,
	"category":        true,
}

// InvoiceSortFields contains allowed sort fields for invoices
var InvoiceSortFields = map[string]bool{
	"id":              true,
	"created_at":      true,
	"updated_at":      true,
	"number":          true,
	"customer_id":     true,
	"original_amount": true,
	"current_amount":  true,
	"credits_applied": true,
	"status":          true,
	"payment_status":  true,
	"date":            true,
	"due_date":        true,
}

// CreditMemoSortFields contains allowed sort fields for credit memos
var CreditMemoSortFields = map[string]bool{
	"id":            true,
	"created_at":    true,
	"updated_at":    true,
	"memo_number":   true,
	"type":          true,
	"status":        true,
	"customer_id":   true,
	"invoice_id":    true,
	"amount":        true,
	"created_date":  true,
	"approved_date": true,
	"applied_date":  true,
}

// DamageReportSortFields contains allowed sort fields for damage reports
var DamageReportSortFields = map[string]bool{
	"id":                      true,
	"created_at":              true,
	"updated_at":              true,
	"customer_id":             true,
	"invoice_id":              true,
	"item_description":        true,
	"status":                  true,
	"estimated_credit_amount": true,
	"reported_date":           true,
}
