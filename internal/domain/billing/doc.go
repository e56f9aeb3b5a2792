// Package billing provides domain models for customer invoices and their lifecycle.
//
// This package implements the invoicing bounded context, which is responsible for:
//   - Holding invoices with their line items and running balances
//   - Tracking how much credit has been applied against each invoice
//   - Matching reported discrepancies against invoice line items
//
// Key Aggregates:
//   - Invoice: A billed document with an original amount, a current amount, and line items
//
// Value Objects:
//   - LineItem: A single billed line with description, quantity, and unit price
//   - InvoiceStatus, PaymentStatus: Lifecycle enumerations
//
// Item matching supports discrepancy reports that reference line items by free-text
// description rather than by identifier. See item_matching.go for the matching rules.
package billing
