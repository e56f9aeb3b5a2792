package billing

import (
	"fmt"
	"strings"

	"github.com/creditledger/backend/internal/domain/shared"
)

// FindLineItem resolves a reported item description to a line item on the
// invoice. Matching is case-insensitive: first a substring match in either
// direction, then a fallback that looks for any shared word longer than
// three characters. When the invoice has a single line item and no
// description is given, that item is assumed; a description that matches
// nothing is an error even on a single-item invoice.
func (inv *Invoice) FindLineItem(description string) (*LineItem, error) {
	search := strings.ToLower(strings.TrimSpace(description))

	if search == "" {
		if len(inv.LineItems) == 1 {
			return &inv.LineItems[0], nil
		}
		return nil, itemNotFound(inv, description)
	}

	for i := range inv.LineItems {
		itemDesc := strings.ToLower(inv.LineItems[i].Description)
		if strings.Contains(itemDesc, search) || strings.Contains(search, itemDesc) {
			return &inv.LineItems[i], nil
		}
	}

	searchTokens := significantTokens(search)
	for i := range inv.LineItems {
		itemTokens := significantTokens(strings.ToLower(inv.LineItems[i].Description))
		for _, st := range searchTokens {
			for _, it := range itemTokens {
				if st == it {
					return &inv.LineItems[i], nil
				}
			}
		}
	}

	return nil, itemNotFound(inv, description)
}

func significantTokens(s string) []string {
	var out []string
	for _, tok := range strings.Fields(s) {
		if len(tok) > 3 {
			out = append(out, tok)
		}
	}
	return out
}

func itemNotFound(inv *Invoice, description string) error {
	return shared.NewDomainError(shared.CodeItemNotFound,
		fmt.Sprintf("Item %q not found on invoice %s; invoice items: %s",
			description, inv.Number, strings.Join(inv.ItemDescriptions(), ", ")))
}
