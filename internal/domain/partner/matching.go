package partner

import "strings"

// MatchesName reports whether the customer matches a human-typed search name.
//
// The policy is deliberately loose: an exact case-insensitive match wins, then
// substring containment in either direction, then token containment where every
// whitespace-delimited token of the search name must appear as a substring of
// some token of the customer's name. It is a best-effort heuristic for
// free-text lookups; callers holding a stable identifier should use it instead.
func (c *Customer) MatchesName(search string) bool {
	search = strings.ToLower(strings.TrimSpace(search))
	if search == "" {
		return false
	}
	name := strings.ToLower(c.Name)

	if name == search {
		return true
	}
	if strings.Contains(name, search) || strings.Contains(search, name) {
		return true
	}

	nameTokens := strings.Fields(name)
	for _, tok := range strings.Fields(search) {
		if !tokenMatchesAny(tok, nameTokens) {
			return false
		}
	}
	return true
}

// MatchesNameExactly reports a case-insensitive exact name match.
// Exact matches are preferred over fuzzy ones during resolution.
func (c *Customer) MatchesNameExactly(search string) bool {
	return strings.EqualFold(strings.TrimSpace(search), c.Name)
}

func tokenMatchesAny(tok string, candidates []string) bool {
	for _, cand := range candidates {
		if strings.Contains(cand, tok) {
			return true
		}
	}
	return false
}

// ResolveByName selects the best-matching customer for a free-text name.
// Exact matches are preferred; otherwise the first fuzzy match wins.
// Returns nil when nothing matches.
func ResolveByName(customers []Customer, search string) *Customer {
	for i := range customers {
		if customers[i].MatchesNameExactly(search) {
			return &customers[i]
		}
	}
	for i := range customers {
		if customers[i].MatchesName(search) {
			return &customers[i]
		}
	}
	return nil
}
