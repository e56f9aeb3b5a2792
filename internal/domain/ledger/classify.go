package ledger

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// Classification is the result of classifying a customer's grants over a
// snapshot at a point in time. It is a pure read: nothing is mutated, so
// strictly read-only callers can use it without triggering correction writes.
type Classification struct {
	Active  []CreditGrant // Spendable now, FIFO order by earned date
	Expired []CreditGrant // Past expiry with balance remaining (stored status may lag)
	Used    []CreditGrant // Fully consumed
	// StaleExpired holds grants whose stored status has not caught up with
	// a past expiry date; they appear in Expired too and are the targets of
	// the idempotent lazy-expiry correction write.
	StaleExpired []CreditGrant
}

// ClassifyGrants partitions grants by how they stand at the evaluation time.
// A grant whose expiry date has passed is classified expired regardless of
// its stored status. Active grants are ordered oldest earned date first,
// which is the consumption order (minimizes the chance a grant expires
// unused).
func ClassifyGrants(grants []CreditGrant, at time.Time) Classification {
	var c Classification
	for _, g := range grants {
		switch {
		case g.Status == GrantStatusUsed:
			c.Used = append(c.Used, g)
		case g.IsExpiredAt(at):
			c.Expired = append(c.Expired, g)
			if g.Status != GrantStatusExpired {
				c.StaleExpired = append(c.StaleExpired, g)
			}
		case g.Status.IsSpendable() && g.Amount.GreaterThan(decimal.Zero):
			c.Active = append(c.Active, g)
		default:
			c.Expired = append(c.Expired, g)
		}
	}

	SortFIFO(c.Active)

	return c
}

// SortFIFO orders grants oldest earned date first
func SortFIFO(grants []CreditGrant) {
	sort.SliceStable(grants, func(i, j int) bool {
		return grants[i].EarnedDate.Before(grants[j].EarnedDate)
	})
}

// TotalBalance sums the remaining balances of the given grants.
// The running sum retains full precision; round at the reporting boundary.
func TotalBalance(grants []CreditGrant) decimal.Decimal {
	total := decimal.Zero
	for _, g := range grants {
		total = total.Add(g.Amount)
	}
	return total
}
