// Package ledger implements the debt-ledger accounting rules: netting owed
// vs. owing amounts, categorizing balances, and applying payments against
// outstanding debt records.
//
// The package is pure arithmetic over in-memory values; persistence is the
// caller's concern. Two models are covered:
//
//   - the aggregate model: four running totals per contact, payments clamped
//     so repayment never exceeds what is owed;
//   - the individualized model: one record per (creditor, debtor, split
//     event), payments allocated strictly oldest-record-first.
package ledger

import (
	"errors"
	"sort"
	"time"
)

// Category classifies a counterpart's net balance from the viewer's side.
type Category string

const (
	// CategoryOwesMe: the counterpart has a strictly positive outstanding
	// balance owed to the viewer.
	CategoryOwesMe Category = "owes_me"
	// CategoryIOwe: the viewer has a strictly positive outstanding balance
	// owed to the counterpart.
	CategoryIOwe Category = "i_owe"
	// CategoryNeutral: no strictly positive outstanding balance in either
	// direction.
	CategoryNeutral Category = "neutral"
)

// ErrPaymentExceedsDebt is returned by AllocatePayment when the requested
// payment is larger than the aggregate remaining debt between the pair.
var ErrPaymentExceedsDebt = errors.New("payment exceeds remaining debt")

// Totals holds the aggregate running totals for one contact.
type Totals struct {
	OwesMe       float64 // total the contact owes the user
	IOwe         float64 // total the user owes the contact
	PaidBackToMe float64 // repaid against OwesMe
	PaidBackByMe float64 // repaid against IOwe
}

// NetOwesMe is the outstanding amount the contact still owes the user.
func (t Totals) NetOwesMe() float64 { return t.OwesMe - t.PaidBackToMe }

// NetIOwe is the outstanding amount the user still owes the contact.
func (t Totals) NetIOwe() float64 { return t.IOwe - t.PaidBackByMe }

// Categorize reduces aggregate totals to a category plus the outstanding and
// repaid figures for the winning direction. Only a strictly positive net
// surfaces as owes_me or i_owe; zero or negative nets are neutral. The three
// categories are mutually exclusive and exhaustive.
func Categorize(t Totals) (category Category, outstanding, paidBack float64) {
	if net := t.NetOwesMe(); net > 0 {
		return CategoryOwesMe, net, t.PaidBackToMe
	}
	if net := t.NetIOwe(); net > 0 {
		return CategoryIOwe, net, t.PaidBackByMe
	}
	return CategoryNeutral, 0, 0
}

// ApplyAggregatePayment records a repayment against the aggregate OwesMe
// total. The repaid counter is clamped so it never exceeds OwesMe; any
// payment excess is silently swallowed rather than rejected.
func ApplyAggregatePayment(t Totals, amount float64) Totals {
	newPaidBack := t.PaidBackToMe + amount
	if newPaidBack > t.OwesMe {
		newPaidBack = t.OwesMe
	}
	t.PaidBackToMe = newPaidBack
	return t
}

// Entry is the ledger view of one individualized debt record.
type Entry struct {
	ID        string
	Amount    float64 // original per-person share
	PaidBack  float64 // cumulative repaid, 0 <= PaidBack <= Amount
	CreatedAt time.Time
}

// Remaining is the unpaid portion of the entry.
func (e Entry) Remaining() float64 { return e.Amount - e.PaidBack }

// Outstanding sums the unpaid portions across entries.
func Outstanding(entries []Entry) float64 {
	var total float64
	for _, e := range entries {
		total += e.Remaining()
	}
	return total
}

// Allocation is the portion of a payment applied to one entry.
type Allocation struct {
	ID          string
	Applied     float64
	NewPaidBack float64
}

// AllocatePayment applies a payment across the debt records between one
// (creditor, debtor) pair.
//
// The payment is validated against the aggregate remaining debt and then
// applied greedily oldest-record-first: each record's remainder is filled
// before moving to the next, until the payment is exhausted. Records with
// equal CreatedAt are ordered by ID so the allocation is reproducible.
// Returns ErrPaymentExceedsDebt without any allocations when amount is
// larger than Outstanding(entries).
func AllocatePayment(entries []Entry, amount float64) ([]Allocation, error) {
	if amount > Outstanding(entries) {
		return nil, ErrPaymentExceedsDebt
	}

	ordered := make([]Entry, len(entries))
	copy(ordered, entries)
	sort.Slice(ordered, func(i, j int) bool {
		if !ordered[i].CreatedAt.Equal(ordered[j].CreatedAt) {
			return ordered[i].CreatedAt.Before(ordered[j].CreatedAt)
		}
		return ordered[i].ID < ordered[j].ID
	})

	var allocations []Allocation
	remaining := amount
	for _, e := range ordered {
		if remaining <= 0 {
			break
		}
		open := e.Remaining()
		if open <= 0 {
			continue
		}
		applied := open
		if remaining < open {
			applied = remaining
		}
		allocations = append(allocations, Allocation{
			ID:          e.ID,
			Applied:     applied,
			NewPaidBack: e.PaidBack + applied,
		})
		remaining -= applied
	}

	return allocations, nil
}

// NetBalance nets a viewer's position against one counterpart from the
// individualized records in both directions. owedToMe is the outstanding
// total across entries where the viewer is creditor, iOwe where the viewer
// is debtor.
func NetBalance(asCreditor, asDebtor []Entry) (owedToMe, iOwe float64) {
	return Outstanding(asCreditor), Outstanding(asDebtor)
}

// CategorizeNet maps direction-specific nets to a category with the same
// precedence as Categorize: a positive balance owed to the viewer wins.
func CategorizeNet(owedToMe, iOwe float64) (category Category, outstanding float64) {
	if owedToMe > 0 {
		return CategoryOwesMe, owedToMe
	}
	if iOwe > 0 {
		return CategoryIOwe, iOwe
	}
	return CategoryNeutral, 0
}
