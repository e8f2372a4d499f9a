// Package credit defines the credit-tier policy table.
// The mapping is pure: no side effects, no failure modes. Settlement queries
// it fresh at sale time; terms are never cached on an order.
package credit

import (
	"github.com/shopspring/decimal"

	"bookstore/internal/core/types"
)

// Tier is a customer's credit tier, ordinal 1..5.
type Tier int

const (
	Tier1 Tier = 1
	Tier2 Tier = 2
	Tier3 Tier = 3
	Tier4 Tier = 4
	Tier5 Tier = 5
)

// Valid reports whether t is a known tier.
func (t Tier) Valid() bool {
	return t >= Tier1 && t <= Tier5
}

// Terms are the purchasing terms a tier grants.
type Terms struct {
	// DiscountRate is the fractional discount applied to a buy-now
	// purchase (0.10 = 10%).
	DiscountRate types.Money

	// OverdraftAllowed permits the balance to go negative.
	OverdraftAllowed bool

	// OverdraftUnlimited removes the bound on a negative balance.
	// Only meaningful when OverdraftAllowed is true.
	OverdraftUnlimited bool
}

var (
	rate10 = decimal.New(10, -2)
	rate15 = decimal.New(15, -2)
	rate20 = decimal.New(20, -2)
	rate25 = decimal.New(25, -2)
)

// TermsFor returns the purchasing terms for a tier.
// Unknown tiers get tier-1 terms: smallest discount, no overdraft.
func TermsFor(t Tier) Terms {
	switch t {
	case Tier2:
		return Terms{DiscountRate: rate15}
	case Tier3:
		return Terms{DiscountRate: rate15, OverdraftAllowed: true}
	case Tier4:
		return Terms{DiscountRate: rate20, OverdraftAllowed: true}
	case Tier5:
		return Terms{DiscountRate: rate25, OverdraftAllowed: true, OverdraftUnlimited: true}
	default:
		return Terms{DiscountRate: rate10}
	}
}

// DiscountRate returns the discount rate for a tier.
func DiscountRate(t Tier) types.Money {
	return TermsFor(t).DiscountRate
}
