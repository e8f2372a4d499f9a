// Package customer provides customer profiles: account balance, credit tier
// and overdraft limit.
package customer

import (
	"context"
	"time"

	"bookstore/internal/core/apperror"
	"bookstore/internal/core/types"
	"bookstore/internal/domain/credit"
)

// Profile is the per-customer credit account, keyed by the identity string
// supplied by the auth collaborator.
type Profile struct {
	CustomerID string `db:"customer_id" json:"customerId"`

	FullName string `db:"full_name" json:"fullName"`
	Address  string `db:"address" json:"address"`

	// Balance may be negative under overdraft.
	Balance types.Money `db:"balance" json:"balance"`

	CreditTier credit.Tier `db:"credit_tier" json:"creditTier"`

	// OverdraftLimit is the maximum allowed negative balance for tiers with
	// bounded overdraft. Ignored for unlimited overdraft.
	OverdraftLimit types.Money `db:"overdraft_limit" json:"overdraftLimit"`

	Version   int       `db:"version" json:"version"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// NewProfile creates a default profile: zero balance, tier 1, no overdraft.
// Matches the profile auto-created on a customer's first purchase attempt.
func NewProfile(customerID string) *Profile {
	now := time.Now().UTC()
	return &Profile{
		CustomerID:     customerID,
		Balance:        types.ZeroMoney(),
		CreditTier:     credit.Tier1,
		OverdraftLimit: types.ZeroMoney(),
		Version:        1,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
}

// Touch updates the UpdatedAt timestamp and increments version.
func (p *Profile) Touch() {
	p.UpdatedAt = time.Now().UTC()
	p.Version++
}

// Validate checks profile invariants: tier range and the balance bound the
// tier permits.
func (p *Profile) Validate(ctx context.Context) error {
	if p.CustomerID == "" {
		return apperror.NewValidation("customer id is required").
			WithDetail("field", "customerId")
	}
	if !p.CreditTier.Valid() {
		return apperror.NewValidation("credit tier must be between 1 and 5").
			WithDetail("field", "creditTier").
			WithDetail("value", int(p.CreditTier))
	}
	if p.OverdraftLimit.IsNegative() {
		return apperror.NewValidation("overdraft limit cannot be negative").
			WithDetail("field", "overdraftLimit")
	}

	terms := credit.TermsFor(p.CreditTier)
	if !terms.OverdraftAllowed && p.Balance.IsNegative() {
		return apperror.NewValidation("balance cannot be negative for this credit tier").
			WithDetail("field", "balance")
	}
	if terms.OverdraftAllowed && !terms.OverdraftUnlimited {
		if p.Balance.LessThan(p.OverdraftLimit.Neg()) {
			return apperror.NewValidation("balance below overdraft limit").
				WithDetail("field", "balance")
		}
	}
	return nil
}
