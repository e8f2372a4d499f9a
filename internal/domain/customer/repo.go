package customer

import (
	"context"

	"bookstore/internal/core/types"
)

// Repository defines the interface for profile persistence.
type Repository interface {
	Create(ctx context.Context, p *Profile) error

	GetByID(ctx context.Context, customerID string) (*Profile, error)

	// GetForUpdate retrieves a profile with a row lock. Settlement locks the
	// profile before the balance check so the check and debit cannot
	// interleave with another unit for the same customer.
	GetForUpdate(ctx context.Context, customerID string) (*Profile, error)

	// SetBalance writes the account balance. Called by settlement (debit)
	// and by Recharge (credit), inside their transactions.
	SetBalance(ctx context.Context, customerID string, balance types.Money) error

	// Update modifies profile fields other than balance.
	Update(ctx context.Context, p *Profile) error
}
