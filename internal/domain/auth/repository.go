package auth

import (
	"context"

	"bookstore/internal/core/id"
)

// UserRepository persists user accounts.
type UserRepository interface {
	Create(ctx context.Context, u *User) error

	GetByID(ctx context.Context, userID id.ID) (*User, error)

	GetByEmail(ctx context.Context, email string) (*User, error)

	// Exists reports whether an account with the email is registered.
	Exists(ctx context.Context, email string) (bool, error)

	// Update writes mutable account fields with optimistic locking.
	Update(ctx context.Context, u *User) error
}
