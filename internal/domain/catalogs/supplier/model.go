// Package supplier provides the supplier catalog.
package supplier

import (
	"context"
	"time"

	"bookstore/internal/core/apperror"
	"bookstore/internal/core/id"
)

// Supplier represents a procurement counterparty.
type Supplier struct {
	ID id.ID `db:"id" json:"id"`

	Name string `db:"name" json:"name"`

	ContactName string `db:"contact_name" json:"contactName,omitempty"`
	Phone       string `db:"phone" json:"phone,omitempty"`
	Email       string `db:"email" json:"email,omitempty"`
	Address     string `db:"address" json:"address,omitempty"`

	IsActive bool `db:"is_active" json:"isActive"`

	Version   int       `db:"version" json:"version"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// New creates a new active supplier.
func New(name string) *Supplier {
	now := time.Now().UTC()
	return &Supplier{
		ID:        id.New(),
		Name:      name,
		IsActive:  true,
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Touch updates the UpdatedAt timestamp and increments version.
func (s *Supplier) Touch() {
	s.UpdatedAt = time.Now().UTC()
	s.Version++
}

// Validate checks supplier invariants.
func (s *Supplier) Validate(ctx context.Context) error {
	if s.Name == "" {
		return apperror.NewValidation("supplier name is required").
			WithDetail("field", "name")
	}
	return nil
}
