package dto

import (
	"time"

	"bookstore/internal/core/types"
	"bookstore/internal/domain/customer"
)

// --- Request DTOs ---

// RechargeRequest adds funds to a customer balance.
type RechargeRequest struct {
	Amount types.Money `json:"amount" binding:"required"`
}

// SetCreditRequest updates a customer's credit terms. Admin-only.
type SetCreditRequest struct {
	CreditTier     int         `json:"creditTier" binding:"required,min=1,max=5"`
	OverdraftLimit types.Money `json:"overdraftLimit"`
}

// --- Response DTOs ---

// ProfileResponse represents a customer credit account.
type ProfileResponse struct {
	CustomerID     string      `json:"customerId"`
	FullName       string      `json:"fullName,omitempty"`
	Address        string      `json:"address,omitempty"`
	Balance        types.Money `json:"balance"`
	CreditTier     int         `json:"creditTier"`
	OverdraftLimit types.Money `json:"overdraftLimit"`
	Version        int         `json:"version"`
	CreatedAt      time.Time   `json:"createdAt"`
	UpdatedAt      time.Time   `json:"updatedAt"`
}

// FromProfile converts domain entity to response DTO.
func FromProfile(p *customer.Profile) *ProfileResponse {
	return &ProfileResponse{
		CustomerID:     p.CustomerID,
		FullName:       p.FullName,
		Address:        p.Address,
		Balance:        p.Balance,
		CreditTier:     int(p.CreditTier),
		OverdraftLimit: p.OverdraftLimit,
		Version:        p.Version,
		CreatedAt:      p.CreatedAt,
		UpdatedAt:      p.UpdatedAt,
	}
}
