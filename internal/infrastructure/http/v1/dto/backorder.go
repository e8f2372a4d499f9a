package dto

import (
	"time"

	"bookstore/internal/domain/backorder"
)

// --- Request DTOs ---

// SubmitBackorderRequest registers an out-of-stock request. BookID is
// optional: title-only requests carry just the typed-in title.
type SubmitBackorderRequest struct {
	BookID    *string `json:"bookId,omitempty"`
	BookTitle string  `json:"bookTitle" binding:"required"`
	Qty       int64   `json:"qty" binding:"required,gt=0"`
	Note      string  `json:"note,omitempty"`
}

// ReplyBackorderRequest is an admin reply moving the request to a new status.
type ReplyBackorderRequest struct {
	Status     string `json:"status" binding:"required,oneof=processing completed rejected"`
	AdminReply string `json:"adminReply,omitempty"`
}

// --- Response DTOs ---

// BackorderResponse represents an out-of-stock request.
type BackorderResponse struct {
	ID           string     `json:"id"`
	CustomerID   string     `json:"customerId"`
	BookID       *string    `json:"bookId,omitempty"`
	BookTitle    string     `json:"bookTitle"`
	RequestedQty int64      `json:"requestedQty"`
	Note         string     `json:"note,omitempty"`
	Status       string     `json:"status"`
	AdminReply   string     `json:"adminReply,omitempty"`
	CreatedAt    time.Time  `json:"createdAt"`
	UpdatedAt    *time.Time `json:"updatedAt,omitempty"`
}

// FromBackorder converts domain entity to response DTO.
func FromBackorder(r *backorder.Request) *BackorderResponse {
	resp := &BackorderResponse{
		ID:           r.ID.String(),
		CustomerID:   r.CustomerID,
		BookTitle:    r.BookTitle,
		RequestedQty: r.RequestedQty,
		Note:         r.Note,
		Status:       string(r.Status),
		AdminReply:   r.AdminReply,
		CreatedAt:    r.CreatedAt,
		UpdatedAt:    r.UpdatedAt,
	}
	if r.BookID != nil {
		s := r.BookID.String()
		resp.BookID = &s
	}
	return resp
}

// FromBackorders converts a slice of domain entities.
func FromBackorders(list []*backorder.Request) []*BackorderResponse {
	items := make([]*BackorderResponse, len(list))
	for i, r := range list {
		items[i] = FromBackorder(r)
	}
	return items
}
