// Package backorder tracks demand that current stock cannot satisfy.
package backorder

import (
	"context"
	"time"

	"bookstore/internal/core/apperror"
	"bookstore/internal/core/id"
)

// Status is the request lifecycle state.
type Status string

const (
	StatusSubmitted  Status = "submitted"
	StatusProcessing Status = "processing"
	StatusOrdered    Status = "ordered"
	StatusCompleted  Status = "completed"
	StatusRejected   Status = "rejected"
)

// Open reports whether the request can still be folded into procurement.
func (s Status) Open() bool {
	return s == StatusSubmitted || s == StatusProcessing
}

// CanTransition reports whether moving to next is a legal transition.
func (s Status) CanTransition(next Status) bool {
	switch next {
	case StatusProcessing:
		return s == StatusSubmitted
	case StatusOrdered:
		return s == StatusSubmitted || s == StatusProcessing
	case StatusCompleted:
		return s == StatusSubmitted || s == StatusProcessing || s == StatusOrdered
	case StatusRejected:
		return s == StatusSubmitted || s == StatusProcessing
	}
	return false
}

// Request is one out-of-stock registration. BookID is nil for title-only
// requests the customer typed in; those cannot be procured automatically.
type Request struct {
	ID id.ID `db:"id" json:"id"`

	CustomerID string `db:"customer_id" json:"customerId"`

	BookID    *id.ID `db:"book_id" json:"bookId,omitempty"`
	BookTitle string `db:"book_title" json:"bookTitle"`

	RequestedQty int64 `db:"requested_qty" json:"requestedQty"`

	Note string `db:"note" json:"note,omitempty"`

	Status Status `db:"status" json:"status"`

	AdminReply string `db:"admin_reply" json:"adminReply,omitempty"`

	CreatedAt time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt *time.Time `db:"updated_at" json:"updatedAt,omitempty"`
}

// New creates a submitted request.
func New(customerID string, bookID *id.ID, bookTitle string, qty int64, note string) *Request {
	return &Request{
		ID:           id.New(),
		CustomerID:   customerID,
		BookID:       bookID,
		BookTitle:    bookTitle,
		RequestedQty: qty,
		Note:         note,
		Status:       StatusSubmitted,
		CreatedAt:    time.Now().UTC(),
	}
}

// Touch stamps the last update.
func (r *Request) Touch() {
	now := time.Now().UTC()
	r.UpdatedAt = &now
}

// Validate checks request invariants.
func (r *Request) Validate(ctx context.Context) error {
	if r.CustomerID == "" {
		return apperror.NewValidation("customer is required").
			WithDetail("field", "customerId")
	}
	if r.BookTitle == "" {
		return apperror.NewValidation("book title is required").
			WithDetail("field", "bookTitle")
	}
	if r.RequestedQty <= 0 {
		return apperror.NewValidation("requested quantity must be positive").
			WithDetail("field", "requestedQty")
	}
	return nil
}
