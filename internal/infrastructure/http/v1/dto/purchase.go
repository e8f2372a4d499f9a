package dto

import (
	"bookstore/internal/core/id"
	"bookstore/internal/core/types"
	"bookstore/internal/domain/orders"
	"bookstore/internal/domain/settlement"
)

// --- Request DTOs ---

// ReceiverRequest is the delivery contact captured at checkout.
type ReceiverRequest struct {
	Name  string `json:"name" binding:"required"`
	Phone string `json:"phone" binding:"required"`
	Addr  string `json:"addr" binding:"required"`
}

// ToReceiver converts to domain receiver.
func (r ReceiverRequest) ToReceiver() orders.Receiver {
	return orders.Receiver{Name: r.Name, Phone: r.Phone, Addr: r.Addr}
}

// PurchaseRequest is a buy-now purchase attempt.
type PurchaseRequest struct {
	BookID   string          `json:"bookId" binding:"required"`
	Qty      int64           `json:"qty" binding:"required,gt=0"`
	Receiver ReceiverRequest `json:"receiver" binding:"required"`
}

// CartLineRequest is one line in a cart checkout.
type CartLineRequest struct {
	BookID string `json:"bookId" binding:"required"`
	Qty    int64  `json:"qty" binding:"required,gt=0"`
}

// CheckoutCartRequest creates a multi-line order at list price.
type CheckoutCartRequest struct {
	Lines    []CartLineRequest `json:"lines" binding:"required,min=1,dive"`
	Receiver ReceiverRequest   `json:"receiver" binding:"required"`
}

// ToCartLines converts request lines to engine input.
func (r *CheckoutCartRequest) ToCartLines() ([]settlement.CartLine, error) {
	lines := make([]settlement.CartLine, len(r.Lines))
	for i, l := range r.Lines {
		bookID, err := id.Parse(l.BookID)
		if err != nil {
			return nil, err
		}
		lines[i] = settlement.CartLine{BookID: bookID, Qty: l.Qty}
	}
	return lines, nil
}

// --- Response DTOs ---

// PurchaseOutcomeResponse is the terminal result of one purchase attempt.
// OrderID is set when committed, RequestID when backordered, Reason when
// rejected.
type PurchaseOutcomeResponse struct {
	State     string         `json:"state"`
	OrderID   string         `json:"orderId,omitempty"`
	RequestID string         `json:"requestId,omitempty"`
	Payable   *types.Money   `json:"payable,omitempty"`
	Reason    *ErrorResponse `json:"reason,omitempty"`
}

// FromOutcome converts a settlement outcome to response DTO.
func FromOutcome(out settlement.Outcome) PurchaseOutcomeResponse {
	resp := PurchaseOutcomeResponse{State: string(out.State)}
	if !id.IsNil(out.OrderID) {
		resp.OrderID = out.OrderID.String()
	}
	if !id.IsNil(out.RequestID) {
		resp.RequestID = out.RequestID.String()
	}
	if !out.Payable.IsZero() || out.State == settlement.StateCommitted {
		payable := out.Payable
		resp.Payable = &payable
	}
	if out.Reason != nil {
		resp.Reason = &ErrorResponse{
			Code:    out.Reason.Code,
			Message: out.Reason.Message,
			Details: out.Reason.Details,
		}
	}
	return resp
}
