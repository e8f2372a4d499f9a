package dto

import (
	"time"

	"bookstore/internal/core/id"
	"bookstore/internal/core/types"
	"bookstore/internal/domain/procurement"
)

// --- Request DTOs ---

// PurchaseOrderLineRequest is one line in a purchase order.
// Zero unit cost falls back to the book's list price.
type PurchaseOrderLineRequest struct {
	BookID   string      `json:"bookId" binding:"required"`
	Qty      int64       `json:"qty" binding:"required,gt=0"`
	UnitCost types.Money `json:"unitCost"`
}

// CreatePurchaseOrderRequest creates a manual purchase order.
type CreatePurchaseOrderRequest struct {
	SupplierID string                     `json:"supplierId" binding:"required"`
	Lines      []PurchaseOrderLineRequest `json:"lines" binding:"required,min=1,dive"`
}

// ToLineInputs converts request lines to engine input.
func (r *CreatePurchaseOrderRequest) ToLineInputs() ([]procurement.LineInput, error) {
	return toLineInputs(r.Lines)
}

// CreateFromRequestsRequest folds open backorder requests into one
// purchase order. DefaultUnitCost is the negotiated cost applied to every
// line; zero falls back to list price. MarkOrdered defaults to true.
type CreateFromRequestsRequest struct {
	SupplierID      string      `json:"supplierId" binding:"required"`
	RequestIDs      []string    `json:"requestIds" binding:"required,min=1"`
	DefaultUnitCost types.Money `json:"defaultUnitCost"`
	MarkOrdered     *bool       `json:"markOrdered"`
}

// ShouldMarkOrdered resolves the optional flag.
func (r *CreateFromRequestsRequest) ShouldMarkOrdered() bool {
	return r.MarkOrdered == nil || *r.MarkOrdered
}

// ReceivePurchaseOrderRequest carries the optional receive parameters.
// Note overrides the generated ledger note; CloseRequests defaults to true.
type ReceivePurchaseOrderRequest struct {
	Note          string `json:"note"`
	CloseRequests *bool  `json:"closeRequests"`
}

// ShouldCloseRequests resolves the optional flag.
func (r *ReceivePurchaseOrderRequest) ShouldCloseRequests() bool {
	return r.CloseRequests == nil || *r.CloseRequests
}

// ManualStockInRequest records an already-received delivery.
type ManualStockInRequest struct {
	SupplierID string                     `json:"supplierId" binding:"required"`
	Lines      []PurchaseOrderLineRequest `json:"lines" binding:"required,min=1,dive"`
	Note       string                     `json:"note"`
}

// ToLineInputs converts request lines to engine input.
func (r *ManualStockInRequest) ToLineInputs() ([]procurement.LineInput, error) {
	return toLineInputs(r.Lines)
}

func toLineInputs(lines []PurchaseOrderLineRequest) ([]procurement.LineInput, error) {
	inputs := make([]procurement.LineInput, len(lines))
	for i, l := range lines {
		bookID, err := id.Parse(l.BookID)
		if err != nil {
			return nil, err
		}
		inputs[i] = procurement.LineInput{BookID: bookID, Qty: l.Qty, UnitCost: l.UnitCost}
	}
	return inputs, nil
}

// --- Response DTOs ---

// PurchaseOrderResponse represents a purchase order in API responses.
type PurchaseOrderResponse struct {
	ID         string                      `json:"id"`
	SupplierID string                      `json:"supplierId"`
	Status     string                      `json:"status"`
	Lines      []PurchaseOrderLineResponse `json:"lines"`
	CreatedAt  time.Time                   `json:"createdAt"`
	ReceivedAt *time.Time                  `json:"receivedAt,omitempty"`
}

// PurchaseOrderLineResponse represents one purchase order line.
type PurchaseOrderLineResponse struct {
	ID       string      `json:"id"`
	BookID   string      `json:"bookId"`
	Qty      int64       `json:"qty"`
	UnitCost types.Money `json:"unitCost"`
}

// FromPurchaseOrder converts domain entity to response DTO.
func FromPurchaseOrder(po *procurement.PurchaseOrder) *PurchaseOrderResponse {
	resp := &PurchaseOrderResponse{
		ID:         po.ID.String(),
		SupplierID: po.SupplierID.String(),
		Status:     string(po.Status),
		CreatedAt:  po.CreatedAt,
		ReceivedAt: po.ReceivedAt,
	}
	resp.Lines = make([]PurchaseOrderLineResponse, len(po.Lines))
	for i, l := range po.Lines {
		resp.Lines[i] = PurchaseOrderLineResponse{
			ID:       l.ID.String(),
			BookID:   l.BookID.String(),
			Qty:      l.Qty,
			UnitCost: l.UnitCost,
		}
	}
	return resp
}

// FromPurchaseOrders converts a slice of domain entities.
func FromPurchaseOrders(list []*procurement.PurchaseOrder) []*PurchaseOrderResponse {
	items := make([]*PurchaseOrderResponse, len(list))
	for i, po := range list {
		items[i] = FromPurchaseOrder(po)
	}
	return items
}
