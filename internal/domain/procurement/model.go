// Package procurement provides purchase orders and their receipt.
package procurement

import (
	"context"
	"time"

	"bookstore/internal/core/apperror"
	"bookstore/internal/core/id"
	"bookstore/internal/core/types"
)

// Status is a purchase order's lifecycle state.
type Status string

const (
	StatusCreated   Status = "created"
	StatusReceived  Status = "received"
	StatusCancelled Status = "cancelled"
)

// PurchaseOrder is an order placed with a supplier.
type PurchaseOrder struct {
	ID id.ID `db:"id" json:"id"`

	SupplierID id.ID `db:"supplier_id" json:"supplierId"`

	Status Status `db:"status" json:"status"`

	CreatedAt  time.Time  `db:"created_at" json:"createdAt"`
	ReceivedAt *time.Time `db:"received_at" json:"receivedAt,omitempty"`

	// Lines hold at most one entry per book: (purchase order, book) is
	// unique, so duplicate source requests merge into one line.
	Lines []Line `db:"-" json:"lines"`
}

// Line is one purchase-order line.
type Line struct {
	ID              id.ID `db:"id" json:"id"`
	PurchaseOrderID id.ID `db:"purchase_order_id" json:"purchaseOrderId"`
	BookID          id.ID `db:"book_id" json:"bookId"`

	Qty      int64       `db:"qty" json:"qty"`
	UnitCost types.Money `db:"unit_cost" json:"unitCost"`
}

// New creates a purchase order with no lines.
func New(supplierID id.ID) *PurchaseOrder {
	return &PurchaseOrder{
		ID:         id.New(),
		SupplierID: supplierID,
		Status:     StatusCreated,
		CreatedAt:  time.Now().UTC(),
	}
}

// AddLine appends a line, merging into an existing line for the same book.
func (po *PurchaseOrder) AddLine(bookID id.ID, qty int64, unitCost types.Money) {
	for i := range po.Lines {
		if po.Lines[i].BookID == bookID {
			po.Lines[i].Qty += qty
			return
		}
	}
	po.Lines = append(po.Lines, Line{
		ID:              id.New(),
		PurchaseOrderID: po.ID,
		BookID:          bookID,
		Qty:             qty,
		UnitCost:        unitCost,
	})
}

// BookIDs returns the distinct books in this purchase order.
func (po *PurchaseOrder) BookIDs() []id.ID {
	ids := make([]id.ID, 0, len(po.Lines))
	for _, line := range po.Lines {
		ids = append(ids, line.BookID)
	}
	return ids
}

// MarkReceived transitions to received at ts.
func (po *PurchaseOrder) MarkReceived(ts time.Time) {
	po.Status = StatusReceived
	po.ReceivedAt = &ts
}

// Validate checks purchase-order invariants, including line uniqueness.
func (po *PurchaseOrder) Validate(ctx context.Context) error {
	if id.IsNil(po.SupplierID) {
		return apperror.NewValidation("supplier is required").
			WithDetail("field", "supplierId")
	}
	if len(po.Lines) == 0 {
		return apperror.NewValidation("at least one line is required").
			WithDetail("field", "lines")
	}

	seen := make(map[id.ID]struct{}, len(po.Lines))
	for i, line := range po.Lines {
		if id.IsNil(line.BookID) {
			return apperror.NewValidation("book is required").
				WithDetail("field", "lines").
				WithDetail("lineNo", i+1)
		}
		if line.Qty <= 0 || line.Qty > types.MaxStockQty {
			return apperror.NewValidation("quantity out of range").
				WithDetail("field", "lines").
				WithDetail("lineNo", i+1)
		}
		if line.UnitCost.IsNegative() {
			return apperror.NewValidation("unit cost cannot be negative").
				WithDetail("field", "lines").
				WithDetail("lineNo", i+1)
		}
		if _, dup := seen[line.BookID]; dup {
			return apperror.NewDuplicate("purchase order line", "bookId", line.BookID.String())
		}
		seen[line.BookID] = struct{}{}
	}
	return nil
}
