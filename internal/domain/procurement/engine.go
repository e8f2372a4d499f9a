package procurement

import (
	"context"
	"fmt"
	"time"

	"bookstore/internal/core/apperror"
	"bookstore/internal/core/id"
	"bookstore/internal/core/tx"
	"bookstore/internal/core/types"
	"bookstore/internal/domain/backorder"
	"bookstore/internal/domain/catalogs/book"
	"bookstore/internal/domain/catalogs/supplier"
	"bookstore/internal/domain/inventory"
	"bookstore/pkg/logger"
)

// LineInput is one requested purchase line. Duplicate books across inputs
// merge into a single purchase-order line.
type LineInput struct {
	BookID   id.ID       `json:"bookId"`
	Qty      int64       `json:"qty"`
	UnitCost types.Money `json:"unitCost"`
}

// Engine builds purchase orders and posts their receipt into stock.
type Engine struct {
	repo       Repository
	books      book.Repository
	suppliers  supplier.Repository
	backorders backorder.Repository
	inventory  *inventory.Manager
	txManager  tx.Manager
}

func NewEngine(
	repo Repository,
	books book.Repository,
	suppliers supplier.Repository,
	backorders backorder.Repository,
	inv *inventory.Manager,
	txManager tx.Manager,
) *Engine {
	return &Engine{
		repo:       repo,
		books:      books,
		suppliers:  suppliers,
		backorders: backorders,
		inventory:  inv,
		txManager:  txManager,
	}
}

// CreateManual creates a purchase order from explicit lines.
// Duplicate books are merged with their quantities summed. A zero unit
// cost falls back to the book's list price.
func (e *Engine) CreateManual(ctx context.Context, supplierID id.ID, lines []LineInput) (*PurchaseOrder, error) {
	po, err := e.buildOrder(ctx, supplierID, lines)
	if err != nil {
		return nil, err
	}

	err = e.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		return e.repo.Create(ctx, po)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "purchase order created",
		"poId", po.ID.String(),
		"supplierId", supplierID.String(),
		"lines", len(po.Lines))
	return po, nil
}

// CreateFromRequests creates a purchase order covering the given backorder
// requests. defaultUnitCost is the negotiated cost applied to every line;
// zero falls back to each book's list price. With markOrdered the covered
// requests move to ordered in the same transaction. The whole batch is
// rejected if any request lacks a resolved book reference: a free-text
// request must be linked to a catalog book before it can be procured.
func (e *Engine) CreateFromRequests(ctx context.Context, supplierID id.ID, requestIDs []id.ID, defaultUnitCost types.Money, markOrdered bool) (*PurchaseOrder, error) {
	if len(requestIDs) == 0 {
		return nil, apperror.NewValidation("at least one request is required").
			WithDetail("field", "requestIds")
	}
	requestIDs = dedupeIDs(requestIDs)

	requests, err := e.backorders.GetByIDs(ctx, requestIDs)
	if err != nil {
		return nil, err
	}
	if len(requests) != len(requestIDs) {
		return nil, apperror.NewNotFound("backorder request", requestIDs)
	}

	lines := make([]LineInput, 0, len(requests))
	for _, r := range requests {
		if r.BookID == nil || id.IsNil(*r.BookID) {
			return nil, apperror.NewUnresolvedBook(r.ID.String())
		}
		if !r.Status.Open() {
			return nil, apperror.NewInvalidState("backorder request", string(r.Status)).
				WithDetail("requestId", r.ID.String())
		}
		lines = append(lines, LineInput{BookID: *r.BookID, Qty: r.RequestedQty, UnitCost: defaultUnitCost})
	}

	po, err := e.buildOrder(ctx, supplierID, lines)
	if err != nil {
		return nil, err
	}

	err = e.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := e.repo.Create(ctx, po); err != nil {
			return err
		}
		if !markOrdered {
			return nil
		}
		reply := fmt.Sprintf("ordered from supplier, PO#%s", po.ID.String())
		return e.backorders.SetStatus(ctx, requestIDs, backorder.StatusOrdered, reply)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "purchase order created from backorders",
		"poId", po.ID.String(),
		"supplierId", supplierID.String(),
		"requests", len(requestIDs),
		"lines", len(po.Lines))
	return po, nil
}

// Receive posts a purchase order into stock: each line's quantity is added
// to its book, a ledger entry is written per line, and the order becomes
// received. A blank note falls back to a generated one naming the order.
// Receiving an order that is not in the created state is a no-op returning
// the current order, so a retried receive never double-counts. With
// closeRequests, open backorders for the received books are completed.
func (e *Engine) Receive(ctx context.Context, poID id.ID, note string, closeRequests bool) (*PurchaseOrder, error) {
	var result *PurchaseOrder

	err := e.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		po, err := e.repo.GetForUpdate(ctx, poID)
		if err != nil {
			return err
		}
		if po.Status != StatusCreated {
			result = po
			return nil
		}

		if err := e.postReceipt(ctx, po, note); err != nil {
			return err
		}
		if closeRequests {
			if err := e.completeBackorders(ctx, po); err != nil {
				return err
			}
		}

		result = po
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// ManualStockIn records goods that arrived without a prior purchase order:
// it creates an order that is already received and posts the stock in the
// same transaction.
func (e *Engine) ManualStockIn(ctx context.Context, supplierID id.ID, lines []LineInput, note string) (*PurchaseOrder, error) {
	po, err := e.buildOrder(ctx, supplierID, lines)
	if err != nil {
		return nil, err
	}

	err = e.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := e.repo.Create(ctx, po); err != nil {
			return err
		}
		if err := e.postReceipt(ctx, po, note); err != nil {
			return err
		}
		return e.completeBackorders(ctx, po)
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "manual stock-in posted",
		"poId", po.ID.String(),
		"supplierId", supplierID.String(),
		"lines", len(po.Lines))
	return po, nil
}

// GetByID returns a purchase order with its lines.
func (e *Engine) GetByID(ctx context.Context, poID id.ID) (*PurchaseOrder, error) {
	return e.repo.GetByID(ctx, poID)
}

// List returns purchase orders newest first.
func (e *Engine) List(ctx context.Context, limit, offset int) ([]*PurchaseOrder, error) {
	return e.repo.List(ctx, limit, offset)
}

// ListBySupplier returns one supplier's purchase orders newest first.
func (e *Engine) ListBySupplier(ctx context.Context, supplierID id.ID, limit, offset int) ([]*PurchaseOrder, error) {
	return e.repo.ListBySupplier(ctx, supplierID, limit, offset)
}

// dedupeIDs drops repeated ids, keeping first-seen order.
func dedupeIDs(ids []id.ID) []id.ID {
	seen := make(map[id.ID]struct{}, len(ids))
	out := make([]id.ID, 0, len(ids))
	for _, v := range ids {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

// buildOrder validates the supplier and every referenced book, merges
// duplicate books, and returns an unsaved purchase order.
func (e *Engine) buildOrder(ctx context.Context, supplierID id.ID, lines []LineInput) (*PurchaseOrder, error) {
	if len(lines) == 0 {
		return nil, apperror.NewValidation("at least one line is required").
			WithDetail("field", "lines")
	}

	sup, err := e.suppliers.GetByID(ctx, supplierID)
	if err != nil {
		return nil, err
	}
	if !sup.IsActive {
		return nil, apperror.NewInvalidState("supplier", "inactive").
			WithDetail("supplierId", supplierID.String())
	}

	po := New(supplierID)
	for i, line := range lines {
		if line.Qty <= 0 || line.Qty > types.MaxStockQty {
			return nil, apperror.NewValidation("quantity out of range").
				WithDetail("field", "lines").
				WithDetail("lineNo", i+1)
		}
		b, err := e.books.GetByID(ctx, line.BookID)
		if err != nil {
			return nil, err
		}
		cost := line.UnitCost
		if cost.IsZero() {
			cost = b.Price
		}
		po.AddLine(b.ID, line.Qty, cost)
	}

	if err := po.Validate(ctx); err != nil {
		return nil, err
	}
	return po, nil
}

// postReceipt adds every line's quantity to stock and marks the order
// received. Caller holds the transaction and the row lock on the header.
func (e *Engine) postReceipt(ctx context.Context, po *PurchaseOrder, note string) error {
	if note == "" {
		note = fmt.Sprintf("PO#%s from supplier %s", po.ID.String(), po.SupplierID.String())
	}
	for _, line := range po.Lines {
		if _, err := e.inventory.PurchaseIn(ctx, line.BookID, line.Qty, note); err != nil {
			return err
		}
	}

	po.MarkReceived(time.Now().UTC())
	if err := e.repo.SetStatus(ctx, po); err != nil {
		return err
	}

	logger.Info(ctx, "purchase order received",
		"poId", po.ID.String(),
		"lines", len(po.Lines))
	return nil
}

// completeBackorders closes open requests for books replenished by po.
func (e *Engine) completeBackorders(ctx context.Context, po *PurchaseOrder) error {
	open, err := e.backorders.ListOpenByBooks(ctx, po.BookIDs(), []backorder.Status{
		backorder.StatusSubmitted,
		backorder.StatusProcessing,
		backorder.StatusOrdered,
	})
	if err != nil {
		return err
	}
	if len(open) == 0 {
		return nil
	}

	ids := make([]id.ID, 0, len(open))
	for _, r := range open {
		ids = append(ids, r.ID)
	}
	reply := fmt.Sprintf("stock replenished by PO#%s", po.ID.String())
	return e.backorders.SetStatus(ctx, ids, backorder.StatusCompleted, reply)
}
