package handlers

import (
	"context"
	"time"

	"github.com/gin-gonic/gin"

	"bookstore/internal/core/apperror"
	"bookstore/internal/core/id"
	"bookstore/internal/core/tx"
	"bookstore/internal/domain/catalogs/book"
	"bookstore/internal/domain/inventory"
	"bookstore/internal/domain/ledger"
	"bookstore/internal/infrastructure/http/v1/dto"
)

// StockHandler handles stock ledger and manual adjustment endpoints.
type StockHandler struct {
	*BaseHandler
	inventory *inventory.Manager
	recorder  *ledger.Recorder
	txManager tx.Manager
	audit     Auditor
}

// NewStockHandler creates a new stock handler.
func NewStockHandler(base *BaseHandler, inv *inventory.Manager, recorder *ledger.Recorder, txManager tx.Manager, audit Auditor) *StockHandler {
	return &StockHandler{BaseHandler: base, inventory: inv, recorder: recorder, txManager: txManager, audit: audit}
}

// History handles GET /admin/stock/:bookId/ledger
// Entries come back in creation order; qty_after values reconstruct the
// stock timeline.
func (h *StockHandler) History(c *gin.Context) {
	ctx := c.Request.Context()

	bookID, err := id.Parse(c.Param("bookId"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid book id format"))
		return
	}

	filter := ledger.ListFilter{
		Limit:  h.ParseIntQuery(c, "limit", 100),
		Offset: h.ParseIntQuery(c, "offset", 0),
	}
	if ct := c.Query("changeType"); ct != "" {
		changeType := ledger.ChangeType(ct)
		if !changeType.Valid() {
			h.Error(c, apperror.NewValidation("unknown change type").WithDetail("value", ct))
			return
		}
		filter.ChangeType = &changeType
	}
	if from := c.Query("from"); from != "" {
		if parsed, err := time.Parse(time.RFC3339, from); err == nil {
			filter.FromDate = &parsed
		}
	}
	if to := c.Query("to"); to != "" {
		if parsed, err := time.Parse(time.RFC3339, to); err == nil {
			filter.ToDate = &parsed
		}
	}

	entries, err := h.recorder.History(ctx, bookID, filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	items := dto.FromLedgerEntries(entries)
	h.OK(c, dto.NewListResponse(items, len(items), filter.Limit, filter.Offset))
}

// Adjust handles POST /admin/stock/:bookId/adjust
func (h *StockHandler) Adjust(c *gin.Context) {
	ctx := c.Request.Context()

	bookID, err := id.Parse(c.Param("bookId"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid book id format"))
		return
	}

	var req dto.ManualAdjustRequest
	if !h.BindJSON(c, &req) {
		return
	}

	// The stock write, its ledger entry and the audit record must commit
	// together.
	var b *book.Book
	err = h.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		var err error
		b, err = h.inventory.ManualAdjust(ctx, bookID, req.Delta, req.Note)
		if err != nil {
			return err
		}
		if h.audit == nil {
			return nil
		}
		return h.audit.Record(ctx, "book", bookID.String(), "manual_adjust", map[string]any{
			"delta":     req.Delta,
			"note":      req.Note,
			"stock_qty": b.StockQty,
		})
	})
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromBook(b))
}

// RegisterAdminRoutes registers stock routes.
func (h *StockHandler) RegisterAdminRoutes(rg *gin.RouterGroup) {
	rg.GET("/:bookId/ledger", h.History)
	rg.POST("/:bookId/adjust", h.Adjust)
}
