package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"bookstore/internal/core/apperror"
	"bookstore/internal/core/id"
	"bookstore/internal/domain/procurement"
	"bookstore/internal/infrastructure/http/v1/dto"
	"bookstore/pkg/logger"
)

// ProcurementHandler handles purchase order endpoints. All procurement is
// admin territory.
type ProcurementHandler struct {
	*BaseHandler
	engine *procurement.Engine
	audit  Auditor
}

// NewProcurementHandler creates a new procurement handler.
func NewProcurementHandler(base *BaseHandler, engine *procurement.Engine, audit Auditor) *ProcurementHandler {
	return &ProcurementHandler{BaseHandler: base, engine: engine, audit: audit}
}

// recordAudit logs the mutation to the audit trail. The engine has already
// committed, so a failed record is a warning, not a rollback.
func (h *ProcurementHandler) recordAudit(c *gin.Context, po *procurement.PurchaseOrder, action string) {
	if h.audit == nil {
		return
	}
	ctx := c.Request.Context()
	changes := map[string]any{
		"supplier_id": po.SupplierID.String(),
		"status":      po.Status,
		"lines":       len(po.Lines),
	}
	if err := h.audit.Record(ctx, "purchase_order", po.ID.String(), action, changes); err != nil {
		logger.Warn(ctx, "audit record failed", "action", action, "error", err)
	}
}

// Create handles POST /admin/purchase-orders
func (h *ProcurementHandler) Create(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.CreatePurchaseOrderRequest
	if !h.BindJSON(c, &req) {
		return
	}

	supplierID, err := id.Parse(req.SupplierID)
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid supplier id format"))
		return
	}

	lines, err := req.ToLineInputs()
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid book id format"))
		return
	}

	po, err := h.engine.CreateManual(ctx, supplierID, lines)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.FromPurchaseOrder(po))
}

// CreateFromRequests handles POST /admin/purchase-orders/from-requests
// Folds open backorder requests into one purchase order; the whole batch
// fails if any request cannot be procured.
func (h *ProcurementHandler) CreateFromRequests(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.CreateFromRequestsRequest
	if !h.BindJSON(c, &req) {
		return
	}

	supplierID, err := id.Parse(req.SupplierID)
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid supplier id format"))
		return
	}

	requestIDs := make([]id.ID, len(req.RequestIDs))
	for i, raw := range req.RequestIDs {
		parsed, err := id.Parse(raw)
		if err != nil {
			h.Error(c, apperror.NewValidation("invalid request id format").WithDetail("value", raw))
			return
		}
		requestIDs[i] = parsed
	}

	po, err := h.engine.CreateFromRequests(ctx, supplierID, requestIDs, req.DefaultUnitCost, req.ShouldMarkOrdered())
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.FromPurchaseOrder(po))
}

// Receive handles POST /admin/purchase-orders/:id/receive
// Receiving is idempotent: repeating the call returns the order unchanged.
// The body is optional: note overrides the ledger text, closeRequests
// defaults to true.
func (h *ProcurementHandler) Receive(c *gin.Context) {
	ctx := c.Request.Context()

	poID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	var req dto.ReceivePurchaseOrderRequest
	if c.Request.ContentLength > 0 && !h.BindJSON(c, &req) {
		return
	}

	po, err := h.engine.Receive(ctx, poID, req.Note, req.ShouldCloseRequests())
	if err != nil {
		h.Error(c, err)
		return
	}
	h.recordAudit(c, po, "receive")

	h.OK(c, dto.FromPurchaseOrder(po))
}

// ManualStockIn handles POST /admin/stock-in
// Records a delivery that arrived outside the normal ordering flow.
func (h *ProcurementHandler) ManualStockIn(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.ManualStockInRequest
	if !h.BindJSON(c, &req) {
		return
	}

	supplierID, err := id.Parse(req.SupplierID)
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid supplier id format"))
		return
	}

	lines, err := req.ToLineInputs()
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid book id format"))
		return
	}

	po, err := h.engine.ManualStockIn(ctx, supplierID, lines, req.Note)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.recordAudit(c, po, "manual_stock_in")

	c.JSON(http.StatusCreated, dto.FromPurchaseOrder(po))
}

// Get handles GET /admin/purchase-orders/:id
func (h *ProcurementHandler) Get(c *gin.Context) {
	ctx := c.Request.Context()

	poID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	po, err := h.engine.GetByID(ctx, poID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromPurchaseOrder(po))
}

// List handles GET /admin/purchase-orders
func (h *ProcurementHandler) List(c *gin.Context) {
	ctx := c.Request.Context()

	var params dto.ListParams
	if !h.BindQuery(c, &params) {
		return
	}
	params.Defaults()

	var (
		list []*procurement.PurchaseOrder
		err  error
	)
	if supplierID := c.Query("supplierId"); supplierID != "" {
		parsed, perr := id.Parse(supplierID)
		if perr != nil {
			h.Error(c, apperror.NewValidation("invalid supplier id format"))
			return
		}
		list, err = h.engine.ListBySupplier(ctx, parsed, params.Limit, params.Offset)
	} else {
		list, err = h.engine.List(ctx, params.Limit, params.Offset)
	}
	if err != nil {
		h.Error(c, err)
		return
	}

	items := dto.FromPurchaseOrders(list)
	h.OK(c, dto.NewListResponse(items, len(items), params.Limit, params.Offset))
}

// RegisterAdminRoutes registers purchase order routes.
func (h *ProcurementHandler) RegisterAdminRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.List)
	rg.GET("/:id", h.Get)
	rg.POST("", h.Create)
	rg.POST("/from-requests", h.CreateFromRequests)
	rg.POST("/:id/receive", h.Receive)
}
