package handlers

import (
	"github.com/gin-gonic/gin"

	"bookstore/internal/core/apperror"
	"bookstore/internal/core/appctx"
	"bookstore/internal/core/id"
	"bookstore/internal/domain/orders"
	"bookstore/internal/infrastructure/http/v1/dto"
)

// OrderHandler handles order lifecycle endpoints.
type OrderHandler struct {
	*BaseHandler
	service *orders.Service
}

// NewOrderHandler creates a new order handler.
func NewOrderHandler(base *BaseHandler, service *orders.Service) *OrderHandler {
	return &OrderHandler{BaseHandler: base, service: service}
}

// Get handles GET /orders/:id
func (h *OrderHandler) Get(c *gin.Context) {
	o, ok := h.getOwned(c)
	if !ok {
		return
	}
	h.OK(c, dto.FromOrder(o))
}

// List handles GET /orders - the caller's orders, newest first.
func (h *OrderHandler) List(c *gin.Context) {
	ctx := c.Request.Context()

	var params dto.ListParams
	if !h.BindQuery(c, &params) {
		return
	}
	params.Defaults()

	list, err := h.service.ListByCustomer(ctx, h.CustomerID(c), params.Limit, params.Offset)
	if err != nil {
		h.Error(c, err)
		return
	}

	items := dto.FromOrders(list)
	h.OK(c, dto.NewListResponse(items, len(items), params.Limit, params.Offset))
}

// Cancel handles POST /orders/:id/cancel - allowed until the order ships.
func (h *OrderHandler) Cancel(c *gin.Context) {
	o, ok := h.getOwned(c)
	if !ok {
		return
	}

	if err := h.service.Cancel(c.Request.Context(), o.ID); err != nil {
		h.Error(c, err)
		return
	}
	h.Success(c, "order cancelled")
}

// Pack handles POST /admin/orders/:id/pack
func (h *OrderHandler) Pack(c *gin.Context) {
	orderID, ok := h.parseOrderID(c)
	if !ok {
		return
	}

	if err := h.service.Pack(c.Request.Context(), orderID); err != nil {
		h.Error(c, err)
		return
	}
	h.Success(c, "order packed")
}

// Ship handles POST /admin/orders/:id/ship
func (h *OrderHandler) Ship(c *gin.Context) {
	orderID, ok := h.parseOrderID(c)
	if !ok {
		return
	}

	var req dto.ShipOrderRequest
	if !h.BindJSON(c, &req) {
		return
	}

	if err := h.service.Ship(c.Request.Context(), orderID, req.Carrier, req.TrackingNo); err != nil {
		h.Error(c, err)
		return
	}
	h.Success(c, "order shipped")
}

// Complete handles POST /admin/orders/:id/complete
func (h *OrderHandler) Complete(c *gin.Context) {
	orderID, ok := h.parseOrderID(c)
	if !ok {
		return
	}

	if err := h.service.Complete(c.Request.Context(), orderID); err != nil {
		h.Error(c, err)
		return
	}
	h.Success(c, "order completed")
}

func (h *OrderHandler) parseOrderID(c *gin.Context) (id.ID, bool) {
	orderID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return id.Nil(), false
	}
	return orderID, true
}

// getOwned loads the order and enforces that non-admin callers only see
// their own orders.
func (h *OrderHandler) getOwned(c *gin.Context) (*orders.Order, bool) {
	ctx := c.Request.Context()

	orderID, ok := h.parseOrderID(c)
	if !ok {
		return nil, false
	}

	o, err := h.service.GetByID(ctx, orderID)
	if err != nil {
		h.Error(c, err)
		return nil, false
	}

	if o.CustomerID != h.CustomerID(c) && !appctx.IsAdmin(ctx) {
		// Hide the order's existence from other customers.
		h.Error(c, apperror.NewNotFound("order", orderID))
		return nil, false
	}
	return o, true
}

// RegisterRoutes registers customer-facing order routes.
func (h *OrderHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.List)
	rg.GET("/:id", h.Get)
	rg.POST("/:id/cancel", h.Cancel)
}

// RegisterAdminRoutes registers fulfillment routes.
func (h *OrderHandler) RegisterAdminRoutes(rg *gin.RouterGroup) {
	rg.POST("/:id/pack", h.Pack)
	rg.POST("/:id/ship", h.Ship)
	rg.POST("/:id/complete", h.Complete)
}
