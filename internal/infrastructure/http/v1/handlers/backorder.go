package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"bookstore/internal/core/apperror"
	"bookstore/internal/core/id"
	"bookstore/internal/domain/backorder"
	"bookstore/internal/infrastructure/http/v1/dto"
)

// BackorderHandler handles out-of-stock request endpoints.
type BackorderHandler struct {
	*BaseHandler
	service *backorder.Service
}

// NewBackorderHandler creates a new backorder handler.
func NewBackorderHandler(base *BaseHandler, service *backorder.Service) *BackorderHandler {
	return &BackorderHandler{BaseHandler: base, service: service}
}

// Submit handles POST /backorders
func (h *BackorderHandler) Submit(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.SubmitBackorderRequest
	if !h.BindJSON(c, &req) {
		return
	}

	var bookID *id.ID
	if req.BookID != nil && *req.BookID != "" {
		parsed, err := id.Parse(*req.BookID)
		if err != nil {
			h.Error(c, apperror.NewValidation("invalid book id format"))
			return
		}
		bookID = &parsed
	}

	r, err := h.service.Submit(ctx, h.CustomerID(c), bookID, req.BookTitle, req.Qty, req.Note)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.FromBackorder(r))
}

// List handles GET /backorders - the caller's requests, newest first.
func (h *BackorderHandler) List(c *gin.Context) {
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

	items := dto.FromBackorders(list)
	h.OK(c, dto.NewListResponse(items, len(items), params.Limit, params.Offset))
}

// ListOpen handles GET /admin/backorders - requests awaiting procurement.
func (h *BackorderHandler) ListOpen(c *gin.Context) {
	ctx := c.Request.Context()

	var params dto.ListParams
	if !h.BindQuery(c, &params) {
		return
	}
	params.Defaults()

	list, err := h.service.ListOpen(ctx, params.Limit, params.Offset)
	if err != nil {
		h.Error(c, err)
		return
	}

	items := dto.FromBackorders(list)
	h.OK(c, dto.NewListResponse(items, len(items), params.Limit, params.Offset))
}

// Reply handles PUT /admin/backorders/:id/reply
func (h *BackorderHandler) Reply(c *gin.Context) {
	ctx := c.Request.Context()

	requestID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	var req dto.ReplyBackorderRequest
	if !h.BindJSON(c, &req) {
		return
	}

	r, err := h.service.Reply(ctx, requestID, backorder.Status(req.Status), req.AdminReply)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromBackorder(r))
}

// RegisterRoutes registers customer-facing backorder routes.
func (h *BackorderHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("", h.Submit)
	rg.GET("", h.List)
}

// RegisterAdminRoutes registers backorder administration routes.
func (h *BackorderHandler) RegisterAdminRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.ListOpen)
	rg.PUT("/:id/reply", h.Reply)
}
