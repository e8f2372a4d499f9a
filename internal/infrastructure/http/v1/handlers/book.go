package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"bookstore/internal/core/apperror"
	"bookstore/internal/core/id"
	"bookstore/internal/domain/catalogs/book"
	"bookstore/internal/infrastructure/http/v1/dto"
)

// BookHandler handles HTTP requests for the book catalog.
type BookHandler struct {
	*BaseHandler
	service *book.Service
}

// NewBookHandler creates a new book handler.
func NewBookHandler(base *BaseHandler, service *book.Service) *BookHandler {
	return &BookHandler{BaseHandler: base, service: service}
}

// Create handles POST /catalog/books
func (h *BookHandler) Create(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.CreateBookRequest
	if !h.BindJSON(c, &req) {
		return
	}

	b := req.ToEntity()
	if err := h.service.Create(ctx, b); err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.FromBook(b))
}

// Get handles GET /catalog/books/:id
func (h *BookHandler) Get(c *gin.Context) {
	ctx := c.Request.Context()

	bookID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	b, err := h.service.GetByID(ctx, bookID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromBook(b))
}

// Update handles PUT /catalog/books/:id
func (h *BookHandler) Update(c *gin.Context) {
	ctx := c.Request.Context()

	bookID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	var req dto.UpdateBookRequest
	if !h.BindJSON(c, &req) {
		return
	}

	b, err := h.service.GetByID(ctx, bookID)
	if err != nil {
		h.Error(c, err)
		return
	}

	req.ApplyTo(b)

	if err := h.service.Update(ctx, b); err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromBook(b))
}

// List handles GET /catalog/books
func (h *BookHandler) List(c *gin.Context) {
	ctx := c.Request.Context()

	var params dto.ListParams
	if !h.BindQuery(c, &params) {
		return
	}
	params.Defaults()

	books, err := h.service.List(ctx, params.Limit, params.Offset)
	if err != nil {
		h.Error(c, err)
		return
	}

	items := dto.FromBooks(books)
	h.OK(c, dto.NewListResponse(items, len(items), params.Limit, params.Offset))
}

// RegisterRoutes registers read-only catalog routes.
func (h *BookHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("", h.List)
	rg.GET("/:id", h.Get)
}

// RegisterAdminRoutes registers catalog mutation routes.
func (h *BookHandler) RegisterAdminRoutes(rg *gin.RouterGroup) {
	rg.POST("", h.Create)
	rg.PUT("/:id", h.Update)
}
