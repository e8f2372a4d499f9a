package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"bookstore/internal/core/apperror"
	"bookstore/internal/core/id"
	"bookstore/internal/domain/settlement"
	"bookstore/internal/infrastructure/http/v1/dto"
)

// PurchaseHandler handles purchase endpoints: buy-now attempts and cart
// checkouts. Both run in the settlement engine; the handler only shapes
// the outcome.
type PurchaseHandler struct {
	*BaseHandler
	engine *settlement.Engine
}

// NewPurchaseHandler creates a new purchase handler.
func NewPurchaseHandler(base *BaseHandler, engine *settlement.Engine) *PurchaseHandler {
	return &PurchaseHandler{BaseHandler: base, engine: engine}
}

// BuyNow handles POST /purchase
// A rejected or backordered attempt is a successful request with a
// non-committed outcome, not an HTTP error.
func (h *PurchaseHandler) BuyNow(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.PurchaseRequest
	if !h.BindJSON(c, &req) {
		return
	}

	bookID, err := id.Parse(req.BookID)
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid book id format"))
		return
	}

	out, err := h.engine.AttemptPurchase(ctx, h.CustomerID(c), bookID, req.Qty, req.Receiver.ToReceiver())
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromOutcome(out))
}

// CheckoutCart handles POST /purchase/cart
func (h *PurchaseHandler) CheckoutCart(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.CheckoutCartRequest
	if !h.BindJSON(c, &req) {
		return
	}

	lines, err := req.ToCartLines()
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid book id format"))
		return
	}

	orderID, err := h.engine.CheckoutCart(ctx, h.CustomerID(c), lines, req.Receiver.ToReceiver())
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.IDResponse{ID: orderID.String()})
}

// PayOrder handles POST /orders/:id/pay
// Settles a cart order created earlier: debits the customer balance by the
// order total and moves the order to paid.
func (h *PurchaseHandler) PayOrder(c *gin.Context) {
	ctx := c.Request.Context()

	orderID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid order id format"))
		return
	}

	o, err := h.engine.PayOrder(ctx, h.CustomerID(c), orderID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromOrder(o))
}

// RegisterRoutes registers purchase routes.
func (h *PurchaseHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.POST("", h.BuyNow)
	rg.POST("/cart", h.CheckoutCart)
}
