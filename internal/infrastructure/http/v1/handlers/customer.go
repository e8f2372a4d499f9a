package handlers

import (
	"github.com/gin-gonic/gin"

	"bookstore/internal/domain/credit"
	"bookstore/internal/domain/customer"
	"bookstore/internal/infrastructure/http/v1/dto"
)

// CustomerHandler handles customer profile endpoints: balance recharge and
// admin credit-term changes.
type CustomerHandler struct {
	*BaseHandler
	service *customer.Service
}

// NewCustomerHandler creates a new customer handler.
func NewCustomerHandler(base *BaseHandler, service *customer.Service) *CustomerHandler {
	return &CustomerHandler{BaseHandler: base, service: service}
}

// Me handles GET /customers/me - the caller's own profile.
func (h *CustomerHandler) Me(c *gin.Context) {
	ctx := c.Request.Context()

	profile, err := h.service.GetOrCreate(ctx, h.CustomerID(c))
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromProfile(profile))
}

// Recharge handles POST /customers/me/recharge
func (h *CustomerHandler) Recharge(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.RechargeRequest
	if !h.BindJSON(c, &req) {
		return
	}

	profile, err := h.service.Recharge(ctx, h.CustomerID(c), req.Amount)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromProfile(profile))
}

// Get handles GET /admin/customers/:id
func (h *CustomerHandler) Get(c *gin.Context) {
	ctx := c.Request.Context()

	customerID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	profile, err := h.service.GetByID(ctx, customerID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromProfile(profile))
}

// SetCredit handles PUT /admin/customers/:id/credit
func (h *CustomerHandler) SetCredit(c *gin.Context) {
	ctx := c.Request.Context()

	customerID, ok := h.ParseID(c, "id")
	if !ok {
		return
	}

	var req dto.SetCreditRequest
	if !h.BindJSON(c, &req) {
		return
	}

	profile, err := h.service.SetCredit(ctx, customerID, credit.Tier(req.CreditTier), req.OverdraftLimit)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromProfile(profile))
}

// RegisterRoutes registers self-service customer routes.
func (h *CustomerHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/me", h.Me)
	rg.POST("/me/recharge", h.Recharge)
}

// RegisterAdminRoutes registers credit administration routes.
func (h *CustomerHandler) RegisterAdminRoutes(rg *gin.RouterGroup) {
	rg.GET("/:id", h.Get)
	rg.PUT("/:id/credit", h.SetCredit)
}
