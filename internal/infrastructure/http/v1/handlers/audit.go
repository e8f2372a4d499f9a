package handlers

import (
	"context"

	"github.com/gin-gonic/gin"

	"bookstore/internal/infrastructure/http/v1/dto"
	"bookstore/internal/infrastructure/storage/postgres"
)

// Auditor records admin mutations for later review. Handlers treat a nil
// Auditor as "recording disabled" and still serve the mutation.
type Auditor interface {
	Record(ctx context.Context, entityType, entityID, action string, changes any) error
}

// AuditHandler serves the audit trail of an entity.
type AuditHandler struct {
	*BaseHandler
	audit *postgres.AuditService
}

// NewAuditHandler creates a new audit handler.
func NewAuditHandler(base *BaseHandler, audit *postgres.AuditService) *AuditHandler {
	return &AuditHandler{BaseHandler: base, audit: audit}
}

// History handles GET /admin/audit/:entityType/:id
// Entries come back newest first, payloads already decompressed.
func (h *AuditHandler) History(c *gin.Context) {
	ctx := c.Request.Context()

	limit := h.ParseIntQuery(c, "limit", 100)
	entries, err := h.audit.GetEntityHistory(ctx, c.Param("entityType"), c.Param("id"), limit)
	if err != nil {
		h.Error(c, err)
		return
	}

	items := dto.FromAuditEntries(entries)
	h.OK(c, dto.NewListResponse(items, len(items), limit, 0))
}

// RegisterAdminRoutes registers audit routes.
func (h *AuditHandler) RegisterAdminRoutes(rg *gin.RouterGroup) {
	rg.GET("/:entityType/:id", h.History)
}
