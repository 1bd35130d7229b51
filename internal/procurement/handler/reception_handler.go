package handler

import (
	"github.com/axiomacloud/prohub/internal/procurement/service"
	"github.com/gin-gonic/gin"
)

// ReceptionHandler serves reception recording and history.
type ReceptionHandler struct {
	svc *service.ReceptionService
}

func NewReceptionHandler(svc *service.ReceptionService) *ReceptionHandler {
	return &ReceptionHandler{svc: svc}
}

// List receptions
// GET /api/v1/receptions?po_id=xxx&tipo=xxx
func (h *ReceptionHandler) List(c *gin.Context) {
	page, pageSize := GetPagination(c)
	filters := map[string]string{
		"po_id": c.Query("po_id"),
		"tipo":  c.Query("tipo"),
	}

	items, total, err := h.svc.List(c.Request.Context(), GetTenantID(c), page, pageSize, filters)
	if err != nil {
		InternalError(c, "failed to list receptions: "+err.Error())
		return
	}
	Success(c, listResponse(items, page, pageSize, total))
}

// GET /api/v1/receptions/:id
func (h *ReceptionHandler) Get(c *gin.Context) {
	rec, err := h.svc.Get(c.Request.Context(), GetTenantID(c), c.Param("id"))
	if err != nil {
		RespondError(c, err)
		return
	}
	Success(c, rec)
}

// Record registers a delivery against a purchase order.
// POST /api/v1/purchase-orders/:id/receptions
func (h *ReceptionHandler) Record(c *gin.Context) {
	var req service.RecordReceptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "invalid request: "+err.Error())
		return
	}

	rec, err := h.svc.Record(c.Request.Context(), GetTenantID(c), c.Param("id"), GetUserID(c), &req)
	if err != nil {
		RespondError(c, err)
		return
	}
	Created(c, rec)
}

// ListByPO returns the reception history of one purchase order.
// GET /api/v1/purchase-orders/:id/receptions
func (h *ReceptionHandler) ListByPO(c *gin.Context) {
	items, err := h.svc.ListByPO(c.Request.Context(), GetTenantID(c), c.Param("id"))
	if err != nil {
		RespondError(c, err)
		return
	}
	Success(c, items)
}
