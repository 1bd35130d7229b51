package handler

import (
	"fmt"
	"time"

	"github.com/axiomacloud/prohub/internal/procurement/service"
	"github.com/gin-gonic/gin"
)

// POHandler serves purchase orders.
type POHandler struct {
	svc *service.POService
}

func NewPOHandler(svc *service.POService) *POHandler {
	return &POHandler{svc: svc}
}

// List purchase orders
// GET /api/v1/purchase-orders?supplier_id=xxx&status=xxx&approval_status=xxx&search=xxx
func (h *POHandler) List(c *gin.Context) {
	page, pageSize := GetPagination(c)
	filters := map[string]string{
		"supplier_id":     c.Query("supplier_id"),
		"status":          c.Query("status"),
		"approval_status": c.Query("approval_status"),
		"search":          c.Query("search"),
	}

	items, total, err := h.svc.List(c.Request.Context(), GetTenantID(c), page, pageSize, filters)
	if err != nil {
		InternalError(c, "failed to list purchase orders: "+err.Error())
		return
	}
	Success(c, listResponse(items, page, pageSize, total))
}

// GET /api/v1/purchase-orders/:id
func (h *POHandler) Get(c *gin.Context) {
	po, err := h.svc.Get(c.Request.Context(), GetTenantID(c), c.Param("id"))
	if err != nil {
		RespondError(c, err)
		return
	}
	Success(c, po)
}

// POST /api/v1/purchase-orders
func (h *POHandler) Create(c *gin.Context) {
	var req service.CreatePORequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "invalid request: "+err.Error())
		return
	}

	po, err := h.svc.Create(c.Request.Context(), GetTenantID(c), GetUserID(c), &req)
	if err != nil {
		RespondError(c, err)
		return
	}
	Created(c, po)
}

// POST /api/v1/purchase-orders/:id/approve
func (h *POHandler) Approve(c *gin.Context) {
	var req struct {
		Comment string `json:"comment"`
	}
	_ = c.ShouldBindJSON(&req)

	po, err := h.svc.Approve(c.Request.Context(), GetTenantID(c), c.Param("id"), GetUserID(c), req.Comment)
	if err != nil {
		RespondError(c, err)
		return
	}
	Success(c, po)
}

// POST /api/v1/purchase-orders/:id/reject
func (h *POHandler) Reject(c *gin.Context) {
	var req struct {
		Reason string `json:"reason" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "invalid request: "+err.Error())
		return
	}

	po, err := h.svc.Reject(c.Request.Context(), GetTenantID(c), c.Param("id"), GetUserID(c), req.Reason)
	if err != nil {
		RespondError(c, err)
		return
	}
	Success(c, po)
}

// PUT /api/v1/purchase-orders/:id/status
func (h *POHandler) UpdateStatus(c *gin.Context) {
	var req struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "invalid request: "+err.Error())
		return
	}

	po, err := h.svc.UpdateStatus(c.Request.Context(), GetTenantID(c), c.Param("id"), GetUserID(c), req.Status)
	if err != nil {
		RespondError(c, err)
		return
	}
	Success(c, po)
}

// POST /api/v1/purchase-orders/:id/cancel
func (h *POHandler) Cancel(c *gin.Context) {
	var req struct {
		Reason string `json:"reason"`
	}
	_ = c.ShouldBindJSON(&req)

	po, err := h.svc.Cancel(c.Request.Context(), GetTenantID(c), c.Param("id"), GetUserID(c), req.Reason)
	if err != nil {
		RespondError(c, err)
		return
	}
	Success(c, po)
}

// Export downloads the PO register as an xlsx workbook.
// GET /api/v1/purchase-orders/export
func (h *POHandler) Export(c *gin.Context) {
	buf, err := h.svc.Export(c.Request.Context(), GetTenantID(c))
	if err != nil {
		InternalError(c, "failed to export purchase orders: "+err.Error())
		return
	}

	fileName := fmt.Sprintf("purchase-orders-%s.xlsx", time.Now().Format("20060102"))
	c.Header("Content-Disposition", `attachment; filename="`+fileName+`"`)
	c.Data(200, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", buf.Bytes())
}
