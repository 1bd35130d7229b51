package handler

import (
	"github.com/axiomacloud/prohub/internal/procurement/service"
	"github.com/gin-gonic/gin"
)

// RFQHandler serves the sourcing round endpoints.
type RFQHandler struct {
	svc *service.RFQService
}

func NewRFQHandler(svc *service.RFQService) *RFQHandler {
	return &RFQHandler{svc: svc}
}

// List RFQs
// GET /api/v1/rfqs?status=xxx&search=xxx
func (h *RFQHandler) List(c *gin.Context) {
	page, pageSize := GetPagination(c)
	filters := map[string]string{
		"status": c.Query("status"),
		"search": c.Query("search"),
	}

	items, total, err := h.svc.List(c.Request.Context(), GetTenantID(c), page, pageSize, filters)
	if err != nil {
		InternalError(c, "failed to list rfqs: "+err.Error())
		return
	}
	Success(c, listResponse(items, page, pageSize, total))
}

// GET /api/v1/rfqs/:id
func (h *RFQHandler) Get(c *gin.Context) {
	rfq, err := h.svc.Get(c.Request.Context(), GetTenantID(c), c.Param("id"))
	if err != nil {
		RespondError(c, err)
		return
	}
	Success(c, rfq)
}

// POST /api/v1/rfqs
func (h *RFQHandler) Create(c *gin.Context) {
	var req service.CreateRFQRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "invalid request: "+err.Error())
		return
	}

	rfq, err := h.svc.Create(c.Request.Context(), GetTenantID(c), GetUserID(c), &req)
	if err != nil {
		RespondError(c, err)
		return
	}
	Created(c, rfq)
}

// POST /api/v1/rfqs/:id/publish
func (h *RFQHandler) Publish(c *gin.Context) {
	rfq, err := h.svc.Publish(c.Request.Context(), GetTenantID(c), c.Param("id"), GetUserID(c))
	if err != nil {
		RespondError(c, err)
		return
	}
	Success(c, rfq)
}

// MarkViewed records that the supplier opened the RFQ.
// POST /api/v1/rfqs/:id/suppliers/:supplier_id/viewed
func (h *RFQHandler) MarkViewed(c *gin.Context) {
	err := h.svc.MarkViewed(c.Request.Context(), GetTenantID(c), c.Param("id"), c.Param("supplier_id"))
	if err != nil {
		RespondError(c, err)
		return
	}
	Success(c, nil)
}

// POST /api/v1/rfqs/:id/quotations
func (h *RFQHandler) SubmitQuotation(c *gin.Context) {
	var req service.SubmitQuotationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "invalid request: "+err.Error())
		return
	}

	q, err := h.svc.SubmitQuotation(c.Request.Context(), GetTenantID(c), c.Param("id"), &req)
	if err != nil {
		RespondError(c, err)
		return
	}
	Created(c, q)
}

// POST /api/v1/rfqs/:id/suppliers/:supplier_id/decline
func (h *RFQHandler) Decline(c *gin.Context) {
	err := h.svc.Decline(c.Request.Context(), GetTenantID(c), c.Param("id"), c.Param("supplier_id"))
	if err != nil {
		RespondError(c, err)
		return
	}
	Success(c, nil)
}

// POST /api/v1/rfqs/:id/close
func (h *RFQHandler) Close(c *gin.Context) {
	rfq, err := h.svc.Close(c.Request.Context(), GetTenantID(c), c.Param("id"), GetUserID(c))
	if err != nil {
		RespondError(c, err)
		return
	}
	Success(c, rfq)
}

// Compare returns the side-by-side quotation comparison.
// GET /api/v1/rfqs/:id/comparison
func (h *RFQHandler) Compare(c *gin.Context) {
	cmp, err := h.svc.Compare(c.Request.Context(), GetTenantID(c), c.Param("id"))
	if err != nil {
		RespondError(c, err)
		return
	}
	Success(c, cmp)
}

// POST /api/v1/rfqs/:id/award
func (h *RFQHandler) Award(c *gin.Context) {
	var req struct {
		QuotationID string `json:"quotation_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "invalid request: "+err.Error())
		return
	}

	rfq, err := h.svc.Award(c.Request.Context(), GetTenantID(c), c.Param("id"), req.QuotationID, GetUserID(c))
	if err != nil {
		RespondError(c, err)
		return
	}
	Success(c, rfq)
}

// POST /api/v1/rfqs/:id/generate-po
func (h *RFQHandler) GeneratePO(c *gin.Context) {
	po, err := h.svc.GeneratePO(c.Request.Context(), GetTenantID(c), c.Param("id"), GetUserID(c))
	if err != nil {
		RespondError(c, err)
		return
	}
	Created(c, po)
}

// POST /api/v1/rfqs/:id/cancel
func (h *RFQHandler) Cancel(c *gin.Context) {
	var req struct {
		Reason string `json:"reason"`
	}
	_ = c.ShouldBindJSON(&req)

	rfq, err := h.svc.Cancel(c.Request.Context(), GetTenantID(c), c.Param("id"), GetUserID(c), req.Reason)
	if err != nil {
		RespondError(c, err)
		return
	}
	Success(c, rfq)
}

// ExpireOverdue sweeps open RFQs past their deadline.
// POST /api/v1/rfqs/expire-overdue
func (h *RFQHandler) ExpireOverdue(c *gin.Context) {
	n, err := h.svc.ExpireOverdue(c.Request.Context(), GetTenantID(c))
	if err != nil {
		InternalError(c, "expiry sweep failed: "+err.Error())
		return
	}
	Success(c, gin.H{"expired": n})
}
