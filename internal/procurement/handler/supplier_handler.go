package handler

import (
	"github.com/axiomacloud/prohub/internal/procurement/service"
	"github.com/gin-gonic/gin"
)

// SupplierHandler serves supplier onboarding and management.
type SupplierHandler struct {
	svc *service.SupplierService
}

func NewSupplierHandler(svc *service.SupplierService) *SupplierHandler {
	return &SupplierHandler{svc: svc}
}

// List suppliers
// GET /api/v1/suppliers?status=xxx&category=xxx&search=xxx
func (h *SupplierHandler) List(c *gin.Context) {
	page, pageSize := GetPagination(c)
	filters := map[string]string{
		"status":   c.Query("status"),
		"category": c.Query("category"),
		"search":   c.Query("search"),
	}

	items, total, err := h.svc.List(c.Request.Context(), GetTenantID(c), page, pageSize, filters)
	if err != nil {
		InternalError(c, "failed to list suppliers: "+err.Error())
		return
	}
	Success(c, listResponse(items, page, pageSize, total))
}

// GET /api/v1/suppliers/:id
func (h *SupplierHandler) Get(c *gin.Context) {
	sup, err := h.svc.Get(c.Request.Context(), GetTenantID(c), c.Param("id"))
	if err != nil {
		RespondError(c, err)
		return
	}
	Success(c, sup)
}

// POST /api/v1/suppliers/invite
func (h *SupplierHandler) Invite(c *gin.Context) {
	var req service.InviteSupplierRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "invalid request: "+err.Error())
		return
	}

	sup, err := h.svc.Invite(c.Request.Context(), GetTenantID(c), GetUserID(c), &req)
	if err != nil {
		RespondError(c, err)
		return
	}
	Created(c, sup)
}

// PUT /api/v1/suppliers/:id/profile
func (h *SupplierHandler) UpdateProfile(c *gin.Context) {
	var req service.UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "invalid request: "+err.Error())
		return
	}

	sup, err := h.svc.UpdateProfile(c.Request.Context(), GetTenantID(c), c.Param("id"), GetUserID(c), &req)
	if err != nil {
		RespondError(c, err)
		return
	}
	Success(c, sup)
}

// POST /api/v1/suppliers/:id/submit
func (h *SupplierHandler) SubmitForApproval(c *gin.Context) {
	sup, err := h.svc.SubmitForApproval(c.Request.Context(), GetTenantID(c), c.Param("id"), GetUserID(c))
	if err != nil {
		RespondError(c, err)
		return
	}
	Success(c, sup)
}

// POST /api/v1/suppliers/:id/approve
func (h *SupplierHandler) Approve(c *gin.Context) {
	sup, err := h.svc.Approve(c.Request.Context(), GetTenantID(c), c.Param("id"), GetUserID(c))
	if err != nil {
		RespondError(c, err)
		return
	}
	Success(c, sup)
}

// POST /api/v1/suppliers/:id/reject
func (h *SupplierHandler) Reject(c *gin.Context) {
	var req struct {
		Reason string `json:"reason" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "invalid request: "+err.Error())
		return
	}

	sup, err := h.svc.Reject(c.Request.Context(), GetTenantID(c), c.Param("id"), GetUserID(c), req.Reason)
	if err != nil {
		RespondError(c, err)
		return
	}
	Success(c, sup)
}

// POST /api/v1/suppliers/:id/suspend
func (h *SupplierHandler) Suspend(c *gin.Context) {
	var req struct {
		Reason string `json:"reason" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "invalid request: "+err.Error())
		return
	}

	sup, err := h.svc.Suspend(c.Request.Context(), GetTenantID(c), c.Param("id"), GetUserID(c), req.Reason)
	if err != nil {
		RespondError(c, err)
		return
	}
	Success(c, sup)
}

// POST /api/v1/suppliers/:id/reactivate
func (h *SupplierHandler) Reactivate(c *gin.Context) {
	sup, err := h.svc.Reactivate(c.Request.Context(), GetTenantID(c), c.Param("id"), GetUserID(c))
	if err != nil {
		RespondError(c, err)
		return
	}
	Success(c, sup)
}

// GET /api/v1/suppliers/:id/contacts
func (h *SupplierHandler) ListContacts(c *gin.Context) {
	contacts, err := h.svc.ListContacts(c.Request.Context(), GetTenantID(c), c.Param("id"))
	if err != nil {
		RespondError(c, err)
		return
	}
	Success(c, contacts)
}

// POST /api/v1/suppliers/:id/contacts
func (h *SupplierHandler) AddContact(c *gin.Context) {
	var req service.AddContactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "invalid request: "+err.Error())
		return
	}

	contact, err := h.svc.AddContact(c.Request.Context(), GetTenantID(c), c.Param("id"), &req)
	if err != nil {
		RespondError(c, err)
		return
	}
	Created(c, contact)
}

// DELETE /api/v1/suppliers/:id/contacts/:contact_id
func (h *SupplierHandler) RemoveContact(c *gin.Context) {
	err := h.svc.RemoveContact(c.Request.Context(), GetTenantID(c), c.Param("id"), c.Param("contact_id"))
	if err != nil {
		RespondError(c, err)
		return
	}
	Success(c, nil)
}
