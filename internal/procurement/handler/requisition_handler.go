package handler

import (
	"github.com/axiomacloud/prohub/internal/procurement/service"
	"github.com/axiomacloud/prohub/internal/storage"
	"github.com/gin-gonic/gin"
)

// RequisitionHandler serves the requisition lifecycle and its attachments.
type RequisitionHandler struct {
	svc   *service.RequisitionService
	store *storage.ObjectStore
}

func NewRequisitionHandler(svc *service.RequisitionService, store *storage.ObjectStore) *RequisitionHandler {
	return &RequisitionHandler{svc: svc, store: store}
}

// List requisitions
// GET /api/v1/requisitions?status=xxx&department=xxx&requester_id=xxx&search=xxx
func (h *RequisitionHandler) List(c *gin.Context) {
	page, pageSize := GetPagination(c)
	filters := map[string]string{
		"status":       c.Query("status"),
		"department":   c.Query("department"),
		"requester_id": c.Query("requester_id"),
		"search":       c.Query("search"),
	}

	items, total, err := h.svc.List(c.Request.Context(), GetTenantID(c), page, pageSize, filters)
	if err != nil {
		InternalError(c, "failed to list requisitions: "+err.Error())
		return
	}
	Success(c, listResponse(items, page, pageSize, total))
}

// GET /api/v1/requisitions/:id
func (h *RequisitionHandler) Get(c *gin.Context) {
	r, err := h.svc.Get(c.Request.Context(), GetTenantID(c), c.Param("id"))
	if err != nil {
		RespondError(c, err)
		return
	}
	Success(c, r)
}

// POST /api/v1/requisitions
func (h *RequisitionHandler) Create(c *gin.Context) {
	var req service.CreateRequisitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "invalid request: "+err.Error())
		return
	}

	r, err := h.svc.Create(c.Request.Context(), GetTenantID(c), GetUserID(c), &req)
	if err != nil {
		RespondError(c, err)
		return
	}
	Created(c, r)
}

// PUT /api/v1/requisitions/:id
func (h *RequisitionHandler) Update(c *gin.Context) {
	var req service.UpdateRequisitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "invalid request: "+err.Error())
		return
	}

	r, err := h.svc.Update(c.Request.Context(), GetTenantID(c), c.Param("id"), &req)
	if err != nil {
		RespondError(c, err)
		return
	}
	Success(c, r)
}

// POST /api/v1/requisitions/:id/submit
func (h *RequisitionHandler) Submit(c *gin.Context) {
	r, err := h.svc.Submit(c.Request.Context(), GetTenantID(c), c.Param("id"), GetUserID(c))
	if err != nil {
		RespondError(c, err)
		return
	}
	Success(c, r)
}

// POST /api/v1/requisitions/:id/approve
func (h *RequisitionHandler) Approve(c *gin.Context) {
	var req service.ApproveRequisitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "invalid request: "+err.Error())
		return
	}

	result, err := h.svc.Approve(c.Request.Context(), GetTenantID(c), c.Param("id"), GetUserID(c), &req)
	if err != nil {
		RespondError(c, err)
		return
	}
	Success(c, result)
}

// POST /api/v1/requisitions/:id/reject
func (h *RequisitionHandler) Reject(c *gin.Context) {
	var req struct {
		Reason string `json:"reason" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "invalid request: "+err.Error())
		return
	}

	r, err := h.svc.Reject(c.Request.Context(), GetTenantID(c), c.Param("id"), GetUserID(c), req.Reason)
	if err != nil {
		RespondError(c, err)
		return
	}
	Success(c, r)
}

// POST /api/v1/requisitions/:id/cancel
func (h *RequisitionHandler) Cancel(c *gin.Context) {
	var req struct {
		Reason string `json:"reason"`
	}
	_ = c.ShouldBindJSON(&req)

	r, err := h.svc.Cancel(c.Request.Context(), GetTenantID(c), c.Param("id"), GetUserID(c), req.Reason)
	if err != nil {
		RespondError(c, err)
		return
	}
	Success(c, r)
}

// UploadAttachment stores the file and registers it pending review.
// POST /api/v1/requisitions/:id/attachments  (multipart, field "file")
func (h *RequisitionHandler) UploadAttachment(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		BadRequest(c, "file is required")
		return
	}

	f, err := fileHeader.Open()
	if err != nil {
		InternalError(c, "failed to read upload: "+err.Error())
		return
	}
	defer f.Close()

	contentType := fileHeader.Header.Get("Content-Type")
	key, err := h.store.Upload(c.Request.Context(), fileHeader.Filename, contentType, f, fileHeader.Size)
	if err != nil {
		InternalError(c, "failed to store file: "+err.Error())
		return
	}

	att, err := h.svc.AddAttachment(c.Request.Context(), GetTenantID(c), c.Param("id"),
		fileHeader.Filename, contentType, key, fileHeader.Size)
	if err != nil {
		RespondError(c, err)
		return
	}
	Created(c, att)
}

// DownloadAttachment streams a stored attachment.
// GET /api/v1/requisitions/:id/attachments/:attachment_id/download
func (h *RequisitionHandler) DownloadAttachment(c *gin.Context) {
	r, err := h.svc.Get(c.Request.Context(), GetTenantID(c), c.Param("id"))
	if err != nil {
		RespondError(c, err)
		return
	}

	attachmentID := c.Param("attachment_id")
	for _, att := range r.Attachments {
		if att.ID != attachmentID {
			continue
		}
		obj, err := h.store.Download(c.Request.Context(), att.ObjectKey)
		if err != nil {
			InternalError(c, "failed to open file: "+err.Error())
			return
		}
		defer obj.Close()

		c.Header("Content-Disposition", `attachment; filename="`+att.FileName+`"`)
		c.DataFromReader(200, att.SizeBytes, att.MimeType, obj, nil)
		return
	}
	NotFound(c, "attachment not found")
}

// POST /api/v1/requisitions/:id/attachments/:attachment_id/decide
func (h *RequisitionHandler) DecideAttachment(c *gin.Context) {
	var req service.DecideAttachmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		BadRequest(c, "invalid request: "+err.Error())
		return
	}

	att, err := h.svc.DecideAttachment(c.Request.Context(), GetTenantID(c),
		c.Param("id"), c.Param("attachment_id"), GetUserID(c), &req)
	if err != nil {
		RespondError(c, err)
		return
	}
	Success(c, att)
}
