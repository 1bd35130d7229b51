package handler

import (
	"strconv"

	"github.com/axiomacloud/prohub/internal/procurement/repository"
	"github.com/axiomacloud/prohub/internal/procurement/service"
	"github.com/gin-gonic/gin"
)

// DashboardHandler serves the tenant overview.
type DashboardHandler struct {
	svc *service.DashboardService
}

func NewDashboardHandler(svc *service.DashboardService) *DashboardHandler {
	return &DashboardHandler{svc: svc}
}

// GET /api/v1/dashboard
func (h *DashboardHandler) Overview(c *gin.Context) {
	d, err := h.svc.Overview(c.Request.Context(), GetTenantID(c))
	if err != nil {
		InternalError(c, "failed to build dashboard: "+err.Error())
		return
	}
	Success(c, d)
}

// ActivityHandler serves the per-entity audit trail.
type ActivityHandler struct {
	repo *repository.ActivityLogRepository
}

func NewActivityHandler(repo *repository.ActivityLogRepository) *ActivityHandler {
	return &ActivityHandler{repo: repo}
}

// GET /api/v1/activity?entity_type=xxx&entity_id=xxx&limit=50
func (h *ActivityHandler) List(c *gin.Context) {
	entityType := c.Query("entity_type")
	entityID := c.Query("entity_id")
	if entityType == "" || entityID == "" {
		BadRequest(c, "entity_type and entity_id are required")
		return
	}

	limit := 0
	if l := c.Query("limit"); l != "" {
		limit, _ = strconv.Atoi(l)
	}

	logs, err := h.repo.FindByEntity(c.Request.Context(), GetTenantID(c), entityType, entityID, limit)
	if err != nil {
		InternalError(c, "failed to list activity: "+err.Error())
		return
	}
	Success(c, logs)
}
