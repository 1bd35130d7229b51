package handler

import (
	"github.com/axiomacloud/prohub/internal/procurement/service"
	"github.com/gin-gonic/gin"
)

// CircuitHandler serves the traceability circuit, walkable from any document.
type CircuitHandler struct {
	svc *service.CircuitService
}

func NewCircuitHandler(svc *service.CircuitService) *CircuitHandler {
	return &CircuitHandler{svc: svc}
}

// GET /api/v1/requisitions/:id/circuit
func (h *CircuitHandler) FromRequisition(c *gin.Context) {
	circuit, err := h.svc.FromRequisition(c.Request.Context(), GetTenantID(c), c.Param("id"))
	if err != nil {
		RespondError(c, err)
		return
	}
	Success(c, circuit)
}

// GET /api/v1/purchase-orders/:id/circuit
func (h *CircuitHandler) FromPO(c *gin.Context) {
	circuit, err := h.svc.FromPO(c.Request.Context(), GetTenantID(c), c.Param("id"))
	if err != nil {
		RespondError(c, err)
		return
	}
	Success(c, circuit)
}

// GET /api/v1/receptions/:id/circuit
func (h *CircuitHandler) FromReception(c *gin.Context) {
	circuit, err := h.svc.FromReception(c.Request.Context(), GetTenantID(c), c.Param("id"))
	if err != nil {
		RespondError(c, err)
		return
	}
	Success(c, circuit)
}
