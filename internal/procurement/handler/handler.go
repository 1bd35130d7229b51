package handler

import (
	"errors"
	"strconv"

	"github.com/axiomacloud/prohub/internal/procurement/repository"
	"github.com/axiomacloud/prohub/internal/procurement/service"
	"github.com/axiomacloud/prohub/internal/storage"
	"github.com/gin-gonic/gin"
)

// Handlers bundles the procurement HTTP layer.
type Handlers struct {
	Requisition *RequisitionHandler
	PO          *POHandler
	Reception   *ReceptionHandler
	RFQ         *RFQHandler
	Supplier    *SupplierHandler
	Circuit     *CircuitHandler
	Dashboard   *DashboardHandler
	Activity    *ActivityHandler
}

func NewHandlers(
	requisitionSvc *service.RequisitionService,
	poSvc *service.POService,
	receptionSvc *service.ReceptionService,
	rfqSvc *service.RFQService,
	supplierSvc *service.SupplierService,
	circuitSvc *service.CircuitService,
	dashboardSvc *service.DashboardService,
	activityRepo *repository.ActivityLogRepository,
	store *storage.ObjectStore,
) *Handlers {
	return &Handlers{
		Requisition: NewRequisitionHandler(requisitionSvc, store),
		PO:          NewPOHandler(poSvc),
		Reception:   NewReceptionHandler(receptionSvc),
		RFQ:         NewRFQHandler(rfqSvc),
		Supplier:    NewSupplierHandler(supplierSvc),
		Circuit:     NewCircuitHandler(circuitSvc),
		Dashboard:   NewDashboardHandler(dashboardSvc),
		Activity:    NewActivityHandler(activityRepo),
	}
}

type Response struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

type ListResponse struct {
	Items      interface{} `json:"items"`
	Pagination *Pagination `json:"pagination"`
}

type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	Total      int `json:"total"`
	TotalPages int `json:"total_pages"`
}

func Success(c *gin.Context, data interface{}) {
	c.JSON(200, Response{
		Code:    0,
		Message: "success",
		Data:    data,
	})
}

func Created(c *gin.Context, data interface{}) {
	c.JSON(201, Response{
		Code:    0,
		Message: "success",
		Data:    data,
	})
}

func Error(c *gin.Context, code int, message string) {
	statusCode := code / 100
	if statusCode < 100 || statusCode > 599 {
		statusCode = 500
	}
	c.JSON(statusCode, Response{
		Code:    code,
		Message: message,
	})
}

func BadRequest(c *gin.Context, message string) {
	Error(c, 40000, message)
}

func Forbidden(c *gin.Context, message string) {
	Error(c, 40300, message)
}

func NotFound(c *gin.Context, message string) {
	Error(c, 40400, message)
}

func Conflict(c *gin.Context, message string) {
	Error(c, 40900, message)
}

func InternalError(c *gin.Context, message string) {
	Error(c, 50000, message)
}

// RespondError maps service errors to the response envelope. Transition and
// precondition failures come back as conflicts, validation issues as bad
// requests, everything unclassified as a 500.
func RespondError(c *gin.Context, err error) {
	var pre *service.PreconditionError
	var trans *service.TransitionError
	var val *service.ValidationError
	switch {
	case errors.Is(err, repository.ErrNotFound):
		NotFound(c, "record not found")
	case errors.As(err, &pre):
		Conflict(c, pre.Message)
	case errors.As(err, &trans):
		Conflict(c, trans.Error())
	case errors.As(err, &val):
		BadRequest(c, val.Message)
	default:
		InternalError(c, err.Error())
	}
}

func GetUserID(c *gin.Context) string {
	userID, _ := c.Get("user_id")
	if id, ok := userID.(string); ok {
		return id
	}
	return ""
}

func GetTenantID(c *gin.Context) string {
	tenantID, _ := c.Get("tenant_id")
	if id, ok := tenantID.(string); ok {
		return id
	}
	return ""
}

func GetPagination(c *gin.Context) (page, pageSize int) {
	page = 1
	pageSize = 20

	if p := c.Query("page"); p != "" {
		if v, err := strconv.Atoi(p); err == nil && v > 0 {
			page = v
		}
	}

	if ps := c.Query("page_size"); ps != "" {
		if v, err := strconv.Atoi(ps); err == nil && v > 0 && v <= 100 {
			pageSize = v
		}
	}

	return page, pageSize
}

func listResponse(items interface{}, page, pageSize int, total int64) ListResponse {
	totalPages := int(total) / pageSize
	if int(total)%pageSize > 0 {
		totalPages++
	}
	return ListResponse{
		Items: items,
		Pagination: &Pagination{
			Page:       page,
			PageSize:   pageSize,
			Total:      int(total),
			TotalPages: totalPages,
		},
	}
}
