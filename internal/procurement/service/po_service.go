package service

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/axiomacloud/prohub/internal/procurement/entity"
	"github.com/axiomacloud/prohub/internal/procurement/repository"
	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// POService owns purchase orders: creation, the approval sub-state, the
// forward-only delivery status and the register export.
type POService struct {
	repo         *repository.PORepository
	reqRepo      *repository.RequisitionRepository
	supplierRepo *repository.SupplierRepository
	db           *gorm.DB
	tax          TaxPolicy
	logger       *zap.Logger
	activityLogger
}

func NewPOService(repos *repository.Repositories, db *gorm.DB, tax TaxPolicy, logger *zap.Logger) *POService {
	return &POService{
		repo:           repos.PO,
		reqRepo:        repos.Requisition,
		supplierRepo:   repos.Supplier,
		db:             db,
		tax:            tax,
		logger:         logger,
		activityLogger: activityLogger{repo: repos.ActivityLog, logger: logger},
	}
}

func (s *POService) List(ctx context.Context, tenantID string, page, pageSize int, filters map[string]string) ([]entity.PurchaseOrder, int64, error) {
	return s.repo.FindAll(ctx, tenantID, page, pageSize, filters)
}

func (s *POService) Get(ctx context.Context, tenantID, id string) (*entity.PurchaseOrder, error) {
	return s.repo.FindByID(ctx, tenantID, id)
}

// CreatePORequest creates a standalone purchase order, not tied to a
// requisition or RFQ. Amounts are recomputed server-side from the lines.
type CreatePORequest struct {
	SupplierID        string         `json:"supplier_id" binding:"required"`
	Currency          string         `json:"currency"`
	PaymentTerms      string         `json:"payment_terms"`
	DeliveryPlace     string         `json:"delivery_place"`
	EstimatedDelivery *time.Time     `json:"estimated_delivery"`
	Notes             string         `json:"notes"`
	Items             []CreatePOItem `json:"items" binding:"required,min=1,dive"`
}

type CreatePOItem struct {
	Description string  `json:"description" binding:"required"`
	Quantity    float64 `json:"quantity" binding:"required,gt=0"`
	Unit        string  `json:"unit"`
	UnitPrice   float64 `json:"unit_price" binding:"required,gt=0"`
}

func (s *POService) Create(ctx context.Context, tenantID, userID string, req *CreatePORequest) (*entity.PurchaseOrder, error) {
	supplier, err := s.supplierRepo.FindByID(ctx, tenantID, req.SupplierID)
	if err != nil {
		return nil, preconditionf("supplier %s could not be resolved", req.SupplierID)
	}
	if supplier.Status != entity.SupplierStatusActive {
		return nil, preconditionf("supplier %s is %s; only active suppliers can receive purchase orders", supplier.Name, supplier.Status)
	}

	code, err := s.repo.GenerateCode(ctx)
	if err != nil {
		return nil, fmt.Errorf("generate po code: %w", err)
	}

	contact := ""
	for _, c := range supplier.Contacts {
		if c.IsPrimary {
			contact = c.Name
			break
		}
	}

	po := &entity.PurchaseOrder{
		ID:                uuid.New().String()[:32],
		Code:              code,
		TenantID:          tenantID,
		SupplierID:        supplier.ID,
		SupplierName:      supplier.Name,
		SupplierTaxID:     supplier.TaxID,
		SupplierContact:   contact,
		Status:            entity.POStatusPendiente,
		ApprovalStatus:    entity.POApprovalPendiente,
		Currency:          req.Currency,
		PaymentTerms:      req.PaymentTerms,
		DeliveryPlace:     req.DeliveryPlace,
		EstimatedDelivery: req.EstimatedDelivery,
		Notes:             req.Notes,
		CreatedBy:         userID,
	}
	if po.Currency == "" {
		po.Currency = "ARS"
	}
	if po.PaymentTerms == "" {
		po.PaymentTerms = supplier.PaymentTerms
	}

	var subtotal float64
	for i, item := range req.Items {
		unit := item.Unit
		if unit == "" {
			unit = "unidad"
		}
		lineTotal := LineTotal(item.Quantity, item.UnitPrice)
		subtotal += lineTotal
		po.Items = append(po.Items, entity.POItem{
			ID:          uuid.New().String()[:32],
			POID:        po.ID,
			Description: item.Description,
			Quantity:    item.Quantity,
			Unit:        unit,
			UnitPrice:   item.UnitPrice,
			TotalAmount: lineTotal,
			SortOrder:   i + 1,
		})
	}
	po.Subtotal = subtotal
	po.TaxAmount, po.Total = s.tax.Apply(subtotal)

	if err := s.repo.Create(ctx, po); err != nil {
		return nil, err
	}
	s.log(ctx, tenantID, "po", po.ID, po.Code, "create", "", po.Status, userID, "")
	return po, nil
}

// Approve settles the PO approval sub-state to aprobada. Receptions cannot
// be recorded until this happens.
func (s *POService) Approve(ctx context.Context, tenantID, id, approverID, comment string) (*entity.PurchaseOrder, error) {
	return s.decide(ctx, tenantID, id, approverID, comment, entity.POApprovalAprobada)
}

// Reject settles the PO approval sub-state to rechazada.
func (s *POService) Reject(ctx context.Context, tenantID, id, approverID, comment string) (*entity.PurchaseOrder, error) {
	if comment == "" {
		return nil, validationf("a rejection reason is required")
	}
	return s.decide(ctx, tenantID, id, approverID, comment, entity.POApprovalRechazada)
}

func (s *POService) decide(ctx context.Context, tenantID, id, approverID, comment, decision string) (*entity.PurchaseOrder, error) {
	po, err := s.repo.FindByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if po.ApprovalStatus != entity.POApprovalPendiente {
		return nil, preconditionf("purchase order %s approval is already settled (%s)", po.Code, po.ApprovalStatus)
	}
	if po.Status == entity.POStatusCancelada {
		return nil, preconditionf("purchase order %s is cancelled", po.Code)
	}

	now := time.Now()
	po.ApprovalStatus = decision
	po.ApprovedBy = &approverID
	po.ApprovedAt = &now
	po.ApprovalComment = comment

	if err := s.repo.Update(ctx, po); err != nil {
		return nil, err
	}
	s.log(ctx, tenantID, "po", po.ID, po.Code, "approval_"+decision, entity.POApprovalPendiente, decision, approverID, comment)
	return po, nil
}

// UpdateStatus moves the delivery status along the forward-only path. The
// reception flow owns parcialmente_recibida and finalizada; this endpoint
// still accepts them for manual corrections but never skips the map, and
// finalizada stays out of reach while any line has quantity pending.
func (s *POService) UpdateStatus(ctx context.Context, tenantID, id, userID, newStatus string) (*entity.PurchaseOrder, error) {
	po, err := s.repo.FindByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if !entity.POCanTransition(po.Status, newStatus) {
		return nil, &TransitionError{Entity: "purchase order", From: po.Status, To: newStatus}
	}
	if newStatus != entity.POStatusCancelada && po.ApprovalStatus != entity.POApprovalAprobada {
		return nil, preconditionf("purchase order %s is not approved; only cancellation is allowed", po.Code)
	}
	if newStatus == entity.POStatusFinalizada {
		for _, item := range po.Items {
			if item.PendingQty() > 0 {
				return nil, preconditionf("purchase order %s still has pending quantities and cannot be closed", po.Code)
			}
		}
	}

	from := po.Status
	po.Status = newStatus
	if err := s.repo.Update(ctx, po); err != nil {
		return nil, err
	}
	s.log(ctx, tenantID, "po", po.ID, po.Code, "status_change", from, newStatus, userID, "")
	return po, nil
}

// Cancel aborts a PO before any goods have been received.
func (s *POService) Cancel(ctx context.Context, tenantID, id, userID, reason string) (*entity.PurchaseOrder, error) {
	po, err := s.repo.FindByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if !entity.POCanTransition(po.Status, entity.POStatusCancelada) {
		return nil, &TransitionError{Entity: "purchase order", From: po.Status, To: entity.POStatusCancelada}
	}
	for _, item := range po.Items {
		if item.ReceivedQty > 0 {
			return nil, preconditionf("purchase order %s already has received goods and cannot be cancelled", po.Code)
		}
	}

	from := po.Status
	po.Status = entity.POStatusCancelada
	if err := s.repo.Update(ctx, po); err != nil {
		return nil, err
	}
	s.log(ctx, tenantID, "po", po.ID, po.Code, "cancel", from, po.Status, userID, reason)
	return po, nil
}

// Export renders the tenant's PO register as an xlsx workbook.
func (s *POService) Export(ctx context.Context, tenantID string) (*bytes.Buffer, error) {
	orders, err := s.repo.FindAllForExport(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	f := excelize.NewFile()
	defer f.Close()

	sheet := "Purchase Orders"
	f.SetSheetName("Sheet1", sheet)

	headers := []string{"Code", "Supplier", "Tax ID", "Status", "Approval", "Subtotal", "Tax", "Total", "Currency", "Created"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheet, cell, h)
	}

	for row, po := range orders {
		values := []interface{}{
			po.Code,
			po.SupplierName,
			po.SupplierTaxID,
			po.Status,
			po.ApprovalStatus,
			po.Subtotal,
			po.TaxAmount,
			po.Total,
			po.Currency,
			po.CreatedAt.Format("2006-01-02"),
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row+2)
			f.SetCellValue(sheet, cell, v)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf, nil
}
