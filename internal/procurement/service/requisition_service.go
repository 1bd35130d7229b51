package service

import (
	"context"
	"fmt"
	"time"

	"github.com/axiomacloud/prohub/internal/procurement/entity"
	"github.com/axiomacloud/prohub/internal/procurement/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// RequisitionService owns the requisition lifecycle: draft, submission, the
// attachment-gated approval, rejection, cancellation and the synthesis of a
// purchase order on direct approval.
type RequisitionService struct {
	repo         *repository.RequisitionRepository
	poRepo       *repository.PORepository
	supplierRepo *repository.SupplierRepository
	db           *gorm.DB
	tax          TaxPolicy
	logger       *zap.Logger
	activityLogger
}

func NewRequisitionService(repos *repository.Repositories, db *gorm.DB, tax TaxPolicy, logger *zap.Logger) *RequisitionService {
	return &RequisitionService{
		repo:           repos.Requisition,
		poRepo:         repos.PO,
		supplierRepo:   repos.Supplier,
		db:             db,
		tax:            tax,
		logger:         logger,
		activityLogger: activityLogger{repo: repos.ActivityLog, logger: logger},
	}
}

// List returns a tenant's requisitions.
func (s *RequisitionService) List(ctx context.Context, tenantID string, page, pageSize int, filters map[string]string) ([]entity.Requisition, int64, error) {
	return s.repo.FindAll(ctx, tenantID, page, pageSize, filters)
}

// Get returns one requisition with lines and attachments.
func (s *RequisitionService) Get(ctx context.Context, tenantID, id string) (*entity.Requisition, error) {
	return s.repo.FindByID(ctx, tenantID, id)
}

// CreateRequisitionRequest is the create payload.
type CreateRequisitionRequest struct {
	Title           string     `json:"title" binding:"required"`
	Description     string     `json:"description"`
	Justification   string     `json:"justification"`
	Department      string     `json:"department"`
	CostCenter      string     `json:"cost_center"`
	EstimatedAmount float64    `json:"estimated_amount" binding:"required"`
	Currency        string     `json:"currency"`
	Priority        string     `json:"priority"`
	NeededBy        *time.Time `json:"needed_by"`
	// When true the requisition is created directly in pending_approval.
	Submit bool                     `json:"submit"`
	Items  []CreateRequisitionItem  `json:"items" binding:"required,min=1,dive"`
}

type CreateRequisitionItem struct {
	Description string  `json:"description" binding:"required"`
	Quantity    float64 `json:"quantity" binding:"required,gt=0"`
	Unit        string  `json:"unit"`
	UnitPrice   float64 `json:"unit_price"`
}

// Create registers a new requisition owned by the requester.
func (s *RequisitionService) Create(ctx context.Context, tenantID, userID string, req *CreateRequisitionRequest) (*entity.Requisition, error) {
	code, err := s.repo.GenerateCode(ctx)
	if err != nil {
		return nil, fmt.Errorf("generate requisition code: %w", err)
	}

	status := entity.RequisitionStatusDraft
	if req.Submit {
		status = entity.RequisitionStatusPendingApproval
	}

	r := &entity.Requisition{
		ID:              uuid.New().String()[:32],
		Code:            code,
		TenantID:        tenantID,
		Title:           req.Title,
		Description:     req.Description,
		Justification:   req.Justification,
		Department:      req.Department,
		CostCenter:      req.CostCenter,
		EstimatedAmount: req.EstimatedAmount,
		Currency:        req.Currency,
		Priority:        req.Priority,
		NeededBy:        req.NeededBy,
		Status:          status,
		RequesterID:     userID,
	}
	if r.Currency == "" {
		r.Currency = "ARS"
	}
	if r.Priority == "" {
		r.Priority = "normal"
	}

	for i, item := range req.Items {
		unit := item.Unit
		if unit == "" {
			unit = "unidad"
		}
		r.Items = append(r.Items, entity.RequisitionItem{
			ID:            uuid.New().String()[:32],
			RequisitionID: r.ID,
			Description:   item.Description,
			Quantity:      item.Quantity,
			Unit:          unit,
			UnitPrice:     item.UnitPrice,
			TotalAmount:   LineTotal(item.Quantity, item.UnitPrice),
			SortOrder:     i + 1,
		})
	}

	if err := s.repo.Create(ctx, r); err != nil {
		return nil, err
	}
	s.log(ctx, tenantID, "requisition", r.ID, r.Code, "create", "", r.Status, userID, "")
	return r, nil
}

// UpdateRequisitionRequest is the partial-update payload, accepted in draft only.
type UpdateRequisitionRequest struct {
	Title           *string    `json:"title"`
	Description     *string    `json:"description"`
	Justification   *string    `json:"justification"`
	Department      *string    `json:"department"`
	CostCenter      *string    `json:"cost_center"`
	EstimatedAmount *float64   `json:"estimated_amount"`
	Priority        *string    `json:"priority"`
	NeededBy        *time.Time `json:"needed_by"`
}

// Update mutates a draft requisition.
func (s *RequisitionService) Update(ctx context.Context, tenantID, id string, req *UpdateRequisitionRequest) (*entity.Requisition, error) {
	r, err := s.repo.FindByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if r.Status != entity.RequisitionStatusDraft {
		return nil, preconditionf("requisition %s is %s; only drafts can be edited", r.Code, r.Status)
	}

	if req.Title != nil {
		r.Title = *req.Title
	}
	if req.Description != nil {
		r.Description = *req.Description
	}
	if req.Justification != nil {
		r.Justification = *req.Justification
	}
	if req.Department != nil {
		r.Department = *req.Department
	}
	if req.CostCenter != nil {
		r.CostCenter = *req.CostCenter
	}
	if req.EstimatedAmount != nil {
		r.EstimatedAmount = *req.EstimatedAmount
	}
	if req.Priority != nil {
		r.Priority = *req.Priority
	}
	if req.NeededBy != nil {
		r.NeededBy = req.NeededBy
	}

	if err := s.repo.Update(ctx, r); err != nil {
		return nil, err
	}
	return r, nil
}

// Submit moves a draft into the approval queue.
func (s *RequisitionService) Submit(ctx context.Context, tenantID, id, userID string) (*entity.Requisition, error) {
	r, err := s.repo.FindByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if !entity.RequisitionCanTransition(r.Status, entity.RequisitionStatusPendingApproval) {
		return nil, &TransitionError{Entity: "requisition", From: r.Status, To: entity.RequisitionStatusPendingApproval}
	}

	from := r.Status
	r.Status = entity.RequisitionStatusPendingApproval
	if err := s.repo.Update(ctx, r); err != nil {
		return nil, err
	}
	s.log(ctx, tenantID, "requisition", r.ID, r.Code, "submit", from, r.Status, userID, "")
	return r, nil
}

// ApproveRequisitionRequest is the approval payload. SupplierID is required
// when a PO is generated directly; with GeneratePO=false the requisition
// stays approved and is expected to be sourced through an RFQ.
type ApproveRequisitionRequest struct {
	Comment    string `json:"comment"`
	GeneratePO *bool  `json:"generate_po"`
	SupplierID string `json:"supplier_id"`
}

// ApproveResult carries the updated requisition, the synthesized PO when the
// direct flow ran, and a warning listing rejected attachments that were
// waved through.
type ApproveResult struct {
	Requisition   *entity.Requisition   `json:"requisition"`
	PurchaseOrder *entity.PurchaseOrder `json:"purchase_order,omitempty"`
	Warning       string                `json:"warning,omitempty"`
}

// Approve applies the attachment gate and approves the requisition. No
// attachment may still be pending; rejected attachments do not block but are
// reported back so the approver acknowledges them. In the direct flow a PO
// is synthesized 1:1 from the requisition lines, with tax applied on the
// estimated amount, inside the same transaction as the state change.
func (s *RequisitionService) Approve(ctx context.Context, tenantID, id, approverID string, req *ApproveRequisitionRequest) (*ApproveResult, error) {
	r, err := s.repo.FindByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if !entity.RequisitionCanTransition(r.Status, entity.RequisitionStatusApproved) {
		return nil, &TransitionError{Entity: "requisition", From: r.Status, To: entity.RequisitionStatusApproved}
	}

	var pending, rejected int
	for _, att := range r.Attachments {
		switch att.Status {
		case entity.AttachmentStatusPending:
			pending++
		case entity.AttachmentStatusRejected:
			rejected++
		}
	}
	if pending > 0 {
		return nil, preconditionf("requisition %s has %d attachment(s) awaiting review; resolve them before approving", r.Code, pending)
	}

	generatePO := true
	if req.GeneratePO != nil {
		generatePO = *req.GeneratePO
	}

	var supplier *entity.Supplier
	if generatePO {
		if req.SupplierID == "" {
			return nil, validationf("supplier_id is required to generate a purchase order on approval")
		}
		supplier, err = s.supplierRepo.FindByID(ctx, tenantID, req.SupplierID)
		if err != nil {
			return nil, preconditionf("supplier %s could not be resolved", req.SupplierID)
		}
		if supplier.Status != entity.SupplierStatusActive {
			return nil, preconditionf("supplier %s is %s; only active suppliers can receive purchase orders", supplier.Name, supplier.Status)
		}
	}

	now := time.Now()
	from := r.Status
	r.Status = entity.RequisitionStatusApproved
	r.ApproverID = &approverID
	r.DecidedAt = &now
	r.DecisionComment = req.Comment

	var po *entity.PurchaseOrder
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if generatePO {
			po, err = s.synthesizePO(ctx, tx, r, supplier, approverID)
			if err != nil {
				return err
			}
			r.Status = entity.RequisitionStatusPOGenerated
			r.POID = &po.ID
		}
		return tx.Save(r).Error
	})
	if err != nil {
		return nil, err
	}

	s.log(ctx, tenantID, "requisition", r.ID, r.Code, "approve", from, r.Status, approverID, req.Comment)
	if po != nil {
		s.log(ctx, tenantID, "po", po.ID, po.Code, "create", "", po.Status, approverID, "generated from "+r.Code)
		s.logger.Info("purchase order synthesized on approval",
			zap.String("requisition", r.Code),
			zap.String("po", po.Code),
			zap.Float64("total", po.Total),
		)
	}

	result := &ApproveResult{Requisition: r, PurchaseOrder: po}
	if rejected > 0 {
		result.Warning = fmt.Sprintf("%d rejected attachment(s) were not blocking; verify they are no longer needed", rejected)
	}
	return result, nil
}

// synthesizePO builds the direct-approval PO: one line per requisition line
// at identical quantity and price, tax on the estimated amount.
func (s *RequisitionService) synthesizePO(ctx context.Context, tx *gorm.DB, r *entity.Requisition, supplier *entity.Supplier, userID string) (*entity.PurchaseOrder, error) {
	code, err := s.poRepo.GenerateCode(ctx)
	if err != nil {
		return nil, fmt.Errorf("generate po code: %w", err)
	}

	subtotal := r.EstimatedAmount
	taxAmount, total := s.tax.Apply(subtotal)

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
		TenantID:          r.TenantID,
		RequisitionID:     &r.ID,
		SupplierID:        supplier.ID,
		SupplierName:      supplier.Name,
		SupplierTaxID:     supplier.TaxID,
		SupplierContact:   contact,
		Status:            entity.POStatusPendiente,
		ApprovalStatus:    entity.POApprovalPendiente,
		Subtotal:          subtotal,
		TaxAmount:         taxAmount,
		Total:             total,
		Currency:          r.Currency,
		PaymentTerms:      supplier.PaymentTerms,
		EstimatedDelivery: r.NeededBy,
		CreatedBy:         userID,
	}

	for i, item := range r.Items {
		itemID := item.ID
		po.Items = append(po.Items, entity.POItem{
			ID:                uuid.New().String()[:32],
			POID:              po.ID,
			RequisitionItemID: &itemID,
			Description:       item.Description,
			Quantity:          item.Quantity,
			Unit:              item.Unit,
			UnitPrice:         item.UnitPrice,
			TotalAmount:       LineTotal(item.Quantity, item.UnitPrice),
			SortOrder:         i + 1,
		})
	}

	if err := tx.Create(po).Error; err != nil {
		return nil, fmt.Errorf("create purchase order: %w", err)
	}
	return po, nil
}

// Reject is terminal; the reason is mandatory.
func (s *RequisitionService) Reject(ctx context.Context, tenantID, id, approverID, reason string) (*entity.Requisition, error) {
	if reason == "" {
		return nil, validationf("a rejection reason is required")
	}
	r, err := s.repo.FindByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if !entity.RequisitionCanTransition(r.Status, entity.RequisitionStatusRejected) {
		return nil, &TransitionError{Entity: "requisition", From: r.Status, To: entity.RequisitionStatusRejected}
	}

	now := time.Now()
	from := r.Status
	r.Status = entity.RequisitionStatusRejected
	r.ApproverID = &approverID
	r.DecidedAt = &now
	r.DecisionComment = reason

	if err := s.repo.Update(ctx, r); err != nil {
		return nil, err
	}
	s.log(ctx, tenantID, "requisition", r.ID, r.Code, "reject", from, r.Status, approverID, reason)
	return r, nil
}

// Cancel withdraws a requisition from any non-terminal state. Approved
// requisitions are never hard-deleted, only cancelled.
func (s *RequisitionService) Cancel(ctx context.Context, tenantID, id, userID, reason string) (*entity.Requisition, error) {
	r, err := s.repo.FindByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if !entity.RequisitionCanTransition(r.Status, entity.RequisitionStatusCancelled) {
		return nil, &TransitionError{Entity: "requisition", From: r.Status, To: entity.RequisitionStatusCancelled}
	}

	from := r.Status
	r.Status = entity.RequisitionStatusCancelled
	if err := s.repo.Update(ctx, r); err != nil {
		return nil, err
	}
	s.log(ctx, tenantID, "requisition", r.ID, r.Code, "cancel", from, r.Status, userID, reason)
	return r, nil
}

// AddAttachment registers an uploaded file against a requisition, pending review.
func (s *RequisitionService) AddAttachment(ctx context.Context, tenantID, id string, fileName, mimeType, objectKey string, sizeBytes int64) (*entity.Attachment, error) {
	r, err := s.repo.FindByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	switch r.Status {
	case entity.RequisitionStatusDraft, entity.RequisitionStatusPendingApproval:
	default:
		return nil, preconditionf("requisition %s is %s; attachments can no longer be added", r.Code, r.Status)
	}

	att := &entity.Attachment{
		ID:            uuid.New().String()[:32],
		RequisitionID: r.ID,
		FileName:      fileName,
		MimeType:      mimeType,
		SizeBytes:     sizeBytes,
		ObjectKey:     objectKey,
		Status:        entity.AttachmentStatusPending,
	}
	if err := s.repo.CreateAttachment(ctx, att); err != nil {
		return nil, err
	}
	return att, nil
}

// DecideAttachmentRequest approves or rejects a single attachment.
type DecideAttachmentRequest struct {
	Approved *bool  `json:"approved" binding:"required"`
	Comment  string `json:"comment"`
}

// DecideAttachment stamps the reviewer's decision on one attachment. A new
// decision simply overwrites the previous one; the requisition-level gate
// re-reads attachment states at approval time.
func (s *RequisitionService) DecideAttachment(ctx context.Context, tenantID, requisitionID, attachmentID, approverID string, req *DecideAttachmentRequest) (*entity.Attachment, error) {
	r, err := s.repo.FindByID(ctx, tenantID, requisitionID)
	if err != nil {
		return nil, err
	}

	att, err := s.repo.FindAttachment(ctx, r.ID, attachmentID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	from := att.Status
	if *req.Approved {
		att.Status = entity.AttachmentStatusApproved
	} else {
		att.Status = entity.AttachmentStatusRejected
	}
	att.DecidedBy = &approverID
	att.DecidedAt = &now
	att.Comment = req.Comment

	if err := s.repo.UpdateAttachment(ctx, att); err != nil {
		return nil, err
	}
	s.log(ctx, tenantID, "attachment", att.ID, att.FileName, "decide", from, att.Status, approverID, req.Comment)
	return att, nil
}
