package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/axiomacloud/prohub/internal/procurement/entity"
	"github.com/axiomacloud/prohub/internal/procurement/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// RFQService runs the competitive sourcing round: invitation, quotation
// intake, comparison, award and the award-to-PO handoff.
type RFQService struct {
	repo         *repository.RFQRepository
	reqRepo      *repository.RequisitionRepository
	poRepo       *repository.PORepository
	supplierRepo *repository.SupplierRepository
	db           *gorm.DB
	tax          TaxPolicy
	logger       *zap.Logger
	activityLogger
}

func NewRFQService(repos *repository.Repositories, db *gorm.DB, tax TaxPolicy, logger *zap.Logger) *RFQService {
	return &RFQService{
		repo:           repos.RFQ,
		reqRepo:        repos.Requisition,
		poRepo:         repos.PO,
		supplierRepo:   repos.Supplier,
		db:             db,
		tax:            tax,
		logger:         logger,
		activityLogger: activityLogger{repo: repos.ActivityLog, logger: logger},
	}
}

func (s *RFQService) List(ctx context.Context, tenantID string, page, pageSize int, filters map[string]string) ([]entity.RFQ, int64, error) {
	return s.repo.FindAll(ctx, tenantID, page, pageSize, filters)
}

func (s *RFQService) Get(ctx context.Context, tenantID, id string) (*entity.RFQ, error) {
	return s.repo.FindByID(ctx, tenantID, id)
}

// CreateRFQRequest opens a sourcing round. When RequisitionID is set the
// items default to the requisition's lines and extra Items are rejected.
type CreateRFQRequest struct {
	RequisitionID string          `json:"requisition_id"`
	Title         string          `json:"title" binding:"required"`
	Description   string          `json:"description"`
	Deadline      *time.Time      `json:"deadline"`
	SupplierIDs   []string        `json:"supplier_ids" binding:"required,min=1"`
	Items         []CreateRFQItem `json:"items"`
}

type CreateRFQItem struct {
	Description string  `json:"description" binding:"required"`
	Quantity    float64 `json:"quantity" binding:"required,gt=0"`
	Unit        string  `json:"unit"`
}

// Create registers a draft RFQ with at least one invited active supplier.
func (s *RFQService) Create(ctx context.Context, tenantID, userID string, req *CreateRFQRequest) (*entity.RFQ, error) {
	seen := make(map[string]bool, len(req.SupplierIDs))
	suppliers := make([]*entity.Supplier, 0, len(req.SupplierIDs))
	for _, sid := range req.SupplierIDs {
		if seen[sid] {
			return nil, validationf("supplier %s is listed more than once", sid)
		}
		seen[sid] = true
		sup, err := s.supplierRepo.FindByID(ctx, tenantID, sid)
		if err != nil {
			return nil, preconditionf("supplier %s could not be resolved", sid)
		}
		if sup.Status != entity.SupplierStatusActive {
			return nil, preconditionf("supplier %s is %s; only active suppliers can be invited", sup.Name, sup.Status)
		}
		suppliers = append(suppliers, sup)
	}

	code, err := s.repo.GenerateCode(ctx)
	if err != nil {
		return nil, fmt.Errorf("generate rfq code: %w", err)
	}

	rfq := &entity.RFQ{
		ID:          uuid.New().String()[:32],
		Code:        code,
		TenantID:    tenantID,
		Title:       req.Title,
		Description: req.Description,
		Status:      entity.RFQStatusDraft,
		Deadline:    req.Deadline,
		CreatedBy:   userID,
	}

	if req.RequisitionID != "" {
		if len(req.Items) > 0 {
			return nil, validationf("items cannot be supplied when the RFQ sources from a requisition")
		}
		r, err := s.reqRepo.FindByID(ctx, tenantID, req.RequisitionID)
		if err != nil {
			return nil, preconditionf("requisition %s could not be resolved", req.RequisitionID)
		}
		if r.Status != entity.RequisitionStatusApproved {
			return nil, preconditionf("requisition %s is %s; only approved requisitions can be sourced", r.Code, r.Status)
		}
		rfq.RequisitionID = &r.ID
		for i, item := range r.Items {
			itemID := item.ID
			rfq.Items = append(rfq.Items, entity.RFQItem{
				ID:                uuid.New().String()[:32],
				RFQID:             rfq.ID,
				RequisitionItemID: &itemID,
				Description:       item.Description,
				Quantity:          item.Quantity,
				Unit:              item.Unit,
				SortOrder:         i + 1,
			})
		}
	} else {
		if len(req.Items) == 0 {
			return nil, validationf("an RFQ needs at least one item")
		}
		for i, item := range req.Items {
			unit := item.Unit
			if unit == "" {
				unit = "unidad"
			}
			rfq.Items = append(rfq.Items, entity.RFQItem{
				ID:          uuid.New().String()[:32],
				RFQID:       rfq.ID,
				Description: item.Description,
				Quantity:    item.Quantity,
				Unit:        unit,
				SortOrder:   i + 1,
			})
		}
	}

	for _, sup := range suppliers {
		rfq.Suppliers = append(rfq.Suppliers, entity.RFQSupplier{
			ID:         uuid.New().String()[:32],
			RFQID:      rfq.ID,
			SupplierID: sup.ID,
			Status:     entity.RFQSupplierStatusPending,
		})
	}

	if err := s.repo.Create(ctx, rfq); err != nil {
		return nil, err
	}
	s.log(ctx, tenantID, "rfq", rfq.ID, rfq.Code, "create", "", rfq.Status, userID, "")
	return rfq, nil
}

// Publish opens the RFQ to quotations and marks every supplier invited.
func (s *RFQService) Publish(ctx context.Context, tenantID, id, userID string) (*entity.RFQ, error) {
	rfq, err := s.repo.FindByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if !entity.RFQCanTransition(rfq.Status, entity.RFQStatusPublished) {
		return nil, &TransitionError{Entity: "rfq", From: rfq.Status, To: entity.RFQStatusPublished}
	}
	if rfq.Deadline != nil && rfq.Deadline.Before(time.Now()) {
		return nil, preconditionf("rfq %s deadline is already in the past", rfq.Code)
	}

	now := time.Now()
	from := rfq.Status
	rfq.Status = entity.RFQStatusPublished
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i := range rfq.Suppliers {
			rfq.Suppliers[i].Status = entity.RFQSupplierStatusInvited
			rfq.Suppliers[i].InvitedAt = &now
			if err := tx.Save(&rfq.Suppliers[i]).Error; err != nil {
				return err
			}
		}
		return tx.Model(&entity.RFQ{}).Where("id = ?", rfq.ID).Update("status", rfq.Status).Error
	})
	if err != nil {
		return nil, err
	}
	s.log(ctx, tenantID, "rfq", rfq.ID, rfq.Code, "publish", from, rfq.Status, userID, "")
	return rfq, nil
}

// MarkViewed records that an invited supplier opened the RFQ.
func (s *RFQService) MarkViewed(ctx context.Context, tenantID, rfqID, supplierID string) error {
	rfq, err := s.repo.FindByID(ctx, tenantID, rfqID)
	if err != nil {
		return err
	}
	rs, err := s.repo.FindSupplier(ctx, rfq.ID, supplierID)
	if err != nil {
		return err
	}
	if rs.Status != entity.RFQSupplierStatusInvited {
		return nil
	}
	now := time.Now()
	rs.Status = entity.RFQSupplierStatusViewed
	rs.ViewedAt = &now
	return s.repo.UpdateSupplier(ctx, rs)
}

// SubmitQuotationRequest is a supplier's bid. Lines may omit RFQ items the
// supplier cannot serve.
type SubmitQuotationRequest struct {
	SupplierID string                `json:"supplier_id" binding:"required"`
	Currency   string                `json:"currency"`
	ValidUntil *time.Time            `json:"valid_until"`
	Notes      string                `json:"notes"`
	Items      []SubmitQuotationItem `json:"items" binding:"required,min=1,dive"`
}

type SubmitQuotationItem struct {
	RFQItemID    string  `json:"rfq_item_id" binding:"required"`
	UnitPrice    float64 `json:"unit_price" binding:"required,gt=0"`
	LeadTimeDays *int    `json:"lead_time_days"`
}

// SubmitQuotation records a bid from an invited supplier while the round is
// open. Resubmission replaces nothing: one quotation per supplier per round.
func (s *RFQService) SubmitQuotation(ctx context.Context, tenantID, rfqID string, req *SubmitQuotationRequest) (*entity.Quotation, error) {
	rfq, err := s.repo.FindByID(ctx, tenantID, rfqID)
	if err != nil {
		return nil, err
	}
	switch rfq.Status {
	case entity.RFQStatusPublished, entity.RFQStatusInQuotation:
	default:
		return nil, preconditionf("rfq %s is %s; quotations are not being accepted", rfq.Code, rfq.Status)
	}
	if rfq.Deadline != nil && time.Now().After(*rfq.Deadline) {
		return nil, preconditionf("rfq %s quotation deadline has passed", rfq.Code)
	}

	rs, err := s.repo.FindSupplier(ctx, rfq.ID, req.SupplierID)
	if err != nil {
		return nil, preconditionf("supplier %s was not invited to rfq %s", req.SupplierID, rfq.Code)
	}
	if rs.Status == entity.RFQSupplierStatusQuoted {
		return nil, preconditionf("supplier already submitted a quotation for rfq %s", rfq.Code)
	}

	itemsByID := make(map[string]*entity.RFQItem, len(rfq.Items))
	for i := range rfq.Items {
		itemsByID[rfq.Items[i].ID] = &rfq.Items[i]
	}

	now := time.Now()
	q := &entity.Quotation{
		ID:          uuid.New().String()[:32],
		RFQID:       rfq.ID,
		SupplierID:  req.SupplierID,
		Status:      entity.QuotationStatusSubmitted,
		Currency:    req.Currency,
		ValidUntil:  req.ValidUntil,
		SubmittedAt: &now,
		Notes:       req.Notes,
	}
	if q.Currency == "" {
		q.Currency = "ARS"
	}

	seen := make(map[string]bool, len(req.Items))
	var total float64
	for _, line := range req.Items {
		item, ok := itemsByID[line.RFQItemID]
		if !ok {
			return nil, validationf("line %s does not belong to rfq %s", line.RFQItemID, rfq.Code)
		}
		if seen[line.RFQItemID] {
			return nil, validationf("line %s is quoted more than once", line.RFQItemID)
		}
		seen[line.RFQItemID] = true

		lineTotal := LineTotal(item.Quantity, line.UnitPrice)
		total += lineTotal
		q.Items = append(q.Items, entity.QuotationItem{
			ID:           uuid.New().String()[:32],
			QuotationID:  q.ID,
			RFQItemID:    item.ID,
			Quantity:     item.Quantity,
			UnitPrice:    line.UnitPrice,
			TotalAmount:  lineTotal,
			LeadTimeDays: line.LeadTimeDays,
		})
	}
	q.TotalAmount = total

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(q).Error; err != nil {
			return err
		}
		rs.Status = entity.RFQSupplierStatusQuoted
		if err := tx.Save(rs).Error; err != nil {
			return err
		}
		if rfq.Status == entity.RFQStatusPublished {
			return tx.Model(&entity.RFQ{}).Where("id = ?", rfq.ID).
				Update("status", entity.RFQStatusInQuotation).Error
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log(ctx, tenantID, "rfq", rfq.ID, rfq.Code, "quotation_submitted", "", "", req.SupplierID,
		fmt.Sprintf("total %.2f %s", q.TotalAmount, q.Currency))
	return q, nil
}

// Decline records that an invited supplier is not bidding.
func (s *RFQService) Decline(ctx context.Context, tenantID, rfqID, supplierID string) error {
	rfq, err := s.repo.FindByID(ctx, tenantID, rfqID)
	if err != nil {
		return err
	}
	rs, err := s.repo.FindSupplier(ctx, rfq.ID, supplierID)
	if err != nil {
		return err
	}
	if rs.Status == entity.RFQSupplierStatusQuoted {
		return preconditionf("supplier already quoted rfq %s and cannot decline", rfq.Code)
	}
	rs.Status = entity.RFQSupplierStatusDeclined
	return s.repo.UpdateSupplier(ctx, rs)
}

// Close ends the quotation intake and moves the RFQ to evaluation.
func (s *RFQService) Close(ctx context.Context, tenantID, id, userID string) (*entity.RFQ, error) {
	rfq, err := s.repo.FindByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if !entity.RFQCanTransition(rfq.Status, entity.RFQStatusEvaluation) {
		return nil, &TransitionError{Entity: "rfq", From: rfq.Status, To: entity.RFQStatusEvaluation}
	}

	from := rfq.Status
	rfq.Status = entity.RFQStatusEvaluation
	if err := s.repo.Update(ctx, rfq); err != nil {
		return nil, err
	}
	s.log(ctx, tenantID, "rfq", rfq.ID, rfq.Code, "close", from, rfq.Status, userID, "")
	return rfq, nil
}

// ComparisonRow is one supplier's submitted bid, ready for side-by-side review.
type ComparisonRow struct {
	QuotationID  string           `json:"quotation_id"`
	SupplierID   string           `json:"supplier_id"`
	SupplierName string           `json:"supplier_name"`
	TotalAmount  float64          `json:"total_amount"`
	Currency     string           `json:"currency"`
	Complete     bool             `json:"complete"`
	Lines        []ComparisonLine `json:"lines"`
}

type ComparisonLine struct {
	RFQItemID    string  `json:"rfq_item_id"`
	Description  string  `json:"description"`
	Quantity     float64 `json:"quantity"`
	UnitPrice    float64 `json:"unit_price"`
	TotalAmount  float64 `json:"total_amount"`
	LeadTimeDays *int    `json:"lead_time_days"`
	BestPrice    bool    `json:"best_price"`
}

// Comparison builds the quotation comparison grid: rows sorted by total
// ascending, each line flagged when it carries the lowest unit price quoted
// for that item, and the lowest complete total marked as the suggestion.
type Comparison struct {
	RFQID              string          `json:"rfq_id"`
	Rows               []ComparisonRow `json:"rows"`
	BestTotalQuotation string          `json:"best_total_quotation,omitempty"`
}

// Compare returns the side-by-side comparison of all submitted quotations.
func (s *RFQService) Compare(ctx context.Context, tenantID, id string) (*Comparison, error) {
	rfq, err := s.repo.FindByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}

	itemsByID := make(map[string]*entity.RFQItem, len(rfq.Items))
	for i := range rfq.Items {
		itemsByID[rfq.Items[i].ID] = &rfq.Items[i]
	}

	supplierNames := make(map[string]string, len(rfq.Suppliers))
	for _, rs := range rfq.Suppliers {
		if rs.Supplier != nil {
			supplierNames[rs.SupplierID] = rs.Supplier.Name
		}
	}
	for _, q := range rfq.Quotations {
		if _, ok := supplierNames[q.SupplierID]; !ok {
			if sup, err := s.supplierRepo.FindByID(ctx, tenantID, q.SupplierID); err == nil {
				supplierNames[q.SupplierID] = sup.Name
			}
		}
	}

	// Lowest unit price per RFQ item across submitted quotations.
	bestPrice := make(map[string]float64, len(rfq.Items))
	for _, q := range rfq.Quotations {
		if q.Status == entity.QuotationStatusDraft || q.Status == entity.QuotationStatusRejected {
			continue
		}
		for _, line := range q.Items {
			if p, ok := bestPrice[line.RFQItemID]; !ok || line.UnitPrice < p {
				bestPrice[line.RFQItemID] = line.UnitPrice
			}
		}
	}

	cmp := &Comparison{RFQID: rfq.ID}
	for _, q := range rfq.Quotations {
		if q.Status == entity.QuotationStatusDraft || q.Status == entity.QuotationStatusRejected {
			continue
		}
		row := ComparisonRow{
			QuotationID:  q.ID,
			SupplierID:   q.SupplierID,
			SupplierName: supplierNames[q.SupplierID],
			TotalAmount:  q.TotalAmount,
			Currency:     q.Currency,
			Complete:     len(q.Items) == len(rfq.Items),
		}
		for _, line := range q.Items {
			item := itemsByID[line.RFQItemID]
			cl := ComparisonLine{
				RFQItemID:    line.RFQItemID,
				Quantity:     line.Quantity,
				UnitPrice:    line.UnitPrice,
				TotalAmount:  line.TotalAmount,
				LeadTimeDays: line.LeadTimeDays,
				BestPrice:    line.UnitPrice == bestPrice[line.RFQItemID],
			}
			if item != nil {
				cl.Description = item.Description
			}
			row.Lines = append(row.Lines, cl)
		}
		cmp.Rows = append(cmp.Rows, row)
	}

	sort.Slice(cmp.Rows, func(i, j int) bool {
		return cmp.Rows[i].TotalAmount < cmp.Rows[j].TotalAmount
	})

	for _, row := range cmp.Rows {
		if row.Complete {
			cmp.BestTotalQuotation = row.QuotationID
			break
		}
	}
	return cmp, nil
}

// Award selects the winning quotation. Awarding the already-awarded
// quotation again is a no-op; awarding a different one is rejected.
func (s *RFQService) Award(ctx context.Context, tenantID, rfqID, quotationID, userID string) (*entity.RFQ, error) {
	rfq, err := s.repo.FindByID(ctx, tenantID, rfqID)
	if err != nil {
		return nil, err
	}

	if rfq.Status == entity.RFQStatusAwarded {
		if rfq.AwardedQuotationID != nil && *rfq.AwardedQuotationID == quotationID {
			return rfq, nil
		}
		return nil, preconditionf("rfq %s is already awarded to a different quotation", rfq.Code)
	}
	if !entity.RFQCanTransition(rfq.Status, entity.RFQStatusAwarded) {
		return nil, &TransitionError{Entity: "rfq", From: rfq.Status, To: entity.RFQStatusAwarded}
	}

	q, err := s.repo.FindQuotation(ctx, rfq.ID, quotationID)
	if err != nil {
		return nil, err
	}
	switch q.Status {
	case entity.QuotationStatusSubmitted, entity.QuotationStatusUnderReview, entity.QuotationStatusAccepted:
	default:
		return nil, preconditionf("quotation is %s and cannot be awarded", q.Status)
	}

	now := time.Now()
	from := rfq.Status
	rfq.Status = entity.RFQStatusAwarded
	rfq.AwardedQuotationID = &q.ID
	rfq.AwardedSupplierID = &q.SupplierID
	rfq.AwardedBy = &userID
	rfq.AwardedAt = &now

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&entity.Quotation{}).Where("id = ?", q.ID).
			Update("status", entity.QuotationStatusAwarded).Error; err != nil {
			return err
		}
		if err := tx.Model(&entity.Quotation{}).
			Where("rfq_id = ? AND id <> ? AND status IN ?", rfq.ID, q.ID,
				[]string{entity.QuotationStatusSubmitted, entity.QuotationStatusUnderReview, entity.QuotationStatusAccepted}).
			Update("status", entity.QuotationStatusRejected).Error; err != nil {
			return err
		}
		// every sibling invitation is settled, quoted or not
		for i := range rfq.Suppliers {
			rs := &rfq.Suppliers[i]
			if rs.SupplierID == q.SupplierID {
				rs.Status = entity.RFQSupplierStatusAwarded
			} else {
				rs.Status = entity.RFQSupplierStatusNotAwarded
			}
			if err := tx.Save(rs).Error; err != nil {
				return err
			}
		}
		return tx.Model(&entity.RFQ{}).Where("id = ?", rfq.ID).Updates(map[string]interface{}{
			"status":               rfq.Status,
			"awarded_quotation_id": q.ID,
			"awarded_supplier_id":  q.SupplierID,
			"awarded_by":           userID,
			"awarded_at":           now,
		}).Error
	})
	if err != nil {
		return nil, err
	}
	s.log(ctx, tenantID, "rfq", rfq.ID, rfq.Code, "award", from, rfq.Status, userID, "quotation "+q.ID)
	return rfq, nil
}

// GeneratePO turns the awarded quotation into a purchase order. Idempotent:
// once a PO exists for the RFQ, the same PO is returned.
func (s *RFQService) GeneratePO(ctx context.Context, tenantID, rfqID, userID string) (*entity.PurchaseOrder, error) {
	rfq, err := s.repo.FindByID(ctx, tenantID, rfqID)
	if err != nil {
		return nil, err
	}
	if rfq.POID != nil {
		return s.poRepo.FindByID(ctx, tenantID, *rfq.POID)
	}
	if rfq.Status != entity.RFQStatusAwarded {
		return nil, preconditionf("rfq %s is %s; only awarded RFQs generate purchase orders", rfq.Code, rfq.Status)
	}
	if rfq.AwardedQuotationID == nil {
		return nil, preconditionf("rfq %s has no awarded quotation on record", rfq.Code)
	}

	q, err := s.repo.FindQuotation(ctx, rfq.ID, *rfq.AwardedQuotationID)
	if err != nil {
		return nil, err
	}
	supplier, err := s.supplierRepo.FindByID(ctx, tenantID, q.SupplierID)
	if err != nil {
		return nil, preconditionf("awarded supplier could not be resolved")
	}

	code, err := s.poRepo.GenerateCode(ctx)
	if err != nil {
		return nil, fmt.Errorf("generate po code: %w", err)
	}

	itemsByID := make(map[string]*entity.RFQItem, len(rfq.Items))
	for i := range rfq.Items {
		itemsByID[rfq.Items[i].ID] = &rfq.Items[i]
	}

	contact := ""
	for _, c := range supplier.Contacts {
		if c.IsPrimary {
			contact = c.Name
			break
		}
	}

	taxAmount, total := s.tax.Apply(q.TotalAmount)
	po := &entity.PurchaseOrder{
		ID:              uuid.New().String()[:32],
		Code:            code,
		TenantID:        tenantID,
		RequisitionID:   rfq.RequisitionID,
		RFQID:           &rfq.ID,
		SupplierID:      supplier.ID,
		SupplierName:    supplier.Name,
		SupplierTaxID:   supplier.TaxID,
		SupplierContact: contact,
		Status:          entity.POStatusPendiente,
		ApprovalStatus:  entity.POApprovalPendiente,
		Subtotal:        q.TotalAmount,
		TaxAmount:       taxAmount,
		Total:           total,
		Currency:        q.Currency,
		PaymentTerms:    supplier.PaymentTerms,
		CreatedBy:       userID,
	}

	for i, line := range q.Items {
		qItemID := line.ID
		item := entity.POItem{
			ID:              uuid.New().String()[:32],
			POID:            po.ID,
			QuotationItemID: &qItemID,
			Quantity:        line.Quantity,
			UnitPrice:       line.UnitPrice,
			TotalAmount:     line.TotalAmount,
			SortOrder:       i + 1,
		}
		if src := itemsByID[line.RFQItemID]; src != nil {
			item.Description = src.Description
			item.Unit = src.Unit
			item.RequisitionItemID = src.RequisitionItemID
		}
		po.Items = append(po.Items, item)
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(po).Error; err != nil {
			return err
		}
		if err := tx.Model(&entity.RFQ{}).Where("id = ?", rfq.ID).
			Update("po_id", po.ID).Error; err != nil {
			return err
		}
		if rfq.RequisitionID != nil {
			r, err := s.reqRepo.FindByID(ctx, tenantID, *rfq.RequisitionID)
			if err == nil && entity.RequisitionCanTransition(r.Status, entity.RequisitionStatusPOGenerated) {
				if err := tx.Model(&entity.Requisition{}).Where("id = ?", r.ID).Updates(map[string]interface{}{
					"status": entity.RequisitionStatusPOGenerated,
					"po_id":  po.ID,
				}).Error; err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.log(ctx, tenantID, "po", po.ID, po.Code, "create", "", po.Status, userID, "generated from "+rfq.Code)
	return po, nil
}

// Cancel aborts an RFQ that has not been awarded.
func (s *RFQService) Cancel(ctx context.Context, tenantID, id, userID, reason string) (*entity.RFQ, error) {
	rfq, err := s.repo.FindByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if !entity.RFQCanTransition(rfq.Status, entity.RFQStatusCancelled) {
		return nil, &TransitionError{Entity: "rfq", From: rfq.Status, To: entity.RFQStatusCancelled}
	}

	from := rfq.Status
	rfq.Status = entity.RFQStatusCancelled
	if err := s.repo.Update(ctx, rfq); err != nil {
		return nil, err
	}
	s.log(ctx, tenantID, "rfq", rfq.ID, rfq.Code, "cancel", from, rfq.Status, userID, reason)
	return rfq, nil
}

// ExpireOverdue sweeps RFQs whose quotation deadline has passed while still
// open and marks them expired. Returns the number of RFQs swept.
func (s *RFQService) ExpireOverdue(ctx context.Context, tenantID string) (int, error) {
	overdue, err := s.repo.FindOverdue(ctx, tenantID, time.Now())
	if err != nil {
		return 0, err
	}
	var n int
	for i := range overdue {
		rfq := &overdue[i]
		from := rfq.Status
		rfq.Status = entity.RFQStatusExpired
		if err := s.repo.Update(ctx, rfq); err != nil {
			s.logger.Warn("rfq expiry sweep failed", zap.String("rfq", rfq.Code), zap.Error(err))
			continue
		}
		s.log(ctx, tenantID, "rfq", rfq.ID, rfq.Code, "expire", from, rfq.Status, "system", "quotation deadline passed")
		n++
	}
	return n, nil
}
