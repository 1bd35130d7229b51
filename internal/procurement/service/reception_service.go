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

// ReceptionService records deliveries against approved purchase orders and
// cascades the resulting status changes back to the PO and its requisition.
type ReceptionService struct {
	repo    *repository.ReceptionRepository
	poRepo  *repository.PORepository
	reqRepo *repository.RequisitionRepository
	db      *gorm.DB
	logger  *zap.Logger
	activityLogger
}

func NewReceptionService(repos *repository.Repositories, db *gorm.DB, logger *zap.Logger) *ReceptionService {
	return &ReceptionService{
		repo:           repos.Reception,
		poRepo:         repos.PO,
		reqRepo:        repos.Requisition,
		db:             db,
		logger:         logger,
		activityLogger: activityLogger{repo: repos.ActivityLog, logger: logger},
	}
}

func (s *ReceptionService) List(ctx context.Context, tenantID string, page, pageSize int, filters map[string]string) ([]entity.Reception, int64, error) {
	return s.repo.FindAll(ctx, tenantID, page, pageSize, filters)
}

func (s *ReceptionService) Get(ctx context.Context, tenantID, id string) (*entity.Reception, error) {
	return s.repo.FindByID(ctx, tenantID, id)
}

// ListByPO returns the reception history of one purchase order.
func (s *ReceptionService) ListByPO(ctx context.Context, tenantID, poID string) ([]entity.Reception, error) {
	if _, err := s.poRepo.FindByID(ctx, tenantID, poID); err != nil {
		return nil, err
	}
	return s.repo.FindByPOID(ctx, tenantID, poID)
}

// RecordReceptionRequest registers one delivery. Lines not present in Items
// received nothing in this delivery.
type RecordReceptionRequest struct {
	ReceptionDate *time.Time            `json:"reception_date"`
	Observations  string                `json:"observations"`
	Items         []RecordReceptionItem `json:"items" binding:"required,min=1,dive"`
}

type RecordReceptionItem struct {
	POItemID    string  `json:"po_item_id" binding:"required"`
	ReceivedQty float64 `json:"received_qty" binding:"required,gt=0"`
}

// Record validates a delivery line by line against the pending quantity of
// each PO item, persists it, and moves the PO to parcialmente_recibida or
// finalizada depending on whether anything remains pending. Closing the last
// pending quantity also closes the originating requisition.
func (s *ReceptionService) Record(ctx context.Context, tenantID, poID, userID string, req *RecordReceptionRequest) (*entity.Reception, error) {
	po, err := s.poRepo.FindByID(ctx, tenantID, poID)
	if err != nil {
		return nil, err
	}
	if po.ApprovalStatus != entity.POApprovalAprobada {
		return nil, preconditionf("purchase order %s is not approved; receptions cannot be recorded", po.Code)
	}
	switch po.Status {
	case entity.POStatusCancelada:
		return nil, preconditionf("purchase order %s is cancelled", po.Code)
	case entity.POStatusFinalizada:
		return nil, preconditionf("purchase order %s is already closed", po.Code)
	}

	itemsByID := make(map[string]*entity.POItem, len(po.Items))
	for i := range po.Items {
		itemsByID[po.Items[i].ID] = &po.Items[i]
	}

	seen := make(map[string]bool, len(req.Items))
	for _, line := range req.Items {
		item, ok := itemsByID[line.POItemID]
		if !ok {
			return nil, validationf("line %s does not belong to purchase order %s", line.POItemID, po.Code)
		}
		if seen[line.POItemID] {
			return nil, validationf("line %s appears more than once", line.POItemID)
		}
		seen[line.POItemID] = true

		if pending := item.PendingQty(); line.ReceivedQty > pending {
			return nil, preconditionf(
				"line %q: received %.2f exceeds pending %.2f",
				item.Description, line.ReceivedQty, pending,
			)
		}
	}

	code, err := s.repo.GenerateCode(ctx)
	if err != nil {
		return nil, fmt.Errorf("generate reception code: %w", err)
	}

	when := time.Now()
	if req.ReceptionDate != nil {
		when = *req.ReceptionDate
	}

	rec := &entity.Reception{
		ID:            uuid.New().String()[:32],
		Code:          code,
		TenantID:      tenantID,
		POID:          po.ID,
		ReceivedBy:    userID,
		ReceptionDate: when,
		Observations:  req.Observations,
	}

	for _, line := range req.Items {
		item := itemsByID[line.POItemID]
		expected := item.PendingQty()
		item.ReceivedQty += line.ReceivedQty
		rec.Items = append(rec.Items, entity.ReceptionItem{
			ID:          uuid.New().String()[:32],
			ReceptionID: rec.ID,
			POItemID:    item.ID,
			ExpectedQty: expected,
			ReceivedQty: line.ReceivedQty,
			PendingQty:  item.PendingQty(),
		})
	}

	complete := true
	for i := range po.Items {
		if po.Items[i].PendingQty() > 0 {
			complete = false
			break
		}
	}

	fromPO := po.Status
	if complete {
		rec.Tipo = entity.ReceptionTipoTotal
		po.Status = entity.POStatusFinalizada
	} else {
		rec.Tipo = entity.ReceptionTipoParcial
		po.Status = entity.POStatusParcialRecibida
	}

	var closedReq *entity.Requisition
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(rec).Error; err != nil {
			return err
		}
		for i := range po.Items {
			if err := tx.Save(&po.Items[i]).Error; err != nil {
				return err
			}
		}
		if err := tx.Model(&entity.PurchaseOrder{}).
			Where("id = ?", po.ID).
			Update("status", po.Status).Error; err != nil {
			return err
		}

		if complete && po.RequisitionID != nil {
			r, err := s.reqRepo.FindByID(ctx, tenantID, *po.RequisitionID)
			if err == nil && entity.RequisitionCanTransition(r.Status, entity.RequisitionStatusReceived) {
				if err := tx.Model(&entity.Requisition{}).
					Where("id = ?", r.ID).
					Update("status", entity.RequisitionStatusReceived).Error; err != nil {
					return err
				}
				closedReq = r
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log(ctx, tenantID, "reception", rec.ID, rec.Code, "record", "", rec.Tipo, userID, req.Observations)
	s.log(ctx, tenantID, "po", po.ID, po.Code, "status_change", fromPO, po.Status, userID, "reception "+rec.Code)
	if closedReq != nil {
		s.log(ctx, tenantID, "requisition", closedReq.ID, closedReq.Code, "status_change",
			entity.RequisitionStatusPOGenerated, entity.RequisitionStatusReceived, userID, "po "+po.Code+" fully received")
	}

	s.logger.Info("reception recorded",
		zap.String("po", po.Code),
		zap.String("reception", rec.Code),
		zap.String("tipo", rec.Tipo),
	)
	return rec, nil
}
