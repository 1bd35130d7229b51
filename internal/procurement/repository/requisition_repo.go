package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/axiomacloud/prohub/internal/procurement/entity"
	"gorm.io/gorm"
)

// RequisitionRepository persists requisitions, their lines and attachments.
type RequisitionRepository struct {
	db *gorm.DB
}

func NewRequisitionRepository(db *gorm.DB) *RequisitionRepository {
	return &RequisitionRepository{db: db}
}

// FindAll lists a tenant's requisitions with optional filters.
func (r *RequisitionRepository) FindAll(ctx context.Context, tenantID string, page, pageSize int, filters map[string]string) ([]entity.Requisition, int64, error) {
	var items []entity.Requisition
	var total int64

	query := r.db.WithContext(ctx).Model(&entity.Requisition{}).Where("tenant_id = ?", tenantID)

	if status := filters["status"]; status != "" {
		query = query.Where("status = ?", status)
	}
	if department := filters["department"]; department != "" {
		query = query.Where("department = ?", department)
	}
	if requester := filters["requester_id"]; requester != "" {
		query = query.Where("requester_id = ?", requester)
	}
	if search := filters["search"]; search != "" {
		query = query.Where("title ILIKE ? OR code ILIKE ?", "%"+search+"%", "%"+search+"%")
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * pageSize
	err := query.
		Preload("Items").
		Order("created_at DESC").
		Offset(offset).
		Limit(pageSize).
		Find(&items).Error

	return items, total, err
}

// FindByID loads one requisition with lines and attachments.
func (r *RequisitionRepository) FindByID(ctx context.Context, tenantID, id string) (*entity.Requisition, error) {
	var req entity.Requisition
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("sort_order ASC")
		}).
		Preload("Attachments").
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&req).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &req, nil
}

// FindByPOID resolves a requisition from its generated purchase order.
func (r *RequisitionRepository) FindByPOID(ctx context.Context, tenantID, poID string) (*entity.Requisition, error) {
	var req entity.Requisition
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("tenant_id = ? AND po_id = ?", tenantID, poID).
		First(&req).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &req, nil
}

func (r *RequisitionRepository) Create(ctx context.Context, req *entity.Requisition) error {
	return r.db.WithContext(ctx).Create(req).Error
}

func (r *RequisitionRepository) Update(ctx context.Context, req *entity.Requisition) error {
	return r.db.WithContext(ctx).Save(req).Error
}

// FindAttachment loads one attachment of a given requisition.
func (r *RequisitionRepository) FindAttachment(ctx context.Context, requisitionID, attachmentID string) (*entity.Attachment, error) {
	var att entity.Attachment
	err := r.db.WithContext(ctx).
		Where("id = ? AND requisition_id = ?", attachmentID, requisitionID).
		First(&att).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &att, nil
}

func (r *RequisitionRepository) CreateAttachment(ctx context.Context, att *entity.Attachment) error {
	return r.db.WithContext(ctx).Create(att).Error
}

func (r *RequisitionRepository) UpdateAttachment(ctx context.Context, att *entity.Attachment) error {
	return r.db.WithContext(ctx).Save(att).Error
}

// GenerateCode produces the next sequential code REQ-{year}-{seq}.
func (r *RequisitionRepository) GenerateCode(ctx context.Context) (string, error) {
	year := time.Now().Format("2006")
	prefix := fmt.Sprintf("REQ-%s-", year)

	var maxCode string
	err := r.db.WithContext(ctx).
		Model(&entity.Requisition{}).
		Select("COALESCE(MAX(code), '')").
		Where("code LIKE ?", prefix+"%").
		Scan(&maxCode).Error
	if err != nil {
		return "", err
	}

	var seq int
	if maxCode != "" {
		fmt.Sscanf(maxCode, "REQ-"+year+"-%04d", &seq)
	}
	seq++
	return fmt.Sprintf("REQ-%s-%04d", year, seq), nil
}
