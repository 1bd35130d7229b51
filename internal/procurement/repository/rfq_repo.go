package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/axiomacloud/prohub/internal/procurement/entity"
	"gorm.io/gorm"
)

// RFQRepository persists RFQs with their items, invited suppliers and quotations.
type RFQRepository struct {
	db *gorm.DB
}

func NewRFQRepository(db *gorm.DB) *RFQRepository {
	return &RFQRepository{db: db}
}

// FindAll lists a tenant's RFQs with optional filters.
func (r *RFQRepository) FindAll(ctx context.Context, tenantID string, page, pageSize int, filters map[string]string) ([]entity.RFQ, int64, error) {
	var items []entity.RFQ
	var total int64

	query := r.db.WithContext(ctx).Model(&entity.RFQ{}).Where("tenant_id = ?", tenantID)

	if status := filters["status"]; status != "" {
		query = query.Where("status = ?", status)
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
		Preload("Suppliers").
		Order("created_at DESC").
		Offset(offset).
		Limit(pageSize).
		Find(&items).Error

	return items, total, err
}

// FindByID loads one RFQ with items, invited suppliers and quotations.
func (r *RFQRepository) FindByID(ctx context.Context, tenantID, id string) (*entity.RFQ, error) {
	var rfq entity.RFQ
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("sort_order ASC")
		}).
		Preload("Suppliers").
		Preload("Quotations").
		Preload("Quotations.Items").
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&rfq).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &rfq, nil
}

// FindOverdue returns RFQs still open past their quotation deadline.
func (r *RFQRepository) FindOverdue(ctx context.Context, tenantID string, now time.Time) ([]entity.RFQ, error) {
	var items []entity.RFQ
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND status IN ? AND deadline IS NOT NULL AND deadline < ?",
			tenantID, []string{entity.RFQStatusPublished, entity.RFQStatusInQuotation}, now).
		Find(&items).Error
	return items, err
}

func (r *RFQRepository) Create(ctx context.Context, rfq *entity.RFQ) error {
	return r.db.WithContext(ctx).Create(rfq).Error
}

func (r *RFQRepository) Update(ctx context.Context, rfq *entity.RFQ) error {
	return r.db.WithContext(ctx).Save(rfq).Error
}

// FindSupplier loads one invited-supplier record of a given RFQ.
func (r *RFQRepository) FindSupplier(ctx context.Context, rfqID, supplierID string) (*entity.RFQSupplier, error) {
	var rs entity.RFQSupplier
	err := r.db.WithContext(ctx).
		Where("rfq_id = ? AND supplier_id = ?", rfqID, supplierID).
		First(&rs).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &rs, nil
}

func (r *RFQRepository) UpdateSupplier(ctx context.Context, rs *entity.RFQSupplier) error {
	return r.db.WithContext(ctx).Save(rs).Error
}

// FindQuotation loads one quotation of a given RFQ with its lines.
func (r *RFQRepository) FindQuotation(ctx context.Context, rfqID, quotationID string) (*entity.Quotation, error) {
	var q entity.Quotation
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("id = ? AND rfq_id = ?", quotationID, rfqID).
		First(&q).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &q, nil
}

func (r *RFQRepository) CreateQuotation(ctx context.Context, q *entity.Quotation) error {
	return r.db.WithContext(ctx).Create(q).Error
}

func (r *RFQRepository) UpdateQuotation(ctx context.Context, q *entity.Quotation) error {
	return r.db.WithContext(ctx).Save(q).Error
}

// GenerateCode produces the next sequential code RFQ-{year}-{seq}.
func (r *RFQRepository) GenerateCode(ctx context.Context) (string, error) {
	year := time.Now().Format("2006")
	prefix := fmt.Sprintf("RFQ-%s-", year)

	var maxCode string
	err := r.db.WithContext(ctx).
		Model(&entity.RFQ{}).
		Select("COALESCE(MAX(code), '')").
		Where("code LIKE ?", prefix+"%").
		Scan(&maxCode).Error
	if err != nil {
		return "", err
	}

	var seq int
	if maxCode != "" {
		fmt.Sscanf(maxCode, "RFQ-"+year+"-%04d", &seq)
	}
	seq++
	return fmt.Sprintf("RFQ-%s-%04d", year, seq), nil
}
