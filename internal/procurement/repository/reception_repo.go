package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/axiomacloud/prohub/internal/procurement/entity"
	"gorm.io/gorm"
)

// ReceptionRepository persists receptions and their per-line records.
type ReceptionRepository struct {
	db *gorm.DB
}

func NewReceptionRepository(db *gorm.DB) *ReceptionRepository {
	return &ReceptionRepository{db: db}
}

// FindAll lists a tenant's receptions, optionally restricted to one PO.
func (r *ReceptionRepository) FindAll(ctx context.Context, tenantID string, page, pageSize int, filters map[string]string) ([]entity.Reception, int64, error) {
	var items []entity.Reception
	var total int64

	query := r.db.WithContext(ctx).Model(&entity.Reception{}).Where("tenant_id = ?", tenantID)

	if poID := filters["po_id"]; poID != "" {
		query = query.Where("po_id = ?", poID)
	}
	if tipo := filters["tipo"]; tipo != "" {
		query = query.Where("tipo = ?", tipo)
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

// FindByID loads one reception with its lines.
func (r *ReceptionRepository) FindByID(ctx context.Context, tenantID, id string) (*entity.Reception, error) {
	var rec entity.Reception
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("tenant_id = ? AND id = ?", tenantID, id).
		First(&rec).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &rec, nil
}

// FindByPOID returns every reception recorded against a PO, oldest first.
func (r *ReceptionRepository) FindByPOID(ctx context.Context, tenantID, poID string) ([]entity.Reception, error) {
	var items []entity.Reception
	err := r.db.WithContext(ctx).
		Preload("Items").
		Where("tenant_id = ? AND po_id = ?", tenantID, poID).
		Order("created_at ASC").
		Find(&items).Error
	return items, err
}

// GenerateCode produces the next sequential code REC-{year}-{seq}.
func (r *ReceptionRepository) GenerateCode(ctx context.Context) (string, error) {
	year := time.Now().Format("2006")
	prefix := fmt.Sprintf("REC-%s-", year)

	var maxCode string
	err := r.db.WithContext(ctx).
		Model(&entity.Reception{}).
		Select("COALESCE(MAX(code), '')").
		Where("code LIKE ?", prefix+"%").
		Scan(&maxCode).Error
	if err != nil {
		return "", err
	}

	var seq int
	if maxCode != "" {
		fmt.Sscanf(maxCode, "REC-"+year+"-%04d", &seq)
	}
	seq++
	return fmt.Sprintf("REC-%s-%04d", year, seq), nil
}
