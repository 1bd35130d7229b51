package repository

import (
	"context"

	"github.com/axiomacloud/prohub/internal/procurement/entity"
	"gorm.io/gorm"
)

// ActivityLogRepository persists the per-entity audit trail.
type ActivityLogRepository struct {
	db *gorm.DB
}

func NewActivityLogRepository(db *gorm.DB) *ActivityLogRepository {
	return &ActivityLogRepository{db: db}
}

func (r *ActivityLogRepository) Create(ctx context.Context, log *entity.ActivityLog) error {
	return r.db.WithContext(ctx).Create(log).Error
}

// FindByEntity lists the audit trail of one entity, newest first.
func (r *ActivityLogRepository) FindByEntity(ctx context.Context, tenantID, entityType, entityID string, limit int) ([]entity.ActivityLog, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	var logs []entity.ActivityLog
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND entity_type = ? AND entity_id = ?", tenantID, entityType, entityID).
		Order("created_at DESC").
		Limit(limit).
		Find(&logs).Error
	return logs, err
}
