package service

import (
	"context"
	"time"

	"github.com/axiomacloud/prohub/internal/procurement/entity"
	"github.com/axiomacloud/prohub/internal/procurement/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// activityLogger writes one audit row per lifecycle transition. Failures are
// logged and swallowed: the audit trail never vetoes a committed transition.
type activityLogger struct {
	repo   *repository.ActivityLogRepository
	logger *zap.Logger
}

func (a *activityLogger) log(ctx context.Context, tenantID, entityType, entityID, entityCode, action, fromStatus, toStatus, operatorID, comment string) {
	if a.repo == nil {
		return
	}
	err := a.repo.Create(ctx, &entity.ActivityLog{
		ID:         uuid.New().String()[:32],
		TenantID:   tenantID,
		EntityType: entityType,
		EntityID:   entityID,
		EntityCode: entityCode,
		Action:     action,
		FromStatus: fromStatus,
		ToStatus:   toStatus,
		Comment:    comment,
		OperatorID: operatorID,
		CreatedAt:  time.Now(),
	})
	if err != nil && a.logger != nil {
		a.logger.Warn("activity log write failed",
			zap.String("entity_type", entityType),
			zap.String("entity_id", entityID),
			zap.String("action", action),
			zap.Error(err),
		)
	}
}
