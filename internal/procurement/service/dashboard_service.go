package service

import (
	"context"

	"github.com/axiomacloud/prohub/internal/procurement/entity"
	"gorm.io/gorm"
)

// DashboardService aggregates per-tenant status counts for the overview page.
type DashboardService struct {
	db *gorm.DB
}

func NewDashboardService(db *gorm.DB) *DashboardService {
	return &DashboardService{db: db}
}

// Dashboard is the overview payload: document counts by status plus the
// open purchase amounts still in flight.
type Dashboard struct {
	Requisitions map[string]int64 `json:"requisitions"`
	POs          map[string]int64 `json:"purchase_orders"`
	RFQs         map[string]int64 `json:"rfqs"`
	Suppliers    map[string]int64 `json:"suppliers"`

	OpenPOAmount     float64 `json:"open_po_amount"`
	PendingApprovals int64   `json:"pending_approvals"`
}

type statusCount struct {
	Status string
	Count  int64
}

func (s *DashboardService) Overview(ctx context.Context, tenantID string) (*Dashboard, error) {
	d := &Dashboard{
		Requisitions: map[string]int64{},
		POs:          map[string]int64{},
		RFQs:         map[string]int64{},
		Suppliers:    map[string]int64{},
	}

	tables := []struct {
		model  interface{}
		target map[string]int64
	}{
		{&entity.Requisition{}, d.Requisitions},
		{&entity.PurchaseOrder{}, d.POs},
		{&entity.RFQ{}, d.RFQs},
		{&entity.Supplier{}, d.Suppliers},
	}
	for _, t := range tables {
		var rows []statusCount
		err := s.db.WithContext(ctx).
			Model(t.model).
			Select("status, COUNT(*) AS count").
			Where("tenant_id = ?", tenantID).
			Group("status").
			Scan(&rows).Error
		if err != nil {
			return nil, err
		}
		for _, row := range rows {
			t.target[row.Status] = row.Count
		}
	}

	err := s.db.WithContext(ctx).
		Model(&entity.PurchaseOrder{}).
		Select("COALESCE(SUM(total), 0)").
		Where("tenant_id = ? AND status NOT IN ?", tenantID,
			[]string{entity.POStatusFinalizada, entity.POStatusCancelada}).
		Scan(&d.OpenPOAmount).Error
	if err != nil {
		return nil, err
	}

	d.PendingApprovals = d.Requisitions[entity.RequisitionStatusPendingApproval] +
		d.Suppliers[entity.SupplierStatusPendingApproval]

	var pendingPOs int64
	err = s.db.WithContext(ctx).
		Model(&entity.PurchaseOrder{}).
		Where("tenant_id = ? AND approval_status = ? AND status <> ?",
			tenantID, entity.POApprovalPendiente, entity.POStatusCancelada).
		Count(&pendingPOs).Error
	if err != nil {
		return nil, err
	}
	d.PendingApprovals += pendingPOs

	return d, nil
}
