package repository

import (
	"errors"

	"gorm.io/gorm"
)

var (
	ErrNotFound = errors.New("record not found")
)

// Repositories bundles the procurement data access layer.
type Repositories struct {
	Requisition *RequisitionRepository
	PO          *PORepository
	Reception   *ReceptionRepository
	RFQ         *RFQRepository
	Supplier    *SupplierRepository
	ActivityLog *ActivityLogRepository
}

// NewRepositories wires every repository onto the shared gorm handle.
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		Requisition: NewRequisitionRepository(db),
		PO:          NewPORepository(db),
		Reception:   NewReceptionRepository(db),
		RFQ:         NewRFQRepository(db),
		Supplier:    NewSupplierRepository(db),
		ActivityLog: NewActivityLogRepository(db),
	}
}
