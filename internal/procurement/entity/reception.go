package entity

import "time"

// Reception records goods/services actually delivered against a PO. A PO may
// accumulate several partial receptions before closing out.
type Reception struct {
	ID       string `json:"id" gorm:"primaryKey;size:32"`
	Code     string `json:"code" gorm:"size:32;uniqueIndex;not null"`
	TenantID string `json:"tenant_id" gorm:"size:32;not null;index"`

	POID string `json:"po_id" gorm:"size:32;not null;index"`

	ReceivedBy    string    `json:"received_by" gorm:"size:32;not null"`
	ReceptionDate time.Time `json:"reception_date"`
	// total when every PO line ends with zero pending quantity, parcial
	// otherwise. Computed server-side, never trusted from the caller.
	Tipo         string `json:"tipo" gorm:"size:20;not null"`
	Observations string `json:"observations" gorm:"type:text"`

	CreatedAt time.Time `json:"created_at"`

	Items []ReceptionItem `json:"items,omitempty" gorm:"foreignKey:ReceptionID"`
}

func (Reception) TableName() string {
	return "proc_receptions"
}

const (
	ReceptionTipoTotal   = "total"
	ReceptionTipoParcial = "parcial"
)

// ReceptionItem is the per-line record of one reception: what was expected,
// what arrived, and what remained pending afterwards.
type ReceptionItem struct {
	ID          string `json:"id" gorm:"primaryKey;size:32"`
	ReceptionID string `json:"reception_id" gorm:"size:32;not null;index"`
	POItemID    string `json:"po_item_id" gorm:"size:32;not null;index"`

	ExpectedQty float64 `json:"expected_qty" gorm:"type:decimal(12,2)"`
	ReceivedQty float64 `json:"received_qty" gorm:"type:decimal(12,2);not null"`
	PendingQty  float64 `json:"pending_qty" gorm:"type:decimal(12,2)"`

	CreatedAt time.Time `json:"created_at"`
}

func (ReceptionItem) TableName() string {
	return "proc_reception_items"
}
