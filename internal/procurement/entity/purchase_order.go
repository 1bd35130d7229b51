package entity

import "time"

// PurchaseOrder is the commitment document issued to a supplier after a
// requisition is approved or an RFQ is awarded. Supplier identity fields are
// snapshotted at creation so later supplier edits do not rewrite history.
type PurchaseOrder struct {
	ID       string `json:"id" gorm:"primaryKey;size:32"`
	Code     string `json:"code" gorm:"size:32;uniqueIndex;not null"`
	TenantID string `json:"tenant_id" gorm:"size:32;not null;index"`

	RequisitionID *string `json:"requisition_id" gorm:"size:32;index"`
	RFQID         *string `json:"rfq_id" gorm:"size:32;index"`

	SupplierID      string `json:"supplier_id" gorm:"size:32;not null;index"`
	SupplierName    string `json:"supplier_name" gorm:"size:200;not null"`
	SupplierTaxID   string `json:"supplier_tax_id" gorm:"size:50"`
	SupplierContact string `json:"supplier_contact" gorm:"size:200"`

	Status         string `json:"status" gorm:"size:30;default:pendiente"`
	ApprovalStatus string `json:"approval_status" gorm:"size:30;default:pendiente_aprobacion"`

	ApprovedBy      *string    `json:"approved_by" gorm:"size:32"`
	ApprovedAt      *time.Time `json:"approved_at"`
	ApprovalComment string     `json:"approval_comment" gorm:"type:text"`

	Subtotal  float64 `json:"subtotal" gorm:"type:decimal(15,2);not null"`
	TaxAmount float64 `json:"tax_amount" gorm:"type:decimal(15,2);not null"`
	Total     float64 `json:"total" gorm:"type:decimal(15,2);not null"`
	Currency  string  `json:"currency" gorm:"size:10;default:ARS"`

	PaymentTerms      string     `json:"payment_terms" gorm:"size:100"`
	DeliveryPlace     string     `json:"delivery_place" gorm:"size:300"`
	EstimatedDelivery *time.Time `json:"estimated_delivery"`
	Notes             string     `json:"notes" gorm:"type:text"`

	CreatedBy string    `json:"created_by" gorm:"size:32"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Items      []POItem    `json:"items,omitempty" gorm:"foreignKey:POID"`
	Receptions []Reception `json:"receptions,omitempty" gorm:"foreignKey:POID"`
	Supplier   *Supplier   `json:"supplier,omitempty" gorm:"foreignKey:SupplierID"`
}

func (PurchaseOrder) TableName() string {
	return "proc_purchase_orders"
}

// PO delivery status. Receptions drive parcialmente_recibida and finalizada;
// the rest advance through UpdateStatus along the forward path only.
const (
	POStatusPendiente       = "pendiente"
	POStatusEnProceso       = "en_proceso"
	POStatusParcialRecibida = "parcialmente_recibida"
	POStatusEntregada       = "entregada"
	POStatusFinalizada      = "finalizada"
	POStatusCancelada       = "cancelada"
)

// PO approval sub-state, independent of the originating requisition's approval.
const (
	POApprovalPendiente = "pendiente_aprobacion"
	POApprovalAprobada  = "aprobada"
	POApprovalRechazada = "rechazada"
)

// ValidPOTransitions is forward-only: a PO never moves back toward pendiente.
var ValidPOTransitions = map[string][]string{
	POStatusPendiente:       {POStatusEnProceso, POStatusCancelada},
	POStatusEnProceso:       {POStatusParcialRecibida, POStatusEntregada, POStatusCancelada},
	POStatusParcialRecibida: {POStatusEntregada, POStatusFinalizada},
	POStatusEntregada:       {POStatusFinalizada},
}

// POCanTransition reports whether from → to is an allowed PO status transition.
func POCanTransition(from, to string) bool {
	return transitionAllowed(ValidPOTransitions, from, to)
}

// POItem is a purchase order line, back-referencing the requisition or
// quotation line it was seeded from.
type POItem struct {
	ID   string `json:"id" gorm:"primaryKey;size:32"`
	POID string `json:"po_id" gorm:"size:32;not null;index"`

	RequisitionItemID *string `json:"requisition_item_id" gorm:"size:32"`
	QuotationItemID   *string `json:"quotation_item_id" gorm:"size:32"`

	Description string  `json:"description" gorm:"size:500;not null"`
	Quantity    float64 `json:"quantity" gorm:"type:decimal(12,2);not null"`
	Unit        string  `json:"unit" gorm:"size:20;default:unidad"`
	UnitPrice   float64 `json:"unit_price" gorm:"type:decimal(12,4)"`
	TotalAmount float64 `json:"total_amount" gorm:"type:decimal(15,2)"`

	// Cumulative quantity received across all receptions for this line.
	ReceivedQty float64 `json:"received_qty" gorm:"type:decimal(12,2);default:0"`

	SortOrder int       `json:"sort_order" gorm:"default:0"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (POItem) TableName() string {
	return "proc_po_items"
}

// PendingQty returns the quantity still to be received for this line.
func (i POItem) PendingQty() float64 {
	return i.Quantity - i.ReceivedQty
}
