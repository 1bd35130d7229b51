package entity

import "time"

// RFQ is a competitive sourcing round: suppliers are invited to quote the
// listed items, quotations are compared and exactly one is awarded, which in
// turn seeds a purchase order.
type RFQ struct {
	ID       string `json:"id" gorm:"primaryKey;size:32"`
	Code     string `json:"code" gorm:"size:32;uniqueIndex;not null"`
	TenantID string `json:"tenant_id" gorm:"size:32;not null;index"`

	RequisitionID *string `json:"requisition_id" gorm:"size:32;index"`

	Title       string     `json:"title" gorm:"size:200;not null"`
	Description string     `json:"description" gorm:"type:text"`
	Status      string     `json:"status" gorm:"size:20;default:draft"`
	Deadline    *time.Time `json:"deadline"`

	AwardedQuotationID *string    `json:"awarded_quotation_id" gorm:"size:32"`
	AwardedSupplierID  *string    `json:"awarded_supplier_id" gorm:"size:32"`
	AwardedBy          *string    `json:"awarded_by" gorm:"size:32"`
	AwardedAt          *time.Time `json:"awarded_at"`

	// Set once generate-po has run; makes PO generation idempotent.
	POID *string `json:"po_id" gorm:"size:32"`

	CreatedBy string    `json:"created_by" gorm:"size:32"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Items      []RFQItem     `json:"items,omitempty" gorm:"foreignKey:RFQID"`
	Suppliers  []RFQSupplier `json:"suppliers,omitempty" gorm:"foreignKey:RFQID"`
	Quotations []Quotation   `json:"quotations,omitempty" gorm:"foreignKey:RFQID"`
}

func (RFQ) TableName() string {
	return "proc_rfqs"
}

const (
	RFQStatusDraft       = "draft"
	RFQStatusPublished   = "published"
	RFQStatusInQuotation = "in_quotation"
	RFQStatusEvaluation  = "evaluation"
	RFQStatusAwarded     = "awarded"
	RFQStatusCancelled   = "cancelled"
	RFQStatusClosed      = "closed"
	RFQStatusExpired     = "expired"
)

var ValidRFQTransitions = map[string][]string{
	RFQStatusDraft:       {RFQStatusPublished, RFQStatusCancelled},
	RFQStatusPublished:   {RFQStatusInQuotation, RFQStatusEvaluation, RFQStatusExpired, RFQStatusCancelled},
	RFQStatusInQuotation: {RFQStatusEvaluation, RFQStatusExpired, RFQStatusCancelled},
	RFQStatusEvaluation:  {RFQStatusAwarded, RFQStatusClosed, RFQStatusCancelled},
}

// RFQCanTransition reports whether from → to is an allowed RFQ transition.
func RFQCanTransition(from, to string) bool {
	return transitionAllowed(ValidRFQTransitions, from, to)
}

// RFQItem is one line suppliers are asked to quote.
type RFQItem struct {
	ID    string `json:"id" gorm:"primaryKey;size:32"`
	RFQID string `json:"rfq_id" gorm:"size:32;not null;index"`

	RequisitionItemID *string `json:"requisition_item_id" gorm:"size:32"`

	Description string  `json:"description" gorm:"size:500;not null"`
	Quantity    float64 `json:"quantity" gorm:"type:decimal(12,2);not null"`
	Unit        string  `json:"unit" gorm:"size:20;default:unidad"`

	SortOrder int       `json:"sort_order" gorm:"default:0"`
	CreatedAt time.Time `json:"created_at"`
}

func (RFQItem) TableName() string {
	return "proc_rfq_items"
}

// RFQSupplier tracks one invited supplier's participation.
type RFQSupplier struct {
	ID         string `json:"id" gorm:"primaryKey;size:32"`
	RFQID      string `json:"rfq_id" gorm:"size:32;not null;index"`
	SupplierID string `json:"supplier_id" gorm:"size:32;not null;index"`

	Status    string     `json:"status" gorm:"size:20;default:pending"`
	InvitedAt *time.Time `json:"invited_at"`
	ViewedAt  *time.Time `json:"viewed_at"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Supplier *Supplier `json:"supplier,omitempty" gorm:"foreignKey:SupplierID"`
}

func (RFQSupplier) TableName() string {
	return "proc_rfq_suppliers"
}

const (
	RFQSupplierStatusPending    = "pending"
	RFQSupplierStatusInvited    = "invited"
	RFQSupplierStatusViewed     = "viewed"
	RFQSupplierStatusQuoted     = "quoted"
	RFQSupplierStatusDeclined   = "declined"
	RFQSupplierStatusAwarded    = "awarded"
	RFQSupplierStatusNotAwarded = "not_awarded"
)

// Quotation is a supplier's bid on an RFQ.
type Quotation struct {
	ID         string `json:"id" gorm:"primaryKey;size:32"`
	RFQID      string `json:"rfq_id" gorm:"size:32;not null;index"`
	SupplierID string `json:"supplier_id" gorm:"size:32;not null;index"`

	Status      string     `json:"status" gorm:"size:20;default:draft"`
	Currency    string     `json:"currency" gorm:"size:10;default:ARS"`
	TotalAmount float64    `json:"total_amount" gorm:"type:decimal(15,2)"`
	ValidUntil  *time.Time `json:"valid_until"`
	SubmittedAt *time.Time `json:"submitted_at"`
	Notes       string     `json:"notes" gorm:"type:text"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Items    []QuotationItem `json:"items,omitempty" gorm:"foreignKey:QuotationID"`
	Supplier *Supplier       `json:"supplier,omitempty" gorm:"foreignKey:SupplierID"`
}

func (Quotation) TableName() string {
	return "proc_quotations"
}

const (
	QuotationStatusDraft       = "draft"
	QuotationStatusSubmitted   = "submitted"
	QuotationStatusUnderReview = "under_review"
	QuotationStatusAccepted    = "accepted"
	QuotationStatusRejected    = "rejected"
	QuotationStatusAwarded     = "awarded"
)

// QuotationItem is a supplier's price for one RFQ line. A quotation may omit
// lines the supplier cannot serve.
type QuotationItem struct {
	ID          string `json:"id" gorm:"primaryKey;size:32"`
	QuotationID string `json:"quotation_id" gorm:"size:32;not null;index"`
	RFQItemID   string `json:"rfq_item_id" gorm:"size:32;not null;index"`

	Quantity     float64 `json:"quantity" gorm:"type:decimal(12,2);not null"`
	UnitPrice    float64 `json:"unit_price" gorm:"type:decimal(12,4);not null"`
	TotalAmount  float64 `json:"total_amount" gorm:"type:decimal(15,2)"`
	LeadTimeDays *int    `json:"lead_time_days"`

	CreatedAt time.Time `json:"created_at"`
}

func (QuotationItem) TableName() string {
	return "proc_quotation_items"
}
