package entity

import "time"

// Requisition is the originating purchase demand document.
type Requisition struct {
	ID       string `json:"id" gorm:"primaryKey;size:32"`
	Code     string `json:"code" gorm:"size:32;uniqueIndex;not null"`
	TenantID string `json:"tenant_id" gorm:"size:32;not null;index"`

	Title           string     `json:"title" gorm:"size:200;not null"`
	Description     string     `json:"description" gorm:"type:text"`
	Justification   string     `json:"justification" gorm:"type:text"`
	Department      string     `json:"department" gorm:"size:100"`
	CostCenter      string     `json:"cost_center" gorm:"size:50"`
	EstimatedAmount float64    `json:"estimated_amount" gorm:"type:decimal(15,2)"`
	Currency        string     `json:"currency" gorm:"size:10;default:ARS"`
	Priority        string     `json:"priority" gorm:"size:20;default:normal"` // urgent/high/normal/low
	NeededBy        *time.Time `json:"needed_by"`

	Status string `json:"status" gorm:"size:30;default:draft"`

	RequesterID     string     `json:"requester_id" gorm:"size:32;not null"`
	ApproverID      *string    `json:"approver_id" gorm:"size:32"`
	DecidedAt       *time.Time `json:"decided_at"`
	DecisionComment string     `json:"decision_comment" gorm:"type:text"`

	// Set when a PO is synthesized from this requisition (direct approval or RFQ award).
	POID *string `json:"po_id" gorm:"size:32;index"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Items       []RequisitionItem `json:"items,omitempty" gorm:"foreignKey:RequisitionID"`
	Attachments []Attachment      `json:"attachments,omitempty" gorm:"foreignKey:RequisitionID"`
}

func (Requisition) TableName() string {
	return "proc_requisitions"
}

const (
	RequisitionStatusDraft           = "draft"
	RequisitionStatusPendingApproval = "pending_approval"
	RequisitionStatusApproved        = "approved"
	RequisitionStatusRejected        = "rejected"
	RequisitionStatusPOGenerated     = "po_generated"
	RequisitionStatusReceived        = "received"
	RequisitionStatusCancelled       = "cancelled"
)

// ValidRequisitionTransitions is the closed transition map for requisitions.
// rejected, received and cancelled are terminal.
var ValidRequisitionTransitions = map[string][]string{
	RequisitionStatusDraft:           {RequisitionStatusPendingApproval, RequisitionStatusCancelled},
	RequisitionStatusPendingApproval: {RequisitionStatusApproved, RequisitionStatusRejected, RequisitionStatusCancelled},
	RequisitionStatusApproved:        {RequisitionStatusPOGenerated, RequisitionStatusCancelled},
	RequisitionStatusPOGenerated:     {RequisitionStatusReceived, RequisitionStatusCancelled},
}

// RequisitionCanTransition reports whether from → to is an allowed requisition transition.
func RequisitionCanTransition(from, to string) bool {
	return transitionAllowed(ValidRequisitionTransitions, from, to)
}

// RequisitionItem is a requisition line.
type RequisitionItem struct {
	ID            string `json:"id" gorm:"primaryKey;size:32"`
	RequisitionID string `json:"requisition_id" gorm:"size:32;not null;index"`

	Description string  `json:"description" gorm:"size:500;not null"`
	Quantity    float64 `json:"quantity" gorm:"type:decimal(12,2);not null"`
	Unit        string  `json:"unit" gorm:"size:20;default:unidad"`
	UnitPrice   float64 `json:"unit_price" gorm:"type:decimal(12,4)"`
	TotalAmount float64 `json:"total_amount" gorm:"type:decimal(15,2)"`

	SortOrder int       `json:"sort_order" gorm:"default:0"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (RequisitionItem) TableName() string {
	return "proc_requisition_items"
}

// Attachment is a file attached to a requisition. Each attachment passes
// through its own approve/reject gate before the requisition itself can be
// approved.
type Attachment struct {
	ID            string `json:"id" gorm:"primaryKey;size:32"`
	RequisitionID string `json:"requisition_id" gorm:"size:32;not null;index"`

	FileName  string `json:"file_name" gorm:"size:255;not null"`
	MimeType  string `json:"mime_type" gorm:"size:100"`
	SizeBytes int64  `json:"size_bytes"`
	ObjectKey string `json:"object_key" gorm:"size:500"`

	Status    string     `json:"status" gorm:"size:20;default:pending"`
	DecidedBy *string    `json:"decided_by" gorm:"size:32"`
	DecidedAt *time.Time `json:"decided_at"`
	Comment   string     `json:"comment" gorm:"type:text"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (Attachment) TableName() string {
	return "proc_attachments"
}

const (
	AttachmentStatusPending  = "pending"
	AttachmentStatusApproved = "approved"
	AttachmentStatusRejected = "rejected"
)
