package entity

import "time"

// Supplier goes through an onboarding machine before it can be referenced by
// purchase orders: invited → pending_completion → pending_approval → active.
type Supplier struct {
	ID       string `json:"id" gorm:"primaryKey;size:32"`
	Code     string `json:"code" gorm:"size:32;uniqueIndex;not null"`
	TenantID string `json:"tenant_id" gorm:"size:32;not null;index"`

	Name    string `json:"name" gorm:"size:200;not null"`
	TaxID   string `json:"tax_id" gorm:"size:50"`
	Email   string `json:"email" gorm:"size:200"`
	Phone   string `json:"phone" gorm:"size:50"`
	Address string `json:"address" gorm:"size:500"`
	City    string `json:"city" gorm:"size:100"`
	Country string `json:"country" gorm:"size:50"`

	Category string `json:"category" gorm:"size:50"` // goods/services/works/other
	Status   string `json:"status" gorm:"size:30;default:invited"`

	BankName     string `json:"bank_name" gorm:"size:200"`
	BankAccount  string `json:"bank_account" gorm:"size:50"`
	PaymentTerms string `json:"payment_terms" gorm:"size:100"`

	// True once company and bank data are filled in; a precondition for
	// submitting the supplier for approval.
	ProfileComplete bool `json:"profile_complete" gorm:"default:false"`

	InvitedBy       string     `json:"invited_by" gorm:"size:32"`
	ApprovedBy      *string    `json:"approved_by" gorm:"size:32"`
	ApprovedAt      *time.Time `json:"approved_at"`
	SuspendedReason string     `json:"suspended_reason" gorm:"type:text"`
	Notes           string     `json:"notes" gorm:"type:text"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`

	Contacts []SupplierContact `json:"contacts,omitempty" gorm:"foreignKey:SupplierID"`
}

func (Supplier) TableName() string {
	return "proc_suppliers"
}

const (
	SupplierStatusInvited           = "invited"
	SupplierStatusPendingCompletion = "pending_completion"
	SupplierStatusPendingApproval   = "pending_approval"
	SupplierStatusActive            = "active"
	SupplierStatusRejected          = "rejected"
	SupplierStatusSuspended         = "suspended"
)

var ValidSupplierTransitions = map[string][]string{
	SupplierStatusInvited:           {SupplierStatusPendingCompletion},
	SupplierStatusPendingCompletion: {SupplierStatusPendingApproval},
	SupplierStatusPendingApproval:   {SupplierStatusActive, SupplierStatusRejected},
	SupplierStatusActive:            {SupplierStatusSuspended},
	SupplierStatusSuspended:         {SupplierStatusActive},
}

// SupplierCanTransition reports whether from → to is an allowed onboarding transition.
func SupplierCanTransition(from, to string) bool {
	return transitionAllowed(ValidSupplierTransitions, from, to)
}

// SupplierContact is a person at the supplier side.
type SupplierContact struct {
	ID         string `json:"id" gorm:"primaryKey;size:32"`
	SupplierID string `json:"supplier_id" gorm:"size:32;not null;index"`

	Name      string `json:"name" gorm:"size:100;not null"`
	Title     string `json:"title" gorm:"size:100"`
	Phone     string `json:"phone" gorm:"size:50"`
	Email     string `json:"email" gorm:"size:200"`
	IsPrimary bool   `json:"is_primary" gorm:"default:false"`

	CreatedAt time.Time `json:"created_at"`
}

func (SupplierContact) TableName() string {
	return "proc_supplier_contacts"
}
