package service

import (
	"context"
	"fmt"
	"time"

	"github.com/axiomacloud/prohub/internal/procurement/entity"
	"github.com/axiomacloud/prohub/internal/procurement/repository"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// SupplierService runs the onboarding machine: invited suppliers complete
// their profile, get reviewed, and only active suppliers can be referenced
// by RFQs and purchase orders.
type SupplierService struct {
	repo   *repository.SupplierRepository
	logger *zap.Logger
	activityLogger
}

func NewSupplierService(repos *repository.Repositories, logger *zap.Logger) *SupplierService {
	return &SupplierService{
		repo:           repos.Supplier,
		logger:         logger,
		activityLogger: activityLogger{repo: repos.ActivityLog, logger: logger},
	}
}

func (s *SupplierService) List(ctx context.Context, tenantID string, page, pageSize int, filters map[string]string) ([]entity.Supplier, int64, error) {
	return s.repo.FindAll(ctx, tenantID, page, pageSize, filters)
}

func (s *SupplierService) Get(ctx context.Context, tenantID, id string) (*entity.Supplier, error) {
	return s.repo.FindByID(ctx, tenantID, id)
}

// InviteSupplierRequest starts onboarding with the minimum identity data.
type InviteSupplierRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
	Category string `json:"category"`
	Notes    string `json:"notes"`
}

// Invite registers a supplier in invited state.
func (s *SupplierService) Invite(ctx context.Context, tenantID, userID string, req *InviteSupplierRequest) (*entity.Supplier, error) {
	code, err := s.repo.GenerateCode(ctx)
	if err != nil {
		return nil, fmt.Errorf("generate supplier code: %w", err)
	}

	sup := &entity.Supplier{
		ID:        uuid.New().String()[:32],
		Code:      code,
		TenantID:  tenantID,
		Name:      req.Name,
		Email:     req.Email,
		Category:  req.Category,
		Status:    entity.SupplierStatusInvited,
		Notes:     req.Notes,
		InvitedBy: userID,
	}
	if err := s.repo.Create(ctx, sup); err != nil {
		return nil, err
	}
	s.log(ctx, tenantID, "supplier", sup.ID, sup.Code, "invite", "", sup.Status, userID, "")
	return sup, nil
}

// UpdateProfileRequest fills in company and bank data during onboarding or
// corrects it later.
type UpdateProfileRequest struct {
	Name         *string `json:"name"`
	TaxID        *string `json:"tax_id"`
	Email        *string `json:"email"`
	Phone        *string `json:"phone"`
	Address      *string `json:"address"`
	City         *string `json:"city"`
	Country      *string `json:"country"`
	Category     *string `json:"category"`
	BankName     *string `json:"bank_name"`
	BankAccount  *string `json:"bank_account"`
	PaymentTerms *string `json:"payment_terms"`
	Notes        *string `json:"notes"`
}

// UpdateProfile applies a partial profile update. An invited supplier moves
// to pending_completion on first edit; ProfileComplete is recomputed from
// the stored fields, never taken from the caller.
func (s *SupplierService) UpdateProfile(ctx context.Context, tenantID, id, userID string, req *UpdateProfileRequest) (*entity.Supplier, error) {
	sup, err := s.repo.FindByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	switch sup.Status {
	case entity.SupplierStatusRejected:
		return nil, preconditionf("supplier %s was rejected and can no longer be edited", sup.Name)
	case entity.SupplierStatusSuspended:
		return nil, preconditionf("supplier %s is suspended; reactivate it before editing", sup.Name)
	}

	if req.Name != nil {
		sup.Name = *req.Name
	}
	if req.TaxID != nil {
		sup.TaxID = *req.TaxID
	}
	if req.Email != nil {
		sup.Email = *req.Email
	}
	if req.Phone != nil {
		sup.Phone = *req.Phone
	}
	if req.Address != nil {
		sup.Address = *req.Address
	}
	if req.City != nil {
		sup.City = *req.City
	}
	if req.Country != nil {
		sup.Country = *req.Country
	}
	if req.Category != nil {
		sup.Category = *req.Category
	}
	if req.BankName != nil {
		sup.BankName = *req.BankName
	}
	if req.BankAccount != nil {
		sup.BankAccount = *req.BankAccount
	}
	if req.PaymentTerms != nil {
		sup.PaymentTerms = *req.PaymentTerms
	}
	if req.Notes != nil {
		sup.Notes = *req.Notes
	}

	sup.ProfileComplete = sup.TaxID != "" && sup.Address != "" && sup.BankName != "" && sup.BankAccount != ""

	if sup.Status == entity.SupplierStatusInvited {
		from := sup.Status
		sup.Status = entity.SupplierStatusPendingCompletion
		s.log(ctx, tenantID, "supplier", sup.ID, sup.Code, "profile_started", from, sup.Status, userID, "")
	}

	if err := s.repo.Update(ctx, sup); err != nil {
		return nil, err
	}
	return sup, nil
}

// SubmitForApproval queues a completed profile for review. The profile gate
// is hard: incomplete data never reaches an approver.
func (s *SupplierService) SubmitForApproval(ctx context.Context, tenantID, id, userID string) (*entity.Supplier, error) {
	sup, err := s.repo.FindByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if !entity.SupplierCanTransition(sup.Status, entity.SupplierStatusPendingApproval) {
		return nil, &TransitionError{Entity: "supplier", From: sup.Status, To: entity.SupplierStatusPendingApproval}
	}
	if !sup.ProfileComplete {
		return nil, preconditionf("supplier %s profile is incomplete; tax id, address and bank data are required", sup.Name)
	}

	from := sup.Status
	sup.Status = entity.SupplierStatusPendingApproval
	if err := s.repo.Update(ctx, sup); err != nil {
		return nil, err
	}
	s.log(ctx, tenantID, "supplier", sup.ID, sup.Code, "submit_for_approval", from, sup.Status, userID, "")
	return sup, nil
}

// Approve activates a reviewed supplier.
func (s *SupplierService) Approve(ctx context.Context, tenantID, id, approverID string) (*entity.Supplier, error) {
	sup, err := s.repo.FindByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if !entity.SupplierCanTransition(sup.Status, entity.SupplierStatusActive) {
		return nil, &TransitionError{Entity: "supplier", From: sup.Status, To: entity.SupplierStatusActive}
	}

	now := time.Now()
	from := sup.Status
	sup.Status = entity.SupplierStatusActive
	sup.ApprovedBy = &approverID
	sup.ApprovedAt = &now
	if err := s.repo.Update(ctx, sup); err != nil {
		return nil, err
	}
	s.log(ctx, tenantID, "supplier", sup.ID, sup.Code, "approve", from, sup.Status, approverID, "")
	return sup, nil
}

// Reject is terminal; the reason is mandatory.
func (s *SupplierService) Reject(ctx context.Context, tenantID, id, approverID, reason string) (*entity.Supplier, error) {
	if reason == "" {
		return nil, validationf("a rejection reason is required")
	}
	sup, err := s.repo.FindByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if !entity.SupplierCanTransition(sup.Status, entity.SupplierStatusRejected) {
		return nil, &TransitionError{Entity: "supplier", From: sup.Status, To: entity.SupplierStatusRejected}
	}

	from := sup.Status
	sup.Status = entity.SupplierStatusRejected
	sup.Notes = reason
	if err := s.repo.Update(ctx, sup); err != nil {
		return nil, err
	}
	s.log(ctx, tenantID, "supplier", sup.ID, sup.Code, "reject", from, sup.Status, approverID, reason)
	return sup, nil
}

// Suspend blocks an active supplier from new RFQs and POs. Existing open
// POs keep running to completion.
func (s *SupplierService) Suspend(ctx context.Context, tenantID, id, userID, reason string) (*entity.Supplier, error) {
	if reason == "" {
		return nil, validationf("a suspension reason is required")
	}
	sup, err := s.repo.FindByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if !entity.SupplierCanTransition(sup.Status, entity.SupplierStatusSuspended) {
		return nil, &TransitionError{Entity: "supplier", From: sup.Status, To: entity.SupplierStatusSuspended}
	}

	from := sup.Status
	sup.Status = entity.SupplierStatusSuspended
	sup.SuspendedReason = reason
	if err := s.repo.Update(ctx, sup); err != nil {
		return nil, err
	}
	s.log(ctx, tenantID, "supplier", sup.ID, sup.Code, "suspend", from, sup.Status, userID, reason)
	return sup, nil
}

// Reactivate lifts a suspension.
func (s *SupplierService) Reactivate(ctx context.Context, tenantID, id, userID string) (*entity.Supplier, error) {
	sup, err := s.repo.FindByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if !entity.SupplierCanTransition(sup.Status, entity.SupplierStatusActive) {
		return nil, &TransitionError{Entity: "supplier", From: sup.Status, To: entity.SupplierStatusActive}
	}

	from := sup.Status
	sup.Status = entity.SupplierStatusActive
	sup.SuspendedReason = ""
	if err := s.repo.Update(ctx, sup); err != nil {
		return nil, err
	}
	s.log(ctx, tenantID, "supplier", sup.ID, sup.Code, "reactivate", from, sup.Status, userID, "")
	return sup, nil
}

// AddContactRequest registers a person at the supplier side.
type AddContactRequest struct {
	Name      string `json:"name" binding:"required"`
	Title     string `json:"title"`
	Phone     string `json:"phone"`
	Email     string `json:"email"`
	IsPrimary bool   `json:"is_primary"`
}

func (s *SupplierService) AddContact(ctx context.Context, tenantID, supplierID string, req *AddContactRequest) (*entity.SupplierContact, error) {
	sup, err := s.repo.FindByID(ctx, tenantID, supplierID)
	if err != nil {
		return nil, err
	}

	contact := &entity.SupplierContact{
		ID:         uuid.New().String()[:32],
		SupplierID: sup.ID,
		Name:       req.Name,
		Title:      req.Title,
		Phone:      req.Phone,
		Email:      req.Email,
		IsPrimary:  req.IsPrimary,
	}
	if err := s.repo.CreateContact(ctx, contact); err != nil {
		return nil, err
	}
	return contact, nil
}

func (s *SupplierService) ListContacts(ctx context.Context, tenantID, supplierID string) ([]entity.SupplierContact, error) {
	sup, err := s.repo.FindByID(ctx, tenantID, supplierID)
	if err != nil {
		return nil, err
	}
	return s.repo.FindContacts(ctx, sup.ID)
}

func (s *SupplierService) RemoveContact(ctx context.Context, tenantID, supplierID, contactID string) error {
	if _, err := s.repo.FindByID(ctx, tenantID, supplierID); err != nil {
		return err
	}
	return s.repo.DeleteContact(ctx, contactID)
}
