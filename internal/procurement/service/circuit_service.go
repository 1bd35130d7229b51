package service

import (
	"context"
	"errors"

	"github.com/axiomacloud/prohub/internal/procurement/entity"
	"github.com/axiomacloud/prohub/internal/procurement/repository"
	"go.uber.org/zap"
)

// CircuitService assembles the traceability circuit of a purchase: the
// requisition, the sourcing round if there was one, the purchase order and
// every reception, walkable from any point in the chain.
type CircuitService struct {
	reqRepo *repository.RequisitionRepository
	rfqRepo *repository.RFQRepository
	poRepo  *repository.PORepository
	recRepo *repository.ReceptionRepository
	logger  *zap.Logger
}

func NewCircuitService(repos *repository.Repositories, logger *zap.Logger) *CircuitService {
	return &CircuitService{
		reqRepo: repos.Requisition,
		rfqRepo: repos.RFQ,
		poRepo:  repos.PO,
		recRepo: repos.Reception,
		logger:  logger,
	}
}

// Circuit is the assembled chain. Links that do not exist yet, or whose
// counterpart record is missing, are simply nil or empty: the circuit is
// best-effort and reports whatever documents it can reach.
type Circuit struct {
	Requisition   *entity.Requisition   `json:"requisition,omitempty"`
	RFQ           *entity.RFQ           `json:"rfq,omitempty"`
	PurchaseOrder *entity.PurchaseOrder `json:"purchase_order,omitempty"`
	Receptions    []entity.Reception    `json:"receptions"`
	// Missing lists the links that should exist but could not be resolved,
	// e.g. a PO whose requisition record is gone.
	Missing []string `json:"missing,omitempty"`
}

// FromRequisition walks the circuit starting at a requisition.
func (s *CircuitService) FromRequisition(ctx context.Context, tenantID, requisitionID string) (*Circuit, error) {
	r, err := s.reqRepo.FindByID(ctx, tenantID, requisitionID)
	if err != nil {
		return nil, err
	}

	c := &Circuit{Requisition: r, Receptions: []entity.Reception{}}
	if r.POID != nil {
		po, err := s.poRepo.FindByID(ctx, tenantID, *r.POID)
		if err != nil {
			s.noteMissing(c, "purchase order "+*r.POID, err)
		} else {
			c.PurchaseOrder = po
		}
	}
	s.fillFromPO(ctx, tenantID, c)
	return c, nil
}

// FromPO walks the circuit starting at a purchase order.
func (s *CircuitService) FromPO(ctx context.Context, tenantID, poID string) (*Circuit, error) {
	po, err := s.poRepo.FindByID(ctx, tenantID, poID)
	if err != nil {
		return nil, err
	}

	c := &Circuit{PurchaseOrder: po, Receptions: []entity.Reception{}}
	if po.RequisitionID != nil {
		r, err := s.reqRepo.FindByID(ctx, tenantID, *po.RequisitionID)
		if err != nil {
			s.noteMissing(c, "requisition "+*po.RequisitionID, err)
		} else {
			c.Requisition = r
		}
	}
	s.fillFromPO(ctx, tenantID, c)
	return c, nil
}

// FromReception walks the circuit starting at a reception. A reception
// whose PO record is missing still yields a circuit with that gap noted.
func (s *CircuitService) FromReception(ctx context.Context, tenantID, receptionID string) (*Circuit, error) {
	rec, err := s.recRepo.FindByID(ctx, tenantID, receptionID)
	if err != nil {
		return nil, err
	}

	c := &Circuit{Receptions: []entity.Reception{*rec}}
	po, err := s.poRepo.FindByID(ctx, tenantID, rec.POID)
	if err != nil {
		s.noteMissing(c, "purchase order "+rec.POID, err)
		return c, nil
	}
	c.PurchaseOrder = po

	if po.RequisitionID != nil {
		r, err := s.reqRepo.FindByID(ctx, tenantID, *po.RequisitionID)
		if err != nil {
			s.noteMissing(c, "requisition "+*po.RequisitionID, err)
		} else {
			c.Requisition = r
		}
	}
	s.fillFromPO(ctx, tenantID, c)
	return c, nil
}

// fillFromPO completes the RFQ link and the full reception history once the
// PO is known.
func (s *CircuitService) fillFromPO(ctx context.Context, tenantID string, c *Circuit) {
	if c.PurchaseOrder == nil {
		return
	}
	po := c.PurchaseOrder

	if po.RFQID != nil {
		rfq, err := s.rfqRepo.FindByID(ctx, tenantID, *po.RFQID)
		if err != nil {
			s.noteMissing(c, "rfq "+*po.RFQID, err)
		} else {
			c.RFQ = rfq
		}
	}

	recs, err := s.recRepo.FindByPOID(ctx, tenantID, po.ID)
	if err != nil {
		s.noteMissing(c, "receptions of "+po.Code, err)
		return
	}
	c.Receptions = recs
}

func (s *CircuitService) noteMissing(c *Circuit, link string, err error) {
	c.Missing = append(c.Missing, link)
	if !errors.Is(err, repository.ErrNotFound) {
		s.logger.Warn("circuit link lookup failed", zap.String("link", link), zap.Error(err))
	}
}
