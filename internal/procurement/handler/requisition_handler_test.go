package handler

import (
	"net/http"
	"testing"
	"time"

	"github.com/axiomacloud/prohub/internal/procurement/entity"
	"github.com/axiomacloud/prohub/internal/procurement/repository"
	"github.com/axiomacloud/prohub/internal/procurement/service"
	"github.com/axiomacloud/prohub/internal/testutil"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func setupRequisitionTest(t *testing.T) *testutil.TestEnv {
	t.Helper()
	db := testutil.SetupTestDB(t)

	repos := repository.NewRepositories(db)
	tax := service.NewTaxPolicy(21)
	logger := zap.NewNop()

	requisitionSvc := service.NewRequisitionService(repos, db, tax, logger)
	h := NewRequisitionHandler(requisitionSvc, nil)

	router := testutil.SetupRouter()
	api := testutil.AuthGroup(router, "/api/v1")
	api.POST("/requisitions", h.Create)
	api.GET("/requisitions/:id", h.Get)
	api.PUT("/requisitions/:id", h.Update)
	api.POST("/requisitions/:id/submit", h.Submit)
	api.POST("/requisitions/:id/approve", h.Approve)
	api.POST("/requisitions/:id/reject", h.Reject)
	api.POST("/requisitions/:id/cancel", h.Cancel)
	api.POST("/requisitions/:id/attachments/:attachment_id/decide", h.DecideAttachment)

	return &testutil.TestEnv{DB: db, Router: router, T: t}
}

func seedPendingAttachment(t *testing.T, db *gorm.DB, requisitionID, attachmentID string) {
	t.Helper()
	att := &entity.Attachment{
		ID:            attachmentID,
		RequisitionID: requisitionID,
		FileName:      "budget.pdf",
		MimeType:      "application/pdf",
		SizeBytes:     1024,
		ObjectKey:     "attachments/test/budget.pdf",
		Status:        entity.AttachmentStatusPending,
		CreatedAt:     time.Now(),
	}
	if err := db.Create(att).Error; err != nil {
		t.Fatalf("Failed to seed attachment: %v", err)
	}
}

func TestRequisitionApprovalGeneratesPO(t *testing.T) {
	env := setupRequisitionTest(t)
	token := testutil.DefaultTestToken()
	supplier := testutil.SeedActiveSupplier(t, env.DB, "sup-001", "Aceros del Sur")

	body := map[string]interface{}{
		"title":            "Notebooks para desarrollo",
		"department":       "IT",
		"estimated_amount": 100000,
		"submit":           true,
		"items": []map[string]interface{}{
			{"description": "Notebook 16GB RAM", "quantity": 10, "unit_price": 10000},
		},
	}
	w := testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/requisitions", body, token)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	resp := testutil.ParseResponse(w)
	data := resp["data"].(map[string]interface{})
	reqID := data["id"].(string)
	if data["status"] != entity.RequisitionStatusPendingApproval {
		t.Fatalf("expected pending_approval, got %v", data["status"])
	}

	w2 := testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/requisitions/"+reqID+"/approve",
		map[string]interface{}{"supplier_id": supplier.ID}, token)
	if w2.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w2.Code, w2.Body.String())
	}
	resp2 := testutil.ParseResponse(w2)
	result := resp2["data"].(map[string]interface{})

	r := result["requisition"].(map[string]interface{})
	if r["status"] != entity.RequisitionStatusPOGenerated {
		t.Fatalf("expected po_generated, got %v", r["status"])
	}

	po := result["purchase_order"].(map[string]interface{})
	if po["subtotal"].(float64) != 100000 {
		t.Errorf("expected subtotal 100000, got %v", po["subtotal"])
	}
	if po["tax_amount"].(float64) != 21000 {
		t.Errorf("expected tax 21000, got %v", po["tax_amount"])
	}
	if po["total"].(float64) != 121000 {
		t.Errorf("expected total 121000, got %v", po["total"])
	}
	if po["supplier_name"] != "Aceros del Sur" {
		t.Errorf("expected supplier snapshot, got %v", po["supplier_name"])
	}

	// the PO mirrors the requisition lines 1:1
	items := po["items"].([]interface{})
	if len(items) != 1 {
		t.Fatalf("expected 1 po item, got %d", len(items))
	}
	line := items[0].(map[string]interface{})
	if line["quantity"].(float64) != 10 {
		t.Errorf("expected quantity 10, got %v", line["quantity"])
	}
}

func TestRequisitionApproveBlockedByPendingAttachment(t *testing.T) {
	env := setupRequisitionTest(t)
	token := testutil.DefaultTestToken()
	supplier := testutil.SeedActiveSupplier(t, env.DB, "sup-002", "Insumos Pampa")

	body := map[string]interface{}{
		"title":            "Licencias anuales",
		"estimated_amount": 5000,
		"submit":           true,
		"items": []map[string]interface{}{
			{"description": "Licencia IDE", "quantity": 5, "unit_price": 1000},
		},
	}
	w := testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/requisitions", body, token)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	reqID := testutil.ParseResponse(w)["data"].(map[string]interface{})["id"].(string)

	seedPendingAttachment(t, env.DB, reqID, "att-001")

	// pending attachment blocks approval
	w2 := testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/requisitions/"+reqID+"/approve",
		map[string]interface{}{"supplier_id": supplier.ID}, token)
	if w2.Code != http.StatusConflict {
		t.Fatalf("expected 409, got %d: %s", w2.Code, w2.Body.String())
	}

	// review the attachment, then approval goes through
	w3 := testutil.DoRequest(env.Router, http.MethodPost,
		"/api/v1/requisitions/"+reqID+"/attachments/att-001/decide",
		map[string]interface{}{"approved": true, "comment": "budget checks out"}, token)
	if w3.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w3.Code, w3.Body.String())
	}

	w4 := testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/requisitions/"+reqID+"/approve",
		map[string]interface{}{"supplier_id": supplier.ID}, token)
	if w4.Code != http.StatusOK {
		t.Fatalf("expected 200 after attachment review, got %d: %s", w4.Code, w4.Body.String())
	}
}

func TestRequisitionRejectedAttachmentWarnsButDoesNotBlock(t *testing.T) {
	env := setupRequisitionTest(t)
	token := testutil.DefaultTestToken()
	supplier := testutil.SeedActiveSupplier(t, env.DB, "sup-003", "Quimica Andina")

	body := map[string]interface{}{
		"title":            "Reactivo de laboratorio",
		"estimated_amount": 800,
		"submit":           true,
		"items": []map[string]interface{}{
			{"description": "Reactivo X", "quantity": 2, "unit_price": 400},
		},
	}
	w := testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/requisitions", body, token)
	reqID := testutil.ParseResponse(w)["data"].(map[string]interface{})["id"].(string)

	seedPendingAttachment(t, env.DB, reqID, "att-r01")
	testutil.DoRequest(env.Router, http.MethodPost,
		"/api/v1/requisitions/"+reqID+"/attachments/att-r01/decide",
		map[string]interface{}{"approved": false, "comment": "wrong document"}, token)

	w2 := testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/requisitions/"+reqID+"/approve",
		map[string]interface{}{"supplier_id": supplier.ID}, token)
	if w2.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w2.Code, w2.Body.String())
	}
	result := testutil.ParseResponse(w2)["data"].(map[string]interface{})
	if result["warning"] == nil || result["warning"] == "" {
		t.Error("expected a warning about the rejected attachment")
	}
}

func TestRequisitionRejectRequiresReason(t *testing.T) {
	env := setupRequisitionTest(t)
	token := testutil.DefaultTestToken()

	body := map[string]interface{}{
		"title":            "Sillas ergonomicas",
		"estimated_amount": 3000,
		"submit":           true,
		"items": []map[string]interface{}{
			{"description": "Silla", "quantity": 3, "unit_price": 1000},
		},
	}
	w := testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/requisitions", body, token)
	reqID := testutil.ParseResponse(w)["data"].(map[string]interface{})["id"].(string)

	w2 := testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/requisitions/"+reqID+"/reject",
		map[string]interface{}{}, token)
	if w2.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without reason, got %d", w2.Code)
	}

	w3 := testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/requisitions/"+reqID+"/reject",
		map[string]interface{}{"reason": "no budget this quarter"}, token)
	if w3.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w3.Code, w3.Body.String())
	}

	// rejected is terminal
	w4 := testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/requisitions/"+reqID+"/submit", nil, token)
	if w4.Code != http.StatusConflict {
		t.Fatalf("expected 409 resubmitting a rejected requisition, got %d", w4.Code)
	}
}

func TestRequisitionUpdateOnlyInDraft(t *testing.T) {
	env := setupRequisitionTest(t)
	token := testutil.DefaultTestToken()

	body := map[string]interface{}{
		"title":            "Material de oficina",
		"estimated_amount": 200,
		"items": []map[string]interface{}{
			{"description": "Resmas A4", "quantity": 20, "unit_price": 10},
		},
	}
	w := testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/requisitions", body, token)
	reqID := testutil.ParseResponse(w)["data"].(map[string]interface{})["id"].(string)

	w2 := testutil.DoRequest(env.Router, http.MethodPut, "/api/v1/requisitions/"+reqID,
		map[string]interface{}{"title": "Material de oficina Q3"}, token)
	if w2.Code != http.StatusOK {
		t.Fatalf("expected 200 editing a draft, got %d: %s", w2.Code, w2.Body.String())
	}

	testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/requisitions/"+reqID+"/submit", nil, token)

	w3 := testutil.DoRequest(env.Router, http.MethodPut, "/api/v1/requisitions/"+reqID,
		map[string]interface{}{"title": "too late"}, token)
	if w3.Code != http.StatusConflict {
		t.Fatalf("expected 409 editing after submit, got %d", w3.Code)
	}
}

func TestRequisitionApproveWithoutPOGeneration(t *testing.T) {
	env := setupRequisitionTest(t)
	token := testutil.DefaultTestToken()

	body := map[string]interface{}{
		"title":            "Servicio de consultoria",
		"estimated_amount": 50000,
		"submit":           true,
		"items": []map[string]interface{}{
			{"description": "Horas de consultoria", "quantity": 100, "unit_price": 500},
		},
	}
	w := testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/requisitions", body, token)
	reqID := testutil.ParseResponse(w)["data"].(map[string]interface{})["id"].(string)

	w2 := testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/requisitions/"+reqID+"/approve",
		map[string]interface{}{"generate_po": false}, token)
	if w2.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w2.Code, w2.Body.String())
	}
	result := testutil.ParseResponse(w2)["data"].(map[string]interface{})
	r := result["requisition"].(map[string]interface{})
	if r["status"] != entity.RequisitionStatusApproved {
		t.Fatalf("expected approved, got %v", r["status"])
	}
	if result["purchase_order"] != nil {
		t.Error("expected no purchase order in the RFQ-bound flow")
	}
}
