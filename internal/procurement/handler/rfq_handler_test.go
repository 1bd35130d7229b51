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
)

func setupRFQTest(t *testing.T) *testutil.TestEnv {
	t.Helper()
	db := testutil.SetupTestDB(t)

	repos := repository.NewRepositories(db)
	tax := service.NewTaxPolicy(21)
	rfqSvc := service.NewRFQService(repos, db, tax, zap.NewNop())
	h := NewRFQHandler(rfqSvc)

	router := testutil.SetupRouter()
	api := testutil.AuthGroup(router, "/api/v1")
	api.GET("/rfqs", h.List)
	api.POST("/rfqs", h.Create)
	api.POST("/rfqs/expire-overdue", h.ExpireOverdue)
	api.GET("/rfqs/:id", h.Get)
	api.POST("/rfqs/:id/publish", h.Publish)
	api.POST("/rfqs/:id/close", h.Close)
	api.GET("/rfqs/:id/comparison", h.Compare)
	api.POST("/rfqs/:id/award", h.Award)
	api.POST("/rfqs/:id/generate-po", h.GeneratePO)
	api.POST("/rfqs/:id/cancel", h.Cancel)
	api.POST("/rfqs/:id/quotations", h.SubmitQuotation)
	api.POST("/rfqs/:id/suppliers/:supplier_id/viewed", h.MarkViewed)
	api.POST("/rfqs/:id/suppliers/:supplier_id/decline", h.Decline)

	return &testutil.TestEnv{DB: db, Router: router, T: t}
}

// createPublishedRFQ creates a two-item RFQ with both suppliers invited and
// publishes it. Returns the RFQ id and the ids of its two items in sort order.
func createPublishedRFQ(t *testing.T, env *testutil.TestEnv, token, supA, supB string) (string, []string) {
	t.Helper()
	deadline := time.Now().Add(48 * time.Hour)
	body := map[string]interface{}{
		"title":        "Chapas y perfiles Q4",
		"deadline":     deadline,
		"supplier_ids": []string{supA, supB},
		"items": []map[string]interface{}{
			{"description": "Chapa galvanizada 1mm", "quantity": 10},
			{"description": "Perfil C 100x50", "quantity": 5},
		},
	}
	w := testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/rfqs", body, token)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	data := testutil.ParseResponse(w)["data"].(map[string]interface{})
	rfqID := data["id"].(string)

	rawItems := data["items"].([]interface{})
	itemIDs := make([]string, len(rawItems))
	for i, raw := range rawItems {
		itemIDs[i] = raw.(map[string]interface{})["id"].(string)
	}

	w2 := testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/rfqs/"+rfqID+"/publish", nil, token)
	if w2.Code != http.StatusOK {
		t.Fatalf("expected 200 publishing, got %d: %s", w2.Code, w2.Body.String())
	}
	return rfqID, itemIDs
}

func submitQuotation(t *testing.T, env *testutil.TestEnv, token, rfqID, supplierID string, lines []map[string]interface{}) string {
	t.Helper()
	w := testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/rfqs/"+rfqID+"/quotations",
		map[string]interface{}{"supplier_id": supplierID, "items": lines}, token)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201 submitting quotation, got %d: %s", w.Code, w.Body.String())
	}
	return testutil.ParseResponse(w)["data"].(map[string]interface{})["id"].(string)
}

func TestRFQRoundAwardAndGeneratePO(t *testing.T) {
	env := setupRFQTest(t)
	token := testutil.DefaultTestToken()
	supA := testutil.SeedActiveSupplier(t, env.DB, "sup-a", "Metalurgica Norte")
	supB := testutil.SeedActiveSupplier(t, env.DB, "sup-b", "Hierros Cuyo")

	rfqID, itemIDs := createPublishedRFQ(t, env, token, supA.ID, supB.ID)

	// A quotes both lines, B quotes only the first one cheaper
	quoteA := submitQuotation(t, env, token, rfqID, supA.ID, []map[string]interface{}{
		{"rfq_item_id": itemIDs[0], "unit_price": 50},
		{"rfq_item_id": itemIDs[1], "unit_price": 100},
	})
	quoteB := submitQuotation(t, env, token, rfqID, supB.ID, []map[string]interface{}{
		{"rfq_item_id": itemIDs[0], "unit_price": 40},
	})

	w := testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/rfqs/"+rfqID+"/close", nil, token)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 closing, got %d: %s", w.Code, w.Body.String())
	}

	w2 := testutil.DoRequest(env.Router, http.MethodGet, "/api/v1/rfqs/"+rfqID+"/comparison", nil, token)
	if w2.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w2.Code, w2.Body.String())
	}
	cmp := testutil.ParseResponse(w2)["data"].(map[string]interface{})
	rows := cmp["rows"].([]interface{})
	if len(rows) != 2 {
		t.Fatalf("expected 2 comparison rows, got %d", len(rows))
	}

	// rows sorted by total: B (400, incomplete) before A (1000, complete)
	first := rows[0].(map[string]interface{})
	if first["quotation_id"] != quoteB || first["complete"].(bool) {
		t.Errorf("expected the incomplete cheaper bid first, got %v", first)
	}
	// the suggestion is the lowest complete total, not the lowest total
	if cmp["best_total_quotation"] != quoteA {
		t.Errorf("expected best total %s, got %v", quoteA, cmp["best_total_quotation"])
	}

	w3 := testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/rfqs/"+rfqID+"/award",
		map[string]interface{}{"quotation_id": quoteA}, token)
	if w3.Code != http.StatusOK {
		t.Fatalf("expected 200 awarding, got %d: %s", w3.Code, w3.Body.String())
	}

	// re-awarding the same quotation is a no-op
	w4 := testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/rfqs/"+rfqID+"/award",
		map[string]interface{}{"quotation_id": quoteA}, token)
	if w4.Code != http.StatusOK {
		t.Fatalf("expected 200 re-awarding, got %d: %s", w4.Code, w4.Body.String())
	}

	// awarding a different quotation is not
	w5 := testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/rfqs/"+rfqID+"/award",
		map[string]interface{}{"quotation_id": quoteB}, token)
	if w5.Code != http.StatusConflict {
		t.Fatalf("expected 409 awarding another quotation, got %d", w5.Code)
	}

	// the losing quotation was rejected
	var dbQuoteB entity.Quotation
	env.DB.First(&dbQuoteB, "id = ?", quoteB)
	if dbQuoteB.Status != entity.QuotationStatusRejected {
		t.Errorf("expected losing quotation rejected, got %s", dbQuoteB.Status)
	}

	w6 := testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/rfqs/"+rfqID+"/generate-po", nil, token)
	if w6.Code != http.StatusCreated {
		t.Fatalf("expected 201 generating PO, got %d: %s", w6.Code, w6.Body.String())
	}
	po := testutil.ParseResponse(w6)["data"].(map[string]interface{})
	if po["supplier_id"] != supA.ID {
		t.Errorf("expected PO for the awarded supplier, got %v", po["supplier_id"])
	}
	if po["subtotal"].(float64) != 1000 {
		t.Errorf("expected subtotal 1000, got %v", po["subtotal"])
	}
	if po["total"].(float64) != 1210 {
		t.Errorf("expected total 1210, got %v", po["total"])
	}

	// generating again returns the same PO
	w7 := testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/rfqs/"+rfqID+"/generate-po", nil, token)
	if w7.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w7.Code, w7.Body.String())
	}
	po2 := testutil.ParseResponse(w7)["data"].(map[string]interface{})
	if po2["id"] != po["id"] {
		t.Errorf("expected the same PO on repeat generation, got %v and %v", po["id"], po2["id"])
	}
}

func TestRFQAwardSettlesEveryInvitation(t *testing.T) {
	env := setupRFQTest(t)
	token := testutil.DefaultTestToken()
	supA := testutil.SeedActiveSupplier(t, env.DB, "sup-w1", "Bulonera Centro")
	supB := testutil.SeedActiveSupplier(t, env.DB, "sup-w2", "Bulonera Norte")
	supC := testutil.SeedActiveSupplier(t, env.DB, "sup-w3", "Bulonera Sur")

	body := map[string]interface{}{
		"title":        "Bulones M8",
		"supplier_ids": []string{supA.ID, supB.ID, supC.ID},
		"items": []map[string]interface{}{
			{"description": "Bulon M8x40 zincado", "quantity": 500},
		},
	}
	w := testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/rfqs", body, token)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	data := testutil.ParseResponse(w)["data"].(map[string]interface{})
	rfqID := data["id"].(string)
	itemID := data["items"].([]interface{})[0].(map[string]interface{})["id"].(string)

	w2 := testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/rfqs/"+rfqID+"/publish", nil, token)
	if w2.Code != http.StatusOK {
		t.Fatalf("expected 200 publishing, got %d: %s", w2.Code, w2.Body.String())
	}

	// A quotes, B declines, C never answers
	quoteA := submitQuotation(t, env, token, rfqID, supA.ID, []map[string]interface{}{
		{"rfq_item_id": itemID, "unit_price": 12},
	})
	w3 := testutil.DoRequest(env.Router, http.MethodPost,
		"/api/v1/rfqs/"+rfqID+"/suppliers/"+supB.ID+"/decline", nil, token)
	if w3.Code != http.StatusOK {
		t.Fatalf("expected 200 declining, got %d: %s", w3.Code, w3.Body.String())
	}

	testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/rfqs/"+rfqID+"/close", nil, token)
	w4 := testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/rfqs/"+rfqID+"/award",
		map[string]interface{}{"quotation_id": quoteA}, token)
	if w4.Code != http.StatusOK {
		t.Fatalf("expected 200 awarding, got %d: %s", w4.Code, w4.Body.String())
	}

	expected := map[string]string{
		supA.ID: entity.RFQSupplierStatusAwarded,
		supB.ID: entity.RFQSupplierStatusNotAwarded,
		supC.ID: entity.RFQSupplierStatusNotAwarded,
	}
	for supplierID, want := range expected {
		var rs entity.RFQSupplier
		if err := env.DB.Where("rfq_id = ? AND supplier_id = ?", rfqID, supplierID).First(&rs).Error; err != nil {
			t.Fatalf("Failed to load invitation for %s: %v", supplierID, err)
		}
		if rs.Status != want {
			t.Errorf("expected supplier %s invitation %s, got %s", supplierID, want, rs.Status)
		}
	}
}

func TestRFQSingleSupplierRound(t *testing.T) {
	env := setupRFQTest(t)
	token := testutil.DefaultTestToken()
	sup := testutil.SeedActiveSupplier(t, env.DB, "sup-solo", "Unico Proveedor")

	// a round with one invited supplier is a valid sourcing round
	body := map[string]interface{}{
		"title":        "Ronda directa",
		"supplier_ids": []string{sup.ID},
		"items": []map[string]interface{}{
			{"description": "Tornillos", "quantity": 100},
		},
	}
	w := testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/rfqs", body, token)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201 with one supplier, got %d: %s", w.Code, w.Body.String())
	}
	rfqID := testutil.ParseResponse(w)["data"].(map[string]interface{})["id"].(string)

	w2 := testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/rfqs/"+rfqID+"/publish", nil, token)
	if w2.Code != http.StatusOK {
		t.Fatalf("expected 200 publishing, got %d: %s", w2.Code, w2.Body.String())
	}

	// no suppliers at all is not
	body["supplier_ids"] = []string{}
	w3 := testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/rfqs", body, token)
	if w3.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without suppliers, got %d", w3.Code)
	}
}

func TestRFQRejectsInactiveSupplier(t *testing.T) {
	env := setupRFQTest(t)
	token := testutil.DefaultTestToken()
	active := testutil.SeedActiveSupplier(t, env.DB, "sup-act", "Activo SRL")

	suspended := &entity.Supplier{
		ID:       "sup-susp",
		Code:     "PROV-TEST-susp",
		TenantID: testutil.TestTenantID,
		Name:     "Suspendido SA",
		Status:   entity.SupplierStatusSuspended,
	}
	if err := env.DB.Create(suspended).Error; err != nil {
		t.Fatalf("Failed to seed supplier: %v", err)
	}

	body := map[string]interface{}{
		"title":        "Ronda con suspendido",
		"supplier_ids": []string{active.ID, suspended.ID},
		"items": []map[string]interface{}{
			{"description": "Cemento", "quantity": 50},
		},
	}
	w := testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/rfqs", body, token)
	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409 with a suspended supplier, got %d: %s", w.Code, w.Body.String())
	}
}

func TestRFQOneQuotationPerSupplier(t *testing.T) {
	env := setupRFQTest(t)
	token := testutil.DefaultTestToken()
	supA := testutil.SeedActiveSupplier(t, env.DB, "sup-q1", "Cables Sur")
	supB := testutil.SeedActiveSupplier(t, env.DB, "sup-q2", "Cables Oeste")

	rfqID, itemIDs := createPublishedRFQ(t, env, token, supA.ID, supB.ID)
	submitQuotation(t, env, token, rfqID, supA.ID, []map[string]interface{}{
		{"rfq_item_id": itemIDs[0], "unit_price": 10},
	})

	w := testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/rfqs/"+rfqID+"/quotations",
		map[string]interface{}{
			"supplier_id": supA.ID,
			"items": []map[string]interface{}{
				{"rfq_item_id": itemIDs[0], "unit_price": 9},
			},
		}, token)
	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409 on a second quotation, got %d", w.Code)
	}
}

func TestRFQDeclineAfterQuotingRejected(t *testing.T) {
	env := setupRFQTest(t)
	token := testutil.DefaultTestToken()
	supA := testutil.SeedActiveSupplier(t, env.DB, "sup-d1", "Vidrios Norte")
	supB := testutil.SeedActiveSupplier(t, env.DB, "sup-d2", "Vidrios Sur")

	rfqID, itemIDs := createPublishedRFQ(t, env, token, supA.ID, supB.ID)

	// B declines without quoting
	w := testutil.DoRequest(env.Router, http.MethodPost,
		"/api/v1/rfqs/"+rfqID+"/suppliers/"+supB.ID+"/decline", nil, token)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 declining, got %d: %s", w.Code, w.Body.String())
	}

	// A quotes and then cannot decline
	submitQuotation(t, env, token, rfqID, supA.ID, []map[string]interface{}{
		{"rfq_item_id": itemIDs[0], "unit_price": 30},
	})
	w2 := testutil.DoRequest(env.Router, http.MethodPost,
		"/api/v1/rfqs/"+rfqID+"/suppliers/"+supA.ID+"/decline", nil, token)
	if w2.Code != http.StatusConflict {
		t.Fatalf("expected 409 declining after quoting, got %d", w2.Code)
	}
}

func TestRFQExpireOverdueSweep(t *testing.T) {
	env := setupRFQTest(t)
	token := testutil.DefaultTestToken()
	supA := testutil.SeedActiveSupplier(t, env.DB, "sup-e1", "Pinturas Este")
	supB := testutil.SeedActiveSupplier(t, env.DB, "sup-e2", "Pinturas Oeste")

	rfqID, itemIDs := createPublishedRFQ(t, env, token, supA.ID, supB.ID)

	// push the deadline into the past
	past := time.Now().Add(-time.Hour)
	env.DB.Model(&entity.RFQ{}).Where("id = ?", rfqID).Update("deadline", past)

	// quotations past the deadline are turned away
	w := testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/rfqs/"+rfqID+"/quotations",
		map[string]interface{}{
			"supplier_id": supA.ID,
			"items": []map[string]interface{}{
				{"rfq_item_id": itemIDs[0], "unit_price": 15},
			},
		}, token)
	if w.Code != http.StatusConflict {
		t.Fatalf("expected 409 past the deadline, got %d", w.Code)
	}

	w2 := testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/rfqs/expire-overdue", nil, token)
	if w2.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w2.Code, w2.Body.String())
	}
	data := testutil.ParseResponse(w2)["data"].(map[string]interface{})
	if data["expired"].(float64) != 1 {
		t.Fatalf("expected 1 expired RFQ, got %v", data["expired"])
	}

	var rfq entity.RFQ
	env.DB.First(&rfq, "id = ?", rfqID)
	if rfq.Status != entity.RFQStatusExpired {
		t.Errorf("expected expired, got %s", rfq.Status)
	}
}
