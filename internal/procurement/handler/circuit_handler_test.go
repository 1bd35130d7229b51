package handler

import (
	"net/http"
	"testing"

	"github.com/axiomacloud/prohub/internal/procurement/entity"
	"github.com/axiomacloud/prohub/internal/procurement/repository"
	"github.com/axiomacloud/prohub/internal/procurement/service"
	"github.com/axiomacloud/prohub/internal/testutil"
	"go.uber.org/zap"
)

func setupCircuitTest(t *testing.T) *testutil.TestEnv {
	t.Helper()
	db := testutil.SetupTestDB(t)

	repos := repository.NewRepositories(db)
	logger := zap.NewNop()
	circuitSvc := service.NewCircuitService(repos, logger)
	receptionSvc := service.NewReceptionService(repos, db, logger)
	ch := NewCircuitHandler(circuitSvc)
	rh := NewReceptionHandler(receptionSvc)

	router := testutil.SetupRouter()
	api := testutil.AuthGroup(router, "/api/v1")
	api.GET("/requisitions/:id/circuit", ch.FromRequisition)
	api.GET("/purchase-orders/:id/circuit", ch.FromPO)
	api.GET("/receptions/:id/circuit", ch.FromReception)
	api.POST("/purchase-orders/:id/receptions", rh.Record)

	return &testutil.TestEnv{DB: db, Router: router, T: t}
}

func TestCircuitFromEveryDocument(t *testing.T) {
	env := setupCircuitTest(t)
	token := testutil.DefaultTestToken()
	po, req := seedApprovedPO(t, env)

	w := testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/purchase-orders/"+po.ID+"/receptions",
		map[string]interface{}{
			"items": []map[string]interface{}{
				{"po_item_id": "poi-rec-001", "received_qty": 25},
			},
		}, token)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	recID := testutil.ParseResponse(w)["data"].(map[string]interface{})["id"].(string)

	for _, path := range []string{
		"/api/v1/requisitions/" + req.ID + "/circuit",
		"/api/v1/purchase-orders/" + po.ID + "/circuit",
		"/api/v1/receptions/" + recID + "/circuit",
	} {
		w := testutil.DoRequest(env.Router, http.MethodGet, path, nil, token)
		if w.Code != http.StatusOK {
			t.Fatalf("%s: expected 200, got %d: %s", path, w.Code, w.Body.String())
		}
		circuit := testutil.ParseResponse(w)["data"].(map[string]interface{})

		r := circuit["requisition"].(map[string]interface{})
		if r["id"] != req.ID {
			t.Errorf("%s: expected requisition %s, got %v", path, req.ID, r["id"])
		}
		p := circuit["purchase_order"].(map[string]interface{})
		if p["id"] != po.ID {
			t.Errorf("%s: expected purchase order %s, got %v", path, po.ID, p["id"])
		}
		recs := circuit["receptions"].([]interface{})
		if len(recs) != 1 {
			t.Errorf("%s: expected 1 reception, got %d", path, len(recs))
		}
		if circuit["missing"] != nil {
			t.Errorf("%s: expected no missing links, got %v", path, circuit["missing"])
		}
	}
}

func TestCircuitReportsMissingLinks(t *testing.T) {
	env := setupCircuitTest(t)
	token := testutil.DefaultTestToken()
	po, req := seedApprovedPO(t, env)

	w := testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/purchase-orders/"+po.ID+"/receptions",
		map[string]interface{}{
			"items": []map[string]interface{}{
				{"po_item_id": "poi-rec-001", "received_qty": 10},
			},
		}, token)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	recID := testutil.ParseResponse(w)["data"].(map[string]interface{})["id"].(string)

	// requisition record disappears: the PO circuit still resolves, with the gap noted
	env.DB.Delete(&entity.Requisition{}, "id = ?", req.ID)

	w2 := testutil.DoRequest(env.Router, http.MethodGet, "/api/v1/purchase-orders/"+po.ID+"/circuit", nil, token)
	if w2.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w2.Code, w2.Body.String())
	}
	circuit := testutil.ParseResponse(w2)["data"].(map[string]interface{})
	if circuit["requisition"] != nil {
		t.Error("expected no requisition in the circuit")
	}
	missing := circuit["missing"].([]interface{})
	if len(missing) != 1 {
		t.Fatalf("expected 1 missing link, got %v", missing)
	}

	// PO record disappears too: the reception circuit still answers
	env.DB.Delete(&entity.PurchaseOrder{}, "id = ?", po.ID)

	w3 := testutil.DoRequest(env.Router, http.MethodGet, "/api/v1/receptions/"+recID+"/circuit", nil, token)
	if w3.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w3.Code, w3.Body.String())
	}
	circuit3 := testutil.ParseResponse(w3)["data"].(map[string]interface{})
	if circuit3["purchase_order"] != nil {
		t.Error("expected no purchase order in the circuit")
	}
	if circuit3["missing"] == nil {
		t.Fatal("expected the missing purchase order to be reported")
	}
	recs := circuit3["receptions"].([]interface{})
	if len(recs) != 1 {
		t.Errorf("expected the starting reception itself, got %d", len(recs))
	}

	// the starting document itself must exist
	w4 := testutil.DoRequest(env.Router, http.MethodGet, "/api/v1/receptions/no-such-rec/circuit", nil, token)
	if w4.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w4.Code)
	}
}
