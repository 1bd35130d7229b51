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

func setupSupplierTest(t *testing.T) *testutil.TestEnv {
	t.Helper()
	db := testutil.SetupTestDB(t)

	repos := repository.NewRepositories(db)
	supplierSvc := service.NewSupplierService(repos, zap.NewNop())
	h := NewSupplierHandler(supplierSvc)

	router := testutil.SetupRouter()
	api := testutil.AuthGroup(router, "/api/v1")
	api.GET("/suppliers", h.List)
	api.POST("/suppliers/invite", h.Invite)
	api.GET("/suppliers/:id", h.Get)
	api.PUT("/suppliers/:id/profile", h.UpdateProfile)
	api.POST("/suppliers/:id/submit", h.SubmitForApproval)
	api.POST("/suppliers/:id/approve", h.Approve)
	api.POST("/suppliers/:id/reject", h.Reject)
	api.POST("/suppliers/:id/suspend", h.Suspend)
	api.POST("/suppliers/:id/reactivate", h.Reactivate)
	api.GET("/suppliers/:id/contacts", h.ListContacts)
	api.POST("/suppliers/:id/contacts", h.AddContact)
	api.DELETE("/suppliers/:id/contacts/:contact_id", h.RemoveContact)

	return &testutil.TestEnv{DB: db, Router: router, T: t}
}

func inviteSupplier(t *testing.T, env *testutil.TestEnv, token, name string) string {
	t.Helper()
	w := testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/suppliers/invite",
		map[string]interface{}{"name": name, "email": "ventas@example.com", "category": "goods"}, token)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201 inviting, got %d: %s", w.Code, w.Body.String())
	}
	return testutil.ParseResponse(w)["data"].(map[string]interface{})["id"].(string)
}

func TestSupplierOnboardingFlow(t *testing.T) {
	env := setupSupplierTest(t)
	token := testutil.DefaultTestToken()
	id := inviteSupplier(t, env, token, "Distribuidora Belgrano")

	// profile incomplete: no bank data yet
	w := testutil.DoRequest(env.Router, http.MethodPut, "/api/v1/suppliers/"+id+"/profile",
		map[string]interface{}{
			"tax_id":  "30-55555555-1",
			"address": "Calle Falsa 123",
		}, token)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	data := testutil.ParseResponse(w)["data"].(map[string]interface{})
	if data["status"] != entity.SupplierStatusPendingCompletion {
		t.Fatalf("expected pending_completion after first edit, got %v", data["status"])
	}
	if data["profile_complete"].(bool) {
		t.Fatal("profile must not be complete without bank data")
	}

	// incomplete profiles never reach an approver
	w2 := testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/suppliers/"+id+"/submit", nil, token)
	if w2.Code != http.StatusConflict {
		t.Fatalf("expected 409 submitting incomplete profile, got %d", w2.Code)
	}

	w3 := testutil.DoRequest(env.Router, http.MethodPut, "/api/v1/suppliers/"+id+"/profile",
		map[string]interface{}{
			"bank_name":    "Banco Nacion",
			"bank_account": "0110599520000001234567",
		}, token)
	if w3.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w3.Code, w3.Body.String())
	}
	data3 := testutil.ParseResponse(w3)["data"].(map[string]interface{})
	if !data3["profile_complete"].(bool) {
		t.Fatal("expected profile complete with tax id, address and bank data")
	}

	w4 := testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/suppliers/"+id+"/submit", nil, token)
	if w4.Code != http.StatusOK {
		t.Fatalf("expected 200 submitting, got %d: %s", w4.Code, w4.Body.String())
	}

	w5 := testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/suppliers/"+id+"/approve", nil, token)
	if w5.Code != http.StatusOK {
		t.Fatalf("expected 200 approving, got %d: %s", w5.Code, w5.Body.String())
	}
	data5 := testutil.ParseResponse(w5)["data"].(map[string]interface{})
	if data5["status"] != entity.SupplierStatusActive {
		t.Fatalf("expected active, got %v", data5["status"])
	}
	if data5["approved_at"] == nil {
		t.Error("expected approved_at to be stamped")
	}
}

func TestSupplierSuspendAndReactivate(t *testing.T) {
	env := setupSupplierTest(t)
	token := testutil.DefaultTestToken()
	sup := testutil.SeedActiveSupplier(t, env.DB, "sup-s1", "Corralon Mitre")

	// suspension without a reason is refused
	w := testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/suppliers/"+sup.ID+"/suspend",
		map[string]interface{}{}, token)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without reason, got %d", w.Code)
	}

	w2 := testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/suppliers/"+sup.ID+"/suspend",
		map[string]interface{}{"reason": "repeated late deliveries"}, token)
	if w2.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w2.Code, w2.Body.String())
	}

	// suspended suppliers cannot be edited
	w3 := testutil.DoRequest(env.Router, http.MethodPut, "/api/v1/suppliers/"+sup.ID+"/profile",
		map[string]interface{}{"phone": "11-4444-5555"}, token)
	if w3.Code != http.StatusConflict {
		t.Fatalf("expected 409 editing suspended supplier, got %d", w3.Code)
	}

	w4 := testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/suppliers/"+sup.ID+"/reactivate", nil, token)
	if w4.Code != http.StatusOK {
		t.Fatalf("expected 200 reactivating, got %d: %s", w4.Code, w4.Body.String())
	}
	data := testutil.ParseResponse(w4)["data"].(map[string]interface{})
	if data["status"] != entity.SupplierStatusActive {
		t.Fatalf("expected active, got %v", data["status"])
	}
}

func TestSupplierRejectIsTerminal(t *testing.T) {
	env := setupSupplierTest(t)
	token := testutil.DefaultTestToken()
	id := inviteSupplier(t, env, token, "Proveedor Dudoso")

	testutil.DoRequest(env.Router, http.MethodPut, "/api/v1/suppliers/"+id+"/profile",
		map[string]interface{}{
			"tax_id":       "30-66666666-2",
			"address":      "Ruta 9 km 44",
			"bank_name":    "Banco Prueba",
			"bank_account": "1234567890123456789012",
		}, token)
	testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/suppliers/"+id+"/submit", nil, token)

	w := testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/suppliers/"+id+"/reject",
		map[string]interface{}{"reason": "references did not check out"}, token)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 rejecting, got %d: %s", w.Code, w.Body.String())
	}

	// no edits and no resubmission after rejection
	w2 := testutil.DoRequest(env.Router, http.MethodPut, "/api/v1/suppliers/"+id+"/profile",
		map[string]interface{}{"notes": "please reconsider"}, token)
	if w2.Code != http.StatusConflict {
		t.Fatalf("expected 409 editing rejected supplier, got %d", w2.Code)
	}
	w3 := testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/suppliers/"+id+"/submit", nil, token)
	if w3.Code != http.StatusConflict {
		t.Fatalf("expected 409 resubmitting rejected supplier, got %d", w3.Code)
	}
}

func TestSupplierContacts(t *testing.T) {
	env := setupSupplierTest(t)
	token := testutil.DefaultTestToken()
	sup := testutil.SeedActiveSupplier(t, env.DB, "sup-c1", "Electro Moreno")

	w := testutil.DoRequest(env.Router, http.MethodPost, "/api/v1/suppliers/"+sup.ID+"/contacts",
		map[string]interface{}{
			"name":       "Laura Gimenez",
			"title":      "Ventas",
			"email":      "laura@electromoreno.com",
			"is_primary": true,
		}, token)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", w.Code, w.Body.String())
	}
	contactID := testutil.ParseResponse(w)["data"].(map[string]interface{})["id"].(string)

	w2 := testutil.DoRequest(env.Router, http.MethodGet, "/api/v1/suppliers/"+sup.ID+"/contacts", nil, token)
	if w2.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w2.Code, w2.Body.String())
	}
	contacts := testutil.ParseResponse(w2)["data"].([]interface{})
	if len(contacts) != 1 {
		t.Fatalf("expected 1 contact, got %d", len(contacts))
	}

	w3 := testutil.DoRequest(env.Router, http.MethodDelete,
		"/api/v1/suppliers/"+sup.ID+"/contacts/"+contactID, nil, token)
	if w3.Code != http.StatusOK {
		t.Fatalf("expected 200 removing, got %d: %s", w3.Code, w3.Body.String())
	}
}

func TestSupplierListFiltersByStatus(t *testing.T) {
	env := setupSupplierTest(t)
	token := testutil.DefaultTestToken()
	testutil.SeedActiveSupplier(t, env.DB, "sup-f1", "Filtro Activo")
	inviteSupplier(t, env, token, "Filtro Invitado")

	w := testutil.DoRequest(env.Router, http.MethodGet, "/api/v1/suppliers?status=active", nil, token)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	data := testutil.ParseResponse(w)["data"].(map[string]interface{})
	pagination := data["pagination"].(map[string]interface{})
	if pagination["total"].(float64) != 1 {
		t.Fatalf("expected 1 active supplier, got %v", pagination["total"])
	}
	items := data["items"].([]interface{})
	if items[0].(map[string]interface{})["name"] != "Filtro Activo" {
		t.Errorf("unexpected supplier in filtered list: %v", items[0])
	}
}
