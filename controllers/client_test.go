package controllers

import (
	"net/http"
	"testing"

	"concretera-backend/models"
)

func TestCreateClientOwnedByCaller(t *testing.T) {
	setupTestDB(t)
	r := testRouter(t)

	token := signToken(t, "auth0|cliente1", "cliente@test.com", "Cliente Uno")
	w := doJSON(t, r, http.MethodPost, "/api/clients", token, map[string]interface{}{
		"name": "Inversiones Carabobo",
		"rif":  "J-98765432-1",
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", w.Code, w.Body.String())
	}

	var client models.Client
	decodeJSON(t, w, &client)
	if client.OwnerID != "auth0|cliente1" {
		t.Fatalf("expected owner auth0|cliente1 got %s", client.OwnerID)
	}
}

func TestCreateClientRejectsBadPhone(t *testing.T) {
	setupTestDB(t)
	r := testRouter(t)

	token := signToken(t, "auth0|cliente1", "cliente@test.com", "Cliente Uno")
	w := doJSON(t, r, http.MethodPost, "/api/clients", token, map[string]interface{}{
		"name":  "Inversiones Carabobo",
		"phone": "not-a-phone",
	})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d: %s", w.Code, w.Body.String())
	}
}

func TestGetClientsScopedToOwner(t *testing.T) {
	db := setupTestDB(t)
	r := testRouter(t)

	seedClient(t, db, "auth0|a")
	seedClient(t, db, "auth0|b")

	tokenA := signToken(t, "auth0|a", "a@test.com", "A")
	w := doJSON(t, r, http.MethodGet, "/api/clients", tokenA, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", w.Code)
	}
	var clients []models.Client
	decodeJSON(t, w, &clients)
	if len(clients) != 1 || clients[0].OwnerID != "auth0|a" {
		t.Fatalf("expected only own clients, got %+v", clients)
	}

	admin := signToken(t, "auth0|admin1", "admin@test.com", "Admin", models.RoleAdministrador)
	w = doJSON(t, r, http.MethodGet, "/api/clients", admin, nil)
	decodeJSON(t, w, &clients)
	if len(clients) != 2 {
		t.Fatalf("expected 2 clients for Administrador, got %d", len(clients))
	}
}

func TestDeleteClientWithBudgets(t *testing.T) {
	db := setupTestDB(t)
	r := testRouter(t)

	client := seedClient(t, db, "auth0|cliente1")
	budget := seedBudget(t, db, "auth0|cliente1", client.ID, models.BudgetApproved, 500)
	payment := models.Payment{BudgetID: budget.ID, Amount: 500, PaidAmount: 500, Pending: 0}
	if err := db.Create(&payment).Error; err != nil {
		t.Fatalf("seed payment: %v", err)
	}

	// The owner cannot delete a client that has budgets.
	owner := signToken(t, "auth0|cliente1", "cliente@test.com", "Cliente Uno")
	w := doJSON(t, r, http.MethodDelete, "/api/clients/"+client.ID.String(), owner, nil)
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for owner got %d: %s", w.Code, w.Body.String())
	}

	admin := signToken(t, "auth0|admin1", "admin@test.com", "Admin", models.RoleAdministrador)
	w = doJSON(t, r, http.MethodDelete, "/api/clients/"+client.ID.String(), admin, nil)
	if w.Code != http.StatusNoContent {
		t.Fatalf("expected 204 got %d: %s", w.Code, w.Body.String())
	}

	if n := countRows(t, db, &models.Client{}, ""); n != 0 {
		t.Fatalf("client not deleted, %d left", n)
	}
	if n := countRows(t, db, &models.Budget{}, ""); n != 0 {
		t.Fatalf("budgets not cascaded, %d left", n)
	}
	if n := countRows(t, db, &models.Payment{}, ""); n != 0 {
		t.Fatalf("payments not cascaded, %d left", n)
	}
}

func TestDeleteClientWithoutBudgets(t *testing.T) {
	db := setupTestDB(t)
	r := testRouter(t)

	client := seedClient(t, db, "auth0|cliente1")

	owner := signToken(t, "auth0|cliente1", "cliente@test.com", "Cliente Uno")
	w := doJSON(t, r, http.MethodDelete, "/api/clients/"+client.ID.String(), owner, nil)
	if w.Code != http.StatusNoContent {
		t.Fatalf("expected 204 got %d: %s", w.Code, w.Body.String())
	}
}
