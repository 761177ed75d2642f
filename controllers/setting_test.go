package controllers

import (
	"net/http"
	"testing"

	"concretera-backend/models"
)

func TestGetSettingsIsPublic(t *testing.T) {
	db := setupTestDB(t)
	r := testRouter(t)

	if err := db.Create(&models.Setting{Key: "company_name", Value: "Concretera C.A."}).Error; err != nil {
		t.Fatalf("seed setting: %v", err)
	}

	w := doJSON(t, r, http.MethodGet, "/api/settings", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 without token got %d", w.Code)
	}
	var settings map[string]string
	decodeJSON(t, w, &settings)
	if settings["company_name"] != "Concretera C.A." {
		t.Fatalf("unexpected settings: %+v", settings)
	}
}

func TestUpsertSettingAdminOnly(t *testing.T) {
	db := setupTestDB(t)
	r := testRouter(t)

	body := map[string]interface{}{"key": "igtf_rate", "value": "0.03"}

	w := doJSON(t, r, http.MethodPost, "/api/settings", "", body)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token got %d", w.Code)
	}

	cliente := signToken(t, "auth0|cliente1", "cliente@test.com", "Cliente Uno")
	w = doJSON(t, r, http.MethodPost, "/api/settings", cliente, body)
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403 for Cliente got %d", w.Code)
	}

	admin := signToken(t, "auth0|admin1", "admin@test.com", "Admin", models.RoleAdministrador)
	w = doJSON(t, r, http.MethodPost, "/api/settings", admin, body)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", w.Code, w.Body.String())
	}

	// Upsert overwrites in place.
	body["value"] = "0.04"
	w = doJSON(t, r, http.MethodPost, "/api/settings", admin, body)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 on overwrite got %d: %s", w.Code, w.Body.String())
	}

	var setting models.Setting
	if err := db.First(&setting, "key = ?", "igtf_rate").Error; err != nil {
		t.Fatalf("setting not stored: %v", err)
	}
	if setting.Value != "0.04" {
		t.Fatalf("expected overwritten value 0.04 got %s", setting.Value)
	}
	if n := countRows(t, db, &models.Setting{}, ""); n != 1 {
		t.Fatalf("expected a single row after upsert, got %d", n)
	}
}
