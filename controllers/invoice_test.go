package controllers

import (
	"bytes"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"concretera-backend/models"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func uploadFile(t *testing.T, r *gin.Engine, path, token, field, filename string, content []byte) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile(field, filename)
	if err != nil {
		t.Fatalf("form file: %v", err)
	}
	if _, err := fw.Write(content); err != nil {
		t.Fatalf("write form file: %v", err)
	}
	mw.Close()

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func seedInvoice(t *testing.T, db *gorm.DB, creatorID string) models.Invoice {
	t.Helper()
	client := seedClient(t, db, creatorID)
	budget := seedBudget(t, db, creatorID, client.ID, models.BudgetApproved, 500)
	payment := models.Payment{BudgetID: budget.ID, Status: models.PaymentValidated, Amount: 500, PaidAmount: 500}
	if err := db.Create(&payment).Error; err != nil {
		t.Fatalf("seed payment: %v", err)
	}
	invoice := models.Invoice{
		Number:    "INV-20260831-" + creatorID[len(creatorID)-2:],
		PaymentID: payment.ID,
		BudgetID:  budget.ID,
		Status:    models.InvoiceProforma,
		Amount:    500,
	}
	if err := db.Create(&invoice).Error; err != nil {
		t.Fatalf("seed invoice: %v", err)
	}
	return invoice
}

func TestUploadInvoiceDocumentIsOneWay(t *testing.T) {
	db := setupTestDB(t)
	r := testRouter(t)
	t.Setenv("UPLOAD_DIR", t.TempDir())

	invoice := seedInvoice(t, db, "auth0|c1")
	contable := signToken(t, "auth0|contable1", "contable@test.com", "Contable", models.RoleContable)

	path := "/api/invoices/" + invoice.ID.String() + "/document"
	w := uploadFile(t, r, path, contable, "file", "factura.pdf", []byte("%PDF-1.4 fiscal"))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", w.Code, w.Body.String())
	}

	var got models.Invoice
	decodeJSON(t, w, &got)
	if got.Status != models.InvoiceFiscalIssued {
		t.Fatalf("expected FISCAL_ISSUED got %s", got.Status)
	}
	if got.DocumentURL == "" {
		t.Fatal("document URL not stored")
	}

	// Already fiscal: the transition is one-way.
	w = uploadFile(t, r, path, contable, "file", "factura2.pdf", []byte("%PDF-1.4 again"))
	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 on second upload got %d: %s", w.Code, w.Body.String())
	}

	if err := db.First(&got, "id = ?", invoice.ID).Error; err != nil {
		t.Fatalf("load invoice: %v", err)
	}
	if got.Status != models.InvoiceFiscalIssued {
		t.Fatalf("status changed on rejected upload: %s", got.Status)
	}
}

func TestUploadInvoiceDocumentForbiddenForCliente(t *testing.T) {
	db := setupTestDB(t)
	r := testRouter(t)
	t.Setenv("UPLOAD_DIR", t.TempDir())

	invoice := seedInvoice(t, db, "auth0|c1")
	cliente := signToken(t, "auth0|c1", "c1@test.com", "Cliente Uno")

	w := uploadFile(t, r, "/api/invoices/"+invoice.ID.String()+"/document", cliente,
		"file", "factura.pdf", []byte("x"))
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403 got %d", w.Code)
	}
}

func TestGetInvoicesScopedToCreator(t *testing.T) {
	db := setupTestDB(t)
	r := testRouter(t)

	mine := seedInvoice(t, db, "auth0|a1")
	other := seedInvoice(t, db, "auth0|b1")

	tokenA := signToken(t, "auth0|a1", "a1@test.com", "A")
	w := doJSON(t, r, http.MethodGet, "/api/invoices", tokenA, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", w.Code, w.Body.String())
	}
	var invoices []models.Invoice
	decodeJSON(t, w, &invoices)
	if len(invoices) != 1 || invoices[0].ID != mine.ID {
		t.Fatalf("expected only own invoice, got %+v", invoices)
	}

	// Fetching someone else's invoice directly is forbidden.
	w = doJSON(t, r, http.MethodGet, "/api/invoices/"+other.ID.String(), tokenA, nil)
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403 got %d", w.Code)
	}

	contable := signToken(t, "auth0|contable1", "contable@test.com", "Contable", models.RoleContable)
	w = doJSON(t, r, http.MethodGet, "/api/invoices", contable, nil)
	decodeJSON(t, w, &invoices)
	if len(invoices) != 2 {
		t.Fatalf("expected 2 invoices for Contable, got %d", len(invoices))
	}
}
