package controllers

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"concretera-backend/config"
	"concretera-backend/middlewares"
	"concretera-backend/models"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

const testSecret = "test-secret"

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	// Unique in-memory database per test to avoid cross-test collisions.
	dsn := "file:" + t.Name() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(
		&models.User{}, &models.Client{}, &models.Project{},
		&models.Product{}, &models.ProductPrice{},
		&models.Budget{}, &models.BudgetProduct{},
		&models.Payment{}, &models.Invoice{},
		&models.Notification{}, &models.AuditLog{}, &models.Setting{},
	); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	config.DB = db
	return db
}

// testRouter mirrors the production route layout for the endpoints under
// test: same middleware chain, same role gates.
func testRouter(t *testing.T) *gin.Engine {
	t.Helper()
	t.Setenv("JWT_SECRET", testSecret)
	gin.SetMode(gin.TestMode)

	r := gin.New()

	r.GET("/api/settings", GetSettings)
	r.POST("/api/webhooks/auth0", Auth0Webhook)

	api := r.Group("/api")
	api.Use(middlewares.Auth(), middlewares.Provision())

	api.POST("/budgets", CreateBudget)
	api.GET("/budgets", GetBudgets)
	api.GET("/budgets/:id", GetBudget)
	api.PUT("/budgets/:id", UpdateBudget)
	api.DELETE("/budgets/:id", DeleteBudget)
	api.POST("/budgets/:id/approve", middlewares.RequirePrivileged(), ApproveBudget)
	api.POST("/budgets/:id/reject", middlewares.RequirePrivileged(), RejectBudget)

	api.POST("/payments", CreatePayment)
	api.GET("/payments", GetPayments)
	api.POST("/payments/:id/validate", middlewares.RequirePrivileged(), ValidatePayment)
	api.POST("/payments/:id/reject", middlewares.RequirePrivileged(), RejectPayment)

	api.GET("/invoices", GetInvoices)
	api.GET("/invoices/:id", GetInvoice)
	api.POST("/invoices/:id/document", middlewares.RequirePrivileged(), UploadInvoiceDocument)

	api.POST("/clients", CreateClient)
	api.GET("/clients", GetClients)
	api.DELETE("/clients/:id", DeleteClient)

	api.GET("/notifications", GetNotifications)

	api.POST("/settings", middlewares.RequireRoles(models.RoleAdministrador), UpsertSetting)

	return r
}

// signToken issues an HS256 token the way the identity provider would,
// with the namespaced roles claim.
func signToken(t *testing.T, sub, email, name string, roles ...string) string {
	t.Helper()
	claims := jwt.MapClaims{
		"sub":   sub,
		"email": email,
		"name":  name,
		"exp":   time.Now().Add(time.Hour).Unix(),
	}
	if len(roles) > 0 {
		arr := make([]interface{}, len(roles))
		for i, r := range roles {
			arr[i] = r
		}
		claims[models.RolesClaim] = arr
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func doJSON(t *testing.T, r *gin.Engine, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeJSON(t *testing.T, w *httptest.ResponseRecorder, out interface{}) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), out); err != nil {
		t.Fatalf("decode response %q: %v", w.Body.String(), err)
	}
}

func seedClient(t *testing.T, db *gorm.DB, ownerID string) models.Client {
	t.Helper()
	client := models.Client{
		OwnerID: ownerID,
		Name:    "Constructora Miranda",
		Rif:     "J-12345678-9",
		Address: "Av. Bolívar, Valencia",
	}
	if err := db.Create(&client).Error; err != nil {
		t.Fatalf("seed client: %v", err)
	}
	return client
}

func seedProduct(t *testing.T, db *gorm.DB, name string, price float64) models.Product {
	t.Helper()
	product := models.Product{Name: name, Price: price, Type: "concreto", Unit: "m3", IsActive: true}
	if err := db.Create(&product).Error; err != nil {
		t.Fatalf("seed product: %v", err)
	}
	return product
}

func seedBudget(t *testing.T, db *gorm.DB, creatorID string, clientID uuid.UUID, status models.BudgetStatus, total float64) models.Budget {
	t.Helper()
	budget := models.Budget{
		Title:      "Losa nivel 2",
		Status:     status,
		Total:      total,
		ValidUntil: time.Now().AddDate(0, 0, 5),
		CreatorID:  creatorID,
		ClientID:   clientID,
	}
	if err := db.Create(&budget).Error; err != nil {
		t.Fatalf("seed budget: %v", err)
	}
	return budget
}

func countRows(t *testing.T, db *gorm.DB, model interface{}, query string, args ...interface{}) int64 {
	t.Helper()
	var n int64
	q := db.Model(model)
	if query != "" {
		q = q.Where(query, args...)
	}
	if err := q.Count(&n).Error; err != nil {
		t.Fatalf("count: %v", err)
	}
	return n
}

// nextWeekday returns the next occurrence of the given weekday, at least
// one day out.
func nextWeekday(day time.Weekday) time.Time {
	d := time.Now().AddDate(0, 0, 1)
	for d.Weekday() != day {
		d = d.AddDate(0, 0, 1)
	}
	return d
}
