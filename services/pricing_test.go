package services

import (
	"errors"
	"testing"
	"time"

	"concretera-backend/models"

	"github.com/google/uuid"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func pricingDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := "file:" + t.Name() + "?mode=memory&cache=shared"
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	if err := db.AutoMigrate(&models.Product{}, &models.ProductPrice{}); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	return db
}

func pricingProduct(t *testing.T, db *gorm.DB, price float64) models.Product {
	t.Helper()
	p := models.Product{Name: "Concreto 250", Price: price, Type: "concreto"}
	if err := db.Create(&p).Error; err != nil {
		t.Fatalf("create product: %v", err)
	}
	return p
}

func TestResolveLinesCatalogFallback(t *testing.T) {
	db := pricingDB(t)
	p := pricingProduct(t, db, 120)

	items, total, err := ResolveLines(db, []LineInput{{ProductID: p.ID, Quantity: 3}}, false, time.Now())
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if total != 360 {
		t.Fatalf("expected 360 got %.2f", total)
	}
	if items[0].UnitPrice != 120 || items[0].ProductName != "Concreto 250" {
		t.Fatalf("unexpected line: %+v", items[0])
	}
}

func TestResolveLinesHistoricalPrice(t *testing.T) {
	db := pricingDB(t)
	p := pricingProduct(t, db, 120)

	// Two history entries; the one at-or-before the reference date wins.
	old := models.ProductPrice{ProductID: p.ID, Date: time.Now().AddDate(0, -2, 0), Price: 100}
	recent := models.ProductPrice{ProductID: p.ID, Date: time.Now().AddDate(0, 0, 10), Price: 150}
	if err := db.Create(&old).Error; err != nil {
		t.Fatalf("create price: %v", err)
	}
	if err := db.Create(&recent).Error; err != nil {
		t.Fatalf("create price: %v", err)
	}

	_, total, err := ResolveLines(db, []LineInput{{ProductID: p.ID, Quantity: 1}}, false, time.Now())
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if total != 100 {
		t.Fatalf("expected historical 100 got %.2f", total)
	}

	// A reference date past the future entry picks it up.
	_, total, err = ResolveLines(db, []LineInput{{ProductID: p.ID, Quantity: 1}}, false, time.Now().AddDate(0, 0, 15))
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if total != 150 {
		t.Fatalf("expected future-dated 150 got %.2f", total)
	}
}

func TestResolveLinesPrivilegedOverride(t *testing.T) {
	db := pricingDB(t)
	p := pricingProduct(t, db, 120)

	override := 90.0
	lines := []LineInput{{ProductID: p.ID, Quantity: 2, UnitPrice: &override}}

	_, total, err := ResolveLines(db, lines, true, time.Now())
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if total != 180 {
		t.Fatalf("expected override total 180 got %.2f", total)
	}

	// Same input without privilege falls back to the catalog.
	_, total, err = ResolveLines(db, lines, false, time.Now())
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if total != 240 {
		t.Fatalf("expected catalog total 240 got %.2f", total)
	}
}

func TestResolveLinesUnknownProduct(t *testing.T) {
	db := pricingDB(t)

	_, _, err := ResolveLines(db, []LineInput{{ProductID: uuid.New(), Quantity: 1}}, false, time.Now())
	if !errors.Is(err, ErrProductNotFound) {
		t.Fatalf("expected ErrProductNotFound got %v", err)
	}
}
