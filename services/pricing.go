package services

import (
	"errors"
	"fmt"
	"time"

	"concretera-backend/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ErrProductNotFound identifies a line item pointing at a product that
// does not exist.
var ErrProductNotFound = errors.New("product not found")

// LineInput is one requested budget line.
type LineInput struct {
	ProductID uuid.UUID `json:"productId" binding:"required"`
	Quantity  float64   `json:"quantity" binding:"required,gt=0"`
	UnitPrice *float64  `json:"unitPrice" binding:"omitempty,gt=0"`
}

// ResolveLines prices each line and returns the built items plus the sum.
// Price priority per line: explicit override when the caller is privileged,
// then the latest historical price dated at or before refDate, then the
// current catalog price.
func ResolveLines(db *gorm.DB, lines []LineInput, privileged bool, refDate time.Time) ([]models.BudgetProduct, float64, error) {
	var items []models.BudgetProduct
	var total float64

	for _, line := range lines {
		var product models.Product
		if err := db.First(&product, "id = ?", line.ProductID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, 0, fmt.Errorf("%w: %s", ErrProductNotFound, line.ProductID)
			}
			return nil, 0, err
		}

		unitPrice := product.Price
		if privileged && line.UnitPrice != nil {
			unitPrice = *line.UnitPrice
		} else if historical, ok := priceAsOf(db, product.ID, refDate); ok {
			unitPrice = historical
		}

		itemTotal := unitPrice * line.Quantity
		total += itemTotal

		items = append(items, models.BudgetProduct{
			ProductID:   product.ID,
			ProductName: product.Name,
			Quantity:    line.Quantity,
			UnitPrice:   unitPrice,
			TotalPrice:  itemTotal,
		})
	}

	return items, total, nil
}

// priceAsOf returns the most recent historical price dated at or before
// the reference date, if any exists.
func priceAsOf(db *gorm.DB, productID uuid.UUID, ref time.Time) (float64, bool) {
	var entry models.ProductPrice
	err := db.Where("product_id = ? AND date <= ?", productID, ref).
		Order("date DESC").
		First(&entry).Error
	if err != nil {
		return 0, false
	}
	return entry.Price, true
}
