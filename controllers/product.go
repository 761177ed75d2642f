package controllers

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"concretera-backend/config"
	"concretera-backend/models"
	"concretera-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// CreateProductInput defines the expected JSON structure for creating a product
type CreateProductInput struct {
	Name        string  `json:"name" binding:"required"`
	Description string  `json:"description"`
	Price       float64 `json:"price" binding:"required,gt=0"`
	Type        string  `json:"type"`
	Category    string  `json:"category"`
	Unit        string  `json:"unit"`
}

// UpdateProductInput defines the expected JSON structure for updating a product
type UpdateProductInput struct {
	Name        *string  `json:"name"`
	Description *string  `json:"description"`
	Price       *float64 `json:"price" binding:"omitempty,gt=0"`
	Type        *string  `json:"type"`
	Category    *string  `json:"category"`
	Unit        *string  `json:"unit"`
	IsActive    *bool    `json:"isActive"`
}

// AddProductPriceInput backdates or schedules a historical price entry.
type AddProductPriceInput struct {
	Price float64    `json:"price" binding:"required,gt=0"`
	Date  *time.Time `json:"date"`
}

// CreateProduct adds a catalog product.
func CreateProduct(c *gin.Context) {
	var input CreateProductInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	product := models.Product{
		Name:        input.Name,
		Description: input.Description,
		Price:       input.Price,
		Type:        input.Type,
		Category:    input.Category,
		Unit:        input.Unit,
		IsActive:    true,
	}

	if err := config.DB.Create(&product).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to create product")
		return
	}

	c.JSON(http.StatusCreated, product)
}

// GetProducts retrieves the catalog.
func GetProducts(c *gin.Context) {
	query := config.DB.Model(&models.Product{})
	if t := c.Query("type"); t != "" {
		query = query.Where("type = ?", t)
	}

	var products []models.Product
	if err := query.Order("name").Find(&products).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to retrieve products")
		return
	}

	c.JSON(http.StatusOK, products)
}

// GetProduct retrieves a specific product by ID.
func GetProduct(c *gin.Context) {
	product, ok := findProduct(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, product)
}

// UpdateProduct updates a product. A price change appends a history entry
// dated now; the old rows are never touched.
func UpdateProduct(c *gin.Context) {
	product, ok := findProduct(c)
	if !ok {
		return
	}

	var input UpdateProductInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	priceChanged := input.Price != nil && *input.Price != product.Price

	if input.Name != nil {
		product.Name = *input.Name
	}
	if input.Description != nil {
		product.Description = *input.Description
	}
	if input.Price != nil {
		product.Price = *input.Price
	}
	if input.Type != nil {
		product.Type = *input.Type
	}
	if input.Category != nil {
		product.Category = *input.Category
	}
	if input.Unit != nil {
		product.Unit = *input.Unit
	}
	if input.IsActive != nil {
		product.IsActive = *input.IsActive
	}

	tx := config.DB.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	if err := tx.Save(&product).Error; err != nil {
		tx.Rollback()
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to update product")
		return
	}

	if priceChanged {
		entry := models.ProductPrice{
			ProductID: product.ID,
			Date:      time.Now(),
			Price:     *input.Price,
		}
		if err := tx.Create(&entry).Error; err != nil {
			tx.Rollback()
			utils.RespondWithError(c, http.StatusInternalServerError, "Failed to record price history")
			return
		}
		utils.Audit(tx, currentUserID(c), "product.price", "product", product.ID.String(),
			fmt.Sprintf("price=%.2f", *input.Price))
	}

	tx.Commit()

	c.JSON(http.StatusOK, product)
}

// AddProductPrice appends a historical price entry with an explicit date.
func AddProductPrice(c *gin.Context) {
	product, ok := findProduct(c)
	if !ok {
		return
	}

	var input AddProductPriceInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	date := time.Now()
	if input.Date != nil {
		date = *input.Date
	}

	entry := models.ProductPrice{
		ProductID: product.ID,
		Date:      date,
		Price:     input.Price,
	}
	if err := config.DB.Create(&entry).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to record price")
		return
	}

	c.JSON(http.StatusCreated, entry)
}

// GetProductPrices lists a product's price history, newest first.
func GetProductPrices(c *gin.Context) {
	product, ok := findProduct(c)
	if !ok {
		return
	}

	var prices []models.ProductPrice
	if err := config.DB.Where("product_id = ?", product.ID).
		Order("date DESC").Find(&prices).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to retrieve price history")
		return
	}

	c.JSON(http.StatusOK, prices)
}

// DeleteProduct removes a catalog product. Line items keep the product
// name snapshot, so past budgets are unaffected.
func DeleteProduct(c *gin.Context) {
	product, ok := findProduct(c)
	if !ok {
		return
	}

	tx := config.DB.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	if err := tx.Where("product_id = ?", product.ID).Delete(&models.ProductPrice{}).Error; err != nil {
		tx.Rollback()
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to delete price history")
		return
	}
	if err := tx.Delete(&product).Error; err != nil {
		tx.Rollback()
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to delete product")
		return
	}

	utils.Audit(tx, currentUserID(c), "product.delete", "product", product.ID.String(), product.Name)

	tx.Commit()

	c.JSON(http.StatusOK, gin.H{"message": "Product deleted successfully"})
}

func findProduct(c *gin.Context) (models.Product, bool) {
	var product models.Product

	productUUID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid product ID format")
		return product, false
	}

	if err := config.DB.First(&product, "id = ?", productUUID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondWithError(c, http.StatusNotFound, "Product not found")
		} else {
			utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		}
		return product, false
	}

	return product, true
}
