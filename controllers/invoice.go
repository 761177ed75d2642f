package controllers

import (
	"errors"
	"net/http"

	"concretera-backend/config"
	"concretera-backend/models"
	"concretera-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GetInvoices lists invoices visible to the caller.
func GetInvoices(c *gin.Context) {
	query := config.DB.Model(&models.Invoice{})

	if !isPrivileged(c) {
		query = query.Joins("JOIN budgets ON budgets.id = invoices.budget_id").
			Where("budgets.creator_id = ?", currentUserID(c))
	}
	if status := c.Query("status"); status != "" {
		query = query.Where("invoices.status = ?", status)
	}

	var invoices []models.Invoice
	if err := query.Order("invoices.created_at DESC").Find(&invoices).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to retrieve invoices")
		return
	}

	c.JSON(http.StatusOK, invoices)
}

// GetInvoice retrieves an invoice with an ownership check.
func GetInvoice(c *gin.Context) {
	invoice, ok := findInvoice(c)
	if !ok {
		return
	}

	if !isPrivileged(c) {
		var budget models.Budget
		if err := config.DB.First(&budget, "id = ?", invoice.BudgetID).Error; err != nil ||
			budget.CreatorID != currentUserID(c) {
			utils.RespondWithError(c, http.StatusForbidden, "Not your invoice")
			return
		}
	}

	c.JSON(http.StatusOK, invoice)
}

// UploadInvoiceDocument attaches the official fiscal document and moves
// the invoice out of PROFORMA. One-way.
func UploadInvoiceDocument(c *gin.Context) {
	invoice, ok := findInvoice(c)
	if !ok {
		return
	}

	if invoice.Status != models.InvoiceProforma {
		utils.RespondWithError(c, http.StatusBadRequest, "Invoice is already fiscal")
		return
	}

	url, err := utils.SaveUpload(c, "file", "invoices", invoice.ID.String())
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Upload failed: "+err.Error())
		return
	}

	invoice.DocumentURL = url
	invoice.Status = models.InvoiceFiscalIssued
	if err := config.DB.Save(&invoice).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to update invoice")
		return
	}

	utils.Audit(config.DB, currentUserID(c), "invoice.fiscal", "invoice", invoice.ID.String(), invoice.Number)

	c.JSON(http.StatusOK, invoice)
}

func findInvoice(c *gin.Context) (models.Invoice, bool) {
	var invoice models.Invoice

	invoiceUUID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid invoice ID format")
		return invoice, false
	}

	if err := config.DB.First(&invoice, "id = ?", invoiceUUID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondWithError(c, http.StatusNotFound, "Invoice not found")
		} else {
			utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		}
		return invoice, false
	}

	return invoice, true
}
