package controllers

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"concretera-backend/config"
	"concretera-backend/models"
	"concretera-backend/services"
	"concretera-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// igtfRate is the Venezuelan foreign-currency transaction surcharge.
const igtfRate = 0.03

// overpayTolerance absorbs cent-level float drift when comparing against
// the pending balance.
const overpayTolerance = 0.01

// CreatePaymentInput accepts either a direct USD amount or a VES amount
// plus the exchange rate used to convert it.
type CreatePaymentInput struct {
	BudgetID     uuid.UUID `json:"budgetId" binding:"required"`
	Currency     string    `json:"currency" binding:"omitempty,oneof=USD VES"`
	PaidAmount   float64   `json:"paidAmount" binding:"omitempty,gt=0"`
	AmountVES    float64   `json:"amountVes" binding:"omitempty,gt=0"`
	ExchangeRate float64   `json:"exchangeRate" binding:"omitempty,gt=0"`
	ApplyIGTF    bool      `json:"applyIgtf"`
	Method       string    `json:"method"`
	Reference    string    `json:"reference"`
}

type RejectPaymentInput struct {
	Reason string `json:"reason"`
}

// CreatePayment records a partial payment against an approved budget.
func CreatePayment(c *gin.Context) {
	userID := currentUserID(c)
	privileged := isPrivileged(c)

	var input CreatePaymentInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}
	if input.Currency == "" {
		input.Currency = "USD"
	}

	var budget models.Budget
	if err := config.DB.First(&budget, "id = ?", input.BudgetID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondWithError(c, http.StatusNotFound, "Budget not found")
		} else {
			utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		}
		return
	}

	if !privileged && budget.CreatorID != userID {
		utils.RespondWithError(c, http.StatusForbidden, "Not your budget")
		return
	}
	if budget.Status != models.BudgetApproved {
		utils.RespondWithError(c, http.StatusBadRequest, "Payments require an approved budget")
		return
	}

	var paid float64
	switch input.Currency {
	case "VES":
		if input.AmountVES <= 0 || input.ExchangeRate <= 0 {
			utils.RespondWithError(c, http.StatusBadRequest, "VES payments need amountVes and exchangeRate")
			return
		}
		paid = utils.Round2(input.AmountVES / input.ExchangeRate)
	default:
		if input.PaidAmount <= 0 {
			utils.RespondWithError(c, http.StatusBadRequest, "paidAmount is required for USD payments")
			return
		}
		paid = utils.Round2(input.PaidAmount)
	}

	pendingBefore, err := pendingBalance(config.DB, budget)
	if err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to compute pending balance")
		return
	}
	if paid > pendingBefore+overpayTolerance {
		utils.RespondWithError(c, http.StatusBadRequest,
			fmt.Sprintf("Payment of %.2f exceeds pending balance of %.2f", paid, pendingBefore))
		return
	}

	var igtf float64
	if input.ApplyIGTF && input.Currency == "USD" {
		igtf = utils.Round2(paid * igtfRate)
	}

	payment := models.Payment{
		BudgetID:     budget.ID,
		Status:       models.PaymentPending,
		Amount:       budget.Total,
		PaidAmount:   paid,
		Pending:      utils.Round2(pendingBefore - paid),
		Currency:     input.Currency,
		ExchangeRate: input.ExchangeRate,
		IGTFAmount:   igtf,
		Method:       input.Method,
		Reference:    input.Reference,
	}

	if err := config.DB.Create(&payment).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to create payment")
		return
	}

	utils.Audit(config.DB, userID, "payment.create", "payment", payment.ID.String(),
		fmt.Sprintf("budget=%s paid=%.2f pending=%.2f", budget.ID, paid, payment.Pending))

	c.JSON(http.StatusCreated, payment)
}

// pendingBalance is the budget total minus everything already paid or
// awaiting validation. Rejected payments do not count.
func pendingBalance(db *gorm.DB, budget models.Budget) (float64, error) {
	var paidSoFar float64
	err := db.Model(&models.Payment{}).
		Where("budget_id = ? AND status <> ?", budget.ID, models.PaymentRejected).
		Select("COALESCE(SUM(paid_amount), 0)").
		Scan(&paidSoFar).Error
	return utils.Round2(budget.Total - paidSoFar), err
}

// GetPayments lists payments visible to the caller.
func GetPayments(c *gin.Context) {
	query := config.DB.Preload("Invoice")

	if !isPrivileged(c) {
		query = query.Joins("JOIN budgets ON budgets.id = payments.budget_id").
			Where("budgets.creator_id = ?", currentUserID(c))
	}
	if status := c.Query("status"); status != "" {
		query = query.Where("payments.status = ?", status)
	}

	var payments []models.Payment
	if err := query.Order("payments.created_at DESC").Find(&payments).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to retrieve payments")
		return
	}

	c.JSON(http.StatusOK, payments)
}

// GetPayment retrieves a payment with an ownership check.
func GetPayment(c *gin.Context) {
	payment, budget, ok := findPayment(c, config.DB)
	if !ok {
		return
	}
	if !isPrivileged(c) && budget.CreatorID != currentUserID(c) {
		utils.RespondWithError(c, http.StatusForbidden, "Not your payment")
		return
	}
	c.JSON(http.StatusOK, payment)
}

// ValidatePayment confirms a pending payment. The proforma invoice, the
// notification and the status change commit together.
func ValidatePayment(c *gin.Context) {
	userID := currentUserID(c)

	tx := config.DB.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	payment, budget, ok := findPayment(c, tx)
	if !ok {
		tx.Rollback()
		return
	}
	if payment.Status != models.PaymentPending {
		tx.Rollback()
		utils.RespondWithError(c, http.StatusBadRequest, "Only pending payments can be validated")
		return
	}

	payment.Status = models.PaymentValidated
	payment.ValidatedByID = &userID
	if err := tx.Save(&payment).Error; err != nil {
		tx.Rollback()
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to validate payment")
		return
	}

	invoice := models.Invoice{
		Number:    "INV-" + time.Now().Format("20060102") + "-" + utils.GenerateRandomString(6),
		PaymentID: payment.ID,
		BudgetID:  budget.ID,
		Status:    models.InvoiceProforma,
		Amount:    payment.PaidAmount,
	}
	if err := tx.Create(&invoice).Error; err != nil {
		tx.Rollback()
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to create invoice")
		return
	}

	budgetID := budget.ID
	msg := fmt.Sprintf("Pago de %.2f USD validado para %q, factura %s",
		payment.PaidAmount, budget.Title, invoice.Number)
	notification, err := services.Notify(tx, budget.CreatorID, "payment.validated", msg, &budgetID)
	if err != nil {
		tx.Rollback()
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to create notification")
		return
	}

	utils.Audit(tx, userID, "payment.validate", "payment", payment.ID.String(), invoice.Number)

	tx.Commit()

	services.Dispatch(config.DB, notification)

	var creator models.User
	if err := config.DB.First(&creator, "id = ?", budget.CreatorID).Error; err == nil {
		services.SendMailAsync(creator.Email, "Pago validado: "+budget.Title, msg)
	}

	payment.Invoice = &invoice
	c.JSON(http.StatusOK, payment)
}

// RejectPayment marks a pending payment as rejected, freeing its amount
// from the budget's paid balance. Status, notification and audit entry
// commit together, same as validation.
func RejectPayment(c *gin.Context) {
	userID := currentUserID(c)

	// reason is optional; an empty body is fine
	var input RejectPaymentInput
	_ = c.ShouldBindJSON(&input)

	tx := config.DB.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	payment, budget, ok := findPayment(c, tx)
	if !ok {
		tx.Rollback()
		return
	}
	if payment.Status != models.PaymentPending {
		tx.Rollback()
		utils.RespondWithError(c, http.StatusBadRequest, "Only pending payments can be rejected")
		return
	}

	payment.Status = models.PaymentRejected
	payment.ValidatedByID = &userID
	payment.RejectionReason = input.Reason
	if err := tx.Save(&payment).Error; err != nil {
		tx.Rollback()
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to reject payment")
		return
	}

	budgetID := budget.ID
	msg := fmt.Sprintf("Pago de %.2f USD rechazado para %q", payment.PaidAmount, budget.Title)
	notification, err := services.Notify(tx, budget.CreatorID, "payment.rejected", msg, &budgetID)
	if err != nil {
		tx.Rollback()
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to create notification")
		return
	}

	utils.Audit(tx, userID, "payment.reject", "payment", payment.ID.String(), input.Reason)

	tx.Commit()

	services.Dispatch(config.DB, notification)

	c.JSON(http.StatusOK, payment)
}

// UploadPaymentReceipt attaches a receipt file to a payment.
func UploadPaymentReceipt(c *gin.Context) {
	payment, budget, ok := findPayment(c, config.DB)
	if !ok {
		return
	}
	if !isPrivileged(c) && budget.CreatorID != currentUserID(c) {
		utils.RespondWithError(c, http.StatusForbidden, "Not your payment")
		return
	}

	url, err := utils.SaveUpload(c, "file", "payments", payment.ID.String())
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Upload failed: "+err.Error())
		return
	}

	payment.ReceiptURL = url
	if err := config.DB.Save(&payment).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to store receipt")
		return
	}

	c.JSON(http.StatusOK, payment)
}

// DeletePayment removes a payment and its invoice. Administrador only
// (enforced at the route).
func DeletePayment(c *gin.Context) {
	userID := currentUserID(c)

	tx := config.DB.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	payment, _, ok := findPayment(c, tx)
	if !ok {
		tx.Rollback()
		return
	}

	if err := tx.Where("payment_id = ?", payment.ID).Delete(&models.Invoice{}).Error; err != nil {
		tx.Rollback()
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to delete invoice")
		return
	}
	if err := tx.Delete(&payment).Error; err != nil {
		tx.Rollback()
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to delete payment")
		return
	}

	utils.Audit(tx, userID, "payment.delete", "payment", payment.ID.String(), "")

	tx.Commit()

	c.JSON(http.StatusOK, gin.H{"message": "Payment deleted successfully"})
}

// findPayment loads the payment and its budget, answering 400/404 itself.
func findPayment(c *gin.Context, db *gorm.DB) (models.Payment, models.Budget, bool) {
	var payment models.Payment
	var budget models.Budget

	paymentUUID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid payment ID format")
		return payment, budget, false
	}

	if err := db.Preload("Invoice").First(&payment, "id = ?", paymentUUID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondWithError(c, http.StatusNotFound, "Payment not found")
		} else {
			utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		}
		return payment, budget, false
	}

	if err := db.First(&budget, "id = ?", payment.BudgetID).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		return payment, budget, false
	}

	return payment, budget, true
}
