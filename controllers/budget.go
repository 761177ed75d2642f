package controllers

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"time"

	"concretera-backend/config"
	"concretera-backend/models"
	"concretera-backend/services"
	"concretera-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const defaultValidDays = 5

// CreateBudgetInput defines the expected JSON structure for creating a budget
type CreateBudgetInput struct {
	Title        string               `json:"title" binding:"required"`
	ClientID     uuid.UUID            `json:"clientId" binding:"required"`
	Observations string               `json:"observations" binding:"required"`
	DeliveryDate *time.Time           `json:"deliveryDate"`
	ValidUntil   *time.Time           `json:"validUntil"`
	Products     []services.LineInput `json:"products" binding:"required,min=1,dive"`
}

// UpdateBudgetInput defines the expected JSON structure for updating a budget
type UpdateBudgetInput struct {
	Title        *string               `json:"title"`
	ClientID     *uuid.UUID            `json:"clientId"`
	Observations *string               `json:"observations"`
	DeliveryDate *time.Time            `json:"deliveryDate"`
	ValidUntil   *time.Time            `json:"validUntil"`
	Products     *[]services.LineInput `json:"products"`
}

type RejectBudgetInput struct {
	Reason string `json:"reason" binding:"required"`
}

// CreateBudget creates a budget in PENDING state with server-side pricing.
func CreateBudget(c *gin.Context) {
	userID := currentUserID(c)
	privileged := isPrivileged(c)

	var input CreateBudgetInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	if input.DeliveryDate != nil {
		if err := validateDeliveryDate(*input.DeliveryDate); err != nil {
			utils.RespondWithError(c, http.StatusBadRequest, err.Error())
			return
		}
	}

	var client models.Client
	if err := config.DB.First(&client, "id = ?", input.ClientID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondWithError(c, http.StatusBadRequest, "Client not found")
		} else {
			utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		}
		return
	}
	if !privileged && client.OwnerID != userID {
		utils.RespondWithError(c, http.StatusForbidden, "Client belongs to another user")
		return
	}

	refDate := time.Now()
	if input.DeliveryDate != nil {
		refDate = *input.DeliveryDate
	}

	items, total, err := services.ResolveLines(config.DB, input.Products, privileged, refDate)
	if err != nil {
		if errors.Is(err, services.ErrProductNotFound) {
			utils.RespondWithError(c, http.StatusNotFound, err.Error())
		} else {
			utils.RespondWithError(c, http.StatusInternalServerError, "Failed to price budget")
		}
		return
	}

	validUntil := utils.AddBusinessDays(time.Now(), budgetValidDays())
	if input.ValidUntil != nil {
		validUntil = *input.ValidUntil
	}

	budget := models.Budget{
		Title:        input.Title,
		Status:       models.BudgetPending,
		Total:        total,
		Observations: input.Observations,
		ValidUntil:   validUntil,
		DeliveryDate: input.DeliveryDate,
		CreatorID:    userID,
		ClientID:     input.ClientID,
		Products:     items,
	}

	tx := config.DB.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	if err := tx.Create(&budget).Error; err != nil {
		tx.Rollback()
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to create budget")
		return
	}

	utils.Audit(tx, userID, "budget.create", "budget", budget.ID.String(),
		fmt.Sprintf("total=%.2f lines=%d", total, len(items)))

	tx.Commit()

	c.JSON(http.StatusCreated, budget)
}

// GetBudgets lists budgets visible to the caller, optionally filtered by status.
func GetBudgets(c *gin.Context) {
	query := config.DB.Preload("Products").Preload("Client")

	if !isPrivileged(c) {
		query = query.Where("creator_id = ?", currentUserID(c))
	}
	if status := c.Query("status"); status != "" {
		query = query.Where("status = ?", status)
	}

	var budgets []models.Budget
	if err := query.Order("created_at DESC").Find(&budgets).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to retrieve budgets")
		return
	}

	c.JSON(http.StatusOK, budgets)
}

// GetBudget retrieves a budget by ID with an ownership check.
func GetBudget(c *gin.Context) {
	budget, ok := findBudget(c, config.DB, "Products", "Client", "Payments")
	if !ok {
		return
	}
	if !isPrivileged(c) && budget.CreatorID != currentUserID(c) {
		utils.RespondWithError(c, http.StatusForbidden, "Not your budget")
		return
	}
	c.JSON(http.StatusOK, budget)
}

// UpdateBudget replaces the budget's line items wholesale and recomputes
// the total. Pending budgets are editable by their owner; anything else
// needs a privileged role.
func UpdateBudget(c *gin.Context) {
	userID := currentUserID(c)
	privileged := isPrivileged(c)

	var input UpdateBudgetInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}
	if input.Products != nil && len(*input.Products) == 0 {
		utils.RespondWithError(c, http.StatusBadRequest, "Budget needs at least one product line")
		return
	}
	if input.DeliveryDate != nil {
		if err := validateDeliveryDate(*input.DeliveryDate); err != nil {
			utils.RespondWithError(c, http.StatusBadRequest, err.Error())
			return
		}
	}

	tx := config.DB.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	budget, ok := findBudget(c, tx, "Products")
	if !ok {
		tx.Rollback()
		return
	}

	if budget.Status == models.BudgetPending {
		if !privileged && budget.CreatorID != userID {
			tx.Rollback()
			utils.RespondWithError(c, http.StatusForbidden, "Not your budget")
			return
		}
	} else if !privileged {
		tx.Rollback()
		utils.RespondWithError(c, http.StatusForbidden, "Only management roles can edit processed budgets")
		return
	}

	if input.Title != nil {
		budget.Title = *input.Title
	}
	if input.Observations != nil {
		if *input.Observations == "" {
			tx.Rollback()
			utils.RespondWithError(c, http.StatusBadRequest, "Observations cannot be empty")
			return
		}
		budget.Observations = *input.Observations
	}
	if input.ClientID != nil {
		var client models.Client
		if err := tx.First(&client, "id = ?", *input.ClientID).Error; err != nil {
			tx.Rollback()
			if errors.Is(err, gorm.ErrRecordNotFound) {
				utils.RespondWithError(c, http.StatusBadRequest, "Client not found")
			} else {
				utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
			}
			return
		}
		if !privileged && client.OwnerID != userID {
			tx.Rollback()
			utils.RespondWithError(c, http.StatusForbidden, "Client belongs to another user")
			return
		}
		budget.ClientID = *input.ClientID
	}
	if input.DeliveryDate != nil {
		budget.DeliveryDate = input.DeliveryDate
	}
	if input.ValidUntil != nil {
		budget.ValidUntil = *input.ValidUntil
	}

	if input.Products != nil {
		if err := tx.Where("budget_id = ?", budget.ID).Delete(&models.BudgetProduct{}).Error; err != nil {
			tx.Rollback()
			utils.RespondWithError(c, http.StatusInternalServerError, "Failed to clear existing lines")
			return
		}

		refDate := time.Now()
		if budget.DeliveryDate != nil {
			refDate = *budget.DeliveryDate
		}

		items, total, err := services.ResolveLines(tx, *input.Products, privileged, refDate)
		if err != nil {
			tx.Rollback()
			if errors.Is(err, services.ErrProductNotFound) {
				utils.RespondWithError(c, http.StatusNotFound, err.Error())
			} else {
				utils.RespondWithError(c, http.StatusInternalServerError, "Failed to price budget")
			}
			return
		}
		for i := range items {
			items[i].BudgetID = budget.ID
		}
		budget.Products = items
		budget.Total = total
	}

	if err := tx.Save(&budget).Error; err != nil {
		tx.Rollback()
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to update budget")
		return
	}

	utils.Audit(tx, userID, "budget.update", "budget", budget.ID.String(),
		fmt.Sprintf("total=%.2f", budget.Total))

	tx.Commit()

	c.JSON(http.StatusOK, budget)
}

// ApproveBudget moves a pending budget to APPROVED. Terminal: there is no
// way back out of APPROVED.
func ApproveBudget(c *gin.Context) {
	processBudget(c, models.BudgetApproved, "")
}

// RejectBudget moves a pending budget to REJECTED with a reason.
func RejectBudget(c *gin.Context) {
	var input RejectBudgetInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Rejection reason is required")
		return
	}
	processBudget(c, models.BudgetRejected, input.Reason)
}

func processBudget(c *gin.Context, target models.BudgetStatus, reason string) {
	userID := currentUserID(c)

	tx := config.DB.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	budget, ok := findBudget(c, tx)
	if !ok {
		tx.Rollback()
		return
	}

	if budget.Status != models.BudgetPending {
		tx.Rollback()
		utils.RespondWithError(c, http.StatusBadRequest, "Only pending budgets can be processed")
		return
	}

	budget.Status = target
	budget.ProcessedByID = &userID
	budget.RejectionReason = reason

	if err := tx.Save(&budget).Error; err != nil {
		tx.Rollback()
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to update budget")
		return
	}

	var ntype, msg, subject string
	if target == models.BudgetApproved {
		ntype = "budget.approved"
		msg = fmt.Sprintf("El presupuesto %q fue aprobado", budget.Title)
		subject = "Presupuesto aprobado: " + budget.Title
	} else {
		ntype = "budget.rejected"
		msg = fmt.Sprintf("El presupuesto %q fue rechazado: %s", budget.Title, reason)
		subject = "Presupuesto rechazado: " + budget.Title
	}

	budgetID := budget.ID
	notification, err := services.Notify(tx, budget.CreatorID, ntype, msg, &budgetID)
	if err != nil {
		tx.Rollback()
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to create notification")
		return
	}

	utils.Audit(tx, userID, "budget."+string(target), "budget", budget.ID.String(), reason)

	tx.Commit()

	services.Dispatch(config.DB, notification)

	// Best-effort email to the creator: failures are logged, never block
	// the approval.
	var creator models.User
	if err := config.DB.First(&creator, "id = ?", budget.CreatorID).Error; err == nil {
		services.SendMailAsync(creator.Email, subject, msg)
	}

	c.JSON(http.StatusOK, budget)
}

// DeleteBudget removes a budget and everything hanging off it in one
// transaction: payments' invoices, payments, line items, then the budget.
func DeleteBudget(c *gin.Context) {
	userID := currentUserID(c)
	role := currentRole(c)

	tx := config.DB.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	budget, ok := findBudget(c, tx)
	if !ok {
		tx.Rollback()
		return
	}

	if budget.Status == models.BudgetPending {
		if !isPrivileged(c) && budget.CreatorID != userID {
			tx.Rollback()
			utils.RespondWithError(c, http.StatusForbidden, "Not your budget")
			return
		}
	} else if role != models.RoleAdministrador {
		tx.Rollback()
		utils.RespondWithError(c, http.StatusForbidden, "Only administrators can delete processed budgets")
		return
	}

	if err := deleteBudgetCascade(tx, budget.ID); err != nil {
		tx.Rollback()
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to delete budget")
		return
	}

	utils.Audit(tx, userID, "budget.delete", "budget", budget.ID.String(), budget.Title)

	tx.Commit()

	c.JSON(http.StatusOK, gin.H{"message": "Budget deleted successfully"})
}

// deleteBudgetCascade deletes invoices, payments and line items before the
// budget itself. Must run inside a transaction.
func deleteBudgetCascade(tx *gorm.DB, budgetID uuid.UUID) error {
	if err := tx.Where("budget_id = ?", budgetID).Delete(&models.Invoice{}).Error; err != nil {
		return err
	}
	if err := tx.Where("budget_id = ?", budgetID).Delete(&models.Payment{}).Error; err != nil {
		return err
	}
	if err := tx.Where("budget_id = ?", budgetID).Delete(&models.BudgetProduct{}).Error; err != nil {
		return err
	}
	return tx.Delete(&models.Budget{}, "id = ?", budgetID).Error
}

// findBudget parses the path ID and loads the budget, answering 400/404
// itself. Callers that opened a transaction must roll back on !ok.
func findBudget(c *gin.Context, db *gorm.DB, preloads ...string) (models.Budget, bool) {
	var budget models.Budget

	budgetUUID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid budget ID format")
		return budget, false
	}

	query := db
	for _, p := range preloads {
		query = query.Preload(p)
	}
	if err := query.First(&budget, "id = ?", budgetUUID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondWithError(c, http.StatusNotFound, "Budget not found")
		} else {
			utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		}
		return budget, false
	}

	return budget, true
}

func validateDeliveryDate(d time.Time) error {
	if d.Weekday() == time.Sunday {
		return errors.New("Delivery date cannot be a Sunday")
	}
	if utils.DaysBetween(time.Now(), d) < 1 {
		return errors.New("Delivery date must be after today")
	}
	return nil
}

func budgetValidDays() int {
	if env := os.Getenv("BUDGET_VALID_DAYS"); env != "" {
		if n, err := strconv.Atoi(env); err == nil && n > 0 {
			return n
		}
	}
	return defaultValidDays
}
