package controllers

import (
	"net/http"
	"time"

	"concretera-backend/config"
	"concretera-backend/models"
	"concretera-backend/utils"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// GetDashboardOverview returns the landing-page numbers. Privileged roles
// see the whole company; everyone else sees their own slice.
func GetDashboardOverview(c *gin.Context) {
	privileged := isPrivileged(c)
	userID := currentUserID(c)

	budgetScope := func() *gorm.DB {
		q := config.DB.Model(&models.Budget{})
		if !privileged {
			q = q.Where("creator_id = ?", userID)
		}
		return q
	}

	var totalBudgets, pendingBudgets, approvedBudgets int64
	budgetScope().Count(&totalBudgets)
	budgetScope().Where("status = ?", models.BudgetPending).Count(&pendingBudgets)
	budgetScope().Where("status = ?", models.BudgetApproved).Count(&approvedBudgets)

	var totalClients int64
	clientQuery := config.DB.Model(&models.Client{})
	if !privileged {
		clientQuery = clientQuery.Where("owner_id = ?", userID)
	}
	clientQuery.Count(&totalClients)

	// Validated revenue this month
	now := time.Now()
	firstOfMonth := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	var monthlyRevenue float64
	revenueQuery := config.DB.Model(&models.Payment{}).
		Where("payments.status = ? AND payments.created_at >= ?", models.PaymentValidated, firstOfMonth)
	if !privileged {
		revenueQuery = revenueQuery.
			Joins("JOIN budgets ON budgets.id = payments.budget_id").
			Where("budgets.creator_id = ?", userID)
	}
	revenueQuery.Select("COALESCE(SUM(payments.paid_amount), 0)").Scan(&monthlyRevenue)

	var pendingPayments int64
	pendingQuery := config.DB.Model(&models.Payment{}).Where("payments.status = ?", models.PaymentPending)
	if !privileged {
		pendingQuery = pendingQuery.
			Joins("JOIN budgets ON budgets.id = payments.budget_id").
			Where("budgets.creator_id = ?", userID)
	}
	pendingQuery.Count(&pendingPayments)

	var recentBudgets []models.Budget
	recentQuery := config.DB.Preload("Client").Order("created_at DESC").Limit(5)
	if !privileged {
		recentQuery = recentQuery.Where("creator_id = ?", userID)
	}
	if err := recentQuery.Find(&recentBudgets).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to retrieve recent budgets")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"totalBudgets":    totalBudgets,
		"pendingBudgets":  pendingBudgets,
		"approvedBudgets": approvedBudgets,
		"totalClients":    totalClients,
		"monthlyRevenue":  monthlyRevenue,
		"pendingPayments": pendingPayments,
		"recentBudgets":   recentBudgets,
	})
}
