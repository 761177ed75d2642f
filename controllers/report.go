package controllers

import (
	"net/http"
	"strings"
	"time"

	"concretera-backend/config"
	"concretera-backend/models"
	"concretera-backend/utils"

	"github.com/gin-gonic/gin"
)

// ReportController handles all reporting functions
type ReportController struct{}

type ClientSummary struct {
	Name    string  `json:"name"`
	Budgets int     `json:"budgets"`
	Amount  float64 `json:"amount"`
}

type ProductSummary struct {
	Name     string  `json:"name"`
	Quantity float64 `json:"quantity"`
	Revenue  float64 `json:"revenue"`
}

type TypeRevenue struct {
	Type    string  `json:"type"`
	Revenue float64 `json:"revenue"`
}

type AgingBucket struct {
	Label   string  `json:"label"`
	Count   int     `json:"count"`
	Pending float64 `json:"pending"`
}

type ZoneDeliveries struct {
	Zone    string   `json:"zone"`
	Budgets []string `json:"budgets"`
}

// GetReportAnalytics returns the full reporting payload.
func (rc *ReportController) GetReportAnalytics(c *gin.Context) {
	topClients, err := rc.getTopClients(5)
	if err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to get top clients")
		return
	}

	topProducts, err := rc.getTopProducts(5)
	if err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to get top products")
		return
	}

	revenueByType, err := rc.getRevenueByType()
	if err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to get revenue by type")
		return
	}

	aging, err := rc.getAgingBuckets()
	if err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to get aging buckets")
		return
	}

	deliveries, err := rc.getUpcomingDeliveries()
	if err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to get upcoming deliveries")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"topClients":         topClients,
		"topProducts":        topProducts,
		"revenueByType":      revenueByType,
		"agingBuckets":       aging,
		"upcomingDeliveries": deliveries,
	})
}

func (rc *ReportController) getTopClients(limit int) ([]ClientSummary, error) {
	var clients []ClientSummary
	err := config.DB.Table("budgets").
		Select("clients.name, COUNT(budgets.id) as budgets, SUM(budgets.total) as amount").
		Joins("JOIN clients ON clients.id = budgets.client_id").
		Group("clients.name").
		Order("amount DESC").
		Limit(limit).
		Scan(&clients).Error
	return clients, err
}

func (rc *ReportController) getTopProducts(limit int) ([]ProductSummary, error) {
	var products []ProductSummary
	err := config.DB.Table("budget_products").
		Select("budget_products.product_name as name, SUM(budget_products.quantity) as quantity, SUM(budget_products.total_price) as revenue").
		Joins("JOIN budgets ON budgets.id = budget_products.budget_id").
		Where("budgets.status = ?", models.BudgetApproved).
		Group("budget_products.product_name").
		Order("quantity DESC").
		Limit(limit).
		Scan(&products).Error
	return products, err
}

// getRevenueByType allocates each validated payment across its budget's
// line items proportionally to the line's share of the budget total, then
// groups by product type.
func (rc *ReportController) getRevenueByType() ([]TypeRevenue, error) {
	var rows []TypeRevenue
	err := config.DB.Table("payments").
		Select("products.type as type, SUM(payments.paid_amount * budget_products.total_price / budgets.total) as revenue").
		Joins("JOIN budgets ON budgets.id = payments.budget_id").
		Joins("JOIN budget_products ON budget_products.budget_id = budgets.id").
		Joins("JOIN products ON products.id = budget_products.product_id").
		Where("payments.status = ? AND budgets.total > 0", models.PaymentValidated).
		Group("products.type").
		Order("revenue DESC").
		Scan(&rows).Error
	return rows, err
}

// getAgingBuckets buckets approved budgets with an outstanding balance by
// how long ago they were approved.
func (rc *ReportController) getAgingBuckets() ([]AgingBucket, error) {
	var budgets []models.Budget
	if err := config.DB.Preload("Payments").
		Where("status = ?", models.BudgetApproved).
		Find(&budgets).Error; err != nil {
		return nil, err
	}

	buckets := []AgingBucket{
		{Label: "0-30"},
		{Label: "31-60"},
		{Label: "61-90"},
		{Label: "90+"},
	}

	now := time.Now()
	for _, b := range budgets {
		var paid float64
		for _, p := range b.Payments {
			if p.Status != models.PaymentRejected {
				paid += p.PaidAmount
			}
		}
		pending := utils.Round2(b.Total - paid)
		if pending <= 0.01 {
			continue
		}

		days := utils.DaysBetween(b.UpdatedAt, now)
		idx := 3
		switch {
		case days <= 30:
			idx = 0
		case days <= 60:
			idx = 1
		case days <= 90:
			idx = 2
		}
		buckets[idx].Count++
		buckets[idx].Pending = utils.Round2(buckets[idx].Pending + pending)
	}

	return buckets, nil
}

// getUpcomingDeliveries groups approved budgets delivering within a week
// by the trailing segment of the client address, a proxy for zone.
func (rc *ReportController) getUpcomingDeliveries() ([]ZoneDeliveries, error) {
	now := time.Now()
	weekOut := now.AddDate(0, 0, 7)

	var budgets []models.Budget
	if err := config.DB.Preload("Client").
		Where("status = ? AND delivery_date BETWEEN ? AND ?",
			models.BudgetApproved, now, weekOut).
		Order("delivery_date").
		Find(&budgets).Error; err != nil {
		return nil, err
	}

	zones := make(map[string][]string)
	var order []string
	for _, b := range budgets {
		zone := addressZone(b.Client.Address)
		if _, seen := zones[zone]; !seen {
			order = append(order, zone)
		}
		zones[zone] = append(zones[zone], b.Title)
	}

	result := make([]ZoneDeliveries, 0, len(order))
	for _, z := range order {
		result = append(result, ZoneDeliveries{Zone: z, Budgets: zones[z]})
	}
	return result, nil
}

func addressZone(address string) string {
	if address == "" {
		return "Sin zona"
	}
	parts := strings.Split(address, ",")
	return strings.TrimSpace(parts[len(parts)-1])
}
