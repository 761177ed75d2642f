package controllers

import (
	"net/http"
	"strconv"

	"concretera-backend/config"
	"concretera-backend/models"
	"concretera-backend/utils"

	"github.com/gin-gonic/gin"
)

// GetAuditLogs lists audit entries, newest first. Administrador only
// (route-gated).
func GetAuditLogs(c *gin.Context) {
	limit := 100
	if l, err := strconv.Atoi(c.Query("limit")); err == nil && l > 0 && l <= 500 {
		limit = l
	}

	query := config.DB.Model(&models.AuditLog{})
	if entity := c.Query("entity"); entity != "" {
		query = query.Where("entity = ?", entity)
	}
	if userID := c.Query("userId"); userID != "" {
		query = query.Where("user_id = ?", userID)
	}

	var logs []models.AuditLog
	if err := query.Order("created_at DESC").Limit(limit).Find(&logs).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to retrieve audit logs")
		return
	}

	c.JSON(http.StatusOK, logs)
}
