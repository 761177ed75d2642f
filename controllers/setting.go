package controllers

import (
	"errors"
	"net/http"

	"concretera-backend/config"
	"concretera-backend/models"
	"concretera-backend/utils"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type UpsertSettingInput struct {
	Key   string `json:"key" binding:"required"`
	Value string `json:"value" binding:"required"`
}

// GetSettings returns all settings as a key-value map. Public: the SPA
// reads display settings before login.
func GetSettings(c *gin.Context) {
	var settings []models.Setting
	if err := config.DB.Find(&settings).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to retrieve settings")
		return
	}

	result := make(map[string]string, len(settings))
	for _, s := range settings {
		result[s.Key] = s.Value
	}
	c.JSON(http.StatusOK, result)
}

// GetSetting returns a single setting. Public.
func GetSetting(c *gin.Context) {
	var setting models.Setting
	if err := config.DB.First(&setting, "key = ?", c.Param("key")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondWithError(c, http.StatusNotFound, "Setting not found")
		} else {
			utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		}
		return
	}
	c.JSON(http.StatusOK, setting)
}

// UpsertSetting creates or overwrites a setting. Administrador only
// (route-gated).
func UpsertSetting(c *gin.Context) {
	var input UpsertSettingInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	setting := models.Setting{Key: input.Key, Value: input.Value}
	if err := config.DB.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "key"}},
		DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
	}).Create(&setting).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to save setting")
		return
	}

	utils.Audit(config.DB, currentUserID(c), "setting.upsert", "setting", input.Key, input.Value)

	c.JSON(http.StatusOK, setting)
}
