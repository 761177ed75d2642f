package controllers

import (
	"errors"
	"net/http"

	"concretera-backend/config"
	"concretera-backend/models"
	"concretera-backend/services"
	"concretera-backend/utils"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type UpdateRoleInput struct {
	Role string `json:"role" binding:"required,oneof=Administrador Contable Comercial Cliente"`
}

type UpdateProfileInput struct {
	Name  *string `json:"name"`
	Phone *string `json:"phone"`
}

// GetUsers lists mirrored users. Privileged roles only (route-gated).
func GetUsers(c *gin.Context) {
	var users []models.User
	if err := config.DB.Order("name").Find(&users).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to retrieve users")
		return
	}
	c.JSON(http.StatusOK, users)
}

// GetMe returns the caller's mirrored record.
func GetMe(c *gin.Context) {
	var user models.User
	if err := config.DB.First(&user, "id = ?", currentUserID(c)).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "User not found")
		return
	}
	c.JSON(http.StatusOK, user)
}

// UpdateMe lets a user adjust profile fields we own locally.
func UpdateMe(c *gin.Context) {
	var input UpdateProfileInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	var user models.User
	if err := config.DB.First(&user, "id = ?", currentUserID(c)).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "User not found")
		return
	}

	if input.Name != nil {
		user.Name = *input.Name
	}
	if input.Phone != nil {
		if *input.Phone != "" && !utils.ValidatePhone(*input.Phone) {
			utils.RespondWithError(c, http.StatusBadRequest, "Invalid phone number format")
			return
		}
		user.Phone = *input.Phone
	}

	if err := config.DB.Save(&user).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to update user")
		return
	}

	c.JSON(http.StatusOK, user)
}

// UpdateUserRole changes a user's local role. Administrador only
// (route-gated). The change shows up on the event stream.
func UpdateUserRole(c *gin.Context) {
	var input UpdateRoleInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	var user models.User
	if err := config.DB.First(&user, "id = ?", c.Param("id")).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondWithError(c, http.StatusNotFound, "User not found")
		} else {
			utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		}
		return
	}

	oldRole := user.Role
	user.Role = input.Role
	if err := config.DB.Save(&user).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to update role")
		return
	}

	utils.Audit(config.DB, currentUserID(c), "user.role", "user", user.ID,
		oldRole+" -> "+input.Role)
	services.Events.Publish(services.Event{Type: "user.updated", Data: map[string]string{
		"userId": user.ID, "role": user.Role,
	}})

	c.JSON(http.StatusOK, user)
}
