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

// CreateClientInput defines the expected JSON structure for creating a client
type CreateClientInput struct {
	Name    string `json:"name" binding:"required"`
	Rif     string `json:"rif"`
	Email   string `json:"email" binding:"omitempty,email"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
}

// UpdateClientInput defines the expected JSON structure for updating a client
type UpdateClientInput struct {
	Name    *string `json:"name"`
	Rif     *string `json:"rif"`
	Email   *string `json:"email" binding:"omitempty,email"`
	Phone   *string `json:"phone"`
	Address *string `json:"address"`
}

// CreateClient creates a client owned by the caller.
func CreateClient(c *gin.Context) {
	var input CreateClientInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	if input.Phone != "" && !utils.ValidatePhone(input.Phone) {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid phone number format")
		return
	}

	client := models.Client{
		OwnerID: currentUserID(c),
		Name:    input.Name,
		Rif:     input.Rif,
		Email:   input.Email,
		Phone:   input.Phone,
		Address: input.Address,
	}

	if err := config.DB.Create(&client).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			utils.RespondWithError(c, http.StatusConflict, "Client already exists")
		} else {
			utils.RespondWithError(c, http.StatusInternalServerError, "Failed to create client")
		}
		return
	}

	c.JSON(http.StatusCreated, client)
}

// GetClients lists clients visible to the caller.
func GetClients(c *gin.Context) {
	query := config.DB.Model(&models.Client{})
	if !isPrivileged(c) {
		query = query.Where("owner_id = ?", currentUserID(c))
	}

	var clients []models.Client
	if err := query.Order("name").Find(&clients).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to retrieve clients")
		return
	}

	c.JSON(http.StatusOK, clients)
}

// GetClient retrieves a client by ID with an ownership check.
func GetClient(c *gin.Context) {
	client, ok := findClient(c)
	if !ok {
		return
	}
	if !isPrivileged(c) && client.OwnerID != currentUserID(c) {
		utils.RespondWithError(c, http.StatusForbidden, "Not your client")
		return
	}
	c.JSON(http.StatusOK, client)
}

// UpdateClient updates an existing client.
func UpdateClient(c *gin.Context) {
	client, ok := findClient(c)
	if !ok {
		return
	}
	if !isPrivileged(c) && client.OwnerID != currentUserID(c) {
		utils.RespondWithError(c, http.StatusForbidden, "Not your client")
		return
	}

	var input UpdateClientInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	if input.Name != nil {
		client.Name = *input.Name
	}
	if input.Rif != nil {
		client.Rif = *input.Rif
	}
	if input.Email != nil {
		client.Email = *input.Email
	}
	if input.Phone != nil {
		if *input.Phone != "" && !utils.ValidatePhone(*input.Phone) {
			utils.RespondWithError(c, http.StatusBadRequest, "Invalid phone number format")
			return
		}
		client.Phone = *input.Phone
	}
	if input.Address != nil {
		client.Address = *input.Address
	}

	if err := config.DB.Save(&client).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to update client")
		return
	}

	c.JSON(http.StatusOK, client)
}

// DeleteClient removes a client. A client with budgets can only be deleted
// by an administrator, and the deletion cascades through budgets, payments
// and invoices.
func DeleteClient(c *gin.Context) {
	userID := currentUserID(c)

	client, ok := findClient(c)
	if !ok {
		return
	}
	if !isPrivileged(c) && client.OwnerID != userID {
		utils.RespondWithError(c, http.StatusForbidden, "Not your client")
		return
	}

	var budgets []models.Budget
	if err := config.DB.Where("client_id = ?", client.ID).Find(&budgets).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		return
	}

	if len(budgets) > 0 && currentRole(c) != models.RoleAdministrador {
		utils.RespondWithError(c, http.StatusForbidden, "Client has budgets; only administrators can delete it")
		return
	}

	tx := config.DB.Begin()
	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
		}
	}()

	for _, b := range budgets {
		if err := deleteBudgetCascade(tx, b.ID); err != nil {
			tx.Rollback()
			utils.RespondWithError(c, http.StatusInternalServerError, "Failed to delete client budgets")
			return
		}
	}

	if err := tx.Delete(&client).Error; err != nil {
		tx.Rollback()
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to delete client")
		return
	}

	utils.Audit(tx, userID, "client.delete", "client", client.ID.String(), client.Name)

	tx.Commit()

	c.Status(http.StatusNoContent)
}

func findClient(c *gin.Context) (models.Client, bool) {
	var client models.Client

	clientUUID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid client ID format")
		return client, false
	}

	if err := config.DB.First(&client, "id = ?", clientUUID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondWithError(c, http.StatusNotFound, "Client not found")
		} else {
			utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		}
		return client, false
	}

	return client, true
}
