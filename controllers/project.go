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

type CreateProjectInput struct {
	Name     string    `json:"name" binding:"required"`
	ClientID uuid.UUID `json:"clientId" binding:"required"`
	Address  string    `json:"address"`
}

type UpdateProjectInput struct {
	Name    *string `json:"name"`
	Address *string `json:"address"`
	Status  *string `json:"status" binding:"omitempty,oneof=ACTIVE FINISHED"`
}

func CreateProject(c *gin.Context) {
	var input CreateProjectInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
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
	if !isPrivileged(c) && client.OwnerID != currentUserID(c) {
		utils.RespondWithError(c, http.StatusForbidden, "Client belongs to another user")
		return
	}

	project := models.Project{
		Name:     input.Name,
		ClientID: input.ClientID,
		OwnerID:  currentUserID(c),
		Address:  input.Address,
		Status:   "ACTIVE",
	}

	if err := config.DB.Create(&project).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to create project")
		return
	}

	c.JSON(http.StatusCreated, project)
}

func GetProjects(c *gin.Context) {
	query := config.DB.Model(&models.Project{})
	if !isPrivileged(c) {
		query = query.Where("owner_id = ?", currentUserID(c))
	}

	var projects []models.Project
	if err := query.Order("created_at DESC").Find(&projects).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to retrieve projects")
		return
	}

	c.JSON(http.StatusOK, projects)
}

func UpdateProject(c *gin.Context) {
	project, ok := findProject(c)
	if !ok {
		return
	}
	if !isPrivileged(c) && project.OwnerID != currentUserID(c) {
		utils.RespondWithError(c, http.StatusForbidden, "Not your project")
		return
	}

	var input UpdateProjectInput
	if err := c.ShouldBindJSON(&input); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid input: "+err.Error())
		return
	}

	if input.Name != nil {
		project.Name = *input.Name
	}
	if input.Address != nil {
		project.Address = *input.Address
	}
	if input.Status != nil {
		project.Status = *input.Status
	}

	if err := config.DB.Save(&project).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to update project")
		return
	}

	c.JSON(http.StatusOK, project)
}

func DeleteProject(c *gin.Context) {
	project, ok := findProject(c)
	if !ok {
		return
	}
	if !isPrivileged(c) && project.OwnerID != currentUserID(c) {
		utils.RespondWithError(c, http.StatusForbidden, "Not your project")
		return
	}

	if err := config.DB.Delete(&project).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to delete project")
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Project deleted successfully"})
}

func findProject(c *gin.Context) (models.Project, bool) {
	var project models.Project

	projectUUID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid project ID format")
		return project, false
	}

	if err := config.DB.First(&project, "id = ?", projectUUID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondWithError(c, http.StatusNotFound, "Project not found")
		} else {
			utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		}
		return project, false
	}

	return project, true
}
