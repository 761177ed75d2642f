package controllers

import (
	"concretera-backend/models"

	"github.com/gin-gonic/gin"
)

func currentUserID(c *gin.Context) string {
	return c.GetString("userId")
}

func currentRole(c *gin.Context) string {
	return c.GetString("role")
}

func isPrivileged(c *gin.Context) bool {
	return models.IsPrivileged(currentRole(c))
}
