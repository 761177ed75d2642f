package controllers

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"os"

	"concretera-backend/config"
	"concretera-backend/models"
	"concretera-backend/services"
	"concretera-backend/utils"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type webhookEvent struct {
	Type   string   `json:"type"`
	UserID string   `json:"userId"`
	Roles  []string `json:"roles"`
}

// Auth0Webhook receives identity-provider change events. The payload is
// authenticated with an HMAC-SHA256 signature over the raw body.
func Auth0Webhook(c *gin.Context) {
	secret := os.Getenv("AUTH0_WEBHOOK_SECRET")
	if secret == "" {
		utils.RespondWithError(c, http.StatusUnauthorized, "Webhook secret not configured")
		return
	}

	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Failed to read body")
		return
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))
	if !hmac.Equal([]byte(expected), []byte(c.GetHeader("X-Webhook-Signature"))) {
		utils.RespondWithError(c, http.StatusUnauthorized, "Invalid signature")
		return
	}

	var event webhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid payload")
		return
	}

	if event.Type != "user.roles.updated" {
		c.Status(http.StatusNoContent)
		return
	}

	var user models.User
	if err := config.DB.First(&user, "id = ?", event.UserID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// Not mirrored yet; provisioning will pick the role up on
			// the user's next request.
			c.Status(http.StatusNoContent)
			return
		}
		utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		return
	}

	role := models.ResolveRole(event.Roles)
	if role == "" {
		role = models.RoleCliente
	}

	if role != user.Role {
		oldRole := user.Role
		user.Role = role
		if err := config.DB.Save(&user).Error; err != nil {
			utils.RespondWithError(c, http.StatusInternalServerError, "Failed to update user")
			return
		}

		services.InvalidateRoleCache(user.ID)
		utils.Audit(config.DB, "webhook", "user.role", "user", user.ID, oldRole+" -> "+role)
		services.Events.Publish(services.Event{Type: "user.updated", Data: map[string]string{
			"userId": user.ID, "role": role,
		}})
	}

	c.Status(http.StatusNoContent)
}
