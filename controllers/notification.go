package controllers

import (
	"errors"
	"io"
	"net/http"
	"time"

	"concretera-backend/config"
	"concretera-backend/models"
	"concretera-backend/services"
	"concretera-backend/utils"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GetNotifications lists the caller's notifications, newest first.
func GetNotifications(c *gin.Context) {
	var notifications []models.Notification
	if err := config.DB.Where("user_id = ?", currentUserID(c)).
		Order("created_at DESC").Limit(50).
		Find(&notifications).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to retrieve notifications")
		return
	}
	c.JSON(http.StatusOK, notifications)
}

// MarkNotificationRead marks one of the caller's notifications as read.
func MarkNotificationRead(c *gin.Context) {
	notificationUUID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.RespondWithError(c, http.StatusBadRequest, "Invalid notification ID format")
		return
	}

	var notification models.Notification
	if err := config.DB.First(&notification, "id = ? AND user_id = ?",
		notificationUUID, currentUserID(c)).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.RespondWithError(c, http.StatusNotFound, "Notification not found")
		} else {
			utils.RespondWithError(c, http.StatusInternalServerError, "Database error")
		}
		return
	}

	notification.Read = true
	if err := config.DB.Save(&notification).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to update notification")
		return
	}

	c.JSON(http.StatusOK, notification)
}

// MarkAllNotificationsRead marks everything unread for the caller.
func MarkAllNotificationsRead(c *gin.Context) {
	if err := config.DB.Model(&models.Notification{}).
		Where("user_id = ? AND read = ?", currentUserID(c), false).
		Update("read", true).Error; err != nil {
		utils.RespondWithError(c, http.StatusInternalServerError, "Failed to update notifications")
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "All notifications marked read"})
}

// StreamEvents is the SSE endpoint. The connection stays open, receiving
// hub events plus a periodic ping so proxies keep the stream alive.
func StreamEvents(c *gin.Context) {
	ch := services.Events.Subscribe()
	defer services.Events.Unsubscribe(ch)

	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")

	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	c.Stream(func(w io.Writer) bool {
		select {
		case ev, ok := <-ch:
			if !ok {
				return false
			}
			c.SSEvent(ev.Type, ev.Data)
			return true
		case <-ticker.C:
			c.SSEvent("ping", time.Now().Unix())
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
}
