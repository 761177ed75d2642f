package services

import (
	"errors"
	"log"

	"concretera-backend/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Notify persists a notification inside the caller's transaction and
// returns the row. Delivery happens in Dispatch, which callers run after
// commit so no event escapes for a row that never lands.
func Notify(db *gorm.DB, userID, ntype, message string, budgetID *uuid.UUID) (*models.Notification, error) {
	n := models.Notification{
		UserID:   userID,
		Type:     ntype,
		Message:  message,
		BudgetID: budgetID,
	}
	if err := db.Create(&n).Error; err != nil {
		return nil, err
	}
	return &n, nil
}

// Dispatch pushes a committed notification to the event stream and, when
// Twilio is configured and the user has a phone, to WhatsApp. WhatsApp
// delivery is fire-and-forget with logged failures.
func Dispatch(db *gorm.DB, n *models.Notification) {
	if n == nil {
		return
	}

	Events.Publish(Event{Type: "notification.created", Data: *n})

	var user models.User
	if err := db.First(&user, "id = ?", n.UserID).Error; err == nil && user.Phone != "" {
		go func(phone, body string) {
			if err := SendWhatsApp(phone, body); err != nil && !errors.Is(err, ErrWhatsAppDisabled) {
				log.Printf("WhatsApp notification to %s failed: %v", phone, err)
			}
		}(user.Phone, n.Message)
	}
}
