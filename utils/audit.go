package utils

import (
	"log"

	"concretera-backend/models"

	"gorm.io/gorm"
)

// Audit appends an audit log entry. Failures are logged, never surfaced:
// auditing must not break the mutation it records.
func Audit(db *gorm.DB, userID, action, entity, entityID, detail string) {
	entry := models.AuditLog{
		UserID:   userID,
		Action:   action,
		Entity:   entity,
		EntityID: entityID,
		Detail:   detail,
	}
	if err := db.Create(&entry).Error; err != nil {
		log.Printf("Failed to write audit log %s %s/%s: %v", action, entity, entityID, err)
	}
}
