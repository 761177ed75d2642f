package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AuditLog rows are append-only.
type AuditLog struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID   string    `gorm:"index" json:"userId"`
	Action   string    `gorm:"type:varchar(40);not null" json:"action"`
	Entity   string    `gorm:"type:varchar(30);index" json:"entity"`
	EntityID string    `gorm:"index" json:"entityId"`
	Detail   string    `gorm:"type:text" json:"detail"`

	CreatedAt time.Time `json:"createdAt"`
}

func (a *AuditLog) BeforeCreate(tx *gorm.DB) (err error) {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return
}
