package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Notification struct {
	ID       uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	UserID   string     `gorm:"index;not null" json:"userId"`
	Type     string     `gorm:"type:varchar(30)" json:"type"` // budget.approved, budget.rejected, payment.validated, budget.expiring
	Message  string     `gorm:"type:text;not null" json:"message"`
	BudgetID *uuid.UUID `gorm:"type:uuid;index" json:"budgetId"`
	Read     bool       `gorm:"default:false" json:"read"`

	CreatedAt time.Time `json:"createdAt"`
}

func (n *Notification) BeforeCreate(tx *gorm.DB) (err error) {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	return
}
