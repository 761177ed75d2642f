package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Project is a client work site that budgets are quoted for.
type Project struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ClientID uuid.UUID `gorm:"type:uuid;index;not null" json:"clientId"`
	OwnerID  string    `gorm:"index;not null" json:"ownerId"`

	Name    string `gorm:"not null" json:"name"`
	Address string `json:"address"`
	Status  string `gorm:"type:varchar(15);default:'ACTIVE'" json:"status"` // ACTIVE, FINISHED

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (p *Project) BeforeCreate(tx *gorm.DB) (err error) {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return
}
