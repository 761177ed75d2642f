package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Product struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	Name        string    `gorm:"not null" json:"name"`
	Description string    `json:"description"`
	Price       float64   `gorm:"type:decimal(10,2);not null" json:"price"`
	Type        string    `gorm:"index" json:"type"`     // concreto, agregado, servicio
	Category    string    `gorm:"default:'General'" json:"category"`
	Unit        string    `gorm:"default:'m3'" json:"unit"`
	IsActive    bool      `gorm:"default:true" json:"isActive"`

	Prices []ProductPrice `gorm:"foreignKey:ProductID" json:"prices,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (p *Product) BeforeCreate(tx *gorm.DB) (err error) {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return
}

// ProductPrice is an append-only price history entry. Rows are never
// updated or deleted; the effective price at a date is the most recent
// entry with Date <= that date, falling back to Product.Price.
type ProductPrice struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	ProductID uuid.UUID `gorm:"type:uuid;index;not null" json:"productId"`
	Date      time.Time `gorm:"index;not null" json:"date"`
	Price     float64   `gorm:"type:decimal(10,2);not null" json:"price"`
	CreatedAt time.Time `json:"createdAt"`
}

func (p *ProductPrice) BeforeCreate(tx *gorm.DB) (err error) {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return
}
