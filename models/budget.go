package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type BudgetStatus string

const (
	BudgetPending  BudgetStatus = "PENDING"
	BudgetApproved BudgetStatus = "APPROVED"
	BudgetRejected BudgetStatus = "REJECTED"
)

// Budget is a price quote with a one-way approval workflow:
// PENDING -> APPROVED or PENDING -> REJECTED, no way back.
type Budget struct {
	ID        uuid.UUID    `gorm:"type:uuid;primaryKey" json:"id"`
	Title     string       `gorm:"not null" json:"title"`
	Status    BudgetStatus `gorm:"type:varchar(10);default:'PENDING';index" json:"status"`
	Total     float64      `gorm:"type:decimal(12,2);not null" json:"total"`

	Observations    string     `gorm:"type:text" json:"observations"`
	ValidUntil      time.Time  `json:"validUntil"`
	DeliveryDate    *time.Time `json:"deliveryDate"`
	RejectionReason string     `json:"rejectionReason"`

	CreatorID     string    `gorm:"index;not null" json:"creatorId"`
	ClientID      uuid.UUID `gorm:"type:uuid;index;not null" json:"clientId"`
	ProcessedByID *string   `json:"processedById"`

	Client   Client          `gorm:"foreignKey:ClientID" json:"client,omitempty"`
	Products []BudgetProduct `gorm:"foreignKey:BudgetID" json:"products,omitempty"`
	Payments []Payment       `gorm:"foreignKey:BudgetID" json:"payments,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (b *Budget) BeforeCreate(tx *gorm.DB) (err error) {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return
}

// BudgetProduct is a budget line item. Lines are replaced wholesale on
// budget update, never edited in place.
type BudgetProduct struct {
	ID          uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	BudgetID    uuid.UUID `gorm:"type:uuid;index;not null" json:"budgetId"`
	ProductID   uuid.UUID `gorm:"type:uuid;index;not null" json:"productId"`
	ProductName string    `gorm:"not null" json:"productName"`
	Quantity    float64   `gorm:"not null" json:"quantity"`
	UnitPrice   float64   `gorm:"type:decimal(10,2);not null" json:"unitPrice"`
	TotalPrice  float64   `gorm:"type:decimal(12,2);not null" json:"totalPrice"`
}

func (b *BudgetProduct) BeforeCreate(tx *gorm.DB) (err error) {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return
}
