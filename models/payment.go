package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "PENDING"
	PaymentValidated PaymentStatus = "VALIDATED"
	PaymentRejected  PaymentStatus = "REJECTED"
)

// Payment records a (possibly partial) payment against an approved budget.
// Amount snapshots the budget total at payment time; Pending is the balance
// remaining after this payment. Amounts are USD.
type Payment struct {
	ID       uuid.UUID     `gorm:"type:uuid;primaryKey" json:"id"`
	BudgetID uuid.UUID     `gorm:"type:uuid;index;not null" json:"budgetId"`
	Status   PaymentStatus `gorm:"type:varchar(10);default:'PENDING';index" json:"status"`

	Amount     float64 `gorm:"type:decimal(12,2);not null" json:"amount"`
	PaidAmount float64 `gorm:"type:decimal(12,2);not null" json:"paidAmount"`
	Pending    float64 `gorm:"type:decimal(12,2);not null" json:"pending"`

	Currency     string  `gorm:"type:varchar(3);default:'USD'" json:"currency"`
	ExchangeRate float64 `gorm:"type:decimal(12,4);default:0" json:"exchangeRate"`
	IGTFAmount   float64 `gorm:"type:decimal(12,2);default:0" json:"igtfAmount"`

	Method          string  `json:"method"`
	Reference       string  `json:"reference"`
	ReceiptURL      string  `json:"receiptUrl"`
	RejectionReason string  `json:"rejectionReason"`
	ValidatedByID   *string `json:"validatedById"`

	Invoice *Invoice `gorm:"foreignKey:PaymentID" json:"invoice,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (p *Payment) BeforeCreate(tx *gorm.DB) (err error) {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return
}
