package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type InvoiceStatus string

const (
	InvoiceProforma     InvoiceStatus = "PROFORMA"
	InvoiceFiscalIssued InvoiceStatus = "FISCAL_ISSUED"
)

// Invoice is created automatically when a payment is validated, as a
// proforma. It becomes fiscal once the official document is attached.
type Invoice struct {
	ID        uuid.UUID     `gorm:"type:uuid;primaryKey" json:"id"`
	Number    string        `gorm:"uniqueIndex;not null" json:"number"`
	PaymentID uuid.UUID     `gorm:"type:uuid;uniqueIndex;not null" json:"paymentId"`
	BudgetID  uuid.UUID     `gorm:"type:uuid;index;not null" json:"budgetId"`
	Status    InvoiceStatus `gorm:"type:varchar(15);default:'PROFORMA'" json:"status"`

	Amount      float64 `gorm:"type:decimal(12,2);not null" json:"amount"`
	DocumentURL string  `json:"documentUrl"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func (i *Invoice) BeforeCreate(tx *gorm.DB) (err error) {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return
}
