package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// InvoiceStatus enum constants
const (
	InvoiceStatusDraft     = "DRAFT"
	InvoiceStatusSent      = "SENT"
	InvoiceStatusPaid      = "PAID"
	InvoiceStatusCancelled = "CANCELLED"
)

// Invoice is the financial document generated once a request reaches an
// invoice-requiring status. At most one per request — the unique index on
// request_id backs the generator's idempotency guarantee.
type Invoice struct {
	ID        uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
	InvoiceNo string          `gorm:"type:varchar(30);uniqueIndex;not null" json:"invoice_no"`
	RequestID uuid.UUID       `gorm:"type:uuid;uniqueIndex;not null" json:"request_id"`
	Amount    decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"amount"`
	Status    string          `gorm:"type:varchar(20);not null;default:'DRAFT';index" json:"status"` // DRAFT, SENT, PAID, CANCELLED
	DueDate   time.Time       `gorm:"not null" json:"due_date"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

func (i *Invoice) BeforeCreate(*gorm.DB) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	return nil
}
