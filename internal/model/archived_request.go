package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// ArchivedRequest is the retention snapshot taken when a SHIPPED request is
// deleted. The archive row is inserted in the same transaction that removes
// the live request — a shipped request is never deleted without one.
type ArchivedRequest struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	RequestID  uuid.UUID `gorm:"type:uuid;not null;index" json:"request_id"`
	CustomerID uuid.UUID `gorm:"type:uuid;not null;index" json:"customer_id"`
	ProductID  uuid.UUID `gorm:"type:uuid;not null" json:"product_id"`

	ProductName string `gorm:"type:varchar(255);not null" json:"product_name"`
	Quantity    int    `gorm:"type:int;not null" json:"quantity"`
	Status      string `gorm:"type:varchar(20);not null" json:"status"`

	ShippingAddress string `gorm:"type:text" json:"shipping_address"`
	TrackingNumber  string `gorm:"type:varchar(100)" json:"tracking_number"`

	// Invoice snapshot at archival time; empty when no invoice was generated.
	InvoiceNo     string          `gorm:"type:varchar(30)" json:"invoice_no"`
	InvoiceAmount decimal.Decimal `gorm:"type:decimal(18,4)" json:"invoice_amount"`
	InvoiceStatus string          `gorm:"type:varchar(20)" json:"invoice_status"`

	ArchivedAt time.Time `gorm:"autoCreateTime" json:"archived_at"`
}

func (a *ArchivedRequest) BeforeCreate(*gorm.DB) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	return nil
}
