package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// RequestStatus enum constants (fulfillment axis)
const (
	RequestStatusPending   = "PENDING"
	RequestStatusApproved  = "APPROVED"
	RequestStatusFulfilled = "FULFILLED"
	RequestStatusShipped   = "SHIPPED"
	RequestStatusRejected  = "REJECTED"
)

// ResolutionStatus enum constants (resolution axis — only meaningful while the
// owning product is INACTIVE)
const (
	ResolutionPending  = "PENDING"
	ResolutionNotified = "NOTIFIED"
	ResolutionResolved = "RESOLVED"
)

// InvoiceSettlement enum constants (denormalized settlement marker on Request)
const (
	RequestInvoicePaid   = "PAID"
	RequestInvoiceUnpaid = "UNPAID"
)

// Request is a customer's ask for a quantity of a product at a budget. Status
// fields are mutated exclusively through the lifecycle service; the latest
// StatusHistory entry always matches Status.
type Request struct {
	ID         uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	CustomerID uuid.UUID `gorm:"type:uuid;not null;index" json:"customer_id"`
	Customer   *User     `gorm:"foreignKey:CustomerID" json:"customer,omitempty"`
	ProductID  uuid.UUID `gorm:"type:uuid;not null;index" json:"product_id"`
	Product    *Product  `gorm:"foreignKey:ProductID" json:"product,omitempty"`

	Quantity int             `gorm:"type:int;not null" json:"quantity"`
	Budget   decimal.Decimal `gorm:"type:decimal(18,4);not null" json:"budget"`

	Status           string `gorm:"type:varchar(20);not null;default:'PENDING';index" json:"status"`            // PENDING, APPROVED, FULFILLED, SHIPPED, REJECTED
	ResolutionStatus string `gorm:"type:varchar(20);not null;default:'PENDING';index" json:"resolution_status"` // PENDING, NOTIFIED, RESOLVED
	InvoiceStatus    string `gorm:"type:varchar(10);not null;default:'UNPAID'" json:"invoice_status"`           // PAID, UNPAID

	// Denormalized record of the most recent notification side effect. UI
	// display and idempotency heuristics only — not a delivery guarantee.
	NotificationSent     bool       `gorm:"default:false" json:"notification_sent"`
	NotificationType     string     `gorm:"type:varchar(50)" json:"notification_type"`
	LastNotificationDate *time.Time `json:"last_notification_date"`

	// Advisory marker: a side-effect pipeline is in flight for this request.
	// Written and broadcast for UI consumption; mutual exclusion itself is
	// enforced in-process by the lifecycle service.
	AdminProcessing bool `gorm:"default:false" json:"admin_processing"`

	ShippingAddress string `gorm:"type:text" json:"shipping_address"`
	TrackingNumber  string `gorm:"type:varchar(100)" json:"tracking_number"`

	Invoice *Invoice        `gorm:"foreignKey:RequestID" json:"invoice,omitempty"`
	History []StatusHistory `gorm:"foreignKey:RequestID" json:"history,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (r *Request) BeforeCreate(*gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}
