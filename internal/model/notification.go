package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// NotificationKind enum constants. These are the wire names the customer UI
// filters on, so they stay stable even if status names change.
const (
	NotifPaymentPending   = "payment_pending"
	NotifPaymentConfirmed = "payment_confirmed"
	NotifFulfilled        = "order_fulfilled"
	NotifShipped          = "order_shipped"
	NotifRejected         = "order_rejected"
	NotifUnavailable      = "unavailable"
	NotifResolved         = "resolution_complete"
)

// ReferenceType enum constants
const (
	RefTypeRequest = "REQUEST"
	RefTypeProduct = "PRODUCT"
	RefTypeInvoice = "INVOICE"
)

// Notification is a persisted message addressed to a user, rendered by the UI
// and reused as email template input. Metadata holds one of the typed payloads
// below, serialized as JSON.
type Notification struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	UserID        uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	Type          string    `gorm:"type:varchar(50);not null;index" json:"type"`
	Content       string    `gorm:"type:text;not null" json:"content"`
	ReferenceID   uuid.UUID `gorm:"type:uuid;not null;index" json:"reference_id"`
	ReferenceType string    `gorm:"type:varchar(20);not null" json:"reference_type"` // REQUEST, PRODUCT, INVOICE
	Metadata      string    `gorm:"type:jsonb" json:"metadata"`
	ReadStatus    bool      `gorm:"default:false;index" json:"read_status"`
	CreatedAt     time.Time `gorm:"index" json:"created_at"`
}

func (n *Notification) BeforeCreate(*gorm.DB) error {
	if n.ID == uuid.Nil {
		n.ID = uuid.New()
	}
	return nil
}

// Metadata payloads. One closed struct per notification kind with its required
// fields — kept typed instead of an open map so producers cannot drop fields
// the templates need.

// StatusChangeMeta backs payment_pending, payment_confirmed, order_fulfilled
// and order_rejected notifications.
type StatusChangeMeta struct {
	Kind        string `json:"kind"`
	ProductName string `json:"product_name"`
	Status      string `json:"status"`
	Quantity    int    `json:"quantity"`
}

// ShippedMeta backs order_shipped notifications.
type ShippedMeta struct {
	Kind            string `json:"kind"`
	ProductName     string `json:"product_name"`
	TrackingNumber  string `json:"tracking_number"`
	ShippingAddress string `json:"shipping_address"`
}

// ResolutionMeta backs unavailable and resolution_complete notifications.
type ResolutionMeta struct {
	Kind             string `json:"kind"`
	ProductName      string `json:"product_name"`
	ResolutionStatus string `json:"resolution_status"`
}
