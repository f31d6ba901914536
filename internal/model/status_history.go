package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// StatusHistory is the append-only audit trail of fulfillment-axis
// transitions. One row per transition; never updated or deleted while the
// request lives.
type StatusHistory struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey" json:"id"`
	RequestID uuid.UUID `gorm:"type:uuid;not null;index" json:"request_id"`
	Status    string    `gorm:"type:varchar(20);not null" json:"status"`
	Notes     string    `gorm:"type:text" json:"notes"`
	UpdatedBy string    `gorm:"type:varchar(255);not null" json:"updated_by"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
}

func (h *StatusHistory) BeforeCreate(*gorm.DB) error {
	if h.ID == uuid.Nil {
		h.ID = uuid.New()
	}
	return nil
}
