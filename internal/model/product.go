package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ProductStatus enum constants
const (
	ProductStatusActive   = "ACTIVE"
	ProductStatusInactive = "INACTIVE"
)

// Product represents a catalog entry customers can request. Deactivating a
// product starts the resolution sub-workflow on its open requests; deletion is
// only allowed once no request holds an unresolved obligation against it.
type Product struct {
	ID          uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	SKU         string         `gorm:"type:varchar(100);uniqueIndex;not null" json:"sku"`
	Name        string         `gorm:"type:varchar(255);not null" json:"name"`
	Description string         `gorm:"type:text" json:"description"`
	Price       float64        `gorm:"type:decimal(10,2);not null" json:"price"`
	Status      string         `gorm:"type:varchar(20);not null;default:'ACTIVE';index" json:"status"` // ACTIVE, INACTIVE
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

func (p *Product) BeforeCreate(*gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
