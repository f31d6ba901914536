package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// OutboxStatus enum constants
const (
	OutboxPending = "PENDING"
	OutboxSent    = "SENT"
	OutboxFailed  = "FAILED"
)

// EmailOutbox is a durable queue entry for an outbound email. Dispatch happens
// asynchronously in the outbox worker, so a crashed process never silently
// drops a pending notification email.
type EmailOutbox struct {
	ID            uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	Recipient     string     `gorm:"type:varchar(255);not null" json:"recipient"`
	Subject       string     `gorm:"type:varchar(255);not null" json:"subject"`
	TemplateName  string     `gorm:"type:varchar(50);not null" json:"template_name"`
	Payload       string     `gorm:"type:jsonb;not null" json:"payload"`
	Status        string     `gorm:"type:varchar(20);not null;default:'PENDING';index" json:"status"` // PENDING, SENT, FAILED
	Attempts      int        `gorm:"type:int;not null;default:0" json:"attempts"`
	NextAttemptAt time.Time  `gorm:"index" json:"next_attempt_at"`
	LastError     string     `gorm:"type:text" json:"last_error"`
	SentAt        *time.Time `json:"sent_at"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

func (e *EmailOutbox) BeforeCreate(*gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}
