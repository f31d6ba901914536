package repository

import (
	"context"
	"time"

	"procurehub/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type OutboxRepository interface {
	Enqueue(ctx context.Context, entry *model.EmailOutbox) error
	// ListDue returns pending entries whose next attempt time has passed,
	// oldest first.
	ListDue(ctx context.Context, now time.Time, limit int) ([]model.EmailOutbox, error)
	MarkSent(ctx context.Context, id uuid.UUID, at time.Time) error
	MarkAttemptFailed(ctx context.Context, id uuid.UUID, attempts int, nextAttempt time.Time, lastError string) error
	MarkDead(ctx context.Context, id uuid.UUID, lastError string) error
}

type outboxRepository struct {
	db *gorm.DB
}

func NewOutboxRepository(db *gorm.DB) OutboxRepository {
	return &outboxRepository{db: db}
}

func (r *outboxRepository) Enqueue(ctx context.Context, entry *model.EmailOutbox) error {
	return GetDB(ctx, r.db).Create(entry).Error
}

func (r *outboxRepository) ListDue(ctx context.Context, now time.Time, limit int) ([]model.EmailOutbox, error) {
	var entries []model.EmailOutbox
	if err := GetDB(ctx, r.db).
		Where("status = ? AND next_attempt_at <= ?", model.OutboxPending, now).
		Order("next_attempt_at ASC").
		Limit(limit).
		Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *outboxRepository) MarkSent(ctx context.Context, id uuid.UUID, at time.Time) error {
	return GetDB(ctx, r.db).Model(&model.EmailOutbox{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":  model.OutboxSent,
			"sent_at": at,
		}).Error
}

func (r *outboxRepository) MarkAttemptFailed(ctx context.Context, id uuid.UUID, attempts int, nextAttempt time.Time, lastError string) error {
	return GetDB(ctx, r.db).Model(&model.EmailOutbox{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"attempts":        attempts,
			"next_attempt_at": nextAttempt,
			"last_error":      lastError,
		}).Error
}

func (r *outboxRepository) MarkDead(ctx context.Context, id uuid.UUID, lastError string) error {
	return GetDB(ctx, r.db).Model(&model.EmailOutbox{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"status":     model.OutboxFailed,
			"last_error": lastError,
		}).Error
}
