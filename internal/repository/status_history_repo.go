package repository

import (
	"context"

	"procurehub/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type StatusHistoryRepository interface {
	Append(ctx context.Context, entry *model.StatusHistory) error
	ListByRequest(ctx context.Context, requestID uuid.UUID) ([]model.StatusHistory, error)
	Latest(ctx context.Context, requestID uuid.UUID) (*model.StatusHistory, error)
	DeleteByRequestID(ctx context.Context, requestID uuid.UUID) error
}

type statusHistoryRepository struct {
	db *gorm.DB
}

func NewStatusHistoryRepository(db *gorm.DB) StatusHistoryRepository {
	return &statusHistoryRepository{db: db}
}

func (r *statusHistoryRepository) Append(ctx context.Context, entry *model.StatusHistory) error {
	return GetDB(ctx, r.db).Create(entry).Error
}

func (r *statusHistoryRepository) ListByRequest(ctx context.Context, requestID uuid.UUID) ([]model.StatusHistory, error) {
	var entries []model.StatusHistory
	if err := GetDB(ctx, r.db).
		Where("request_id = ?", requestID).
		Order("created_at ASC").
		Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

func (r *statusHistoryRepository) Latest(ctx context.Context, requestID uuid.UUID) (*model.StatusHistory, error) {
	var entry model.StatusHistory
	if err := GetDB(ctx, r.db).
		Where("request_id = ?", requestID).
		Order("created_at DESC").
		First(&entry).Error; err != nil {
		return nil, err
	}
	return &entry, nil
}

func (r *statusHistoryRepository) DeleteByRequestID(ctx context.Context, requestID uuid.UUID) error {
	return GetDB(ctx, r.db).Where("request_id = ?", requestID).Delete(&model.StatusHistory{}).Error
}
