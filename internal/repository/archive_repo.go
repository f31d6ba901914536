package repository

import (
	"context"

	"procurehub/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ArchiveRepository interface {
	Create(ctx context.Context, archive *model.ArchivedRequest) error
	FindByRequestID(ctx context.Context, requestID uuid.UUID) (*model.ArchivedRequest, error)
	List(ctx context.Context, page, limit int) ([]model.ArchivedRequest, int64, error)
}

type archiveRepository struct {
	db *gorm.DB
}

func NewArchiveRepository(db *gorm.DB) ArchiveRepository {
	return &archiveRepository{db: db}
}

func (r *archiveRepository) Create(ctx context.Context, archive *model.ArchivedRequest) error {
	return GetDB(ctx, r.db).Create(archive).Error
}

func (r *archiveRepository) FindByRequestID(ctx context.Context, requestID uuid.UUID) (*model.ArchivedRequest, error) {
	var archive model.ArchivedRequest
	if err := GetDB(ctx, r.db).Where("request_id = ?", requestID).First(&archive).Error; err != nil {
		return nil, err
	}
	return &archive, nil
}

func (r *archiveRepository) List(ctx context.Context, page, limit int) ([]model.ArchivedRequest, int64, error) {
	var total int64
	db := GetDB(ctx, r.db).Model(&model.ArchivedRequest{})

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}

	var archives []model.ArchivedRequest
	offset := (page - 1) * limit
	if err := db.Order("archived_at DESC").Offset(offset).Limit(limit).Find(&archives).Error; err != nil {
		return nil, 0, err
	}

	return archives, total, nil
}
