package repository

import (
	"context"
	"time"

	"procurehub/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// RequestFilter narrows request listings.
type RequestFilter struct {
	Status           string
	ResolutionStatus string
	ProductID        *uuid.UUID
	CustomerID       *uuid.UUID
	Page             int
	Limit            int
}

type RequestRepository interface {
	Create(ctx context.Context, req *model.Request) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Request, error)
	// FindByIDWithProduct returns the request together with its product row —
	// the joined view the deletion-safety evaluator decides over.
	FindByIDWithProduct(ctx context.Context, id uuid.UUID) (*model.Request, error)
	List(ctx context.Context, filter RequestFilter) ([]model.Request, int64, error)
	ListByProduct(ctx context.Context, productID uuid.UUID) ([]model.Request, error)
	// ListForCleanup selects a product's requests with an unpaid invoice that
	// have already been notified about the product going away.
	ListForCleanup(ctx context.Context, productID uuid.UUID) ([]model.Request, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) error
	UpdateResolutionStatus(ctx context.Context, id uuid.UUID, status string) error
	UpdateInvoiceStatus(ctx context.Context, id uuid.UUID, status string) error
	SetAdminProcessing(ctx context.Context, id uuid.UUID, processing bool) error
	MarkNotified(ctx context.Context, id uuid.UUID, kind string, at time.Time) error
	ResetResolution(ctx context.Context, productID uuid.UUID) error
	CountActiveByProduct(ctx context.Context, productID uuid.UUID) (int64, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type requestRepository struct {
	db *gorm.DB
}

func NewRequestRepository(db *gorm.DB) RequestRepository {
	return &requestRepository{db: db}
}

func (r *requestRepository) Create(ctx context.Context, req *model.Request) error {
	return GetDB(ctx, r.db).Create(req).Error
}

func (r *requestRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Request, error) {
	var req model.Request
	if err := GetDB(ctx, r.db).First(&req, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *requestRepository) FindByIDWithProduct(ctx context.Context, id uuid.UUID) (*model.Request, error) {
	var req model.Request
	if err := GetDB(ctx, r.db).
		Preload("Product").
		Preload("Customer").
		Preload("Invoice").
		First(&req, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &req, nil
}

func (r *requestRepository) List(ctx context.Context, filter RequestFilter) ([]model.Request, int64, error) {
	var total int64

	db := GetDB(ctx, r.db).Model(&model.Request{})
	if filter.Status != "" {
		db = db.Where("status = ?", filter.Status)
	}
	if filter.ResolutionStatus != "" {
		db = db.Where("resolution_status = ?", filter.ResolutionStatus)
	}
	if filter.ProductID != nil {
		db = db.Where("product_id = ?", *filter.ProductID)
	}
	if filter.CustomerID != nil {
		db = db.Where("customer_id = ?", *filter.CustomerID)
	}

	if err := db.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.Limit <= 0 {
		filter.Limit = 20
	}

	var requests []model.Request
	offset := (filter.Page - 1) * filter.Limit
	if err := db.Preload("Product").Preload("Customer").
		Order("created_at DESC").
		Offset(offset).Limit(filter.Limit).
		Find(&requests).Error; err != nil {
		return nil, 0, err
	}

	return requests, total, nil
}

func (r *requestRepository) ListByProduct(ctx context.Context, productID uuid.UUID) ([]model.Request, error) {
	var requests []model.Request
	if err := GetDB(ctx, r.db).
		Where("product_id = ?", productID).
		Find(&requests).Error; err != nil {
		return nil, err
	}
	return requests, nil
}

func (r *requestRepository) ListForCleanup(ctx context.Context, productID uuid.UUID) ([]model.Request, error) {
	var requests []model.Request
	if err := GetDB(ctx, r.db).
		Where("product_id = ? AND invoice_status = ? AND resolution_status = ?",
			productID, model.RequestInvoiceUnpaid, model.ResolutionNotified).
		Find(&requests).Error; err != nil {
		return nil, err
	}
	return requests, nil
}

func (r *requestRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	return GetDB(ctx, r.db).Model(&model.Request{}).
		Where("id = ?", id).
		Update("status", status).Error
}

func (r *requestRepository) UpdateResolutionStatus(ctx context.Context, id uuid.UUID, status string) error {
	return GetDB(ctx, r.db).Model(&model.Request{}).
		Where("id = ?", id).
		Update("resolution_status", status).Error
}

func (r *requestRepository) UpdateInvoiceStatus(ctx context.Context, id uuid.UUID, status string) error {
	return GetDB(ctx, r.db).Model(&model.Request{}).
		Where("id = ?", id).
		Update("invoice_status", status).Error
}

func (r *requestRepository) SetAdminProcessing(ctx context.Context, id uuid.UUID, processing bool) error {
	return GetDB(ctx, r.db).Model(&model.Request{}).
		Where("id = ?", id).
		Update("admin_processing", processing).Error
}

func (r *requestRepository) MarkNotified(ctx context.Context, id uuid.UUID, kind string, at time.Time) error {
	return GetDB(ctx, r.db).Model(&model.Request{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"notification_sent":      true,
			"notification_type":      kind,
			"last_notification_date": at,
		}).Error
}

// ResetResolution puts every still-open request of a product back to
// resolution PENDING. Called when the product is deactivated.
func (r *requestRepository) ResetResolution(ctx context.Context, productID uuid.UUID) error {
	return GetDB(ctx, r.db).Model(&model.Request{}).
		Where("product_id = ? AND status NOT IN ?", productID,
			[]string{model.RequestStatusShipped, model.RequestStatusRejected}).
		Update("resolution_status", model.ResolutionPending).Error
}

func (r *requestRepository) CountActiveByProduct(ctx context.Context, productID uuid.UUID) (int64, error) {
	var count int64
	err := GetDB(ctx, r.db).Model(&model.Request{}).
		Where("product_id = ? AND resolution_status = ?", productID, model.ResolutionPending).
		Count(&count).Error
	return count, err
}

func (r *requestRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return GetDB(ctx, r.db).Where("id = ?", id).Delete(&model.Request{}).Error
}
