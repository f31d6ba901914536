package repository

import (
	"context"

	"procurehub/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type InvoiceFilter struct {
	Status string
	Page   int
	Limit  int
}

type InvoiceRepository interface {
	Create(ctx context.Context, invoice *model.Invoice) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Invoice, error)
	FindByRequestID(ctx context.Context, requestID uuid.UUID) (*model.Invoice, error)
	List(ctx context.Context, filter InvoiceFilter) ([]model.Invoice, int64, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) error
	CountByPrefix(ctx context.Context, prefix string) (int64, error)
	LockNumberSequence(ctx context.Context, prefix string)
	DeleteByRequestID(ctx context.Context, requestID uuid.UUID) error
}

type invoiceRepository struct {
	db *gorm.DB
}

func NewInvoiceRepository(db *gorm.DB) InvoiceRepository {
	return &invoiceRepository{db: db}
}

func (r *invoiceRepository) Create(ctx context.Context, invoice *model.Invoice) error {
	return GetDB(ctx, r.db).Create(invoice).Error
}

func (r *invoiceRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Invoice, error) {
	var invoice model.Invoice
	if err := GetDB(ctx, r.db).First(&invoice, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &invoice, nil
}

func (r *invoiceRepository) FindByRequestID(ctx context.Context, requestID uuid.UUID) (*model.Invoice, error) {
	var invoice model.Invoice
	if err := GetDB(ctx, r.db).Where("request_id = ?", requestID).First(&invoice).Error; err != nil {
		return nil, err
	}
	return &invoice, nil
}

func (r *invoiceRepository) List(ctx context.Context, filter InvoiceFilter) ([]model.Invoice, int64, error) {
	var total int64

	db := GetDB(ctx, r.db).Model(&model.Invoice{})
	if filter.Status != "" {
		db = db.Where("status = ?", filter.Status)
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

	var invoices []model.Invoice
	offset := (filter.Page - 1) * filter.Limit
	if err := db.Order("created_at DESC").Offset(offset).Limit(filter.Limit).Find(&invoices).Error; err != nil {
		return nil, 0, err
	}

	return invoices, total, nil
}

func (r *invoiceRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	return GetDB(ctx, r.db).Model(&model.Invoice{}).
		Where("id = ?", id).
		Update("status", status).Error
}

// CountByPrefix counts invoices whose number starts with prefix. Callers hold
// a pg advisory lock on the prefix while numbering, matching the store's
// single-writer assumption for daily sequences.
func (r *invoiceRepository) CountByPrefix(ctx context.Context, prefix string) (int64, error) {
	var count int64
	err := GetDB(ctx, r.db).Model(&model.Invoice{}).
		Where("invoice_no LIKE ?", prefix+"%").
		Count(&count).Error
	return count, err
}

// LockNumberSequence takes a pg advisory xact lock on the numbering prefix so
// concurrent transactions cannot hand out duplicate daily sequence numbers.
// Best effort: the sqlite test store has no advisory locks and is
// single-writer anyway.
func (r *invoiceRepository) LockNumberSequence(ctx context.Context, prefix string) {
	GetDB(ctx, r.db).Exec("SELECT pg_advisory_xact_lock(hashtext(?))", prefix)
}

func (r *invoiceRepository) DeleteByRequestID(ctx context.Context, requestID uuid.UUID) error {
	return GetDB(ctx, r.db).Where("request_id = ?", requestID).Delete(&model.Invoice{}).Error
}
