package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"procurehub/internal/model"
	"procurehub/internal/repository"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// --- DTOs ---

type CreateProductDTO struct {
	SKU         string  `json:"sku" binding:"required"`
	Name        string  `json:"name" binding:"required"`
	Description string  `json:"description"`
	Price       float64 `json:"price" binding:"required,min=0"`
}

// --- Interface ---

// CatalogService manages products around the request lifecycle: deactivation
// kicks open requests into the resolution workflow, deletion is gated by the
// lifecycle's active-request verdict.
type CatalogService interface {
	CreateProduct(ctx context.Context, dto CreateProductDTO) (*model.Product, error)
	GetProduct(ctx context.Context, id uuid.UUID) (*model.Product, error)
	ListProducts(ctx context.Context, page, limit int, search string) ([]model.Product, int64, error)
	DeactivateProduct(ctx context.Context, id uuid.UUID) error
	ActivateProduct(ctx context.Context, id uuid.UUID) error
	DeleteProduct(ctx context.Context, id uuid.UUID) error
}

type catalogService struct {
	products    repository.ProductRepository
	requests    repository.RequestRepository
	lifecycle   LifecycleService
	txManager   repository.TransactionManager
	broadcaster Broadcaster
	log         *slog.Logger
}

func NewCatalogService(
	products repository.ProductRepository,
	requests repository.RequestRepository,
	lifecycle LifecycleService,
	txManager repository.TransactionManager,
	broadcaster Broadcaster,
	log *slog.Logger,
) CatalogService {
	return &catalogService{
		products:    products,
		requests:    requests,
		lifecycle:   lifecycle,
		txManager:   txManager,
		broadcaster: broadcaster,
		log:         log,
	}
}

// --- Implementation ---

func (s *catalogService) CreateProduct(ctx context.Context, dto CreateProductDTO) (*model.Product, error) {
	product := model.Product{
		SKU:         dto.SKU,
		Name:        dto.Name,
		Description: dto.Description,
		Price:       dto.Price,
		Status:      model.ProductStatusActive,
	}
	if err := s.products.Create(ctx, &product); err != nil {
		return nil, fmt.Errorf("create product: %w", err)
	}
	return &product, nil
}

func (s *catalogService) GetProduct(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	product, err := s.products.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("load product: %w", err)
	}
	return product, nil
}

func (s *catalogService) ListProducts(ctx context.Context, page, limit int, search string) ([]model.Product, int64, error) {
	if page <= 0 {
		page = 1
	}
	if limit <= 0 {
		limit = 20
	}
	return s.products.List(ctx, page, limit, search)
}

// DeactivateProduct marks the product INACTIVE and puts every still-open
// request back to resolution PENDING, starting the resolution sub-workflow.
func (s *catalogService) DeactivateProduct(ctx context.Context, id uuid.UUID) error {
	product, err := s.GetProduct(ctx, id)
	if err != nil {
		return err
	}
	if product.Status == model.ProductStatusInactive {
		return nil
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if updateErr := s.products.UpdateStatus(txCtx, id, model.ProductStatusInactive); updateErr != nil {
			return fmt.Errorf("deactivate product: %w", updateErr)
		}
		if resetErr := s.requests.ResetResolution(txCtx, id); resetErr != nil {
			return fmt.Errorf("reset request resolution: %w", resetErr)
		}
		return nil
	})
	if err != nil {
		return err
	}

	product.Status = model.ProductStatusInactive
	s.broadcaster.Publish(productChannel(id), EventProductUpdated, product)
	return nil
}

func (s *catalogService) ActivateProduct(ctx context.Context, id uuid.UUID) error {
	product, err := s.GetProduct(ctx, id)
	if err != nil {
		return err
	}
	if product.Status == model.ProductStatusActive {
		return nil
	}
	if err := s.products.UpdateStatus(ctx, id, model.ProductStatusActive); err != nil {
		return fmt.Errorf("activate product: %w", err)
	}
	product.Status = model.ProductStatusActive
	s.broadcaster.Publish(productChannel(id), EventProductUpdated, product)
	return nil
}

// DeleteProduct removes the product once no request holds an unresolved
// obligation against it.
func (s *catalogService) DeleteProduct(ctx context.Context, id uuid.UUID) error {
	if _, err := s.GetProduct(ctx, id); err != nil {
		return err
	}

	deletable, err := s.lifecycle.VerifyProductDeletion(ctx, id)
	if err != nil {
		return err
	}
	if !deletable {
		return ErrProductNotDeletable
	}

	if err := s.products.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete product: %w", err)
	}

	s.broadcaster.Publish(productChannel(id), EventProductUpdated,
		map[string]interface{}{"product_id": id, "deleted": true})
	return nil
}
