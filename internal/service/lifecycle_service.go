package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"procurehub/internal/model"
	"procurehub/internal/repository"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const systemActor = "system"

// --- DTOs ---

type CreateRequestDTO struct {
	CustomerID      string `json:"customer_id" binding:"required"`
	ProductID       string `json:"product_id" binding:"required"`
	Quantity        int    `json:"quantity" binding:"required,gt=0"`
	Budget          string `json:"budget" binding:"required"`
	ShippingAddress string `json:"shipping_address"`
}

// BulkResult reports a fan-out operation: how many items went through and
// which failed. Failures never halt the batch.
type BulkResult struct {
	Processed int         `json:"processed"`
	Failed    int         `json:"failed"`
	FailedIDs []uuid.UUID `json:"failed_ids,omitempty"`
}

// CleanupResult is BulkResult plus the product-deletable verdict a cleanup
// sweep ends with.
type CleanupResult struct {
	BulkResult
	ProductDeletable bool `json:"product_deletable"`
}

// --- Interface ---

// LifecycleService owns every request status mutation and the side effects a
// transition triggers: notification dispatch, invoice generation, realtime
// broadcast, deletion safety and archival.
type LifecycleService interface {
	CreateRequest(ctx context.Context, dto CreateRequestDTO) (*model.Request, error)
	Transition(ctx context.Context, requestID uuid.UUID, axis Axis, newStatus, actor, notes string) error
	SendNotifications(ctx context.Context, requestID uuid.UUID, kind string) error
	ProcessPaidRequest(ctx context.Context, requestID uuid.UUID) error
	ProcessUnpaidRequest(ctx context.Context, requestID uuid.UUID) error
	SetAdminProcessing(ctx context.Context, requestID uuid.UUID, processing bool) error
	ActiveRequestCount(ctx context.Context, productID uuid.UUID) (int64, error)
	VerifyProductDeletion(ctx context.Context, productID uuid.UUID) (bool, error)
	ProcessRequestDeletion(ctx context.Context, requestID uuid.UUID, actor string) error
	NotifySelected(ctx context.Context, requestIDs []uuid.UUID) BulkResult
	BulkCleanup(ctx context.Context, productID uuid.UUID) (CleanupResult, error)
}

type lifecycleService struct {
	requests    repository.RequestRepository
	history     repository.StatusHistoryRepository
	archives    repository.ArchiveRepository
	products    repository.ProductRepository
	invoiceRepo repository.InvoiceRepository
	invoices    InvoiceTrigger
	notifier    Notifier
	txManager   repository.TransactionManager
	broadcaster Broadcaster
	locks       *keyedMutex
	log         *slog.Logger
}

func NewLifecycleService(
	requests repository.RequestRepository,
	history repository.StatusHistoryRepository,
	archives repository.ArchiveRepository,
	products repository.ProductRepository,
	invoiceRepo repository.InvoiceRepository,
	invoices InvoiceTrigger,
	notifier Notifier,
	txManager repository.TransactionManager,
	broadcaster Broadcaster,
	log *slog.Logger,
) LifecycleService {
	return &lifecycleService{
		requests:    requests,
		history:     history,
		archives:    archives,
		products:    products,
		invoiceRepo: invoiceRepo,
		invoices:    invoices,
		notifier:    notifier,
		txManager:   txManager,
		broadcaster: broadcaster,
		locks:       newKeyedMutex(),
		log:         log,
	}
}

// --- Implementation ---

func (s *lifecycleService) CreateRequest(ctx context.Context, dto CreateRequestDTO) (*model.Request, error) {
	customerID, err := uuid.Parse(dto.CustomerID)
	if err != nil {
		return nil, fmt.Errorf("invalid customer_id: %w", err)
	}
	productID, err := uuid.Parse(dto.ProductID)
	if err != nil {
		return nil, fmt.Errorf("invalid product_id: %w", err)
	}
	budget, err := decimal.NewFromString(dto.Budget)
	if err != nil {
		return nil, fmt.Errorf("invalid budget: %w", err)
	}

	product, err := s.products.FindByID(ctx, productID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrProductNotFound
		}
		return nil, fmt.Errorf("load product: %w", err)
	}
	if product.Status != model.ProductStatusActive {
		return nil, ErrProductInactive
	}

	req := model.Request{
		CustomerID:       customerID,
		ProductID:        productID,
		Quantity:         dto.Quantity,
		Budget:           budget,
		Status:           model.RequestStatusPending,
		ResolutionStatus: model.ResolutionPending,
		InvoiceStatus:    model.RequestInvoiceUnpaid,
		ShippingAddress:  dto.ShippingAddress,
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if createErr := s.requests.Create(txCtx, &req); createErr != nil {
			return fmt.Errorf("create request: %w", createErr)
		}
		entry := model.StatusHistory{
			RequestID: req.ID,
			Status:    model.RequestStatusPending,
			Notes:     "request created",
			UpdatedBy: dto.CustomerID,
		}
		if histErr := s.history.Append(txCtx, &entry); histErr != nil {
			return fmt.Errorf("append status history: %w", histErr)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.broadcastSnapshot(ctx, req.ID)
	return &req, nil
}

func (s *lifecycleService) Transition(ctx context.Context, requestID uuid.UUID, axis Axis, newStatus, actor, notes string) error {
	if !ValidForAxis(axis, newStatus) {
		return fmt.Errorf("%w: %q on %s axis", ErrInvalidTransition, newStatus, axis)
	}

	s.locks.Lock(requestID)
	defer s.locks.Unlock(requestID)

	_, err := s.transitionLocked(ctx, requestID, axis, newStatus, actor, notes, true)
	return err
}

// transitionLocked persists the status write and its history append, then
// fires the policy-resolved notification when dispatch is set. Callers hold
// the per-request lock. The status write is the source of truth: notification
// failures are logged and swallowed, persistence failures propagate.
func (s *lifecycleService) transitionLocked(ctx context.Context, requestID uuid.UUID, axis Axis, newStatus, actor, notes string, dispatch bool) (*model.Request, error) {
	req, err := s.requests.FindByIDWithProduct(ctx, requestID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("load request: %w", err)
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		switch axis {
		case AxisRequest:
			if updateErr := s.requests.UpdateStatus(txCtx, requestID, newStatus); updateErr != nil {
				return fmt.Errorf("update status: %w", updateErr)
			}
			entry := model.StatusHistory{
				RequestID: requestID,
				Status:    newStatus,
				Notes:     notes,
				UpdatedBy: actor,
			}
			if histErr := s.history.Append(txCtx, &entry); histErr != nil {
				return fmt.Errorf("append status history: %w", histErr)
			}

			switch newStatus {
			case model.RequestStatusApproved, model.RequestStatusFulfilled:
				if _, invErr := s.invoices.Generate(txCtx, req); invErr != nil {
					return fmt.Errorf("generate invoice: %w", invErr)
				}
			case model.RequestStatusRejected:
				if cancelErr := s.invoices.CancelForRequest(txCtx, requestID); cancelErr != nil {
					return fmt.Errorf("cancel invoice: %w", cancelErr)
				}
			}
		case AxisResolution:
			if updateErr := s.requests.UpdateResolutionStatus(txCtx, requestID, newStatus); updateErr != nil {
				return fmt.Errorf("update resolution status: %w", updateErr)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if axis == AxisRequest {
		req.Status = newStatus
	} else {
		req.ResolutionStatus = newStatus
	}

	if dispatch {
		policy, known := PolicyFor(axis, newStatus)
		if !known {
			s.log.Warn("no status policy, falling back to pending",
				"requestId", requestID, "axis", axis, "status", newStatus)
		}
		if policy.Notify {
			if dispatchErr := s.notifier.Dispatch(ctx, req, policy.Kind); dispatchErr != nil {
				s.log.Warn("notification dispatch failed",
					"requestId", requestID, "kind", policy.Kind, "error", dispatchErr)
			}
		}
	}

	s.broadcastSnapshot(ctx, requestID)
	return req, nil
}

func (s *lifecycleService) SendNotifications(ctx context.Context, requestID uuid.UUID, kind string) error {
	s.locks.Lock(requestID)
	defer s.locks.Unlock(requestID)

	return s.sendNotificationsLocked(ctx, requestID, kind)
}

// sendNotificationsLocked transitions the request into the status the kind
// implies and inserts the customer-addressed notification. The processing
// marker clears even when the body fails.
func (s *lifecycleService) sendNotificationsLocked(ctx context.Context, requestID uuid.UUID, kind string) error {
	route, ok := RouteFor(kind)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownNotificationKind, kind)
	}

	s.setProcessingMarker(ctx, requestID, true)
	defer s.setProcessingMarker(ctx, requestID, false)

	notes := fmt.Sprintf("notification: %s", kind)
	req, err := s.transitionLocked(ctx, requestID, route.Axis, route.Status, systemActor, notes, false)
	if err != nil {
		return err
	}

	if err := s.notifier.Dispatch(ctx, req, kind); err != nil {
		return fmt.Errorf("dispatch %s notification: %w", kind, err)
	}

	return nil
}

// setProcessingMarker writes the advisory in-flight flag and broadcasts the
// updated snapshot. The flag is a UI hint; actual mutual exclusion comes from
// the per-request lock.
func (s *lifecycleService) setProcessingMarker(ctx context.Context, requestID uuid.UUID, processing bool) {
	if err := s.requests.SetAdminProcessing(ctx, requestID, processing); err != nil {
		s.log.Warn("failed to set processing marker",
			"requestId", requestID, "processing", processing, "error", err)
		return
	}
	s.broadcastSnapshot(ctx, requestID)
}

func (s *lifecycleService) ProcessPaidRequest(ctx context.Context, requestID uuid.UUID) error {
	s.locks.Lock(requestID)
	defer s.locks.Unlock(requestID)

	if err := s.sendNotificationsLocked(ctx, requestID, model.NotifPaymentConfirmed); err != nil {
		return err
	}

	if err := s.invoices.MarkPaid(ctx, requestID); err != nil {
		return err
	}
	if err := s.requests.UpdateInvoiceStatus(ctx, requestID, model.RequestInvoicePaid); err != nil {
		return fmt.Errorf("update request invoice status: %w", err)
	}

	s.broadcastSnapshot(ctx, requestID)
	return nil
}

func (s *lifecycleService) ProcessUnpaidRequest(ctx context.Context, requestID uuid.UUID) error {
	s.locks.Lock(requestID)
	defer s.locks.Unlock(requestID)

	if err := s.sendNotificationsLocked(ctx, requestID, model.NotifPaymentPending); err != nil {
		return err
	}

	if err := s.requests.UpdateInvoiceStatus(ctx, requestID, model.RequestInvoiceUnpaid); err != nil {
		return fmt.Errorf("update request invoice status: %w", err)
	}

	s.broadcastSnapshot(ctx, requestID)
	return nil
}

func (s *lifecycleService) SetAdminProcessing(ctx context.Context, requestID uuid.UUID, processing bool) error {
	if _, err := s.requests.FindByID(ctx, requestID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("load request: %w", err)
	}
	if err := s.requests.SetAdminProcessing(ctx, requestID, processing); err != nil {
		return fmt.Errorf("set admin processing: %w", err)
	}
	s.broadcastSnapshot(ctx, requestID)
	return nil
}

func (s *lifecycleService) ActiveRequestCount(ctx context.Context, productID uuid.UUID) (int64, error) {
	return s.requests.CountActiveByProduct(ctx, productID)
}

func (s *lifecycleService) VerifyProductDeletion(ctx context.Context, productID uuid.UUID) (bool, error) {
	count, err := s.requests.CountActiveByProduct(ctx, productID)
	if err != nil {
		return false, fmt.Errorf("count active requests: %w", err)
	}
	return count == 0, nil
}

func (s *lifecycleService) ProcessRequestDeletion(ctx context.Context, requestID uuid.UUID, actor string) error {
	s.locks.Lock(requestID)
	defer s.locks.Unlock(requestID)

	req, err := s.requests.FindByIDWithProduct(ctx, requestID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("load request: %w", err)
	}

	if req.Status == model.RequestStatusShipped {
		return s.archiveAndDelete(ctx, req)
	}

	if req.Product == nil {
		return ErrProductNotFound
	}
	if !VerifyDeletionSafety(req.Status, req.ResolutionStatus, req.Product.Status) {
		return fmt.Errorf("%w: status=%s resolution=%s product=%s",
			ErrUnsafeDeletion, req.Status, req.ResolutionStatus, req.Product.Status)
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		return s.deleteRequestRows(txCtx, requestID)
	})
	if err != nil {
		return err
	}

	s.broadcastDeletion(req)
	return nil
}

// archiveAndDelete is the shipped-only deletion path: snapshot first, then
// remove. The archive insert and the deletes share one transaction — if the
// snapshot cannot be written, nothing is deleted.
func (s *lifecycleService) archiveAndDelete(ctx context.Context, req *model.Request) error {
	// Final courtesy notification; archival proceeds even if it fails.
	if err := s.notifier.Dispatch(ctx, req, model.NotifShipped); err != nil {
		s.log.Warn("final shipped notification failed",
			"requestId", req.ID, "error", err)
	}

	productName := ""
	if req.Product != nil {
		productName = req.Product.Name
	}

	archive := model.ArchivedRequest{
		RequestID:       req.ID,
		CustomerID:      req.CustomerID,
		ProductID:       req.ProductID,
		ProductName:     productName,
		Quantity:        req.Quantity,
		Status:          req.Status,
		ShippingAddress: req.ShippingAddress,
		TrackingNumber:  req.TrackingNumber,
	}
	if req.Invoice != nil {
		archive.InvoiceNo = req.Invoice.InvoiceNo
		archive.InvoiceAmount = req.Invoice.Amount
		archive.InvoiceStatus = req.Invoice.Status
	}

	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if archiveErr := s.archives.Create(txCtx, &archive); archiveErr != nil {
			return fmt.Errorf("create archive snapshot: %w", archiveErr)
		}
		return s.deleteRequestRows(txCtx, req.ID)
	})
	if err != nil {
		return err
	}

	s.broadcastDeletion(req)
	return nil
}

// deleteRequestRows removes history, invoice, then the request, in that order
// to respect foreign-key dependencies.
func (s *lifecycleService) deleteRequestRows(ctx context.Context, requestID uuid.UUID) error {
	if err := s.history.DeleteByRequestID(ctx, requestID); err != nil {
		return fmt.Errorf("delete status history: %w", err)
	}
	if err := s.invoiceRepo.DeleteByRequestID(ctx, requestID); err != nil {
		return fmt.Errorf("delete invoice: %w", err)
	}
	if err := s.requests.Delete(ctx, requestID); err != nil {
		return fmt.Errorf("delete request: %w", err)
	}
	return nil
}

func (s *lifecycleService) NotifySelected(ctx context.Context, requestIDs []uuid.UUID) BulkResult {
	var result BulkResult
	for _, id := range requestIDs {
		if err := s.SendNotifications(ctx, id, model.NotifUnavailable); err != nil {
			s.log.Error("notify selected item failed", "requestId", id, "error", err)
			result.Failed++
			result.FailedIDs = append(result.FailedIDs, id)
			continue
		}
		result.Processed++
	}
	return result
}

func (s *lifecycleService) BulkCleanup(ctx context.Context, productID uuid.UUID) (CleanupResult, error) {
	var result CleanupResult

	requests, err := s.requests.ListForCleanup(ctx, productID)
	if err != nil {
		return result, fmt.Errorf("list requests for cleanup: %w", err)
	}

	for _, req := range requests {
		if procErr := s.ProcessUnpaidRequest(ctx, req.ID); procErr != nil {
			s.log.Error("bulk cleanup item failed", "requestId", req.ID, "error", procErr)
			result.Failed++
			result.FailedIDs = append(result.FailedIDs, req.ID)
			continue
		}
		result.Processed++
	}

	deletable, err := s.VerifyProductDeletion(ctx, productID)
	if err != nil {
		return result, err
	}
	result.ProductDeletable = deletable
	return result, nil
}

// --- Broadcast helpers ---

func requestChannel(id uuid.UUID) string { return "request:" + id.String() }
func productChannel(id uuid.UUID) string { return "product:" + id.String() }

func (s *lifecycleService) broadcastSnapshot(ctx context.Context, requestID uuid.UUID) {
	req, err := s.requests.FindByIDWithProduct(ctx, requestID)
	if err != nil {
		s.log.Warn("snapshot broadcast skipped", "requestId", requestID, "error", err)
		return
	}
	s.broadcaster.Publish(requestChannel(req.ID), EventRequestUpdated, req)
	s.broadcaster.Publish(productChannel(req.ProductID), EventRequestUpdated, req)
}

func (s *lifecycleService) broadcastDeletion(req *model.Request) {
	payload := map[string]interface{}{"request_id": req.ID, "product_id": req.ProductID}
	s.broadcaster.Publish(requestChannel(req.ID), EventRequestDeleted, payload)
	s.broadcaster.Publish(productChannel(req.ProductID), EventRequestDeleted, payload)
}
