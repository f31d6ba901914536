package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"procurehub/internal/model"
	"procurehub/internal/repository"

	gormsqlite "github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type testEnv struct {
	db            *gorm.DB
	requests      repository.RequestRepository
	history       repository.StatusHistoryRepository
	archives      repository.ArchiveRepository
	products      repository.ProductRepository
	invoices      repository.InvoiceRepository
	notifications repository.NotificationRepository
	outbox        repository.OutboxRepository
	users         repository.UserRepository
	trigger       InvoiceTrigger
	lifecycle     LifecycleService
	catalog       CatalogService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	dsn := filepath.Join(t.TempDir(), "lifecycle.sqlite")
	db, err := gorm.Open(gormsqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = sqlDB.Close()
	})

	require.NoError(t, db.AutoMigrate(
		&model.User{},
		&model.Product{},
		&model.Request{},
		&model.StatusHistory{},
		&model.Invoice{},
		&model.ArchivedRequest{},
		&model.Notification{},
		&model.EmailOutbox{},
	))

	env := &testEnv{
		db:            db,
		requests:      repository.NewRequestRepository(db),
		history:       repository.NewStatusHistoryRepository(db),
		archives:      repository.NewArchiveRepository(db),
		products:      repository.NewProductRepository(db),
		invoices:      repository.NewInvoiceRepository(db),
		notifications: repository.NewNotificationRepository(db),
		outbox:        repository.NewOutboxRepository(db),
		users:         repository.NewUserRepository(db),
	}

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	txManager := repository.NewTransactionManager(db)
	notifier := NewNotifier(env.notifications, env.outbox, env.requests, env.users, env.products)
	env.trigger = NewInvoiceTrigger(env.invoices, env.products)
	env.lifecycle = NewLifecycleService(
		env.requests, env.history, env.archives, env.products, env.invoices,
		env.trigger, notifier, txManager, NopBroadcaster{}, logger,
	)
	env.catalog = NewCatalogService(
		env.products, env.requests, env.lifecycle, txManager, NopBroadcaster{}, logger,
	)
	return env
}

func (e *testEnv) seedCustomer(t *testing.T) *model.User {
	t.Helper()
	user := model.User{
		Name:  "Test Customer",
		Email: uuid.NewString() + "@example.com",
		Role:  model.RoleCustomer,
	}
	require.NoError(t, e.users.Create(context.Background(), &user))
	return &user
}

func (e *testEnv) seedProduct(t *testing.T, status string) *model.Product {
	t.Helper()
	product := model.Product{
		SKU:    "SKU-" + uuid.NewString(),
		Name:   "Widget",
		Price:  25.50,
		Status: status,
	}
	require.NoError(t, e.products.Create(context.Background(), &product))
	return &product
}

func (e *testEnv) seedRequest(t *testing.T, customerID, productID uuid.UUID, status, resolution string) *model.Request {
	t.Helper()
	req := model.Request{
		CustomerID:       customerID,
		ProductID:        productID,
		Quantity:         3,
		Budget:           decimal.NewFromInt(100),
		Status:           status,
		ResolutionStatus: resolution,
		InvoiceStatus:    model.RequestInvoiceUnpaid,
		ShippingAddress:  "1 Test Street",
	}
	require.NoError(t, e.requests.Create(context.Background(), &req))
	return &req
}

func TestCreateRequest(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	customer := env.seedCustomer(t)
	product := env.seedProduct(t, model.ProductStatusActive)

	req, err := env.lifecycle.CreateRequest(ctx, CreateRequestDTO{
		CustomerID: customer.ID.String(),
		ProductID:  product.ID.String(),
		Quantity:   2,
		Budget:     "59.99",
	})
	require.NoError(t, err)
	assert.Equal(t, model.RequestStatusPending, req.Status)
	assert.Equal(t, model.ResolutionPending, req.ResolutionStatus)
	assert.Equal(t, model.RequestInvoiceUnpaid, req.InvoiceStatus)

	latest, err := env.history.Latest(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RequestStatusPending, latest.Status)
	assert.Equal(t, customer.ID.String(), latest.UpdatedBy)
}

func TestCreateRequestInactiveProduct(t *testing.T) {
	env := newTestEnv(t)
	customer := env.seedCustomer(t)
	product := env.seedProduct(t, model.ProductStatusInactive)

	_, err := env.lifecycle.CreateRequest(context.Background(), CreateRequestDTO{
		CustomerID: customer.ID.String(),
		ProductID:  product.ID.String(),
		Quantity:   1,
		Budget:     "10",
	})
	assert.ErrorIs(t, err, ErrProductInactive)
}

func TestTransitionWritesStatusHistoryAndInvoice(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	customer := env.seedCustomer(t)
	product := env.seedProduct(t, model.ProductStatusActive)
	req := env.seedRequest(t, customer.ID, product.ID, model.RequestStatusPending, model.ResolutionPending)

	err := env.lifecycle.Transition(ctx, req.ID, AxisRequest, model.RequestStatusApproved, "admin", "approved by finance")
	require.NoError(t, err)

	updated, err := env.requests.FindByID(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RequestStatusApproved, updated.Status)
	assert.True(t, updated.NotificationSent)
	assert.Equal(t, model.NotifPaymentConfirmed, updated.NotificationType)

	latest, err := env.history.Latest(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RequestStatusApproved, latest.Status)
	assert.Equal(t, "admin", latest.UpdatedBy)

	invoice, err := env.invoices.FindByRequestID(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, model.InvoiceStatusDraft, invoice.Status)
	assert.True(t, strings.HasPrefix(invoice.InvoiceNo, "INV-"))
	// 3 x 25.50
	assert.True(t, invoice.Amount.Equal(decimal.NewFromFloat(76.50)), "amount = %s", invoice.Amount)

	// The transition queued an outbound email for the customer
	due, err := env.outbox.ListDue(ctx, time.Now().Add(time.Minute), 10)
	require.NoError(t, err)
	require.Len(t, due, 1)
	assert.Equal(t, customer.Email, due[0].Recipient)
	assert.Equal(t, model.NotifPaymentConfirmed, due[0].TemplateName)
}

func TestTransitionRejectsUnknownStatus(t *testing.T) {
	env := newTestEnv(t)
	customer := env.seedCustomer(t)
	product := env.seedProduct(t, model.ProductStatusActive)
	req := env.seedRequest(t, customer.ID, product.ID, model.RequestStatusPending, model.ResolutionPending)

	err := env.lifecycle.Transition(context.Background(), req.ID, AxisRequest, "EXPLODED", "admin", "")
	assert.ErrorIs(t, err, ErrInvalidTransition)

	err = env.lifecycle.Transition(context.Background(), req.ID, AxisResolution, model.RequestStatusApproved, "admin", "")
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestTransitionMissingRequest(t *testing.T) {
	env := newTestEnv(t)
	err := env.lifecycle.Transition(context.Background(), uuid.New(), AxisRequest, model.RequestStatusApproved, "admin", "")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestTransitionToRejectedCancelsInvoice(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	customer := env.seedCustomer(t)
	product := env.seedProduct(t, model.ProductStatusActive)
	req := env.seedRequest(t, customer.ID, product.ID, model.RequestStatusPending, model.ResolutionPending)

	require.NoError(t, env.lifecycle.Transition(ctx, req.ID, AxisRequest, model.RequestStatusApproved, "admin", ""))
	require.NoError(t, env.lifecycle.Transition(ctx, req.ID, AxisRequest, model.RequestStatusRejected, "admin", "out of stock"))

	invoice, err := env.invoices.FindByRequestID(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, model.InvoiceStatusCancelled, invoice.Status)
}

func TestSendNotificationsUnknownKind(t *testing.T) {
	env := newTestEnv(t)
	customer := env.seedCustomer(t)
	product := env.seedProduct(t, model.ProductStatusActive)
	req := env.seedRequest(t, customer.ID, product.ID, model.RequestStatusPending, model.ResolutionPending)

	err := env.lifecycle.SendNotifications(context.Background(), req.ID, "carrier_pigeon")
	assert.ErrorIs(t, err, ErrUnknownNotificationKind)
}

func TestSendNotificationsSetsResolutionAndIsRepeatable(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	customer := env.seedCustomer(t)
	product := env.seedProduct(t, model.ProductStatusInactive)
	req := env.seedRequest(t, customer.ID, product.ID, model.RequestStatusApproved, model.ResolutionPending)

	require.NoError(t, env.lifecycle.SendNotifications(ctx, req.ID, model.NotifUnavailable))

	updated, err := env.requests.FindByID(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ResolutionNotified, updated.ResolutionStatus)
	assert.Equal(t, model.RequestStatusApproved, updated.Status, "request axis must not move")
	assert.False(t, updated.AdminProcessing, "processing marker must clear")
	assert.Equal(t, model.NotifUnavailable, updated.NotificationType)

	count, err := env.notifications.CountByReference(ctx, req.ID, model.NotifUnavailable)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)

	// A second send stays in NOTIFIED and simply records another notification.
	require.NoError(t, env.lifecycle.SendNotifications(ctx, req.ID, model.NotifUnavailable))
	updated, err = env.requests.FindByID(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ResolutionNotified, updated.ResolutionStatus)
}

func TestProcessPaidRequest(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	customer := env.seedCustomer(t)
	product := env.seedProduct(t, model.ProductStatusActive)
	req := env.seedRequest(t, customer.ID, product.ID, model.RequestStatusPending, model.ResolutionPending)

	require.NoError(t, env.lifecycle.ProcessPaidRequest(ctx, req.ID))

	updated, err := env.requests.FindByID(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RequestStatusApproved, updated.Status)
	assert.Equal(t, model.RequestInvoicePaid, updated.InvoiceStatus)

	invoice, err := env.invoices.FindByRequestID(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, model.InvoiceStatusPaid, invoice.Status)
}

func TestProcessUnpaidRequest(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	customer := env.seedCustomer(t)
	product := env.seedProduct(t, model.ProductStatusInactive)
	req := env.seedRequest(t, customer.ID, product.ID, model.RequestStatusApproved, model.ResolutionNotified)

	require.NoError(t, env.lifecycle.ProcessUnpaidRequest(ctx, req.ID))

	updated, err := env.requests.FindByID(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RequestStatusPending, updated.Status)
	assert.Equal(t, model.RequestInvoiceUnpaid, updated.InvoiceStatus)
	assert.Equal(t, model.ResolutionNotified, updated.ResolutionStatus, "resolution axis untouched")
}

func TestProcessRequestDeletionPendingActiveProduct(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	customer := env.seedCustomer(t)
	product := env.seedProduct(t, model.ProductStatusActive)
	req := env.seedRequest(t, customer.ID, product.ID, model.RequestStatusPending, model.ResolutionPending)

	require.NoError(t, env.lifecycle.ProcessRequestDeletion(ctx, req.ID, "admin"))

	_, err := env.requests.FindByID(ctx, req.ID)
	assert.True(t, errors.Is(err, gorm.ErrRecordNotFound))

	entries, err := env.history.ListByRequest(ctx, req.ID)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestProcessRequestDeletionUnsafe(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	customer := env.seedCustomer(t)
	product := env.seedProduct(t, model.ProductStatusActive)
	req := env.seedRequest(t, customer.ID, product.ID, model.RequestStatusApproved, model.ResolutionPending)

	err := env.lifecycle.ProcessRequestDeletion(ctx, req.ID, "admin")
	assert.ErrorIs(t, err, ErrUnsafeDeletion)

	// Still there.
	_, err = env.requests.FindByID(ctx, req.ID)
	assert.NoError(t, err)
}

func TestProcessRequestDeletionMissing(t *testing.T) {
	env := newTestEnv(t)
	err := env.lifecycle.ProcessRequestDeletion(context.Background(), uuid.New(), "admin")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestProcessRequestDeletionShippedArchives(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	customer := env.seedCustomer(t)
	product := env.seedProduct(t, model.ProductStatusActive)
	req := env.seedRequest(t, customer.ID, product.ID, model.RequestStatusShipped, model.ResolutionPending)
	req.TrackingNumber = "TRACK-42"
	require.NoError(t, env.db.Save(req).Error)

	invoice, err := env.trigger.Generate(ctx, req)
	require.NoError(t, err)

	require.NoError(t, env.lifecycle.ProcessRequestDeletion(ctx, req.ID, "admin"))

	archive, err := env.archives.FindByRequestID(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RequestStatusShipped, archive.Status)
	assert.Equal(t, product.Name, archive.ProductName)
	assert.Equal(t, "TRACK-42", archive.TrackingNumber)
	assert.Equal(t, invoice.InvoiceNo, archive.InvoiceNo)

	archives, total, err := env.archives.List(ctx, 1, 10)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Len(t, archives, 1)

	_, err = env.requests.FindByID(ctx, req.ID)
	assert.True(t, errors.Is(err, gorm.ErrRecordNotFound))
	_, err = env.invoices.FindByRequestID(ctx, req.ID)
	assert.True(t, errors.Is(err, gorm.ErrRecordNotFound))
}

// stuckArchiveRepo fails every archive insert so the deletion transaction
// has to roll back.
type stuckArchiveRepo struct {
	repository.ArchiveRepository
}

func (stuckArchiveRepo) Create(context.Context, *model.ArchivedRequest) error {
	return errors.New("archive store unavailable")
}

func TestProcessRequestDeletionArchiveFailureKeepsRequest(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	customer := env.seedCustomer(t)
	product := env.seedProduct(t, model.ProductStatusActive)
	req := env.seedRequest(t, customer.ID, product.ID, model.RequestStatusShipped, model.ResolutionPending)
	require.NoError(t, env.history.Append(ctx, &model.StatusHistory{
		RequestID: req.ID,
		Status:    model.RequestStatusShipped,
		UpdatedBy: "admin",
	}))

	invoice, err := env.trigger.Generate(ctx, req)
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	txManager := repository.NewTransactionManager(env.db)
	notifier := NewNotifier(env.notifications, env.outbox, env.requests, env.users, env.products)
	lifecycle := NewLifecycleService(
		env.requests, env.history, stuckArchiveRepo{env.archives}, env.products, env.invoices,
		env.trigger, notifier, txManager, NopBroadcaster{}, logger,
	)

	err = lifecycle.ProcessRequestDeletion(ctx, req.ID, "admin")
	require.Error(t, err)

	// The failed archive insert rolls the whole deletion back: the request,
	// its history and its invoice are all still there.
	kept, err := env.requests.FindByID(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RequestStatusShipped, kept.Status)

	entries, err := env.history.ListByRequest(ctx, req.ID)
	require.NoError(t, err)
	assert.NotEmpty(t, entries)

	keptInvoice, err := env.invoices.FindByRequestID(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, invoice.InvoiceNo, keptInvoice.InvoiceNo)

	_, err = env.archives.FindByRequestID(ctx, req.ID)
	assert.True(t, errors.Is(err, gorm.ErrRecordNotFound))
}

func TestTransitionResolutionResetIsSilent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	customer := env.seedCustomer(t)
	product := env.seedProduct(t, model.ProductStatusInactive)
	req := env.seedRequest(t, customer.ID, product.ID, model.RequestStatusApproved, model.ResolutionNotified)

	require.NoError(t, env.lifecycle.Transition(ctx, req.ID, AxisResolution, model.ResolutionPending, "admin", "restocked"))

	updated, err := env.requests.FindByID(ctx, req.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ResolutionPending, updated.ResolutionStatus)
	assert.False(t, updated.NotificationSent, "reset must not notify the customer")

	// No payment reminder leaks out of the shared PENDING literal.
	count, err := env.notifications.CountByReference(ctx, req.ID, model.NotifPaymentPending)
	require.NoError(t, err)
	assert.Zero(t, count)

	due, err := env.outbox.ListDue(ctx, time.Now().Add(time.Minute), 10)
	require.NoError(t, err)
	assert.Empty(t, due)
}

func TestNotifySelectedCountsFailures(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	customer := env.seedCustomer(t)
	product := env.seedProduct(t, model.ProductStatusInactive)
	r1 := env.seedRequest(t, customer.ID, product.ID, model.RequestStatusApproved, model.ResolutionPending)
	r2 := env.seedRequest(t, customer.ID, product.ID, model.RequestStatusPending, model.ResolutionPending)
	bogus := uuid.New()

	result := env.lifecycle.NotifySelected(ctx, []uuid.UUID{r1.ID, bogus, r2.ID})
	assert.Equal(t, 2, result.Processed)
	assert.Equal(t, 1, result.Failed)
	assert.Equal(t, []uuid.UUID{bogus}, result.FailedIDs)

	// The healthy requests were still notified.
	for _, id := range []uuid.UUID{r1.ID, r2.ID} {
		updated, err := env.requests.FindByID(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, model.ResolutionNotified, updated.ResolutionStatus)
	}
}

func TestVerifyProductDeletion(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	customer := env.seedCustomer(t)
	product := env.seedProduct(t, model.ProductStatusInactive)
	req := env.seedRequest(t, customer.ID, product.ID, model.RequestStatusApproved, model.ResolutionPending)

	deletable, err := env.lifecycle.VerifyProductDeletion(ctx, product.ID)
	require.NoError(t, err)
	assert.False(t, deletable, "unresolved request blocks deletion")

	require.NoError(t, env.lifecycle.Transition(ctx, req.ID, AxisResolution, model.ResolutionResolved, "admin", ""))

	deletable, err = env.lifecycle.VerifyProductDeletion(ctx, product.ID)
	require.NoError(t, err)
	assert.True(t, deletable)
}

func TestBulkCleanup(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	customer := env.seedCustomer(t)
	product := env.seedProduct(t, model.ProductStatusInactive)
	r1 := env.seedRequest(t, customer.ID, product.ID, model.RequestStatusApproved, model.ResolutionNotified)
	r2 := env.seedRequest(t, customer.ID, product.ID, model.RequestStatusApproved, model.ResolutionNotified)
	// Already paid: must not be swept.
	paid := env.seedRequest(t, customer.ID, product.ID, model.RequestStatusApproved, model.ResolutionResolved)
	require.NoError(t, env.requests.UpdateInvoiceStatus(ctx, paid.ID, model.RequestInvoicePaid))

	result, err := env.lifecycle.BulkCleanup(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Processed)
	assert.Equal(t, 0, result.Failed)
	assert.True(t, result.ProductDeletable, "no request left in resolution PENDING")

	for _, id := range []uuid.UUID{r1.ID, r2.ID} {
		updated, findErr := env.requests.FindByID(ctx, id)
		require.NoError(t, findErr)
		assert.Equal(t, model.RequestInvoiceUnpaid, updated.InvoiceStatus)
	}
}

func TestBulkCleanupEmptyStillReportsVerdict(t *testing.T) {
	env := newTestEnv(t)
	product := env.seedProduct(t, model.ProductStatusInactive)

	result, err := env.lifecycle.BulkCleanup(context.Background(), product.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, result.Processed)
	assert.True(t, result.ProductDeletable)
}

func TestSetAdminProcessing(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	customer := env.seedCustomer(t)
	product := env.seedProduct(t, model.ProductStatusActive)
	req := env.seedRequest(t, customer.ID, product.ID, model.RequestStatusPending, model.ResolutionPending)

	require.NoError(t, env.lifecycle.SetAdminProcessing(ctx, req.ID, true))
	updated, err := env.requests.FindByID(ctx, req.ID)
	require.NoError(t, err)
	assert.True(t, updated.AdminProcessing)

	require.NoError(t, env.lifecycle.SetAdminProcessing(ctx, req.ID, false))
	updated, err = env.requests.FindByID(ctx, req.ID)
	require.NoError(t, err)
	assert.False(t, updated.AdminProcessing)

	assert.ErrorIs(t, env.lifecycle.SetAdminProcessing(ctx, uuid.New(), true), ErrNotFound)
}
