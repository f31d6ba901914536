package service

import (
	"context"
	"regexp"
	"testing"

	"procurehub/internal/model"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var invoiceNoPattern = regexp.MustCompile(`^INV-\d{8}-\d{5}$`)

func TestGenerateIsIdempotentPerRequest(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	customer := env.seedCustomer(t)
	product := env.seedProduct(t, model.ProductStatusActive)
	req := env.seedRequest(t, customer.ID, product.ID, model.RequestStatusApproved, model.ResolutionPending)

	first, err := env.trigger.Generate(ctx, req)
	require.NoError(t, err)
	assert.Regexp(t, invoiceNoPattern, first.InvoiceNo)
	// 3 x 25.50
	assert.True(t, first.Amount.Equal(decimal.NewFromFloat(76.50)), "amount = %s", first.Amount)

	second, err := env.trigger.Generate(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, first.InvoiceNo, second.InvoiceNo)

	var count int64
	require.NoError(t, env.db.Model(&model.Invoice{}).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestGenerateNumbersIncrementWithinDay(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	customer := env.seedCustomer(t)
	product := env.seedProduct(t, model.ProductStatusActive)
	r1 := env.seedRequest(t, customer.ID, product.ID, model.RequestStatusApproved, model.ResolutionPending)
	r2 := env.seedRequest(t, customer.ID, product.ID, model.RequestStatusApproved, model.ResolutionPending)

	i1, err := env.trigger.Generate(ctx, r1)
	require.NoError(t, err)
	i2, err := env.trigger.Generate(ctx, r2)
	require.NoError(t, err)

	assert.NotEqual(t, i1.InvoiceNo, i2.InvoiceNo)
	assert.Regexp(t, invoiceNoPattern, i2.InvoiceNo)
}

func TestMarkPaid(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	customer := env.seedCustomer(t)
	product := env.seedProduct(t, model.ProductStatusActive)
	req := env.seedRequest(t, customer.ID, product.ID, model.RequestStatusApproved, model.ResolutionPending)

	invoice, err := env.trigger.Generate(ctx, req)
	require.NoError(t, err)

	require.NoError(t, env.trigger.MarkPaid(ctx, req.ID))
	// Repeat is a no-op, not an error.
	require.NoError(t, env.trigger.MarkPaid(ctx, req.ID))

	updated, err := env.invoices.FindByID(ctx, invoice.ID)
	require.NoError(t, err)
	assert.Equal(t, model.InvoiceStatusPaid, updated.Status)
}

func TestCancelForRequest(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	customer := env.seedCustomer(t)
	product := env.seedProduct(t, model.ProductStatusActive)

	// No invoice yet: cancel is a silent no-op.
	missing := env.seedRequest(t, customer.ID, product.ID, model.RequestStatusPending, model.ResolutionPending)
	assert.NoError(t, env.trigger.CancelForRequest(ctx, missing.ID))

	// Draft invoice gets cancelled.
	draft := env.seedRequest(t, customer.ID, product.ID, model.RequestStatusApproved, model.ResolutionPending)
	invoice, err := env.trigger.Generate(ctx, draft)
	require.NoError(t, err)
	require.NoError(t, env.trigger.CancelForRequest(ctx, draft.ID))
	updated, err := env.invoices.FindByID(ctx, invoice.ID)
	require.NoError(t, err)
	assert.Equal(t, model.InvoiceStatusCancelled, updated.Status)

	// Paid invoices stay paid.
	paid := env.seedRequest(t, customer.ID, product.ID, model.RequestStatusApproved, model.ResolutionPending)
	paidInvoice, err := env.trigger.Generate(ctx, paid)
	require.NoError(t, err)
	require.NoError(t, env.trigger.MarkPaid(ctx, paid.ID))
	require.NoError(t, env.trigger.CancelForRequest(ctx, paid.ID))
	updated, err = env.invoices.FindByID(ctx, paidInvoice.ID)
	require.NoError(t, err)
	assert.Equal(t, model.InvoiceStatusPaid, updated.Status)
}
