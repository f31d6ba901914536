package service

import (
	"context"
	"testing"

	"procurehub/internal/model"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeactivateProductResetsOpenRequests(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	customer := env.seedCustomer(t)
	product := env.seedProduct(t, model.ProductStatusActive)

	open := env.seedRequest(t, customer.ID, product.ID, model.RequestStatusApproved, model.ResolutionResolved)
	shipped := env.seedRequest(t, customer.ID, product.ID, model.RequestStatusShipped, model.ResolutionResolved)
	rejected := env.seedRequest(t, customer.ID, product.ID, model.RequestStatusRejected, model.ResolutionResolved)

	require.NoError(t, env.catalog.DeactivateProduct(ctx, product.ID))

	updated, err := env.products.FindByID(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ProductStatusInactive, updated.Status)

	reqAfter, err := env.requests.FindByID(ctx, open.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ResolutionPending, reqAfter.ResolutionStatus, "open request re-enters resolution")

	// Shipped and rejected requests carry no remaining obligation.
	shippedAfter, err := env.requests.FindByID(ctx, shipped.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ResolutionResolved, shippedAfter.ResolutionStatus)
	rejectedAfter, err := env.requests.FindByID(ctx, rejected.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ResolutionResolved, rejectedAfter.ResolutionStatus)

	// Deactivating twice is a no-op.
	require.NoError(t, env.catalog.DeactivateProduct(ctx, product.ID))
}

func TestActivateProduct(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	product := env.seedProduct(t, model.ProductStatusInactive)

	require.NoError(t, env.catalog.ActivateProduct(ctx, product.ID))

	updated, err := env.products.FindByID(ctx, product.ID)
	require.NoError(t, err)
	assert.Equal(t, model.ProductStatusActive, updated.Status)
}

func TestDeleteProductGatedByActiveRequests(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	customer := env.seedCustomer(t)
	product := env.seedProduct(t, model.ProductStatusInactive)
	req := env.seedRequest(t, customer.ID, product.ID, model.RequestStatusApproved, model.ResolutionPending)

	err := env.catalog.DeleteProduct(ctx, product.ID)
	assert.ErrorIs(t, err, ErrProductNotDeletable)

	require.NoError(t, env.lifecycle.Transition(ctx, req.ID, AxisResolution, model.ResolutionResolved, "admin", ""))
	require.NoError(t, env.catalog.DeleteProduct(ctx, product.ID))

	_, err = env.catalog.GetProduct(ctx, product.ID)
	assert.ErrorIs(t, err, ErrProductNotFound)
}

func TestGetProductMissing(t *testing.T) {
	env := newTestEnv(t)
	_, err := env.catalog.GetProduct(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrProductNotFound)
}
