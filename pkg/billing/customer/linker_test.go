package customer

import (
	"context"
	"testing"

	"saas-billing-be/internal/pkg/apperror"
	"saas-billing-be/internal/pkg/logger"
	"saas-billing-be/internal/repository/specification"
	"saas-billing-be/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnsureCustomerReusesLinkedCustomer(t *testing.T) {
	factory, db := testutil.NewFactory(t)
	gw := testutil.NewFakeGateway()
	user := testutil.CreateUser(t, db, testutil.WithCustomer("cus_existing"))

	id, err := NewLinker(gw, logger.NewNopLogger()).EnsureCustomer(context.Background(), factory.NewUnitOfWork(context.Background()), user)
	require.NoError(t, err)
	assert.Equal(t, "cus_existing", id)
	assert.Zero(t, gw.Calls("CreateCustomer"))
}

func TestEnsureCustomerCreatesAndPersistsOnFirstUse(t *testing.T) {
	ctx := context.Background()
	factory, db := testutil.NewFactory(t)
	gw := testutil.NewFakeGateway()
	user := testutil.CreateUser(t, db)

	id, err := NewLinker(gw, logger.NewNopLogger()).EnsureCustomer(ctx, factory.NewUnitOfWork(ctx), user)
	require.NoError(t, err)
	assert.NotEmpty(t, id)
	assert.Equal(t, 1, gw.Calls("CreateCustomer"))

	stored, err := factory.NewUnitOfWork(ctx).UserRepository().FindOne(ctx, specification.ByID{ID: user.Id})
	require.NoError(t, err)
	require.NotNil(t, stored.StripeCustomerId)
	assert.Equal(t, id, *stored.StripeCustomerId)
}

func TestEnsureCustomerLeavesAccountUntouchedOnProviderFailure(t *testing.T) {
	ctx := context.Background()
	factory, db := testutil.NewFactory(t)
	gw := testutil.NewFakeGateway()
	gw.CreateCustomerErr = testutil.ErrFakeProvider
	user := testutil.CreateUser(t, db)

	_, err := NewLinker(gw, logger.NewNopLogger()).EnsureCustomer(ctx, factory.NewUnitOfWork(ctx), user)
	assert.ErrorIs(t, err, apperror.ErrProviderUnavailable)

	stored, err := factory.NewUnitOfWork(ctx).UserRepository().FindOne(ctx, specification.ByID{ID: user.Id})
	require.NoError(t, err)
	assert.Nil(t, stored.StripeCustomerId)
	assert.Nil(t, user.StripeCustomerId)
}

func TestEnsureCustomerKeepsConcurrentlyLinkedId(t *testing.T) {
	ctx := context.Background()
	factory, db := testutil.NewFactory(t)
	gw := testutil.NewFakeGateway()
	user := testutil.CreateUser(t, db)

	// Another request linked a customer after this one loaded the user.
	linked, err := factory.NewUnitOfWork(ctx).UserRepository().LinkStripeCustomer(ctx, user.Id, "cus_winner")
	require.NoError(t, err)
	require.True(t, linked)

	id, err := NewLinker(gw, logger.NewNopLogger()).EnsureCustomer(ctx, factory.NewUnitOfWork(ctx), user)
	require.NoError(t, err)
	assert.Equal(t, "cus_winner", id)
	assert.Equal(t, "cus_winner", *user.StripeCustomerId)
}
