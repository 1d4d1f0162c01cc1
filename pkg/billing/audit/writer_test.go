package audit

import (
	"context"
	"errors"
	"testing"

	"saas-billing-be/internal/entity"
	"saas-billing-be/internal/pkg/logger"
	"saas-billing-be/internal/repository/specification"
	"saas-billing-be/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteRollsBackWithTheTransaction(t *testing.T) {
	ctx := context.Background()
	factory, db := testutil.NewFactory(t)
	user := testutil.CreateUser(t, db)
	w := NewWriter(factory, logger.NewNopLogger())

	uow := factory.NewUnitOfWork(ctx)
	require.NoError(t, uow.Begin(ctx))
	require.NoError(t, w.Write(ctx, uow, Entry(user.Id, entity.PlanBasic, "cs_1", entity.AuditCheckoutCreated)))
	require.NoError(t, uow.Rollback())

	assert.Empty(t, testutil.Audits(t, db, user.Id))
}

func TestWriteDetachedStoresFailureText(t *testing.T) {
	ctx := context.Background()
	factory, db := testutil.NewFactory(t)
	user := testutil.CreateUser(t, db)
	w := NewWriter(factory, logger.NewNopLogger())

	w.WriteDetached(ctx, Failure(user.Id, entity.PlanPremium, "", entity.AuditCheckoutFailed, errors.New("card declined")))

	audits, err := factory.NewUnitOfWork(ctx).SubscriptionAuditRepository().FindAll(ctx, specification.UserOwnedBy{UserID: user.Id})
	require.NoError(t, err)
	require.Len(t, audits, 1)
	assert.Equal(t, entity.AuditCheckoutFailed, audits[0].Status)
	assert.Equal(t, entity.PlanPremium, audits[0].Plan)
	assert.Nil(t, audits[0].StripeSessionId)
	require.NotNil(t, audits[0].ErrorMessage)
	assert.Equal(t, "card declined", *audits[0].ErrorMessage)
}
