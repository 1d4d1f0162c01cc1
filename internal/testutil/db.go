// Package testutil holds fixtures shared by package tests: an in-memory
// database with the production schema and fakes for the outbound ports.
package testutil

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"

	"saas-billing-be/internal/entity"
	"saas-billing-be/internal/mapper"
	"saas-billing-be/internal/model"
	"saas-billing-be/internal/repository/implementation"
	"saas-billing-be/internal/repository/unitofwork"
	"saas-billing-be/pkg/database"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// NewDB returns a migrated in-memory SQLite database, including the
// one-ACTIVE-per-user index.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := database.NewSQLiteDB(":memory:")
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(model.All()...))
	for _, stmt := range model.PostMigrationSQL {
		require.NoError(t, db.Exec(stmt).Error)
	}

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

func NewFactory(t *testing.T) (unitofwork.RepositoryFactory, *gorm.DB) {
	db := NewDB(t)
	return unitofwork.NewRepositoryFactory(db), db
}

var userSeq atomic.Int64

type UserOption func(*entity.User)

func WithCustomer(customerId string) UserOption {
	return func(u *entity.User) { u.StripeCustomerId = &customerId }
}

func Disabled() UserOption {
	return func(u *entity.User) { u.Enabled = false }
}

func Admin() UserOption {
	return func(u *entity.User) { u.Role = entity.UserRoleAdmin }
}

// CreateUser inserts an enabled user with a unique email.
func CreateUser(t *testing.T, db *gorm.DB, opts ...UserOption) *entity.User {
	t.Helper()

	n := userSeq.Add(1)
	u := &entity.User{
		Email:        fmt.Sprintf("user%d@example.com", n),
		PasswordHash: "x",
		FirstName:    "User",
		LastName:     fmt.Sprint(n),
		Role:         entity.UserRoleUser,
		Enabled:      true,
	}
	for _, opt := range opts {
		opt(u)
	}
	require.NoError(t, implementation.NewUserRepository(db).Create(context.Background(), u))
	return u
}

func PrincipalOf(u *entity.User) entity.Principal {
	return entity.Principal{UserId: u.Id, Email: u.Email, Role: u.Role}
}

// CreateSubscription inserts s as-is. Zero-valued required fields get defaults.
func CreateSubscription(t *testing.T, db *gorm.DB, s *entity.Subscription) *entity.Subscription {
	t.Helper()

	if s.Plan == "" {
		s.Plan = entity.PlanBasic
	}
	if s.Currency == "" {
		s.Currency = "USD"
	}
	require.NoError(t, implementation.NewSubscriptionRepository(db).Create(context.Background(), s))
	return s
}

func Subscriptions(t *testing.T, db *gorm.DB, userId uint) []*entity.Subscription {
	t.Helper()

	var rows []*model.Subscription
	require.NoError(t, db.Where("user_id = ?", userId).Order("id").Find(&rows).Error)
	return mapper.NewSubscriptionMapper().ToEntities(rows)
}

func Audits(t *testing.T, db *gorm.DB, userId uint) []string {
	t.Helper()

	var tags []string
	require.NoError(t, db.Model(&model.SubscriptionAudit{}).
		Where("user_id = ?", userId).Order("id").Pluck("status", &tags).Error)
	return tags
}

func CountAudits(t *testing.T, db *gorm.DB) int64 {
	t.Helper()

	var n int64
	require.NoError(t, db.Model(&model.SubscriptionAudit{}).Count(&n).Error)
	return n
}
