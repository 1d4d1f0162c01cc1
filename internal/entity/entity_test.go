package entity

import (
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestParsePlanTier(t *testing.T) {
	tests := []struct {
		in     string
		want   PlanTier
		wantOk bool
	}{
		{"BASIC", PlanBasic, true},
		{" premium ", PlanPremium, true},
		{"Enterprise", PlanEnterprise, true},
		{"free", PlanFree, true},
		{"GOLD", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParsePlanTier(tt.in)
			assert.Equal(t, tt.wantOk, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPrincipalCanAccess(t *testing.T) {
	owner := Principal{UserId: 7, Role: UserRoleUser}
	stranger := Principal{UserId: 8, Role: UserRoleUser}
	admin := Principal{UserId: 1, Role: UserRoleAdmin}

	assert.True(t, owner.CanAccess(7))
	assert.False(t, stranger.CanAccess(7))
	assert.True(t, admin.CanAccess(7))
}

func TestSubscriptionCancel(t *testing.T) {
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	sub := &Subscription{Status: SubscriptionStatusActive}

	sub.Cancel(at, CancelReasonProvider)

	assert.Equal(t, SubscriptionStatusCanceled, sub.Status)
	assert.Equal(t, at, *sub.CanceledAt)
	assert.Equal(t, "canceled via provider", *sub.CancelReason)
	assert.False(t, sub.IsActive())
}

func TestNewInvoiceNumber(t *testing.T) {
	n := NewInvoiceNumber()
	assert.Regexp(t, regexp.MustCompile(`^INV-[0-9A-F]{8}$`), n)
	assert.NotEqual(t, n, NewInvoiceNumber())
}
