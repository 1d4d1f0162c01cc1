package gateway

import "saas-billing-be/internal/entity"

// StatusTranslation classifies a provider subscription status.
type StatusTranslation int

const (
	// StatusMapped has a local equivalent the reconciler applies.
	StatusMapped StatusTranslation = iota
	// StatusRetained is a known provider status that never moves the local row.
	StatusRetained
	// StatusUnknown is not a status this code knows about; the local row is left
	// unchanged and the occurrence is reported as an anomaly.
	StatusUnknown
)

// TranslateSubscriptionStatus is the only place provider status strings are
// interpreted. Cancellation arrives through the deleted event, and the
// incomplete/trialing/paused states are not mirrored locally.
func TranslateSubscriptionStatus(providerStatus string) (entity.SubscriptionStatus, StatusTranslation) {
	switch providerStatus {
	case "active":
		return entity.SubscriptionStatusActive, StatusMapped
	case "past_due":
		return entity.SubscriptionStatusPastDue, StatusMapped
	case "unpaid":
		return entity.SubscriptionStatusUnpaid, StatusMapped
	case "canceled", "incomplete", "incomplete_expired", "trialing", "paused":
		return "", StatusRetained
	default:
		return "", StatusUnknown
	}
}
