// Package apperror holds the typed errors shared by services, billing
// components and the HTTP layer.
package apperror

import (
	"errors"
	"net/http"
)

type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindConflict
	KindUnauthorized
	KindForbidden
	KindNotFound
	KindProvider
	KindSignature
	KindTransient
)

type Error struct {
	Kind    Kind
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is matches on Code so a wrapped copy still satisfies errors.Is against its sentinel.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// Wrap returns a copy of e carrying cause.
func (e *Error) Wrap(cause error) *Error {
	return &Error{Kind: e.Kind, Code: e.Code, Message: e.Message, Err: cause}
}

// Checkout validation
var (
	ErrInvalidPlan       = &Error{Kind: KindValidation, Code: "INVALID_PLAN", Message: "plan is not a purchasable tier"}
	ErrAlreadySubscribed = &Error{Kind: KindValidation, Code: "ALREADY_SUBSCRIBED", Message: "account already has an active subscription"}
	ErrAccountDisabled   = &Error{Kind: KindValidation, Code: "ACCOUNT_DISABLED", Message: "account is not enabled"}
)

// Reconciliation lookups
var (
	ErrAccountNotFound       = &Error{Kind: KindNotFound, Code: "ACCOUNT_NOT_FOUND", Message: "no account for billing customer"}
	ErrNoPendingSubscription = &Error{Kind: KindNotFound, Code: "NO_PENDING_SUBSCRIPTION", Message: "no pending subscription for account"}
	ErrSubscriptionNotFound  = &Error{Kind: KindNotFound, Code: "SUBSCRIPTION_NOT_FOUND", Message: "subscription not found"}
	ErrSubscriptionNotSynced = &Error{Kind: KindTransient, Code: "SUBSCRIPTION_NOT_SYNCED", Message: "subscription not activated locally yet"}
)

var (
	ErrProviderUnavailable = &Error{Kind: KindProvider, Code: "PROVIDER_UNAVAILABLE", Message: "billing provider unavailable"}
	ErrSignatureInvalid    = &Error{Kind: KindSignature, Code: "SIGNATURE_INVALID", Message: "webhook signature verification failed"}
)

// Account and access
var (
	ErrUnauthorized       = &Error{Kind: KindUnauthorized, Code: "UNAUTHORIZED", Message: "authentication required"}
	ErrInvalidCredentials = &Error{Kind: KindUnauthorized, Code: "INVALID_CREDENTIALS", Message: "invalid credentials"}
	ErrForbidden          = &Error{Kind: KindForbidden, Code: "FORBIDDEN", Message: "access denied"}
	ErrNotFound           = &Error{Kind: KindNotFound, Code: "NOT_FOUND", Message: "resource not found"}
	ErrEmailTaken         = &Error{Kind: KindConflict, Code: "EMAIL_TAKEN", Message: "email already registered"}
	ErrInvalidToken       = &Error{Kind: KindValidation, Code: "INVALID_TOKEN", Message: "invalid token"}
	ErrTokenExpired       = &Error{Kind: KindValidation, Code: "TOKEN_EXPIRED", Message: "token expired"}
	ErrAlreadyVerified    = &Error{Kind: KindValidation, Code: "ALREADY_VERIFIED", Message: "email already verified"}
)

func ProviderUnavailable(cause error) *Error {
	return ErrProviderUnavailable.Wrap(cause)
}

func Validation(message string) *Error {
	return &Error{Kind: KindValidation, Code: "VALIDATION", Message: message}
}

// KindOf reports KindInternal for anything that is not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// IsRetryable tells the webhook endpoint whether the provider should redeliver.
// Provider outages, transient ordering gaps and unclassified failures (database,
// network) are retried. Lookups that cannot resolve by waiting are dropped.
func IsRetryable(err error) bool {
	switch KindOf(err) {
	case KindProvider, KindTransient, KindInternal:
		return true
	default:
		return false
	}
}

func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindValidation, KindSignature:
		return http.StatusBadRequest
	case KindConflict:
		return http.StatusConflict
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindProvider:
		return http.StatusBadGateway
	case KindTransient:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// Code returns the machine readable code, or "INTERNAL" for untyped errors.
func Code(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return "INTERNAL"
}
