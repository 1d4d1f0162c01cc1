package service

import (
	"context"
	"time"

	"saas-billing-be/internal/pkg/apperror"
	"saas-billing-be/internal/pkg/gateway"
	"saas-billing-be/internal/pkg/logger"
	"saas-billing-be/internal/repository/redisstore"
	"saas-billing-be/pkg/billing/metrics"
	"saas-billing-be/pkg/billing/reconciler"
)

// Webhook outcomes, as recorded per event id and in metrics.
const (
	OutcomeProcessed = "processed"
	OutcomeIgnored   = "ignored"
	OutcomeRetry     = "retry"
	OutcomeRejected  = "rejected"
)

type WebhookResult struct {
	EventId string `json:"event_id"`
	Type    string `json:"type"`
	Outcome string `json:"outcome"`
	Attempt int64  `json:"attempt,omitempty"`
}

type IWebhookService interface {
	// HandleStripeEvent returns an error only when the provider should
	// redeliver, or when the signature is invalid. Events that can never
	// succeed are acknowledged with Outcome "ignored".
	HandleStripeEvent(ctx context.Context, payload []byte, signature string) (*WebhookResult, error)
}

type webhookService struct {
	verifier   gateway.EventVerifier
	reconciler *reconciler.Reconciler
	tracker    *redisstore.DeliveryTracker
	logger     logger.ILogger
}

// NewWebhookService accepts a nil tracker when Redis is not configured.
func NewWebhookService(
	verifier gateway.EventVerifier,
	reconciler *reconciler.Reconciler,
	tracker *redisstore.DeliveryTracker,
	logger logger.ILogger,
) IWebhookService {
	return &webhookService{
		verifier:   verifier,
		reconciler: reconciler,
		tracker:    tracker,
		logger:     logger,
	}
}

func (s *webhookService) HandleStripeEvent(ctx context.Context, payload []byte, signature string) (*WebhookResult, error) {
	evt, err := s.verifier.Verify(payload, signature)
	if err != nil {
		metrics.WebhookEventsTotal.WithLabelValues("unknown", OutcomeRejected).Inc()
		s.logger.Warn("WEBHOOK", "Rejected webhook with invalid signature", map[string]interface{}{
			"error": err.Error(),
			"bytes": len(payload),
		})
		return nil, err
	}

	res := &WebhookResult{EventId: evt.ID, Type: evt.Type}
	details := map[string]interface{}{"event_id": evt.ID, "type": evt.Type}

	if s.tracker != nil {
		attempt, err := s.tracker.Track(ctx, evt.ID)
		if err != nil {
			s.logger.Warn("WEBHOOK", "Delivery tracking unavailable", map[string]interface{}{"error": err.Error()})
		} else {
			res.Attempt = attempt
			details["attempt"] = attempt
		}
	}
	s.logger.Info("WEBHOOK", "Event received", details)

	start := time.Now()
	err = s.reconciler.Handle(ctx, evt)
	metrics.WebhookDuration.WithLabelValues(evt.Type).Observe(time.Since(start).Seconds())

	switch {
	case err == nil:
		res.Outcome = OutcomeProcessed
	case apperror.IsRetryable(err):
		res.Outcome = OutcomeRetry
		details["error"] = err.Error()
		s.logger.Error("WEBHOOK", "Event failed, provider will retry", details)
	default:
		res.Outcome = OutcomeIgnored
		details["error"] = err.Error()
		details["code"] = apperror.Code(err)
		s.logger.Warn("WEBHOOK", "Event dropped", details)
	}

	metrics.WebhookEventsTotal.WithLabelValues(evt.Type, res.Outcome).Inc()
	if s.tracker != nil {
		if terr := s.tracker.RecordOutcome(ctx, evt.ID, res.Outcome); terr != nil {
			s.logger.Warn("WEBHOOK", "Failed to record delivery outcome", map[string]interface{}{"error": terr.Error()})
		}
	}

	if res.Outcome == OutcomeRetry {
		return res, err
	}
	return res, nil
}
