package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"uitvaartpay/internal/domain"
	"uitvaartpay/internal/rail"
)

// Deduper remembers which webhook deliveries were already processed.
// MarkOnce reports true exactly once per key; Unmark releases a key whose
// delivery failed mid-flight so the rail's redelivery gets processed.
type Deduper interface {
	MarkOnce(ctx context.Context, key string) (bool, error)
	Unmark(ctx context.Context, key string) error
}

// WebhookService ingests rail notifications. Each delivery is verified
// before any field is trusted, then deduplicated on (rail, providerEventId)
// so redelivery cannot apply a transition or refund side effect twice.
type WebhookService struct {
	rails    *rail.Registry
	deduper  Deduper
	payments *PaymentService
	refunds  *RefundService
	disputes *DisputeService
}

func NewWebhookService(rails *rail.Registry, deduper Deduper, payments *PaymentService, refunds *RefundService, disputes *DisputeService) *WebhookService {
	return &WebhookService{rails: rails, deduper: deduper, payments: payments, refunds: refunds, disputes: disputes}
}

func (s *WebhookService) HandleWebhook(ctx context.Context, railName domain.RailName, payload []byte, signature, correlationID string) error {
	gateway, err := s.rails.Get(railName)
	if err != nil {
		return err
	}

	evt, err := gateway.VerifyAndParseWebhook(payload, signature)
	if err != nil {
		if errors.Is(err, domain.ErrWebhookSignatureInvalid) {
			log.Printf("[webhook] dropping %s delivery with invalid signature, correlation_id=%s", railName, correlationID)
		}
		return err
	}
	if evt.Type == rail.WebhookIgnored {
		return nil
	}

	key := dedupeKey(evt)
	first, err := s.deduper.MarkOnce(ctx, key)
	if err != nil {
		return err
	}
	if !first {
		log.Printf("[webhook] duplicate delivery %s/%s skipped, correlation_id=%s", railName, evt.ProviderEventID, correlationID)
		return nil
	}

	if err := s.dispatch(ctx, evt, correlationID); err != nil {
		// Release the dedupe record: the caller returns non-2xx, the rail
		// redelivers, and the retry must not be swallowed as a duplicate.
		if unmarkErr := s.deduper.Unmark(ctx, key); unmarkErr != nil {
			log.Printf("[webhook] failed to release dedupe key %s, correlation_id=%s: %v", key, correlationID, unmarkErr)
		}
		return err
	}
	return nil
}

func (s *WebhookService) dispatch(ctx context.Context, evt *rail.WebhookEvent, correlationID string) error {
	switch evt.Type {
	case rail.WebhookPaymentSucceeded, rail.WebhookPaymentProcessing, rail.WebhookPaymentFailed, rail.WebhookPaymentCancelled:
		return s.applyPaymentEvent(ctx, evt, correlationID)
	case rail.WebhookRefundSucceeded:
		return s.applyRefundEvent(ctx, evt, domain.RefundCompleted)
	case rail.WebhookRefundFailed:
		return s.applyRefundEvent(ctx, evt, domain.RefundFailed)
	case rail.WebhookChargebackCreated:
		_, err := s.disputes.IngestChargeback(ctx, evt, correlationID)
		return err
	default:
		log.Printf("[webhook] unhandled event type %q from %s, correlation_id=%s", evt.Type, evt.Rail, correlationID)
		return nil
	}
}

func dedupeKey(evt *rail.WebhookEvent) string {
	return fmt.Sprintf("webhook:%s:%s", evt.Rail, evt.ProviderEventID)
}

func (s *WebhookService) applyPaymentEvent(ctx context.Context, evt *rail.WebhookEvent, correlationID string) error {
	intent, err := s.payments.repo.GetByRailRef(ctx, evt.Rail, evt.RailRef)
	if err != nil {
		return err
	}

	var target domain.PaymentIntentStatus
	switch evt.Type {
	case rail.WebhookPaymentSucceeded:
		target = domain.IntentCompleted
	case rail.WebhookPaymentProcessing:
		target = domain.IntentProcessing
	case rail.WebhookPaymentFailed:
		target = domain.IntentFailed
	case rail.WebhookPaymentCancelled:
		target = domain.IntentCancelled
	}

	if err := s.payments.applyStatus(ctx, intent, target, correlationID); err != nil {
		if errors.Is(err, domain.ErrInvalidTransition) {
			// Out-of-order delivery after a terminal state; the dedupe
			// record keeps it from being retried forever.
			return nil
		}
		return err
	}
	return nil
}

func (s *WebhookService) applyRefundEvent(ctx context.Context, evt *rail.WebhookEvent, status domain.RefundStatus) error {
	ref := evt.RefundRailRef
	if ref == "" {
		ref = evt.RailRef
	}
	err := s.refunds.HandleRailUpdate(ctx, ref, status)
	if errors.Is(err, domain.ErrRefundNotFound) {
		// The rail refunded a charge we never submitted a refund for,
		// e.g. one issued from the rail's own dashboard.
		log.Printf("[webhook] refund update for unknown rail ref %s ignored", ref)
		return nil
	}
	return err
}

type dedupeStore interface {
	SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error)
	Del(ctx context.Context, keys ...string) error
}

// RedisDeduper keys processed deliveries in redis with a retention window
// comfortably longer than any rail's redelivery horizon.
type RedisDeduper struct {
	redis dedupeStore
	ttl   time.Duration
}

func NewRedisDeduper(redis dedupeStore, ttl time.Duration) *RedisDeduper {
	return &RedisDeduper{redis: redis, ttl: ttl}
}

func (d *RedisDeduper) MarkOnce(ctx context.Context, key string) (bool, error) {
	return d.redis.SetNX(ctx, key, time.Now().UTC().Format(time.RFC3339), d.ttl)
}

func (d *RedisDeduper) Unmark(ctx context.Context, key string) error {
	return d.redis.Del(ctx, key)
}
