package rail

import (
	"context"
	"fmt"
	"log"
	"time"

	"uitvaartpay/internal/domain"
)

// ChargeRequest is what the engine hands a rail to move money in. The
// idempotency key travels to the rail so a retry after a timeout cannot
// charge twice.
type ChargeRequest struct {
	Amount         domain.Money
	Description    string
	IdempotencyKey string
	Metadata       map[string]string
}

type ChargeResult struct {
	RailRef string
	Status  domain.PaymentIntentStatus
}

type RefundSubmission struct {
	RailRef        string
	Amount         *domain.Money
	Reason         domain.RefundReason
	IdempotencyKey string
}

type RefundResult struct {
	RailRef string
	Status  domain.RefundStatus
}

type WebhookEventType string

const (
	WebhookPaymentSucceeded  WebhookEventType = "payment_succeeded"
	WebhookPaymentProcessing WebhookEventType = "payment_processing"
	WebhookPaymentFailed     WebhookEventType = "payment_failed"
	WebhookPaymentCancelled  WebhookEventType = "payment_cancelled"
	WebhookRefundSucceeded   WebhookEventType = "refund_succeeded"
	WebhookRefundFailed      WebhookEventType = "refund_failed"
	WebhookChargebackCreated WebhookEventType = "chargeback_created"
	WebhookIgnored           WebhookEventType = "ignored"
)

// WebhookEvent is a rail notification after signature verification.
// ProviderEventID is the rail's own delivery identifier and, combined with
// the rail name, keys webhook idempotency.
type WebhookEvent struct {
	Rail            domain.RailName
	ProviderEventID string
	Type            WebhookEventType
	RailRef         string
	RefundRailRef   string
	Amount          *domain.Money
	Reason          string
	ReceivedAt      time.Time
}

// Gateway is the capability set the engine needs from a payment rail.
// Nothing above this interface knows which rail is behind it.
type Gateway interface {
	Name() domain.RailName
	CreateCharge(ctx context.Context, req ChargeRequest) (*ChargeResult, error)
	ConfirmCharge(ctx context.Context, railRef, methodToken string) (*ChargeResult, error)
	CreateRefund(ctx context.Context, sub RefundSubmission) (*RefundResult, error)
	GetStatus(ctx context.Context, railRef string) (domain.PaymentIntentStatus, error)
	VerifyAndParseWebhook(payload []byte, signature string) (*WebhookEvent, error)
}

// Registry resolves a configured gateway by rail name.
type Registry struct {
	gateways map[domain.RailName]Gateway
}

func NewRegistry(gateways ...Gateway) *Registry {
	m := make(map[domain.RailName]Gateway, len(gateways))
	for _, g := range gateways {
		m[g.Name()] = g
	}
	return &Registry{gateways: m}
}

func (r *Registry) Get(name domain.RailName) (Gateway, error) {
	g, ok := r.gateways[name]
	if !ok {
		return nil, fmt.Errorf("no gateway configured for rail %q", name)
	}
	return g, nil
}

// mapIntentStatus translates a raw rail status into the engine's status
// machine. Unrecognized statuses map to failed with a logged warning,
// never silently dropped.
func mapIntentStatus(rail domain.RailName, raw string) domain.PaymentIntentStatus {
	switch raw {
	case "pending", "requires_payment_method", "requires_confirmation", "requires_action":
		return domain.IntentPending
	case "processing":
		return domain.IntentProcessing
	case "succeeded", "completed":
		return domain.IntentCompleted
	case "canceled", "cancelled":
		return domain.IntentCancelled
	case "failed":
		return domain.IntentFailed
	default:
		log.Printf("[rail] %s reported unrecognized payment status %q, mapping to failed", rail, raw)
		return domain.IntentFailed
	}
}

func mapRefundStatus(rail domain.RailName, raw string) domain.RefundStatus {
	switch raw {
	case "pending", "processing":
		return domain.RefundProcessing
	case "succeeded", "completed":
		return domain.RefundCompleted
	case "failed", "canceled", "cancelled":
		return domain.RefundFailed
	default:
		log.Printf("[rail] %s reported unrecognized refund status %q, mapping to failed", rail, raw)
		return domain.RefundFailed
	}
}
