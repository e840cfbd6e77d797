package rail

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	stripe "github.com/stripe/stripe-go/v72"
	"github.com/stripe/stripe-go/v72/client"
	"github.com/stripe/stripe-go/v72/webhook"

	"uitvaartpay/internal/domain"
)

// StripeGateway is the card rail. It only translates between the engine's
// capability interface and the Stripe API; no splitting or refund policy
// lives here.
type StripeGateway struct {
	api           *client.API
	webhookSecret string
}

func NewStripeGateway(apiKey, webhookSecret string) *StripeGateway {
	api := &client.API{}
	api.Init(apiKey, nil)
	return &StripeGateway{api: api, webhookSecret: webhookSecret}
}

func (g *StripeGateway) Name() domain.RailName {
	return domain.RailStripe
}

func (g *StripeGateway) CreateCharge(ctx context.Context, req ChargeRequest) (*ChargeResult, error) {
	params := &stripe.PaymentIntentParams{
		Amount:      stripe.Int64(req.Amount.Amount),
		Currency:    stripe.String(strings.ToLower(req.Amount.Currency)),
		Description: stripe.String(req.Description),
	}
	params.Context = ctx
	params.SetIdempotencyKey(req.IdempotencyKey)
	for k, v := range req.Metadata {
		params.AddMetadata(k, v)
	}

	pi, err := g.api.PaymentIntents.New(params)
	if err != nil {
		return nil, &domain.RailError{Rail: domain.RailStripe, Op: "create charge", Err: err}
	}
	return &ChargeResult{RailRef: pi.ID, Status: mapIntentStatus(domain.RailStripe, string(pi.Status))}, nil
}

func (g *StripeGateway) ConfirmCharge(ctx context.Context, railRef, methodToken string) (*ChargeResult, error) {
	params := &stripe.PaymentIntentConfirmParams{
		PaymentMethod: stripe.String(methodToken),
	}
	params.Context = ctx

	pi, err := g.api.PaymentIntents.Confirm(railRef, params)
	if err != nil {
		return nil, &domain.RailError{Rail: domain.RailStripe, Op: "confirm charge", Err: err}
	}
	return &ChargeResult{RailRef: pi.ID, Status: mapIntentStatus(domain.RailStripe, string(pi.Status))}, nil
}

func (g *StripeGateway) CreateRefund(ctx context.Context, sub RefundSubmission) (*RefundResult, error) {
	params := &stripe.RefundParams{
		PaymentIntent: stripe.String(sub.RailRef),
		Reason:        stripe.String(stripeRefundReason(sub.Reason)),
	}
	params.Context = ctx
	params.SetIdempotencyKey(sub.IdempotencyKey)
	if sub.Amount != nil {
		params.Amount = stripe.Int64(sub.Amount.Amount)
	}

	ref, err := g.api.Refunds.New(params)
	if err != nil {
		return nil, &domain.RailError{Rail: domain.RailStripe, Op: "create refund", Err: err}
	}
	return &RefundResult{RailRef: ref.ID, Status: mapRefundStatus(domain.RailStripe, string(ref.Status))}, nil
}

func (g *StripeGateway) GetStatus(ctx context.Context, railRef string) (domain.PaymentIntentStatus, error) {
	params := &stripe.PaymentIntentParams{}
	params.Context = ctx

	pi, err := g.api.PaymentIntents.Get(railRef, params)
	if err != nil {
		return "", &domain.RailError{Rail: domain.RailStripe, Op: "get status", Err: err}
	}
	return mapIntentStatus(domain.RailStripe, string(pi.Status)), nil
}

// Stripe only accepts a fixed reason vocabulary on refunds.
func stripeRefundReason(r domain.RefundReason) string {
	switch r {
	case domain.RefundDuplicateCharge:
		return "duplicate"
	case domain.RefundFraudulentRequest:
		return "fraudulent"
	default:
		return "requested_by_customer"
	}
}

func (g *StripeGateway) VerifyAndParseWebhook(payload []byte, signature string) (*WebhookEvent, error) {
	event, err := webhook.ConstructEvent(payload, signature, g.webhookSecret)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrWebhookSignatureInvalid, err)
	}

	evt := &WebhookEvent{
		Rail:            domain.RailStripe,
		ProviderEventID: event.ID,
		ReceivedAt:      time.Now().UTC(),
	}

	switch event.Type {
	case "payment_intent.succeeded":
		evt.Type = WebhookPaymentSucceeded
	case "payment_intent.processing":
		evt.Type = WebhookPaymentProcessing
	case "payment_intent.payment_failed":
		evt.Type = WebhookPaymentFailed
	case "payment_intent.canceled":
		evt.Type = WebhookPaymentCancelled
	case "charge.refunded":
		evt.Type = WebhookRefundSucceeded
	case "charge.dispute.created":
		evt.Type = WebhookChargebackCreated
	default:
		evt.Type = WebhookIgnored
		return evt, nil
	}

	var obj struct {
		ID            string `json:"id"`
		PaymentIntent string `json:"payment_intent"`
		Amount        int64  `json:"amount"`
		Currency      string `json:"currency"`
		Reason        string `json:"reason"`
		Refunds       struct {
			Data []struct {
				ID string `json:"id"`
			} `json:"data"`
		} `json:"refunds"`
	}
	if err := json.Unmarshal(event.Data.Raw, &obj); err != nil {
		return nil, fmt.Errorf("parse stripe event object: %w", err)
	}

	switch evt.Type {
	case WebhookPaymentSucceeded, WebhookPaymentProcessing, WebhookPaymentFailed, WebhookPaymentCancelled:
		evt.RailRef = obj.ID
	case WebhookRefundSucceeded:
		evt.RailRef = obj.PaymentIntent
		// The charge embeds its refunds newest-first; the head is the one
		// this delivery announces.
		if len(obj.Refunds.Data) > 0 {
			evt.RefundRailRef = obj.Refunds.Data[0].ID
		}
	case WebhookChargebackCreated:
		evt.RailRef = obj.PaymentIntent
		evt.Reason = obj.Reason
		if obj.Amount > 0 {
			amount := domain.NewMoney(obj.Amount, strings.ToUpper(obj.Currency))
			evt.Amount = &amount
		}
	}

	return evt, nil
}
