package rail

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"uitvaartpay/internal/domain"
)

// BankTransferGateway talks to the SEPA bank-transfer processor over its
// JSON API. Idempotency keys ride in a header; webhooks are signed with
// HMAC-SHA256 over the raw payload.
type BankTransferGateway struct {
	client        *http.Client
	baseURL       string
	apiKey        string
	webhookSecret string
}

func NewBankTransferGateway(baseURL, apiKey, webhookSecret string) *BankTransferGateway {
	return &BankTransferGateway{
		client:        &http.Client{Timeout: 10 * time.Second},
		baseURL:       baseURL,
		apiKey:        apiKey,
		webhookSecret: webhookSecret,
	}
}

func (g *BankTransferGateway) Name() domain.RailName {
	return domain.RailBankTransfer
}

type btChargeRequest struct {
	Amount      int64             `json:"amount"`
	Currency    string            `json:"currency"`
	Description string            `json:"description"`
	Metadata    map[string]string `json:"metadata,omitempty"`
}

type btChargeResponse struct {
	ID     string `json:"id"`
	Status string `json:"status"`
}

func (g *BankTransferGateway) CreateCharge(ctx context.Context, req ChargeRequest) (*ChargeResult, error) {
	body := btChargeRequest{
		Amount:      req.Amount.Amount,
		Currency:    req.Amount.Currency,
		Description: req.Description,
		Metadata:    req.Metadata,
	}
	var resp btChargeResponse
	if err := g.post(ctx, "/charges", req.IdempotencyKey, body, &resp); err != nil {
		return nil, &domain.RailError{Rail: domain.RailBankTransfer, Op: "create charge", Err: err}
	}
	return &ChargeResult{RailRef: resp.ID, Status: mapIntentStatus(domain.RailBankTransfer, resp.Status)}, nil
}

func (g *BankTransferGateway) ConfirmCharge(ctx context.Context, railRef, methodToken string) (*ChargeResult, error) {
	body := map[string]string{"account_token": methodToken}
	var resp btChargeResponse
	if err := g.post(ctx, "/charges/"+railRef+"/confirm", "", body, &resp); err != nil {
		return nil, &domain.RailError{Rail: domain.RailBankTransfer, Op: "confirm charge", Err: err}
	}
	return &ChargeResult{RailRef: resp.ID, Status: mapIntentStatus(domain.RailBankTransfer, resp.Status)}, nil
}

type btRefundRequest struct {
	ChargeID string `json:"charge_id"`
	Amount   *int64 `json:"amount,omitempty"`
	Reason   string `json:"reason"`
}

func (g *BankTransferGateway) CreateRefund(ctx context.Context, sub RefundSubmission) (*RefundResult, error) {
	body := btRefundRequest{ChargeID: sub.RailRef, Reason: string(sub.Reason)}
	if sub.Amount != nil {
		body.Amount = &sub.Amount.Amount
	}
	var resp btChargeResponse
	if err := g.post(ctx, "/refunds", sub.IdempotencyKey, body, &resp); err != nil {
		return nil, &domain.RailError{Rail: domain.RailBankTransfer, Op: "create refund", Err: err}
	}
	return &RefundResult{RailRef: resp.ID, Status: mapRefundStatus(domain.RailBankTransfer, resp.Status)}, nil
}

func (g *BankTransferGateway) GetStatus(ctx context.Context, railRef string) (domain.PaymentIntentStatus, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"/charges/"+railRef, nil)
	if err != nil {
		return "", &domain.RailError{Rail: domain.RailBankTransfer, Op: "get status", Err: err}
	}
	req.Header.Set("Authorization", "Bearer "+g.apiKey)

	var resp btChargeResponse
	if err := g.do(req, &resp); err != nil {
		return "", &domain.RailError{Rail: domain.RailBankTransfer, Op: "get status", Err: err}
	}
	return mapIntentStatus(domain.RailBankTransfer, resp.Status), nil
}

type btWebhookPayload struct {
	EventID  string `json:"event_id"`
	Type     string `json:"type"`
	ChargeID string `json:"charge_id"`
	RefundID string `json:"refund_id,omitempty"`
	Amount   int64  `json:"amount,omitempty"`
	Currency string `json:"currency,omitempty"`
	Reason   string `json:"reason,omitempty"`
}

func (g *BankTransferGateway) VerifyAndParseWebhook(payload []byte, signature string) (*WebhookEvent, error) {
	mac := hmac.New(sha256.New, []byte(g.webhookSecret))
	mac.Write(payload)
	expected := hex.EncodeToString(mac.Sum(nil))
	if !hmac.Equal([]byte(expected), []byte(signature)) {
		return nil, domain.ErrWebhookSignatureInvalid
	}

	var body btWebhookPayload
	if err := json.Unmarshal(payload, &body); err != nil {
		return nil, fmt.Errorf("parse bank transfer event: %w", err)
	}

	evt := &WebhookEvent{
		Rail:            domain.RailBankTransfer,
		ProviderEventID: body.EventID,
		RailRef:         body.ChargeID,
		RefundRailRef:   body.RefundID,
		Reason:          body.Reason,
		ReceivedAt:      time.Now().UTC(),
	}
	if body.Amount > 0 {
		amount := domain.NewMoney(body.Amount, body.Currency)
		evt.Amount = &amount
	}

	switch body.Type {
	case "charge.completed":
		evt.Type = WebhookPaymentSucceeded
	case "charge.processing":
		evt.Type = WebhookPaymentProcessing
	case "charge.failed":
		evt.Type = WebhookPaymentFailed
	case "charge.cancelled":
		evt.Type = WebhookPaymentCancelled
	case "refund.completed":
		evt.Type = WebhookRefundSucceeded
	case "refund.failed":
		evt.Type = WebhookRefundFailed
	case "chargeback.created":
		evt.Type = WebhookChargebackCreated
	default:
		evt.Type = WebhookIgnored
	}

	return evt, nil
}

func (g *BankTransferGateway) post(ctx context.Context, path, idempotencyKey string, body, out interface{}) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+g.apiKey)
	if idempotencyKey != "" {
		req.Header.Set("X-Idempotency-Key", idempotencyKey)
	}
	return g.do(req, out)
}

func (g *BankTransferGateway) do(req *http.Request, out interface{}) error {
	resp, err := g.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("unexpected response code %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
