package rail

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"uitvaartpay/internal/domain"
)

func TestBankTransferCreateCharge(t *testing.T) {
	var gotIdempotencyKey, gotAuth string
	var gotBody btChargeRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/charges" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		gotIdempotencyKey = r.Header.Get("X-Idempotency-Key")
		gotAuth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		json.NewEncoder(w).Encode(btChargeResponse{ID: "bt_123", Status: "pending"})
	}))
	defer srv.Close()

	g := NewBankTransferGateway(srv.URL, "secret-key", "whsec")
	result, err := g.CreateCharge(context.Background(), ChargeRequest{
		Amount:         domain.NewMoney(10000, "EUR"),
		Description:    "basic burial",
		IdempotencyKey: "intent-1",
	})
	if err != nil {
		t.Fatalf("CreateCharge: %v", err)
	}

	if result.RailRef != "bt_123" {
		t.Errorf("RailRef = %q, want bt_123", result.RailRef)
	}
	if result.Status != domain.IntentPending {
		t.Errorf("Status = %s, want pending", result.Status)
	}
	if gotIdempotencyKey != "intent-1" {
		t.Errorf("X-Idempotency-Key = %q, want intent-1", gotIdempotencyKey)
	}
	if gotAuth != "Bearer secret-key" {
		t.Errorf("Authorization = %q", gotAuth)
	}
	if gotBody.Amount != 10000 || gotBody.Currency != "EUR" {
		t.Errorf("request body = %+v", gotBody)
	}
}

func TestBankTransferCreateRefundPartial(t *testing.T) {
	var gotBody btRefundRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/refunds" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Fatalf("decode request: %v", err)
		}
		json.NewEncoder(w).Encode(btChargeResponse{ID: "btr_1", Status: "completed"})
	}))
	defer srv.Close()

	g := NewBankTransferGateway(srv.URL, "secret-key", "whsec")
	amount := domain.NewMoney(4000, "EUR")
	result, err := g.CreateRefund(context.Background(), RefundSubmission{
		RailRef:        "bt_123",
		Amount:         &amount,
		Reason:         domain.RefundQualityIssue,
		IdempotencyKey: "refund-1",
	})
	if err != nil {
		t.Fatalf("CreateRefund: %v", err)
	}

	if result.Status != domain.RefundCompleted {
		t.Errorf("Status = %s, want completed", result.Status)
	}
	if gotBody.ChargeID != "bt_123" {
		t.Errorf("ChargeID = %q, want bt_123", gotBody.ChargeID)
	}
	if gotBody.Amount == nil || *gotBody.Amount != 4000 {
		t.Errorf("Amount = %v, want 4000", gotBody.Amount)
	}
}

func TestBankTransferErrorResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream down", http.StatusBadGateway)
	}))
	defer srv.Close()

	g := NewBankTransferGateway(srv.URL, "secret-key", "whsec")
	_, err := g.CreateCharge(context.Background(), ChargeRequest{
		Amount:         domain.NewMoney(10000, "EUR"),
		IdempotencyKey: "intent-1",
	})
	if err == nil {
		t.Fatal("expected error from non-2xx response")
	}

	var railErr *domain.RailError
	if !errors.As(err, &railErr) {
		t.Fatalf("err = %T, want *domain.RailError", err)
	}
	if railErr.Rail != domain.RailBankTransfer {
		t.Errorf("Rail = %s, want bank_transfer", railErr.Rail)
	}
}

func signBT(secret string, payload []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

func TestBankTransferVerifyAndParseWebhook(t *testing.T) {
	g := NewBankTransferGateway("http://unused", "key", "whsec")
	payload, _ := json.Marshal(btWebhookPayload{
		EventID:  "evt_1",
		Type:     "charge.completed",
		ChargeID: "bt_123",
		Amount:   10000,
		Currency: "EUR",
	})

	evt, err := g.VerifyAndParseWebhook(payload, signBT("whsec", payload))
	if err != nil {
		t.Fatalf("VerifyAndParseWebhook: %v", err)
	}

	if evt.Type != WebhookPaymentSucceeded {
		t.Errorf("Type = %s, want payment_succeeded", evt.Type)
	}
	if evt.ProviderEventID != "evt_1" {
		t.Errorf("ProviderEventID = %q, want evt_1", evt.ProviderEventID)
	}
	if evt.RailRef != "bt_123" {
		t.Errorf("RailRef = %q, want bt_123", evt.RailRef)
	}
	if evt.Amount == nil || evt.Amount.Amount != 10000 {
		t.Errorf("Amount = %v, want 10000", evt.Amount)
	}
}

func TestBankTransferWebhookEventTypes(t *testing.T) {
	g := NewBankTransferGateway("http://unused", "key", "whsec")

	tests := []struct {
		railType string
		want     WebhookEventType
	}{
		{"charge.completed", WebhookPaymentSucceeded},
		{"charge.processing", WebhookPaymentProcessing},
		{"charge.failed", WebhookPaymentFailed},
		{"charge.cancelled", WebhookPaymentCancelled},
		{"refund.completed", WebhookRefundSucceeded},
		{"refund.failed", WebhookRefundFailed},
		{"chargeback.created", WebhookChargebackCreated},
		{"account.updated", WebhookIgnored},
	}

	for _, tt := range tests {
		payload, _ := json.Marshal(btWebhookPayload{EventID: "evt", Type: tt.railType, ChargeID: "bt_1"})
		evt, err := g.VerifyAndParseWebhook(payload, signBT("whsec", payload))
		if err != nil {
			t.Fatalf("VerifyAndParseWebhook(%s): %v", tt.railType, err)
		}
		if evt.Type != tt.want {
			t.Errorf("type %s mapped to %s, want %s", tt.railType, evt.Type, tt.want)
		}
	}
}

func TestBankTransferWebhookRejectsBadSignature(t *testing.T) {
	g := NewBankTransferGateway("http://unused", "key", "whsec")
	payload := []byte(`{"event_id":"evt_1","type":"charge.completed","charge_id":"bt_1"}`)

	if _, err := g.VerifyAndParseWebhook(payload, "deadbeef"); !errors.Is(err, domain.ErrWebhookSignatureInvalid) {
		t.Errorf("err = %v, want ErrWebhookSignatureInvalid", err)
	}
	// Signed with the wrong secret.
	if _, err := g.VerifyAndParseWebhook(payload, signBT("other", payload)); !errors.Is(err, domain.ErrWebhookSignatureInvalid) {
		t.Errorf("err = %v, want ErrWebhookSignatureInvalid", err)
	}
	// Tampered payload under a valid signature for the original.
	sig := signBT("whsec", payload)
	tampered := []byte(`{"event_id":"evt_1","type":"charge.completed","charge_id":"bt_2"}`)
	if _, err := g.VerifyAndParseWebhook(tampered, sig); !errors.Is(err, domain.ErrWebhookSignatureInvalid) {
		t.Errorf("err = %v, want ErrWebhookSignatureInvalid", err)
	}
}

func TestMapIntentStatusUnknownFallsToFailed(t *testing.T) {
	if got := mapIntentStatus(domain.RailBankTransfer, "weird"); got != domain.IntentFailed {
		t.Errorf("mapIntentStatus = %s, want failed", got)
	}
	if got := mapRefundStatus(domain.RailBankTransfer, "weird"); got != domain.RefundFailed {
		t.Errorf("mapRefundStatus = %s, want failed", got)
	}
}

func TestRegistry(t *testing.T) {
	g := NewBankTransferGateway("http://unused", "key", "whsec")
	registry := NewRegistry(g)

	got, err := registry.Get(domain.RailBankTransfer)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Name() != domain.RailBankTransfer {
		t.Errorf("Name = %s", got.Name())
	}

	if _, err := registry.Get(domain.RailStripe); err == nil {
		t.Error("expected error for unconfigured rail")
	}
}
