package rest

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"uitvaartpay/internal/domain"
	"uitvaartpay/internal/service"
)

type SplitCalculator interface {
	CalculateSplit(req service.SplitCalculationRequest) (*service.SplitResult, error)
	CalculateTieredCommission(baseAmount domain.Money, tier service.CommissionTier, monthlyVolume domain.Money) (*service.TieredCommission, error)
	SplitAcrossParties(baseAmount domain.Money, parties []service.SplitParty) ([]domain.PaymentSplit, error)
}

type PaymentManager interface {
	CreatePayment(ctx context.Context, req service.CreatePaymentRequest) (*domain.PaymentIntent, error)
	ConfirmPayment(ctx context.Context, id, methodToken, correlationID string) (*domain.PaymentIntent, error)
	GetPayment(ctx context.Context, id string) (*domain.PaymentIntent, error)
	SyncStatus(ctx context.Context, id, correlationID string) (*domain.PaymentIntent, error)
}

type RefundManager interface {
	CreateRefund(ctx context.Context, req service.CreateRefundRequest) (*domain.RefundRequest, error)
	ApproveRefund(ctx context.Context, id, approvedBy, correlationID string) (*domain.RefundRequest, error)
	GetRefund(ctx context.Context, id string) (*domain.RefundRequest, error)
	ListRefunds(ctx context.Context, paymentIntentID string) ([]domain.RefundRequest, error)
}

type DisputeManager interface {
	CreateDispute(ctx context.Context, req service.CreateDisputeRequest) (*domain.DisputeCase, error)
	ResolveDispute(ctx context.Context, id, resolution, resolvedBy string, refundAmount *domain.Money, correlationID string) (*domain.DisputeCase, error)
	GetDispute(ctx context.Context, id string) (*domain.DisputeCase, error)
}

type WebhookIngestor interface {
	HandleWebhook(ctx context.Context, railName domain.RailName, payload []byte, signature, correlationID string) error
}

type Handler struct {
	splits   SplitCalculator
	payments PaymentManager
	refunds  RefundManager
	disputes DisputeManager
	webhooks WebhookIngestor
}

func NewHandler(splits SplitCalculator, payments PaymentManager, refunds RefundManager, disputes DisputeManager, webhooks WebhookIngestor) *Handler {
	return &Handler{
		splits:   splits,
		payments: payments,
		refunds:  refunds,
		disputes: disputes,
		webhooks: webhooks,
	}
}

func (h *Handler) InitRouter() *chi.Mux {
	r := chi.NewRouter()

	r.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Logger,
		middleware.Recoverer,
		middleware.Timeout(60*time.Second),
	)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		Success(w, "ok", nil)
	})

	r.Route("/splits", func(r chi.Router) {
		r.Post("/", h.calculateSplit)
		r.Post("/parties", h.splitAcrossParties)
	})
	r.Post("/commission/tiers", h.tieredCommission)

	r.Route("/payments", func(r chi.Router) {
		r.Post("/", h.createPayment)
		r.Get("/{payment_id}", h.getPayment)
		r.Post("/{payment_id}/confirm", h.confirmPayment)
		r.Post("/{payment_id}/sync", h.syncPayment)
		r.Get("/{payment_id}/refunds", h.listRefunds)
	})

	r.Route("/refunds", func(r chi.Router) {
		r.Post("/", h.createRefund)
		r.Get("/{refund_id}", h.getRefund)
		r.Post("/{refund_id}/approve", h.approveRefund)
	})

	r.Route("/disputes", func(r chi.Router) {
		r.Post("/", h.createDispute)
		r.Get("/{dispute_id}", h.getDispute)
		r.Post("/{dispute_id}/resolve", h.resolveDispute)
	})

	r.Post("/webhooks/{rail}", h.ingestWebhook)

	return r
}

func correlationID(r *http.Request) string {
	return middleware.GetReqID(r.Context())
}
