package rest

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"uitvaartpay/internal/domain"
	"uitvaartpay/internal/service"
)

type createDisputeRequest struct {
	PaymentIntentID string   `json:"payment_intent_id"`
	CustomerID      string   `json:"customer_id"`
	ProviderID      string   `json:"provider_id"`
	Reason          string   `json:"reason"`
	Description     string   `json:"description,omitempty"`
	Evidence        []string `json:"evidence,omitempty"`
	Priority        string   `json:"priority,omitempty"`
}

func (h *Handler) createDispute(w http.ResponseWriter, r *http.Request) {
	var req createDisputeRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequestOr(w, err)
		return
	}

	if req.PaymentIntentID == "" {
		ErrorBadRequest(w, "payment_intent_id is required")
		return
	}
	if req.Reason == "" {
		ErrorBadRequest(w, "reason is required")
		return
	}

	dispute, err := h.disputes.CreateDispute(r.Context(), service.CreateDisputeRequest{
		PaymentIntentID: req.PaymentIntentID,
		CustomerID:      req.CustomerID,
		ProviderID:      req.ProviderID,
		Reason:          req.Reason,
		Description:     req.Description,
		Evidence:        req.Evidence,
		Priority:        domain.DisputePriority(req.Priority),
		CorrelationID:   correlationID(r),
	})
	if err != nil {
		EngineError(w, err)
		return
	}

	SuccessCreated(w, "dispute created", dispute)
}

type resolveDisputeRequest struct {
	Resolution   string        `json:"resolution"`
	ResolvedBy   string        `json:"resolved_by"`
	RefundAmount *moneyPayload `json:"refund_amount,omitempty"`
}

func (h *Handler) resolveDispute(w http.ResponseWriter, r *http.Request) {
	var req resolveDisputeRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequestOr(w, err)
		return
	}
	if req.Resolution == "" || req.ResolvedBy == "" {
		ErrorBadRequest(w, "resolution and resolved_by are required")
		return
	}

	var refundAmount *domain.Money
	if req.RefundAmount != nil {
		m, err := req.RefundAmount.toMoney("refund_amount")
		if err != nil {
			badRequestOr(w, err)
			return
		}
		refundAmount = &m
	}

	dispute, err := h.disputes.ResolveDispute(r.Context(), chi.URLParam(r, "dispute_id"), req.Resolution, req.ResolvedBy, refundAmount, correlationID(r))
	if err != nil {
		EngineError(w, err)
		return
	}

	Success(w, "dispute resolved", dispute)
}

func (h *Handler) getDispute(w http.ResponseWriter, r *http.Request) {
	dispute, err := h.disputes.GetDispute(r.Context(), chi.URLParam(r, "dispute_id"))
	if err != nil {
		EngineError(w, err)
		return
	}

	Success(w, "dispute", dispute)
}
