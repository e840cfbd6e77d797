package rest

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"uitvaartpay/internal/domain"
	"uitvaartpay/internal/service"
)

type createRefundRequest struct {
	PaymentIntentID string        `json:"payment_intent_id"`
	Amount          *moneyPayload `json:"amount,omitempty"`
	Reason          string        `json:"reason"`
	Description     string        `json:"description,omitempty"`
	InitiatedBy     string        `json:"initiated_by"`
}

func (h *Handler) createRefund(w http.ResponseWriter, r *http.Request) {
	var req createRefundRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequestOr(w, err)
		return
	}

	if req.PaymentIntentID == "" {
		ErrorBadRequest(w, "payment_intent_id is required")
		return
	}
	if req.InitiatedBy == "" {
		ErrorBadRequest(w, "initiated_by is required")
		return
	}

	var amount *domain.Money
	if req.Amount != nil {
		m, err := req.Amount.toMoney("amount")
		if err != nil {
			badRequestOr(w, err)
			return
		}
		amount = &m
	}

	refund, err := h.refunds.CreateRefund(r.Context(), service.CreateRefundRequest{
		PaymentIntentID: req.PaymentIntentID,
		Amount:          amount,
		Reason:          domain.RefundReason(req.Reason),
		Description:     req.Description,
		InitiatedBy:     req.InitiatedBy,
		CorrelationID:   correlationID(r),
	})
	if err != nil {
		EngineError(w, err)
		return
	}

	SuccessCreated(w, "refund created", refund)
}

type approveRefundRequest struct {
	ApprovedBy string `json:"approved_by"`
}

func (h *Handler) approveRefund(w http.ResponseWriter, r *http.Request) {
	var req approveRefundRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequestOr(w, err)
		return
	}
	if req.ApprovedBy == "" {
		ErrorBadRequest(w, "approved_by is required")
		return
	}

	refund, err := h.refunds.ApproveRefund(r.Context(), chi.URLParam(r, "refund_id"), req.ApprovedBy, correlationID(r))
	if err != nil {
		EngineError(w, err)
		return
	}

	Success(w, "refund approved", refund)
}

func (h *Handler) getRefund(w http.ResponseWriter, r *http.Request) {
	refund, err := h.refunds.GetRefund(r.Context(), chi.URLParam(r, "refund_id"))
	if err != nil {
		EngineError(w, err)
		return
	}

	Success(w, "refund", refund)
}

func (h *Handler) listRefunds(w http.ResponseWriter, r *http.Request) {
	refunds, err := h.refunds.ListRefunds(r.Context(), chi.URLParam(r, "payment_id"))
	if err != nil {
		EngineError(w, err)
		return
	}

	Success(w, "refunds", map[string]interface{}{"refunds": refunds})
}
