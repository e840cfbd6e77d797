package rest

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"uitvaartpay/internal/domain"
	"uitvaartpay/internal/service"
)

type createPaymentRequest struct {
	Amount             moneyPayload        `json:"amount"`
	PaymentType        string              `json:"payment_type"`
	Rail               string              `json:"rail"`
	CustomerID         string              `json:"customer_id"`
	ProviderID         string              `json:"provider_id"`
	Description        string              `json:"description,omitempty"`
	ServiceType        string              `json:"service_type,omitempty"`
	SubmittedDocuments []string            `json:"submitted_documents,omitempty"`
	CustomFeeStructure *feeOverridePayload `json:"custom_fee_structure,omitempty"`
}

func (h *Handler) createPayment(w http.ResponseWriter, r *http.Request) {
	var req createPaymentRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequestOr(w, err)
		return
	}

	amount, err := req.Amount.toMoney("amount")
	if err != nil {
		badRequestOr(w, err)
		return
	}

	purpose := domain.PaymentPurpose(req.PaymentType)
	if !purpose.Valid() {
		ErrorBadRequest(w, "payment_type must be one of family_fee, provider_commission, municipal_burial, regular_service")
		return
	}
	railName := domain.RailName(req.Rail)
	if !railName.Valid() {
		ErrorBadRequest(w, "rail must be one of stripe, bank_transfer")
		return
	}

	override, err := req.CustomFeeStructure.toOverride()
	if err != nil {
		badRequestOr(w, err)
		return
	}

	intent, err := h.payments.CreatePayment(r.Context(), service.CreatePaymentRequest{
		Amount:             amount,
		Purpose:            purpose,
		Rail:               railName,
		CustomerID:         req.CustomerID,
		ProviderID:         req.ProviderID,
		Description:        req.Description,
		ServiceCategory:    req.ServiceType,
		SubmittedDocuments: req.SubmittedDocuments,
		FeeOverride:        override,
		CorrelationID:      correlationID(r),
	})
	if err != nil {
		EngineError(w, err)
		return
	}

	SuccessCreated(w, "payment created", intent)
}

type confirmPaymentRequest struct {
	MethodToken string `json:"method_token"`
}

func (h *Handler) confirmPayment(w http.ResponseWriter, r *http.Request) {
	var req confirmPaymentRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequestOr(w, err)
		return
	}
	if req.MethodToken == "" {
		ErrorBadRequest(w, "method_token is required")
		return
	}

	intent, err := h.payments.ConfirmPayment(r.Context(), chi.URLParam(r, "payment_id"), req.MethodToken, correlationID(r))
	if err != nil {
		EngineError(w, err)
		return
	}

	Success(w, "payment confirmed", intent)
}

func (h *Handler) getPayment(w http.ResponseWriter, r *http.Request) {
	intent, err := h.payments.GetPayment(r.Context(), chi.URLParam(r, "payment_id"))
	if err != nil {
		EngineError(w, err)
		return
	}

	Success(w, "payment", intent)
}

func (h *Handler) syncPayment(w http.ResponseWriter, r *http.Request) {
	intent, err := h.payments.SyncStatus(r.Context(), chi.URLParam(r, "payment_id"), correlationID(r))
	if err != nil {
		EngineError(w, err)
		return
	}

	Success(w, "payment synced", intent)
}
