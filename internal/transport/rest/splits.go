package rest

import (
	"net/http"

	"uitvaartpay/internal/domain"
	"uitvaartpay/internal/service"
)

type splitRequest struct {
	BaseAmount         moneyPayload        `json:"base_amount"`
	PaymentType        string              `json:"payment_type"`
	ProviderID         string              `json:"provider_id"`
	ServiceType        string              `json:"service_type,omitempty"`
	SubmittedDocuments []string            `json:"submitted_documents,omitempty"`
	CustomFeeStructure *feeOverridePayload `json:"custom_fee_structure,omitempty"`
}

type feeOverridePayload struct {
	FamilyFee                *moneyPayload `json:"family_fee,omitempty"`
	ProviderCommissionRate   *float64      `json:"provider_commission_rate,omitempty"`
	MunicipalBurialReduction *float64      `json:"municipal_burial_reduction,omitempty"`
	PlatformFeeRate          *float64      `json:"platform_fee_rate,omitempty"`
}

func (p *feeOverridePayload) toOverride() (*service.FeeStructureOverride, error) {
	if p == nil {
		return nil, nil
	}
	o := &service.FeeStructureOverride{
		ProviderCommissionRate:   p.ProviderCommissionRate,
		MunicipalBurialReduction: p.MunicipalBurialReduction,
		PlatformFeeRate:          p.PlatformFeeRate,
	}
	if p.FamilyFee != nil {
		fee, err := p.FamilyFee.toMoney("custom_fee_structure.family_fee")
		if err != nil {
			return nil, err
		}
		o.FamilyFee = &fee
	}
	return o, nil
}

func (h *Handler) calculateSplit(w http.ResponseWriter, r *http.Request) {
	var req splitRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequestOr(w, err)
		return
	}

	base, err := req.BaseAmount.toMoney("base_amount")
	if err != nil {
		badRequestOr(w, err)
		return
	}

	purpose := domain.PaymentPurpose(req.PaymentType)
	if !purpose.Valid() {
		ErrorBadRequest(w, "payment_type must be one of family_fee, provider_commission, municipal_burial, regular_service")
		return
	}
	if req.ProviderID == "" {
		ErrorBadRequest(w, "provider_id is required")
		return
	}

	override, err := req.CustomFeeStructure.toOverride()
	if err != nil {
		badRequestOr(w, err)
		return
	}

	result, err := h.splits.CalculateSplit(service.SplitCalculationRequest{
		BaseAmount:         base,
		Purpose:            purpose,
		ProviderID:         req.ProviderID,
		ServiceCategory:    req.ServiceType,
		SubmittedDocuments: req.SubmittedDocuments,
		FeeOverride:        override,
	})
	if err != nil {
		EngineError(w, err)
		return
	}

	Success(w, "split calculated", result)
}

type partiesSplitRequest struct {
	BaseAmount moneyPayload         `json:"base_amount"`
	Parties    []service.SplitParty `json:"parties"`
}

func (h *Handler) splitAcrossParties(w http.ResponseWriter, r *http.Request) {
	var req partiesSplitRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequestOr(w, err)
		return
	}

	base, err := req.BaseAmount.toMoney("base_amount")
	if err != nil {
		badRequestOr(w, err)
		return
	}

	splits, err := h.splits.SplitAcrossParties(base, req.Parties)
	if err != nil {
		EngineError(w, err)
		return
	}

	Success(w, "split calculated", map[string]interface{}{"splits": splits})
}

type tieredCommissionRequest struct {
	BaseAmount    moneyPayload `json:"base_amount"`
	Tier          string       `json:"tier"`
	MonthlyVolume moneyPayload `json:"monthly_volume"`
}

func (h *Handler) tieredCommission(w http.ResponseWriter, r *http.Request) {
	var req tieredCommissionRequest
	if err := decodeJSON(r, &req); err != nil {
		badRequestOr(w, err)
		return
	}

	base, err := req.BaseAmount.toMoney("base_amount")
	if err != nil {
		badRequestOr(w, err)
		return
	}

	tier, err := service.ParseCommissionTier(req.Tier)
	if err != nil {
		EngineError(w, err)
		return
	}

	volume := domain.NewMoney(req.MonthlyVolume.Amount, req.MonthlyVolume.Currency)

	result, err := h.splits.CalculateTieredCommission(base, tier, volume)
	if err != nil {
		EngineError(w, err)
		return
	}

	Success(w, "commission calculated", result)
}
