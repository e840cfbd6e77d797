package service

import "uitvaartpay/internal/domain"

// FeeBreakdown is the outcome of one fee calculation. Conservation holds
// exactly: AdjustedBase == PlatformFee + CommissionFee + NetAmount.
type FeeBreakdown struct {
	AdjustedBase     domain.Money `json:"adjusted_base"`
	PlatformFee      domain.Money `json:"platform_fee"`
	CommissionFee    domain.Money `json:"commission_fee"`
	NetAmount        domain.Money `json:"net_amount"`
	TotalFees        domain.Money `json:"total_fees"`
	ReductionApplied bool         `json:"reduction_applied"`
}

// ComputeFees converts a gross amount into platform fee, commission fee and
// provider net. For municipal burials the reduction shrinks the base before
// any fee is taken, so the platform's own take shrinks with the subsidy.
// Pure: no side effects, deterministic for the same inputs.
func ComputeFees(base domain.Money, purpose domain.PaymentPurpose, reductionApplies bool, fs domain.FeeStructure) (FeeBreakdown, error) {
	if !base.IsPositive() {
		return FeeBreakdown{}, domain.ErrInvalidAmount
	}
	if err := fs.Validate(); err != nil {
		return FeeBreakdown{}, err
	}

	adjusted := base
	if reductionApplies {
		adjusted = base.MulRound(1 - fs.MunicipalBurialReduction)
	}

	platformFee := adjusted.MulRound(fs.PlatformFeeRate)
	commissionFee := adjusted.MulRound(fs.ProviderCommissionRate)
	// Net is whatever remains after both fees, so any residual cent from
	// rounding lands in the provider's net.
	net := adjusted.Sub(platformFee).Sub(commissionFee)

	return FeeBreakdown{
		AdjustedBase:     adjusted,
		PlatformFee:      platformFee,
		CommissionFee:    commissionFee,
		NetAmount:        net,
		TotalFees:        platformFee.Add(commissionFee),
		ReductionApplied: reductionApplies,
	}, nil
}
