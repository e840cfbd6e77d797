package service

import (
	"fmt"
	"math"

	"uitvaartpay/internal/domain"
)

// SplitCalculationRequest is the inbound contract for one split. The fee
// override, when present, is a complete validated struct; unknown knobs
// cannot be smuggled in.
type SplitCalculationRequest struct {
	BaseAmount         domain.Money
	Purpose            domain.PaymentPurpose
	ProviderID         string
	ServiceCategory    string
	SubmittedDocuments []string
	FeeOverride        *FeeStructureOverride
}

// FeeStructureOverride carries per-request deviations from the default fee
// structure. Nil fields keep the default; the merged result is validated
// before any money math runs.
type FeeStructureOverride struct {
	FamilyFee                *domain.Money
	ProviderCommissionRate   *float64
	MunicipalBurialReduction *float64
	PlatformFeeRate          *float64
}

type SplitBreakdown struct {
	OriginalAmount   domain.Money `json:"original_amount"`
	AdjustedAmount   domain.Money `json:"adjusted_amount"`
	ReductionApplied bool         `json:"reduction_applied"`
	ReductionRate    float64      `json:"reduction_rate"`
	PlatformFee      domain.Money `json:"platform_fee"`
	CommissionFee    domain.Money `json:"commission_fee"`
	NetAmount        domain.Money `json:"net_amount"`
}

type SplitResult struct {
	Split       domain.PaymentSplit `json:"split"`
	Breakdown   SplitBreakdown      `json:"breakdown"`
	Eligibility string              `json:"eligibility"`
}

// SplitService orchestrates the eligibility evaluator and the fee policy.
// It is stateless apart from its configuration and safe for concurrent use;
// persistence of results is the caller's responsibility.
type SplitService struct {
	defaults    domain.FeeStructure
	eligibility EligibilityPolicy
}

func NewSplitService(defaults domain.FeeStructure, eligibility EligibilityPolicy) *SplitService {
	return &SplitService{defaults: defaults, eligibility: eligibility}
}

func (s *SplitService) CalculateSplit(req SplitCalculationRequest) (*SplitResult, error) {
	if !req.BaseAmount.IsPositive() {
		return nil, domain.ErrInvalidAmount
	}
	if !req.Purpose.Valid() {
		return nil, domain.ErrInvalidSplitConfiguration
	}

	fs := mergeFeeStructure(s.defaults, req.FeeOverride)
	if err := fs.Validate(); err != nil {
		return nil, err
	}

	reductionApplies := false
	rationale := "reduced rate not applicable for this payment purpose"
	if req.Purpose == domain.PurposeMunicipalBurial {
		reductionApplies, rationale = s.eligibility.Evaluate(req.BaseAmount, req.ServiceCategory, req.SubmittedDocuments)
	}

	fees, err := ComputeFees(req.BaseAmount, req.Purpose, reductionApplies, fs)
	if err != nil {
		return nil, err
	}

	split := domain.PaymentSplit{
		ProviderID:     req.ProviderID,
		ProviderAmount: fees.NetAmount,
		PlatformFee:    fees.PlatformFee,
		CommissionFee:  fees.CommissionFee,
		NetAmount:      fees.NetAmount,
	}

	return &SplitResult{
		Split: split,
		Breakdown: SplitBreakdown{
			OriginalAmount:   req.BaseAmount,
			AdjustedAmount:   fees.AdjustedBase,
			ReductionApplied: fees.ReductionApplied,
			ReductionRate:    fs.MunicipalBurialReduction,
			PlatformFee:      fees.PlatformFee,
			CommissionFee:    fees.CommissionFee,
			NetAmount:        fees.NetAmount,
		},
		Eligibility: rationale,
	}, nil
}

func mergeFeeStructure(defaults domain.FeeStructure, o *FeeStructureOverride) domain.FeeStructure {
	fs := defaults
	if o == nil {
		return fs
	}
	if o.FamilyFee != nil {
		fs.FamilyFee = *o.FamilyFee
	}
	if o.ProviderCommissionRate != nil {
		fs.ProviderCommissionRate = *o.ProviderCommissionRate
	}
	if o.MunicipalBurialReduction != nil {
		fs.MunicipalBurialReduction = *o.MunicipalBurialReduction
	}
	if o.PlatformFeeRate != nil {
		fs.PlatformFeeRate = *o.PlatformFeeRate
	}
	return fs
}

// CommissionTier is a closed enumeration; an unknown tier is rejected at
// parse time instead of defaulting somewhere at run time.
type CommissionTier string

const (
	TierBronze   CommissionTier = "bronze"
	TierSilver   CommissionTier = "silver"
	TierGold     CommissionTier = "gold"
	TierPlatinum CommissionTier = "platinum"
)

func ParseCommissionTier(s string) (CommissionTier, error) {
	switch CommissionTier(s) {
	case TierBronze, TierSilver, TierGold, TierPlatinum:
		return CommissionTier(s), nil
	}
	return "", fmt.Errorf("%w: unknown commission tier %q", domain.ErrInvalidSplitConfiguration, s)
}

// Tier base rates and volume thresholds are product pricing decisions, not
// tunables. Review changes here with the commercial team.
var tierBaseRates = map[CommissionTier]float64{
	TierBronze:   0.15,
	TierSilver:   0.13,
	TierGold:     0.11,
	TierPlatinum: 0.10,
}

var tierBenefits = map[CommissionTier][]string{
	TierBronze:   {"standard_listing"},
	TierSilver:   {"standard_listing", "priority_support"},
	TierGold:     {"featured_listing", "priority_support", "monthly_payout_report"},
	TierPlatinum: {"featured_listing", "dedicated_support", "monthly_payout_report", "early_payout"},
}

const (
	volumeThresholdLow  = 5_000_000  // EUR 50k in cents
	volumeThresholdMid  = 10_000_000 // EUR 100k
	volumeThresholdHigh = 20_000_000 // EUR 200k
	commissionRateFloor = 0.08
)

type TieredCommission struct {
	Tier     CommissionTier `json:"tier"`
	Rate     float64        `json:"rate"`
	Amount   domain.Money   `json:"amount"`
	Benefits []string       `json:"benefits"`
}

// CalculateTieredCommission applies the tier base rate with a volume
// discount of 0.5/1.0/1.5 percentage points above the three thresholds.
// The effective rate never drops below the 8% floor.
func (s *SplitService) CalculateTieredCommission(baseAmount domain.Money, tier CommissionTier, monthlyVolume domain.Money) (*TieredCommission, error) {
	if !baseAmount.IsPositive() {
		return nil, domain.ErrInvalidAmount
	}
	baseRate, ok := tierBaseRates[tier]
	if !ok {
		return nil, fmt.Errorf("%w: unknown commission tier %q", domain.ErrInvalidSplitConfiguration, tier)
	}

	rate := baseRate
	switch {
	case monthlyVolume.Amount > volumeThresholdHigh:
		rate -= 0.015
	case monthlyVolume.Amount > volumeThresholdMid:
		rate -= 0.010
	case monthlyVolume.Amount > volumeThresholdLow:
		rate -= 0.005
	}
	if rate < commissionRateFloor {
		rate = commissionRateFloor
	}

	return &TieredCommission{
		Tier:     tier,
		Rate:     rate,
		Amount:   baseAmount.MulRound(rate),
		Benefits: tierBenefits[tier],
	}, nil
}

type SplitParty struct {
	ProviderID string  `json:"provider_id"`
	Percentage float64 `json:"percentage"`
	Role       string  `json:"role"`
}

const splitPercentageTolerance = 0.01

// SplitAcrossParties divides a gross amount over N providers and runs the
// fee policy on each share at the regular-service purpose. It fails fast,
// before any money is computed, when the percentages do not sum to 100.
func (s *SplitService) SplitAcrossParties(baseAmount domain.Money, parties []SplitParty) ([]domain.PaymentSplit, error) {
	if !baseAmount.IsPositive() {
		return nil, domain.ErrInvalidAmount
	}
	if len(parties) == 0 {
		return nil, fmt.Errorf("%w: at least one party is required", domain.ErrInvalidSplitConfiguration)
	}

	var total float64
	for _, p := range parties {
		if p.Percentage <= 0 {
			return nil, fmt.Errorf("%w: party %s has non-positive percentage", domain.ErrInvalidSplitConfiguration, p.ProviderID)
		}
		total += p.Percentage
	}
	if math.Abs(total-100) > splitPercentageTolerance {
		return nil, fmt.Errorf("%w: percentages sum to %.2f, want 100", domain.ErrInvalidSplitConfiguration, total)
	}

	splits := make([]domain.PaymentSplit, 0, len(parties))
	remaining := baseAmount.Amount
	for i, p := range parties {
		share := baseAmount.MulRound(p.Percentage / 100)
		if i == len(parties)-1 {
			// The last party absorbs the rounding residue so the shares
			// always add up to the original amount.
			share = domain.NewMoney(remaining, baseAmount.Currency)
		}
		remaining -= share.Amount

		fees, err := ComputeFees(share, domain.PurposeRegularService, false, s.defaults)
		if err != nil {
			return nil, err
		}
		splits = append(splits, domain.PaymentSplit{
			ProviderID:     p.ProviderID,
			ProviderAmount: fees.NetAmount,
			PlatformFee:    fees.PlatformFee,
			CommissionFee:  fees.CommissionFee,
			NetAmount:      fees.NetAmount,
		})
	}

	return splits, nil
}
