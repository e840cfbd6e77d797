package service

import (
	"errors"
	"math"
	"testing"

	"uitvaartpay/internal/domain"
)

func newTestSplitService() *SplitService {
	return NewSplitService(testFeeStructure(), testEligibilityPolicy())
}

func TestCalculateSplitMunicipalBurial(t *testing.T) {
	svc := newTestSplitService()

	result, err := svc.CalculateSplit(SplitCalculationRequest{
		BaseAmount:         domain.NewMoney(10000, "EUR"),
		Purpose:            domain.PurposeMunicipalBurial,
		ProviderID:         "prov-1",
		ServiceCategory:    "basic_burial",
		SubmittedDocuments: []string{"income_statement", "municipal_approval", "death_certificate"},
	})
	if err != nil {
		t.Fatalf("CalculateSplit: %v", err)
	}

	if !result.Breakdown.ReductionApplied {
		t.Error("reduction should apply for an eligible municipal burial")
	}
	if result.Breakdown.AdjustedAmount.Amount != 7000 {
		t.Errorf("AdjustedAmount = %d, want 7000", result.Breakdown.AdjustedAmount.Amount)
	}
	if result.Split.PlatformFee.Amount != 203 {
		t.Errorf("PlatformFee = %d, want 203", result.Split.PlatformFee.Amount)
	}
	if result.Split.CommissionFee.Amount != 875 {
		t.Errorf("CommissionFee = %d, want 875", result.Split.CommissionFee.Amount)
	}
	if result.Split.NetAmount.Amount != 5922 {
		t.Errorf("NetAmount = %d, want 5922", result.Split.NetAmount.Amount)
	}
	if result.Split.ProviderAmount != result.Split.NetAmount {
		t.Error("ProviderAmount should equal NetAmount")
	}
	if result.Split.ProviderID != "prov-1" {
		t.Errorf("ProviderID = %q, want prov-1", result.Split.ProviderID)
	}
}

func TestCalculateSplitIneligibleKeepsFullBase(t *testing.T) {
	svc := newTestSplitService()

	result, err := svc.CalculateSplit(SplitCalculationRequest{
		BaseAmount:         domain.NewMoney(10000, "EUR"),
		Purpose:            domain.PurposeMunicipalBurial,
		ProviderID:         "prov-1",
		ServiceCategory:    "basic_burial",
		SubmittedDocuments: []string{"income_statement"},
	})
	if err != nil {
		t.Fatalf("CalculateSplit: %v", err)
	}

	if result.Breakdown.ReductionApplied {
		t.Error("reduction should not apply when documents are missing")
	}
	if result.Breakdown.AdjustedAmount.Amount != 10000 {
		t.Errorf("AdjustedAmount = %d, want 10000", result.Breakdown.AdjustedAmount.Amount)
	}
	if result.Eligibility == "" {
		t.Error("expected an eligibility rationale")
	}
}

func TestCalculateSplitRegularServiceSkipsEligibility(t *testing.T) {
	svc := newTestSplitService()

	// No documents at all, but the purpose never consults the policy.
	result, err := svc.CalculateSplit(SplitCalculationRequest{
		BaseAmount: domain.NewMoney(10000, "EUR"),
		Purpose:    domain.PurposeRegularService,
		ProviderID: "prov-1",
	})
	if err != nil {
		t.Fatalf("CalculateSplit: %v", err)
	}
	if result.Breakdown.ReductionApplied {
		t.Error("regular service should never get the municipal reduction")
	}
}

func TestCalculateSplitFeeOverride(t *testing.T) {
	svc := newTestSplitService()
	commission := 0.10

	result, err := svc.CalculateSplit(SplitCalculationRequest{
		BaseAmount:  domain.NewMoney(10000, "EUR"),
		Purpose:     domain.PurposeRegularService,
		ProviderID:  "prov-1",
		FeeOverride: &FeeStructureOverride{ProviderCommissionRate: &commission},
	})
	if err != nil {
		t.Fatalf("CalculateSplit: %v", err)
	}
	if result.Split.CommissionFee.Amount != 1000 {
		t.Errorf("CommissionFee = %d, want 1000 at the overridden 10%% rate", result.Split.CommissionFee.Amount)
	}
	// The platform rate must still come from the defaults.
	if result.Split.PlatformFee.Amount != 290 {
		t.Errorf("PlatformFee = %d, want 290", result.Split.PlatformFee.Amount)
	}
}

func TestCalculateSplitRejectsOutOfBandOverride(t *testing.T) {
	svc := newTestSplitService()
	commission := 0.25

	_, err := svc.CalculateSplit(SplitCalculationRequest{
		BaseAmount:  domain.NewMoney(10000, "EUR"),
		Purpose:     domain.PurposeRegularService,
		ProviderID:  "prov-1",
		FeeOverride: &FeeStructureOverride{ProviderCommissionRate: &commission},
	})
	if !errors.Is(err, domain.ErrInvalidSplitConfiguration) {
		t.Errorf("err = %v, want ErrInvalidSplitConfiguration", err)
	}
}

func TestCalculateTieredCommission(t *testing.T) {
	svc := newTestSplitService()
	base := domain.NewMoney(100000, "EUR")

	tests := []struct {
		name       string
		tier       CommissionTier
		volume     int64
		wantRate   float64
		wantAmount int64
	}{
		{"bronze no volume", TierBronze, 0, 0.15, 15000},
		{"silver no volume", TierSilver, 0, 0.13, 13000},
		{"gold no volume", TierGold, 0, 0.11, 11000},
		{"platinum no volume", TierPlatinum, 0, 0.10, 10000},
		{"bronze above low threshold", TierBronze, 5_000_001, 0.145, 14500},
		{"gold above mid threshold", TierGold, 10_000_001, 0.10, 10000},
		{"platinum above high threshold", TierPlatinum, 20_000_001, 0.085, 8500},
		{"at low threshold no discount", TierBronze, 5_000_000, 0.15, 15000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := svc.CalculateTieredCommission(base, tt.tier, domain.NewMoney(tt.volume, "EUR"))
			if err != nil {
				t.Fatalf("CalculateTieredCommission: %v", err)
			}
			if math.Abs(got.Rate-tt.wantRate) > 1e-9 {
				t.Errorf("Rate = %v, want %v", got.Rate, tt.wantRate)
			}
			if got.Amount.Amount != tt.wantAmount {
				t.Errorf("Amount = %d, want %d", got.Amount.Amount, tt.wantAmount)
			}
			if len(got.Benefits) == 0 {
				t.Error("every tier carries at least one benefit")
			}
			if got.Rate < commissionRateFloor {
				t.Errorf("Rate %v fell below the floor", got.Rate)
			}
		})
	}
}

func TestCalculateTieredCommissionUnknownTier(t *testing.T) {
	svc := newTestSplitService()
	_, err := svc.CalculateTieredCommission(domain.NewMoney(10000, "EUR"), CommissionTier("diamond"), domain.NewMoney(0, "EUR"))
	if !errors.Is(err, domain.ErrInvalidSplitConfiguration) {
		t.Errorf("err = %v, want ErrInvalidSplitConfiguration", err)
	}
}

func TestParseCommissionTier(t *testing.T) {
	for _, s := range []string{"bronze", "silver", "gold", "platinum"} {
		if _, err := ParseCommissionTier(s); err != nil {
			t.Errorf("ParseCommissionTier(%q): %v", s, err)
		}
	}
	if _, err := ParseCommissionTier("diamond"); err == nil {
		t.Error("expected error for unknown tier")
	}
}

func TestSplitAcrossParties(t *testing.T) {
	svc := newTestSplitService()

	splits, err := svc.SplitAcrossParties(domain.NewMoney(10000, "EUR"), []SplitParty{
		{ProviderID: "prov-1", Percentage: 60, Role: "primary"},
		{ProviderID: "prov-2", Percentage: 40, Role: "partner"},
	})
	if err != nil {
		t.Fatalf("SplitAcrossParties: %v", err)
	}
	if len(splits) != 2 {
		t.Fatalf("got %d splits, want 2", len(splits))
	}

	// 6000 share: platform 174, commission 750, net 5076.
	if splits[0].PlatformFee.Amount != 174 || splits[0].CommissionFee.Amount != 750 || splits[0].NetAmount.Amount != 5076 {
		t.Errorf("first split = %d/%d/%d, want 174/750/5076",
			splits[0].PlatformFee.Amount, splits[0].CommissionFee.Amount, splits[0].NetAmount.Amount)
	}

	var total int64
	for _, s := range splits {
		total += s.PlatformFee.Amount + s.CommissionFee.Amount + s.NetAmount.Amount
	}
	if total != 10000 {
		t.Errorf("shares sum to %d, want 10000", total)
	}
}

func TestSplitAcrossPartiesRoundingResidue(t *testing.T) {
	svc := newTestSplitService()

	splits, err := svc.SplitAcrossParties(domain.NewMoney(10001, "EUR"), []SplitParty{
		{ProviderID: "prov-1", Percentage: 33.33},
		{ProviderID: "prov-2", Percentage: 33.33},
		{ProviderID: "prov-3", Percentage: 33.34},
	})
	if err != nil {
		t.Fatalf("SplitAcrossParties: %v", err)
	}

	var total int64
	for _, s := range splits {
		total += s.PlatformFee.Amount + s.CommissionFee.Amount + s.NetAmount.Amount
	}
	if total != 10001 {
		t.Errorf("shares sum to %d, want 10001", total)
	}
}

func TestSplitAcrossPartiesRejectsBadPercentages(t *testing.T) {
	svc := newTestSplitService()
	base := domain.NewMoney(10000, "EUR")

	tests := []struct {
		name    string
		parties []SplitParty
	}{
		{"sum below 100", []SplitParty{{ProviderID: "a", Percentage: 60}, {ProviderID: "b", Percentage: 30}}},
		{"sum above 100", []SplitParty{{ProviderID: "a", Percentage: 60}, {ProviderID: "b", Percentage: 50}}},
		{"zero percentage", []SplitParty{{ProviderID: "a", Percentage: 0}, {ProviderID: "b", Percentage: 100}}},
		{"no parties", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.SplitAcrossParties(base, tt.parties)
			if !errors.Is(err, domain.ErrInvalidSplitConfiguration) {
				t.Errorf("err = %v, want ErrInvalidSplitConfiguration", err)
			}
		})
	}
}
