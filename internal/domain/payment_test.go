package domain

import "testing"

func TestIntentStatusTransitions(t *testing.T) {
	tests := []struct {
		from PaymentIntentStatus
		to   PaymentIntentStatus
		want bool
	}{
		{IntentPending, IntentProcessing, true},
		{IntentPending, IntentFailed, true},
		{IntentPending, IntentCancelled, true},
		{IntentPending, IntentCompleted, false},
		{IntentProcessing, IntentCompleted, true},
		{IntentProcessing, IntentPending, false},
		{IntentCompleted, IntentRefunded, true},
		{IntentCompleted, IntentPartiallyRefunded, true},
		{IntentCompleted, IntentProcessing, false},
		{IntentPartiallyRefunded, IntentRefunded, true},
		{IntentPartiallyRefunded, IntentPartiallyRefunded, true},
		{IntentFailed, IntentPending, false},
		{IntentCancelled, IntentProcessing, false},
		{IntentRefunded, IntentCompleted, false},
	}

	for _, tt := range tests {
		if got := tt.from.CanTransition(tt.to); got != tt.want {
			t.Errorf("CanTransition(%s -> %s) = %v, want %v", tt.from, tt.to, got, tt.want)
		}
	}
}

func TestIntentStatusTerminal(t *testing.T) {
	for _, s := range []PaymentIntentStatus{IntentFailed, IntentCancelled, IntentRefunded} {
		if !s.Terminal() {
			t.Errorf("%s should be terminal", s)
		}
	}
	for _, s := range []PaymentIntentStatus{IntentPending, IntentProcessing, IntentCompleted, IntentPartiallyRefunded} {
		if s.Terminal() {
			t.Errorf("%s should not be terminal", s)
		}
	}
}

func TestFeeStructureValidate(t *testing.T) {
	valid := FeeStructure{
		FamilyFee:                NewMoney(2500, "EUR"),
		ProviderCommissionRate:   0.125,
		MunicipalBurialReduction: 0.30,
		PlatformFeeRate:          0.029,
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("valid structure rejected: %v", err)
	}

	tests := []struct {
		name   string
		mutate func(*FeeStructure)
	}{
		{"commission below band", func(fs *FeeStructure) { fs.ProviderCommissionRate = 0.07 }},
		{"commission above band", func(fs *FeeStructure) { fs.ProviderCommissionRate = 0.16 }},
		{"negative reduction", func(fs *FeeStructure) { fs.MunicipalBurialReduction = -0.1 }},
		{"reduction of one", func(fs *FeeStructure) { fs.MunicipalBurialReduction = 1.0 }},
		{"negative platform rate", func(fs *FeeStructure) { fs.PlatformFeeRate = -0.01 }},
		{"negative family fee", func(fs *FeeStructure) { fs.FamilyFee = NewMoney(-1, "EUR") }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := valid
			tt.mutate(&fs)
			if err := fs.Validate(); err != ErrInvalidSplitConfiguration {
				t.Errorf("Validate() = %v, want ErrInvalidSplitConfiguration", err)
			}
		})
	}
}

func TestPaymentPurposeValid(t *testing.T) {
	for _, p := range []PaymentPurpose{PurposeFamilyFee, PurposeProviderCommission, PurposeMunicipalBurial, PurposeRegularService} {
		if !p.Valid() {
			t.Errorf("%s should be valid", p)
		}
	}
	if PaymentPurpose("donation").Valid() {
		t.Error("unknown purpose should be invalid")
	}
}
