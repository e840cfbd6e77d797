package domain

import "time"

type PaymentPurpose string

const (
	PurposeFamilyFee          PaymentPurpose = "family_fee"
	PurposeProviderCommission PaymentPurpose = "provider_commission"
	PurposeMunicipalBurial    PaymentPurpose = "municipal_burial"
	PurposeRegularService     PaymentPurpose = "regular_service"
)

func (p PaymentPurpose) Valid() bool {
	switch p {
	case PurposeFamilyFee, PurposeProviderCommission, PurposeMunicipalBurial, PurposeRegularService:
		return true
	}
	return false
}

type RailName string

const (
	RailStripe       RailName = "stripe"
	RailBankTransfer RailName = "bank_transfer"
)

func (r RailName) Valid() bool {
	return r == RailStripe || r == RailBankTransfer
}

// FeeStructure is the fee configuration for a single calculation. It is
// passed by value and never mutated; a per-request override is merged onto
// the defaults before use.
type FeeStructure struct {
	FamilyFee                Money
	ProviderCommissionRate   float64
	MunicipalBurialReduction float64
	PlatformFeeRate          float64
}

const (
	minCommissionRate = 0.08
	maxCommissionRate = 0.15
)

func (fs FeeStructure) Validate() error {
	if fs.ProviderCommissionRate < minCommissionRate || fs.ProviderCommissionRate > maxCommissionRate {
		return ErrInvalidSplitConfiguration
	}
	if fs.MunicipalBurialReduction < 0 || fs.MunicipalBurialReduction >= 1 {
		return ErrInvalidSplitConfiguration
	}
	if fs.PlatformFeeRate < 0 || fs.PlatformFeeRate >= 1 {
		return ErrInvalidSplitConfiguration
	}
	if fs.FamilyFee.Amount < 0 {
		return ErrInvalidSplitConfiguration
	}
	return nil
}

// PaymentSplit is the apportionment of one gross payment. ProviderAmount
// always equals NetAmount; the adjusted base equals
// PlatformFee + CommissionFee + NetAmount exactly.
type PaymentSplit struct {
	ProviderID     string `json:"provider_id"`
	ProviderAmount Money  `json:"provider_amount"`
	PlatformFee    Money  `json:"platform_fee"`
	CommissionFee  Money  `json:"commission_fee"`
	NetAmount      Money  `json:"net_amount"`
}

type PaymentIntentStatus string

const (
	IntentPending           PaymentIntentStatus = "pending"
	IntentProcessing        PaymentIntentStatus = "processing"
	IntentCompleted         PaymentIntentStatus = "completed"
	IntentFailed            PaymentIntentStatus = "failed"
	IntentCancelled         PaymentIntentStatus = "cancelled"
	IntentRefunded          PaymentIntentStatus = "refunded"
	IntentPartiallyRefunded PaymentIntentStatus = "partially_refunded"
)

var intentTransitions = map[PaymentIntentStatus][]PaymentIntentStatus{
	IntentPending:           {IntentProcessing, IntentFailed, IntentCancelled},
	IntentProcessing:        {IntentCompleted, IntentFailed, IntentCancelled},
	IntentCompleted:         {IntentRefunded, IntentPartiallyRefunded},
	IntentPartiallyRefunded: {IntentRefunded, IntentPartiallyRefunded},
}

// CanTransition reports whether the status machine allows from -> to.
// No transition skips pending; only completed charges can move into the
// refunded states.
func (s PaymentIntentStatus) CanTransition(to PaymentIntentStatus) bool {
	for _, next := range intentTransitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

func (s PaymentIntentStatus) Terminal() bool {
	return len(intentTransitions[s]) == 0
}

// PaymentIntent identifies one charge attempt on a rail. Status transitions
// are append-only; a re-split supersedes the embedded split rather than
// mutating it.
type PaymentIntent struct {
	ID          string
	Rail        RailName
	RailRef     string
	Amount      Money
	Purpose     PaymentPurpose
	CustomerID  string
	ProviderID  string
	Description string
	Status      PaymentIntentStatus
	Split       *PaymentSplit

	// Version guards concurrent status updates; every write bumps it.
	Version int

	CreatedAt time.Time
	UpdatedAt time.Time
}
