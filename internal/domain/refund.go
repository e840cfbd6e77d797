package domain

import "time"

type RefundReason string

const (
	RefundDuplicateCharge     RefundReason = "duplicate_charge"
	RefundProcessingError     RefundReason = "processing_error"
	RefundSystemError         RefundReason = "system_error"
	RefundRequestedByCustomer RefundReason = "requested_by_customer"
	RefundQualityIssue        RefundReason = "quality_issue"
	RefundServiceNotProvided  RefundReason = "service_not_provided"
	RefundCancelledService    RefundReason = "cancelled_service"
	RefundDisputeResolution   RefundReason = "dispute_resolution"

	// Recognized reasons which are never refundable.
	RefundServiceCompleted  RefundReason = "service_completed"
	RefundPastTimeLimit     RefundReason = "past_time_limit"
	RefundFraudulentRequest RefundReason = "fraudulent_request"
)

var refundReasons = map[RefundReason]bool{
	RefundDuplicateCharge:     true,
	RefundProcessingError:     true,
	RefundSystemError:         true,
	RefundRequestedByCustomer: true,
	RefundQualityIssue:        true,
	RefundServiceNotProvided:  true,
	RefundCancelledService:    true,
	RefundDisputeResolution:   true,
	RefundServiceCompleted:    true,
	RefundPastTimeLimit:       true,
	RefundFraudulentRequest:   true,
}

var nonRefundableReasons = map[RefundReason]bool{
	RefundServiceCompleted:  true,
	RefundPastTimeLimit:     true,
	RefundFraudulentRequest: true,
}

// Automatic reasons are operator-verifiable facts and go straight to the
// rail. Everything else waits for an explicit approval. Dispute resolutions
// are automatic because resolving the dispute already carried human sign-off.
var automaticRefundReasons = map[RefundReason]bool{
	RefundDuplicateCharge:   true,
	RefundProcessingError:   true,
	RefundSystemError:       true,
	RefundDisputeResolution: true,
}

func (r RefundReason) Known() bool {
	return refundReasons[r]
}

func (r RefundReason) Refundable() bool {
	return !nonRefundableReasons[r]
}

func (r RefundReason) Automatic() bool {
	return automaticRefundReasons[r]
}

type RefundStatus string

const (
	RefundPending    RefundStatus = "pending"
	RefundProcessing RefundStatus = "processing"
	RefundCompleted  RefundStatus = "completed"
	RefundFailed     RefundStatus = "failed"
)

// RefundRequest references its PaymentIntent by identifier only; intents
// live independently of their refunds.
type RefundRequest struct {
	ID              string
	PaymentIntentID string
	Amount          Money
	Reason          RefundReason
	Description     string
	InitiatedBy     string
	ApprovedBy      *string
	Status          RefundStatus
	RailRef         *string
	CreatedAt       time.Time
	ProcessedAt     *time.Time
}
