package domain

import "time"

type DisputeStatus string

const (
	DisputeSubmitted   DisputeStatus = "submitted"
	DisputeUnderReview DisputeStatus = "under_review"
	DisputeEscalated   DisputeStatus = "escalated"
	DisputeResolved    DisputeStatus = "resolved"
)

var disputeTransitions = map[DisputeStatus][]DisputeStatus{
	DisputeSubmitted:   {DisputeUnderReview, DisputeEscalated},
	DisputeUnderReview: {DisputeResolved, DisputeEscalated},
	DisputeEscalated:   {DisputeResolved},
}

// CanTransition reports whether the dispute lifecycle allows from -> to.
// Nothing leaves resolved.
func (s DisputeStatus) CanTransition(to DisputeStatus) bool {
	for _, next := range disputeTransitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

func (s DisputeStatus) Open() bool {
	return s != DisputeResolved
}

type DisputePriority string

const (
	PriorityLow    DisputePriority = "low"
	PriorityNormal DisputePriority = "normal"
	PriorityHigh   DisputePriority = "high"
	PriorityUrgent DisputePriority = "urgent"
)

func (p DisputePriority) Valid() bool {
	switch p {
	case PriorityLow, PriorityNormal, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

// DisputeCase tracks one disagreement over a charge, including chargebacks
// ingested from a rail. At most one open case may exist per PaymentIntent.
type DisputeCase struct {
	ID              string
	PaymentIntentID string
	CustomerID      string
	ProviderID      string
	Reason          string
	Description     string
	Evidence        []string
	Priority        DisputePriority
	Status          DisputeStatus
	Resolution      *string
	ResolvedBy      *string
	CreatedAt       time.Time
	ResolvedAt      *time.Time
}
