package domain

import "time"

type EventType string

const (
	EventSplitComputed      EventType = "split_computed"
	EventRefundCreated      EventType = "refund_created"
	EventRefundApproved     EventType = "refund_approved"
	EventDisputeCreated     EventType = "dispute_created"
	EventDisputeResolved    EventType = "dispute_resolved"
	EventChargebackReceived EventType = "chargeback_received"
)

// Event is one lifecycle notification for the downstream sink. Payload is
// a snapshot of the relevant entity at emit time.
type Event struct {
	ID            string      `json:"id"`
	Type          EventType   `json:"type"`
	CorrelationID string      `json:"correlation_id,omitempty"`
	OccurredAt    time.Time   `json:"occurred_at"`
	Payload       interface{} `json:"payload"`
}
