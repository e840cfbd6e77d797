package clients

import (
	"context"
	"fmt"

	"uitvaartpay/internal/domain"
	ws "uitvaartpay/internal/transport/websocket"
)

// EventStreamChannel carries the full lifecycle event stream.
const EventStreamChannel = "events"

// EventStreamClient is an event sink that pushes lifecycle events to
// websocket subscribers, and the channel through which providers are
// notified about chargebacks raised against them.
type EventStreamClient struct {
	hub *ws.Hub
}

func NewEventStreamClient(hub *ws.Hub) *EventStreamClient {
	return &EventStreamClient{hub: hub}
}

func (c *EventStreamClient) Emit(ctx context.Context, evt domain.Event) {
	if c.hub == nil {
		return
	}

	c.hub.Broadcast(&ws.Message{
		Channel: EventStreamChannel,
		Type:    string(evt.Type),
		Data:    evt,
	})
}

// NotifyChargeback pushes a chargeback notice to the provider's own
// channel before any further automatic action is taken on the dispute.
func (c *EventStreamClient) NotifyChargeback(ctx context.Context, providerID string, dispute domain.DisputeCase) error {
	if c.hub == nil {
		return nil
	}

	c.hub.Broadcast(&ws.Message{
		Channel: ProviderChannel(providerID),
		Type:    "chargeback_notice",
		Data: map[string]interface{}{
			"dispute_id":        dispute.ID,
			"payment_intent_id": dispute.PaymentIntentID,
			"reason":            dispute.Reason,
			"status":            dispute.Status,
		},
	})
	return nil
}

func ProviderChannel(providerID string) string {
	return fmt.Sprintf("provider#%s", providerID)
}
