package events

import (
	"context"
	"encoding/json"
	"log"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill-amqp/pkg/amqp"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"

	"uitvaartpay/internal/domain"
)

// PublisherSink pushes events onto a watermill publisher, one topic for the
// whole engine. Downstream analytics and notification consumers subscribe
// there; publish failures are logged and dropped.
type PublisherSink struct {
	publisher message.Publisher
	topic     string
}

func NewPublisherSink(publisher message.Publisher, topic string) *PublisherSink {
	return &PublisherSink{publisher: publisher, topic: topic}
}

// NewAMQPPublisher connects a durable-queue AMQP publisher for the sink.
func NewAMQPPublisher(uri string) (message.Publisher, error) {
	logger := watermill.NewStdLogger(false, false)
	return amqp.NewPublisher(amqp.NewDurableQueueConfig(uri), logger)
}

func (s *PublisherSink) Emit(ctx context.Context, evt domain.Event) {
	payload, err := json.Marshal(evt)
	if err != nil {
		log.Printf("[events] marshal %s event %s: %v", evt.Type, evt.ID, err)
		return
	}

	msg := message.NewMessage(evt.ID, payload)
	msg.Metadata.Set("event_type", string(evt.Type))
	if evt.CorrelationID != "" {
		middleware.SetCorrelationID(evt.CorrelationID, msg)
	}

	if err := s.publisher.Publish(s.topic, msg); err != nil {
		log.Printf("[events] publish %s event %s: %v", evt.Type, evt.ID, err)
	}
}

func (s *PublisherSink) Close() error {
	return s.publisher.Close()
}
