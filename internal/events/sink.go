package events

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"uitvaartpay/internal/domain"
)

// Sink receives lifecycle events. Emitting is fire-and-forget: a sink that
// fails must log and swallow the error, never fail the operation that
// produced the event.
type Sink interface {
	Emit(ctx context.Context, evt domain.Event)
}

// New builds an event with a fresh identifier and a UTC timestamp.
func New(eventType domain.EventType, correlationID string, payload interface{}) domain.Event {
	return domain.Event{
		ID:            uuid.NewString(),
		Type:          eventType,
		CorrelationID: correlationID,
		OccurredAt:    time.Now().UTC(),
		Payload:       payload,
	}
}

// Fanout forwards every event to all configured sinks.
type Fanout []Sink

func (f Fanout) Emit(ctx context.Context, evt domain.Event) {
	for _, s := range f {
		s.Emit(ctx, evt)
	}
}

// MemorySink collects events in memory for tests and local runs.
type MemorySink struct {
	mu     sync.Mutex
	events []domain.Event
}

func NewMemorySink() *MemorySink {
	return &MemorySink{}
}

func (s *MemorySink) Emit(ctx context.Context, evt domain.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, evt)
}

func (s *MemorySink) Events() []domain.Event {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.Event, len(s.events))
	copy(out, s.events)
	return out
}
