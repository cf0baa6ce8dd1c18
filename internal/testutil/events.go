package testutil

import (
	"context"
	"sync"

	"github.com/kianm04/OpenProjectEkster-sub016/internal/events"
)

// RecordingPublisher is an events.EventPublisher that records every sent
// event for verification in tests
type RecordingPublisher struct {
	mu         sync.Mutex
	SentEvents []events.Event

	// SendErr, when set, is returned by SendEvent instead of recording
	SendErr error
}

// NewRecordingPublisher creates an empty recorder
func NewRecordingPublisher() *RecordingPublisher {
	return &RecordingPublisher{}
}

// Connect is a no-op
func (m *RecordingPublisher) Connect(ctx context.Context) error { return nil }

// SendEvent records the event
func (m *RecordingPublisher) SendEvent(event events.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SendErr != nil {
		return m.SendErr
	}
	m.SentEvents = append(m.SentEvents, event)
	return nil
}

// Listen returns a closed channel
func (m *RecordingPublisher) Listen(ctx context.Context) (<-chan events.Event, error) {
	ch := make(chan events.Event)
	close(ch)
	return ch, nil
}

// Subscribe is a no-op
func (m *RecordingPublisher) Subscribe(projectID int) error { return nil }

// Close is a no-op
func (m *RecordingPublisher) Close() error { return nil }

// Actions returns the action of every recorded event in order
func (m *RecordingPublisher) Actions() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, len(m.SentEvents))
	for i, e := range m.SentEvents {
		out[i] = e.Action
	}
	return out
}

// EventsFor returns the recorded events with the given action
func (m *RecordingPublisher) EventsFor(action string) []events.Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []events.Event
	for _, e := range m.SentEvents {
		if e.Action == action {
			out = append(out, e)
		}
	}
	return out
}

// Reset clears all recorded events
func (m *RecordingPublisher) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SentEvents = nil
}

var _ events.EventPublisher = (*RecordingPublisher)(nil)
