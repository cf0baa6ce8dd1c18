package events

import (
	"encoding/json"
	"strconv"
	"time"
)

// ProtocolVersion is bumped whenever the wire format changes
const ProtocolVersion = 1

// EventType indicates what kind of message an event carries
type EventType string

const (
	EventDatabaseChanged EventType = "db_changed"
	EventPing            EventType = "ping"
	EventPong            EventType = "pong"
)

// Message types on the wire
const (
	MessageEvent     = "event"
	MessageSubscribe = "subscribe"
	MessagePing      = "ping"
	MessagePong      = "pong"
)

// Event represents a change notification. ProjectID 0 means the change
// is not project scoped. Action names what happened
// using the webhook event names (e.g. "work_package:updated"); Payload is
// the JSON representation of the changed resource.
type Event struct {
	Type       EventType       `json:"type"`
	Action     string          `json:"action,omitempty"`
	ProjectID  int             `json:"project_id"`
	ResourceID int             `json:"resource_id,omitempty"`
	Payload    json.RawMessage `json:"payload,omitempty"`
	Timestamp  time.Time       `json:"timestamp"`
	SequenceID int64           `json:"sequence_id"` // assigned by the daemon
}

// key identifies the resource an event is about for coalescing
func (e Event) key() string {
	return e.Action + "/" + strconv.Itoa(e.ResourceID)
}

// SubscribeMessage is sent by clients to subscribe to specific project updates
type SubscribeMessage struct {
	ProjectID int `json:"project_id"` // 0 = all projects
}

// Message wraps events and control messages for the wire protocol
type Message struct {
	Version   int               `json:"version"`
	Type      string            `json:"type"`
	Event     *Event            `json:"event,omitempty"`
	Subscribe *SubscribeMessage `json:"subscribe,omitempty"`
}

// NewEvent builds a change event for action with payload marshalled to
// JSON. Marshal failures leave the payload empty.
func NewEvent(action string, projectID, resourceID int, payload any) Event {
	e := Event{
		Type:       EventDatabaseChanged,
		Action:     action,
		ProjectID:  projectID,
		ResourceID: resourceID,
		Timestamp:  time.Now(),
	}
	if payload != nil {
		if raw, err := json.Marshal(payload); err == nil {
			e.Payload = raw
		}
	}
	return e
}
