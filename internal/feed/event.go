package feed

import (
	"encoding/json"
	"fmt"
)

// Wire tags for change events.
const (
	KindInserted = "message_inserted"
	KindUpdated  = "message_updated"
	KindDeleted  = "message_deleted"
)

// An Event is one change to the message table, decoded into a closed set of
// variants before it reaches the reconciler.
type Event interface {
	Kind() string
}

type Inserted struct {
	Message Message
}

type Updated struct {
	Message Message
}

type Deleted struct {
	ID int64
}

func (Inserted) Kind() string { return KindInserted }
func (Updated) Kind() string  { return KindUpdated }
func (Deleted) Kind() string  { return KindDeleted }

type wireEvent struct {
	Type    string   `json:"type"`
	Message *Message `json:"message,omitempty"`
	ID      int64    `json:"id,omitempty"`
}

// EncodeEvent renders an event in its wire form.
func EncodeEvent(ev Event) ([]byte, error) {
	var w wireEvent
	switch e := ev.(type) {
	case Inserted:
		w = wireEvent{Type: KindInserted, Message: &e.Message}
	case Updated:
		w = wireEvent{Type: KindUpdated, Message: &e.Message}
	case Deleted:
		w = wireEvent{Type: KindDeleted, ID: e.ID}
	default:
		return nil, fmt.Errorf("feed: unknown event type %T", ev)
	}
	return json.Marshal(w)
}

// DecodeEvent parses and validates a wire payload. Payloads with a missing
// message body or a zero identifier are rejected here so the reconciler only
// ever sees well-formed events.
func DecodeEvent(data []byte) (Event, error) {
	var w wireEvent
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("feed: decode event: %w", err)
	}
	switch w.Type {
	case KindInserted, KindUpdated:
		if w.Message == nil {
			return nil, fmt.Errorf("feed: %s event without message", w.Type)
		}
		if w.Message.ID == 0 {
			return nil, fmt.Errorf("feed: %s event with zero message id", w.Type)
		}
		if w.Type == KindInserted {
			return Inserted{Message: *w.Message}, nil
		}
		return Updated{Message: *w.Message}, nil
	case KindDeleted:
		if w.ID == 0 {
			return nil, fmt.Errorf("feed: delete event with zero id")
		}
		return Deleted{ID: w.ID}, nil
	default:
		return nil, fmt.Errorf("feed: unknown event kind %q", w.Type)
	}
}
