package events

import (
	"encoding/json"
	"fmt"
	"time"
)

// Envelope is the wire form shared by every transport.
type Envelope struct {
	Type       string                 `json:"type"`
	Data       map[string]interface{} `json:"data"`
	OccurredAt time.Time              `json:"occurred_at"`
}

func Encode(event Event) ([]byte, error) {
	occurredAt := event.Timestamp()
	if occurredAt.IsZero() {
		occurredAt = time.Now()
	}
	data, err := json.Marshal(Envelope{
		Type:       event.EventType(),
		Data:       event.Payload(),
		OccurredAt: occurredAt.UTC(),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal event %s: %w", event.EventType(), err)
	}
	return data, nil
}

func Decode(data []byte) (BaseEvent, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return BaseEvent{}, fmt.Errorf("failed to unmarshal event: %w", err)
	}
	if env.Type == "" {
		return BaseEvent{}, fmt.Errorf("event without type")
	}
	if env.Data == nil {
		env.Data = map[string]interface{}{}
	}
	return BaseEvent{Type: env.Type, Data: env.Data, OccurredAt: env.OccurredAt}, nil
}

// Subject is the NATS subject an event type is published on.
func Subject(eventType string) string {
	return "events." + eventType
}
