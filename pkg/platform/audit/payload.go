package audit

import (
	"encoding/json"
	"time"
)

// outboxPayload is the JSON structure published to Kafka.
type outboxPayload struct {
	ID            string         `json:"id"`
	Category      string         `json:"categoria"`
	Timestamp     string         `json:"fecha"`
	Action        string         `json:"accion"`
	AggregateType string         `json:"entidad"`
	AggregateID   string         `json:"entidad_id"`
	UserID        int64          `json:"usuario_id,omitempty"`
	Subject       string         `json:"sujeto,omitempty"`
	RequestID     string         `json:"request_id,omitempty"`
	ClientIP      string         `json:"ip,omitempty"`
	UserAgent     string         `json:"user_agent,omitempty"`
	Details       map[string]any `json:"detalles,omitempty"`
}

// MarshalPayload renders an event as the outbox payload.
func MarshalPayload(event Event) ([]byte, error) {
	payload := outboxPayload{
		ID:            event.ID,
		Category:      string(event.Category),
		Timestamp:     event.Timestamp.UTC().Format(time.RFC3339Nano),
		Action:        event.Action,
		AggregateType: event.AggregateType,
		AggregateID:   event.AggregateID,
		UserID:        event.UserID,
		Subject:       event.Subject,
		RequestID:     event.RequestID,
		ClientIP:      event.ClientIP,
		UserAgent:     event.UserAgent,
		Details:       event.Details,
	}
	return json.Marshal(payload)
}
