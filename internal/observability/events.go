package observability

import "time"

// EventEnvelope wraps every non-audit event published on the bus.
type EventEnvelope struct {
	EventType  string `json:"event_type"`
	EventName  string `json:"event_name"`
	Service    string `json:"service"`
	OccurredAt string `json:"occurred_at"`
	Payload    any    `json:"payload"`
}

// NewEvent stamps an envelope for the neighborhub service.
func NewEvent(eventType, name string, payload any) EventEnvelope {
	return EventEnvelope{
		EventType:  eventType,
		EventName:  name,
		Service:    "neighborhub",
		OccurredAt: time.Now().UTC().Format(time.RFC3339Nano),
		Payload:    payload,
	}
}

// BuildHeaders returns the correlation headers for a published event.
func BuildHeaders(requestID, traceID string) map[string]string {
	headers := make(map[string]string, 2)
	if requestID != "" {
		headers["x-request-id"] = requestID
	}
	if traceID != "" {
		headers["trace_id"] = traceID
	}
	return headers
}
