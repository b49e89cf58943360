package ws

import (
	"encoding/json"
	"strings"

	"github.com/google/uuid"

	"neighborhub/internal/models"
)

func newConnID() string {
	return uuid.NewString()
}

func encodeEvent(event string, payload any) ([]byte, error) {
	return json.Marshal(models.OutboundEvent{Event: event, Data: payload})
}

// decodeID accepts either a bare JSON string or an object carrying field.
func decodeID(data json.RawMessage, field string) string {
	if len(data) == 0 {
		return ""
	}
	var id string
	if err := json.Unmarshal(data, &id); err == nil {
		return strings.TrimSpace(id)
	}
	var obj map[string]any
	if err := json.Unmarshal(data, &obj); err != nil {
		return ""
	}
	if v, ok := obj[field].(string); ok {
		return strings.TrimSpace(v)
	}
	return ""
}
