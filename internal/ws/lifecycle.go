package ws

import (
	"context"
	"time"

	"neighborhub/internal/observability"
)

const (
	wsKind       = "realtime"
	wsRoutingKey = "ws_events.presence"
)

// publishLifecycle reports a connection event to the event bus and metrics.
func publishLifecycle(ctx context.Context, event string, info ConnInfo, reason string) {
	wsPayload := map[string]interface{}{
		"kind":        wsKind,
		"event":       event,
		"conn_id":     info.ConnID,
		"duration_ms": time.Since(info.ConnectedAt).Milliseconds(),
	}
	if info.NeighborhoodID != "" {
		wsPayload["neighborhood_id"] = info.NeighborhoodID
	}
	if reason != "" {
		wsPayload["reason"] = reason
	}

	payload := map[string]interface{}{
		"ws": wsPayload,
		"identity": map[string]interface{}{
			"user_id":   info.UserID,
			"device_id": info.DeviceID,
			"ip":        info.IP,
		},
	}

	headers := observability.BuildHeaders(info.RequestID, info.TraceID)
	_ = observability.PublishEvent(ctx, wsRoutingKey, observability.NewEvent("ws_events", event, payload), headers)
	observability.IncWSEvent(wsKind, event)
}
