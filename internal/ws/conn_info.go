package ws

import "time"

// ConnInfo describes the identity and origin of one websocket connection.
type ConnInfo struct {
	ConnID         string
	UserID         string
	NeighborhoodID string
	DisplayName    string
	DeviceID       string
	IP             string
	RequestID      string
	TraceID        string
	ConnectedAt    time.Time
}
