package models

import (
	"encoding/json"
	"time"
)

// Realtime event names, client to server.
const (
	EventAuthenticate      = "authenticate"
	EventJoinNeighborhood  = "joinNeighborhood"
	EventForumMessage      = "forumMessage"
	EventMarketplaceUpdate = "marketplaceUpdate"
	EventSafetyAlert       = "safetyAlert"
	EventPrivateMessage    = "privateMessage"
	EventGetOnlineUsers    = "getOnlineUsers"
)

// Realtime event names, server to client. marketplaceUpdate, safetyAlert and
// privateMessage keep their inbound names.
const (
	EventNewForumMessage = "newForumMessage"
	EventOnlineUsers     = "onlineUsers"
	EventUserOnline      = "userOnline"
	EventUserOffline     = "userOffline"
	EventError           = "error"
)

// InboundEvent is a frame received from a websocket client.
type InboundEvent struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// OutboundEvent is a frame pushed to websocket clients.
type OutboundEvent struct {
	Event string `json:"event"`
	Data  any    `json:"data,omitempty"`
}

// PrivateMessageEvent notifies a recipient of a direct message.
type PrivateMessageEvent struct {
	MessageID      string    `json:"messageId,omitempty"`
	ConversationID string    `json:"conversationId,omitempty"`
	SenderID       string    `json:"senderId"`
	SenderName     string    `json:"senderName"`
	Content        string    `json:"content"`
	CreatedAt      time.Time `json:"createdAt"`
}

// MarketplaceUpdateEvent tells a neighborhood that a listing changed.
type MarketplaceUpdateEvent struct {
	Action  string             `json:"action"`
	Listing MarketplaceListing `json:"listing"`
}
