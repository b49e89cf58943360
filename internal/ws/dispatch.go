package ws

import (
	"encoding/json"
	"strings"
	"time"

	"neighborhub/internal/models"
)

type scopedPayload struct {
	NeighborhoodID string `json:"neighborhoodId"`
}

type privateMessagePayload struct {
	RecipientID string `json:"recipientId"`
	Content     string `json:"content"`
}

// Dispatch handles one inbound frame from c.
func (h *Hub) Dispatch(c *Client, in models.InboundEvent) {
	switch in.Event {
	case models.EventAuthenticate:
		userID := decodeID(in.Data, "userId")
		if userID == "" {
			userID = c.info.UserID
		}
		if userID != c.info.UserID {
			h.sendError(c, in.Event, "identity does not match token")
			return
		}
		h.Authenticate(c, userID)

	case models.EventJoinNeighborhood:
		neighborhoodID := decodeID(in.Data, "neighborhoodId")
		if neighborhoodID == "" {
			h.sendError(c, in.Event, "neighborhoodId is required")
			return
		}
		h.JoinNeighborhood(c, neighborhoodID)

	case models.EventForumMessage, models.EventMarketplaceUpdate, models.EventSafetyAlert:
		var scoped scopedPayload
		if err := json.Unmarshal(in.Data, &scoped); err != nil || scoped.NeighborhoodID == "" {
			h.sendError(c, in.Event, "neighborhoodId is required")
			return
		}
		h.BroadcastToNeighborhood(scoped.NeighborhoodID, outboundName(in.Event), in.Data)

	case models.EventPrivateMessage:
		var msg privateMessagePayload
		if err := json.Unmarshal(in.Data, &msg); err != nil {
			h.sendError(c, in.Event, "malformed payload")
			return
		}
		msg.Content = strings.TrimSpace(msg.Content)
		if msg.RecipientID == "" || msg.Content == "" {
			h.sendError(c, in.Event, "recipientId and content are required")
			return
		}
		h.SendToUser(msg.RecipientID, models.EventPrivateMessage, models.PrivateMessageEvent{
			SenderID:   c.info.UserID,
			SenderName: c.info.DisplayName,
			Content:    msg.Content,
			CreatedAt:  time.Now().UTC(),
		})

	case models.EventGetOnlineUsers:
		h.deliver(c, models.EventOnlineUsers, h.OnlineUsers())

	default:
		h.sendError(c, in.Event, "unknown event")
	}
}

func (h *Hub) sendError(c *Client, event, message string) {
	h.deliver(c, models.EventError, map[string]string{"event": event, "message": message})
}

func outboundName(event string) string {
	if event == models.EventForumMessage {
		return models.EventNewForumMessage
	}
	return event
}
