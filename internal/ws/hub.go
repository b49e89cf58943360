package ws

import (
	"log"
	"sort"
	"sync"

	"neighborhub/internal/models"
	"neighborhub/internal/observability"
)

// Hub tracks live connections, the presence table and neighborhood rooms.
// All deliveries are non-blocking; a slow client loses frames instead of
// stalling the sender.
type Hub struct {
	presence Presence
	clients  map[string]*Client
	rooms    map[string]map[string]*Client
	mu       sync.RWMutex
}

// NewHub creates an empty hub backed by presence.
func NewHub(presence Presence) *Hub {
	if presence == nil {
		presence = NewMemoryPresence()
	}
	return &Hub{
		presence: presence,
		clients:  make(map[string]*Client),
		rooms:    make(map[string]map[string]*Client),
	}
}

// Register adds a freshly upgraded connection. It is not yet online.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	h.clients[c.ID()] = c
	h.mu.Unlock()
}

// Authenticate marks userID online through c. A previous connection of the
// same user stays open but is no longer reachable by SendToUser.
func (h *Hub) Authenticate(c *Client, userID string) {
	h.mu.Lock()
	c.userID = userID
	h.mu.Unlock()

	previous, replaced := h.presence.Register(userID, c.ID())
	if replaced {
		log.Printf("presence overwritten: user_id=%s previous_conn=%s conn_id=%s", userID, previous, c.ID())
	}
	observability.SetOnlineUsers(len(h.presence.Snapshot()))
	h.broadcastExcept(c.ID(), models.EventUserOnline, userID)
}

// JoinNeighborhood subscribes c to the room of neighborhoodID. Joining is additive.
func (h *Hub) JoinNeighborhood(c *Client, neighborhoodID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	room, ok := h.rooms[neighborhoodID]
	if !ok {
		room = make(map[string]*Client)
		h.rooms[neighborhoodID] = room
	}
	room[c.ID()] = c
	c.rooms[neighborhoodID] = struct{}{}
}

// Disconnect drops c from every room and, if it still represents its user,
// from the presence table.
func (h *Hub) Disconnect(c *Client) {
	h.mu.Lock()
	delete(h.clients, c.ID())
	for neighborhoodID := range c.rooms {
		if room, ok := h.rooms[neighborhoodID]; ok {
			delete(room, c.ID())
			if len(room) == 0 {
				delete(h.rooms, neighborhoodID)
			}
		}
	}
	c.rooms = make(map[string]struct{})
	userID := c.userID
	h.mu.Unlock()

	c.Close()

	if userID != "" && h.presence.Unregister(userID, c.ID()) {
		observability.SetOnlineUsers(len(h.presence.Snapshot()))
		h.broadcastExcept(c.ID(), models.EventUserOffline, userID)
	}
}

// BroadcastToNeighborhood pushes event to every connection in the room and
// returns how many frames were queued. Unknown rooms are a no-op.
func (h *Hub) BroadcastToNeighborhood(neighborhoodID, event string, payload any) int {
	h.mu.RLock()
	room := h.rooms[neighborhoodID]
	targets := make([]*Client, 0, len(room))
	for _, c := range room {
		targets = append(targets, c)
	}
	h.mu.RUnlock()

	if len(targets) == 0 {
		return 0
	}
	frame, err := encodeEvent(event, payload)
	if err != nil {
		log.Printf("realtime encode failed: event=%s err=%v", event, err)
		return 0
	}

	delivered := 0
	for _, c := range targets {
		if h.deliverFrame(c, event, frame) {
			delivered++
		}
	}
	return delivered
}

// SendToUser pushes event to the connection currently registered for userID.
// It returns false when the user is offline or the frame was dropped.
func (h *Hub) SendToUser(userID, event string, payload any) bool {
	connID, ok := h.presence.Lookup(userID)
	if !ok {
		return false
	}

	h.mu.RLock()
	c, ok := h.clients[connID]
	h.mu.RUnlock()
	if !ok {
		return false
	}
	return h.deliver(c, event, payload)
}

// IsOnline reports whether userID has a registered connection.
func (h *Hub) IsOnline(userID string) bool {
	_, ok := h.presence.Lookup(userID)
	return ok
}

// OnlineUsers returns the ids of all online users.
func (h *Hub) OnlineUsers() []string {
	return h.presence.Snapshot()
}

// Rooms lists the neighborhoods c has joined.
func (h *Hub) Rooms(c *Client) []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	rooms := make([]string, 0, len(c.rooms))
	for id := range c.rooms {
		rooms = append(rooms, id)
	}
	sort.Strings(rooms)
	return rooms
}

func (h *Hub) broadcastExcept(skipConnID, event string, payload any) {
	h.mu.RLock()
	targets := make([]*Client, 0, len(h.clients))
	for id, c := range h.clients {
		if id != skipConnID {
			targets = append(targets, c)
		}
	}
	h.mu.RUnlock()

	if len(targets) == 0 {
		return
	}
	frame, err := encodeEvent(event, payload)
	if err != nil {
		return
	}
	for _, c := range targets {
		h.deliverFrame(c, event, frame)
	}
}

func (h *Hub) deliver(c *Client, event string, payload any) bool {
	frame, err := encodeEvent(event, payload)
	if err != nil {
		log.Printf("realtime encode failed: event=%s err=%v", event, err)
		return false
	}
	return h.deliverFrame(c, event, frame)
}

func (h *Hub) deliverFrame(c *Client, event string, frame []byte) bool {
	if c.enqueue(frame) {
		observability.IncRealtimeDelivery(event, "delivered")
		return true
	}
	observability.IncRealtimeDelivery(event, "dropped")
	log.Printf("realtime frame dropped: event=%s conn_id=%s", event, c.ID())
	return false
}
