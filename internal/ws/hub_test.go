package ws

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"neighborhub/internal/models"
)

type frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

func newTestClient(userID, displayName string, buffer int) *Client {
	return NewClient(nil, ConnInfo{UserID: userID, DisplayName: displayName, ConnectedAt: time.Now()}, buffer)
}

func nextFrame(t *testing.T, c *Client) frame {
	t.Helper()
	select {
	case payload := <-c.send:
		var f frame
		require.NoError(t, json.Unmarshal(payload, &f))
		return f
	case <-time.After(time.Second):
		t.Fatalf("no frame for conn %s", c.ID())
		return frame{}
	}
}

func assertNoFrame(t *testing.T, c *Client) {
	t.Helper()
	select {
	case payload := <-c.send:
		t.Fatalf("unexpected frame for conn %s: %s", c.ID(), payload)
	default:
	}
}

func drain(c *Client) {
	for {
		select {
		case <-c.send:
		default:
			return
		}
	}
}

func connect(h *Hub, c *Client) {
	h.Register(c)
	h.Authenticate(c, c.info.UserID)
}

func TestBroadcastScopedToNeighborhood(t *testing.T) {
	h := NewHub(nil)
	a := newTestClient("a", "Ann", 8)
	b := newTestClient("b", "Ben", 8)
	c := newTestClient("c", "Cat", 8)
	for _, cl := range []*Client{a, b, c} {
		connect(h, cl)
	}
	h.JoinNeighborhood(a, "n1")
	h.JoinNeighborhood(b, "n1")
	h.JoinNeighborhood(c, "n2")
	drain(a)
	drain(b)
	drain(c)

	n := h.BroadcastToNeighborhood("n1", models.EventSafetyAlert, map[string]string{"title": "fire"})
	assert.Equal(t, 2, n)

	assert.Equal(t, models.EventSafetyAlert, nextFrame(t, a).Event)
	assert.Equal(t, models.EventSafetyAlert, nextFrame(t, b).Event)
	assertNoFrame(t, c)
}

func TestBroadcastUnknownRoomIsNoop(t *testing.T) {
	h := NewHub(nil)
	assert.Equal(t, 0, h.BroadcastToNeighborhood("missing", models.EventSafetyAlert, nil))
}

func TestJoinIsAdditive(t *testing.T) {
	h := NewHub(nil)
	a := newTestClient("a", "Ann", 8)
	connect(h, a)
	h.JoinNeighborhood(a, "n1")
	h.JoinNeighborhood(a, "n2")
	h.JoinNeighborhood(a, "n1")

	assert.Equal(t, []string{"n1", "n2"}, h.Rooms(a))
	assert.Equal(t, 1, h.BroadcastToNeighborhood("n2", models.EventMarketplaceUpdate, nil))
}

func TestSendToUserOfflineReturnsFalse(t *testing.T) {
	h := NewHub(nil)
	assert.False(t, h.SendToUser("nobody", models.EventPrivateMessage, nil))
}

func TestSendToUserFullBufferDoesNotBlock(t *testing.T) {
	h := NewHub(nil)
	a := newTestClient("a", "Ann", 1)
	connect(h, a)

	assert.True(t, h.SendToUser("a", models.EventPrivateMessage, "first"))

	done := make(chan bool, 1)
	go func() { done <- h.SendToUser("a", models.EventPrivateMessage, "second") }()
	select {
	case ok := <-done:
		assert.False(t, ok)
	case <-time.After(time.Second):
		t.Fatal("SendToUser blocked on a full buffer")
	}
}

func TestSecondConnectionOverwritesPresence(t *testing.T) {
	h := NewHub(nil)
	first := newTestClient("a", "Ann", 8)
	second := newTestClient("a", "Ann", 8)
	connect(h, first)
	connect(h, second)
	drain(first)

	require.True(t, h.SendToUser("a", models.EventPrivateMessage, "hi"))
	assert.Equal(t, models.EventPrivateMessage, nextFrame(t, second).Event)
	assertNoFrame(t, first)

	h.Disconnect(first)
	assert.True(t, h.IsOnline("a"))

	h.Disconnect(second)
	assert.False(t, h.IsOnline("a"))
}

func TestDisconnectBroadcastsOffline(t *testing.T) {
	h := NewHub(nil)
	a := newTestClient("a", "Ann", 8)
	b := newTestClient("b", "Ben", 8)
	connect(h, a)
	connect(h, b)
	h.JoinNeighborhood(a, "n1")
	drain(a)
	drain(b)

	h.Disconnect(a)

	f := nextFrame(t, b)
	assert.Equal(t, models.EventUserOffline, f.Event)
	assert.JSONEq(t, `"a"`, string(f.Data))
	assert.Equal(t, 0, h.BroadcastToNeighborhood("n1", models.EventSafetyAlert, nil))
	assert.Equal(t, []string{"b"}, h.OnlineUsers())
	assert.False(t, h.IsOnline("a"))
	assert.False(t, a.enqueue([]byte("late")))
}

func TestDispatchAuthenticateMismatch(t *testing.T) {
	h := NewHub(nil)
	a := newTestClient("a", "Ann", 8)
	h.Register(a)

	h.Dispatch(a, models.InboundEvent{Event: models.EventAuthenticate, Data: json.RawMessage(`"someone-else"`)})

	assert.Equal(t, models.EventError, nextFrame(t, a).Event)
	assert.False(t, h.IsOnline("a"))
}

func TestDispatchAuthenticateObjectForm(t *testing.T) {
	h := NewHub(nil)
	a := newTestClient("a", "Ann", 8)
	h.Register(a)

	h.Dispatch(a, models.InboundEvent{Event: models.EventAuthenticate, Data: json.RawMessage(`{"userId":"a"}`)})
	assert.True(t, h.IsOnline("a"))
}

func TestDispatchForumMessageRenamed(t *testing.T) {
	h := NewHub(nil)
	a := newTestClient("a", "Ann", 8)
	b := newTestClient("b", "Ben", 8)
	connect(h, a)
	connect(h, b)
	h.Dispatch(a, models.InboundEvent{Event: models.EventJoinNeighborhood, Data: json.RawMessage(`"n1"`)})
	h.Dispatch(b, models.InboundEvent{Event: models.EventJoinNeighborhood, Data: json.RawMessage(`{"neighborhoodId":"n1"}`)})
	drain(a)
	drain(b)

	h.Dispatch(a, models.InboundEvent{Event: models.EventForumMessage, Data: json.RawMessage(`{"neighborhoodId":"n1","title":"hello"}`)})

	f := nextFrame(t, b)
	assert.Equal(t, models.EventNewForumMessage, f.Event)
	assert.JSONEq(t, `{"neighborhoodId":"n1","title":"hello"}`, string(f.Data))
	assert.Equal(t, models.EventNewForumMessage, nextFrame(t, a).Event)
}

func TestDispatchPrivateMessage(t *testing.T) {
	h := NewHub(nil)
	a := newTestClient("a", "Ann Lee", 8)
	b := newTestClient("b", "Ben", 8)
	connect(h, a)
	connect(h, b)
	drain(b)

	h.Dispatch(a, models.InboundEvent{Event: models.EventPrivateMessage, Data: json.RawMessage(`{"recipientId":"b","content":" hi "}`)})

	f := nextFrame(t, b)
	require.Equal(t, models.EventPrivateMessage, f.Event)
	var evt models.PrivateMessageEvent
	require.NoError(t, json.Unmarshal(f.Data, &evt))
	assert.Equal(t, "a", evt.SenderID)
	assert.Equal(t, "Ann Lee", evt.SenderName)
	assert.Equal(t, "hi", evt.Content)
}

func TestDispatchGetOnlineUsers(t *testing.T) {
	h := NewHub(nil)
	a := newTestClient("a", "Ann", 8)
	b := newTestClient("b", "Ben", 8)
	connect(h, a)
	connect(h, b)
	drain(a)

	h.Dispatch(a, models.InboundEvent{Event: models.EventGetOnlineUsers})

	f := nextFrame(t, a)
	assert.Equal(t, models.EventOnlineUsers, f.Event)
	assert.JSONEq(t, `["a","b"]`, string(f.Data))
}

func TestDispatchUnknownEvent(t *testing.T) {
	h := NewHub(nil)
	a := newTestClient("a", "Ann", 8)
	h.Register(a)

	h.Dispatch(a, models.InboundEvent{Event: "teleport"})

	f := nextFrame(t, a)
	assert.Equal(t, models.EventError, f.Event)
	assert.Contains(t, string(f.Data), "unknown event")
}
