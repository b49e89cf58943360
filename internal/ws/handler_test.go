package ws

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"neighborhub/internal/apperr"
	"neighborhub/internal/auth"
	"neighborhub/internal/models"
)

type staticVerifier map[string]string

func (v staticVerifier) Verify(token string) (*auth.Claims, error) {
	userID, ok := v[token]
	if !ok {
		return nil, apperr.ErrUnauthenticated
	}
	return &auth.Claims{UserID: userID, NeighborhoodID: "n1"}, nil
}

type staticUsers map[string]models.User

func (u staticUsers) GetByID(_ context.Context, id string) (models.User, error) {
	user, ok := u[id]
	if !ok {
		return models.User{}, apperr.ErrNotFound
	}
	return user, nil
}

func newTestServer(t *testing.T) (*httptest.Server, *Hub) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	hub := NewHub(nil)
	handler := NewHandler(hub,
		staticVerifier{"good": "u1", "ghost": "u404"},
		staticUsers{"u1": {ID: "u1", FirstName: "Ann", LastName: "Lee", NeighborhoodID: "n1"}},
		8,
	)
	r := gin.New()
	r.GET("/ws", handler.Handle)
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv, hub
}

func wsURL(srv *httptest.Server, query string) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws" + query
}

func TestHandshakeRejectsMissingToken(t *testing.T) {
	srv, _ := newTestServer(t)

	_, resp, err := websocket.DefaultDialer.Dial(wsURL(srv, ""), nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestHandshakeRejectsInvalidToken(t *testing.T) {
	srv, _ := newTestServer(t)

	_, resp, err := websocket.DefaultDialer.Dial(wsURL(srv, "?token=bad"), nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestHandshakeRejectsUnknownUser(t *testing.T) {
	srv, _ := newTestServer(t)

	_, resp, err := websocket.DefaultDialer.Dial(wsURL(srv, "?token=ghost"), nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestHandshakeAuthenticateAndListOnline(t *testing.T) {
	srv, hub := newTestServer(t)

	header := http.Header{}
	header.Set("Authorization", "Bearer good")
	conn, _, err := websocket.DefaultDialer.Dial(wsURL(srv, ""), header)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.WriteJSON(map[string]any{"event": "authenticate", "data": "u1"}))
	require.NoError(t, conn.WriteJSON(map[string]any{"event": "getOnlineUsers"}))

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var reply struct {
		Event string   `json:"event"`
		Data  []string `json:"data"`
	}
	require.NoError(t, conn.ReadJSON(&reply))
	assert.Equal(t, models.EventOnlineUsers, reply.Event)
	assert.Equal(t, []string{"u1"}, reply.Data)
	assert.True(t, hub.IsOnline("u1"))

	require.NoError(t, conn.Close())
	assert.Eventually(t, func() bool { return !hub.IsOnline("u1") }, 2*time.Second, 20*time.Millisecond)
}
