package ws

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel"

	"neighborhub/internal/middleware"
	"neighborhub/internal/models"
	"neighborhub/internal/observability"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// UserLookup resolves the account behind a verified token.
type UserLookup interface {
	GetByID(ctx context.Context, id string) (models.User, error)
}

// Handler upgrades authenticated HTTP requests to realtime connections.
type Handler struct {
	hub        *Hub
	verifier   middleware.TokenVerifier
	users      UserLookup
	sendBuffer int
}

func NewHandler(hub *Hub, verifier middleware.TokenVerifier, users UserLookup, sendBuffer int) *Handler {
	return &Handler{hub: hub, verifier: verifier, users: users, sendBuffer: sendBuffer}
}

// Handle accepts the handshake. The token comes from the Authorization header
// or the "token" query parameter.
func (h *Handler) Handle(c *gin.Context) {
	ctx, span := otel.Tracer("neighborhub/ws").Start(c.Request.Context(), "ws.handshake")
	defer span.End()

	token, ok := middleware.BearerToken(c.GetHeader("Authorization"))
	if !ok {
		token = c.Query("token")
	}
	if token == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "authentication token required"})
		return
	}

	claims, err := h.verifier.Verify(token)
	if err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "token is not valid"})
		return
	}

	user, err := h.users.GetByID(ctx, claims.UserID)
	if err != nil {
		log.Printf("ws handshake user lookup failed: user_id=%s err=%v", claims.UserID, err)
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not found"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("ws upgrade failed: user_id=%s err=%v", user.ID, err)
		return
	}

	info := ConnInfo{
		ConnID:         newConnID(),
		UserID:         user.ID,
		NeighborhoodID: user.NeighborhoodID,
		DisplayName:    user.DisplayName(),
		DeviceID:       observability.DeviceIDFromRequest(c.Request),
		IP:             observability.IPFromRequest(c.Request),
		RequestID:      observability.RequestIDFromRequest(c.Request),
		TraceID:        observability.TraceIDFromContext(ctx),
		ConnectedAt:    time.Now(),
	}

	client := NewClient(conn, info, h.sendBuffer)
	h.hub.Register(client)
	observability.IncWSActive(wsKind)
	publishLifecycle(ctx, "ws_connect", info, "")
	log.Printf("ws connected: conn_id=%s user_id=%s", info.ConnID, info.UserID)

	go client.writePump()
	go func() {
		reason := client.readPump(h.hub)
		h.hub.Disconnect(client)
		observability.DecWSActive(wsKind)
		publishLifecycle(context.Background(), "ws_disconnect", info, reason)
		log.Printf("ws disconnected: conn_id=%s user_id=%s reason=%q", info.ConnID, info.UserID, reason)
	}()
}
