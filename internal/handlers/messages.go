package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"neighborhub/internal/services"
	"neighborhub/internal/telemetry"
)

// MessageHandler serves the direct message endpoints.
type MessageHandler struct {
	auditor
	messages *services.MessageService
}

// NewMessageHandler constructs a MessageHandler.
func NewMessageHandler(messages *services.MessageService, audit *telemetry.AuditEmitter) *MessageHandler {
	return &MessageHandler{auditor: auditor{audit: audit}, messages: messages}
}

// RegisterRoutes mounts the handler under group.
func (h *MessageHandler) RegisterRoutes(group *gin.RouterGroup) {
	group.GET("/conversations", h.ListConversations)
	group.GET("/conversations/:id", h.GetConversation)
	group.PATCH("/conversations/:id/read", h.MarkRead)
	group.POST("/send", h.Send)
	group.GET("/unread-count", h.UnreadCount)
}

// ListConversations handles GET /api/messages/conversations.
func (h *MessageHandler) ListConversations(c *gin.Context) {
	summaries, err := h.messages.ListConversations(c.Request.Context(), userIDFromContext(c))
	if err != nil {
		respondError(c, "list conversations", err)
		return
	}
	c.JSON(http.StatusOK, summaries)
}

// GetConversation handles GET /api/messages/conversations/:id.
func (h *MessageHandler) GetConversation(c *gin.Context) {
	views, err := h.messages.ListMessages(c.Request.Context(), c.Param("id"), userIDFromContext(c))
	if err != nil {
		respondError(c, "list messages", err)
		return
	}
	c.JSON(http.StatusOK, views)
}

// Send handles POST /api/messages/send.
func (h *MessageHandler) Send(c *gin.Context) {
	var req struct {
		RecipientID string `json:"recipientId" binding:"notblank,uuid"`
		Content     string `json:"content" binding:"notblank"`
	}
	if !bindJSON(c, &req) {
		return
	}

	view, err := h.messages.SendMessage(c.Request.Context(), userIDFromContext(c), req.RecipientID, req.Content)
	if err != nil {
		respondError(c, "send message", err)
		return
	}

	h.emitAudit(c, "INFO", "message.send", view.ID)
	c.JSON(http.StatusCreated, view)
}

// MarkRead handles PATCH /api/messages/conversations/:id/read.
func (h *MessageHandler) MarkRead(c *gin.Context) {
	n, err := h.messages.MarkConversationRead(c.Request.Context(), c.Param("id"), userIDFromContext(c))
	if err != nil {
		respondError(c, "mark conversation read", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"updated": n})
}

// UnreadCount handles GET /api/messages/unread-count.
func (h *MessageHandler) UnreadCount(c *gin.Context) {
	n, err := h.messages.UnreadCount(c.Request.Context(), userIDFromContext(c))
	if err != nil {
		respondError(c, "unread count", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"unreadCount": n})
}
