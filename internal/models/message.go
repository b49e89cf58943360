package models

import "time"

// Message is a direct message between two residents.
type Message struct {
	ID             string     `db:"id" json:"id"`
	SenderID       string     `db:"sender_id" json:"senderId"`
	RecipientID    string     `db:"recipient_id" json:"recipientId"`
	Content        string     `db:"content" json:"content"`
	ConversationID string     `db:"conversation_id" json:"conversationId"`
	IsRead         bool       `db:"is_read" json:"isRead"`
	ReadAt         *time.Time `db:"read_at" json:"readAt"`
	CreatedAt      time.Time  `db:"created_at" json:"createdAt"`
}

// MessageView is a message enriched with the sender's display name.
type MessageView struct {
	Message
	SenderName string `json:"senderName"`
}

// ConversationSummary describes one conversation from a viewer's side.
type ConversationSummary struct {
	ConversationID string         `json:"id"`
	ParticipantID  string         `json:"participantId"`
	Participant    *PublicProfile `json:"participant,omitempty"`
	LastMessage    Message        `json:"lastMessage"`
	UnreadCount    int            `json:"unreadCount"`
}
