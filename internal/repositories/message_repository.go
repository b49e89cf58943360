package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"neighborhub/internal/apperr"
	"neighborhub/internal/models"
)

var ErrMessageNotFound = fmt.Errorf("message %w", apperr.ErrNotFound)

// MessageRepository defines interactions for direct messages.
type MessageRepository interface {
	Create(ctx context.Context, msg models.Message) (models.Message, error)
	ListForParticipant(ctx context.Context, userID string) ([]models.Message, error)
	FirstInConversation(ctx context.Context, conversationID string) (models.Message, error)
	ListConversation(ctx context.Context, conversationID string, limit int) ([]models.Message, error)
	MarkConversationRead(ctx context.Context, conversationID, recipientID string, at time.Time) (int64, error)
	CountUnread(ctx context.Context, recipientID string) (int, error)
}

// MessageRepo is a sqlx-backed repository.
type MessageRepo struct {
	db *sqlx.DB
}

// NewMessageRepo constructs MessageRepo.
func NewMessageRepo(db *sqlx.DB) *MessageRepo {
	return &MessageRepo{db: db}
}

const messageColumns = `id, sender_id, recipient_id, content, conversation_id, is_read, read_at, created_at`

// Create stores a message. The conversation id must already be set.
func (r *MessageRepo) Create(ctx context.Context, msg models.Message) (models.Message, error) {
	var out models.Message
	err := r.db.QueryRowxContext(ctx, `INSERT INTO messages (id, sender_id, recipient_id, content, conversation_id)
        VALUES ($1, $2, $3, $4, $5) RETURNING `+messageColumns,
		msg.ID, msg.SenderID, msg.RecipientID, msg.Content, msg.ConversationID).StructScan(&out)
	return out, err
}

// ListForParticipant returns every message the user sent or received, newest first.
func (r *MessageRepo) ListForParticipant(ctx context.Context, userID string) ([]models.Message, error) {
	var msgs []models.Message
	err := r.db.SelectContext(ctx, &msgs, `SELECT `+messageColumns+` FROM messages
        WHERE sender_id=$1 OR recipient_id=$1
        ORDER BY created_at DESC`, userID)
	return msgs, err
}

// FirstInConversation returns any one message of the conversation.
func (r *MessageRepo) FirstInConversation(ctx context.Context, conversationID string) (models.Message, error) {
	var msg models.Message
	err := r.db.GetContext(ctx, &msg, `SELECT `+messageColumns+` FROM messages WHERE conversation_id=$1 LIMIT 1`, conversationID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Message{}, ErrMessageNotFound
	}
	return msg, err
}

// ListConversation returns the most recent limit messages in ascending order.
func (r *MessageRepo) ListConversation(ctx context.Context, conversationID string, limit int) ([]models.Message, error) {
	var msgs []models.Message
	err := r.db.SelectContext(ctx, &msgs, `SELECT * FROM (
            SELECT `+messageColumns+` FROM messages
            WHERE conversation_id=$1
            ORDER BY created_at DESC
            LIMIT $2
        ) recent ORDER BY created_at ASC`, conversationID, limit)
	return msgs, err
}

// MarkConversationRead flips unread messages addressed to recipientID.
// Only rows still unread are touched, so repeated calls are harmless.
func (r *MessageRepo) MarkConversationRead(ctx context.Context, conversationID, recipientID string, at time.Time) (int64, error) {
	res, err := r.db.ExecContext(ctx, `UPDATE messages SET is_read = TRUE, read_at = $3
        WHERE conversation_id=$1 AND recipient_id=$2 AND is_read = FALSE`, conversationID, recipientID, at)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// CountUnread counts unread messages addressed to the user.
func (r *MessageRepo) CountUnread(ctx context.Context, recipientID string) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM messages WHERE recipient_id=$1 AND is_read = FALSE`, recipientID)
	return count, err
}
