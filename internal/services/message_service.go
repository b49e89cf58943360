package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"neighborhub/internal/apperr"
	"neighborhub/internal/conversation"
	"neighborhub/internal/models"
	"neighborhub/internal/repositories"
)

// Notifier pushes realtime events. Both calls are best effort.
type Notifier interface {
	BroadcastToNeighborhood(neighborhoodID, event string, payload any) int
	SendToUser(userID, event string, payload any) bool
}

// UserDirectory resolves message participants.
type UserDirectory interface {
	GetByID(ctx context.Context, id string) (models.User, error)
	GetMany(ctx context.Context, ids []string) ([]models.User, error)
}

// MessageService implements direct messaging between two residents.
type MessageService struct {
	messages  repositories.MessageRepository
	users     UserDirectory
	notifier  Notifier
	maxLength int
	pageLimit int
	now       func() time.Time
}

func NewMessageService(messages repositories.MessageRepository, users UserDirectory, notifier Notifier, maxLength, pageLimit int) *MessageService {
	return &MessageService{
		messages:  messages,
		users:     users,
		notifier:  notifier,
		maxLength: maxLength,
		pageLimit: pageLimit,
		now:       time.Now,
	}
}

// SendMessage validates and stores a message, then notifies the recipient if online.
func (s *MessageService) SendMessage(ctx context.Context, senderID, recipientID, content string) (models.MessageView, error) {
	content = strings.TrimSpace(content)
	if recipientID == "" {
		return models.MessageView{}, apperr.Validation("recipientId is required")
	}
	if content == "" {
		return models.MessageView{}, apperr.Validation("message content is required")
	}
	if utf8.RuneCountInString(content) > s.maxLength {
		return models.MessageView{}, apperr.Validation("message content exceeds %d characters", s.maxLength)
	}
	if senderID == recipientID {
		return models.MessageView{}, apperr.Validation("cannot send a message to yourself")
	}

	sender, err := s.users.GetByID(ctx, senderID)
	if err != nil {
		return models.MessageView{}, fmt.Errorf("get sender: %w", err)
	}
	if _, err := s.users.GetByID(ctx, recipientID); err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return models.MessageView{}, apperr.NotFound("recipient not found")
		}
		return models.MessageView{}, fmt.Errorf("get recipient: %w", err)
	}

	msg, err := s.messages.Create(ctx, models.Message{
		ID:             uuid.NewString(),
		SenderID:       senderID,
		RecipientID:    recipientID,
		Content:        content,
		ConversationID: conversation.DeriveID(senderID, recipientID),
	})
	if err != nil {
		return models.MessageView{}, fmt.Errorf("create message: %w", err)
	}

	view := models.MessageView{Message: msg, SenderName: sender.DisplayName()}
	if s.notifier != nil {
		delivered := s.notifier.SendToUser(recipientID, models.EventPrivateMessage, models.PrivateMessageEvent{
			MessageID:      msg.ID,
			ConversationID: msg.ConversationID,
			SenderID:       senderID,
			SenderName:     view.SenderName,
			Content:        msg.Content,
			CreatedAt:      msg.CreatedAt,
		})
		if !delivered {
			log.Printf("private message not pushed: message_id=%s recipient_id=%s", msg.ID, recipientID)
		}
	}
	return view, nil
}

// ListConversations returns the viewer's conversations, most recent first.
func (s *MessageService) ListConversations(ctx context.Context, viewerID string) ([]models.ConversationSummary, error) {
	msgs, err := s.messages.ListForParticipant(ctx, viewerID)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	summaries := conversation.Summarize(viewerID, msgs)
	if len(summaries) == 0 {
		return summaries, nil
	}

	ids := lo.Uniq(lo.Map(summaries, func(sum models.ConversationSummary, _ int) string {
		return sum.ParticipantID
	}))
	users, err := s.users.GetMany(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("get participants: %w", err)
	}
	byID := lo.KeyBy(users, func(u models.User) string { return u.ID })
	for i := range summaries {
		if u, ok := byID[summaries[i].ParticipantID]; ok {
			profile := u.Public()
			summaries[i].Participant = &profile
		}
	}
	return summaries, nil
}

// ListMessages returns the most recent messages of a conversation in
// ascending order and then marks the viewer's unread messages as read.
// The returned messages carry the read state from before the update.
func (s *MessageService) ListMessages(ctx context.Context, conversationID, viewerID string) ([]models.MessageView, error) {
	sample, err := s.messages.FirstInConversation(ctx, conversationID)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return nil, apperr.AccessDenied("not a participant of this conversation")
		}
		return nil, fmt.Errorf("load conversation: %w", err)
	}
	if !conversation.IsParticipant(sample, viewerID) {
		return nil, apperr.AccessDenied("not a participant of this conversation")
	}

	msgs, err := s.messages.ListConversation(ctx, conversationID, s.pageLimit)
	if err != nil {
		return nil, fmt.Errorf("list conversation: %w", err)
	}

	names, err := s.senderNames(ctx, msgs)
	if err != nil {
		return nil, err
	}
	views := lo.Map(msgs, func(m models.Message, _ int) models.MessageView {
		return models.MessageView{Message: m, SenderName: names[m.SenderID]}
	})

	if _, err := s.messages.MarkConversationRead(ctx, conversationID, viewerID, s.now().UTC()); err != nil {
		return nil, fmt.Errorf("mark read: %w", err)
	}
	return views, nil
}

// MarkConversationRead marks the viewer's unread messages in the conversation
// as read and returns how many changed.
func (s *MessageService) MarkConversationRead(ctx context.Context, conversationID, viewerID string) (int64, error) {
	if _, _, ok := conversation.Participants(conversationID); !ok {
		return 0, apperr.Validation("invalid conversation id")
	}
	n, err := s.messages.MarkConversationRead(ctx, conversationID, viewerID, s.now().UTC())
	if err != nil {
		return 0, fmt.Errorf("mark read: %w", err)
	}
	return n, nil
}

// UnreadCount counts messages addressed to the viewer that are still unread.
func (s *MessageService) UnreadCount(ctx context.Context, viewerID string) (int, error) {
	n, err := s.messages.CountUnread(ctx, viewerID)
	if err != nil {
		return 0, fmt.Errorf("count unread: %w", err)
	}
	return n, nil
}

func (s *MessageService) senderNames(ctx context.Context, msgs []models.Message) (map[string]string, error) {
	if len(msgs) == 0 {
		return map[string]string{}, nil
	}
	ids := lo.Uniq(lo.Map(msgs, func(m models.Message, _ int) string { return m.SenderID }))
	users, err := s.users.GetMany(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("get senders: %w", err)
	}
	return lo.SliceToMap(users, func(u models.User) (string, string) {
		return u.ID, u.DisplayName()
	}), nil
}
