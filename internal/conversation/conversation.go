// Package conversation derives conversation keys for direct messages and
// summarizes a viewer's conversations.
package conversation

import (
	"sort"
	"strings"

	"github.com/samber/lo"

	"neighborhub/internal/models"
)

const separator = "_"

// DeriveID returns the key shared by every message exchanged between a and b.
// The two identities are sorted so DeriveID(a, b) == DeriveID(b, a).
func DeriveID(a, b string) string {
	if b < a {
		a, b = b, a
	}
	return a + separator + b
}

// Participants splits a conversation id back into its two identities.
func Participants(conversationID string) (string, string, bool) {
	first, second, ok := strings.Cut(conversationID, separator)
	if !ok || first == "" || second == "" {
		return "", "", false
	}
	return first, second, true
}

// IsParticipant reports whether userID took part in msg.
func IsParticipant(msg models.Message, userID string) bool {
	return msg.SenderID == userID || msg.RecipientID == userID
}

// Counterpart returns the other side of msg from viewerID's point of view.
func Counterpart(msg models.Message, viewerID string) string {
	if msg.SenderID == viewerID {
		return msg.RecipientID
	}
	return msg.SenderID
}

// Summarize groups msgs by conversation and returns one summary per group,
// newest conversation first. Unread counts only messages addressed to viewerID.
func Summarize(viewerID string, msgs []models.Message) []models.ConversationSummary {
	groups := lo.GroupBy(msgs, func(m models.Message) string { return m.ConversationID })

	summaries := make([]models.ConversationSummary, 0, len(groups))
	for id, group := range groups {
		last := lo.MaxBy(group, func(a, b models.Message) bool { return a.CreatedAt.After(b.CreatedAt) })
		unread := lo.CountBy(group, func(m models.Message) bool { return m.RecipientID == viewerID && !m.IsRead })
		summaries = append(summaries, models.ConversationSummary{
			ConversationID: id,
			ParticipantID:  Counterpart(last, viewerID),
			LastMessage:    last,
			UnreadCount:    unread,
		})
	}

	sort.Slice(summaries, func(i, j int) bool {
		ti, tj := summaries[i].LastMessage.CreatedAt, summaries[j].LastMessage.CreatedAt
		if ti.Equal(tj) {
			return summaries[i].ConversationID < summaries[j].ConversationID
		}
		return ti.After(tj)
	})
	return summaries
}
