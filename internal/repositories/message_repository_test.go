package repositories

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"neighborhub/internal/conversation"
	"neighborhub/internal/db"
	"neighborhub/internal/models"
)

// openTestDB connects to the Postgres named by NEIGHBORHUB_TEST_DSN and
// applies migrations. Tests are skipped when it is unset.
func openTestDB(t *testing.T) *sqlx.DB {
	t.Helper()
	dsn := os.Getenv("NEIGHBORHUB_TEST_DSN")
	if dsn == "" {
		t.Skip("NEIGHBORHUB_TEST_DSN not set")
	}
	database, err := db.Connect(context.Background(), dsn)
	require.NoError(t, err)
	t.Cleanup(func() { database.Close() })
	return database
}

// seedPair creates a neighborhood with two residents and removes them, with
// their messages, when the test ends.
func seedPair(t *testing.T, database *sqlx.DB) (alice, bob models.User) {
	t.Helper()
	ctx := context.Background()
	nid := uuid.NewString()
	_, err := database.ExecContext(ctx, `INSERT INTO neighborhoods (id, name, zip_codes) VALUES ($1, 'Test Hood', '{}')`, nid)
	require.NoError(t, err)

	users := NewUserRepo(database)
	newUser := func(name string) models.User {
		u, err := users.Create(ctx, models.User{
			ID:             uuid.NewString(),
			FirstName:      name,
			LastName:       "Test",
			Email:          fmt.Sprintf("%s-%s@example.com", name, uuid.NewString()),
			PasswordHash:   "x",
			NeighborhoodID: nid,
			Role:           models.RoleResident,
		})
		require.NoError(t, err)
		return u
	}
	alice, bob = newUser("alice"), newUser("bob")

	t.Cleanup(func() {
		ids := []any{alice.ID, bob.ID}
		database.ExecContext(ctx, `DELETE FROM messages WHERE sender_id IN ($1, $2) OR recipient_id IN ($1, $2)`, ids...)
		database.ExecContext(ctx, `DELETE FROM users WHERE id IN ($1, $2)`, ids...)
		database.ExecContext(ctx, `DELETE FROM neighborhoods WHERE id=$1`, nid)
	})
	return alice, bob
}

func TestMessageRepoConversationWindowAndReadState(t *testing.T) {
	database := openTestDB(t)
	alice, bob := seedPair(t, database)
	repo := NewMessageRepo(database)
	ctx := context.Background()
	conv := conversation.DeriveID(alice.ID, bob.ID)

	// Even messages go alice -> bob, odd ones bob -> alice, one minute apart.
	base := time.Now().UTC().Add(-time.Hour).Truncate(time.Second)
	for i := 0; i < 5; i++ {
		sender, recipient := alice.ID, bob.ID
		if i%2 == 1 {
			sender, recipient = bob.ID, alice.ID
		}
		_, err := database.ExecContext(ctx, `INSERT INTO messages (id, sender_id, recipient_id, content, conversation_id, created_at)
            VALUES ($1, $2, $3, $4, $5, $6)`, uuid.NewString(), sender, recipient, fmt.Sprintf("m%d", i), conv, base.Add(time.Duration(i)*time.Minute))
		require.NoError(t, err)
	}

	latest, err := repo.ListConversation(ctx, conv, 3)
	require.NoError(t, err)
	require.Len(t, latest, 3)
	assert.Equal(t, []string{"m2", "m3", "m4"}, []string{latest[0].Content, latest[1].Content, latest[2].Content})

	unread, err := repo.CountUnread(ctx, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, unread)

	readAt := time.Now().UTC().Truncate(time.Second)
	flipped, err := repo.MarkConversationRead(ctx, conv, bob.ID, readAt)
	require.NoError(t, err)
	assert.Equal(t, int64(3), flipped)

	flipped, err = repo.MarkConversationRead(ctx, conv, bob.ID, readAt.Add(time.Minute))
	require.NoError(t, err)
	assert.Zero(t, flipped)

	unread, err = repo.CountUnread(ctx, bob.ID)
	require.NoError(t, err)
	assert.Zero(t, unread)
	unread, err = repo.CountUnread(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, unread)

	all, err := repo.ListConversation(ctx, conv, 10)
	require.NoError(t, err)
	require.Len(t, all, 5)
	for _, m := range all {
		if m.RecipientID == bob.ID {
			assert.True(t, m.IsRead, m.Content)
			require.NotNil(t, m.ReadAt)
			assert.True(t, m.ReadAt.Equal(readAt), m.Content)
		} else {
			assert.False(t, m.IsRead, m.Content)
			assert.Nil(t, m.ReadAt)
		}
	}
}

func TestMessageRepoCreateAndFirstInConversation(t *testing.T) {
	database := openTestDB(t)
	alice, bob := seedPair(t, database)
	repo := NewMessageRepo(database)
	ctx := context.Background()
	conv := conversation.DeriveID(alice.ID, bob.ID)

	_, err := repo.FirstInConversation(ctx, conv)
	require.ErrorIs(t, err, ErrMessageNotFound)

	created, err := repo.Create(ctx, models.Message{ID: uuid.NewString(), SenderID: alice.ID, RecipientID: bob.ID, Content: "hello", ConversationID: conv})
	require.NoError(t, err)
	assert.False(t, created.IsRead)
	assert.False(t, created.CreatedAt.IsZero())

	first, err := repo.FirstInConversation(ctx, conv)
	require.NoError(t, err)
	assert.Equal(t, created.ID, first.ID)
}
