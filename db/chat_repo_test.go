package db

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gatherlyhq/gatherly/models"
)

func TestGetOrCreateConversation_SamePairBothOrders(t *testing.T) {
	gdb := newTestDB(t)
	repo := NewChatRepo(gdb)
	alice := createTestUser(t, gdb, "alice")
	bob := createTestUser(t, gdb, "bob")

	first, err := repo.GetOrCreateConversation(alice.ID, bob.ID)
	require.NoError(t, err)
	second, err := repo.GetOrCreateConversation(bob.ID, alice.ID)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID, "both orderings must resolve to the same conversation")

	var count int64
	require.NoError(t, gdb.DB.Model(&models.Conversation{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	// normalized pair
	assert.Less(t, first.User1ID, first.User2ID)
	assert.True(t, first.HasParticipant(alice.ID))
	assert.True(t, first.HasParticipant(bob.ID))
}

func TestGetOrCreateConversation_AbsorbsLostInsertRace(t *testing.T) {
	gdb := newTestDB(t)
	repo := NewChatRepo(gdb)
	alice := createTestUser(t, gdb, "alice")
	bob := createTestUser(t, gdb, "bob")

	u1, u2 := alice.ID, bob.ID
	if u1 > u2 {
		u1, u2 = u2, u1
	}
	// Another request won the race before ours inserts.
	winner := models.Conversation{User1ID: u1, User2ID: u2}
	require.NoError(t, gdb.DB.Create(&winner).Error)

	conv, err := repo.GetOrCreateConversation(bob.ID, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, winner.ID, conv.ID)
}

func TestCreateMessage_AppendsInOrderAndBumpsConversation(t *testing.T) {
	gdb := newTestDB(t)
	repo := NewChatRepo(gdb)
	alice := createTestUser(t, gdb, "alice")
	bob := createTestUser(t, gdb, "bob")

	conv, err := repo.GetOrCreateConversation(alice.ID, bob.ID)
	require.NoError(t, err)

	texts := []string{"hey", "how are you", "still there?"}
	for _, text := range texts {
		require.NoError(t, repo.CreateMessage(&models.Message{
			ConversationID: conv.ID,
			SenderID:       alice.ID,
			Content:        text,
		}))
	}

	msgs, err := repo.ListMessages(conv.ID)
	require.NoError(t, err)
	require.Len(t, msgs, len(texts))
	for i, m := range msgs {
		assert.Equal(t, texts[i], m.Content)
		assert.Equal(t, "alice", m.Sender.Username)
		if i > 0 {
			assert.Greater(t, m.ID, msgs[i-1].ID)
		}
	}

	bumped, err := repo.GetConversation(conv.ID)
	require.NoError(t, err)
	assert.False(t, bumped.UpdatedAt.Before(msgs[len(msgs)-1].CreatedAt))
}

func TestMarkMessagesRead_IsIdempotentAndSkipsOwnMessages(t *testing.T) {
	gdb := newTestDB(t)
	repo := NewChatRepo(gdb)
	alice := createTestUser(t, gdb, "alice")
	bob := createTestUser(t, gdb, "bob")

	conv, err := repo.GetOrCreateConversation(alice.ID, bob.ID)
	require.NoError(t, err)

	require.NoError(t, repo.CreateMessage(&models.Message{ConversationID: conv.ID, SenderID: alice.ID, Content: "one"}))
	require.NoError(t, repo.CreateMessage(&models.Message{ConversationID: conv.ID, SenderID: alice.ID, Content: "two"}))
	require.NoError(t, repo.CreateMessage(&models.Message{ConversationID: conv.ID, SenderID: bob.ID, Content: "reply"}))

	unread, err := repo.UnreadCountForConversation(conv.ID, bob.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), unread)

	require.NoError(t, repo.MarkMessagesRead(conv.ID, bob.ID))
	require.NoError(t, repo.MarkMessagesRead(conv.ID, bob.ID))

	var receipts int64
	require.NoError(t, gdb.DB.Model(&models.MessageRead{}).Where("user_id = ?", bob.ID).Count(&receipts).Error)
	assert.Equal(t, int64(2), receipts, "re-running must not duplicate receipts")

	unread, err = repo.UnreadCountForConversation(conv.ID, bob.ID)
	require.NoError(t, err)
	assert.Zero(t, unread)

	// Alice still hasn't read Bob's reply.
	unread, err = repo.UnreadCountForConversation(conv.ID, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), unread)
}

func TestUnreadCount_SumsAcrossConversations(t *testing.T) {
	gdb := newTestDB(t)
	repo := NewChatRepo(gdb)
	alice := createTestUser(t, gdb, "alice")
	bob := createTestUser(t, gdb, "bob")
	carol := createTestUser(t, gdb, "carol")

	withBob, err := repo.GetOrCreateConversation(alice.ID, bob.ID)
	require.NoError(t, err)
	withCarol, err := repo.GetOrCreateConversation(alice.ID, carol.ID)
	require.NoError(t, err)

	require.NoError(t, repo.CreateMessage(&models.Message{ConversationID: withBob.ID, SenderID: bob.ID, Content: "a"}))
	require.NoError(t, repo.CreateMessage(&models.Message{ConversationID: withBob.ID, SenderID: bob.ID, Content: "b"}))
	require.NoError(t, repo.CreateMessage(&models.Message{ConversationID: withCarol.ID, SenderID: carol.ID, Content: "c"}))
	require.NoError(t, repo.CreateMessage(&models.Message{ConversationID: withBob.ID, SenderID: alice.ID, Content: "own message"}))

	total, err := repo.UnreadCount(alice.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)

	require.NoError(t, repo.MarkMessagesRead(withBob.ID, alice.ID))

	total, err = repo.UnreadCount(alice.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)

	// Bulk clear takes the rest with it, idempotently.
	require.NoError(t, repo.MarkAllRead(alice.ID))
	require.NoError(t, repo.MarkAllRead(alice.ID))
	total, err = repo.UnreadCount(alice.ID)
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestListConversationSummaries_NewestFirstWithCounterpart(t *testing.T) {
	gdb := newTestDB(t)
	repo := NewChatRepo(gdb)
	alice := createTestUser(t, gdb, "alice")
	bob := createTestUser(t, gdb, "bob")
	carol := createTestUser(t, gdb, "carol")

	withBob, err := repo.GetOrCreateConversation(alice.ID, bob.ID)
	require.NoError(t, err)
	withCarol, err := repo.GetOrCreateConversation(alice.ID, carol.ID)
	require.NoError(t, err)

	require.NoError(t, repo.CreateMessage(&models.Message{ConversationID: withCarol.ID, SenderID: carol.ID, Content: "hi"}))
	// Bob's thread gets the latest activity and should sort first.
	require.NoError(t, gdb.DB.Exec(
		`UPDATE conversations SET updated_at = DATETIME('now', '+1 hour') WHERE id = ?`, withBob.ID).Error)

	rows, err := repo.ListConversationSummaries(alice.ID)
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, withBob.ID, rows[0].ID)
	assert.Equal(t, "bob", rows[0].OtherUsername)
	assert.Zero(t, rows[0].UnreadCount)

	assert.Equal(t, withCarol.ID, rows[1].ID)
	assert.Equal(t, "carol", rows[1].OtherUsername)
	assert.Equal(t, int64(1), rows[1].UnreadCount)
}

func TestDeleteConversation_CascadesMessagesAndReceipts(t *testing.T) {
	gdb := newTestDB(t)
	repo := NewChatRepo(gdb)
	alice := createTestUser(t, gdb, "alice")
	bob := createTestUser(t, gdb, "bob")

	conv, err := repo.GetOrCreateConversation(alice.ID, bob.ID)
	require.NoError(t, err)
	require.NoError(t, repo.CreateMessage(&models.Message{ConversationID: conv.ID, SenderID: alice.ID, Content: "bye"}))
	require.NoError(t, repo.MarkMessagesRead(conv.ID, bob.ID))

	require.NoError(t, repo.DeleteConversation(conv.ID))

	var convs, msgs, reads int64
	require.NoError(t, gdb.DB.Model(&models.Conversation{}).Count(&convs).Error)
	require.NoError(t, gdb.DB.Model(&models.Message{}).Count(&msgs).Error)
	require.NoError(t, gdb.DB.Model(&models.MessageRead{}).Count(&reads).Error)
	assert.Zero(t, convs)
	assert.Zero(t, msgs)
	assert.Zero(t, reads)
}
