package db

import (
	"time"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/gatherlyhq/gatherly/models"
)

// ConversationSummary is one sidebar row: the conversation, its counterpart
// and how many of their messages the caller hasn't read.
type ConversationSummary struct {
	ID            uint      `json:"id"`
	UpdatedAt     time.Time `json:"updated_at"`
	OtherID       uint      `json:"other_id"`
	OtherUsername string    `json:"other_username"`
	OtherName     string    `json:"other_name"`
	UnreadCount   int64     `json:"unread_count"`
}

type ChatRepository interface {
	GetOrCreateConversation(userA, userB uint) (*models.Conversation, error)
	GetConversation(id uint) (*models.Conversation, error)
	ListConversationSummaries(userID uint) ([]ConversationSummary, error)
	CreateMessage(msg *models.Message) error
	ListMessages(conversationID uint) ([]models.Message, error)
	MarkMessagesRead(conversationID, userID uint) error
	MarkAllRead(userID uint) error
	UnreadCount(userID uint) (int64, error)
	UnreadCountForConversation(conversationID, userID uint) (int64, error)
	DeleteConversation(conversationID uint) error
}

type chatRepo struct {
	DB *gorm.DB
}

func NewChatRepo(db *GormDB) ChatRepository {
	return &chatRepo{db.DB}
}

// GetOrCreateConversation returns the unique conversation for the unordered
// pair, creating it on first contact. The pair is normalized so the unique
// index on (user1_id, user2_id) covers both orderings; when two participants
// race to create, the loser's insert fails on that index and the winner's
// row is re-read instead of surfacing a conflict.
func (r *chatRepo) GetOrCreateConversation(userA, userB uint) (*models.Conversation, error) {
	u1, u2 := userA, userB
	if u1 > u2 {
		u1, u2 = u2, u1
	}

	var conv models.Conversation
	err := r.DB.Where("user1_id = ? AND user2_id = ?", u1, u2).First(&conv).Error
	if err == nil {
		return &conv, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}

	conv = models.Conversation{User1ID: u1, User2ID: u2}
	if createErr := r.DB.Create(&conv).Error; createErr != nil {
		// Lost the race: another request inserted the pair first.
		var existing models.Conversation
		if findErr := r.DB.Where("user1_id = ? AND user2_id = ?", u1, u2).First(&existing).Error; findErr == nil {
			return &existing, nil
		}
		return nil, createErr
	}
	return &conv, nil
}

func (r *chatRepo) GetConversation(id uint) (*models.Conversation, error) {
	var conv models.Conversation
	if err := r.DB.Where("id = ?", id).First(&conv).Error; err != nil {
		return nil, err
	}
	return &conv, nil
}

func (r *chatRepo) ListConversationSummaries(userID uint) ([]ConversationSummary, error) {
	var rows []ConversationSummary
	err := r.DB.Raw(`
		SELECT
			c.id,
			c.updated_at,
			u.id AS other_id,
			u.username AS other_username,
			u.name AS other_name,
			(
				SELECT COUNT(*)
				FROM messages m
				LEFT JOIN message_reads r
					ON r.message_id = m.id
					AND r.user_id = ?
				WHERE m.conversation_id = c.id
					AND m.sender_id <> ?
					AND r.id IS NULL
			) AS unread_count
		FROM conversations c
		JOIN users u
			ON u.id = CASE WHEN c.user1_id = ? THEN c.user2_id ELSE c.user1_id END
		WHERE ? IN (c.user1_id, c.user2_id)
		ORDER BY c.updated_at DESC`,
		userID, userID, userID, userID).Scan(&rows).Error
	if err != nil {
		return nil, errors.Wrap(err, "listing conversations")
	}
	return rows, nil
}

// CreateMessage persists the message and bumps the conversation's
// updated_at in the same transaction, so the sidebar ordering can never
// observe one without the other.
func (r *chatRepo) CreateMessage(msg *models.Message) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(msg).Error; err != nil {
			return err
		}
		return tx.Model(&models.Conversation{}).
			Where("id = ?", msg.ConversationID).
			Update("updated_at", msg.CreatedAt).Error
	})
}

func (r *chatRepo) ListMessages(conversationID uint) ([]models.Message, error) {
	var msgs []models.Message
	err := r.DB.Preload("Sender").
		Where("conversation_id = ?", conversationID).
		Order("created_at ASC, id ASC").
		Find(&msgs).Error
	if err != nil {
		return nil, err
	}
	return msgs, nil
}

// MarkMessagesRead inserts a read receipt for every message in the
// conversation the user didn't send. Re-running is a no-op: the unique
// (user_id, message_id) index plus ON CONFLICT DO NOTHING absorbs repeats.
func (r *chatRepo) MarkMessagesRead(conversationID, userID uint) error {
	return r.DB.Exec(`
		INSERT INTO message_reads (user_id, message_id, created_at, updated_at)
		SELECT ?, id, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP
		FROM messages
		WHERE conversation_id = ?
			AND sender_id <> ?
		ON CONFLICT (user_id, message_id) DO NOTHING`,
		userID, conversationID, userID).Error
}

// MarkAllRead clears unread state across every conversation the user is in.
func (r *chatRepo) MarkAllRead(userID uint) error {
	return r.DB.Exec(`
		INSERT INTO message_reads (user_id, message_id, created_at, updated_at)
		SELECT ?, m.id, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP
		FROM messages m
		JOIN conversations c ON c.id = m.conversation_id
		WHERE ? IN (c.user1_id, c.user2_id)
			AND m.sender_id <> ?
		ON CONFLICT (user_id, message_id) DO NOTHING`,
		userID, userID, userID).Error
}

func (r *chatRepo) UnreadCount(userID uint) (int64, error) {
	var count int64
	err := r.DB.Raw(`
		SELECT COUNT(*)
		FROM messages m
		JOIN conversations c ON c.id = m.conversation_id
		LEFT JOIN message_reads r
			ON r.message_id = m.id
			AND r.user_id = ?
		WHERE ? IN (c.user1_id, c.user2_id)
			AND m.sender_id <> ?
			AND r.id IS NULL`,
		userID, userID, userID).Scan(&count).Error
	return count, err
}

func (r *chatRepo) UnreadCountForConversation(conversationID, userID uint) (int64, error) {
	var count int64
	err := r.DB.Raw(`
		SELECT COUNT(*)
		FROM messages m
		LEFT JOIN message_reads r
			ON r.message_id = m.id
			AND r.user_id = ?
		WHERE m.conversation_id = ?
			AND m.sender_id <> ?
			AND r.id IS NULL`,
		userID, conversationID, userID).Scan(&count).Error
	return count, err
}

// DeleteConversation removes the thread and everything hanging off it.
func (r *chatRepo) DeleteConversation(conversationID uint) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec(`DELETE FROM message_reads WHERE message_id IN (SELECT id FROM messages WHERE conversation_id = ?)`, conversationID).Error; err != nil {
			return err
		}
		if err := tx.Where("conversation_id = ?", conversationID).Delete(&models.Message{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", conversationID).Delete(&models.Conversation{}).Error
	})
}
