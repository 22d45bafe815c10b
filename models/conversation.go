package models

import "time"

// Conversation pairs exactly two users for direct messaging. The pair is
// stored normalized (User1ID < User2ID) and is unique, which is what makes
// concurrent get-or-create safe: the losing insert hits the index and
// re-reads the winner's row.
type Conversation struct {
	Model
	User1ID uint `json:"user1_id" gorm:"not null;uniqueIndex:idx_conversations_pair"`
	User2ID uint `json:"user2_id" gorm:"not null;uniqueIndex:idx_conversations_pair"`
}

// OtherUserID returns the counterpart of userID in the conversation.
func (c *Conversation) OtherUserID(userID uint) uint {
	if c.User1ID == userID {
		return c.User2ID
	}
	return c.User1ID
}

// HasParticipant reports whether userID is one of the two members.
func (c *Conversation) HasParticipant(userID uint) bool {
	return c.User1ID == userID || c.User2ID == userID
}

// ConversationResponse is the sidebar representation of a conversation.
type ConversationResponse struct {
	ID          uint        `json:"id"`
	OtherUser   UserSummary `json:"other_user"`
	UnreadCount int64       `json:"unread_count"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

type CreateConversationRequest struct {
	OtherUserID uint `json:"other_user_id" binding:"required"`
}
