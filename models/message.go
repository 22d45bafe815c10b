package models

import "time"

// Message belongs to exactly one conversation; the sender is always one of
// the conversation's two users. Content is validated (non-empty after
// trimming) in the chat service before it reaches the store.
type Message struct {
	Model
	ConversationID uint         `json:"conversation_id" gorm:"not null;index"`
	Conversation   Conversation `json:"-" gorm:"foreignKey:ConversationID"`
	SenderID       uint         `json:"sender_id" gorm:"not null"`
	Sender         User         `json:"-" gorm:"foreignKey:SenderID"`
	Content        string       `json:"content" gorm:"type:text;not null"`
}

// MessageResponse is the chat payload, also used verbatim as the realtime
// receiveMessage event body.
type MessageResponse struct {
	ID             uint      `json:"id"`
	ConversationID uint      `json:"conversation_id"`
	SenderID       uint      `json:"sender_id"`
	Text           string    `json:"text"`
	CreatedAt      time.Time `json:"created_at"`
	Sender         UserSummary `json:"sender"`
}

type SendMessageRequest struct {
	Text string `json:"text"`
}
