package models

import "time"

// Notification is addressed to UserID and produced by SenderID. PostID is
// set for like/comment notifications only.
type Notification struct {
	Model
	UserID   uint   `json:"user_id" gorm:"not null;index"`
	SenderID uint   `json:"sender_id" gorm:"not null"`
	Sender   User   `json:"-" gorm:"foreignKey:SenderID"`
	Type     string `json:"type" gorm:"not null"`
	Content  string `json:"content" gorm:"type:text"`
	PostID   *uint  `json:"post_id,omitempty"`
	IsRead   bool   `json:"is_read" gorm:"default:false"`
}

const (
	NotificationFollow  = "follow"
	NotificationLike    = "like"
	NotificationComment = "comment"
)

// NotificationResponse embeds the actor's public profile for the client.
type NotificationResponse struct {
	ID      uint        `json:"id"`
	Type    string      `json:"type"`
	Content string      `json:"content"`
	Time    time.Time   `json:"time"`
	IsRead  bool        `json:"is_read"`
	User    UserSummary `json:"user"`
}
