package models

import "time"

// Comment represents a user's comment on a post
type Comment struct {
	Model
	PostID  uint   `json:"post_id" gorm:"not null;index"`
	UserID  uint   `json:"user_id" gorm:"not null"`
	User    User   `json:"-" gorm:"foreignKey:UserID"`
	Content string `json:"content" gorm:"type:text;not null"`
}

type CommentResponse struct {
	ID        uint      `json:"id"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
	Username  string    `json:"username"`
	Name      string    `json:"name,omitempty"`
	Avatar    string    `json:"avatar"`
	Likes     int       `json:"likes"`
}

type CreateCommentRequest struct {
	Content string `json:"content" binding:"required" conform:"trim"`
}

// CommentCount is the per-post aggregate used by the feed.
type CommentCount struct {
	PostID       uint  `json:"post_id"`
	CommentCount int64 `json:"comment_count"`
}
