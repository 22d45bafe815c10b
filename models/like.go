package models

// PostLike records a user's like on a post, unique per (post, user).
type PostLike struct {
	Model
	PostID uint `json:"post_id" gorm:"not null;uniqueIndex:idx_post_likes_post_user"`
	UserID uint `json:"user_id" gorm:"not null;uniqueIndex:idx_post_likes_post_user"`
}
