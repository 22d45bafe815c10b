package models

import "time"

// Post is a feed entry. Image holds the uploaded bytes as stored; the feed
// response carries it as a data URI.
type Post struct {
	Model
	UserID   uint   `json:"user_id" gorm:"not null;index"`
	User     User   `json:"-" gorm:"foreignKey:UserID"`
	Content  string `json:"content" gorm:"type:text"`
	Image    []byte `json:"-" gorm:"type:bytea"`
	Likes    int    `json:"likes" gorm:"default:0"`
	Comments int    `json:"comments" gorm:"default:0"`
}

// PostResponse is the feed representation of a post.
type PostResponse struct {
	ID        uint        `json:"id"`
	Content   string      `json:"content"`
	Image     string      `json:"image,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
	Likes     int         `json:"likes"`
	Comments  int         `json:"comments"`
	IsLiked   bool        `json:"isLiked"`
	User      UserSummary `json:"user"`
}

type CreatePostRequest struct {
	Content string `form:"content" conform:"trim"`
}
