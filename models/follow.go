package models

// Follow is a directed edge: follower sees followee's content. Unique per
// ordered pair.
type Follow struct {
	Model
	FollowerID uint `json:"follower_id" gorm:"not null;uniqueIndex:idx_follows_pair"`
	FolloweeID uint `json:"followee_id" gorm:"not null;uniqueIndex:idx_follows_pair"`
}
