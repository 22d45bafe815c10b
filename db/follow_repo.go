package db

import (
	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/gatherlyhq/gatherly/models"
)

type FollowRepository interface {
	Follow(followerID, followeeID uint) error
	Unfollow(followerID, followeeID uint) error
	IsFollowing(followerID, followeeID uint) (bool, error)
	Followers(userID uint) ([]models.User, error)
	Following(userID uint) ([]models.User, error)
	FollowerCount(userID uint) (int64, error)
	FollowingCount(userID uint) (int64, error)
	SuggestedUsers(userID uint, limit int) ([]models.User, error)
	SearchUsers(query string, limit int) ([]models.User, error)
}

type followRepo struct {
	DB *gorm.DB
}

func NewFollowRepo(db *GormDB) FollowRepository {
	return &followRepo{db.DB}
}

// Follow inserts the edge; following twice is a no-op rather than an error.
func (r *followRepo) Follow(followerID, followeeID uint) error {
	err := r.DB.Create(&models.Follow{FollowerID: followerID, FolloweeID: followeeID}).Error
	if err == nil {
		return nil
	}
	var count int64
	countErr := r.DB.Model(&models.Follow{}).
		Where("follower_id = ? AND followee_id = ?", followerID, followeeID).
		Count(&count).Error
	if countErr == nil && count > 0 {
		return nil
	}
	return errors.Wrap(err, "creating follow edge")
}

func (r *followRepo) Unfollow(followerID, followeeID uint) error {
	return r.DB.Where("follower_id = ? AND followee_id = ?", followerID, followeeID).
		Delete(&models.Follow{}).Error
}

func (r *followRepo) IsFollowing(followerID, followeeID uint) (bool, error) {
	var count int64
	err := r.DB.Model(&models.Follow{}).
		Where("follower_id = ? AND followee_id = ?", followerID, followeeID).
		Count(&count).Error
	return count > 0, err
}

func (r *followRepo) Followers(userID uint) ([]models.User, error) {
	var users []models.User
	err := r.DB.
		Joins("INNER JOIN follows f ON f.follower_id = users.id").
		Where("f.followee_id = ?", userID).
		Find(&users).Error
	return users, err
}

func (r *followRepo) Following(userID uint) ([]models.User, error) {
	var users []models.User
	err := r.DB.
		Joins("INNER JOIN follows f ON f.followee_id = users.id").
		Where("f.follower_id = ?", userID).
		Find(&users).Error
	return users, err
}

func (r *followRepo) FollowerCount(userID uint) (int64, error) {
	var count int64
	err := r.DB.Model(&models.Follow{}).Where("followee_id = ?", userID).Count(&count).Error
	return count, err
}

func (r *followRepo) FollowingCount(userID uint) (int64, error) {
	var count int64
	err := r.DB.Model(&models.Follow{}).Where("follower_id = ?", userID).Count(&count).Error
	return count, err
}

// SuggestedUsers picks random users the caller doesn't already follow.
func (r *followRepo) SuggestedUsers(userID uint, limit int) ([]models.User, error) {
	var users []models.User
	err := r.DB.
		Where("users.id <> ?", userID).
		Where("users.id NOT IN (SELECT followee_id FROM follows WHERE follower_id = ?)", userID).
		Order("RANDOM()").
		Limit(limit).
		Find(&users).Error
	return users, err
}

func (r *followRepo) SearchUsers(query string, limit int) ([]models.User, error) {
	var users []models.User
	pattern := "%" + query + "%"
	err := r.DB.
		Where("LOWER(username) LIKE LOWER(?) OR LOWER(name) LIKE LOWER(?)", pattern, pattern).
		Limit(limit).
		Find(&users).Error
	return users, err
}
