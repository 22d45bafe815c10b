package db

import (
	"gorm.io/gorm"

	"github.com/gatherlyhq/gatherly/models"
)

type NotificationRepository interface {
	Create(n *models.Notification) error
	ListForUser(userID uint) ([]models.Notification, error)
	MarkAllRead(userID uint) error
	UnreadCount(userID uint) (int64, error)
	Count(userID uint) (int64, error)
	Delete(id, userID uint) error
	DeleteAll(userID uint) error
}

type notificationRepo struct {
	DB *gorm.DB
}

func NewNotificationRepo(db *GormDB) NotificationRepository {
	return &notificationRepo{db.DB}
}

func (r *notificationRepo) Create(n *models.Notification) error {
	return r.DB.Create(n).Error
}

func (r *notificationRepo) ListForUser(userID uint) ([]models.Notification, error) {
	var notifications []models.Notification
	err := r.DB.Preload("Sender").
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Find(&notifications).Error
	if err != nil {
		return nil, err
	}
	return notifications, nil
}

func (r *notificationRepo) MarkAllRead(userID uint) error {
	return r.DB.Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Update("is_read", true).Error
}

func (r *notificationRepo) UnreadCount(userID uint) (int64, error) {
	var count int64
	err := r.DB.Model(&models.Notification{}).
		Where("user_id = ? AND is_read = ?", userID, false).
		Count(&count).Error
	return count, err
}

func (r *notificationRepo) Count(userID uint) (int64, error) {
	var count int64
	err := r.DB.Model(&models.Notification{}).
		Where("user_id = ?", userID).
		Count(&count).Error
	return count, err
}

func (r *notificationRepo) Delete(id, userID uint) error {
	return r.DB.Where("id = ? AND user_id = ?", id, userID).
		Delete(&models.Notification{}).Error
}

func (r *notificationRepo) DeleteAll(userID uint) error {
	return r.DB.Where("user_id = ?", userID).
		Delete(&models.Notification{}).Error
}
