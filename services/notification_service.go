package services

import (
	log "github.com/sirupsen/logrus"

	"github.com/gatherlyhq/gatherly/db"
	apiError "github.com/gatherlyhq/gatherly/errors"
	"github.com/gatherlyhq/gatherly/models"
)

// NotificationService records and serves activity notifications.
type NotificationService interface {
	Notify(recipientID, actorID uint, kind, content string, postID *uint)
	List(userID uint) ([]models.NotificationResponse, *apiError.Error)
	MarkAllRead(userID uint) *apiError.Error
	Counts(userID uint) (total, unread int64, apiErr *apiError.Error)
	Delete(id, userID uint) *apiError.Error
	DeleteAll(userID uint) *apiError.Error
}

type notificationService struct {
	notifRepo db.NotificationRepository
	media     MediaService
}

// NewNotificationService instantiates a notification service
func NewNotificationService(notifRepo db.NotificationRepository, media MediaService) NotificationService {
	return &notificationService{notifRepo: notifRepo, media: media}
}

// Notify records a notification for recipientID about actorID's action.
// Acting on your own content never notifies, and failures are logged rather
// than surfaced: a broken notification must not fail the follow, like or
// comment that triggered it.
func (s *notificationService) Notify(recipientID, actorID uint, kind, content string, postID *uint) {
	if recipientID == actorID {
		return
	}
	n := &models.Notification{
		UserID:   recipientID,
		SenderID: actorID,
		Type:     kind,
		Content:  content,
		PostID:   postID,
	}
	if err := s.notifRepo.Create(n); err != nil {
		log.Printf("recording %s notification for user %d: %v", kind, recipientID, err)
	}
}

func (s *notificationService) List(userID uint) ([]models.NotificationResponse, *apiError.Error) {
	notifications, err := s.notifRepo.ListForUser(userID)
	if err != nil {
		log.Printf("listing notifications for user %d: %v", userID, err)
		return nil, apiError.ErrInternalServerError
	}

	responses := make([]models.NotificationResponse, 0, len(notifications))
	for _, n := range notifications {
		responses = append(responses, models.NotificationResponse{
			ID:      n.ID,
			Type:    n.Type,
			Content: n.Content,
			Time:    n.CreatedAt,
			IsRead:  n.IsRead,
			User: models.UserSummary{
				ID:        n.Sender.ID,
				Username:  n.Sender.Username,
				Name:      n.Sender.Name,
				AvatarURL: s.media.AvatarURL(n.Sender.Username),
			},
		})
	}
	return responses, nil
}

func (s *notificationService) MarkAllRead(userID uint) *apiError.Error {
	if err := s.notifRepo.MarkAllRead(userID); err != nil {
		log.Printf("marking notifications read for user %d: %v", userID, err)
		return apiError.ErrInternalServerError
	}
	return nil
}

func (s *notificationService) Counts(userID uint) (int64, int64, *apiError.Error) {
	total, err := s.notifRepo.Count(userID)
	if err != nil {
		log.Printf("counting notifications for user %d: %v", userID, err)
		return 0, 0, apiError.ErrInternalServerError
	}
	unread, err := s.notifRepo.UnreadCount(userID)
	if err != nil {
		log.Printf("counting unread notifications for user %d: %v", userID, err)
		return 0, 0, apiError.ErrInternalServerError
	}
	return total, unread, nil
}

func (s *notificationService) Delete(id, userID uint) *apiError.Error {
	if err := s.notifRepo.Delete(id, userID); err != nil {
		log.Printf("deleting notification %d: %v", id, err)
		return apiError.ErrInternalServerError
	}
	return nil
}

func (s *notificationService) DeleteAll(userID uint) *apiError.Error {
	if err := s.notifRepo.DeleteAll(userID); err != nil {
		log.Printf("clearing notifications for user %d: %v", userID, err)
		return apiError.ErrInternalServerError
	}
	return nil
}
