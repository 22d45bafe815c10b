package services

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/gatherlyhq/gatherly/db"
	apiError "github.com/gatherlyhq/gatherly/errors"
	"github.com/gatherlyhq/gatherly/models"
)

const (
	defaultSearchLimit     = 20
	defaultSuggestionLimit = 5
)

// FollowService manages the follow graph and user discovery.
type FollowService interface {
	Follow(followerID uint, username string) *apiError.Error
	Unfollow(followerID uint, username string) *apiError.Error
	Followers(username string) ([]models.UserSummary, *apiError.Error)
	Following(username string) ([]models.UserSummary, *apiError.Error)
	Suggestions(userID uint, limit int) ([]models.UserSummary, *apiError.Error)
	Search(query string, limit int) ([]models.UserSummary, *apiError.Error)
}

type followService struct {
	followRepo db.FollowRepository
	authRepo   db.AuthRepository
	media      MediaService
	notifier   NotificationService
}

// NewFollowService instantiates a follow service
func NewFollowService(followRepo db.FollowRepository, authRepo db.AuthRepository, media MediaService, notifier NotificationService) FollowService {
	return &followService{
		followRepo: followRepo,
		authRepo:   authRepo,
		media:      media,
		notifier:   notifier,
	}
}

// Follow adds the edge and notifies the followee. Following yourself is
// rejected; following someone twice is a no-op.
func (s *followService) Follow(followerID uint, username string) *apiError.Error {
	followee, apiErr := s.findUser(username)
	if apiErr != nil {
		return apiErr
	}
	if followee.ID == followerID {
		return apiError.New("cannot follow yourself", http.StatusBadRequest)
	}

	if err := s.followRepo.Follow(followerID, followee.ID); err != nil {
		log.Printf("following user %d: %v", followee.ID, err)
		return apiError.ErrInternalServerError
	}

	follower, err := s.authRepo.FindUserByID(followerID)
	if err != nil {
		log.Printf("loading follower %d: %v", followerID, err)
		return nil
	}
	s.notifier.Notify(followee.ID, followerID, models.NotificationFollow,
		fmt.Sprintf("%s started following you", follower.Name), nil)
	return nil
}

func (s *followService) Unfollow(followerID uint, username string) *apiError.Error {
	followee, apiErr := s.findUser(username)
	if apiErr != nil {
		return apiErr
	}
	if err := s.followRepo.Unfollow(followerID, followee.ID); err != nil {
		log.Printf("unfollowing user %d: %v", followee.ID, err)
		return apiError.ErrInternalServerError
	}
	return nil
}

func (s *followService) Followers(username string) ([]models.UserSummary, *apiError.Error) {
	user, apiErr := s.findUser(username)
	if apiErr != nil {
		return nil, apiErr
	}
	users, err := s.followRepo.Followers(user.ID)
	if err != nil {
		log.Printf("listing followers of user %d: %v", user.ID, err)
		return nil, apiError.ErrInternalServerError
	}
	return s.toSummaries(users), nil
}

func (s *followService) Following(username string) ([]models.UserSummary, *apiError.Error) {
	user, apiErr := s.findUser(username)
	if apiErr != nil {
		return nil, apiErr
	}
	users, err := s.followRepo.Following(user.ID)
	if err != nil {
		log.Printf("listing following of user %d: %v", user.ID, err)
		return nil, apiError.ErrInternalServerError
	}
	return s.toSummaries(users), nil
}

func (s *followService) Suggestions(userID uint, limit int) ([]models.UserSummary, *apiError.Error) {
	if limit <= 0 {
		limit = defaultSuggestionLimit
	}
	users, err := s.followRepo.SuggestedUsers(userID, limit)
	if err != nil {
		log.Printf("suggesting users for %d: %v", userID, err)
		return nil, apiError.ErrInternalServerError
	}
	return s.toSummaries(users), nil
}

func (s *followService) Search(query string, limit int) ([]models.UserSummary, *apiError.Error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []models.UserSummary{}, nil
	}
	if limit <= 0 {
		limit = defaultSearchLimit
	}
	users, err := s.followRepo.SearchUsers(query, limit)
	if err != nil {
		log.Printf("searching users for %q: %v", query, err)
		return nil, apiError.ErrInternalServerError
	}
	return s.toSummaries(users), nil
}

func (s *followService) findUser(username string) (*models.User, *apiError.Error) {
	user, err := s.authRepo.FindUserByUsername(username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apiError.New("user not found", http.StatusNotFound)
		}
		log.Printf("finding user %q: %v", username, err)
		return nil, apiError.ErrInternalServerError
	}
	return user, nil
}

func (s *followService) toSummaries(users []models.User) []models.UserSummary {
	summaries := make([]models.UserSummary, 0, len(users))
	for _, u := range users {
		summaries = append(summaries, models.UserSummary{
			ID:        u.ID,
			Username:  u.Username,
			Name:      u.Name,
			AvatarURL: s.media.AvatarURL(u.Username),
		})
	}
	return summaries
}
