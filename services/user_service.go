package services

import (
	"net/http"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/gatherlyhq/gatherly/config"
	"github.com/gatherlyhq/gatherly/db"
	apiError "github.com/gatherlyhq/gatherly/errors"
	"github.com/gatherlyhq/gatherly/models"
)

// UserService serves and edits profiles.
type UserService interface {
	GetProfile(username string, viewerID uint) (*models.ProfileResponse, *apiError.Error)
	EditProfile(userID uint, request *models.EditProfileRequest, profilePhoto, coverPhoto []byte) (*models.ProfileResponse, *apiError.Error)
	ProfilePhoto(username string) ([]byte, string, *apiError.Error)
	CoverPhoto(username string) ([]byte, string, *apiError.Error)
}

type userService struct {
	Config     *config.Config
	authRepo   db.AuthRepository
	followRepo db.FollowRepository
	postRepo   db.PostRepository
	media      MediaService
}

// NewUserService instantiates a user service
func NewUserService(conf *config.Config, authRepo db.AuthRepository, followRepo db.FollowRepository, postRepo db.PostRepository, media MediaService) UserService {
	return &userService{
		Config:     conf,
		authRepo:   authRepo,
		followRepo: followRepo,
		postRepo:   postRepo,
		media:      media,
	}
}

// GetProfile returns a profile by username. When private accounts are
// enabled, a private profile is served only to the owner and followers;
// the photo byte streams stay public.
func (u *userService) GetProfile(username string, viewerID uint) (*models.ProfileResponse, *apiError.Error) {
	user, err := u.authRepo.FindUserByUsername(username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apiError.New("user not found", http.StatusNotFound)
		}
		log.Printf("finding user %q: %v", username, err)
		return nil, apiError.ErrInternalServerError
	}

	if u.Config.PrivateProfiles && user.IsPrivate && user.ID != viewerID {
		following, err := u.followRepo.IsFollowing(viewerID, user.ID)
		if err != nil {
			log.Printf("checking follow state: %v", err)
			return nil, apiError.ErrInternalServerError
		}
		if !following {
			return nil, apiError.New("this account is private", http.StatusForbidden)
		}
	}

	return u.buildProfile(user, viewerID)
}

// EditProfile applies the editable fields and any uploaded photos. A new
// profile photo also refreshes the stored avatar thumbnail; omitted photos
// leave the stored blobs untouched.
func (u *userService) EditProfile(userID uint, request *models.EditProfileRequest, profilePhoto, coverPhoto []byte) (*models.ProfileResponse, *apiError.Error) {
	if err := models.ValidateWhiteSpaces(request); err != nil {
		return nil, apiError.New(err.Error(), http.StatusBadRequest)
	}
	if request.Username != "" {
		if err := u.authRepo.IsUsernameExist(request.Username); err != nil {
			existing, findErr := u.authRepo.FindUserByUsername(request.Username)
			if findErr != nil || existing.ID != userID {
				return nil, apiError.New("username already in use", http.StatusConflict)
			}
		}
	}

	var profileThumb []byte
	if profilePhoto != nil {
		if apiErr := u.media.ValidatePhoto(profilePhoto); apiErr != nil {
			return nil, apiErr
		}
		thumb, err := u.media.Thumbnail(profilePhoto, ThumbWidth)
		if err != nil {
			log.Printf("generating avatar thumbnail for user %d: %v", userID, err)
			return nil, apiError.New("could not process photo", http.StatusBadRequest)
		}
		profileThumb = thumb
	}
	if coverPhoto != nil {
		if apiErr := u.media.ValidatePhoto(coverPhoto); apiErr != nil {
			return nil, apiErr
		}
	}

	user, err := u.authRepo.UpdateProfile(userID, request, profilePhoto, profileThumb, coverPhoto)
	if err != nil {
		return nil, apiError.GetUniqueContraintError(err)
	}
	return u.buildProfile(user, userID)
}

// ProfilePhoto returns the stored blob exactly as uploaded, with a sniffed
// content type for the response header.
func (u *userService) ProfilePhoto(username string) ([]byte, string, *apiError.Error) {
	user, apiErr := u.findForPhoto(username)
	if apiErr != nil {
		return nil, "", apiErr
	}
	if len(user.ProfilePhoto) == 0 {
		return nil, "", apiError.New("no profile photo", http.StatusNotFound)
	}
	return user.ProfilePhoto, u.media.ContentType(user.ProfilePhoto), nil
}

func (u *userService) CoverPhoto(username string) ([]byte, string, *apiError.Error) {
	user, apiErr := u.findForPhoto(username)
	if apiErr != nil {
		return nil, "", apiErr
	}
	if len(user.CoverPhoto) == 0 {
		return nil, "", apiError.New("no cover photo", http.StatusNotFound)
	}
	return user.CoverPhoto, u.media.ContentType(user.CoverPhoto), nil
}

func (u *userService) findForPhoto(username string) (*models.User, *apiError.Error) {
	user, err := u.authRepo.FindUserByUsername(username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apiError.New("user not found", http.StatusNotFound)
		}
		log.Printf("finding user %q: %v", username, err)
		return nil, apiError.ErrInternalServerError
	}
	return user, nil
}

func (u *userService) buildProfile(user *models.User, viewerID uint) (*models.ProfileResponse, *apiError.Error) {
	followers, err := u.followRepo.FollowerCount(user.ID)
	if err != nil {
		log.Printf("counting followers for user %d: %v", user.ID, err)
		return nil, apiError.ErrInternalServerError
	}
	following, err := u.followRepo.FollowingCount(user.ID)
	if err != nil {
		log.Printf("counting following for user %d: %v", user.ID, err)
		return nil, apiError.ErrInternalServerError
	}
	posts, err := u.postRepo.CountByUser(user.ID)
	if err != nil {
		log.Printf("counting posts for user %d: %v", user.ID, err)
		return nil, apiError.ErrInternalServerError
	}

	isFollowing := false
	if viewerID != 0 && viewerID != user.ID {
		isFollowing, err = u.followRepo.IsFollowing(viewerID, user.ID)
		if err != nil {
			log.Printf("checking follow state: %v", err)
			return nil, apiError.ErrInternalServerError
		}
	}

	return &models.ProfileResponse{
		ID:           user.ID,
		Name:         user.Name,
		Username:     user.Username,
		Bio:          user.Bio,
		ProfilePhoto: u.media.DataURI(user.ProfilePhoto),
		CoverPhoto:   u.media.DataURI(user.CoverPhoto),
		Followers:    followers,
		Following:    following,
		Posts:        posts,
		IsFollowing:  isFollowing,
		IsPrivate:    user.IsPrivate,
		Joined:       user.CreatedAt,
	}, nil
}
