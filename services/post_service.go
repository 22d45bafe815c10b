package services

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/gatherlyhq/gatherly/config"
	"github.com/gatherlyhq/gatherly/db"
	apiError "github.com/gatherlyhq/gatherly/errors"
	"github.com/gatherlyhq/gatherly/models"
)

// PostService manages the feed, likes and comments.
type PostService interface {
	CreatePost(userID uint, content string, image []byte) (*models.PostResponse, *apiError.Error)
	Feed(viewerID uint) ([]models.PostResponse, *apiError.Error)
	PostsByUser(username string, viewerID uint) ([]models.PostResponse, *apiError.Error)
	DeletePost(postID, userID uint) *apiError.Error
	ToggleLike(postID, userID uint) (liked bool, likes int, apiErr *apiError.Error)
	AddComment(postID, userID uint, content string) (*models.CommentResponse, *apiError.Error)
	Comments(postID uint) ([]models.CommentResponse, *apiError.Error)
	CommentCounts() ([]models.CommentCount, *apiError.Error)
}

type postService struct {
	Config     *config.Config
	postRepo   db.PostRepository
	authRepo   db.AuthRepository
	followRepo db.FollowRepository
	media      MediaService
	notifier   NotificationService
}

// NewPostService instantiates a post service
func NewPostService(conf *config.Config, postRepo db.PostRepository, authRepo db.AuthRepository, followRepo db.FollowRepository, media MediaService, notifier NotificationService) PostService {
	return &postService{
		Config:     conf,
		postRepo:   postRepo,
		authRepo:   authRepo,
		followRepo: followRepo,
		media:      media,
		notifier:   notifier,
	}
}

// CreatePost publishes a post. At least one of content and image must be
// present; the image bytes are stored as uploaded.
func (s *postService) CreatePost(userID uint, content string, image []byte) (*models.PostResponse, *apiError.Error) {
	content = strings.TrimSpace(content)
	if content == "" && len(image) == 0 {
		return nil, apiError.New("post needs text or an image", http.StatusBadRequest)
	}
	if len(image) > 0 {
		if apiErr := s.media.ValidatePhoto(image); apiErr != nil {
			return nil, apiErr
		}
	}

	author, err := s.authRepo.FindUserByID(userID)
	if err != nil {
		log.Printf("loading author %d: %v", userID, err)
		return nil, apiError.ErrInternalServerError
	}

	post := &models.Post{
		UserID:  userID,
		Content: content,
		Image:   image,
	}
	if err := s.postRepo.CreatePost(post); err != nil {
		log.Printf("creating post for user %d: %v", userID, err)
		return nil, apiError.ErrInternalServerError
	}

	return &models.PostResponse{
		ID:        post.ID,
		Content:   post.Content,
		Image:     s.media.DataURI(post.Image),
		Timestamp: post.CreatedAt,
		User: models.UserSummary{
			ID:        author.ID,
			Username:  author.Username,
			Name:      author.Name,
			AvatarURL: s.media.AvatarURL(author.Username),
		},
	}, nil
}

// Feed returns every post newest first, with the viewer's like state.
func (s *postService) Feed(viewerID uint) ([]models.PostResponse, *apiError.Error) {
	rows, err := s.postRepo.ListFeed(viewerID)
	if err != nil {
		log.Printf("listing feed: %v", err)
		return nil, apiError.ErrInternalServerError
	}
	return s.toResponses(rows), nil
}

// PostsByUser returns a profile's posts. When private accounts are enabled,
// a private profile's posts are visible only to the owner and followers.
func (s *postService) PostsByUser(username string, viewerID uint) ([]models.PostResponse, *apiError.Error) {
	owner, err := s.authRepo.FindUserByUsername(username)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apiError.New("user not found", http.StatusNotFound)
		}
		log.Printf("finding user %q: %v", username, err)
		return nil, apiError.ErrInternalServerError
	}

	if s.Config.PrivateProfiles && owner.IsPrivate && owner.ID != viewerID {
		following, err := s.followRepo.IsFollowing(viewerID, owner.ID)
		if err != nil {
			log.Printf("checking follow state: %v", err)
			return nil, apiError.ErrInternalServerError
		}
		if !following {
			return nil, apiError.New("this account is private", http.StatusForbidden)
		}
	}

	rows, err := s.postRepo.ListPostsByUser(owner.ID, viewerID)
	if err != nil {
		log.Printf("listing posts for user %d: %v", owner.ID, err)
		return nil, apiError.ErrInternalServerError
	}
	return s.toResponses(rows), nil
}

// DeletePost removes the caller's own post. Someone else's post yields
// Forbidden, a missing one NotFound.
func (s *postService) DeletePost(postID, userID uint) *apiError.Error {
	deleted, err := s.postRepo.DeletePost(postID, userID)
	if err != nil {
		log.Printf("deleting post %d: %v", postID, err)
		return apiError.ErrInternalServerError
	}
	if deleted {
		return nil
	}
	if _, err := s.postRepo.GetPost(postID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apiError.New("post not found", http.StatusNotFound)
		}
		log.Printf("loading post %d: %v", postID, err)
		return apiError.ErrInternalServerError
	}
	return apiError.ErrForbidden
}

// ToggleLike flips the caller's like and reports the new state and count.
// Liking notifies the author; unliking doesn't.
func (s *postService) ToggleLike(postID, userID uint) (bool, int, *apiError.Error) {
	post, err := s.postRepo.GetPost(postID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return false, 0, apiError.New("post not found", http.StatusNotFound)
		}
		log.Printf("loading post %d: %v", postID, err)
		return false, 0, apiError.ErrInternalServerError
	}

	liked, err := s.postRepo.ToggleLike(postID, userID)
	if err != nil {
		log.Printf("toggling like on post %d: %v", postID, err)
		return false, 0, apiError.ErrInternalServerError
	}

	likes := post.Likes
	if liked {
		likes++
		if actor, err := s.authRepo.FindUserByID(userID); err == nil {
			s.notifier.Notify(post.UserID, userID, models.NotificationLike,
				fmt.Sprintf("%s liked your post", actor.Name), &post.ID)
		}
	} else if likes > 0 {
		likes--
	}
	return liked, likes, nil
}

// AddComment appends a comment and notifies the post's author.
func (s *postService) AddComment(postID, userID uint, content string) (*models.CommentResponse, *apiError.Error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, apiError.New("comment text is required", http.StatusBadRequest)
	}

	post, err := s.postRepo.GetPost(postID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apiError.New("post not found", http.StatusNotFound)
		}
		log.Printf("loading post %d: %v", postID, err)
		return nil, apiError.ErrInternalServerError
	}

	author, err := s.authRepo.FindUserByID(userID)
	if err != nil {
		log.Printf("loading commenter %d: %v", userID, err)
		return nil, apiError.ErrInternalServerError
	}

	comment := &models.Comment{
		PostID:  postID,
		UserID:  userID,
		Content: content,
	}
	if err := s.postRepo.CreateComment(comment); err != nil {
		log.Printf("creating comment on post %d: %v", postID, err)
		return nil, apiError.ErrInternalServerError
	}

	s.notifier.Notify(post.UserID, userID, models.NotificationComment,
		fmt.Sprintf("%s commented on your post", author.Name), &post.ID)

	return &models.CommentResponse{
		ID:        comment.ID,
		Content:   comment.Content,
		Timestamp: comment.CreatedAt,
		Username:  author.Username,
		Name:      author.Name,
		Avatar:    s.media.AvatarURL(author.Username),
	}, nil
}

func (s *postService) Comments(postID uint) ([]models.CommentResponse, *apiError.Error) {
	if _, err := s.postRepo.GetPost(postID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apiError.New("post not found", http.StatusNotFound)
		}
		log.Printf("loading post %d: %v", postID, err)
		return nil, apiError.ErrInternalServerError
	}

	comments, err := s.postRepo.ListComments(postID)
	if err != nil {
		log.Printf("listing comments for post %d: %v", postID, err)
		return nil, apiError.ErrInternalServerError
	}

	responses := make([]models.CommentResponse, 0, len(comments))
	for _, c := range comments {
		responses = append(responses, models.CommentResponse{
			ID:        c.ID,
			Content:   c.Content,
			Timestamp: c.CreatedAt,
			Username:  c.User.Username,
			Name:      c.User.Name,
			Avatar:    s.media.AvatarURL(c.User.Username),
		})
	}
	return responses, nil
}

// CommentCounts aggregates comment totals per commented post.
func (s *postService) CommentCounts() ([]models.CommentCount, *apiError.Error) {
	counts, err := s.postRepo.CommentCounts()
	if err != nil {
		log.Printf("aggregating comment counts: %v", err)
		return nil, apiError.ErrInternalServerError
	}
	return counts, nil
}

func (s *postService) toResponses(rows []db.FeedRow) []models.PostResponse {
	responses := make([]models.PostResponse, 0, len(rows))
	for _, row := range rows {
		responses = append(responses, models.PostResponse{
			ID:        row.ID,
			Content:   row.Content,
			Image:     s.media.DataURI(row.Image),
			Timestamp: row.CreatedAt,
			Likes:     row.Likes,
			Comments:  row.Comments,
			IsLiked:   row.IsLiked,
			User: models.UserSummary{
				ID:        row.UserID,
				Username:  row.AuthorUsername,
				Name:      row.AuthorName,
				AvatarURL: s.media.AvatarURL(row.AuthorUsername),
			},
		})
	}
	return responses
}
