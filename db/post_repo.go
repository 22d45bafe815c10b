package db

import (
	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/gatherlyhq/gatherly/models"
)

type PostRepository interface {
	CreatePost(post *models.Post) error
	GetPost(id uint) (*models.Post, error)
	ListFeed(viewerID uint) ([]FeedRow, error)
	ListPostsByUser(userID, viewerID uint) ([]FeedRow, error)
	CountByUser(userID uint) (int64, error)
	DeletePost(postID, userID uint) (bool, error)
	IsLiked(postID, userID uint) (bool, error)
	ToggleLike(postID, userID uint) (liked bool, err error)
	CreateComment(comment *models.Comment) error
	ListComments(postID uint) ([]models.Comment, error)
	CommentCounts() ([]models.CommentCount, error)
}

// FeedRow is a post joined with its author and the viewer's like state.
type FeedRow struct {
	models.Post
	AuthorName     string
	AuthorUsername string
	IsLiked        bool
}

type postRepo struct {
	DB *gorm.DB
}

func NewPostRepo(db *GormDB) PostRepository {
	return &postRepo{db.DB}
}

func (r *postRepo) CreatePost(post *models.Post) error {
	if err := r.DB.Create(post).Error; err != nil {
		return err
	}
	return nil
}

func (r *postRepo) GetPost(id uint) (*models.Post, error) {
	var post models.Post
	if err := r.DB.Where("id = ?", id).First(&post).Error; err != nil {
		return nil, err
	}
	return &post, nil
}

func (r *postRepo) ListFeed(viewerID uint) ([]FeedRow, error) {
	var posts []models.Post
	err := r.DB.Preload("User").Order("created_at DESC, id DESC").Find(&posts).Error
	if err != nil {
		return nil, errors.Wrap(err, "listing feed")
	}
	return r.toFeedRows(posts, viewerID)
}

func (r *postRepo) ListPostsByUser(userID, viewerID uint) ([]FeedRow, error) {
	var posts []models.Post
	err := r.DB.Preload("User").
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Find(&posts).Error
	if err != nil {
		return nil, errors.Wrap(err, "listing user posts")
	}
	return r.toFeedRows(posts, viewerID)
}

func (r *postRepo) toFeedRows(posts []models.Post, viewerID uint) ([]FeedRow, error) {
	if len(posts) == 0 {
		return []FeedRow{}, nil
	}
	ids := make([]uint, 0, len(posts))
	for _, p := range posts {
		ids = append(ids, p.ID)
	}
	var liked []uint
	if err := r.DB.Model(&models.PostLike{}).
		Where("user_id = ? AND post_id IN ?", viewerID, ids).
		Pluck("post_id", &liked).Error; err != nil {
		return nil, err
	}
	likedSet := make(map[uint]bool, len(liked))
	for _, id := range liked {
		likedSet[id] = true
	}

	rows := make([]FeedRow, 0, len(posts))
	for _, p := range posts {
		rows = append(rows, FeedRow{
			Post:           p,
			AuthorName:     p.User.Name,
			AuthorUsername: p.User.Username,
			IsLiked:        likedSet[p.ID],
		})
	}
	return rows, nil
}

func (r *postRepo) CountByUser(userID uint) (int64, error) {
	var count int64
	err := r.DB.Model(&models.Post{}).Where("user_id = ?", userID).Count(&count).Error
	return count, err
}

// DeletePost removes the post when it belongs to userID; the bool reports
// whether anything was deleted so the handler can distinguish Forbidden.
func (r *postRepo) DeletePost(postID, userID uint) (bool, error) {
	var deleted bool
	err := r.DB.Transaction(func(tx *gorm.DB) error {
		res := tx.Where("id = ? AND user_id = ?", postID, userID).Delete(&models.Post{})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		deleted = true
		if err := tx.Where("post_id = ?", postID).Delete(&models.Comment{}).Error; err != nil {
			return err
		}
		return tx.Where("post_id = ?", postID).Delete(&models.PostLike{}).Error
	})
	return deleted, err
}

func (r *postRepo) IsLiked(postID, userID uint) (bool, error) {
	var count int64
	err := r.DB.Model(&models.PostLike{}).
		Where("post_id = ? AND user_id = ?", postID, userID).
		Count(&count).Error
	return count > 0, err
}

// ToggleLike flips the like state inside a transaction and keeps the post's
// denormalized counter in step.
func (r *postRepo) ToggleLike(postID, userID uint) (bool, error) {
	var liked bool
	err := r.DB.Transaction(func(tx *gorm.DB) error {
		var existing models.PostLike
		err := tx.Where("post_id = ? AND user_id = ?", postID, userID).First(&existing).Error
		if err == nil {
			if err := tx.Delete(&existing).Error; err != nil {
				return err
			}
			liked = false
			return tx.Model(&models.Post{}).Where("id = ?", postID).
				UpdateColumn("likes", gorm.Expr("likes - 1")).Error
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if err := tx.Create(&models.PostLike{PostID: postID, UserID: userID}).Error; err != nil {
			return err
		}
		liked = true
		return tx.Model(&models.Post{}).Where("id = ?", postID).
			UpdateColumn("likes", gorm.Expr("likes + 1")).Error
	})
	return liked, err
}

func (r *postRepo) CreateComment(comment *models.Comment) error {
	return r.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(comment).Error; err != nil {
			return err
		}
		return tx.Model(&models.Post{}).Where("id = ?", comment.PostID).
			UpdateColumn("comments", gorm.Expr("comments + 1")).Error
	})
}

func (r *postRepo) ListComments(postID uint) ([]models.Comment, error) {
	var comments []models.Comment
	err := r.DB.Preload("User").
		Where("post_id = ?", postID).
		Order("created_at ASC, id ASC").
		Find(&comments).Error
	if err != nil {
		return nil, err
	}
	return comments, nil
}

func (r *postRepo) CommentCounts() ([]models.CommentCount, error) {
	var counts []models.CommentCount
	err := r.DB.Model(&models.Comment{}).
		Select("post_id, COUNT(*) AS comment_count").
		Group("post_id").
		Scan(&counts).Error
	return counts, err
}
