package db

import (
	"github.com/pkg/errors"
	"gorm.io/gorm"

	"github.com/gatherlyhq/gatherly/models"
)

type AuthRepository interface {
	CreateUser(user *models.User) (*models.User, error)
	IsEmailExist(email string) error
	IsUsernameExist(username string) error
	FindUserByID(id uint) (*models.User, error)
	FindUserByEmail(email string) (*models.User, error)
	FindUserByUsername(username string) (*models.User, error)
	UpdateProfile(userID uint, details *models.EditProfileRequest, profilePhoto, profileThumb, coverPhoto []byte) (*models.User, error)
	UpdatePassword(userID uint, hashedPassword string) error
	UpdateEmail(userID uint, email string) error
	AddToBlackList(blacklist *models.Blacklist) error
	IsTokenInBlacklist(token string) bool
	DeleteUser(userID uint) error
}

type authRepo struct {
	DB *gorm.DB
}

func NewAuthRepo(db *GormDB) AuthRepository {
	return &authRepo{db.DB}
}

func (a *authRepo) CreateUser(user *models.User) (*models.User, error) {
	if user == nil {
		return nil, errors.New("user is nil")
	}
	if err := a.DB.Create(user).Error; err != nil {
		return nil, err
	}
	return user, nil
}

func (a *authRepo) IsEmailExist(email string) error {
	var count int64
	if err := a.DB.Model(&models.User{}).Where("email = ?", email).Count(&count).Error; err != nil {
		return errors.Wrap(err, "gorm count error")
	}
	if count > 0 {
		return errors.New("email already in use")
	}
	return nil
}

func (a *authRepo) IsUsernameExist(username string) error {
	var count int64
	if err := a.DB.Model(&models.User{}).Where("username = ?", username).Count(&count).Error; err != nil {
		return errors.Wrap(err, "gorm count error")
	}
	if count > 0 {
		return errors.New("username already in use")
	}
	return nil
}

func (a *authRepo) FindUserByID(id uint) (*models.User, error) {
	var user models.User
	if err := a.DB.Where("id = ?", id).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (a *authRepo) FindUserByEmail(email string) (*models.User, error) {
	var user models.User
	if err := a.DB.Where("email = ?", email).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

func (a *authRepo) FindUserByUsername(username string) (*models.User, error) {
	var user models.User
	if err := a.DB.Where("username = ?", username).First(&user).Error; err != nil {
		return nil, err
	}
	return &user, nil
}

// UpdateProfile applies the editable fields; nil photo slices leave the
// stored blobs untouched, mirroring COALESCE semantics.
func (a *authRepo) UpdateProfile(userID uint, details *models.EditProfileRequest, profilePhoto, profileThumb, coverPhoto []byte) (*models.User, error) {
	updates := map[string]interface{}{}
	if details.Name != "" {
		updates["name"] = details.Name
	}
	if details.Username != "" {
		updates["username"] = details.Username
	}
	if details.Bio != "" {
		updates["bio"] = details.Bio
	}
	if profilePhoto != nil {
		updates["profile_photo"] = profilePhoto
	}
	if profileThumb != nil {
		updates["profile_thumb"] = profileThumb
	}
	if coverPhoto != nil {
		updates["cover_photo"] = coverPhoto
	}

	if len(updates) > 0 {
		if err := a.DB.Model(&models.User{}).Where("id = ?", userID).Updates(updates).Error; err != nil {
			return nil, err
		}
	}
	return a.FindUserByID(userID)
}

func (a *authRepo) UpdatePassword(userID uint, hashedPassword string) error {
	return a.DB.Model(&models.User{}).Where("id = ?", userID).Update("hashed_password", hashedPassword).Error
}

func (a *authRepo) UpdateEmail(userID uint, email string) error {
	return a.DB.Model(&models.User{}).Where("id = ?", userID).Update("email", email).Error
}

func (a *authRepo) AddToBlackList(blacklist *models.Blacklist) error {
	return a.DB.Create(blacklist).Error
}

func (a *authRepo) IsTokenInBlacklist(token string) bool {
	var count int64
	if err := a.DB.Model(&models.Blacklist{}).Where("token = ?", token).Count(&count).Error; err != nil {
		return false
	}
	return count > 0
}

// DeleteUser removes the account and every dependent row in one
// transaction. Conversations the user participates in go away entirely,
// including the counterpart's copy of the thread.
func (a *authRepo) DeleteUser(userID uint) error {
	return a.DB.Transaction(func(tx *gorm.DB) error {
		var convIDs []uint
		if err := tx.Model(&models.Conversation{}).
			Where("user1_id = ? OR user2_id = ?", userID, userID).
			Pluck("id", &convIDs).Error; err != nil {
			return err
		}
		if len(convIDs) > 0 {
			if err := tx.Exec(`DELETE FROM message_reads WHERE message_id IN (SELECT id FROM messages WHERE conversation_id IN ?)`, convIDs).Error; err != nil {
				return err
			}
			if err := tx.Where("conversation_id IN ?", convIDs).Delete(&models.Message{}).Error; err != nil {
				return err
			}
			if err := tx.Where("id IN ?", convIDs).Delete(&models.Conversation{}).Error; err != nil {
				return err
			}
		}
		if err := tx.Where("user_id = ? OR sender_id = ?", userID, userID).Delete(&models.Notification{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", userID).Delete(&models.PostLike{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", userID).Delete(&models.Comment{}).Error; err != nil {
			return err
		}
		if err := tx.Where("user_id = ?", userID).Delete(&models.Post{}).Error; err != nil {
			return err
		}
		if err := tx.Where("follower_id = ? OR followee_id = ?", userID, userID).Delete(&models.Follow{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", userID).Delete(&models.User{}).Error
	})
}
