package models

import (
	"errors"
	"fmt"
	"time"

	goval "github.com/go-passwd/validator"
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/leebenson/conform"
	"golang.org/x/crypto/bcrypt"
)

// User represents a user of the application. Photo columns hold the raw
// bytes; encoding to a data URI or byte stream happens at the API boundary.
type User struct {
	Model
	Name           string `json:"name" binding:"required,min=2" conform:"trim"`
	Username       string `json:"username" gorm:"unique;not null"`
	Email          string `json:"email" gorm:"unique;not null" binding:"required,email" conform:"trim,lower"`
	Password       string `json:"password,omitempty" gorm:"-" validate:"omitempty,min=6"`
	HashedPassword string `json:"-"`
	Bio            string `json:"bio" gorm:"type:text"`
	ProfilePhoto   []byte `json:"-" gorm:"type:bytea"`
	ProfileThumb   []byte `json:"-" gorm:"type:bytea"`
	CoverPhoto     []byte `json:"-" gorm:"type:bytea"`
	IsPrivate      bool   `json:"is_private" gorm:"default:false"`
}

// UserSummary is the public slice of a profile embedded in feed, chat and
// search payloads.
type UserSummary struct {
	ID        uint   `json:"id"`
	Username  string `json:"username"`
	Name      string `json:"name"`
	AvatarURL string `json:"avatar_url"`
}

// ProfileResponse is the full profile page payload. Photos ride along as
// data URIs; chat and search reference avatars by URL instead.
type ProfileResponse struct {
	ID           uint      `json:"id"`
	Name         string    `json:"name"`
	Username     string    `json:"username"`
	Bio          string    `json:"bio"`
	ProfilePhoto string    `json:"profile_photo,omitempty"`
	CoverPhoto   string    `json:"cover_photo,omitempty"`
	Followers    int64     `json:"followers"`
	Following    int64     `json:"following"`
	Posts        int64     `json:"posts"`
	IsFollowing  bool      `json:"is_following"`
	IsPrivate    bool      `json:"is_private"`
	Joined       time.Time `json:"joined"`
}

type SignupRequest struct {
	Name     string `json:"name" binding:"required,min=2" conform:"trim"`
	Email    string `json:"email" binding:"required,email" conform:"trim,lower"`
	Password string `json:"password" binding:"required"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email" conform:"trim,lower"`
	Password string `json:"password" binding:"required"`
}

type LoginResponse struct {
	ID          uint   `json:"id"`
	Username    string `json:"username"`
	Name        string `json:"name"`
	Email       string `json:"email"`
	AccessToken string `json:"token"`
}

type EditProfileRequest struct {
	Name     string `json:"name" conform:"trim"`
	Username string `json:"username" conform:"trim"`
	Bio      string `json:"bio" conform:"trim"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" binding:"required"`
	NewPassword     string `json:"newPassword" binding:"required"`
}

type ChangeEmailRequest struct {
	CurrentPassword string `json:"currentPassword" binding:"required"`
	NewEmail        string `json:"newEmail" binding:"required,email" conform:"trim,lower"`
}

func ValidatePassword(password string) error {
	passwordValidator := goval.New(goval.MinLength(6, errors.New("password cant be less than 6 characters")),
		goval.MaxLength(72, errors.New("password cant be more than 72 characters")))
	err := passwordValidator.Validate(password)
	return err
}

func ValidateWhiteSpaces(data interface{}) error {
	return conform.Strings(data)
}

func TranslateError(err error, trans ut.Translator) (errs []error) {
	if err == nil {
		return nil
	}
	validatorErrs := err.(validator.ValidationErrors)
	for _, e := range validatorErrs {
		translatedErr := fmt.Errorf(e.Translate(trans) + "; ")
		errs = append(errs, translatedErr)
	}
	return errs
}

// VerifyPassword verifies the collected password with the user's hashed password
func (u *User) VerifyPassword(password string) error {
	return bcrypt.CompareHashAndPassword([]byte(u.HashedPassword), []byte(password))
}
