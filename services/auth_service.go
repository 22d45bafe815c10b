package services

import (
	"fmt"
	"math/rand"
	"net/http"
	"strings"
	"unicode"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/gatherlyhq/gatherly/config"
	"github.com/gatherlyhq/gatherly/db"
	apiError "github.com/gatherlyhq/gatherly/errors"
	"github.com/gatherlyhq/gatherly/models"
	"github.com/gatherlyhq/gatherly/services/jwt"
)

// AuthService handles account lifecycle and credentials.
type AuthService interface {
	SignupUser(request *models.SignupRequest) (*models.User, *apiError.Error)
	LoginUser(request *models.LoginRequest) (*models.LoginResponse, *apiError.Error)
	Logout(token string) *apiError.Error
	ChangePassword(userID uint, request *models.ChangePasswordRequest) *apiError.Error
	ChangeEmail(userID uint, request *models.ChangeEmailRequest) *apiError.Error
	DeleteAccount(userID uint) *apiError.Error
}

type authService struct {
	Config   *config.Config
	authRepo db.AuthRepository
}

// NewAuthService instantiates an auth service
func NewAuthService(authRepo db.AuthRepository, conf *config.Config) AuthService {
	return &authService{
		Config:   conf,
		authRepo: authRepo,
	}
}

// SignupUser creates an account. The handle is derived from the display
// name plus a random suffix and retried until it is free.
func (a *authService) SignupUser(request *models.SignupRequest) (*models.User, *apiError.Error) {
	if err := models.ValidateWhiteSpaces(request); err != nil {
		return nil, apiError.New(err.Error(), http.StatusBadRequest)
	}
	if err := models.ValidatePassword(request.Password); err != nil {
		return nil, apiError.New(err.Error(), http.StatusBadRequest)
	}
	if err := a.authRepo.IsEmailExist(request.Email); err != nil {
		return nil, apiError.New("email already in use", http.StatusConflict)
	}

	username, err := a.generateUsername(request.Name)
	if err != nil {
		log.Printf("generating username: %v", err)
		return nil, apiError.ErrInternalServerError
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(request.Password), bcrypt.DefaultCost)
	if err != nil {
		log.Printf("hashing password: %v", err)
		return nil, apiError.ErrInternalServerError
	}

	user := &models.User{
		Name:           request.Name,
		Username:       username,
		Email:          request.Email,
		HashedPassword: string(hashed),
	}
	created, err := a.authRepo.CreateUser(user)
	if err != nil {
		return nil, apiError.GetUniqueContraintError(err)
	}
	return created, nil
}

// generateUsername slugs the display name and appends digits until the
// handle is unused.
func (a *authService) generateUsername(name string) (string, error) {
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	base := b.String()
	if base == "" {
		base = "user"
	}
	// Truncate by runes so multibyte letters can't be cut mid-sequence.
	if runes := []rune(base); len(runes) > 20 {
		base = string(runes[:20])
	}

	for i := 0; i < 10; i++ {
		candidate := fmt.Sprintf("%s%04d", base, rand.Intn(10000))
		if err := a.authRepo.IsUsernameExist(candidate); err == nil {
			return candidate, nil
		}
	}
	return "", errors.New("could not find a free username")
}

func (a *authService) LoginUser(request *models.LoginRequest) (*models.LoginResponse, *apiError.Error) {
	user, err := a.authRepo.FindUserByEmail(request.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apiError.ErrInvalidPassword
		}
		log.Printf("finding user by email: %v", err)
		return nil, apiError.ErrInternalServerError
	}
	if err := user.VerifyPassword(request.Password); err != nil {
		return nil, apiError.ErrInvalidPassword
	}

	token, err := jwt.GenerateToken(user.ID, user.Username, user.Email, a.Config.JWTSecret)
	if err != nil {
		log.Printf("generating token: %v", err)
		return nil, apiError.ErrInternalServerError
	}

	return &models.LoginResponse{
		ID:          user.ID,
		Username:    user.Username,
		Name:        user.Name,
		Email:       user.Email,
		AccessToken: token,
	}, nil
}

// Logout blacklists the presented token so it can't be replayed until it
// expires on its own.
func (a *authService) Logout(token string) *apiError.Error {
	if err := a.authRepo.AddToBlackList(&models.Blacklist{Token: token}); err != nil {
		log.Printf("blacklisting token: %v", err)
		return apiError.ErrInternalServerError
	}
	return nil
}

func (a *authService) ChangePassword(userID uint, request *models.ChangePasswordRequest) *apiError.Error {
	user, err := a.authRepo.FindUserByID(userID)
	if err != nil {
		log.Printf("finding user %d: %v", userID, err)
		return apiError.ErrInternalServerError
	}
	if err := user.VerifyPassword(request.CurrentPassword); err != nil {
		return apiError.New("current password is incorrect", http.StatusUnauthorized)
	}
	if err := models.ValidatePassword(request.NewPassword); err != nil {
		return apiError.New(err.Error(), http.StatusBadRequest)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(request.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		log.Printf("hashing password: %v", err)
		return apiError.ErrInternalServerError
	}
	if err := a.authRepo.UpdatePassword(userID, string(hashed)); err != nil {
		log.Printf("updating password for user %d: %v", userID, err)
		return apiError.ErrInternalServerError
	}
	return nil
}

func (a *authService) ChangeEmail(userID uint, request *models.ChangeEmailRequest) *apiError.Error {
	user, err := a.authRepo.FindUserByID(userID)
	if err != nil {
		log.Printf("finding user %d: %v", userID, err)
		return apiError.ErrInternalServerError
	}
	if err := user.VerifyPassword(request.CurrentPassword); err != nil {
		return apiError.New("current password is incorrect", http.StatusUnauthorized)
	}
	if err := a.authRepo.IsEmailExist(request.NewEmail); err != nil {
		return apiError.New("email already in use", http.StatusConflict)
	}
	if err := a.authRepo.UpdateEmail(userID, request.NewEmail); err != nil {
		return apiError.GetUniqueContraintError(err)
	}
	return nil
}

// DeleteAccount removes the user and everything they own, including both
// sides of every conversation they participate in.
func (a *authService) DeleteAccount(userID uint) *apiError.Error {
	if err := a.authRepo.DeleteUser(userID); err != nil {
		log.Printf("deleting user %d: %v", userID, err)
		return apiError.ErrInternalServerError
	}
	return nil
}
