package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/gatherlyhq/gatherly/models"
	"github.com/gatherlyhq/gatherly/server/response"
)

func (s *Server) handleSignup() gin.HandlerFunc {
	return func(c *gin.Context) {
		var request models.SignupRequest
		if err := c.ShouldBindJSON(&request); err != nil {
			response.JSON(c, "", http.StatusBadRequest, nil, err)
			return
		}

		user, apiErr := s.AuthService.SignupUser(&request)
		if apiErr != nil {
			response.JSON(c, "", apiErr.Status, nil, apiErr)
			return
		}
		response.JSON(c, "signup successful", http.StatusCreated, gin.H{
			"id":       user.ID,
			"username": user.Username,
			"name":     user.Name,
			"email":    user.Email,
		}, nil)
	}
}

func (s *Server) handleLogin() gin.HandlerFunc {
	return func(c *gin.Context) {
		var request models.LoginRequest
		if err := c.ShouldBindJSON(&request); err != nil {
			response.JSON(c, "", http.StatusBadRequest, nil, err)
			return
		}

		login, apiErr := s.AuthService.LoginUser(&request)
		if apiErr != nil {
			response.JSON(c, "", apiErr.Status, nil, apiErr)
			return
		}
		response.JSON(c, "login successful", http.StatusOK, login, nil)
	}
}

func (s *Server) handleLogout() gin.HandlerFunc {
	return func(c *gin.Context) {
		token, _ := c.Get("access_token")
		accessToken, ok := token.(string)
		if !ok || accessToken == "" {
			response.JSON(c, "", http.StatusUnauthorized, nil, nil)
			return
		}
		if apiErr := s.AuthService.Logout(accessToken); apiErr != nil {
			response.JSON(c, "", apiErr.Status, nil, apiErr)
			return
		}
		response.JSON(c, "logout successful", http.StatusOK, nil, nil)
	}
}

func (s *Server) handleChangePassword() gin.HandlerFunc {
	return func(c *gin.Context) {
		var request models.ChangePasswordRequest
		if err := c.ShouldBindJSON(&request); err != nil {
			response.JSON(c, "", http.StatusBadRequest, nil, err)
			return
		}
		if apiErr := s.AuthService.ChangePassword(currentUserID(c), &request); apiErr != nil {
			response.JSON(c, "", apiErr.Status, nil, apiErr)
			return
		}
		response.JSON(c, "password updated", http.StatusOK, nil, nil)
	}
}

func (s *Server) handleChangeEmail() gin.HandlerFunc {
	return func(c *gin.Context) {
		var request models.ChangeEmailRequest
		if err := c.ShouldBindJSON(&request); err != nil {
			response.JSON(c, "", http.StatusBadRequest, nil, err)
			return
		}
		if apiErr := s.AuthService.ChangeEmail(currentUserID(c), &request); apiErr != nil {
			response.JSON(c, "", apiErr.Status, nil, apiErr)
			return
		}
		response.JSON(c, "email updated", http.StatusOK, nil, nil)
	}
}

func (s *Server) handleDeleteAccount() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := currentUserID(c)
		if apiErr := s.AuthService.DeleteAccount(userID); apiErr != nil {
			response.JSON(c, "", apiErr.Status, nil, apiErr)
			return
		}
		response.JSON(c, "account deleted", http.StatusOK, nil, nil)
	}
}
