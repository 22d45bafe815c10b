package server

import (
	"io"
	"mime/multipart"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/gatherlyhq/gatherly/models"
	"github.com/gatherlyhq/gatherly/server/response"
)

func (s *Server) handleShowProfile() gin.HandlerFunc {
	return func(c *gin.Context) {
		username, _ := c.Get("username")
		name, ok := username.(string)
		if !ok {
			response.JSON(c, "", http.StatusUnauthorized, nil, nil)
			return
		}
		profile, apiErr := s.UserService.GetProfile(name, currentUserID(c))
		if apiErr != nil {
			response.JSON(c, "", apiErr.Status, nil, apiErr)
			return
		}
		response.JSON(c, "", http.StatusOK, profile, nil)
	}
}

func (s *Server) handleGetProfile() gin.HandlerFunc {
	return func(c *gin.Context) {
		profile, apiErr := s.UserService.GetProfile(c.Param("username"), currentUserID(c))
		if apiErr != nil {
			response.JSON(c, "", apiErr.Status, nil, apiErr)
			return
		}
		response.JSON(c, "", http.StatusOK, profile, nil)
	}
}

// handleEditUserProfile accepts multipart form data: the editable text
// fields plus optional profile_photo and cover_photo files.
func (s *Server) handleEditUserProfile() gin.HandlerFunc {
	return func(c *gin.Context) {
		request := models.EditProfileRequest{
			Name:     c.PostForm("name"),
			Username: c.PostForm("username"),
			Bio:      c.PostForm("bio"),
		}

		profilePhoto, err := readFormFile(c, "profile_photo")
		if err != nil {
			response.JSON(c, "could not read profile photo", http.StatusBadRequest, nil, err)
			return
		}
		coverPhoto, err := readFormFile(c, "cover_photo")
		if err != nil {
			response.JSON(c, "could not read cover photo", http.StatusBadRequest, nil, err)
			return
		}

		profile, apiErr := s.UserService.EditProfile(currentUserID(c), &request, profilePhoto, coverPhoto)
		if apiErr != nil {
			response.JSON(c, "", apiErr.Status, nil, apiErr)
			return
		}
		response.JSON(c, "profile updated", http.StatusOK, profile, nil)
	}
}

// handleProfilePhoto streams the stored photo bytes unmodified.
func (s *Server) handleProfilePhoto() gin.HandlerFunc {
	return func(c *gin.Context) {
		blob, contentType, apiErr := s.UserService.ProfilePhoto(c.Param("username"))
		if apiErr != nil {
			response.JSON(c, "", apiErr.Status, nil, apiErr)
			return
		}
		c.Data(http.StatusOK, contentType, blob)
	}
}

func (s *Server) handleCoverPhoto() gin.HandlerFunc {
	return func(c *gin.Context) {
		blob, contentType, apiErr := s.UserService.CoverPhoto(c.Param("username"))
		if apiErr != nil {
			response.JSON(c, "", apiErr.Status, nil, apiErr)
			return
		}
		c.Data(http.StatusOK, contentType, blob)
	}
}

// readFormFile reads an optional multipart file field. A missing field
// returns nil bytes and no error.
func readFormFile(c *gin.Context, field string) ([]byte, error) {
	fileHeader, err := c.FormFile(field)
	if err != nil {
		if err == http.ErrMissingFile || err == http.ErrNotMultipart {
			return nil, nil
		}
		if err == multipart.ErrMessageTooLarge {
			return nil, err
		}
		return nil, nil
	}
	file, err := fileHeader.Open()
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return io.ReadAll(file)
}
