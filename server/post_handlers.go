package server

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/gatherlyhq/gatherly/models"
	"github.com/gatherlyhq/gatherly/server/response"
)

// handleCreatePost accepts multipart form data: content plus an optional
// image file.
func (s *Server) handleCreatePost() gin.HandlerFunc {
	return func(c *gin.Context) {
		content := c.PostForm("content")
		image, err := readFormFile(c, "image")
		if err != nil {
			response.JSON(c, "could not read image", http.StatusBadRequest, nil, err)
			return
		}

		post, apiErr := s.PostService.CreatePost(currentUserID(c), content, image)
		if apiErr != nil {
			response.JSON(c, "", apiErr.Status, nil, apiErr)
			return
		}
		response.JSON(c, "post created", http.StatusCreated, post, nil)
	}
}

func (s *Server) handleGetFeed() gin.HandlerFunc {
	return func(c *gin.Context) {
		posts, apiErr := s.PostService.Feed(currentUserID(c))
		if apiErr != nil {
			response.JSON(c, "", apiErr.Status, nil, apiErr)
			return
		}
		response.JSON(c, "", http.StatusOK, posts, nil)
	}
}

func (s *Server) handleGetUserPosts() gin.HandlerFunc {
	return func(c *gin.Context) {
		posts, apiErr := s.PostService.PostsByUser(c.Param("username"), currentUserID(c))
		if apiErr != nil {
			response.JSON(c, "", apiErr.Status, nil, apiErr)
			return
		}
		response.JSON(c, "", http.StatusOK, posts, nil)
	}
}

func (s *Server) handleDeletePost() gin.HandlerFunc {
	return func(c *gin.Context) {
		postID, ok := parseIDParam(c, "id")
		if !ok {
			return
		}
		if apiErr := s.PostService.DeletePost(postID, currentUserID(c)); apiErr != nil {
			response.JSON(c, "", apiErr.Status, nil, apiErr)
			return
		}
		response.JSON(c, "post deleted", http.StatusOK, nil, nil)
	}
}

func (s *Server) handleLikePost() gin.HandlerFunc {
	return func(c *gin.Context) {
		postID, ok := parseIDParam(c, "id")
		if !ok {
			return
		}
		liked, likes, apiErr := s.PostService.ToggleLike(postID, currentUserID(c))
		if apiErr != nil {
			response.JSON(c, "", apiErr.Status, nil, apiErr)
			return
		}
		response.JSON(c, "", http.StatusOK, gin.H{"liked": liked, "likes": likes}, nil)
	}
}

func (s *Server) handleAddComment() gin.HandlerFunc {
	return func(c *gin.Context) {
		postID, ok := parseIDParam(c, "id")
		if !ok {
			return
		}
		var request models.CreateCommentRequest
		if err := c.ShouldBindJSON(&request); err != nil {
			response.JSON(c, "", http.StatusBadRequest, nil, err)
			return
		}
		comment, apiErr := s.PostService.AddComment(postID, currentUserID(c), request.Content)
		if apiErr != nil {
			response.JSON(c, "", apiErr.Status, nil, apiErr)
			return
		}
		response.JSON(c, "comment added", http.StatusCreated, comment, nil)
	}
}

func (s *Server) handleGetComments() gin.HandlerFunc {
	return func(c *gin.Context) {
		postID, ok := parseIDParam(c, "id")
		if !ok {
			return
		}
		comments, apiErr := s.PostService.Comments(postID)
		if apiErr != nil {
			response.JSON(c, "", apiErr.Status, nil, apiErr)
			return
		}
		response.JSON(c, "", http.StatusOK, comments, nil)
	}
}

func (s *Server) handleGetCommentCounts() gin.HandlerFunc {
	return func(c *gin.Context) {
		counts, apiErr := s.PostService.CommentCounts()
		if apiErr != nil {
			response.JSON(c, "", apiErr.Status, nil, apiErr)
			return
		}
		response.JSON(c, "", http.StatusOK, counts, nil)
	}
}

// parseIDParam parses a numeric path parameter, responding 400 itself when
// the value isn't a positive integer.
func parseIDParam(c *gin.Context, name string) (uint, bool) {
	raw := c.Param(name)
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		response.JSON(c, "invalid "+name, http.StatusBadRequest, nil, err)
		return 0, false
	}
	return uint(id), true
}
