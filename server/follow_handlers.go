package server

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/gatherlyhq/gatherly/server/response"
)

func (s *Server) handleFollowUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		if apiErr := s.FollowService.Follow(currentUserID(c), c.Param("username")); apiErr != nil {
			response.JSON(c, "", apiErr.Status, nil, apiErr)
			return
		}
		response.JSON(c, "followed", http.StatusOK, nil, nil)
	}
}

func (s *Server) handleUnfollowUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		if apiErr := s.FollowService.Unfollow(currentUserID(c), c.Param("username")); apiErr != nil {
			response.JSON(c, "", apiErr.Status, nil, apiErr)
			return
		}
		response.JSON(c, "unfollowed", http.StatusOK, nil, nil)
	}
}

func (s *Server) handleGetFollowers() gin.HandlerFunc {
	return func(c *gin.Context) {
		users, apiErr := s.FollowService.Followers(c.Param("username"))
		if apiErr != nil {
			response.JSON(c, "", apiErr.Status, nil, apiErr)
			return
		}
		response.JSON(c, "", http.StatusOK, users, nil)
	}
}

func (s *Server) handleGetFollowing() gin.HandlerFunc {
	return func(c *gin.Context) {
		users, apiErr := s.FollowService.Following(c.Param("username"))
		if apiErr != nil {
			response.JSON(c, "", apiErr.Status, nil, apiErr)
			return
		}
		response.JSON(c, "", http.StatusOK, users, nil)
	}
}

func (s *Server) handleGetSuggestedUsers() gin.HandlerFunc {
	return func(c *gin.Context) {
		limit, _ := strconv.Atoi(c.Query("limit"))
		users, apiErr := s.FollowService.Suggestions(currentUserID(c), limit)
		if apiErr != nil {
			response.JSON(c, "", apiErr.Status, nil, apiErr)
			return
		}
		response.JSON(c, "", http.StatusOK, users, nil)
	}
}

func (s *Server) handleSearchUsers() gin.HandlerFunc {
	return func(c *gin.Context) {
		limit, _ := strconv.Atoi(c.Query("limit"))
		users, apiErr := s.FollowService.Search(c.Query("q"), limit)
		if apiErr != nil {
			response.JSON(c, "", apiErr.Status, nil, apiErr)
			return
		}
		response.JSON(c, "", http.StatusOK, users, nil)
	}
}
