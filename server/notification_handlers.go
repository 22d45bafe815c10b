package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/gatherlyhq/gatherly/server/response"
)

func (s *Server) handleGetNotifications() gin.HandlerFunc {
	return func(c *gin.Context) {
		notifications, apiErr := s.NotificationService.List(currentUserID(c))
		if apiErr != nil {
			response.JSON(c, "", apiErr.Status, nil, apiErr)
			return
		}
		response.JSON(c, "", http.StatusOK, notifications, nil)
	}
}

func (s *Server) handleMarkNotificationsRead() gin.HandlerFunc {
	return func(c *gin.Context) {
		if apiErr := s.NotificationService.MarkAllRead(currentUserID(c)); apiErr != nil {
			response.JSON(c, "", apiErr.Status, nil, apiErr)
			return
		}
		response.JSON(c, "notifications marked read", http.StatusOK, nil, nil)
	}
}

func (s *Server) handleGetNotificationCounts() gin.HandlerFunc {
	return func(c *gin.Context) {
		total, unread, apiErr := s.NotificationService.Counts(currentUserID(c))
		if apiErr != nil {
			response.JSON(c, "", apiErr.Status, nil, apiErr)
			return
		}
		response.JSON(c, "", http.StatusOK, gin.H{"total": total, "unread": unread}, nil)
	}
}

func (s *Server) handleDeleteNotification() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := parseIDParam(c, "id")
		if !ok {
			return
		}
		if apiErr := s.NotificationService.Delete(id, currentUserID(c)); apiErr != nil {
			response.JSON(c, "", apiErr.Status, nil, apiErr)
			return
		}
		response.JSON(c, "notification deleted", http.StatusOK, nil, nil)
	}
}

func (s *Server) handleClearNotifications() gin.HandlerFunc {
	return func(c *gin.Context) {
		if apiErr := s.NotificationService.DeleteAll(currentUserID(c)); apiErr != nil {
			response.JSON(c, "", apiErr.Status, nil, apiErr)
			return
		}
		response.JSON(c, "notifications cleared", http.StatusOK, nil, nil)
	}
}
