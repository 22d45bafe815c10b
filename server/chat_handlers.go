package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/gatherlyhq/gatherly/models"
	"github.com/gatherlyhq/gatherly/server/response"
)

// handleCreateConversation opens (or returns) the conversation between the
// caller and the requested user.
func (s *Server) handleCreateConversation() gin.HandlerFunc {
	return func(c *gin.Context) {
		var request models.CreateConversationRequest
		if err := c.ShouldBindJSON(&request); err != nil {
			response.JSON(c, "", http.StatusBadRequest, nil, err)
			return
		}
		conversation, apiErr := s.ChatService.GetOrCreateConversation(currentUserID(c), request.OtherUserID)
		if apiErr != nil {
			response.JSON(c, "", apiErr.Status, nil, apiErr)
			return
		}
		response.JSON(c, "", http.StatusOK, conversation, nil)
	}
}

func (s *Server) handleGetConversations() gin.HandlerFunc {
	return func(c *gin.Context) {
		conversations, apiErr := s.ChatService.ListConversations(currentUserID(c))
		if apiErr != nil {
			response.JSON(c, "", apiErr.Status, nil, apiErr)
			return
		}
		response.JSON(c, "", http.StatusOK, conversations, nil)
	}
}

func (s *Server) handleSendMessage() gin.HandlerFunc {
	return func(c *gin.Context) {
		conversationID, ok := parseIDParam(c, "id")
		if !ok {
			return
		}
		var request models.SendMessageRequest
		if err := c.ShouldBindJSON(&request); err != nil {
			response.JSON(c, "", http.StatusBadRequest, nil, err)
			return
		}
		message, apiErr := s.ChatService.SendMessage(conversationID, currentUserID(c), request.Text)
		if apiErr != nil {
			response.JSON(c, "", apiErr.Status, nil, apiErr)
			return
		}
		response.JSON(c, "message sent", http.StatusCreated, message, nil)
	}
}

// handleGetMessages returns the full history and marks the counterpart's
// messages as read.
func (s *Server) handleGetMessages() gin.HandlerFunc {
	return func(c *gin.Context) {
		conversationID, ok := parseIDParam(c, "id")
		if !ok {
			return
		}
		messages, apiErr := s.ChatService.GetMessages(conversationID, currentUserID(c))
		if apiErr != nil {
			response.JSON(c, "", apiErr.Status, nil, apiErr)
			return
		}
		response.JSON(c, "", http.StatusOK, messages, nil)
	}
}

func (s *Server) handleGetUnreadCount() gin.HandlerFunc {
	return func(c *gin.Context) {
		count, apiErr := s.ChatService.UnreadCount(currentUserID(c))
		if apiErr != nil {
			response.JSON(c, "", apiErr.Status, nil, apiErr)
			return
		}
		response.JSON(c, "", http.StatusOK, gin.H{"unread_count": count}, nil)
	}
}

func (s *Server) handleMarkAllMessagesRead() gin.HandlerFunc {
	return func(c *gin.Context) {
		if apiErr := s.ChatService.MarkAllRead(currentUserID(c)); apiErr != nil {
			response.JSON(c, "", apiErr.Status, nil, apiErr)
			return
		}
		response.JSON(c, "messages marked read", http.StatusOK, nil, nil)
	}
}

func (s *Server) handleDeleteConversation() gin.HandlerFunc {
	return func(c *gin.Context) {
		conversationID, ok := parseIDParam(c, "id")
		if !ok {
			return
		}
		if apiErr := s.ChatService.DeleteConversation(conversationID, currentUserID(c)); apiErr != nil {
			response.JSON(c, "", apiErr.Status, nil, apiErr)
			return
		}
		response.JSON(c, "conversation deleted", http.StatusOK, nil, nil)
	}
}
