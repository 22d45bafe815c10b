package services

import (
	"net/http"
	"strings"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/gatherlyhq/gatherly/db"
	apiError "github.com/gatherlyhq/gatherly/errors"
	"github.com/gatherlyhq/gatherly/models"
)

// RealtimePublisher is the hub as seen from the chat service. Publishing is
// fire and forget: it happens only after the row is committed and can never
// fail a request.
type RealtimePublisher interface {
	PublishMessage(msg models.MessageResponse, user1ID, user2ID uint)
	PublishConversationDeleted(conversationID, user1ID, user2ID uint)
}

// ChatService manages conversations and their message logs.
type ChatService interface {
	GetOrCreateConversation(userID, otherID uint) (*models.ConversationResponse, *apiError.Error)
	ListConversations(userID uint) ([]models.ConversationResponse, *apiError.Error)
	SendMessage(conversationID, senderID uint, text string) (*models.MessageResponse, *apiError.Error)
	GetMessages(conversationID, userID uint) ([]models.MessageResponse, *apiError.Error)
	UnreadCount(userID uint) (int64, *apiError.Error)
	MarkAllRead(userID uint) *apiError.Error
	DeleteConversation(conversationID, userID uint) *apiError.Error
}

type chatService struct {
	chatRepo  db.ChatRepository
	authRepo  db.AuthRepository
	media     MediaService
	publisher RealtimePublisher
}

// NewChatService instantiates a chat service
func NewChatService(chatRepo db.ChatRepository, authRepo db.AuthRepository, media MediaService, publisher RealtimePublisher) ChatService {
	return &chatService{
		chatRepo:  chatRepo,
		authRepo:  authRepo,
		media:     media,
		publisher: publisher,
	}
}

// GetOrCreateConversation opens (or returns) the single conversation between
// the caller and otherID. Starting a thread with yourself or with a user
// that doesn't exist is rejected before the store is touched.
func (s *chatService) GetOrCreateConversation(userID, otherID uint) (*models.ConversationResponse, *apiError.Error) {
	if otherID == userID {
		return nil, apiError.New("cannot start a conversation with yourself", http.StatusBadRequest)
	}

	other, err := s.authRepo.FindUserByID(otherID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apiError.New("user not found", http.StatusNotFound)
		}
		log.Printf("finding conversation counterpart: %v", err)
		return nil, apiError.ErrInternalServerError
	}

	conv, err := s.chatRepo.GetOrCreateConversation(userID, otherID)
	if err != nil {
		log.Printf("get or create conversation: %v", err)
		return nil, apiError.ErrInternalServerError
	}

	unread, err := s.chatRepo.UnreadCountForConversation(conv.ID, userID)
	if err != nil {
		log.Printf("unread count for conversation %d: %v", conv.ID, err)
		return nil, apiError.ErrInternalServerError
	}

	return &models.ConversationResponse{
		ID: conv.ID,
		OtherUser: models.UserSummary{
			ID:        other.ID,
			Username:  other.Username,
			Name:      other.Name,
			AvatarURL: s.media.AvatarURL(other.Username),
		},
		UnreadCount: unread,
		UpdatedAt:   conv.UpdatedAt,
	}, nil
}

func (s *chatService) ListConversations(userID uint) ([]models.ConversationResponse, *apiError.Error) {
	rows, err := s.chatRepo.ListConversationSummaries(userID)
	if err != nil {
		log.Printf("listing conversations for user %d: %v", userID, err)
		return nil, apiError.ErrInternalServerError
	}

	conversations := make([]models.ConversationResponse, 0, len(rows))
	for _, row := range rows {
		conversations = append(conversations, models.ConversationResponse{
			ID: row.ID,
			OtherUser: models.UserSummary{
				ID:        row.OtherID,
				Username:  row.OtherUsername,
				Name:      row.OtherName,
				AvatarURL: s.media.AvatarURL(row.OtherUsername),
			},
			UnreadCount: row.UnreadCount,
			UpdatedAt:   row.UpdatedAt,
		})
	}
	return conversations, nil
}

// SendMessage appends to the conversation's log and then fans the message
// out over the hub. The append commits first; a message is never announced
// before it is durable, and hub delivery being best effort never rolls the
// append back.
func (s *chatService) SendMessage(conversationID, senderID uint, text string) (*models.MessageResponse, *apiError.Error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, apiError.New("message text is required", http.StatusBadRequest)
	}

	conv, err := s.chatRepo.GetConversation(conversationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apiError.New("conversation not found", http.StatusNotFound)
		}
		log.Printf("loading conversation %d: %v", conversationID, err)
		return nil, apiError.ErrInternalServerError
	}
	if !conv.HasParticipant(senderID) {
		return nil, apiError.ErrForbidden
	}

	sender, err := s.authRepo.FindUserByID(senderID)
	if err != nil {
		log.Printf("loading sender %d: %v", senderID, err)
		return nil, apiError.ErrInternalServerError
	}

	msg := &models.Message{
		ConversationID: conversationID,
		SenderID:       senderID,
		Content:        text,
	}
	if err := s.chatRepo.CreateMessage(msg); err != nil {
		log.Printf("appending message to conversation %d: %v", conversationID, err)
		return nil, apiError.ErrInternalServerError
	}

	response := models.MessageResponse{
		ID:             msg.ID,
		ConversationID: msg.ConversationID,
		SenderID:       msg.SenderID,
		Text:           msg.Content,
		CreatedAt:      msg.CreatedAt,
		Sender: models.UserSummary{
			ID:        sender.ID,
			Username:  sender.Username,
			Name:      sender.Name,
			AvatarURL: s.media.AvatarURL(sender.Username),
		},
	}

	s.publisher.PublishMessage(response, conv.User1ID, conv.User2ID)
	return &response, nil
}

// GetMessages returns the conversation's full history in send order and, as
// a side effect, marks every message from the counterpart as read.
func (s *chatService) GetMessages(conversationID, userID uint) ([]models.MessageResponse, *apiError.Error) {
	conv, err := s.chatRepo.GetConversation(conversationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apiError.New("conversation not found", http.StatusNotFound)
		}
		log.Printf("loading conversation %d: %v", conversationID, err)
		return nil, apiError.ErrInternalServerError
	}
	if !conv.HasParticipant(userID) {
		return nil, apiError.ErrForbidden
	}

	msgs, err := s.chatRepo.ListMessages(conversationID)
	if err != nil {
		log.Printf("listing messages for conversation %d: %v", conversationID, err)
		return nil, apiError.ErrInternalServerError
	}

	if err := s.chatRepo.MarkMessagesRead(conversationID, userID); err != nil {
		// History is still useful without the receipts; the next fetch
		// retries them.
		log.Printf("marking conversation %d read for user %d: %v", conversationID, userID, err)
	}

	responses := make([]models.MessageResponse, 0, len(msgs))
	for _, m := range msgs {
		responses = append(responses, models.MessageResponse{
			ID:             m.ID,
			ConversationID: m.ConversationID,
			SenderID:       m.SenderID,
			Text:           m.Content,
			CreatedAt:      m.CreatedAt,
			Sender: models.UserSummary{
				ID:        m.Sender.ID,
				Username:  m.Sender.Username,
				Name:      m.Sender.Name,
				AvatarURL: s.media.AvatarURL(m.Sender.Username),
			},
		})
	}
	return responses, nil
}

func (s *chatService) UnreadCount(userID uint) (int64, *apiError.Error) {
	count, err := s.chatRepo.UnreadCount(userID)
	if err != nil {
		log.Printf("unread count for user %d: %v", userID, err)
		return 0, apiError.ErrInternalServerError
	}
	return count, nil
}

// MarkAllRead clears the caller's unread state in every conversation.
func (s *chatService) MarkAllRead(userID uint) *apiError.Error {
	if err := s.chatRepo.MarkAllRead(userID); err != nil {
		log.Printf("marking all conversations read for user %d: %v", userID, err)
		return apiError.ErrInternalServerError
	}
	return nil
}

// DeleteConversation removes the thread for both participants and notifies
// them over the hub.
func (s *chatService) DeleteConversation(conversationID, userID uint) *apiError.Error {
	conv, err := s.chatRepo.GetConversation(conversationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return apiError.New("conversation not found", http.StatusNotFound)
		}
		log.Printf("loading conversation %d: %v", conversationID, err)
		return apiError.ErrInternalServerError
	}
	if !conv.HasParticipant(userID) {
		return apiError.ErrForbidden
	}

	if err := s.chatRepo.DeleteConversation(conversationID); err != nil {
		log.Printf("deleting conversation %d: %v", conversationID, err)
		return apiError.ErrInternalServerError
	}

	s.publisher.PublishConversationDeleted(conversationID, conv.User1ID, conv.User2ID)
	return nil
}

// SocketSink adapts the chat service to the websocket read loop, which only
// needs a way to hand off inbound sendMessage events.
type SocketSink struct {
	chat ChatService
}

// NewSocketSink wraps the chat service for use by websocket clients.
func NewSocketSink(chat ChatService) *SocketSink {
	return &SocketSink{chat: chat}
}

func (s *SocketSink) SendMessage(conversationID, senderID uint, text string) error {
	if _, err := s.chat.SendMessage(conversationID, senderID, text); err != nil {
		return err
	}
	return nil
}
