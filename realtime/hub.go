package realtime

import (
	"encoding/json"
	"sync"

	log "github.com/sirupsen/logrus"

	"github.com/gatherlyhq/gatherly/models"
)

// Event is the wire envelope for both directions of the socket.
type Event struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

const (
	// client -> server
	EventRegister    = "register"
	EventJoinRoom    = "joinRoom"
	EventSendMessage = "sendMessage"

	// server -> client
	EventReceiveMessage      = "receiveMessage"
	EventChatPing            = "chat:ping"
	EventConversationDeleted = "conversationDeleted"
)

// NewEvent marshals a server event. Marshalling our own payload types can't
// fail in practice; a failure is logged and yields nil, which sends drop.
func NewEvent(name string, payload interface{}) []byte {
	data, err := json.Marshal(payload)
	if err != nil {
		log.Errorf("marshal %s event: %v", name, err)
		return nil
	}
	frame, err := json.Marshal(Event{Event: name, Data: data})
	if err != nil {
		log.Errorf("marshal %s envelope: %v", name, err)
		return nil
	}
	return frame
}

// Hub is the in-process fan-out registry. It maps each registered client to
// a personal channel keyed by user id and each open conversation view to a
// room keyed by conversation id. It holds no authoritative data: membership
// is pure routing state and vanishes with the connection.
type Hub struct {
	mu       sync.RWMutex
	personal map[uint]map[*Client]struct{}
	rooms    map[uint]map[*Client]struct{}
}

func NewHub() *Hub {
	return &Hub{
		personal: make(map[uint]map[*Client]struct{}),
		rooms:    make(map[uint]map[*Client]struct{}),
	}
}

// Register joins the client to userID's personal channel. Idempotent; a
// zero userID means the caller never identified itself, so nothing happens.
func (h *Hub) Register(c *Client, userID uint) {
	if userID == 0 {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	c.userID = userID
	if _, ok := h.personal[userID]; !ok {
		h.personal[userID] = make(map[*Client]struct{})
	}
	h.personal[userID][c] = struct{}{}
}

// JoinRoom joins the client to a conversation room. Idempotent; zero id is
// a no-op.
func (h *Hub) JoinRoom(c *Client, conversationID uint) {
	if conversationID == 0 {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.rooms[conversationID]; !ok {
		h.rooms[conversationID] = make(map[*Client]struct{})
	}
	h.rooms[conversationID][c] = struct{}{}
	c.rooms[conversationID] = struct{}{}
}

// Unregister drops every membership the client holds. Terminal for the
// connection; no persisted state changes.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if clients, ok := h.personal[c.userID]; ok {
		delete(clients, c)
		if len(clients) == 0 {
			delete(h.personal, c.userID)
		}
	}
	for roomID := range c.rooms {
		if clients, ok := h.rooms[roomID]; ok {
			delete(clients, c)
			if len(clients) == 0 {
				delete(h.rooms, roomID)
			}
		}
	}
	c.rooms = make(map[uint]struct{})
}

// NotifyUser sends an event to every connection on a user's personal channel.
func (h *Hub) NotifyUser(userID uint, event []byte) {
	if event == nil {
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.personal[userID] {
		c.trySend(event)
	}
}

// BroadcastRoom sends an event to every connection in a conversation room.
func (h *Hub) BroadcastRoom(conversationID uint, event []byte) {
	if event == nil {
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.rooms[conversationID] {
		c.trySend(event)
	}
}

// PublishMessage fans a freshly persisted message out on both planes: the
// full payload to the conversation room for open chat views, and a light
// ping to each participant's personal channel so sidebars and badges update
// even when the chat isn't open.
func (h *Hub) PublishMessage(msg models.MessageResponse, user1ID, user2ID uint) {
	h.BroadcastRoom(msg.ConversationID, NewEvent(EventReceiveMessage, msg))

	ping := NewEvent(EventChatPing, map[string]uint{"conversation_id": msg.ConversationID})
	h.NotifyUser(user1ID, ping)
	h.NotifyUser(user2ID, ping)
}

// PublishConversationDeleted tells both participants the thread is gone.
func (h *Hub) PublishConversationDeleted(conversationID, user1ID, user2ID uint) {
	event := NewEvent(EventConversationDeleted, map[string]uint{"id": conversationID})
	h.BroadcastRoom(conversationID, event)
	h.NotifyUser(user1ID, event)
	h.NotifyUser(user2ID, event)
}
