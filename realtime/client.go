package realtime

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
	sendBufferSize = 64
)

// MessageSink persists and fans out a chat message received over the
// socket. The hub never touches the store itself; durability stays ahead of
// publishing because the sink appends before the hub hears about the
// message.
type MessageSink interface {
	SendMessage(conversationID, senderID uint, text string) error
}

// Client is one websocket connection. It belongs to at most one user's
// personal channel and any number of conversation rooms; all membership is
// dropped when the connection goes away.
type Client struct {
	ID   string
	hub  *Hub
	conn *websocket.Conn
	send chan []byte
	sink MessageSink

	// guarded by hub.mu
	userID uint
	rooms  map[uint]struct{}
}

func NewClient(hub *Hub, conn *websocket.Conn, sink MessageSink) *Client {
	return &Client{
		ID:    uuid.New().String(),
		hub:   hub,
		conn:  conn,
		send:  make(chan []byte, sendBufferSize),
		sink:  sink,
		rooms: make(map[uint]struct{}),
	}
}

// Serve runs the write pump in the background and blocks on the read pump
// until the connection drops.
func (c *Client) Serve() {
	go c.writePump()
	c.readPump()
}

// trySend queues the frame without blocking fan-out. A client that can't
// drain its buffer loses frames; delivery is best effort while connected.
func (c *Client) trySend(event []byte) {
	select {
	case c.send <- event:
	default:
		log.Printf("client %s send buffer full, dropping frame", c.ID)
	}
}

type registerPayload struct {
	UserID uint `json:"user_id"`
}

type joinRoomPayload struct {
	ConversationID uint `json:"conversation_id"`
}

type sendMessagePayload struct {
	ConversationID uint   `json:"conversation_id"`
	SenderID       uint   `json:"sender_id"`
	Text           string `json:"text"`
}

func (c *Client) readPump() {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close()
		log.Printf("socket disconnected: %s", c.ID)
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		_, raw, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("socket read error: %v", err)
			}
			return
		}

		var event Event
		if err := json.Unmarshal(raw, &event); err != nil {
			log.Printf("client %s sent malformed event: %v", c.ID, err)
			continue
		}
		c.handleEvent(event)
	}
}

func (c *Client) handleEvent(event Event) {
	switch event.Event {
	case EventRegister:
		var payload registerPayload
		if err := json.Unmarshal(event.Data, &payload); err != nil {
			return
		}
		c.hub.Register(c, payload.UserID)

	case EventJoinRoom:
		var payload joinRoomPayload
		if err := json.Unmarshal(event.Data, &payload); err != nil {
			return
		}
		c.hub.JoinRoom(c, payload.ConversationID)

	case EventSendMessage:
		var payload sendMessagePayload
		if err := json.Unmarshal(event.Data, &payload); err != nil {
			return
		}
		senderID := payload.SenderID
		if senderID == 0 {
			senderID = c.userID
		}
		// Fire and forget: there is no response channel on this path, so
		// failures are logged and the client reconciles via history.
		if err := c.sink.SendMessage(payload.ConversationID, senderID, payload.Text); err != nil {
			log.Printf("socket sendMessage error: %v", err)
		}

	default:
		log.Printf("client %s sent unknown event %q", c.ID, event.Event)
	}
}

func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case frame, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// Upgrader is shared by the websocket endpoint. Origin checking is left to
// the HTTP layer's CORS config.
var Upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}
