package server

import (
	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"

	"github.com/gatherlyhq/gatherly/realtime"
	"github.com/gatherlyhq/gatherly/services"
	"github.com/gatherlyhq/gatherly/services/jwt"
)

// handleWebSocket upgrades the connection and runs the client's pumps. A
// valid ?token= query parameter registers the connection to the caller's
// personal channel right away; otherwise the client sends a register event.
// Browsers can't set an Authorization header on a websocket handshake,
// which is why the token rides in the query string here.
func (s *Server) handleWebSocket() gin.HandlerFunc {
	return func(c *gin.Context) {
		conn, err := realtime.Upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			// Upgrader has already written the handshake error.
			log.Printf("websocket upgrade failed: %v", err)
			return
		}

		client := realtime.NewClient(s.Hub, conn, services.NewSocketSink(s.ChatService))

		if token := c.Query("token"); token != "" && !s.AuthRepository.IsTokenInBlacklist(token) {
			if claims, err := jwt.ValidateAndGetClaims(token, s.Config.JWTSecret); err == nil {
				if id, ok := claims["id"].(float64); ok {
					s.Hub.Register(client, uint(id))
				}
			}
		}

		websocketConnections.Inc()
		defer websocketConnections.Dec()
		log.Printf("socket connected: %s", client.ID)
		client.Serve()
	}
}
