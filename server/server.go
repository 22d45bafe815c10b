package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/gatherlyhq/gatherly/config"
	"github.com/gatherlyhq/gatherly/db"
	"github.com/gatherlyhq/gatherly/realtime"
	"github.com/gatherlyhq/gatherly/services"
)

// Server wires the HTTP layer to the services and repositories.
type Server struct {
	Config              *config.Config
	AuthRepository      db.AuthRepository
	AuthService         services.AuthService
	UserService         services.UserService
	PostService         services.PostService
	FollowService       services.FollowService
	NotificationService services.NotificationService
	ChatService         services.ChatService
	MediaService        services.MediaService
	Hub                 *realtime.Hub
}

// Start runs the HTTP server until SIGINT or SIGTERM, then drains in-flight
// requests before exiting. Websocket connections are closed with the server.
func (s *Server) Start() {
	r := s.setupRouter()

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", s.Config.Port),
		Handler: r,
	}

	go func() {
		log.Printf("listening on %s", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	log.Println("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("server forced to shutdown: %v", err)
	}
	log.Println("server exiting")
}
