package main

import (
	log "github.com/sirupsen/logrus"

	"github.com/gatherlyhq/gatherly/config"
	"github.com/gatherlyhq/gatherly/db"
	"github.com/gatherlyhq/gatherly/realtime"
	"github.com/gatherlyhq/gatherly/server"
	"github.com/gatherlyhq/gatherly/services"
)

func main() {
	conf, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	if conf.Debug {
		log.SetLevel(log.DebugLevel)
	}

	gormDB := db.GetDB(conf)
	authRepo := db.NewAuthRepo(gormDB)
	postRepo := db.NewPostRepo(gormDB)
	followRepo := db.NewFollowRepo(gormDB)
	notificationRepo := db.NewNotificationRepo(gormDB)
	chatRepo := db.NewChatRepo(gormDB)

	hub := realtime.NewHub()

	mediaService := services.NewMediaService(conf)
	authService := services.NewAuthService(authRepo, conf)
	userService := services.NewUserService(conf, authRepo, followRepo, postRepo, mediaService)
	notificationService := services.NewNotificationService(notificationRepo, mediaService)
	followService := services.NewFollowService(followRepo, authRepo, mediaService, notificationService)
	postService := services.NewPostService(conf, postRepo, authRepo, followRepo, mediaService, notificationService)
	chatService := services.NewChatService(chatRepo, authRepo, mediaService, hub)

	s := &server.Server{
		Config:              conf,
		AuthRepository:      authRepo,
		AuthService:         authService,
		UserService:         userService,
		PostService:         postService,
		FollowService:       followService,
		NotificationService: notificationService,
		ChatService:         chatService,
		MediaService:        mediaService,
		Hub:                 hub,
	}

	s.Start()
}
