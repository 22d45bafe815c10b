package server

import (
	"fmt"
	"os"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func (s *Server) setupRouter() *gin.Engine {
	ginMode := os.Getenv("GIN_MODE")
	if ginMode == "test" {
		r := gin.New()
		s.defineRoutes(r)
		return r
	}

	r := gin.New()

	// LoggerWithFormatter middleware will write the logs to gin.DefaultWriter
	// By default gin.DefaultWriter = os.Stdout
	r.Use(gin.LoggerWithFormatter(func(param gin.LogFormatterParams) string {
		return fmt.Sprintf("%s - [%s] \"%s %s %s %d %s \"%s\" %s\"\n",
			param.ClientIP,
			param.TimeStamp.Format(time.RFC1123),
			param.Method,
			param.Path,
			param.Request.Proto,
			param.StatusCode,
			param.Latency,
			param.Request.UserAgent(),
			param.ErrorMessage,
		)
	}))
	r.Use(gin.Recovery())
	r.Use(metricsMiddleware())

	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{s.Config.AllowedOrigin},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE"},
		AllowHeaders:     []string{"Origin", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	r.MaxMultipartMemory = 32 << 20
	s.defineRoutes(r)

	return r
}

func (s *Server) defineRoutes(router *gin.Engine) {
	limitAuth := limitAuthAttempts(newAuthRateStore())

	router.GET("/metrics", metricsHandler())

	apirouter := router.Group("/api")
	apirouter.POST("/auth/signup", limitAuth, s.handleSignup())
	apirouter.POST("/auth/login", limitAuth, s.handleLogin())

	// Photo byte streams are public so avatar URLs work in plain <img> tags.
	apirouter.GET("/users/:username/profilephoto", s.handleProfilePhoto())
	apirouter.GET("/users/:username/coverphoto", s.handleCoverPhoto())

	// Search and comment totals are public too, like the photo streams.
	apirouter.GET("/search/users", s.handleSearchUsers())
	apirouter.GET("/commentcount", s.handleGetCommentCounts())

	apirouter.GET("/ws", s.handleWebSocket())

	authorized := apirouter.Group("/")
	authorized.Use(s.Authorize())
	authorized.GET("/logout", s.handleLogout())
	authorized.GET("/me", s.handleShowProfile())
	authorized.PUT("/me", s.handleEditUserProfile())
	authorized.PUT("/me/password", s.handleChangePassword())
	authorized.PUT("/me/email", s.handleChangeEmail())
	authorized.DELETE("/me", s.handleDeleteAccount())

	authorized.GET("/users/:username", s.handleGetProfile())
	authorized.GET("/users/:username/posts", s.handleGetUserPosts())
	authorized.POST("/users/:username/follow", s.handleFollowUser())
	authorized.DELETE("/users/:username/follow", s.handleUnfollowUser())
	authorized.GET("/users/:username/followers", s.handleGetFollowers())
	authorized.GET("/users/:username/following", s.handleGetFollowing())
	authorized.GET("/suggestions", s.handleGetSuggestedUsers())

	authorized.POST("/posts", s.handleCreatePost())
	authorized.GET("/posts", s.handleGetFeed())
	authorized.DELETE("/posts/:id", s.handleDeletePost())
	authorized.PUT("/posts/:id/like", s.handleLikePost())
	authorized.POST("/posts/:id/comments", s.handleAddComment())
	authorized.GET("/posts/:id/comments", s.handleGetComments())

	authorized.GET("/notifications", s.handleGetNotifications())
	authorized.PUT("/notifications/read", s.handleMarkNotificationsRead())
	authorized.GET("/notifications/counts", s.handleGetNotificationCounts())
	authorized.DELETE("/notifications/:id", s.handleDeleteNotification())
	authorized.DELETE("/notifications", s.handleClearNotifications())

	authorized.POST("/conversations", s.handleCreateConversation())
	authorized.GET("/conversations", s.handleGetConversations())
	authorized.DELETE("/conversations/:id", s.handleDeleteConversation())
	authorized.GET("/conversations/:id/messages", s.handleGetMessages())
	authorized.POST("/conversations/:id/messages", s.handleSendMessage())
	authorized.GET("/messages/unread-count", s.handleGetUnreadCount())
	authorized.PUT("/messages/read", s.handleMarkAllMessagesRead())
	// Flat history path kept for clients that address messages by
	// conversation id directly; same handler as the nested route.
	authorized.GET("/messages/:id", s.handleGetMessages())
}
