package main

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"mingle/config"
	"mingle/handlers"
	"mingle/logger"
	"mingle/middleware"
	"mingle/notify"
	"mingle/store"
	"mingle/websocket"
)

func main() {
	config.Load()
	logger.Setup(config.Cfg.IsDevelopment())

	dsn := config.Cfg.MysqlDSN
	if config.Cfg.DBDriver == "sqlite" {
		dsn = config.Cfg.SQLiteDSN
	}
	chatStore, err := store.Open(config.Cfg.DBDriver, dsn)
	if err != nil {
		log.Fatal().Err(err).Str("driver", config.Cfg.DBDriver).Msg("failed to open store")
	}
	defer chatStore.Close()
	log.Info().Str("driver", config.Cfg.DBDriver).Msg("store connected")

	websocket.InitHub()
	websocket.Store = chatStore

	sinks := notify.Multi{notify.NewHubSink(websocket.HubInstance)}
	if config.Cfg.RedisURL != "" {
		redisSink, err := notify.NewRedisSink(context.Background(), config.Cfg.RedisURL)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to redis")
		}
		defer redisSink.Close()
		sinks = append(sinks, redisSink)
		log.Info().Msg("redis notification sink connected")
	}

	handlers.Store = chatStore
	handlers.Notifier = sinks

	if !config.Cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger())
	r.Use(middleware.Metrics())
	r.Use(middleware.CORSMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	auth := r.Group("/api/auth")
	{
		auth.POST("/register", handlers.Register)
		auth.POST("/login", handlers.Login)
		auth.POST("/logout", middleware.AuthMiddleware(), handlers.Logout)
		auth.POST("/refresh", middleware.AuthMiddleware(), handlers.RefreshToken)
	}

	users := r.Group("/api/users")
	users.Use(middleware.AuthMiddleware())
	{
		users.GET("/me", handlers.GetCurrentUser)
		users.PUT("/me", handlers.UpdateCurrentUser)
		users.GET("/search", handlers.SearchUsers)
	}

	follows := r.Group("/api/follows")
	follows.Use(middleware.AuthMiddleware())
	{
		follows.GET("/followers", handlers.GetFollowers)
		follows.GET("/following", handlers.GetFollowing)
		follows.GET("/requests", handlers.GetFollowRequests)
		follows.POST("", handlers.SendFollowRequest)
		follows.POST("/:user_id/accept", handlers.AcceptFollowRequest)
		follows.DELETE("/:user_id/decline", handlers.DeclineFollowRequest)
		follows.DELETE("/:user_id", handlers.Unfollow)
	}

	chat := r.Group("/api/chat")
	chat.Use(middleware.AuthMiddleware())
	{
		chat.GET("/conversations", handlers.GetConversations)
		chat.GET("/conversations/:id/messages", handlers.GetMessages)
		chat.POST("/conversations/:id/messages", handlers.SendMessage)
		chat.POST("/conversations/:id/read", handlers.MarkConversationRead)
		chat.GET("/stickers", handlers.GetStickers)
		chat.POST("/online-status", handlers.UpdateOnlineStatus)
	}

	r.GET("/ws", websocket.HandleWebSocket)

	log.Info().Str("addr", config.Cfg.ServerAddr).Msg("server starting")
	if err := r.Run(config.Cfg.ServerAddr); err != nil {
		log.Fatal().Err(err).Msg("server failed")
	}
}
