package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"pulse-chat/config"
	"pulse-chat/internal/handler"
	"pulse-chat/internal/middleware"
	pulseredis "pulse-chat/internal/redis"
	"pulse-chat/internal/repository"
	"pulse-chat/internal/services"
	"pulse-chat/internal/storage"
	"pulse-chat/pkg/database"
	"pulse-chat/pkg/logger"

	"github.com/gin-gonic/gin"
)

func main() {
	cfg := config.LoadConfig()

	mode := logger.DevelopmentMode
	if cfg.AppMode == "release" {
		mode = logger.ProductionMode
		gin.SetMode(gin.ReleaseMode)
	}
	l := logger.New(mode)
	logger.SetGlobalLogger(l)

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	if err := database.Ping(db); err != nil {
		log.Fatalf("Database unreachable (run cmd/migrate first?): %v", err)
	}

	repo := repository.New(db)
	chatService := services.NewChatService(repo, l)
	authService := services.NewAuthService(repo.Users, cfg)

	redisClient := pulseredis.NewClient(pulseredis.Config{
		Host:     cfg.RedisHost,
		Port:     cfg.RedisPort,
		Password: cfg.RedisPassword,
	})
	limiter := pulseredis.NewRateLimiter(redisClient, pulseredis.DefaultRateLimitConfig())

	var uploadHandler *handler.UploadHandler
	if cfg.S3AccessKey != "" {
		s3Client, err := storage.NewClient(context.Background(), storage.S3Config{
			Region:     cfg.S3Region,
			Bucket:     cfg.S3Bucket,
			AccessKey:  cfg.S3AccessKey,
			SecretKey:  cfg.S3SecretKey,
			Endpoint:   cfg.S3Endpoint,
			PresignTTL: 15 * time.Minute,
		})
		if err != nil {
			log.Fatalf("Failed to init S3 client: %v", err)
		}
		uploadHandler = handler.NewUploadHandler(s3Client)
	} else {
		l.Warnf("S3 credentials missing, media uploads disabled")
	}

	conversationHandler := handler.NewConversationHandler(chatService)
	messageHandler := handler.NewMessageHandler(chatService)
	authHandler := handler.NewAuthHandler(authService)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestIDMiddleware())
	r.Use(middleware.LoggingMiddleware(l))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	auth := r.Group("/api/v1/auth")
	auth.Use(middleware.AuthRateLimitMiddleware(limiter))
	{
		auth.POST("/register", authHandler.Register)
		auth.POST("/login", authHandler.Login)
	}

	api := r.Group("/api/v1")
	api.Use(middleware.AuthMiddleware(authService))
	{
		api.GET("/conversations", conversationHandler.List)
		api.POST("/conversations", conversationHandler.Create)
		api.GET("/conversations/direct/:user_id", conversationHandler.GetDirect)
		api.GET("/conversations/:id", conversationHandler.GetByID)
		api.PATCH("/conversations/:id", conversationHandler.Update)
		api.DELETE("/conversations/:id", conversationHandler.Delete)

		api.GET("/conversations/:id/members", conversationHandler.ListMembers)
		api.POST("/conversations/:id/members", conversationHandler.AddMember)
		api.DELETE("/conversations/:id/members/:user_id", conversationHandler.RemoveMember)
		api.PATCH("/conversations/:id/members/:user_id/role", conversationHandler.UpdateMemberRole)

		api.GET("/conversations/:id/messages", messageHandler.List)
		api.POST("/conversations/:id/messages",
			middleware.MessageRateLimitMiddleware(limiter), messageHandler.Send)
		api.GET("/conversations/:id/unread", messageHandler.UnreadCount)
		api.GET("/messages/:message_id", messageHandler.GetByID)
		api.PATCH("/messages/:message_id", messageHandler.Edit)
		api.DELETE("/messages/:message_id", messageHandler.Delete)
		api.POST("/messages/read", messageHandler.MarkRead)

		if uploadHandler != nil {
			api.POST("/uploads/presign", uploadHandler.Presign)
		}
	}

	l.Infof("Starting server on port %s", cfg.AppPort)
	if err := r.Run(fmt.Sprintf(":%s", cfg.AppPort)); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
