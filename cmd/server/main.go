package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/inkwell-app/backend/internal/auth"
	"github.com/inkwell-app/backend/internal/cache"
	"github.com/inkwell-app/backend/internal/config"
	"github.com/inkwell-app/backend/internal/database"
	"github.com/inkwell-app/backend/internal/handlers"
	"github.com/inkwell-app/backend/internal/logger"
	"github.com/inkwell-app/backend/internal/metrics"
	"github.com/inkwell-app/backend/internal/middleware"
	"github.com/inkwell-app/backend/internal/realtime"
	"github.com/inkwell-app/backend/internal/storage"
)

func main() {
	// Load .env if present; real deployments use actual env vars
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	if err := logger.Initialize(cfg.LogLevel, cfg.LogFile); err != nil {
		panic("failed to initialize logger: " + err.Error())
	}
	defer logger.Log.Sync()

	logger.Log.Info("Starting Inkwell server",
		zap.String("environment", cfg.Environment),
		zap.String("port", cfg.Port))

	if err := database.Initialize(cfg.DatabaseURL, !cfg.IsProduction()); err != nil {
		logger.FatalWithFields("Failed to initialize database", err)
	}
	defer database.Close()

	if err := database.Migrate(); err != nil {
		logger.FatalWithFields("Failed to run migrations", err)
	}

	metrics.Initialize()

	// Redis is optional; rate limiting degrades to pass-through without it
	if cfg.RedisHost != "" {
		if redisClient, err := cache.NewRedisClient(cfg.RedisHost, cfg.RedisPort, cfg.RedisPassword); err != nil {
			logger.Log.Warn("Redis unavailable, rate limiting disabled", zap.Error(err))
		} else {
			defer redisClient.Close()
		}
	}

	// Media storage is optional; image endpoints return 503 without it
	var uploader storage.ImageUploader
	if cfg.AWSBucket != "" {
		s3Uploader, err := storage.NewS3Uploader(cfg.AWSRegion, cfg.AWSBucket, cfg.CDNBaseURL)
		if err != nil {
			logger.Log.Warn("S3 uploader unavailable, image uploads disabled", zap.Error(err))
		} else {
			uploader = s3Uploader
		}
	}

	authService := auth.NewService([]byte(cfg.JWTSecret))

	// One presence directory for the whole process, injected into both
	// the socket handler and the HTTP handlers
	directory := realtime.NewDirectory()
	socketHandler := realtime.NewHandler(directory, authService)
	api := handlers.New(authService, uploader, directory)

	router := setupRouter(cfg, authService, api, socketHandler)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Log.Info("HTTP server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.FatalWithFields("HTTP server failed", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Log.Info("Shutting down server")

	// Clear presence first so in-flight mutations stop pushing to
	// connections that are about to close
	socketHandler.Shutdown()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Log.Error("Server forced to shutdown", zap.Error(err))
	}

	logger.Log.Info("Server stopped")
}

func setupRouter(cfg *config.Config, authService *auth.Service, api *handlers.Handlers, socketHandler *realtime.Handler) *gin.Engine {
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestID())
	router.Use(middleware.RequestLogger())
	router.Use(middleware.Metrics())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"},
		ExposeHeaders:    []string{"X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))
	router.Use(gzip.Gzip(gzip.DefaultCompression))

	router.GET("/health", func(c *gin.Context) {
		if err := database.Health(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy", "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	authRequired := middleware.Auth(authService)

	v1 := router.Group("/api/v1")
	{
		authGroup := v1.Group("/auth")
		{
			authGroup.POST("/register", middleware.RateLimit(10, time.Minute), api.Register)
			authGroup.POST("/login", middleware.RateLimit(20, time.Minute), api.Login)
			authGroup.POST("/logout", authRequired, api.Logout)
			authGroup.GET("/me", authRequired, api.Me)
		}

		posts := v1.Group("/posts")
		{
			posts.GET("", api.ListPosts)
			posts.GET("/:id", api.GetPost)
			posts.GET("/:id/comments", api.ListComments)
			posts.GET("/:id/likes", api.ListPostLikes)

			posts.POST("", authRequired, middleware.RateLimit(30, time.Minute), api.CreatePost)
			posts.DELETE("/:id", authRequired, api.DeletePost)
			posts.POST("/:id/comments", authRequired, middleware.RateLimit(60, time.Minute), api.CreateComment)
			posts.POST("/:id/like", authRequired, middleware.RateLimit(120, time.Minute), api.LikePost)
			posts.DELETE("/:id/like", authRequired, api.UnlikePost)
		}

		v1.DELETE("/comments/:id", authRequired, api.DeleteComment)

		notifications := v1.Group("/notifications", authRequired)
		{
			notifications.GET("", api.ListNotifications)
			notifications.GET("/counts", api.GetNotificationCounts)
			notifications.POST("/:id/read", api.MarkNotificationRead)
			notifications.POST("/read-all", api.MarkAllNotificationsRead)
		}

		users := v1.Group("/users")
		{
			users.GET("/:id", api.GetUser)
			users.GET("/:id/posts", api.ListUserPosts)
		}

		// Self-profile routes live outside /users because the router
		// can't mix a static "me" segment with the :id wildcard
		me := v1.Group("/me", authRequired)
		{
			me.PATCH("", api.UpdateProfile)
			me.POST("/avatar", api.UploadAvatar)
		}

		ws := v1.Group("/ws")
		{
			ws.GET("", socketHandler.HandleConnection)
			ws.POST("/online", authRequired, socketHandler.HandleOnlineStatus)
			ws.GET("/stats", authRequired, socketHandler.HandleStats)
		}
	}

	return router
}
