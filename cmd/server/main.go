package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/crazygit/ewerobot/internal/application/services"
	"github.com/crazygit/ewerobot/internal/infrastructure/config"
	"github.com/crazygit/ewerobot/internal/infrastructure/database"
	"github.com/crazygit/ewerobot/internal/infrastructure/persistence"
	"github.com/crazygit/ewerobot/internal/interfaces/middleware"
	"github.com/crazygit/ewerobot/internal/interfaces/rest"
	"github.com/crazygit/ewerobot/pkg/wechat"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Build the WeChat client, optionally with a shared MySQL token store
	// so several workers reuse one access_token
	var opts []wechat.Option
	if cfg.UseSQLTokenStore {
		conn, err := database.GetInstance()
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		repo := persistence.NewTokenRepository(conn.DB())
		if err := repo.EnsureSchema(context.Background()); err != nil {
			log.Fatalf("Failed to prepare credential table: %v", err)
		}
		opts = append(opts, wechat.WithTokenStore(repo))
		log.Println("✅ MySQL token store ready")
	}
	client := wechat.NewClient(wechat.Config{
		AppID:        cfg.AppID,
		AppSecret:    cfg.AppSecret,
		SubscribeURL: cfg.SubscribeURL,
	}, opts...)

	signer := middleware.NewStateSigner(cfg.StateSecret, 5*time.Minute)

	// Create Gin router
	router := gin.Default()
	router.Use(middleware.RequestID())

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"status": "ok",
			"server": "golang",
		})
	})

	// Initialize handlers
	jssdkHandler := rest.NewJSSDKHandler(client)
	messageHandler := rest.NewMessageHandler(client)
	templateHandler := rest.NewTemplateHandler(client)

	// API routes
	api := router.Group("/api")
	{
		api.POST("/jssdk/config", jssdkHandler.GetConfig)

		messages := api.Group("/messages")
		{
			messages.POST("/broadcast", messageHandler.Broadcast)
			messages.POST("/template", messageHandler.SendTemplate)
		}

		templates := api.Group("/templates")
		{
			templates.GET("", templateHandler.List)
			templates.POST("", templateHandler.Add)
			templates.DELETE("/:id", templateHandler.Delete)
			templates.GET("/industry", templateHandler.GetIndustry)
			templates.PUT("/industry", templateHandler.SetIndustry)
		}
	}

	// Demo pages showing the web-authorization middleware
	pages := router.Group("/pages")
	{
		pages.GET("/openid", middleware.SNSOpenID(client, signer), func(c *gin.Context) {
			openid, _ := middleware.GetOpenID(c)
			c.JSON(200, gin.H{"openid": openid})
		})
		pages.GET("/profile", middleware.SNSUserInfo(client, signer), func(c *gin.Context) {
			user, _ := middleware.GetSNSUser(c)
			c.JSON(200, user)
		})
		pages.GET("/members", middleware.SubscribeRequired(client, signer, ""), func(c *gin.Context) {
			user, _ := middleware.GetUser(c)
			c.JSON(200, gin.H{"openid": user.OpenID, "nickname": user.Nickname})
		})
	}

	// Start the proactive credential refresher
	refresher, err := services.NewRefresherService(client, cfg.RefreshSchedule)
	if err != nil {
		log.Fatalf("Invalid refresh schedule %q: %v", cfg.RefreshSchedule, err)
	}
	go refresher.Start()
	log.Printf("⏰ Credential refresher started (%s)", cfg.RefreshSchedule)

	// Start server
	log.Println("🚀 ewerobot server started")
	log.Printf("📍 Server:       http://localhost:%s", cfg.Port)
	log.Printf("🔐 JS-SDK API:   http://localhost:%s/api/jssdk/config", cfg.Port)
	log.Printf("📨 Message API:  http://localhost:%s/api/messages", cfg.Port)
	log.Printf("💚 Health check: http://localhost:%s/health", cfg.Port)

	// Create HTTP Server
	srv := &http.Server{
		Addr:    "0.0.0.0:" + cfg.Port,
		Handler: router,
	}

	// Start server in a goroutine
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Println("Shutting down server...")

	refresher.Stop()
	log.Println("🛑 Credential refresher stopped")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown: ", err)
	}

	log.Println("Server exiting")
}
