package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/secureprint/backend/internal/api/handlers"
	"github.com/secureprint/backend/internal/api/middleware"
	"github.com/secureprint/backend/internal/config"
	"github.com/secureprint/backend/internal/core"
	"github.com/secureprint/backend/internal/db"
	"github.com/secureprint/backend/internal/webhook"
)

func main() {
	godotenv.Load()

	configPath := os.Getenv("SECUREPRINT_CONFIG")
	if configPath == "" {
		configPath = "./config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("[server] failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("[server] invalid config: %v", err)
	}

	if err := db.Init(db.Config{Path: cfg.Database.Path}); err != nil {
		log.Fatalf("[server] failed to initialize database: %v", err)
	}
	defer db.Close()

	sender := webhook.NewWebhookSender(db.GetDB(), webhook.WebhookConfig{
		RetryCount:  cfg.Webhooks.RetryCount,
		RetryDelay:  cfg.Webhooks.RetryDelay,
		Timeout:     cfg.Webhooks.Timeout,
		WorkerCount: cfg.Webhooks.WorkerCount,
		QueueSize:   cfg.Webhooks.QueueSize,
	})
	sender.Start()
	defer sender.Stop()

	jobStore := db.NewJobStore(db.GetDB())
	engine := core.NewEngine(jobStore)
	gateway := core.NewGateway(engine, sender)

	auth, err := middleware.NewAuthMiddleware(db.GetDB())
	if err != nil {
		log.Fatalf("[server] failed to initialize auth: %v", err)
	}

	if cfg.Logging.Level != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.Default()

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	authGroup := router.Group("/api/auth")
	authGroup.POST("/setup", auth.SetupHandler)
	authGroup.POST("/login", auth.LoginHandler)
	authGroup.POST("/logout", auth.LogoutHandler)
	authGroup.GET("/status", auth.StatusHandler)
	authGroup.POST("/change-password", auth.RequireAuth(), auth.ChangePasswordHandler)

	jobHandler := handlers.NewJobHandler(jobStore, engine, gateway, cfg.Server.PublicBaseURL)
	printerHandler := handlers.NewPrinterHandler(db.GetDB())
	webhookHandler := handlers.NewWebhookHandler(db.GetDB())

	api := router.Group("/api")
	jobHandler.RegisterRoutes(api)
	printerHandler.RegisterRoutes(api)

	admin := router.Group("/api", auth.RequireAuth())
	jobHandler.RegisterAdminRoutes(admin)
	printerHandler.RegisterAdminRoutes(admin)
	webhookHandler.RegisterAdminRoutes(admin)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.Printf("[server] listening on :%d", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("[server] listen failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("[server] shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("[server] shutdown error: %v", err)
	}
}
