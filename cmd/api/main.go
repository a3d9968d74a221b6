package main

import (
	"context"
	"log"
	"net"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kiloapp/kilo-v2/backend/config"
	"github.com/kiloapp/kilo-v2/backend/internal/api"
	"github.com/kiloapp/kilo-v2/backend/internal/database"
	"github.com/kiloapp/kilo-v2/backend/internal/middleware"
	"github.com/kiloapp/kilo-v2/backend/internal/quota"
	"github.com/kiloapp/kilo-v2/backend/internal/router"
	"github.com/kiloapp/kilo-v2/backend/internal/server"
	"github.com/kiloapp/kilo-v2/backend/internal/service"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	healthDB, err := database.New(cfg)
	if err != nil {
		log.Fatalf("Failed to open health check connection: %v", err)
	}
	defer healthDB.Close()

	redisClient, err := database.NewRedisClient(cfg)
	if err != nil {
		log.Printf("Redis unavailable, caching and burst limiting disabled: %v", err)
		redisClient = nil
	}

	// Photo archival is optional; the API works without S3 credentials.
	var photoService *service.PhotoService
	if s3cfg, err := config.NewS3Config(context.Background(), cfg); err != nil {
		log.Printf("S3 unavailable, photo archival disabled: %v", err)
	} else {
		photoService = service.NewPhotoService(s3cfg)
	}

	chat := service.NewChatClient(cfg)
	if cfg.LLMAPIKey == "" {
		log.Printf("LLM_API_KEY is not set, generation endpoints will fail closed")
	}

	authService := service.NewAuthService(db, cfg.JWTSecret)
	settingsService := service.NewSettingsService(db)
	recipeService := service.NewRecipeService(chat, redisClient)
	savedService := service.NewSavedRecipeService(db, recipeService, settingsService)
	planStore := service.NewPlanStore(redisClient)
	tracker := quota.NewTracker(db)

	var rateLimiter *middleware.RateLimiter
	if redisClient != nil {
		rateLimiter = middleware.NewGenerationRateLimiter(redisClient)
	}

	engine := router.SetupRouter(router.Deps{
		Auth:        api.NewAuthHandler(authService),
		Recipes:     api.NewRecipeHandler(recipeService, settingsService),
		Photos:      api.NewPhotoHandler(recipeService, settingsService, photoService),
		Plans:       api.NewPlanHandler(recipeService, settingsService, planStore),
		Settings:    api.NewSettingsHandler(settingsService, tracker),
		Saved:       api.NewSavedRecipeHandler(savedService),
		Validator:   authService,
		Tracker:     tracker,
		RateLimiter: rateLimiter,
		HealthDB:    healthDB,
	})

	srv := server.New(engine)
	addr := net.JoinHostPort(cfg.ServerHost, cfg.ServerPort)

	go func() {
		log.Printf("Starting server on %s", addr)
		if err := srv.Start(addr); err != nil {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Stop(ctx); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Println("Server exited")
}
