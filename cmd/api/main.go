// cmd/api/main.go
// Main entry point for the application
// This file bootstraps all components and starts the server

package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/joeumn/workouttracker/internal/auth"
	"github.com/joeumn/workouttracker/internal/buddy"
	"github.com/joeumn/workouttracker/internal/common/database"
	"github.com/joeumn/workouttracker/internal/common/utils"
	"github.com/joeumn/workouttracker/internal/config"
	"github.com/joeumn/workouttracker/internal/profile"
)

func main() {
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)

	log.Println("========================================")
	log.Println("🚀 Starting Workout Tracker Buddy API")
	log.Println("========================================")

	// 1. Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Printf("⚠️  No .env file found (%v), using environment variables", err)
	}

	// 2. Load and validate configuration
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatal("❌ Configuration validation failed: ", err)
	}
	log.Printf("✅ Configuration loaded (environment: %s)", cfg.Environment)

	// 3. Connect to PostgreSQL
	db, err := database.NewPostgresDBFromURL(cfg.DatabaseURL)
	if err != nil {
		log.Fatal("❌ Failed to connect to PostgreSQL: ", err)
	}
	defer db.Close()
	log.Println("✅ Connected to PostgreSQL")

	// 4. Apply migrations
	if err := database.RunMigrations(cfg.DatabaseURL, cfg.MigrationsDir); err != nil {
		log.Fatal("❌ Failed to run migrations: ", err)
	}
	log.Println("✅ Database schema is up to date")

	// 5. Connect to Redis (optional)
	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = database.NewRedisClientFromURL(cfg.RedisURL)
		if err != nil {
			log.Printf("⚠️  Redis unavailable (%v), continuing without cache", err)
			redisClient = nil
		} else {
			defer redisClient.Close()
			log.Println("✅ Connected to Redis")
		}
	}

	// 6. Build repositories and services
	authRepo := auth.NewPostgresRepository(db)
	authService := auth.NewService(authRepo, redisClient, &auth.Config{
		JWTSecret:          cfg.JWTSecret,
		AccessTokenExpiry:  cfg.AccessTokenExpiry,
		RefreshTokenExpiry: cfg.RefreshTokenExpiry,
		BCryptCost:         cfg.BCryptCost,
	})
	authMiddleware := auth.NewMiddleware(authService)

	profileRepo := profile.NewPostgresRepository(db)
	profileService := profile.NewService(profileRepo)

	buddyRepo := buddy.NewPostgresRepository(db)
	matchingEngine := buddy.NewMatchingEngine()
	buddyService := buddy.NewService(buddyRepo, matchingEngine, redisClient, &buddy.Config{
		DefaultLimit:  cfg.DiscoverLimit,
		MinMatchScore: cfg.MinMatchScore,
		CacheTTL:      cfg.DiscoverCacheTTL,
	})

	// 7. Register routes
	router := mux.NewRouter()

	auth.RegisterRoutes(router, auth.NewHandler(authService))
	profile.RegisterRoutes(router, profile.NewHandler(profileService), authMiddleware)
	buddy.RegisterRoutes(router, buddy.NewHandler(buddyService), authMiddleware)

	router.Handle("/metrics", promhttp.Handler()).Methods("GET")
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		utils.RespondWithJSON(w, http.StatusOK, map[string]string{
			"status":  "healthy",
			"message": "Workout Tracker Buddy Matching API is running",
		})
	}).Methods("GET")

	// 8. Start server with graceful shutdown
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("🌐 Server listening on port %s", cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("❌ Server failed: ", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("🛑 Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Fatal("❌ Forced shutdown: ", err)
	}

	log.Println("✅ Server stopped cleanly")
}
