package main

import (
	"context"
	"log"

	"github.com/pantryshare/backend/config"
	"github.com/pantryshare/backend/internal/api"
	"github.com/pantryshare/backend/internal/database"
	"github.com/pantryshare/backend/internal/middleware"
	"github.com/pantryshare/backend/internal/router"
	"github.com/pantryshare/backend/internal/server"
	"github.com/pantryshare/backend/internal/service"
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	log.Printf("Starting with %s", cfg)

	db, err := database.New(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	if err := database.RunMigrations(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	redisClient, err := database.NewRedisClient(cfg)
	if err != nil {
		// token denylist and rate limiting degrade gracefully
		log.Printf("Redis unavailable, continuing without it: %v", err)
		redisClient = nil
	}

	var images service.ImageStore
	s3Config, err := config.NewS3Config(context.Background(), cfg)
	if err != nil {
		log.Printf("S3 unavailable, image storage disabled: %v", err)
	} else {
		if err := s3Config.SetupBucketPolicy(context.Background()); err != nil {
			log.Printf("Failed to apply bucket policy: %v", err)
		}
		images = service.NewS3ImageStore(s3Config)
	}

	authService := service.NewAuthService(db, redisClient, cfg.JWTSecret)
	catalogService := service.NewCatalogService(db)
	recipeService := service.NewRecipeService(db, images)
	membershipService := service.NewMembershipService(db)
	followService := service.NewFollowService(db)
	shoppingService := service.NewShoppingListService(db)

	var createLimiter *middleware.RateLimiter
	if redisClient != nil {
		createLimiter = middleware.NewRecipeCreationRateLimiter(redisClient)
	}

	engine := router.SetupRouter(
		api.NewAuthHandler(authService),
		api.NewUserHandler(authService, followService),
		api.NewCatalogHandler(catalogService),
		api.NewRecipeHandler(recipeService, membershipService, shoppingService),
		authService,
		createLimiter,
		cfg.AllowedOrigins,
	)

	srv := server.New(engine, cfg.ServerHost, cfg.ServerPort)
	if err := srv.Run(); err != nil {
		log.Fatalf("Server error: %v", err)
	}
}
