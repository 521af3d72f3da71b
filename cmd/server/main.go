package main

import (
	"context"
	"log"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"

	"github.com/healbites/healbites/internal/config"
	"github.com/healbites/healbites/internal/database"
	"github.com/healbites/healbites/internal/handlers"
	"github.com/healbites/healbites/internal/middleware"
	"github.com/healbites/healbites/internal/services"
	"github.com/healbites/healbites/internal/state"
	"github.com/healbites/healbites/internal/sync"
)

func main() {
	// Load .env file if it exists
	godotenv.Load()

	// Load configuration
	cfg := config.Load()

	// Connect to database
	db, err := database.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	// Run migrations
	if err := database.RunMigrations(db); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	// Initialize Gemini service
	if cfg.GeminiAPIKey == "" {
		log.Fatal("GEMINI_API_KEY is required")
	}
	gemini, err := services.NewGeminiService(context.Background(), cfg.GeminiAPIKey)
	if err != nil {
		log.Fatalf("Failed to initialize Gemini service: %v", err)
	}

	// Initialize Places service for nearby supermarket lookups
	places := services.NewPlacesService(cfg.GoogleMapsAPIKey)

	// Initialize scan image archive when storage is configured
	var archive *services.ScanArchive
	if cfg.S3Endpoint != "" && cfg.S3AccessKey != "" && cfg.S3SecretKey != "" {
		archive, err = services.NewScanArchive(cfg.S3Endpoint, cfg.S3AccessKey, cfg.S3SecretKey, cfg.S3Bucket, cfg.S3Region, cfg.S3UseSSL)
		if err != nil {
			log.Printf("Warning: Failed to initialize scan archive: %v", err)
			archive = nil
		} else if err := archive.EnsureBucket(context.Background()); err != nil {
			log.Printf("Warning: Failed to ensure S3 bucket exists: %v", err)
		}
		if archive != nil {
			log.Println("Scan image archive initialized")
		}
	} else {
		log.Println("S3 storage not configured, scan archival disabled")
	}

	// Application state store and the sync engine that mirrors it to the
	// database. Subscriptions are wired before the server starts serving.
	store := state.NewStore()
	engine := sync.NewEngine(store, db, db, gemini)
	defer engine.Wait()

	// Initialize Fiber app
	app := fiber.New(fiber.Config{
		ErrorHandler: handlers.ErrorHandler,
		BodyLimit:    12 * 1024 * 1024,
	})

	// Global middleware
	app.Use(recover.New())
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.AllowedOrigins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET, POST, PUT, DELETE, OPTIONS",
	}))

	// Create handler with dependencies
	h := handlers.New(db, cfg, store, engine, gemini, places, archive)

	// Health check
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	// API routes
	api := app.Group("/api")

	// Auth routes (public)
	auth := api.Group("/auth")
	auth.Post("/register", h.Register)
	auth.Post("/login", h.Login)
	auth.Post("/logout", middleware.AuthRequired(cfg), h.Logout)
	auth.Get("/me", middleware.AuthRequired(cfg), h.GetCurrentUser)
	auth.Post("/refresh", middleware.AuthRequired(cfg), h.RefreshToken)

	// Everything below requires authentication
	authed := api.Group("", middleware.AuthRequired(cfg))

	// Application state and navigation
	authed.Get("/state", h.GetState)
	authed.Post("/state/view", h.Navigate)

	// Meal preferences and budget
	authed.Get("/preferences", h.GetPreferences)
	authed.Put("/preferences", h.UpdatePreferences)

	// Shopping list
	authed.Get("/list", h.GetShoppingList)
	authed.Post("/list/items", h.AddListItem)
	authed.Post("/list/items/bulk", h.AddListItems)
	authed.Put("/list/items/:name", h.UpdateListItem)
	authed.Delete("/list/items/:name", h.RemoveListItem)

	// Fridge scanning
	authed.Post("/scan", h.ScanFridge)
	authed.Get("/scans", h.GetScanHistory)
	authed.Get("/scans/:id/image", h.GetScanImage)
	authed.Delete("/scans/:id", h.DeleteScan)

	// Recipes from the latest scan
	authed.Get("/recipes", h.GetRecipes)
	authed.Post("/recipes/:id/select", h.SelectRecipe)
	authed.Get("/recipes/:id/image", h.GetRecipeImage)
	authed.Post("/recipes/:id/cart", h.AddMissingToCart)

	// Cooking mode
	authed.Post("/cooking/next", h.NextStep)
	authed.Post("/cooking/prev", h.PrevStep)
	authed.Post("/cooking/exit", h.ExitCooking)
	authed.Get("/cooking/speak", h.SpeakStep)

	// Nearby supermarkets
	authed.Post("/stores/nearby", h.FindNearbyStores)

	log.Printf("Server starting on port %s", cfg.Port)
	log.Fatal(app.Listen(":" + cfg.Port))
}
