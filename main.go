package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"cargoquote-backend/database"
	"cargoquote-backend/internal/classifier"
	"cargoquote-backend/internal/config"
	"cargoquote-backend/internal/handlers"
	"cargoquote-backend/internal/jobs"
	"cargoquote-backend/internal/routes"
	"cargoquote-backend/internal/services"
	"cargoquote-backend/internal/storage"
	"cargoquote-backend/internal/tariff"
)

func main() {
	cfg := config.Load()

	// The rate table is load-bearing: refuse to serve traffic without it.
	tariffCfg, err := tariff.LoadConfig(cfg.Tariff.ConfigPath)
	if err != nil {
		log.Fatal("Failed to load tariff config: ", err)
	}
	log.Printf("✅ Tariff config loaded (version %s)", tariffCfg.Version)

	// Session storage
	var store storage.Store
	if cfg.App.UseMemoryStore {
		log.Println("⚠️  Using in-memory session storage (single instance only)")
		store = storage.NewMemoryStore(cfg.App.SessionTTL)
	} else {
		log.Println("📦 Connecting to PostgreSQL for session storage...")
		db, err := database.Connect(cfg.Database)
		if err != nil {
			log.Fatal("Failed to connect to database: ", err)
		}
		if err := db.AutoMigrate(&storage.SessionRecord{}); err != nil {
			log.Fatal("Failed to migrate database: ", err)
		}
		store = storage.NewDatabaseStore(db)
		log.Println("✅ Using PostgreSQL session storage")
	}

	// Cargo classifier
	var llm classifier.ChatCompleter
	if cfg.Classifier.Configured() {
		llm = classifier.NewOpenAIClient(
			cfg.Classifier.APIKey,
			cfg.Classifier.BaseURL,
			cfg.Classifier.ModelName(),
			cfg.Classifier.FolderID,
		)
		log.Println("✅ Cargo classifier configured")
	} else {
		log.Println("⚠️  Classifier credentials not found - cargo classification will fall back to manual selection")
	}
	cargoClassifier := classifier.New(llm, cfg.Classifier.Attempts, cfg.Classifier.BaseDelay)

	// Rating: remote engine when TARIFF_URL is set, in-process otherwise
	var rating services.RatingClient
	if cfg.Tariff.URL != "" {
		rating = services.NewHTTPRating(cfg.Tariff.URL, cfg.Tariff.Bearer)
		log.Printf("✅ Using remote rating engine at %s", cfg.Tariff.URL)
	} else {
		rating = services.NewEngineRating(tariffCfg)
		log.Println("✅ Using in-process rating engine")
	}

	dialog := services.NewDialogService(store, cargoClassifier, rating, cfg.App.SessionTTL, cfg.Classifier.MaxRetries)

	// Background session sweep
	sweepJob := jobs.NewSweepJob(store, cfg.App.SweepInterval)
	sweepJob.Start()

	// Create fiber app
	app := fiber.New(fiber.Config{
		AppName: "CargoQuote Backend v1.0.0",
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error": err.Error(),
			})
		},
	})

	// Middleware
	app.Use(logger.New(logger.Config{
		Format: "[${time}] ${status} - ${latency} ${method} ${path}\n",
	}))
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.App.AllowOrigins,
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET, POST, OPTIONS",
	}))

	// Routes
	chatHandler := handlers.NewChatHandler(dialog)
	quoteHandler := handlers.NewQuoteHandler(tariffCfg)
	healthHandler := handlers.NewHealthHandler(tariffCfg, store, cfg.Classifier.Configured())
	routes.SetupRoutes(app, chatHandler, quoteHandler, healthHandler, cfg.Tariff.Bearer)

	// Handle graceful shutdown
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-c
		log.Println("\n🛑 Gracefully shutting down...")
		sweepJob.Stop()
		_ = app.Shutdown()
	}()

	log.Println("========================================")
	log.Printf("🚀 CargoQuote Backend starting on port %s", cfg.App.Port)
	log.Printf("📊 Tariff version: %s", tariffCfg.Version)
	log.Printf("🤖 Classifier: %s", classifierStatus(cfg.Classifier.Configured()))
	log.Printf("💾 Sessions: %s", storageType(cfg.App.UseMemoryStore))
	log.Println("========================================")

	log.Fatal(app.Listen(":" + cfg.App.Port))
}

func classifierStatus(configured bool) string {
	if configured {
		return "Configured"
	}
	return "Not configured (manual selection only)"
}

func storageType(memory bool) string {
	if memory {
		return "In-Memory"
	}
	return "PostgreSQL"
}
