package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"courtside/handlers"
	"courtside/localstore"
	"courtside/models"
	"courtside/services"
	"courtside/utils"
	"courtside/workers"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️  No .env file found, reading environment variables directly")
	}

	app := fiber.New(fiber.Config{
		BodyLimit: 20 * 1024 * 1024, // 20MB, enough for play diagrams
	})

	app.Use(recover.New())
	app.Use(logger.New())

	allowedOriginsEnv := os.Getenv("ALLOWED_ORIGINS")
	if allowedOriginsEnv == "" {
		allowedOriginsEnv = "http://localhost:3000"
	}
	allowedOriginsList := strings.Split(allowedOriginsEnv, ",")
	for i, origin := range allowedOriginsList {
		allowedOriginsList[i] = strings.TrimSpace(origin)
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins: strings.Join(allowedOriginsList, ","),
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders: "Origin, Content-Type, Accept",
	}))

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		log.Fatal("DATABASE_URL environment variable not set")
	}

	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatal("failed to connect to database:", err)
	}

	if err := db.AutoMigrate(
		&models.Game{},
		&models.PlayerStat{},
		&models.ShotEvent{},
		&models.GameEvent{},
		&models.Play{},
	); err != nil {
		log.Fatal("failed to migrate database:", err)
	}

	if err := utils.EnsureUploadDirs(); err != nil {
		log.Fatal("failed to ensure upload dirs:", err)
	}

	r2Enabled, err := utils.InitR2()
	if err != nil {
		log.Fatal("failed to initialize R2 client:", err)
	}
	if !r2Enabled {
		log.Println("⚠️  R2 not configured, reports will be stored locally under ./uploads/reports")
	}

	liveDataDir := os.Getenv("LIVE_DATA_DIR")
	if liveDataDir == "" {
		liveDataDir = "./livedata"
	}
	store, err := localstore.Open(liveDataDir)
	if err != nil {
		log.Fatal("failed to open local session store:", err)
	}
	defer store.Close()

	gameService := services.NewGameService(db)
	statsService := services.NewStatsService(db)
	playService := services.NewPlayService(db)
	reportService := services.NewReportService(db, statsService)
	liveService := services.NewLiveService(store, gameService)

	if err := playService.SeedPlays(); err != nil {
		log.Printf("⚠️  Playbook seed failed: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	inboxDir := os.Getenv("INGEST_INBOX_DIR")
	if inboxDir == "" {
		inboxDir = "./inbox"
	}
	ingestWorker := workers.NewIngestWorker(gameService, inboxDir)
	go ingestWorker.Start(ctx)

	liveService.StartSessionSweeper(6 * time.Hour)

	handlers.SetupGameRoutes(app, gameService, reportService)
	handlers.SetupStatsRoutes(app, statsService)
	handlers.SetupPlayRoutes(app, playService)
	handlers.SetupLiveRoutes(app, liveService)

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	app.Static("/uploads", "./uploads")

	port := os.Getenv("PORT")
	if port == "" {
		port = "5200"
	}

	go func() {
		if err := app.Listen(":" + port); err != nil {
			log.Printf("Server error: %v", err)
		}
	}()

	log.Printf("✅ Server running on http://localhost:%s", port)
	log.Println("✅ Ingest worker running")
	log.Println("✅ Stale session sweeper running")

	<-ctx.Done()
	log.Println("Shutting down server...")
	if err := app.Shutdown(); err != nil {
		log.Printf("Shutdown error: %v", err)
	}
}
