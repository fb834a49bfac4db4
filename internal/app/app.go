package app

import (
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"chat-relay/internal/handlers"
	"chat-relay/internal/services"
	"chat-relay/internal/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
)

func Run() {
	// Load Env
	if err := utils.LoadEnv(); err != nil {
		log.Println("Warning: .env file not found")
	}

	serverName := utils.GetEnv("SERVER_NAME", "")
	if serverName == "" {
		serverName, _ = os.Hostname()
	}

	// Relay core
	grace := utils.GetEnvDuration("ROOM_GRACE_SECONDS", 60, time.Second)
	chat := services.NewChatService(serverName, grace)
	started := time.Now()

	// Background chores
	uploadDir := utils.GetEnv("UPLOAD_DIR", "uploads")
	maintenance := services.StartMaintenance(services.MaintenanceConfig{
		UploadDir:         uploadDir,
		UploadTTL:         utils.GetEnvDuration("UPLOAD_TTL_HOURS", 24, time.Hour),
		KeepAliveURL:      utils.GetEnv("KEEPALIVE_URL", ""),
		KeepAliveInterval: utils.GetEnvDuration("KEEPALIVE_MINUTES", 14, time.Minute),
	})

	// Fiber App
	app := fiber.New(fiber.Config{
		BodyLimit: 6 * 1024 * 1024, // multipart overhead above the 5MB image cap
	})

	// Middleware
	app.Use(logger.New())
	app.Use(recover.New())
	app.Use(cors.New())

	// Ensure upload dir exists and serve uploaded files
	if err := os.MkdirAll(uploadDir, 0755); err != nil {
		log.Printf("Warning: failed to create upload dir: %v", err)
	}
	app.Static("/uploads", uploadDir)

	// Static client, when bundled
	if _, err := os.Stat("public"); err == nil {
		app.Static("/", "public")
	}

	// Routes
	api := app.Group("/api")
	api.Get("/rooms/:roomID", handlers.RoomInfoHandler(chat))
	api.Post("/upload", handlers.UploadImageHandler(chat))

	app.Get("/health", handlers.HealthHandler(chat, started))

	// WebSocket Route
	app.Use("/ws", handlers.WSUpgradeMiddleware)
	app.Get("/ws", handlers.WebSocketHandler(chat))

	// Start Server
	port := utils.GetEnv("PORT", "3001")
	go func() {
		if err := app.Listen(":" + port); err != nil {
			log.Panic(err)
		}
	}()

	// Graceful Shutdown
	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)

	<-c // Block until signal
	log.Println("Gracefully shutting down...")
	_ = app.Shutdown()
	maintenance.Stop()
	chat.Stop()
	log.Println("Server shutdown complete")
}
