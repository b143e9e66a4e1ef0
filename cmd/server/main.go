package main

import (
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"

	"github.com/nihalvp321/ekarbot-server/internal/config"
	"github.com/nihalvp321/ekarbot-server/internal/database"
	"github.com/nihalvp321/ekarbot-server/internal/handlers"
	"github.com/nihalvp321/ekarbot-server/internal/routes"
	"github.com/nihalvp321/ekarbot-server/internal/services"
)

func main() {
	// JSON structured logging
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	_ = godotenv.Load()

	slog.Info("Starting EkarBot server", "version", handlers.Version)

	// ─── Config ──────────────────────────────────────────────────────────
	cfg := config.Load()

	// ─── Database ────────────────────────────────────────────────────────
	if err := database.Connect(cfg); err != nil {
		slog.Error("Database connection failed", "error", err)
		os.Exit(1)
	}

	if err := database.Migrate(); err != nil {
		slog.Error("Database migration failed", "error", err)
		os.Exit(1)
	}

	db := database.DB

	// ─── Services ───────────────────────────────────────────────────────
	webhookClient := services.NewWebhookClient(cfg)
	historyCache := services.NewHistoryCache(services.NewMemoryKV())
	mediaStorage := services.NewMediaStorage(cfg)
	hub := services.NewHub()

	// ─── Handlers ───────────────────────────────────────────────────────
	authHandler := handlers.NewAuthHandler(cfg, db)
	userHandler := handlers.NewUserHandler(db)
	chatbotHandler := handlers.NewChatbotHandler(db, webhookClient, historyCache)
	messageHandler := handlers.NewMessageHandler(db, hub, mediaStorage)
	projectHandler := handlers.NewProjectHandler(db, cfg)
	leadHandler := handlers.NewLeadHandler(db)
	customerHandler := handlers.NewCustomerHandler(db)
	activityHandler := handlers.NewActivityHandler(db)
	siteVisitHandler := handlers.NewSiteVisitHandler(db)
	settingHandler := handlers.NewSettingHandler(db)
	systemHandler := handlers.NewSystemHandler(db, cfg)

	if err := authHandler.SeedUser(); err != nil {
		slog.Error("Seed user failed", "error", err)
	}
	settingHandler.SeedDefaults()

	// ─── Fiber App ──────────────────────────────────────────────────────
	app := fiber.New(fiber.Config{
		AppName:      "ekarbot v" + handlers.Version,
		ServerHeader: "ekarbot",
		BodyLimit:    30 * 1024 * 1024, // headroom for attachment and workbook uploads
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			message := "Internal server error"
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
				message = e.Message
			}
			return c.Status(code).JSON(fiber.Map{
				"error":   true,
				"message": message,
			})
		},
	})

	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET, POST, PUT, DELETE, PATCH, OPTIONS",
	}))

	app.Use(recover.New(recover.Config{
		EnableStackTrace: false,
	}))

	// Security headers
	app.Use(func(c *fiber.Ctx) error {
		c.Set("X-Content-Type-Options", "nosniff")
		c.Set("X-Frame-Options", "DENY")
		c.Set("X-XSS-Protection", "1; mode=block")
		return c.Next()
	})

	// Request logger
	app.Use(func(c *fiber.Ctx) error {
		start := time.Now()
		err := c.Next()
		if c.Path() == "/api/health" {
			return err
		}
		slog.Info("request",
			"method", c.Method(),
			"path", c.Path(),
			"status", c.Response().StatusCode(),
			"duration_ms", time.Since(start).Milliseconds(),
			"ip", c.IP(),
		)
		return err
	})

	// ─── Routes ─────────────────────────────────────────────────────────
	routes.Setup(app, cfg, authHandler, userHandler, chatbotHandler, messageHandler,
		projectHandler, leadHandler, customerHandler, activityHandler,
		siteVisitHandler, settingHandler, systemHandler)

	// ─── Graceful Shutdown ──────────────────────────────────────────────
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-quit
		slog.Info("Shutting down EkarBot server...")

		if err := app.Shutdown(); err != nil {
			slog.Error("Fiber shutdown error", "error", err)
		}

		if sqlDB, err := database.DB.DB(); err == nil {
			sqlDB.Close()
		}
	}()

	// ─── Start ──────────────────────────────────────────────────────────
	listenAddr := ":" + cfg.Port
	slog.Info("EkarBot listening", "addr", listenAddr)

	if err := app.Listen(listenAddr); err != nil {
		slog.Error("Server error", "error", err)
		os.Exit(1)
	}
}
