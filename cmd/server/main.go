package main

import (
	"log"
	"os"
	"os/signal"
	"syscall"

	"coursemart/internal/adapters/gateway/sslcommerz"
	"coursemart/internal/adapters/http/middleware"
	"coursemart/internal/adapters/http/routes"
	"coursemart/internal/adapters/mail"
	"coursemart/internal/adapters/persistence/models"
	"coursemart/internal/adapters/tutor"
	"coursemart/internal/config"
	"coursemart/internal/core/services"
	"coursemart/internal/pkg/pdf"
	"coursemart/internal/pkg/reporter"

	"github.com/gofiber/fiber/v2"

	_ "coursemart/docs" // Swagger docs
)

// @title CourseMart API
// @version 1.0
// @description Online course marketplace: catalog, enrollments, SSLCommerz payments, invoices, certificates and an AI tutor.

// @contact.name API Support
// @contact.email support@coursemart.local

// @BasePath /api
// @schemes http https

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("❌ Failed to load configuration: %v", err)
	}

	host, _ := os.Hostname()
	rep := reporter.New(cfg.RollbarKey, cfg.AppMode, host)
	defer rep.Close()

	// Connect to database
	db, err := config.ConnectDatabase(cfg)
	if err != nil {
		log.Fatalf("❌ Failed to connect to database: %v", err)
	}
	defer config.CloseDatabase(db)

	if err := models.AutoMigrate(db); err != nil {
		log.Fatalf("❌ Failed to auto migrate: %v", err)
	}
	log.Println("✅ Database migration completed")

	if err := config.NewSeeder(db, cfg).Run(); err != nil {
		log.Printf("⚠️ Warning: Failed to seed data: %v", err)
	}

	if !cfg.GatewayEnabled() {
		log.Println("⚠️ SSLCommerz credentials missing, checkouts will fail")
	}
	gateway := sslcommerz.NewClient(sslcommerz.Config{
		StoreID:     cfg.Gateway.StoreID,
		StorePasswd: cfg.Gateway.StorePasswd,
		IsLive:      cfg.Gateway.IsLive,
		Timeout:     cfg.Gateway.Timeout,
	})

	tutorClient := tutor.NewOpenAIClient(tutor.Config{
		APIKey:  cfg.AI.APIKey,
		BaseURL: cfg.AI.BaseURL,
		Model:   cfg.AI.Model,
		Timeout: cfg.AI.Timeout,
	})

	var mailer services.Mailer = mail.LogMailer{}
	if cfg.Mail.SendGridKey != "" {
		mailer = mail.NewSendGridMailer(cfg.Mail.SendGridKey, "", cfg.Mail.FromName, cfg.Mail.FromEmail)
	}

	svc := routes.NewServices(routes.Deps{
		DB:       db,
		Config:   cfg,
		Gateway:  gateway,
		Tutor:    tutorClient,
		Mailer:   mailer,
		Renderer: pdf.NewRenderer(cfg.AppName),
	})

	// Background jobs: checkout expiry and refresh token cleanup
	if cfg.Scheduler.Enabled {
		scheduler := services.NewMaintenanceService(svc.Payments, svc.Repos.RefreshTokens, cfg.Scheduler)
		if err := scheduler.Start(); err != nil {
			log.Fatalf("❌ Failed to start scheduler: %v", err)
		}
		defer scheduler.Stop()
	}

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName + " API v1.0",
		ErrorHandler: middleware.ErrorHandler(rep),
		ProxyHeader:  fiber.HeaderXForwardedFor,
	})

	middleware.Setup(app, cfg, rep)
	routes.Setup(app, svc, cfg)

	// Graceful shutdown
	go gracefulShutdown(app)

	log.Printf("🚀 Server starting on port %s [MODE: %s]", cfg.Port, cfg.AppMode)
	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Printf("❌ Failed to start server: %v", err)
	}
}

// gracefulShutdown handles graceful shutdown
func gracefulShutdown(app *fiber.App) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("🛑 Shutting down server...")
	if err := app.Shutdown(); err != nil {
		log.Printf("❌ Error during shutdown: %v", err)
	}
	log.Println("✅ Server stopped gracefully")
}
