package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/joho/godotenv"

	"crowdvest/internal/config"
	"crowdvest/internal/database"
	"crowdvest/internal/handlers"
	"crowdvest/internal/jobs"
	"crowdvest/internal/logging"
	"crowdvest/internal/middleware"
	"crowdvest/internal/services"
	"crowdvest/pkg/auth"
)

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)

	// Structured logging (JSON in production, text in dev)
	logging.Init()

	log.Println("🚀 Starting CrowdVest Server...")

	// Load .env file (ignore error if file doesn't exist)
	if err := godotenv.Load(); err != nil {
		log.Printf("⚠️  No .env file found or error loading it: %v", err)
	}

	cfg := config.Load()
	log.Printf("📋 Configuration loaded (Port: %s)", cfg.Port)

	if cfg.MongoURI == "" {
		log.Fatal("❌ MONGODB_URI environment variable is required")
	}
	if cfg.JWTSecret == "" {
		log.Fatal("❌ JWT_SECRET environment variable is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	mongoDB, err := database.NewMongoDB(cfg.MongoURI)
	if err != nil {
		log.Fatalf("❌ Failed to connect to MongoDB: %v", err)
	}
	if err := mongoDB.Initialize(ctx); err != nil {
		log.Fatalf("❌ Failed to initialize MongoDB: %v", err)
	}
	cancel()
	defer func() {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		mongoDB.Close(shutdownCtx)
	}()

	redisService, err := services.NewRedisService(cfg.RedisURL)
	if err != nil {
		log.Fatalf("❌ Failed to connect to Redis: %v", err)
	}
	defer redisService.Close()

	jwtAuth, err := auth.NewJWT(cfg.JWTSecret, cfg.AccessTokenExpiry, cfg.RefreshTokenExpiry)
	if err != nil {
		log.Fatalf("❌ Failed to initialize JWT auth: %v", err)
	}

	services.InitMetrics()

	// Services
	planService := services.NewPlanService(mongoDB)
	userService := services.NewUserService(mongoDB, planService)
	searchService := services.NewSearchService(mongoDB, planService)
	projectService := services.NewProjectService(mongoDB)
	importService := services.NewImportService(projectService)
	emailService := services.NewEmailService(cfg)
	notificationService := services.NewNotificationService(mongoDB, emailService, userService)
	investmentService := services.NewInvestmentService(mongoDB, notificationService, cfg.CancelWindow)
	usageLimiter := services.NewUsageLimiter(redisService, planService)
	savedSearchService := services.NewSavedSearchService(mongoDB, planService, searchService)
	analyticsService := services.NewAnalyticsService(mongoDB, projectService)

	var billingService *services.BillingService
	if cfg.BillingWebhookSecret != "" {
		billingService, err = services.NewBillingService(mongoDB, userService, cfg.BillingWebhookSecret)
		if err != nil {
			log.Fatalf("❌ Failed to initialize billing webhooks: %v", err)
		}
	} else {
		log.Println("⚠️  BILLING_WEBHOOK_SECRET not set, billing webhooks disabled")
	}

	// Background jobs
	scheduler, err := jobs.NewScheduler(analyticsService)
	if err != nil {
		log.Fatalf("❌ Failed to initialize scheduler: %v", err)
	}
	scheduler.Start()

	// Fiber app
	app := fiber.New(fiber.Config{
		AppName:      "CrowdVest v1.0",
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
		BodyLimit:    10 * 1024 * 1024, // 10MB, covers Excel imports
	})

	app.Use(recover.New())
	app.Use(logger.New())

	prometheus := fiberprometheus.New("crowdvest")
	prometheus.RegisterAt(app, "/metrics")
	app.Use(prometheus.Middleware)
	log.Println("📊 Prometheus metrics endpoint enabled at /metrics")

	rateLimitConfig := middleware.LoadRateLimitConfig()

	allowedOrigins := os.Getenv("ALLOWED_ORIGINS")
	if allowedOrigins == "" {
		allowedOrigins = "http://localhost:5173,http://localhost:3000"
		log.Println("⚠️  ALLOWED_ORIGINS not set, using development defaults")
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOrigins,
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders:     "Origin,Content-Type,Accept,Authorization",
		AllowCredentials: allowedOrigins != "*",
	}))

	app.Use("/api", middleware.GlobalAPIRateLimiter(rateLimitConfig))

	// Handlers
	healthHandler := handlers.NewHealthHandler(mongoDB)
	authHandler := handlers.NewAuthHandler(userService, jwtAuth)
	projectHandler := handlers.NewProjectHandler(projectService, searchService, importService, usageLimiter)
	investmentHandler := handlers.NewInvestmentHandler(investmentService, usageLimiter)
	notificationHandler := handlers.NewNotificationHandler(notificationService)
	savedSearchHandler := handlers.NewSavedSearchHandler(savedSearchService)
	adminHandler := handlers.NewAdminHandler(analyticsService)

	// Routes
	app.Get("/health", healthHandler.Health)
	app.Get("/ready", healthHandler.Ready)

	authRoutes := app.Group("/api/auth")
	authRoutes.Post("/register", middleware.AuthAttemptRateLimiter(rateLimitConfig), authHandler.Register)
	authRoutes.Post("/login", middleware.AuthAttemptRateLimiter(rateLimitConfig), authHandler.Login)
	authRoutes.Post("/refresh", middleware.AuthAttemptRateLimiter(rateLimitConfig), authHandler.Refresh)
	authRoutes.Get("/me", middleware.AuthMiddleware(jwtAuth), authHandler.Me)

	authenticated := middleware.AuthMiddleware(jwtAuth)
	userLimited := middleware.AuthenticatedRateLimiter(rateLimitConfig)
	adminOnly := middleware.AdminMiddleware(cfg)

	projectRoutes := app.Group("/api/projects", authenticated, userLimited)
	projectRoutes.Get("/", projectHandler.List)
	projectRoutes.Post("/search", projectHandler.Search)
	projectRoutes.Get("/premium", projectHandler.Premium)
	projectRoutes.Get("/categories", projectHandler.Categories)
	projectRoutes.Get("/stats", adminOnly, projectHandler.Stats)
	projectRoutes.Post("/import", adminOnly, projectHandler.Import)
	projectRoutes.Post("/", adminOnly, projectHandler.Create)
	projectRoutes.Get("/:id", projectHandler.Get)
	projectRoutes.Put("/:id", adminOnly, projectHandler.Update)
	projectRoutes.Post("/:id/close", adminOnly, projectHandler.Close)
	projectRoutes.Delete("/:id", adminOnly, projectHandler.Delete)

	investmentRoutes := app.Group("/api/investments", authenticated, userLimited)
	investmentRoutes.Post("/", investmentHandler.Create)
	investmentRoutes.Post("/simulate", investmentHandler.Simulate)
	investmentRoutes.Get("/my-investments", investmentHandler.MyInvestments)
	investmentRoutes.Get("/stats", investmentHandler.Stats)
	investmentRoutes.Get("/usage", investmentHandler.Usage)
	investmentRoutes.Get("/project/:projectId", adminOnly, investmentHandler.ListByProject)
	investmentRoutes.Get("/:id", investmentHandler.Get)
	investmentRoutes.Post("/:id/cancel", investmentHandler.Cancel)

	notificationRoutes := app.Group("/api/notifications", authenticated, userLimited)
	notificationRoutes.Get("/", notificationHandler.List)
	notificationRoutes.Post("/read-all", notificationHandler.MarkAllRead)
	notificationRoutes.Post("/:id/read", notificationHandler.MarkRead)

	savedSearchRoutes := app.Group("/api/saved-searches", authenticated, userLimited)
	savedSearchRoutes.Post("/", savedSearchHandler.Create)
	savedSearchRoutes.Get("/", savedSearchHandler.List)
	savedSearchRoutes.Post("/:id/run", savedSearchHandler.Run)
	savedSearchRoutes.Delete("/:id", savedSearchHandler.Delete)

	if billingService != nil {
		webhookHandler := handlers.NewWebhookHandler(billingService)
		app.Post("/api/webhooks/billing", webhookHandler.Billing)
	}

	adminRoutes := app.Group("/api/admin", authenticated, adminOnly)
	adminRoutes.Get("/analytics/overview", adminHandler.AnalyticsOverview)
	adminRoutes.Post("/analytics/rollup", adminHandler.RollupDay)

	log.Printf("📡 Health check: http://localhost:%s/health", cfg.Port)

	// Graceful shutdown
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		log.Println("\n🛑 Shutting down server...")

		if err := scheduler.Stop(); err != nil {
			log.Printf("⚠️ Error stopping scheduler: %v", err)
		}
		if err := app.Shutdown(); err != nil {
			log.Printf("⚠️ Error shutting down server: %v", err)
		}
	}()

	if err := app.Listen(":" + cfg.Port); err != nil {
		log.Fatalf("❌ Failed to start server: %v", err)
	}
}
