package main

import (
	"rental-api/internal/handler"
	"rental-api/internal/middleware"
	"rental-api/internal/model"
	"rental-api/internal/pricing"
	"rental-api/pkg/config"
	"rental-api/pkg/database"
	"rental-api/pkg/jwtutil"
	"rental-api/pkg/logger"
	"rental-api/prometheus"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
)

func main() {
	// Load configuration from .env file and environment variables
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger with config
	logger.InitLogger(cfg)
	log := logger.GetLogger()
	log.Info("Starting rental API...", cfg.LogConfig()...)

	// Initialize database
	if err := database.Initialize(&cfg.DB); err != nil {
		log.Fatal("Failed to initialize database", zap.Error(err))
	}
	log.Info("Database connection established")

	// Credential verification and authorization gate
	jwtUtil := jwtutil.New(&cfg.JWT)
	auth := middleware.NewAuth(jwtUtil, &middleware.GormStore{DB: database.GetDB()})

	// Pricing advisor with optional redis-backed recommendation cache
	cache := pricing.NewCache(&cfg.Redis, log)
	advisor := pricing.NewAdvisor(
		&pricing.GormStore{DB: database.GetDB()},
		pricing.NewGeminiClient(&cfg.AI),
		cache,
		log,
	)

	authHandler := handler.NewAuthHandler(jwtUtil)
	pricingHandler := handler.NewPricingHandler(advisor)

	// Initialize Echo framework
	e := echo.New()

	// Apply global middleware - order matters
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORS())
	e.Use(middleware.RequestID)
	e.Use(logger.Middleware(log))
	e.Use(prometheus.MetricsMiddleware())

	// Public routes - no authentication required
	e.GET("/health", handler.HealthCheck)
	e.GET("/metrics", handler.MetricsHandler)

	// Authentication routes
	authGroup := e.Group("/api/v1/auth")
	authGroup.POST("/register", authHandler.Register)
	authGroup.POST("/login", authHandler.Login)

	// API routes - all require a verified credential and an active tenant
	api := e.Group("/api/v1")
	api.Use(auth.Authenticate)

	// User profile
	users := api.Group("/users")
	users.GET("/profile", authHandler.GetProfile)
	users.PATCH("/profile", authHandler.UpdateProfile)
	users.POST("/change-password", authHandler.ChangePassword)

	// Tenant and subscription
	tenants := api.Group("/tenant")
	tenants.GET("", handler.GetTenant)
	tenants.GET("/subscription", handler.GetSubscription)
	tenants.PATCH("/settings", handler.UpdateTenantSettings,
		auth.RequireRole(model.RoleAdmin))

	// Properties - creation counts against the plan's property limit
	properties := api.Group("/properties")
	properties.GET("", handler.ListProperties)
	properties.GET("/:id", handler.GetProperty)
	properties.POST("", handler.CreateProperty,
		auth.RequireRole(model.RoleAdmin, model.RoleManager),
		auth.RequireUsage(model.ResourceProperties))
	properties.PUT("/:id", handler.UpdateProperty,
		auth.RequireRole(model.RoleAdmin, model.RoleManager))
	properties.DELETE("/:id", handler.DeleteProperty,
		auth.RequireRole(model.RoleAdmin))

	// Bookings
	bookings := api.Group("/bookings")
	bookings.GET("", handler.ListBookings)
	bookings.GET("/:id", handler.GetBooking)
	bookings.POST("", handler.CreateBooking,
		auth.RequireRole(model.RoleAdmin, model.RoleManager))
	bookings.PATCH("/:id/status", handler.UpdateBookingStatus,
		auth.RequireRole(model.RoleAdmin, model.RoleManager))

	// AI surfaces - feature-gated and metered per plan
	ai := api.Group("/ai",
		auth.RequireSubscription(model.FeatureAIPricing),
		auth.RequireUsage(model.ResourceAPICalls))
	ai.POST("/pricing", pricingHandler.Recommend)
	ai.POST("/message", pricingHandler.GuestMessage)
	ai.POST("/market-trends", pricingHandler.MarketTrends)

	// Get server port from configuration
	port := cfg.Server.Port

	// Start server
	log.Info("Starting server", zap.String("port", port))
	if err := e.Start(":" + port); err != nil {
		log.Fatal("Failed to start server", zap.Error(err))
	}
}
