package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/safetrade/safetrade-backend/internal/api/handlers"
	"github.com/safetrade/safetrade-backend/internal/api/middleware"
	"github.com/safetrade/safetrade-backend/internal/config"
	"github.com/safetrade/safetrade-backend/internal/services"
	"github.com/safetrade/safetrade-backend/pkg/logger"
	"gorm.io/gorm"
)

func SetupRoutes(router *gin.Engine, db *gorm.DB, cfg *config.Config) {
	// Middleware
	router.Use(gin.Logger())
	router.Use(gin.Recovery())
	router.Use(middleware.CORSMiddleware())
	router.Use(middleware.RateLimitMiddleware(cfg))

	// Initialize services
	emailService := services.NewEmailService(cfg)
	authService := services.NewAuthService(db, cfg.JWTSecret, emailService, cfg.BaseURL)
	s3Service := services.NewS3Service(cfg.S3Region, cfg.S3BucketName, cfg.S3AccessKey, cfg.S3SecretKey)
	geocodingService := services.NewGeocodingService(cfg.GeocodingURL)
	classifier := services.NewClassifier(cfg.BannedWords)
	detectionService := services.NewDetectionService(db, classifier)
	productService := services.NewProductService(db, s3Service, geocodingService, detectionService)
	likeService := services.NewLikeService(db)
	moderationService := services.NewModerationService(db, emailService)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(authService)
	passwordHandler := handlers.NewPasswordHandler(authService)
	productHandler := handlers.NewProductHandler(productService)
	likeHandler := handlers.NewLikeHandler(likeService)
	geocodingHandler := handlers.NewGeocodingHandler(geocodingService)
	moderationHandler := handlers.NewModerationHandler(moderationService, detectionService)

	// Health check
	router.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok", "message": "Server is running"})
	})

	// API routes
	api := router.Group("/api/v1")

	// Auth routes (public)
	auth := api.Group("/auth")
	{
		auth.POST("/signup", authHandler.Signup)
		auth.POST("/login", authHandler.Login)
		auth.POST("/logout", middleware.AuthMiddleware(cfg), authHandler.Logout)
		auth.POST("/refresh-token", authHandler.RefreshToken)
		auth.GET("/profile", middleware.AuthMiddleware(cfg), authHandler.GetProfile)
		auth.PUT("/profile-update", middleware.AuthMiddleware(cfg), authHandler.UpdateProfile)
	}

	// Password reset routes
	passwordGroup := api.Group("/password")
	{
		passwordGroup.POST("/forgot", passwordHandler.ForgotPassword)
		passwordGroup.GET("/validate-reset-token", passwordHandler.ValidateResetToken)
		passwordGroup.POST("/reset", passwordHandler.ResetPassword)
		passwordGroup.POST("/change", middleware.AuthMiddleware(cfg), passwordHandler.ChangePassword)
	}

	// Product routes
	products := api.Group("/products")
	{
		products.GET("/", productHandler.GetAllProducts)
		products.GET("/categories", productHandler.GetCategories)
		products.GET("/:product_id", productHandler.GetProduct)
		products.GET("/:product_id/likes", likeHandler.CountLikes)
		products.POST("/", middleware.AuthMiddleware(cfg), productHandler.CreateProduct)
		products.PUT("/:product_id", middleware.AuthMiddleware(cfg), productHandler.UpdateProduct)
		products.DELETE("/:product_id", middleware.AuthMiddleware(cfg), productHandler.DeleteProduct)
		products.POST("/:product_id/like", middleware.AuthMiddleware(cfg), likeHandler.ToggleLike)
		products.POST("/:product_id/images", middleware.AuthMiddleware(cfg), productHandler.UploadImages)
		products.DELETE("/:product_id/images/:image_id", middleware.AuthMiddleware(cfg), productHandler.DeleteImage)
	}

	// Geocoding passthrough
	api.GET("/geocoding/search", geocodingHandler.Search)

	// Moderation routes
	moderation := api.Group("/moderation", middleware.AuthMiddleware(cfg))
	{
		// Reporting and appealing are open to any authenticated user
		moderation.POST("/report", moderationHandler.CreateReport)
		moderation.PATCH("/incident/:id/appeal", moderationHandler.Appeal)

		// Review operations need moderator or admin
		review := moderation.Group("", middleware.ModeratorOrAdmin())
		{
			review.GET("/incidents", moderationHandler.GetAllIncidents)
			review.GET("/incidents/:status", moderationHandler.GetIncidentsByStatus)
			review.PATCH("/incident/:id/status", moderationHandler.UpdateIncidentStatus)
			review.PATCH("/incident/:id/assign/:moderator_id", moderationHandler.AssignModerator)
			review.PATCH("/incident/:id/resolve", moderationHandler.ResolveIncident)
			review.GET("/detect-dangerous", moderationHandler.DetectDangerousProducts)
		}
	}

	logger.Info("Routes initialized successfully")
}
