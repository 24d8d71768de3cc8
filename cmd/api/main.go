package main

import (
	"log"
	"os"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/tcw0/lendit-sub000/internal/database"
	"github.com/tcw0/lendit-sub000/internal/handlers"
	"github.com/tcw0/lendit-sub000/internal/middleware"
	"github.com/tcw0/lendit-sub000/internal/rental"
	"github.com/tcw0/lendit-sub000/internal/services"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Fatal("Error loading .env file")
	}

	// Initialize database with better error handling
	db, err := database.InitDB()
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}

	// Get underlying SQL DB instance
	sqlDB, err := db.DB()
	if err != nil {
		log.Fatalf("Failed to get database instance: %v", err)
	}

	// Configure connection pool
	sqlDB.SetMaxIdleConns(10)
	sqlDB.SetMaxOpenConns(100)
	sqlDB.SetConnMaxLifetime(time.Hour)

	// Initialize Redis
	if err := services.InitRedis(); err != nil {
		log.Fatalf("Failed to initialize Redis: %v", err)
	}

	// Initialize Storage (S3 or local fallback)
	if err := services.InitStorage(); err != nil {
		log.Fatalf("Failed to initialize storage: %v", err)
	}

	// Initialize WebSocket hub
	hub := services.NewHub()
	go hub.Run()

	// Wire the rental lifecycle core
	payments := services.NewPaymentClient()
	svc := rental.NewService(rental.NewGormStore(db), payments)
	if os.Getenv("RENTAL_CLOSE_POLICY") == "either" {
		svc.SetClosePolicy(rental.CloseWhenEitherPartyRated)
	}

	// Initialize router
	r := gin.Default()

	// Configure CORS
	config := cors.DefaultConfig()
	config.AllowOrigins = []string{"*"}
	config.AllowHeaders = []string{"Origin", "Content-Type", "Accept", "Authorization"}
	r.Use(cors.New(config))

	// Serve locally stored pictures
	r.Static("/uploads", "/app/uploads")

	// Routes
	api := r.Group("/api")
	{
		// Public routes
		auth := api.Group("/auth")
		{
			auth.POST("/register", handlers.Register(db))
			auth.POST("/login", handlers.Login(db))
		}

		// Payment gateway webhook (authenticated by shared secret)
		api.POST("/payments/webhook", handlers.PaymentWebhook(svc, hub))

		// WebSocket connection
		api.GET("/ws", middleware.AuthMiddleware(), handlers.WebSocketHandler(db, hub))

		// Protected routes
		protected := api.Group("/")
		protected.Use(middleware.AuthMiddleware())
		{
			// User routes
			users := protected.Group("/users")
			{
				users.GET("/profile", handlers.GetProfile(db))
				users.PUT("/profile", handlers.UpdateProfile(db))
			}

			// Item catalog routes
			items := protected.Group("/items")
			{
				items.POST("", handlers.CreateItem(db))
				items.GET("", handlers.GetItems(db))
				items.GET("/:id", handlers.GetItem(db))
			}

			// Picture upload
			protected.POST("/pictures", handlers.UploadPicture())

			// Rental lifecycle routes
			rentals := protected.Group("/rentals")
			{
				rentals.POST("", handlers.CreateRental(db, svc))
				rentals.GET("", handlers.GetRentals(svc))
				rentals.GET("/:id", handlers.GetRental(svc))
				rentals.POST("/:id/accept", handlers.AcceptRental(svc, hub))
				rentals.POST("/:id/decline", handlers.DeclineRental(svc, hub))
				rentals.POST("/:id/payment-intent", handlers.CreatePaymentIntent(svc, payments))
				rentals.POST("/:id/pay", handlers.PayRental(svc, hub))
				rentals.POST("/:id/handovers", handlers.CreateHandover(svc, hub))
				rentals.GET("/:id/handovers/:type", handlers.GetHandover(svc))
				rentals.POST("/:id/ratings", handlers.SubmitRating(svc, hub))
				rentals.GET("/:id/ratings", handlers.GetRatings(db, svc))
			}

			// Handover agreement routes
			handovers := protected.Group("/handovers")
			{
				handovers.POST("/:id/accept", handlers.AcceptHandover(svc, hub))
				handovers.POST("/:id/decline", handlers.DeclineHandover(svc, hub))
			}

			// Chat history
			protected.GET("/chats/:rentalId/messages", handlers.GetChatMessages(db))
		}
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	if err := r.Run(":" + port); err != nil {
		log.Fatal("Failed to start server:", err)
	}
}
