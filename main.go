package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"restaurant-pos-api/catalog"
	"restaurant-pos-api/config"
	"restaurant-pos-api/handlers"
	"restaurant-pos-api/loyalty"
	"restaurant-pos-api/notify"
	"restaurant-pos-api/orders"
	"restaurant-pos-api/routes"
	"restaurant-pos-api/tables"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

func main() {
	// Set Gin mode
	mode := os.Getenv("GIN_MODE")
	if mode == "" {
		gin.SetMode(gin.DebugMode)
	}

	log := zerolog.New(os.Stdout).With().Timestamp().Str("service", "restaurant-pos-api").Logger()
	if os.Getenv("LOG_PRETTY") == "true" {
		log = log.Output(zerolog.ConsoleWriter{Out: os.Stdout})
	}

	// Initialize database
	config.InitDB()

	// Event fan-out, with an optional broker leg
	var broker notify.BrokerPublisher
	if url := config.AMQPURL(); url != "" {
		pub, err := notify.NewAMQPPublisher(url, log)
		if err != nil {
			log.Fatal().Err(err).Msg("amqp connect failed")
		}
		defer pub.Close()
		broker = pub
	}
	dispatcher := notify.NewDispatcher(broker, log)

	svc := orders.New(
		config.DB,
		catalog.NewService(config.DB),
		loyalty.NewGormLedger(config.DB),
		tables.NewChecker(log),
		dispatcher,
		log,
	)
	handlers.Init(svc, dispatcher)

	// Promote scheduled orders in the background
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	go orders.NewScheduler(svc, config.SweepInterval(), log).Run(ctx)

	// Create Gin router with default middleware (logger + recovery)
	r := gin.Default()

	// CORS middleware for frontend integration
	r.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Authorization")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	})

	// Health check endpoint
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": "Restaurant POS Order API",
			"version": "1.0.0",
		})
	})

	// Welcome
	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "🍽 Welcome to the Restaurant POS Order API",
			"docs":    "/api/state-machine",
			"health":  "/health",
			"roles":   []string{"waiter", "kitchen", "manager", "admin"},
		})
	})

	// Register all routes
	routes.SetupRoutes(r)

	// Start server
	port := config.Port()
	log.Info().Str("port", port).Msg("server starting")
	if err := r.Run(":" + port); err != nil {
		log.Fatal().Err(err).Msg("failed to start server")
	}
}
