package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"food_order/internal/config"
	"food_order/internal/database"
	"food_order/internal/handlers"
	"food_order/internal/migrations"
	"food_order/internal/realtime"
	"food_order/internal/redis"
	"food_order/internal/repository"
	"food_order/internal/services"

	"github.com/gin-gonic/gin"
)

func main() {
	// Load configuration
	cfg := config.Load()

	// Initialize database
	db, err := database.Initialize(cfg.DatabaseURL)
	if err != nil {
		log.Fatal("Failed to connect to database:", err)
	}

	if err := migrations.RunMigrations(db); err != nil {
		log.Fatal("Failed to migrate database:", err)
	}

	// Initialize Redis
	redisClient, err := redis.Initialize(cfg.RedisURL)
	if err != nil {
		log.Fatal("Failed to connect to Redis:", err)
	}
	defer redisClient.Close()

	// Realtime hub: one instance, injected everywhere events are emitted
	access := realtime.NewAccessPolicy(redisClient, cfg.AdminAPIKeyHash)
	hub := realtime.NewHub(access)

	// Initialize repositories
	orderRepo := repository.NewOrderRepository(db)
	menuRepo := repository.NewMenuItemRepository(db)

	// Initialize services
	orderService := services.NewOrderService(
		orderRepo,
		menuRepo,
		hub,
		redisClient,
		redisClient,
		time.Duration(cfg.TrackingTTL)*time.Second,
		time.Duration(cfg.StatsCacheTTL)*time.Second,
	)

	// Initialize handlers
	orderHandler := handlers.NewOrderHandler(orderService)

	// Setup routes
	router := gin.Default()

	router.GET("/health", func(c *gin.Context) {
		if err := database.Ping(db); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "down", "database": err.Error()})
			return
		}
		if err := redisClient.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "down", "redis": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// Realtime endpoint
	router.GET("/ws", handlers.ServeWS(hub))

	orders := router.Group("/orders")
	{
		orders.POST("", orderHandler.CreateOrder)
		orders.GET("", orderHandler.ListOrders)
		orders.GET("/:id", orderHandler.GetOrder)
		orders.PATCH("/:id/status", handlers.AdminAuth(cfg.AdminAPIKeyHash), orderHandler.UpdateStatus)
		orders.PUT("/:id/cancel", orderHandler.CancelOrder)

		admin := orders.Group("/admin", handlers.AdminAuth(cfg.AdminAPIKeyHash))
		{
			admin.GET("/stats", orderHandler.Stats)
			admin.GET("/recent", orderHandler.RecentOrders)
		}
	}

	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		sigint := make(chan os.Signal, 1)
		signal.Notify(sigint, os.Interrupt, syscall.SIGTERM)
		<-sigint

		log.Println("Shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Printf("Error during shutdown: %v", err)
		}
		hub.Close()
	}()

	log.Printf("Server starting on port %s", cfg.ServerPort)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal("Failed to start server:", err)
	}
}
