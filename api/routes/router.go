// api/routes/router.go
package routes

import (
	"net/http"
	"time"

	"tripline/internal/bookings"
	"tripline/internal/notifications"
	"tripline/internal/seats"
	"tripline/internal/shared/config"
	"tripline/internal/shared/database"
	"tripline/pkg/cache"

	"github.com/gin-gonic/gin"
)

// Router holds all route dependencies
type Router struct {
	config    *config.Config
	db        *database.DB
	publisher notifications.Publisher
}

// NewRouter creates a new router instance
func NewRouter(cfg *config.Config, db *database.DB, publisher notifications.Publisher) *Router {
	return &Router{
		config:    cfg,
		db:        db,
		publisher: publisher,
	}
}

// SetupRoutes configures all application routes
func (r *Router) SetupRoutes(engine *gin.Engine) {
	// Health check and basic info endpoints
	r.setupHealthRoutes(engine)

	// API routes
	api := engine.Group(r.config.GetAPIBasePath())
	{
		r.setupSeatRoutes(api)
		r.setupBookingRoutes(api)
	}
}

// setupHealthRoutes sets up health check and system status routes
func (r *Router) setupHealthRoutes(engine *gin.Engine) {
	engine.GET("/health", func(c *gin.Context) {
		if err := r.db.HealthCheck(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{
				"status":    "unhealthy",
				"error":     err.Error(),
				"timestamp": time.Now(),
				"service":   "tripline-backend",
			})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"status":    "healthy",
			"timestamp": time.Now(),
			"service":   "tripline-backend",
		})
	})

	engine.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "pong",
			"version": r.config.APIVersion,
		})
	})

	engine.GET("/status", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":      "operational",
			"api_version": r.config.APIVersion,
			"timestamp":   time.Now(),
		})
	})
}

// setupSeatRoutes configures seat hold and browsing routes
func (r *Router) setupSeatRoutes(rg *gin.RouterGroup) {
	seatRepo := seats.NewRepository(r.db.GetPostgres())
	seatService := seats.NewService(seatRepo, r.config)
	seatService.SetCacheService(cache.NewService(r.db.GetRedisClient()))
	seatController := seats.NewController(seatService)

	seats.SetupSeatRoutes(rg, seatController, r.config)
}

// setupBookingRoutes configures the booking transaction routes
func (r *Router) setupBookingRoutes(rg *gin.RouterGroup) {
	bookingRepo := bookings.NewRepository(r.db.GetPostgres())
	bookingService := bookings.NewService(bookingRepo, r.config, r.publisher)
	bookingService.SetCacheService(cache.NewService(r.db.GetRedisClient()))
	bookingController := bookings.NewController(bookingService, r.config.Reservation.PaymentWebhookSecret)

	bookings.SetupBookingRoutes(rg, bookingController, r.config)
}
