package seats

import (
	"tripline/internal/shared/config"
	"tripline/internal/shared/middleware"

	"github.com/gin-gonic/gin"
)

func SetupSeatRoutes(rg *gin.RouterGroup, controller *Controller, cfg *config.Config) {

	// USER SEAT OPERATIONS

	seats := rg.Group("/seats")
	seats.Use(middleware.JWTAuth(cfg), middleware.RequireRoles(middleware.RoleUser, middleware.RoleAdmin))
	{
		seats.GET("/:id", controller.GetSeat) // GET /api/v1/seats/:id

		// Core seat holding endpoints (booking flow)
		seats.POST("/hold", controller.HoldSeat)        // POST /api/v1/seats/hold
		seats.POST("/hold-many", controller.HoldSeats)  // POST /api/v1/seats/hold-many
		seats.POST("/release", controller.ReleaseSeats) // POST /api/v1/seats/release
	}

	// TRIP SEAT MAP (public browsing)

	trips := rg.Group("/trips")
	{
		trips.GET("/:tripId/seats", controller.GetTripSeats) // GET /api/v1/trips/:tripId/seats
	}
}
