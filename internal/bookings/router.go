package bookings

import (
	"tripline/internal/shared/config"
	"tripline/internal/shared/middleware"

	"github.com/gin-gonic/gin"
)

func SetupBookingRoutes(rg *gin.RouterGroup, controller *Controller, cfg *config.Config) {

	// USER BOOKING OPERATIONS

	bookings := rg.Group("/bookings")
	bookings.Use(middleware.JWTAuth(cfg))
	{
		bookings.POST("/confirm", middleware.RequireRoles(middleware.RoleUser, middleware.RoleAdmin), controller.ConfirmBooking) // POST /api/v1/bookings/confirm
		bookings.GET("/:id", controller.GetBooking)                                                                             // GET /api/v1/bookings/:id
		bookings.POST("/:id/cancel", controller.CancelBooking)                                                                  // POST /api/v1/bookings/:id/cancel

		// Provider-side confirmation. Approval is keyed on the booking's
		// provider_id, so only the provider role is admitted here.
		bookings.PATCH("/:id/approve", middleware.RequireRoles(middleware.RoleProvider), controller.ApproveBooking) // PATCH /api/v1/bookings/:id/approve
	}

	// USER BOOKING HISTORY

	users := rg.Group("/users")
	users.Use(middleware.JWTAuth(cfg))
	{
		users.GET("/bookings", controller.GetUserBookings) // GET /api/v1/users/bookings
	}

	// PAYMENT PROVIDER INTEGRATION (shared-secret auth, no JWT)

	integrations := rg.Group("/integrations")
	{
		integrations.POST("/payments/outcome", controller.PaymentOutcome) // POST /api/v1/integrations/payments/outcome
	}
}
