package bookings

import (
	"net/http"

	"tripline/internal/shared/apperr"
	"tripline/internal/shared/middleware"
	"tripline/internal/shared/utils/response"

	"github.com/gin-gonic/gin"
)

type Controller struct {
	service              Service
	paymentWebhookSecret string
}

func NewController(service Service, paymentWebhookSecret string) *Controller {
	return &Controller{service: service, paymentWebhookSecret: paymentWebhookSecret}
}

//  BOOKING FLOW

func (c *Controller) ConfirmBooking(ctx *gin.Context) {
	userID, ok := middleware.CurrentUserID(ctx)
	if !ok {
		response.RespondError(ctx, apperr.Forbidden("missing user identity"))
		return
	}

	var req ConfirmBookingRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RespondError(ctx, apperr.Validation(err.Error()))
		return
	}

	booking, err := c.service.ConfirmBooking(ctx.Request.Context(), userID, req)
	if err != nil {
		response.RespondError(ctx, err)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusCreated, "Booking confirmed successfully", booking, nil)
}

func (c *Controller) GetBooking(ctx *gin.Context) {
	userID, ok := middleware.CurrentUserID(ctx)
	if !ok {
		response.RespondError(ctx, apperr.Forbidden("missing user identity"))
		return
	}

	id := ctx.Param("id")
	if id == "" {
		response.RespondError(ctx, apperr.Validation("missing booking ID"))
		return
	}

	booking, err := c.service.GetBooking(ctx.Request.Context(), id, userID, middleware.CurrentRole(ctx))
	if err != nil {
		response.RespondError(ctx, err)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Booking retrieved successfully", booking, nil)
}

func (c *Controller) GetUserBookings(ctx *gin.Context) {
	userID, ok := middleware.CurrentUserID(ctx)
	if !ok {
		response.RespondError(ctx, apperr.Forbidden("missing user identity"))
		return
	}

	var query BookingListQuery
	if err := ctx.ShouldBindQuery(&query); err != nil {
		response.RespondError(ctx, apperr.Validation(err.Error()))
		return
	}

	result, err := c.service.GetUserBookings(ctx.Request.Context(), userID, query)
	if err != nil {
		response.RespondError(ctx, err)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Bookings retrieved successfully", result, nil)
}

//  PROVIDER OPERATIONS

func (c *Controller) ApproveBooking(ctx *gin.Context) {
	providerID, ok := middleware.CurrentUserID(ctx)
	if !ok {
		response.RespondError(ctx, apperr.Forbidden("missing provider identity"))
		return
	}

	id := ctx.Param("id")
	if id == "" {
		response.RespondError(ctx, apperr.Validation("missing booking ID"))
		return
	}

	booking, err := c.service.ApproveBooking(ctx.Request.Context(), id, providerID)
	if err != nil {
		response.RespondError(ctx, err)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Booking approved successfully", booking, nil)
}

func (c *Controller) CancelBooking(ctx *gin.Context) {
	userID, ok := middleware.CurrentUserID(ctx)
	if !ok {
		response.RespondError(ctx, apperr.Forbidden("missing user identity"))
		return
	}

	id := ctx.Param("id")
	if id == "" {
		response.RespondError(ctx, apperr.Validation("missing booking ID"))
		return
	}

	privileged := middleware.CurrentRole(ctx) == middleware.RoleAdmin
	booking, err := c.service.CancelBooking(ctx.Request.Context(), id, userID, privileged)
	if err != nil {
		response.RespondError(ctx, err)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Booking cancelled successfully", booking, nil)
}

//  PAYMENT PROVIDER CALLBACK

// PaymentOutcome receives the payment provider webhook. Authentication is a
// shared secret header, not a user JWT.
func (c *Controller) PaymentOutcome(ctx *gin.Context) {
	if ctx.GetHeader("X-Webhook-Secret") != c.paymentWebhookSecret {
		response.RespondJSON(ctx, "error", http.StatusUnauthorized, "invalid webhook secret", nil, nil)
		return
	}

	var req PaymentOutcomeRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RespondError(ctx, apperr.Validation(err.Error()))
		return
	}

	booking, err := c.service.ApplyPaymentOutcome(ctx.Request.Context(), req)
	if err != nil {
		response.RespondError(ctx, err)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Payment outcome applied", booking, nil)
}
