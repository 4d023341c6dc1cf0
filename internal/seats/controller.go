package seats

import (
	"net/http"

	"tripline/internal/shared/apperr"
	"tripline/internal/shared/middleware"
	"tripline/internal/shared/utils/response"

	"github.com/gin-gonic/gin"
)

type Controller struct {
	service Service
}

func NewController(service Service) *Controller {
	return &Controller{service: service}
}

//  SEAT HOLDING

func (c *Controller) HoldSeat(ctx *gin.Context) {
	userID, ok := middleware.CurrentUserID(ctx)
	if !ok {
		response.RespondError(ctx, apperr.Forbidden("missing user identity"))
		return
	}

	var req HoldSeatRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RespondError(ctx, apperr.Validation(err.Error()))
		return
	}

	seat, err := c.service.HoldSeat(ctx.Request.Context(), req.SeatID, userID)
	if err != nil {
		response.RespondError(ctx, err)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Seat held successfully", toHoldResponse([]Seat{*seat}), nil)
}

func (c *Controller) HoldSeats(ctx *gin.Context) {
	userID, ok := middleware.CurrentUserID(ctx)
	if !ok {
		response.RespondError(ctx, apperr.Forbidden("missing user identity"))
		return
	}

	var req HoldSeatsRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RespondError(ctx, apperr.Validation(err.Error()))
		return
	}

	held, err := c.service.HoldSeats(ctx.Request.Context(), req.SeatIDs, userID)
	if err != nil {
		response.RespondError(ctx, err)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Seats held successfully", toHoldResponse(held), nil)
}

func (c *Controller) ReleaseSeats(ctx *gin.Context) {
	userID, ok := middleware.CurrentUserID(ctx)
	if !ok {
		response.RespondError(ctx, apperr.Forbidden("missing user identity"))
		return
	}

	var req ReleaseSeatsRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		response.RespondError(ctx, apperr.Validation(err.Error()))
		return
	}

	privileged := middleware.CurrentRole(ctx) == middleware.RoleAdmin
	released, err := c.service.ReleaseSeats(ctx.Request.Context(), req.SeatIDs, userID, privileged)
	if err != nil {
		response.RespondError(ctx, err)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Seats released successfully", ReleaseResponse{Released: released}, nil)
}

//  BROWSING

func (c *Controller) GetSeat(ctx *gin.Context) {
	id := ctx.Param("id")
	if id == "" {
		response.RespondError(ctx, apperr.Validation("missing seat ID"))
		return
	}

	seat, err := c.service.GetSeat(ctx.Request.Context(), id)
	if err != nil {
		response.RespondError(ctx, err)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Seat retrieved successfully", seat, nil)
}

func (c *Controller) GetTripSeats(ctx *gin.Context) {
	tripID := ctx.Param("tripId")
	if tripID == "" {
		response.RespondError(ctx, apperr.Validation("missing trip ID"))
		return
	}

	views, err := c.service.ListTripSeats(ctx.Request.Context(), tripID)
	if err != nil {
		response.RespondError(ctx, err)
		return
	}

	response.RespondJSON(ctx, "success", http.StatusOK, "Trip seats retrieved successfully", views, nil)
}
