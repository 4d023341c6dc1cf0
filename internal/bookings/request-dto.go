package bookings

import (
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// PaymentMethods the platform settles through.
var PaymentMethods = []string{"CASH", "CARD", "UPI", "NETBANKING", "WALLET"}

// RegisterValidations installs booking-specific binding rules. Call once at
// startup before the router handles traffic.
func RegisterValidations() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterValidation("paymentmethod", validPaymentMethod)
	}
}

func validPaymentMethod(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	for _, m := range PaymentMethods {
		if value == m {
			return true
		}
	}
	return false
}

type ConfirmBookingRequest struct {
	TripID        string   `json:"trip_id" binding:"required,uuid"`
	ProviderID    string   `json:"provider_id" binding:"required,uuid"`
	SeatIDs       []string `json:"seat_ids" binding:"required,min=1,max=10,dive,uuid"`
	PaymentMethod string   `json:"payment_method" binding:"required,paymentmethod"`
}

type PaymentOutcomeRequest struct {
	BookingID     string `json:"booking_id" binding:"required,uuid"`
	Outcome       string `json:"outcome" binding:"required,oneof=COMPLETED FAILED EXPIRED"`
	TransactionID string `json:"transaction_id" binding:"omitempty,max=128"`
}

type BookingListQuery struct {
	Page           int    `form:"page"`
	Limit          int    `form:"limit"`
	PaymentStatus  string `form:"payment_status"`
	ApprovalStatus string `form:"approval_status"`
	TripID         string `form:"trip_id"`
}
