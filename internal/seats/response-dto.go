package seats

import (
	"time"

	"github.com/google/uuid"
)

// SeatView is the browsing projection of a seat. Status is the effective
// status at read time, so a lapsed hold already shows as AVAILABLE.
type SeatView struct {
	ID            uuid.UUID  `json:"id"`
	TripID        uuid.UUID  `json:"trip_id"`
	SeatNumber    string     `json:"seat_number"`
	Price         int64      `json:"price"`
	Status        Status     `json:"status"`
	HoldExpiresAt *time.Time `json:"hold_expires_at,omitempty"`
}

func toSeatView(seat Seat, now time.Time) SeatView {
	view := SeatView{
		ID:         seat.ID,
		TripID:     seat.TripID,
		SeatNumber: seat.SeatNumber,
		Price:      seat.Price,
		Status:     seat.EffectiveStatus(now),
	}
	if view.Status == StatusHeld {
		view.HoldExpiresAt = seat.HoldExpiresAt
	}
	return view
}

type HoldResponse struct {
	Seats     []HeldSeat `json:"seats"`
	ExpiresAt time.Time  `json:"expires_at"`
}

type HeldSeat struct {
	ID         uuid.UUID `json:"id"`
	TripID     uuid.UUID `json:"trip_id"`
	SeatNumber string    `json:"seat_number"`
	Price      int64     `json:"price"`
}

func toHoldResponse(seats []Seat) HoldResponse {
	resp := HoldResponse{Seats: make([]HeldSeat, 0, len(seats))}
	for _, seat := range seats {
		resp.Seats = append(resp.Seats, HeldSeat{
			ID:         seat.ID,
			TripID:     seat.TripID,
			SeatNumber: seat.SeatNumber,
			Price:      seat.Price,
		})
		if seat.HoldExpiresAt != nil {
			resp.ExpiresAt = *seat.HoldExpiresAt
		}
	}
	return resp
}

type ReleaseResponse struct {
	Released int64 `json:"released"`
}
