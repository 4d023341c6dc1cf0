package seats

import (
	"time"

	"github.com/google/uuid"
)

// Status is the lifecycle state of one seat on one scheduled trip.
type Status string

const (
	StatusAvailable Status = "AVAILABLE"
	StatusHeld      Status = "HELD"
	StatusBooked    Status = "BOOKED"
)

// Seat is one bookable unit on one scheduled trip. UserID and HoldExpiresAt
// are set iff the seat is HELD; BookingID is set iff it is BOOKED. All
// transitions go through conditional writes keyed on the current status, so
// two callers can never both observe HELD ownership of the same seat.
type Seat struct {
	ID            uuid.UUID  `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	TripID        uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_trip_seat" json:"trip_id"`
	SeatNumber    string     `gorm:"not null;uniqueIndex:idx_trip_seat" json:"seat_number"`
	Price         int64      `gorm:"not null" json:"price"`
	Status        Status     `gorm:"type:varchar(16);check:status IN ('AVAILABLE', 'HELD', 'BOOKED');default:'AVAILABLE';index" json:"status"`
	UserID        *uuid.UUID `gorm:"type:uuid;index" json:"user_id,omitempty"`
	HoldExpiresAt *time.Time `json:"hold_expires_at,omitempty"`
	BookingID     *uuid.UUID `gorm:"type:uuid;index" json:"booking_id,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// TableName sets the table name for Seat
func (Seat) TableName() string {
	return "seats"
}

func (s *Seat) IsAvailable() bool {
	return s.Status == StatusAvailable
}

func (s *Seat) IsHeld() bool {
	return s.Status == StatusHeld
}

func (s *Seat) IsBooked() bool {
	return s.Status == StatusBooked
}

// HoldLapsed reports whether a HELD seat's hold has expired at the given
// instant. Lapsed holds are reclaimable by anyone; only the sweeper or the
// next conditional write actually clears them.
func (s *Seat) HoldLapsed(now time.Time) bool {
	return s.IsHeld() && s.HoldExpiresAt != nil && s.HoldExpiresAt.Before(now)
}

// HeldBy reports whether the seat is validly held by userID at the given instant.
func (s *Seat) HeldBy(userID uuid.UUID, now time.Time) bool {
	return s.IsHeld() && s.UserID != nil && *s.UserID == userID && !s.HoldLapsed(now)
}

// EffectiveStatus is what a browsing client should see: a lapsed hold is
// already AVAILABLE for all practical purposes, even before a sweep tick.
func (s *Seat) EffectiveStatus(now time.Time) Status {
	if s.HoldLapsed(now) {
		return StatusAvailable
	}
	return s.Status
}
