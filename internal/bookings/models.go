package bookings

import (
	"time"

	"github.com/google/uuid"
)

// Booking is one all-or-nothing reservation of a set of seats on a trip. The
// seat rows carry the authoritative link back via booking_id; BookingSeat
// keeps the per-seat price as quoted at confirmation time.
type Booking struct {
	ID             uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	UserID         uuid.UUID      `gorm:"type:uuid;not null;index" json:"user_id"`
	TripID         uuid.UUID      `gorm:"type:uuid;not null;index" json:"trip_id"`
	ProviderID     uuid.UUID      `gorm:"type:uuid;not null;index" json:"provider_id"`
	TotalPrice     int64          `gorm:"not null" json:"total_price"`
	PaymentMethod  string         `gorm:"type:varchar(32);not null" json:"payment_method"`
	PaymentStatus  PaymentStatus  `gorm:"type:varchar(16);not null;default:'PENDING';index" json:"payment_status"`
	ApprovalStatus ApprovalStatus `gorm:"type:varchar(32);not null;default:'PENDING_APPROVAL';index" json:"approval_status"`
	ExpiresAt      time.Time      `gorm:"not null;index" json:"expires_at"`
	CancelledAt    *time.Time     `json:"cancelled_at,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`

	Seats []BookingSeat `gorm:"foreignKey:BookingID" json:"seats,omitempty"`
}

// TableName sets the table name for Booking
func (Booking) TableName() string {
	return "bookings"
}

// BookingSeat snapshots one seat inside a booking at the price it was sold at.
type BookingSeat struct {
	ID         uuid.UUID `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	BookingID  uuid.UUID `gorm:"type:uuid;not null;index" json:"booking_id"`
	SeatID     uuid.UUID `gorm:"type:uuid;not null;uniqueIndex" json:"seat_id"`
	SeatNumber string    `gorm:"not null" json:"seat_number"`
	SeatPrice  int64     `gorm:"not null" json:"seat_price"`
	CreatedAt  time.Time `json:"created_at"`
}

// TableName sets the table name for BookingSeat
func (BookingSeat) TableName() string {
	return "booking_seats"
}

// IsActive reports whether the booking still occupies its seats. Cancelled
// and payment-dead bookings have released them.
func (b *Booking) IsActive() bool {
	return b.ApprovalStatus != ApprovalCancelled &&
		b.PaymentStatus != PaymentFailed &&
		b.PaymentStatus != PaymentExpired
}

// PaymentOverdue reports whether the payment window has lapsed while payment
// is still pending.
func (b *Booking) PaymentOverdue(now time.Time) bool {
	return b.PaymentStatus == PaymentPending && b.ExpiresAt.Before(now)
}
