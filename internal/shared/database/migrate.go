package database

import (
	"tripline/internal/bookings"
	"tripline/internal/seats"

	"gorm.io/gorm"
)

func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(
		&seats.Seat{},
		&bookings.Booking{},
		&bookings.BookingSeat{},
	)
}
