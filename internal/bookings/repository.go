package bookings

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"tripline/internal/seats"
	"tripline/internal/shared/apperr"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Repository interface {
	// Core booking operations
	GetBookingByID(ctx context.Context, id uuid.UUID) (*Booking, error)
	GetUserBookings(ctx context.Context, userID uuid.UUID, query BookingListQuery) ([]Booking, int64, error)

	// Transactional state transitions
	CreateBookingWithSeats(ctx context.Context, booking *Booking, seatIDs []uuid.UUID, now time.Time) error
	ApplyPaymentOutcome(ctx context.Context, bookingID uuid.UUID, outcome PaymentStatus, now time.Time) (*Booking, error)
	ApproveBooking(ctx context.Context, bookingID, providerID uuid.UUID, now time.Time) (*Booking, error)
	CancelBooking(ctx context.Context, bookingID, userID uuid.UUID, privileged bool, now time.Time) (*Booking, error)

	// Background expiry
	ExpireOverdue(ctx context.Context, now time.Time) (int64, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) GetBookingByID(ctx context.Context, id uuid.UUID) (*Booking, error) {
	var booking Booking
	err := r.db.WithContext(ctx).
		Preload("Seats").
		Where("id = ?", id).
		First(&booking).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("booking")
		}
		return nil, fmt.Errorf("failed to get booking: %w", err)
	}
	return &booking, nil
}

func (r *repository) GetUserBookings(ctx context.Context, userID uuid.UUID, query BookingListQuery) ([]Booking, int64, error) {
	var bookings []Booking
	var totalCount int64

	// Set defaults
	if query.Page <= 0 {
		query.Page = 1
	}
	if query.Limit <= 0 {
		query.Limit = 10
	}

	baseQuery := r.db.WithContext(ctx).
		Model(&Booking{}).
		Where("user_id = ?", userID)

	baseQuery = applyFilters(baseQuery, query)

	if err := baseQuery.Count(&totalCount).Error; err != nil {
		return nil, 0, err
	}

	offset := (query.Page - 1) * query.Limit
	err := baseQuery.
		Preload("Seats").
		Order("created_at DESC").
		Offset(offset).
		Limit(query.Limit).
		Find(&bookings).Error

	return bookings, totalCount, err
}

// CreateBookingWithSeats moves every requested seat from HELD to BOOKED and
// creates the booking in one database transaction. Seat rows are locked FOR
// UPDATE first, so the per-seat validations and the bulk transition see the
// same state. Any ineligible seat aborts the whole transaction and the holds
// remain exactly as they were.
func (r *repository) CreateBookingWithSeats(ctx context.Context, booking *Booking, seatIDs []uuid.UUID, now time.Time) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var rows []seats.Seat
		err := tx.
			Where("id IN ?", seatIDs).
			Clauses(clause.Locking{Strength: "UPDATE"}).
			Find(&rows).Error
		if err != nil {
			return fmt.Errorf("failed to lock seats: %w", err)
		}

		if len(rows) != len(seatIDs) {
			return apperr.NotFound("seat")
		}

		for i := range rows {
			if rows[i].TripID != booking.TripID {
				return apperr.Validation("all seats must belong to the same trip").
					WithDetails(map[string]any{"seat_id": rows[i].ID.String()})
			}
			if classifyErr := classifySeatForConfirm(&rows[i], booking.UserID, now); classifyErr != nil {
				return classifyErr
			}
		}

		bookingSeats, total := buildBookingSeats(booking.ID, rows)
		booking.TotalPrice = total

		if err := tx.Create(booking).Error; err != nil {
			return fmt.Errorf("failed to create booking: %w", err)
		}
		if err := tx.Create(&bookingSeats).Error; err != nil {
			return fmt.Errorf("failed to create booking seats: %w", err)
		}

		// The WHERE clause re-checks hold ownership at write time even under
		// the row locks, so a short-circuited lock path can never book a seat
		// whose hold changed hands.
		res := tx.Model(&seats.Seat{}).
			Where("id IN ?", seatIDs).
			Where("status = ? AND user_id = ? AND hold_expires_at > ?",
				seats.StatusHeld, booking.UserID, now).
			Updates(map[string]interface{}{
				"status":          seats.StatusBooked,
				"booking_id":      booking.ID,
				"hold_expires_at": nil,
				"updated_at":      now,
			})
		if res.Error != nil {
			return fmt.Errorf("failed to book seats: %w", res.Error)
		}
		if res.RowsAffected != int64(len(seatIDs)) {
			return apperr.TransactionAborted("seat state changed during confirmation", nil)
		}

		return nil
	})
}

// ApplyPaymentOutcome settles the payment leg. The transition away from
// PENDING happens at most once; a FAILED or EXPIRED outcome releases the
// booking's seats in the same transaction. The approval leg is independent
// and stays untouched here.
func (r *repository) ApplyPaymentOutcome(ctx context.Context, bookingID uuid.UUID, outcome PaymentStatus, now time.Time) (*Booking, error) {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&Booking{}).
			Where("id = ?", bookingID).
			Where("payment_status = ?", PaymentPending).
			Updates(map[string]interface{}{
				"payment_status": outcome,
				"updated_at":     now,
			})
		if res.Error != nil {
			return fmt.Errorf("failed to apply payment outcome: %w", res.Error)
		}

		if res.RowsAffected == 0 {
			var booking Booking
			if findErr := tx.Where("id = ?", bookingID).First(&booking).Error; findErr != nil {
				if errors.Is(findErr, gorm.ErrRecordNotFound) {
					return apperr.NotFound("booking")
				}
				return findErr
			}
			return apperr.Conflict("payment already settled").
				WithDetails(map[string]any{"payment_status": booking.PaymentStatus})
		}

		if outcome.ReleasesSeats() {
			if err := releaseBookingSeats(tx, bookingID, now); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return r.GetBookingByID(ctx, bookingID)
}

// ApproveBooking records the provider's confirmation. Only the owning
// provider may approve, only while approval is pending. The approval leg is
// independent of the payment leg.
func (r *repository) ApproveBooking(ctx context.Context, bookingID, providerID uuid.UUID, now time.Time) (*Booking, error) {
	res := r.db.WithContext(ctx).Model(&Booking{}).
		Where("id = ? AND provider_id = ?", bookingID, providerID).
		Where("approval_status = ?", ApprovalPending).
		Updates(map[string]interface{}{
			"approval_status": ApprovalConfirmed,
			"updated_at":      now,
		})
	if res.Error != nil {
		return nil, fmt.Errorf("failed to approve booking: %w", res.Error)
	}

	if res.RowsAffected == 0 {
		booking, err := r.GetBookingByID(ctx, bookingID)
		if err != nil {
			return nil, err
		}
		if booking.ProviderID != providerID {
			return nil, apperr.Forbidden("booking belongs to another provider")
		}
		return nil, apperr.Conflict("booking is not pending approval").
			WithDetails(map[string]any{"approval_status": booking.ApprovalStatus})
	}

	return r.GetBookingByID(ctx, bookingID)
}

// CancelBooking cancels a booking that is still pending approval and releases
// its seats. A provider-confirmed booking stays confirmed. Unless privileged,
// only the booking's owner matches.
func (r *repository) CancelBooking(ctx context.Context, bookingID, userID uuid.UUID, privileged bool, now time.Time) (*Booking, error) {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		q := tx.Model(&Booking{}).
			Where("id = ?", bookingID).
			Where("approval_status = ?", ApprovalPending)
		if !privileged {
			q = q.Where("user_id = ?", userID)
		}

		res := q.Updates(map[string]interface{}{
			"approval_status": ApprovalCancelled,
			"cancelled_at":    now,
			"updated_at":      now,
		})
		if res.Error != nil {
			return fmt.Errorf("failed to cancel booking: %w", res.Error)
		}

		if res.RowsAffected == 0 {
			var booking Booking
			if findErr := tx.Where("id = ?", bookingID).First(&booking).Error; findErr != nil {
				if errors.Is(findErr, gorm.ErrRecordNotFound) {
					return apperr.NotFound("booking")
				}
				return findErr
			}
			if !privileged && booking.UserID != userID {
				return apperr.Forbidden("booking belongs to another user")
			}
			return apperr.Conflict("booking can no longer be cancelled").
				WithDetails(map[string]any{"approval_status": booking.ApprovalStatus})
		}

		return releaseBookingSeats(tx, bookingID, now)
	})
	if err != nil {
		return nil, err
	}
	return r.GetBookingByID(ctx, bookingID)
}

// ExpireOverdue marks bookings whose payment window lapsed while still
// PENDING as EXPIRED and hands their seats back, all in one transaction.
func (r *repository) ExpireOverdue(ctx context.Context, now time.Time) (int64, error) {
	var expired int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var overdue []uuid.UUID
		err := tx.Model(&Booking{}).
			Where("payment_status = ? AND expires_at < ?", PaymentPending, now).
			Pluck("id", &overdue).Error
		if err != nil {
			return fmt.Errorf("failed to find overdue bookings: %w", err)
		}
		if len(overdue) == 0 {
			return nil
		}

		res := tx.Model(&Booking{}).
			Where("id IN ? AND payment_status = ?", overdue, PaymentPending).
			Updates(map[string]interface{}{
				"payment_status": PaymentExpired,
				"updated_at":     now,
			})
		if res.Error != nil {
			return fmt.Errorf("failed to expire overdue bookings: %w", res.Error)
		}
		expired = res.RowsAffected

		for _, id := range overdue {
			if err := releaseBookingSeats(tx, id, now); err != nil {
				return err
			}
		}
		return nil
	})
	return expired, err
}

// releaseBookingSeats hands a booking's seats back to the pool. Only BOOKED
// rows pointing at this booking match, so repeated release is a no-op.
func releaseBookingSeats(tx *gorm.DB, bookingID uuid.UUID, now time.Time) error {
	err := tx.Model(&seats.Seat{}).
		Where("booking_id = ? AND status = ?", bookingID, seats.StatusBooked).
		Updates(map[string]interface{}{
			"status":          seats.StatusAvailable,
			"user_id":         nil,
			"hold_expires_at": nil,
			"booking_id":      nil,
			"updated_at":      now,
		}).Error
	if err != nil {
		return fmt.Errorf("failed to release booking seats: %w", err)
	}
	return nil
}

// classifySeatForConfirm decides whether one seat may move into a booking
// owned by userID, and with which error it refuses.
func classifySeatForConfirm(seat *seats.Seat, userID uuid.UUID, now time.Time) error {
	details := map[string]any{"seat_id": seat.ID.String()}
	switch {
	case seat.IsBooked():
		return apperr.Conflict("seat is already booked").WithDetails(details)
	case !seat.IsHeld():
		// A reclaimed hold reads as AVAILABLE here, so the caller sees the
		// same expiry error whether or not the sweep beat them to the seat.
		return apperr.Expired("seat hold has expired").WithDetails(details)
	case seat.UserID != nil && *seat.UserID != userID:
		return apperr.Forbidden("seat is held by another user").WithDetails(details)
	case seat.HoldLapsed(now):
		return apperr.Expired("seat hold has expired").WithDetails(details)
	}
	return nil
}

// buildBookingSeats snapshots the seat rows into booking line items and sums
// the total price from the stored rows, never from client input.
func buildBookingSeats(bookingID uuid.UUID, rows []seats.Seat) ([]BookingSeat, int64) {
	items := make([]BookingSeat, 0, len(rows))
	var total int64
	for _, seat := range rows {
		items = append(items, BookingSeat{
			BookingID:  bookingID,
			SeatID:     seat.ID,
			SeatNumber: seat.SeatNumber,
			SeatPrice:  seat.Price,
		})
		total += seat.Price
	}
	return items, total
}

func applyFilters(query *gorm.DB, filters BookingListQuery) *gorm.DB {
	if filters.PaymentStatus != "" {
		query = query.Where("payment_status = ?", filters.PaymentStatus)
	}
	if filters.ApprovalStatus != "" {
		query = query.Where("approval_status = ?", filters.ApprovalStatus)
	}
	if filters.TripID != "" {
		if tripID, err := uuid.Parse(filters.TripID); err == nil {
			query = query.Where("trip_id = ?", tripID)
		}
	}
	return query
}

// CalculateTotalPages is a helper for paginated booking listings.
func CalculateTotalPages(totalCount int64, limit int) int {
	if limit <= 0 {
		return 0
	}
	return int(math.Ceil(float64(totalCount) / float64(limit)))
}
