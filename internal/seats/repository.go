package seats

import (
	"context"
	"errors"
	"fmt"
	"time"

	"tripline/internal/shared/apperr"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Repository interface {
	GetSeatByID(ctx context.Context, id uuid.UUID) (*Seat, error)
	GetSeatsByTripID(ctx context.Context, tripID uuid.UUID) ([]Seat, error)

	// Conditional-write operations. Each is a single atomic UPDATE whose WHERE
	// clause re-checks the stored status/expiry at write time.
	HoldSeat(ctx context.Context, seatID, userID uuid.UUID, expiresAt, now time.Time) (*Seat, error)
	ReleaseSeats(ctx context.Context, seatIDs []uuid.UUID, userID uuid.UUID, privileged bool) (int64, error)
	ReclaimExpired(ctx context.Context, now time.Time) (int64, error)
}

type repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) GetSeatByID(ctx context.Context, id uuid.UUID) (*Seat, error) {
	var seat Seat
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&seat).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperr.NotFound("seat")
		}
		return nil, fmt.Errorf("failed to get seat: %w", err)
	}
	return &seat, nil
}

func (r *repository) GetSeatsByTripID(ctx context.Context, tripID uuid.UUID) ([]Seat, error) {
	var result []Seat
	err := r.db.WithContext(ctx).
		Where("trip_id = ?", tripID).
		Order("seat_number ASC").
		Find(&result).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list trip seats: %w", err)
	}
	return result, nil
}

// HoldSeat transitions the seat to HELD with a fresh expiry. The write is
// conditioned on the current stored state, not on anything read earlier:
//   - AVAILABLE               -> new hold
//   - HELD with lapsed expiry -> takeover of an abandoned hold
//   - HELD by the same user   -> idempotent refresh of the expiry
//
// Among concurrent callers the store serializes the UPDATE per row, so exactly
// one matches and every other caller gets Conflict.
func (r *repository) HoldSeat(ctx context.Context, seatID, userID uuid.UUID, expiresAt, now time.Time) (*Seat, error) {
	res := r.db.WithContext(ctx).
		Model(&Seat{}).
		Where("id = ?", seatID).
		Where("status = ? OR (status = ? AND (hold_expires_at < ? OR user_id = ?))",
			StatusAvailable, StatusHeld, now, userID).
		Updates(map[string]interface{}{
			"status":          StatusHeld,
			"user_id":         userID,
			"hold_expires_at": expiresAt,
			"updated_at":      now,
		})
	if res.Error != nil {
		return nil, fmt.Errorf("failed to hold seat: %w", res.Error)
	}

	if res.RowsAffected == 0 {
		// Distinguish a missing seat from one validly held or booked.
		if _, err := r.GetSeatByID(ctx, seatID); err != nil {
			return nil, err
		}
		return nil, apperr.Conflict("seat is already held or booked").
			WithDetails(map[string]any{"seat_id": seatID.String()})
	}

	return r.GetSeatByID(ctx, seatID)
}

// ReleaseSeats transitions HELD seats back to AVAILABLE, clearing holder and
// expiry. Unless privileged, only seats held by userID match. Seats that are
// already AVAILABLE (or BOOKED) simply don't match the condition, which makes
// release idempotent.
func (r *repository) ReleaseSeats(ctx context.Context, seatIDs []uuid.UUID, userID uuid.UUID, privileged bool) (int64, error) {
	if len(seatIDs) == 0 {
		return 0, nil
	}

	q := r.db.WithContext(ctx).
		Model(&Seat{}).
		Where("id IN ?", seatIDs).
		Where("status = ?", StatusHeld)
	if !privileged {
		q = q.Where("user_id = ?", userID)
	}

	res := q.Updates(map[string]interface{}{
		"status":          StatusAvailable,
		"user_id":         nil,
		"hold_expires_at": nil,
		"updated_at":      time.Now().UTC(),
	})
	if res.Error != nil {
		return 0, fmt.Errorf("failed to release seats: %w", res.Error)
	}

	return res.RowsAffected, nil
}

// ReclaimExpired is the sweeper's bulk conditional write. The WHERE clause
// re-checks status = HELD at write time, so a seat confirmed into BOOKED
// between the sweeper's tick and this statement is left untouched.
func (r *repository) ReclaimExpired(ctx context.Context, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Model(&Seat{}).
		Where("status = ? AND hold_expires_at < ?", StatusHeld, now).
		Updates(map[string]interface{}{
			"status":          StatusAvailable,
			"user_id":         nil,
			"hold_expires_at": nil,
			"updated_at":      now,
		})
	if res.Error != nil {
		return 0, fmt.Errorf("failed to reclaim expired holds: %w", res.Error)
	}

	return res.RowsAffected, nil
}
