package bookings

import (
	"testing"
	"time"

	"tripline/internal/seats"
	"tripline/internal/shared/apperr"

	"github.com/google/uuid"
)

func TestClassifySeatForConfirm(t *testing.T) {
	now := time.Now().UTC()
	userID := uuid.New()
	other := uuid.New()
	future := now.Add(5 * time.Minute)
	past := now.Add(-5 * time.Minute)

	cases := []struct {
		name     string
		seat     seats.Seat
		wantCode string
	}{
		{
			name:     "valid hold by caller",
			seat:     seats.Seat{ID: uuid.New(), Status: seats.StatusHeld, UserID: &userID, HoldExpiresAt: &future},
			wantCode: "",
		},
		{
			name:     "already booked",
			seat:     seats.Seat{ID: uuid.New(), Status: seats.StatusBooked},
			wantCode: apperr.CodeConflict,
		},
		{
			name:     "hold reclaimed by sweep",
			seat:     seats.Seat{ID: uuid.New(), Status: seats.StatusAvailable},
			wantCode: apperr.CodeHoldExpired,
		},
		{
			name:     "held by another user",
			seat:     seats.Seat{ID: uuid.New(), Status: seats.StatusHeld, UserID: &other, HoldExpiresAt: &future},
			wantCode: apperr.CodeForbidden,
		},
		{
			name:     "own hold lapsed",
			seat:     seats.Seat{ID: uuid.New(), Status: seats.StatusHeld, UserID: &userID, HoldExpiresAt: &past},
			wantCode: apperr.CodeHoldExpired,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := classifySeatForConfirm(&tc.seat, userID, now)
			if tc.wantCode == "" {
				if err != nil {
					t.Errorf("expected nil, got %v", err)
				}
				return
			}
			if !apperr.IsCode(err, tc.wantCode) {
				t.Errorf("expected code %s, got %v", tc.wantCode, err)
			}
		})
	}
}

func TestBuildBookingSeats_TotalFromStoredPrices(t *testing.T) {
	bookingID := uuid.New()
	rows := []seats.Seat{
		{ID: uuid.New(), SeatNumber: "A1", Price: 500},
		{ID: uuid.New(), SeatNumber: "A2", Price: 750},
		{ID: uuid.New(), SeatNumber: "A3", Price: 250},
	}

	items, total := buildBookingSeats(bookingID, rows)

	if total != 1500 {
		t.Errorf("expected total 1500, got %d", total)
	}
	if len(items) != 3 {
		t.Fatalf("expected 3 line items, got %d", len(items))
	}
	for i, item := range items {
		if item.BookingID != bookingID {
			t.Errorf("item %d: wrong booking id", i)
		}
		if item.SeatID != rows[i].ID || item.SeatNumber != rows[i].SeatNumber || item.SeatPrice != rows[i].Price {
			t.Errorf("item %d: snapshot does not match seat row", i)
		}
	}
}

func TestCalculateTotalPages(t *testing.T) {
	cases := []struct {
		total int64
		limit int
		want  int
	}{
		{0, 10, 0},
		{1, 10, 1},
		{10, 10, 1},
		{11, 10, 2},
		{5, 0, 0},
	}
	for _, tc := range cases {
		if got := CalculateTotalPages(tc.total, tc.limit); got != tc.want {
			t.Errorf("CalculateTotalPages(%d, %d) = %d, want %d", tc.total, tc.limit, got, tc.want)
		}
	}
}
