package bookings

import (
	"context"
	"testing"
	"time"

	"tripline/internal/notifications"
	"tripline/internal/shared/apperr"
	"tripline/internal/shared/config"
	"tripline/internal/shared/middleware"

	"github.com/google/uuid"
)

// Mock repository for testing
type mockRepository struct {
	getBookingByIDFunc         func(ctx context.Context, id uuid.UUID) (*Booking, error)
	getUserBookingsFunc        func(ctx context.Context, userID uuid.UUID, query BookingListQuery) ([]Booking, int64, error)
	createBookingWithSeatsFunc func(ctx context.Context, booking *Booking, seatIDs []uuid.UUID, now time.Time) error
	applyPaymentOutcomeFunc    func(ctx context.Context, bookingID uuid.UUID, outcome PaymentStatus, now time.Time) (*Booking, error)
	approveBookingFunc         func(ctx context.Context, bookingID, providerID uuid.UUID, now time.Time) (*Booking, error)
	cancelBookingFunc          func(ctx context.Context, bookingID, userID uuid.UUID, privileged bool, now time.Time) (*Booking, error)
	expireOverdueFunc          func(ctx context.Context, now time.Time) (int64, error)
}

func (m *mockRepository) GetBookingByID(ctx context.Context, id uuid.UUID) (*Booking, error) {
	if m.getBookingByIDFunc != nil {
		return m.getBookingByIDFunc(ctx, id)
	}
	return nil, apperr.NotFound("booking")
}

func (m *mockRepository) GetUserBookings(ctx context.Context, userID uuid.UUID, query BookingListQuery) ([]Booking, int64, error) {
	if m.getUserBookingsFunc != nil {
		return m.getUserBookingsFunc(ctx, userID, query)
	}
	return nil, 0, nil
}

func (m *mockRepository) CreateBookingWithSeats(ctx context.Context, booking *Booking, seatIDs []uuid.UUID, now time.Time) error {
	if m.createBookingWithSeatsFunc != nil {
		return m.createBookingWithSeatsFunc(ctx, booking, seatIDs, now)
	}
	return nil
}

func (m *mockRepository) ApplyPaymentOutcome(ctx context.Context, bookingID uuid.UUID, outcome PaymentStatus, now time.Time) (*Booking, error) {
	if m.applyPaymentOutcomeFunc != nil {
		return m.applyPaymentOutcomeFunc(ctx, bookingID, outcome, now)
	}
	return nil, apperr.NotFound("booking")
}

func (m *mockRepository) ApproveBooking(ctx context.Context, bookingID, providerID uuid.UUID, now time.Time) (*Booking, error) {
	if m.approveBookingFunc != nil {
		return m.approveBookingFunc(ctx, bookingID, providerID, now)
	}
	return nil, apperr.NotFound("booking")
}

func (m *mockRepository) CancelBooking(ctx context.Context, bookingID, userID uuid.UUID, privileged bool, now time.Time) (*Booking, error) {
	if m.cancelBookingFunc != nil {
		return m.cancelBookingFunc(ctx, bookingID, userID, privileged, now)
	}
	return nil, apperr.NotFound("booking")
}

func (m *mockRepository) ExpireOverdue(ctx context.Context, now time.Time) (int64, error) {
	if m.expireOverdueFunc != nil {
		return m.expireOverdueFunc(ctx, now)
	}
	return 0, nil
}

// mockPublisher records every published event.
type mockPublisher struct {
	events []notifications.BookingEvent
}

func (m *mockPublisher) PublishBookingEvent(ctx context.Context, event notifications.BookingEvent) error {
	m.events = append(m.events, event)
	return nil
}

func (m *mockPublisher) Close() error { return nil }

func testConfig() *config.Config {
	return &config.Config{
		Reservation: config.ReservationConfig{
			HoldDuration:   10 * time.Minute,
			ApprovalWindow: 30 * time.Minute,
		},
	}
}

func newTestService(repo Repository, publisher notifications.Publisher, now time.Time) *service {
	if publisher == nil {
		publisher = notifications.NopPublisher{}
	}
	return &service{
		repo:      repo,
		cfg:       testConfig(),
		publisher: publisher,
		now:       func() time.Time { return now },
	}
}

func TestConfirmBooking_BuildsPendingBooking(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	userID := uuid.New()
	tripID := uuid.New()
	providerID := uuid.New()
	seatIDs := []string{uuid.New().String(), uuid.New().String()}

	var captured *Booking
	var capturedSeatIDs []uuid.UUID
	repo := &mockRepository{
		createBookingWithSeatsFunc: func(ctx context.Context, booking *Booking, ids []uuid.UUID, _ time.Time) error {
			booking.TotalPrice = 1200
			captured = booking
			capturedSeatIDs = ids
			return nil
		},
		getBookingByIDFunc: func(ctx context.Context, id uuid.UUID) (*Booking, error) {
			return captured, nil
		},
	}
	publisher := &mockPublisher{}
	svc := newTestService(repo, publisher, now)

	booking, err := svc.ConfirmBooking(context.Background(), userID, ConfirmBookingRequest{
		TripID:        tripID.String(),
		ProviderID:    providerID.String(),
		SeatIDs:       seatIDs,
		PaymentMethod: "CARD",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if booking.UserID != userID || booking.TripID != tripID || booking.ProviderID != providerID {
		t.Error("booking identity fields not taken from the request")
	}
	if booking.PaymentStatus != PaymentPending {
		t.Errorf("expected payment PENDING, got %s", booking.PaymentStatus)
	}
	if booking.ApprovalStatus != ApprovalPending {
		t.Errorf("expected approval PENDING_APPROVAL, got %s", booking.ApprovalStatus)
	}
	wantExpiry := now.Add(30 * time.Minute)
	if !booking.ExpiresAt.Equal(wantExpiry) {
		t.Errorf("expected expiry %v, got %v", wantExpiry, booking.ExpiresAt)
	}
	if len(capturedSeatIDs) != 2 {
		t.Errorf("expected 2 seat ids passed to the store, got %d", len(capturedSeatIDs))
	}

	if len(publisher.events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(publisher.events))
	}
	if publisher.events[0].Type != notifications.EventBookingCreated {
		t.Errorf("expected %s event, got %s", notifications.EventBookingCreated, publisher.events[0].Type)
	}
	if publisher.events[0].TotalPrice != 1200 {
		t.Errorf("event should carry the stored total, got %d", publisher.events[0].TotalPrice)
	}
}

func TestConfirmBooking_FailurePublishesNothing(t *testing.T) {
	now := time.Now().UTC()
	repo := &mockRepository{
		createBookingWithSeatsFunc: func(ctx context.Context, booking *Booking, ids []uuid.UUID, _ time.Time) error {
			return apperr.Expired("seat hold has expired")
		},
	}
	publisher := &mockPublisher{}
	svc := newTestService(repo, publisher, now)

	_, err := svc.ConfirmBooking(context.Background(), uuid.New(), ConfirmBookingRequest{
		TripID:        uuid.New().String(),
		ProviderID:    uuid.New().String(),
		SeatIDs:       []string{uuid.New().String()},
		PaymentMethod: "UPI",
	})
	if !apperr.IsExpired(err) {
		t.Fatalf("expected expired error, got %v", err)
	}
	if len(publisher.events) != 0 {
		t.Errorf("failed confirm must not publish events, got %d", len(publisher.events))
	}
}

func TestConfirmBooking_ValidationErrors(t *testing.T) {
	svc := newTestService(&mockRepository{}, nil, time.Now())
	ctx := context.Background()
	userID := uuid.New()
	dup := uuid.New().String()

	cases := []struct {
		name string
		req  ConfirmBookingRequest
	}{
		{"bad trip id", ConfirmBookingRequest{TripID: "x", ProviderID: uuid.New().String(), SeatIDs: []string{uuid.New().String()}, PaymentMethod: "CARD"}},
		{"bad provider id", ConfirmBookingRequest{TripID: uuid.New().String(), ProviderID: "x", SeatIDs: []string{uuid.New().String()}, PaymentMethod: "CARD"}},
		{"no seats", ConfirmBookingRequest{TripID: uuid.New().String(), ProviderID: uuid.New().String(), SeatIDs: nil, PaymentMethod: "CARD"}},
		{"duplicate seats", ConfirmBookingRequest{TripID: uuid.New().String(), ProviderID: uuid.New().String(), SeatIDs: []string{dup, dup}, PaymentMethod: "CARD"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.ConfirmBooking(ctx, userID, tc.req); !apperr.IsCode(err, apperr.CodeValidation) {
				t.Errorf("expected validation error, got %v", err)
			}
		})
	}
}

func TestApplyPaymentOutcome_RejectsUnknownOutcome(t *testing.T) {
	svc := newTestService(&mockRepository{}, nil, time.Now())

	for _, outcome := range []string{"PENDING", "PAID", ""} {
		_, err := svc.ApplyPaymentOutcome(context.Background(), PaymentOutcomeRequest{
			BookingID: uuid.New().String(),
			Outcome:   outcome,
		})
		if !apperr.IsCode(err, apperr.CodeValidation) {
			t.Errorf("outcome %q: expected validation error, got %v", outcome, err)
		}
	}
}

func TestApplyPaymentOutcome_EventTypes(t *testing.T) {
	now := time.Now().UTC()
	booking := &Booking{
		ID:         uuid.New(),
		UserID:     uuid.New(),
		TripID:     uuid.New(),
		ProviderID: uuid.New(),
	}

	cases := []struct {
		outcome   PaymentStatus
		eventType notifications.EventType
	}{
		{PaymentCompleted, notifications.EventPaymentCompleted},
		{PaymentFailed, notifications.EventPaymentFailed},
		{PaymentExpired, notifications.EventPaymentExpired},
	}

	for _, tc := range cases {
		t.Run(string(tc.outcome), func(t *testing.T) {
			repo := &mockRepository{
				applyPaymentOutcomeFunc: func(ctx context.Context, id uuid.UUID, outcome PaymentStatus, _ time.Time) (*Booking, error) {
					result := *booking
					result.PaymentStatus = outcome
					return &result, nil
				},
			}
			publisher := &mockPublisher{}
			svc := newTestService(repo, publisher, now)

			_, err := svc.ApplyPaymentOutcome(context.Background(), PaymentOutcomeRequest{
				BookingID: booking.ID.String(),
				Outcome:   string(tc.outcome),
			})
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(publisher.events) != 1 || publisher.events[0].Type != tc.eventType {
				t.Errorf("expected %s event", tc.eventType)
			}
		})
	}
}

func TestApplyPaymentOutcome_DuplicateCallbackConflict(t *testing.T) {
	repo := &mockRepository{
		applyPaymentOutcomeFunc: func(ctx context.Context, id uuid.UUID, outcome PaymentStatus, _ time.Time) (*Booking, error) {
			return nil, apperr.Conflict("payment already settled")
		},
	}
	publisher := &mockPublisher{}
	svc := newTestService(repo, publisher, time.Now())

	_, err := svc.ApplyPaymentOutcome(context.Background(), PaymentOutcomeRequest{
		BookingID: uuid.New().String(),
		Outcome:   "COMPLETED",
	})
	if !apperr.IsConflict(err) {
		t.Fatalf("expected conflict, got %v", err)
	}
	if len(publisher.events) != 0 {
		t.Error("duplicate callback must not publish events")
	}
}

func TestGetBooking_AccessControl(t *testing.T) {
	owner := uuid.New()
	provider := uuid.New()
	booking := &Booking{
		ID:         uuid.New(),
		UserID:     owner,
		TripID:     uuid.New(),
		ProviderID: provider,
	}

	repo := &mockRepository{
		getBookingByIDFunc: func(ctx context.Context, id uuid.UUID) (*Booking, error) {
			return booking, nil
		},
	}
	svc := newTestService(repo, nil, time.Now())
	ctx := context.Background()

	cases := []struct {
		name    string
		caller  uuid.UUID
		role    string
		allowed bool
	}{
		{"owner", owner, middleware.RoleUser, true},
		{"owning provider", provider, middleware.RoleProvider, true},
		{"admin", uuid.New(), middleware.RoleAdmin, true},
		{"other user", uuid.New(), middleware.RoleUser, false},
		{"other provider", uuid.New(), middleware.RoleProvider, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.GetBooking(ctx, booking.ID.String(), tc.caller, tc.role)
			if tc.allowed && err != nil {
				t.Errorf("expected access, got %v", err)
			}
			if !tc.allowed && !apperr.IsCode(err, apperr.CodeForbidden) {
				t.Errorf("expected forbidden, got %v", err)
			}
		})
	}
}

func TestExpireOverdueBookings_PassesClock(t *testing.T) {
	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	var seen time.Time
	repo := &mockRepository{
		expireOverdueFunc: func(ctx context.Context, now time.Time) (int64, error) {
			seen = now
			return 2, nil
		},
	}
	svc := newTestService(repo, nil, fixed)

	expired, err := svc.ExpireOverdueBookings(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if expired != 2 {
		t.Errorf("expected 2 expired, got %d", expired)
	}
	if !seen.Equal(fixed) {
		t.Errorf("expected store called with %v, got %v", fixed, seen)
	}
}
