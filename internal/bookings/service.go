package bookings

import (
	"context"
	"fmt"
	"time"

	"tripline/internal/notifications"
	"tripline/internal/seats"
	"tripline/internal/shared/apperr"
	"tripline/internal/shared/config"
	"tripline/internal/shared/middleware"
	"tripline/pkg/cache"
	"tripline/pkg/logger"

	"github.com/google/uuid"
)

type Service interface {
	// Booking Transaction Coordinator (core flow)
	ConfirmBooking(ctx context.Context, userID uuid.UUID, req ConfirmBookingRequest) (*Booking, error)
	ApplyPaymentOutcome(ctx context.Context, req PaymentOutcomeRequest) (*Booking, error)
	ApproveBooking(ctx context.Context, bookingID string, providerID uuid.UUID) (*Booking, error)
	CancelBooking(ctx context.Context, bookingID string, userID uuid.UUID, privileged bool) (*Booking, error)

	// Lookups
	GetBooking(ctx context.Context, bookingID string, userID uuid.UUID, role string) (*Booking, error)
	GetUserBookings(ctx context.Context, userID uuid.UUID, query BookingListQuery) (*BookingListResponse, error)

	// Background expiry
	ExpireOverdueBookings(ctx context.Context) (int64, error)
}

type service struct {
	repo         Repository
	cfg          *config.Config
	publisher    notifications.Publisher
	cacheService cache.Service
	now          func() time.Time
}

func NewService(repo Repository, cfg *config.Config, publisher notifications.Publisher) *service {
	if publisher == nil {
		publisher = notifications.NopPublisher{}
	}
	return &service{
		repo:      repo,
		cfg:       cfg,
		publisher: publisher,
		now:       time.Now,
	}
}

func (s *service) SetCacheService(cacheService cache.Service) {
	s.cacheService = cacheService
}

// ConfirmBooking converts a set of held seats into a booking. Every seat must
// be validly held by the caller; otherwise nothing changes and the holds stay
// in place so the caller can retry with a corrected set.
func (s *service) ConfirmBooking(ctx context.Context, userID uuid.UUID, req ConfirmBookingRequest) (*Booking, error) {
	tripID, err := uuid.Parse(req.TripID)
	if err != nil {
		return nil, apperr.Validation(fmt.Sprintf("invalid trip id: %s", req.TripID))
	}
	providerID, err := uuid.Parse(req.ProviderID)
	if err != nil {
		return nil, apperr.Validation(fmt.Sprintf("invalid provider id: %s", req.ProviderID))
	}
	seatIDs, err := parseSeatIDs(req.SeatIDs)
	if err != nil {
		return nil, err
	}

	now := s.now()
	booking := &Booking{
		ID:             uuid.New(),
		UserID:         userID,
		TripID:         tripID,
		ProviderID:     providerID,
		PaymentMethod:  req.PaymentMethod,
		PaymentStatus:  PaymentPending,
		ApprovalStatus: ApprovalPending,
		ExpiresAt:      now.Add(s.cfg.Reservation.ApprovalWindow),
	}

	if err := s.repo.CreateBookingWithSeats(ctx, booking, seatIDs, now); err != nil {
		return nil, err
	}

	logger.GetDefault().LogBookingConfirmed(ctx, booking.ID.String(), userID.String(), booking.TotalPrice, len(seatIDs))
	s.invalidateSeatMap(ctx, booking.TripID)
	s.publish(ctx, notifications.EventBookingCreated, booking, len(seatIDs))

	return s.repo.GetBookingByID(ctx, booking.ID)
}

// ApplyPaymentOutcome is the payment provider callback. A duplicate callback
// for a settled booking gets Conflict from the store, never a double apply.
func (s *service) ApplyPaymentOutcome(ctx context.Context, req PaymentOutcomeRequest) (*Booking, error) {
	bookingID, err := uuid.Parse(req.BookingID)
	if err != nil {
		return nil, apperr.Validation(fmt.Sprintf("invalid booking id: %s", req.BookingID))
	}
	outcome := PaymentStatus(req.Outcome)
	if !outcome.IsValid() || outcome == PaymentPending {
		return nil, apperr.Validation(fmt.Sprintf("invalid payment outcome: %s", req.Outcome))
	}

	booking, err := s.repo.ApplyPaymentOutcome(ctx, bookingID, outcome, s.now())
	if err != nil {
		return nil, err
	}

	logger.GetDefault().LogPaymentOutcome(ctx, booking.ID.String(), string(outcome), outcome.ReleasesSeats())
	if outcome.ReleasesSeats() {
		s.invalidateSeatMap(ctx, booking.TripID)
	}
	s.publish(ctx, paymentEventType(outcome), booking, len(booking.Seats))

	return booking, nil
}

func (s *service) ApproveBooking(ctx context.Context, bookingID string, providerID uuid.UUID) (*Booking, error) {
	id, err := uuid.Parse(bookingID)
	if err != nil {
		return nil, apperr.Validation(fmt.Sprintf("invalid booking id: %s", bookingID))
	}

	booking, err := s.repo.ApproveBooking(ctx, id, providerID, s.now())
	if err != nil {
		return nil, err
	}

	s.publish(ctx, notifications.EventBookingApproved, booking, len(booking.Seats))
	return booking, nil
}

func (s *service) CancelBooking(ctx context.Context, bookingID string, userID uuid.UUID, privileged bool) (*Booking, error) {
	id, err := uuid.Parse(bookingID)
	if err != nil {
		return nil, apperr.Validation(fmt.Sprintf("invalid booking id: %s", bookingID))
	}

	booking, err := s.repo.CancelBooking(ctx, id, userID, privileged, s.now())
	if err != nil {
		return nil, err
	}

	logger.GetDefault().LogBookingCancelled(ctx, booking.ID.String(), userID.String())
	s.invalidateSeatMap(ctx, booking.TripID)
	s.publish(ctx, notifications.EventBookingCancelled, booking, len(booking.Seats))

	return booking, nil
}

// GetBooking enforces read access: the owner, the owning provider, and
// admins may see a booking.
func (s *service) GetBooking(ctx context.Context, bookingID string, userID uuid.UUID, role string) (*Booking, error) {
	id, err := uuid.Parse(bookingID)
	if err != nil {
		return nil, apperr.Validation(fmt.Sprintf("invalid booking id: %s", bookingID))
	}

	booking, err := s.repo.GetBookingByID(ctx, id)
	if err != nil {
		return nil, err
	}

	switch {
	case role == middleware.RoleAdmin:
	case booking.UserID == userID:
	case role == middleware.RoleProvider && booking.ProviderID == userID:
	default:
		return nil, apperr.Forbidden("not allowed to view this booking")
	}

	return booking, nil
}

func (s *service) GetUserBookings(ctx context.Context, userID uuid.UUID, query BookingListQuery) (*BookingListResponse, error) {
	bookings, totalCount, err := s.repo.GetUserBookings(ctx, userID, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}

	if query.Page <= 0 {
		query.Page = 1
	}
	if query.Limit <= 0 {
		query.Limit = 10
	}

	return &BookingListResponse{
		Bookings:   bookings,
		TotalCount: totalCount,
		Page:       query.Page,
		Limit:      query.Limit,
		TotalPages: CalculateTotalPages(totalCount, query.Limit),
	}, nil
}

// ExpireOverdueBookings is invoked by the background expiry job.
func (s *service) ExpireOverdueBookings(ctx context.Context) (int64, error) {
	return s.repo.ExpireOverdue(ctx, s.now())
}

func (s *service) invalidateSeatMap(ctx context.Context, tripID uuid.UUID) {
	if s.cacheService == nil {
		return
	}
	if err := s.cacheService.Delete(ctx, seats.SeatMapCacheKey(tripID)); err != nil {
		logger.GetDefault().WithError(err).Debug("seat map cache invalidation failed")
	}
}

// publish emits a booking lifecycle event. Publishing is best-effort; the
// database is the source of truth and a lost event never aborts the booking.
func (s *service) publish(ctx context.Context, eventType notifications.EventType, booking *Booking, seatCount int) {
	event := notifications.NewBookingEvent(eventType,
		booking.ID, booking.UserID, booking.TripID, booking.ProviderID,
		booking.TotalPrice, seatCount)
	if err := s.publisher.PublishBookingEvent(ctx, event); err != nil {
		logger.GetDefault().WithError(err).Warn("failed to publish booking event", "type", string(eventType))
	}
}

func paymentEventType(outcome PaymentStatus) notifications.EventType {
	switch outcome {
	case PaymentCompleted:
		return notifications.EventPaymentCompleted
	case PaymentFailed:
		return notifications.EventPaymentFailed
	default:
		return notifications.EventPaymentExpired
	}
}

func parseSeatIDs(raw []string) ([]uuid.UUID, error) {
	if len(raw) == 0 {
		return nil, apperr.Validation("no seats specified")
	}
	if len(raw) > seats.MaxBatchSize {
		return nil, apperr.Validation(fmt.Sprintf("at most %d seats per booking", seats.MaxBatchSize))
	}

	seen := make(map[uuid.UUID]struct{}, len(raw))
	ids := make([]uuid.UUID, 0, len(raw))
	for _, v := range raw {
		id, err := uuid.Parse(v)
		if err != nil {
			return nil, apperr.Validation(fmt.Sprintf("invalid seat id: %s", v))
		}
		if _, dup := seen[id]; dup {
			return nil, apperr.Validation(fmt.Sprintf("duplicate seat id: %s", v))
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids, nil
}
