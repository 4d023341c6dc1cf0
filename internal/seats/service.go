package seats

import (
	"context"
	"fmt"
	"time"

	"tripline/internal/shared/apperr"
	"tripline/internal/shared/config"
	"tripline/pkg/cache"
	"tripline/pkg/logger"

	"github.com/google/uuid"
)

// MaxBatchSize caps how many seats one hold batch may cover.
const MaxBatchSize = 10

type Service interface {
	// Seat Lock Manager (core flow)
	HoldSeat(ctx context.Context, seatID string, userID uuid.UUID) (*Seat, error)
	HoldSeats(ctx context.Context, seatIDs []string, userID uuid.UUID) ([]Seat, error)
	ReleaseSeats(ctx context.Context, seatIDs []string, userID uuid.UUID, privileged bool) (int64, error)

	// Browsing
	GetSeat(ctx context.Context, id string) (*Seat, error)
	ListTripSeats(ctx context.Context, tripID string) ([]SeatView, error)
}

type service struct {
	repo         Repository
	cfg          *config.Config
	cacheService cache.Service
	now          func() time.Time
}

func NewService(repo Repository, cfg *config.Config) *service {
	return &service{
		repo: repo,
		cfg:  cfg,
		now:  time.Now,
	}
}

func (s *service) SetCacheService(cacheService cache.Service) {
	s.cacheService = cacheService
}

// SeatMapCacheKey returns the cache key for a trip's seat map.
func SeatMapCacheKey(tripID uuid.UUID) string {
	return fmt.Sprintf("tripline:trips:%s:seats", tripID)
}

//  SEAT LOCK MANAGER

// HoldSeat places a time-bounded hold on one seat. Re-invocation by the
// current holder before expiry refreshes the expiry without error.
func (s *service) HoldSeat(ctx context.Context, seatID string, userID uuid.UUID) (*Seat, error) {
	id, err := uuid.Parse(seatID)
	if err != nil {
		return nil, apperr.Validation(fmt.Sprintf("invalid seat id: %s", seatID))
	}

	now := s.now()
	expiresAt := now.Add(s.cfg.Reservation.HoldDuration)

	seat, err := s.repo.HoldSeat(ctx, id, userID, expiresAt, now)
	if err != nil {
		return nil, err
	}

	logger.GetDefault().LogSeatHeld(ctx, seat.ID.String(), userID.String(), expiresAt)
	s.invalidateSeatMap(ctx, seat.TripID)

	return seat, nil
}

// HoldSeats attempts to hold every seat in the batch. The store only offers
// single-record atomic writes, so all-or-nothing semantics come from an
// explicit compensating loop: on any failure, the seats acquired by this call
// are released before the error is returned, and no partial batch stays held.
func (s *service) HoldSeats(ctx context.Context, seatIDs []string, userID uuid.UUID) ([]Seat, error) {
	ids, err := parseSeatIDs(seatIDs)
	if err != nil {
		return nil, err
	}

	held := make([]Seat, 0, len(ids))
	heldIDs := make([]uuid.UUID, 0, len(ids))

	now := s.now()
	expiresAt := now.Add(s.cfg.Reservation.HoldDuration)

	for _, id := range ids {
		seat, holdErr := s.repo.HoldSeat(ctx, id, userID, expiresAt, now)
		if holdErr != nil {
			s.compensateBatch(ctx, heldIDs, userID)
			return nil, holdErr
		}
		held = append(held, *seat)
		heldIDs = append(heldIDs, seat.ID)
	}

	for _, seat := range held {
		s.invalidateSeatMap(ctx, seat.TripID)
	}

	return held, nil
}

// compensateBatch rolls back the seats acquired so far by a failed batch. A
// failed release here is not fatal: the holds carry an expiry and the sweeper
// reclaims them on a later tick.
func (s *service) compensateBatch(ctx context.Context, heldIDs []uuid.UUID, userID uuid.UUID) {
	if len(heldIDs) == 0 {
		return
	}
	if _, err := s.repo.ReleaseSeats(ctx, heldIDs, userID, false); err != nil {
		logger.GetDefault().WithError(err).Warn("failed to compensate partial hold batch; sweeper will reclaim")
	}
}

// ReleaseSeats is the caller-initiated cancellation path. Releasing a seat
// that is already available is a no-op, not an error.
func (s *service) ReleaseSeats(ctx context.Context, seatIDs []string, userID uuid.UUID, privileged bool) (int64, error) {
	ids, err := parseSeatIDs(seatIDs)
	if err != nil {
		return 0, err
	}

	released, err := s.repo.ReleaseSeats(ctx, ids, userID, privileged)
	if err != nil {
		return 0, err
	}

	logger.GetDefault().LogSeatsReleased(ctx, userID.String(), released)
	s.invalidateSeatMapsFor(ctx, ids)

	return released, nil
}

//  BROWSING

func (s *service) GetSeat(ctx context.Context, id string) (*Seat, error) {
	seatID, err := uuid.Parse(id)
	if err != nil {
		return nil, apperr.Validation(fmt.Sprintf("invalid seat id: %s", id))
	}
	return s.repo.GetSeatByID(ctx, seatID)
}

// ListTripSeats returns the seat map of one trip, cache-aside through Redis.
// A lapsed hold is presented as AVAILABLE even before a sweep tick runs.
func (s *service) ListTripSeats(ctx context.Context, tripID string) ([]SeatView, error) {
	id, err := uuid.Parse(tripID)
	if err != nil {
		return nil, apperr.Validation(fmt.Sprintf("invalid trip id: %s", tripID))
	}

	fetch := func() ([]SeatView, error) {
		rows, repoErr := s.repo.GetSeatsByTripID(ctx, id)
		if repoErr != nil {
			return nil, repoErr
		}
		now := s.now()
		views := make([]SeatView, 0, len(rows))
		for _, seat := range rows {
			views = append(views, toSeatView(seat, now))
		}
		return views, nil
	}

	if s.cacheService == nil {
		return fetch()
	}

	var views []SeatView
	err = s.cacheService.GetOrSet(ctx, SeatMapCacheKey(id), s.cfg.Redis.SeatMapTTL,
		func() (interface{}, error) { return fetch() }, &views)
	if err != nil {
		return nil, err
	}
	return views, nil
}

func (s *service) invalidateSeatMap(ctx context.Context, tripID uuid.UUID) {
	if s.cacheService == nil {
		return
	}
	if err := s.cacheService.Delete(ctx, SeatMapCacheKey(tripID)); err != nil {
		logger.GetDefault().WithError(err).Debug("seat map cache invalidation failed")
	}
}

// invalidateSeatMapsFor invalidates the seat maps of the trips the given
// seats belong to. Lookups are best-effort; a stale entry ages out via TTL.
func (s *service) invalidateSeatMapsFor(ctx context.Context, seatIDs []uuid.UUID) {
	if s.cacheService == nil {
		return
	}
	invalidated := make(map[uuid.UUID]struct{})
	for _, id := range seatIDs {
		seat, err := s.repo.GetSeatByID(ctx, id)
		if err != nil {
			continue
		}
		if _, done := invalidated[seat.TripID]; done {
			continue
		}
		invalidated[seat.TripID] = struct{}{}
		s.invalidateSeatMap(ctx, seat.TripID)
	}
}

func parseSeatIDs(seatIDs []string) ([]uuid.UUID, error) {
	if len(seatIDs) == 0 {
		return nil, apperr.Validation("no seats specified")
	}
	if len(seatIDs) > MaxBatchSize {
		return nil, apperr.Validation(fmt.Sprintf("at most %d seats per request", MaxBatchSize))
	}

	seen := make(map[uuid.UUID]struct{}, len(seatIDs))
	ids := make([]uuid.UUID, 0, len(seatIDs))
	for _, raw := range seatIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			return nil, apperr.Validation(fmt.Sprintf("invalid seat id: %s", raw))
		}
		if _, dup := seen[id]; dup {
			return nil, apperr.Validation(fmt.Sprintf("duplicate seat id: %s", raw))
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids, nil
}
