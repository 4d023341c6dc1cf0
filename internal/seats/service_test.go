package seats

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"tripline/internal/shared/apperr"
	"tripline/internal/shared/config"

	"github.com/google/uuid"
)

// Mock repository for testing
type mockRepository struct {
	getSeatByIDFunc      func(ctx context.Context, id uuid.UUID) (*Seat, error)
	getSeatsByTripIDFunc func(ctx context.Context, tripID uuid.UUID) ([]Seat, error)
	holdSeatFunc         func(ctx context.Context, seatID, userID uuid.UUID, expiresAt, now time.Time) (*Seat, error)
	releaseSeatsFunc     func(ctx context.Context, seatIDs []uuid.UUID, userID uuid.UUID, privileged bool) (int64, error)
	reclaimExpiredFunc   func(ctx context.Context, now time.Time) (int64, error)
}

func (m *mockRepository) GetSeatByID(ctx context.Context, id uuid.UUID) (*Seat, error) {
	if m.getSeatByIDFunc != nil {
		return m.getSeatByIDFunc(ctx, id)
	}
	return nil, apperr.NotFound("seat")
}

func (m *mockRepository) GetSeatsByTripID(ctx context.Context, tripID uuid.UUID) ([]Seat, error) {
	if m.getSeatsByTripIDFunc != nil {
		return m.getSeatsByTripIDFunc(ctx, tripID)
	}
	return nil, nil
}

func (m *mockRepository) HoldSeat(ctx context.Context, seatID, userID uuid.UUID, expiresAt, now time.Time) (*Seat, error) {
	if m.holdSeatFunc != nil {
		return m.holdSeatFunc(ctx, seatID, userID, expiresAt, now)
	}
	return nil, errors.New("not implemented")
}

func (m *mockRepository) ReleaseSeats(ctx context.Context, seatIDs []uuid.UUID, userID uuid.UUID, privileged bool) (int64, error) {
	if m.releaseSeatsFunc != nil {
		return m.releaseSeatsFunc(ctx, seatIDs, userID, privileged)
	}
	return 0, nil
}

func (m *mockRepository) ReclaimExpired(ctx context.Context, now time.Time) (int64, error) {
	if m.reclaimExpiredFunc != nil {
		return m.reclaimExpiredFunc(ctx, now)
	}
	return 0, nil
}

// casStore mimics the store's conditional-write semantics behind a mutex, so
// concurrent hold attempts exercise the same one-winner guarantee.
type casStore struct {
	mu    sync.Mutex
	seats map[uuid.UUID]*Seat
}

func newCASStore(seatRows ...*Seat) *casStore {
	store := &casStore{seats: make(map[uuid.UUID]*Seat)}
	for _, s := range seatRows {
		store.seats[s.ID] = s
	}
	return store
}

func (cs *casStore) holdSeat(_ context.Context, seatID, userID uuid.UUID, expiresAt, now time.Time) (*Seat, error) {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	seat, ok := cs.seats[seatID]
	if !ok {
		return nil, apperr.NotFound("seat")
	}

	eligible := seat.IsAvailable() ||
		(seat.IsHeld() && (seat.HoldLapsed(now) || (seat.UserID != nil && *seat.UserID == userID)))
	if !eligible {
		return nil, apperr.Conflict("seat is already held or booked")
	}

	seat.Status = StatusHeld
	seat.UserID = &userID
	seat.HoldExpiresAt = &expiresAt
	copied := *seat
	return &copied, nil
}

func (cs *casStore) releaseSeats(_ context.Context, seatIDs []uuid.UUID, userID uuid.UUID, privileged bool) (int64, error) {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	var released int64
	for _, id := range seatIDs {
		seat, ok := cs.seats[id]
		if !ok || !seat.IsHeld() {
			continue
		}
		if !privileged && (seat.UserID == nil || *seat.UserID != userID) {
			continue
		}
		seat.Status = StatusAvailable
		seat.UserID = nil
		seat.HoldExpiresAt = nil
		released++
	}
	return released, nil
}

func testConfig() *config.Config {
	return &config.Config{
		Reservation: config.ReservationConfig{
			HoldDuration:   10 * time.Minute,
			ApprovalWindow: 30 * time.Minute,
		},
	}
}

func newTestService(repo Repository, now time.Time) *service {
	return &service{
		repo: repo,
		cfg:  testConfig(),
		now:  func() time.Time { return now },
	}
}

func availableSeat(tripID uuid.UUID, number string, price int64) *Seat {
	return &Seat{
		ID:         uuid.New(),
		TripID:     tripID,
		SeatNumber: number,
		Price:      price,
		Status:     StatusAvailable,
	}
}

func TestHoldSeat_SetsExpiryFromConfig(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	tripID := uuid.New()
	seat := availableSeat(tripID, "A1", 500)
	store := newCASStore(seat)

	repo := &mockRepository{holdSeatFunc: store.holdSeat}
	svc := newTestService(repo, now)

	userID := uuid.New()
	held, err := svc.HoldSeat(context.Background(), seat.ID.String(), userID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	wantExpiry := now.Add(10 * time.Minute)
	if held.HoldExpiresAt == nil || !held.HoldExpiresAt.Equal(wantExpiry) {
		t.Errorf("expected expiry %v, got %v", wantExpiry, held.HoldExpiresAt)
	}
	if held.UserID == nil || *held.UserID != userID {
		t.Errorf("expected holder %s, got %v", userID, held.UserID)
	}
}

func TestHoldSeat_InvalidID(t *testing.T) {
	svc := newTestService(&mockRepository{}, time.Now())

	_, err := svc.HoldSeat(context.Background(), "not-a-uuid", uuid.New())
	if !apperr.IsCode(err, apperr.CodeValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestHoldSeat_ConcurrentCallers_OneWinner(t *testing.T) {
	now := time.Now().UTC()
	tripID := uuid.New()
	seat := availableSeat(tripID, "B2", 750)
	store := newCASStore(seat)

	repo := &mockRepository{holdSeatFunc: store.holdSeat}
	svc := newTestService(repo, now)

	const callers = 16
	var wg sync.WaitGroup
	results := make([]error, callers)

	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, results[i] = svc.HoldSeat(context.Background(), seat.ID.String(), uuid.New())
		}(i)
	}
	wg.Wait()

	var winners, conflicts int
	for _, err := range results {
		switch {
		case err == nil:
			winners++
		case apperr.IsConflict(err):
			conflicts++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}

	if winners != 1 {
		t.Errorf("expected exactly 1 winner, got %d", winners)
	}
	if conflicts != callers-1 {
		t.Errorf("expected %d conflicts, got %d", callers-1, conflicts)
	}
}

func TestHoldSeat_SameHolderRefreshIsIdempotent(t *testing.T) {
	now := time.Now().UTC()
	tripID := uuid.New()
	seat := availableSeat(tripID, "C3", 300)
	store := newCASStore(seat)

	repo := &mockRepository{holdSeatFunc: store.holdSeat}
	svc := newTestService(repo, now)

	userID := uuid.New()
	if _, err := svc.HoldSeat(context.Background(), seat.ID.String(), userID); err != nil {
		t.Fatalf("first hold failed: %v", err)
	}
	if _, err := svc.HoldSeat(context.Background(), seat.ID.String(), userID); err != nil {
		t.Fatalf("refresh by same holder should succeed, got %v", err)
	}
	if _, err := svc.HoldSeat(context.Background(), seat.ID.String(), uuid.New()); !apperr.IsConflict(err) {
		t.Fatalf("other user should get conflict, got %v", err)
	}
}

func TestHoldSeat_LapsedHoldTakeover(t *testing.T) {
	now := time.Now().UTC()
	tripID := uuid.New()
	seat := availableSeat(tripID, "D4", 400)

	oldHolder := uuid.New()
	lapsed := now.Add(-time.Minute)
	seat.Status = StatusHeld
	seat.UserID = &oldHolder
	seat.HoldExpiresAt = &lapsed

	store := newCASStore(seat)
	repo := &mockRepository{holdSeatFunc: store.holdSeat}
	svc := newTestService(repo, now)

	newHolder := uuid.New()
	held, err := svc.HoldSeat(context.Background(), seat.ID.String(), newHolder)
	if err != nil {
		t.Fatalf("takeover of lapsed hold should succeed, got %v", err)
	}
	if held.UserID == nil || *held.UserID != newHolder {
		t.Errorf("expected new holder %s, got %v", newHolder, held.UserID)
	}
}

func TestHoldSeats_AllOrNothing(t *testing.T) {
	now := time.Now().UTC()
	tripID := uuid.New()
	seatA := availableSeat(tripID, "E1", 100)
	seatB := availableSeat(tripID, "E2", 100)
	seatC := availableSeat(tripID, "E3", 100)

	// Seat B is validly held by someone else, so the batch must fail.
	other := uuid.New()
	future := now.Add(5 * time.Minute)
	seatB.Status = StatusHeld
	seatB.UserID = &other
	seatB.HoldExpiresAt = &future

	store := newCASStore(seatA, seatB, seatC)
	repo := &mockRepository{
		holdSeatFunc:     store.holdSeat,
		releaseSeatsFunc: store.releaseSeats,
	}
	svc := newTestService(repo, now)

	userID := uuid.New()
	_, err := svc.HoldSeats(context.Background(),
		[]string{seatA.ID.String(), seatB.ID.String(), seatC.ID.String()}, userID)
	if !apperr.IsConflict(err) {
		t.Fatalf("expected conflict, got %v", err)
	}

	// Seat A was acquired before the failure and must be back to available.
	if store.seats[seatA.ID].Status != StatusAvailable {
		t.Errorf("seat A should have been compensated back to AVAILABLE, got %s", store.seats[seatA.ID].Status)
	}
	// Seat C was never touched.
	if store.seats[seatC.ID].Status != StatusAvailable {
		t.Errorf("seat C should still be AVAILABLE, got %s", store.seats[seatC.ID].Status)
	}
	// Seat B keeps its original hold.
	if store.seats[seatB.ID].UserID == nil || *store.seats[seatB.ID].UserID != other {
		t.Errorf("seat B's original hold must be untouched")
	}
}

func TestHoldSeats_ValidationErrors(t *testing.T) {
	svc := newTestService(&mockRepository{}, time.Now())
	ctx := context.Background()
	userID := uuid.New()
	dup := uuid.New().String()

	cases := []struct {
		name    string
		seatIDs []string
	}{
		{"empty", []string{}},
		{"malformed", []string{"abc"}},
		{"duplicate", []string{dup, dup}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := svc.HoldSeats(ctx, tc.seatIDs, userID); !apperr.IsCode(err, apperr.CodeValidation) {
				t.Errorf("expected validation error, got %v", err)
			}
		})
	}

	tooMany := make([]string, MaxBatchSize+1)
	for i := range tooMany {
		tooMany[i] = uuid.New().String()
	}
	if _, err := svc.HoldSeats(ctx, tooMany, userID); !apperr.IsCode(err, apperr.CodeValidation) {
		t.Errorf("expected validation error for oversized batch, got %v", err)
	}
}

func TestReleaseSeats_IdempotentNoOp(t *testing.T) {
	now := time.Now().UTC()
	tripID := uuid.New()
	seat := availableSeat(tripID, "F1", 200)
	store := newCASStore(seat)

	repo := &mockRepository{
		releaseSeatsFunc: store.releaseSeats,
		getSeatByIDFunc: func(ctx context.Context, id uuid.UUID) (*Seat, error) {
			copied := *store.seats[id]
			return &copied, nil
		},
	}
	svc := newTestService(repo, now)

	released, err := svc.ReleaseSeats(context.Background(), []string{seat.ID.String()}, uuid.New(), false)
	if err != nil {
		t.Fatalf("releasing an available seat must not error: %v", err)
	}
	if released != 0 {
		t.Errorf("expected 0 released, got %d", released)
	}
}

func TestReleaseSeats_OnlyOwnHolds(t *testing.T) {
	now := time.Now().UTC()
	tripID := uuid.New()
	seat := availableSeat(tripID, "G1", 200)

	holder := uuid.New()
	future := now.Add(5 * time.Minute)
	seat.Status = StatusHeld
	seat.UserID = &holder
	seat.HoldExpiresAt = &future

	store := newCASStore(seat)
	repo := &mockRepository{
		releaseSeatsFunc: store.releaseSeats,
		getSeatByIDFunc: func(ctx context.Context, id uuid.UUID) (*Seat, error) {
			copied := *store.seats[id]
			return &copied, nil
		},
	}
	svc := newTestService(repo, now)

	released, err := svc.ReleaseSeats(context.Background(), []string{seat.ID.String()}, uuid.New(), false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if released != 0 {
		t.Errorf("another user's release must not match, got %d released", released)
	}

	released, err = svc.ReleaseSeats(context.Background(), []string{seat.ID.String()}, holder, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if released != 1 {
		t.Errorf("holder's release should reclaim the seat, got %d", released)
	}
}

func TestListTripSeats_LapsedHoldShowsAvailable(t *testing.T) {
	now := time.Now().UTC()
	tripID := uuid.New()

	holder := uuid.New()
	lapsed := now.Add(-time.Minute)
	active := now.Add(5 * time.Minute)

	rows := []Seat{
		{ID: uuid.New(), TripID: tripID, SeatNumber: "A1", Status: StatusAvailable},
		{ID: uuid.New(), TripID: tripID, SeatNumber: "A2", Status: StatusHeld, UserID: &holder, HoldExpiresAt: &lapsed},
		{ID: uuid.New(), TripID: tripID, SeatNumber: "A3", Status: StatusHeld, UserID: &holder, HoldExpiresAt: &active},
		{ID: uuid.New(), TripID: tripID, SeatNumber: "A4", Status: StatusBooked},
	}

	repo := &mockRepository{
		getSeatsByTripIDFunc: func(ctx context.Context, id uuid.UUID) ([]Seat, error) {
			return rows, nil
		},
	}
	svc := newTestService(repo, now)

	views, err := svc.ListTripSeats(context.Background(), tripID.String())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(views) != 4 {
		t.Fatalf("expected 4 seats, got %d", len(views))
	}

	want := []Status{StatusAvailable, StatusAvailable, StatusHeld, StatusBooked}
	for i, view := range views {
		if view.Status != want[i] {
			t.Errorf("seat %s: expected status %s, got %s", view.SeatNumber, want[i], view.Status)
		}
	}
	if views[1].HoldExpiresAt != nil {
		t.Error("lapsed hold must not expose an expiry")
	}
	if views[2].HoldExpiresAt == nil {
		t.Error("active hold should expose its expiry")
	}
}
