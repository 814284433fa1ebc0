package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/mongo"

	reservationserrors "innkeep/internal/reservations/errors"
	"innkeep/internal/reservations/validator"
	"innkeep/pkg/config"
	mongotx "innkeep/pkg/db/mongo"
	apperrors "innkeep/pkg/errors"
	"innkeep/pkg/logger"
	"innkeep/pkg/model"
)

// ────────────────────────────────────────────────
// In-memory fakes
// ────────────────────────────────────────────────

type fakeBookingRepository struct {
	mu       sync.Mutex
	bookings map[string]*model.Booking
	nextID   int

	createErr error
	countErr  error
}

func newFakeBookingRepository() *fakeBookingRepository {
	return &fakeBookingRepository{
		bookings: make(map[string]*model.Booking),
	}
}

func (m *fakeBookingRepository) Create(ctx context.Context, booking *model.Booking) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.createErr != nil {
		return m.createErr
	}

	m.nextID++
	booking.ID = fmt.Sprintf("%024d", m.nextID)
	booking.CreatedAt = time.Now().UTC()
	stored := *booking
	m.bookings[booking.ID] = &stored
	return nil
}

func (m *fakeBookingRepository) FindByID(ctx context.Context, id string) (*model.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	booking, ok := m.bookings[id]
	if !ok {
		return nil, reservationserrors.ErrNotFound
	}
	clone := *booking
	return &clone, nil
}

func (m *fakeBookingRepository) FindAll(ctx context.Context, limit int, offset int64) ([]*model.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []*model.Booking
	for _, b := range m.bookings {
		clone := *b
		out = append(out, &clone)
	}
	return out, nil
}

func (m *fakeBookingRepository) Update(ctx context.Context, id string, booking *model.Booking) (*mongo.UpdateResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.bookings[id]
	if !ok {
		return nil, reservationserrors.ErrNotFound
	}
	existing.RoomID = booking.RoomID
	existing.CheckIn = booking.CheckIn
	existing.CheckOut = booking.CheckOut
	return &mongo.UpdateResult{MatchedCount: 1, ModifiedCount: 1}, nil
}

func (m *fakeBookingRepository) SetStatus(ctx context.Context, id string, status string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.bookings[id]
	if !ok {
		return false, reservationserrors.ErrNotFound
	}
	if existing.Status == status {
		return false, nil
	}
	existing.Status = status
	return true, nil
}

func (m *fakeBookingRepository) CountOverlapping(ctx context.Context, roomID string, checkIn, checkOut time.Time, excludeID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.countErr != nil {
		return 0, m.countErr
	}

	var count int64
	for _, b := range m.bookings {
		if b.ID == excludeID {
			continue
		}
		if b.RoomID != roomID || b.Status != model.StatusActive {
			continue
		}
		if model.Overlaps(b.CheckIn, b.CheckOut, checkIn, checkOut) {
			count++
		}
	}
	return count, nil
}

func (m *fakeBookingRepository) FindByRoom(ctx context.Context, roomID string, checkIn, checkOut *time.Time, limit int, offset int64) ([]*model.Booking, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var out []*model.Booking
	for _, b := range m.bookings {
		if b.RoomID != roomID {
			continue
		}
		clone := *b
		out = append(out, &clone)
	}
	return out, nil
}

func (m *fakeBookingRepository) CountByRoom(ctx context.Context, roomID string, checkIn, checkOut *time.Time) (int64, error) {
	bookings, _ := m.FindByRoom(ctx, roomID, checkIn, checkOut, 0, 0)
	return int64(len(bookings)), nil
}

func (m *fakeBookingRepository) Count(ctx context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return int64(len(m.bookings)), nil
}

func (m *fakeBookingRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return fn(nil)
}

type fakeRoomLockRepository struct {
	mu    sync.Mutex
	locks map[string]struct{}
}

func newFakeRoomLockRepository() *fakeRoomLockRepository {
	return &fakeRoomLockRepository{locks: make(map[string]struct{})}
}

func (m *fakeRoomLockRepository) Create(ctx context.Context, lock *model.RoomLock) (*model.RoomLock, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, held := m.locks[lock.ID]; held {
		return nil, mongo.WriteException{
			WriteErrors: []mongo.WriteError{{Code: 11000}},
		}
	}
	m.locks[lock.ID] = struct{}{}
	return lock, nil
}

func (m *fakeRoomLockRepository) Delete(ctx context.Context, lockID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.locks, lockID)
	return nil
}

type fakeRoomCatalog struct {
	rooms map[string]struct{}
}

func (m *fakeRoomCatalog) Exists(ctx context.Context, roomID string) (bool, error) {
	_, ok := m.rooms[roomID]
	return ok, nil
}

type capturePublisher struct {
	mu     sync.Mutex
	events []model.ReservationEvent
}

func (p *capturePublisher) Publish(ctx context.Context, event model.ReservationEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
	return nil
}

func (p *capturePublisher) Close() error { return nil }

func (p *capturePublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []string
	for _, e := range p.events {
		out = append(out, e.EventType)
	}
	return out
}

// ────────────────────────────────────────────────
// Test harness
// ────────────────────────────────────────────────

const (
	room101 = "64b000000000000000000101"
	room102 = "64b000000000000000000102"
	room404 = "64b000000000000000000404"
)

type testEnv struct {
	service   ReservationService
	repo      *fakeBookingRepository
	locks     *fakeRoomLockRepository
	publisher *capturePublisher
}

func newTestEnv(t *testing.T, roomIDs ...string) *testEnv {
	t.Helper()

	log := logger.New(logger.Config{
		Level:     "error",
		Format:    logger.JSON,
		AddSource: false,
		Service:   "test",
	})
	cfg := &config.Config{
		Log:         log,
		RoomLockTTL: time.Second,
	}

	rooms := make(map[string]struct{})
	for _, id := range roomIDs {
		rooms[id] = struct{}{}
	}

	repo := newFakeBookingRepository()
	locks := newFakeRoomLockRepository()
	publisher := &capturePublisher{}

	svc := NewReservationService(
		repo,
		locks,
		&fakeRoomCatalog{rooms: rooms},
		validator.NewBookingValidator(log),
		publisher,
		cfg,
	)

	return &testEnv{
		service:   svc,
		repo:      repo,
		locks:     locks,
		publisher: publisher,
	}
}

func request(roomID, checkIn, checkOut string) *model.BookingRequest {
	return &model.BookingRequest{
		RoomID:     roomID,
		CustomerID: "guest-42",
		CheckIn:    checkIn,
		CheckOut:   checkOut,
	}
}

func assertCode(t *testing.T, err error, code string) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected error with code %s, got nil", code)
	}
	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) {
		t.Fatalf("expected AppError, got %T: %v", err, err)
	}
	if appErr.Code != code {
		t.Fatalf("expected code %s, got %s (%v)", code, appErr.Code, err)
	}
}

// ────────────────────────────────────────────────
// Create
// ────────────────────────────────────────────────

func TestCreate_Success(t *testing.T) {
	env := newTestEnv(t, room101)

	booking, err := env.service.Create(context.Background(), request(room101, "2026-09-01", "2026-09-03"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if booking.ID == "" {
		t.Error("expected booking ID to be assigned")
	}
	if booking.Status != model.StatusActive {
		t.Errorf("expected status %q, got %q", model.StatusActive, booking.Status)
	}
	if !booking.CheckOut.After(booking.CheckIn) {
		t.Error("expected check_out after check_in")
	}

	if got := env.publisher.types(); len(got) != 1 || got[0] != model.EventBookingCreated {
		t.Errorf("expected one %s event, got %v", model.EventBookingCreated, got)
	}

	if held := len(env.locks.locks); held != 0 {
		t.Errorf("expected all locks released, %d still held", held)
	}
}

func TestCreate_UnparseableDates(t *testing.T) {
	env := newTestEnv(t, room101)

	tests := []struct {
		name     string
		checkIn  string
		checkOut string
	}{
		{"missing check_in", "", "2026-09-03"},
		{"missing check_out", "2026-09-01", ""},
		{"garbage check_in", "not-a-date", "2026-09-03"},
		{"wrong format", "01/09/2026", "2026-09-03"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.service.Create(context.Background(), request(room101, tt.checkIn, tt.checkOut))
			assertCode(t, err, apperrors.CodeInvalidInput)
		})
	}
}

func TestCreate_DegenerateStay(t *testing.T) {
	env := newTestEnv(t, room101)

	// Zero-length stay: check_out equals check_in.
	_, err := env.service.Create(context.Background(), request(room101, "2026-09-01", "2026-09-01"))
	assertCode(t, err, apperrors.CodeValidation)

	// Inverted stay.
	_, err = env.service.Create(context.Background(), request(room101, "2026-09-03", "2026-09-01"))
	assertCode(t, err, apperrors.CodeValidation)
}

func TestCreate_UnknownRoom(t *testing.T) {
	env := newTestEnv(t, room101)

	_, err := env.service.Create(context.Background(), request(room404, "2026-09-01", "2026-09-03"))
	assertCode(t, err, apperrors.CodeValidation)
}

func TestCreate_OverlapConflict(t *testing.T) {
	env := newTestEnv(t, room101)
	ctx := context.Background()

	if _, err := env.service.Create(ctx, request(room101, "2026-09-10", "2026-09-13")); err != nil {
		t.Fatalf("seed booking failed: %v", err)
	}

	tests := []struct {
		name     string
		checkIn  string
		checkOut string
	}{
		{"same stay", "2026-09-10", "2026-09-13"},
		{"starts inside", "2026-09-12", "2026-09-14"},
		{"ends inside", "2026-09-08", "2026-09-11"},
		{"fully contains", "2026-09-09", "2026-09-14"},
		{"fully contained", "2026-09-11", "2026-09-12"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.service.Create(ctx, request(room101, tt.checkIn, tt.checkOut))
			assertCode(t, err, apperrors.CodeConflict)
		})
	}
}

func TestCreate_BackToBackStaysDoNotConflict(t *testing.T) {
	env := newTestEnv(t, room101)
	ctx := context.Background()

	if _, err := env.service.Create(ctx, request(room101, "2026-09-10", "2026-09-13")); err != nil {
		t.Fatalf("seed booking failed: %v", err)
	}

	// Check-in on the existing check-out day.
	if _, err := env.service.Create(ctx, request(room101, "2026-09-13", "2026-09-15")); err != nil {
		t.Errorf("check-in on existing check-out day should succeed: %v", err)
	}

	// Check-out on the existing check-in day.
	if _, err := env.service.Create(ctx, request(room101, "2026-09-08", "2026-09-10")); err != nil {
		t.Errorf("check-out on existing check-in day should succeed: %v", err)
	}
}

func TestCreate_OtherRoomUnaffected(t *testing.T) {
	env := newTestEnv(t, room101, room102)
	ctx := context.Background()

	if _, err := env.service.Create(ctx, request(room101, "2026-09-10", "2026-09-13")); err != nil {
		t.Fatalf("seed booking failed: %v", err)
	}

	if _, err := env.service.Create(ctx, request(room102, "2026-09-10", "2026-09-13")); err != nil {
		t.Errorf("same dates in a different room should succeed: %v", err)
	}
}

func TestCreate_StorageErrorPropagates(t *testing.T) {
	env := newTestEnv(t, room101)
	env.repo.createErr = errors.New("write concern failure")

	_, err := env.service.Create(context.Background(), request(room101, "2026-09-01", "2026-09-03"))
	assertCode(t, err, apperrors.CodeInternal)

	if got := env.publisher.types(); len(got) != 0 {
		t.Errorf("no event should be published on failure, got %v", got)
	}
}

func TestCreate_ConcurrentRequestsExactlyOneWins(t *testing.T) {
	env := newTestEnv(t, room101)

	const attempts = 8
	var wg sync.WaitGroup
	results := make(chan error, attempts)

	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := env.service.Create(context.Background(), request(room101, "2026-09-10", "2026-09-13"))
			results <- err
		}()
	}

	wg.Wait()
	close(results)

	var successes, conflicts int
	for err := range results {
		switch {
		case err == nil:
			successes++
		default:
			var appErr *apperrors.AppError
			if errors.As(err, &appErr) && appErr.Code == apperrors.CodeConflict {
				conflicts++
			} else {
				t.Errorf("unexpected error: %v", err)
			}
		}
	}

	if successes != 1 {
		t.Errorf("expected exactly 1 success, got %d", successes)
	}
	if conflicts != attempts-1 {
		t.Errorf("expected %d conflicts, got %d", attempts-1, conflicts)
	}

	count, _ := env.repo.Count(context.Background())
	if count != 1 {
		t.Errorf("expected exactly 1 stored booking, got %d", count)
	}
}

// ────────────────────────────────────────────────
// Cancel
// ────────────────────────────────────────────────

func TestCancel_Lifecycle(t *testing.T) {
	env := newTestEnv(t, room101)
	ctx := context.Background()

	booking, err := env.service.Create(ctx, request(room101, "2026-09-10", "2026-09-13"))
	if err != nil {
		t.Fatalf("seed booking failed: %v", err)
	}

	changed, err := env.service.Cancel(ctx, booking.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !changed {
		t.Error("first cancel should report a change")
	}

	// Cancel is idempotent: the second call succeeds without changing anything.
	changed, err = env.service.Cancel(ctx, booking.ID)
	if err != nil {
		t.Fatalf("second cancel should not fail: %v", err)
	}
	if changed {
		t.Error("second cancel should report no change")
	}

	got := env.publisher.types()
	want := []string{model.EventBookingCreated, model.EventBookingCancelled}
	if len(got) != len(want) {
		t.Fatalf("expected events %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("expected events %v, got %v", want, got)
		}
	}
}

func TestCancel_UnknownBooking(t *testing.T) {
	env := newTestEnv(t, room101)

	_, err := env.service.Cancel(context.Background(), "000000000000000000000999")
	assertCode(t, err, apperrors.CodeNotFound)
}

func TestCancel_FreesTheDates(t *testing.T) {
	env := newTestEnv(t, room101)
	ctx := context.Background()

	booking, err := env.service.Create(ctx, request(room101, "2026-09-10", "2026-09-13"))
	if err != nil {
		t.Fatalf("seed booking failed: %v", err)
	}

	if _, err := env.service.Cancel(ctx, booking.ID); err != nil {
		t.Fatalf("cancel failed: %v", err)
	}

	if _, err := env.service.Create(ctx, request(room101, "2026-09-10", "2026-09-13")); err != nil {
		t.Errorf("cancelled booking should not block new bookings: %v", err)
	}
}

// ────────────────────────────────────────────────
// Update
// ────────────────────────────────────────────────

func TestUpdate_SameDatesIsNotSelfConflict(t *testing.T) {
	env := newTestEnv(t, room101)
	ctx := context.Background()

	booking, err := env.service.Create(ctx, request(room101, "2026-09-10", "2026-09-13"))
	if err != nil {
		t.Fatalf("seed booking failed: %v", err)
	}

	updated, err := env.service.Update(ctx, booking.ID, &model.BookingUpdate{
		CheckIn:  "2026-09-10",
		CheckOut: "2026-09-13",
	})
	if err != nil {
		t.Fatalf("update keeping the same dates should succeed: %v", err)
	}
	if !updated.CheckIn.Equal(booking.CheckIn) || !updated.CheckOut.Equal(booking.CheckOut) {
		t.Error("dates should be unchanged")
	}
}

func TestUpdate_MoveIntoOccupiedRange(t *testing.T) {
	env := newTestEnv(t, room101)
	ctx := context.Background()

	if _, err := env.service.Create(ctx, request(room101, "2026-09-10", "2026-09-13")); err != nil {
		t.Fatalf("seed booking failed: %v", err)
	}
	second, err := env.service.Create(ctx, request(room101, "2026-09-20", "2026-09-23"))
	if err != nil {
		t.Fatalf("seed booking failed: %v", err)
	}

	_, err = env.service.Update(ctx, second.ID, &model.BookingUpdate{
		CheckIn:  "2026-09-11",
		CheckOut: "2026-09-14",
	})
	assertCode(t, err, apperrors.CodeConflict)

	// The failed update must not have changed the stored booking.
	stored, err := env.service.GetByID(ctx, second.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stored.CheckIn.Format(time.DateOnly) != "2026-09-20" {
		t.Errorf("booking dates changed despite conflict: %v", stored.CheckIn)
	}
}

func TestUpdate_ExtendStay(t *testing.T) {
	env := newTestEnv(t, room101)
	ctx := context.Background()

	booking, err := env.service.Create(ctx, request(room101, "2026-09-10", "2026-09-13"))
	if err != nil {
		t.Fatalf("seed booking failed: %v", err)
	}

	updated, err := env.service.Update(ctx, booking.ID, &model.BookingUpdate{CheckOut: "2026-09-15"})
	if err != nil {
		t.Fatalf("extending into free dates should succeed: %v", err)
	}
	if updated.CheckOut.Format(time.DateOnly) != "2026-09-15" {
		t.Errorf("expected check_out 2026-09-15, got %v", updated.CheckOut)
	}

	if got := env.publisher.types(); len(got) != 2 || got[1] != model.EventBookingUpdated {
		t.Errorf("expected a %s event, got %v", model.EventBookingUpdated, got)
	}
}

func TestUpdate_MoveToAnotherRoom(t *testing.T) {
	env := newTestEnv(t, room101, room102)
	ctx := context.Background()

	booking, err := env.service.Create(ctx, request(room101, "2026-09-10", "2026-09-13"))
	if err != nil {
		t.Fatalf("seed booking failed: %v", err)
	}

	updated, err := env.service.Update(ctx, booking.ID, &model.BookingUpdate{RoomID: room102})
	if err != nil {
		t.Fatalf("moving to a free room should succeed: %v", err)
	}
	if updated.RoomID != room102 {
		t.Errorf("expected room %s, got %s", room102, updated.RoomID)
	}

	// The original room is free again.
	if _, err := env.service.Create(ctx, request(room101, "2026-09-10", "2026-09-13")); err != nil {
		t.Errorf("vacated room should accept new bookings: %v", err)
	}
}

func TestUpdate_CancelledBookingRejected(t *testing.T) {
	env := newTestEnv(t, room101)
	ctx := context.Background()

	booking, err := env.service.Create(ctx, request(room101, "2026-09-10", "2026-09-13"))
	if err != nil {
		t.Fatalf("seed booking failed: %v", err)
	}
	if _, err := env.service.Cancel(ctx, booking.ID); err != nil {
		t.Fatalf("cancel failed: %v", err)
	}

	_, err = env.service.Update(ctx, booking.ID, &model.BookingUpdate{CheckOut: "2026-09-15"})
	assertCode(t, err, apperrors.CodeConflict)
}

func TestUpdate_UnknownBooking(t *testing.T) {
	env := newTestEnv(t, room101)

	_, err := env.service.Update(context.Background(), "000000000000000000000999", &model.BookingUpdate{CheckOut: "2026-09-15"})
	assertCode(t, err, apperrors.CodeNotFound)
}

func TestUpdate_EmptyUpdateRejected(t *testing.T) {
	env := newTestEnv(t, room101)
	ctx := context.Background()

	booking, err := env.service.Create(ctx, request(room101, "2026-09-10", "2026-09-13"))
	if err != nil {
		t.Fatalf("seed booking failed: %v", err)
	}

	_, err = env.service.Update(ctx, booking.ID, &model.BookingUpdate{})
	assertCode(t, err, apperrors.CodeValidation)
}

// ────────────────────────────────────────────────
// Full lifecycle walkthrough
// ────────────────────────────────────────────────

func TestRoomLifecycleScenario(t *testing.T) {
	env := newTestEnv(t, room101)
	ctx := context.Background()

	first, err := env.service.Create(ctx, request(room101, "2025-11-10", "2025-11-13"))
	if err != nil {
		t.Fatalf("first booking should succeed: %v", err)
	}

	_, err = env.service.Create(ctx, request(room101, "2025-11-12", "2025-11-14"))
	assertCode(t, err, apperrors.CodeConflict)

	if _, err := env.service.Create(ctx, request(room101, "2025-11-13", "2025-11-15")); err != nil {
		t.Fatalf("back-to-back booking should succeed: %v", err)
	}

	if _, err := env.service.Cancel(ctx, first.ID); err != nil {
		t.Fatalf("cancel failed: %v", err)
	}

	if _, err := env.service.Create(ctx, request(room101, "2025-11-10", "2025-11-12")); err != nil {
		t.Fatalf("booking after cancellation should succeed: %v", err)
	}
}
