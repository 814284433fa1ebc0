package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/mongo"

	roomserrors "innkeep/internal/rooms/errors"
	"innkeep/internal/rooms/validator"
	"innkeep/pkg/config"
	mongotx "innkeep/pkg/db/mongo"
	apperrors "innkeep/pkg/errors"
	"innkeep/pkg/logger"
	"innkeep/pkg/model"
)

// ────────────────────────────────────────────────
// Mock repository
// ────────────────────────────────────────────────

type mockRoomRepository struct {
	createFunc        func(ctx context.Context, room *model.Room) error
	findByIDFunc      func(ctx context.Context, id string) (*model.Room, error)
	findAllFunc       func(ctx context.Context, roomType string, limit int, offset int64) ([]*model.Room, error)
	updateFunc        func(ctx context.Context, id string, room *model.Room) (*mongo.UpdateResult, error)
	deleteFunc        func(ctx context.Context, id string) error
	findAvailableFunc func(ctx context.Context, checkIn, checkOut time.Time, roomType string, limit int, offset int64) ([]*model.Room, error)
	countFunc         func(ctx context.Context, roomType string) (int64, error)
}

func (m *mockRoomRepository) Create(ctx context.Context, room *model.Room) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, room)
	}
	return nil
}

func (m *mockRoomRepository) FindByID(ctx context.Context, id string) (*model.Room, error) {
	if m.findByIDFunc != nil {
		return m.findByIDFunc(ctx, id)
	}
	return nil, roomserrors.ErrNotFound
}

func (m *mockRoomRepository) FindAll(ctx context.Context, roomType string, limit int, offset int64) ([]*model.Room, error) {
	if m.findAllFunc != nil {
		return m.findAllFunc(ctx, roomType, limit, offset)
	}
	return nil, nil
}

func (m *mockRoomRepository) Update(ctx context.Context, id string, room *model.Room) (*mongo.UpdateResult, error) {
	if m.updateFunc != nil {
		return m.updateFunc(ctx, id, room)
	}
	return &mongo.UpdateResult{MatchedCount: 1}, nil
}

func (m *mockRoomRepository) Delete(ctx context.Context, id string) error {
	if m.deleteFunc != nil {
		return m.deleteFunc(ctx, id)
	}
	return nil
}

func (m *mockRoomRepository) FindAvailable(ctx context.Context, checkIn, checkOut time.Time, roomType string, limit int, offset int64) ([]*model.Room, error) {
	if m.findAvailableFunc != nil {
		return m.findAvailableFunc(ctx, checkIn, checkOut, roomType, limit, offset)
	}
	return nil, nil
}

func (m *mockRoomRepository) Count(ctx context.Context, roomType string) (int64, error) {
	if m.countFunc != nil {
		return m.countFunc(ctx, roomType)
	}
	return 0, nil
}

func (m *mockRoomRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return fn(nil)
}

func newTestService(repo *mockRoomRepository) RoomService {
	log := logger.New(logger.Config{
		Level:     "error",
		Format:    logger.JSON,
		AddSource: false,
		Service:   "test",
	})
	cfg := &config.Config{Log: log}
	return NewRoomService(repo, validator.NewRoomValidator(log), cfg)
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
// Tests
// ────────────────────────────────────────────────

func TestCreateRoom_Success(t *testing.T) {
	repo := &mockRoomRepository{
		createFunc: func(ctx context.Context, room *model.Room) error {
			room.ID = "64b000000000000000000101"
			return nil
		},
	}
	svc := newTestService(repo)

	room := &model.Room{RoomNumber: 101, RoomType: "  Double  ", Price: 120}
	if err := svc.Create(context.Background(), room); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if room.RoomType != "Double" {
		t.Errorf("expected room type trimmed, got %q", room.RoomType)
	}
	if room.ID == "" {
		t.Error("expected room ID to be assigned")
	}
}

func TestCreateRoom_DuplicateNumber(t *testing.T) {
	repo := &mockRoomRepository{
		createFunc: func(ctx context.Context, room *model.Room) error {
			return roomserrors.ErrDuplicateRoomNumber
		},
	}
	svc := newTestService(repo)

	err := svc.Create(context.Background(), &model.Room{RoomNumber: 101, RoomType: "double"})
	assertCode(t, err, apperrors.CodeConflict)
}

func TestCreateRoom_InvalidInput(t *testing.T) {
	svc := newTestService(&mockRoomRepository{})

	tests := []struct {
		name string
		room *model.Room
	}{
		{"missing number", &model.Room{RoomType: "double"}},
		{"missing type", &model.Room{RoomNumber: 101}},
		{"negative price", &model.Room{RoomNumber: 101, RoomType: "double", Price: -1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := svc.Create(context.Background(), tt.room)
			assertCode(t, err, apperrors.CodeValidation)
		})
	}
}

func TestGetAllRooms(t *testing.T) {
	repo := &mockRoomRepository{
		findAllFunc: func(ctx context.Context, roomType string, limit int, offset int64) ([]*model.Room, error) {
			return []*model.Room{
				{ID: "64b000000000000000000101", RoomNumber: 101, RoomType: "double"},
				{ID: "64b000000000000000000102", RoomNumber: 102, RoomType: "double"},
			}, nil
		},
		countFunc: func(ctx context.Context, roomType string) (int64, error) {
			return 7, nil
		},
	}
	svc := newTestService(repo)

	rooms, total, err := svc.GetAll(context.Background(), "double", 2, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rooms) != 2 {
		t.Errorf("expected 2 rooms, got %d", len(rooms))
	}
	if total != 7 {
		t.Errorf("expected total 7, got %d", total)
	}
}

func TestGetRoom_NotFound(t *testing.T) {
	svc := newTestService(&mockRoomRepository{})

	_, err := svc.GetByID(context.Background(), "64b000000000000000000999")
	assertCode(t, err, apperrors.CodeNotFound)
}

func TestUpdateRoom_MergesFields(t *testing.T) {
	existing := &model.Room{
		ID:         "64b000000000000000000101",
		RoomNumber: 101,
		RoomType:   "double",
		Price:      120,
	}
	repo := &mockRoomRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.Room, error) {
			clone := *existing
			return &clone, nil
		},
	}
	svc := newTestService(repo)

	price := 150.0
	updated, err := svc.Update(context.Background(), existing.ID, &model.RoomUpdate{Price: &price})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.Price != 150 {
		t.Errorf("expected price 150, got %v", updated.Price)
	}
	if updated.RoomNumber != 101 || updated.RoomType != "double" {
		t.Error("untouched fields should keep their values")
	}
}

func TestDeleteRoom_NotFound(t *testing.T) {
	repo := &mockRoomRepository{
		deleteFunc: func(ctx context.Context, id string) error {
			return roomserrors.ErrNotFound
		},
	}
	svc := newTestService(repo)

	err := svc.Delete(context.Background(), "64b000000000000000000999")
	assertCode(t, err, apperrors.CodeNotFound)
}

func TestFindAvailable_DegenerateStay(t *testing.T) {
	svc := newTestService(&mockRoomRepository{})
	day := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)

	_, err := svc.FindAvailable(context.Background(), day, day, "", 10, 0)
	assertCode(t, err, apperrors.CodeValidation)

	_, err = svc.FindAvailable(context.Background(), day.AddDate(0, 0, 2), day, "", 10, 0)
	assertCode(t, err, apperrors.CodeValidation)
}

func TestFindAvailable_PassesStayToRepository(t *testing.T) {
	checkIn := time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC)
	checkOut := time.Date(2026, 9, 3, 0, 0, 0, 0, time.UTC)

	var gotIn, gotOut time.Time
	repo := &mockRoomRepository{
		findAvailableFunc: func(ctx context.Context, in, out time.Time, roomType string, limit int, offset int64) ([]*model.Room, error) {
			gotIn, gotOut = in, out
			return []*model.Room{{ID: "64b000000000000000000101", RoomNumber: 101, RoomType: "double"}}, nil
		},
	}
	svc := newTestService(repo)

	rooms, err := svc.FindAvailable(context.Background(), checkIn, checkOut, "double", 10, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(rooms) != 1 {
		t.Errorf("expected 1 room, got %d", len(rooms))
	}
	if !gotIn.Equal(checkIn) || !gotOut.Equal(checkOut) {
		t.Error("stay bounds should reach the repository unchanged")
	}
}
