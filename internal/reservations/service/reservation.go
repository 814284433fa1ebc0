package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/mongo"

	reservationserrors "innkeep/internal/reservations/errors"
	"innkeep/internal/reservations/events"
	"innkeep/internal/reservations/repository"
	"innkeep/internal/reservations/validator"
	"innkeep/pkg/config"
	apperrors "innkeep/pkg/errors"
	"innkeep/pkg/model"
	"innkeep/pkg/sanitizer"
)

type ReservationService interface {
	Create(ctx context.Context, req *model.BookingRequest) (*model.Booking, error)
	GetByID(ctx context.Context, id string) (*model.Booking, error)
	GetAll(ctx context.Context, limit int, offset int64) ([]*model.Booking, int64, error)
	Update(ctx context.Context, id string, updates *model.BookingUpdate) (*model.Booking, error)
	Cancel(ctx context.Context, id string) (bool, error)
	SearchByRoom(ctx context.Context, roomID string, checkIn, checkOut *time.Time, limit int, offset int64) ([]*model.Booking, int64, error)
}

type reservationService struct {
	repo      repository.BookingRepository
	lockRepo  repository.RoomLockRepository
	rooms     repository.RoomCatalog
	validator *validator.BookingValidator
	publisher events.Publisher
	cfg       *config.Config
}

// NewReservationService wires the booking engine. publisher may be nil when
// event publishing is disabled.
func NewReservationService(
	repo repository.BookingRepository,
	lockRepo repository.RoomLockRepository,
	rooms repository.RoomCatalog,
	validator *validator.BookingValidator,
	publisher events.Publisher,
	cfg *config.Config,
) ReservationService {
	return &reservationService{
		repo:      repo,
		lockRepo:  lockRepo,
		rooms:     rooms,
		validator: validator,
		publisher: publisher,
		cfg:       cfg,
	}
}

func (s *reservationService) Create(ctx context.Context, req *model.BookingRequest) (*model.Booking, error) {
	checkIn, checkOut, parseErrs := validator.ParseStay(req.CheckIn, req.CheckOut)
	if parseErrs != nil {
		s.cfg.Log.Warn("Booking request has unparseable dates", "error", parseErrs)
		return nil, apperrors.InvalidInput(parseErrs.Error())
	}

	booking := &model.Booking{
		RoomID:     req.RoomID,
		CustomerID: sanitizer.TrimAndNormalize(req.CustomerID),
		CheckIn:    checkIn,
		CheckOut:   checkOut,
		Status:     model.StatusActive,
	}

	if err := s.validate(booking); err != nil {
		return nil, err
	}

	if err := s.verifyRoomExists(ctx, booking.RoomID); err != nil {
		return nil, err
	}

	// Serialize creates per room so two overlapping requests cannot both pass
	// the availability check before either writes.
	lockID, err := s.acquireRoomLock(ctx, booking.RoomID)
	if err != nil {
		return nil, err
	}
	defer func() {
		if releaseErr := s.releaseRoomLock(ctx, lockID); releaseErr != nil {
			s.cfg.Log.Warn("Failed to release room lock", "lock_id", lockID, "error", releaseErr)
		}
	}()

	err = s.repo.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		if err := s.ensureAvailable(sessCtx, booking.RoomID, booking.CheckIn, booking.CheckOut, ""); err != nil {
			return err
		}
		if err := s.repo.Create(sessCtx, booking); err != nil {
			return apperrors.Internal("Failed to create booking", err)
		}
		return nil
	})
	if err != nil {
		s.cfg.Log.Error("Failed to create booking", "room_id", booking.RoomID, "error", err)
		return nil, err
	}

	s.cfg.Log.Info("Booking created successfully",
		"id", booking.ID,
		"room_id", booking.RoomID,
		"check_in", booking.CheckIn,
		"check_out", booking.CheckOut,
	)

	s.publishEvent(ctx, model.EventBookingCreated, booking)
	return booking, nil
}

func (s *reservationService) GetByID(ctx context.Context, id string) (*model.Booking, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Booking ID cannot be empty")
	}

	booking, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, reservationserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Booking", id)
		}
		if errors.Is(err, reservationserrors.ErrInvalidID) {
			return nil, apperrors.InvalidInput("Invalid booking ID format")
		}
		return nil, apperrors.Internal("Failed to retrieve booking", err)
	}

	return booking, nil
}

func (s *reservationService) GetAll(ctx context.Context, limit int, offset int64) ([]*model.Booking, int64, error) {
	var count int64
	var bookings []*model.Booking
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		count, errCount = s.repo.Count(ctx)
		if errCount != nil {
			s.cfg.Log.Error("Failed to count bookings", "error", errCount)
			errCount = apperrors.Internal("Failed to count bookings", errCount)
		}
	}()

	go func() {
		defer wg.Done()
		bookings, errFind = s.repo.FindAll(ctx, limit, offset)
		if errFind != nil {
			s.cfg.Log.Error("Failed to list bookings", "error", errFind)
			errFind = apperrors.Internal("Failed to retrieve bookings", errFind)
		}
	}()

	wg.Wait()
	if errCount != nil {
		return nil, 0, errCount
	}
	if errFind != nil {
		return nil, 0, errFind
	}

	return bookings, count, nil
}

func (s *reservationService) Update(ctx context.Context, id string, updates *model.BookingUpdate) (*model.Booking, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Booking ID cannot be empty")
	}

	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, reservationserrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Booking", id)
		}
		if errors.Is(err, reservationserrors.ErrInvalidID) {
			return nil, apperrors.InvalidInput("Invalid booking ID format")
		}
		return nil, apperrors.Internal("Failed to check booking existence", err)
	}

	if existing.Status == model.StatusCancelled {
		return nil, apperrors.Conflict("Cannot modify a cancelled booking")
	}

	if err := s.validator.ValidateUpdate(updates); err != nil {
		s.cfg.Log.Warn("Booking update validation failed", "id", id, "error", err)
		return nil, apperrors.Validation("Invalid update input", map[string]any{"error": err.Error()})
	}

	merged, err := s.mergeBookingUpdates(existing, updates)
	if err != nil {
		return nil, err
	}

	if err := s.validate(merged); err != nil {
		return nil, err
	}

	if merged.RoomID != existing.RoomID {
		if err := s.verifyRoomExists(ctx, merged.RoomID); err != nil {
			return nil, err
		}
	}

	lockID, err := s.acquireRoomLock(ctx, merged.RoomID)
	if err != nil {
		return nil, err
	}
	defer func() {
		if releaseErr := s.releaseRoomLock(ctx, lockID); releaseErr != nil {
			s.cfg.Log.Warn("Failed to release room lock", "lock_id", lockID, "error", releaseErr)
		}
	}()

	err = s.repo.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		// Exclude the booking itself so keeping the same dates is never a
		// self-conflict.
		if err := s.ensureAvailable(sessCtx, merged.RoomID, merged.CheckIn, merged.CheckOut, id); err != nil {
			return err
		}
		if _, err := s.repo.Update(sessCtx, id, merged); err != nil {
			if errors.Is(err, reservationserrors.ErrNotFound) {
				return apperrors.NotFoundWithID("Booking", id)
			}
			return apperrors.Internal("Failed to update booking", err)
		}
		return nil
	})
	if err != nil {
		s.cfg.Log.Error("Failed to update booking", "id", id, "error", err)
		return nil, err
	}

	s.cfg.Log.Info("Booking updated successfully", "id", id, "room_id", merged.RoomID)

	s.publishEvent(ctx, model.EventBookingUpdated, merged)
	return merged, nil
}

// Cancel marks the booking cancelled and reports whether this call changed
// anything. Cancelling twice succeeds with changed=false, so retried cancels
// stay safe. A cancelled booking immediately frees its dates.
func (s *reservationService) Cancel(ctx context.Context, id string) (bool, error) {
	if id == "" {
		return false, apperrors.InvalidInput("Booking ID cannot be empty")
	}

	var booking *model.Booking
	var changed bool

	err := s.repo.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		found, err := s.repo.FindByID(sessCtx, id)
		if err != nil {
			if errors.Is(err, reservationserrors.ErrNotFound) {
				return apperrors.NotFoundWithID("Booking", id)
			}
			if errors.Is(err, reservationserrors.ErrInvalidID) {
				return apperrors.InvalidInput("Invalid booking ID format")
			}
			return apperrors.Internal("Failed to retrieve booking", err)
		}
		booking = found

		if booking.Status == model.StatusCancelled {
			changed = false
			return nil
		}

		changed, err = s.repo.SetStatus(sessCtx, id, model.StatusCancelled)
		if err != nil {
			return apperrors.Internal("Failed to cancel booking", err)
		}
		return nil
	})
	if err != nil {
		return false, err
	}

	if changed {
		s.cfg.Log.Info("Booking cancelled successfully", "id", id, "room_id", booking.RoomID)
		booking.Status = model.StatusCancelled
		s.publishEvent(ctx, model.EventBookingCancelled, booking)
	} else {
		s.cfg.Log.Info("Booking already cancelled", "id", id)
	}

	return changed, nil
}

func (s *reservationService) SearchByRoom(ctx context.Context, roomID string, checkIn, checkOut *time.Time, limit int, offset int64) ([]*model.Booking, int64, error) {
	if roomID == "" {
		return nil, 0, apperrors.InvalidInput("Room ID is required")
	}

	var count int64
	var bookings []*model.Booking
	var errCount, errFind error
	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		var err error
		count, err = s.repo.CountByRoom(ctx, roomID, checkIn, checkOut)
		if err != nil {
			s.cfg.Log.Error("Failed to count bookings by room",
				"room_id", roomID,
				"error", err,
			)
			errCount = apperrors.Internal("Failed to count bookings", err)
		}
	}()

	go func() {
		defer wg.Done()
		var err error
		bookings, err = s.repo.FindByRoom(ctx, roomID, checkIn, checkOut, limit, offset)
		if err != nil {
			s.cfg.Log.Error("Failed to search bookings",
				"room_id", roomID,
				"limit", limit,
				"offset", offset,
				"error", err,
			)
			errFind = apperrors.Internal("Failed to search bookings", err)
		}
	}()

	wg.Wait()

	if errCount != nil {
		return nil, 0, errCount
	}
	if errFind != nil {
		return nil, 0, errFind
	}

	return bookings, count, nil
}

// --- Helpers ---

func (s *reservationService) mergeBookingUpdates(existing *model.Booking, updates *model.BookingUpdate) (*model.Booking, error) {
	merged := *existing

	if updates.RoomID != "" {
		merged.RoomID = updates.RoomID
	}

	if updates.CheckIn != "" || updates.CheckOut != "" {
		checkInStr := updates.CheckIn
		if checkInStr == "" {
			checkInStr = existing.CheckIn.Format(time.DateOnly)
		}
		checkOutStr := updates.CheckOut
		if checkOutStr == "" {
			checkOutStr = existing.CheckOut.Format(time.DateOnly)
		}

		checkIn, checkOut, parseErrs := validator.ParseStay(checkInStr, checkOutStr)
		if parseErrs != nil {
			s.cfg.Log.Warn("Booking update has unparseable dates", "error", parseErrs)
			return nil, apperrors.InvalidInput(parseErrs.Error())
		}
		merged.CheckIn = checkIn
		merged.CheckOut = checkOut
	}

	return &merged, nil
}

func (s *reservationService) validate(booking *model.Booking) error {
	if err := s.validator.Validate(booking); err != nil {
		s.cfg.Log.Warn("Booking validation failed", "error", err)
		return apperrors.Validation("Booking validation failed", map[string]any{"error": err.Error()})
	}
	return nil
}

func (s *reservationService) verifyRoomExists(ctx context.Context, roomID string) error {
	exists, err := s.rooms.Exists(ctx, roomID)
	if err != nil {
		return apperrors.Internal("Failed to check room existence", err)
	}
	if !exists {
		return apperrors.Validation("Room does not exist", map[string]any{"room_id": roomID})
	}
	return nil
}

// ensureAvailable runs the no-overlap check inside the transaction. The
// predicate lives in the storage filter, so one round trip decides
// availability.
func (s *reservationService) ensureAvailable(ctx context.Context, roomID string, checkIn, checkOut time.Time, excludeID string) error {
	count, err := s.repo.CountOverlapping(ctx, roomID, checkIn, checkOut, excludeID)
	if err != nil {
		return apperrors.Internal("Failed to check room availability", err)
	}
	if count > 0 {
		return apperrors.Conflict(fmt.Sprintf(
			"Room is not available between %s and %s",
			checkIn.Format(time.DateOnly),
			checkOut.Format(time.DateOnly),
		))
	}
	return nil
}

// acquireRoomLock takes a per-room advisory lock so overlapping create and
// update requests for the same room queue up instead of racing. The TTL
// index on Room_locks reclaims locks from crashed requests.
func (s *reservationService) acquireRoomLock(ctx context.Context, roomID string) (string, error) {
	lockID := fmt.Sprintf("room_lock_%s", roomID)

	lock := &model.RoomLock{
		ID:        lockID,
		ExpiresAt: time.Now().Add(s.cfg.RoomLockTTL),
	}

	_, err := s.lockRepo.Create(ctx, lock)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return "", apperrors.Conflict("This room is currently being booked by another request. Please try again.")
		}
		return "", apperrors.Internal("Failed to acquire room lock", err)
	}

	return lockID, nil
}

func (s *reservationService) releaseRoomLock(ctx context.Context, lockID string) error {
	return s.lockRepo.Delete(ctx, lockID)
}

func (s *reservationService) publishEvent(ctx context.Context, eventType string, booking *model.Booking) {
	if s.publisher == nil {
		return
	}

	event := model.ReservationEvent{
		EventType:  eventType,
		BookingID:  booking.ID,
		RoomID:     booking.RoomID,
		CustomerID: booking.CustomerID,
		CheckIn:    booking.CheckIn,
		CheckOut:   booking.CheckOut,
		OccurredAt: time.Now().UTC(),
	}

	if err := s.publisher.Publish(ctx, event); err != nil {
		s.cfg.Log.Warn("Failed to publish reservation event",
			"event_type", eventType,
			"booking_id", booking.ID,
			"error", err,
		)
	}
}
