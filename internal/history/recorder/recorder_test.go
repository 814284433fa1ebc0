package recorder

import (
	"context"
	"errors"
	"testing"
	"time"

	"innkeep/pkg/kafka"
	"innkeep/pkg/logger"
	"innkeep/pkg/model"
)

type mockHistoryRepository struct {
	appendFunc func(ctx context.Context, entry *model.BookingHistoryEntry) error
	entries    []*model.BookingHistoryEntry
}

func (m *mockHistoryRepository) Append(ctx context.Context, entry *model.BookingHistoryEntry) error {
	if m.appendFunc != nil {
		return m.appendFunc(ctx, entry)
	}
	m.entries = append(m.entries, entry)
	return nil
}

func newTestRecorder(repo *mockHistoryRepository) *Recorder {
	log := logger.New(logger.Config{
		Level:     "error",
		Format:    logger.JSON,
		AddSource: false,
		Service:   "test",
	})
	return NewRecorder(repo, log)
}

func eventMessage(eventType string) kafka.Message {
	return kafka.NewMessage().
		WithKey("64b000000000000000000101").
		WithValue(model.ReservationEvent{
			EventType:  eventType,
			BookingID:  "000000000000000000000001",
			RoomID:     "64b000000000000000000101",
			CustomerID: "guest-42",
			CheckIn:    time.Date(2026, 9, 1, 0, 0, 0, 0, time.UTC),
			CheckOut:   time.Date(2026, 9, 3, 0, 0, 0, 0, time.UTC),
			OccurredAt: time.Now().UTC(),
		}).
		WithEventType(eventType).
		Build()
}

func assertErrorType(t *testing.T, err error, want kafka.ErrorType) {
	t.Helper()
	var kafkaErr *kafka.KafkaError
	if !errors.As(err, &kafkaErr) {
		t.Fatalf("expected KafkaError, got %T: %v", err, err)
	}
	if kafkaErr.Type != want {
		t.Fatalf("expected error type %v, got %v", want, kafkaErr.Type)
	}
}

func TestHandleMessage_RecordsEntry(t *testing.T) {
	repo := &mockHistoryRepository{}
	r := newTestRecorder(repo)

	if err := r.HandleMessage(context.Background(), eventMessage(model.EventBookingCreated)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(repo.entries) != 1 {
		t.Fatalf("expected 1 history entry, got %d", len(repo.entries))
	}
	entry := repo.entries[0]
	if entry.Action != model.EventBookingCreated {
		t.Errorf("expected action %s, got %s", model.EventBookingCreated, entry.Action)
	}
	if entry.BookingID != "000000000000000000000001" {
		t.Errorf("unexpected booking_id %s", entry.BookingID)
	}
}

func TestHandleMessage_UndecodablePayloadIsPermanent(t *testing.T) {
	r := newTestRecorder(&mockHistoryRepository{})

	msg := kafka.NewMessage().WithKey("k").Build()
	msg.Value = []byte("{not json")

	err := r.HandleMessage(context.Background(), msg)
	assertErrorType(t, err, kafka.ErrorTypePermanent)
}

func TestHandleMessage_UnknownEventTypeSkipped(t *testing.T) {
	repo := &mockHistoryRepository{}
	r := newTestRecorder(repo)

	if err := r.HandleMessage(context.Background(), eventMessage("booking.upgraded")); err != nil {
		t.Fatalf("unknown event types should be skipped, got %v", err)
	}
	if len(repo.entries) != 0 {
		t.Errorf("no entry should be recorded for unknown types, got %d", len(repo.entries))
	}
}

func TestHandleMessage_AppendFailureIsTransient(t *testing.T) {
	repo := &mockHistoryRepository{
		appendFunc: func(ctx context.Context, entry *model.BookingHistoryEntry) error {
			return errors.New("connection reset")
		},
	}
	r := newTestRecorder(repo)

	err := r.HandleMessage(context.Background(), eventMessage(model.EventBookingCancelled))
	assertErrorType(t, err, kafka.ErrorTypeTransient)
}
