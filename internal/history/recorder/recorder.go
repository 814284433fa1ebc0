package recorder

import (
	"context"

	"innkeep/internal/history/repository"
	"innkeep/pkg/kafka"
	"innkeep/pkg/logger"
	"innkeep/pkg/model"
)

// Recorder turns reservation events into booking history entries. It is the
// message handler for the history consumer group.
type Recorder struct {
	repo repository.HistoryRepository
	log  *logger.Logger
}

func NewRecorder(repo repository.HistoryRepository, log *logger.Logger) *Recorder {
	return &Recorder{
		repo: repo,
		log:  log,
	}
}

func (r *Recorder) HandleMessage(ctx context.Context, msg kafka.Message) error {
	var event model.ReservationEvent
	if err := msg.DecodeValue(&event); err != nil {
		// Undecodable payloads are poison; a retry cannot fix them.
		return kafka.NewPermanentError("failed to decode reservation event", err)
	}

	switch event.EventType {
	case model.EventBookingCreated, model.EventBookingUpdated, model.EventBookingCancelled:
	default:
		// Unknown event types are skipped, not failed, so new producers can
		// roll out ahead of this consumer.
		r.log.Warn("Skipping unknown event type",
			"event_type", event.EventType,
			"event_id", msg.GetEventID(),
		)
		return nil
	}

	entry := &model.BookingHistoryEntry{
		BookingID:  event.BookingID,
		RoomID:     event.RoomID,
		CustomerID: event.CustomerID,
		Action:     event.EventType,
		CheckIn:    event.CheckIn,
		CheckOut:   event.CheckOut,
		RecordedAt: event.OccurredAt,
	}

	if err := r.repo.Append(ctx, entry); err != nil {
		r.log.Error("Failed to record history entry",
			"booking_id", event.BookingID,
			"action", event.EventType,
			"error", err,
		)
		return kafka.NewTransientError("failed to record history entry", err)
	}

	r.log.Info("History entry recorded",
		"booking_id", event.BookingID,
		"action", event.EventType,
	)
	return nil
}
