package model

import "time"

// Reservation lifecycle event types published to the event stream.
const (
	EventBookingCreated   = "booking.created"
	EventBookingUpdated   = "booking.updated"
	EventBookingCancelled = "booking.cancelled"
)

// ReservationEvent is the payload published on the reservation event stream
// after a lifecycle transition commits. Consumers (the history worker today)
// must tolerate unknown event types.
type ReservationEvent struct {
	EventType  string    `json:"event_type"`
	BookingID  string    `json:"booking_id"`
	RoomID     string    `json:"room_id"`
	CustomerID string    `json:"customer_id"`
	CheckIn    time.Time `json:"check_in"`
	CheckOut   time.Time `json:"check_out"`
	OccurredAt time.Time `json:"occurred_at"`
}
