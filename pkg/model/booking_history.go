package model

import "time"

// BookingHistoryEntry is an append-only record of a booking lifecycle
// transition, written by the history worker from the event stream.
type BookingHistoryEntry struct {
	ID         string    `json:"id,omitempty" bson:"_id,omitempty"`
	BookingID  string    `json:"booking_id" bson:"booking_id"`
	RoomID     string    `json:"room_id" bson:"room_id"`
	CustomerID string    `json:"customer_id" bson:"customer_id"`
	Action     string    `json:"action" bson:"action"`
	CheckIn    time.Time `json:"check_in" bson:"check_in"`
	CheckOut   time.Time `json:"check_out" bson:"check_out"`
	RecordedAt time.Time `json:"recorded_at" bson:"recorded_at"`
}
