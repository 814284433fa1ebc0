package model

import (
	"time"
)

const (
	StatusActive    = "active"
	StatusCancelled = "cancelled"
)

// Booking is the authoritative record of a room reservation. Stay dates are
// half-open: the guest occupies [check_in, check_out), so a check-out on day D
// never conflicts with a check-in on day D.
type Booking struct {
	ID         string    `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	RoomID     string    `json:"room_id" bson:"room_id" validate:"required,mongodb"`
	CustomerID string    `json:"customer_id" bson:"customer_id" validate:"required,min=1,max=64"`
	CheckIn    time.Time `json:"check_in" bson:"check_in" validate:"required"`
	CheckOut   time.Time `json:"check_out" bson:"check_out" validate:"required,gtfield=CheckIn"`
	Status     string    `json:"status" bson:"status" validate:"required,oneof=active cancelled"`
	CreatedAt  time.Time `json:"created_at" bson:"created_at" validate:"omitempty"`
}

// BookingRequest is the wire form of a reservation request. Dates arrive as
// YYYY-MM-DD strings and are parsed by the booking validator before anything
// else happens.
type BookingRequest struct {
	RoomID     string `json:"room_id"`
	CustomerID string `json:"customer_id"`
	CheckIn    string `json:"check_in"`
	CheckOut   string `json:"check_out"`
}

// BookingUpdate carries a room/date change. Empty fields keep the stored
// value; a date change always re-runs the availability check against the
// target room, excluding the booking itself.
type BookingUpdate struct {
	RoomID   string `json:"room_id,omitempty" validate:"omitempty,mongodb"`
	CheckIn  string `json:"check_in,omitempty"`
	CheckOut string `json:"check_out,omitempty"`
}

// Overlaps reports whether two half-open stay intervals share at least one
// night.
func Overlaps(in1, out1, in2, out2 time.Time) bool {
	return in1.Before(out2) && out1.After(in2)
}
