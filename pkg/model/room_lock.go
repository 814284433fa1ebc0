package model

import "time"

// RoomLock is an advisory lock serializing the availability-check-then-insert
// sequence for a single room. Acquisition is a unique _id insert; the TTL
// index on expires_at reclaims locks whose holder died before releasing.
type RoomLock struct {
	ID        string    `bson:"_id" json:"id"`
	ExpiresAt time.Time `bson:"expires_at" json:"expires_at"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}
