package repository

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"innkeep/pkg/config"
)

// RoomCatalog answers existence checks against the room inventory owned by
// the rooms service. The reservation engine only reads from it.
type RoomCatalog interface {
	Exists(ctx context.Context, roomID string) (bool, error)
}

type mongoRoomCatalog struct {
	cfg        *config.Config
	collection *mongo.Collection
}

func NewMongoRoomCatalog(cfg *config.Config) RoomCatalog {
	db := cfg.Client.Mongo.Database(cfg.MongoDatabaseName)
	return &mongoRoomCatalog{
		cfg:        cfg,
		collection: db.Collection("Rooms"),
	}
}

// Exists treats a malformed room ID as a missing room rather than an error,
// so callers reject it the same way they reject an unknown room.
func (r *mongoRoomCatalog) Exists(ctx context.Context, roomID string) (bool, error) {
	objectID, err := primitive.ObjectIDFromHex(roomID)
	if err != nil {
		return false, nil
	}

	err = r.collection.FindOne(ctx, bson.M{"_id": objectID}).Err()
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return false, nil
		}
		return false, fmt.Errorf("failed to check room existence: %w", err)
	}

	return true, nil
}
