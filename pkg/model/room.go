package model

// Room is a catalog entry. The reservation engine only reads rooms; all
// mutation goes through the rooms service.
type Room struct {
	ID         string  `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	RoomNumber int     `json:"room_number" bson:"room_number" validate:"required,min=1"`
	RoomType   string  `json:"room_type" bson:"room_type" validate:"required,min=2,max=64"`
	Price      float64 `json:"price" bson:"price" validate:"gte=0"`
	Status     string  `json:"status" bson:"status" validate:"omitempty,max=64"`
}

type RoomUpdate struct {
	RoomNumber *int     `json:"room_number,omitempty" validate:"omitempty,min=1"`
	RoomType   string   `json:"room_type,omitempty" validate:"omitempty,min=2,max=64"`
	Price      *float64 `json:"price,omitempty" validate:"omitempty,gte=0"`
	Status     *string  `json:"status,omitempty" validate:"omitempty,max=64"`
}
