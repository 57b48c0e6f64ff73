package models

import "time"

// Tile is the smallest independently owned unit of a canvas. Pixels holds one
// palette index character per pixel, so a valid payload is always exactly
// tile_size*tile_size characters long.
type Tile struct {
	ID        string    `bson:"_id,omitempty" json:"id,omitempty"`
	CanvasID  string    `bson:"canvas_id" json:"canvas_id"`
	X         int       `bson:"x" json:"x"`
	Y         int       `bson:"y" json:"y"`
	Pixels    string    `bson:"pixels" json:"pixels"`
	OwnerID   string    `bson:"owner_id" json:"owner_id"`
	LikeCount int       `bson:"like_count" json:"like_count"`
	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}

// ValidPayload reports whether the pixel payload matches the expected size.
func (t Tile) ValidPayload(tileSize int) bool {
	return len(t.Pixels) == tileSize*tileSize
}
