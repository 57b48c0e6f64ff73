package models

import (
	"errors"
	"time"
)

// Canvas is the shared grid. Width and height are in world pixels and must
// divide evenly into tile_size cells; resizing happens administratively only.
type Canvas struct {
	ID                string    `bson:"_id,omitempty" json:"id,omitempty"`
	Title             string    `bson:"title" json:"title"`
	Width             int       `bson:"width" json:"width"`
	Height            int       `bson:"height" json:"height"`
	TileSize          int       `bson:"tile_size" json:"tile_size"`
	PaletteType       string    `bson:"palette_type" json:"palette_type"`
	CollaborationMode string    `bson:"collaboration_mode" json:"collaboration_mode"`
	CreatedAt         time.Time `bson:"created_at" json:"created_at"`
}

var ErrInvalidCanvas = errors.New("canvas dimensions must be positive and divisible by tile size")

func (c Canvas) Validate() error {
	if c.TileSize <= 0 || c.Width <= 0 || c.Height <= 0 {
		return ErrInvalidCanvas
	}
	if c.Width%c.TileSize != 0 || c.Height%c.TileSize != 0 {
		return ErrInvalidCanvas
	}
	return nil
}

func (c Canvas) TilesAcross() int { return c.Width / c.TileSize }
func (c Canvas) TilesDown() int   { return c.Height / c.TileSize }

// ContainsTile reports whether the tile grid coordinate is inside the canvas.
func (c Canvas) ContainsTile(x, y int) bool {
	return x >= 0 && y >= 0 && x < c.TilesAcross() && y < c.TilesDown()
}
