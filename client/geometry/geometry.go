// Package geometry holds the transforms between screen, world and tile-grid
// coordinates. It is the single source of truth: both the render and the
// input side call these functions rather than re-deriving offsets, which is
// what kept causing coordinate drift between the two.
//
// Conventions: Viewport.X/Y is the world coordinate under the screen origin,
// and one world unit maps to Zoom screen pixels.
package geometry

import "math"

type Viewport struct {
	X    float64
	Y    float64
	Zoom float64
}

func ScreenToWorld(v Viewport, sx, sy float64) (wx, wy float64) {
	return v.X + sx/v.Zoom, v.Y + sy/v.Zoom
}

func WorldToScreen(v Viewport, wx, wy float64) (sx, sy float64) {
	return (wx - v.X) * v.Zoom, (wy - v.Y) * v.Zoom
}

// WorldToTile maps a world point to the tile-grid cell containing it.
func WorldToTile(wx, wy float64, tileSize int) (tx, ty int) {
	ts := float64(tileSize)
	return int(math.Floor(wx / ts)), int(math.Floor(wy / ts))
}

// TileOrigin is the world coordinate of the tile's top-left corner.
func TileOrigin(tx, ty, tileSize int) (wx, wy float64) {
	return float64(tx * tileSize), float64(ty * tileSize)
}

func ScreenToTile(v Viewport, sx, sy float64, tileSize int) (tx, ty int) {
	wx, wy := ScreenToWorld(v, sx, sy)
	return WorldToTile(wx, wy, tileSize)
}

// TileScreenRect is the screen-space rectangle covered by the tile.
func TileScreenRect(v Viewport, tx, ty, tileSize int) (sx, sy, w, h float64) {
	wx, wy := TileOrigin(tx, ty, tileSize)
	sx, sy = WorldToScreen(v, wx, wy)
	side := float64(tileSize) * v.Zoom
	return sx, sy, side, side
}

// ZoomAt scales the viewport by factor while keeping the world point under
// the screen point (fx, fy) visually fixed. The new origin is recomputed from
// that invariant instead of scaling in place, which would let the anchor
// drift.
func ZoomAt(v Viewport, factor, fx, fy float64) Viewport {
	wx, wy := ScreenToWorld(v, fx, fy)
	nz := v.Zoom * factor
	return Viewport{
		X:    wx - fx/nz,
		Y:    wy - fy/nz,
		Zoom: nz,
	}
}
