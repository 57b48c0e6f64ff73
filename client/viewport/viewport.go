// Package viewport owns the client's pan/zoom state. Pan and Zoom are the
// only mutators and both clamp, so no event sequence can drift the view into
// unrenderable values.
package viewport

import (
	"pixelboard-server/client/geometry"
)

type Bounds struct {
	MinX, MinY float64
	MaxX, MaxY float64
	MinZoom    float64
	MaxZoom    float64
}

// CanvasBounds derives pan/zoom limits from a canvas size in world pixels.
func CanvasBounds(width, height int) Bounds {
	return Bounds{
		MinX:    0,
		MinY:    0,
		MaxX:    float64(width),
		MaxY:    float64(height),
		MinZoom: 0.25,
		MaxZoom: 8,
	}
}

type Controller struct {
	vp     geometry.Viewport
	bounds Bounds
}

func NewController(bounds Bounds) *Controller {
	c := &Controller{
		vp:     geometry.Viewport{X: 0, Y: 0, Zoom: 1},
		bounds: bounds,
	}
	c.clamp()
	return c
}

func (c *Controller) Viewport() geometry.Viewport { return c.vp }

// Pan shifts the view by a screen-space drag delta: dragging content right
// moves the world origin left.
func (c *Controller) Pan(dx, dy float64) {
	c.vp.X -= dx / c.vp.Zoom
	c.vp.Y -= dy / c.vp.Zoom
	c.clamp()
}

// Zoom scales by factor anchored at the screen point (fx, fy). The factor is
// pre-clamped against the zoom range so the anchor stays exact even at the
// limits.
func (c *Controller) Zoom(factor, fx, fy float64) {
	target := clampf(c.vp.Zoom*factor, c.bounds.MinZoom, c.bounds.MaxZoom)
	if target == c.vp.Zoom {
		return
	}
	c.vp = geometry.ZoomAt(c.vp, target/c.vp.Zoom, fx, fy)
	c.clamp()
}

// TileAt resolves the tile under a screen point via the shared geometry
// transforms.
func (c *Controller) TileAt(sx, sy float64, tileSize int) (tx, ty int) {
	return geometry.ScreenToTile(c.vp, sx, sy, tileSize)
}

func (c *Controller) clamp() {
	c.vp.Zoom = clampf(c.vp.Zoom, c.bounds.MinZoom, c.bounds.MaxZoom)
	c.vp.X = clampf(c.vp.X, c.bounds.MinX, c.bounds.MaxX)
	c.vp.Y = clampf(c.vp.Y, c.bounds.MinY, c.bounds.MaxY)
}

func clampf(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
