// Package input classifies raw pointer events into pans, clicks and hovers
// and drives the viewport controller. Tile resolution always goes through
// the viewport's shared transforms.
package input

import (
	"time"

	"pixelboard-server/client/viewport"
)

// ClickThreshold is the total pointer displacement, in screen pixels, under
// which a press-release pair counts as a click rather than a drag.
const ClickThreshold = 4.0

// HoverInterval rate-limits hover resolution; raw move events inside the
// interval are dropped.
const HoverInterval = 50 * time.Millisecond

// WheelZoomStep is the zoom factor applied per wheel notch.
const WheelZoomStep = 1.1

type Controller struct {
	view     *viewport.Controller
	tileSize int

	// Click resolves a tile selection; callers typically turn it into a
	// lock-acquire request. Hover fires for the cell under the pointer.
	OnTileClick func(tx, ty int)
	OnHover     func(tx, ty int)
	// OnViewChanged fires after any pan or zoom, so the caller can schedule
	// a re-render.
	OnViewChanged func()

	now func() time.Time

	dragging  bool
	lastX     float64
	lastY     float64
	travelled float64
	lastHover time.Time
}

func NewController(view *viewport.Controller, tileSize int) *Controller {
	return &Controller{
		view:     view,
		tileSize: tileSize,
		now:      time.Now,
	}
}

func (c *Controller) PointerDown(sx, sy float64) {
	c.dragging = true
	c.lastX = sx
	c.lastY = sy
	c.travelled = 0
}

// PointerMove pans while a drag is open and accumulates displacement for the
// click-vs-drag decision. Outside a drag it only feeds hover.
func (c *Controller) PointerMove(sx, sy float64) {
	if !c.dragging {
		c.hover(sx, sy)
		return
	}

	dx := sx - c.lastX
	dy := sy - c.lastY
	c.lastX = sx
	c.lastY = sy
	c.travelled += abs(dx) + abs(dy)

	c.view.Pan(dx, dy)
	c.viewChanged()
}

// PointerUp closes the drag candidate. A release that never travelled past
// the threshold is a click; anything else was a pan and selects nothing.
func (c *Controller) PointerUp(sx, sy float64) {
	if !c.dragging {
		return
	}
	c.dragging = false

	if c.travelled >= ClickThreshold {
		return
	}
	if c.OnTileClick != nil {
		tx, ty := c.view.TileAt(sx, sy, c.tileSize)
		c.OnTileClick(tx, ty)
	}
}

// Wheel zooms anchored at the pointer. Positive notches zoom in.
func (c *Controller) Wheel(notches int, sx, sy float64) {
	if notches == 0 {
		return
	}
	factor := 1.0
	if notches > 0 {
		for i := 0; i < notches; i++ {
			factor *= WheelZoomStep
		}
	} else {
		for i := 0; i < -notches; i++ {
			factor /= WheelZoomStep
		}
	}
	c.view.Zoom(factor, sx, sy)
	c.viewChanged()
}

func (c *Controller) hover(sx, sy float64) {
	if c.OnHover == nil {
		return
	}
	now := c.now()
	if now.Sub(c.lastHover) < HoverInterval {
		return
	}
	c.lastHover = now
	tx, ty := c.view.TileAt(sx, sy, c.tileSize)
	c.OnHover(tx, ty)
}

func (c *Controller) viewChanged() {
	if c.OnViewChanged != nil {
		c.OnViewChanged()
	}
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
