// Package visibility computes which tile cells a viewport can see and
// memoizes the result. Keys are quantized so that sub-pixel pans hit the
// cache; any tile mutation bumps a generation counter that discards every
// cached window at once.
package visibility

import (
	"math"
	"sync"

	"pixelboard-server/client/geometry"
	"pixelboard-server/models"
)

// Quantization steps for the cache key. Pans under a step and zoom wiggles
// under a sixteenth reuse the previous window.
const (
	originStep = 64.0
	zoomStep   = 16.0
)

type Key struct {
	QX, QY int
	QZoom  int
}

// QuantizeViewport buckets with Floor, not truncation: truncation would make
// the bucket around zero twice as wide and fold negative origins in with
// positive ones.
func QuantizeViewport(v geometry.Viewport) Key {
	return Key{
		QX:    int(math.Floor(v.X / originStep)),
		QY:    int(math.Floor(v.Y / originStep)),
		QZoom: int(math.Floor(v.Zoom * zoomStep)),
	}
}

// Window is an inclusive tile-cell range.
type Window struct {
	MinTX, MinTY int
	MaxTX, MaxTY int
}

func (w Window) Contains(tx, ty int) bool {
	return tx >= w.MinTX && tx <= w.MaxTX && ty >= w.MinTY && ty <= w.MaxTY
}

func (w Window) Cells() int {
	return (w.MaxTX - w.MinTX + 1) * (w.MaxTY - w.MinTY + 1)
}

type Cache struct {
	mu         sync.Mutex
	canvas     models.Canvas
	screenW    float64
	screenH    float64
	generation uint64

	key    Key
	window Window
	keyGen uint64
	valid  bool
}

func NewCache(canvas models.Canvas, screenW, screenH float64) *Cache {
	return &Cache{
		canvas:  canvas,
		screenW: screenW,
		screenH: screenH,
	}
}

// Invalidate discards every cached window. Called on any tile add, update or
// remove, since a mutated tile can change what a window must draw.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	c.generation++
	c.mu.Unlock()
}

func (c *Cache) Resize(screenW, screenH float64) {
	c.mu.Lock()
	c.screenW = screenW
	c.screenH = screenH
	c.generation++
	c.mu.Unlock()
}

// VisibleWindow returns the tile cells intersecting the screen rect plus a
// one-tile margin, clamped to the canvas. Two viewports quantizing to the
// same key get the identical cached window.
func (c *Cache) VisibleWindow(v geometry.Viewport) Window {
	key := QuantizeViewport(v)

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.valid && c.key == key && c.keyGen == c.generation {
		return c.window
	}

	w := c.compute(v)
	c.key = key
	c.window = w
	c.keyGen = c.generation
	c.valid = true
	return w
}

func (c *Cache) compute(v geometry.Viewport) Window {
	ts := c.canvas.TileSize

	// The margin must cover the whole quantization bucket: every viewport
	// sharing a key has its origin within originStep of this one, so the
	// window needs that many tiles of slack on each side.
	margin := int(math.Ceil(originStep / float64(ts)))
	if margin < 1 {
		margin = 1
	}

	minTX, minTY := geometry.WorldToTile(v.X, v.Y, ts)
	maxWX, maxWY := geometry.ScreenToWorld(v, c.screenW, c.screenH)
	maxTX, maxTY := geometry.WorldToTile(maxWX, maxWY, ts)

	w := Window{
		MinTX: minTX - margin,
		MinTY: minTY - margin,
		MaxTX: maxTX + margin,
		MaxTY: maxTY + margin,
	}

	// Clamp to the canvas grid.
	if w.MinTX < 0 {
		w.MinTX = 0
	}
	if w.MinTY < 0 {
		w.MinTY = 0
	}
	if last := c.canvas.TilesAcross() - 1; w.MaxTX > last {
		w.MaxTX = last
	}
	if last := c.canvas.TilesDown() - 1; w.MaxTY > last {
		w.MaxTY = last
	}
	return w
}
