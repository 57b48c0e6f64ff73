// Package render builds a per-frame display list from the canvas state and
// the current viewport. It never touches a real drawing surface; the caller
// hands the finished list to whatever backend paints it. Frame cost is
// bounded by hard caps on tiles and grid lines, and a corrupt tile payload
// degrades to a placeholder op instead of aborting the frame.
package render

import (
	"log"
	"sync"

	"pixelboard-server/client/geometry"
	"pixelboard-server/client/visibility"
	"pixelboard-server/models"
)

// Per-frame draw caps. Pathological zoom levels produce a partial draw
// rather than a stall.
const (
	MaxTilesPerFrame     = 2048
	MaxGridLinesPerFrame = 512
)

type OpKind int

const (
	OpTile OpKind = iota
	OpPlaceholder
	OpGridLine
	OpLockIndicator
)

// Op is one draw instruction in screen space.
type Op struct {
	Kind   OpKind
	X, Y   float64
	W, H   float64
	Pixels string // OpTile only
	Holder string // OpLockIndicator only
}

type DisplayList struct {
	Ops []Op
	// Truncated reports that a cap fired and the frame is a partial draw.
	Truncated bool
}

// TileKeyOf identifies a tile cell in the local tile store.
type TileKeyOf struct {
	X, Y int
}

// Engine assembles display lists. Tiles and locks are the client's local
// mirror of server state, fed by the realtime events.
type Engine struct {
	mu      sync.Mutex
	canvas  models.Canvas
	tiles   map[TileKeyOf]models.Tile
	locks   map[TileKeyOf]string
	visible *visibility.Cache
}

func NewEngine(canvas models.Canvas, visible *visibility.Cache) *Engine {
	return &Engine{
		canvas:  canvas,
		tiles:   make(map[TileKeyOf]models.Tile),
		locks:   make(map[TileKeyOf]string),
		visible: visible,
	}
}

// UpsertTile stores a created or updated tile and invalidates the visible
// window cache.
func (e *Engine) UpsertTile(tile models.Tile) {
	e.mu.Lock()
	e.tiles[TileKeyOf{X: tile.X, Y: tile.Y}] = tile
	e.mu.Unlock()
	e.visible.Invalidate()
}

func (e *Engine) RemoveTile(tx, ty int) {
	e.mu.Lock()
	delete(e.tiles, TileKeyOf{X: tx, Y: ty})
	e.mu.Unlock()
	e.visible.Invalidate()
}

// SetLock records (or clears, with holder "") the lock indicator for a cell.
func (e *Engine) SetLock(tx, ty int, holder string) {
	e.mu.Lock()
	key := TileKeyOf{X: tx, Y: ty}
	if holder == "" {
		delete(e.locks, key)
	} else {
		e.locks[key] = holder
	}
	e.mu.Unlock()
}

// Build produces the display list for one frame: visible tiles, grid lines
// over the visible window, then lock indicators on top.
func (e *Engine) Build(v geometry.Viewport) DisplayList {
	w := e.visible.VisibleWindow(v)

	e.mu.Lock()
	defer e.mu.Unlock()

	var list DisplayList
	ts := e.canvas.TileSize

	tilesDrawn := 0
	for ty := w.MinTY; ty <= w.MaxTY; ty++ {
		for tx := w.MinTX; tx <= w.MaxTX; tx++ {
			tile, ok := e.tiles[TileKeyOf{X: tx, Y: ty}]
			if !ok {
				continue
			}
			if tilesDrawn >= MaxTilesPerFrame {
				list.Truncated = true
				break
			}
			sx, sy, sw, sh := geometry.TileScreenRect(v, tx, ty, ts)
			if tile.ValidPayload(ts) {
				list.Ops = append(list.Ops, Op{Kind: OpTile, X: sx, Y: sy, W: sw, H: sh, Pixels: tile.Pixels})
			} else {
				// Corrupt payload: substitute and keep going.
				log.Printf("Render fault at tile (%d,%d): payload length %d", tx, ty, len(tile.Pixels))
				list.Ops = append(list.Ops, Op{Kind: OpPlaceholder, X: sx, Y: sy, W: sw, H: sh})
			}
			tilesDrawn++
		}
	}

	e.appendGrid(&list, v, w)

	for key, holder := range e.locks {
		if !w.Contains(key.X, key.Y) {
			continue
		}
		sx, sy, sw, sh := geometry.TileScreenRect(v, key.X, key.Y, ts)
		list.Ops = append(list.Ops, Op{Kind: OpLockIndicator, X: sx, Y: sy, W: sw, H: sh, Holder: holder})
	}

	return list
}

func (e *Engine) appendGrid(list *DisplayList, v geometry.Viewport, w visibility.Window) {
	ts := e.canvas.TileSize
	lines := 0

	for tx := w.MinTX; tx <= w.MaxTX+1; tx++ {
		if lines >= MaxGridLinesPerFrame {
			list.Truncated = true
			return
		}
		sx, sy := geometry.WorldToScreen(v, float64(tx*ts), float64(w.MinTY*ts))
		h := float64((w.MaxTY-w.MinTY+1)*ts) * v.Zoom
		list.Ops = append(list.Ops, Op{Kind: OpGridLine, X: sx, Y: sy, W: 0, H: h})
		lines++
	}
	for ty := w.MinTY; ty <= w.MaxTY+1; ty++ {
		if lines >= MaxGridLinesPerFrame {
			list.Truncated = true
			return
		}
		sx, sy := geometry.WorldToScreen(v, float64(w.MinTX*ts), float64(ty*ts))
		width := float64((w.MaxTX-w.MinTX+1)*ts) * v.Zoom
		list.Ops = append(list.Ops, Op{Kind: OpGridLine, X: sx, Y: sy, W: width, H: 0})
		lines++
	}
}
