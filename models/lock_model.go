package models

import "time"

// TileLock is a time-bounded exclusive editing lease on one tile. It is
// advisory: the persisted write path re-checks the holder independently.
type TileLock struct {
	CanvasID   string    `json:"canvas_id"`
	TileX      int       `json:"tile_x"`
	TileY      int       `json:"tile_y"`
	HolderID   string    `json:"holder_id"`
	AcquiredAt time.Time `json:"acquired_at"`
	ExpiresAt  time.Time `json:"expires_at"`
}

// Expired reports whether the lease is past its TTL at the given instant.
// An expired lease is treated as absent everywhere, even before a sweep runs.
func (l TileLock) Expired(now time.Time) bool {
	return !l.ExpiresAt.After(now)
}
