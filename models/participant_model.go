package models

import "time"

// Participant is the display metadata carried by a live connection.
type Participant struct {
	ID             string `json:"id"`
	Username       string `json:"username"`
	ProfilePicture string `json:"profilePicture"`
	Color          string `json:"color"`
}

// Presence is the last reported activity of a user on a canvas. Unlike the
// connection itself it is persisted (in Redis) so the roster UI can show what
// a user was doing across a transient reconnect.
type Presence struct {
	UserID    string    `json:"user_id"`
	CanvasID  string    `json:"canvas_id"`
	Status    string    `json:"status"`
	TileX     int       `json:"tile_x"`
	TileY     int       `json:"tile_y"`
	IsEditing bool      `json:"is_editing"`
	UpdatedAt time.Time `json:"updated_at"`
}
