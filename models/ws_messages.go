package models

import "time"

// Inbound frames. Every client frame carries a "type" discriminator; the
// gateway peeks at FrameEnvelope first and then decodes the matching struct,
// so adding a frame kind is a checked addition to one switch.

type FrameEnvelope struct {
	Type string `json:"type"`
}

const (
	FrameCanvasChat   = "canvas_chat"
	FrameUserPresence = "user_presence"
	FrameTileMention  = "tile_mention"
	FrameLockRequest  = "lock_request"
	FrameLockRelease  = "lock_release"
)

type ChatFrame struct {
	Type     string `json:"type"`
	Text     string `json:"text"`
	CanvasID string `json:"canvas_id"`
}

type PresenceFrame struct {
	Type         string `json:"type"`
	PresenceType string `json:"presence_type"` // "typing" | "editing_tile"
	IsTyping     bool   `json:"is_typing,omitempty"`
	TileX        int    `json:"tile_x,omitempty"`
	TileY        int    `json:"tile_y,omitempty"`
	IsEditing    bool   `json:"is_editing,omitempty"`
}

type TileMentionFrame struct {
	Type          string `json:"type"`
	TileX         int    `json:"tile_x"`
	TileY         int    `json:"tile_y"`
	HighlightType string `json:"highlight_type"`
	Message       string `json:"message"`
	Duration      int    `json:"duration"`
}

type LockRequestFrame struct {
	Type       string `json:"type"`
	TileX      int    `json:"tile_x"`
	TileY      int    `json:"tile_y"`
	TTLSeconds int    `json:"ttl_seconds,omitempty"`
}

type LockReleaseFrame struct {
	Type  string `json:"type"`
	TileX int    `json:"tile_x"`
	TileY int    `json:"tile_y"`
}

// Outbound events.

type UserJoinedEvent struct {
	Type        string        `json:"type"` // "user_joined" | "user_left"
	UserID      string        `json:"user_id"`
	Username    string        `json:"username"`
	ActiveUsers []Participant `json:"active_users"`
	Timestamp   time.Time     `json:"timestamp"`
}

type ChatMessageEvent struct {
	Type           string    `json:"type"` // "canvas_chat_message"
	MessageID      string    `json:"message_id"`
	SenderID       string    `json:"sender_id"`
	SenderUsername string    `json:"sender_username"`
	MessageText    string    `json:"message_text"`
	CreatedAt      time.Time `json:"created_at"`
}

type UserTypingEvent struct {
	Type     string `json:"type"` // "user_typing"
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	IsTyping bool   `json:"is_typing"`
}

type PresenceUpdateEvent struct {
	Type      string    `json:"type"` // "user_presence_update"
	UserID    string    `json:"user_id"`
	CanvasID  string    `json:"canvas_id"`
	Status    string    `json:"status"`
	TileX     int       `json:"tile_x"`
	TileY     int       `json:"tile_y"`
	IsEditing bool      `json:"is_editing"`
	Timestamp time.Time `json:"timestamp"`
}

type TileMentionEvent struct {
	Type          string    `json:"type"` // "tile_mention"
	UserID        string    `json:"user_id"`
	Username      string    `json:"username"`
	TileX         int       `json:"tile_x"`
	TileY         int       `json:"tile_y"`
	HighlightType string    `json:"highlight_type"`
	Message       string    `json:"message"`
	Duration      int       `json:"duration"`
	Timestamp     time.Time `json:"timestamp"`
}

type TileEvent struct {
	Type      string    `json:"type"` // "tile_created" | "tile_updated" | "tile_liked"
	TileID    string    `json:"tile_id"`
	CanvasID  string    `json:"canvas_id"`
	CreatorID string    `json:"creator_id"`
	X         int       `json:"x"`
	Y         int       `json:"y"`
	LikeCount int       `json:"like_count"`
	Timestamp time.Time `json:"timestamp"`
}

type LockEvent struct {
	Type      string    `json:"type"` // "tile_lock_acquired" | "tile_lock_released"
	CanvasID  string    `json:"canvas_id"`
	TileX     int       `json:"tile_x"`
	TileY     int       `json:"tile_y"`
	HolderID  string    `json:"holder_id"`
	ExpiresAt time.Time `json:"expires_at,omitempty"`
}

// ErrorEvent is sent to the offending connection only, never broadcast.
type ErrorEvent struct {
	Type    string `json:"type"` // "error"
	Code    string `json:"code"`
	Message string `json:"message"`
}
