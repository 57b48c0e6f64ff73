package controllers

import (
	"encoding/json"
	"log"
	"time"

	"pixelboard-server/configs"
	"pixelboard-server/models"
	"pixelboard-server/repository"
	service "pixelboard-server/services"
	"pixelboard-server/utils"

	fasthttpws "github.com/fasthttp/websocket"
	"github.com/gofiber/websocket/v2"
)

// Close codes used when a connect-time check fails. Anything after a
// successful join never closes the connection for a single bad frame.
const (
	CloseAuthFailed      = 4401
	CloseCanvasForbidden = 4403
	CloseCanvasNotFound  = 4404
)

type WebSocketController struct {
	registry     *service.Registry
	locks        *service.LockService
	canvasRepo   repository.CanvasRepositoryInterface
	chatRepo     repository.ChatRepositoryInterface
	presenceRepo repository.PresenceRepositoryInterface
	keyStore     *utils.PublicKeyStore
}

func NewWebSocketController(
	registry *service.Registry,
	locks *service.LockService,
	canvasRepo repository.CanvasRepositoryInterface,
	chatRepo repository.ChatRepositoryInterface,
	presenceRepo repository.PresenceRepositoryInterface,
	keyStore *utils.PublicKeyStore,
) *WebSocketController {
	return &WebSocketController{
		registry:     registry,
		locks:        locks,
		canvasRepo:   canvasRepo,
		chatRepo:     chatRepo,
		presenceRepo: presenceRepo,
		keyStore:     keyStore,
	}
}

// session is the per-connection state once the handshake succeeded.
type session struct {
	canvas models.Canvas
	user   models.Participant
	conn   service.WSConn
}

func closeWithReason(c *websocket.Conn, code int, reason string) {
	msg := fasthttpws.FormatCloseMessage(code, reason)
	_ = c.WriteMessage(websocket.CloseMessage, msg)
	_ = c.Close()
}

// HandleWebSocket drives one connection through its lifecycle:
// CONNECTING -> AUTHENTICATED -> JOINED -> CLOSED. Connect-time failures end
// the connection with a defined close reason; once joined, malformed frames
// are logged and ignored and errors stay local to this connection.
func (wsc *WebSocketController) HandleWebSocket(c *websocket.Conn) {
	// CONNECTING -> AUTHENTICATED
	claims, err := utils.ParseJWT(wsc.keyStore, c.Query("token"))
	if err != nil {
		log.Println("WebSocket auth failed:", err)
		closeWithReason(c, CloseAuthFailed, "authentication failed")
		return
	}

	canvasID := c.Params("canvasId")
	canvas, err := wsc.canvasRepo.FindCanvasByID(canvasID)
	if err != nil {
		closeWithReason(c, CloseCanvasNotFound, "canvas not found")
		return
	}
	if canvas.CollaborationMode == "private" {
		closeWithReason(c, CloseCanvasForbidden, "canvas does not accept realtime collaboration")
		return
	}

	user := models.Participant{
		ID:             claims.UserID,
		Username:       claims.Username,
		ProfilePicture: c.Query("profilePicture"),
		Color:          c.Query("color"),
	}
	sess := &session{canvas: canvas, user: user, conn: c}

	// AUTHENTICATED -> JOINED
	roster := wsc.registry.Connect(canvasID, user, c)
	joined := models.UserJoinedEvent{
		Type:        "user_joined",
		UserID:      user.ID,
		Username:    user.Username,
		ActiveUsers: roster,
		Timestamp:   time.Now(),
	}
	_ = wsc.registry.SendTo(canvasID, user.ID, joined)
	wsc.registry.Broadcast(canvasID, joined, user.ID)

	defer func() {
		// JOINED -> CLOSED. The registry entry goes away; any tile lease the
		// user holds does not. It runs to TTL or forced release so a
		// transient drop does not discard edit intent.
		removed, _ := wsc.registry.Disconnect(canvasID, user.ID, c)
		if removed {
			wsc.registry.Broadcast(canvasID, models.UserJoinedEvent{
				Type:        "user_left",
				UserID:      user.ID,
				Username:    user.Username,
				ActiveUsers: wsc.registry.ActiveUsers(canvasID),
				Timestamp:   time.Now(),
			}, user.ID)
		}
		c.Close()
	}()

	for {
		_, msg, err := c.ReadMessage()
		if err != nil {
			return
		}
		wsc.handleFrame(sess, msg)
	}
}

// handleFrame dispatches one inbound frame. Every state-mutating kind commits
// its mutation before broadcasting the canonical result; a bad frame is
// logged and dropped without touching the connection or its peers.
func (wsc *WebSocketController) handleFrame(sess *session, msg []byte) {
	var envelope models.FrameEnvelope
	if err := json.Unmarshal(msg, &envelope); err != nil {
		log.Println("Malformed frame:", err)
		return
	}

	switch envelope.Type {
	case models.FrameCanvasChat:
		wsc.handleChat(sess, msg)
	case models.FrameUserPresence:
		wsc.handlePresence(sess, msg)
	case models.FrameTileMention:
		wsc.handleTileMention(sess, msg)
	case models.FrameLockRequest:
		wsc.handleLockRequest(sess, msg)
	case models.FrameLockRelease:
		wsc.handleLockRelease(sess, msg)
	default:
		log.Println("Unknown frame type:", envelope.Type)
	}
}

func (wsc *WebSocketController) handleChat(sess *session, msg []byte) {
	var frame models.ChatFrame
	if err := json.Unmarshal(msg, &frame); err != nil {
		log.Println("Malformed canvas_chat frame:", err)
		return
	}
	if frame.Text == "" {
		return
	}

	saved, err := wsc.chatRepo.InsertMessage(models.ChatMessage{
		CanvasID:       sess.canvas.ID,
		SenderID:       sess.user.ID,
		SenderUsername: sess.user.Username,
		Text:           frame.Text,
	})
	if err != nil {
		log.Println("Failed to persist chat message:", err)
		wsc.sendError(sess, "chat_failed", "message could not be saved")
		return
	}

	wsc.registry.Broadcast(sess.canvas.ID, models.ChatMessageEvent{
		Type:           "canvas_chat_message",
		MessageID:      saved.ID,
		SenderID:       saved.SenderID,
		SenderUsername: saved.SenderUsername,
		MessageText:    saved.Text,
		CreatedAt:      saved.CreatedAt,
	}, "")
}

func (wsc *WebSocketController) handlePresence(sess *session, msg []byte) {
	var frame models.PresenceFrame
	if err := json.Unmarshal(msg, &frame); err != nil {
		log.Println("Malformed user_presence frame:", err)
		return
	}

	switch frame.PresenceType {
	case "typing":
		presence := models.Presence{
			UserID:    sess.user.ID,
			CanvasID:  sess.canvas.ID,
			Status:    "typing",
			UpdatedAt: time.Now(),
		}
		if err := wsc.presenceRepo.SetPresence(configs.Ctx, sess.canvas.ID, presence); err != nil {
			log.Println("Failed to persist presence:", err)
			return
		}
		wsc.registry.Broadcast(sess.canvas.ID, models.UserTypingEvent{
			Type:     "user_typing",
			UserID:   sess.user.ID,
			Username: sess.user.Username,
			IsTyping: frame.IsTyping,
		}, sess.user.ID)

	case "editing_tile":
		if !sess.canvas.ContainsTile(frame.TileX, frame.TileY) {
			log.Printf("Presence tile out of bounds: (%d,%d)", frame.TileX, frame.TileY)
			return
		}
		presence := models.Presence{
			UserID:    sess.user.ID,
			CanvasID:  sess.canvas.ID,
			Status:    "editing_tile",
			TileX:     frame.TileX,
			TileY:     frame.TileY,
			IsEditing: frame.IsEditing,
			UpdatedAt: time.Now(),
		}
		if err := wsc.presenceRepo.SetPresence(configs.Ctx, sess.canvas.ID, presence); err != nil {
			log.Println("Failed to persist presence:", err)
			return
		}
		wsc.registry.Broadcast(sess.canvas.ID, models.PresenceUpdateEvent{
			Type:      "user_presence_update",
			UserID:    presence.UserID,
			CanvasID:  presence.CanvasID,
			Status:    presence.Status,
			TileX:     presence.TileX,
			TileY:     presence.TileY,
			IsEditing: presence.IsEditing,
			Timestamp: presence.UpdatedAt,
		}, sess.user.ID)

	default:
		log.Println("Unknown presence_type:", frame.PresenceType)
	}
}

func (wsc *WebSocketController) handleTileMention(sess *session, msg []byte) {
	var frame models.TileMentionFrame
	if err := json.Unmarshal(msg, &frame); err != nil {
		log.Println("Malformed tile_mention frame:", err)
		return
	}
	if !sess.canvas.ContainsTile(frame.TileX, frame.TileY) {
		log.Printf("Mentioned tile out of bounds: (%d,%d)", frame.TileX, frame.TileY)
		return
	}

	wsc.registry.Broadcast(sess.canvas.ID, models.TileMentionEvent{
		Type:          "tile_mention",
		UserID:        sess.user.ID,
		Username:      sess.user.Username,
		TileX:         frame.TileX,
		TileY:         frame.TileY,
		HighlightType: frame.HighlightType,
		Message:       frame.Message,
		Duration:      frame.Duration,
		Timestamp:     time.Now(),
	}, sess.user.ID)
}

func (wsc *WebSocketController) handleLockRequest(sess *session, msg []byte) {
	var frame models.LockRequestFrame
	if err := json.Unmarshal(msg, &frame); err != nil {
		log.Println("Malformed lock_request frame:", err)
		return
	}
	if !sess.canvas.ContainsTile(frame.TileX, frame.TileY) {
		wsc.sendError(sess, "invalid_tile", "tile coordinate is outside the canvas")
		return
	}

	key := service.TileKey{CanvasID: sess.canvas.ID, X: frame.TileX, Y: frame.TileY}
	lock, err := wsc.locks.Acquire(key, sess.user.ID, time.Duration(frame.TTLSeconds)*time.Second)
	if err != nil {
		// Conflict goes to the requester only, never to peers.
		wsc.sendError(sess, "already_locked", "tile is being edited by another user")
		return
	}

	wsc.registry.Broadcast(sess.canvas.ID, models.LockEvent{
		Type:      "tile_lock_acquired",
		CanvasID:  lock.CanvasID,
		TileX:     lock.TileX,
		TileY:     lock.TileY,
		HolderID:  lock.HolderID,
		ExpiresAt: lock.ExpiresAt,
	}, "")
}

func (wsc *WebSocketController) handleLockRelease(sess *session, msg []byte) {
	var frame models.LockReleaseFrame
	if err := json.Unmarshal(msg, &frame); err != nil {
		log.Println("Malformed lock_release frame:", err)
		return
	}

	key := service.TileKey{CanvasID: sess.canvas.ID, X: frame.TileX, Y: frame.TileY}
	if err := wsc.locks.Release(key, sess.user.ID); err != nil {
		wsc.sendError(sess, "not_holder", "lock is held by another user")
		return
	}

	wsc.registry.Broadcast(sess.canvas.ID, models.LockEvent{
		Type:     "tile_lock_released",
		CanvasID: sess.canvas.ID,
		TileX:    frame.TileX,
		TileY:    frame.TileY,
		HolderID: sess.user.ID,
	}, "")
}

func (wsc *WebSocketController) sendError(sess *session, code, message string) {
	err := wsc.registry.SendTo(sess.canvas.ID, sess.user.ID, models.ErrorEvent{
		Type:    "error",
		Code:    code,
		Message: message,
	})
	if err != nil {
		log.Println("Failed to deliver error event:", err)
	}
}
