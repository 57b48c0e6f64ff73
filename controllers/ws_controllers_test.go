package controllers

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"pixelboard-server/models"
	service "pixelboard-server/services"
	"pixelboard-server/utils"
)

type mockConn struct {
	sent [][]byte
}

func (c *mockConn) WriteMessage(messageType int, data []byte) error {
	c.sent = append(c.sent, data)
	return nil
}

func (c *mockConn) SetWriteDeadline(t time.Time) error { return nil }

func (c *mockConn) Close() error { return nil }

func (c *mockConn) lastEvent(t *testing.T, out interface{}) {
	t.Helper()
	if !assert.NotEmpty(t, c.sent) {
		t.FailNow()
	}
	assert.NoError(t, json.Unmarshal(c.sent[len(c.sent)-1], out))
}

type mockChatRepo struct {
	inserted []models.ChatMessage
	failNext bool
}

func (m *mockChatRepo) InsertMessage(msg models.ChatMessage) (models.ChatMessage, error) {
	if m.failNext {
		return models.ChatMessage{}, errors.New("insert failed")
	}
	msg.ID = utils.GenerateID()
	msg.CreatedAt = time.Now()
	m.inserted = append(m.inserted, msg)
	return msg, nil
}

func (m *mockChatRepo) FindRecentByCanvas(canvasID string, limit int64) ([]models.ChatMessage, error) {
	return m.inserted, nil
}

type mockPresenceRepo struct {
	saved []models.Presence
}

func (m *mockPresenceRepo) SetPresence(ctx context.Context, canvasID string, presence models.Presence) error {
	m.saved = append(m.saved, presence)
	return nil
}

func (m *mockPresenceRepo) GetPresences(ctx context.Context, canvasID string) ([]models.Presence, error) {
	return m.saved, nil
}

func (m *mockPresenceRepo) RemovePresence(ctx context.Context, canvasID, userID string) error {
	return nil
}

type gatewayFixture struct {
	wsc      *WebSocketController
	registry *service.Registry
	locks    *service.LockService
	chat     *mockChatRepo
	presence *mockPresenceRepo
	canvas   models.Canvas
}

func newGatewayFixture() *gatewayFixture {
	f := &gatewayFixture{
		registry: service.NewRegistry(),
		locks:    service.NewLockService(service.DefaultLockTTL),
		chat:     &mockChatRepo{},
		presence: &mockPresenceRepo{},
		canvas: models.Canvas{
			ID:                "canvas1",
			Title:             "mural",
			Width:             256,
			Height:            256,
			TileSize:          32,
			CollaborationMode: "open",
		},
	}
	f.wsc = NewWebSocketController(f.registry, f.locks, nil, f.chat, f.presence, utils.NewPublicKeyStore())
	return f
}

// join registers a connection directly with the registry and returns the
// session handleFrame expects.
func (f *gatewayFixture) join(userID string) (*session, *mockConn) {
	conn := &mockConn{}
	user := models.Participant{ID: userID, Username: "user-" + userID}
	f.registry.Connect(f.canvas.ID, user, conn)
	return &session{canvas: f.canvas, user: user, conn: conn}, conn
}

func frame(t *testing.T, v interface{}) []byte {
	t.Helper()
	data, err := json.Marshal(v)
	assert.NoError(t, err)
	return data
}

func TestHandleChatPersistsThenBroadcasts(t *testing.T) {
	f := newGatewayFixture()
	alice, aliceConn := f.join("alice")
	_, bobConn := f.join("bob")

	f.wsc.handleFrame(alice, frame(t, models.ChatFrame{
		Type: models.FrameCanvasChat,
		Text: "hello canvas",
	}))

	assert.Len(t, f.chat.inserted, 1)
	assert.Equal(t, "canvas1", f.chat.inserted[0].CanvasID)

	// Chat goes to everyone, sender included.
	var got models.ChatMessageEvent
	bobConn.lastEvent(t, &got)
	assert.Equal(t, "canvas_chat_message", got.Type)
	assert.Equal(t, "hello canvas", got.MessageText)
	assert.Equal(t, "alice", got.SenderID)
	assert.Len(t, aliceConn.sent, 1)
}

func TestHandleChatFailedInsertDoesNotBroadcast(t *testing.T) {
	f := newGatewayFixture()
	alice, aliceConn := f.join("alice")
	_, bobConn := f.join("bob")
	f.chat.failNext = true

	f.wsc.handleFrame(alice, frame(t, models.ChatFrame{
		Type: models.FrameCanvasChat,
		Text: "lost message",
	}))

	// Peers see nothing; the sender gets the error event only.
	assert.Empty(t, bobConn.sent)
	var got models.ErrorEvent
	aliceConn.lastEvent(t, &got)
	assert.Equal(t, "chat_failed", got.Code)
}

func TestHandlePresenceTyping(t *testing.T) {
	f := newGatewayFixture()
	alice, aliceConn := f.join("alice")
	_, bobConn := f.join("bob")

	f.wsc.handleFrame(alice, frame(t, models.PresenceFrame{
		Type:         models.FrameUserPresence,
		PresenceType: "typing",
		IsTyping:     true,
	}))

	assert.Len(t, f.presence.saved, 1)
	assert.Equal(t, "typing", f.presence.saved[0].Status)

	var got models.UserTypingEvent
	bobConn.lastEvent(t, &got)
	assert.Equal(t, "user_typing", got.Type)
	assert.True(t, got.IsTyping)
	// Presence excludes the sender.
	assert.Empty(t, aliceConn.sent)
}

func TestHandlePresenceEditingOutOfBounds(t *testing.T) {
	f := newGatewayFixture()
	alice, _ := f.join("alice")
	_, bobConn := f.join("bob")

	f.wsc.handleFrame(alice, frame(t, models.PresenceFrame{
		Type:         models.FrameUserPresence,
		PresenceType: "editing_tile",
		TileX:        99,
		TileY:        0,
		IsEditing:    true,
	}))

	assert.Empty(t, f.presence.saved)
	assert.Empty(t, bobConn.sent)
}

func TestHandleTileMention(t *testing.T) {
	f := newGatewayFixture()
	alice, _ := f.join("alice")
	_, bobConn := f.join("bob")

	f.wsc.handleFrame(alice, frame(t, models.TileMentionFrame{
		Type:          models.FrameTileMention,
		TileX:         2,
		TileY:         3,
		HighlightType: "pulse",
		Message:       "look here",
		Duration:      3,
	}))

	var got models.TileMentionEvent
	bobConn.lastEvent(t, &got)
	assert.Equal(t, "tile_mention", got.Type)
	assert.Equal(t, 2, got.TileX)
	assert.Equal(t, "look here", got.Message)
}

func TestHandleLockRequestConflict(t *testing.T) {
	f := newGatewayFixture()
	alice, aliceConn := f.join("alice")
	bob, bobConn := f.join("bob")

	f.wsc.handleFrame(alice, frame(t, models.LockRequestFrame{
		Type:  models.FrameLockRequest,
		TileX: 3,
		TileY: 4,
	}))

	// Acquisition broadcasts to everyone, holder included.
	var acquired models.LockEvent
	bobConn.lastEvent(t, &acquired)
	assert.Equal(t, "tile_lock_acquired", acquired.Type)
	assert.Equal(t, "alice", acquired.HolderID)

	bobSentBefore := len(bobConn.sent)
	aliceSentBefore := len(aliceConn.sent)

	f.wsc.handleFrame(bob, frame(t, models.LockRequestFrame{
		Type:  models.FrameLockRequest,
		TileX: 3,
		TileY: 4,
	}))

	// The conflict reaches the requester only.
	var errEvt models.ErrorEvent
	bobConn.lastEvent(t, &errEvt)
	assert.Equal(t, "already_locked", errEvt.Code)
	assert.Len(t, bobConn.sent, bobSentBefore+1)
	assert.Len(t, aliceConn.sent, aliceSentBefore)

	holder, held := f.locks.Holder(service.TileKey{CanvasID: "canvas1", X: 3, Y: 4})
	assert.True(t, held)
	assert.Equal(t, "alice", holder)
}

func TestHandleLockRequestOutOfBounds(t *testing.T) {
	f := newGatewayFixture()
	alice, aliceConn := f.join("alice")

	f.wsc.handleFrame(alice, frame(t, models.LockRequestFrame{
		Type:  models.FrameLockRequest,
		TileX: -1,
		TileY: 0,
	}))

	var got models.ErrorEvent
	aliceConn.lastEvent(t, &got)
	assert.Equal(t, "invalid_tile", got.Code)
}

func TestHandleLockReleaseByNonHolder(t *testing.T) {
	f := newGatewayFixture()
	alice, _ := f.join("alice")
	bob, bobConn := f.join("bob")

	f.wsc.handleFrame(alice, frame(t, models.LockRequestFrame{
		Type:  models.FrameLockRequest,
		TileX: 1,
		TileY: 1,
	}))

	f.wsc.handleFrame(bob, frame(t, models.LockReleaseFrame{
		Type:  models.FrameLockRelease,
		TileX: 1,
		TileY: 1,
	}))

	var got models.ErrorEvent
	bobConn.lastEvent(t, &got)
	assert.Equal(t, "not_holder", got.Code)

	holder, held := f.locks.Holder(service.TileKey{CanvasID: "canvas1", X: 1, Y: 1})
	assert.True(t, held)
	assert.Equal(t, "alice", holder)
}

func TestHandleLockReleaseBroadcasts(t *testing.T) {
	f := newGatewayFixture()
	alice, _ := f.join("alice")
	_, bobConn := f.join("bob")

	f.wsc.handleFrame(alice, frame(t, models.LockRequestFrame{
		Type:  models.FrameLockRequest,
		TileX: 1,
		TileY: 1,
	}))
	f.wsc.handleFrame(alice, frame(t, models.LockReleaseFrame{
		Type:  models.FrameLockRelease,
		TileX: 1,
		TileY: 1,
	}))

	var got models.LockEvent
	bobConn.lastEvent(t, &got)
	assert.Equal(t, "tile_lock_released", got.Type)

	_, held := f.locks.Holder(service.TileKey{CanvasID: "canvas1", X: 1, Y: 1})
	assert.False(t, held)
}

func TestMalformedFramesAreIgnored(t *testing.T) {
	f := newGatewayFixture()
	alice, aliceConn := f.join("alice")
	_, bobConn := f.join("bob")

	f.wsc.handleFrame(alice, []byte("{not json"))
	f.wsc.handleFrame(alice, frame(t, models.FrameEnvelope{Type: "no_such_frame"}))

	// The connection stays registered and nothing reached any peer.
	assert.Empty(t, aliceConn.sent)
	assert.Empty(t, bobConn.sent)
	assert.Len(t, f.registry.ActiveUsers("canvas1"), 2)
}
