package service

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"pixelboard-server/models"

	"github.com/gofiber/websocket/v2"
)

// WSConn is the transport handle the registry holds for each connection.
// *websocket.Conn satisfies it; tests use in-memory fakes.
type WSConn interface {
	WriteMessage(messageType int, data []byte) error
	SetWriteDeadline(t time.Time) error
	Close() error
}

// writeWait bounds each fan-out write. Broadcast holds the room mutex across
// the loop, so without a deadline one slow-but-open consumer would stall
// delivery to every other peer and block the roster.
const writeWait = 10 * time.Second

type member struct {
	user     models.Participant
	conn     WSConn
	joinedAt time.Time
}

type room struct {
	mu      sync.Mutex
	members map[string]*member // keyed by user id
}

// Registry is the per-canvas roster of live connections. Mutation is
// serialized per canvas, not behind one global lock, so traffic on one canvas
// never contends with another.
type Registry struct {
	mu    sync.RWMutex
	rooms map[string]*room
}

func NewRegistry() *Registry {
	return &Registry{
		rooms: make(map[string]*room),
	}
}

func (r *Registry) room(canvasID string, create bool) *room {
	r.mu.RLock()
	rm := r.rooms[canvasID]
	r.mu.RUnlock()
	if rm != nil || !create {
		return rm
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if rm = r.rooms[canvasID]; rm == nil {
		rm = &room{members: make(map[string]*member)}
		r.rooms[canvasID] = rm
	}
	return rm
}

// Connect registers the connection and returns a roster snapshot including
// the new entry. Reconnects replace: an existing connection for the same user
// is closed and overwritten, so there is never more than one per (user,
// canvas).
func (r *Registry) Connect(canvasID string, user models.Participant, conn WSConn) []models.Participant {
	rm := r.room(canvasID, true)

	rm.mu.Lock()
	defer rm.mu.Unlock()

	if old, ok := rm.members[user.ID]; ok && old.conn != conn {
		_ = old.conn.Close()
	}
	rm.members[user.ID] = &member{user: user, conn: conn, joinedAt: time.Now()}
	return rm.snapshot()
}

// Disconnect removes the user's entry and reports whether it was removed and
// whether any connections remain on the canvas. When conn is non-nil the
// entry is only removed if it still holds that exact connection, so a stale
// reader loop cannot evict the connection that replaced it.
func (r *Registry) Disconnect(canvasID, userID string, conn WSConn) (removed, remaining bool) {
	rm := r.room(canvasID, false)
	if rm == nil {
		return false, false
	}

	rm.mu.Lock()
	defer rm.mu.Unlock()

	m, ok := rm.members[userID]
	if !ok {
		return false, len(rm.members) > 0
	}
	if conn != nil && m.conn != conn {
		return false, true
	}
	delete(rm.members, userID)
	return true, len(rm.members) > 0
}

// Broadcast fans the payload out to every connection on the canvas except
// excludeUserID. Delivery is best effort: a failed write is logged, the dead
// connection is pruned, and the remaining peers still get the message.
func (r *Registry) Broadcast(canvasID string, payload interface{}, excludeUserID string) {
	rm := r.room(canvasID, false)
	if rm == nil {
		return
	}

	data, err := json.Marshal(payload)
	if err != nil {
		log.Println("Broadcast marshal error:", err)
		return
	}

	rm.mu.Lock()
	defer rm.mu.Unlock()

	for id, m := range rm.members {
		if id == excludeUserID {
			continue
		}
		_ = m.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := m.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			log.Printf("Broadcast write error for user %s on canvas %s: %v", id, canvasID, err)
			_ = m.conn.Close()
			delete(rm.members, id)
		}
	}
}

// SendTo delivers to a single user. Unlike Broadcast the failure is returned
// to the caller; the connection is still pruned.
func (r *Registry) SendTo(canvasID, userID string, payload interface{}) error {
	rm := r.room(canvasID, false)
	if rm == nil {
		return ErrNotConnected
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	rm.mu.Lock()
	defer rm.mu.Unlock()

	m, ok := rm.members[userID]
	if !ok {
		return ErrNotConnected
	}
	_ = m.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := m.conn.WriteMessage(websocket.TextMessage, data); err != nil {
		_ = m.conn.Close()
		delete(rm.members, userID)
		return err
	}
	return nil
}

// ActiveUsers returns a point-in-time roster snapshot.
func (r *Registry) ActiveUsers(canvasID string) []models.Participant {
	rm := r.room(canvasID, false)
	if rm == nil {
		return []models.Participant{}
	}

	rm.mu.Lock()
	defer rm.mu.Unlock()
	return rm.snapshot()
}

// snapshot copies the roster; callers must hold the room lock.
func (rm *room) snapshot() []models.Participant {
	users := make([]models.Participant, 0, len(rm.members))
	for _, m := range rm.members {
		users = append(users, m.user)
	}
	return users
}
