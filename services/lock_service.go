package service

import (
	"errors"
	"sync"
	"time"

	"pixelboard-server/models"
)

var (
	ErrAlreadyLocked = errors.New("tile is already locked by another user")
	ErrNotHolder     = errors.New("lock is not held by this user")
	ErrNotConnected  = errors.New("user is not connected to this canvas")
)

// TileKey identifies one tile of one canvas.
type TileKey struct {
	CanvasID string
	X        int
	Y        int
}

type lockEntry struct {
	mu         sync.Mutex
	holderID   string
	acquiredAt time.Time
	expiresAt  time.Time
	// deleted marks an entry the sweeper removed from the map. A caller that
	// fetched the pointer before the removal must not use it: populating it
	// would grant a lease no later lookup can see.
	deleted bool
}

func (e *lockEntry) heldAt(now time.Time) bool {
	return e.holderID != "" && e.expiresAt.After(now)
}

// LockService hands out per-tile TTL leases. The entry map is guarded by an
// RWMutex for lookup/insert only; acquire/release serialize on the entry's
// own mutex, so contention is bounded per tile. An expired lease is treated
// as absent by every operation, whether or not the sweeper has run yet.
//
// Leases deliberately survive a holder's disconnect: a transient network drop
// should not discard edit intent. They end by release, TTL expiry, or forced
// release only.
type LockService struct {
	mu      sync.RWMutex
	entries map[TileKey]*lockEntry

	defaultTTL time.Duration
	now        func() time.Time

	notifyMu  sync.RWMutex
	onRelease func(models.TileLock)
}

const DefaultLockTTL = 60 * time.Second

func NewLockService(defaultTTL time.Duration) *LockService {
	if defaultTTL <= 0 {
		defaultTTL = DefaultLockTTL
	}
	return &LockService{
		entries:    make(map[TileKey]*lockEntry),
		defaultTTL: defaultTTL,
		now:        time.Now,
	}
}

// OnRelease registers the callback invoked whenever a lease ends without its
// holder asking (sweep expiry or forced release), so UIs unblock without
// polling.
func (s *LockService) OnRelease(fn func(models.TileLock)) {
	s.notifyMu.Lock()
	s.onRelease = fn
	s.notifyMu.Unlock()
}

func (s *LockService) notifyRelease(lock models.TileLock) {
	s.notifyMu.RLock()
	fn := s.onRelease
	s.notifyMu.RUnlock()
	if fn != nil {
		fn(lock)
	}
}

func (s *LockService) entry(key TileKey, create bool) *lockEntry {
	s.mu.RLock()
	e := s.entries[key]
	s.mu.RUnlock()
	if e != nil || !create {
		return e
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if e = s.entries[key]; e == nil {
		e = &lockEntry{}
		s.entries[key] = e
	}
	return e
}

// lockedEntry returns the entry for key with its mutex held, retrying when
// the sweeper deleted the entry between the map lookup and the lock.
func (s *LockService) lockedEntry(key TileKey, create bool) *lockEntry {
	for {
		e := s.entry(key, create)
		if e == nil {
			return nil
		}
		e.mu.Lock()
		if !e.deleted {
			return e
		}
		e.mu.Unlock()
	}
}

func (s *LockService) lockFromEntry(key TileKey, e *lockEntry) models.TileLock {
	return models.TileLock{
		CanvasID:   key.CanvasID,
		TileX:      key.X,
		TileY:      key.Y,
		HolderID:   e.holderID,
		AcquiredAt: e.acquiredAt,
		ExpiresAt:  e.expiresAt,
	}
}

// Acquire takes or refreshes the lease. A live lease held by someone else
// fails with ErrAlreadyLocked; the same holder re-acquiring before expiry
// just gets a fresh TTL (the original acquired_at is kept). A lease may only
// change holder after release, expiry, or ForceRelease, never by stealing.
func (s *LockService) Acquire(key TileKey, holderID string, ttl time.Duration) (models.TileLock, error) {
	if ttl <= 0 {
		ttl = s.defaultTTL
	}
	e := s.lockedEntry(key, true)
	defer e.mu.Unlock()

	now := s.now()
	if e.heldAt(now) && e.holderID != holderID {
		return models.TileLock{}, ErrAlreadyLocked
	}

	if !e.heldAt(now) || e.holderID != holderID {
		e.holderID = holderID
		e.acquiredAt = now
	}
	e.expiresAt = now.Add(ttl)
	return s.lockFromEntry(key, e), nil
}

// Release drops the caller's lease. Releasing a lease that already expired
// (or never existed) is a no-op success; a live lease held by someone else
// fails with ErrNotHolder and is left untouched.
func (s *LockService) Release(key TileKey, holderID string) error {
	e := s.lockedEntry(key, false)
	if e == nil {
		return nil
	}
	defer e.mu.Unlock()

	now := s.now()
	if !e.heldAt(now) {
		e.holderID = ""
		return nil
	}
	if e.holderID != holderID {
		return ErrNotHolder
	}
	e.holderID = ""
	return nil
}

// ForceRelease unconditionally clears any lease on the tile. Privileged
// escape hatch; emits a release notification when a live lease was cleared.
func (s *LockService) ForceRelease(key TileKey) {
	e := s.lockedEntry(key, false)
	if e == nil {
		return
	}

	wasHeld := e.heldAt(s.now())
	lock := s.lockFromEntry(key, e)
	e.holderID = ""
	e.mu.Unlock()

	if wasHeld {
		s.notifyRelease(lock)
	}
}

// Holder reports the live holder of the tile, applying lazy expiry.
func (s *LockService) Holder(key TileKey) (string, bool) {
	e := s.lockedEntry(key, false)
	if e == nil {
		return "", false
	}
	defer e.mu.Unlock()
	if !e.heldAt(s.now()) {
		return "", false
	}
	return e.holderID, true
}

// LocksForCanvas snapshots the live leases on one canvas for the status API.
func (s *LockService) LocksForCanvas(canvasID string) []models.TileLock {
	s.mu.RLock()
	keys := make([]TileKey, 0, len(s.entries))
	for key := range s.entries {
		if key.CanvasID == canvasID {
			keys = append(keys, key)
		}
	}
	s.mu.RUnlock()

	locks := make([]models.TileLock, 0, len(keys))
	now := s.now()
	for _, key := range keys {
		e := s.lockedEntry(key, false)
		if e == nil {
			continue
		}
		if e.heldAt(now) {
			locks = append(locks, s.lockFromEntry(key, e))
		}
		e.mu.Unlock()
	}
	return locks
}

// SweepExpired clears every lease past its TTL, emits a release notification
// for each, and drops empty entries so the map does not grow without bound.
// Racing a concurrent Release is harmless: clearing an absent lease is a
// no-op.
func (s *LockService) SweepExpired() int {
	s.mu.RLock()
	keys := make([]TileKey, 0, len(s.entries))
	for key := range s.entries {
		keys = append(keys, key)
	}
	s.mu.RUnlock()

	swept := 0
	var empty []TileKey
	for _, key := range keys {
		e := s.lockedEntry(key, false)
		if e == nil {
			continue
		}

		now := s.now()
		if e.holderID != "" && !e.expiresAt.After(now) {
			lock := s.lockFromEntry(key, e)
			e.holderID = ""
			e.mu.Unlock()
			s.notifyRelease(lock)
			swept++
			continue
		}
		if e.holderID == "" {
			empty = append(empty, key)
		}
		e.mu.Unlock()
	}

	if len(empty) > 0 {
		s.mu.Lock()
		for _, key := range empty {
			if e := s.entries[key]; e != nil {
				e.mu.Lock()
				if e.holderID == "" {
					// Tombstone before removal so an Acquire that already
					// fetched this pointer retries against the map instead of
					// populating an unreachable entry.
					e.deleted = true
					delete(s.entries, key)
				}
				e.mu.Unlock()
			}
		}
		s.mu.Unlock()
	}
	return swept
}

// StartSweeper runs SweepExpired on the given interval until the returned
// stop function is called.
func (s *LockService) StartSweeper(interval time.Duration) func() {
	ticker := time.NewTicker(interval)
	done := make(chan struct{})
	go func() {
		for {
			select {
			case <-ticker.C:
				s.SweepExpired()
			case <-done:
				return
			}
		}
	}()
	return func() {
		ticker.Stop()
		close(done)
	}
}
