package render

import "sync"

// Scheduler coalesces render requests onto the frame loop. Any number of
// Request calls between two frames produce exactly one build; nothing draws
// synchronously from an input or network event.
type Scheduler struct {
	mu      sync.Mutex
	pending bool
	frames  uint64
}

func NewScheduler() *Scheduler {
	return &Scheduler{}
}

// Request marks the next frame dirty.
func (s *Scheduler) Request() {
	s.mu.Lock()
	s.pending = true
	s.mu.Unlock()
}

// Tick is called once per display frame. It runs build only when a request
// is pending, clearing the flag first so a Request made during the build
// schedules the following frame.
func (s *Scheduler) Tick(build func()) bool {
	s.mu.Lock()
	if !s.pending {
		s.mu.Unlock()
		return false
	}
	s.pending = false
	s.frames++
	s.mu.Unlock()

	build()
	return true
}

// Frames reports how many builds have run.
func (s *Scheduler) Frames() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.frames
}
