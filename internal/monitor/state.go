package monitor

import (
	"sync"
	"time"

	"github.com/starford/clipman/internal/history"
)

// State is the monitor's shared, explicitly owned state: the last observed
// clipboard content and the pause switch. Handlers that write the clipboard
// hold the same *State so their writes are not captured again.
type State struct {
	mu         sync.Mutex
	last       *string
	paused     bool
	observedAt time.Time
}

// NewState returns an unpaused state with no observation yet.
func NewState() *State {
	return &State{}
}

// Observe records content and reports whether it differs from the last
// observation.
func (s *State) Observe(content string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !history.HasChanged(content, s.last) {
		return false
	}
	s.last = &content
	s.observedAt = time.Now()
	return true
}

// Remember marks content as observed without reporting a change. The
// returned func undoes it when the clipboard write it guards fails; it is a
// no-op once a later observation has replaced the remembered value.
func (s *State) Remember(content string) (undo func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	prevLast, prevAt := s.last, s.observedAt
	mine := &content
	s.last = mine
	s.observedAt = time.Now()
	return func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if s.last == mine {
			s.last, s.observedAt = prevLast, prevAt
		}
	}
}

// Pause stops captures until Resume.
func (s *State) Pause() {
	s.mu.Lock()
	s.paused = true
	s.mu.Unlock()
}

// Resume re-enables captures.
func (s *State) Resume() {
	s.mu.Lock()
	s.paused = false
	s.mu.Unlock()
}

// Paused reports whether captures are paused.
func (s *State) Paused() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.paused
}

// Snapshot is a point-in-time copy of State for reporting.
type Snapshot struct {
	Paused     bool      `json:"paused"`
	Observed   bool      `json:"observed"`
	ObservedAt time.Time `json:"observed_at,omitzero"`
}

// Snapshot returns the current state.
func (s *State) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{
		Paused:     s.paused,
		Observed:   s.last != nil,
		ObservedAt: s.observedAt,
	}
}
