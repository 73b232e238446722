// Package state holds the bridge's single source of truth for the
// last-known radio state, with change notification for push streams.
package state

import (
	"sync"
	"time"
)

// Change is one field-level state transition, delivered to
// subscribers in the order the store applied it.
type Change struct {
	Prop  string      `json:"prop"`
	Value interface{} `json:"value"`
}

// Snapshot is a point-in-time copy of the radio state. Timestamp is
// the unix-millisecond mark of the most recent changed field, zero
// until anything has been received.
type Snapshot struct {
	Connected bool   `json:"connected"`
	Frequency int64  `json:"freq"`
	Mode      string `json:"mode"`
	Width     int    `json:"width"`
	PTT       bool   `json:"ptt"`
	Timestamp int64  `json:"timestamp"`
}

// Store is the shared radio state. A field changes only when the new
// value differs from the stored one; every applied change fans out to
// all subscribers. Safe for concurrent use.
type Store struct {
	mu     sync.RWMutex
	snap   Snapshot
	subs   map[int]chan Change
	nextID int
}

func NewStore() *Store {
	return &Store{subs: make(map[int]chan Change)}
}

// Snapshot returns a copy of the current state.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap
}

// Subscribe registers a change listener. The returned cancel func
// must be called when the consumer goes away; afterwards the channel
// is closed. Slow consumers lose changes rather than blocking the
// decode path.
func (s *Store) Subscribe() (<-chan Change, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextID
	s.nextID++
	ch := make(chan Change, 16)
	s.subs[id] = ch

	cancel := func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if sub, ok := s.subs[id]; ok {
			delete(s.subs, id)
			close(sub)
		}
	}
	return ch, cancel
}

// notify must be called with the write lock held.
func (s *Store) notify(prop string, value interface{}) {
	s.snap.Timestamp = time.Now().UnixMilli()
	for _, ch := range s.subs {
		select {
		case ch <- Change{Prop: prop, Value: value}:
		default:
		}
	}
}

// SetFrequency applies a decoded frequency. Zero is the vendors'
// "no data yet" marker and never reaches the store.
func (s *Store) SetFrequency(hz int64) {
	if hz <= 0 {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.snap.Frequency == hz {
		return
	}
	s.snap.Frequency = hz
	s.notify("freq", hz)
}

// SetMode applies a decoded mode label and passband width. A width of
// zero leaves the stored width alone.
func (s *Store) SetMode(mode string, width int) {
	if mode == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.snap.Mode != mode {
		s.snap.Mode = mode
		s.notify("mode", mode)
	}
	if width > 0 && s.snap.Width != width {
		s.snap.Width = width
		s.notify("width", width)
	}
}

func (s *Store) SetPTT(on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.snap.PTT == on {
		return
	}
	s.snap.PTT = on
	s.notify("ptt", on)
}

// SetConnected marks transport liveness. Transitions notify
// regardless of the other fields.
func (s *Store) SetConnected(on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.snap.Connected == on {
		return
	}
	s.snap.Connected = on
	s.notify("connected", on)
}
