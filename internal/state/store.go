// Package state holds the session-scoped shared location state: the current
// LocationInfo and a loading flag. The store is the single owner; the
// pipeline's two writer call sites (address detection, enrichment) replace
// the whole record, never patch it, and observers subscribe to replacements.
package state

import (
	"sync"

	"github.com/couchcryptid/city-explorer/internal/domain"
)

// Snapshot is a point-in-time copy of the shared state.
type Snapshot struct {
	Location *domain.LocationInfo `json:"location"`
	Loading  bool                 `json:"loading"`
}

// Store is the single-owner holder of the current location. Overlapping
// detection cycles are serialized by a per-cycle sequence number: a write
// carrying a sequence older than the newest started cycle is rejected, so a
// slow superseded request can never overwrite a newer result.
type Store struct {
	mu       sync.Mutex
	current  *domain.LocationInfo
	loading  bool
	nextSeq  uint64
	watchers map[chan Snapshot]struct{}
}

// New creates an empty store: no location, not loading.
func New() *Store {
	return &Store{
		watchers: make(map[chan Snapshot]struct{}),
	}
}

// BeginCycle marks the start of a detection cycle and returns its sequence
// number. Starting a new cycle supersedes all earlier ones.
func (s *Store) BeginCycle() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextSeq++
	s.loading = true
	s.notifyLocked()
	return s.nextSeq
}

// EndCycle clears the loading flag for a cycle that finished without a state
// replacement (detection failure). A superseded cycle leaves the flag alone.
func (s *Store) EndCycle(seq uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if seq != s.nextSeq {
		return
	}
	if s.loading {
		s.loading = false
		s.notifyLocked()
	}
}

// SetLocation publishes the address-only phase of a cycle: the detected
// address with an empty place list, loading cleared. Returns false for
// superseded cycles.
func (s *Store) SetLocation(seq uint64, address domain.DetectedAddress) bool {
	return s.replace(seq, &domain.LocationInfo{
		Address:      address,
		NearbyPlaces: []domain.PointOfInterest{},
	})
}

// UpdateLocationInfo publishes the fully enriched record of a cycle.
// Returns false for superseded cycles.
func (s *Store) UpdateLocationInfo(seq uint64, info domain.LocationInfo) bool {
	return s.replace(seq, &info)
}

func (s *Store) replace(seq uint64, info *domain.LocationInfo) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if seq != s.nextSeq {
		return false
	}

	s.current = info
	s.loading = false
	s.notifyLocked()
	return true
}

// Snapshot returns the current state. The LocationInfo pointer refers to an
// immutable record; callers must not modify it.
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Snapshot{Location: s.current, Loading: s.loading}
}

// Subscribe registers a watcher that receives a snapshot after every state
// change. The channel is buffered and coalescing: a slow consumer sees the
// newest state, not every intermediate one. The returned cancel function
// must be called to release the watcher.
func (s *Store) Subscribe() (<-chan Snapshot, func()) {
	ch := make(chan Snapshot, 1)

	s.mu.Lock()
	s.watchers[ch] = struct{}{}
	s.mu.Unlock()

	cancel := func() {
		s.mu.Lock()
		if _, ok := s.watchers[ch]; ok {
			delete(s.watchers, ch)
			close(ch)
		}
		s.mu.Unlock()
	}
	return ch, cancel
}

// notifyLocked pushes the current snapshot to every watcher, dropping a
// stale pending snapshot first so the channel always holds the newest state.
func (s *Store) notifyLocked() {
	snap := Snapshot{Location: s.current, Loading: s.loading}
	for ch := range s.watchers {
		select {
		case <-ch:
		default:
		}
		ch <- snap
	}
}
