package state

import (
	"testing"

	"github.com/couchcryptid/city-explorer/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testAddress(id string) domain.DetectedAddress {
	return domain.DetectedAddress{
		ID:          id,
		Text:        "123 Main Street, New York, NY",
		Coordinates: domain.Coordinates{Lat: 40.7128, Lng: -74.0060},
		Formatted:   "123 Main St, New York, NY 10001, USA",
	}
}

func TestStore_InitialSnapshot(t *testing.T) {
	s := New()
	snap := s.Snapshot()
	assert.Nil(t, snap.Location)
	assert.False(t, snap.Loading)
}

func TestStore_TwoPhaseCycle(t *testing.T) {
	s := New()

	before := s.Snapshot()
	assert.Nil(t, before.Location)
	assert.False(t, before.Loading)

	seq := s.BeginCycle()

	assert.True(t, s.Snapshot().Loading)

	require.True(t, s.SetLocation(seq, testAddress("a1")))

	snap := s.Snapshot()
	require.NotNil(t, snap.Location)
	assert.False(t, snap.Loading, "address-only publish ends the loading phase")
	assert.Equal(t, "a1", snap.Location.Address.ID)
	assert.Empty(t, snap.Location.NearbyPlaces)
	assert.NotNil(t, snap.Location.NearbyPlaces)

	enriched := domain.LocationInfo{
		Address: testAddress("a1"),
		NearbyPlaces: []domain.PointOfInterest{
			{ID: "9", Name: "Central Park", Type: "park", Distance: 5600},
		},
	}
	require.True(t, s.UpdateLocationInfo(seq, enriched))

	snap = s.Snapshot()
	assert.False(t, snap.Loading)
	assert.Len(t, snap.Location.NearbyPlaces, 1)
}

func TestStore_DetectionFailureLeavesStateUnchanged(t *testing.T) {
	s := New()
	seq := s.BeginCycle()
	require.True(t, s.SetLocation(seq, testAddress("a1")))

	seq2 := s.BeginCycle()
	assert.True(t, s.Snapshot().Loading)
	s.EndCycle(seq2)

	snap := s.Snapshot()
	assert.False(t, snap.Loading)
	require.NotNil(t, snap.Location)
	assert.Equal(t, "a1", snap.Location.Address.ID)
}

func TestStore_SupersededCycleIsRejected(t *testing.T) {
	s := New()
	first := s.BeginCycle()
	require.True(t, s.SetLocation(first, testAddress("slow")))

	second := s.BeginCycle()
	require.True(t, s.SetLocation(second, testAddress("fast")))

	// The slow first cycle completes enrichment late; its write must lose.
	stale := domain.LocationInfo{Address: testAddress("slow")}
	assert.False(t, s.UpdateLocationInfo(first, stale))
	assert.Equal(t, "fast", s.Snapshot().Location.Address.ID)

	// Its EndCycle must not clear a newer cycle's progress either.
	s.EndCycle(first)
	assert.Equal(t, "fast", s.Snapshot().Location.Address.ID)
}

func TestStore_SubscribeSeesReplacements(t *testing.T) {
	s := New()
	ch, cancel := s.Subscribe()
	defer cancel()

	seq := s.BeginCycle()
	snap := <-ch
	assert.True(t, snap.Loading)

	require.True(t, s.SetLocation(seq, testAddress("a1")))
	snap = <-ch
	assert.False(t, snap.Loading)
	require.NotNil(t, snap.Location)
	assert.Equal(t, "a1", snap.Location.Address.ID)
}

func TestStore_SubscribeCoalescesToNewest(t *testing.T) {
	s := New()
	ch, cancel := s.Subscribe()
	defer cancel()

	seq := s.BeginCycle()
	require.True(t, s.SetLocation(seq, testAddress("a1")))
	require.True(t, s.UpdateLocationInfo(seq, domain.LocationInfo{Address: testAddress("a1")}))

	// Nothing was consumed along the way; the buffer holds only the newest.
	snap := <-ch
	require.NotNil(t, snap.Location)
	assert.Equal(t, "a1", snap.Location.Address.ID)
	assert.False(t, snap.Loading)

	select {
	case extra := <-ch:
		t.Fatalf("expected coalesced channel to be empty, got %+v", extra)
	default:
	}
}

func TestStore_CancelClosesChannel(t *testing.T) {
	s := New()
	ch, cancel := s.Subscribe()
	cancel()
	cancel() // idempotent

	_, open := <-ch
	assert.False(t, open)

	// Further writes must not panic with the watcher gone.
	seq := s.BeginCycle()
	s.SetLocation(seq, testAddress("a1"))
}
