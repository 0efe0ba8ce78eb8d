package fleet

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shuttle-tracker/internal/mockdata"
	"shuttle-tracker/internal/shuttle"
)

func seeded(t *testing.T) *Store {
	t.Helper()
	s := NewStore(mockdata.Buses(time.Now().Add(-time.Hour)))
	require.Equal(t, 4, s.Len())
	return s
}

func TestAdd(t *testing.T) {
	s := seeded(t)
	b := s.Add(BusInput{Number: "BUS-005", Route: "Campus Loop", Driver: "Ana Lee"})

	_, err := uuid.Parse(b.ID)
	assert.NoError(t, err)
	assert.Equal(t, DefaultCapacity, b.Capacity)
	assert.Equal(t, shuttle.StatusInactive, b.Status)
	assert.Zero(t, b.Occupancy)
	assert.Equal(t, mockdata.DefaultLocation, b.Location)
	assert.WithinDuration(t, time.Now(), b.LastUpdated, time.Second)

	got, ok := s.Get(b.ID)
	require.True(t, ok)
	assert.Equal(t, b, got)
	assert.Equal(t, 5, s.Len())

	other := s.Add(BusInput{Number: "BUS-005", Route: "x", Driver: "y", Capacity: 12, Status: shuttle.StatusActive})
	assert.NotEqual(t, b.ID, other.ID)
	assert.Equal(t, 12, other.Capacity)
}

func TestUpdate(t *testing.T) {
	s := seeded(t)
	before, _ := s.Get("2")

	got, ok := s.Update("2", BusInput{Number: "BUS-102", Route: "Medical Shuttle", Driver: "Sam", Capacity: 30, Status: shuttle.StatusActive})
	require.True(t, ok)
	assert.Equal(t, "BUS-102", got.Number)
	assert.Equal(t, "Medical Shuttle", got.Route)
	assert.Equal(t, 30, got.Capacity)
	assert.Equal(t, shuttle.StatusActive, got.Status)
	assert.Equal(t, before.Location, got.Location)
	assert.Equal(t, before.Occupancy, got.Occupancy)
	assert.True(t, got.LastUpdated.After(before.LastUpdated))

	_, ok = s.Update("missing", BusInput{Number: "n", Route: "r", Driver: "d"})
	assert.False(t, ok)
}

func TestSetStatus(t *testing.T) {
	s := seeded(t)
	got, ok := s.SetStatus("4", shuttle.StatusDelayed)
	require.True(t, ok)
	assert.Equal(t, shuttle.StatusDelayed, got.Status)

	_, ok = s.SetStatus("nope", shuttle.StatusActive)
	assert.False(t, ok)
}

func TestDelete(t *testing.T) {
	s := seeded(t)
	assert.True(t, s.Delete("1"))
	_, ok := s.Get("1")
	assert.False(t, ok)
	assert.Equal(t, 3, s.Len())
}

func TestDeleteUnknownIsNoop(t *testing.T) {
	s := seeded(t)
	before := s.List()
	assert.False(t, s.Delete("does-not-exist"))
	assert.Equal(t, before, s.List())
}

func TestListReturnsCopy(t *testing.T) {
	s := seeded(t)
	l := s.List()
	l[0].Number = "mutated"
	b, _ := s.Get("1")
	assert.Equal(t, "BUS-001", b.Number)
}

func TestApply(t *testing.T) {
	s := seeded(t)
	before := s.List()
	out := s.Apply(mockdata.Tick)
	require.Len(t, out, len(before))
	assert.Equal(t, out, s.List())
	for i := range out {
		assert.True(t, out[i].LastUpdated.After(before[i].LastUpdated))
	}
}

func TestStats(t *testing.T) {
	st := seeded(t).Stats()
	assert.Equal(t, Stats{
		Active:           2,
		Delayed:          1,
		Inactive:         1,
		TotalOccupancy:   75,
		TotalCapacity:    165,
		OccupancyPercent: 45,
	}, st)

	assert.Equal(t, Stats{}, NewStore(nil).Stats())
}
