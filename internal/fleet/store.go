package fleet

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"shuttle-tracker/internal/mockdata"
	"shuttle-tracker/internal/shuttle"
)

// Defaults applied by the admin form when a field is left out.
const (
	DefaultCapacity = 45
	DefaultStatus   = shuttle.StatusInactive
)

// BusInput holds the admin-editable fields of a bus.
type BusInput struct {
	Number   string            `json:"number" binding:"required"`
	Route    string            `json:"route" binding:"required"`
	Driver   string            `json:"driver" binding:"required"`
	Capacity int               `json:"capacity" binding:"omitempty,min=1"`
	Status   shuttle.BusStatus `json:"status" binding:"omitempty,oneof=active delayed inactive"`
}

func (in BusInput) withDefaults() BusInput {
	if in.Capacity == 0 {
		in.Capacity = DefaultCapacity
	}
	if in.Status == "" {
		in.Status = DefaultStatus
	}
	return in
}

type Stats struct {
	Active           int `json:"active"`
	Delayed          int `json:"delayed"`
	Inactive         int `json:"inactive"`
	TotalOccupancy   int `json:"totalOccupancy"`
	TotalCapacity    int `json:"totalCapacity"`
	OccupancyPercent int `json:"occupancyPercent"`
}

// Store is an in-memory fleet list. Every read returns a copy.
type Store struct {
	mu    sync.RWMutex
	buses []shuttle.Bus
	now   func() time.Time
}

func NewStore(seed []shuttle.Bus) *Store {
	return &Store{buses: append([]shuttle.Bus(nil), seed...), now: time.Now}
}

func (s *Store) List() []shuttle.Bus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]shuttle.Bus(nil), s.buses...)
}

func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.buses)
}

func (s *Store) Get(id string) (shuttle.Bus, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if i := s.index(id); i >= 0 {
		return s.buses[i], true
	}
	return shuttle.Bus{}, false
}

// Add appends a new bus with a generated id, parked at the default location.
func (s *Store) Add(in BusInput) shuttle.Bus {
	in = in.withDefaults()
	b := shuttle.Bus{
		ID:          uuid.NewString(),
		Number:      in.Number,
		Route:       in.Route,
		Driver:      in.Driver,
		Location:    mockdata.DefaultLocation,
		Status:      in.Status,
		Capacity:    in.Capacity,
		LastUpdated: s.now(),
	}
	s.mu.Lock()
	s.buses = append(s.buses, b)
	s.mu.Unlock()
	return b
}

// Update replaces the editable fields of bus id and refreshes its timestamp.
func (s *Store) Update(id string, in BusInput) (shuttle.Bus, bool) {
	in = in.withDefaults()
	return s.modify(id, func(b *shuttle.Bus) {
		b.Number = in.Number
		b.Route = in.Route
		b.Driver = in.Driver
		b.Capacity = in.Capacity
		b.Status = in.Status
	})
}

func (s *Store) SetStatus(id string, status shuttle.BusStatus) (shuttle.Bus, bool) {
	return s.modify(id, func(b *shuttle.Bus) { b.Status = status })
}

func (s *Store) modify(id string, fn func(*shuttle.Bus)) (shuttle.Bus, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.index(id)
	if i < 0 {
		return shuttle.Bus{}, false
	}
	next := make([]shuttle.Bus, len(s.buses))
	copy(next, s.buses)
	fn(&next[i])
	next[i].LastUpdated = s.now()
	s.buses = next
	return next[i], true
}

// Delete removes bus id. Unknown ids are ignored.
func (s *Store) Delete(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := make([]shuttle.Bus, 0, len(s.buses))
	for _, b := range s.buses {
		if b.ID != id {
			next = append(next, b)
		}
	}
	removed := len(next) != len(s.buses)
	if removed {
		s.buses = next
	}
	return removed
}

// Apply swaps the fleet for fn's result under the write lock and returns it.
func (s *Store) Apply(fn func([]shuttle.Bus) []shuttle.Bus) []shuttle.Bus {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.buses = fn(append([]shuttle.Bus(nil), s.buses...))
	return append([]shuttle.Bus(nil), s.buses...)
}

func (s *Store) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var st Stats
	for _, b := range s.buses {
		switch b.Status {
		case shuttle.StatusActive:
			st.Active++
		case shuttle.StatusDelayed:
			st.Delayed++
		case shuttle.StatusInactive:
			st.Inactive++
		}
		st.TotalOccupancy += b.Occupancy
		st.TotalCapacity += b.Capacity
	}
	if st.TotalCapacity > 0 {
		st.OccupancyPercent = int(float64(st.TotalOccupancy)/float64(st.TotalCapacity)*100 + 0.5)
	}
	return st
}

func (s *Store) index(id string) int {
	for i, b := range s.buses {
		if b.ID == id {
			return i
		}
	}
	return -1
}
