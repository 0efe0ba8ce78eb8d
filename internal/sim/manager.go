package sim

import (
	"context"
	"math"
	"sync"
	"time"

	"shuttle-tracker/internal/logger"
	"shuttle-tracker/internal/mockdata"
	mmetrics "shuttle-tracker/internal/metrics"
	"shuttle-tracker/internal/publisher"
	"shuttle-tracker/internal/shuttle"
)

// DefaultInterval is the fleet refresh period.
const DefaultInterval = 5 * time.Second

// Fleet is the collection a Manager refreshes. Apply must replace the fleet
// with fn's result atomically and return it.
type Fleet interface {
	Apply(fn func([]shuttle.Bus) []shuttle.Bus) []shuttle.Bus
}

type Publisher interface {
	PublishPosition(msg publisher.PositionMessage) error
}

// Manager drives the periodic fleet refresh for one mounted view.
type Manager struct {
	fleet    Fleet
	pub      Publisher
	interval time.Duration
	tick     func([]shuttle.Bus) []shuttle.Bus
	metrics  *mmetrics.Collector

	mu     sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewManager builds a stopped manager. pub and metrics may be nil.
func NewManager(fleet Fleet, pub Publisher, interval time.Duration, metrics *mmetrics.Collector) *Manager {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Manager{
		fleet:    fleet,
		pub:      pub,
		interval: interval,
		tick:     mockdata.Tick,
		metrics:  metrics,
	}
}

// Start launches the refresh loop. A second Start while running is ignored.
func (m *Manager) Start(parent context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(parent)
	m.cancel = cancel
	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		t := time.NewTicker(m.interval)
		defer t.Stop()
		logger.Debug("fleet refresh started", "interval", m.interval.String())
		for {
			select {
			case <-ctx.Done():
				return
			case <-t.C:
				m.Step()
			}
		}
	}()
}

// Stop cancels the loop and waits for an in-flight tick to finish.
func (m *Manager) Stop() {
	m.mu.Lock()
	cancel := m.cancel
	m.cancel = nil
	m.mu.Unlock()
	if cancel != nil {
		cancel()
	}
	m.wg.Wait()
}

func (m *Manager) Running() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cancel != nil
}

// Step applies one tick to the fleet and publishes the new positions.
func (m *Manager) Step() []shuttle.Bus {
	tickStart := time.Now()
	var prev []shuttle.Bus
	next := m.fleet.Apply(func(cur []shuttle.Bus) []shuttle.Bus {
		prev = cur
		return m.tick(cur)
	})

	if m.pub != nil {
		before := make(map[string]shuttle.Bus, len(prev))
		for _, b := range prev {
			before[b.ID] = b
		}
		for _, b := range next {
			msg := positionMessage(b, before[b.ID])
			if err := m.pub.PublishPosition(msg); err != nil {
				logger.Warn("publish position failed", "bus", b.Number, "error", err)
			}
		}
	}
	m.metrics.TickObserved(len(next), time.Since(tickStart))
	logger.Debug("fleet refreshed", "buses", len(next))
	return next
}

func positionMessage(b, prev shuttle.Bus) publisher.PositionMessage {
	speed := 0.0
	if prev.ID != "" {
		if dt := b.LastUpdated.Sub(prev.LastUpdated).Seconds(); dt > 0 {
			speed = distanceMeters(prev.Location.Lat, prev.Location.Lng, b.Location.Lat, b.Location.Lng) / dt
		}
	}
	return publisher.PositionMessage{
		BusID:     b.ID,
		Number:    b.Number,
		Route:     b.Route,
		Status:    string(b.Status),
		Lat:       b.Location.Lat,
		Lng:       b.Location.Lng,
		SpeedMps:  speed,
		Occupancy: b.Occupancy,
		Capacity:  b.Capacity,
		Timestamp: b.LastUpdated,
	}
}

// Haversine distance in meters
func distanceMeters(lat1, lon1, lat2, lon2 float64) float64 {
	const R = 6371000.0
	toRad := func(d float64) float64 { return d * math.Pi / 180 }
	dLat := toRad(lat2 - lat1)
	dLon := toRad(lon2 - lon1)
	a := (math.Sin(dLat/2) * math.Sin(dLat/2)) + math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return R * c
}
