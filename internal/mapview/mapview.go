package mapview

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"shuttle-tracker/internal/logger"
	"shuttle-tracker/internal/shuttle"
)

const (
	DefaultZoom = 13

	// Placeholder is shown in place of the map while it is not loaded.
	Placeholder = "Make sure you have added your Google Maps API key"
)

// DefaultCenter is where the map opens when nothing else is focused.
var DefaultCenter = shuttle.Location{Lat: 19.431083, Lng: 78.126139}

// Marker colors by bus status.
const (
	ColorActive   = "#22c55e"
	ColorDelayed  = "#eab308"
	ColorInactive = "#ef4444"
	ColorUnknown  = "#6b7280"
)

var ErrMissingAPIKey = errors.New("mapview: maps API key not configured")

type Info struct {
	Number    string            `json:"number"`
	Route     string            `json:"route"`
	Driver    string            `json:"driver"`
	Status    shuttle.BusStatus `json:"status"`
	Occupancy int               `json:"occupancy"`
	Capacity  int               `json:"capacity"`
}

type Marker struct {
	BusID    string           `json:"busId"`
	Position shuttle.Location `json:"position"`
	Title    string           `json:"title"`
	Color    string           `json:"color"`
	Info     Info             `json:"info"`
}

func MarkerColor(s shuttle.BusStatus) string {
	switch s {
	case shuttle.StatusActive:
		return ColorActive
	case shuttle.StatusDelayed:
		return ColorDelayed
	case shuttle.StatusInactive:
		return ColorInactive
	default:
		return ColorUnknown
	}
}

// Markers builds one marker per active bus, in fleet order.
func Markers(buses []shuttle.Bus) []Marker {
	out := make([]Marker, 0, len(buses))
	for _, b := range buses {
		if b.Status != shuttle.StatusActive {
			continue
		}
		out = append(out, Marker{
			BusID:    b.ID,
			Position: b.Location,
			Title:    fmt.Sprintf("%s - %s", b.Number, b.Route),
			Color:    MarkerColor(b.Status),
			Info: Info{
				Number:    b.Number,
				Route:     b.Route,
				Driver:    b.Driver,
				Status:    b.Status,
				Occupancy: b.Occupancy,
				Capacity:  b.Capacity,
			},
		})
	}
	return out
}

// Loader prepares the map provider. A returned error leaves the view unloaded.
type Loader interface {
	Load(ctx context.Context) error
}

// KeyLoader only checks that an API key is present.
type KeyLoader struct {
	APIKey string
}

func (l KeyLoader) Load(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if strings.TrimSpace(l.APIKey) == "" {
		return ErrMissingAPIKey
	}
	return nil
}

// Frame is one render of the map widget.
type Frame struct {
	Loaded      bool             `json:"loaded"`
	Placeholder string           `json:"placeholder,omitempty"`
	Center      shuttle.Location `json:"center"`
	Zoom        int              `json:"zoom"`
	Markers     []Marker         `json:"markers"`
}

type View struct {
	mu     sync.Mutex
	loader Loader
	loaded bool
	center shuttle.Location
	zoom   int
}

func NewView(loader Loader, center shuttle.Location, zoom int) *View {
	if zoom <= 0 {
		zoom = DefaultZoom
	}
	return &View{loader: loader, center: center, zoom: zoom}
}

// Init runs the loader. Failures are logged and the view stays unloaded.
func (v *View) Init(ctx context.Context) {
	v.mu.Lock()
	loader := v.loader
	v.mu.Unlock()

	var err error
	if loader == nil {
		err = ErrMissingAPIKey
	} else {
		err = loader.Load(ctx)
	}

	v.mu.Lock()
	v.loaded = err == nil
	v.mu.Unlock()
	if err != nil {
		logger.Warn("map failed to load", "error", err)
		return
	}
	logger.Debug("map loaded")
}

// SetAPIKey swaps in a KeyLoader for key and loads again.
func (v *View) SetAPIKey(ctx context.Context, key string) bool {
	v.mu.Lock()
	v.loader = KeyLoader{APIKey: key}
	v.mu.Unlock()
	v.Init(ctx)
	return v.Loaded()
}

func (v *View) Focus(center shuttle.Location, zoom int) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.center = center
	if zoom > 0 {
		v.zoom = zoom
	}
}

func (v *View) Loaded() bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	return v.loaded
}

func (v *View) Render(buses []shuttle.Bus) Frame {
	v.mu.Lock()
	defer v.mu.Unlock()
	if !v.loaded {
		return Frame{Placeholder: Placeholder, Center: v.center, Zoom: v.zoom, Markers: []Marker{}}
	}
	return Frame{Loaded: true, Center: v.center, Zoom: v.zoom, Markers: Markers(buses)}
}
