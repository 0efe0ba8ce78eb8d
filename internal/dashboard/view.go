package dashboard

import (
	"sync"

	"shuttle-tracker/internal/fleet"
	"shuttle-tracker/internal/mapview"
	"shuttle-tracker/internal/mockdata"
	"shuttle-tracker/internal/notify"
	"shuttle-tracker/internal/shuttle"
	"shuttle-tracker/internal/sim"
)

// View is the dashboard mounted for one logged-in user. Student views carry
// the simulation loop, routes and map; admin views carry the full
// notification list. Both own a fleet copy and a notification delivery.
type View struct {
	user     shuttle.User
	fleet    *fleet.Store
	delivery *notify.Delivery
	backlog  []shuttle.Notification
	cfg      Config

	// student only
	sim    *sim.Manager
	mapv   *mapview.View
	routes []shuttle.Route

	mu       sync.Mutex
	selected string
	stopped  bool
}

func (v *View) User() shuttle.User { return v.user }

func (v *View) Role() shuttle.Role { return v.user.Role }

func (v *View) Fleet() *fleet.Store { return v.fleet }

func (v *View) Buses() []shuttle.Bus { return v.fleet.List() }

// Notifications returns what is on screen right now.
func (v *View) Notifications() []shuttle.Notification { return v.delivery.Visible() }

func (v *View) DismissNotification(id string) { v.delivery.Dismiss(id) }

func (v *View) NotificationState(id string) notify.State { return v.delivery.State(id) }

// AllNotifications is the admin list with its unread count.
func (v *View) AllNotifications() ([]shuttle.Notification, int) {
	out := append([]shuttle.Notification(nil), v.backlog...)
	return out, len(shuttle.Unread(out))
}

func (v *View) Routes() []shuttle.Route {
	return append([]shuttle.Route(nil), v.routes...)
}

// SelectRoute reports false when id is not a known route.
func (v *View) SelectRoute(id string) bool {
	for _, r := range v.routes {
		if r.ID == id {
			v.mu.Lock()
			v.selected = id
			v.mu.Unlock()
			return true
		}
	}
	return false
}

func (v *View) SelectedRoute() (shuttle.Route, bool) {
	v.mu.Lock()
	id := v.selected
	v.mu.Unlock()
	for _, r := range v.routes {
		if r.ID == id {
			return r, true
		}
	}
	return shuttle.Route{}, false
}

// SelectedStops derives arrival times for the selected route's stops.
func (v *View) SelectedStops() []shuttle.Stop {
	r, ok := v.SelectedRoute()
	if !ok {
		return []shuttle.Stop{}
	}
	return mockdata.DeriveArrivalsAt(r.Stops, v.cfg.Now())
}

// Map is nil on admin views.
func (v *View) Map() *mapview.View { return v.mapv }

func (v *View) Simulating() bool { return v.sim != nil && v.sim.Running() }

// stop halts every timer the view started. Safe to call more than once.
func (v *View) stop() {
	v.mu.Lock()
	if v.stopped {
		v.mu.Unlock()
		return
	}
	v.stopped = true
	v.mu.Unlock()

	if v.sim != nil {
		v.sim.Stop()
	}
	v.delivery.Stop()
}
