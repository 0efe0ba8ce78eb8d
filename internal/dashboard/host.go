// Package dashboard mounts the role-specific view for whoever the session says
// is logged in, and tears it down again on logout.
package dashboard

import (
	"context"
	"sync"
	"time"

	"shuttle-tracker/internal/fleet"
	"shuttle-tracker/internal/logger"
	"shuttle-tracker/internal/mapview"
	"shuttle-tracker/internal/metrics"
	"shuttle-tracker/internal/mockdata"
	"shuttle-tracker/internal/notify"
	"shuttle-tracker/internal/session"
	"shuttle-tracker/internal/shuttle"
	"shuttle-tracker/internal/sim"
)

type Config struct {
	RefreshInterval time.Duration
	NotifyStagger   time.Duration
	NotifyLifetime  time.Duration

	MapsAPIKey string
	MapCenter  shuttle.Location
	MapZoom    int

	Publisher sim.Publisher      // optional
	Metrics   *metrics.Collector // optional
	Scheduler notify.Scheduler   // optional, real timers when nil
	Now       func() time.Time   // optional
}

// Host owns at most one mounted view at a time.
type Host struct {
	sess *session.Session
	cfg  Config

	mu   sync.Mutex
	view *View
}

func NewHost(sess *session.Session, cfg Config) *Host {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.MapZoom <= 0 {
		cfg.MapZoom = mapview.DefaultZoom
	}
	return &Host{sess: sess, cfg: cfg}
}

func (h *Host) Session() *session.Session { return h.sess }

// Restore mounts the view for a user restored by Session.Init, if any.
func (h *Host) Restore(ctx context.Context) {
	if u, ok := h.sess.Current(); ok {
		h.mount(ctx, u)
	}
}

// Login runs the session login and mounts the user's view on success.
func (h *Host) Login(ctx context.Context, email, password string) (shuttle.User, bool, error) {
	ok, err := h.sess.Login(ctx, email, password)
	if err != nil || !ok {
		return shuttle.User{}, false, err
	}
	u, ok := h.sess.Current()
	if !ok {
		return shuttle.User{}, false, nil
	}
	h.mount(ctx, u)
	return u, true, nil
}

// Logout unmounts the current view before clearing the session.
func (h *Host) Logout(ctx context.Context) {
	h.unmount()
	h.sess.Logout(ctx)
}

// Current returns the mounted view, if any.
func (h *Host) Current() (*View, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.view, h.view != nil
}

func (h *Host) Close() {
	h.unmount()
	h.sess.Close()
}

func (h *Host) mount(ctx context.Context, u shuttle.User) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.view != nil {
		if h.view.user == u {
			return
		}
		h.stopLocked()
	}

	v := h.build(ctx, u)
	h.view = v
	h.cfg.Metrics.ViewMounted(string(u.Role), true)
	logger.Info("view mounted", "user", u.ID, "role", u.Role)
}

func (h *Host) unmount() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.stopLocked()
}

func (h *Host) stopLocked() {
	if h.view == nil {
		return
	}
	v := h.view
	h.view = nil
	v.stop()
	h.cfg.Metrics.ViewMounted(string(v.user.Role), false)
	logger.Info("view unmounted", "user", v.user.ID, "role", v.user.Role)
}

func (h *Host) build(ctx context.Context, u shuttle.User) *View {
	now := h.cfg.Now()
	opts := []notify.Option{notify.WithMetrics(h.cfg.Metrics)}
	if h.cfg.NotifyStagger > 0 {
		opts = append(opts, notify.WithStagger(h.cfg.NotifyStagger))
	}
	if h.cfg.NotifyLifetime > 0 {
		opts = append(opts, notify.WithLifetime(h.cfg.NotifyLifetime))
	}
	if h.cfg.Scheduler != nil {
		opts = append(opts, notify.WithScheduler(h.cfg.Scheduler))
	}

	v := &View{
		user:     u,
		fleet:    fleet.NewStore(mockdata.Buses(now)),
		delivery: notify.NewDelivery(opts...),
		backlog:  mockdata.Notifications(now),
		cfg:      h.cfg,
	}

	if u.Role == shuttle.RoleStudent {
		v.routes = mockdata.Routes()
		if len(v.routes) > 0 {
			v.selected = v.routes[0].ID
		}
		v.mapv = mapview.NewView(mapview.KeyLoader{APIKey: h.cfg.MapsAPIKey}, h.cfg.MapCenter, h.cfg.MapZoom)
		v.mapv.Init(ctx)
		v.sim = sim.NewManager(v.fleet, h.cfg.Publisher, h.cfg.RefreshInterval, h.cfg.Metrics)
		// The loop outlives the request that mounted the view.
		v.sim.Start(context.Background())
	}

	v.delivery.Start(v.backlog)
	return v
}
