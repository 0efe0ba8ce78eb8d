package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"shuttle-tracker/internal/logger"
)

type Collector struct {
	reg *prometheus.Registry

	MountedViews *prometheus.GaugeVec // role label: student|admin
	FleetBuses   prometheus.Gauge

	Ticks        prometheus.Counter
	TickDuration prometheus.Histogram

	NATSPublished   prometheus.Counter
	NATSPublishErrs prometheus.Counter
	NATSConnected   prometheus.Gauge
	PublishDuration prometheus.Histogram

	Logins                 *prometheus.CounterVec // result label: accepted|rejected|cancelled
	NotificationsRevealed  prometheus.Counter
	NotificationsDismissed *prometheus.CounterVec // reason label: auto|manual

	RefreshInterval prometheus.Gauge // seconds
	NotifyStagger   prometheus.Gauge // seconds
	NotifyLifetime  prometheus.Gauge // seconds
}

func NewCollector(refreshInterval, notifyStagger, notifyLifetime time.Duration) *Collector {
	reg := prometheus.NewRegistry()

	c := &Collector{
		reg: reg,
		MountedViews: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "shuttle_mounted_views",
			Help: "Dashboard views currently mounted, by role.",
		}, []string{"role"}),
		FleetBuses: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "shuttle_fleet_buses",
			Help: "Buses in the fleet after the last refresh tick.",
		}),
		Ticks: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "shuttle_fleet_ticks_total",
			Help: "Total fleet refresh ticks applied.",
		}),
		TickDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "shuttle_tick_duration_seconds",
			Help:    "Duration of fleet refresh ticks including publishing.",
			Buckets: prometheus.ExponentialBuckets(0.0001, 2, 15),
		}),
		NATSPublished: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "shuttle_nats_published_total",
			Help: "Total NATS messages published.",
		}),
		NATSPublishErrs: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "shuttle_nats_publish_errors_total",
			Help: "Total NATS publish errors.",
		}),
		NATSConnected: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "shuttle_nats_connected",
			Help: "1 if NATS connection is established, 0 otherwise.",
		}),
		PublishDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "shuttle_publish_duration_seconds",
			Help:    "Duration to marshal and publish a NATS message.",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 15),
		}),
		Logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "shuttle_logins_total",
			Help: "Login attempts by result.",
		}, []string{"result"}),
		NotificationsRevealed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "shuttle_notifications_revealed_total",
			Help: "Notifications that became visible.",
		}),
		NotificationsDismissed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "shuttle_notifications_dismissed_total",
			Help: "Notifications dismissed, by reason.",
		}, []string{"reason"}),
		RefreshInterval: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "shuttle_refresh_interval_seconds",
			Help: "Fleet refresh interval in seconds.",
		}),
		NotifyStagger: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "shuttle_notify_stagger_seconds",
			Help: "Delay between notification reveals in seconds.",
		}),
		NotifyLifetime: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "shuttle_notify_lifetime_seconds",
			Help: "On-screen lifetime of non-error notifications in seconds.",
		}),
	}

	reg.MustRegister(
		c.MountedViews, c.FleetBuses,
		c.Ticks, c.TickDuration,
		c.NATSPublished, c.NATSPublishErrs, c.NATSConnected, c.PublishDuration,
		c.Logins, c.NotificationsRevealed, c.NotificationsDismissed,
		c.RefreshInterval, c.NotifyStagger, c.NotifyLifetime,
	)

	c.RefreshInterval.Set(refreshInterval.Seconds())
	c.NotifyStagger.Set(notifyStagger.Seconds())
	c.NotifyLifetime.Set(notifyLifetime.Seconds())

	return c
}

// The methods below are safe on a nil *Collector so callers can pass one
// through unconditionally.

func (c *Collector) LoginObserved(result string) {
	if c == nil {
		return
	}
	c.Logins.WithLabelValues(result).Inc()
}

func (c *Collector) NotificationRevealed() {
	if c == nil {
		return
	}
	c.NotificationsRevealed.Inc()
}

func (c *Collector) NotificationDismissed(reason string) {
	if c == nil {
		return
	}
	c.NotificationsDismissed.WithLabelValues(reason).Inc()
}

func (c *Collector) ViewMounted(role string, mounted bool) {
	if c == nil {
		return
	}
	if mounted {
		c.MountedViews.WithLabelValues(role).Inc()
	} else {
		c.MountedViews.WithLabelValues(role).Dec()
	}
}

func (c *Collector) TickObserved(buses int, d time.Duration) {
	if c == nil {
		return
	}
	c.Ticks.Inc()
	c.FleetBuses.Set(float64(buses))
	c.TickDuration.Observe(d.Seconds())
}

func (c *Collector) Handler() http.Handler { return promhttp.HandlerFor(c.reg, promhttp.HandlerOpts{}) }

// Serve starts an HTTP server exposing /metrics on the given address.
func (c *Collector) Serve(addr string) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", c.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("metrics server error", "error", err)
		}
	}()
	logger.Info("metrics listening", "addr", addr)
	return srv
}
