// Package notify reveals a backlog of unread notifications one by one and
// retires them after a fixed on-screen lifetime.
package notify

import (
	"sync"
	"time"

	"shuttle-tracker/internal/logger"
	"shuttle-tracker/internal/shuttle"
)

const (
	DefaultStagger  = 2 * time.Second
	DefaultLifetime = 5 * time.Second
)

type State int

const (
	Unknown State = iota
	Pending
	Visible
	Dismissed
)

func (s State) String() string {
	switch s {
	case Pending:
		return "pending"
	case Visible:
		return "visible"
	case Dismissed:
		return "dismissed"
	}
	return "unknown"
}

// Timer is the cancel handle of a scheduled callback.
type Timer interface {
	Stop() bool
}

// Scheduler runs f once after d.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type realScheduler struct{}

func (realScheduler) AfterFunc(d time.Duration, f func()) Timer { return time.AfterFunc(d, f) }

// Metrics receives reveal and dismiss events. reason is "auto" or "manual".
type Metrics interface {
	NotificationRevealed()
	NotificationDismissed(reason string)
}

type Option func(*Delivery)

func WithStagger(d time.Duration) Option { return func(n *Delivery) { n.stagger = d } }

func WithLifetime(d time.Duration) Option { return func(n *Delivery) { n.lifetime = d } }

func WithScheduler(s Scheduler) Option { return func(n *Delivery) { n.sched = s } }

func WithMetrics(m Metrics) Option { return func(n *Delivery) { n.metrics = m } }

type entry struct {
	n     shuttle.Notification
	state State
	timer Timer
}

// Delivery tracks Pending -> Visible -> Dismissed per notification. All timers
// are offsets from the single Start call.
type Delivery struct {
	stagger  time.Duration
	lifetime time.Duration
	sched    Scheduler
	metrics  Metrics

	mu      sync.Mutex
	entries map[string]*entry
	visible []string // reveal order
	started bool
	stopped bool
}

func NewDelivery(opts ...Option) *Delivery {
	d := &Delivery{
		stagger:  DefaultStagger,
		lifetime: DefaultLifetime,
		sched:    realScheduler{},
		entries:  make(map[string]*entry),
	}
	for _, o := range opts {
		o(d)
	}
	return d
}

// Start schedules the unread part of backlog. Only the first call has effect.
func (d *Delivery) Start(backlog []shuttle.Notification) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.started || d.stopped {
		return
	}
	d.started = true

	k := 0
	for _, n := range shuttle.Unread(backlog) {
		if _, dup := d.entries[n.ID]; dup {
			continue
		}
		e := &entry{n: n, state: Pending}
		d.entries[n.ID] = e
		id := n.ID
		e.timer = d.sched.AfterFunc(time.Duration(k)*d.stagger, func() { d.reveal(id) })
		k++
	}
	logger.Debug("notification delivery started", "pending", len(d.entries))
}

func (d *Delivery) reveal(id string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	e, ok := d.entries[id]
	if d.stopped || !ok || e.state != Pending {
		return
	}
	e.state = Visible
	e.timer = nil
	d.visible = append(d.visible, id)
	if d.metrics != nil {
		d.metrics.NotificationRevealed()
	}
	if e.n.Type != shuttle.NotifyError {
		e.timer = d.sched.AfterFunc(d.lifetime, func() { d.dismiss(id, "auto") })
	}
}

// Dismiss hides a visible notification now. Anything else is a no-op.
func (d *Delivery) Dismiss(id string) {
	d.dismiss(id, "manual")
}

func (d *Delivery) dismiss(id, reason string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	e, ok := d.entries[id]
	if d.stopped || !ok || e.state != Visible {
		return
	}
	if e.timer != nil {
		e.timer.Stop()
		e.timer = nil
	}
	e.state = Dismissed
	for i, v := range d.visible {
		if v == id {
			d.visible = append(d.visible[:i:i], d.visible[i+1:]...)
			break
		}
	}
	if d.metrics != nil {
		d.metrics.NotificationDismissed(reason)
	}
}

// Visible returns the on-screen notifications in reveal order.
func (d *Delivery) Visible() []shuttle.Notification {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]shuttle.Notification, 0, len(d.visible))
	for _, id := range d.visible {
		out = append(out, d.entries[id].n)
	}
	return out
}

func (d *Delivery) State(id string) State {
	d.mu.Lock()
	defer d.mu.Unlock()
	if e, ok := d.entries[id]; ok {
		return e.state
	}
	return Unknown
}

// Stop cancels every outstanding timer. Callbacks that already fired are
// ignored once Stop has returned.
func (d *Delivery) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return
	}
	d.stopped = true
	for _, e := range d.entries {
		if e.timer != nil {
			e.timer.Stop()
			e.timer = nil
		}
	}
}
