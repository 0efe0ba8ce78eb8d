package publisher

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/nats-io/nats.go"

	"shuttle-tracker/internal/logger"
)

// SubjectPrefix roots every position subject: shuttle.<route>.<bus number>.
const SubjectPrefix = "shuttle"

// NATSPublisher fans bus positions out after every fleet tick.
type NATSPublisher struct {
	nc          *nats.Conn
	logSubjects bool
	metrics     PublisherMetrics
}

type PublisherMetrics interface {
	NATSPublishedInc()
	NATSPublishErrInc()
	PublishObserve(d time.Duration)
	NATSSetConnected(connected bool)
}

// ReconnectWait is the pause between reconnect attempts, which never stop.
const ReconnectWait = 2 * time.Second

func NewNATSPublisher(url string, logSubjects bool, m PublisherMetrics) (*NATSPublisher, error) {
	setConnected := func(up bool) {
		if m != nil {
			m.NATSSetConnected(up)
		}
	}
	nc, err := nats.Connect(url,
		nats.Name("shuttle-tracker"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(ReconnectWait),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			setConnected(false)
			logger.Warn("nats disconnected, bus positions paused", "subjects", SubjectPrefix+".>", "error", err)
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			setConnected(true)
			logger.Info("nats reconnected, bus positions resumed", "server", c.ConnectedUrl())
		}),
		nats.ClosedHandler(func(_ *nats.Conn) {
			setConnected(false)
			logger.Info("nats closed")
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("nats connect %s: %w", url, err)
	}
	setConnected(true)
	logger.Info("nats connected", "server", nc.ConnectedUrl(), "subjects", SubjectPrefix+".<route>.<bus>")
	return &NATSPublisher{nc: nc, logSubjects: logSubjects, metrics: m}, nil
}

// Close flushes queued positions before closing the connection.
func (p *NATSPublisher) Close() {
	if p.nc == nil {
		return
	}
	if err := p.nc.Drain(); err != nil {
		logger.Warn("nats drain", "error", err)
	}
	p.nc.Close()
}

type PositionMessage struct {
	BusID     string    `json:"busId"`
	Number    string    `json:"number"`
	Route     string    `json:"route"`
	Status    string    `json:"status"`
	Lat       float64   `json:"lat"`
	Lng       float64   `json:"lng"`
	SpeedMps  float64   `json:"speedMps"`
	Occupancy int       `json:"occupancy"`
	Capacity  int       `json:"capacity"`
	Timestamp time.Time `json:"timestamp"`
}

func (p *NATSPublisher) PublishPosition(msg PositionMessage) error {
	subject := Subject(msg.Route, msg.Number)
	b, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	if p.logSubjects {
		logger.Debug("publish position", "subject", subject, "bus", msg.BusID, "status", msg.Status)
	}
	start := time.Now()
	err = p.nc.Publish(subject, b)
	if p.metrics != nil {
		p.metrics.PublishObserve(time.Since(start))
		if err != nil {
			p.metrics.NATSPublishErrInc()
		} else {
			p.metrics.NATSPublishedInc()
		}
	}
	return err
}

// Subject names the stream for one bus, e.g. shuttle.Campus_Loop.BUS-001.
func Subject(route, number string) string {
	return fmt.Sprintf("%s.%s.%s", SubjectPrefix, subjectToken(route), subjectToken(number))
}

func subjectToken(s string) string {
	s = strings.TrimSpace(s)
	// route names carry spaces; wildcards and separators would split or widen the subject
	repl := strings.NewReplacer(" ", "_", ".", "_", ">", "_", "*", "_", "/", "_", "\t", "_")
	s = repl.Replace(s)
	if s == "" {
		s = "_"
	}
	return s
}
