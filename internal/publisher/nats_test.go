package publisher

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubject(t *testing.T) {
	cases := []struct {
		route, number, want string
	}{
		{"Campus Loop", "BUS-001", "shuttle.Campus_Loop.BUS-001"},
		{"Dormitory Express", "BUS 2", "shuttle.Dormitory_Express.BUS_2"},
		{"a.b>c*d/e", "x", "shuttle.a_b_c_d_e.x"},
		{"  ", "", "shuttle._._"},
	}
	for _, c := range cases {
		if got := Subject(c.route, c.number); got != c.want {
			t.Errorf("Subject(%q, %q) = %q, want %q", c.route, c.number, got, c.want)
		}
	}
}

type connMetrics struct{ connected []bool }

func (m *connMetrics) NATSPublishedInc()            {}
func (m *connMetrics) NATSPublishErrInc()           {}
func (m *connMetrics) PublishObserve(time.Duration) {}
func (m *connMetrics) NATSSetConnected(up bool)     { m.connected = append(m.connected, up) }

func TestNewNATSPublisherUnreachable(t *testing.T) {
	m := &connMetrics{}
	p, err := NewNATSPublisher("nats://127.0.0.1:1", false, m)
	require.Error(t, err)
	assert.Nil(t, p)
	assert.Contains(t, err.Error(), "nats://127.0.0.1:1")
	assert.Empty(t, m.connected)
}

func TestCloseWithoutConnection(t *testing.T) {
	assert.NotPanics(t, func() { (&NATSPublisher{}).Close() })
}
