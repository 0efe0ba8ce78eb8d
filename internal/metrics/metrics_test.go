package metrics

import (
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectorRecords(t *testing.T) {
	c := NewCollector(5*time.Second, 2*time.Second, 5*time.Second)

	c.LoginObserved("accepted")
	c.LoginObserved("rejected")
	c.LoginObserved("rejected")
	c.NotificationRevealed()
	c.NotificationDismissed("auto")
	c.ViewMounted("student", true)
	c.ViewMounted("student", true)
	c.ViewMounted("student", false)
	c.TickObserved(4, time.Millisecond)

	assert.Equal(t, 1.0, testutil.ToFloat64(c.Logins.WithLabelValues("accepted")))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.Logins.WithLabelValues("rejected")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.NotificationsRevealed))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.NotificationsDismissed.WithLabelValues("auto")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.MountedViews.WithLabelValues("student")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.Ticks))
	assert.Equal(t, 4.0, testutil.ToFloat64(c.FleetBuses))
	assert.Equal(t, 5.0, testutil.ToFloat64(c.RefreshInterval))
	assert.Equal(t, 2.0, testutil.ToFloat64(c.NotifyStagger))
}

func TestNilCollectorIsSafe(t *testing.T) {
	var c *Collector
	assert.NotPanics(t, func() {
		c.LoginObserved("accepted")
		c.NotificationRevealed()
		c.NotificationDismissed("manual")
		c.ViewMounted("admin", true)
		c.TickObserved(1, time.Second)
	})
}

func TestHandlerExposesMetrics(t *testing.T) {
	c := NewCollector(time.Second, time.Second, time.Second)
	c.LoginObserved("accepted")

	srv := httptest.NewServer(c.Handler())
	defer srv.Close()

	resp, err := srv.Client().Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `shuttle_logins_total{result="accepted"} 1`)
}
