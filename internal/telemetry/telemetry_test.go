package telemetry

import (
	"context"
	"io"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorderUpdatesMetrics(t *testing.T) {
	r := NewRecorder()

	logged := testutil.ToFloat64(dataPointsLogged)
	r.DataPointLogged()
	r.DataPointLogged()
	assert.Equal(t, logged+2, testutil.ToFloat64(dataPointsLogged))

	skipped := testutil.ToFloat64(ticksSkipped.WithLabelValues("disconnected"))
	r.TickSkipped("disconnected")
	assert.Equal(t, skipped+1, testutil.ToFloat64(ticksSkipped.WithLabelValues("disconnected")))

	failures := testutil.ToFloat64(fileWriteFailures)
	r.FileWriteFailed()
	assert.Equal(t, failures+1, testutil.ToFloat64(fileWriteFailures))

	r.SamplerRunning(true)
	assert.Equal(t, 1.0, testutil.ToFloat64(samplerRunning))
	r.SamplerRunning(false)
	assert.Equal(t, 0.0, testutil.ToFloat64(samplerRunning))

	r.ObserveSample(10 * time.Millisecond)
	r.ObserveDispatch(time.Millisecond)
}

func TestServeListenerExposesMetrics(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- ServeListener(ctx, ln) }()

	NewRecorder().DataPointLogged()

	resp, err := http.Get("http://" + ln.Addr().String() + "/metrics")
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "laserlog_datapoints_logged_total")

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("metrics server did not shut down")
	}
}
