// Package telemetry exports the process's own sampling and persistence
// metrics to Prometheus.
package telemetry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Data point metrics
	dataPointsLogged = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "laserlog_datapoints_logged_total",
			Help: "Total number of data points appended to the log",
		},
	)

	ticksSkipped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "laserlog_ticks_skipped_total",
			Help: "Total number of due sample ticks that produced no data point",
		},
		[]string{"reason"}, // disconnected, resetting, updating, refresh_failed, stale
	)

	sampleDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "laserlog_sample_duration_seconds",
			Help:    "Time taken to refresh the device and assemble one row",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1},
		},
	)

	dispatchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "laserlog_dispatch_duration_seconds",
			Help:    "Time taken to notify every observer of one data point",
			Buckets: []float64{0.0001, 0.001, 0.005, 0.01, 0.05, 0.1, 0.5},
		},
	)

	// Persistence metrics
	fileWriteFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "laserlog_file_write_failures_total",
			Help: "Total number of failed writes to the live log file",
		},
	)

	samplerRunning = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "laserlog_sampler_running",
			Help: "1 while a sampler goroutine is running",
		},
	)
)

// Recorder feeds datalog events into the package metrics.
type Recorder struct{}

func NewRecorder() *Recorder {
	return &Recorder{}
}

func (*Recorder) DataPointLogged() {
	dataPointsLogged.Inc()
}

func (*Recorder) TickSkipped(reason string) {
	ticksSkipped.WithLabelValues(reason).Inc()
}

func (*Recorder) ObserveSample(d time.Duration) {
	sampleDuration.Observe(d.Seconds())
}

func (*Recorder) ObserveDispatch(d time.Duration) {
	dispatchDuration.Observe(d.Seconds())
}

func (*Recorder) FileWriteFailed() {
	fileWriteFailures.Inc()
}

func (*Recorder) SamplerRunning(running bool) {
	if running {
		samplerRunning.Set(1)
		return
	}
	samplerRunning.Set(0)
}
