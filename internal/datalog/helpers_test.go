package datalog_test

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"codeberg.org/mutker/laserlog/internal/category"
	"codeberg.org/mutker/laserlog/internal/datalog"
	"codeberg.org/mutker/laserlog/internal/device"
	"github.com/stretchr/testify/require"
)

var t0 = time.Date(2025, 3, 14, 9, 26, 53, 0, time.Local)

type fixedClock struct{ at time.Time }

func (c fixedClock) Now() time.Time { return c.at }

// manualTicker hands poll times to the sampler one at a time.
type manualTicker struct {
	ch    chan time.Time
	start time.Time
}

func (m *manualTicker) C() <-chan time.Time { return m.ch }
func (m *manualTicker) Stop()               {}

// advance delivers the poll at start+sec and returns once the sampler has
// finished handling it. The repeated poll is never due.
func (m *manualTicker) advance(sec int) {
	at := m.start.Add(time.Duration(sec) * time.Second)
	m.ch <- at
	m.ch <- at
}

// fire delivers one poll without waiting for the sampler to finish.
func (m *manualTicker) fire(sec int) {
	m.ch <- m.start.Add(time.Duration(sec) * time.Second)
}

type fakeRecorder struct {
	mu       sync.Mutex
	logged   int
	skipped  map[string]int
	failures int
	running  []bool
}

func newFakeRecorder() *fakeRecorder {
	return &fakeRecorder{skipped: make(map[string]int)}
}

func (r *fakeRecorder) DataPointLogged() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.logged++
}

func (r *fakeRecorder) TickSkipped(reason string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.skipped[reason]++
}

func (r *fakeRecorder) ObserveSample(time.Duration)   {}
func (r *fakeRecorder) ObserveDispatch(time.Duration) {}

func (r *fakeRecorder) FileWriteFailed() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.failures++
}

func (r *fakeRecorder) SamplerRunning(running bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.running = append(r.running, running)
}

func (r *fakeRecorder) skips(reason string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.skipped[reason]
}

type harness struct {
	sim    *device.Simulated
	reg    *category.Registry
	logger *datalog.Logger
	ticker *manualTicker
	rec    *fakeRecorder
	path   string
}

func newHarness(t *testing.T, opts ...datalog.Option) *harness {
	t.Helper()

	p := device.DefaultProfile()
	p.Jitter = 0
	sim, err := device.NewSimulated(p)
	require.NoError(t, err)

	return newHarnessWith(t, sim, category.NewRegistry(sim), opts...)
}

func newHarnessWith(t *testing.T, sim *device.Simulated, reg *category.Registry, opts ...datalog.Option) *harness {
	t.Helper()

	h := &harness{
		sim:    sim,
		reg:    reg,
		ticker: &manualTicker{ch: make(chan time.Time), start: t0},
		rec:    newFakeRecorder(),
		path:   filepath.Join(t.TempDir(), "laser.log"),
	}

	base := []datalog.Option{
		datalog.WithClock(fixedClock{at: t0}),
		datalog.WithTicker(func(time.Duration) datalog.Ticker { return h.ticker }),
		datalog.WithRecorder(h.rec),
		datalog.WithFilePath(h.path),
	}
	h.logger = datalog.New(sim, reg, append(base, opts...)...)

	t.Cleanup(func() {
		h.logger.Stop()
		h.logger.Wait()
	})

	return h
}

func (h *harness) include(t *testing.T, ids ...category.ID) {
	t.Helper()
	for _, id := range ids {
		require.NoError(t, h.logger.IncludeCategory(id))
	}
}

func (h *harness) stop() {
	h.logger.Stop()
	h.logger.Wait()
}

func readLines(t *testing.T, path string) []string {
	t.Helper()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	text := strings.TrimSuffix(string(data), "\n")
	if text == "" {
		return nil
	}
	return strings.Split(text, "\n")
}

// stubCategory is a Category with scripted columns.
type stubCategory struct {
	id       category.ID
	labels   []string
	values   func() []string
	err      error
	included atomic.Bool
}

func (c *stubCategory) ID() category.ID        { return c.id }
func (c *stubCategory) Name() string           { return string(c.id) }
func (c *stubCategory) ColumnLabels() []string { return c.labels }
func (c *stubCategory) Include()               { c.included.Store(true) }
func (c *stubCategory) Exclude()               { c.included.Store(false) }
func (c *stubCategory) IsIncluded() bool       { return c.included.Load() }

func (c *stubCategory) Values() ([]string, error) {
	return c.values(), c.err
}
