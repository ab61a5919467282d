// Package datalog samples the laser controller on a schedule and records
// each sample as one CSV row, in a file and in memory, while notifying
// subscribed observers.
package datalog

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"codeberg.org/mutker/laserlog/internal/category"
	"codeberg.org/mutker/laserlog/internal/device"
	"codeberg.org/mutker/laserlog/internal/errors"
	"codeberg.org/mutker/laserlog/internal/logger"
	"github.com/google/uuid"
)

// Logger owns one logging session at a time and the sampler feeding it.
type Logger struct {
	dev device.Controller
	reg *category.Registry
	log logger.Logger

	clock     Clock
	newTicker TickerFunc
	rec       Recorder
	resume    bool

	interval atomic.Int64
	enabled  atomic.Bool
	sampling atomic.Bool
	total    atomic.Int64
	saveOK   atomic.Bool
	pathOK   atomic.Bool

	// runMu serializes Start and Stop and guards the sampler handle.
	runMu  sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}

	// mu guards the session and the log file.
	mu            sync.Mutex
	filePath      string
	sessionID     string
	generation    uint64
	header        []string
	columns       []column
	headerWritten bool
	memory        [][]string
	lastWriteErr  error
	fatalErr      error

	observers dispatcher
}

// New builds a stopped Logger over reg, whose categories read from dev.
func New(dev device.Controller, reg *category.Registry, opts ...Option) *Logger {
	l := &Logger{
		dev:       dev,
		reg:       reg,
		log:       logger.Component("datalog"),
		clock:     processClock{},
		newTicker: newTimeTicker,
		rec:       noopRecorder{},
		resume:    true,
		sessionID: uuid.NewString(),
	}
	l.interval.Store(DefaultIntervalSeconds)

	for _, opt := range opts {
		opt(l)
	}

	return l
}

// SetFilePath sets the live log file. The path is accepted only if it can
// be opened for appending; SetFilePathSuccessful reports the outcome. If
// the current session's header is already written and the new file is
// empty, the header is written to it.
func (l *Logger) SetFilePath(path string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	empty, err := probeAppend(path)
	if err != nil {
		l.pathOK.Store(false)
		l.log.Warn().Err(err).Str("path", path).Msg("Log file path rejected")
		return
	}

	l.filePath = path
	l.pathOK.Store(true)

	if l.headerWritten && empty {
		l.writeLocked(l.header)
	}

	l.log.Info().Str("path", path).Msg("Log file path set")
}

// SetFilePathSuccessful reports whether the last SetFilePath was accepted.
func (l *Logger) SetFilePathSuccessful() bool {
	return l.pathOK.Load()
}

// FilePath returns the live log file path.
func (l *Logger) FilePath() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.filePath
}

// CategoryName returns the display name of id.
func (l *Logger) CategoryName(id category.ID) string {
	return category.Name(id)
}

// IncludeCategory marks id for inclusion. A session whose header is
// already written is unaffected until the next Reset.
func (l *Logger) IncludeCategory(id category.ID) error {
	c, ok := l.reg.Get(id)
	if !ok {
		return errors.New().WithData(ErrUnknownCategory, id)
	}
	c.Include()
	return nil
}

// ExcludeCategory clears the inclusion of id.
func (l *Logger) ExcludeCategory(id category.ID) error {
	c, ok := l.reg.Get(id)
	if !ok {
		return errors.New().WithData(ErrUnknownCategory, id)
	}
	c.Exclude()
	return nil
}

// IsIncluded reports whether id is marked for inclusion.
func (l *Logger) IsIncluded(id category.ID) bool {
	c, ok := l.reg.Get(id)
	return ok && c.IsIncluded()
}

// SetIntervalSeconds sets the sampling interval. Values outside
// [MinIntervalSeconds, MaxIntervalSeconds] are ignored. A running sampler
// keeps the interval it started with.
func (l *Logger) SetIntervalSeconds(n int) {
	if n < MinIntervalSeconds || n > MaxIntervalSeconds {
		l.log.Debug().Int("interval", n).Msg("Interval out of range, ignored")
		return
	}
	l.interval.Store(int64(n))
}

// IntervalSeconds returns the sampling interval.
func (l *Logger) IntervalSeconds() int {
	return int(l.interval.Load())
}

// Start enables logging and launches the sampler, first waiting for any
// previous sampler to exit. The first Start of a session freezes the
// header from the included categories and writes it.
func (l *Logger) Start() error {
	l.runMu.Lock()
	defer l.runMu.Unlock()

	l.mu.Lock()
	if l.filePath == "" {
		l.mu.Unlock()
		return errors.New().New(ErrNoFilePath)
	}
	l.mu.Unlock()

	l.stopLocked()
	if l.done != nil {
		<-l.done
	}

	l.mu.Lock()
	if !l.headerWritten {
		l.beginSessionLocked()
	}
	l.fatalErr = nil
	header := len(l.header)
	l.mu.Unlock()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	l.cancel = cancel
	l.done = done
	l.enabled.Store(true)

	s := &sampler{
		interval:  time.Duration(l.interval.Load()) * time.Second,
		clock:     l.clock,
		newTicker: l.newTicker,
		sample:    l.sample,
		log:       l.log,
	}

	l.sampling.Store(true)
	l.rec.SamplerRunning(true)
	go func() {
		defer close(done)
		defer l.rec.SamplerRunning(false)
		defer l.sampling.Store(false)
		s.run(ctx)
	}()

	l.log.Info().
		Int("interval", l.IntervalSeconds()).
		Int("columns", header).
		Str("session", l.SessionID()).
		Msg("Logging started")

	return nil
}

// Stop disables logging and signals the sampler to exit. It does not wait;
// use Wait to join the sampler.
func (l *Logger) Stop() {
	l.runMu.Lock()
	defer l.runMu.Unlock()

	if l.enabled.Load() {
		l.log.Info().Int64("total", l.total.Load()).Msg("Logging stopped")
	}
	l.stopLocked()
}

func (l *Logger) stopLocked() {
	l.enabled.Store(false)
	if l.cancel != nil {
		l.cancel()
		l.cancel = nil
	}
}

// Wait blocks until the current sampler, if any, has exited.
func (l *Logger) Wait() {
	l.runMu.Lock()
	done := l.done
	l.runMu.Unlock()

	if done != nil {
		<-done
	}
}

// Reset truncates the log file and empties the memory log, starting a new
// session. While logging is enabled the new header is written at once so
// the next row follows it.
func (l *Logger) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.generation++
	l.sessionID = uuid.NewString()
	l.memory = nil
	l.header = nil
	l.columns = nil
	l.headerWritten = false
	l.total.Store(0)

	if l.filePath != "" {
		if err := replaceRows(l.filePath); err != nil {
			l.writeFailedLocked(err)
		}
	}

	if l.enabled.Load() {
		l.beginSessionLocked()
	}

	l.log.Info().Str("session", l.sessionID).Msg("Log reset")
}

// beginSessionLocked freezes the header and columns from the currently
// included categories and writes the header.
func (l *Logger) beginSessionLocked() {
	l.columns, l.header = freeze(l.reg.Included())
	l.headerWritten = true
	l.memory = append(l.memory, l.header)
	l.writeLocked(l.header)
}

func (l *Logger) writeLocked(row []string) {
	if err := appendRows(l.filePath, row); err != nil {
		l.writeFailedLocked(err)
		return
	}
	l.lastWriteErr = nil
}

func (l *Logger) writeFailedLocked(err error) {
	l.lastWriteErr = err
	l.rec.FileWriteFailed()
	l.log.Warn().Err(err).Str("path", l.filePath).Msg("Log file write failed")
}

// sample runs on the sampler goroutine for every due tick.
func (l *Logger) sample(at time.Time) tickResult {
	if reason := readiness(l.dev); reason != "" {
		return l.skip(reason, at)
	}

	l.mu.Lock()
	gen, columns := l.generation, l.columns
	l.mu.Unlock()

	stamp := l.clock.Now()
	began := time.Now()
	row, err := assemble(columns, stamp)
	l.rec.ObserveSample(time.Since(began))

	if err != nil {
		if code, _ := errors.CodeOf(err); code == ErrColumnMismatch {
			l.fail(err)
			return tickExit
		}
		// The device may have dropped out while categories refreshed.
		if reason := readiness(l.dev); reason != "" {
			return l.skip(reason, at)
		}
		l.rec.TickSkipped(reasonRefreshFailed)
		l.log.Warn().Err(err).Msg("Sample dropped, device refresh failed")
		return tickContinue
	}

	dp, ok, err := l.commit(gen, row, stamp)
	if err != nil {
		l.fail(err)
		return tickExit
	}
	if !ok {
		l.rec.TickSkipped(reasonStale)
		l.log.Debug().Msg("Sample discarded, log was reset")
		return tickContinue
	}

	began = time.Now()
	l.observers.dispatch(dp)
	l.rec.ObserveDispatch(time.Since(began))

	return tickContinue
}

// skip drops the tick at because the device is not ready.
func (l *Logger) skip(reason string, at time.Time) tickResult {
	l.rec.TickSkipped(reason)
	l.log.Debug().
		Err(errors.New().WithData(ErrDeviceNotReady, reason)).
		Time("tick", at).
		Msg("Sample skipped")

	if reason == reasonDisconnected && !l.resume {
		l.log.Info().Msg("Device disconnected, sampler exiting")
		return tickExit
	}
	return tickContinue
}

// commit appends row to the session it was assembled for. Rows from a
// session that has since been reset are discarded; a row whose width
// differs from the session header is an error.
func (l *Logger) commit(gen uint64, row []string, at time.Time) (DataPoint, bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if gen != l.generation || !l.headerWritten {
		return DataPoint{}, false, nil
	}
	if len(row) != len(l.header) {
		return DataPoint{}, false, errors.New().WithData(ErrColumnMismatch,
			fmt.Sprintf("row has %d fields for %d header columns", len(row), len(l.header)))
	}

	l.writeLocked(row)
	l.memory = append(l.memory, row)
	seq := uint64(l.total.Add(1))
	l.rec.DataPointLogged()

	return DataPoint{
		SessionID: l.sessionID,
		Sequence:  seq,
		At:        at,
		Header:    l.header,
		Values:    valuesByColumn(l.header, row),
	}, true, nil
}

func (l *Logger) fail(err error) {
	l.mu.Lock()
	l.fatalErr = err
	l.mu.Unlock()
	l.enabled.Store(false)

	if e, ok := err.(errors.Error); ok {
		l.log.ErrorWithCode(e).Msg("Sampler stopped")
		return
	}
	l.log.Error().Err(err).Msg("Sampler stopped")
}

// SaveMemoryLogToFile writes the memory log, header included, to path.
// The live session is not affected. SaveSuccessful reports the outcome.
func (l *Logger) SaveMemoryLogToFile(path string) {
	rows := l.MemoryLog()

	if err := replaceRows(path, rows...); err != nil {
		l.saveOK.Store(false)
		l.log.Warn().Err(err).Str("path", path).Msg("Save log failed")
		return
	}

	l.saveOK.Store(true)
	l.log.Info().Str("path", path).Int("rows", len(rows)).Msg("Log saved")
}

// SaveSuccessful reports whether the last SaveMemoryLogToFile succeeded.
func (l *Logger) SaveSuccessful() bool {
	return l.saveOK.Load()
}

// Subscribe registers o for every subsequently logged data point.
func (l *Logger) Subscribe(o Observer) *Subscription {
	return l.observers.add(o)
}

// TotalLoggedDataPoints returns the number of rows logged this session.
func (l *Logger) TotalLoggedDataPoints() int {
	return int(l.total.Load())
}

// IsLogging reports whether logging is enabled. It stays true after the
// sampler exits on a disconnect, until Stop.
func (l *Logger) IsLogging() bool {
	return l.enabled.Load()
}

// IsSampling reports whether a sampler goroutine is running.
func (l *Logger) IsSampling() bool {
	return l.sampling.Load()
}

// Err returns the error that stopped the last sampler, if any.
func (l *Logger) Err() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.fatalErr
}

// LastWriteError returns the error of the most recent live file write, or
// nil if it succeeded.
func (l *Logger) LastWriteError() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.lastWriteErr
}

// SessionID identifies the current session.
func (l *Logger) SessionID() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.sessionID
}

// Header returns the frozen header of the current session, or nil before
// it is written.
func (l *Logger) Header() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.header...)
}

// MemoryLog returns a copy of every row since the last Reset, header first.
func (l *Logger) MemoryLog() [][]string {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([][]string, len(l.memory))
	for i, row := range l.memory {
		out[i] = append([]string(nil), row...)
	}
	return out
}

// Device returns the controller the logger samples.
func (l *Logger) Device() device.Controller {
	return l.dev
}
