package datalog

import (
	"context"
	"time"

	"codeberg.org/mutker/laserlog/internal/logger"
	"github.com/trickstertwo/xclock"
)

// PollInterval is the granularity of the sampling schedule.
const PollInterval = time.Second

// Clock supplies the session start time and row timestamps.
type Clock interface {
	Now() time.Time
}

type processClock struct{}

// Now defers to the process clock so tests can freeze it with
// xclock.SetDefault.
func (processClock) Now() time.Time { return xclock.Now() }

// Ticker delivers poll times.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

// TickerFunc creates a Ticker firing every d.
type TickerFunc func(d time.Duration) Ticker

type timeTicker struct {
	t *time.Ticker
}

func newTimeTicker(d time.Duration) Ticker {
	return &timeTicker{t: time.NewTicker(d)}
}

func (t *timeTicker) C() <-chan time.Time { return t.t.C }
func (t *timeTicker) Stop()               { t.t.Stop() }

type tickResult int

const (
	tickContinue tickResult = iota
	tickExit
)

// sampler polls once per PollInterval and fires a sample whenever the
// elapsed time since start reaches interval*taken. Comparing against the
// theoretical schedule keeps the error per sample within one poll and
// stops it from accumulating.
type sampler struct {
	interval  time.Duration
	clock     Clock
	newTicker TickerFunc
	sample    func(at time.Time) tickResult
	log       logger.Logger
}

func (s *sampler) run(ctx context.Context) {
	start := s.clock.Now()
	taken := 0

	ticker := s.newTicker(PollInterval)
	defer ticker.Stop()

	s.log.Debug().
		Dur("interval", s.interval).
		Time("start", start).
		Msg("Sampler running")

	due := func(now time.Time) bool {
		elapsed := now.Sub(start)
		next := s.interval * time.Duration(taken)
		if elapsed < next {
			return false
		}
		// A due slot is consumed even if the sample is then skipped.
		taken++
		return true
	}

	if due(start) && s.sample(start) == tickExit {
		return
	}

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C():
			if !due(now) {
				continue
			}
			s.log.Debug().
				Int("taken", taken).
				Dur("elapsed", now.Sub(start)).
				Msg("Sample due")
			if s.sample(now) == tickExit {
				return
			}
		}
	}
}
