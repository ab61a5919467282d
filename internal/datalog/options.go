package datalog

// Bounds and default of the sampling interval, in seconds.
const (
	MinIntervalSeconds     = 1
	MaxIntervalSeconds     = 999999
	DefaultIntervalSeconds = 60
)

// Option configures a Logger.
type Option func(*Logger)

// WithIntervalSeconds sets the initial interval. Out of range values are
// ignored like SetIntervalSeconds.
func WithIntervalSeconds(n int) Option {
	return func(l *Logger) { l.SetIntervalSeconds(n) }
}

// WithResumeOnReconnect selects whether the sampler keeps polling through
// a disconnect (true) or exits when it sees one (false). The default is
// true.
func WithResumeOnReconnect(resume bool) Option {
	return func(l *Logger) { l.resume = resume }
}

// WithFilePath sets the initial log file path.
func WithFilePath(path string) Option {
	return func(l *Logger) { l.SetFilePath(path) }
}

// WithClock replaces the clock used for session start and row timestamps.
func WithClock(c Clock) Option {
	return func(l *Logger) { l.clock = c }
}

// WithTicker replaces the poll ticker factory.
func WithTicker(f TickerFunc) Option {
	return func(l *Logger) { l.newTicker = f }
}

// WithRecorder attaches a self-telemetry recorder.
func WithRecorder(r Recorder) Option {
	return func(l *Logger) { l.rec = r }
}
