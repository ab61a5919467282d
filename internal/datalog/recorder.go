package datalog

import "time"

// Recorder receives sampler and persistence events for self-telemetry.
type Recorder interface {
	DataPointLogged()
	TickSkipped(reason string)
	ObserveSample(d time.Duration)
	ObserveDispatch(d time.Duration)
	FileWriteFailed()
	SamplerRunning(running bool)
}

type noopRecorder struct{}

func (noopRecorder) DataPointLogged()              {}
func (noopRecorder) TickSkipped(string)            {}
func (noopRecorder) ObserveSample(time.Duration)   {}
func (noopRecorder) ObserveDispatch(time.Duration) {}
func (noopRecorder) FileWriteFailed()              {}
func (noopRecorder) SamplerRunning(bool)           {}
