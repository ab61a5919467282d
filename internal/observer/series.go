package observer

import (
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"codeberg.org/mutker/laserlog/internal/datalog"
	"codeberg.org/mutker/laserlog/internal/logger"
)

// Family groups related columns for plotting.
type Family string

const (
	TECCurrent   Family = "TecCurrent"
	TECVoltage   Family = "TecVoltage"
	Temperature  Family = "ActualTemp"
	DiodeCurrent Family = "ActualCurrent"
	Power        Family = "PowerMonitor"
	Sensor       Family = "Sensor"
)

// DefaultWindow is the number of samples kept per label.
const DefaultWindow = 600

var prefixes = []struct {
	prefix string
	family Family
}{
	{"TecCurrent-", TECCurrent},
	{"TecVoltage-", TECVoltage},
	{"ActualTemp-", Temperature},
	{"ActualCurrent-", DiodeCurrent},
	{"PowerMonitor-", Power},
	{"Humidity-", Sensor},
}

// Sample is one plotted value.
type Sample struct {
	At    time.Time
	Value float64
}

// AlarmEvent records an alarm message when it first appears.
type AlarmEvent struct {
	At      time.Time
	Message string
}

// Series keeps a bounded window of numeric readings per family and label,
// plus the alarm history.
type Series struct {
	mu        sync.RWMutex
	window    int
	data      map[Family]map[string][]Sample
	alarms    []AlarmEvent
	lastAlarm string
	log       logger.Logger
}

// NewSeries keeps up to window samples per label; window < 1 selects
// DefaultWindow.
func NewSeries(window int) *Series {
	if window < 1 {
		window = DefaultWindow
	}
	return &Series{
		window: window,
		data:   make(map[Family]map[string][]Sample),
		log:    logger.Component("observer"),
	}
}

// classify maps a column name to its family and label.
func classify(column string) (Family, string, bool) {
	if column == "Flow" {
		return Sensor, "Flow", true
	}
	for _, p := range prefixes {
		if label, ok := strings.CutPrefix(column, p.prefix); ok {
			return p.family, label, true
		}
	}
	return "", "", false
}

func (s *Series) OnDataPoint(dp datalog.DataPoint) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for column, raw := range dp.Values {
		if column == "Alarms" {
			s.alarmLocked(dp.At, raw)
			continue
		}

		family, label, ok := classify(column)
		if !ok {
			continue
		}

		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			s.log.Debug().Str("column", column).Str("value", raw).Msg("Non-numeric value skipped")
			continue
		}

		labels := s.data[family]
		if labels == nil {
			labels = make(map[string][]Sample)
			s.data[family] = labels
		}
		labels[label] = trim(append(labels[label], Sample{At: dp.At, Value: v}), s.window)
	}
}

// alarmLocked records msg unless it repeats the alarm already active. A
// cleared alarm re-arms recording.
func (s *Series) alarmLocked(at time.Time, msg string) {
	if msg == "" {
		s.lastAlarm = ""
		return
	}
	if msg == s.lastAlarm {
		return
	}
	s.lastAlarm = msg
	s.alarms = append(s.alarms, AlarmEvent{At: at, Message: msg})
	if len(s.alarms) > s.window {
		s.alarms = append([]AlarmEvent(nil), s.alarms[len(s.alarms)-s.window:]...)
	}
}

func trim(samples []Sample, window int) []Sample {
	if len(samples) <= window {
		return samples
	}
	return append([]Sample(nil), samples[len(samples)-window:]...)
}

// Labels returns the labels seen for family, sorted.
func (s *Series) Labels(family Family) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	labels := make([]string, 0, len(s.data[family]))
	for label := range s.data[family] {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	return labels
}

// Points returns a copy of the window for family and label, oldest first.
func (s *Series) Points(family Family, label string) []Sample {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Sample(nil), s.data[family][label]...)
}

// Alarms returns the recorded alarm history, oldest first.
func (s *Series) Alarms() []AlarmEvent {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]AlarmEvent(nil), s.alarms...)
}

// ActiveAlarm returns the alarm message of the latest data point, or "".
func (s *Series) ActiveAlarm() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastAlarm
}
