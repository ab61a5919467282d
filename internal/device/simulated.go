package device

import (
	"math/rand"
	"sync"
	"sync/atomic"

	"codeberg.org/mutker/laserlog/internal/errors"
	"codeberg.org/mutker/laserlog/internal/logger"
)

// Refresh family names reported by RefreshCount.
const (
	FamilyPower       = "power"
	FamilyLDD         = "ldd"
	FamilyTemperature = "temperature"
	FamilyTEC         = "tec"
	FamilyFlow        = "flow"
	FamilyHumidity    = "humidity"
	FamilyMotor       = "motor"
	FamilyVital       = "vital"
)

// Simulated is an in-process laser controller driven by a Profile. It is
// safe for concurrent use; the setters let a caller script connectivity,
// readings and faults.
type Simulated struct {
	profile Profile

	connected atomic.Bool
	resetting atomic.Bool
	updating  atomic.Bool

	mu         sync.RWMutex
	rng        *rand.Rand
	power      map[int]float64
	lddSet     map[int]float64
	lddActual  map[int]float64
	setTemp    map[int]float64
	actualTemp map[int]float64
	tecVoltage map[int]float64
	tecCurrent map[int]float64
	flow       float64
	humidity   map[int]int
	motors     map[int]int
	faults     []FaultProfile
	refreshErr error
	refreshes  map[string]int

	index profileIndex
	log   logger.Logger
}

type profileIndex struct {
	power map[int]PowerMonitorProfile
	ldd   map[int]LDDProfile
	temp  map[int]TempControlProfile
	hum   map[int]HumidityProfile
	motor map[int]MotorProfile
}

// NewSimulated builds a connected controller with readings at their
// nominal profile values.
func NewSimulated(p Profile) (*Simulated, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	s := &Simulated{
		profile:    p,
		rng:        rand.New(rand.NewSource(p.Seed)),
		power:      make(map[int]float64),
		lddSet:     make(map[int]float64),
		lddActual:  make(map[int]float64),
		setTemp:    make(map[int]float64),
		actualTemp: make(map[int]float64),
		tecVoltage: make(map[int]float64),
		tecCurrent: make(map[int]float64),
		humidity:   make(map[int]int),
		motors:     make(map[int]int),
		faults:     append([]FaultProfile(nil), p.Faults...),
		refreshes:  make(map[string]int),
		index: profileIndex{
			power: make(map[int]PowerMonitorProfile),
			ldd:   make(map[int]LDDProfile),
			temp:  make(map[int]TempControlProfile),
			hum:   make(map[int]HumidityProfile),
			motor: make(map[int]MotorProfile),
		},
		log: logger.Component("device"),
	}

	for _, pm := range p.PowerMonitors {
		s.index.power[pm.ID] = pm
		s.power[pm.ID] = pm.Watts
	}
	for _, l := range p.LDDs {
		s.index.ldd[l.ID] = l
		s.lddSet[l.ID] = l.SetCurrent
		s.lddActual[l.ID] = l.ActualCurrent
	}
	for _, tc := range p.TemperatureControls {
		s.index.temp[tc.ID] = tc
		s.setTemp[tc.ID] = tc.SetTemp
		s.actualTemp[tc.ID] = tc.ActualTemp
		s.tecVoltage[tc.ID] = tc.TECVoltage
		s.tecCurrent[tc.ID] = tc.TECCurrent
	}
	for _, h := range p.Humidity {
		s.index.hum[h.ID] = h
		s.humidity[h.ID] = h.Reading
	}
	for _, m := range p.Motors {
		s.index.motor[m.ID] = m
		s.motors[m.ID] = m.Index
	}
	s.flow = p.ChillerFlow.Reading

	s.connected.Store(true)

	s.log.Info().
		Str("model", p.Model).
		Str("serial", p.Serial).
		Int("power_monitors", len(p.PowerMonitors)).
		Int("temperature_controls", len(p.TemperatureControls)).
		Msg("Simulated controller ready")

	return s, nil
}

// Status

func (s *Simulated) IsConnected() bool { return s.connected.Load() }
func (s *Simulated) IsResetting() bool { return s.resetting.Load() }
func (s *Simulated) IsUpdating() bool  { return s.updating.Load() }

func (s *Simulated) SetConnected(v bool) { s.connected.Store(v) }
func (s *Simulated) SetResetting(v bool) { s.resetting.Store(v) }
func (s *Simulated) SetUpdating(v bool)  { s.updating.Store(v) }

// Identity

func (s *Simulated) LaserModel() string   { return s.profile.Model }
func (s *Simulated) SerialNumber() string { return s.profile.Serial }

// refresh records a refresh of family and reports whether readings may be
// updated. Callers hold s.mu.
func (s *Simulated) refresh(family string) error {
	errFactory := errors.New()

	if !s.connected.Load() {
		return errFactory.WithData(ErrNotConnected, family)
	}
	if s.refreshErr != nil {
		return errFactory.Wrap(ErrRefreshFailed, s.refreshErr)
	}
	s.refreshes[family]++

	return nil
}

func (s *Simulated) noisy(nominal float64) float64 {
	if s.profile.Jitter == 0 {
		return nominal
	}
	return nominal * (1 + s.profile.Jitter*(s.rng.Float64()*2-1))
}

// Power monitors

func (s *Simulated) PowerMonitorIDs() []int {
	ids := make([]int, 0, len(s.profile.PowerMonitors))
	for _, pm := range s.profile.PowerMonitors {
		ids = append(ids, pm.ID)
	}
	return ids
}

func (s *Simulated) PowerMonitorLabel(id int) string { return s.index.power[id].Label }

func (s *Simulated) PowerMonitorReadingWatts(id int) float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.power[id]
}

func (s *Simulated) RefreshPowerMonitorReadings() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.refresh(FamilyPower); err != nil {
		return err
	}
	for id, pm := range s.index.power {
		s.power[id] = s.noisy(pm.Watts)
	}
	return nil
}

// Diode drivers

func (s *Simulated) LDDIDs() []int {
	ids := make([]int, 0, len(s.profile.LDDs))
	for _, l := range s.profile.LDDs {
		ids = append(ids, l.ID)
	}
	return ids
}

func (s *Simulated) LDDLabel(id int) string { return s.index.ldd[id].Label }

func (s *Simulated) LDDSetCurrent(id int) float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lddSet[id]
}

func (s *Simulated) LDDActualCurrent(id int) float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lddActual[id]
}

func (s *Simulated) RefreshLDDReadings() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.refresh(FamilyLDD); err != nil {
		return err
	}
	for id, l := range s.index.ldd {
		s.lddActual[id] = s.noisy(l.ActualCurrent)
	}
	return nil
}

// Temperature controls

func (s *Simulated) TemperatureControlIDs() []int {
	ids := make([]int, 0, len(s.profile.TemperatureControls))
	for _, tc := range s.profile.TemperatureControls {
		ids = append(ids, tc.ID)
	}
	return ids
}

func (s *Simulated) TemperatureControlLabel(id int) string { return s.index.temp[id].Label }

func (s *Simulated) TemperatureControlIsSettable(id int) bool { return s.index.temp[id].Settable }

func (s *Simulated) TemperatureControlIsThermistorOnly(id int) bool {
	return s.index.temp[id].ThermistorOnly
}

func (s *Simulated) SetTemperature(id int) float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.setTemp[id]
}

func (s *Simulated) ActualTemperature(id int) float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.actualTemp[id]
}

func (s *Simulated) RefreshTemperatureReadings() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.refresh(FamilyTemperature); err != nil {
		return err
	}
	for id, tc := range s.index.temp {
		s.actualTemp[id] = s.noisy(tc.ActualTemp)
	}
	return nil
}

func (s *Simulated) TECVoltage(id int) float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tecVoltage[id]
}

func (s *Simulated) TECCurrent(id int) float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.tecCurrent[id]
}

func (s *Simulated) RefreshTECReadings() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.refresh(FamilyTEC); err != nil {
		return err
	}
	for id, tc := range s.index.temp {
		if tc.ThermistorOnly {
			continue
		}
		s.tecVoltage[id] = s.noisy(tc.TECVoltage)
		s.tecCurrent[id] = s.noisy(tc.TECCurrent)
	}
	return nil
}

// Sensors

func (s *Simulated) ChillerFlowEnabled() bool { return s.profile.ChillerFlow.Enabled }

func (s *Simulated) ChillerFlowReading() float64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.flow
}

func (s *Simulated) RefreshFlowReadings() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.refresh(FamilyFlow); err != nil {
		return err
	}
	s.flow = s.noisy(s.profile.ChillerFlow.Reading)
	return nil
}

func (s *Simulated) HumidityIDs() []int {
	ids := make([]int, 0, len(s.profile.Humidity))
	for _, h := range s.profile.Humidity {
		ids = append(ids, h.ID)
	}
	return ids
}

func (s *Simulated) HumidityLabel(id int) string { return s.index.hum[id].Label }

func (s *Simulated) HumidityReading(id int) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.humidity[id]
}

func (s *Simulated) RefreshHumidityReadings() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.refresh(FamilyHumidity)
}

// Pulse

func (s *Simulated) PRF() int     { return s.profile.Pulse.PRF }
func (s *Simulated) PEC() float64 { return s.profile.Pulse.PEC }

// Motors

func (s *Simulated) MotorIDs() []int {
	ids := make([]int, 0, len(s.profile.Motors))
	for _, m := range s.profile.Motors {
		ids = append(ids, m.ID)
	}
	return ids
}

func (s *Simulated) MotorLabel(id int) string { return s.index.motor[id].Label }

func (s *Simulated) MotorIndex(id int) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.motors[id]
}

func (s *Simulated) RefreshMotorReadings() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.refresh(FamilyMotor)
}

// Faults

func (s *Simulated) RefreshVitalStatus() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.refresh(FamilyVital)
}

func (s *Simulated) HasSoftFault() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, f := range s.faults {
		if !f.Hard {
			return true
		}
	}
	return false
}

func (s *Simulated) HasHardFault() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, f := range s.faults {
		if f.Hard {
			return true
		}
	}
	return false
}

func (s *Simulated) CurrentFaults() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.faults))
	for _, f := range s.faults {
		out = append(out, f.Description)
	}
	return out
}

// Scripting

// SetPowerMonitorWatts pins the nominal reading of a power monitor.
func (s *Simulated) SetPowerMonitorWatts(id int, watts float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	pm, ok := s.index.power[id]
	if !ok {
		return
	}
	pm.Watts = watts
	s.index.power[id] = pm
	s.power[id] = watts
}

// SetTEC pins the nominal TEC voltage and current of a temperature stage.
func (s *Simulated) SetTEC(id int, voltage, current float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tc, ok := s.index.temp[id]
	if !ok {
		return
	}
	tc.TECVoltage, tc.TECCurrent = voltage, current
	s.index.temp[id] = tc
	s.tecVoltage[id], s.tecCurrent[id] = voltage, current
}

// RaiseFault adds an active fault.
func (s *Simulated) RaiseFault(description string, hard bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.faults = append(s.faults, FaultProfile{Description: description, Hard: hard})
}

// ClearFaults removes every active fault.
func (s *Simulated) ClearFaults() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.faults = nil
}

// FailRefresh makes every refresh return err until called with nil.
func (s *Simulated) FailRefresh(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refreshErr = err
}

// RefreshCount returns how many successful refreshes family has seen.
func (s *Simulated) RefreshCount(family string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.refreshes[family]
}
