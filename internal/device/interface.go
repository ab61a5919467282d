package device

// Status reports whether the controller can be sampled right now.
type Status interface {
	IsConnected() bool
	IsResetting() bool
	IsUpdating() bool
}

// Identity describes the connected laser.
type Identity interface {
	LaserModel() string
	SerialNumber() string
}

// PowerMonitors exposes the optical power monitor readings.
type PowerMonitors interface {
	PowerMonitorIDs() []int
	PowerMonitorLabel(id int) string
	PowerMonitorReadingWatts(id int) float64
	RefreshPowerMonitorReadings() error
}

// DiodeDrivers exposes the laser diode drivers (LDDs).
type DiodeDrivers interface {
	LDDIDs() []int
	LDDLabel(id int) string
	LDDSetCurrent(id int) float64
	LDDActualCurrent(id int) float64
	RefreshLDDReadings() error
}

// TemperatureControls exposes the temperature stages and their TECs.
type TemperatureControls interface {
	TemperatureControlIDs() []int
	TemperatureControlLabel(id int) string
	// TemperatureControlIsSettable reports whether the stage has a set point.
	TemperatureControlIsSettable(id int) bool
	// TemperatureControlIsThermistorOnly reports whether the stage is read
	// through an external thermistor with no TEC driver behind it.
	TemperatureControlIsThermistorOnly(id int) bool
	SetTemperature(id int) float64
	ActualTemperature(id int) float64
	RefreshTemperatureReadings() error

	TECVoltage(id int) float64
	TECCurrent(id int) float64
	RefreshTECReadings() error
}

// Sensors exposes the environmental sensors.
type Sensors interface {
	ChillerFlowEnabled() bool
	ChillerFlowReading() float64
	RefreshFlowReadings() error

	HumidityIDs() []int
	HumidityLabel(id int) string
	HumidityReading(id int) int
	RefreshHumidityReadings() error
}

// Pulse exposes the pulse parameters.
type Pulse interface {
	// PRF is the pulse repetition frequency in Hz.
	PRF() int
	// PEC is the pulse energy control value.
	PEC() float64
}

// Motors exposes the configured positioning motors.
type Motors interface {
	MotorIDs() []int
	MotorLabel(id int) string
	MotorIndex(id int) int
	RefreshMotorReadings() error
}

// Faults exposes the vital status and the active fault list.
type Faults interface {
	RefreshVitalStatus() error
	HasSoftFault() bool
	HasHardFault() bool
	CurrentFaults() []string
}

// Controller is the full read surface of the laser controller. Refresh
// calls must be safe to repeat and cheap enough for a 1 Hz poll.
type Controller interface {
	Status
	Identity
	PowerMonitors
	DiodeDrivers
	TemperatureControls
	Sensors
	Pulse
	Motors
	Faults
}
