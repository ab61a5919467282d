package category

import (
	"strconv"
	"strings"

	"codeberg.org/mutker/laserlog/internal/device"
)

type sensorsCategory struct {
	base
	dev device.Sensors
}

func newSensors(dev device.Sensors) *sensorsCategory {
	return &sensorsCategory{base: base{id: Sensors}, dev: dev}
}

func (c *sensorsCategory) ColumnLabels() []string {
	var labels []string
	if c.dev.ChillerFlowEnabled() {
		labels = append(labels, "Flow")
	}
	for _, id := range c.dev.HumidityIDs() {
		labels = append(labels, "Humidity-"+c.dev.HumidityLabel(id))
	}
	return labels
}

func (c *sensorsCategory) Values() ([]string, error) {
	var values []string
	if c.dev.ChillerFlowEnabled() {
		if err := c.dev.RefreshFlowReadings(); err != nil {
			return nil, c.refreshFailed(err)
		}
		values = append(values, fixed(c.dev.ChillerFlowReading(), 1))
	}

	ids := c.dev.HumidityIDs()
	if len(ids) > 0 {
		if err := c.dev.RefreshHumidityReadings(); err != nil {
			return nil, c.refreshFailed(err)
		}
		for _, id := range ids {
			values = append(values, strconv.Itoa(c.dev.HumidityReading(id)))
		}
	}
	return values, nil
}

type pulseInfoCategory struct {
	base
	dev device.Pulse
}

func newPulseInfo(dev device.Pulse) *pulseInfoCategory {
	return &pulseInfoCategory{base: base{id: PulseInfo}, dev: dev}
}

func (c *pulseInfoCategory) ColumnLabels() []string {
	return []string{"PRF", "PEC"}
}

// Values reads the cached pulse settings; they have no refresh call.
func (c *pulseInfoCategory) Values() ([]string, error) {
	return []string{strconv.Itoa(c.dev.PRF()), fixed(c.dev.PEC(), 2)}, nil
}

type motorsCategory struct {
	base
	dev device.Motors
}

func newMotors(dev device.Motors) *motorsCategory {
	return &motorsCategory{base: base{id: Motors}, dev: dev}
}

func (c *motorsCategory) ColumnLabels() []string {
	ids := c.dev.MotorIDs()
	labels := make([]string, 0, len(ids))
	for _, id := range ids {
		labels = append(labels, "MotorIndex-"+c.dev.MotorLabel(id))
	}
	return labels
}

func (c *motorsCategory) Values() ([]string, error) {
	ids := c.dev.MotorIDs()
	if len(ids) == 0 {
		return []string{}, nil
	}
	if err := c.dev.RefreshMotorReadings(); err != nil {
		return nil, c.refreshFailed(err)
	}
	values := make([]string, 0, len(ids))
	for _, id := range ids {
		values = append(values, strconv.Itoa(c.dev.MotorIndex(id)))
	}
	return values, nil
}

type alarmsCategory struct {
	base
	dev device.Faults
}

func newAlarms(dev device.Faults) *alarmsCategory {
	return &alarmsCategory{base: base{id: Alarms}, dev: dev}
}

func (c *alarmsCategory) ColumnLabels() []string {
	return []string{"Alarms"}
}

// Values returns a single field: "" when no fault is active, otherwise
// every active fault wrapped in brackets, e.g. "[Flow low][Interlock]".
func (c *alarmsCategory) Values() ([]string, error) {
	if err := c.dev.RefreshVitalStatus(); err != nil {
		return nil, c.refreshFailed(err)
	}
	if !c.dev.HasSoftFault() && !c.dev.HasHardFault() {
		return []string{""}, nil
	}

	var b strings.Builder
	for _, fault := range c.dev.CurrentFaults() {
		b.WriteString("[")
		b.WriteString(fault)
		b.WriteString("]")
	}
	return []string{b.String()}, nil
}
