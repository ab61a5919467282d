package category

import (
	"math"

	"codeberg.org/mutker/laserlog/internal/device"
)

type powerCategory struct {
	base
	dev device.PowerMonitors
}

func newPower(dev device.PowerMonitors) *powerCategory {
	return &powerCategory{base: base{id: Power}, dev: dev}
}

func (c *powerCategory) ColumnLabels() []string {
	ids := c.dev.PowerMonitorIDs()
	labels := make([]string, 0, len(ids))
	for _, id := range ids {
		labels = append(labels, "PowerMonitor-"+c.dev.PowerMonitorLabel(id))
	}
	return labels
}

func (c *powerCategory) Values() ([]string, error) {
	if err := c.dev.RefreshPowerMonitorReadings(); err != nil {
		return nil, c.refreshFailed(err)
	}
	ids := c.dev.PowerMonitorIDs()
	values := make([]string, 0, len(ids))
	for _, id := range ids {
		values = append(values, fixed(c.dev.PowerMonitorReadingWatts(id), 2))
	}
	return values, nil
}

type diodeCurrentsCategory struct {
	base
	dev device.DiodeDrivers
}

func newDiodeCurrents(dev device.DiodeDrivers) *diodeCurrentsCategory {
	return &diodeCurrentsCategory{base: base{id: DiodeCurrents}, dev: dev}
}

func (c *diodeCurrentsCategory) ColumnLabels() []string {
	ids := c.dev.LDDIDs()
	labels := make([]string, 0, 2*len(ids))
	for _, id := range ids {
		label := c.dev.LDDLabel(id)
		labels = append(labels, "SetCurrent-"+label, "ActualCurrent-"+label)
	}
	return labels
}

func (c *diodeCurrentsCategory) Values() ([]string, error) {
	if err := c.dev.RefreshLDDReadings(); err != nil {
		return nil, c.refreshFailed(err)
	}
	ids := c.dev.LDDIDs()
	values := make([]string, 0, 2*len(ids))
	for _, id := range ids {
		values = append(values,
			fixed(c.dev.LDDSetCurrent(id), 2),
			fixed(c.dev.LDDActualCurrent(id), 2))
	}
	return values, nil
}

type temperaturesCategory struct {
	base
	dev device.TemperatureControls
}

func newTemperatures(dev device.TemperatureControls) *temperaturesCategory {
	return &temperaturesCategory{base: base{id: Temperatures}, dev: dev}
}

func (c *temperaturesCategory) ColumnLabels() []string {
	var labels []string
	for _, id := range c.dev.TemperatureControlIDs() {
		label := c.dev.TemperatureControlLabel(id)
		if c.dev.TemperatureControlIsSettable(id) {
			labels = append(labels, "SetTemp-"+label)
		}
		labels = append(labels, "ActualTemp-"+label)
	}
	return labels
}

func (c *temperaturesCategory) Values() ([]string, error) {
	if err := c.dev.RefreshTemperatureReadings(); err != nil {
		return nil, c.refreshFailed(err)
	}
	var values []string
	for _, id := range c.dev.TemperatureControlIDs() {
		if c.dev.TemperatureControlIsSettable(id) {
			values = append(values, fixed(c.dev.SetTemperature(id), 2))
		}
		values = append(values, fixed(c.dev.ActualTemperature(id), 2))
	}
	return values, nil
}

// tecCategory covers the three per-TEC categories. Thermistor-only stages
// have no TEC driver and contribute no columns.
type tecCategory struct {
	base
	prefix string
	value  func(id int) float64
	dev    device.TemperatureControls
}

func newTEC(id ID, prefix string, dev device.TemperatureControls, value func(d device.TemperatureControls, id int) float64) *tecCategory {
	return &tecCategory{
		base:   base{id: id},
		prefix: prefix,
		dev:    dev,
		value:  func(stage int) float64 { return value(dev, stage) },
	}
}

func newTECVoltage(dev device.TemperatureControls) *tecCategory {
	return newTEC(TECVoltage, "TecVoltage-", dev, device.TemperatureControls.TECVoltage)
}

func newTECCurrent(dev device.TemperatureControls) *tecCategory {
	return newTEC(TECCurrent, "TecCurrent-", dev, device.TemperatureControls.TECCurrent)
}

func newTECPower(dev device.TemperatureControls) *tecCategory {
	return newTEC(TECPower, "TecPower-", dev, func(d device.TemperatureControls, id int) float64 {
		return math.Abs(d.TECCurrent(id) * d.TECVoltage(id))
	})
}

func (c *tecCategory) ColumnLabels() []string {
	var labels []string
	for _, id := range c.dev.TemperatureControlIDs() {
		if c.dev.TemperatureControlIsThermistorOnly(id) {
			continue
		}
		labels = append(labels, c.prefix+c.dev.TemperatureControlLabel(id))
	}
	return labels
}

func (c *tecCategory) Values() ([]string, error) {
	if err := c.dev.RefreshTECReadings(); err != nil {
		return nil, c.refreshFailed(err)
	}
	var values []string
	for _, id := range c.dev.TemperatureControlIDs() {
		if c.dev.TemperatureControlIsThermistorOnly(id) {
			continue
		}
		values = append(values, fixed(c.value(id), 3))
	}
	return values, nil
}
