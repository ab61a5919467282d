// Package category defines the telemetry categories a data point is built
// from and the ordered registry that holds them.
package category

import (
	"strconv"
	"sync/atomic"

	"codeberg.org/mutker/laserlog/internal/errors"
)

// ID is the stable identifier of a category.
type ID string

const (
	Power         ID = "power"
	DiodeCurrents ID = "diode_currents"
	Temperatures  ID = "temperatures"
	TECPower      ID = "tec_power"
	Sensors       ID = "sensors"
	PulseInfo     ID = "pulse_info"
	Motors        ID = "motors"
	Alarms        ID = "alarms"
	TECCurrent    ID = "tec_current"
	TECVoltage    ID = "tec_voltage"
)

// OrderVersion identifies the column order produced by Order. Log headers
// depend on it, so any change to Order must bump it.
const OrderVersion = 1

var order = []ID{
	Power,
	DiodeCurrents,
	Temperatures,
	TECPower,
	Sensors,
	PulseInfo,
	Motors,
	Alarms,
	TECCurrent,
	TECVoltage,
}

// Categories offered to end users. The TEC current and voltage categories
// are service-only.
var visible = []ID{
	Power,
	DiodeCurrents,
	Temperatures,
	Sensors,
	PulseInfo,
	Motors,
	Alarms,
}

var names = map[ID]string{
	Power:         "Power",
	DiodeCurrents: "Diode Currents",
	Temperatures:  "Temperatures",
	TECPower:      "TEC Power",
	Sensors:       "Sensors",
	PulseInfo:     "Pulse Info",
	Motors:        "Motors",
	Alarms:        "Alarms",
	TECCurrent:    "TEC Current",
	TECVoltage:    "TEC Voltage",
}

// Order returns every category id in header order.
func Order() []ID {
	return append([]ID(nil), order...)
}

// VisibleIDs returns the user-facing category ids in header order.
func VisibleIDs() []ID {
	return append([]ID(nil), visible...)
}

// Name returns the display name of id, or "" for an unknown id.
func Name(id ID) string {
	return names[id]
}

// ParseID validates a configured category id.
func ParseID(s string) (ID, error) {
	id := ID(s)
	if _, ok := names[id]; !ok {
		return "", errors.New().WithData(errors.ErrInvalidCategory, s)
	}
	return id, nil
}

// Category is one toggleable group of columns. ColumnLabels never touches
// the device; Values refreshes the readings it reports and must return
// exactly one value per label.
type Category interface {
	ID() ID
	Name() string
	ColumnLabels() []string
	Values() ([]string, error)
	Include()
	Exclude()
	IsIncluded() bool
}

// base carries the identity and inclusion flag shared by every variant.
type base struct {
	id       ID
	included atomic.Bool
}

func (b *base) ID() ID           { return b.id }
func (b *base) Name() string     { return names[b.id] }
func (b *base) Include()         { b.included.Store(true) }
func (b *base) Exclude()         { b.included.Store(false) }
func (b *base) IsIncluded() bool { return b.included.Load() }

func (b *base) refreshFailed(err error) error {
	return errors.New().Wrap(ErrRefreshFailed, err).WithMessage("Refresh failed for category " + string(b.id))
}

func fixed(v float64, decimals int) string {
	return strconv.FormatFloat(v, 'f', decimals, 64)
}
