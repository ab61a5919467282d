// Package observer holds in-process consumers of logged data points.
package observer

import (
	"sort"

	"codeberg.org/mutker/laserlog/internal/datalog"
	"codeberg.org/mutker/laserlog/internal/logger"
)

// Debug logs every data point at debug level.
type Debug struct {
	log logger.Logger
}

func NewDebug() *Debug {
	return &Debug{log: logger.Component("observer")}
}

func (d *Debug) OnDataPoint(dp datalog.DataPoint) {
	columns := make([]string, 0, len(dp.Values))
	for name := range dp.Values {
		columns = append(columns, name)
	}
	sort.Strings(columns)

	ev := d.log.Debug().
		Str("session", dp.SessionID).
		Uint64("seq", dp.Sequence)
	for _, name := range columns {
		ev = ev.Str(name, dp.Values[name])
	}
	ev.Msg("Data point logged")
}
