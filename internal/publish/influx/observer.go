package influx

import (
	"strconv"

	"github.com/influxdata/influxdb-client-go/v2/api/write"

	"codeberg.org/mutker/laserlog/internal/datalog"
)

const (
	Measurement = "laser_state"

	alarmsColumn = "Alarms"
)

// PointWriter is satisfied by api.WriteAPI.
type PointWriter interface {
	WritePoint(point *write.Point)
}

// Observer converts each data point into a laser_state point.
type Observer struct {
	w      PointWriter
	serial string
}

func NewObserver(w PointWriter, serial string) *Observer {
	return &Observer{w: w, serial: serial}
}

func (o *Observer) OnDataPoint(dp datalog.DataPoint) {
	if p := buildPoint(o.serial, dp); p != nil {
		o.w.WritePoint(p)
	}
}

// buildPoint returns nil when dp carries no field.
func buildPoint(serial string, dp datalog.DataPoint) *write.Point {
	fields := make(map[string]interface{}, len(dp.Values))
	for column, value := range dp.Values {
		if column == alarmsColumn {
			fields[column] = value
			continue
		}
		if value == "" {
			continue
		}
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			fields[column] = f
		} else {
			fields[column] = value
		}
	}
	if len(fields) == 0 {
		return nil
	}

	return write.NewPoint(
		Measurement,
		map[string]string{
			"serial":  serial,
			"session": dp.SessionID,
		},
		fields,
		dp.At,
	)
}
