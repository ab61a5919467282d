package datalog

import (
	"time"

	"codeberg.org/mutker/laserlog/internal/category"
	"codeberg.org/mutker/laserlog/internal/device"
	"codeberg.org/mutker/laserlog/internal/errors"
)

const (
	DateColumn = "Date"
	TimeColumn = "Time"

	dateLayout = "2006-01-02"
	timeLayout = "15:04:05"
)

// Skip reasons, also used as metric labels.
const (
	reasonDisconnected  = "disconnected"
	reasonResetting     = "resetting"
	reasonUpdating      = "updating"
	reasonRefreshFailed = "refresh_failed"
	reasonStale         = "stale"
)

// column is an included category with the label count frozen when its
// session header was written.
type column struct {
	cat   category.Category
	width int
}

// freeze snapshots the labels of categories in order and returns the
// session columns together with the header Date, Time, labels...
func freeze(categories []category.Category) ([]column, []string) {
	columns := make([]column, 0, len(categories))
	header := []string{DateColumn, TimeColumn}
	for _, c := range categories {
		labels := c.ColumnLabels()
		columns = append(columns, column{cat: c, width: len(labels)})
		header = append(header, labels...)
	}
	return columns, header
}

// assemble builds one row from columns, stamped with at. A category whose
// value count differs from its frozen width fails the whole row, so a
// device whose topology changed mid-session cannot shift the columns.
func assemble(columns []column, at time.Time) ([]string, error) {
	errFactory := errors.New()

	row := []string{at.Format(dateLayout), at.Format(timeLayout)}
	for _, c := range columns {
		values, err := c.cat.Values()
		if err != nil {
			return nil, err
		}
		if len(values) != c.width {
			return nil, errFactory.Wrap(ErrColumnMismatch, &MismatchError{
				Category: c.cat.ID(),
				Labels:   c.width,
				Values:   len(values),
			})
		}
		row = append(row, values...)
	}
	return row, nil
}

// readiness returns the reason dev cannot be sampled, or "" when it can.
func readiness(dev device.Status) string {
	switch {
	case !dev.IsConnected():
		return reasonDisconnected
	case dev.IsResetting():
		return reasonResetting
	case dev.IsUpdating():
		return reasonUpdating
	default:
		return ""
	}
}
