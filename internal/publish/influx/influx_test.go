package influx

import (
	"testing"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"codeberg.org/mutker/laserlog/internal/datalog"
	"codeberg.org/mutker/laserlog/internal/errors"
)

type captureWriter struct {
	points []*write.Point
}

func (c *captureWriter) WritePoint(p *write.Point) {
	c.points = append(c.points, p)
}

var at = time.Date(2025, 3, 14, 9, 26, 53, 0, time.UTC)

func fieldsOf(p *write.Point) map[string]any {
	out := make(map[string]any)
	for _, f := range p.FieldList() {
		out[f.Key] = f.Value
	}
	return out
}

func tagsOf(p *write.Point) map[string]string {
	out := make(map[string]string)
	for _, tag := range p.TagList() {
		out[tag.Key] = tag.Value
	}
	return out
}

func TestObserverWritesLaserStatePoint(t *testing.T) {
	w := &captureWriter{}
	obs := NewObserver(w, "SN-001")

	obs.OnDataPoint(datalog.DataPoint{
		SessionID: "7b1e",
		Sequence:  1,
		At:        at,
		Values: map[string]string{
			"PowerMonitor-Main": "3.21",
			"PRF":               "100000",
			"Alarms":            "[Flow, low]",
			"MotorPos-X":        "",
			"Mode":              "burst",
		},
	})

	require.Len(t, w.points, 1)
	p := w.points[0]
	assert.Equal(t, Measurement, p.Name())
	assert.Equal(t, at, p.Time())
	assert.Equal(t, map[string]string{"serial": "SN-001", "session": "7b1e"}, tagsOf(p))
	assert.Equal(t, map[string]any{
		"PowerMonitor-Main": 3.21,
		"PRF":               100000.0,
		"Alarms":            "[Flow, low]",
		"Mode":              "burst",
	}, fieldsOf(p))
}

func TestAlarmsIsAlwaysString(t *testing.T) {
	p := buildPoint("SN", datalog.DataPoint{SessionID: "s", At: at, Values: map[string]string{"Alarms": ""}})

	require.NotNil(t, p)
	assert.Equal(t, map[string]any{"Alarms": ""}, fieldsOf(p))
}

func TestEmptyPointIsDropped(t *testing.T) {
	w := &captureWriter{}
	NewObserver(w, "SN").OnDataPoint(datalog.DataPoint{SessionID: "s", At: at, Values: map[string]string{"Flow": ""}})

	assert.Empty(t, w.points)
}

func TestConfigValidate(t *testing.T) {
	assert.NoError(t, Config{}.Validate())

	cfg := DefaultConfig()
	cfg.Enabled = true
	assert.NoError(t, cfg.Validate())

	cfg.Bucket = ""
	err := cfg.Validate()
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.New().New(ErrInvalidConfig))
}
